package icc

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// The largest number of samples accepted in a color lookup table
const MaxCLUTEntries = 500000

// The largest number of inputs a color lookup table may have
const MaxCLUTInputs = 8

// CLUT is a multi-dimensional lookup table. Samples are normalized to
// [0, 1] and interpolated tetrahedrally for three and four inputs, linearly
// for one input and n-linearly otherwise or when trilinear is set.
type CLUT struct {
	d         *interpolation_data
	trilinear bool
}

var _ ChannelTransformer = (*CLUT)(nil)

func (c *CLUT) Samples() []unit_float { return c.d.samples }
func (c *CLUT) GridPoints() []int     { return c.d.grid_points }

func (c *CLUT) String() string {
	return fmt.Sprintf("CLUT{ inp:%v outp:%v grid:%v%s }", c.d.num_inputs, c.d.num_outputs, c.d.grid_points, IfElse(c.trilinear, " trilinear", ""))
}

func (c *CLUT) IOSig() (int, int)                    { return c.d.num_inputs, c.d.num_outputs }
func (c *CLUT) Iter(f func(ChannelTransformer) bool) { f(c) }

func (c *CLUT) Transform(r, g, b unit_float) (unit_float, unit_float, unit_float) {
	if c.d.num_inputs == 3 && c.d.num_outputs == 3 && !c.trilinear {
		var obuf [3]unit_float
		c.d.tetrahedral_interpolate(r, g, b, obuf[:])
		return obuf[0], obuf[1], obuf[2]
	}
	return general3(c, r, g, b)
}

func (c *CLUT) TransformGeneral(out, in []unit_float) {
	switch {
	case c.d.num_inputs == 1:
		c.d.linear_interpolate(in[0], out)
	case c.trilinear:
		c.d.trilinear_interpolate(in, out)
	case c.d.num_inputs == 3:
		c.d.tetrahedral_interpolate(in[0], in[1], in[2], out)
	case c.d.num_inputs == 4:
		c.d.tetrahedral_interpolate4(in, out)
	default:
		c.d.trilinear_interpolate(in, out)
	}
}

// NewCLUT creates a lookup table from normalized samples laid out with the
// first input varying slowest and the output channels interleaved.
func NewCLUT(grid_points []int, num_outputs int, samples []unit_float) (*CLUT, error) {
	if len(grid_points) == 0 || len(grid_points) > MaxCLUTInputs {
		return nil, fmt.Errorf("CLUT has invalid number of inputs: %d", len(grid_points))
	}
	if num_outputs < 1 || num_outputs > MaxChannels {
		return nil, fmt.Errorf("CLUT has invalid number of outputs: %d", num_outputs)
	}
	for i, n := range grid_points {
		if n < 2 {
			return nil, fmt.Errorf("CLUT input channel %d has invalid grid points: %d", i, n)
		}
	}
	expected, err := expectedValues(grid_points, num_outputs)
	if err != nil {
		return nil, err
	}
	if len(samples) != expected {
		return nil, fmt.Errorf("CLUT has %d samples, expected %d", len(samples), expected)
	}
	return &CLUT{d: make_interpolation_data(len(grid_points), num_outputs, grid_points, samples)}, nil
}

func expectedValues(grid_points []int, output_channels int) (int, error) {
	n := output_channels
	for _, g := range grid_points {
		n *= g
		if n > MaxCLUTEntries {
			return 0, fmt.Errorf("CLUT too large, exceeds %d entries", MaxCLUTEntries)
		}
	}
	return n, nil
}

func default8(x uint8) unit_float   { return unit_float(x) / math.MaxUint8 }
func default16(x uint16) unit_float { return unit_float(x) / math.MaxUint16 }

func decode_table(raw []byte, bytes_per_channel, count int) ([]unit_float, error) {
	if len(raw) < bytes_per_channel*count {
		return nil, fmt.Errorf("table too short %d < %d", len(raw), bytes_per_channel*count)
	}
	ans := make([]unit_float, count)
	switch bytes_per_channel {
	case 1:
		for i, x := range raw[:count] {
			ans[i] = default8(x)
		}
	case 2:
		for i := range ans {
			ans[i] = default16(binary.BigEndian.Uint16(raw[2*i:]))
		}
	default:
		return nil, fmt.Errorf("invalid table precision: %d", bytes_per_channel)
	}
	return ans, nil
}

// section 10.12.3 (CLUT) in ICC.1-2202-05.pdf
func embeddedClutDecoder(raw []byte, input_channels, output_channels int) (*CLUT, error) {
	if len(raw) < 20 {
		return nil, errors.New("clut tag too short")
	}
	if input_channels < 1 || input_channels > MaxCLUTInputs {
		return nil, fmt.Errorf("clut has invalid number of input channels: %d", input_channels)
	}
	grid_points := make([]int, input_channels)
	for i, b := range raw[:input_channels] {
		grid_points[i] = int(b)
	}
	for i, n := range grid_points {
		if n < 2 {
			return nil, fmt.Errorf("CLUT input channel %d has invalid grid points: %d", i, n)
		}
	}
	expected, err := expectedValues(grid_points, output_channels)
	if err != nil {
		return nil, err
	}
	samples, err := decode_table(raw[20:], int(raw[16]), expected)
	if err != nil {
		return nil, err
	}
	return NewCLUT(grid_points, output_channels, samples)
}
