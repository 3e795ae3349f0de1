package icc

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// MFT is a lut8Type or lut16Type tag: matrix, input tables, CLUT and output
// tables applied in that order. All values are normalized to [0, 1].
type MFT struct {
	in_channels, out_channels   int
	matrix                      ChannelTransformer
	input_tables, output_tables *SampledTables
	clut                        *CLUT
	is8bit                      bool
}

var _ ChannelTransformer = (*MFT)(nil)

func (m *MFT) IOSig() (int, int) { return m.in_channels, m.out_channels }
func (m *MFT) Is8Bit() bool      { return m.is8bit }

func (m *MFT) Iter(f func(ChannelTransformer) bool) {
	if m.matrix != nil {
		if !f(m.matrix) {
			return
		}
	}
	if !f(m.input_tables) {
		return
	}
	if !f(m.clut) {
		return
	}
	f(m.output_tables)
}

func (m *MFT) String() string {
	var stages []ChannelTransformer
	m.Iter(func(c ChannelTransformer) bool {
		stages = append(stages, c)
		return true
	})
	return fmt.Sprintf("%s{ %s }", IfElse(m.is8bit, "mft1", "mft2"), transformers_as_string(stages...))
}

func (m *MFT) Transform(r, g, b unit_float) (unit_float, unit_float, unit_float) {
	return general3(m, r, g, b)
}

func (m *MFT) TransformGeneral(out, in []unit_float) {
	var a, b [MaxChannels]unit_float
	copy(a[:], in[:m.in_channels])
	if m.matrix != nil {
		m.matrix.TransformGeneral(b[:], a[:])
		a = b
	}
	m.input_tables.TransformGeneral(b[:], a[:])
	m.clut.TransformGeneral(a[:], b[:])
	m.output_tables.TransformGeneral(out, a[:])
}

// SampledTables is a set of per channel one dimensional tables that are
// interpolated linearly. Unlike sampled curves they need not be monotonic.
type SampledTables struct {
	tables  [][]unit_float
	max_idx []unit_float
}

var _ ChannelTransformer = (*SampledTables)(nil)

func NewSampledTables(tables ...[]unit_float) *SampledTables {
	ans := &SampledTables{tables: tables, max_idx: make([]unit_float, len(tables))}
	for i, t := range tables {
		ans.max_idx[i] = unit_float(len(t) - 1)
	}
	return ans
}

func (s *SampledTables) IOSig() (int, int)                    { return len(s.tables), len(s.tables) }
func (s *SampledTables) Iter(f func(ChannelTransformer) bool) { f(s) }
func (s *SampledTables) String() string {
	sizes := make([]string, len(s.tables))
	for i, t := range s.tables {
		sizes[i] = fmt.Sprint(len(t))
	}
	return fmt.Sprintf("SampledTables{%s}", strings.Join(sizes, ", "))
}
func (s *SampledTables) Transform(r, g, b unit_float) (unit_float, unit_float, unit_float) {
	return sampled_value(s.tables[0], s.max_idx[0], r), sampled_value(s.tables[1], s.max_idx[1], g), sampled_value(s.tables[2], s.max_idx[2], b)
}
func (s *SampledTables) TransformGeneral(out, in []unit_float) {
	for i, t := range s.tables {
		out[i] = sampled_value(t, s.max_idx[i], in[i])
	}
}

func load_tables(raw []byte, bytes_per_channel, num_tables, entries int) (ans [][]unit_float, leftover []byte, err error) {
	ans = make([][]unit_float, num_tables)
	for i := range ans {
		if ans[i], err = decode_table(raw, bytes_per_channel, entries); err != nil {
			return nil, raw, err
		}
		raw = raw[bytes_per_channel*entries:]
	}
	return ans, raw, nil
}

func load_mft_header(raw []byte) (ans *MFT, grid_points int, err error) {
	if len(raw) < 48 {
		return nil, 0, errors.New("mft tag too short")
	}
	a := MFT{}
	a.in_channels, a.out_channels, grid_points = int(raw[8]), int(raw[9]), int(raw[10])
	if a.in_channels < 1 || a.in_channels > MaxCLUTInputs {
		return nil, 0, fmt.Errorf("mft tag has invalid number of input channels: %d", a.in_channels)
	}
	if a.out_channels < 1 || a.out_channels > MaxChannels {
		return nil, 0, fmt.Errorf("mft tag has invalid number of output channels: %d", a.out_channels)
	}
	if grid_points < 2 {
		return nil, 0, fmt.Errorf("mft tag has invalid number of CLUT grid points: %d", grid_points)
	}
	if a.in_channels == 3 {
		m, err := embeddedMatrixDecoder(raw[12:48])
		if err != nil {
			return nil, 0, err
		}
		if _, is_identity := m.(*IdentityMatrix); !is_identity {
			a.matrix = m
		}
	}
	return &a, grid_points, nil
}

func load_mft_body(a *MFT, raw []byte, bytes_per_channel, grid_points, input_table_entries, output_table_entries int) (err error) {
	for _, n := range []int{input_table_entries, output_table_entries} {
		if n < 2 || n > 4096 {
			return fmt.Errorf("mft tag has invalid number of table entries: %d", n)
		}
	}
	gp := make([]int, a.in_channels)
	for i := range gp {
		gp[i] = grid_points
	}
	num_clut, err := expectedValues(gp, a.out_channels)
	if err != nil {
		return err
	}
	var tables [][]unit_float
	if tables, raw, err = load_tables(raw, bytes_per_channel, a.in_channels, input_table_entries); err != nil {
		return err
	}
	a.input_tables = NewSampledTables(tables...)
	samples, err := decode_table(raw, bytes_per_channel, num_clut)
	if err != nil {
		return err
	}
	raw = raw[bytes_per_channel*num_clut:]
	if a.clut, err = NewCLUT(gp, a.out_channels, samples); err != nil {
		return err
	}
	if tables, _, err = load_tables(raw, bytes_per_channel, a.out_channels, output_table_entries); err != nil {
		return err
	}
	a.output_tables = NewSampledTables(tables...)
	return nil
}

func decode_mft8(raw []byte) (ans any, err error) {
	a, grid_points, err := load_mft_header(raw)
	if err != nil {
		return nil, err
	}
	a.is8bit = true
	if err = load_mft_body(a, raw[48:], 1, grid_points, 256, 256); err != nil {
		return nil, err
	}
	return a, nil
}

func decode_mft16(raw []byte) (ans any, err error) {
	a, grid_points, err := load_mft_header(raw)
	if err != nil {
		return nil, err
	}
	if len(raw) < 52 {
		return nil, errors.New("mft2 tag too short")
	}
	input_table_entries, output_table_entries := binary.BigEndian.Uint16(raw[48:50]), binary.BigEndian.Uint16(raw[50:52])
	if err = load_mft_body(a, raw[52:], 2, grid_points, int(input_table_entries), int(output_table_entries)); err != nil {
		return nil, err
	}
	return a, nil
}
