// Package engine executes compiled color transform plans over interleaved
// pixel buffers.
package engine

import (
	"fmt"
	"strings"

	"github.com/kovidgoyal/cms/icc"
)

// Format describes the interleaved samples of one pixel. Color samples come
// first, followed by the alpha sample if any.
type Format struct {
	Channels      int // samples per pixel
	ColorChannels int
	AlphaIndex    int // -1 when there is no alpha channel
}

func (f Format) HasAlpha() bool { return f.AlphaIndex >= 0 }

func (f Format) String() string {
	return fmt.Sprintf("Format{channels: %d color: %d alpha: %d}", f.Channels, f.ColorChannels, f.AlphaIndex)
}

func (f Format) validate() error {
	switch {
	case f.ColorChannels < 1 || f.ColorChannels > icc.MaxChannels:
		return fmt.Errorf("invalid number of color channels: %d", f.ColorChannels)
	case f.AlphaIndex < 0 && f.Channels != f.ColorChannels:
		return fmt.Errorf("%s has extra channels but no alpha", f)
	case f.AlphaIndex >= 0 && (f.Channels != f.ColorChannels+1 || f.AlphaIndex != f.ColorChannels):
		return fmt.Errorf("%s must have alpha as its last channel", f)
	}
	return nil
}

// Plan is a compiled transform ready for execution. It is one of
// *CopyPlan, *MatrixShaperPlan or *LUTPlan.
type Plan interface {
	fmt.Stringer
	// IOSig returns the number of color channels consumed and produced
	IOSig() (int, int)
	validate() error
}

// CopyPlan copies color samples unchanged. It is produced when the source
// and destination describe the same color space.
type CopyPlan struct {
	Channels int
}

func (p *CopyPlan) String() string    { return "Copy" }
func (p *CopyPlan) IOSig() (int, int) { return p.Channels, p.Channels }
func (p *CopyPlan) validate() error {
	if p.Channels < 1 || p.Channels > icc.MaxChannels {
		return fmt.Errorf("copy plan has invalid number of channels: %d", p.Channels)
	}
	return nil
}

// MatrixShaperPlan linearizes with Decode, applies Matrix and re-encodes
// with the inverse of Encode. A single Decode curve means the source is
// gray: its linear value enters the matrix as the first component. A single
// Encode curve means the destination is gray and uses the first matrix row.
type MatrixShaperPlan struct {
	Decode []icc.Curve1D
	Matrix icc.Matrix3
	Encode []icc.Curve1D
	// AverageInput collapses three source samples into the single gray
	// value before decoding
	AverageInput bool
	// ReplicateOutput writes the single gray value to three samples
	ReplicateOutput bool
}

func (p *MatrixShaperPlan) IOSig() (int, int) {
	return icc.IfElse(p.AverageInput, 3, len(p.Decode)), icc.IfElse(p.ReplicateOutput, 3, len(p.Encode))
}

func (p *MatrixShaperPlan) String() string {
	stages := []string{}
	if p.AverageInput {
		stages = append(stages, "AverageChannels")
	}
	stages = append(stages, icc.NewCurveTransformer("TRC", p.Decode...).String(), p.Matrix.String(),
		icc.NewInverseCurveTransformer("InverseTRC", p.Encode...).String())
	if p.ReplicateOutput {
		stages = append(stages, "ReplicateChannel")
	}
	return strings.Join(stages, " → ")
}

func (p *MatrixShaperPlan) validate() error {
	for _, n := range []int{len(p.Decode), len(p.Encode)} {
		if n != 1 && n != 3 {
			return fmt.Errorf("matrix shaper plan needs one or three curves not %d", n)
		}
	}
	if p.AverageInput && len(p.Decode) != 1 {
		return fmt.Errorf("matrix shaper plan can only average into a single decode curve")
	}
	if p.ReplicateOutput && len(p.Encode) != 1 {
		return fmt.Errorf("matrix shaper plan can only replicate a single encode curve")
	}
	return nil
}

// The largest number of samples a LUT plan may hold
const MaxLUTPlanSamples = 1 << 23

// LUTPlan is a transform baked into a grid over the source color samples.
// Samples are laid out with the first input varying slowest and the outputs
// interleaved, all in [0, 1].
type LUTPlan struct {
	Inputs, Outputs int
	GridPoints      int
	Samples         []float32
	Trilinear       bool
	// Source describes the pipeline that was baked into the grid
	Source string
}

func (p *LUTPlan) IOSig() (int, int) { return p.Inputs, p.Outputs }

func (p *LUTPlan) String() string {
	return fmt.Sprintf("LUT%dx%d{grid: %d%s}[%s]", p.Inputs, p.Outputs, p.GridPoints, icc.IfElse(p.Trilinear, " trilinear", ""), p.Source)
}

func (p *LUTPlan) validate() error {
	switch p.Inputs {
	case 1, 3, 4:
	default:
		return fmt.Errorf("LUT plan has unsupported number of inputs: %d", p.Inputs)
	}
	if p.Outputs < 1 || p.Outputs > icc.MaxChannels {
		return fmt.Errorf("LUT plan has invalid number of outputs: %d", p.Outputs)
	}
	if p.GridPoints < 2 || p.GridPoints > MaxLUTPlanSamples/p.Outputs {
		return fmt.Errorf("LUT plan has invalid number of grid points: %d", p.GridPoints)
	}
	expected := p.Outputs
	for range p.Inputs {
		expected *= p.GridPoints
		if expected > MaxLUTPlanSamples {
			return fmt.Errorf("LUT plan grid of %d points is too large", p.GridPoints)
		}
	}
	if len(p.Samples) != expected {
		return fmt.Errorf("LUT plan has %d samples, expected %d", len(p.Samples), expected)
	}
	return nil
}
