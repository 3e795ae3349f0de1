package cms

import (
	"github.com/kovidgoyal/cms/icc"
)

type RenderingIntent = icc.RenderingIntent

const (
	Perceptual           = icc.PerceptualRenderingIntent
	RelativeColorimetric = icc.RelativeColorimetricRenderingIntent
	Saturation           = icc.SaturationRenderingIntent
	AbsoluteColorimetric = icc.AbsoluteColorimetricRenderingIntent
)

// Interpolation selects how multi-dimensional lookup tables are sampled
type Interpolation int

const (
	Tetrahedral Interpolation = iota
	Trilinear
)

func (i Interpolation) String() string {
	if i == Trilinear {
		return "Trilinear"
	}
	return "Tetrahedral"
}

type TransformOptions struct {
	RenderingIntent RenderingIntent
	Interpolation   Interpolation
	// Number of grid points per axis when a transform is baked into a
	// lookup table. Zero means 33 for three inputs, 17 for four and 4096
	// for one.
	GridSize int
	// Use the transfer function from the cicp tag of a profile, when it is
	// one this package knows, instead of its TRC tags
	AllowCICPTransfer bool
	// Always use the scalar kernels
	DisableVectorization bool
	// Debug is called with the input and output of every pipeline stage
	// while a lookup table is being baked
	Debug icc.Debug_callback
}

// DefaultTransformOptions returns the options used when none are
// specified: perceptual intent, tetrahedral interpolation, automatic grid
// size, TRCs from the profile and vectorized kernels.
func DefaultTransformOptions() TransformOptions {
	return TransformOptions{RenderingIntent: Perceptual, Interpolation: Tetrahedral}
}
