// Package compiler turns a pair of ICC profiles into an executable plan for
// the engine.
package compiler

import (
	"fmt"
	"math"

	"github.com/kovidgoyal/cms/icc"
	"github.com/kovidgoyal/cms/internal/engine"
)

var (
	ErrMalformedProfile      = icc.ErrMalformedProfile
	ErrUnsupportedConversion = icc.ErrUnsupportedConversion
)

type Format = engine.Format

// Default grid sizes used when Options.GridSize is zero
const (
	DefaultGridSize1D = 4096
	DefaultGridSize3D = 33
	DefaultGridSize4D = 17
)

type Options struct {
	RenderingIntent icc.RenderingIntent
	// Use trilinear rather than tetrahedral interpolation for baked and
	// embedded grids
	Trilinear bool
	// Number of grid points per axis of a baked LUT, zero picks a size
	// based on the number of inputs
	GridSize int
	// Use the transfer function named by a cicp tag in place of the TRCs
	AllowCICPTransfer bool
	// Called for every stage of the pipeline at every grid point while
	// baking a LUT
	Debug icc.Debug_callback
}

func unsupported(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnsupportedConversion, fmt.Sprintf(format, args...))
}

// side is one end of a conversion
type side struct {
	p      *icc.Profile
	layout Format
	gray   bool
	// set when the profile is used through its matrix/TRC representation
	curves    []icc.Curve1D
	colorants icc.Matrix3
	// gray profile with an RGB layout
	expanded bool
	// RGB profile with a gray layout, gray samples stand for R = G = B
	collapsed bool
}

func new_side(p *icc.Profile, layout Format, intent icc.RenderingIntent, to_pcs, allow_cicp bool) (*side, error) {
	switch p.Header.DeviceClass {
	case icc.DeviceClassLink, icc.DeviceClassAbstract, icc.DeviceClassNamedColor:
		return nil, unsupported("%s profiles cannot be used for conversion", p.Header.DeviceClass)
	}
	s := &side{p: p, layout: layout}
	cs := p.Header.DataColorSpace
	switch cs {
	case icc.ColorSpaceGray:
		s.gray = true
		if layout.ColorChannels == 3 {
			s.expanded = true
		} else if layout.ColorChannels != 1 {
			return nil, unsupported("a Gray profile cannot be used with %d color channels", layout.ColorChannels)
		}
	case icc.ColorSpaceRGB, icc.ColorSpaceCMYK:
		if cs == icc.ColorSpaceRGB && layout.ColorChannels == 1 {
			s.collapsed = true
		} else if layout.ColorChannels != cs.NumberOfChannels() {
			return nil, unsupported("a %s profile cannot be used with %d color channels", cs, layout.ColorChannels)
		}
	default:
		return nil, unsupported("profiles with a %s data color space are not supported", cs)
	}
	switch {
	case p.HasLUT(intent, to_pcs):
		return s, nil
	case cs == icc.ColorSpaceCMYK:
		return nil, unsupported("the CMYK profile has no usable %s table", icc.IfElse(to_pcs, "A2B", "B2A"))
	case !p.IsMatrixShaper():
		return nil, unsupported("the %s profile has neither a usable LUT nor a matrix/TRC representation", cs)
	}
	var err error
	if s.curves, err = p.TRCs(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedConversion, err)
	}
	if allow_cicp {
		if c := p.CICP(); c != nil {
			if trc, err := icc.CICPTransfer(c.TransferCharacteristics); err == nil {
				for i := range s.curves {
					s.curves[i] = trc
				}
			}
		}
	}
	if !s.gray {
		if s.colorants, err = p.RGBColorants(); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedConversion, err)
		}
	}
	if s.collapsed {
		if curves_equal(s.curves, []icc.Curve1D{s.curves[0], s.curves[0], s.curves[0]}) {
			// a neutral of the profile behaves as gray with its TRC
			s.gray, s.curves = true, s.curves[:1]
		} else {
			s.curves = nil
		}
	}
	return s, nil
}

func (s *side) is_matrix_shaper() bool { return s.curves != nil }

// to_xyz is the matrix mapping linear device values to D50 XYZ. Gray
// values enter as the first component.
func (s *side) to_xyz() icc.Matrix3 {
	if s.gray {
		d := icc.D50
		return icc.Matrix3{{d.X, 0, 0}, {d.Y, 0, 0}, {d.Z, 0, 0}}
	}
	return s.colorants
}

// from_xyz maps D50 XYZ to linear device values, gray comes out first
func (s *side) from_xyz() (icc.Matrix3, error) {
	if s.gray {
		return icc.Matrix3{{0, 1, 0}}, nil
	}
	m, err := s.colorants.Inverted()
	if err != nil {
		return m, unsupported("the colorant matrix is not invertible: %s", err)
	}
	return m, nil
}

// absolute_scaling maps relative colorimetry of src to that of dst while
// preserving absolute XYZ
func absolute_scaling(src, dst *icc.Profile) icc.Matrix3 {
	s, d := src.MediaWhitePoint(), dst.MediaWhitePoint()
	f := func(a, b float64) float64 {
		if b == 0 {
			return 1
		}
		return a / b
	}
	return icc.NewScalingMatrix3(f(s.X, d.X), f(s.Y, d.Y), f(s.Z, d.Z))
}

// Compile builds the plan converting pixels in srcLayout described by src
// into pixels in dstLayout described by dst. Profiles whose device values
// map to the PCS through a matrix and TRCs give a matrix shaper plan (or a
// copy when source and destination are the same), everything else is baked
// into a LUT over the source color samples.
func Compile(src, dst *icc.Profile, srcLayout, dstLayout Format, opts Options) (engine.Plan, error) {
	if src == nil || dst == nil {
		return nil, unsupported("both source and destination profiles are required")
	}
	s, err := new_side(src, srcLayout, opts.RenderingIntent, true, opts.AllowCICPTransfer)
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}
	d, err := new_side(dst, dstLayout, opts.RenderingIntent, false, opts.AllowCICPTransfer)
	if err != nil {
		return nil, fmt.Errorf("destination: %w", err)
	}
	if s.is_matrix_shaper() && d.is_matrix_shaper() {
		return compile_matrix_shaper(s, d, opts)
	}
	return compile_lut(s, d, opts)
}

func compile_matrix_shaper(s, d *side, opts Options) (engine.Plan, error) {
	dm, err := d.from_xyz()
	if err != nil {
		return nil, err
	}
	m := s.to_xyz()
	if opts.RenderingIntent == icc.AbsoluteColorimetricRenderingIntent {
		w := absolute_scaling(s.p, d.p)
		m = w.Multiply(m)
	}
	m = dm.Multiply(m)
	if !s.expanded && !d.expanded && len(s.curves) == len(d.curves) && curves_equal(s.curves, d.curves) {
		identity := icc.IfElse(len(s.curves) == 1, math.Abs(m[0][0]-1) < 1e-9, m.IsIdentity(1e-9))
		if identity {
			return &engine.CopyPlan{Channels: len(s.curves)}, nil
		}
	}
	return &engine.MatrixShaperPlan{
		Decode: s.curves, Matrix: m, Encode: d.curves,
		AverageInput: s.expanded, ReplicateOutput: d.expanded,
	}, nil
}

func curves_equal(a, b []icc.Curve1D) bool {
	for i := range a {
		if !icc.CurvesEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

// pcs is the PCS a side produces or consumes in the pipeline
func (s *side) pcs() icc.ColorSpace {
	if s.is_matrix_shaper() {
		return icc.ColorSpaceXYZ
	}
	return s.p.Header.ProfileConnectionSpace
}

func (s *side) to_pcs(intent icc.RenderingIntent) (icc.ChannelTransformer, error) {
	if !s.is_matrix_shaper() {
		return s.p.CreateTransformerToPCS(intent)
	}
	trc := icc.NewCurveTransformer("TRC", s.curves...)
	if s.gray {
		return icc.NewPipeline(trc, icc.NewGrayToXYZ()), nil
	}
	m := s.to_xyz()
	return icc.NewPipeline(trc, &m), nil
}

func (s *side) from_pcs(intent icc.RenderingIntent) (icc.ChannelTransformer, error) {
	if !s.is_matrix_shaper() {
		return s.p.CreateTransformerFromPCS(intent)
	}
	trc := icc.NewInverseCurveTransformer("InverseTRC", s.curves...)
	if s.gray {
		return icc.NewPipeline(icc.NewXYZToGray(), trc), nil
	}
	m, err := s.from_xyz()
	if err != nil {
		return nil, err
	}
	return icc.NewPipeline(&m, trc), nil
}

// pipeline builds the float64 pipeline from the source layout to the
// destination layout that a LUT plan samples
func pipeline(s, d *side, opts Options) (*icc.Pipeline, error) {
	intent := opts.RenderingIntent
	p := icc.NewPipeline()
	if s.expanded {
		p.Append(icc.NewAverageChannels())
	}
	if s.collapsed && !s.gray {
		p.Append(icc.NewReplicateChannel())
	}
	t, err := s.to_pcs(intent)
	if err != nil {
		return nil, fmt.Errorf("%w: source: %s", ErrUnsupportedConversion, err)
	}
	p.Append(t)
	pcs := s.pcs()
	if intent == icc.AbsoluteColorimetricRenderingIntent {
		if w := absolute_scaling(s.p, d.p); !w.IsIdentity(1e-9) {
			if pcs == icc.ColorSpaceLab {
				p.Append(icc.NewLabToXYZ())
				pcs = icc.ColorSpaceXYZ
			}
			p.Append(&w)
		}
	}
	switch dp := d.pcs(); {
	case pcs == dp:
	case dp == icc.ColorSpaceXYZ:
		p.Append(icc.NewLabToXYZ())
	default:
		p.Append(icc.NewXYZToLab())
	}
	if t, err = d.from_pcs(intent); err != nil {
		return nil, fmt.Errorf("%w: destination: %s", ErrUnsupportedConversion, err)
	}
	p.Append(t)
	if d.collapsed && !d.gray {
		p.Append(icc.NewAverageChannels())
	}
	if d.expanded {
		p.Append(icc.NewReplicateChannel())
	}
	if opts.Trilinear {
		p.UseTrilinearInsteadOfTetrahedral()
	}
	if err = p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedConversion, err)
	}
	return p, nil
}

func grid_size(inputs, requested int) int {
	if requested > 0 {
		return requested
	}
	switch inputs {
	case 1:
		return DefaultGridSize1D
	case 3:
		return DefaultGridSize3D
	}
	return DefaultGridSize4D
}

func clamp01(v float64) float32 {
	if v > 0 {
		if v < 1 {
			return float32(v)
		}
		return 1
	}
	return 0
}

func compile_lut(s, d *side, opts Options) (engine.Plan, error) {
	p, err := pipeline(s, d, opts)
	if err != nil {
		return nil, err
	}
	inputs, outputs := s.layout.ColorChannels, d.layout.ColorChannels
	if pi, po := p.IOSig(); pi != inputs || po != outputs {
		return nil, unsupported("pipeline %s maps %d to %d channels, expected %d to %d", p, pi, po, inputs, outputs)
	}
	points := grid_size(inputs, opts.GridSize)
	switch {
	case points < 2:
		return nil, unsupported("invalid grid size: %d", points)
	case points > engine.MaxLUTPlanSamples/outputs:
		return nil, unsupported("a grid of %d points is too large", points)
	}
	total := 1
	for range inputs {
		total *= points
		if total*outputs > engine.MaxLUTPlanSamples {
			return nil, unsupported("a grid of %d points for %d inputs is too large", points, inputs)
		}
	}
	plan := &engine.LUTPlan{
		Inputs: inputs, Outputs: outputs, GridPoints: points, Trilinear: opts.Trilinear,
		Samples: make([]float32, total*outputs), Source: p.String(),
	}
	var in, out [icc.MaxChannels]float64
	scale := float64(points - 1)
	for n := range total {
		rem := n
		for i := inputs - 1; i >= 0; i-- {
			in[i] = float64(rem%points) / scale
			rem /= points
		}
		p.TransformDebug(out[:], in[:inputs], opts.Debug)
		for k, v := range out[:outputs] {
			plan.Samples[n*outputs+k] = clamp01(v)
		}
	}
	return plan, nil
}
