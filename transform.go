package cms

import (
	"fmt"

	"github.com/kovidgoyal/cms/internal/compiler"
	"github.com/kovidgoyal/cms/internal/engine"
)

// Sample is the type of a single sample in a pixel buffer
type Sample interface {
	uint8 | uint16 | float32
}

// Transform converts pixel buffers between two profiles. It is immutable
// and safe for concurrent use on disjoint buffers.
type Transform[T Sample] struct {
	src, dst  Layout
	bit_depth int
	plan      engine.Plan
	e         *engine.Executor[T]
}

func create_transform[T Sample](src *ColorProfile, src_layout Layout, dst *ColorProfile, dst_layout Layout, bit_depth int, opts TransformOptions) (*Transform[T], error) {
	if src == nil || dst == nil {
		return nil, fmt.Errorf("%w: a source and destination profile are required", ErrUnsupportedConversion)
	}
	layout_depth := bit_depth
	if bit_depth == 10 || bit_depth == 12 {
		layout_depth = 16
	}
	for _, l := range []Layout{src_layout, dst_layout} {
		if !l.valid() {
			return nil, fmt.Errorf("%w: unknown layout: %s", ErrUnsupportedConversion, l)
		}
		if l.BitDepth() != layout_depth {
			return nil, fmt.Errorf("%w: the %s layout cannot be used for a %d bit transform", ErrUnsupportedConversion, l, bit_depth)
		}
	}
	plan, err := compiler.Compile(src.p, dst.p, src_layout.format(), dst_layout.format(), compiler.Options{
		RenderingIntent:   opts.RenderingIntent,
		Trilinear:         opts.Interpolation == Trilinear,
		GridSize:          opts.GridSize,
		AllowCICPTransfer: opts.AllowCICPTransfer,
		Debug:             opts.Debug,
	})
	if err != nil {
		return nil, err
	}
	eopts := engine.Options{}
	if opts.DisableVectorization {
		eopts.Backend = engine.BackendScalar
	}
	e, err := engine.NewExecutor[T](plan, src_layout.format(), dst_layout.format(), bit_depth, eopts)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedConversion, err)
	}
	return &Transform[T]{src: src_layout, dst: dst_layout, bit_depth: bit_depth, plan: plan, e: e}, nil
}

// CreateTransform8Bit compiles a transform from pixels in src_layout
// described by this profile to pixels in dst_layout described by dst. Both
// layouts must be 8 bit layouts.
func (c *ColorProfile) CreateTransform8Bit(src_layout Layout, dst *ColorProfile, dst_layout Layout, opts TransformOptions) (*Transform[uint8], error) {
	return create_transform[uint8](c, src_layout, dst, dst_layout, 8, opts)
}

// CreateTransform10Bit is like CreateTransform8Bit for 16 bit layouts
// holding samples in [0, 1023]
func (c *ColorProfile) CreateTransform10Bit(src_layout Layout, dst *ColorProfile, dst_layout Layout, opts TransformOptions) (*Transform[uint16], error) {
	return create_transform[uint16](c, src_layout, dst, dst_layout, 10, opts)
}

// CreateTransform12Bit is like CreateTransform8Bit for 16 bit layouts
// holding samples in [0, 4095]
func (c *ColorProfile) CreateTransform12Bit(src_layout Layout, dst *ColorProfile, dst_layout Layout, opts TransformOptions) (*Transform[uint16], error) {
	return create_transform[uint16](c, src_layout, dst, dst_layout, 12, opts)
}

func (c *ColorProfile) CreateTransform16Bit(src_layout Layout, dst *ColorProfile, dst_layout Layout, opts TransformOptions) (*Transform[uint16], error) {
	return create_transform[uint16](c, src_layout, dst, dst_layout, 16, opts)
}

// CreateTransformFloat is like CreateTransform8Bit for float layouts.
// Samples are nominally in [0, 1], values outside that range are clamped.
func (c *ColorProfile) CreateTransformFloat(src_layout Layout, dst *ColorProfile, dst_layout Layout, opts TransformOptions) (*Transform[float32], error) {
	return create_transform[float32](c, src_layout, dst, dst_layout, 32, opts)
}

func (t *Transform[T]) SourceLayout() Layout      { return t.src }
func (t *Transform[T]) DestinationLayout() Layout { return t.dst }
func (t *Transform[T]) BitDepth() int             { return t.bit_depth }

// Stages describes the compiled pipeline, for example
// "TRC{...} → Matrix3{...} → InverseTRC{...}"
func (t *Transform[T]) Stages() string { return t.plan.String() }

// Backend is the name of the kernels the transform runs
func (t *Transform[T]) Backend() string { return t.e.Backend().String() }

// IsIdentity is true when the transform copies color samples unchanged
func (t *Transform[T]) IsIdentity() bool {
	_, ok := t.plan.(*engine.CopyPlan)
	return ok && t.src == t.dst
}

// Transform converts every pixel in in and writes the result to out. in
// must hold a whole number of pixels and out exactly as many pixels.
// Nothing is written when the buffers do not match. in and out may be the
// same slice when both layouts have the same number of channels.
func (t *Transform[T]) Transform(in, out []T) error {
	ic, oc := t.src.Channels(), t.dst.Channels()
	if len(in)%ic != 0 {
		return fmt.Errorf("%w: input of %d samples is not a whole number of %s pixels", ErrBufferLengthMismatch, len(in), t.src)
	}
	n := len(in) / ic
	if len(out) != n*oc {
		return fmt.Errorf("%w: output of %d samples cannot hold exactly %d %s pixels", ErrBufferLengthMismatch, len(out), n, t.dst)
	}
	t.e.Apply(in, out, n)
	return nil
}

// TransformWithStride converts a width x height region whose rows start
// every in_stride samples in in and every out_stride samples in out
func (t *Transform[T]) TransformWithStride(in []T, in_stride int, out []T, out_stride int, width, height int) error {
	ic, oc := t.src.Channels(), t.dst.Channels()
	switch {
	case width < 0 || height < 0:
		return fmt.Errorf("%w: invalid size %dx%d", ErrBufferLengthMismatch, width, height)
	case in_stride < width*ic:
		return fmt.Errorf("%w: input stride %d is smaller than a row of %d samples", ErrBufferLengthMismatch, in_stride, width*ic)
	case out_stride < width*oc:
		return fmt.Errorf("%w: output stride %d is smaller than a row of %d samples", ErrBufferLengthMismatch, out_stride, width*oc)
	}
	if width == 0 || height == 0 {
		return nil
	}
	if needed := (height-1)*in_stride + width*ic; len(in) < needed {
		return fmt.Errorf("%w: input has %d samples, needs %d", ErrBufferLengthMismatch, len(in), needed)
	}
	if needed := (height-1)*out_stride + width*oc; len(out) < needed {
		return fmt.Errorf("%w: output has %d samples, needs %d", ErrBufferLengthMismatch, len(out), needed)
	}
	for y := range height {
		t.e.Apply(in[y*in_stride:], out[y*out_stride:], width)
	}
	return nil
}
