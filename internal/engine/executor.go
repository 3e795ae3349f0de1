package engine

import (
	"fmt"
	"slices"

	"github.com/chewxy/math32"
	"github.com/kovidgoyal/cms/icc"
)

const max_outputs = icc.MaxChannels

// Sample is the type of a single channel value. Integer samples hold
// bit_depth bits, float samples are nominally in [0, 1].
type Sample interface {
	~uint8 | ~uint16 | ~float32
}

type Options struct {
	// Backend forces a particular backend, BackendAuto picks the best one
	// the CPU supports
	Backend Backend
}

type kernel[T Sample] interface {
	scalar(src, dst []T, pixels int)
	// vector processes pixels, a multiple of lanes, lanes at a time
	vector(src, dst []T, pixels, lanes int)
}

// Executor runs a plan over pixel buffers. It is immutable and safe for
// concurrent use on disjoint buffers.
type Executor[T Sample] struct {
	plan      Plan
	in, out   Format
	bit_depth int
	backend   Backend
	k         kernel[T]
}

// pixels holds what every kernel needs to read and write samples
type pixels[T Sample] struct {
	in, out  Format
	max      float32 // the largest sample value, 1 for float samples
	max_idx  int
	opaque   T
	is_float bool
}

func (p *pixels[T]) normalize(s T) float32 {
	if p.is_float {
		return clamp01(float32(s))
	}
	return min(float32(s), p.max) / p.max
}

func (p *pixels[T]) quantize(v float32) T {
	v = clamp01(v)
	if p.is_float {
		return T(v)
	}
	return T(math32.Floor(v*p.max + 0.5))
}

func (p *pixels[T]) alpha(s, d []T) {
	if p.out.AlphaIndex < 0 {
		return
	}
	if p.in.AlphaIndex < 0 {
		d[p.out.AlphaIndex] = p.opaque
	} else {
		d[p.out.AlphaIndex] = p.clamp(s[p.in.AlphaIndex])
	}
}

// clamp limits a sample to the valid range without changing its encoding
func (p *pixels[T]) clamp(v T) T {
	if p.is_float {
		return T(clamp01(float32(v)))
	}
	return min(v, p.opaque)
}

func sample_properties[T Sample](bit_depth int) (is_float bool, err error) {
	var zero T
	switch any(zero).(type) {
	case uint8:
		if bit_depth != 8 {
			return false, fmt.Errorf("8 bit samples cannot hold a bit depth of %d", bit_depth)
		}
	case uint16:
		switch bit_depth {
		case 10, 12, 16:
		default:
			return false, fmt.Errorf("16 bit samples cannot hold a bit depth of %d", bit_depth)
		}
	case float32:
		if bit_depth != 32 {
			return false, fmt.Errorf("float samples must have a bit depth of 32 not %d", bit_depth)
		}
		return true, nil
	default:
		return false, fmt.Errorf("unsupported sample type: %T", zero)
	}
	return false, nil
}

// NewExecutor prepares plan for execution on samples of type T. bit_depth
// is 8 for uint8, 10, 12 or 16 for uint16 and 32 for float32.
func NewExecutor[T Sample](plan Plan, in, out Format, bit_depth int, opts Options) (*Executor[T], error) {
	is_float, err := sample_properties[T](bit_depth)
	if err != nil {
		return nil, err
	}
	for _, f := range []Format{in, out} {
		if err = f.validate(); err != nil {
			return nil, err
		}
	}
	if err = plan.validate(); err != nil {
		return nil, err
	}
	pi, po := plan.IOSig()
	if pi != in.ColorChannels || po != out.ColorChannels {
		return nil, fmt.Errorf("%s maps %d to %d channels, cannot run it from %s to %s", plan, pi, po, in, out)
	}
	e := &Executor[T]{plan: plan, in: in, out: out, bit_depth: bit_depth, backend: opts.Backend}
	if e.backend == BackendAuto {
		e.backend = BestBackend()
	} else if !slices.Contains(AvailableBackends(), e.backend) {
		return nil, fmt.Errorf("the %s backend is not supported by this CPU", e.backend)
	}
	px := pixels[T]{in: in, out: out, is_float: is_float, max: 1, opaque: 1}
	if !is_float {
		px.max_idx = (1 << bit_depth) - 1
		px.max = float32(px.max_idx)
		px.opaque = T(px.max_idx)
	}
	switch p := plan.(type) {
	case *CopyPlan:
		e.k = &copy_kernel[T]{pixels: px, n: p.Channels, bit_depth: bit_depth}
	case *MatrixShaperPlan:
		e.k = new_matrix_kernel(px, p, bit_depth, e.backend)
	case *LUTPlan:
		e.k = new_lut_kernel(px, p, e.backend)
	default:
		return nil, fmt.Errorf("unknown plan type: %T", plan)
	}
	return e, nil
}

func (e *Executor[T]) Plan() Plan                { return e.plan }
func (e *Executor[T]) Backend() Backend          { return e.backend }
func (e *Executor[T]) Formats() (Format, Format) { return e.in, e.out }

// Apply transforms the first count pixels of src into dst. The caller must
// ensure that both buffers hold at least count pixels. src is never
// written to.
func (e *Executor[T]) Apply(src, dst []T, count int) {
	if count <= 0 {
		return
	}
	src, dst = src[:count*e.in.Channels], dst[:count*e.out.Channels]
	done := 0
	if lanes := e.backend.Lanes(); lanes > 1 {
		done = count - count%lanes
		if done > 0 {
			e.k.vector(src, dst, done, lanes)
		}
	}
	if done < count {
		e.k.scalar(src[done*e.in.Channels:], dst[done*e.out.Channels:], count-done)
	}
}
