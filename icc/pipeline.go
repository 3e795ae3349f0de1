package icc

import (
	"fmt"
	"reflect"
	"strings"
)

var _ = fmt.Print

type unit_float = float64

const FLOAT_EQUALITY_THRESHOLD = 1e-6

// The maximum number of channels any stage can consume or produce
const MaxChannels = 16

// ChannelTransformer is a single stage of a color transform. Stages that map
// three channels to three channels implement Transform, all stages implement
// TransformGeneral. in and out must not overlap.
type ChannelTransformer interface {
	Transform(r, g, b unit_float) (unit_float, unit_float, unit_float)
	TransformGeneral(out, in []unit_float)
	IOSig() (int, int)
	// Iter calls f with the primitive stages making up this transformer
	Iter(f func(ChannelTransformer) bool)
	String() string
}

// Debug_callback is called with the input and output of every stage
type Debug_callback = func(in, out []unit_float, t ChannelTransformer)

type AsMatrix3 interface {
	AsMatrix3() *Matrix3
}

func IfElse[T any](condition bool, if_val T, else_val T) T {
	if condition {
		return if_val
	}
	return else_val
}

// check for interface being nil or the dynamic value it points to being nil
func is_nil(i any) bool {
	if i == nil {
		return true
	}
	v := reflect.ValueOf(i)
	switch v.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
		return v.IsNil()
	default:
		return false
	}
}

// transform3 adapts a three channel Transform to TransformGeneral
func transform3(t ChannelTransformer, out, in []unit_float) {
	out[0], out[1], out[2] = t.Transform(in[0], in[1], in[2])
}

// general3 adapts TransformGeneral to a three channel Transform
func general3(t ChannelTransformer, r, g, b unit_float) (unit_float, unit_float, unit_float) {
	var in, out [MaxChannels]unit_float
	in[0], in[1], in[2] = r, g, b
	t.TransformGeneral(out[:], in[:])
	return out[0], out[1], out[2]
}

type Pipeline struct {
	transformers []ChannelTransformer
}

var _ ChannelTransformer = (*Pipeline)(nil)

func NewPipeline(c ...ChannelTransformer) *Pipeline {
	p := &Pipeline{}
	p.Append(c...)
	return p
}

func (p *Pipeline) append(c ChannelTransformer) {
	if is_nil(c) {
		return
	}
	switch c.(type) {
	case *IdentityMatrix:
		return
	}
	if cm, ok := c.(AsMatrix3); ok && len(p.transformers) > 0 {
		if prev, ok := p.transformers[len(p.transformers)-1].(AsMatrix3); ok {
			combined := cm.AsMatrix3().Multiply(*prev.AsMatrix3())
			p.transformers[len(p.transformers)-1] = &combined
			return
		}
	}
	p.transformers = append(p.transformers, c)
}

// Append adds the primitive stages of every transformer to the end of the
// pipeline, merging adjacent 3x3 matrices.
func (p *Pipeline) Append(c ...ChannelTransformer) {
	for _, x := range c {
		if is_nil(x) {
			continue
		}
		x.Iter(func(q ChannelTransformer) bool {
			p.append(q)
			return true
		})
	}
}

func (p *Pipeline) Iter(f func(ChannelTransformer) bool) {
	for _, t := range p.transformers {
		if !f(t) {
			return
		}
	}
}

func (p *Pipeline) Stages() []ChannelTransformer { return p.transformers }

func (p *Pipeline) Transform(r, g, b unit_float) (unit_float, unit_float, unit_float) {
	for _, t := range p.transformers {
		r, g, b = t.Transform(r, g, b)
	}
	return r, g, b
}

func (p *Pipeline) TransformGeneral(out, in []unit_float) {
	p.TransformDebug(out, in, nil)
}

func (p *Pipeline) TransformDebug(out, in []unit_float, f Debug_callback) {
	var a, b [MaxChannels]unit_float
	src, dst := a[:], b[:]
	copy(src, in)
	for _, t := range p.transformers {
		t.TransformGeneral(dst, src)
		if f != nil {
			ni, no := t.IOSig()
			f(src[:ni], dst[:no], t)
		}
		src, dst = dst, src
	}
	_, n := p.IOSig()
	copy(out, src[:n])
}

func (p *Pipeline) Len() int { return len(p.transformers) }

func transformers_as_string(t ...ChannelTransformer) string {
	items := make([]string, len(t))
	for i, t := range t {
		items[i] = t.String()
	}
	return strings.Join(items, " → ")
}

func (p *Pipeline) String() string {
	return transformers_as_string(p.transformers...)
}

func (p *Pipeline) IOSig() (i int, o int) {
	if len(p.transformers) == 0 {
		return 3, 3
	}
	i, _ = p.transformers[0].IOSig()
	_, o = p.transformers[len(p.transformers)-1].IOSig()
	return
}

// Validate checks that the output of each stage feeds the input of the next
func (p *Pipeline) Validate() error {
	for i := 1; i < len(p.transformers); i++ {
		_, o := p.transformers[i-1].IOSig()
		n, _ := p.transformers[i].IOSig()
		if o != n {
			return fmt.Errorf("pipeline stage %s produces %d channels but %s consumes %d", p.transformers[i-1], o, p.transformers[i], n)
		}
	}
	return nil
}

func (p *Pipeline) UseTrilinearInsteadOfTetrahedral() {
	for i, q := range p.transformers {
		if x, ok := q.(*CLUT); ok && !x.trilinear {
			c := *x
			c.trilinear = true
			p.transformers[i] = &c
		}
	}
}
