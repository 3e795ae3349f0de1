package engine

import (
	"unsafe"

	"github.com/chewxy/math32"
)

// Pixels handed to the assembly kernels per call. A multiple of every
// backend's lane count.
const simd_block = 256

// shaper_args is read by the matrix shaper assembly, which depends on its
// field offsets. in holds clamped sample indices per channel, out receives
// quantized samples.
type shaper_args struct {
	in     [3]*int32
	out    [3]*int32
	linear [3]*float32
	gamma  [3]*float32
	n      int
	// row major matrix, gamma table scale, largest sample value and 0.5
	params [12]float32
	// the last gamma table cell that can be interpolated
	last        int32
	interpolate int32
}

// blend_args is read by the LUT assembly. For each of n pixels it sums k
// grid nodes of four samples, scaled by their weights.
type blend_args struct {
	grid    *float32
	offsets *int32 // in samples
	weights *float32
	out     *float32 // four samples per pixel
	n, k    int
}

func at[E any](p *E, i int32) E { return *(*E)(unsafe.Add(unsafe.Pointer(p), uintptr(i)*unsafe.Sizeof(*p))) }

func set[E any](p *E, i int, v E) { *(*E)(unsafe.Add(unsafe.Pointer(p), uintptr(i)*unsafe.Sizeof(*p))) = v }

// shape_go is what the matrix shaper assembly computes
func shape_go(a *shaper_args) {
	p := &a.params
	encode := func(t *float32, v float32) float32 {
		pos := math32.Sqrt(math32.Sqrt(clamp01(v))) * p[9]
		if a.interpolate == 0 {
			return at(t, int32(pos+0.5))
		}
		i := min(int32(pos), a.last)
		lo := at(t, i)
		return lo + (at(t, i+1)-lo)*(pos-float32(i))
	}
	for i := range a.n {
		var lin [3]float32
		for c := range 3 {
			lin[c] = at(a.linear[c], at(a.in[c], int32(i)))
		}
		for c := range 3 {
			v := p[c*3]*lin[0] + p[c*3+1]*lin[1] + p[c*3+2]*lin[2]
			set(a.out[c], i, int32(clamp01(encode(a.gamma[c], v))*p[10]+p[11]))
		}
	}
}

// blend_go is what the LUT assembly computes
func blend_go(a *blend_args) {
	for px := range a.n {
		var acc [4]float32
		for j := range a.k {
			o, w := at(a.offsets, int32(px*a.k+j)), at(a.weights, int32(px*a.k+j))
			for c := range acc {
				acc[c] += at(a.grid, o+int32(c)) * w
			}
		}
		for c, v := range acc {
			set(a.out, px*4+c, v)
		}
	}
}

// padded is a LUT grid whose nodes are widened to four samples, the layout
// the blend kernels read. weigh fills the offsets and weights of the
// corners that contribute to one pixel.
type padded struct {
	*grid
	samples []float32
	strides [4]int
	corners int
	weigh   func(in []float32, offsets []int32, weights []float32)
}

// new_padded returns nil when the grid does not fit the blend kernels
func new_padded(g *grid, inputs int, trilinear bool) *padded {
	if g.outputs > 4 || len(g.samples)/g.outputs*4 > 1<<30 {
		return nil
	}
	p := &padded{grid: g, samples: make([]float32, len(g.samples)/g.outputs*4)}
	for node := range len(g.samples) / g.outputs {
		copy(p.samples[node*4:], g.samples[node*g.outputs:(node+1)*g.outputs])
	}
	for i := range inputs {
		p.strides[i] = g.strides[i] / g.outputs * 4
	}
	switch {
	case inputs == 1:
		p.corners, p.weigh = 2, p.linear1
	case inputs == 3 && !trilinear:
		p.corners, p.weigh = 4, p.tetrahedral3
	case inputs == 4 && !trilinear:
		p.corners, p.weigh = 8, p.tetrahedral4
	default:
		p.corners = 1 << inputs
		p.weigh = func(in []float32, o []int32, w []float32) { p.nlinear(in, o, w, inputs) }
	}
	return p
}

func (p *padded) linear1(in []float32, o []int32, w []float32) {
	i, f := p.position(in[0])
	o[0], o[1] = int32(i*p.strides[0]), int32((i+1)*p.strides[0])
	w[0], w[1] = 1-f, f
}

func tetrahedron_weights(base, c1, c2, c3 int, f1, f2, f3, scale float32, o []int32, w []float32) {
	o[0], o[1], o[2], o[3] = int32(base), int32(base+c1), int32(base+c2), int32(base+c3)
	w[0], w[1], w[2], w[3] = (1-f1)*scale, (f1-f2)*scale, (f2-f3)*scale, f3*scale
}

func (p *padded) tetrahedral3(in []float32, o []int32, w []float32) {
	s := &p.strides
	x, rx := p.position(in[0])
	y, ry := p.position(in[1])
	z, rz := p.position(in[2])
	c1, c2, f1, f2, f3 := tetrahedron(s[0], s[1], s[2], rx, ry, rz)
	tetrahedron_weights(x*s[0]+y*s[1]+z*s[2], c1, c2, s[0]+s[1]+s[2], f1, f2, f3, 1, o, w)
}

func (p *padded) tetrahedral4(in []float32, o []int32, w []float32) {
	s := &p.strides
	k, rk := p.position(in[0])
	x, rx := p.position(in[1])
	y, ry := p.position(in[2])
	z, rz := p.position(in[3])
	c1, c2, f1, f2, f3 := tetrahedron(s[1], s[2], s[3], rx, ry, rz)
	base, c3 := k*s[0]+x*s[1]+y*s[2]+z*s[3], s[1]+s[2]+s[3]
	tetrahedron_weights(base, c1, c2, c3, f1, f2, f3, 1-rk, o, w)
	tetrahedron_weights(base+s[0], c1, c2, c3, f1, f2, f3, rk, o[4:], w[4:])
}

func (p *padded) nlinear(in []float32, o []int32, w []float32, inputs int) {
	var f [4]float32
	base := 0
	for i := range inputs {
		var idx int
		idx, f[i] = p.position(in[i])
		base += idx * p.strides[i]
	}
	for corner := range 1 << inputs {
		weight, offset := float32(1), base
		for j := range inputs {
			if corner&(1<<j) != 0 {
				weight *= f[j]
				offset += p.strides[j]
			} else {
				weight *= 1 - f[j]
			}
		}
		o[corner], w[corner] = int32(offset), weight
	}
}
