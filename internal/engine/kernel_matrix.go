package engine

import (
	"github.com/chewxy/math32"
	"github.com/kovidgoyal/cms/icc"
)

type matrix_kernel[T Sample] struct {
	pixels[T]
	plan   *MatrixShaperPlan
	nd, ne int
	m      [3][3]float32
	// lookup tables used for integer samples
	linear      [3][]float32
	gamma       [3][]float32
	gamma_scale float32
	interpolate bool
	// set when a vector kernel runs integer samples
	vectorized bool
	backend    Backend
	args       shaper_args
}

func build_table(n int, f func(float64) float64) []float32 {
	ans := make([]float32, n)
	scale := float64(n - 1)
	for i := range ans {
		ans[i] = float32(f(float64(i) / scale))
	}
	return ans
}

// curve_tables builds one table per curve, sharing tables between equal
// curves
func curve_tables(curves []icc.Curve1D, n int, f func(icc.Curve1D) func(float64) float64) (ans [3][]float32) {
	for i, c := range curves {
		for j := range i {
			if icc.CurvesEqual(c, curves[j]) {
				ans[i] = ans[j]
				break
			}
		}
		if ans[i] == nil {
			ans[i] = build_table(n, f(c))
		}
	}
	return
}

func new_matrix_kernel[T Sample](px pixels[T], p *MatrixShaperPlan, bit_depth int, b Backend) *matrix_kernel[T] {
	k := &matrix_kernel[T]{pixels: px, plan: p, nd: len(p.Decode), ne: len(p.Encode)}
	for i := range 3 {
		for j := range 3 {
			k.m[i][j] = float32(p.Matrix[i][j])
		}
	}
	if !px.is_float {
		k.linear = curve_tables(p.Decode, 1<<bit_depth, func(c icc.Curve1D) func(float64) float64 { return c.Transform })
		// 8 bit output is exact with a nearest lookup in a 14 bit table,
		// deeper output interpolates a 16 bit table. Tables are indexed by
		// the fourth root of the linear value so that the steep start of
		// inverse TRCs is sampled densely.
		n := 65536
		k.interpolate = bit_depth > 8
		if !k.interpolate {
			n = 16384
		}
		k.gamma = curve_tables(p.Encode, n, func(c icc.Curve1D) func(float64) float64 {
			return func(u float64) float64 { u *= u; return c.InverseTransform(u * u) }
		})
		k.gamma_scale = float32(n - 1)
		if k.vectorized = has_vector_kernels(b); k.vectorized {
			k.backend = b
			k.prepare_args()
		}
	}
	return k
}

func (k *matrix_kernel[T]) prepare_args() {
	a := &k.args
	for c := range 3 {
		a.linear[c], a.gamma[c] = &k.linear[0][0], &k.gamma[0][0]
		if k.nd == 3 {
			a.linear[c] = &k.linear[c][0]
		}
		if k.ne == 3 {
			a.gamma[c] = &k.gamma[c][0]
		}
		for j := range 3 {
			// a gray source feeds its single channel to every column
			if k.nd == 3 || j == 0 {
				a.params[c*3+j] = k.m[c][j]
			}
		}
	}
	a.params[9], a.params[10], a.params[11] = k.gamma_scale, k.max, 0.5
	a.last = int32(len(k.gamma[0]) - 2)
	if k.interpolate {
		a.interpolate = 1
	}
}

func (k *matrix_kernel[T]) linearize(s []T) (r, g, b float32) {
	if k.nd == 1 {
		idx := int(s[0])
		if k.plan.AverageInput {
			idx = (int(s[0]) + int(s[1]) + int(s[2]) + 1) / 3
		}
		return k.linear[0][min(idx, k.max_idx)], 0, 0
	}
	return k.linear[0][min(int(s[0]), k.max_idx)], k.linear[1][min(int(s[1]), k.max_idx)], k.linear[2][min(int(s[2]), k.max_idx)]
}

// table_position maps a linear value to its position in a gamma table
func (k *matrix_kernel[T]) table_position(v float32) float32 {
	return math32.Sqrt(math32.Sqrt(clamp01(v))) * k.gamma_scale
}

func (k *matrix_kernel[T]) encode(t []float32, v float32) float32 {
	pos := k.table_position(v)
	if !k.interpolate {
		return t[int(pos+0.5)]
	}
	i := min(int(pos), len(t)-2)
	return t[i] + (t[i+1]-t[i])*(pos-float32(i))
}

func (k *matrix_kernel[T]) store(d []T, r, g, b float32) {
	if k.ne == 1 {
		v := k.quantize(k.encode(k.gamma[0], r))
		d[0] = v
		if k.plan.ReplicateOutput {
			d[1], d[2] = v, v
		}
		return
	}
	d[0] = k.quantize(k.encode(k.gamma[0], r))
	d[1] = k.quantize(k.encode(k.gamma[1], g))
	d[2] = k.quantize(k.encode(k.gamma[2], b))
}

func (k *matrix_kernel[T]) linearize_float(s []T) (r, g, b float64) {
	c := k.plan.Decode
	v := func(i int) float64 { return float64(k.normalize(s[i])) }
	if k.nd == 1 {
		x := v(0)
		if k.plan.AverageInput {
			x = (x + v(1) + v(2)) / 3
		}
		return c[0].Transform(x), 0, 0
	}
	return c[0].Transform(v(0)), c[1].Transform(v(1)), c[2].Transform(v(2))
}

func (k *matrix_kernel[T]) store_float(d []T, r, g, b float64) {
	c := k.plan.Encode
	if k.ne == 1 {
		v := k.quantize(float32(c[0].InverseTransform(r)))
		d[0] = v
		if k.plan.ReplicateOutput {
			d[1], d[2] = v, v
		}
		return
	}
	d[0] = k.quantize(float32(c[0].InverseTransform(r)))
	d[1] = k.quantize(float32(c[1].InverseTransform(g)))
	d[2] = k.quantize(float32(c[2].InverseTransform(b)))
}

func (k *matrix_kernel[T]) apply(r, g, b float32) (float32, float32, float32) {
	m := &k.m
	return m[0][0]*r + m[0][1]*g + m[0][2]*b,
		m[1][0]*r + m[1][1]*g + m[1][2]*b,
		m[2][0]*r + m[2][1]*g + m[2][2]*b
}

func (k *matrix_kernel[T]) scalar(src, dst []T, count int) {
	is, os := k.in.Channels, k.out.Channels
	for range count {
		s, d := src[:is], dst[:os]
		if k.is_float {
			r, g, b := k.plan.Matrix.Transform(k.linearize_float(s))
			k.store_float(d, r, g, b)
		} else {
			r, g, b := k.apply(k.linearize(s))
			k.store(d, r, g, b)
		}
		k.alpha(s, d)
		src, dst = src[is:], dst[os:]
	}
}

func (k *matrix_kernel[T]) vector(src, dst []T, count, lanes int) {
	if !k.vectorized {
		k.scalar(src, dst, count)
		return
	}
	var in, out [3][simd_block]int32
	is, os := k.in.Channels, k.out.Channels
	a := k.args
	for c := range 3 {
		a.in[c], a.out[c] = &in[c][0], &out[c][0]
		if k.nd == 1 {
			a.in[c] = &in[0][0]
		}
	}
	for start := 0; start < count; start += simd_block {
		n := min(simd_block, count-start)
		s, d := src[start*is:], dst[start*os:]
		for p := range n {
			px := s[p*is:]
			switch {
			case k.nd == 3:
				in[0][p] = int32(min(int(px[0]), k.max_idx))
				in[1][p] = int32(min(int(px[1]), k.max_idx))
				in[2][p] = int32(min(int(px[2]), k.max_idx))
			case k.plan.AverageInput:
				in[0][p] = int32(min((int(px[0])+int(px[1])+int(px[2])+1)/3, k.max_idx))
			default:
				in[0][p] = int32(min(int(px[0]), k.max_idx))
			}
		}
		a.n = n
		shape(k.backend, &a)
		for p := range n {
			q := d[p*os:]
			if k.ne == 1 {
				q[0] = T(out[0][p])
				if k.plan.ReplicateOutput {
					q[1], q[2] = q[0], q[0]
				}
			} else {
				q[0], q[1], q[2] = T(out[0][p]), T(out[1][p]), T(out[2][p])
			}
			k.alpha(s[p*is:], q)
		}
	}
}
