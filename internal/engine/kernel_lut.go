package engine

type lut_kernel[T Sample] struct {
	pixels[T]
	inputs, outputs int
	interpolate     func(in, out []float32)
	// nil when no vector kernel can run this grid
	padded  *padded
	backend Backend
}

func new_lut_kernel[T Sample](px pixels[T], p *LUTPlan, b Backend) *lut_kernel[T] {
	k := &lut_kernel[T]{pixels: px, inputs: p.Inputs, outputs: p.Outputs, backend: b}
	g := new_grid(p)
	switch {
	case p.Inputs == 1:
		k.interpolate = g.linear1
	case p.Inputs == 3 && p.Trilinear:
		k.interpolate = g.trilinear3
	case p.Inputs == 3:
		k.interpolate = g.tetrahedral3
	case p.Trilinear:
		k.interpolate = g.trilinear4
	default:
		k.interpolate = g.tetrahedral4
	}
	if has_vector_kernels(b) {
		k.padded = new_padded(g, p.Inputs, p.Trilinear)
	}
	return k
}

func (k *lut_kernel[T]) scalar(src, dst []T, count int) {
	var in [4]float32
	var out [max_outputs]float32
	is, os := k.in.Channels, k.out.Channels
	for range count {
		s, d := src[:is], dst[:os]
		for c := range k.inputs {
			in[c] = k.normalize(s[c])
		}
		k.interpolate(in[:], out[:])
		for c := range k.outputs {
			d[c] = k.quantize(out[c])
		}
		k.alpha(s, d)
		src, dst = src[is:], dst[os:]
	}
}

func (k *lut_kernel[T]) vector(src, dst []T, count, lanes int) {
	if k.padded == nil {
		k.scalar(src, dst, count)
		return
	}
	const block = simd_block / 4
	var offsets [block * 16]int32
	var weights [block * 16]float32
	var out [block * 4]float32
	var in [4]float32
	is, os, nc := k.in.Channels, k.out.Channels, k.padded.corners
	a := blend_args{grid: &k.padded.samples[0], offsets: &offsets[0], weights: &weights[0], out: &out[0], k: nc}
	for start := 0; start < count; start += block {
		n := min(block, count-start)
		s, d := src[start*is:], dst[start*os:]
		for p := range n {
			px := s[p*is:]
			for c := range k.inputs {
				in[c] = k.normalize(px[c])
			}
			k.padded.weigh(in[:], offsets[p*nc:], weights[p*nc:])
		}
		a.n = n
		blend(k.backend, &a)
		for p := range n {
			q, v := d[p*os:], out[p*4:]
			for c := range k.outputs {
				q[c] = k.quantize(v[c])
			}
			k.alpha(s[p*is:], q)
		}
	}
}
