package engine

// grid is the float32 form of a LUT plan used by the kernels
type grid struct {
	samples []float32
	points  int
	outputs int
	strides [4]int // in samples, the first input varies slowest
	scale   float32
}

func new_grid(p *LUTPlan) *grid {
	g := &grid{samples: p.Samples, points: p.GridPoints, outputs: p.Outputs, scale: float32(p.GridPoints - 1)}
	s := p.Outputs
	for i := p.Inputs - 1; i >= 0; i-- {
		g.strides[i] = s
		s *= p.GridPoints
	}
	return g
}

// clamp01 maps NaN to zero
func clamp01(v float32) float32 {
	if v > 0 {
		if v < 1 {
			return v
		}
		return 1
	}
	return 0
}

func (g *grid) position(v float32) (int, float32) {
	pos := clamp01(v) * g.scale
	idx := min(int(pos), g.points-2)
	return idx, pos - float32(idx)
}

func (g *grid) linear1(in, out []float32) {
	i, f := g.position(in[0])
	n := g.outputs
	a, b := g.samples[i*n:(i+1)*n], g.samples[(i+1)*n:(i+2)*n]
	for k := range n {
		out[k] = a[k] + (b[k]-a[k])*f
	}
}

// tetrahedron picks the tetrahedron of the unit cube holding (rx, ry, rz).
// c1 and c2 are the offsets of its second and third vertices, the fourth is
// the far corner, and f1 >= f2 >= f3 are the sorted fractions.
func tetrahedron(s1, s2, s3 int, rx, ry, rz float32) (c1, c2 int, f1, f2, f3 float32) {
	switch {
	case rx >= ry && ry >= rz:
		return s1, s1 + s2, rx, ry, rz
	case rx >= rz && rz >= ry:
		return s1, s1 + s3, rx, rz, ry
	case rz >= rx && rx >= ry:
		return s3, s1 + s3, rz, rx, ry
	case ry >= rx && rx >= rz:
		return s2, s1 + s2, ry, rx, rz
	case ry >= rz && rz >= rx:
		return s2, s2 + s3, ry, rz, rx
	}
	return s3, s2 + s3, rz, ry, rx
}

// tetrahedral interpolation inside the cube at base whose axes have strides
// s1, s2 and s3
func tetrahedral(samples []float32, base, s1, s2, s3 int, rx, ry, rz float32, out []float32) {
	c1, c2, f1, f2, f3 := tetrahedron(s1, s2, s3, rx, ry, rz)
	c3 := s1 + s2 + s3
	for k := range out {
		v0 := samples[base+k]
		v1 := samples[base+c1+k]
		v2 := samples[base+c2+k]
		v3 := samples[base+c3+k]
		out[k] = v0 + (v1-v0)*f1 + (v2-v1)*f2 + (v3-v2)*f3
	}
}

func (g *grid) tetrahedral3(in, out []float32) {
	x, rx := g.position(in[0])
	y, ry := g.position(in[1])
	z, rz := g.position(in[2])
	base := x*g.strides[0] + y*g.strides[1] + z*g.strides[2]
	tetrahedral(g.samples, base, g.strides[0], g.strides[1], g.strides[2], rx, ry, rz, out[:g.outputs])
}

// tetrahedral4 interpolates the two K slices bracketing the first input
// and blends them linearly
func (g *grid) tetrahedral4(in, out []float32) {
	var lo, hi [max_outputs]float32
	k, rk := g.position(in[0])
	x, rx := g.position(in[1])
	y, ry := g.position(in[2])
	z, rz := g.position(in[3])
	base := k*g.strides[0] + x*g.strides[1] + y*g.strides[2] + z*g.strides[3]
	n := g.outputs
	tetrahedral(g.samples, base, g.strides[1], g.strides[2], g.strides[3], rx, ry, rz, lo[:n])
	tetrahedral(g.samples, base+g.strides[0], g.strides[1], g.strides[2], g.strides[3], rx, ry, rz, hi[:n])
	for i := range n {
		out[i] = lo[i] + (hi[i]-lo[i])*rk
	}
}

// nlinear interpolates over the 2^N corners of the enclosing cell, used for
// trilinear interpolation of three and four inputs
func (g *grid) nlinear(in, out []float32, inputs int) {
	var idx [4]int
	var w [4]float32
	base := 0
	for i := range inputs {
		idx[i], w[i] = g.position(in[i])
		base += idx[i] * g.strides[i]
	}
	out = out[:g.outputs]
	for k := range out {
		out[k] = 0
	}
	for corner := range 1 << inputs {
		weight := float32(1)
		offset := base
		for j := range inputs {
			if corner&(1<<j) != 0 {
				weight *= w[j]
				offset += g.strides[j]
			} else {
				weight *= 1 - w[j]
			}
		}
		if weight == 0 {
			continue
		}
		for k, v := range g.samples[offset : offset+g.outputs] {
			out[k] += v * weight
		}
	}
}

func (g *grid) trilinear3(in, out []float32) { g.nlinear(in, out, 3) }
func (g *grid) trilinear4(in, out []float32) { g.nlinear(in, out, 4) }
