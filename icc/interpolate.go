package icc

// interpolation_data describes a grid of samples indexed by num_inputs
// coordinates. The first input varies slowest.
type interpolation_data struct {
	num_inputs, num_outputs int
	grid_points             []int
	strides                 []int // in units of samples, not grid points
	samples                 []unit_float
}

func make_interpolation_data(num_inputs, num_outputs int, grid_points []int, samples []unit_float) *interpolation_data {
	strides := make([]int, num_inputs)
	s := num_outputs
	for i := num_inputs - 1; i >= 0; i-- {
		strides[i] = s
		s *= grid_points[i]
	}
	return &interpolation_data{num_inputs: num_inputs, num_outputs: num_outputs, grid_points: grid_points, strides: strides, samples: samples}
}

// grid_position returns the lower grid index for v and the fractional
// distance to the next grid point. The index is clamped so that idx+1 is
// always valid.
func grid_position(v unit_float, grid_points int) (idx int, frac unit_float) {
	pos := clamp01(v) * unit_float(grid_points-1)
	idx = min(int(pos), grid_points-2)
	return idx, pos - unit_float(idx)
}

// Performs an n-linear interpolation on the CLUT values for the given input
// color. Input values are normalized between 0.0 and 1.0.
func (d *interpolation_data) trilinear_interpolate(input, output []unit_float) {
	var ibuf [MaxChannels]int
	var wbuf [MaxChannels]unit_float
	n := d.num_inputs
	indices, weights := ibuf[:n], wbuf[:n]
	base := 0
	for i, val := range input[:n] {
		indices[i], weights[i] = grid_position(val, d.grid_points[i])
		base += indices[i] * d.strides[i]
	}
	output = output[:d.num_outputs]
	for k := range output {
		output[k] = 0
	}
	// Iterate through all 2^n corners of the n-dimensional hypercube
	for corner := range 1 << n {
		w := unit_float(1)
		offset := base
		for j := range n {
			if corner&(1<<j) != 0 {
				w *= weights[j]
				offset += d.strides[j]
			} else {
				w *= 1 - weights[j]
			}
		}
		if w == 0 {
			continue
		}
		for k, v := range d.samples[offset : offset+d.num_outputs] {
			output[k] += v * w
		}
	}
}

// tetrahedral interpolation within the cube whose origin is at base, using
// the six tetrahedra of the cube as described in the ICC white paper on
// interpolation. s1, s2, s3 are the strides of the three axes.
func tetrahedral(samples []unit_float, base, s1, s2, s3 int, rx, ry, rz unit_float, output []unit_float) {
	var c1, c2 int
	var f1, f2, f3 unit_float
	switch {
	case rx >= ry && ry >= rz:
		c1, c2, f1, f2, f3 = s1, s1+s2, rx, ry, rz
	case rx >= rz && rz >= ry:
		c1, c2, f1, f2, f3 = s1, s1+s3, rx, rz, ry
	case rz >= rx && rx >= ry:
		c1, c2, f1, f2, f3 = s3, s1+s3, rz, rx, ry
	case ry >= rx && rx >= rz:
		c1, c2, f1, f2, f3 = s2, s1+s2, ry, rx, rz
	case ry >= rz && rz >= rx:
		c1, c2, f1, f2, f3 = s2, s2+s3, ry, rz, rx
	default: // rz >= ry >= rx
		c1, c2, f1, f2, f3 = s3, s2+s3, rz, ry, rx
	}
	c3 := s1 + s2 + s3
	for k := range output {
		v0 := samples[base+k]
		v1 := samples[base+c1+k]
		v2 := samples[base+c2+k]
		v3 := samples[base+c3+k]
		output[k] = v0 + (v1-v0)*f1 + (v2-v1)*f2 + (v3-v2)*f3
	}
}

func (d *interpolation_data) tetrahedral_interpolate(r, g, b unit_float, output []unit_float) {
	x, rx := grid_position(r, d.grid_points[0])
	y, ry := grid_position(g, d.grid_points[1])
	z, rz := grid_position(b, d.grid_points[2])
	base := x*d.strides[0] + y*d.strides[1] + z*d.strides[2]
	tetrahedral(d.samples, base, d.strides[0], d.strides[1], d.strides[2], rx, ry, rz, output[:d.num_outputs])
}

// Four dimensional interpolation: tetrahedral on the last three inputs at
// the two bracketing slices of the first input, blended linearly.
func (d *interpolation_data) tetrahedral_interpolate4(input, output []unit_float) {
	var lo, hi [MaxChannels]unit_float
	k, rk := grid_position(input[0], d.grid_points[0])
	x, rx := grid_position(input[1], d.grid_points[1])
	y, ry := grid_position(input[2], d.grid_points[2])
	z, rz := grid_position(input[3], d.grid_points[3])
	base := k*d.strides[0] + x*d.strides[1] + y*d.strides[2] + z*d.strides[3]
	n := d.num_outputs
	tetrahedral(d.samples, base, d.strides[1], d.strides[2], d.strides[3], rx, ry, rz, lo[:n])
	tetrahedral(d.samples, base+d.strides[0], d.strides[1], d.strides[2], d.strides[3], rx, ry, rz, hi[:n])
	for i := range n {
		output[i] = lo[i] + (hi[i]-lo[i])*rk
	}
}

func (d *interpolation_data) linear_interpolate(v unit_float, output []unit_float) {
	i, f := grid_position(v, d.grid_points[0])
	n := d.num_outputs
	a, b := d.samples[i*n:(i+1)*n], d.samples[(i+1)*n:(i+2)*n]
	for k := range n {
		output[k] = a[k] + (b[k]-a[k])*f
	}
}
