package engine

type copy_kernel[T Sample] struct {
	pixels[T]
	n         int
	bit_depth int
}

// needs_clamp is true when samples can hold values outside the nominal range
func (k *copy_kernel[T]) needs_clamp() bool {
	return k.is_float || (k.bit_depth != 8 && k.bit_depth != 16)
}

func (k *copy_kernel[T]) scalar(src, dst []T, count int) {
	is, os := k.in.Channels, k.out.Channels
	clamp := k.needs_clamp()
	for range count {
		s, d := src[:is], dst[:os]
		if clamp {
			for c, v := range s[:k.n] {
				d[c] = k.clamp(v)
			}
		} else {
			copy(d[:k.n], s[:k.n])
		}
		k.alpha(s, d)
		src, dst = src[is:], dst[os:]
	}
}

func (k *copy_kernel[T]) vector(src, dst []T, count, lanes int) {
	if k.in == k.out && !k.needs_clamp() {
		copy(dst, src[:count*k.in.Channels])
		return
	}
	k.scalar(src, dst, count)
}
