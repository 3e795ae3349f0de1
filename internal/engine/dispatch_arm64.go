//go:build arm64

package engine

import "golang.org/x/sys/cpu"

// shape_neon runs the matrix shaper four pixels at a time. NEON has no
// gather so table lookups load one lane at a time.
//
//go:noescape
func shape_neon(a *shaper_args)

//go:noescape
func blend_neon(a *blend_args)

func detect_backend() Backend {
	if cpu.ARM64.HasASIMD {
		return BackendNEON
	}
	return BackendScalar
}

func has_vector_kernels(b Backend) bool { return b == BackendNEON }

func shape(_ Backend, a *shaper_args) { shape_neon(a) }

func blend(_ Backend, a *blend_args) { blend_neon(a) }
