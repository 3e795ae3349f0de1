//go:build amd64

package engine

import "golang.org/x/sys/cpu"

// shape_avx2 runs the matrix shaper eight pixels at a time with gathers
// and fused multiply adds.
//
//go:noescape
func shape_avx2(a *shaper_args)

// shape_sse41 runs the matrix shaper four pixels at a time.
//
//go:noescape
func shape_sse41(a *shaper_args)

//go:noescape
func blend_avx2(a *blend_args)

//go:noescape
func blend_sse41(a *blend_args)

func detect_backend() Backend {
	switch {
	case cpu.X86.HasAVX2 && cpu.X86.HasFMA:
		return BackendAVX2
	case cpu.X86.HasSSE41:
		return BackendSSE41
	}
	return BackendScalar
}

func has_vector_kernels(b Backend) bool { return b == BackendAVX2 || b == BackendSSE41 }

func shape(b Backend, a *shaper_args) {
	if b == BackendAVX2 {
		shape_avx2(a)
	} else {
		shape_sse41(a)
	}
}

func blend(b Backend, a *blend_args) {
	if b == BackendAVX2 {
		blend_avx2(a)
	} else {
		blend_sse41(a)
	}
}
