//go:build !amd64 && !arm64

package engine

func detect_backend() Backend { return BackendScalar }

func has_vector_kernels(Backend) bool { return false }

func shape(_ Backend, a *shaper_args) { shape_go(a) }

func blend(_ Backend, a *blend_args) { blend_go(a) }
