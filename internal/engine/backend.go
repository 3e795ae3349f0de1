package engine

import (
	"fmt"
	"sync"
)

// Backend selects the kernels an Executor runs. Vector backends hand blocks
// of pixels, split into one plane per channel, to assembly kernels. The
// scalar backend works one pixel at a time and is the only one on other
// architectures. All backends run the same plan.
type Backend int

const (
	BackendAuto Backend = iota
	BackendScalar
	BackendSSE41
	BackendAVX2
	BackendNEON
)

// The widest block any backend processes
const max_lanes = 8

func (b Backend) String() string {
	switch b {
	case BackendAuto:
		return "Auto"
	case BackendScalar:
		return "Scalar"
	case BackendSSE41:
		return "SSE4.1"
	case BackendAVX2:
		return "AVX2"
	case BackendNEON:
		return "NEON"
	}
	return fmt.Sprintf("Backend(%d)", int(b))
}

// Lanes is the number of pixels a vector kernel processes per instruction
func (b Backend) Lanes() int {
	switch b {
	case BackendAVX2:
		return 8
	case BackendSSE41, BackendNEON:
		return 4
	}
	return 1
}

var best_backend = sync.OnceValue(detect_backend)

// BestBackend returns the widest backend supported by the running CPU
func BestBackend() Backend { return best_backend() }

// AvailableBackends lists every backend that can run on this CPU, scalar
// first
func AvailableBackends() []Backend {
	ans := []Backend{BackendScalar}
	switch BestBackend() {
	case BackendAVX2:
		ans = append(ans, BackendSSE41, BackendAVX2)
	case BackendSSE41:
		ans = append(ans, BackendSSE41)
	case BackendNEON:
		ans = append(ans, BackendNEON)
	}
	return ans
}
