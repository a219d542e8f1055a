package fastbody

import "math"

// roundUpForSliceCap rounds n up to the next power of two in order to
// reduce the number of reallocations when growing read buffers.
func roundUpForSliceCap(n int) int {
	if n <= 0 {
		return 0
	}

	// Above 100MB, we don't round up as the overhead is too large.
	if n > 100*1024*1024 {
		return n
	}

	x := uint64(n - 1)
	x |= x >> 1
	x |= x >> 2
	x |= x >> 4
	x |= x >> 8
	x |= x >> 16

	if x >= uint64(math.MaxInt) {
		return math.MaxInt
	}

	return int(x + 1)
}
