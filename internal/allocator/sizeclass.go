package allocator

import "math"

// numClasses is the number of roots in the free-list registry.
const numClasses = 16

// classUpperBound[i] is the largest block size (in bytes) that maps to
// class i; classUpperBound[numClasses-1] is unbounded. Monotone and
// fixed at compile time.
var classUpperBound = [numClasses]uint64{
	32, 48, 64, 96, 128, 256, 512, 1024,
	2048, 4096, 8192, 16384, 65536, 131072, 262144,
	math.MaxUint64,
}

// getIndex maps a block size to its free-list class by first match
// against classUpperBound. It is pure, constant-time, and monotone:
// a <= b implies getIndex(a) <= getIndex(b).
func getIndex(size uint64) int {
	for i, bound := range classUpperBound {
		if size <= bound {
			return i
		}
	}

	return numClasses - 1
}
