package bittiming

import "golang.org/x/exp/constraints"

// ceilDiv returns ceil(a/b) for non-negative a and positive b.
func ceilDiv[T constraints.Integer](a, b T) T {
	return (a + b - 1) / b
}

func absDiff[T constraints.Integer](a, b T) T {
	if a > b {
		return a - b
	}
	return b - a
}
