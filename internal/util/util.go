package util

import "golang.org/x/exp/constraints"

func GCD[T constraints.Integer](a, b T) T {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// LCM returns the least common multiple of two positive integers.
func LCM[T constraints.Integer](a, b T) T {
	return a / GCD(a, b) * b
}
