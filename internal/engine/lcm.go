package engine

import (
	"errors"
	"math"
	"math/bits"
)

var errOverflow = errors.New("int64 overflow")

// gcd returns the greatest common divisor of two non-negative numbers.
func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// lcm returns the least common multiple of ns. An empty list yields 1.
// Every value must be positive.
func lcm(ns ...int64) (int64, error) {
	acc := int64(1)
	for _, n := range ns {
		if n <= 0 {
			return 0, errors.New("lcm of non-positive value")
		}
		step := n / gcd(acc, n)
		hi, lo := bits.Mul64(uint64(acc), uint64(step))
		if hi != 0 || lo > math.MaxInt64 {
			return 0, errOverflow
		}
		acc = int64(lo)
	}
	return acc, nil
}
