// Package fastdiv provides integer division specialized for power-of-two
// divisors. Index decomposition divides by the same dense strides for every
// element, so replacing hardware divide/modulo with shift/mask when the
// stride allows it matters for throughput.
//
// Callers must guarantee b >= 1; behavior for b <= 0 is undefined.
package fastdiv

import "math/bits"

// IsPow2 reports whether b is a power of two. True for b == 1.
func IsPow2(b int) bool {
	return b&(b-1) == 0
}

// Log2 returns the base-2 logarithm of a power-of-two b.
func Log2(b int) int {
	return bits.TrailingZeros(uint(b))
}

// DivMod returns (a/b, a%b) for non-negative a and positive b, using
// shift and mask when b is a power of two.
func DivMod(a, b int) (int, int) {
	if b&(b-1) == 0 {
		return a >> uint(bits.TrailingZeros(uint(b))), a & (b - 1)
	}
	return a / b, a % b
}
