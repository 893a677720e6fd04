// Package conv provides checked integer conversions.
//
// State counts are ints throughout the engine but sparse sets index with
// uint32. A count that does not fit means a compile limit was bypassed,
// which is a programming error, so these helpers panic instead of
// returning errors.
package conv

import "math"

// IntToUint32 converts n to uint32.
// Panics if n < 0 or n > math.MaxUint32.
func IntToUint32(n int) uint32 {
	// uint comparison keeps this correct where int is 32 bits wide
	if n < 0 || uint(n) > math.MaxUint32 {
		panic("integer overflow: int value out of uint32 range")
	}
	return uint32(n)
}
