// SPDX-License-Identifier: MIT
/*
Package bitint provides the small power-of-two helpers used to size FFT
workspaces for the real-time filters. Everything here is allocation free
and constant time, so it may be called while preparing hot-path buffers.

	fftSize := bitint.NextPowerOfTwo(2 * frameSize) // 480 -> 1024
	ok := bitint.IsPowerOfTwo(fftSize)

NextPowerOfTwo subtracts one before taking the bit length so that exact
powers of two are preserved: for 8, bits.Len(7) = 3 and 1<<3 = 8, whereas
bits.Len(8) = 4 would double the input.
*/
package bitint

import "math/bits"

// NextPowerOfTwo returns the smallest power of 2 >= size.
// Non-positive sizes return 1.
//
//	Input  Output
//	960    1024
//	512    512
//	0      1
func NextPowerOfTwo(size int) int {
	if size <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(size-1))
}

// IsPowerOfTwo reports whether n is a positive power of 2. Powers of two have
// exactly one bit set, so n&(n-1) clears it to zero.
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}
