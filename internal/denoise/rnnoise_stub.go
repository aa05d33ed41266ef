// SPDX-License-Identifier: MIT
//go:build !rnnoise || !cgo

package denoise

// RNNoiseAvailable reports whether the rnnoise engine was compiled in.
const RNNoiseAvailable = false

func newRNNoise(Config) (Filter, error) {
	return nil, ErrUnavailable
}
