// SPDX-License-Identifier: MIT
//go:build rnnoise && cgo

package denoise

/*
#cgo pkg-config: rnnoise
#include <rnnoise.h>
#include <stdlib.h>
*/
import "C"

import (
	"fmt"
	"unsafe"
)

// RNNoiseAvailable reports whether the rnnoise engine was compiled in.
const RNNoiseAvailable = true

// rnnoiseFrameSize is the only frame length librnnoise accepts (10ms @ 48kHz).
const rnnoiseFrameSize = 480

// rnnoise expects samples in int16 range stored as floats.
const rnnoiseScale = 32767.0

type rnnoise struct {
	state *C.DenoiseState
	cIn   *C.float
	cOut  *C.float
	in    []C.float
	out   []C.float
}

func newRNNoise(cfg Config) (*rnnoise, error) {
	if cfg.FrameSize != rnnoiseFrameSize {
		return nil, fmt.Errorf("%w: rnnoise needs %d, got %d", ErrFrameSize, rnnoiseFrameSize, cfg.FrameSize)
	}

	st := C.rnnoise_create(nil)
	if st == nil {
		return nil, fmt.Errorf("denoise: rnnoise_create failed")
	}

	size := C.size_t(rnnoiseFrameSize) * C.size_t(unsafe.Sizeof(C.float(0)))
	r := &rnnoise{
		state: st,
		cIn:   (*C.float)(C.malloc(size)),
		cOut:  (*C.float)(C.malloc(size)),
	}
	r.in = unsafe.Slice(r.cIn, rnnoiseFrameSize)
	r.out = unsafe.Slice(r.cOut, rnnoiseFrameSize)
	return r, nil
}

func (r *rnnoise) ProcessFrame(dst, src []float32) {
	for i, v := range src {
		r.in[i] = C.float(v * rnnoiseScale)
	}
	C.rnnoise_process_frame(r.state, r.cOut, r.cIn)
	for i := range dst {
		dst[i] = float32(r.out[i]) / rnnoiseScale
	}
}

func (r *rnnoise) Close() error {
	if r.state != nil {
		C.rnnoise_destroy(r.state)
		r.state = nil
	}
	if r.cIn != nil {
		C.free(unsafe.Pointer(r.cIn))
		C.free(unsafe.Pointer(r.cOut))
		r.cIn, r.cOut = nil, nil
		r.in, r.out = nil, nil
	}
	return nil
}
