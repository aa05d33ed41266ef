// SPDX-License-Identifier: MIT
package denoise

import (
	"fmt"
	"math"

	"hush/pkg/bitint"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

const (
	// Noise estimate tracking after the learning phase. The estimate follows
	// quiet frames quickly and creeps up slowly under speech.
	noiseRise = 0.01
	noiseFall = 0.25

	powerEpsilon = 1e-12
)

// spectral is an overlap-add spectral subtraction filter. Each call analyses
// the previous and current frame through a sqrt-Hann window of twice the
// frame length, so output lags input by exactly one frame.
type spectral struct {
	frameSize int
	winSize   int
	fftSize   int

	overSub   float64
	floor     float64
	smoothing float64
	learning  int
	frames    int

	fft    *fourier.FFT
	window []float64 // sqrt periodic Hann, len winSize

	history  []float64    // last winSize input samples
	timeBuf  []float64    // windowed, zero padded, len fftSize
	spectrum []complex128 // len fftSize/2+1
	noise    []float64    // per-bin noise power estimate
	gain     []float64    // per-bin smoothed gain
	overlap  []float64    // synthesis tail carried forward, len fftSize-frameSize
}

func newSpectral(cfg Config) (*spectral, error) {
	if cfg.Floor <= 0 || cfg.Floor > 1 {
		return nil, fmt.Errorf("denoise: spectral floor %v outside (0,1]", cfg.Floor)
	}
	if cfg.Smoothing < 0 || cfg.Smoothing >= 1 {
		return nil, fmt.Errorf("denoise: spectral smoothing %v outside [0,1)", cfg.Smoothing)
	}
	if cfg.OverSubtraction < 0 {
		return nil, fmt.Errorf("denoise: negative over-subtraction %v", cfg.OverSubtraction)
	}

	n := cfg.FrameSize
	winSize := 2 * n
	fftSize := bitint.NextPowerOfTwo(winSize)
	bins := fftSize/2 + 1

	// Hann over winSize+1 points, truncated, is the periodic window whose
	// 50% overlapped copies sum to one.
	hann := make([]float64, winSize+1)
	for i := range hann {
		hann[i] = 1
	}
	window.Hann(hann)
	win := hann[:winSize]
	for i, v := range win {
		win[i] = math.Sqrt(v)
	}

	s := &spectral{
		frameSize: n,
		winSize:   winSize,
		fftSize:   fftSize,
		overSub:   cfg.OverSubtraction,
		floor:     cfg.Floor,
		smoothing: cfg.Smoothing,
		learning:  cfg.LearningFrames,
		fft:       fourier.NewFFT(fftSize),
		window:    win,
		history:   make([]float64, winSize),
		timeBuf:   make([]float64, fftSize),
		spectrum:  make([]complex128, bins),
		noise:     make([]float64, bins),
		gain:      make([]float64, bins),
		overlap:   make([]float64, fftSize-n),
	}
	for i := range s.gain {
		s.gain[i] = 1
	}
	return s, nil
}

func (s *spectral) ProcessFrame(dst, src []float32) {
	n := s.frameSize

	copy(s.history, s.history[n:])
	for i, v := range src {
		s.history[n+i] = float64(v)
	}

	for i, w := range s.window {
		s.timeBuf[i] = s.history[i] * w
	}
	clear(s.timeBuf[s.winSize:])

	s.fft.Coefficients(s.spectrum, s.timeBuf)
	s.frames++

	for k, c := range s.spectrum {
		p := real(c)*real(c) + imag(c)*imag(c)
		s.trackNoise(k, p)

		g := 1 - s.overSub*math.Sqrt(s.noise[k]/(p+powerEpsilon))
		if g < s.floor {
			g = s.floor
		}
		s.gain[k] = s.smoothing*s.gain[k] + (1-s.smoothing)*g
		s.spectrum[k] = c * complex(s.gain[k], 0)
	}

	s.fft.Sequence(s.timeBuf, s.spectrum)

	// Window the synthesis span and keep the zero-padding region as is, so
	// whatever the gains spread past winSize is overlapped into later frames.
	scale := 1 / float64(s.fftSize)
	for i, w := range s.window {
		s.timeBuf[i] *= scale * w
	}
	for i := s.winSize; i < s.fftSize; i++ {
		s.timeBuf[i] *= scale
	}

	for i := range n {
		dst[i] = float32(s.overlap[i] + s.timeBuf[i])
	}
	tail := len(s.overlap)
	copy(s.overlap, s.overlap[n:])
	clear(s.overlap[tail-n:])
	for i := range tail {
		s.overlap[i] += s.timeBuf[n+i]
	}
}

func (s *spectral) trackNoise(k int, p float64) {
	if s.frames <= s.learning {
		// running mean over the learning phase
		s.noise[k] += (p - s.noise[k]) / float64(s.frames)
		return
	}
	if p > s.noise[k] {
		s.noise[k] += noiseRise * (p - s.noise[k])
	} else {
		s.noise[k] += noiseFall * (p - s.noise[k])
	}
}

func (s *spectral) Close() error { return nil }
