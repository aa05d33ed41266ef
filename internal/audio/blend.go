// SPDX-License-Identifier: MIT
package audio

import (
	"math"

	"hush/internal/denoise"
)

// Stage runs one frame through the denoiser and cross-fades the result with
// the dry input. It owns the scratch frame the wet signal is rendered into.
type Stage struct {
	denoiser *denoise.Handle
	wet      []float32
}

// NewStage pre-allocates the wet buffer for frames of frameSize samples.
func NewStage(h *denoise.Handle, frameSize int) *Stage {
	return &Stage{
		denoiser: h,
		wet:      make([]float32, frameSize),
	}
}

// Render writes wet*s + in*(1-s) into out, where s is strength clamped to
// [0,1], and returns the RMS of in and out. out must be at least as long as
// in and must not alias it.
func (s *Stage) Render(out, in []float32, strength float32) (inLevel, outLevel float32) {
	wet := s.wet[:len(in)]
	s.denoiser.ProcessFrame(wet, in)

	mix := ClampStrength(strength)
	dry := 1 - mix
	out = out[:len(in)]
	for i, x := range in {
		out[i] = wet[i]*mix + x*dry
	}

	return RMS(in), RMS(out)
}

// RMS returns sqrt(mean(x²)), or 0 for an empty slice.
func RMS(x []float32) float32 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, v := range x {
		sum += float64(v) * float64(v)
	}
	return float32(math.Sqrt(sum / float64(len(x))))
}

// ClampStrength limits v to [0,1]. NaN maps to 0 (dry).
func ClampStrength(v float32) float32 {
	switch {
	case math.IsNaN(float64(v)), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
