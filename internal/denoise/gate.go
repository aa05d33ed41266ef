// SPDX-License-Identifier: MIT
package denoise

import (
	"fmt"
	"math"
)

// gateAttenuation is the gain applied to closed frames (about -40 dB).
const gateAttenuation = 0.01

// gate is a frame-level noise gate: frames whose RMS stays under the
// threshold are attenuated, louder frames pass untouched. The gain ramps
// linearly across a frame so that opening and closing do not click.
type gate struct {
	threshold float32
	gain      float32
}

func newGate(cfg Config) (*gate, error) {
	if cfg.GateThreshold < 0 || cfg.GateThreshold > 1 {
		return nil, fmt.Errorf("denoise: gate threshold %v outside [0,1]", cfg.GateThreshold)
	}
	return &gate{threshold: cfg.GateThreshold, gain: 1}, nil
}

func (g *gate) ProcessFrame(dst, src []float32) {
	var sum float64
	for _, v := range src {
		sum += float64(v) * float64(v)
	}
	rms := float32(math.Sqrt(sum / float64(len(src))))

	target := float32(gateAttenuation)
	if rms >= g.threshold {
		target = 1
	}

	step := (target - g.gain) / float32(len(src))
	for i, v := range src {
		g.gain += step
		dst[i] = v * g.gain
	}
	g.gain = target
}

func (g *gate) Close() error { return nil }
