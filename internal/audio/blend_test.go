// SPDX-License-Identifier: MIT
package audio

import (
	"math"
	"testing"

	"hush/internal/denoise"
	"hush/pkg/utils"
)

const (
	testFrameSize  = 480
	testSampleRate = 48000
)

func TestRMS(t *testing.T) {
	tests := []struct {
		name  string
		input []float32
		want  float32
	}{
		{"empty", nil, 0},
		{"zeros", make([]float32, testFrameSize), 0},
		{"constant positive", utils.GenerateConstant(testFrameSize, 0.25), 0.25},
		{"constant negative", utils.GenerateConstant(testFrameSize, -0.7), 0.7},
		{"full scale sine", utils.GenerateSineWave(testFrameSize, testSampleRate, 1000, 1), float32(1 / math.Sqrt2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RMS(tt.input)
			if math.Abs(float64(got-tt.want)) > 1e-4 {
				t.Errorf("RMS() = %v, want %v", got, tt.want)
			}
		})
	}

	if got := RMS(make([]float32, testFrameSize)); got != 0 {
		t.Errorf("RMS of silence must be exactly 0, got %v", got)
	}
}

func TestClampStrength(t *testing.T) {
	tests := []struct {
		in, want float32
	}{
		{-0.5, 0},
		{0, 0},
		{0.3, 0.3},
		{1, 1},
		{1.7, 1},
		{float32(math.NaN()), 0},
		{float32(math.Inf(1)), 1},
	}
	for _, tt := range tests {
		if got := ClampStrength(tt.in); got != tt.want {
			t.Errorf("ClampStrength(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRenderLinearity(t *testing.T) {
	in := utils.GenerateSineWave(testFrameSize, testSampleRate, 440, 0.1)
	wet := make([]float32, testFrameSize)
	for i, v := range in {
		wet[i] = v * 0.2
	}

	for _, s := range []float32{0, 0.25, 0.5, 0.75, 1} {
		stage := NewStage(denoise.Wrap(&utils.MockFilter{Gain: 0.2}, testFrameSize), testFrameSize)
		out := make([]float32, testFrameSize)
		stage.Render(out, in, s)

		for i := range out {
			want := wet[i]*s + in[i]*(1-s)
			if math.Abs(float64(out[i]-want)) > 1e-7 {
				t.Fatalf("s=%v: out[%d] = %v, want %v", s, i, out[i], want)
			}
		}
	}
}

func TestRenderBoundsAreExact(t *testing.T) {
	in := utils.GenerateNoise(testFrameSize, 0.5, 42)
	out := make([]float32, testFrameSize)

	dry := NewStage(denoise.Wrap(&utils.MockFilter{Gain: 0.3}, testFrameSize), testFrameSize)
	dry.Render(out, in, 0)
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("strength 0: out[%d] = %v, want input %v", i, out[i], in[i])
		}
	}

	wet := NewStage(denoise.Wrap(&utils.MockFilter{Gain: 0.3}, testFrameSize), testFrameSize)
	wet.Render(out, in, 1)
	for i := range in {
		if out[i] != in[i]*0.3 {
			t.Fatalf("strength 1: out[%d] = %v, want denoised %v", i, out[i], in[i]*0.3)
		}
	}
}

func TestRenderClampsOutOfRangeStrength(t *testing.T) {
	in := utils.GenerateSineWave(testFrameSize, testSampleRate, 440, 0.1)

	render := func(s float32) []float32 {
		stage := NewStage(denoise.Wrap(&utils.MockFilter{Gain: 0.5}, testFrameSize), testFrameSize)
		out := make([]float32, testFrameSize)
		stage.Render(out, in, s)
		return out
	}

	pairs := [][2]float32{{-0.5, 0}, {1.7, 1}}
	for _, p := range pairs {
		got, want := render(p[0]), render(p[1])
		for i := range got {
			if got[i] != want[i] {
				t.Fatalf("strength %v differs from %v at %d", p[0], p[1], i)
			}
		}
	}
}

func TestRenderReturnsLevels(t *testing.T) {
	in := utils.GenerateConstant(testFrameSize, 0.4)
	stage := NewStage(denoise.Wrap(&utils.MockFilter{Gain: 0.5}, testFrameSize), testFrameSize)
	out := make([]float32, testFrameSize)

	inLevel, outLevel := stage.Render(out, in, 1)
	if math.Abs(float64(inLevel-0.4)) > 1e-6 {
		t.Errorf("inLevel = %v, want 0.4", inLevel)
	}
	if math.Abs(float64(outLevel-0.2)) > 1e-6 {
		t.Errorf("outLevel = %v, want 0.2", outLevel)
	}
}

func TestRenderNoAllocs(t *testing.T) {
	h, err := denoise.Create(denoise.Config{FrameSize: testFrameSize})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer h.Close()

	stage := NewStage(h, testFrameSize)
	in := utils.GenerateNoise(testFrameSize, 0.1, 3)
	out := make([]float32, testFrameSize)

	allocs := testing.AllocsPerRun(100, func() {
		stage.Render(out, in, 0.8)
	})
	if allocs > 0 {
		t.Errorf("Expected zero allocations in Render, got %.1f", allocs)
	}
}
