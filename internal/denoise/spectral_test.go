// SPDX-License-Identifier: MIT
package denoise

import (
	"testing"

	"hush/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testFrame = 480

func TestSpectralUnityGainReconstructs(t *testing.T) {
	// A floor of one pins every bin gain to one, leaving only the
	// analysis/synthesis round trip and its one-frame delay.
	h, err := Create(Config{Kind: KindSpectral, FrameSize: testFrame, Floor: 1})
	require.NoError(t, err)
	defer h.Close()

	frames := utils.GenerateNoisySpeech(6, testFrame, 48000, 11)
	out := make([]float32, testFrame)

	h.ProcessFrame(out, frames[0])
	for _, v := range out {
		assert.InDelta(t, 0, v, 1e-6, "first output frame is the delay line")
	}

	for k := 1; k < len(frames); k++ {
		h.ProcessFrame(out, frames[k])
		assert.InDeltaSlice(t, toFloat64(frames[k-1]), toFloat64(out), 1e-5, "frame %d", k)
	}
}

func TestSpectralDeterministic(t *testing.T) {
	frames := utils.GenerateNoisySpeech(40, testFrame, 48000, 5)

	run := func() [][]float32 {
		h, err := Create(Config{FrameSize: testFrame})
		require.NoError(t, err)
		defer h.Close()

		outs := make([][]float32, len(frames))
		for i, f := range frames {
			outs[i] = make([]float32, testFrame)
			h.ProcessFrame(outs[i], f)
		}
		return outs
	}

	assert.Equal(t, run(), run())
}

func TestSpectralSuppressesStationaryNoise(t *testing.T) {
	h, err := Create(Config{FrameSize: testFrame})
	require.NoError(t, err)
	defer h.Close()

	const total = 120
	var inSum, outSum float64
	out := make([]float32, testFrame)
	for i := range total {
		in := utils.GenerateNoise(testFrame, 0.1, uint32(2*i+1))
		h.ProcessFrame(out, in)
		if i >= total/2 {
			inSum += rms(in)
			outSum += rms(out)
		}
	}

	assert.Less(t, outSum, inSum*0.7)
}

func TestSpectralCarriesPaddingTail(t *testing.T) {
	// 2*480 is padded to a 1024-point transform. Uneven bin gains spread
	// energy into the last 64 points, which land at the start of the frame
	// two calls later.
	h, err := Create(Config{Kind: KindSpectral, FrameSize: testFrame, LearningFrames: 10})
	require.NoError(t, err)
	defer h.Close()

	out := make([]float32, testFrame)
	for i := range 10 {
		h.ProcessFrame(out, utils.GenerateNoise(testFrame, 0.05, uint32(2*i+1)))
	}
	tone := utils.GenerateSineWave(testFrame, 48000, 1000, 0.5)
	noise := utils.GenerateNoise(testFrame, 0.05, 99)
	for i := range tone {
		tone[i] += noise[i]
	}
	h.ProcessFrame(out, tone)

	silence := make([]float32, testFrame)
	for range 3 {
		h.ProcessFrame(out, silence)
	}

	const tail = 1024 - 2*testFrame
	var energy float64
	for _, v := range out[:tail] {
		energy += float64(v) * float64(v)
	}
	assert.Greater(t, energy, 1e-12)
	for i, v := range out[tail:] {
		require.Zero(t, v, "sample %d", tail+i)
	}
}

func TestSpectralInPlace(t *testing.T) {
	a, err := Create(Config{FrameSize: testFrame})
	require.NoError(t, err)
	b, err := Create(Config{FrameSize: testFrame})
	require.NoError(t, err)

	frames := utils.GenerateNoisySpeech(4, testFrame, 48000, 9)
	out := make([]float32, testFrame)
	for _, f := range frames {
		a.ProcessFrame(out, f)
		buf := append([]float32(nil), f...)
		b.ProcessFrame(buf, buf)
		assert.Equal(t, out, buf)
	}
}

func TestSpectralProcessFrameNoAllocs(t *testing.T) {
	h, err := Create(Config{FrameSize: testFrame})
	require.NoError(t, err)

	in := utils.GenerateNoise(testFrame, 0.2, 1)
	out := make([]float32, testFrame)
	allocs := testing.AllocsPerRun(100, func() {
		h.ProcessFrame(out, in)
	})
	assert.Zero(t, allocs)
}

func BenchmarkSpectralProcessFrame(b *testing.B) {
	h, err := Create(Config{FrameSize: testFrame})
	if err != nil {
		b.Fatal(err)
	}
	in := utils.GenerateNoise(testFrame, 0.2, 1)
	out := make([]float32, testFrame)

	b.ReportAllocs()
	for b.Loop() {
		h.ProcessFrame(out, in)
	}
}
