package utils

import "math"

// MockFilter satisfies denoise.Filter for tests. It scales every sample by
// Gain and records how often it was invoked.
type MockFilter struct {
	Gain   float32
	Calls  int
	Closed bool
}

// ProcessFrame writes src*Gain into dst.
func (m *MockFilter) ProcessFrame(dst, src []float32) {
	m.Calls++
	for i, s := range src {
		dst[i] = s * m.Gain
	}
}

// Close marks the filter as released.
func (m *MockFilter) Close() error {
	m.Closed = true
	return nil
}

// GenerateSineWave returns size samples of a sine at frequency Hz with the
// given peak amplitude.
func GenerateSineWave(size int, sampleRate, frequency float64, amplitude float32) []float32 {
	buffer := make([]float32, size)
	for i := range buffer {
		t := float64(i) / sampleRate
		buffer[i] = amplitude * float32(math.Sin(2*math.Pi*frequency*t))
	}
	return buffer
}

// GenerateConstant returns size copies of value.
func GenerateConstant(size int, value float32) []float32 {
	buffer := make([]float32, size)
	for i := range buffer {
		buffer[i] = value
	}
	return buffer
}

// GenerateNoise returns size samples of uniform noise in [-amplitude, amplitude].
// The sequence is fully determined by seed.
func GenerateNoise(size int, amplitude float32, seed uint32) []float32 {
	buffer := make([]float32, size)
	state := seed | 1
	for i := range buffer {
		// xorshift32
		state ^= state << 13
		state ^= state >> 17
		state ^= state << 5
		buffer[i] = amplitude * (float32(state)/float32(math.MaxUint32)*2 - 1)
	}
	return buffer
}

// GenerateNoisySpeech mixes a 440Hz tone with noise, one frame at a time, so
// that a sequence of frames can be replayed deterministically.
func GenerateNoisySpeech(frames, frameSize int, sampleRate float64, seed uint32) [][]float32 {
	out := make([][]float32, frames)
	noise := GenerateNoise(frames*frameSize, 0.02, seed)
	for f := range out {
		frame := make([]float32, frameSize)
		for i := range frame {
			n := f*frameSize + i
			t := float64(n) / sampleRate
			frame[i] = 0.1*float32(math.Sin(2*math.Pi*440*t)) + noise[n]
		}
		out[f] = frame
	}
	return out
}
