// SPDX-License-Identifier: MIT
/*
Package audio implements the real-time denoising pass-through:
- Duplex mono PortAudio stream at a fixed frame size
- Wet/dry blend of the denoised signal with the dry input
- Wait-free level metering and level histories for observers
- Optional WAV capture of the processed output

Thread Safety:
- The stream callback is the only writer of levels and histories and the
  only caller of the denoiser
- Observers exchange data with it through atomics only
- Pre-allocates buffers to avoid GC in the hot path
- Locks OS thread during audio processing
*/
package audio

import (
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"hush/internal/config"
	"hush/internal/denoise"
	"hush/internal/history"
	"hush/internal/log"
	"hush/internal/meter"

	"github.com/gordonklaus/portaudio"
)

// ErrStreamRunning is returned when starting a stream that is already open.
var ErrStreamRunning = errors.New("audio: stream already running")

type Engine struct {
	config *config.Config
	// frameSize is what the denoiser consumes; bufferFrames is what the
	// stream is opened with. Callbacks of any other length fall back.
	frameSize    int
	bufferFrames int

	// Denoise and blend, touched only by the callback once streaming.
	denoiser *denoise.Handle
	stage    *Stage

	// Cross-thread state.
	store      *meter.Store
	inHistory  *history.Ring
	outHistory *history.Ring
	recorder   atomic.Pointer[Recorder]

	// Device stream.
	inputDevice  *portaudio.DeviceInfo
	outputDevice *portaudio.DeviceInfo
	stream       *portaudio.Stream
}

// NewEngine wires a denoise handle into a callback driver. A nil or invalid
// handle is accepted: the engine then passes audio through untouched.
func NewEngine(cfg *config.Config, h *denoise.Handle) *Engine {
	bufferFrames := cfg.Audio.FramesPerBuffer
	frameSize := bufferFrames
	if h.Valid() && h.FrameSize() != bufferFrames {
		log.Warnf("audio: denoiser frame size %d differs from stream frame size %d, audio will pass through", h.FrameSize(), bufferFrames)
		frameSize = h.FrameSize()
	}

	return &Engine{
		config:       cfg,
		frameSize:    frameSize,
		bufferFrames: bufferFrames,
		denoiser:     h,
		stage:        NewStage(h, frameSize),
		store:        meter.NewStore(float32(cfg.Denoise.Strength)),
		inHistory:    history.New(cfg.Monitor.HistorySize),
		outHistory:   history.New(cfg.Monitor.HistorySize),
	}
}

// FrameSize is the callback length the denoiser accepts. Any other length
// is passed through and counted as a fallback.
func (e *Engine) FrameSize() int { return e.frameSize }

// Store exposes the shared parameter/metric cells.
func (e *Engine) Store() *meter.Store { return e.store }

// SetStrength writes the wet/dry mix read by the next callback.
func (e *Engine) SetStrength(v float32) { e.store.SetStrength(v) }

// Active reports whether audio is flowing through the engine.
func (e *Engine) Active() bool { return e.store.Active() }

// Snapshot is an observer-side copy of everything the engine exports.
type Snapshot struct {
	meter.Snapshot
	InputHistory  []float32
	OutputHistory []float32
	Cursor        int
}

// Observe fills snap from the live cells. History slices are reused when
// they have enough capacity.
func (e *Engine) Observe(snap *Snapshot) {
	e.store.Load(&snap.Snapshot)
	snap.InputHistory, snap.Cursor = e.inHistory.Snapshot(snap.InputHistory)
	snap.OutputHistory, _ = e.outHistory.Snapshot(snap.OutputHistory)
}

// Process is the callback body. It runs under a hard deadline: no
// allocation, no locks, no logging.
func (e *Engine) Process(in, out []float32) {
	if len(out) == 0 {
		return
	}
	if len(in) == 0 {
		clear(out)
		e.store.AddFallback()
		return
	}
	if len(in) != e.frameSize || len(out) != len(in) {
		n := copy(out, in)
		clear(out[n:])
		e.store.AddFallback()
		return
	}

	inLevel, outLevel := e.stage.Render(out, in, e.store.Strength())

	e.store.SetLevel(meter.Input, inLevel)
	e.store.SetLevel(meter.Output, outLevel)
	e.inHistory.Push(inLevel)
	e.outHistory.Push(outLevel)
	e.store.AddFrame()

	if r := e.recorder.Load(); r != nil {
		r.Tap(out)
	}
}

// streamCallback is handed to PortAudio.
func (e *Engine) streamCallback(in, out []float32, _ portaudio.StreamCallbackTimeInfo, flags portaudio.StreamCallbackFlags) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	const xrun = portaudio.InputUnderflow | portaudio.InputOverflow |
		portaudio.OutputUnderflow | portaudio.OutputOverflow
	if flags&xrun != 0 {
		e.store.AddXRun()
	}
	e.Process(in, out)
}

// StartStream opens and starts a mono duplex stream between the two devices.
func (e *Engine) StartStream(input, output *portaudio.DeviceInfo) error {
	if e.stream != nil {
		return ErrStreamRunning
	}
	if input == nil {
		return ErrNoInputDevice
	}
	if output == nil {
		return ErrNoOutputDevice
	}

	inLatency, outLatency := input.DefaultHighInputLatency, output.DefaultHighOutputLatency
	if e.config.Audio.LowLatency {
		inLatency, outLatency = input.DefaultLowInputLatency, output.DefaultLowOutputLatency
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   input,
			Channels: 1,
			Latency:  inLatency,
		},
		Output: portaudio.StreamDeviceParameters{
			Device:   output,
			Channels: 1,
			Latency:  outLatency,
		},
		SampleRate:      e.config.Audio.SampleRate,
		FramesPerBuffer: e.bufferFrames,
		Flags:           portaudio.ClipOff,
	}

	stream, err := portaudio.OpenStream(params, e.streamCallback)
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("start stream: %w", err)
	}

	e.stream = stream
	e.inputDevice, e.outputDevice = input, output
	e.store.SetActive(true)

	log.WithFields(log.Fields{
		"component":   "engine",
		"input":       input.Name,
		"output":      output.Name,
		"sample_rate": e.config.Audio.SampleRate,
		"frames":      e.bufferFrames,
		"latency_ms":  float64(max(inLatency, outLatency)) / float64(time.Millisecond),
	}).Info("stream started")
	return nil
}

// StopStream stops and closes the stream. Once it returns no callback is in
// flight.
func (e *Engine) StopStream() error {
	if e.stream == nil {
		return nil
	}
	e.store.SetActive(false)

	stream := e.stream
	e.stream = nil
	if err := stream.Stop(); err != nil {
		stream.Close()
		return fmt.Errorf("stop stream: %w", err)
	}
	if err := stream.Close(); err != nil {
		return fmt.Errorf("close stream: %w", err)
	}
	return nil
}

// DeviceNames returns the names of the devices the stream was last opened
// on, or empty strings before the first StartStream.
func (e *Engine) DeviceNames() (input, output string) {
	if e.inputDevice != nil {
		input = e.inputDevice.Name
	}
	if e.outputDevice != nil {
		output = e.outputDevice.Name
	}
	return input, output
}

// Close tears the engine down: recorder, then stream, then the denoiser,
// which must outlive every callback.
func (e *Engine) Close() error {
	var errs []error
	if err := e.StopRecording(); err != nil {
		errs = append(errs, err)
	}
	if err := e.StopStream(); err != nil {
		// a callback may still be running, keep the denoiser alive
		return errors.Join(append(errs, err)...)
	}
	if err := e.denoiser.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close denoiser: %w", err))
	}
	return errors.Join(errs...)
}
