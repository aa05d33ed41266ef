package audio

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"hush/internal/log"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	// DefaultRecorderSlots frames may queue between the callback and the
	// writer (~640ms at 10ms frames).
	DefaultRecorderSlots = 64

	// DefaultRecorderBitDepth is used when no depth is configured.
	DefaultRecorderBitDepth = 16

	recorderPollInterval = 20 * time.Millisecond
	wavFormatPCM         = 1
)

var (
	ErrAlreadyRecording = errors.New("audio: already recording")
	ErrBitDepth         = errors.New("audio: unsupported recording bit depth")
)

// Recorder captures processed frames to a 16- or 24-bit mono WAV file. Tap is the
// real-time side: it copies into a pre-allocated slot ring and never blocks.
// A writer goroutine drains the ring and encodes.
type Recorder struct {
	path      string
	frameSize int
	bitDepth  int

	slots [][]float32
	head  atomic.Uint64 // next slot Tap writes
	tail  atomic.Uint64 // next slot the writer reads

	dropped atomic.Uint64
	written atomic.Uint64

	file    *os.File
	encoder *wav.Encoder
	pcm     *audio.IntBuffer
	werr    error

	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
	stopErr  error
}

// NewRecorder creates path and starts the writer goroutine. bitDepth must
// be 16 or 24; zero selects DefaultRecorderBitDepth.
func NewRecorder(path string, sampleRate, bitDepth, frameSize, slots int) (*Recorder, error) {
	if slots < 1 {
		slots = DefaultRecorderSlots
	}
	if bitDepth == 0 {
		bitDepth = DefaultRecorderBitDepth
	}
	if !SupportedBitDepth(bitDepth) {
		return nil, fmt.Errorf("%w: %d", ErrBitDepth, bitDepth)
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create recording: %w", err)
	}

	r := &Recorder{
		path:      path,
		frameSize: frameSize,
		bitDepth:  bitDepth,
		slots:     make([][]float32, slots),
		file:      file,
		encoder:   wav.NewEncoder(file, sampleRate, bitDepth, 1, wavFormatPCM),
		pcm: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
			Data:           make([]int, frameSize),
			SourceBitDepth: bitDepth,
		},
		done: make(chan struct{}),
	}
	for i := range r.slots {
		r.slots[i] = make([]float32, frameSize)
	}

	r.wg.Add(1)
	go r.run()
	return r, nil
}

// SupportedBitDepth reports whether the recorder can write depth-bit PCM.
func SupportedBitDepth(depth int) bool {
	return depth == 16 || depth == 24
}

// Path returns the file being written.
func (r *Recorder) Path() string { return r.path }

// BitDepth returns the PCM sample width of the file.
func (r *Recorder) BitDepth() int { return r.bitDepth }

// Dropped returns how many frames were discarded because the ring was full.
func (r *Recorder) Dropped() uint64 { return r.dropped.Load() }

// Written returns how many frames reached the encoder.
func (r *Recorder) Written() uint64 { return r.written.Load() }

// Tap queues a copy of frame. Only one goroutine may call Tap. Frames of the
// wrong length are ignored.
func (r *Recorder) Tap(frame []float32) bool {
	if len(frame) != r.frameSize {
		return false
	}
	head := r.head.Load()
	if head-r.tail.Load() >= uint64(len(r.slots)) {
		r.dropped.Add(1)
		return false
	}
	copy(r.slots[head%uint64(len(r.slots))], frame)
	r.head.Store(head + 1)
	return true
}

func (r *Recorder) run() {
	defer r.wg.Done()

	ticker := time.NewTicker(recorderPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.drain()
		case <-r.done:
			r.drain()
			return
		}
	}
}

func (r *Recorder) drain() {
	for {
		tail := r.tail.Load()
		if tail == r.head.Load() {
			return
		}
		frame := r.slots[tail%uint64(len(r.slots))]
		for i, v := range frame {
			r.pcm.Data[i] = toPCM(v, r.bitDepth)
		}
		// keep draining after an encode error so Tap never stalls
		if r.werr == nil {
			if err := r.encoder.Write(r.pcm); err != nil {
				r.werr = err
				log.Errorf("audio: recording %s: %v", r.path, err)
			} else {
				r.written.Add(1)
			}
		}
		r.tail.Store(tail + 1)
	}
}

// Stop drains queued frames, finalises the WAV header and closes the file.
// It is safe to call more than once.
func (r *Recorder) Stop() error {
	r.stopOnce.Do(func() {
		close(r.done)
		r.wg.Wait()

		var errs []error
		if r.werr != nil {
			errs = append(errs, r.werr)
		}
		if err := r.encoder.Close(); err != nil {
			errs = append(errs, fmt.Errorf("finalise wav: %w", err))
		}
		if err := r.file.Close(); err != nil {
			errs = append(errs, err)
		}
		r.stopErr = errors.Join(errs...)

		if n := r.dropped.Load(); n > 0 {
			log.Warnf("audio: recording %s dropped %d frames", r.path, n)
		}
	})
	return r.stopErr
}

// toPCM scales v in [-1,1] to a signed integer of the given width.
func toPCM(v float32, bitDepth int) int {
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	full := float64(int(1)<<(bitDepth-1) - 1)
	return int(math.Round(float64(v) * full))
}

// StartRecording begins capturing the engine output to path at the
// configured bit depth.
func (e *Engine) StartRecording(path string) error {
	if e.recorder.Load() != nil {
		return ErrAlreadyRecording
	}
	r, err := NewRecorder(path, int(e.config.Audio.SampleRate), e.config.Recording.BitDepth, e.frameSize, DefaultRecorderSlots)
	if err != nil {
		return err
	}
	if !e.recorder.CompareAndSwap(nil, r) {
		r.Stop()
		os.Remove(path)
		return ErrAlreadyRecording
	}
	log.Infof("audio: recording %d-bit to %s", r.BitDepth(), r.Path())
	return nil
}

// StopRecording detaches the recorder from the callback and finalises it.
// A callback may still hold the old pointer for the rest of its run, which
// is harmless: Tap after Stop only fills slots nobody reads.
func (e *Engine) StopRecording() error {
	r := e.recorder.Swap(nil)
	if r == nil {
		return nil
	}
	return r.Stop()
}

// Recording returns the path being recorded to, if a recorder is attached.
func (e *Engine) Recording() (path string, ok bool) {
	if r := e.recorder.Load(); r != nil {
		return r.Path(), true
	}
	return "", false
}
