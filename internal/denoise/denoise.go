// SPDX-License-Identifier: MIT
/*
Package denoise adapts noise suppression engines to a fixed-size, mono,
float32 frame interface usable from the audio callback.

A Handle owns exactly one engine instance. Every buffer the engine needs is
allocated when the handle is created, so ProcessFrame never allocates. A
handle is not safe for concurrent use: only the audio thread calls
ProcessFrame, and Close must run after the stream has stopped.
*/
package denoise

import (
	"errors"
	"fmt"
	"strings"
)

// Kind names a denoise engine implementation.
type Kind string

const (
	KindSpectral    Kind = "spectral"
	KindRNNoise     Kind = "rnnoise"
	KindGate        Kind = "gate"
	KindPassthrough Kind = "passthrough"
)

var (
	// ErrUnavailable is returned by Create when the requested engine was not
	// compiled into this binary.
	ErrUnavailable = errors.New("denoise: engine not available in this build")
	ErrUnknownKind = errors.New("denoise: unknown engine kind")
	ErrFrameSize   = errors.New("denoise: unsupported frame size")
)

// ParseKind maps a user supplied name to a Kind. Matching ignores case and
// surrounding whitespace; an empty name selects the spectral engine.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return KindSpectral, nil
	case KindSpectral, KindRNNoise, KindGate, KindPassthrough:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// Config selects and tunes an engine. Zero values fall back to
// DefaultConfig.
type Config struct {
	Kind      Kind
	FrameSize int

	// Spectral engine.
	OverSubtraction float64 // noise estimate multiplier before subtraction
	Floor           float64 // minimum per-bin gain, (0,1]
	Smoothing       float64 // per-bin gain smoothing across frames, [0,1)
	LearningFrames  int     // frames averaged into the initial noise estimate

	// Gate engine; linear RMS below which frames are attenuated.
	GateThreshold float32
}

// DefaultConfig returns the tuning used when nothing else is configured.
func DefaultConfig() Config {
	return Config{
		Kind:            KindSpectral,
		FrameSize:       480,
		OverSubtraction: 2.0,
		Floor:           0.05,
		Smoothing:       0.6,
		LearningFrames:  20,
		GateThreshold:   0.01,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Kind == "" {
		c.Kind = d.Kind
	}
	if c.FrameSize == 0 {
		c.FrameSize = d.FrameSize
	}
	if c.OverSubtraction == 0 {
		c.OverSubtraction = d.OverSubtraction
	}
	if c.Floor == 0 {
		c.Floor = d.Floor
	}
	if c.Smoothing == 0 {
		c.Smoothing = d.Smoothing
	}
	if c.LearningFrames == 0 {
		c.LearningFrames = d.LearningFrames
	}
	if c.GateThreshold == 0 {
		c.GateThreshold = d.GateThreshold
	}
	return c
}

// Filter is a single engine instance processing one frame at a time. dst and
// src have the frame length the filter was built for and may alias.
type Filter interface {
	ProcessFrame(dst, src []float32)
	Close() error
}

// Handle is the scoped owner of one Filter. The zero value and nil are both
// valid and behave as a pass-through.
type Handle struct {
	filter    Filter
	frameSize int
	kind      Kind
}

// Create builds the engine described by cfg.
func Create(cfg Config) (*Handle, error) {
	cfg = cfg.withDefaults()
	if cfg.FrameSize < 1 {
		return nil, fmt.Errorf("%w: %d", ErrFrameSize, cfg.FrameSize)
	}

	var (
		f   Filter
		err error
	)
	switch cfg.Kind {
	case KindSpectral:
		f, err = newSpectral(cfg)
	case KindRNNoise:
		f, err = newRNNoise(cfg)
	case KindGate:
		f, err = newGate(cfg)
	case KindPassthrough:
		f = passthrough{}
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownKind, cfg.Kind)
	}
	if err != nil {
		return nil, err
	}

	return &Handle{filter: f, frameSize: cfg.FrameSize, kind: cfg.Kind}, nil
}

// Wrap adopts an existing filter that expects frames of frameSize samples.
func Wrap(f Filter, frameSize int) *Handle {
	return &Handle{filter: f, frameSize: frameSize, kind: "custom"}
}

// Valid reports whether the handle still owns a live engine.
func (h *Handle) Valid() bool {
	return h != nil && h.filter != nil
}

// FrameSize returns the number of samples the engine consumes per call.
func (h *Handle) FrameSize() int {
	if h == nil {
		return 0
	}
	return h.frameSize
}

// Kind returns the engine kind, or an empty Kind for an invalid handle.
func (h *Handle) Kind() Kind {
	if !h.Valid() {
		return ""
	}
	return h.kind
}

// ProcessFrame writes the denoised version of src into dst. An invalid
// handle, a src of the wrong length or a short dst degrade to copying src
// into dst unmodified.
func (h *Handle) ProcessFrame(dst, src []float32) {
	if !h.Valid() || len(src) != h.frameSize || len(dst) < len(src) {
		copy(dst, src)
		return
	}
	h.filter.ProcessFrame(dst[:len(src)], src)
}

// Close releases the engine. Calling Close more than once is a no-op.
func (h *Handle) Close() error {
	if !h.Valid() {
		return nil
	}
	f := h.filter
	h.filter = nil
	return f.Close()
}

type passthrough struct{}

func (passthrough) ProcessFrame(dst, src []float32) { copy(dst, src) }
func (passthrough) Close() error                    { return nil }
