// Package transport publishes engine observations to remote observers.
package transport

import (
	"time"

	"hush/internal/audio"
)

// Transport defines a generic interface for sending processed data or events.
// Implementations should be thread-safe.
type Transport interface {
	Send(data any) error
	Close() error
}

// Source is anything that can fill an observer snapshot, normally the
// audio engine.
type Source interface {
	Observe(snap *audio.Snapshot)
}

// StrengthSetter accepts wet/dry changes from remote controls.
type StrengthSetter interface {
	SetStrength(v float32)
}

// Frame is one observation as sent over the wire.
type Frame struct {
	Sequence      uint64    `json:"seq"`
	Timestamp     int64     `json:"ts"` // unix nanoseconds
	Active        bool      `json:"active"`
	Strength      float32   `json:"strength"`
	InputLevel    float32   `json:"input_level"`
	OutputLevel   float32   `json:"output_level"`
	Frames        uint64    `json:"frames"`
	Fallbacks     uint64    `json:"fallbacks"`
	XRuns         uint64    `json:"xruns"`
	InputHistory  []float32 `json:"input_history,omitempty"`
	OutputHistory []float32 `json:"output_history,omitempty"`
}

// NewFrame copies snap into a Frame that outlives the snapshot buffers.
func NewFrame(seq uint64, at time.Time, snap *audio.Snapshot) Frame {
	return Frame{
		Sequence:      seq,
		Timestamp:     at.UnixNano(),
		Active:        snap.Active,
		Strength:      snap.Strength,
		InputLevel:    snap.InputLevel,
		OutputLevel:   snap.OutputLevel,
		Frames:        snap.Frames,
		Fallbacks:     snap.Fallbacks,
		XRuns:         snap.XRuns,
		InputHistory:  append([]float32(nil), snap.InputHistory...),
		OutputHistory: append([]float32(nil), snap.OutputHistory...),
	}
}
