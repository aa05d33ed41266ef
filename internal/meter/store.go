// SPDX-License-Identifier: MIT
/*
Package meter holds the scalar cells shared between the audio callback and
its observers.

Every cell is a single atomic word. Loads and stores are wait-free, so the
audio thread can publish levels and read the strength parameter without ever
blocking. There is no consistency across cells: an observer may pair a
strength written after the last buffer with levels computed before it.
*/
package meter

import (
	"math"
	"sync/atomic"
)

// Channel selects one of the two metered signal paths.
type Channel int

const (
	Input Channel = iota
	Output
)

func (c Channel) String() string {
	switch c {
	case Input:
		return "input"
	case Output:
		return "output"
	default:
		return "unknown"
	}
}

// Float32 is a wait-free float32 cell stored as its IEEE-754 bit pattern.
type Float32 struct {
	bits atomic.Uint32
}

func (f *Float32) Load() float32   { return math.Float32frombits(f.bits.Load()) }
func (f *Float32) Store(v float32) { f.bits.Store(math.Float32bits(v)) }

// Store is the shared parameter/metric store. The zero value is usable but
// has strength 0; use NewStore for the configured default.
type Store struct {
	strength Float32
	levels   [2]Float32
	active   atomic.Bool

	frames    atomic.Uint64
	fallbacks atomic.Uint64
	xruns     atomic.Uint64
}

// NewStore returns a store with the given initial strength.
func NewStore(strength float32) *Store {
	s := &Store{}
	s.strength.Store(strength)
	return s
}

// SetStrength publishes a new wet/dry strength. Out-of-range values are
// stored as given; the blend stage clamps on read.
func (s *Store) SetStrength(v float32) { s.strength.Store(v) }

// Strength returns the last published strength.
func (s *Store) Strength() float32 { return s.strength.Load() }

// SetLevel publishes the RMS level for a channel. Unknown channels are ignored.
func (s *Store) SetLevel(c Channel, v float32) {
	if c < Input || c > Output {
		return
	}
	s.levels[c].Store(v)
}

// Level returns the last published RMS level for a channel.
func (s *Store) Level(c Channel) float32 {
	if c < Input || c > Output {
		return 0
	}
	return s.levels[c].Load()
}

// SetActive records whether audio is flowing through the denoiser.
func (s *Store) SetActive(v bool) { s.active.Store(v) }
func (s *Store) Active() bool     { return s.active.Load() }

func (s *Store) AddFrame()         { s.frames.Add(1) }
func (s *Store) Frames() uint64    { return s.frames.Load() }
func (s *Store) AddFallback()      { s.fallbacks.Add(1) }
func (s *Store) Fallbacks() uint64 { return s.fallbacks.Load() }
func (s *Store) AddXRun()          { s.xruns.Add(1) }
func (s *Store) XRuns() uint64     { return s.xruns.Load() }

// Snapshot is an observer-side copy of every scalar in the store.
type Snapshot struct {
	Strength    float32
	InputLevel  float32
	OutputLevel float32
	Active      bool
	Frames      uint64
	Fallbacks   uint64
	XRuns       uint64
}

// Load copies the current cell values into snap. Each field is read
// independently.
func (s *Store) Load(snap *Snapshot) {
	snap.Strength = s.Strength()
	snap.InputLevel = s.Level(Input)
	snap.OutputLevel = s.Level(Output)
	snap.Active = s.Active()
	snap.Frames = s.Frames()
	snap.Fallbacks = s.Fallbacks()
	snap.XRuns = s.XRuns()
}
