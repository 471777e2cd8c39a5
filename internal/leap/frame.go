package leap

import (
	"sync/atomic"
	"time"
)

// Hand is a tracked hand within a frame.
type Hand struct {
	ID           int64
	Type         string // "left" or "right"
	PalmPosition Vector
	PalmNormal   Vector
	Direction    Vector
	Confidence   float64
}

// Pointable is a finger or a tool seen by the device.
type Pointable struct {
	ID          int64
	HandID      int64
	Tool        bool
	Extended    bool
	TipPosition Vector
	Direction   Vector
	Length      float64
}

// Frame is one snapshot of tracking data. A frame handed to a listener is
// only valid for the callback that produced it; the runtime or the consumer
// calls Release when the callback returns, after which every accessor
// returns empty values.
type Frame struct {
	ID        int64
	Timestamp time.Duration // device clock, microsecond resolution

	hands      []Hand
	pointables []Pointable
	gestures   []Gesture

	released atomic.Bool
}

// NewFrame builds a frame from decoded tracking data.
func NewFrame(id int64, ts time.Duration, hands []Hand, pointables []Pointable, gestures []Gesture) *Frame {
	return &Frame{
		ID:         id,
		Timestamp:  ts,
		hands:      hands,
		pointables: pointables,
		gestures:   gestures,
	}
}

// Valid reports whether the frame can still be read.
func (f *Frame) Valid() bool {
	return f != nil && !f.released.Load()
}

// Release invalidates the frame. Safe to call more than once.
func (f *Frame) Release() {
	if f == nil {
		return
	}
	f.released.Store(true)
}

// Hands returns the hands tracked in the frame.
func (f *Frame) Hands() []Hand {
	if !f.Valid() {
		return nil
	}
	return f.hands
}

// Pointables returns fingers and tools.
func (f *Frame) Pointables() []Pointable {
	if !f.Valid() {
		return nil
	}
	return f.pointables
}

// Fingers returns the pointables that are not tools.
func (f *Frame) Fingers() []Pointable {
	if !f.Valid() {
		return nil
	}
	out := make([]Pointable, 0, len(f.pointables))
	for _, p := range f.pointables {
		if !p.Tool {
			out = append(out, p)
		}
	}
	return out
}

// Gestures returns the gestures present in the frame in provider order.
func (f *Frame) Gestures() []Gesture {
	if !f.Valid() {
		return nil
	}
	return f.gestures
}
