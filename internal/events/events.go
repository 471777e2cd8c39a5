// Package events keeps a bounded journal of adapter notifications so they
// can be inspected after the callback that produced them has returned.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"leapmotion/internal/leapmotion"
)

// Event is a journal entry. Only scalar data is copied out of the
// notification; frames are never retained.
type Event struct {
	ID      string    `json:"id"`
	Kind    string    `json:"kind"`
	Time    time.Time `json:"time"`
	FrameID int64     `json:"frame_id,omitempty"`
	Fingers int       `json:"fingers,omitempty"`
	Hands   int       `json:"hands,omitempty"`
	Gesture string    `json:"gesture,omitempty"`
	State   string    `json:"gesture_state,omitempty"`
	Err     string    `json:"error,omitempty"`
}

type Buffer interface {
	Push(e Event)
	Pull(after time.Time, max int) []Event
	Len() int
}

type ring struct {
	mu   sync.RWMutex
	data []Event
	size int
}

func NewRing(size int) Buffer {
	if size <= 0 {
		size = 1
	}
	return &ring{data: make([]Event, 0, size), size: size}
}

func (r *ring) Push(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.data) == r.size {
		r.data = r.data[1:]
	}
	r.data = append(r.data, e)
}

// Pull returns up to max entries newer than after, oldest first. When more
// than max match, the newest ones are kept. max <= 0 means no limit.
func (r *ring) Pull(after time.Time, max int) []Event {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if max <= 0 {
		max = len(r.data)
	}
	out := make([]Event, 0, max)
	for i := len(r.data) - 1; i >= 0 && len(out) < max; i-- {
		if r.data[i].Time.After(after) {
			out = append(out, r.data[i])
		}
	}
	for l, rgt := 0, len(out)-1; l < rgt; l, rgt = l+1, rgt-1 {
		out[l], out[rgt] = out[rgt], out[l]
	}
	return out
}

func (r *ring) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.data)
}

// Recorder returns a handler that journals every notification it sees.
// now may be nil to use time.Now.
func Recorder(buf Buffer, now func() time.Time) leapmotion.Handler {
	if now == nil {
		now = time.Now
	}
	return func(e leapmotion.Event) {
		entry := Event{
			ID:   uuid.New().String(),
			Kind: e.Kind.String(),
			Time: now(),
		}
		if e.HasFrame() {
			entry.FrameID = e.Frame.ID
			entry.Fingers = len(e.Frame.Fingers())
			entry.Hands = len(e.Frame.Hands())
		}
		if e.HasGesture() {
			entry.Gesture = e.Gesture.Type.String()
			entry.State = string(e.Gesture.State)
		}
		if e.Err != nil {
			entry.Err = e.Err.Error()
		}
		buf.Push(entry)
	}
}
