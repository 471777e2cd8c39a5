// Package wire holds the JSON messages exchanged with the Leap Motion
// service over its WebSocket endpoint (ws://127.0.0.1:6437/v6.json).
package wire

import (
	"time"

	"leapmotion/internal/leap"
)

const (
	DefaultURL = "ws://127.0.0.1:6437/v6.json"
	Version    = 6

	EventDevice = "deviceEvent"
)

// Message is any server-to-client message. Exactly one of the handshake,
// event or frame groups is populated.
type Message struct {
	// handshake
	ServiceVersion string `json:"serviceVersion,omitempty"`
	Version        int    `json:"version,omitempty"`

	// device event
	Event *Event `json:"event,omitempty"`

	// frame
	ID               *int64      `json:"id,omitempty"`
	Timestamp        int64       `json:"timestamp,omitempty"`
	CurrentFrameRate float64     `json:"currentFrameRate,omitempty"`
	Hands            []Hand      `json:"hands,omitempty"`
	Pointables       []Pointable `json:"pointables,omitempty"`
	Gestures         []Gesture   `json:"gestures,omitempty"`
}

// IsFrame reports whether the message carries tracking data.
func (m *Message) IsFrame() bool { return m.ID != nil }

// Event is a device status change.
type Event struct {
	Type  string      `json:"type"`
	State DeviceState `json:"state"`
}

// DeviceState describes the attached device.
type DeviceState struct {
	ID        string `json:"id,omitempty"`
	Type      string `json:"type,omitempty"`
	Attached  bool   `json:"attached"`
	Streaming bool   `json:"streaming"`
}

type Hand struct {
	ID           int64       `json:"id"`
	Type         string      `json:"type"`
	PalmPosition leap.Vector `json:"palmPosition"`
	PalmNormal   leap.Vector `json:"palmNormal"`
	Direction    leap.Vector `json:"direction"`
	Confidence   float64     `json:"confidence"`
}

type Pointable struct {
	ID          int64       `json:"id"`
	HandID      int64       `json:"handId"`
	Tool        bool        `json:"tool"`
	Extended    bool        `json:"extended"`
	TipPosition leap.Vector `json:"tipPosition"`
	Direction   leap.Vector `json:"direction"`
	Length      float64     `json:"length"`
}

type Gesture struct {
	ID            int64       `json:"id"`
	Type          string      `json:"type"`
	State         string      `json:"state"`
	Duration      int64       `json:"duration"` // microseconds
	HandIDs       []int64     `json:"handIds"`
	PointableIDs  []int64     `json:"pointableIds"`
	Position      leap.Vector `json:"position"`
	Direction     leap.Vector `json:"direction"`
	StartPosition leap.Vector `json:"startPosition"`
	Speed         float64     `json:"speed,omitempty"`
	Center        leap.Vector `json:"center"`
	Normal        leap.Vector `json:"normal"`
	Radius        float64     `json:"radius,omitempty"`
	Progress      float64     `json:"progress,omitempty"`
}

// Control is a client-to-server message. Nil fields are omitted.
type Control struct {
	EnableGestures *bool `json:"enableGestures,omitempty"`
	Focused        *bool `json:"focused,omitempty"`
	Background     *bool `json:"background,omitempty"`
}

// Bool returns a pointer to v for building Control messages.
func Bool(v bool) *bool { return &v }

// ToFrame converts a frame message. Gestures whose type is unknown or not
// accepted by keep are dropped; the remaining order is preserved.
func (m *Message) ToFrame(keep func(leap.GestureType) bool) *leap.Frame {
	hands := make([]leap.Hand, 0, len(m.Hands))
	for _, h := range m.Hands {
		hands = append(hands, leap.Hand{
			ID:           h.ID,
			Type:         h.Type,
			PalmPosition: h.PalmPosition,
			PalmNormal:   h.PalmNormal,
			Direction:    h.Direction,
			Confidence:   h.Confidence,
		})
	}

	pointables := make([]leap.Pointable, 0, len(m.Pointables))
	for _, p := range m.Pointables {
		pointables = append(pointables, leap.Pointable{
			ID:          p.ID,
			HandID:      p.HandID,
			Tool:        p.Tool,
			Extended:    p.Extended,
			TipPosition: p.TipPosition,
			Direction:   p.Direction,
			Length:      p.Length,
		})
	}

	gestures := make([]leap.Gesture, 0, len(m.Gestures))
	for _, g := range m.Gestures {
		gt, err := leap.ParseGestureType(g.Type)
		if err != nil {
			continue
		}
		if keep != nil && !keep(gt) {
			continue
		}
		gestures = append(gestures, leap.Gesture{
			ID:            g.ID,
			Type:          gt,
			State:         leap.GestureState(g.State),
			Duration:      time.Duration(g.Duration) * time.Microsecond,
			HandIDs:       g.HandIDs,
			PointableIDs:  g.PointableIDs,
			Position:      g.Position,
			Direction:     g.Direction,
			StartPosition: g.StartPosition,
			Speed:         g.Speed,
			Center:        g.Center,
			Normal:        g.Normal,
			Radius:        g.Radius,
			Progress:      g.Progress,
		})
	}

	var id int64
	if m.ID != nil {
		id = *m.ID
	}
	return leap.NewFrame(id, time.Duration(m.Timestamp)*time.Microsecond, hands, pointables, gestures)
}
