package leap

import (
	"fmt"
	"strings"
	"time"
)

// GestureType is the category of a recognized motion pattern.
type GestureType int

const (
	GestureInvalid GestureType = iota
	GestureSwipe
	GestureCircle
	GestureScreenTap
	GestureKeyTap
)

// GestureTypes returns every known gesture category in declaration order.
// GestureInvalid is not a category and is never included.
func GestureTypes() []GestureType {
	return []GestureType{GestureSwipe, GestureCircle, GestureScreenTap, GestureKeyTap}
}

// String returns the name the Leap service uses on the wire.
func (t GestureType) String() string {
	switch t {
	case GestureSwipe:
		return "swipe"
	case GestureCircle:
		return "circle"
	case GestureScreenTap:
		return "screenTap"
	case GestureKeyTap:
		return "keyTap"
	default:
		return "invalid"
	}
}

// ParseGestureType maps a wire or config name onto a GestureType.
func ParseGestureType(s string) (GestureType, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.ReplaceAll(key, "_", "")
	key = strings.ReplaceAll(key, "-", "")
	switch key {
	case "swipe":
		return GestureSwipe, nil
	case "circle":
		return GestureCircle, nil
	case "screentap":
		return GestureScreenTap, nil
	case "keytap":
		return GestureKeyTap, nil
	}
	return GestureInvalid, fmt.Errorf("unknown gesture type %q", s)
}

// GestureState is the phase of a gesture across frames.
type GestureState string

const (
	StateStart  GestureState = "start"
	StateUpdate GestureState = "update"
	StateStop   GestureState = "stop"
)

// Vector is a position or direction in millimetres relative to the device.
type Vector [3]float64

// Gesture is a recognized motion pattern reported inside a frame.
// Type-specific fields are zero when they do not apply.
type Gesture struct {
	ID           int64
	Type         GestureType
	State        GestureState
	Duration     time.Duration
	HandIDs      []int64
	PointableIDs []int64

	// swipe, screenTap, keyTap
	Position  Vector
	Direction Vector
	// swipe
	StartPosition Vector
	Speed         float64
	// circle
	Center   Vector
	Normal   Vector
	Radius   float64
	Progress float64
}
