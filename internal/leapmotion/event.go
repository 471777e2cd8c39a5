package leapmotion

import "leapmotion/internal/leap"

// Kind identifies a notification channel.
type Kind int

const (
	Initialized Kind = iota
	Exited
	Connected
	Disconnected
	GotFocus
	LostFocus
	FrameReady
	GestureRecognized
)

// Kinds returns every notification kind.
func Kinds() []Kind {
	return []Kind{Initialized, Exited, Connected, Disconnected, GotFocus, LostFocus, FrameReady, GestureRecognized}
}

func (k Kind) String() string {
	switch k {
	case Initialized:
		return "initialized"
	case Exited:
		return "exited"
	case Connected:
		return "connected"
	case Disconnected:
		return "disconnected"
	case GotFocus:
		return "got_focus"
	case LostFocus:
		return "lost_focus"
	case FrameReady:
		return "frame_ready"
	case GestureRecognized:
		return "gesture_recognized"
	default:
		return "unknown"
	}
}

// Event is the payload delivered with every notification. Controller is
// always set; Frame, Gesture and Err are nil when they do not apply.
//
// Frame is only readable while the handler that received the event runs.
// Copy whatever is needed before returning.
type Event struct {
	Kind       Kind
	Controller leap.Controller
	Frame      *leap.Frame
	Gesture    *leap.Gesture

	// Err carries the error that ended the session on Exited and
	// Disconnected notifications. Nil on every other kind.
	Err error
}

// HasFrame reports whether the event carries a frame.
func (e Event) HasFrame() bool { return e.Frame != nil }

// HasGesture reports whether the event carries a gesture.
func (e Event) HasGesture() bool { return e.Gesture != nil }

// Handler observes one notification.
type Handler func(Event)
