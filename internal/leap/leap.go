// Package leap describes the capabilities a motion-sensor runtime offers to
// its consumers: opening a controller session, registering a listener for
// lifecycle and frame callbacks, enabling gesture recognition and reading
// the current frame.
package leap

import "context"

// Listener receives callbacks from a controller. All hooks run on the
// runtime's callback goroutine and must return promptly.
type Listener interface {
	OnInit(c Controller)
	OnExit(c Controller)
	OnConnect(c Controller)
	OnDisconnect(c Controller)
	OnFocusGained(c Controller)
	OnFocusLost(c Controller)
	OnFrame(c Controller)
}

// Controller is an open session with the device service.
type Controller interface {
	AddListener(l Listener) error
	RemoveListener(l Listener) error

	// EnableGesture asks the service to recognize gestures of type t.
	// Enabling a type twice has no additional effect.
	EnableGesture(t GestureType)

	// Frame returns the most recent frame, or nil when none is available.
	// The frame is only valid during the current OnFrame callback.
	Frame() *Frame

	IsConnected() bool
	HasFocus() bool

	// Err returns the error that ended the session, if any.
	Err() error

	Close() error
}

// Runtime opens controller sessions.
type Runtime interface {
	Open(ctx context.Context) (Controller, error)
}
