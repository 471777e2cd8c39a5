// Package leaptest provides a scripted in-memory runtime. Tests drive the
// callbacks by hand instead of waiting for a device.
package leaptest

import (
	"context"
	"errors"
	"sync"

	"leapmotion/internal/leap"
)

// Runtime opens Controllers. When OpenErr is set Open fails with it.
type Runtime struct {
	OpenErr error

	mu     sync.Mutex
	opened []*Controller
}

// Open returns a fresh Controller or OpenErr.
func (r *Runtime) Open(ctx context.Context) (leap.Controller, error) {
	if r.OpenErr != nil {
		return nil, r.OpenErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c := NewController()
	r.mu.Lock()
	r.opened = append(r.opened, c)
	r.mu.Unlock()
	return c, nil
}

// Last returns the most recently opened controller, or nil.
func (r *Runtime) Last() *Controller {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.opened) == 0 {
		return nil
	}
	return r.opened[len(r.opened)-1]
}

// Controller is a leap.Controller whose callbacks are fired explicitly.
type Controller struct {
	mu        sync.Mutex
	listeners []leap.Listener
	enabled   []leap.GestureType
	connected bool
	focused   bool
	frame     *leap.Frame
	err       error
	closed    bool
	removed   int
}

// NewController returns an unconnected controller.
func NewController() *Controller {
	return &Controller{}
}

func (c *Controller) AddListener(l leap.Listener) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("leaptest: controller closed")
	}
	c.listeners = append(c.listeners, l)
	return nil
}

func (c *Controller) RemoveListener(l leap.Listener) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, have := range c.listeners {
		if have == l {
			c.listeners = append(c.listeners[:i], c.listeners[i+1:]...)
			c.removed++
			return nil
		}
	}
	return errors.New("leaptest: listener not registered")
}

// EnableGesture records every call, including repeats.
func (c *Controller) EnableGesture(t leap.GestureType) {
	c.mu.Lock()
	c.enabled = append(c.enabled, t)
	c.mu.Unlock()
}

func (c *Controller) Frame() *leap.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frame
}

func (c *Controller) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *Controller) HasFocus() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.focused
}

func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// EnableCalls returns the gesture types passed to EnableGesture, in order.
func (c *Controller) EnableCalls() []leap.GestureType {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]leap.GestureType(nil), c.enabled...)
}

// Listeners returns the number of registered listeners.
func (c *Controller) Listeners() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.listeners)
}

// Removed returns how many listeners have been removed.
func (c *Controller) Removed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.removed
}

// Closed reports whether Close was called.
func (c *Controller) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// SetConnected changes the reported connection state without a callback.
func (c *Controller) SetConnected(v bool) {
	c.mu.Lock()
	c.connected = v
	c.mu.Unlock()
}

// SetFocus changes the reported focus state without a callback.
func (c *Controller) SetFocus(v bool) {
	c.mu.Lock()
	c.focused = v
	c.mu.Unlock()
}

// SetErr sets the value returned by Err.
func (c *Controller) SetErr(err error) {
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
}

// Init fires OnInit.
func (c *Controller) Init() { c.fire(leap.Listener.OnInit) }

// Exit fires OnExit.
func (c *Controller) Exit() { c.fire(leap.Listener.OnExit) }

// Connect marks the controller connected and fires OnConnect.
func (c *Controller) Connect() {
	c.SetConnected(true)
	c.fire(leap.Listener.OnConnect)
}

// Disconnect marks the controller disconnected and fires OnDisconnect.
func (c *Controller) Disconnect() {
	c.SetConnected(false)
	c.fire(leap.Listener.OnDisconnect)
}

// FocusGained sets focus and fires OnFocusGained.
func (c *Controller) FocusGained() {
	c.SetFocus(true)
	c.fire(leap.Listener.OnFocusGained)
}

// FocusLost clears focus and fires OnFocusLost.
func (c *Controller) FocusLost() {
	c.SetFocus(false)
	c.fire(leap.Listener.OnFocusLost)
}

// EmitFrame makes f the current frame for one OnFrame callback, then
// releases it. A nil f simulates a frame that cannot be retrieved.
func (c *Controller) EmitFrame(f *leap.Frame) {
	c.mu.Lock()
	c.frame = f
	c.mu.Unlock()

	c.fire(leap.Listener.OnFrame)

	c.mu.Lock()
	c.frame = nil
	c.mu.Unlock()
	f.Release()
}

func (c *Controller) fire(hook func(leap.Listener, leap.Controller)) {
	c.mu.Lock()
	ls := append([]leap.Listener(nil), c.listeners...)
	c.mu.Unlock()
	for _, l := range ls {
		hook(l, c)
	}
}

// Frame builds a frame with the given number of fingers and gestures.
func Frame(id int64, fingers int, gestures ...leap.Gesture) *leap.Frame {
	ps := make([]leap.Pointable, 0, fingers)
	for i := 0; i < fingers; i++ {
		ps = append(ps, leap.Pointable{ID: id*10 + int64(i), HandID: 1, Extended: true})
	}
	return leap.NewFrame(id, 0, nil, ps, gestures)
}
