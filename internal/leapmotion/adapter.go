// Package leapmotion wraps a Leap Motion controller session and republishes
// its native callbacks as notifications that any number of handlers can
// subscribe to.
//
// Handlers run synchronously on the runtime's callback goroutine, in the
// order they subscribed. Subscribe everything before the session starts
// delivering callbacks; a handler added later never sees earlier
// occurrences.
package leapmotion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"leapmotion/internal/leap"
)

// Subscription identifies a registered handler.
type Subscription struct {
	ID   string
	Kind Kind
}

type subscriber struct {
	id string
	fn Handler
}

// Adapter is the sole listener of one controller session.
type Adapter struct {
	ctrl   leap.Controller
	logger *slog.Logger

	mu   sync.RWMutex
	subs map[Kind][]subscriber

	released atomic.Bool
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the logger used for diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(a *Adapter) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithSubscription registers fn for kind k before the adapter joins the
// session, so it cannot miss the first callbacks.
func WithSubscription(k Kind, fn Handler) Option {
	return func(a *Adapter) {
		a.Subscribe(k, fn)
	}
}

// New opens a session on rt and registers the adapter as its listener.
// The session is not necessarily connected yet; Connected is notified
// when the device attaches.
func New(ctx context.Context, rt leap.Runtime, opts ...Option) (*Adapter, error) {
	ctrl, err := rt.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
	}

	a := &Adapter{
		ctrl:   ctrl,
		logger: slog.Default(),
		subs:   make(map[Kind][]subscriber),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With("component", "leapmotion")

	if err := ctrl.AddListener(a); err != nil {
		_ = ctrl.Close()
		return nil, fmt.Errorf("%w: add listener: %w", ErrDeviceUnavailable, err)
	}
	return a, nil
}

// Controller returns the session handle.
func (a *Adapter) Controller() leap.Controller { return a.ctrl }

// IsConnected reports the controller's live connection state.
func (a *Adapter) IsConnected() bool { return a.ctrl.IsConnected() }

// HasFocus reports whether the controller currently has focus.
func (a *Adapter) HasFocus() bool { return a.ctrl.HasFocus() }

// EnableGesture asks the runtime to recognize gestures of type t.
func (a *Adapter) EnableGesture(t leap.GestureType) {
	a.ctrl.EnableGesture(t)
}

// EnableAllGestures enables every known gesture type.
func (a *Adapter) EnableAllGestures() {
	for _, t := range leap.GestureTypes() {
		a.EnableGesture(t)
	}
}

// Subscribe registers fn for notifications of kind k.
func (a *Adapter) Subscribe(k Kind, fn Handler) Subscription {
	sub := Subscription{ID: uuid.New().String(), Kind: k}
	a.mu.Lock()
	a.subs[k] = append(a.subs[k], subscriber{id: sub.ID, fn: fn})
	a.mu.Unlock()
	return sub
}

// SubscribeAll registers fn for every notification kind.
func (a *Adapter) SubscribeAll(fn Handler) []Subscription {
	out := make([]Subscription, 0, len(Kinds()))
	for _, k := range Kinds() {
		out = append(out, a.Subscribe(k, fn))
	}
	return out
}

// Unsubscribe removes a handler. It reports whether the subscription existed.
func (a *Adapter) Unsubscribe(sub Subscription) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	list := a.subs[sub.Kind]
	for i, s := range list {
		if s.id == sub.ID {
			next := make([]subscriber, 0, len(list)-1)
			next = append(next, list[:i]...)
			next = append(next, list[i+1:]...)
			a.subs[sub.Kind] = next
			return true
		}
	}
	return false
}

func (a *Adapter) OnInitialized(fn Handler) Subscription  { return a.Subscribe(Initialized, fn) }
func (a *Adapter) OnExited(fn Handler) Subscription       { return a.Subscribe(Exited, fn) }
func (a *Adapter) OnConnected(fn Handler) Subscription    { return a.Subscribe(Connected, fn) }
func (a *Adapter) OnDisconnected(fn Handler) Subscription { return a.Subscribe(Disconnected, fn) }
func (a *Adapter) OnGotFocus(fn Handler) Subscription     { return a.Subscribe(GotFocus, fn) }
func (a *Adapter) OnLostFocus(fn Handler) Subscription    { return a.Subscribe(LostFocus, fn) }
func (a *Adapter) OnFrameReady(fn Handler) Subscription   { return a.Subscribe(FrameReady, fn) }
func (a *Adapter) OnGestureRecognized(fn Handler) Subscription {
	return a.Subscribe(GestureRecognized, fn)
}

// Close unregisters the adapter and closes the session. No notification is
// dispatched once Close has started. Calling Close again does nothing.
func (a *Adapter) Close() error {
	if !a.released.CompareAndSwap(false, true) {
		return nil
	}
	var errs []error
	if err := a.ctrl.RemoveListener(a); err != nil {
		errs = append(errs, fmt.Errorf("remove listener: %w", err))
	}
	if err := a.ctrl.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close controller: %w", err))
	}
	a.logger.Debug("adapter released")
	return errors.Join(errs...)
}

// OnInit implements leap.Listener.
func (a *Adapter) OnInit(c leap.Controller) {
	a.dispatch(Event{Kind: Initialized, Controller: c})
}

// OnExit implements leap.Listener.
func (a *Adapter) OnExit(c leap.Controller) {
	a.dispatch(Event{Kind: Exited, Controller: c, Err: c.Err()})
}

// OnConnect implements leap.Listener.
func (a *Adapter) OnConnect(c leap.Controller) {
	a.dispatch(Event{Kind: Connected, Controller: c})
}

// OnDisconnect implements leap.Listener.
func (a *Adapter) OnDisconnect(c leap.Controller) {
	a.dispatch(Event{Kind: Disconnected, Controller: c, Err: c.Err()})
}

// OnFocusGained implements leap.Listener.
func (a *Adapter) OnFocusGained(c leap.Controller) {
	a.dispatch(Event{Kind: GotFocus, Controller: c})
}

// OnFocusLost implements leap.Listener.
func (a *Adapter) OnFocusLost(c leap.Controller) {
	a.dispatch(Event{Kind: LostFocus, Controller: c})
}

// OnFrame implements leap.Listener. Every gesture in the frame is notified
// in provider order, followed by one FrameReady.
func (a *Adapter) OnFrame(c leap.Controller) {
	if a.released.Load() {
		return
	}
	frame := c.Frame()
	if !frame.Valid() {
		a.logger.Debug("frame skipped", "error", ErrCallbackDataUnavailable)
		return
	}
	defer frame.Release()

	gestures := frame.Gestures()
	for i := range gestures {
		g := gestures[i]
		a.dispatch(Event{Kind: GestureRecognized, Controller: c, Frame: frame, Gesture: &g})
	}
	a.dispatch(Event{Kind: FrameReady, Controller: c, Frame: frame})
}

func (a *Adapter) dispatch(e Event) {
	if a.released.Load() {
		return
	}
	a.mu.RLock()
	list := a.subs[e.Kind]
	a.mu.RUnlock()
	for _, s := range list {
		s.fn(e)
	}
}
