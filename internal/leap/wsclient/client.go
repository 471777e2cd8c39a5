// Package wsclient implements leap.Runtime on top of the Leap Motion
// service WebSocket endpoint.
package wsclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/net/websocket"

	"leapmotion/internal/leap"
	"leapmotion/internal/leap/wire"
)

// Options configures the runtime.
type Options struct {
	URL         string
	Origin      string
	DialTimeout time.Duration
	// Focused claims focus as soon as the session starts.
	Focused bool
	// Background asks the service to keep streaming without focus.
	Background bool
	Logger     *slog.Logger
}

// Runtime dials the Leap service for every session it opens.
type Runtime struct {
	opts Options
}

// New returns a runtime with defaults filled in.
func New(opts Options) *Runtime {
	if opts.URL == "" {
		opts.URL = wire.DefaultURL
	}
	if opts.Origin == "" {
		opts.Origin = "http://localhost/"
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = 5 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Runtime{opts: opts}
}

// Open dials the service. The session starts reading once a listener is added.
func (r *Runtime) Open(ctx context.Context) (leap.Controller, error) {
	cfg, err := websocket.NewConfig(r.opts.URL, r.opts.Origin)
	if err != nil {
		return nil, fmt.Errorf("websocket config: %w", err)
	}
	cfg.Dialer = &net.Dialer{Timeout: r.opts.DialTimeout}

	conn, err := cfg.DialContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", r.opts.URL, err)
	}

	c := &Controller{
		conn:    conn,
		opts:    r.opts,
		logger:  r.opts.Logger.With("component", "wsclient", "url", r.opts.URL),
		enabled: make(map[leap.GestureType]bool),
		done:    make(chan struct{}),
	}
	c.logger.Info("session opened")
	return c, nil
}

// Controller is one WebSocket session. Callbacks are delivered on a single
// reader goroutine.
type Controller struct {
	conn   *websocket.Conn
	opts   Options
	logger *slog.Logger

	sendMu sync.Mutex

	mu         sync.Mutex
	listeners  []leap.Listener
	started    bool
	enabled    map[leap.GestureType]bool
	gesturesOn bool
	frame      *leap.Frame
	err        error

	connected atomic.Bool
	focused   atomic.Bool
	closing   atomic.Bool
	version   atomic.Int64

	done chan struct{}
}

// AddListener registers l. The first listener starts the reader goroutine,
// which begins with OnInit; later listeners get OnInit immediately.
func (c *Controller) AddListener(l leap.Listener) error {
	if c.closing.Load() {
		return errors.New("wsclient: session closed")
	}
	c.mu.Lock()
	c.listeners = append(c.listeners, l)
	start := !c.started
	c.started = true
	c.mu.Unlock()

	if start {
		go c.readLoop()
	} else {
		l.OnInit(c)
	}
	return nil
}

// RemoveListener stops callbacks to l.
func (c *Controller) RemoveListener(l leap.Listener) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, have := range c.listeners {
		if have == l {
			c.listeners = append(c.listeners[:i:i], c.listeners[i+1:]...)
			return nil
		}
	}
	return errors.New("wsclient: listener not registered")
}

// EnableGesture turns on gesture recognition for t. The service only has a
// global switch, so the first call enables it and frames are filtered down
// to the enabled types.
func (c *Controller) EnableGesture(t leap.GestureType) {
	c.mu.Lock()
	c.enabled[t] = true
	first := !c.gesturesOn
	c.gesturesOn = true
	c.mu.Unlock()

	if first {
		if err := c.send(wire.Control{EnableGestures: wire.Bool(true)}); err != nil {
			c.logger.Warn("enable gestures failed", "error", err)
		}
	}
}

// Frame returns the frame being delivered, or nil outside OnFrame.
func (c *Controller) Frame() *leap.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frame
}

func (c *Controller) IsConnected() bool { return c.connected.Load() }

func (c *Controller) HasFocus() bool { return c.focused.Load() }

// ServiceVersion returns the protocol version announced by the service.
func (c *Controller) ServiceVersion() int { return int(c.version.Load()) }

func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Done is closed when the reader goroutine has exited.
func (c *Controller) Done() <-chan struct{} { return c.done }

// SetFocused tells the service whether this client has focus and notifies
// listeners when the state changes.
func (c *Controller) SetFocused(v bool) {
	if c.focused.Swap(v) == v {
		return
	}
	if err := c.send(wire.Control{Focused: wire.Bool(v)}); err != nil {
		c.logger.Warn("focus update failed", "error", err)
	}
	if v {
		c.fire(leap.Listener.OnFocusGained)
	} else {
		c.fire(leap.Listener.OnFocusLost)
	}
}

// Close ends the session. Listeners still registered receive OnDisconnect
// and OnExit from the reader goroutine. Safe to call more than once.
func (c *Controller) Close() error {
	if !c.closing.CompareAndSwap(false, true) {
		return nil
	}
	c.mu.Lock()
	started := c.started
	c.mu.Unlock()

	err := c.conn.Close()
	if !started {
		close(c.done)
	}
	c.logger.Info("session closed")
	return err
}

func (c *Controller) send(v wire.Control) error {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	return websocket.JSON.Send(c.conn, v)
}

func (c *Controller) readLoop() {
	defer close(c.done)

	c.fire(leap.Listener.OnInit)
	if c.opts.Focused {
		c.SetFocused(true)
	}
	if c.opts.Background {
		if err := c.send(wire.Control{Background: wire.Bool(true)}); err != nil {
			c.logger.Warn("background request failed", "error", err)
		}
	}

	for {
		var data []byte
		if err := websocket.Message.Receive(c.conn, &data); err != nil {
			c.finish(err)
			return
		}
		c.handle(data)
	}
}

func (c *Controller) handle(data []byte) {
	var msg wire.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		c.logger.Debug("undecodable message", "error", err, "size", len(data))
		return
	}

	switch {
	case msg.ServiceVersion != "":
		c.version.Store(int64(msg.Version))
		c.logger.Info("service handshake", "service_version", msg.ServiceVersion, "protocol", msg.Version)
	case msg.Event != nil:
		c.handleEvent(msg.Event)
	case msg.IsFrame():
		c.handleFrame(&msg)
	}
}

func (c *Controller) handleEvent(ev *wire.Event) {
	if ev.Type != wire.EventDevice {
		c.logger.Debug("ignored event", "type", ev.Type)
		return
	}
	c.setConnected(ev.State.Attached)
}

func (c *Controller) handleFrame(msg *wire.Message) {
	// protocol versions before 6 send no device events
	c.setConnected(true)

	c.mu.Lock()
	enabled := make(map[leap.GestureType]bool, len(c.enabled))
	for t, on := range c.enabled {
		enabled[t] = on
	}
	c.mu.Unlock()

	f := msg.ToFrame(func(t leap.GestureType) bool { return enabled[t] })

	c.mu.Lock()
	c.frame = f
	c.mu.Unlock()

	c.fire(leap.Listener.OnFrame)

	c.mu.Lock()
	c.frame = nil
	c.mu.Unlock()
	f.Release()
}

func (c *Controller) setConnected(v bool) {
	if c.connected.Swap(v) == v {
		return
	}
	if v {
		c.logger.Info("device connected")
		c.fire(leap.Listener.OnConnect)
	} else {
		c.logger.Info("device disconnected")
		c.fire(leap.Listener.OnDisconnect)
	}
}

func (c *Controller) finish(readErr error) {
	if !c.closing.Load() {
		c.mu.Lock()
		c.err = fmt.Errorf("leap service connection lost: %w", readErr)
		c.mu.Unlock()
		c.logger.Warn("session ended", "error", readErr)
	}
	c.setConnected(false)
	c.fire(leap.Listener.OnExit)
}

func (c *Controller) fire(hook func(leap.Listener, leap.Controller)) {
	c.mu.Lock()
	ls := append([]leap.Listener(nil), c.listeners...)
	c.mu.Unlock()
	for _, l := range ls {
		hook(l, c)
	}
}
