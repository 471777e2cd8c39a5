// cmd/leap-emulator/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/websocket"

	"leapmotion/internal/leap"
	"leapmotion/internal/leap/wire"
	"leapmotion/internal/logging"
)

func main() {
	var (
		addr      = flag.String("addr", "127.0.0.1:6437", "Listen address")
		rate      = flag.Duration("rate", 100*time.Millisecond, "Frame interval")
		jitterPct = flag.Float64("jitter", 0.2, "Jitter percent for the frame interval (0..1)")
		gestureP  = flag.Float64("gestures", 0.1, "Probability that a frame carries a gesture (0..1)")
		verbose   = flag.Bool("v", false, "Verbose logs")
	)
	flag.Parse()

	level := "info"
	if *verbose {
		level = "debug"
	}
	logger, err := logging.New(logging.Options{Level: level, Format: "text"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	emu := &emulator{
		ctx:      ctx,
		rate:     *rate,
		jitter:   *jitterPct,
		gestureP: *gestureP,
		logger:   logger,
	}

	mux := http.NewServeMux()
	mux.Handle("/v6.json", websocket.Handler(emu.serve))
	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
	}()

	logger.Info("leap-emulator started", "addr", *addr, "url", "ws://"+*addr+"/v6.json", "rate", *rate)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("serve failed", "error", err)
		os.Exit(1)
	}
	logger.Info("leap-emulator stopped")
}

type emulator struct {
	ctx      context.Context
	rate     time.Duration
	jitter   float64
	gestureP float64
	logger   *slog.Logger
}

// session is one connected client.
type session struct {
	gestures   atomic.Bool
	focused    atomic.Bool
	background atomic.Bool
}

// streaming mirrors the service: frames go only to a focused client or one
// that asked for background delivery.
func (s *session) streaming() bool {
	return s.focused.Load() || s.background.Load()
}

func (e *emulator) serve(ws *websocket.Conn) {
	defer ws.Close()
	log := e.logger.With("session", uuid.NewString(), "remote", ws.Request().RemoteAddr)
	log.Info("client connected")

	if err := websocket.JSON.Send(ws, wire.Message{ServiceVersion: "2.3.1+emu", Version: wire.Version}); err != nil {
		log.Warn("handshake failed", "error", err)
		return
	}
	if err := websocket.JSON.Send(ws, deviceEvent(true)); err != nil {
		return
	}

	s := &session{}
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			var ctl wire.Control
			if err := websocket.JSON.Receive(ws, &ctl); err != nil {
				return
			}
			if ctl.EnableGestures != nil {
				s.gestures.Store(*ctl.EnableGestures)
				log.Debug("gestures toggled", "enabled", *ctl.EnableGestures)
			}
			if ctl.Focused != nil {
				s.focused.Store(*ctl.Focused)
				log.Debug("focus changed", "focused", *ctl.Focused)
			}
			if ctl.Background != nil {
				s.background.Store(*ctl.Background)
				log.Debug("background requested", "background", *ctl.Background)
			}
		}
	}()

	var id int64
	for {
		select {
		case <-e.ctx.Done():
			_ = websocket.JSON.Send(ws, deviceEvent(false))
			return
		case <-gone:
			log.Info("client disconnected")
			return
		default:
		}

		if !s.streaming() {
			sleepWithJitter(e.rate, e.jitter)
			continue
		}

		id++
		msg := e.frame(id, s.gestures.Load())
		if err := websocket.JSON.Send(ws, msg); err != nil {
			log.Info("client disconnected", "error", err)
			return
		}
		if len(msg.Gestures) > 0 {
			log.Debug("gesture sent", "frame", id, "type", msg.Gestures[0].Type)
		}
		sleepWithJitter(e.rate, e.jitter)
	}
}

func deviceEvent(attached bool) wire.Message {
	return wire.Message{Event: &wire.Event{
		Type: wire.EventDevice,
		State: wire.DeviceState{
			ID:        "emu-0001",
			Type:      "peripheral",
			Attached:  attached,
			Streaming: attached,
		},
	}}
}

// frame builds one synthetic tracking frame: at most one hand with up to
// five fingers, and occasionally a gesture when gestures are enabled.
func (e *emulator) frame(id int64, gestures bool) wire.Message {
	msg := wire.Message{
		ID:               &id,
		Timestamp:        time.Now().UnixMicro(),
		CurrentFrameRate: float64(time.Second) / float64(e.rate),
	}
	if rand.Intn(4) == 0 {
		return msg
	}

	hand := wire.Hand{
		ID:           1,
		Type:         "right",
		PalmPosition: leap.Vector{rand.Float64()*100 - 50, 150 + rand.Float64()*100, rand.Float64()*100 - 50},
		PalmNormal:   leap.Vector{0, -1, 0},
		Direction:    leap.Vector{0, 0, -1},
		Confidence:   0.5 + rand.Float64()/2,
	}
	msg.Hands = []wire.Hand{hand}

	fingers := rand.Intn(6)
	for i := 0; i < fingers; i++ {
		msg.Pointables = append(msg.Pointables, wire.Pointable{
			ID:          int64(10 + i),
			HandID:      hand.ID,
			Extended:    true,
			TipPosition: hand.PalmPosition,
			Direction:   hand.Direction,
			Length:      40 + rand.Float64()*20,
		})
	}

	if gestures && rand.Float64() < e.gestureP {
		types := leap.GestureTypes()
		t := types[rand.Intn(len(types))]
		msg.Gestures = []wire.Gesture{{
			ID:           id,
			Type:         t.String(),
			State:        string(leap.StateStop),
			Duration:     int64(rand.Intn(500000)),
			HandIDs:      []int64{hand.ID},
			Position:     hand.PalmPosition,
			Direction:    hand.Direction,
			Speed:        rand.Float64() * 1000,
			Radius:       rand.Float64() * 50,
			Progress:     rand.Float64() * 3,
			PointableIDs: []int64{},
		}}
	}
	return msg
}

func sleepWithJitter(base time.Duration, pct float64) {
	if pct <= 0 {
		time.Sleep(base)
		return
	}
	delta := base.Seconds() * pct
	j := (rand.Float64()*2 - 1) * delta // [-pct..+pct]
	time.Sleep(time.Duration((base.Seconds() + j) * float64(time.Second)))
}
