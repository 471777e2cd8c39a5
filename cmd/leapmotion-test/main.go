package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"leapmotion/internal/config"
	"leapmotion/internal/events"
	"leapmotion/internal/leap"
	"leapmotion/internal/leap/wsclient"
	"leapmotion/internal/leapmotion"
	"leapmotion/internal/logging"
	"leapmotion/internal/web"
)

type runtimeFactory func(cfg config.LeapConfig, logger *slog.Logger) leap.Runtime

var runtimes = map[string]runtimeFactory{
	"ws": func(cfg config.LeapConfig, logger *slog.Logger) leap.Runtime {
		return wsclient.New(wsclient.Options{
			URL:         cfg.URL,
			Origin:      cfg.Origin,
			DialTimeout: cfg.DialTimeout,
			Focused:     cfg.Focused,
			Background:  cfg.Background,
			Logger:      logger,
		})
	},
}

func main() {
	configPath := flag.String("config", "", "path to config file (default "+config.DefaultPath+")")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)
	logger.Info("config loaded", "source", cfg.Source, "runtime", cfg.Leap.Runtime, "url", cfg.Leap.URL)

	if err := run(cfg, logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	factory, ok := runtimes[cfg.Leap.Runtime]
	if !ok {
		return fmt.Errorf("unknown runtime %q", cfg.Leap.Runtime)
	}

	journal := events.NewRing(cfg.Journal.Size)
	record := events.Recorder(journal, nil)

	opts := []leapmotion.Option{
		leapmotion.WithLogger(logger),
		leapmotion.WithSubscription(leapmotion.FrameReady, onFrameReady),
		leapmotion.WithSubscription(leapmotion.GestureRecognized, onGestureRecognized),
	}
	for _, k := range leapmotion.Kinds() {
		opts = append(opts, leapmotion.WithSubscription(k, record))
	}
	opts = append(opts,
		leapmotion.WithSubscription(leapmotion.Connected, func(leapmotion.Event) { logger.Info("device connected") }),
		leapmotion.WithSubscription(leapmotion.Disconnected, func(e leapmotion.Event) { logger.Info("device disconnected", "error", e.Err) }),
		leapmotion.WithSubscription(leapmotion.Exited, func(e leapmotion.Event) {
			logger.Warn("device session ended", "error", e.Err)
			cancel()
		}),
	)

	device, err := leapmotion.New(ctx, factory(cfg.Leap, logger), opts...)
	if err != nil {
		return err
	}
	defer func() {
		if err := device.Close(); err != nil {
			logger.Warn("release failed", "error", err)
		}
	}()

	if err := enableGestures(device, cfg); err != nil {
		return err
	}

	errCh := make(chan error, 2)

	if cfg.Web.Enabled {
		srv := web.New(cfg.Web, device, journal, logger)
		go func() {
			if err := srv.Start(ctx); err != nil {
				errCh <- err
			}
		}()
	}

	if cfg.Watch && cfg.Source != config.Defaults().Source {
		go func() {
			err := config.Watch(ctx, cfg.Source, logger, func(next *config.Config) {
				if err := enableGestures(device, next); err != nil {
					logger.Warn("gesture reload failed", "error", err)
				}
			})
			if err != nil && ctx.Err() == nil {
				logger.Warn("config watch stopped", "error", err)
			}
		}()
	}

	go func() {
		fmt.Println("Press Enter to exit.")
		_, _ = bufio.NewReader(os.Stdin).ReadByte()
		cancel()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return nil
	}
}

// enableGestures enables the configured gesture types, or all of them when
// none are listed. Enabling is idempotent, so reloads simply repeat it.
func enableGestures(a *leapmotion.Adapter, cfg *config.Config) error {
	types, err := cfg.GestureTypes()
	if err != nil {
		return err
	}
	if types == nil {
		a.EnableAllGestures()
		return nil
	}
	for _, t := range types {
		a.EnableGesture(t)
	}
	return nil
}

func onFrameReady(e leapmotion.Event) {
	fmt.Printf("Number of fingers detected: %d\n", len(e.Frame.Fingers()))
}

func onGestureRecognized(e leapmotion.Event) {
	fmt.Printf("Gesture detected: %s\n", e.Gesture.Type)
}
