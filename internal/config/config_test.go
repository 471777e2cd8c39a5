package config

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"leapmotion/internal/leap"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	if cfg.Leap.Runtime != "ws" {
		t.Errorf("got runtime %q, want ws", cfg.Leap.Runtime)
	}
	types, err := cfg.GestureTypes()
	if err != nil || types != nil {
		t.Errorf("default gestures should mean all, got %v %v", types, err)
	}
}

func TestLoadMissingImplicitFile(t *testing.T) {
	dir := t.TempDir()
	wd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(wd)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("missing default file should not fail: %v", err)
	}
	if cfg.Source != "<defaults>" {
		t.Errorf("source = %q", cfg.Source)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yml")); err == nil {
		t.Fatal("expected error for explicit missing file")
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leapmotion.yml")
	content := []byte(`
leap:
  url: ws://10.0.0.5:6437/v6.json
  dial_timeout: 2s
  gestures: [circle, key_tap]
web:
  enabled: true
  port: 9090
log:
  level: debug
  format: json
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Leap.URL != "ws://10.0.0.5:6437/v6.json" {
		t.Errorf("url = %q", cfg.Leap.URL)
	}
	if cfg.Leap.DialTimeout != 2*time.Second {
		t.Errorf("dial timeout = %v", cfg.Leap.DialTimeout)
	}
	if !cfg.Leap.Focused {
		t.Errorf("unset fields should keep defaults")
	}
	if !cfg.Web.Enabled || cfg.Web.Port != 9090 {
		t.Errorf("web = %+v", cfg.Web)
	}
	types, err := cfg.GestureTypes()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(types, []leap.GestureType{leap.GestureCircle, leap.GestureKeyTap}) {
		t.Errorf("gestures = %v", types)
	}
	if cfg.Source != path {
		t.Errorf("source = %q", cfg.Source)
	}
}

func TestLoadRejectsUnknownGesture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leapmotion.yml")
	if err := os.WriteFile(path, []byte("leap:\n  gestures: [wave]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestWatchReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leapmotion.yml")
	if err := os.WriteFile(path, []byte("leap:\n  gestures: [swipe]\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *Config, 4)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, logger, func(c *Config) { reloaded <- c })
	}()

	// give the watcher time to register
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("leap:\n  gestures: [swipe, circle]\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-reloaded:
		if len(cfg.Leap.Gestures) != 2 {
			t.Fatalf("reloaded gestures = %v", cfg.Leap.Gestures)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("config was not reloaded")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}
