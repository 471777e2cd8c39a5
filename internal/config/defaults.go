package config

import (
	"time"

	"leapmotion/internal/leap/wire"
)

func Defaults() *Config {
	return &Config{
		Leap: LeapConfig{
			Runtime:     "ws",
			URL:         wire.DefaultURL,
			Origin:      "http://localhost/",
			DialTimeout: 5 * time.Second,
			Focused:     true,
		},
		Web: WebConfig{
			Enabled: false,
			Host:    "127.0.0.1",
			Port:    8080,
		},
		Journal: JournalConfig{
			Size: 1024,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Source: "<defaults>",
	}
}
