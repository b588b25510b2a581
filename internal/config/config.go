package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration, loaded from environment variables.
type Config struct {
	// Media backend; empty runs in local mode (dropped files stay on disk)
	BackendURL   string
	FetchTimeout time.Duration
	FFmpegPath   string

	// Window
	Width  int
	Height int

	// Scene
	Seed           uint64  // 0 = seed from the clock
	ScrollDistance float64 // scroll units mapped onto the whole timeline
	ScrollStep     float64 // scroll units per wheel notch
	TimelinePath   string  // optional YAML timeline script

	// Audio ingest (WebRTC microphone); empty disables it
	AudioAddr string
}

// Load reads configuration from environment variables with sane defaults.
func Load() Config {
	return Config{
		BackendURL:   envStrAllowEmpty("PULSE_BACKEND_URL", "http://localhost:8000"),
		FetchTimeout: time.Duration(envInt("PULSE_FETCH_TIMEOUT", 10)) * time.Second,
		FFmpegPath:   envStr("PULSE_FFMPEG", "ffmpeg"),

		Width:  envInt("PULSE_WIDTH", 1280),
		Height: envInt("PULSE_HEIGHT", 720),

		Seed:           envUint("PULSE_SEED", 0),
		ScrollDistance: envFloat("PULSE_SCROLL_DISTANCE", 3200),
		ScrollStep:     envFloat("PULSE_SCROLL_STEP", 120),
		TimelinePath:   envStr("PULSE_TIMELINE", ""),

		AudioAddr: envStrAllowEmpty("PULSE_AUDIO_ADDR", ":8090"),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envStrAllowEmpty lets an explicitly empty variable switch a feature off.
func envStrAllowEmpty(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envUint(key string, fallback uint64) uint64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
