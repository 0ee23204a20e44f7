package visit

import "time"

// Config controls the capture window of a single page visit.
type Config struct {
	// WindowMs is how long network events are collected after the page is
	// ready.
	WindowMs int `yaml:"window_ms" default:"10000"`

	// PollIntervalMs is the pause between two reads of the network log.
	PollIntervalMs int `yaml:"poll_interval_ms" default:"1000"`

	// Markers is the allow-list of URL substrings a response must contain.
	Markers []string `yaml:"markers" default:"[amexpressprod, /b/ss]"`

	// StopAfter ends the window early once this many responses matched.
	// Zero keeps the full window.
	StopAfter int `yaml:"stop_after"`
}

// DefaultMarkers are the analytics URL fragments kept by default.
var DefaultMarkers = []string{"amexpressprod", "/b/ss"}

// DefaultConfig mirrors the configor defaults.
func DefaultConfig() Config {
	return Config{
		WindowMs:       10000,
		PollIntervalMs: 1000,
		Markers:        append([]string(nil), DefaultMarkers...),
	}
}

func (c Config) Window() time.Duration {
	return time.Duration(c.WindowMs) * time.Millisecond
}

func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}
