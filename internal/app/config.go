package app

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jinzhu/configor"

	"github.com/raysh454/beaconcheck/internal/browser"
	"github.com/raysh454/beaconcheck/internal/logging"
	"github.com/raysh454/beaconcheck/internal/runstore"
	"github.com/raysh454/beaconcheck/internal/visit"
)

// EnvPrefix prefixes environment overrides, e.g. BEACONCHECK_SERVER_ADDR.
const EnvPrefix = "BEACONCHECK"

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	// Addr is the HTTP listen address.
	Addr string `yaml:"addr" default:"127.0.0.1:5000"`

	// UploadDir receives uploaded CSV files. Created at startup.
	UploadDir string `yaml:"upload_dir" default:"uploads"`

	// MaxUploadMB bounds the multipart form kept in memory; the rest spills
	// to temporary files.
	MaxUploadMB int `yaml:"max_upload_mb" default:"32"`

	ReadTimeoutSec int `yaml:"read_timeout_sec" default:"15"`
}

func (c ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutSec) * time.Second
}

// Config is the complete runtime configuration.
type Config struct {
	Server  ServerConfig    `yaml:"server"`
	Browser browser.Config  `yaml:"browser"`
	Capture visit.Config    `yaml:"capture"`
	History runstore.Config `yaml:"history"`
	Log     logging.Config  `yaml:"log"`
}

// DefaultConfig returns the configuration used when no file is given.
// It matches the configor defaults declared on the structs.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           "127.0.0.1:5000",
			UploadDir:      "uploads",
			MaxUploadMB:    32,
			ReadTimeoutSec: 15,
		},
		Browser: browser.Config{
			Backend:            browser.BackendChromedp,
			NavigateTimeoutSec: 30,
			PageLoadTimeoutSec: 10,
			ElementTimeoutSec:  10,
		},
		Capture: visit.DefaultConfig(),
		History: runstore.Config{
			Path: "data/runs.db",
		},
		Log: logging.Config{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadConfig reads the optional YAML file at path, applies environment
// overrides and fills the remaining blanks with defaults.
func LoadConfig(path string) (*Config, error) {
	var files []string
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, errors.Wrapf(err, "config file %s", path)
		}
		files = append(files, path)
	}

	cfg := &Config{}
	err := configor.New(&configor.Config{
		ENVPrefix:  EnvPrefix,
		Debug:      false,
		Verbose:    false,
		Silent:     true,
		AutoReload: false,
	}).Load(cfg, files...)
	if err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	return cfg, nil
}
