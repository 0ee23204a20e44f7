package browser

import "time"

const (
	BackendChromedp = "chromedp"
	BackendRemote   = "remote"
)

// Config controls how the browser session is created.
type Config struct {
	// Backend selects a registered backend, see ListBackends.
	Backend string `yaml:"backend" default:"chromedp"`

	// ShowWindow runs Chrome with a visible window instead of headless.
	ShowWindow bool `yaml:"show_window"`

	// VerifyCerts turns TLS certificate checking back on. Certificate errors
	// are ignored by default.
	VerifyCerts bool `yaml:"verify_certs"`

	// ExecPath overrides the Chrome binary lookup.
	ExecPath string `yaml:"exec_path"`

	// RemoteURL is the DevTools websocket URL used by the remote backend.
	RemoteURL string `yaml:"remote_url"`

	// NavigateTimeoutSec bounds a single navigation.
	NavigateTimeoutSec int `yaml:"navigate_timeout_sec" default:"30"`
	PageLoadTimeoutSec int `yaml:"page_load_timeout_sec" default:"10"`
	ElementTimeoutSec  int `yaml:"element_timeout_sec" default:"10"`
}

func (c Config) NavigateTimeout() time.Duration {
	return time.Duration(c.NavigateTimeoutSec) * time.Second
}

func (c Config) PageLoadTimeout() time.Duration {
	return time.Duration(c.PageLoadTimeoutSec) * time.Second
}

func (c Config) ElementTimeout() time.Duration {
	return time.Duration(c.ElementTimeoutSec) * time.Second
}
