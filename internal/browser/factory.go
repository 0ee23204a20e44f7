package browser

import (
	"sort"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/raysh454/beaconcheck/internal/logging"
)

// BackendConstructor constructs a Session given the config and logger.
type BackendConstructor func(cfg Config, logger logging.Logger) (Session, error)

var (
	mu       sync.RWMutex
	registry = map[string]BackendConstructor{}
)

// RegisterBackend registers a named backend constructor. Name is lower-cased
// internally. Registering the same name again overwrites the previous
// constructor.
func RegisterBackend(name string, ctor BackendConstructor) {
	if name == "" || ctor == nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	registry[strings.ToLower(name)] = ctor
}

// NewSession constructs the configured backend. An empty backend name means
// chromedp.
func NewSession(cfg Config, logger logging.Logger) (Session, error) {
	backend := strings.ToLower(strings.TrimSpace(cfg.Backend))
	if backend == "" {
		backend = BackendChromedp
	}

	mu.RLock()
	ctor, ok := registry[backend]
	mu.RUnlock()
	if !ok {
		return nil, errors.Newf("browser backend %q not registered: available backends=%v", backend, ListBackends())
	}

	s, err := ctor(cfg, logger)
	if err != nil {
		return nil, errors.Wrapf(err, "construct browser backend %q", backend)
	}
	if s == nil {
		return nil, errors.New("browser backend constructor returned nil")
	}
	return s, nil
}

// ListBackends returns the registered backend names, sorted.
func ListBackends() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
