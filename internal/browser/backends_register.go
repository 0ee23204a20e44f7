package browser

import "github.com/raysh454/beaconcheck/internal/logging"

func init() {
	RegisterBackend(BackendChromedp, func(cfg Config, logger logging.Logger) (Session, error) {
		return NewChromeSession(cfg, logger)
	})
	RegisterBackend(BackendRemote, func(cfg Config, logger logging.Logger) (Session, error) {
		return NewRemoteChromeSession(cfg, logger)
	})
}
