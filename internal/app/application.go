package app

import (
	"context"
	"os"

	"github.com/cockroachdb/errors"

	"github.com/raysh454/beaconcheck/internal/browser"
	"github.com/raysh454/beaconcheck/internal/logging"
	"github.com/raysh454/beaconcheck/internal/model"
	"github.com/raysh454/beaconcheck/internal/runstore"
)

// History reads back recorded runs. *runstore.Store implements it.
type History interface {
	RunStore
	Get(ctx context.Context, id string) (*model.Run, error)
	List(ctx context.Context, limit int) ([]*model.Run, error)
}

// Application is the global runtime state container. It owns the shared
// browser session and the run history for the lifetime of the process.
type Application struct {
	Config  *Config
	Logger  logging.Logger
	Session browser.Session
	Checker *Checker

	// History is nil when history is disabled.
	History History
}

// NewApplication starts the configured browser backend, opens the run
// history if enabled and creates the upload directory.
func NewApplication(cfg *Config, logger logging.Logger) (*Application, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	if err := os.MkdirAll(cfg.Server.UploadDir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create upload dir %s", cfg.Server.UploadDir)
	}

	var store *runstore.Store
	if cfg.History.Enabled {
		s, err := runstore.Open(cfg.History.Path, logger)
		if err != nil {
			return nil, err
		}
		store = s
	}

	session, err := browser.NewSession(cfg.Browser, logger)
	if err != nil {
		if store != nil {
			_ = store.Close()
		}
		return nil, errors.Wrap(err, "start browser session")
	}

	return Assemble(cfg, session, store, logger), nil
}

// Assemble builds an Application around an existing session. store may be
// nil. Tests use it to inject a fake session.
func Assemble(cfg *Config, session browser.Session, store *runstore.Store, logger logging.Logger) *Application {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	a := &Application{
		Config:  cfg,
		Logger:  logger,
		Session: session,
	}
	var rs RunStore
	if store != nil {
		a.History = store
		rs = store
	}
	a.Checker = NewChecker(cfg, session, rs, logger)
	return a
}

// Close releases the browser session and the history database. It is safe
// to call more than once.
func (a *Application) Close() error {
	if a == nil {
		return nil
	}
	var errs error
	if a.Session != nil {
		if err := a.Session.Close(); err != nil {
			errs = errors.CombineErrors(errs, errors.Wrap(err, "close browser session"))
		}
	}
	if a.History != nil {
		if c, ok := a.History.(interface{ Close() error }); ok {
			if err := c.Close(); err != nil {
				errs = errors.CombineErrors(errs, errors.Wrap(err, "close run history"))
			}
		}
		a.History = nil
	}
	if a.Logger != nil {
		a.Logger.Info("application closed")
	}
	return errs
}
