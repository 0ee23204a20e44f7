// Package cli builds the beaconcheck command line.
package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/urfave/cli/v2"

	"github.com/raysh454/beaconcheck/internal/app"
	"github.com/raysh454/beaconcheck/internal/logging"
	"github.com/raysh454/beaconcheck/internal/server"
)

const shutdownTimeout = 15 * time.Second

// Version is overridden at build time with -ldflags.
var Version = "dev"

// NewApp returns the beaconcheck command. Its action loads the configuration,
// starts the shared browser session and serves HTTP until interrupted.
func NewApp() *cli.App {
	return &cli.App{
		Name:    "beaconcheck",
		Usage:   "verify analytics beacons for the pages listed in an uploaded CSV",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a YAML config file",
				EnvVars: []string{"BEACONCHECK_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "addr",
				Usage: "HTTP listen address (overrides server.addr)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error (overrides log.level)",
			},
			&cli.StringFlag{
				Name:  "upload-dir",
				Usage: "directory for uploaded files (overrides server.upload_dir)",
			},
			&cli.StringFlag{
				Name:  "browser",
				Usage: "browser backend: chromedp or remote (overrides browser.backend)",
			},
			&cli.StringFlag{
				Name:  "remote-url",
				Usage: "DevTools websocket URL for the remote backend",
			},
			&cli.BoolFlag{
				Name:  "show-window",
				Usage: "run Chrome with a visible window",
			},
		},
		Action: serve,
	}
}

// Run executes the command with os.Args style arguments.
func Run(ctx context.Context, args []string) error {
	return NewApp().RunContext(ctx, args)
}

// LoadSettings reads the config file named by --config and applies the
// flags that were set explicitly.
func LoadSettings(c *cli.Context) (*app.Config, error) {
	cfg, err := app.LoadConfig(c.String("config"))
	if err != nil {
		return nil, err
	}

	if c.IsSet("addr") {
		cfg.Server.Addr = c.String("addr")
	}
	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}
	if c.IsSet("upload-dir") {
		cfg.Server.UploadDir = c.String("upload-dir")
	}
	if c.IsSet("browser") {
		cfg.Browser.Backend = c.String("browser")
	}
	if c.IsSet("remote-url") {
		cfg.Browser.RemoteURL = c.String("remote-url")
	}
	if c.IsSet("show-window") {
		cfg.Browser.ShowWindow = c.Bool("show-window")
	}
	return cfg, nil
}

func serve(c *cli.Context) error {
	cfg, err := LoadSettings(c)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	zl, err := logging.New(cfg.Log)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	defer zl.Sync()
	logger := zl.With(logging.String("component", "main"))

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.NewApplication(cfg, zl)
	if err != nil {
		return errors.Wrap(err, "starting application")
	}

	srv, err := server.NewServer(server.Config{App: application, Logger: zl.With(logging.String("component", "server"))})
	if err != nil {
		_ = application.Close()
		return errors.Wrap(err, "creating server")
	}
	// The browser must go away on every exit path.
	defer func() {
		if err := srv.Close(); err != nil {
			logger.Warn("closing application", logging.Err(err))
		}
	}()

	httpSrv := srv.HTTPServer()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", logging.String("addr", httpSrv.Addr), logging.String("browser", cfg.Browser.Backend))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return errors.Wrap(err, "http server")
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", logging.Err(err))
	}
	return nil
}
