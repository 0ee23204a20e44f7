package server

import (
	"github.com/raysh454/beaconcheck/internal/app"
	"github.com/raysh454/beaconcheck/internal/logging"
)

type Config struct {
	// App provides the checker, run history and server settings. Required.
	App *app.Application

	// Logger defaults to a stdout logger when nil.
	Logger logging.Logger
}
