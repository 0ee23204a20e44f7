// Command beaconcheck serves the CSV upload endpoint.
// Usage: go run ./cmd/beaconcheck [--config beaconcheck.yml] [--addr :5000]
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/raysh454/beaconcheck/internal/cli"
)

func main() {
	if err := cli.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "beaconcheck: %v\n", err)
		os.Exit(1)
	}
}
