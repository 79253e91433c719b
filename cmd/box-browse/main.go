// box-browse - command line browser for Box folders
package main

import (
	"os"

	"github.com/rescale/box-browse/internal/cli"
	"github.com/rescale/box-browse/internal/version"
)

// Version information
var (
	Version   = "v0.1.0-dev"
	BuildTime = "unknown"
)

func main() {
	// Set version in version package (canonical source for all packages)
	// and CLI package
	version.Version = Version
	version.BuildTime = BuildTime
	cli.Version = Version
	cli.BuildTime = BuildTime

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
