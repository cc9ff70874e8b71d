package main

import (
	"os"

	"github.com/spelunky-fyi/memrauder/cmd/ml2mem/cmds"
	"github.com/spelunky-fyi/memrauder/pkg/version"
)

// Build is the git sha of this binaries build.
var Build string

func main() {
	if Build != "" {
		version.Revision = Build
	}
	if err := cmds.New(false).Execute(); err != nil {
		os.Exit(1)
	}
}
