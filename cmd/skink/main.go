package main

import (
	"os"

	"github.com/go-skink/skink/cmd/skink/cmds"
	"github.com/go-skink/skink/pkg/version"
)

// Build is the git sha of this binaries build.
var Build string

func main() {
	if Build != "" {
		version.SkinkVersion.Build = Build
	}
	if err := cmds.New(false).Execute(); err != nil {
		os.Exit(1)
	}
}
