package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/danieljhkim/solodeploy/internal/cli"
	"github.com/danieljhkim/solodeploy/internal/engine"
)

var version = "dev"

// exitCode maps pipeline failures to distinct exit codes so scripted callers
// can tell which stage broke.
func exitCode(err error) int {
	switch {
	case errors.Is(err, engine.ErrFilesystem):
		return 2
	case errors.Is(err, engine.ErrEnvironmentSetup):
		return 3
	case errors.Is(err, engine.ErrStoreInit):
		return 4
	case errors.Is(err, engine.ErrProcessLaunch):
		return 5
	case errors.Is(err, engine.ErrHealthCheck):
		return 6
	default:
		return 1
	}
}

func main() {
	cli.SetVersion(version)

	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, cli.FormatError(err))
		os.Exit(exitCode(err))
	}
}
