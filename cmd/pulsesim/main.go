package main

import (
	"os"

	"github.com/roach88/pulsesim/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		cli.ReportError(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
