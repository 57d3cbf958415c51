package cmd

import (
	"os"

	"github.com/blockspacer/kdtracer/log"
	"github.com/urfave/cli"
)

var logger = log.New("kdtracer")

// Apply the config verbosity unless it is overridden by the -v/-vv flags.
func setupLogging(ctx *cli.Context, verbosity string) {
	if level, err := log.ParseLevel(verbosity); err == nil {
		log.SetLevel(level)
	}

	if ctx.GlobalBool("v") {
		log.SetLevel(log.Info)
	}

	if ctx.GlobalBool("vv") {
		log.SetLevel(log.Debug)
	}
}

// Log err and exit with a non-zero status.
func Fatal(err error) {
	logger.Error(err.Error())
	os.Exit(1)
}
