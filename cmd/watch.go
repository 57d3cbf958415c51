package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/blockspacer/kdtracer/asset/config"
	"github.com/blockspacer/kdtracer/asset/watcher"
	"github.com/blockspacer/kdtracer/renderer"
	"github.com/urfave/cli"
)

// Render a frame and re-render it whenever the scene config or the model
// file changes.
func WatchScene(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	setupLogging(ctx, cfg.Verbosity)

	w, err := watcher.New(time.Duration(ctx.Int("debounce")) * time.Millisecond)
	if err != nil {
		return err
	}
	defer w.Close()

	arg := ctx.Args().First()
	if strings.Contains(arg, "://") {
		return errors.New("watch requires a local scene config or model file")
	}
	if err = w.Add(arg); err != nil {
		return err
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	render := func(cfg *config.Config) {
		if model := cfg.ModelPath(); !strings.Contains(model, "://") {
			if err := w.Add(model); err != nil {
				logger.Warningf("could not watch model: %v", err)
			}
		}

		stats, err := renderJob(sigCtx, cfg)
		if err != nil {
			if !errors.Is(err, renderer.ErrInterrupted) {
				logger.Errorf("render failed: %v", err)
			}
			return
		}
		displayFrameStats(stats)
	}

	render(cfg)
	logger.Noticef("watching for changes; press ctrl+c to exit")

	err = w.Run(sigCtx, func(file string) {
		logger.Noticef("detected change in %s", file)

		// Pick up config edits; on error keep watching so the user can fix them.
		reloaded, err := loadConfig(ctx)
		if err != nil {
			logger.Errorf("could not reload config: %v", err)
			return
		}
		setupLogging(ctx, reloaded.Verbosity)
		render(reloaded)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
