package cmd

import (
	"github.com/urfave/cli"
)

// Load a model, build its KD tree and display model and tree statistics.
func ShowModelInfo(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	setupLogging(ctx, cfg.Verbosity)

	model, err := cfg.LoadModel()
	if err != nil {
		return err
	}
	logger.Noticef("model information:\n%s", model.Stats())

	tree := model.BuildTree()
	logger.Noticef("kd-tree information:\n%s", tree.Stats())

	return nil
}
