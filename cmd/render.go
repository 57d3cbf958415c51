package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/blockspacer/kdtracer/asset/config"
	"github.com/blockspacer/kdtracer/asset/writer"
	"github.com/blockspacer/kdtracer/renderer"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Render a still frame.
func RenderFrame(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	setupLogging(ctx, cfg.Verbosity)

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats, err := renderJob(sigCtx, cfg)
	if err != nil {
		return err
	}

	displayFrameStats(stats)
	return nil
}

// Load the render config referenced by the first command argument and apply
// any command line overrides. Arguments without a .toml extension are
// treated as model files and rendered with the default settings.
func loadConfig(ctx *cli.Context) (*config.Config, error) {
	if ctx.NArg() != 1 {
		return nil, errors.New("missing scene config or model file argument")
	}

	var cfg *config.Config
	arg := ctx.Args().First()
	if strings.HasSuffix(strings.ToLower(arg), ".toml") {
		var err error
		if cfg, err = config.Load(arg); err != nil {
			return nil, err
		}
	} else {
		cfg = config.ForModel(arg)
	}

	applyOverrides(ctx, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyOverrides(ctx *cli.Context, cfg *config.Config) {
	if ctx.IsSet("width") {
		cfg.Image.Width = ctx.Int("width")
	}
	if ctx.IsSet("height") {
		cfg.Image.Height = ctx.Int("height")
	}
	if ctx.IsSet("tile-size") {
		cfg.Image.TileSize = ctx.Int("tile-size")
	}
	if ctx.IsSet("workers") {
		cfg.Image.Workers = ctx.Int("workers")
	}
	if ctx.IsSet("exposure") {
		cfg.Image.Exposure = ctx.Float64("exposure")
	}
	if ctx.IsSet("gamma") {
		cfg.Image.Gamma = ctx.Float64("gamma")
	}
	if ctx.IsSet("out") {
		cfg.Output = ctx.String("out")
	}
	if ctx.Bool("no-shadows") {
		cfg.Render.Shadows = false
	}
	if ctx.Bool("no-kdtree") {
		cfg.Render.UseKDTree = false
	}
	if ctx.Bool("backface-culling") {
		cfg.Render.BackfaceCulling = true
	}
	if ctx.Bool("frontface-culling") {
		cfg.Render.FrontfaceCulling = true
	}
}

// Load the model, render it and write the frame to the configured output.
func renderJob(ctx context.Context, cfg *config.Config) (renderer.FrameStats, error) {
	model, err := cfg.LoadModel()
	if err != nil {
		return renderer.FrameStats{}, err
	}
	logger.Infof("loaded model %s: %d triangles (%d dropped)", model.Name, len(model.Triangles), model.DroppedTriangles)

	tr, err := cfg.Tracer(model)
	if err != nil {
		return renderer.FrameStats{}, err
	}

	opts := cfg.Options()
	r, err := renderer.NewCPU(tr, opts)
	if err != nil {
		return renderer.FrameStats{}, err
	}
	defer r.Close()

	if tree := model.Tree(); tree != nil {
		logger.Debugf("kd-tree statistics\n%s", tree.Stats())
	}

	logger.Noticef("rendering %dx%d frame", opts.FrameW, opts.FrameH)
	if err = r.Render(ctx); err != nil {
		return r.Stats(), err
	}

	if err = writer.WriteFrame(r.Frame(), cfg.Output, opts.Exposure, opts.Gamma); err != nil {
		return r.Stats(), err
	}
	logger.Noticef("wrote frame to %s", cfg.Output)

	return r.Stats(), nil
}

func displayFrameStats(stats renderer.FrameStats) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Worker", "Tiles", "Hits", "Shadow rays", "% of frame", "Render time"})
	for _, stat := range stats.Workers {
		table.Append([]string{
			stat.Id,
			fmt.Sprintf("%d", stat.Tiles),
			fmt.Sprintf("%d", stat.Hits),
			fmt.Sprintf("%d", stat.ShadowRays),
			fmt.Sprintf("%02.1f %%", stat.FramePercent),
			stat.RenderTime.String(),
		})
	}
	table.SetFooter([]string{
		"TOTAL",
		fmt.Sprintf("%d", stats.Tiles),
		fmt.Sprintf("%d", stats.Hits),
		fmt.Sprintf("%d", stats.ShadowRays),
		fmt.Sprintf("%d rays", stats.Rays()),
		stats.RenderTime.String(),
	})

	table.Render()
	logger.Noticef("frame statistics\n%s", buf.String())
}
