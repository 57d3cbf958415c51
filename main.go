package main

import (
	"os"

	"github.com/blockspacer/kdtracer/cmd"
	"github.com/urfave/cli"
)

func renderFlags() []cli.Flag {
	return []cli.Flag{
		cli.IntFlag{
			Name:  "width",
			Usage: "frame width",
		},
		cli.IntFlag{
			Name:  "height",
			Usage: "frame height",
		},
		cli.IntFlag{
			Name:  "tile-size",
			Usage: "size of the square tiles handed out to render workers",
		},
		cli.IntFlag{
			Name:  "workers",
			Usage: "number of render workers; 0 uses one worker per CPU",
		},
		cli.Float64Flag{
			Name:  "exposure",
			Usage: "camera exposure for tone-mapping",
		},
		cli.Float64Flag{
			Name:  "gamma",
			Usage: "gamma correction applied to the output image",
		},
		cli.StringFlag{
			Name:  "out, o",
			Usage: "image filename for the rendered frame (png, bmp or tiff)",
		},
		cli.BoolFlag{
			Name:  "no-shadows",
			Usage: "disable shadow rays",
		},
		cli.BoolFlag{
			Name:  "no-kdtree",
			Usage: "test rays against every triangle instead of using a kd-tree",
		},
		cli.BoolFlag{
			Name:  "backface-culling",
			Usage: "ignore triangles facing away from the camera",
		},
		cli.BoolFlag{
			Name:  "frontface-culling",
			Usage: "ignore triangles facing the camera",
		},
	}
}

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "kdtracer"
	app.Usage = "render triangle meshes using a kd-tree accelerated ray tracer"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "render",
			Usage: "render a single frame",
			Description: `
Render a frame of a scene described by a TOML config file. If a PLY model is
supplied instead, it is rendered with an automatically placed camera and a
default set of lights.

Command line flags override the corresponding config values.`,
			ArgsUsage: "scene.toml|model.ply",
			Flags:     renderFlags(),
			Action:    cmd.RenderFrame,
		},
		{
			Name:      "info",
			Usage:     "display model and kd-tree statistics",
			ArgsUsage: "scene.toml|model.ply",
			Action:    cmd.ShowModelInfo,
		},
		{
			Name:  "watch",
			Usage: "re-render a frame whenever the scene or model changes",
			Description: `
Render a frame and keep watching the scene config and model file. Each change
triggers a new render using the reloaded config.`,
			ArgsUsage: "scene.toml|model.ply",
			Flags: append(renderFlags(), cli.IntFlag{
				Name:  "debounce",
				Value: 250,
				Usage: "milliseconds to wait for further changes before re-rendering",
			}),
			Action: cmd.WatchScene,
		},
	}

	if err := app.Run(os.Args); err != nil {
		cmd.Fatal(err)
	}
}
