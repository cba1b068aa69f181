package main

import (
	"os"

	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	if err := newApp().Run(os.Args); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "oxyview"
	app.Usage = "render scene descriptions with a deferred shading pipeline"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "verbose, v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable debug logging",
		},
		cli.BoolFlag{
			Name:  "debug",
			Usage: "panic on render state contract violations",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "run",
			Usage: "open a window and render the scene interactively",
			Description: `
Render the scene into a window until it is closed. Drag with the left or middle
mouse button to orbit, scroll to zoom, space pauses scene time, I toggles image
based lighting, R resets the camera and P writes a screenshot.`,
			ArgsUsage: "scene_file",
			Flags:     append(sceneFlags(), runFlags()...),
			Action:    RunScene,
		},
		{
			Name:  "render",
			Usage: "render a fixed number of frames without a window",
			Description: `
Render the scene on the CPU backend for the requested number of frames and
optionally write the last one to a PNG file.`,
			ArgsUsage: "scene_file",
			Flags:     append(sceneFlags(), renderFlags()...),
			Action:    RenderScene,
		},
		{
			Name:      "info",
			Usage:     "print a summary of a scene description",
			ArgsUsage: "scene_file",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "scene, s",
					Usage: "scene description file (.yaml, .yml or .json)",
				},
				cli.StringFlag{
					Name:  "settings",
					Usage: "renderer settings file",
				},
			},
			Action: ShowSceneInfo,
		},
	}

	return app
}

func sceneFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "scene, s",
			Usage: "scene description file (.yaml, .yml or .json)",
		},
		cli.StringFlag{
			Name:  "settings",
			Usage: "renderer settings file",
		},
		cli.IntFlag{
			Name:  "width",
			Value: 1280,
			Usage: "frame width",
		},
		cli.IntFlag{
			Name:  "height",
			Value: 720,
			Usage: "frame height",
		},
		cli.BoolFlag{
			Name:  "no-ibl",
			Usage: "use a flat ambient term instead of image based lighting",
		},
		cli.StringFlag{
			Name:  "screenshot, o",
			Usage: "PNG file for captured frames",
		},
	}
}

func runFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "backend",
			Value: "wgpu",
			Usage: "device backend (wgpu or soft)",
		},
		cli.Float64Flag{
			Name:  "fps",
			Usage: "frame rate cap, 0 for none",
		},
		cli.BoolFlag{
			Name:  "profile",
			Usage: "log frame statistics every second",
		},
	}
}

func renderFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "backend",
			Value: "soft",
			Usage: "device backend (soft or wgpu)",
		},
		cli.IntFlag{
			Name:  "frames, n",
			Value: 16,
			Usage: "number of frames to render",
		},
		cli.IntFlag{
			Name:  "workers",
			Usage: "CPU backend workers, 0 for one per core",
		},
	}
}
