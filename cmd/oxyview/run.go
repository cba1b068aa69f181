package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/window"
	"github.com/urfave/cli"
)

// RunScene renders the scene into a window until it is closed.
func RunScene(ctx *cli.Context) error {
	setupLogging(ctx)

	v, err := loadViewer(ctx)
	if err != nil {
		return err
	}
	backend, err := renderer.ParseBackendType(ctx.String("backend"))
	if err != nil {
		return err
	}

	win, err := window.NewWindow(
		window.WithTitle("oxyview - "+v.assets.Name),
		window.WithSize(ctx.Int("width"), ctx.Int("height")),
	)
	if err != nil {
		return err
	}
	defer win.Close()

	extent := common.Extent{Width: win.Width(), Height: win.Height()}
	var devOpts []renderer.DeviceBuilderOption
	if backend == renderer.BackendWGPU {
		devOpts = append(devOpts, renderer.WithSurface(win.SurfaceDescriptor(), extent))
	} else {
		logger.Warning("the soft backend does not draw into the window")
	}
	dev, err := renderer.NewDevice(backend, devOpts...)
	if err != nil {
		return err
	}
	defer dev.Release()

	sc, err := v.newScene()
	if err != nil {
		return err
	}

	shots := common.Coalesce(ctx.String("screenshot"), "oxyview.png")
	opts := append(v.engineOptions(),
		engine.WithWindow(win),
		engine.WithRenderFrameLimit(ctx.Float64("fps")),
		engine.WithProfiling(ctx.Bool("profile")),
		engine.WithCaptureHandler(func(c engine.Capture) {
			path := timestamped(shots, time.Now())
			if err := writeScreenshot(path, c); err != nil {
				logger.Errorf("screenshot: %v", err)
			}
		}),
	)
	e, err := engine.NewEngine(dev, sc, opts...)
	if err != nil {
		sc.Release()
		return err
	}
	defer e.Release()

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return e.Run(runCtx)
}

// timestamped inserts the time before the extension so repeated captures do not
// overwrite each other.
func timestamped(path string, t time.Time) string {
	ext := filepath.Ext(path)
	return fmt.Sprintf("%s-%s%s", strings.TrimSuffix(path, ext), t.Format("20060102-150405.000"), ext)
}
