package main

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/Carmen-Shannon/oxy-deferred/engine"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// RenderScene renders a fixed number of frames without a window.
func RenderScene(ctx *cli.Context) error {
	setupLogging(ctx)

	v, err := loadViewer(ctx)
	if err != nil {
		return err
	}
	frames := ctx.Int("frames")
	if frames <= 0 {
		return fmt.Errorf("frame count must be positive, got %d", frames)
	}

	backend, err := renderer.ParseBackendType(ctx.String("backend"))
	if err != nil {
		return err
	}
	var devOpts []renderer.DeviceBuilderOption
	if n := ctx.Int("workers"); n > 0 {
		devOpts = append(devOpts, renderer.WithWorkers(n))
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

	var infos []engine.FrameInfo
	opts := append(v.engineOptions(),
		engine.WithExtent(ctx.Int("width"), ctx.Int("height")),
		engine.WithFrameCallback(func(fi engine.FrameInfo) { infos = append(infos, fi) }),
	)
	e, err := engine.NewEngine(dev, sc, opts...)
	if err != nil {
		sc.Release()
		return err
	}
	defer e.Release()

	start := time.Now()
	if err := e.RunFrames(context.Background(), frames); err != nil {
		return err
	}
	elapsed := time.Since(start)
	displayFrameStats(infos, elapsed)

	if path := ctx.String("screenshot"); path != "" {
		c, err := e.ReadFinal()
		if err != nil {
			return err
		}
		return writeScreenshot(path, c)
	}
	return nil
}

func displayFrameStats(infos []engine.FrameInfo, elapsed time.Duration) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Frame", "Slot", "Visible", "Culled", "G-buffer", "Shadow", "Alpha", "Passes", "Commands"})
	var draws int
	for _, fi := range infos {
		draws += fi.Renderer.GBufferDraws + fi.Renderer.ShadowDraws + fi.Renderer.AlphaDraws
		table.Append([]string{
			fmt.Sprintf("%d", fi.Number),
			fmt.Sprintf("%d", fi.Slot),
			fmt.Sprintf("%d", fi.Scene.VisibleOpaque+fi.Scene.VisibleAlpha),
			fmt.Sprintf("%d", fi.Scene.Culled),
			fmt.Sprintf("%d", fi.Renderer.GBufferDraws),
			fmt.Sprintf("%d", fi.Renderer.ShadowDraws),
			fmt.Sprintf("%d", fi.Renderer.AlphaDraws),
			fmt.Sprintf("%d", fi.Renderer.Passes),
			fmt.Sprintf("%d", fi.Commands),
		})
	}
	perFrame := time.Duration(0)
	if len(infos) > 0 {
		perFrame = elapsed / time.Duration(len(infos))
	}
	table.SetFooter([]string{"", "", "", "", "", "", fmt.Sprintf("%d draws", draws), "TOTAL", fmt.Sprintf("%s (%s/frame)", elapsed.Round(time.Millisecond), perFrame.Round(time.Microsecond))})

	table.Render()
	logger.Noticef("frame statistics\n%s", buf.String())
}
