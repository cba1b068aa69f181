package main

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/engine"
	"github.com/Carmen-Shannon/oxy-deferred/engine/loader"
	"github.com/Carmen-Shannon/oxy-deferred/engine/scene"
	"github.com/urfave/cli"
)

var errMissingScene = errors.New("missing scene file argument")

// viewer is what every command loads before it renders or prints anything.
type viewer struct {
	settings loader.Settings
	assets   *loader.Assets
}

// scenePath accepts the scene either as --scene or as the first argument.
func scenePath(ctx *cli.Context) (string, error) {
	if p := ctx.String("scene"); p != "" {
		return p, nil
	}
	if ctx.NArg() == 1 {
		return ctx.Args().First(), nil
	}
	return "", errMissingScene
}

func loadViewer(ctx *cli.Context) (*viewer, error) {
	path, err := scenePath(ctx)
	if err != nil {
		return nil, err
	}

	settings := loader.DefaultSettings()
	if p := ctx.String("settings"); p != "" {
		if settings, err = loader.LoadSettings(p); err != nil {
			return nil, err
		}
		logger.Infof("renderer settings from %s", p)
	}

	l := loader.NewLoader()
	doc, err := l.Load(path)
	if err != nil {
		return nil, err
	}
	assets, err := l.Build(doc)
	if err != nil {
		return nil, err
	}
	if ctx.Bool("no-ibl") {
		assets.Light.SetIBL(false)
	}
	logger.Noticef("loaded scene %q from %s: %d objects, %d meshes", assets.Name, path, len(assets.Objects), assets.Meshes.Len())
	return &viewer{settings: settings, assets: assets}, nil
}

// newScene builds the scene with the settings' culling and cascade parameters.
func (v *viewer) newScene() (scene.Scene, error) {
	ext := v.assets.Bounds().Extents
	cascades, err := v.settings.CascadeManager(max(ext[0], ext[1], ext[2]) * 2)
	if err != nil {
		return nil, fmt.Errorf("shadow cascades: %w", err)
	}
	opts := append(v.assets.SceneOptions(), v.settings.SceneOptions()...)
	opts = append(opts, scene.WithCascadeManager(cascades))
	sc, err := scene.NewScene(v.assets.Objects, v.assets.Meshes, opts...)
	if err != nil {
		return nil, err
	}
	sc.Camera().SetJitterEnabled(v.settings.Jitter && v.settings.TAA.Enabled)
	return sc, nil
}

// engineOptions returns the options every command shares.
func (v *viewer) engineOptions() []engine.EngineBuilderOption {
	return []engine.EngineBuilderOption{
		engine.WithFrameCount(v.settings.FrameCount),
		engine.WithRendererOptions(v.settings.RendererOptions()...),
		engine.WithChainOptions(v.settings.ChainOptions()...),
	}
}
