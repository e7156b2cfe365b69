// Command demo walks a first-person camera through a small forest lit by a
// day/night sun and a shadow-casting spot light.
package main

import (
	"embed"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"forward-engine/config"
	"forward-engine/core"
	"forward-engine/internal/opengl"
	"forward-engine/logger"
	"forward-engine/pipeline"
	"forward-engine/platform"
	"forward-engine/render"
)

//go:embed shaders
var shaderFiles embed.FS

type options struct {
	configPath string
	assets     string
	model      string
	frames     int
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:          "demo",
		Short:        "Walk through a forest rendered by the forward pipeline",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.configPath, "config", "c", "", "TOML or YAML settings file")
	f.StringVar(&opts.assets, "assets", "", "directory holding Textures/ and Models/, overrides the config")
	f.StringVar(&opts.model, "model", "Models/elemental_sword_ice/scene.gltf", "glTF model shown above the clearing, empty to skip")
	f.IntVar(&opts.frames, "frames", 0, "stop after this many frames; 0 runs until the window closes")
	return cmd
}

func loadConfig(opts options) (config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.Load(opts.configPath); err != nil {
			return cfg, err
		}
	}
	if opts.assets != "" {
		cfg.Assets.Root = opts.assets
	}
	return cfg, nil
}

func run(opts options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.Log); err != nil {
		return err
	}
	defer logger.Sync()
	log := logger.Log

	win, err := platform.NewWindow(platform.WindowConfig{
		Width:      cfg.Window.Width,
		Height:     cfg.Window.Height,
		Title:      cfg.Window.Title,
		Resizable:  true,
		VSync:      cfg.Window.VSync,
		Fullscreen: cfg.Window.Fullscreen,
	})
	if err != nil {
		return err
	}
	defer win.Destroy()
	win.LockMouse(cfg.Window.LockMouse)

	dev, err := opengl.New(log)
	if err != nil {
		return err
	}
	ctx := render.NewContext(dev, render.WithFS(shaderFiles, "embedded"), render.WithLogger(log))
	defer ctx.ReleaseShaders()

	width, height := win.FramebufferSize()
	fwd := pipeline.New(ctx, pipeline.Options{
		Width:        width,
		Height:       height,
		DepthShader:  cfg.Render.DepthShader,
		ShadowShader: cfg.Render.ShadowShader,
	})
	defer fwd.Release()

	c := cfg.Render.ClearColor
	world, err := buildForest(ctx, forestOptions{
		Assets:        cfg.Assets.Root,
		Model:         opts.model,
		ShadowMapSize: cfg.Render.ShadowMapSize,
		Width:         width,
		Height:        height,
		ClearColor:    core.Color{R: c[0], G: c[1], B: c[2], A: c[3]},
		Input:         win,
	})
	if err != nil {
		return fmt.Errorf("build scene: %w", err)
	}
	defer world.release(ctx)

	log.Info("scene ready",
		zap.Int("objects", len(world.scene.Objects())),
		zap.Int("width", width),
		zap.Int("height", height))

	hud := newHUD(cfg.Window.Title)
	var lastErr error
	for frame := 0; !win.ShouldClose(); frame++ {
		if opts.frames > 0 && frame >= opts.frames {
			break
		}
		win.BeginFrame()
		if win.KeyDown(core.KeyEscape) {
			win.Close()
		}
		dt := win.DeltaTime()
		world.scene.Update(dt)

		if w, h := win.FramebufferSize(); w != width || h != height {
			width, height = w, h
			fwd.SetResolution(width, height)
		}
		// Log a failure once until it changes.
		if err := fwd.Render(world.scene); err != nil {
			if lastErr == nil || lastErr.Error() != err.Error() {
				log.Error("render failed", zap.Error(err))
			}
			lastErr = err
		} else {
			lastErr = nil
		}
		win.SwapBuffers()

		if title, ok := hud.frame(dt, fwd.Stats(), world.sky); ok {
			win.SetTitle(title)
		}
	}
	return nil
}
