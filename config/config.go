// Package config loads engine settings from TOML or YAML files.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"forward-engine/logger"
)

// Config is the full engine configuration.
type Config struct {
	Window WindowConfig  `toml:"window" yaml:"window"`
	Render RenderConfig  `toml:"render" yaml:"render"`
	Assets AssetsConfig  `toml:"assets" yaml:"assets"`
	Log    logger.Config `toml:"log" yaml:"log"`
}

type WindowConfig struct {
	Width      int    `toml:"width" yaml:"width"`
	Height     int    `toml:"height" yaml:"height"`
	Title      string `toml:"title" yaml:"title"`
	VSync      bool   `toml:"vsync" yaml:"vsync"`
	Fullscreen bool   `toml:"fullscreen" yaml:"fullscreen"`
	LockMouse  bool   `toml:"lock_mouse" yaml:"lock_mouse"`
}

type RenderConfig struct {
	ShadowMapSize int        `toml:"shadow_map_size" yaml:"shadow_map_size"`
	ClearColor    [4]float32 `toml:"clear_color" yaml:"clear_color"`
	DepthShader   string     `toml:"depth_shader" yaml:"depth_shader"`
	ShadowShader  string     `toml:"shadow_shader" yaml:"shadow_shader"`
}

type AssetsConfig struct {
	// Root is the directory texture and model paths are resolved against.
	// Shaders are embedded in the host binary.
	Root string `toml:"root" yaml:"root"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Window: WindowConfig{
			Width:     1280,
			Height:    720,
			Title:     "Forest",
			VSync:     true,
			LockMouse: true,
		},
		Render: RenderConfig{
			ShadowMapSize: 2048,
			ClearColor:    [4]float32{0.1, 0.1, 0.1, 1},
			DepthShader:   "shaders/std_shadowmap",
			ShadowShader:  "shaders/std_shadowmap",
		},
		Assets: AssetsConfig{Root: "."},
		Log:    logger.Config{Level: "info", Development: true},
	}
}

// Load reads path on top of Default. The decoder is chosen by extension.
// A missing file yields Default and an error wrapping fs.ErrNotExist.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := Decode(&cfg, filepath.Ext(path), data); err != nil {
		return Default(), fmt.Errorf("config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Default(), fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Decode unmarshals data into cfg using the format named by ext.
func Decode(cfg *Config, ext string, data []byte) error {
	switch strings.ToLower(ext) {
	case ".toml":
		return toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields().Decode(cfg)
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		return nil
	}
	return fmt.Errorf("unsupported config format %q", ext)
}

func (c Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height)
	}
	if c.Render.ShadowMapSize <= 0 {
		return fmt.Errorf("shadow_map_size %d must be positive", c.Render.ShadowMapSize)
	}
	return nil
}
