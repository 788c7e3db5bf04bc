// Package config handles meshlab configuration loading and management.
package config

import (
	"fmt"

	"github.com/Faultbox/meshlab/internal/simplify"
)

// Config holds all session settings.
type Config struct {
	Window   WindowConfig   `yaml:"window"`
	Asset    AssetConfig    `yaml:"asset"`
	Simplify SimplifyConfig `yaml:"simplify"`
	Controls ControlsConfig `yaml:"controls"`
	Journal  JournalConfig  `yaml:"journal"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// WindowConfig holds display settings for the viewer.
type WindowConfig struct {
	Width      int  `yaml:"width"`
	Height     int  `yaml:"height"`
	Fullscreen bool `yaml:"fullscreen"`
	VSync      bool `yaml:"vsync"`
	Samples    int  `yaml:"samples"`
	// ScreenshotDir receives viewer captures; empty means the working directory.
	ScreenshotDir string `yaml:"screenshot_dir"`
}

// AssetConfig selects the source asset and the sub-scene to instantiate.
// Scene (by name) wins over SceneIndex when both are set.
type AssetConfig struct {
	Path       string `yaml:"path"`
	Scene      string `yaml:"scene"`
	SceneIndex int    `yaml:"scene_index"`
}

// SimplifyConfig seeds the simplification parameters at startup.
// A positive TargetCount selects an absolute target; otherwise
// TargetMultiplier is used.
type SimplifyConfig struct {
	MaxError         float32  `yaml:"max_error"`
	TargetCount      int      `yaml:"target_count"`
	TargetMultiplier float32  `yaml:"target_multiplier"`
	Options          []string `yaml:"options"`
	Sloppy           bool     `yaml:"sloppy"`
}

// ControlsConfig overrides key bindings: SDL key name -> action name.
type ControlsConfig struct {
	Bindings map[string]string `yaml:"bindings"`
}

// JournalConfig enables the pass journal when Path is set.
type JournalConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	p := simplify.DefaultParams()
	mult, _ := p.Target.MultiplierValue()
	return &Config{
		Window: WindowConfig{
			Width:   1280,
			Height:  720,
			VSync:   true,
			Samples: 4,
		},
		Asset: AssetConfig{
			Path: "models/FlightHelmet/FlightHelmet.gltf",
		},
		Simplify: SimplifyConfig{
			MaxError:         p.MaxError,
			TargetMultiplier: mult,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// SimplifyParams converts the simplify section into parameters.
func (c *Config) SimplifyParams() (simplify.Params, error) {
	opts, err := simplify.ParseOptions(c.Simplify.Options)
	if err != nil {
		return simplify.Params{}, err
	}
	p := simplify.Params{
		MaxError: c.Simplify.MaxError,
		Options:  opts,
		Sloppy:   c.Simplify.Sloppy,
	}
	if c.Simplify.TargetCount > 0 {
		p.Target = simplify.Count(c.Simplify.TargetCount)
	} else {
		p.Target = simplify.Multiplier(c.Simplify.TargetMultiplier)
	}
	return p, nil
}

// validate rejects settings that would only fail later.
func (c *Config) validate() error {
	if _, err := c.SimplifyParams(); err != nil {
		return fmt.Errorf("simplify: %w", err)
	}
	if c.Asset.SceneIndex < 0 {
		return fmt.Errorf("asset: scene_index %d is negative", c.Asset.SceneIndex)
	}
	return nil
}
