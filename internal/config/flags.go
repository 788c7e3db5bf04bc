package config

import (
	"flag"
	"fmt"
	"strconv"
	"strings"
)

var (
	flagConfig     = flag.String("config", "", "Path to config file")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging")
	flagAsset      = flag.String("asset", "", "Path to the .gltf/.glb asset")
	flagScene      = flag.String("scene", "", "Sub-scene to instantiate, by name or index")
	flagWindowed   = flag.Bool("windowed", false, "Run in windowed mode")
	flagFullscreen = flag.Bool("fullscreen", false, "Run in fullscreen mode")
	flagWidth      = flag.Int("width", 0, "Window width")
	flagHeight     = flag.Int("height", 0, "Window height")
	flagJournal    = flag.String("journal", "", "Path to the pass journal database")

	flagMaxError   = flag.Float64("max-error", -1, "Simplification error bound")
	flagTargetCnt  = flag.Int("target-count", 0, "Target index count (excludes -target-multiplier)")
	flagTargetMult = flag.Float64("target-multiplier", -1, "Target as a fraction of the input index count (excludes -target-count)")
	flagSloppy     = flag.Bool("sloppy", false, "Use the sloppy decimator")
	flagOptions    = flag.String("options", "", "Comma separated simplify options (lock_border,sparse,error_absolute,regularize)")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// checkFlags rejects flag combinations that contradict each other.
func checkFlags() error {
	if *flagTargetCnt > 0 && *flagTargetMult >= 0 {
		return fmt.Errorf("-target-count and -target-multiplier are mutually exclusive")
	}
	return nil
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagAsset != "" {
		cfg.Asset.Path = *flagAsset
	}
	if *flagScene != "" {
		if i, err := strconv.Atoi(*flagScene); err == nil {
			cfg.Asset.Scene = ""
			cfg.Asset.SceneIndex = i
		} else {
			cfg.Asset.Scene = *flagScene
		}
	}
	if *flagWindowed {
		cfg.Window.Fullscreen = false
	}
	if *flagFullscreen {
		cfg.Window.Fullscreen = true
	}
	if *flagWidth > 0 {
		cfg.Window.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Window.Height = *flagHeight
	}
	if *flagJournal != "" {
		cfg.Journal.Path = *flagJournal
	}

	if *flagMaxError >= 0 {
		cfg.Simplify.MaxError = float32(*flagMaxError)
	}
	if *flagTargetCnt > 0 {
		cfg.Simplify.TargetCount = *flagTargetCnt
	}
	if *flagTargetMult >= 0 {
		cfg.Simplify.TargetCount = 0
		cfg.Simplify.TargetMultiplier = float32(*flagTargetMult)
	}
	if *flagSloppy {
		cfg.Simplify.Sloppy = true
	}
	if *flagOptions != "" {
		cfg.Simplify.Options = nil
		for _, o := range strings.Split(*flagOptions, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.Simplify.Options = append(cfg.Simplify.Options, o)
			}
		}
	}
}
