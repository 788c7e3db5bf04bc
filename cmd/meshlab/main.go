// Package main is the entry point for the interactive meshlab viewer.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/meshlab/internal/app"
	"github.com/Faultbox/meshlab/internal/config"
	"github.com/Faultbox/meshlab/internal/control"
	"github.com/Faultbox/meshlab/internal/logger"
	"github.com/Faultbox/meshlab/internal/viewer"
)

var flagSave = flag.Bool("save-config", false, "Save the effective config to the user config directory")

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== meshlab ===", zap.String("asset", cfg.Asset.Path))
	logger.Sugar.Debugf("Config: %+v", cfg)

	if *flagSave {
		if err := cfg.Save(); err != nil {
			logger.Warn("saving config failed", zap.Error(err))
		} else {
			logger.Info("config saved", zap.String("dir", config.ConfigDir()))
		}
	}

	if err := run(cfg); err != nil {
		logger.Error("viewer error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("viewer closed normally")
}

func run(cfg *config.Config) error {
	panel, err := control.NewPanel(cfg.Controls.Bindings)
	if err != nil {
		return err
	}

	s, err := app.Open(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	v, err := viewer.New(viewer.Config{
		Title:      "meshlab",
		Width:      cfg.Window.Width,
		Height:     cfg.Window.Height,
		Fullscreen: cfg.Window.Fullscreen,
		VSync:      cfg.Window.VSync,
		Samples:    cfg.Window.Samples,

		ScreenshotDir: cfg.Window.ScreenshotDir,
	}, s.App, s.State, panel)
	if err != nil {
		return fmt.Errorf("creating viewer: %w", err)
	}
	defer v.Close()

	for _, b := range panel.Bindings() {
		logger.Debug("binding", zap.String("key", b))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return v.Run(ctx)
}
