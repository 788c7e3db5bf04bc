// Package main runs one reset and simplify pass without a window and prints
// the result.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/meshlab/internal/app"
	"github.com/Faultbox/meshlab/internal/config"
	"github.com/Faultbox/meshlab/internal/control"
	"github.com/Faultbox/meshlab/internal/journal"
	"github.com/Faultbox/meshlab/internal/logger"
	"github.com/Faultbox/meshlab/internal/simplify"
)

var (
	flagTimeout = flag.Duration("timeout", 30*time.Second, "How long to wait for the asset to load")
	flagPasses  = flag.Int("passes", 1, "Number of simplify passes to run after the reset")
	flagHistory = flag.Int("history", 0, "Print the last N journaled passes and exit")
	flagWrite   = flag.String("write-config", "", "Write the effective config to this path and exit")
)

func main() {
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case *flagWrite != "":
		err = cfg.SaveTo(*flagWrite)
	case *flagHistory > 0:
		err = history(ctx, cfg, *flagHistory)
	default:
		err = simplifyOnce(ctx, cfg, *flagPasses)
	}
	if err != nil {
		logger.Error("meshsimplify failed", zap.Error(err))
		os.Exit(1)
	}
}

func simplifyOnce(ctx context.Context, cfg *config.Config, passes int) error {
	s, err := app.Open(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	wctx, cancel := context.WithTimeout(ctx, *flagTimeout)
	defer cancel()
	if err := s.WaitReady(wctx); err != nil {
		return err
	}

	// The startup reset is already pending; the first tick spawns and
	// simplifies the fresh instance.
	for i := 0; i < passes; i++ {
		s.State.Requests.Simplify = true
		res := s.App.Tick(ctx, s.State)
		if _, ok := s.App.Scenes().Instance(); i == 0 && !ok {
			return fmt.Errorf("no instance spawned from %s", cfg.Asset.Path)
		}
		if !res.Simplified {
			continue
		}
		printReport(i+1, res.Report)
	}
	return nil
}

func printReport(pass int, rep simplify.Report) {
	fmt.Printf("pass %d: %s\n", pass, control.Describe(rep.Params))
	fmt.Printf("  %d meshes, %s (%.1f%% triangles kept)\n",
		rep.Meshes, control.DescribeStats(rep.Stats), rep.Stats.TriangleRatio()*100)
	for _, f := range rep.Failures {
		fmt.Printf("  failed %s: %v\n", f.Mesh, f.Err)
	}
}

func history(ctx context.Context, cfg *config.Config, limit int) error {
	if cfg.Journal.Path == "" {
		return fmt.Errorf("-history needs a journal path")
	}
	j, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		return err
	}
	defer j.Close()

	passes, err := j.List(ctx, limit)
	if err != nil {
		return err
	}
	for _, p := range passes {
		fmt.Printf("%s  %s  %s  error=%.4f target=%s options=%s sloppy=%t  %s\n",
			p.CreatedAt.Format(time.RFC3339), p.SessionID[:8], p.Asset,
			p.MaxError, p.Target, p.Options, p.Sloppy, control.DescribeStats(p.Stats))
	}
	return nil
}
