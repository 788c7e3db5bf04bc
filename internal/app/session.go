package app

import (
	"context"
	"fmt"
	"time"

	"github.com/Faultbox/meshlab/internal/assets"
	"github.com/Faultbox/meshlab/internal/config"
	"github.com/Faultbox/meshlab/internal/decimate"
	"github.com/Faultbox/meshlab/internal/journal"
	"github.com/Faultbox/meshlab/internal/scene"
)

// Session is a fully wired app for one asset, as the binaries run it.
type Session struct {
	App     *App
	State   *State
	Assets  *assets.Server
	Handle  assets.Handle
	Journal *journal.Journal
}

// SelectorFor turns the asset section into a sub-scene selector.
func SelectorFor(c config.AssetConfig) scene.Selector {
	if c.Scene != "" {
		return scene.Named(c.Scene)
	}
	return scene.Index(c.SceneIndex)
}

// Open starts loading the configured asset and, when enabled, opens the
// journal. It does not wait for the asset.
func Open(cfg *config.Config) (*Session, error) {
	params, err := cfg.SimplifyParams()
	if err != nil {
		return nil, err
	}

	s := &Session{
		State:  NewState(params),
		Assets: assets.NewServer(nil),
	}
	s.Handle = s.Assets.Load(cfg.Asset.Path)
	s.App = New(s.Assets, s.Handle, SelectorFor(cfg.Asset), decimate.New())

	if cfg.Journal.Path != "" {
		s.Journal, err = journal.Open(cfg.Journal.Path)
		if err != nil {
			return nil, fmt.Errorf("opening journal: %w", err)
		}
		s.App.SetRecorder(s.Journal, cfg.Asset.Path)
	}
	return s, nil
}

// WaitReady polls until the asset loaded, failed, or ctx is done.
func (s *Session) WaitReady(ctx context.Context) error {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		if s.Assets.Ready(s.Handle) {
			return nil
		}
		if err := s.Assets.Err(s.Handle); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for %s: %w", s.Handle, ctx.Err())
		case <-ticker.C:
		}
	}
}

// Close releases the asset and closes the journal.
func (s *Session) Close() error {
	s.Handle.Release()
	if s.Journal != nil {
		return s.Journal.Close()
	}
	return nil
}
