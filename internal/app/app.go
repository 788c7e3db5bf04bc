// Package app wires the scene manager, the scene graph and the simplify
// executor into one tick.
package app

import (
	"context"

	"go.uber.org/zap"

	"github.com/Faultbox/meshlab/internal/assets"
	"github.com/Faultbox/meshlab/internal/journal"
	"github.com/Faultbox/meshlab/internal/logger"
	"github.com/Faultbox/meshlab/internal/scene"
	"github.com/Faultbox/meshlab/internal/session"
	"github.com/Faultbox/meshlab/internal/simplify"
)

// State is the mutable session state: the parameters and the request flags.
// The control panel writes it; Tick reads and clears it.
type State struct {
	Params   simplify.Params
	Requests session.Requests
}

// NewState returns the startup state with a reset pending.
func NewState(p simplify.Params) *State {
	return &State{Params: p, Requests: session.New()}
}

// AssetStore is what the app needs from the asset server.
type AssetStore interface {
	scene.AssetSource
	scene.AssetStore
}

// Recorder persists pass reports.
type Recorder interface {
	Record(ctx context.Context, asset string, rep simplify.Report) (journal.Pass, error)
}

// Result describes what one tick did.
type Result struct {
	Spawned    bool
	Simplified bool
	Report     simplify.Report
}

// App runs the per-tick pipeline.
type App struct {
	scenes   *scene.Manager
	graph    *scene.Graph
	executor *simplify.Executor

	recorder Recorder
	asset    string
	last     simplify.Report
	passes   int
}

// New builds the pipeline for the asset behind h.
func New(store AssetStore, h assets.Handle, sel scene.Selector, d simplify.Decimator) *App {
	graph := scene.NewGraph(store)
	return &App{
		scenes:   scene.NewManager(store, graph, h, sel),
		graph:    graph,
		executor: simplify.NewExecutor(d, graph),
	}
}

// SetRecorder journals every pass under the given asset name.
func (a *App) SetRecorder(r Recorder, asset string) {
	a.recorder = r
	a.asset = asset
}

// Tick runs reset, then pending graph commands, then simplify, so a simplify
// requested together with a reset works on the fresh instance.
func (a *App) Tick(ctx context.Context, s *State) Result {
	var res Result
	res.Spawned = a.scenes.Update(&s.Requests)
	a.graph.Apply()

	rep, ran := a.executor.Update(&s.Requests, s.Params)
	if !ran {
		return res
	}
	res.Simplified, res.Report = true, rep
	a.last = rep
	a.passes++

	if a.recorder != nil {
		if _, err := a.recorder.Record(ctx, a.asset, rep); err != nil {
			logger.Warn("journal write failed", zap.Error(err))
		}
	}
	return res
}

// Graph returns the scene graph.
func (a *App) Graph() *scene.Graph { return a.graph }

// Scenes returns the instance manager.
func (a *App) Scenes() *scene.Manager { return a.scenes }

// LastReport returns the most recent pass report and whether any pass ran.
func (a *App) LastReport() (simplify.Report, bool) {
	return a.last, a.passes > 0
}

// Passes returns the number of passes run so far.
func (a *App) Passes() int { return a.passes }
