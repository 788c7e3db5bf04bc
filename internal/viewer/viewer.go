// Package viewer runs the interactive session: window, key controls,
// the per-tick pipeline and a wireframe preview of the live instance.
package viewer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/meshlab/internal/app"
	"github.com/Faultbox/meshlab/internal/control"
	"github.com/Faultbox/meshlab/internal/engine/camera"
	"github.com/Faultbox/meshlab/internal/engine/input"
	"github.com/Faultbox/meshlab/internal/engine/renderer"
	"github.com/Faultbox/meshlab/internal/engine/screenshot"
	"github.com/Faultbox/meshlab/internal/engine/window"
	"github.com/Faultbox/meshlab/internal/logger"
)

// Config holds viewer configuration.
type Config struct {
	Title      string
	Width      int
	Height     int
	Fullscreen bool
	VSync      bool
	Samples    int
	// ScreenshotDir receives captures taken with the screenshot action.
	ScreenshotDir string
}

// Viewer is the interactive front end.
type Viewer struct {
	config  Config
	running bool

	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input
	camera   *camera.OrbitCamera

	app   *app.App
	state *app.State
	panel *control.Panel

	shots   *screenshot.Writer
	capture bool

	title string
}

// New opens the window and GL context. The app, state and panel are driven
// from Run.
func New(cfg Config, a *app.App, state *app.State, panel *control.Panel) (*Viewer, error) {
	logger.Info("initializing viewer",
		zap.String("title", cfg.Title),
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height),
	)

	v := &Viewer{
		config: cfg,
		camera: camera.NewOrbitCamera(),
		app:    a,
		state:  state,
		panel:  panel,
		shots:  screenshot.NewWriter(cfg.ScreenshotDir, "meshlab"),
	}

	var err error
	v.window, err = window.New(window.Config{
		Title:      cfg.Title,
		Width:      cfg.Width,
		Height:     cfg.Height,
		Fullscreen: cfg.Fullscreen,
		VSync:      cfg.VSync,
		Samples:    cfg.Samples,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// Renderer needs the GL context the window just created.
	w, h := v.window.DrawableSize()
	v.renderer, err = renderer.New(renderer.Config{Width: w, Height: h, VSync: cfg.VSync})
	if err != nil {
		v.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	v.input = input.New()
	return v, nil
}

// Run drives ticks until the window closes or the quit action fires.
func (v *Viewer) Run(ctx context.Context) error {
	v.running = true
	frameCount := 0
	fpsTimer := time.Now()

	logger.Info("starting viewer loop", zap.Strings("bindings", v.panel.Bindings()))

	for v.running {
		if ctx.Err() != nil {
			return nil
		}

		if v.input.Update() {
			v.running = false
			break
		}
		v.handleEvents()

		res := v.app.Tick(ctx, v.state)
		if res.Spawned || res.Simplified {
			v.renderer.Invalidate()
		}
		if res.Spawned {
			v.frameInstance()
		}

		v.updateTitle()
		v.render()
		if v.capture {
			v.saveScreenshot()
		}
		v.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			logger.Debug("fps", zap.Int("count", frameCount))
			frameCount = 0
			fpsTimer = time.Now()
		}
	}
	return nil
}

// Close releases GL and SDL resources.
func (v *Viewer) Close() {
	logger.Info("closing viewer")
	if v.renderer != nil {
		v.renderer.Close()
	}
	if v.window != nil {
		v.window.Close()
	}
}

func (v *Viewer) handleEvents() {
	for _, ev := range v.input.Events() {
		switch ev.Type {
		case input.EventWindowResize:
			w, h := v.window.DrawableSize()
			v.renderer.Resize(w, h)
		case input.EventKeyDown:
			if a, ok := v.panel.Lookup(ev.KeyName); ok && ev.Repeat && !control.Repeatable(a) {
				continue
			}
			a, ok := v.panel.Key(ev.KeyName, &v.state.Params, &v.state.Requests)
			switch {
			case !ok:
			case a == control.ActionQuit:
				v.running = false
			case a == control.ActionScreenshot:
				v.capture = true
			}
		case input.EventMouseMove:
			if v.input.Dragging() {
				v.camera.HandleDrag(float32(ev.DeltaX), float32(ev.DeltaY))
			}
		case input.EventMouseWheel:
			v.camera.HandleZoom(ev.Wheel)
		}
	}
}

func (v *Viewer) saveScreenshot() {
	v.capture = false
	pixels, w, h := v.renderer.ReadPixels()
	path, err := v.shots.SaveGL(pixels, w, h)
	if err != nil {
		logger.Error("screenshot failed", zap.Error(err))
		return
	}
	logger.Info("screenshot saved", zap.String("path", path))
}

func (v *Viewer) frameInstance() {
	insts := v.app.Graph().Instances()
	if len(insts) == 0 {
		return
	}
	v.camera.FitToBounds(insts[0].Bounds())
}

func (v *Viewer) updateTitle() {
	title := v.config.Title + " | " + control.Describe(v.state.Params)
	if rep, ok := v.app.LastReport(); ok {
		title += " | " + control.DescribeStats(rep.Stats)
		if n := len(rep.Failures); n > 0 {
			title += fmt.Sprintf(" (%d failed)", n)
		}
	}
	if title != v.title {
		v.window.SetTitle(title)
		v.title = title
	}
}

func (v *Viewer) render() {
	v.renderer.Begin()

	var items []renderer.DrawItem
	for _, inst := range v.app.Graph().Instances() {
		for _, n := range inst.Nodes {
			items = append(items, renderer.DrawItem{Mesh: n.Mesh, Model: n.Transform})
		}
	}
	v.renderer.Draw(items, v.camera.ViewMatrix(), v.camera.ProjectionMatrix(v.window.Aspect()))

	v.renderer.End()
}
