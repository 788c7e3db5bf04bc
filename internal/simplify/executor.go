package simplify

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/meshlab/internal/engine/model"
	"github.com/Faultbox/meshlab/internal/logger"
	"github.com/Faultbox/meshlab/internal/session"
)

// Decimator reduces a mesh in place. On error the mesh must be left as it was.
// A successful call never increases the index count.
type Decimator interface {
	Simplify(mesh *model.Mesh, p Params) error
}

// DecimatorFunc adapts a function to Decimator.
type DecimatorFunc func(mesh *model.Mesh, p Params) error

// Simplify calls f.
func (f DecimatorFunc) Simplify(mesh *model.Mesh, p Params) error { return f(mesh, p) }

// MeshSource enumerates the mesh buffers a pass should visit.
type MeshSource interface {
	Meshes() []*model.Mesh
}

// Failure records one mesh the decimator rejected.
type Failure struct {
	Mesh string
	Err  error
}

// Report is the outcome of one simplify pass.
type Report struct {
	Params   Params
	Stats    Stats
	Meshes   int
	Failures []Failure
}

// Executor services simplify requests.
type Executor struct {
	decimator Decimator
	source    MeshSource
	stats     Stats
}

// NewExecutor returns an executor that decimates the meshes of source.
func NewExecutor(d Decimator, source MeshSource) *Executor {
	return &Executor{decimator: d, source: source}
}

// Stats returns the totals of the last pass.
func (e *Executor) Stats() Stats {
	return e.stats
}

// Update runs a pass when req.Simplify is set and clears it afterwards.
// It returns the pass report and true if a pass ran.
func (e *Executor) Update(req *session.Requests, p Params) (Report, bool) {
	if !req.Simplify {
		return Report{}, false
	}
	defer func() { req.Simplify = false }()

	logger.Info("simplify params",
		zap.Float32("max_error", p.MaxError),
		zap.Stringer("target", p.Target),
		zap.Stringer("options", p.Options),
		zap.Bool("sloppy", p.Sloppy),
	)

	e.stats.Reset()
	report := Report{Params: p}

	for i, mesh := range e.source.Meshes() {
		if mesh == nil {
			continue
		}
		report.Meshes++
		e.stats.AddBefore(mesh)

		mesh.EnsureIndicesU32()
		if err := e.decimator.Simplify(mesh, p); err != nil {
			name := meshName(mesh, i)
			logger.Error("mesh simplification failed",
				zap.String("mesh", name),
				zap.Int("positions", mesh.PositionCount()),
				zap.Int("indices", mesh.IndexCount()),
				zap.Error(err),
			)
			report.Failures = append(report.Failures, Failure{Mesh: name, Err: err})
		}

		e.stats.AddAfter(mesh)
	}

	logger.Info("positions",
		zap.Int("before", e.stats.PositionsBefore),
		zap.Int("after", e.stats.PositionsAfter),
	)
	logger.Info("indices",
		zap.Int("before", e.stats.IndicesBefore),
		zap.Int("after", e.stats.IndicesAfter),
		zap.Int("meshes", report.Meshes),
		zap.Int("failed", len(report.Failures)),
	)

	report.Stats = e.stats
	return report, true
}

func meshName(m *model.Mesh, i int) string {
	if m.Name != "" {
		return m.Name
	}
	return fmt.Sprintf("mesh#%d", i)
}
