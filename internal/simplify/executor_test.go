package simplify

import (
	"errors"
	"testing"

	"github.com/Faultbox/meshlab/internal/engine/model"
	"github.com/Faultbox/meshlab/internal/session"
)

type meshList []*model.Mesh

func (l meshList) Meshes() []*model.Mesh { return l }

// truncator keeps the first Resolve(n) indices; it honours the decimator
// contract without doing real geometry work.
type truncator struct {
	calls int
}

func (d *truncator) Simplify(m *model.Mesh, p Params) error {
	d.calls++
	target := p.Target.Resolve(m.IndexCount())
	if target < m.IndexCount() {
		m.Indices.U32 = m.Indices.U32[:target]
	}
	return nil
}

var errDegenerate = errors.New("degenerate mesh")

func failing(*model.Mesh, Params) error { return errDegenerate }

func gridMesh(name string, positions, indices int) *model.Mesh {
	m := &model.Mesh{Name: name, Vertices: make([]model.Vertex, positions)}
	m.Indices.U16 = make([]uint16, indices)
	for i := range m.Indices.U16 {
		m.Indices.U16[i] = uint16(i % positions)
	}
	return m
}

func TestUpdateIdle(t *testing.T) {
	d := &truncator{}
	e := NewExecutor(d, meshList{gridMesh("a", 10, 30)})
	req := session.Requests{}

	if _, ran := e.Update(&req, DefaultParams()); ran {
		t.Error("executor ran without a request")
	}
	if d.calls != 0 {
		t.Errorf("decimator called %d times", d.calls)
	}
	if req.Simplify {
		t.Error("flag set by idle update")
	}
}

func TestUpdateSuccess(t *testing.T) {
	mesh := gridMesh("helmet", 1000, 3000)
	d := &truncator{}
	e := NewExecutor(d, meshList{mesh})
	req := session.Requests{Simplify: true}
	p := DefaultParams()
	p.Target = Count(500)

	report, ran := e.Update(&req, p)
	if !ran {
		t.Fatal("executor did not run")
	}
	if req.Simplify {
		t.Error("Simplify flag not cleared")
	}

	s := report.Stats
	if s.PositionsBefore != 1000 || s.IndicesBefore != 3000 {
		t.Errorf("before = (%d,%d), want (1000,3000)", s.PositionsBefore, s.IndicesBefore)
	}
	if s.PositionsAfter > 1000 {
		t.Errorf("positions after = %d, want <= 1000", s.PositionsAfter)
	}
	if s.IndicesAfter != 500 {
		t.Errorf("indices after = %d, want 500", s.IndicesAfter)
	}
	if mesh.Indices.Format() != model.IndexU32 {
		t.Error("indices were not normalised to u32")
	}
	if e.Stats() != s {
		t.Error("Stats() differs from report")
	}
}

func TestUpdateFailureLeavesMesh(t *testing.T) {
	mesh := gridMesh("visor", 1000, 3000)
	e := NewExecutor(DecimatorFunc(failing), meshList{mesh})
	req := session.Requests{Simplify: true}

	report, ran := e.Update(&req, DefaultParams())
	if !ran {
		t.Fatal("executor did not run")
	}
	if req.Simplify {
		t.Error("Simplify flag not cleared after failure")
	}
	s := report.Stats
	if s.PositionsBefore != s.PositionsAfter || s.IndicesBefore != s.IndicesAfter {
		t.Errorf("before %+v != after", s)
	}
	if len(report.Failures) != 1 || report.Failures[0].Mesh != "visor" {
		t.Fatalf("failures = %+v", report.Failures)
	}
	if !errors.Is(report.Failures[0].Err, errDegenerate) {
		t.Errorf("failure error = %v", report.Failures[0].Err)
	}
	if mesh.IndexCount() != 3000 {
		t.Errorf("mesh changed: %d indices", mesh.IndexCount())
	}
}

func TestUpdateContinuesAfterFailure(t *testing.T) {
	bad := gridMesh("", 10, 30)
	good := gridMesh("good", 10, 30)
	d := DecimatorFunc(func(m *model.Mesh, p Params) error {
		if m == bad {
			return errDegenerate
		}
		m.Indices.U32 = m.Indices.U32[:3]
		return nil
	})
	e := NewExecutor(d, meshList{bad, good})
	req := session.Requests{Simplify: true}

	report, _ := e.Update(&req, DefaultParams())
	if report.Meshes != 2 {
		t.Errorf("Meshes = %d, want 2", report.Meshes)
	}
	if len(report.Failures) != 1 || report.Failures[0].Mesh != "mesh#0" {
		t.Errorf("failures = %+v", report.Failures)
	}
	if good.IndexCount() != 3 {
		t.Errorf("second mesh not simplified: %d", good.IndexCount())
	}
	if report.Stats.IndicesBefore != 60 || report.Stats.IndicesAfter != 33 {
		t.Errorf("stats = %+v", report.Stats)
	}
}

func TestUpdateNoMeshes(t *testing.T) {
	e := NewExecutor(&truncator{}, meshList{})
	req := session.Requests{Simplify: true, Reset: true}

	report, ran := e.Update(&req, DefaultParams())
	if !ran {
		t.Fatal("executor did not run")
	}
	if req.Simplify {
		t.Error("Simplify flag not cleared")
	}
	if !req.Reset {
		t.Error("executor must not touch the Reset flag")
	}
	if report.Stats != (Stats{}) {
		t.Errorf("stats = %+v, want zero", report.Stats)
	}
	if report.Stats.TriangleRatio() != 1 {
		t.Errorf("TriangleRatio = %f, want 1", report.Stats.TriangleRatio())
	}
}

func TestStatsResetBetweenPasses(t *testing.T) {
	mesh := gridMesh("a", 10, 30)
	e := NewExecutor(&truncator{}, meshList{mesh})
	p := Params{Target: Multiplier(1)}

	req := session.Requests{Simplify: true}
	e.Update(&req, p)
	req.Simplify = true
	report, _ := e.Update(&req, p)

	if report.Stats.IndicesBefore != 30 {
		t.Errorf("IndicesBefore = %d, counters leaked across passes", report.Stats.IndicesBefore)
	}
}
