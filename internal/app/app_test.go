package app

import (
	"context"
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/meshlab/internal/assets"
	"github.com/Faultbox/meshlab/internal/engine/model"
	"github.com/Faultbox/meshlab/internal/journal"
	"github.com/Faultbox/meshlab/internal/scene"
	"github.com/Faultbox/meshlab/internal/simplify"
)

// halve drops the second half of every index buffer, rounded to triangles.
var halve = simplify.DecimatorFunc(func(m *model.Mesh, p simplify.Params) error {
	target := p.Target.Resolve(m.IndexCount()) / 3 * 3
	if target < m.IndexCount() {
		m.Indices.U32 = m.Indices.U32[:target]
	}
	return nil
})

func stripMesh(name string, tris int) *model.Mesh {
	m := &model.Mesh{Name: name, Vertices: make([]model.Vertex, tris+2)}
	for i := range m.Vertices {
		m.Vertices[i].Position = [3]float32{float32(i / 2), float32(i % 2), 0}
	}
	for t := 0; t < tris; t++ {
		m.Indices.U16 = append(m.Indices.U16, uint16(t), uint16(t+1), uint16(t+2))
	}
	return m
}

func newTestApp(t *testing.T, d simplify.Decimator) (*App, *assets.Server) {
	t.Helper()
	srv := assets.NewServer(nil)
	h := srv.Insert(&assets.Asset{
		Path: "strip",
		Scenes: []assets.SubScene{{Name: "main", Nodes: []assets.MeshNode{
			{Name: "a", Transform: mgl32.Ident4(), Mesh: stripMesh("a", 100)},
			{Name: "b", Transform: mgl32.Ident4(), Mesh: stripMesh("b", 50)},
		}}},
	})
	return New(srv, h, scene.Selector{}, d), srv
}

func TestStartupReset(t *testing.T) {
	a, _ := newTestApp(t, halve)
	s := NewState(simplify.DefaultParams())

	res := a.Tick(context.Background(), s)
	if !res.Spawned {
		t.Fatal("first tick did not spawn")
	}
	if s.Requests.Reset {
		t.Error("Reset not cleared")
	}
	if res.Simplified {
		t.Error("simplified without a request")
	}
	if got := len(a.Graph().Meshes()); got != 2 {
		t.Errorf("meshes = %d, want 2", got)
	}
}

func TestResetAndSimplifySameTick(t *testing.T) {
	a, _ := newTestApp(t, halve)
	s := NewState(simplify.Params{MaxError: 0.01, Target: simplify.Multiplier(0.5)})
	ctx := context.Background()

	s.Requests.Simplify = true
	res := a.Tick(ctx, s)
	if !res.Spawned || !res.Simplified {
		t.Fatalf("result = %+v", res)
	}
	want := simplify.Stats{PositionsBefore: 154, PositionsAfter: 154, IndicesBefore: 450, IndicesAfter: 225}
	if res.Report.Stats != want {
		t.Errorf("stats = %+v, want %+v", res.Report.Stats, want)
	}

	// Simplify again without reset: works on already reduced geometry.
	s.Requests.Simplify = true
	res = a.Tick(ctx, s)
	if res.Report.Stats.IndicesBefore != 225 {
		t.Errorf("second pass before = %d, want 225", res.Report.Stats.IndicesBefore)
	}

	// Reset plus simplify sees the fresh instance, not the reduced one.
	s.Requests.Reset, s.Requests.Simplify = true, true
	res = a.Tick(ctx, s)
	if res.Report.Stats.IndicesBefore != 450 {
		t.Errorf("pass after reset before = %d, want 450", res.Report.Stats.IndicesBefore)
	}
	if !s.Requests.Idle() {
		t.Errorf("requests = %+v, want idle", s.Requests)
	}
	if a.Graph().Len() != 1 {
		t.Errorf("live instances = %d, want 1", a.Graph().Len())
	}
	if a.Passes() != 3 {
		t.Errorf("passes = %d, want 3", a.Passes())
	}
}

func TestResetRestoresGeometry(t *testing.T) {
	a, _ := newTestApp(t, halve)
	s := NewState(simplify.DefaultParams())
	ctx := context.Background()

	a.Tick(ctx, s)
	s.Requests.Simplify = true
	a.Tick(ctx, s)

	s.Requests.Reset = true
	a.Tick(ctx, s)
	total := 0
	for _, m := range a.Graph().Meshes() {
		total += m.IndexCount()
	}
	if total != 450 {
		t.Errorf("indices after reset = %d, want 450", total)
	}
}

func TestFailureKeepsMeshes(t *testing.T) {
	errBad := errors.New("bad mesh")
	a, _ := newTestApp(t, simplify.DecimatorFunc(func(*model.Mesh, simplify.Params) error { return errBad }))
	s := NewState(simplify.DefaultParams())
	s.Requests.Simplify = true

	res := a.Tick(context.Background(), s)
	st := res.Report.Stats
	if st.IndicesBefore != st.IndicesAfter || st.PositionsBefore != st.PositionsAfter {
		t.Errorf("stats changed on failure: %+v", st)
	}
	if len(res.Report.Failures) != 2 {
		t.Errorf("failures = %d, want 2", len(res.Report.Failures))
	}
	if s.Requests.Simplify {
		t.Error("Simplify not cleared")
	}
}

func TestSimplifyWithoutInstance(t *testing.T) {
	block := make(chan struct{})
	t.Cleanup(func() { close(block) })
	srv := assets.NewServer(func(string) (*assets.Asset, error) {
		<-block
		return nil, errors.New("cancelled")
	})
	h := srv.Load("never.glb")
	a := New(srv, h, scene.Selector{}, halve)
	s := NewState(simplify.DefaultParams())
	s.Requests.Simplify = true

	res := a.Tick(context.Background(), s)
	if res.Spawned {
		t.Error("spawned an unready asset")
	}
	if !res.Simplified || res.Report.Meshes != 0 {
		t.Errorf("result = %+v", res)
	}
	if !s.Requests.Idle() {
		t.Errorf("requests = %+v, want idle", s.Requests)
	}
}

type fakeRecorder struct {
	asset   string
	reports []simplify.Report
	err     error
}

func (r *fakeRecorder) Record(_ context.Context, asset string, rep simplify.Report) (journal.Pass, error) {
	r.asset = asset
	r.reports = append(r.reports, rep)
	return journal.Pass{}, r.err
}

func TestRecorder(t *testing.T) {
	a, _ := newTestApp(t, halve)
	rec := &fakeRecorder{}
	a.SetRecorder(rec, "strip.glb")
	s := NewState(simplify.DefaultParams())
	ctx := context.Background()

	a.Tick(ctx, s)
	if len(rec.reports) != 0 {
		t.Fatal("recorded a tick without a pass")
	}

	s.Requests.Simplify = true
	a.Tick(ctx, s)
	if len(rec.reports) != 1 || rec.asset != "strip.glb" {
		t.Fatalf("recorded %d reports for %q", len(rec.reports), rec.asset)
	}

	rec.err = errors.New("disk full")
	s.Requests.Simplify = true
	res := a.Tick(ctx, s)
	if !res.Simplified {
		t.Error("journal error aborted the pass")
	}
	if last, ok := a.LastReport(); !ok || last.Stats != res.Report.Stats {
		t.Errorf("LastReport = %+v, %v", last, ok)
	}
}
