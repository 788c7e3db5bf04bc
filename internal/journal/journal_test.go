package journal

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/Faultbox/meshlab/internal/simplify"
)

func openTest(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func TestNewDB(t *testing.T) {
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	defer db.Close()

	var name string
	err = db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='passes'").Scan(&name)
	if err != nil {
		t.Fatalf("passes table not found: %v", err)
	}
}

func TestNewDB_IdempotentMigration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	db1, err := NewDB(path)
	if err != nil {
		t.Fatalf("first NewDB: %v", err)
	}
	db1.Close()

	db2, err := NewDB(path)
	if err != nil {
		t.Fatalf("second NewDB: %v", err)
	}
	db2.Close()
}

func TestRecordAndList(t *testing.T) {
	j := openTest(t)
	ctx := context.Background()

	base := time.Unix(1700000000, 0)
	tick := 0
	j.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	params := simplify.Params{MaxError: 0.05, Target: simplify.Count(500), Options: simplify.LockBorder, Sloppy: true}
	first, err := j.Record(ctx, "helmet.gltf", simplify.Report{
		Params: params,
		Stats:  simplify.Stats{PositionsBefore: 1000, PositionsAfter: 400, IndicesBefore: 3000, IndicesAfter: 500},
		Meshes: 1,
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	second, err := j.Record(ctx, "helmet.gltf", simplify.Report{
		Params:   simplify.DefaultParams(),
		Meshes:   2,
		Failures: []simplify.Failure{{Mesh: "lens", Err: errors.New("degenerate")}},
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if first.ID == second.ID {
		t.Error("pass ids collide")
	}

	passes, err := j.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(passes) != 2 {
		t.Fatalf("got %d passes, want 2", len(passes))
	}
	if passes[0].ID != second.ID {
		t.Errorf("newest pass = %s, want %s", passes[0].ID, second.ID)
	}
	if passes[0].Failures != 1 || passes[0].Meshes != 2 {
		t.Errorf("failures/meshes = %d/%d", passes[0].Failures, passes[0].Meshes)
	}

	got := passes[1]
	if got.SessionID != j.Session() || got.Asset != "helmet.gltf" {
		t.Errorf("session/asset = %s/%s", got.SessionID, got.Asset)
	}
	if got.Target != "Count(500)" || got.Options != "LockBorder" || !got.Sloppy || got.MaxError != 0.05 {
		t.Errorf("params = %+v", got)
	}
	if got.Stats != first.Stats {
		t.Errorf("stats = %+v, want %+v", got.Stats, first.Stats)
	}
	if !got.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("created = %v, want %v", got.CreatedAt, first.CreatedAt)
	}
}

func TestListLimit(t *testing.T) {
	j := openTest(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if _, err := j.Record(ctx, "a", simplify.Report{Params: simplify.DefaultParams()}); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	passes, err := j.List(ctx, 3)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(passes) != 3 {
		t.Errorf("got %d passes, want 3", len(passes))
	}
}

func TestSessionsShareFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	ctx := context.Background()

	j1, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := j1.Record(ctx, "a", simplify.Report{Params: simplify.DefaultParams()}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	j1.Close()

	j2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer j2.Close()
	if j2.Session() == j1.Session() {
		t.Error("reopened journal reused the session id")
	}
	passes, err := j2.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(passes) != 1 || passes[0].SessionID != j1.Session() {
		t.Errorf("passes = %+v", passes)
	}
}
