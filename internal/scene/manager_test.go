package scene

import (
	"errors"
	"testing"

	"github.com/Faultbox/meshlab/internal/assets"
	"github.com/Faultbox/meshlab/internal/session"
)

type fakeSource struct{ ready bool }

func (s *fakeSource) Ready(assets.Handle) bool { return s.ready }

// recordingHost logs every call and hands out sequential ids.
type recordingHost struct {
	calls    []string
	next     InstanceID
	live     map[InstanceID]bool
	spawnErr error
}

func newRecordingHost() *recordingHost {
	return &recordingHost{live: make(map[InstanceID]bool)}
}

func (h *recordingHost) Spawn(assets.Handle, Selector) (InstanceID, error) {
	h.calls = append(h.calls, "spawn")
	if h.spawnErr != nil {
		return 0, h.spawnErr
	}
	h.next++
	h.live[h.next] = true
	return h.next, nil
}

func (h *recordingHost) Destroy(id InstanceID) {
	h.calls = append(h.calls, "destroy")
	if !h.live[id] {
		panic("destroy of unknown instance")
	}
	delete(h.live, id)
}

func TestManagerNoReset(t *testing.T) {
	host := newRecordingHost()
	m := NewManager(&fakeSource{ready: true}, host, assets.Handle{}, Selector{})
	req := session.Requests{}

	if m.Update(&req) {
		t.Error("spawned without a reset request")
	}
	if len(host.calls) != 0 {
		t.Errorf("host calls = %v", host.calls)
	}
	if m.State() != Empty {
		t.Errorf("state = %v, want Empty", m.State())
	}
}

func TestManagerAssetNotReady(t *testing.T) {
	host := newRecordingHost()
	m := NewManager(&fakeSource{}, host, assets.Handle{}, Selector{})
	req := session.New()

	m.Update(&req)

	if m.State() != Empty {
		t.Errorf("state = %v, want Empty", m.State())
	}
	if req.Reset {
		t.Error("Reset not cleared")
	}
	if len(host.calls) != 0 {
		t.Errorf("host calls = %v, want none", host.calls)
	}
}

func TestManagerDeferredReset(t *testing.T) {
	src := &fakeSource{}
	host := newRecordingHost()
	m := NewManager(src, host, assets.Handle{}, Selector{})

	req := session.New()
	m.Update(&req)
	src.ready = true
	m.Update(&req)
	if m.State() != Empty {
		t.Fatal("spawned without a new reset request")
	}

	req.Reset = true
	if !m.Update(&req) {
		t.Fatal("retry did not spawn")
	}
	if id, ok := m.Instance(); !ok || id != 1 {
		t.Errorf("instance = %v, %v", id, ok)
	}
}

func TestManagerRespawn(t *testing.T) {
	host := newRecordingHost()
	m := NewManager(&fakeSource{ready: true}, host, assets.Handle{}, Selector{})

	req := session.New()
	m.Update(&req)
	first, _ := m.Instance()

	req.Reset = true
	m.Update(&req)
	second, ok := m.Instance()

	want := []string{"spawn", "destroy", "spawn"}
	if len(host.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", host.calls, want)
	}
	for i := range want {
		if host.calls[i] != want[i] {
			t.Fatalf("calls = %v, want %v", host.calls, want)
		}
	}
	if !ok || second == first {
		t.Errorf("instance = %v, want a new one after %v", second, first)
	}
	if req.Reset {
		t.Error("Reset not cleared")
	}
	if len(host.live) != 1 {
		t.Errorf("live instances = %d, want 1", len(host.live))
	}
}

func TestManagerSpawnError(t *testing.T) {
	host := newRecordingHost()
	m := NewManager(&fakeSource{ready: true}, host, assets.Handle{}, Selector{})
	req := session.New()
	m.Update(&req)

	host.spawnErr = errors.New("bad scene")
	req.Reset = true
	if m.Update(&req) {
		t.Error("Update reported a spawn")
	}
	if m.State() != Empty {
		t.Errorf("state = %v, want Empty", m.State())
	}
	if len(host.live) != 0 {
		t.Errorf("live instances = %d, want 0", len(host.live))
	}
	if req.Reset {
		t.Error("Reset not cleared")
	}
}

// Repeated resets never leave more than one instance alive.
func TestManagerSingleInstance(t *testing.T) {
	src := &fakeSource{}
	host := newRecordingHost()
	m := NewManager(src, host, assets.Handle{}, Selector{})

	for i := 0; i < 20; i++ {
		src.ready = i%3 != 0
		req := session.Requests{Reset: i%2 == 0}
		m.Update(&req)
		if len(host.live) > 1 {
			t.Fatalf("tick %d: %d live instances", i, len(host.live))
		}
		if id, ok := m.Instance(); ok && !host.live[id] {
			t.Fatalf("tick %d: manager holds destroyed %v", i, id)
		}
	}
}

func TestSelectorString(t *testing.T) {
	tests := []struct {
		sel  Selector
		want string
	}{
		{Selector{}, "#0"},
		{Index(2), "#2"},
		{Named("Helmet"), `"Helmet"`},
	}
	for _, tt := range tests {
		if got := tt.sel.String(); got != tt.want {
			t.Errorf("%#v.String() = %q, want %q", tt.sel, got, tt.want)
		}
	}
}
