package scene

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/meshlab/internal/assets"
	"github.com/Faultbox/meshlab/internal/engine/model"
	"github.com/Faultbox/meshlab/internal/logger"
)

var (
	// ErrAssetNotReady is returned when spawning from an asset that has not loaded.
	ErrAssetNotReady = errors.New("asset not ready")
	// ErrNoSubScene is returned when a selector matches no sub-scene.
	ErrNoSubScene = errors.New("no such sub-scene")
)

// AssetStore resolves handles to loaded assets.
type AssetStore interface {
	Get(h assets.Handle) (*assets.Asset, bool)
}

// Node is one mesh of a live instance. Its mesh is owned by the instance.
type Node struct {
	Name      string
	Transform mgl32.Mat4
	Mesh      *model.Mesh
}

// Instance is a spawned copy of a sub-scene.
type Instance struct {
	ID    InstanceID
	Scene string
	Nodes []Node

	handle assets.Handle
}

type commandKind uint8

const (
	cmdSpawn commandKind = iota
	cmdDestroy
)

type command struct {
	kind   commandKind
	id     InstanceID
	handle assets.Handle
	scene  *assets.SubScene
}

// Graph hosts live instances. Spawn and Destroy only queue commands; Apply
// carries them out in order.
type Graph struct {
	store AssetStore

	next      InstanceID
	queue     []command
	instances map[InstanceID]*Instance
	order     []InstanceID
	// ids spawned or queued for spawn and not yet queued for destroy
	known map[InstanceID]bool
}

// NewGraph returns an empty graph reading assets from store.
func NewGraph(store AssetStore) *Graph {
	return &Graph{
		store:     store,
		instances: make(map[InstanceID]*Instance),
		known:     make(map[InstanceID]bool),
	}
}

// Spawn queues an instance of the sub-scene sel picks from the asset behind h.
// The sub-scene is resolved now so that a bad selector fails immediately.
func (g *Graph) Spawn(h assets.Handle, sel Selector) (InstanceID, error) {
	asset, ok := g.store.Get(h)
	if !ok {
		return 0, fmt.Errorf("spawn %s: %w", h, ErrAssetNotReady)
	}
	sub, err := resolve(asset, sel)
	if err != nil {
		return 0, fmt.Errorf("spawn %s: %w", h, err)
	}

	g.next++
	id := g.next
	g.known[id] = true
	g.queue = append(g.queue, command{kind: cmdSpawn, id: id, handle: h.Clone(), scene: sub})
	return id, nil
}

// Destroy queues removal of id. It panics if id is not alive or pending.
func (g *Graph) Destroy(id InstanceID) {
	if !g.known[id] {
		panic(fmt.Sprintf("scene: destroy of unknown %s", id))
	}
	delete(g.known, id)
	g.queue = append(g.queue, command{kind: cmdDestroy, id: id})
}

// Pending returns the number of queued commands.
func (g *Graph) Pending() int { return len(g.queue) }

// Apply executes queued commands and returns how many ran.
func (g *Graph) Apply() int {
	n := len(g.queue)
	for _, cmd := range g.queue {
		switch cmd.kind {
		case cmdSpawn:
			g.spawn(cmd)
		case cmdDestroy:
			g.destroy(cmd.id)
		}
	}
	g.queue = g.queue[:0]
	return n
}

func (g *Graph) spawn(cmd command) {
	inst := &Instance{
		ID:     cmd.id,
		Scene:  cmd.scene.Name,
		Nodes:  make([]Node, len(cmd.scene.Nodes)),
		handle: cmd.handle,
	}
	// Shared templates are cloned once each so nodes that reuse a mesh
	// keep sharing it inside the instance.
	clones := make(map[*model.Mesh]*model.Mesh)
	for i, src := range cmd.scene.Nodes {
		m, ok := clones[src.Mesh]
		if !ok && src.Mesh != nil {
			m = src.Mesh.Clone()
			clones[src.Mesh] = m
		}
		inst.Nodes[i] = Node{Name: src.Name, Transform: src.Transform, Mesh: m}
	}
	g.instances[cmd.id] = inst
	g.order = append(g.order, cmd.id)
	logger.Debug("instance created",
		zap.Stringer("instance", cmd.id),
		zap.String("scene", inst.Scene),
		zap.Int("meshes", len(clones)),
	)
}

func (g *Graph) destroy(id InstanceID) {
	inst := g.instances[id]
	delete(g.instances, id)
	for i, o := range g.order {
		if o == id {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
	inst.handle.Release()
}

// Instance returns the live instance with the given id.
func (g *Graph) Instance(id InstanceID) (*Instance, bool) {
	inst, ok := g.instances[id]
	return inst, ok
}

// Instances returns live instances in spawn order.
func (g *Graph) Instances() []*Instance {
	out := make([]*Instance, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.instances[id])
	}
	return out
}

// Len returns the number of live instances.
func (g *Graph) Len() int { return len(g.instances) }

// Meshes returns every distinct mesh of the live instances in spawn order.
func (g *Graph) Meshes() []*model.Mesh {
	var out []*model.Mesh
	seen := make(map[*model.Mesh]bool)
	for _, id := range g.order {
		for _, n := range g.instances[id].Nodes {
			if n.Mesh == nil || seen[n.Mesh] {
				continue
			}
			seen[n.Mesh] = true
			out = append(out, n.Mesh)
		}
	}
	return out
}

func resolve(a *assets.Asset, sel Selector) (*assets.SubScene, error) {
	if sel.Name != "" {
		if sub, ok := a.SceneByName(sel.Name); ok {
			return sub, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrNoSubScene, sel)
	}
	if sel.Index < 0 || sel.Index >= len(a.Scenes) {
		return nil, fmt.Errorf("%w: %s of %d", ErrNoSubScene, sel, len(a.Scenes))
	}
	return &a.Scenes[sel.Index], nil
}

// Bounds returns the world-space bounds of the instance, from each node's
// mesh bounds under its transform. An instance without vertices has zero bounds.
func (inst *Instance) Bounds() model.Bounds {
	var (
		out   model.Bounds
		first = true
	)
	for _, n := range inst.Nodes {
		if n.Mesh == nil || len(n.Mesh.Vertices) == 0 {
			continue
		}
		b := n.Mesh.Bounds
		for c := 0; c < 8; c++ {
			corner := [3]float32{b.Min[0], b.Min[1], b.Min[2]}
			for axis := 0; axis < 3; axis++ {
				if c&(1<<axis) != 0 {
					corner[axis] = b.Max[axis]
				}
			}
			p := model.TransformPoint(n.Transform, corner)
			if first {
				out = model.Bounds{Min: p, Max: p}
				first = false
				continue
			}
			out.Include(p)
		}
	}
	return out
}
