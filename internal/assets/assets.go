// Package assets loads scene assets in the background and hands out
// reference-counted handles whose readiness can be polled without blocking.
package assets

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/meshlab/internal/engine/model"
	"github.com/Faultbox/meshlab/internal/logger"
)

// ErrUnsupportedFormat is returned for files no loader understands.
var ErrUnsupportedFormat = errors.New("unsupported asset format")

// MeshNode is one mesh placed in a sub-scene.
type MeshNode struct {
	Name      string
	Transform mgl32.Mat4
	Mesh      *model.Mesh
}

// SubScene is an independently instantiable part of an asset.
type SubScene struct {
	Name  string
	Nodes []MeshNode
}

// Asset is a loaded source file. Its meshes are templates; spawned instances
// work on clones.
type Asset struct {
	Path   string
	Scenes []SubScene
}

// SceneByName returns the first sub-scene called name.
func (a *Asset) SceneByName(name string) (*SubScene, bool) {
	for i := range a.Scenes {
		if a.Scenes[i].Name == name {
			return &a.Scenes[i], true
		}
	}
	return nil, false
}

// LoadFunc decodes the asset at path. It runs on a background goroutine.
type LoadFunc func(path string) (*Asset, error)

// LoadFile picks a decoder from the file extension.
func LoadFile(path string) (*Asset, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gltf", ".glb":
		return LoadGLTF(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// Handle identifies an asset owned by a Server. The zero Handle is invalid.
type Handle struct {
	id  uint64
	srv *Server
}

// Valid reports whether h refers to a server entry.
func (h Handle) Valid() bool { return h.srv != nil && h.id != 0 }

// ID returns the handle's numeric id.
func (h Handle) ID() uint64 { return h.id }

// Clone takes another reference to the asset.
func (h Handle) Clone() Handle {
	if h.Valid() {
		h.srv.retain(h.id)
	}
	return h
}

// Release drops one reference. The asset is freed with its last reference.
func (h Handle) Release() {
	if h.Valid() {
		h.srv.release(h.id)
	}
}

func (h Handle) String() string {
	return fmt.Sprintf("asset#%d", h.id)
}

type record struct {
	path  string
	refs  int
	done  bool
	asset *Asset
	err   error
}

// Server owns loaded assets.
type Server struct {
	load LoadFunc

	mu      sync.RWMutex
	next    uint64
	records map[uint64]*record
	wg      sync.WaitGroup
}

// NewServer returns a server that decodes files with load.
// A nil load uses LoadFile.
func NewServer(load LoadFunc) *Server {
	if load == nil {
		load = LoadFile
	}
	return &Server{
		load:    load,
		records: make(map[uint64]*record),
	}
}

// Load starts decoding path in the background and returns its handle at once.
// Every call creates a new entry; nothing is cached by path.
func (s *Server) Load(path string) Handle {
	h, rec := s.add(path)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		asset, err := s.safeLoad(path)

		s.mu.Lock()
		rec.asset, rec.err, rec.done = asset, err, true
		s.mu.Unlock()

		if err != nil {
			logger.Error("asset load failed", zap.String("path", path), zap.Error(err))
			return
		}
		logger.Info("asset loaded",
			zap.String("path", path),
			zap.Int("scenes", len(asset.Scenes)),
		)
	}()
	return h
}

// safeLoad runs the loader, turning a decoder panic into a load error so a
// malformed file cannot take the process down.
func (s *Server) safeLoad(path string) (asset *Asset, err error) {
	defer func() {
		if r := recover(); r != nil {
			asset, err = nil, fmt.Errorf("decoding %s: panic: %v", path, r)
		}
	}()
	return s.load(path)
}

// Insert registers an already decoded asset. It is ready immediately.
func (s *Server) Insert(a *Asset) Handle {
	h, rec := s.add(a.Path)
	s.mu.Lock()
	rec.asset, rec.done = a, true
	s.mu.Unlock()
	return h
}

func (s *Server) add(path string) (Handle, *record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	rec := &record{path: path, refs: 1}
	s.records[s.next] = rec
	return Handle{id: s.next, srv: s}, rec
}

// Ready reports whether h finished loading successfully. It never blocks on
// the loader.
func (s *Server) Ready(h Handle) bool {
	_, ok := s.Get(h)
	return ok
}

// Get returns the asset once it is ready.
func (s *Server) Get(h Handle) (*Asset, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[h.id]
	if !ok || !rec.done || rec.err != nil {
		return nil, false
	}
	return rec.asset, true
}

// Err returns the load error for h, if loading finished with one.
func (s *Server) Err(h Handle) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rec, ok := s.records[h.id]; ok && rec.done {
		return rec.err
	}
	return nil
}

// Len returns the number of live entries.
func (s *Server) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Wait blocks until every background load has finished. Intended for shutdown
// and tests; the tick loop only polls Ready.
func (s *Server) Wait() {
	s.wg.Wait()
}

func (s *Server) retain(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.records[id]; ok {
		rec.refs++
	}
}

func (s *Server) release(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return
	}
	rec.refs--
	if rec.refs <= 0 {
		delete(s.records, id)
		logger.Debug("asset released", zap.String("path", rec.path))
	}
}
