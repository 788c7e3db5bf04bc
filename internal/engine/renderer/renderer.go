// Package renderer draws live mesh instances with OpenGL.
package renderer

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/meshlab/internal/engine/model"
	"github.com/Faultbox/meshlab/internal/engine/shader"
	"github.com/Faultbox/meshlab/internal/logger"
)

// Config holds renderer configuration.
type Config struct {
	Width  int
	Height int
	VSync  bool
}

// DrawItem is one mesh placed in the world.
type DrawItem struct {
	Mesh  *model.Mesh
	Model mgl32.Mat4
}

type gpuMesh struct {
	vao, vbo, ebo uint32
	count         int32
}

// Renderer handles all OpenGL rendering.
type Renderer struct {
	config Config

	program  *shader.Program
	locMVP   int32
	locColor int32

	meshes map[*model.Mesh]*gpuMesh

	Fill      mgl32.Vec3
	Wireframe mgl32.Vec3
}

// New creates a new renderer.
// IMPORTANT: Must be called AFTER OpenGL context is created!
func New(cfg Config) (*Renderer, error) {
	r := &Renderer{
		config:    cfg,
		meshes:    make(map[*model.Mesh]*gpuMesh),
		Fill:      mgl32.Vec3{0.35, 0.38, 0.45},
		Wireframe: mgl32.Vec3{0.9, 0.9, 0.95},
	}

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	version := gl.GoStr(gl.GetString(gl.VERSION))
	rendererName := gl.GoStr(gl.GetString(gl.RENDERER))
	logger.Info("OpenGL initialized",
		zap.String("version", version),
		zap.String("renderer", rendererName),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.Enable(gl.MULTISAMPLE)
	gl.DepthFunc(gl.LESS)
	gl.ClearColor(0.1, 0.1, 0.15, 1.0)
	gl.Viewport(0, 0, int32(cfg.Width), int32(cfg.Height))

	var err error
	r.program, err = shader.Compile(shader.Vertex(vertexSource), shader.Fragment(fragmentSource))
	if err != nil {
		return nil, fmt.Errorf("failed to create shader program: %w", err)
	}
	r.locMVP = r.program.Uniform("uMVP")
	r.locColor = r.program.Uniform("uColor")

	return r, nil
}

// Close cleans up renderer resources.
func (r *Renderer) Close() {
	logger.Info("closing renderer")
	r.Invalidate()
	if r.program != nil {
		r.program.Delete()
	}
}

// Resize handles window resize.
func (r *Renderer) Resize(width, height int) {
	r.config.Width = width
	r.config.Height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	logger.Debug("renderer resized",
		zap.Int("width", width),
		zap.Int("height", height),
	)
}

// Invalidate drops every uploaded mesh. Call it after meshes were replaced
// or edited in place; they are uploaded again on the next Draw.
func (r *Renderer) Invalidate() {
	for m, g := range r.meshes {
		gl.DeleteVertexArrays(1, &g.vao)
		gl.DeleteBuffers(1, &g.vbo)
		gl.DeleteBuffers(1, &g.ebo)
		delete(r.meshes, m)
	}
}

// Begin starts a new frame.
func (r *Renderer) Begin() {
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// End finishes the current frame.
func (r *Renderer) End() {
	gl.BindVertexArray(0)
	gl.UseProgram(0)
}

// ReadPixels returns the current back buffer as bottom-up RGBA rows.
func (r *Renderer) ReadPixels() (pixels []byte, width, height int) {
	width, height = r.config.Width, r.config.Height
	pixels = make([]byte, width*height*4)
	if len(pixels) == 0 {
		return pixels, width, height
	}
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, unsafe.Pointer(&pixels[0]))
	return pixels, width, height
}

// Draw renders items as flat-shaded surfaces with a wireframe overlay.
func (r *Renderer) Draw(items []DrawItem, view, proj mgl32.Mat4) {
	r.program.Use()
	viewProj := proj.Mul4(view)

	for _, it := range items {
		g := r.upload(it.Mesh)
		if g == nil {
			continue
		}
		mvp := viewProj.Mul4(it.Model)
		gl.UniformMatrix4fv(r.locMVP, 1, false, &mvp[0])
		gl.BindVertexArray(g.vao)

		gl.Enable(gl.POLYGON_OFFSET_FILL)
		gl.PolygonOffset(1, 1)
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
		gl.Uniform3fv(r.locColor, 1, &r.Fill[0])
		gl.DrawElements(gl.TRIANGLES, g.count, gl.UNSIGNED_INT, nil)
		gl.Disable(gl.POLYGON_OFFSET_FILL)

		gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
		gl.Uniform3fv(r.locColor, 1, &r.Wireframe[0])
		gl.DrawElements(gl.TRIANGLES, g.count, gl.UNSIGNED_INT, nil)
	}
	gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
}

// upload returns the GPU copy of m, creating it on first use.
func (r *Renderer) upload(m *model.Mesh) *gpuMesh {
	if g, ok := r.meshes[m]; ok {
		return g
	}
	if m == nil || len(m.Vertices) == 0 {
		return nil
	}

	indices := make([]uint32, m.IndexCount())
	for i := range indices {
		indices[i] = m.Indices.At(i)
	}
	if m.Indices.Format() == model.IndexNone {
		indices = make([]uint32, len(m.Vertices))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}
	if len(indices) == 0 {
		return nil
	}

	g := &gpuMesh{count: int32(len(indices))}
	gl.GenVertexArrays(1, &g.vao)
	gl.BindVertexArray(g.vao)

	stride := int32(unsafe.Sizeof(model.Vertex{}))
	gl.GenBuffers(1, &g.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, g.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(m.Vertices)*int(stride), unsafe.Pointer(&m.Vertices[0]), gl.STATIC_DRAW)

	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, stride, nil)
	gl.EnableVertexAttribArray(0)

	gl.GenBuffers(1, &g.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, g.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, unsafe.Pointer(&indices[0]), gl.STATIC_DRAW)

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	r.meshes[m] = g
	logger.Debug("mesh uploaded",
		zap.String("mesh", m.Name),
		zap.Int("vertices", len(m.Vertices)),
		zap.Int("indices", len(indices)),
	)
	return g
}

const vertexSource = `
#version 410 core

layout (location = 0) in vec3 aPos;

uniform mat4 uMVP;

void main() {
	gl_Position = uMVP * vec4(aPos, 1.0);
}
`

const fragmentSource = `
#version 410 core

uniform vec3 uColor;
out vec4 FragColor;

void main() {
	FragColor = vec4(uColor, 1.0);
}
`
