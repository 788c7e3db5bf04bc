// Package shader compiles and links GLSL programs.
package shader

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/meshlab/internal/logger"
)

// Stage is one shader source and its GL type (gl.VERTEX_SHADER, ...).
type Stage struct {
	Kind   uint32
	Source string
}

// Vertex returns a vertex stage.
func Vertex(src string) Stage { return Stage{Kind: gl.VERTEX_SHADER, Source: src} }

// Fragment returns a fragment stage.
func Fragment(src string) Stage { return Stage{Kind: gl.FRAGMENT_SHADER, Source: src} }

// Program is a linked GL program with a uniform location cache.
type Program struct {
	ID       uint32
	uniforms map[string]int32
}

// Compile compiles every stage and links them. Requires a current GL context.
func Compile(stages ...Stage) (*Program, error) {
	if len(stages) == 0 {
		return nil, fmt.Errorf("no shader stages")
	}

	shaders := make([]uint32, 0, len(stages))
	defer func() {
		for _, s := range shaders {
			gl.DeleteShader(s)
		}
	}()
	for _, st := range stages {
		s, err := compileStage(st)
		if err != nil {
			return nil, err
		}
		shaders = append(shaders, s)
	}

	id := gl.CreateProgram()
	for _, s := range shaders {
		gl.AttachShader(id, s)
	}
	gl.LinkProgram(id)

	var status int32
	gl.GetProgramiv(id, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var n int32
		gl.GetProgramiv(id, gl.INFO_LOG_LENGTH, &n)
		buf := make([]byte, n+1)
		gl.GetProgramInfoLog(id, n, nil, &buf[0])
		gl.DeleteProgram(id)
		return nil, fmt.Errorf("link: %s", infoLog(buf))
	}

	logger.Debug("shader program linked", zap.Uint32("program", id), zap.Int("stages", len(stages)))
	return &Program{ID: id, uniforms: make(map[string]int32)}, nil
}

func compileStage(st Stage) (uint32, error) {
	s := gl.CreateShader(st.Kind)
	csrc, free := gl.Strs(terminated(st.Source))
	gl.ShaderSource(s, 1, csrc, nil)
	free()
	gl.CompileShader(s)

	var status int32
	gl.GetShaderiv(s, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var n int32
		gl.GetShaderiv(s, gl.INFO_LOG_LENGTH, &n)
		buf := make([]byte, n+1)
		gl.GetShaderInfoLog(s, n, nil, &buf[0])
		gl.DeleteShader(s)
		return 0, fmt.Errorf("%s shader: %s", stageName(st.Kind), infoLog(buf))
	}
	return s, nil
}

// Use binds the program.
func (p *Program) Use() { gl.UseProgram(p.ID) }

// Uniform returns the location of name, looking it up once. Unknown or
// optimized-out uniforms yield -1, which GL ignores on upload.
func (p *Program) Uniform(name string) int32 {
	if loc, ok := p.uniforms[name]; ok {
		return loc
	}
	loc := gl.GetUniformLocation(p.ID, gl.Str(terminated(name)))
	if loc < 0 {
		logger.Warn("uniform not found", zap.String("name", name), zap.Uint32("program", p.ID))
	}
	p.uniforms[name] = loc
	return loc
}

// Delete frees the program.
func (p *Program) Delete() {
	if p.ID != 0 {
		gl.DeleteProgram(p.ID)
		p.ID = 0
	}
}

// terminated appends the NUL terminator GL expects.
func terminated(s string) string {
	if strings.HasSuffix(s, "\x00") {
		return s
	}
	return s + "\x00"
}

func infoLog(buf []byte) string {
	return strings.TrimSpace(strings.TrimRight(string(buf), "\x00"))
}

func stageName(kind uint32) string {
	switch kind {
	case gl.VERTEX_SHADER:
		return "vertex"
	case gl.FRAGMENT_SHADER:
		return "fragment"
	case gl.GEOMETRY_SHADER:
		return "geometry"
	}
	return fmt.Sprintf("stage 0x%x", kind)
}
