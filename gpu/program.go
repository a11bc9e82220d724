// SPDX-License-Identifier: Unlicense OR MIT

package gpu

import (
	"fmt"
	"strings"

	gioshader "gioui.org/shader"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"glhal.org/internal/gl"
	"glhal.org/shader"
)

type program struct {
	name     string
	obj      gl.Program
	info     ProgramInfo
	uniforms map[string]*uniform
	attribs  map[string]int
	// blocks maps uniform block names to binding points.
	blocks  map[string]int
	pending map[string]Value
}

type uniform struct {
	loc      gl.Uniform
	info     UniformInfo
	fallback Fallback
}

// UniformInfo describes an active uniform.
type UniformInfo struct {
	Name string
	Type UniformType
	// ArraySize is 1 for non-array uniforms.
	ArraySize int
	// Unit is the texture unit of a sampler, or -1.
	Unit int
}

// UniformBlock is an active uniform block and its binding point.
type UniformBlock struct {
	Name    string
	Binding int
}

// ProgramInfo is the reflected interface of a linked program.
type ProgramInfo struct {
	Name string
	// Attributes are sorted by location.
	Attributes []gioshader.InputLocation
	// Uniforms are sorted by name.
	Uniforms []UniformInfo
	// Samplers are sorted by name, which is also the order of their
	// texture units.
	Samplers []gioshader.TextureBinding
	Blocks   []UniformBlock
}

// Fallback selects the 1x1 texture bound to a sampler that has no
// texture in a draw call.
type Fallback uint8

const (
	FallbackWhite Fallback = iota
	FallbackBlack
	// FallbackNormal is the flat tangent space normal (0.5, 0.5, 1).
	FallbackNormal
)

type fallbackKey struct {
	kind Fallback
	cube bool
}

// ProgramSource is GLSL source for the stages of a program.
type ProgramSource struct {
	Name             string
	Vertex, Fragment shader.Source
	// Resolver resolves #include directives of both stages.
	Resolver shader.Resolver
	// Defines are added to the defines of both stages.
	Defines map[string]string
	// Attributes binds vertex inputs to locations before linking.
	Attributes map[string]int
	// Fallbacks select the texture bound to unbound samplers. The
	// default is FallbackWhite.
	Fallbacks map[string]Fallback
}

// NewProgram preprocesses and builds a program.
func (s *Server) NewProgram(src ProgramSource) (Program, error) {
	if err := s.checkLost(); err != nil {
		return Program{}, err
	}
	stages := make(map[shader.Stage]*shader.Preprocessed)
	for _, st := range []struct {
		src   shader.Source
		stage shader.Stage
	}{{src.Vertex, shader.StageVertex}, {src.Fragment, shader.StageFragment}} {
		in := st.src
		in.Stage = st.stage
		if in.Name == "" {
			in.Name = fmt.Sprintf("%s.%s", src.Name, st.stage)
		}
		if len(src.Defines) > 0 {
			defs := maps.Clone(src.Defines)
			maps.Copy(defs, in.Defines)
			in.Defines = defs
		}
		pp, err := shader.Preprocess(in, src.Resolver)
		if err != nil {
			return Program{}, err
		}
		stages[st.stage] = pp
	}
	return s.buildProgram(src.Name, stages, src.Attributes, src.Fallbacks)
}

// NewProgramFromSources builds a program from compiled Gio shader
// sources, picking the GLSL dialect of the context. Vertex inputs are
// bound to their reflected locations.
func (s *Server) NewProgramFromSources(vert, frag gioshader.Sources) (Program, error) {
	if err := s.checkLost(); err != nil {
		return Program{}, err
	}
	vsrc, fsrc := vert.GLSL150, frag.GLSL150
	if s.caps.ES {
		vsrc, fsrc = vert.GLSL100ES, frag.GLSL100ES
	}
	attribs := make(map[string]int)
	for _, in := range vert.Inputs {
		attribs[in.Name] = in.Location
	}
	name := strings.TrimSuffix(vert.Name, ".vert")
	stages := map[shader.Stage]*shader.Preprocessed{
		shader.StageVertex:   verbatim(vert.Name, shader.StageVertex, vsrc),
		shader.StageFragment: verbatim(frag.Name, shader.StageFragment, fsrc),
	}
	return s.buildProgram(name, stages, attribs, nil)
}

// verbatim wraps source that needs no preprocessing.
func verbatim(name string, stage shader.Stage, text string) *shader.Preprocessed {
	n := strings.Count(text, "\n") + 1
	lines := make([]shader.Origin, n)
	for i := range lines {
		lines[i] = shader.Origin{File: name, Line: i + 1}
	}
	return &shader.Preprocessed{Name: name, Stage: stage, Text: text, Lines: lines}
}

// BuildProgram compiles and links preprocessed vertex and fragment
// stages. Compile diagnostics refer to the original files.
func (s *Server) BuildProgram(stages map[shader.Stage]*shader.Preprocessed) (Program, error) {
	if err := s.checkLost(); err != nil {
		return Program{}, err
	}
	name := ""
	if v := stages[shader.StageVertex]; v != nil {
		name = v.Name
	}
	return s.buildProgram(name, stages, nil, nil)
}

func glStage(st shader.Stage) gl.Enum {
	if st == shader.StageVertex {
		return gl.VERTEX_SHADER
	}
	return gl.FRAGMENT_SHADER
}

func (s *Server) buildProgram(name string, stages map[shader.Stage]*shader.Preprocessed, attribs map[string]int, fallbacks map[string]Fallback) (Program, error) {
	for _, st := range []shader.Stage{shader.StageVertex, shader.StageFragment} {
		if stages[st] == nil {
			return Program{}, createErr(KindProgram, fmt.Sprintf("missing %s stage", st))
		}
	}
	for st := range stages {
		if st != shader.StageVertex && st != shader.StageFragment {
			return Program{}, createErr(KindProgram, fmt.Sprintf("unsupported stage %v", st))
		}
	}
	if err := s.drain(); err != nil {
		return Program{}, err
	}
	var shaders []gl.Shader
	release := func() {
		for _, sh := range shaders {
			s.f.DeleteShader(sh)
		}
	}
	for _, st := range []shader.Stage{shader.StageVertex, shader.StageFragment} {
		pp := stages[st]
		sh, log, err := gl.CreateShader(s.f, glStage(st), pp.Text)
		if err != nil {
			release()
			if log == "" {
				log = err.Error()
			}
			return Program{}, &ShaderCompileError{Name: pp.Name, Stage: st, Diagnostic: pp.MapDiagnostics(log)}
		}
		shaders = append(shaders, sh)
	}
	obj, log, err := gl.LinkProgram(s.f, shaders, attribs)
	release()
	if err != nil {
		if log == "" {
			log = err.Error()
		}
		return Program{}, &ShaderLinkError{Name: name, Diagnostic: log}
	}
	p := &program{name: name, obj: obj, pending: make(map[string]Value)}
	if err := s.reflect(p, fallbacks); err != nil {
		s.state.DeleteProgram(obj)
		return Program{}, err
	}
	if err := s.createCheck(KindProgram); err != nil {
		s.state.DeleteProgram(obj)
		return Program{}, err
	}
	h := Program{s.programs.Insert(*p)}
	s.log.Debug("gpu: program built", "name", name,
		"attributes", len(p.info.Attributes),
		"uniforms", len(p.info.Uniforms),
		"samplers", len(p.info.Samplers))
	return h, nil
}

func dataType(e gl.Enum) (gioshader.DataType, int) {
	switch e {
	case gl.FLOAT:
		return gioshader.DataTypeFloat, 1
	case gl.FLOAT_VEC2:
		return gioshader.DataTypeFloat, 2
	case gl.FLOAT_VEC3:
		return gioshader.DataTypeFloat, 3
	case gl.FLOAT_VEC4:
		return gioshader.DataTypeFloat, 4
	case gl.INT_VEC2:
		return gioshader.DataTypeInt, 2
	case gl.INT_VEC3:
		return gioshader.DataTypeInt, 3
	case gl.INT_VEC4:
		return gioshader.DataTypeInt, 4
	default:
		return gioshader.DataTypeInt, 1
	}
}

// reflect records the active interface of a linked program in one
// pass, assigns texture units to samplers and binding points to
// uniform blocks, both in name order.
func (s *Server) reflect(p *program, fallbacks map[string]Fallback) error {
	f := s.f
	p.info.Name = p.name
	p.attribs = make(map[string]int)
	for i, n := 0, f.GetProgrami(p.obj, gl.ACTIVE_ATTRIBUTES); i < n; i++ {
		name, _, typ := f.GetActiveAttrib(p.obj, i)
		if strings.HasPrefix(name, "gl_") {
			continue
		}
		loc := f.GetAttribLocation(p.obj, name)
		dt, size := dataType(typ)
		p.attribs[name] = loc
		p.info.Attributes = append(p.info.Attributes, gioshader.InputLocation{
			Name: name, Location: loc, Type: dt, Size: size,
		})
	}
	slices.SortFunc(p.info.Attributes, func(a, b gioshader.InputLocation) int {
		return a.Location - b.Location
	})

	p.uniforms = make(map[string]*uniform)
	for i, n := 0, f.GetProgrami(p.obj, gl.ACTIVE_UNIFORMS); i < n; i++ {
		name, size, typ := f.GetActiveUniform(p.obj, i)
		name = strings.TrimSuffix(name, "[0]")
		loc := f.GetUniformLocation(p.obj, name)
		if !loc.Valid() {
			// Members of uniform blocks have no location.
			continue
		}
		p.uniforms[name] = &uniform{
			loc:  loc,
			info: UniformInfo{Name: name, Type: uniformType(typ), ArraySize: size, Unit: -1},
		}
	}
	names := maps.Keys(p.uniforms)
	slices.Sort(names)
	unit := 0
	for _, name := range names {
		u := p.uniforms[name]
		if u.info.Type.isSampler() {
			if unit >= s.caps.MaxTextureUnits {
				return createErr(KindProgram, fmt.Sprintf("%d samplers exceed %d texture units", unit+1, s.caps.MaxTextureUnits))
			}
			u.info.Unit = unit
			u.fallback = fallbacks[name]
			s.state.UseProgram(p.obj)
			f.Uniform1i(u.loc, unit)
			p.info.Samplers = append(p.info.Samplers, gioshader.TextureBinding{Name: name, Binding: unit})
			unit++
		}
		p.info.Uniforms = append(p.info.Uniforms, u.info)
	}

	p.blocks = make(map[string]int)
	var blocks []string
	for i, n := 0, f.GetProgrami(p.obj, gl.ACTIVE_UNIFORM_BLOCKS); i < n; i++ {
		blocks = append(blocks, f.GetActiveUniformBlockName(p.obj, i))
	}
	slices.Sort(blocks)
	if len(blocks) > s.caps.MaxUniformBufferBindings {
		return createErr(KindProgram, fmt.Sprintf("%d uniform blocks exceed %d bindings", len(blocks), s.caps.MaxUniformBufferBindings))
	}
	for binding, name := range blocks {
		idx := f.GetUniformBlockIndex(p.obj, name)
		if idx == gl.INVALID_INDEX {
			continue
		}
		f.UniformBlockBinding(p.obj, idx, uint(binding))
		p.blocks[name] = binding
		p.info.Blocks = append(p.info.Blocks, UniformBlock{Name: name, Binding: binding})
	}
	return nil
}

// DestroyProgram invalidates h and releases the program once the GPU is
// done with it.
func (s *Server) DestroyProgram(h Program) {
	p, ok := s.programs.Remove(h.h)
	if !ok {
		return
	}
	s.deferRelease(KindProgram, func() { s.state.DeleteProgram(p.obj) })
}

// ProgramInfo returns the reflected interface of a program.
func (s *Server) ProgramInfo(h Program) (ProgramInfo, error) {
	p := s.programs.Get(h.h)
	if p == nil {
		return ProgramInfo{}, ErrInvalidHandle
	}
	return p.info, nil
}

// UniformLocation looks up an active uniform by name.
func (s *Server) UniformLocation(h Program, name string) (UniformInfo, error) {
	p := s.programs.Get(h.h)
	if p == nil {
		return UniformInfo{}, ErrInvalidHandle
	}
	u, ok := p.uniforms[name]
	if !ok {
		return UniformInfo{}, fmt.Errorf("gpu: program %q has no uniform %q", p.name, name)
	}
	return u.info, nil
}

// AttribLocation returns the location of an active vertex input.
func (s *Server) AttribLocation(h Program, name string) (int, error) {
	p := s.programs.Get(h.h)
	if p == nil {
		return -1, ErrInvalidHandle
	}
	loc, ok := p.attribs[name]
	if !ok {
		return -1, fmt.Errorf("gpu: program %q has no attribute %q", p.name, name)
	}
	return loc, nil
}

// SetUniform stages a uniform value. Staged values are applied by the
// next Draw with the program.
func (s *Server) SetUniform(h Program, name string, v Value) error {
	if err := s.checkLost(); err != nil {
		return err
	}
	p := s.programs.Get(h.h)
	if p == nil {
		return ErrInvalidHandle
	}
	u, ok := p.uniforms[name]
	switch {
	case !ok:
		return fmt.Errorf("gpu: program %q has no uniform %q", p.name, name)
	case u.info.Type.isSampler():
		return fmt.Errorf("gpu: sampler %q is bound through DrawParams.Textures", name)
	case !assignable(v.Type(), u.info.Type):
		return fmt.Errorf("gpu: uniform %q is %v, not %v", name, u.info.Type, v.Type())
	}
	p.pending[name] = v
	return nil
}

// flushUniforms applies staged values of the bound program in name
// order.
func (s *Server) flushUniforms(p *program) {
	if len(p.pending) == 0 {
		return
	}
	names := maps.Keys(p.pending)
	slices.Sort(names)
	for _, name := range names {
		p.pending[name].set(s.f, p.uniforms[name].loc)
	}
	maps.Clear(p.pending)
}

var fallbackColors = [...][4]byte{
	FallbackWhite:  {255, 255, 255, 255},
	FallbackBlack:  {0, 0, 0, 255},
	FallbackNormal: {128, 128, 255, 255},
}

// fallbackTexture returns a 1x1 texture in the fallback color, creating
// it on first use.
func (s *Server) fallbackTexture(k fallbackKey) gl.Texture {
	if t, ok := s.fallbacks[k]; ok {
		return t
	}
	target := gl.Enum(gl.TEXTURE_2D)
	faces := []gl.Enum{gl.TEXTURE_2D}
	if k.cube {
		target = gl.TEXTURE_CUBE_MAP
		faces = faces[:0]
		for i := 0; i < 6; i++ {
			faces = append(faces, gl.TEXTURE_CUBE_MAP_POSITIVE_X+gl.Enum(i))
		}
	}
	t := s.f.CreateTexture()
	s.state.BindTexture(0, target, t)
	s.f.TexParameteri(target, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	s.f.TexParameteri(target, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	px := fallbackColors[k.kind]
	for _, face := range faces {
		s.f.TexImage2D(face, 0, gl.RGBA8, 1, 1, gl.RGBA, gl.UNSIGNED_BYTE, px[:])
	}
	s.fallbacks[k] = t
	return t
}
