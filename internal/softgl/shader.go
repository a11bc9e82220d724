// SPDX-License-Identifier: Unlicense OR MIT

//go:build !js
// +build !js

package softgl

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"glhal.org/internal/gl"
)

type shaderObj struct {
	stage    gl.Enum
	source   string
	compiled bool
	log      string
	info     *shaderInfo
}

// shaderInfo is the global interface of a compiled shader.
type shaderInfo struct {
	inputs   []variable
	outputs  []variable
	uniforms []variable
	blocks   []string
	literal  *[4]uint8
}

type variable struct {
	name string
	typ  gl.Enum
	// size is the array length, or 1.
	size int
	// loc is an explicit layout location, or -1.
	loc int
}

type program struct {
	shaders []uint
	bound   map[string]int
	linked  bool
	log     string

	attribs  []variable
	uniforms []variable
	blocks   []string
	// values holds uniform values by location.
	values       map[int][]float32
	literal      *[4]uint8
	uniformColor *[4]float32
}

var (
	commentRe  = regexp.MustCompile(`(?s)/\*.*?\*/|//[^\n]*`)
	tokenRe    = regexp.MustCompile(`[A-Za-z_]\w*|\d[\w.]*|\.\d\w*|\S`)
	ioRe       = regexp.MustCompile(`(?m)^\s*(?:layout\s*\(\s*location\s*=\s*(\d+)\s*\)\s*)?(?:(?:flat|smooth|noperspective|centroid)\s+)*(in|out|attribute|varying)\s+(?:(?:highp|mediump|lowp)\s+)?(\w+)\s+(\w+)\s*(?:\[\s*(\d+)\s*\])?\s*;`)
	uniformRe  = regexp.MustCompile(`(?m)^\s*(?:layout\s*\([^)]*\)\s*)?uniform\s+(?:(?:highp|mediump|lowp)\s+)?(\w+)\s+(\w+)\s*(?:\[\s*(\d+)\s*\])?\s*;`)
	blockRe    = regexp.MustCompile(`(?m)^\s*(?:layout\s*\([^)]*\)\s*)?uniform\s+(\w+)\s*\{`)
	structRe   = regexp.MustCompile(`\bstruct\s+(\w+)`)
	literalRe  = regexp.MustCompile(`vec4\s*\(\s*([-+\d.eE]+)\s*,\s*([-+\d.eE]+)\s*,\s*([-+\d.eE]+)\s*,\s*([-+\d.eE]+)\s*\)`)
	instanceRe = regexp.MustCompile(`\}\s*(\w+)\s*;`)
)

var glslTypes = map[string]gl.Enum{
	"void": 0, "bool": gl.BOOL, "int": gl.INT, "uint": gl.UNSIGNED_INT, "float": gl.FLOAT,
	"vec2": gl.FLOAT_VEC2, "vec3": gl.FLOAT_VEC3, "vec4": gl.FLOAT_VEC4,
	"ivec2": gl.INT_VEC2, "ivec3": gl.INT_VEC3, "ivec4": gl.INT_VEC4,
	"uvec2": gl.UNSIGNED_INT_VEC2, "uvec3": 0, "uvec4": 0,
	"bvec2": 0, "bvec3": 0, "bvec4": 0,
	"mat2": gl.FLOAT_MAT2, "mat3": gl.FLOAT_MAT3, "mat4": gl.FLOAT_MAT4,
	"sampler2D": gl.SAMPLER_2D, "samplerCube": gl.SAMPLER_CUBE, "sampler2DShadow": gl.SAMPLER_2D_SHADOW,
	"sampler2DArray": 0, "sampler3D": 0, "samplerCubeShadow": 0, "isampler2D": 0, "usampler2D": 0,
}

var glslReserved = setOf(`in out inout uniform attribute varying const layout location binding
std140 std430 flat smooth noperspective centroid highp mediump lowp precision
if else for while do return break continue discard struct true false invariant switch case default
gl_Position gl_FragCoord gl_PointSize gl_VertexID gl_InstanceID gl_FragColor gl_FragData
gl_FrontFacing gl_PointCoord gl_FragDepth
texture texture2D textureCube textureLod textureSize texelFetch textureGrad textureProj
mix clamp min max abs sign floor ceil fract mod pow exp exp2 log log2 sqrt inversesqrt
sin cos tan asin acos atan radians degrees dot cross normalize length distance reflect refract
step smoothstep transpose inverse determinant dFdx dFdy fwidth any all not equal
lessThan greaterThan lessThanEqual greaterThanEqual notEqual round roundEven trunc isnan isinf
faceforward matrixCompMult outerProduct floatBitsToInt intBitsToFloat packUnorm2x16 unpackUnorm2x16`)

func setOf(words string) map[string]bool {
	m := make(map[string]bool)
	for _, w := range strings.Fields(words) {
		m[w] = true
	}
	return m
}

func (f *Functions) ShaderSource(s gl.Shader, src string) {
	if !f.call("ShaderSource") {
		return
	}
	if sh := f.shaders[s.V]; sh != nil {
		sh.source = src
	}
}

func (f *Functions) CompileShader(s gl.Shader) {
	if !f.call("CompileShader") {
		return
	}
	sh := f.shaders[s.V]
	if sh == nil {
		f.setError(gl.INVALID_VALUE)
		return
	}
	sh.info, sh.log = compile(sh.stage, sh.source)
	sh.compiled = sh.info != nil
}

// compile checks that every identifier used in src is declared and
// extracts the global interface. On failure it returns a glslang style
// log.
func compile(stage gl.Enum, src string) (*shaderInfo, string) {
	src = commentRe.ReplaceAllStringFunc(src, func(c string) string {
		return strings.Repeat("\n", strings.Count(c, "\n"))
	})
	types := make(map[string]bool)
	for t := range glslTypes {
		types[t] = true
	}
	for _, m := range structRe.FindAllStringSubmatch(src, -1) {
		types[m[1]] = true
	}
	declared := make(map[string]bool)
	for _, m := range blockRe.FindAllStringSubmatch(src, -1) {
		declared[m[1]] = true
	}
	for _, m := range instanceRe.FindAllStringSubmatch(src, -1) {
		declared[m[1]] = true
	}

	type token struct {
		text string
		line int
	}
	var toks []token
	for i, line := range strings.Split(src, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			fs := strings.Fields(strings.Replace(trimmed, "#", "# ", 1))
			if len(fs) >= 3 && fs[1] == "define" {
				name := fs[2]
				if j := strings.IndexByte(name, '('); j >= 0 {
					name = name[:j]
				}
				declared[name] = true
			}
			continue
		}
		if strings.HasPrefix(trimmed, "precision ") {
			continue
		}
		for _, t := range tokenRe.FindAllString(line, -1) {
			toks = append(toks, token{t, i + 1})
		}
	}
	isIdent := func(s string) bool {
		c := s[0]
		return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
	}
	// Declarations: a type followed by a name, plus names following a
	// comma in the same declaration.
	for i := 0; i+1 < len(toks); i++ {
		if !types[toks[i].text] || !isIdent(toks[i+1].text) {
			continue
		}
		declared[toks[i+1].text] = true
		depth := 0
		for j := i + 2; j < len(toks); j++ {
			t := toks[j].text
			if t == "(" || t == "[" {
				depth++
			} else if t == ")" || t == "]" {
				if depth == 0 {
					break
				}
				depth--
			} else if t == ";" || t == "{" {
				break
			} else if t == "," && depth == 0 && j+1 < len(toks) && isIdent(toks[j+1].text) {
				declared[toks[j+1].text] = true
			}
		}
	}
	var errs []string
	seen := make(map[string]bool)
	braces := 0
	for i, t := range toks {
		switch t.text {
		case "{":
			braces++
		case "}":
			braces--
		}
		if !isIdent(t.text) || (i > 0 && toks[i-1].text == ".") {
			continue
		}
		name := t.text
		if types[name] || glslReserved[name] || declared[name] || seen[name] {
			continue
		}
		seen[name] = true
		errs = append(errs, fmt.Sprintf("ERROR: 0:%d: '%s' : undeclared identifier", t.line, name))
	}
	if braces != 0 {
		line := 1
		if len(toks) > 0 {
			line = toks[len(toks)-1].line
		}
		errs = append(errs, fmt.Sprintf("ERROR: 0:%d: '' : syntax error, unbalanced braces", line))
	}
	if !declared["main"] {
		errs = append(errs, "ERROR: 0:1: 'main' : function not defined")
	}
	if len(errs) > 0 {
		errs = append(errs, fmt.Sprintf("ERROR: %d compilation errors.  No code generated.", len(errs)))
		return nil, strings.Join(errs, "\n") + "\n"
	}

	info := new(shaderInfo)
	for _, m := range ioRe.FindAllStringSubmatch(src, -1) {
		v := variable{name: m[4], typ: glslTypes[m[3]], size: 1, loc: -1}
		if m[1] != "" {
			v.loc, _ = strconv.Atoi(m[1])
		}
		if m[5] != "" {
			v.size, _ = strconv.Atoi(m[5])
		}
		switch m[2] {
		case "in":
			info.inputs = append(info.inputs, v)
		case "attribute":
			if stage == gl.VERTEX_SHADER {
				info.inputs = append(info.inputs, v)
			}
		case "out":
			info.outputs = append(info.outputs, v)
		case "varying":
			if stage == gl.VERTEX_SHADER {
				info.outputs = append(info.outputs, v)
			} else {
				info.inputs = append(info.inputs, v)
			}
		}
	}
	for _, m := range uniformRe.FindAllStringSubmatch(src, -1) {
		v := variable{name: m[2], typ: glslTypes[m[1]], size: 1, loc: -1}
		if m[3] != "" {
			v.size, _ = strconv.Atoi(m[3])
		}
		info.uniforms = append(info.uniforms, v)
	}
	for _, m := range blockRe.FindAllStringSubmatch(src, -1) {
		info.blocks = append(info.blocks, m[1])
	}
	if stage == gl.FRAGMENT_SHADER {
		if m := literalRe.FindStringSubmatch(src); m != nil {
			var c [4]uint8
			for i := range c {
				v, err := strconv.ParseFloat(m[i+1], 32)
				if err != nil {
					c = [4]uint8{}
					break
				}
				c[i] = unorm(float32(v))
			}
			info.literal = &c
		}
	}
	return info, ""
}

func (f *Functions) GetShaderi(s gl.Shader, pname gl.Enum) int {
	if !f.call("GetShaderi") {
		return 0
	}
	sh := f.shaders[s.V]
	if sh == nil {
		f.setError(gl.INVALID_VALUE)
		return 0
	}
	switch pname {
	case gl.COMPILE_STATUS:
		if sh.compiled {
			return gl.TRUE
		}
		return gl.FALSE
	case gl.INFO_LOG_LENGTH:
		return len(sh.log)
	}
	f.setError(gl.INVALID_ENUM)
	return 0
}

func (f *Functions) GetShaderInfoLog(s gl.Shader) string {
	if !f.call("GetShaderInfoLog") {
		return ""
	}
	if sh := f.shaders[s.V]; sh != nil {
		return sh.log
	}
	return ""
}

func (f *Functions) LinkProgram(p gl.Program) {
	if !f.call("LinkProgram") {
		return
	}
	prog := f.programs[p.V]
	if prog == nil {
		f.setError(gl.INVALID_VALUE)
		return
	}
	prog.linked = false
	prog.log = ""
	var vert, frag *shaderInfo
	for _, id := range prog.shaders {
		sh := f.shaders[id]
		if sh == nil || !sh.compiled {
			prog.log = "error: program contains a shader that failed to compile\n"
			return
		}
		switch sh.stage {
		case gl.VERTEX_SHADER:
			vert = sh.info
		case gl.FRAGMENT_SHADER:
			frag = sh.info
		}
	}
	if vert == nil || frag == nil {
		prog.log = "error: program lacks a vertex or fragment shader\n"
		return
	}
	outs := make(map[string]gl.Enum)
	for _, o := range vert.outputs {
		outs[o.name] = o.typ
	}
	var errs []string
	for _, in := range frag.inputs {
		typ, ok := outs[in.name]
		switch {
		case !ok:
			errs = append(errs, fmt.Sprintf("error: fragment shader input '%s' has no matching vertex shader output", in.name))
		case typ != in.typ:
			errs = append(errs, fmt.Sprintf("error: type mismatch for varying '%s'", in.name))
		}
	}
	var uniforms []variable
	index := make(map[string]int)
	for _, info := range []*shaderInfo{vert, frag} {
		for _, u := range info.uniforms {
			if i, ok := index[u.name]; ok {
				if uniforms[i].typ != u.typ {
					errs = append(errs, fmt.Sprintf("error: uniform '%s' declared with different types", u.name))
				}
				continue
			}
			index[u.name] = len(uniforms)
			uniforms = append(uniforms, u)
		}
	}
	if len(errs) > 0 {
		prog.log = strings.Join(errs, "\n") + "\n"
		return
	}
	attribs := make([]variable, len(vert.inputs))
	used := make(map[int]bool)
	for i, a := range vert.inputs {
		if loc, ok := prog.bound[a.name]; ok {
			a.loc = loc
		}
		if a.loc >= 0 {
			used[a.loc] = true
		}
		attribs[i] = a
	}
	next := 0
	for i := range attribs {
		if attribs[i].loc >= 0 {
			continue
		}
		for used[next] {
			next++
		}
		attribs[i].loc = next
		used[next] = true
	}
	var blocks []string
	seen := make(map[string]bool)
	for _, info := range []*shaderInfo{vert, frag} {
		for _, b := range info.blocks {
			if !seen[b] {
				seen[b] = true
				blocks = append(blocks, b)
			}
		}
	}
	prog.attribs, prog.uniforms, prog.blocks = attribs, uniforms, blocks
	prog.values = make(map[int][]float32)
	prog.literal = frag.literal
	prog.uniformColor = nil
	prog.linked = true
}

func (f *Functions) GetProgrami(p gl.Program, pname gl.Enum) int {
	if !f.call("GetProgrami") {
		return 0
	}
	prog := f.programs[p.V]
	if prog == nil {
		f.setError(gl.INVALID_VALUE)
		return 0
	}
	switch pname {
	case gl.LINK_STATUS:
		if prog.linked {
			return gl.TRUE
		}
		return gl.FALSE
	case gl.ACTIVE_ATTRIBUTES:
		return len(prog.attribs)
	case gl.ACTIVE_UNIFORMS:
		return len(prog.uniforms)
	case gl.ACTIVE_UNIFORM_BLOCKS:
		return len(prog.blocks)
	case gl.INFO_LOG_LENGTH:
		return len(prog.log)
	}
	f.setError(gl.INVALID_ENUM)
	return 0
}

func (f *Functions) GetProgramInfoLog(p gl.Program) string {
	if !f.call("GetProgramInfoLog") {
		return ""
	}
	if prog := f.programs[p.V]; prog != nil {
		return prog.log
	}
	return ""
}

func (f *Functions) GetActiveAttrib(p gl.Program, index int) (string, int, gl.Enum) {
	if !f.call("GetActiveAttrib") {
		return "", 0, 0
	}
	prog := f.programs[p.V]
	if prog == nil || index < 0 || index >= len(prog.attribs) {
		f.setError(gl.INVALID_VALUE)
		return "", 0, 0
	}
	a := prog.attribs[index]
	return a.name, a.size, a.typ
}

func (f *Functions) GetActiveUniform(p gl.Program, index int) (string, int, gl.Enum) {
	if !f.call("GetActiveUniform") {
		return "", 0, 0
	}
	prog := f.programs[p.V]
	if prog == nil || index < 0 || index >= len(prog.uniforms) {
		f.setError(gl.INVALID_VALUE)
		return "", 0, 0
	}
	u := prog.uniforms[index]
	name := u.name
	if u.size > 1 {
		name += "[0]"
	}
	return name, u.size, u.typ
}

func (f *Functions) GetActiveUniformBlockName(p gl.Program, index int) string {
	if !f.call("GetActiveUniformBlockName") {
		return ""
	}
	prog := f.programs[p.V]
	if prog == nil || index < 0 || index >= len(prog.blocks) {
		f.setError(gl.INVALID_VALUE)
		return ""
	}
	return prog.blocks[index]
}

func (f *Functions) GetAttribLocation(p gl.Program, name string) int {
	if !f.call("GetAttribLocation") {
		return -1
	}
	if prog := f.programs[p.V]; prog != nil {
		for _, a := range prog.attribs {
			if a.name == name {
				return a.loc
			}
		}
	}
	return -1
}

func (f *Functions) GetUniformBlockIndex(p gl.Program, name string) uint {
	if !f.call("GetUniformBlockIndex") {
		return gl.INVALID_INDEX
	}
	if prog := f.programs[p.V]; prog != nil {
		for i, b := range prog.blocks {
			if b == name {
				return uint(i)
			}
		}
	}
	return gl.INVALID_INDEX
}

func (f *Functions) GetUniformLocation(p gl.Program, name string) gl.Uniform {
	if !f.call("GetUniformLocation") {
		return gl.Uniform{V: -1}
	}
	prog := f.programs[p.V]
	if prog == nil || !prog.linked {
		f.setError(gl.INVALID_OPERATION)
		return gl.Uniform{V: -1}
	}
	name = strings.TrimSuffix(name, "[0]")
	for i, u := range prog.uniforms {
		if u.name == name {
			return gl.Uniform{V: i}
		}
	}
	return gl.Uniform{V: -1}
}

func (f *Functions) UniformBlockBinding(p gl.Program, uniformBlockIndex uint, uniformBlockBinding uint) {
	f.call("UniformBlockBinding")
}

func (f *Functions) UseProgram(p gl.Program) {
	if !f.call("UseProgram") {
		return
	}
	if p.V != 0 {
		if prog := f.programs[p.V]; prog == nil || !prog.linked {
			f.setError(gl.INVALID_OPERATION)
			return
		}
	}
	f.state.prog = p.V
}

func (f *Functions) setUniform(u gl.Uniform, v ...float32) *program {
	prog := f.programs[f.state.prog]
	if prog == nil {
		f.setError(gl.INVALID_OPERATION)
		return nil
	}
	if u.V == -1 {
		return nil
	}
	if u.V < 0 || u.V >= len(prog.uniforms) {
		f.setError(gl.INVALID_OPERATION)
		return nil
	}
	prog.values[u.V] = v
	return prog
}

func (f *Functions) Uniform1f(dst gl.Uniform, v float32) {
	if f.call("Uniform1f") {
		f.setUniform(dst, v)
	}
}

func (f *Functions) Uniform1i(dst gl.Uniform, v int) {
	if f.call("Uniform1i") {
		f.setUniform(dst, float32(v))
	}
}

func (f *Functions) Uniform2f(dst gl.Uniform, v0, v1 float32) {
	if f.call("Uniform2f") {
		f.setUniform(dst, v0, v1)
	}
}

func (f *Functions) Uniform3f(dst gl.Uniform, v0, v1, v2 float32) {
	if f.call("Uniform3f") {
		f.setUniform(dst, v0, v1, v2)
	}
}

func (f *Functions) Uniform4f(dst gl.Uniform, v0, v1, v2, v3 float32) {
	if !f.call("Uniform4f") {
		return
	}
	if prog := f.setUniform(dst, v0, v1, v2, v3); prog != nil {
		prog.uniformColor = &[4]float32{v0, v1, v2, v3}
	}
}

func (f *Functions) UniformMatrix4fv(dst gl.Uniform, data []float32) {
	if f.call("UniformMatrix4fv") {
		f.setUniform(dst, append([]float32(nil), data...)...)
	}
}

// UniformValue returns the value last set for a uniform of a program.
func (f *Functions) UniformValue(p gl.Program, name string) []float32 {
	prog := f.programs[p.V]
	if prog == nil {
		return nil
	}
	for i, u := range prog.uniforms {
		if u.name == name {
			return prog.values[i]
		}
	}
	return nil
}
