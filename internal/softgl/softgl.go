// SPDX-License-Identifier: Unlicense OR MIT

//go:build !js
// +build !js

// Package softgl implements gl.Functions in software. It records every
// call, tracks object lifetimes, compiles and links a useful subset of
// GLSL well enough to reflect on it, and rasterizes flat colored
// triangles. It stands in for a driver in tests and headless tooling.
package softgl

import (
	"image"

	"glhal.org/internal/gl"
)

// Config describes the simulated context.
type Config struct {
	// Width and Height size the default framebuffer.
	Width, Height int
	// Version is reported as GL_VERSION. It defaults to an OpenGL ES 3.0
	// version string.
	Version string
	// Bit depths of the default framebuffer.
	DepthBits, StencilBits int
	// SRGB reports an sRGB encoded default framebuffer.
	SRGB bool
	// Samples is the default framebuffer sample count.
	Samples int
	// NoFences makes FenceSync fail, as on contexts without sync objects.
	NoFences bool
	// NoResetStatus makes GetGraphicsResetStatus report NO_ERROR after
	// a reset, as on desktop contexts without robustness. Loss is then
	// only visible through GetError.
	NoResetStatus bool
	// Extensions overrides the reported extension list.
	Extensions []string
}

// Functions is a software OpenGL ES 3 context.
type Functions struct {
	cfg     Config
	version gl.Version

	counts map[string]int
	calls  int

	nextID        uint
	buffers       map[uint]*buffer
	textures      map[uint]*texture
	renderbuffers map[uint]*renderbuffer
	framebuffers  map[uint]*framebuffer
	shaders       map[uint]*shaderObj
	programs      map[uint]*program
	samplers      map[uint]*sampler
	vertexArrays  map[uint]bool
	syncs         map[uintptr]bool

	surface *image.RGBA

	err  gl.Enum
	lost bool
	// budget is the number of bytes left for object storage, or -1.
	budget int

	state state
}

type state struct {
	arrayBuf, elemBuf, uniBuf uint
	uniBufs                   map[int]uint
	drawFBO, readFBO          uint
	renderBuf                 uint
	prog                      uint
	vertArray                 uint
	activeUnit                int
	tex2D, texCube            [maxUnits]uint
	samplers                  [maxUnits]uint
	attribs                   [maxAttribs]attrib
	caps                      map[gl.Enum]bool
	blendFunc                 [4]gl.Enum
	blendEq                   [2]gl.Enum
	depthFunc                 gl.Enum
	depthMask                 bool
	colorMask                 [4]bool
	scissor, viewport         image.Rectangle
	clearColor                [4]float32
	clearDepth                float32
	clearStencil              int
	unpackAlign, packAlign    int
}

type attrib struct {
	enabled    bool
	buf        uint
	size       int
	typ        gl.Enum
	normalized bool
	stride     int
	offset     int
	divisor    int
}

type buffer struct {
	data []byte
}

type texture struct {
	target gl.Enum
	// faces holds the mip levels of each face. 2D textures use faces[0].
	faces [6][]level
}

type level struct {
	w, h   int
	format gl.Enum
	data   []byte
}

type renderbuffer struct {
	w, h    int
	samples int
	format  gl.Enum
	data    []byte
}

type framebuffer struct {
	attachments map[gl.Enum]attachment
}

type attachment struct {
	tex, rb uint
	target  gl.Enum
	level   int
}

type sampler struct {
	params map[gl.Enum]float32
}

const (
	maxUnits   = 16
	maxAttribs = 16
)

// New creates a context with the given configuration.
func New(cfg Config) *Functions {
	if cfg.Version == "" {
		cfg.Version = "OpenGL ES 3.0 softgl"
	}
	if cfg.Extensions == nil {
		cfg.Extensions = []string{"GL_EXT_texture_filter_anisotropic", "GL_EXT_color_buffer_float"}
	}
	if cfg.Samples == 0 {
		cfg.Samples = 1
	}
	ver, err := gl.ParseGLVersion(cfg.Version)
	if err != nil {
		ver = gl.Version{Major: 3, ES: true}
	}
	f := &Functions{
		cfg:           cfg,
		version:       ver,
		counts:        make(map[string]int),
		buffers:       make(map[uint]*buffer),
		textures:      make(map[uint]*texture),
		renderbuffers: make(map[uint]*renderbuffer),
		framebuffers:  make(map[uint]*framebuffer),
		shaders:       make(map[uint]*shaderObj),
		programs:      make(map[uint]*program),
		samplers:      make(map[uint]*sampler),
		vertexArrays:  make(map[uint]bool),
		syncs:         make(map[uintptr]bool),
		surface:       image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height)),
		budget:        -1,
	}
	f.state = state{
		uniBufs:     make(map[int]uint),
		caps:        make(map[gl.Enum]bool),
		blendFunc:   [4]gl.Enum{gl.ONE, gl.ZERO, gl.ONE, gl.ZERO},
		blendEq:     [2]gl.Enum{gl.FUNC_ADD, gl.FUNC_ADD},
		depthFunc:   gl.LESS,
		depthMask:   true,
		colorMask:   [4]bool{true, true, true, true},
		scissor:     image.Rect(0, 0, cfg.Width, cfg.Height),
		viewport:    image.Rect(0, 0, cfg.Width, cfg.Height),
		clearDepth:  1,
		unpackAlign: 4,
		packAlign:   4,
	}
	return f
}

var _ gl.Functions = (*Functions)(nil)

// Count returns the number of calls made to the named method, such as
// "BindBuffer".
func (f *Functions) Count(name string) int {
	return f.counts[name]
}

// Calls returns the total number of calls made.
func (f *Functions) Calls() int {
	return f.calls
}

// ResetCounts clears the call counters.
func (f *Functions) ResetCounts() {
	f.counts = make(map[string]int)
	f.calls = 0
}

// SetMemoryBudget limits the bytes available to buffer, texture and
// renderbuffer storage. Allocations past the budget fail with
// GL_OUT_OF_MEMORY. A negative budget removes the limit.
func (f *Functions) SetMemoryBudget(bytes int) {
	f.budget = bytes
}

// LoseContext simulates a GPU reset. Every following call is ignored,
// GetError reports CONTEXT_LOST once and GetGraphicsResetStatus reports
// the reset.
func (f *Functions) LoseContext() {
	if !f.lost {
		f.lost = true
		f.err = gl.CONTEXT_LOST
	}
}

// Retire signals every pending fence, as if the GPU caught up.
func (f *Functions) Retire() {
	for s := range f.syncs {
		f.syncs[s] = true
	}
}

// Resize changes the size of the default framebuffer, keeping its
// contents where they overlap.
func (f *Functions) Resize(w, h int) {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	copy2D(img, f.surface)
	f.surface = img
	f.cfg.Width, f.cfg.Height = w, h
}

// Live returns the number of live objects of a kind: "buffer",
// "texture", "renderbuffer", "framebuffer", "shader", "program",
// "sampler", "vertexarray" or "sync".
func (f *Functions) Live(kind string) int {
	switch kind {
	case "buffer":
		return len(f.buffers)
	case "texture":
		return len(f.textures)
	case "renderbuffer":
		return len(f.renderbuffers)
	case "framebuffer":
		return len(f.framebuffers)
	case "shader":
		return len(f.shaders)
	case "program":
		return len(f.programs)
	case "sampler":
		return len(f.samplers)
	case "vertexarray":
		return len(f.vertexArrays)
	case "sync":
		return len(f.syncs)
	default:
		panic("softgl: unknown object kind " + kind)
	}
}

// Enabled reports whether a capability is enabled.
func (f *Functions) Enabled(capability gl.Enum) bool {
	return f.state.caps[capability]
}

// ViewportRect returns the current viewport rectangle.
func (f *Functions) ViewportRect() image.Rectangle {
	return f.state.viewport
}

// call records a call and reports whether it should take effect.
func (f *Functions) call(name string) bool {
	f.counts[name]++
	f.calls++
	return !f.lost
}

func (f *Functions) setError(e gl.Enum) {
	if f.err == gl.NO_ERROR {
		f.err = e
	}
}

func (f *Functions) alloc(n int) bool {
	if f.budget < 0 {
		return true
	}
	if n > f.budget {
		f.setError(gl.OUT_OF_MEMORY)
		return false
	}
	f.budget -= n
	return true
}

func (f *Functions) free(n int) {
	if f.budget >= 0 {
		f.budget += n
	}
}

func (f *Functions) newID() uint {
	f.nextID++
	return f.nextID
}

func (f *Functions) ActiveTexture(t gl.Enum) {
	if !f.call("ActiveTexture") {
		return
	}
	unit := int(t - gl.TEXTURE0)
	if unit < 0 || unit >= maxUnits {
		f.setError(gl.INVALID_ENUM)
		return
	}
	f.state.activeUnit = unit
}

func (f *Functions) AttachShader(p gl.Program, s gl.Shader) {
	if !f.call("AttachShader") {
		return
	}
	prog, sh := f.programs[p.V], f.shaders[s.V]
	if prog == nil || sh == nil {
		f.setError(gl.INVALID_VALUE)
		return
	}
	prog.shaders = append(prog.shaders, s.V)
}

func (f *Functions) BindAttribLocation(p gl.Program, a gl.Attrib, name string) {
	if !f.call("BindAttribLocation") {
		return
	}
	prog := f.programs[p.V]
	if prog == nil {
		f.setError(gl.INVALID_VALUE)
		return
	}
	prog.bound[name] = int(a)
}

func (f *Functions) BindBuffer(target gl.Enum, b gl.Buffer) {
	if !f.call("BindBuffer") {
		return
	}
	if b.V != 0 && f.buffers[b.V] == nil {
		f.setError(gl.INVALID_OPERATION)
		return
	}
	switch target {
	case gl.ARRAY_BUFFER:
		f.state.arrayBuf = b.V
	case gl.ELEMENT_ARRAY_BUFFER:
		f.state.elemBuf = b.V
	case gl.UNIFORM_BUFFER:
		f.state.uniBuf = b.V
	default:
		f.setError(gl.INVALID_ENUM)
	}
}

func (f *Functions) BindBufferBase(target gl.Enum, index int, b gl.Buffer) {
	if !f.call("BindBufferBase") {
		return
	}
	if target != gl.UNIFORM_BUFFER {
		f.setError(gl.INVALID_ENUM)
		return
	}
	f.state.uniBuf = b.V
	f.state.uniBufs[index] = b.V
}

func (f *Functions) BindFramebuffer(target gl.Enum, fb gl.Framebuffer) {
	if !f.call("BindFramebuffer") {
		return
	}
	if fb.V != 0 && f.framebuffers[fb.V] == nil {
		f.setError(gl.INVALID_OPERATION)
		return
	}
	if target != gl.READ_FRAMEBUFFER {
		f.state.drawFBO = fb.V
	}
	if target != gl.DRAW_FRAMEBUFFER {
		f.state.readFBO = fb.V
	}
}

func (f *Functions) BindRenderbuffer(target gl.Enum, rb gl.Renderbuffer) {
	if !f.call("BindRenderbuffer") {
		return
	}
	f.state.renderBuf = rb.V
}

func (f *Functions) BindSampler(unit int, s gl.Sampler) {
	if !f.call("BindSampler") {
		return
	}
	f.state.samplers[unit] = s.V
}

func (f *Functions) BindTexture(target gl.Enum, t gl.Texture) {
	if !f.call("BindTexture") {
		return
	}
	if t.V != 0 {
		tex := f.textures[t.V]
		if tex == nil {
			f.setError(gl.INVALID_OPERATION)
			return
		}
		if tex.target == 0 {
			tex.target = target
		} else if tex.target != target {
			f.setError(gl.INVALID_OPERATION)
			return
		}
	}
	switch target {
	case gl.TEXTURE_2D:
		f.state.tex2D[f.state.activeUnit] = t.V
	case gl.TEXTURE_CUBE_MAP:
		f.state.texCube[f.state.activeUnit] = t.V
	default:
		f.setError(gl.INVALID_ENUM)
	}
}

func (f *Functions) BindVertexArray(a gl.VertexArray) {
	if !f.call("BindVertexArray") {
		return
	}
	f.state.vertArray = a.V
}

func (f *Functions) BlendEquationSeparate(modeRGB, modeAlpha gl.Enum) {
	if !f.call("BlendEquationSeparate") {
		return
	}
	f.state.blendEq = [2]gl.Enum{modeRGB, modeAlpha}
}

func (f *Functions) BlendFuncSeparate(srcRGB, dstRGB, srcA, dstA gl.Enum) {
	if !f.call("BlendFuncSeparate") {
		return
	}
	f.state.blendFunc = [4]gl.Enum{srcRGB, dstRGB, srcA, dstA}
}

func (f *Functions) boundBuffer(target gl.Enum) *buffer {
	var id uint
	switch target {
	case gl.ARRAY_BUFFER:
		id = f.state.arrayBuf
	case gl.ELEMENT_ARRAY_BUFFER:
		id = f.state.elemBuf
	case gl.UNIFORM_BUFFER:
		id = f.state.uniBuf
	}
	return f.buffers[id]
}

func (f *Functions) BufferData(target gl.Enum, size int, usage gl.Enum, data []byte) {
	if !f.call("BufferData") {
		return
	}
	b := f.boundBuffer(target)
	if b == nil {
		f.setError(gl.INVALID_OPERATION)
		return
	}
	if !f.alloc(size) {
		return
	}
	f.free(len(b.data))
	b.data = make([]byte, size)
	copy(b.data, data)
}

func (f *Functions) BufferSubData(target gl.Enum, offset int, src []byte) {
	if !f.call("BufferSubData") {
		return
	}
	b := f.boundBuffer(target)
	if b == nil || offset < 0 || offset+len(src) > len(b.data) {
		f.setError(gl.INVALID_VALUE)
		return
	}
	copy(b.data[offset:], src)
}

func (f *Functions) ClientWaitSync(s gl.Sync, flags gl.Enum, timeout uint64) gl.Enum {
	if !f.call("ClientWaitSync") {
		return gl.ALREADY_SIGNALED
	}
	signaled, ok := f.syncs[s.V]
	switch {
	case !ok:
		f.setError(gl.INVALID_VALUE)
		return gl.WAIT_FAILED
	case signaled:
		return gl.ALREADY_SIGNALED
	case timeout > 0:
		f.syncs[s.V] = true
		return gl.CONDITION_SATISFIED
	default:
		return gl.TIMEOUT_EXPIRED
	}
}

func (f *Functions) ClearColor(red, green, blue, alpha float32) {
	if !f.call("ClearColor") {
		return
	}
	f.state.clearColor = [4]float32{red, green, blue, alpha}
}

func (f *Functions) ClearDepthf(d float32) {
	if !f.call("ClearDepthf") {
		return
	}
	f.state.clearDepth = d
}

func (f *Functions) ClearStencil(s int) {
	if !f.call("ClearStencil") {
		return
	}
	f.state.clearStencil = s
}

func (f *Functions) ColorMask(r, g, b, a bool) {
	if !f.call("ColorMask") {
		return
	}
	f.state.colorMask = [4]bool{r, g, b, a}
}

func (f *Functions) CreateBuffer() gl.Buffer {
	if !f.call("CreateBuffer") {
		return gl.Buffer{}
	}
	id := f.newID()
	f.buffers[id] = new(buffer)
	return gl.Buffer{V: id}
}

func (f *Functions) CreateFramebuffer() gl.Framebuffer {
	if !f.call("CreateFramebuffer") {
		return gl.Framebuffer{}
	}
	id := f.newID()
	f.framebuffers[id] = &framebuffer{attachments: make(map[gl.Enum]attachment)}
	return gl.Framebuffer{V: id}
}

func (f *Functions) CreateProgram() gl.Program {
	if !f.call("CreateProgram") {
		return gl.Program{}
	}
	id := f.newID()
	f.programs[id] = &program{bound: make(map[string]int)}
	return gl.Program{V: id}
}

func (f *Functions) CreateRenderbuffer() gl.Renderbuffer {
	if !f.call("CreateRenderbuffer") {
		return gl.Renderbuffer{}
	}
	id := f.newID()
	f.renderbuffers[id] = new(renderbuffer)
	return gl.Renderbuffer{V: id}
}

func (f *Functions) CreateSampler() gl.Sampler {
	if !f.call("CreateSampler") {
		return gl.Sampler{}
	}
	id := f.newID()
	f.samplers[id] = &sampler{params: make(map[gl.Enum]float32)}
	return gl.Sampler{V: id}
}

func (f *Functions) CreateShader(ty gl.Enum) gl.Shader {
	if !f.call("CreateShader") {
		return gl.Shader{}
	}
	if ty != gl.VERTEX_SHADER && ty != gl.FRAGMENT_SHADER {
		f.setError(gl.INVALID_ENUM)
		return gl.Shader{}
	}
	id := f.newID()
	f.shaders[id] = &shaderObj{stage: ty}
	return gl.Shader{V: id}
}

func (f *Functions) CreateTexture() gl.Texture {
	if !f.call("CreateTexture") {
		return gl.Texture{}
	}
	id := f.newID()
	f.textures[id] = new(texture)
	return gl.Texture{V: id}
}

func (f *Functions) CreateVertexArray() gl.VertexArray {
	if !f.call("CreateVertexArray") {
		return gl.VertexArray{}
	}
	id := f.newID()
	f.vertexArrays[id] = true
	return gl.VertexArray{V: id}
}

func (f *Functions) CullFace(mode gl.Enum) {
	f.call("CullFace")
}

func (f *Functions) DeleteBuffer(v gl.Buffer) {
	if !f.call("DeleteBuffer") {
		return
	}
	if b, ok := f.buffers[v.V]; ok {
		f.free(len(b.data))
		delete(f.buffers, v.V)
	}
	st := &f.state
	for _, id := range []*uint{&st.arrayBuf, &st.elemBuf, &st.uniBuf} {
		if *id == v.V {
			*id = 0
		}
	}
	for i, id := range st.uniBufs {
		if id == v.V {
			delete(st.uniBufs, i)
		}
	}
}

func (f *Functions) DeleteFramebuffer(v gl.Framebuffer) {
	if !f.call("DeleteFramebuffer") {
		return
	}
	delete(f.framebuffers, v.V)
	if f.state.drawFBO == v.V {
		f.state.drawFBO = 0
	}
	if f.state.readFBO == v.V {
		f.state.readFBO = 0
	}
}

func (f *Functions) DeleteProgram(p gl.Program) {
	if !f.call("DeleteProgram") {
		return
	}
	delete(f.programs, p.V)
	if f.state.prog == p.V {
		f.state.prog = 0
	}
}

func (f *Functions) DeleteRenderbuffer(v gl.Renderbuffer) {
	if !f.call("DeleteRenderbuffer") {
		return
	}
	if rb, ok := f.renderbuffers[v.V]; ok {
		f.free(len(rb.data))
		delete(f.renderbuffers, v.V)
	}
	if f.state.renderBuf == v.V {
		f.state.renderBuf = 0
	}
}

func (f *Functions) DeleteSampler(s gl.Sampler) {
	if !f.call("DeleteSampler") {
		return
	}
	delete(f.samplers, s.V)
	for i, id := range f.state.samplers {
		if id == s.V {
			f.state.samplers[i] = 0
		}
	}
}

func (f *Functions) DeleteShader(s gl.Shader) {
	if !f.call("DeleteShader") {
		return
	}
	delete(f.shaders, s.V)
}

func (f *Functions) DeleteSync(s gl.Sync) {
	if !f.call("DeleteSync") {
		return
	}
	delete(f.syncs, s.V)
}

func (f *Functions) DeleteTexture(v gl.Texture) {
	if !f.call("DeleteTexture") {
		return
	}
	if t, ok := f.textures[v.V]; ok {
		for _, face := range t.faces {
			for _, l := range face {
				f.free(len(l.data))
			}
		}
		delete(f.textures, v.V)
	}
	for i := range f.state.tex2D {
		if f.state.tex2D[i] == v.V {
			f.state.tex2D[i] = 0
		}
		if f.state.texCube[i] == v.V {
			f.state.texCube[i] = 0
		}
	}
}

func (f *Functions) DeleteVertexArray(a gl.VertexArray) {
	if !f.call("DeleteVertexArray") {
		return
	}
	delete(f.vertexArrays, a.V)
	if f.state.vertArray == a.V {
		f.state.vertArray = 0
	}
}

func (f *Functions) DepthFunc(fn gl.Enum) {
	if !f.call("DepthFunc") {
		return
	}
	f.state.depthFunc = fn
}

func (f *Functions) DepthMask(mask bool) {
	if !f.call("DepthMask") {
		return
	}
	f.state.depthMask = mask
}

func (f *Functions) Disable(capability gl.Enum) {
	if !f.call("Disable") {
		return
	}
	f.state.caps[capability] = false
}

func (f *Functions) DisableVertexAttribArray(a gl.Attrib) {
	if !f.call("DisableVertexAttribArray") {
		return
	}
	f.state.attribs[a].enabled = false
}

func (f *Functions) DrawBuffers(bufs []gl.Enum) {
	f.call("DrawBuffers")
}

func (f *Functions) Enable(capability gl.Enum) {
	if !f.call("Enable") {
		return
	}
	f.state.caps[capability] = true
}

func (f *Functions) EnableVertexAttribArray(a gl.Attrib) {
	if !f.call("EnableVertexAttribArray") {
		return
	}
	f.state.attribs[a].enabled = true
}

func (f *Functions) FenceSync(condition, flags gl.Enum) gl.Sync {
	if !f.call("FenceSync") || f.cfg.NoFences {
		return gl.Sync{}
	}
	id := uintptr(f.newID())
	f.syncs[id] = false
	return gl.Sync{V: id}
}

// Finish waits for the simulated GPU, signaling every fence.
func (f *Functions) Finish() {
	if !f.call("Finish") {
		return
	}
	f.Retire()
}

func (f *Functions) Flush() {
	f.call("Flush")
}

func (f *Functions) FramebufferRenderbuffer(target, att, rbtarget gl.Enum, rb gl.Renderbuffer) {
	if !f.call("FramebufferRenderbuffer") {
		return
	}
	fb := f.framebuffers[f.boundFBO(target)]
	if fb == nil {
		f.setError(gl.INVALID_OPERATION)
		return
	}
	fb.attachments[att] = attachment{rb: rb.V}
}

func (f *Functions) FramebufferTexture2D(target, att, texTarget gl.Enum, t gl.Texture, lvl int) {
	if !f.call("FramebufferTexture2D") {
		return
	}
	fb := f.framebuffers[f.boundFBO(target)]
	if fb == nil {
		f.setError(gl.INVALID_OPERATION)
		return
	}
	fb.attachments[att] = attachment{tex: t.V, target: texTarget, level: lvl}
}

func (f *Functions) boundFBO(target gl.Enum) uint {
	if target == gl.READ_FRAMEBUFFER {
		return f.state.readFBO
	}
	return f.state.drawFBO
}

func (f *Functions) FrontFace(mode gl.Enum) {
	f.call("FrontFace")
}

func (f *Functions) GetBufferSubData(target gl.Enum, offset int, dst []byte) {
	if !f.call("GetBufferSubData") {
		return
	}
	b := f.boundBuffer(target)
	if b == nil || offset < 0 || offset+len(dst) > len(b.data) {
		f.setError(gl.INVALID_VALUE)
		return
	}
	copy(dst, b.data[offset:])
}

func (f *Functions) GetError() gl.Enum {
	f.call("GetError")
	e := f.err
	f.err = gl.NO_ERROR
	return e
}

func (f *Functions) GetFloat(pname gl.Enum) float32 {
	f.call("GetFloat")
	if pname == gl.MAX_TEXTURE_MAX_ANISOTROPY_EXT {
		return 16
	}
	return float32(f.integer(pname))
}

func (f *Functions) GetGraphicsResetStatus() gl.Enum {
	f.call("GetGraphicsResetStatus")
	if f.lost && !f.cfg.NoResetStatus {
		return gl.UNKNOWN_CONTEXT_RESET
	}
	return gl.NO_ERROR
}

func (f *Functions) GetInteger(pname gl.Enum) int {
	f.call("GetInteger")
	return f.integer(pname)
}

func (f *Functions) integer(pname gl.Enum) int {
	switch pname {
	case gl.MAX_TEXTURE_SIZE:
		return 4096
	case gl.MAX_COMBINED_TEXTURE_IMAGE_UNITS:
		return maxUnits
	case gl.MAX_VERTEX_ATTRIBS:
		return maxAttribs
	case gl.MAX_UNIFORM_BUFFER_BINDINGS:
		return 24
	case gl.MAX_SAMPLES:
		return 4
	case gl.SAMPLES:
		if f.state.drawFBO == 0 && f.cfg.Samples > 1 {
			return f.cfg.Samples
		}
		return 0
	case gl.MAX_COLOR_ATTACHMENTS:
		return 4
	case gl.MAX_TEXTURE_MAX_ANISOTROPY_EXT:
		return 16
	case gl.NUM_EXTENSIONS:
		return len(f.cfg.Extensions)
	case gl.FRAMEBUFFER_BINDING:
		return int(f.state.drawFBO)
	case gl.CURRENT_PROGRAM:
		return int(f.state.prog)
	case gl.ARRAY_BUFFER_BINDING:
		return int(f.state.arrayBuf)
	case gl.ACTIVE_TEXTURE:
		return int(gl.TEXTURE0) + f.state.activeUnit
	case gl.TEXTURE_BINDING_2D:
		return int(f.state.tex2D[f.state.activeUnit])
	case gl.UNPACK_ALIGNMENT:
		return f.state.unpackAlign
	case gl.PACK_ALIGNMENT:
		return f.state.packAlign
	default:
		return 0
	}
}

func (f *Functions) GetFramebufferAttachmentParameteri(target, att, pname gl.Enum) int {
	if !f.call("GetFramebufferAttachmentParameteri") {
		return 0
	}
	if f.boundFBO(target) != 0 {
		f.setError(gl.INVALID_OPERATION)
		return 0
	}
	switch pname {
	case gl.FRAMEBUFFER_ATTACHMENT_RED_SIZE, gl.FRAMEBUFFER_ATTACHMENT_GREEN_SIZE,
		gl.FRAMEBUFFER_ATTACHMENT_BLUE_SIZE, gl.FRAMEBUFFER_ATTACHMENT_ALPHA_SIZE:
		if att == gl.BACK || att == gl.BACK_LEFT {
			return 8
		}
	case gl.FRAMEBUFFER_ATTACHMENT_DEPTH_SIZE:
		if att == gl.DEPTH {
			return f.cfg.DepthBits
		}
	case gl.FRAMEBUFFER_ATTACHMENT_STENCIL_SIZE:
		if att == gl.STENCIL {
			return f.cfg.StencilBits
		}
	case gl.FRAMEBUFFER_ATTACHMENT_COLOR_ENCODING:
		if f.cfg.SRGB {
			return gl.SRGB
		}
		return gl.LINEAR
	}
	return 0
}

func (f *Functions) GetString(pname gl.Enum) string {
	f.call("GetString")
	switch pname {
	case gl.VERSION:
		return f.cfg.Version
	case gl.RENDERER:
		return "softgl"
	case gl.EXTENSIONS:
		s := ""
		for i, e := range f.cfg.Extensions {
			if i > 0 {
				s += " "
			}
			s += e
		}
		return s
	default:
		return ""
	}
}

func (f *Functions) PixelStorei(pname gl.Enum, param int) {
	if !f.call("PixelStorei") {
		return
	}
	switch pname {
	case gl.UNPACK_ALIGNMENT:
		f.state.unpackAlign = param
	case gl.PACK_ALIGNMENT:
		f.state.packAlign = param
	default:
		f.setError(gl.INVALID_ENUM)
	}
}

func (f *Functions) RenderbufferStorageMultisample(target gl.Enum, samples int, format gl.Enum, width, height int) {
	if !f.call("RenderbufferStorageMultisample") {
		return
	}
	rb := f.renderbuffers[f.state.renderBuf]
	if rb == nil {
		f.setError(gl.INVALID_OPERATION)
		return
	}
	if samples > f.integer(gl.MAX_SAMPLES) {
		f.setError(gl.INVALID_VALUE)
		return
	}
	n := width * height * 4
	if !f.alloc(n) {
		return
	}
	f.free(len(rb.data))
	rb.w, rb.h, rb.samples, rb.format = width, height, samples, format
	rb.data = make([]byte, n)
}

func (f *Functions) SamplerParameterf(s gl.Sampler, pname gl.Enum, param float32) {
	if !f.call("SamplerParameterf") {
		return
	}
	if smp := f.samplers[s.V]; smp != nil {
		smp.params[pname] = param
	}
}

func (f *Functions) SamplerParameteri(s gl.Sampler, pname gl.Enum, param int) {
	if !f.call("SamplerParameteri") {
		return
	}
	if smp := f.samplers[s.V]; smp != nil {
		smp.params[pname] = float32(param)
	}
}

// SamplerParameter returns a parameter set on a sampler object.
func (f *Functions) SamplerParameter(s gl.Sampler, pname gl.Enum) float32 {
	if smp := f.samplers[s.V]; smp != nil {
		return smp.params[pname]
	}
	return 0
}

func (f *Functions) Scissor(x, y, width, height int) {
	if !f.call("Scissor") {
		return
	}
	f.state.scissor = image.Rect(x, y, x+width, y+height)
}

func (f *Functions) StencilFunc(fn gl.Enum, ref int, mask uint) {
	f.call("StencilFunc")
}

func (f *Functions) StencilMask(mask uint) {
	f.call("StencilMask")
}

func (f *Functions) StencilOp(sfail, dpfail, dppass gl.Enum) {
	f.call("StencilOp")
}

func (f *Functions) TexParameteri(target, pname gl.Enum, param int) {
	f.call("TexParameteri")
}

func (f *Functions) VertexAttribDivisor(a gl.Attrib, divisor int) {
	if !f.call("VertexAttribDivisor") {
		return
	}
	f.state.attribs[a].divisor = divisor
}

func (f *Functions) VertexAttribPointer(dst gl.Attrib, size int, ty gl.Enum, normalized bool, stride, offset int) {
	if !f.call("VertexAttribPointer") {
		return
	}
	if f.state.arrayBuf == 0 {
		f.setError(gl.INVALID_OPERATION)
		return
	}
	a := &f.state.attribs[dst]
	a.buf, a.size, a.typ, a.normalized, a.stride, a.offset = f.state.arrayBuf, size, ty, normalized, stride, offset
}

func (f *Functions) Viewport(x, y, width, height int) {
	if !f.call("Viewport") {
		return
	}
	f.state.viewport = image.Rect(x, y, x+width, y+height)
}
