// SPDX-License-Identifier: Unlicense OR MIT

// Package glstate mirrors the implicit OpenGL state machine and drops
// calls that would not change it.
package glstate

import (
	"glhal.org/internal/gl"
)

// Limits sizes the per-unit tables of a Cache.
type Limits struct {
	TextureUnits          int
	VertexAttribs         int
	UniformBufferBindings int
}

// Stats counts state changing calls seen by a Cache.
type Stats struct {
	// Issued is the number of calls forwarded to GL.
	Issued int
	// Skipped is the number of calls dropped because GL already had the
	// requested state.
	Skipped int
}

// Cache is the only path through which state setting GL calls are
// made. A field is compared against the mirror only while its known bit
// is set; unknown state is always forwarded.
type Cache struct {
	f     gl.Functions
	known bits
	stats Stats

	drawFBO   gl.Framebuffer
	readFBO   gl.Framebuffer
	renderBuf gl.Renderbuffer
	prog      gl.Program
	vertArray gl.VertexArray
	arrayBuf  gl.Buffer
	elemBuf   gl.Buffer
	uniBuf    gl.Buffer
	uniBufs   []bufferBinding
	texUnits  struct {
		active gl.Enum
		binds  []unitBinding
	}
	vertAttribs []vertAttrib

	caps      [numCaps]bool
	blendFunc [4]gl.Enum
	blendEq   [2]gl.Enum
	depthFunc gl.Enum
	depthMask bool
	stencil   struct {
		fn    gl.Enum
		ref   int
		mask  uint
		ops   [3]gl.Enum
		write uint
	}
	cullFace    gl.Enum
	frontFace   gl.Enum
	colorMask   [4]bool
	scissor     [4]int
	viewport    [4]int
	clearColor  [4]float32
	clearDepth  float32
	clearStenc  int
	unpackAlign int
	packAlign   int
}

type bits uint64

const (
	knownDrawFBO bits = 1 << iota
	knownReadFBO
	knownRenderbuffer
	knownProgram
	knownVertexArray
	knownArrayBuffer
	knownElementBuffer
	knownUniformBuffer
	knownActiveTexture
	knownBlendFunc
	knownBlendEquation
	knownDepthFunc
	knownDepthMask
	knownStencilFunc
	knownStencilOp
	knownStencilMask
	knownCullFace
	knownFrontFace
	knownColorMask
	knownScissor
	knownViewport
	knownClearColor
	knownClearDepth
	knownClearStencil
	knownUnpackAlignment
	knownPackAlignment
	// knownCap0 is the first of numCaps capability bits.
	knownCap0
)

const (
	capBlend = iota
	capDepthTest
	capStencilTest
	capCullFace
	capScissorTest
	capFramebufferSRGB
	numCaps
)

type bufferBinding struct {
	known bool
	buf   gl.Buffer
}

type unitBinding struct {
	known     [2]bool
	tex       [2]gl.Texture
	sampKnown bool
	sampler   gl.Sampler
}

type vertAttrib struct {
	enabledKnown bool
	enabled      bool
	ptrKnown     bool
	obj          gl.Buffer
	size         int
	typ          gl.Enum
	normalized   bool
	stride       int
	offset       int
	divKnown     bool
	divisor      int
}

// New returns a cache for the current context of f. The cache starts
// with every field unknown.
func New(f gl.Functions, l Limits) *Cache {
	c := &Cache{
		f:           f,
		uniBufs:     make([]bufferBinding, l.UniformBufferBindings),
		vertAttribs: make([]vertAttrib, l.VertexAttribs),
	}
	c.texUnits.binds = make([]unitBinding, l.TextureUnits)
	return c
}

// Stats returns the call counters.
func (c *Cache) Stats() Stats {
	return c.stats
}

// Invalidate forgets the mirrored state. Every following setter issues
// its GL call once.
func (c *Cache) Invalidate() {
	c.known = 0
	for i := range c.uniBufs {
		c.uniBufs[i].known = false
	}
	for i := range c.texUnits.binds {
		c.texUnits.binds[i] = unitBinding{}
	}
	for i := range c.vertAttribs {
		c.vertAttribs[i] = vertAttrib{}
	}
}

// check reports whether the state under b must be set, counting the call
// either way. A true result marks b known.
func (c *Cache) check(b bits, same bool) bool {
	if c.known&b != 0 && same {
		c.stats.Skipped++
		return false
	}
	c.known |= b
	c.stats.Issued++
	return true
}

func (c *Cache) count(issue bool) bool {
	if issue {
		c.stats.Issued++
	} else {
		c.stats.Skipped++
	}
	return issue
}

func (c *Cache) UseProgram(p gl.Program) {
	if c.check(knownProgram, p.Equal(c.prog)) {
		c.f.UseProgram(p)
		c.prog = p
	}
}

// BindVertexArray binds a. Element buffer and attribute state belong to
// the vertex array, so a change forgets them.
func (c *Cache) BindVertexArray(a gl.VertexArray) {
	if c.check(knownVertexArray, a.Equal(c.vertArray)) {
		c.f.BindVertexArray(a)
		c.vertArray = a
		c.known &^= knownElementBuffer
		for i := range c.vertAttribs {
			c.vertAttribs[i] = vertAttrib{}
		}
	}
}

func (c *Cache) BindBuffer(target gl.Enum, buf gl.Buffer) {
	var b bits
	var cur *gl.Buffer
	switch target {
	case gl.ARRAY_BUFFER:
		b, cur = knownArrayBuffer, &c.arrayBuf
	case gl.ELEMENT_ARRAY_BUFFER:
		b, cur = knownElementBuffer, &c.elemBuf
	case gl.UNIFORM_BUFFER:
		b, cur = knownUniformBuffer, &c.uniBuf
	default:
		panic("unknown buffer target")
	}
	if c.check(b, buf.Equal(*cur)) {
		c.f.BindBuffer(target, buf)
		*cur = buf
	}
}

// BindBufferBase binds buf to an indexed target. It also replaces the
// generic binding of target, as GL does.
func (c *Cache) BindBufferBase(target gl.Enum, idx int, buf gl.Buffer) {
	if target != gl.UNIFORM_BUFFER {
		panic("unknown indexed buffer target")
	}
	bb := &c.uniBufs[idx]
	same := bb.known && buf.Equal(bb.buf) && c.known&knownUniformBuffer != 0 && buf.Equal(c.uniBuf)
	if !c.count(!same) {
		return
	}
	c.f.BindBufferBase(target, idx, buf)
	bb.known, bb.buf = true, buf
	c.known |= knownUniformBuffer
	c.uniBuf = buf
}

func (c *Cache) BindFramebuffer(target gl.Enum, fbo gl.Framebuffer) {
	drawSame := c.known&knownDrawFBO != 0 && fbo.Equal(c.drawFBO)
	readSame := c.known&knownReadFBO != 0 && fbo.Equal(c.readFBO)
	var same bool
	switch target {
	case gl.FRAMEBUFFER:
		same = drawSame && readSame
	case gl.DRAW_FRAMEBUFFER:
		same = drawSame
	case gl.READ_FRAMEBUFFER:
		same = readSame
	default:
		panic("unknown framebuffer target")
	}
	if !c.count(!same) {
		return
	}
	c.f.BindFramebuffer(target, fbo)
	if target != gl.READ_FRAMEBUFFER {
		c.drawFBO = fbo
		c.known |= knownDrawFBO
	}
	if target != gl.DRAW_FRAMEBUFFER {
		c.readFBO = fbo
		c.known |= knownReadFBO
	}
}

func (c *Cache) BindRenderbuffer(r gl.Renderbuffer) {
	if c.check(knownRenderbuffer, r.Equal(c.renderBuf)) {
		c.f.BindRenderbuffer(gl.RENDERBUFFER, r)
		c.renderBuf = r
	}
}

func (c *Cache) ActiveTexture(unit int) {
	e := gl.TEXTURE0 + gl.Enum(unit)
	if c.check(knownActiveTexture, e == c.texUnits.active) {
		c.f.ActiveTexture(e)
		c.texUnits.active = e
	}
}

func targetIndex(target gl.Enum) int {
	switch target {
	case gl.TEXTURE_2D:
		return 0
	case gl.TEXTURE_CUBE_MAP:
		return 1
	default:
		panic("unknown texture target")
	}
}

// BindTexture binds t to target on the given unit, selecting the unit
// first if needed.
func (c *Cache) BindTexture(unit int, target gl.Enum, t gl.Texture) {
	ti := targetIndex(target)
	ub := &c.texUnits.binds[unit]
	if !c.count(!(ub.known[ti] && t.Equal(ub.tex[ti]))) {
		return
	}
	c.ActiveTexture(unit)
	c.f.BindTexture(target, t)
	ub.known[ti], ub.tex[ti] = true, t
}

func (c *Cache) BindSampler(unit int, s gl.Sampler) {
	ub := &c.texUnits.binds[unit]
	if !c.count(!(ub.sampKnown && s.Equal(ub.sampler))) {
		return
	}
	c.f.BindSampler(unit, s)
	ub.sampKnown, ub.sampler = true, s
}

// Set enables or disables a capability. BLEND, DEPTH_TEST, STENCIL_TEST,
// CULL_FACE, SCISSOR_TEST and FRAMEBUFFER_SRGB are supported.
func (c *Cache) Set(capability gl.Enum, enable bool) {
	var idx int
	switch capability {
	case gl.BLEND:
		idx = capBlend
	case gl.DEPTH_TEST:
		idx = capDepthTest
	case gl.STENCIL_TEST:
		idx = capStencilTest
	case gl.CULL_FACE:
		idx = capCullFace
	case gl.SCISSOR_TEST:
		idx = capScissorTest
	case gl.FRAMEBUFFER_SRGB:
		idx = capFramebufferSRGB
	default:
		panic("unknown capability")
	}
	if !c.check(knownCap0<<idx, c.caps[idx] == enable) {
		return
	}
	c.caps[idx] = enable
	if enable {
		c.f.Enable(capability)
	} else {
		c.f.Disable(capability)
	}
}

func (c *Cache) BlendFuncSeparate(srcRGB, dstRGB, srcA, dstA gl.Enum) {
	v := [4]gl.Enum{srcRGB, dstRGB, srcA, dstA}
	if c.check(knownBlendFunc, v == c.blendFunc) {
		c.f.BlendFuncSeparate(srcRGB, dstRGB, srcA, dstA)
		c.blendFunc = v
	}
}

func (c *Cache) BlendEquationSeparate(modeRGB, modeA gl.Enum) {
	v := [2]gl.Enum{modeRGB, modeA}
	if c.check(knownBlendEquation, v == c.blendEq) {
		c.f.BlendEquationSeparate(modeRGB, modeA)
		c.blendEq = v
	}
}

func (c *Cache) DepthFunc(fn gl.Enum) {
	if c.check(knownDepthFunc, fn == c.depthFunc) {
		c.f.DepthFunc(fn)
		c.depthFunc = fn
	}
}

func (c *Cache) DepthMask(enable bool) {
	if c.check(knownDepthMask, enable == c.depthMask) {
		c.f.DepthMask(enable)
		c.depthMask = enable
	}
}

func (c *Cache) StencilFunc(fn gl.Enum, ref int, mask uint) {
	s := &c.stencil
	if c.check(knownStencilFunc, fn == s.fn && ref == s.ref && mask == s.mask) {
		c.f.StencilFunc(fn, ref, mask)
		s.fn, s.ref, s.mask = fn, ref, mask
	}
}

func (c *Cache) StencilOp(sfail, dpfail, dppass gl.Enum) {
	v := [3]gl.Enum{sfail, dpfail, dppass}
	if c.check(knownStencilOp, v == c.stencil.ops) {
		c.f.StencilOp(sfail, dpfail, dppass)
		c.stencil.ops = v
	}
}

func (c *Cache) StencilMask(mask uint) {
	if c.check(knownStencilMask, mask == c.stencil.write) {
		c.f.StencilMask(mask)
		c.stencil.write = mask
	}
}

func (c *Cache) CullFace(mode gl.Enum) {
	if c.check(knownCullFace, mode == c.cullFace) {
		c.f.CullFace(mode)
		c.cullFace = mode
	}
}

func (c *Cache) FrontFace(mode gl.Enum) {
	if c.check(knownFrontFace, mode == c.frontFace) {
		c.f.FrontFace(mode)
		c.frontFace = mode
	}
}

func (c *Cache) ColorMask(r, g, b, a bool) {
	v := [4]bool{r, g, b, a}
	if c.check(knownColorMask, v == c.colorMask) {
		c.f.ColorMask(r, g, b, a)
		c.colorMask = v
	}
}

func (c *Cache) Scissor(x, y, width, height int) {
	v := [4]int{x, y, width, height}
	if c.check(knownScissor, v == c.scissor) {
		c.f.Scissor(x, y, width, height)
		c.scissor = v
	}
}

func (c *Cache) Viewport(x, y, width, height int) {
	v := [4]int{x, y, width, height}
	if c.check(knownViewport, v == c.viewport) {
		c.f.Viewport(x, y, width, height)
		c.viewport = v
	}
}

func (c *Cache) ClearColor(r, g, b, a float32) {
	v := [4]float32{r, g, b, a}
	if c.check(knownClearColor, v == c.clearColor) {
		c.f.ClearColor(r, g, b, a)
		c.clearColor = v
	}
}

func (c *Cache) ClearDepth(d float32) {
	if c.check(knownClearDepth, d == c.clearDepth) {
		c.f.ClearDepthf(d)
		c.clearDepth = d
	}
}

func (c *Cache) ClearStencil(s int) {
	if c.check(knownClearStencil, s == c.clearStenc) {
		c.f.ClearStencil(s)
		c.clearStenc = s
	}
}

// PixelStorei sets UNPACK_ALIGNMENT or PACK_ALIGNMENT.
func (c *Cache) PixelStorei(pname gl.Enum, v int) {
	var same bool
	var b bits
	switch pname {
	case gl.UNPACK_ALIGNMENT:
		b, same = knownUnpackAlignment, v == c.unpackAlign
	case gl.PACK_ALIGNMENT:
		b, same = knownPackAlignment, v == c.packAlign
	default:
		panic("unknown pixel store parameter")
	}
	if !c.check(b, same) {
		return
	}
	c.f.PixelStorei(pname, v)
	if pname == gl.UNPACK_ALIGNMENT {
		c.unpackAlign = v
	} else {
		c.packAlign = v
	}
}

func (c *Cache) SetVertexAttribArray(idx int, enabled bool) {
	a := &c.vertAttribs[idx]
	if !c.count(!(a.enabledKnown && a.enabled == enabled)) {
		return
	}
	if enabled {
		c.f.EnableVertexAttribArray(gl.Attrib(idx))
	} else {
		c.f.DisableVertexAttribArray(gl.Attrib(idx))
	}
	a.enabledKnown, a.enabled = true, enabled
}

// VertexAttribPointer points attribute idx at buf, binding buf to
// ARRAY_BUFFER first if the pointer changes.
func (c *Cache) VertexAttribPointer(buf gl.Buffer, idx, size int, typ gl.Enum, normalized bool, stride, offset int) {
	a := &c.vertAttribs[idx]
	same := a.ptrKnown && buf.Equal(a.obj) && a.size == size && a.typ == typ &&
		a.normalized == normalized && a.stride == stride && a.offset == offset
	if !c.count(!same) {
		return
	}
	c.BindBuffer(gl.ARRAY_BUFFER, buf)
	c.f.VertexAttribPointer(gl.Attrib(idx), size, typ, normalized, stride, offset)
	a.ptrKnown = true
	a.obj, a.size, a.typ, a.normalized, a.stride, a.offset = buf, size, typ, normalized, stride, offset
}

func (c *Cache) VertexAttribDivisor(idx, divisor int) {
	a := &c.vertAttribs[idx]
	if !c.count(!(a.divKnown && a.divisor == divisor)) {
		return
	}
	c.f.VertexAttribDivisor(gl.Attrib(idx), divisor)
	a.divKnown, a.divisor = true, divisor
}

// The delete helpers below delete an object and reset any binding of it
// to zero, which is what GL does with bindings of a deleted object in
// the current context.

func (c *Cache) DeleteBuffer(b gl.Buffer) {
	c.f.DeleteBuffer(b)
	for _, cur := range []*gl.Buffer{&c.arrayBuf, &c.elemBuf, &c.uniBuf} {
		if b.Equal(*cur) {
			*cur = gl.Buffer{}
		}
	}
	for i := range c.uniBufs {
		if b.Equal(c.uniBufs[i].buf) {
			c.uniBufs[i].buf = gl.Buffer{}
		}
	}
	for i := range c.vertAttribs {
		if b.Equal(c.vertAttribs[i].obj) {
			c.vertAttribs[i].ptrKnown = false
		}
	}
}

func (c *Cache) DeleteTexture(t gl.Texture) {
	c.f.DeleteTexture(t)
	for i := range c.texUnits.binds {
		ub := &c.texUnits.binds[i]
		for j := range ub.tex {
			if t.Equal(ub.tex[j]) {
				ub.tex[j] = gl.Texture{}
			}
		}
	}
}

func (c *Cache) DeleteSampler(s gl.Sampler) {
	c.f.DeleteSampler(s)
	for i := range c.texUnits.binds {
		ub := &c.texUnits.binds[i]
		if s.Equal(ub.sampler) {
			ub.sampler = gl.Sampler{}
		}
	}
}

func (c *Cache) DeleteFramebuffer(fbo gl.Framebuffer) {
	c.f.DeleteFramebuffer(fbo)
	if fbo.Equal(c.drawFBO) {
		c.drawFBO = gl.Framebuffer{}
	}
	if fbo.Equal(c.readFBO) {
		c.readFBO = gl.Framebuffer{}
	}
}

func (c *Cache) DeleteRenderbuffer(r gl.Renderbuffer) {
	c.f.DeleteRenderbuffer(r)
	if r.Equal(c.renderBuf) {
		c.renderBuf = gl.Renderbuffer{}
	}
}

func (c *Cache) DeleteProgram(p gl.Program) {
	c.f.DeleteProgram(p)
	if p.Equal(c.prog) {
		c.prog = gl.Program{}
	}
}

func (c *Cache) DeleteVertexArray(a gl.VertexArray) {
	c.f.DeleteVertexArray(a)
	if a.Equal(c.vertArray) {
		c.vertArray = gl.VertexArray{}
		c.known &^= knownElementBuffer
		for i := range c.vertAttribs {
			c.vertAttribs[i] = vertAttrib{}
		}
	}
}

// Framebuffer returns the cached draw framebuffer binding and whether it
// is known.
func (c *Cache) Framebuffer() (gl.Framebuffer, bool) {
	return c.drawFBO, c.known&knownDrawFBO != 0
}
