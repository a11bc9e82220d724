// SPDX-License-Identifier: Unlicense OR MIT

package gpu

import (
	"encoding/binary"
	"fmt"
	"image"
	"math"

	"glhal.org/internal/f32color"
	"glhal.org/internal/gl"
)

// resolveFramebuffer returns the framebuffer of h after checking that
// every attachment is still alive.
func (s *Server) resolveFramebuffer(h Framebuffer) (*framebuffer, error) {
	fb := s.framebuffers.Get(h.h)
	if fb == nil {
		return nil, ErrInvalidHandle
	}
	for _, t := range fb.attachments {
		if !s.textures.Valid(t.h) {
			return nil, fmt.Errorf("%w: framebuffer attachment was destroyed", ErrInvalidHandle)
		}
	}
	return fb, nil
}

func (s *Server) bindFramebuffer(target gl.Enum, fb *framebuffer) {
	s.state.BindFramebuffer(target, fb.obj)
}

type boundTexture struct {
	unit   int
	target gl.Enum
	tex    gl.Texture
	smp    gl.Sampler
	// fallback is used when the sampler has no binding.
	fallback    fallbackKey
	useFallback bool
}

type boundBlock struct {
	binding int
	buf     gl.Buffer
}

func glTopology(t Topology) (gl.Enum, bool) {
	switch t {
	case Triangles:
		return gl.TRIANGLES, true
	case TriangleStrip:
		return gl.TRIANGLE_STRIP, true
	case TriangleFan:
		return gl.TRIANGLE_FAN, true
	case Points:
		return gl.POINTS, true
	case Lines:
		return gl.LINES, true
	case LineStrip:
		return gl.LINE_STRIP, true
	}
	return 0, false
}

// Draw issues a draw call. Every handle is resolved and every range is
// checked before the first GL call, so a failed Draw has no effect.
func (s *Server) Draw(fbh Framebuffer, ph Program, gh Geometry, params DrawParams) error {
	if err := s.checkLost(); err != nil {
		return err
	}
	fb, err := s.resolveFramebuffer(fbh)
	if err != nil {
		return err
	}
	p := s.programs.Get(ph.h)
	if p == nil {
		return ErrInvalidHandle
	}
	g := s.geometries.Get(gh.h)
	if g == nil {
		return ErrInvalidHandle
	}
	mode, ok := glTopology(params.Topology)
	if !ok {
		return fmt.Errorf("%w: topology %d", ErrInvalidState, params.Topology)
	}
	if params.First < 0 || params.Count < 0 || params.InstanceCount < 0 {
		return fmt.Errorf("%w: negative first, count or instance count", ErrOutOfBounds)
	}
	if err := validatePipeline(&params); err != nil {
		return err
	}
	instances := params.InstanceCount
	if instances == 0 {
		instances = 1
	}
	if err := s.checkGeometry(g, params, instances); err != nil {
		return err
	}
	textures, err := s.resolveTextures(p, params.Textures)
	if err != nil {
		return err
	}
	blocks, err := s.resolveBlocks(p, params.UniformBuffers)
	if err != nil {
		return err
	}
	if params.Count == 0 {
		return nil
	}
	// Fallbacks are created only after the draw is known to be valid.
	for i := range textures {
		if t := &textures[i]; t.useFallback {
			t.tex = s.fallbackTexture(t.fallback)
		}
	}

	s.bindFramebuffer(gl.DRAW_FRAMEBUFFER, fb)
	s.applyPipeline(fb, &params)
	s.state.UseProgram(p.obj)
	s.flushUniforms(p)
	for _, t := range textures {
		s.state.BindTexture(t.unit, t.target, t.tex)
		s.state.BindSampler(t.unit, t.smp)
	}
	for _, b := range blocks {
		s.state.BindBufferBase(gl.UNIFORM_BUFFER, b.binding, b.buf)
	}
	s.state.BindVertexArray(g.vao)
	if params.Indexed {
		typ, size := gl.Enum(gl.UNSIGNED_SHORT), 2
		if g.idxType == Index32 {
			typ, size = gl.UNSIGNED_INT, 4
		}
		if params.InstanceCount > 1 {
			s.f.DrawElementsInstanced(mode, params.Count, typ, params.First*size, params.InstanceCount)
		} else {
			s.f.DrawElements(mode, params.Count, typ, params.First*size)
		}
	} else {
		if params.InstanceCount > 1 {
			s.f.DrawArraysInstanced(mode, params.First, params.Count, params.InstanceCount)
		} else {
			s.f.DrawArrays(mode, params.First, params.Count)
		}
	}
	s.cmdSeq++
	s.draws++
	return s.check("draw")
}

// checkGeometry verifies that the buffers of g are alive and large
// enough for the draw.
func (s *Server) checkGeometry(g *geometry, params DrawParams, instances int) error {
	vertices := params.First + params.Count
	if params.Indexed {
		ib := s.buffers.Get(g.indices.h)
		if g.indices.IsZero() {
			return fmt.Errorf("gpu: indexed draw of geometry without index buffer")
		}
		if ib == nil {
			return fmt.Errorf("%w: index buffer was destroyed", ErrInvalidHandle)
		}
		size := 2
		if g.idxType == Index32 {
			size = 4
		}
		if vertices*size > ib.size {
			return fmt.Errorf("%w: %d indices in buffer of %d bytes", ErrOutOfBounds, vertices, ib.size)
		}
		// The largest index is not known without reading the buffer.
		vertices = 0
	}
	for _, a := range g.attribs {
		b := s.buffers.Get(a.Buffer.h)
		if b == nil {
			return fmt.Errorf("%w: buffer of attribute %q was destroyed", ErrInvalidHandle, a.Name)
		}
		n := vertices
		if a.Divisor > 0 {
			n = (instances + a.Divisor - 1) / a.Divisor
		}
		if n == 0 || params.Count == 0 {
			continue
		}
		_, size, _ := attribType(a.Type)
		elem := a.Components * size
		stride := a.Stride
		if stride == 0 {
			stride = elem
		}
		if end := a.Offset + (n-1)*stride + elem; end > b.size {
			return fmt.Errorf("%w: attribute %q reads %d bytes of buffer of %d", ErrOutOfBounds, a.Name, end, b.size)
		}
	}
	return nil
}

// resolveTextures maps texture bindings to the units of p's samplers.
// Samplers without a binding are returned without a texture and with
// the key of their fallback.
func (s *Server) resolveTextures(p *program, bindings []TextureBinding) ([]boundTexture, error) {
	var bound []boundTexture
	seen := make(map[string]bool)
	for _, b := range bindings {
		u, ok := p.uniforms[b.Name]
		if !ok || !u.info.Type.isSampler() {
			return nil, fmt.Errorf("gpu: program %q has no sampler %q", p.name, b.Name)
		}
		t := s.textures.Get(b.Texture.h)
		if t == nil {
			return nil, fmt.Errorf("%w: texture for sampler %q", ErrInvalidHandle, b.Name)
		}
		if t.desc.Samples > 1 {
			return nil, fmt.Errorf("gpu: multisampled texture bound to sampler %q", b.Name)
		}
		if (u.info.Type == UniformSamplerCube) != (t.desc.Kind == TextureCube) {
			return nil, fmt.Errorf("gpu: texture kind does not match sampler %q", b.Name)
		}
		var smp gl.Sampler
		if !b.Sampler.IsZero() {
			sm := s.samplers.Get(b.Sampler.h)
			if sm == nil {
				return nil, fmt.Errorf("%w: sampler object for %q", ErrInvalidHandle, b.Name)
			}
			smp = sm.obj
		}
		seen[b.Name] = true
		bound = append(bound, boundTexture{unit: u.info.Unit, target: t.target, tex: t.obj, smp: smp})
	}
	for _, info := range p.info.Uniforms {
		if !info.Type.isSampler() || seen[info.Name] {
			continue
		}
		cube := info.Type == UniformSamplerCube
		target := gl.Enum(gl.TEXTURE_2D)
		if cube {
			target = gl.TEXTURE_CUBE_MAP
		}
		key := fallbackKey{kind: p.uniforms[info.Name].fallback, cube: cube}
		bound = append(bound, boundTexture{unit: info.Unit, target: target, fallback: key, useFallback: true})
	}
	return bound, nil
}

func (s *Server) resolveBlocks(p *program, bindings []UniformBufferBinding) ([]boundBlock, error) {
	var bound []boundBlock
	for _, b := range bindings {
		binding, ok := p.blocks[b.Block]
		if !ok {
			return nil, fmt.Errorf("gpu: program %q has no uniform block %q", p.name, b.Block)
		}
		buf := s.buffers.Get(b.Buffer.h)
		if buf == nil {
			return nil, fmt.Errorf("%w: buffer for uniform block %q", ErrInvalidHandle, b.Block)
		}
		if buf.usage != BufferUsageUniform {
			return nil, fmt.Errorf("gpu: buffer for uniform block %q is not a uniform buffer", b.Block)
		}
		bound = append(bound, boundBlock{binding: binding, buf: buf.obj})
	}
	return bound, nil
}

func blendFactor(f BlendFactor) gl.Enum {
	switch f {
	case BlendZero:
		return gl.ZERO
	case BlendOne:
		return gl.ONE
	case BlendSrcColor:
		return gl.SRC_COLOR
	case BlendOneMinusSrcColor:
		return gl.ONE_MINUS_SRC_COLOR
	case BlendDstColor:
		return gl.DST_COLOR
	case BlendOneMinusDstColor:
		return gl.ONE_MINUS_DST_COLOR
	case BlendSrcAlpha:
		return gl.SRC_ALPHA
	case BlendOneMinusSrcAlpha:
		return gl.ONE_MINUS_SRC_ALPHA
	case BlendDstAlpha:
		return gl.DST_ALPHA
	case BlendOneMinusDstAlpha:
		return gl.ONE_MINUS_DST_ALPHA
	case BlendConstantAlpha:
		return gl.CONSTANT_ALPHA
	default:
		return gl.ONE
	}
}

// validatePipeline rejects fixed function state outside the declared
// enumerations before any of it reaches GL.
func validatePipeline(params *DrawParams) error {
	if b := params.Blend; b != nil {
		for _, f := range []BlendFactor{b.SrcRGB, b.DstRGB, b.SrcAlpha, b.DstAlpha} {
			if f > BlendConstantAlpha {
				return fmt.Errorf("%w: blend factor %d", ErrInvalidState, f)
			}
		}
		if b.OpRGB > BlendMax || b.OpAlpha > BlendMax {
			return fmt.Errorf("%w: blend operation %d/%d", ErrInvalidState, b.OpRGB, b.OpAlpha)
		}
	}
	if d := params.Depth; d != nil && d.Func > CompareAlways {
		return fmt.Errorf("%w: depth function %d", ErrInvalidState, d.Func)
	}
	if st := params.Stencil; st != nil {
		if st.Func > CompareAlways {
			return fmt.Errorf("%w: stencil function %d", ErrInvalidState, st.Func)
		}
		for _, op := range []StencilOp{st.Fail, st.DepthFail, st.Pass} {
			if op > StencilInvert {
				return fmt.Errorf("%w: stencil operation %d", ErrInvalidState, op)
			}
		}
	}
	if params.Cull > CullFrontAndBack {
		return fmt.Errorf("%w: cull mode %d", ErrInvalidState, params.Cull)
	}
	return nil
}

func blendOp(op BlendOp) gl.Enum {
	switch op {
	case BlendSubtract:
		return gl.FUNC_SUBTRACT
	case BlendReverseSubtract:
		return gl.FUNC_REVERSE_SUBTRACT
	case BlendMin:
		return gl.MIN
	case BlendMax:
		return gl.MAX
	default:
		return gl.FUNC_ADD
	}
}

func stencilOp(op StencilOp) gl.Enum {
	switch op {
	case StencilZero:
		return gl.ZERO
	case StencilReplace:
		return gl.REPLACE
	case StencilIncr:
		return gl.INCR
	case StencilDecr:
		return gl.DECR
	case StencilInvert:
		return gl.INVERT
	default:
		return gl.KEEP
	}
}

// applyPipeline sets the fixed function state of a draw through the
// state cache.
func (s *Server) applyPipeline(fb *framebuffer, params *DrawParams) {
	c := s.state
	if b := params.Blend; b != nil {
		c.Set(gl.BLEND, true)
		c.BlendFuncSeparate(blendFactor(b.SrcRGB), blendFactor(b.DstRGB), blendFactor(b.SrcAlpha), blendFactor(b.DstAlpha))
		c.BlendEquationSeparate(blendOp(b.OpRGB), blendOp(b.OpAlpha))
	} else {
		c.Set(gl.BLEND, false)
	}
	if d := params.Depth; d != nil {
		c.Set(gl.DEPTH_TEST, true)
		c.DepthFunc(compareFunc(d.Func))
		c.DepthMask(d.Write)
	} else {
		c.Set(gl.DEPTH_TEST, false)
	}
	if st := params.Stencil; st != nil {
		c.Set(gl.STENCIL_TEST, true)
		c.StencilFunc(compareFunc(st.Func), st.Ref, st.ReadMask)
		c.StencilOp(stencilOp(st.Fail), stencilOp(st.DepthFail), stencilOp(st.Pass))
		c.StencilMask(st.WriteMask)
	} else {
		c.Set(gl.STENCIL_TEST, false)
	}
	switch params.Cull {
	case CullNone:
		c.Set(gl.CULL_FACE, false)
	default:
		c.Set(gl.CULL_FACE, true)
		mode := gl.Enum(gl.BACK)
		switch params.Cull {
		case CullFront:
			mode = gl.FRONT
		case CullFrontAndBack:
			mode = gl.FRONT_AND_BACK
		}
		c.CullFace(mode)
	}
	if params.FrontCW {
		c.FrontFace(gl.CW)
	} else {
		c.FrontFace(gl.CCW)
	}
	mask := WriteAll
	if params.ColorMask != nil {
		mask = *params.ColorMask
	}
	c.ColorMask(mask.R, mask.G, mask.B, mask.A)
	s.applyScissor(params.Scissor)
	vp := params.Viewport
	if vp.Empty() {
		vp = image.Rectangle{Max: fb.size}
	}
	c.Viewport(vp.Min.X, vp.Min.Y, vp.Dx(), vp.Dy())
}

func (s *Server) applyScissor(r image.Rectangle) {
	if r.Empty() {
		s.state.Set(gl.SCISSOR_TEST, false)
		return
	}
	s.state.Set(gl.SCISSOR_TEST, true)
	s.state.Scissor(r.Min.X, r.Min.Y, r.Dx(), r.Dy())
}

// Clear fills the selected buffers of a framebuffer.
func (s *Server) Clear(fbh Framebuffer, cv ClearValues) error {
	if err := s.checkLost(); err != nil {
		return err
	}
	fb, err := s.resolveFramebuffer(fbh)
	if err != nil {
		return err
	}
	var mask gl.Enum
	c := s.state
	if col := cv.Color; col != nil {
		mask |= gl.COLOR_BUFFER_BIT
		v := f32color.Float(*col)
		if fb.srgb {
			v = f32color.LinearFromSRGB(*col)
		}
		c.ClearColor(v.R, v.G, v.B, v.A)
		c.ColorMask(true, true, true, true)
	}
	if d := cv.Depth; d != nil {
		mask |= gl.DEPTH_BUFFER_BIT
		c.ClearDepth(*d)
		c.DepthMask(true)
	}
	if st := cv.Stencil; st != nil {
		mask |= gl.STENCIL_BUFFER_BIT
		c.ClearStencil(*st)
		c.StencilMask(^uint(0))
	}
	if mask == 0 {
		return nil
	}
	s.bindFramebuffer(gl.DRAW_FRAMEBUFFER, fb)
	s.applyScissor(cv.Scissor)
	s.f.Clear(mask)
	s.cmdSeq++
	return s.check("clear")
}

// Blit copies a rectangle between framebuffers, scaling if the
// rectangles differ in size. Blitting from a multisampled framebuffer
// resolves it and requires equally sized rectangles.
func (s *Server) Blit(srch, dsth Framebuffer, bp BlitParams) error {
	if err := s.checkLost(); err != nil {
		return err
	}
	src, err := s.resolveFramebuffer(srch)
	if err != nil {
		return err
	}
	dst, err := s.resolveFramebuffer(dsth)
	if err != nil {
		return err
	}
	sr, dr := bp.Src, bp.Dst
	if sr.Empty() {
		sr = image.Rectangle{Max: src.size}
	}
	if dr.Empty() {
		dr = image.Rectangle{Max: dst.size}
	}
	if !sr.In(image.Rectangle{Max: src.size}) || !dr.In(image.Rectangle{Max: dst.size}) {
		return fmt.Errorf("%w: blit %v to %v", ErrOutOfBounds, sr, dr)
	}
	var mask gl.Enum
	if bp.Color {
		mask |= gl.COLOR_BUFFER_BIT
	}
	if bp.Depth {
		mask |= gl.DEPTH_BUFFER_BIT
	}
	if bp.Stencil {
		mask |= gl.STENCIL_BUFFER_BIT
	}
	switch {
	case mask == 0:
		return nil
	case src.samples > 1 && sr.Size() != dr.Size():
		return fmt.Errorf("gpu: resolving blit must not scale")
	case dst.samples > 1:
		return fmt.Errorf("gpu: blit into a multisampled framebuffer")
	case bp.Linear && mask != gl.COLOR_BUFFER_BIT:
		return fmt.Errorf("gpu: linear filtering applies to color only")
	}
	filter := gl.Enum(gl.NEAREST)
	if bp.Linear {
		filter = gl.LINEAR
	}
	s.bindFramebuffer(gl.READ_FRAMEBUFFER, src)
	s.bindFramebuffer(gl.DRAW_FRAMEBUFFER, dst)
	s.state.Set(gl.SCISSOR_TEST, false)
	s.f.BlitFramebuffer(sr.Min.X, sr.Min.Y, sr.Max.X, sr.Max.Y, dr.Min.X, dr.Min.Y, dr.Max.X, dr.Max.Y, mask, filter)
	s.cmdSeq++
	return s.check("blit")
}

// ReadPixels copies a rectangle of the first color attachment of a
// framebuffer into dst, bottom row first. Normalized attachments are
// read as RGBA8 and floating point attachments as RGBA float32 in
// native byte order, 16 bytes per pixel. ReadPixels blocks until the
// GPU has rendered the framebuffer.
func (s *Server) ReadPixels(fbh Framebuffer, r image.Rectangle, dst []byte) error {
	if err := s.checkLost(); err != nil {
		return err
	}
	fb, err := s.resolveFramebuffer(fbh)
	if err != nil {
		return err
	}
	if r.Empty() || !r.In(image.Rectangle{Max: fb.size}) {
		return fmt.Errorf("%w: %v of framebuffer %v", ErrOutOfBounds, r, fb.size)
	}
	format, bpp := gl.Enum(gl.UNSIGNED_BYTE), 4
	if fb.float {
		format, bpp = gl.FLOAT, 16
	}
	if need := r.Dx() * r.Dy() * bpp; len(dst) < need {
		return fmt.Errorf("%w: %d bytes for %d byte region", ErrOutOfBounds, len(dst), need)
	}
	if fb.samples > 1 {
		return fmt.Errorf("gpu: multisampled framebuffers must be resolved with Blit before reading")
	}
	if fb.colors == 0 {
		return fmt.Errorf("gpu: framebuffer has no color attachment")
	}
	s.bindFramebuffer(gl.READ_FRAMEBUFFER, fb)
	s.state.PixelStorei(gl.PACK_ALIGNMENT, 1)
	s.f.ReadPixels(r.Min.X, r.Min.Y, r.Dx(), r.Dy(), gl.RGBA, format, dst)
	if st := s.f.GetGraphicsResetStatus(); st != gl.NO_ERROR {
		s.contextLost(st)
		return ErrContextLost
	}
	return s.check("read pixels")
}

// ReadImage reads a framebuffer rectangle into an image, top row first.
// Floating point channels are clamped to [0, 1].
func (s *Server) ReadImage(fbh Framebuffer, r image.Rectangle) (*image.RGBA, error) {
	img := image.NewRGBA(image.Rectangle{Max: r.Size()})
	if fb := s.framebuffers.Get(fbh.h); fb != nil && fb.float {
		px := make([]byte, len(img.Pix)*4)
		if err := s.ReadPixels(fbh, r, px); err != nil {
			return nil, err
		}
		for i := range img.Pix {
			v := math.Float32frombits(binary.NativeEndian.Uint32(px[i*4:]))
			img.Pix[i] = f32color.Unorm(v)
		}
	} else if err := s.ReadPixels(fbh, r, img.Pix); err != nil {
		return nil, err
	}
	flipImageY(img.Stride, r.Dy(), img.Pix)
	return img, nil
}

func flipImageY(stride, height int, pixels []byte) {
	// Flip image in y-direction. OpenGL's origin is in the lower
	// left corner.
	row := make([]uint8, stride)
	for y := 0; y < height/2; y++ {
		y1 := height - y - 1
		dest := y1 * stride
		src := y * stride
		copy(row, pixels[dest:])
		copy(pixels[dest:], pixels[src:src+len(row)])
		copy(pixels[src:], row)
	}
}
