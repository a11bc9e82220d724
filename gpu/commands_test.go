// SPDX-License-Identifier: Unlicense OR MIT

//go:build !js
// +build !js

package gpu

import (
	"encoding/binary"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glhal.org/internal/gl"
	"glhal.org/shader"
	"glhal.org/surface"
)

var colorRed = color.NRGBA{R: 255, A: 255}

// quad covers the whole viewport with two triangles.
var quad = floats(-1, -1, 1, -1, -1, 1, -1, 1, 1, -1, 1, 1)

func newQuad(t *testing.T, s *Server) Geometry {
	t.Helper()
	vb, err := s.NewBuffer(BufferDesc{Usage: BufferUsageVertex, Data: quad})
	require.NoError(t, err)
	g, err := s.NewGeometry(GeometryDesc{Attributes: []VertexAttribute{
		{Name: "pos", Location: 0, Buffer: vb, Components: 2, Type: AttribFloat},
	}})
	require.NoError(t, err)
	return g
}

func drawQuad(t *testing.T, s *Server, p Program, params DrawParams) {
	t.Helper()
	params.Count = 6
	require.NoError(t, s.Draw(s.SurfaceFramebuffer(), p, newQuad(t, s), params))
}

func pixelAt(t *testing.T, s *Server, fb Framebuffer, x, y int) []byte {
	t.Helper()
	px := make([]byte, 4)
	require.NoError(t, s.ReadPixels(fb, image.Rect(x, y, x+1, y+1), px))
	return px
}

func TestDrawTriangles(t *testing.T) {
	s, _ := newServer(t, surface.Software{}, WithDebug(true))
	p := newProgram(t, s, fragColorSrc)
	require.NoError(t, s.BeginFrame())
	require.NoError(t, s.SetUniform(p, "color", Vec4{0, 1, 0, 1}))
	drawQuad(t, s, p, DrawParams{})
	assert.Equal(t, []byte{0, 255, 0, 255}, pixelAt(t, s, s.SurfaceFramebuffer(), 3, 5))
	assert.Equal(t, 1, s.Stats().DrawCalls)
	require.NoError(t, s.EndFrame())
}

func TestDrawIndexed(t *testing.T) {
	s, _ := newServer(t, surface.Software{}, WithDebug(true))
	p := newProgram(t, s, fragColorSrc)
	require.NoError(t, s.SetUniform(p, "color", Vec4{0, 0, 1, 1}))
	vb, err := s.NewBuffer(BufferDesc{Usage: BufferUsageVertex, Data: floats(-1, -1, 1, -1, -1, 1, 1, 1)})
	require.NoError(t, err)
	idx := make([]byte, 12)
	for i, v := range []uint16{0, 1, 2, 2, 1, 3} {
		binary.LittleEndian.PutUint16(idx[i*2:], v)
	}
	ib, err := s.NewBuffer(BufferDesc{Usage: BufferUsageIndex, Data: idx})
	require.NoError(t, err)
	g, err := s.NewGeometry(GeometryDesc{
		Attributes: []VertexAttribute{{Name: "pos", Buffer: vb, Components: 2, Type: AttribFloat}},
		Indices:    ib,
		IndexType:  Index16,
	})
	require.NoError(t, err)
	fb := s.SurfaceFramebuffer()
	require.NoError(t, s.Draw(fb, p, g, DrawParams{Indexed: true, Count: 6}))
	assert.Equal(t, []byte{0, 0, 255, 255}, pixelAt(t, s, fb, 7, 7))

	// Seven indices don't fit the index buffer.
	assert.ErrorIs(t, s.Draw(fb, p, g, DrawParams{Indexed: true, Count: 7}), ErrOutOfBounds)
}

func TestDrawOutOfBounds(t *testing.T) {
	s, ctx := newServer(t, surface.Software{})
	p := newProgram(t, s, fragColorSrc)
	g := newQuad(t, s)
	f := ctx.GL()
	calls := f.Calls()
	err := s.Draw(s.SurfaceFramebuffer(), p, g, DrawParams{First: 3, Count: 6})
	assert.ErrorIs(t, err, ErrOutOfBounds)
	err = s.Draw(s.SurfaceFramebuffer(), p, g, DrawParams{Count: -1})
	assert.ErrorIs(t, err, ErrOutOfBounds)
	assert.Equal(t, calls, f.Calls())
	assert.Equal(t, 0, s.Stats().DrawCalls)
}

func TestDrawInvalidHandles(t *testing.T) {
	s, ctx := newServer(t, surface.Software{})
	p := newProgram(t, s, fragColorSrc)
	vb, err := s.NewBuffer(BufferDesc{Usage: BufferUsageVertex, Data: quad})
	require.NoError(t, err)
	g, err := s.NewGeometry(GeometryDesc{Attributes: []VertexAttribute{
		{Name: "pos", Buffer: vb, Components: 2, Type: AttribFloat},
	}})
	require.NoError(t, err)
	fb := s.SurfaceFramebuffer()
	s.DestroyBuffer(vb)
	f := ctx.GL()
	calls := f.Calls()
	assert.ErrorIs(t, s.Draw(fb, p, g, DrawParams{Count: 6}), ErrInvalidHandle)
	assert.ErrorIs(t, s.Draw(fb, Program{}, g, DrawParams{Count: 6}), ErrInvalidHandle)
	assert.ErrorIs(t, s.Draw(fb, p, Geometry{}, DrawParams{Count: 6}), ErrInvalidHandle)
	assert.ErrorIs(t, s.Draw(Framebuffer{}, p, g, DrawParams{Count: 6}), ErrInvalidHandle)
	assert.Equal(t, calls, f.Calls())
}

func TestDrawInvalidPipelineState(t *testing.T) {
	s, ctx := newServer(t, surface.Software{})
	p := newProgram(t, s, fragColorSrc)
	g := newQuad(t, s)
	fb := s.SurfaceFramebuffer()
	f := ctx.GL()
	calls := f.Calls()
	for _, params := range []DrawParams{
		{Blend: &Blend{SrcRGB: BlendFactor(42)}},
		{Blend: &Blend{OpAlpha: BlendOp(9)}},
		{Depth: &Depth{Func: CompareFunc(200)}},
		{Stencil: &Stencil{Func: CompareFunc(8)}},
		{Stencil: &Stencil{Pass: StencilOp(6)}},
		{Cull: CullMode(4)},
		{Topology: Topology(99)},
	} {
		params.Count = 6
		assert.ErrorIs(t, s.Draw(fb, p, g, params), ErrInvalidState, "%+v", params)
	}
	assert.Equal(t, calls, f.Calls())
	assert.Equal(t, 0, s.Stats().DrawCalls)
}

func TestFailedDrawCreatesNoFallback(t *testing.T) {
	s, ctx := newServer(t, surface.Software{})
	p := newProgram(t, s, fragTextureSrc)
	g := newQuad(t, s)
	ub, err := s.NewBuffer(BufferDesc{Usage: BufferUsageUniform, Size: 16})
	require.NoError(t, err)
	f := ctx.GL()
	calls, textures := f.Calls(), f.Live("texture")
	err = s.Draw(s.SurfaceFramebuffer(), p, g, DrawParams{
		Count:          6,
		UniformBuffers: []UniformBufferBinding{{Block: "Missing", Buffer: ub}},
	})
	require.Error(t, err)
	assert.Equal(t, calls, f.Calls())
	assert.Equal(t, textures, f.Live("texture"))

	// The valid draw creates the fallback once.
	require.NoError(t, s.Draw(s.SurfaceFramebuffer(), p, g, DrawParams{Count: 6}))
	assert.Equal(t, textures+1, f.Live("texture"))
}

func TestDrawCountZero(t *testing.T) {
	s, ctx := newServer(t, surface.Software{})
	p := newProgram(t, s, fragColorSrc)
	g := newQuad(t, s)
	calls := ctx.GL().Calls()
	require.NoError(t, s.Draw(s.SurfaceFramebuffer(), p, g, DrawParams{}))
	assert.Equal(t, calls, ctx.GL().Calls())
}

func TestDrawTexture(t *testing.T) {
	s, _ := newServer(t, surface.Software{})
	p := newProgram(t, s, fragTextureSrc)
	tex, err := s.NewTexture(TextureDesc{Format: FormatRGBA8, Width: 1, Height: 1})
	require.NoError(t, err)
	require.NoError(t, s.UploadTexture(tex, TextureUpload{Data: []byte{255, 0, 255, 255}}))
	smp, err := s.NewSampler(SamplerDesc{})
	require.NoError(t, err)
	drawQuad(t, s, p, DrawParams{Textures: []TextureBinding{{Name: "tex", Texture: tex, Sampler: smp}}})
	assert.Equal(t, []byte{255, 0, 255, 255}, pixelAt(t, s, s.SurfaceFramebuffer(), 0, 0))

	g := newQuad(t, s)
	err = s.Draw(s.SurfaceFramebuffer(), p, g, DrawParams{Count: 6, Textures: []TextureBinding{{Name: "other", Texture: tex}}})
	assert.Error(t, err)
	cube, err := s.NewTexture(TextureDesc{Kind: TextureCube, Format: FormatRGBA8, Width: 1, Height: 1})
	require.NoError(t, err)
	err = s.Draw(s.SurfaceFramebuffer(), p, g, DrawParams{Count: 6, Textures: []TextureBinding{{Name: "tex", Texture: cube}}})
	assert.Error(t, err)
}

func TestFallbackTexture(t *testing.T) {
	s, _ := newServer(t, surface.Software{})
	p, err := s.NewProgram(ProgramSource{
		Name:      "fallback",
		Vertex:    shader.Source{Text: vertSrc},
		Fragment:  shader.Source{Text: fragTextureSrc},
		Fallbacks: map[string]Fallback{"tex": FallbackBlack},
	})
	require.NoError(t, err)
	red := colorRed
	fb := s.SurfaceFramebuffer()
	require.NoError(t, s.Clear(fb, ClearValues{Color: &red}))
	drawQuad(t, s, p, DrawParams{})
	assert.Equal(t, []byte{0, 0, 0, 255}, pixelAt(t, s, fb, 4, 4))

	// Unbound samplers default to white.
	w := newProgram(t, s, fragTextureSrc)
	drawQuad(t, s, w, DrawParams{})
	assert.Equal(t, []byte{255, 255, 255, 255}, pixelAt(t, s, fb, 4, 4))
}

func TestUniformBuffers(t *testing.T) {
	s, _ := newServer(t, surface.Software{})
	frag := `#version 300 es
precision mediump float;
layout(std140) uniform Style {
	vec4 tint;
};
out vec4 fragColor;
void main() {
	fragColor = tint;
}
`
	p := newProgram(t, s, frag)
	ub, err := s.NewBuffer(BufferDesc{Usage: BufferUsageUniform, Data: floats(1, 1, 1, 1)})
	require.NoError(t, err)
	vb, err := s.NewBuffer(BufferDesc{Usage: BufferUsageVertex, Size: 16})
	require.NoError(t, err)
	drawQuad(t, s, p, DrawParams{UniformBuffers: []UniformBufferBinding{{Block: "Style", Buffer: ub}}})

	g := newQuad(t, s)
	fb := s.SurfaceFramebuffer()
	err = s.Draw(fb, p, g, DrawParams{Count: 6, UniformBuffers: []UniformBufferBinding{{Block: "Missing", Buffer: ub}}})
	assert.Error(t, err)
	err = s.Draw(fb, p, g, DrawParams{Count: 6, UniformBuffers: []UniformBufferBinding{{Block: "Style", Buffer: vb}}})
	assert.Error(t, err)
}

func TestOffscreenAndBlit(t *testing.T) {
	s, _ := newServer(t, surface.Software{})
	tex, err := s.NewTexture(TextureDesc{Format: FormatRGBA8, Width: 4, Height: 4})
	require.NoError(t, err)
	off, err := s.NewFramebuffer(FramebufferDesc{Color: []Attachment{{Texture: tex}}})
	require.NoError(t, err)
	p := newProgram(t, s, fragColorSrc)
	require.NoError(t, s.SetUniform(p, "color", Vec4{1, 1, 0, 1}))
	require.NoError(t, s.Draw(off, p, newQuad(t, s), DrawParams{Count: 6}))
	assert.Equal(t, []byte{255, 255, 0, 255}, pixelAt(t, s, off, 3, 3))

	fb := s.SurfaceFramebuffer()
	require.NoError(t, s.Blit(off, fb, BlitParams{Color: true, Dst: image.Rect(0, 0, 4, 4)}))
	assert.Equal(t, []byte{255, 255, 0, 255}, pixelAt(t, s, fb, 1, 1))

	err = s.Blit(off, fb, BlitParams{Color: true, Src: image.Rect(0, 0, 5, 5)})
	assert.ErrorIs(t, err, ErrOutOfBounds)
	err = s.Blit(off, fb, BlitParams{Depth: true, Linear: true})
	assert.Error(t, err)
}

func TestReadFloatAttachments(t *testing.T) {
	s, ctx := newServer(t, surface.Software{}, WithDebug(true))
	require.True(t, s.Caps().FloatRenderTargets)

	// Bottom row: 0.25 gray and 2.0 red. Top row: transparent and blue.
	texels := floats(
		0.25, 0.25, 0.25, 1, 2, 0, 0, 1,
		0, 0, 0, 0, 0, 0, 1, 1,
	)
	tex, err := s.NewTexture(TextureDesc{Format: FormatRGBA32F, Width: 2, Height: 2})
	require.NoError(t, err)
	require.NoError(t, s.UploadTexture(tex, TextureUpload{Data: texels}))
	fb, err := s.NewFramebuffer(FramebufferDesc{Color: []Attachment{{Texture: tex}}})
	require.NoError(t, err)

	calls := ctx.GL().Calls()
	assert.ErrorIs(t, s.ReadPixels(fb, image.Rect(0, 0, 2, 2), make([]byte, 2*2*4)), ErrOutOfBounds)
	assert.Equal(t, calls, ctx.GL().Calls())
	px := make([]byte, 2*2*16)
	require.NoError(t, s.ReadPixels(fb, image.Rect(0, 0, 2, 2), px))
	assert.Equal(t, texels, px)

	img, err := s.ReadImage(fb, image.Rect(0, 0, 2, 2))
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{B: 255, A: 255}, img.RGBAAt(1, 0))
	assert.Equal(t, color.RGBA{R: 64, G: 64, B: 64, A: 255}, img.RGBAAt(0, 1))
	assert.Equal(t, color.RGBA{R: 255, A: 255}, img.RGBAAt(1, 1), "clamped")

	half, err := s.NewTexture(TextureDesc{Format: FormatRGBA16F, Width: 1, Height: 1})
	require.NoError(t, err)
	// 1.0, 0.5, 0, 1 as binary16.
	hp := make([]byte, 8)
	for i, v := range []uint16{0x3c00, 0x3800, 0, 0x3c00} {
		binary.LittleEndian.PutUint16(hp[i*2:], v)
	}
	require.NoError(t, s.UploadTexture(half, TextureUpload{Data: hp}))
	hfb, err := s.NewFramebuffer(FramebufferDesc{Color: []Attachment{{Texture: half}}})
	require.NoError(t, err)
	px = make([]byte, 16)
	require.NoError(t, s.ReadPixels(hfb, image.Rect(0, 0, 1, 1), px))
	assert.Equal(t, floats(1, 0.5, 0, 1), px)
}

func TestMultisampleResolve(t *testing.T) {
	s, _ := newServer(t, surface.Software{})
	ms, err := s.NewTexture(TextureDesc{Format: FormatRGBA8, Width: 4, Height: 4, Samples: 4})
	require.NoError(t, err)
	msfb, err := s.NewFramebuffer(FramebufferDesc{Color: []Attachment{{Texture: ms}}})
	require.NoError(t, err)
	err = s.ReadPixels(msfb, image.Rect(0, 0, 1, 1), make([]byte, 4))
	assert.Error(t, err)

	p := newProgram(t, s, fragTextureSrc)
	err = s.Draw(s.SurfaceFramebuffer(), p, newQuad(t, s), DrawParams{Count: 6, Textures: []TextureBinding{{Name: "tex", Texture: ms}}})
	assert.Error(t, err)

	fb := s.SurfaceFramebuffer()
	err = s.Blit(msfb, fb, BlitParams{Color: true, Dst: image.Rect(0, 0, 8, 8)})
	assert.Error(t, err, "resolving blit scaled")
	assert.NoError(t, s.Blit(msfb, fb, BlitParams{Color: true, Dst: image.Rect(0, 0, 4, 4)}))
}

func TestClearScissor(t *testing.T) {
	s, _ := newServer(t, surface.Software{})
	fb := s.SurfaceFramebuffer()
	blue := color.NRGBA{B: 255, A: 255}
	red := colorRed
	require.NoError(t, s.Clear(fb, ClearValues{Color: &blue}))
	require.NoError(t, s.Clear(fb, ClearValues{Color: &red, Scissor: image.Rect(0, 0, 2, 2)}))
	assert.Equal(t, []byte{255, 0, 0, 255}, pixelAt(t, s, fb, 1, 1))
	assert.Equal(t, []byte{0, 0, 255, 255}, pixelAt(t, s, fb, 2, 2))
}

func TestClearSRGB(t *testing.T) {
	gray := color.NRGBA{R: 128, G: 128, B: 128, A: 255}
	s, _ := newServer(t, surface.Software{PixelFormat: surface.PixelFormat{SRGB: true}})
	fb := s.SurfaceFramebuffer()
	require.NoError(t, s.Clear(fb, ClearValues{Color: &gray}))
	assert.Equal(t, []byte{128, 128, 128, 255}, pixelAt(t, s, fb, 0, 0))

	tex, err := s.NewTexture(TextureDesc{Format: FormatSRGBA8, Width: 4, Height: 4})
	require.NoError(t, err)
	off, err := s.NewFramebuffer(FramebufferDesc{Color: []Attachment{{Texture: tex}}})
	require.NoError(t, err)
	require.NoError(t, s.Clear(off, ClearValues{Color: &gray}))
	assert.Equal(t, []byte{128, 128, 128, 255}, pixelAt(t, s, off, 3, 3))

	lin, err := s.NewTexture(TextureDesc{Format: FormatRGBA8, Width: 4, Height: 4})
	require.NoError(t, err)
	off, err = s.NewFramebuffer(FramebufferDesc{Color: []Attachment{{Texture: lin}}})
	require.NoError(t, err)
	require.NoError(t, s.Clear(off, ClearValues{Color: &gray}))
	assert.Equal(t, []byte{128, 128, 128, 255}, pixelAt(t, s, off, 0, 0))
}

func TestReadImage(t *testing.T) {
	s, _ := newServer(t, surface.Software{Width: 2, Height: 2})
	fb := s.SurfaceFramebuffer()
	blue := color.NRGBA{B: 255, A: 255}
	red := colorRed
	require.NoError(t, s.Clear(fb, ClearValues{Color: &blue}))
	// Row 0 is the bottom row.
	require.NoError(t, s.Clear(fb, ClearValues{Color: &red, Scissor: image.Rect(0, 0, 2, 1)}))
	img, err := s.ReadImage(fb, image.Rect(0, 0, 2, 2))
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{B: 255, A: 255}, img.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{R: 255, A: 255}, img.RGBAAt(0, 1))
}

func TestBlendState(t *testing.T) {
	s, ctx := newServer(t, surface.Software{})
	p := newProgram(t, s, fragColorSrc)
	require.NoError(t, s.SetUniform(p, "color", Vec4{1, 0, 0, 0.5}))
	blend := AlphaBlend
	drawQuad(t, s, p, DrawParams{Blend: &blend, Cull: CullBack})
	f := ctx.GL()
	assert.True(t, f.Enabled(gl.BLEND))
	drawQuad(t, s, p, DrawParams{})
	assert.False(t, f.Enabled(gl.BLEND))
	assert.Equal(t, image.Rect(0, 0, 8, 8), f.ViewportRect())
	drawQuad(t, s, p, DrawParams{Viewport: image.Rect(2, 2, 4, 4)})
	assert.Equal(t, image.Rect(2, 2, 4, 4), f.ViewportRect())
}

func TestFirstTriangle(t *testing.T) {
	s, _ := newServer(t, surface.Software{})
	fb := s.SurfaceFramebuffer()
	black := color.NRGBA{A: 255}
	require.NoError(t, s.Clear(fb, ClearValues{Color: &black}))
	before := pixelAt(t, s, fb, 4, 4)

	vb, err := s.NewBuffer(BufferDesc{Usage: BufferUsageVertex, Size: 64})
	require.NoError(t, err)
	data := make([]byte, 64)
	copy(data, floats(-1, -1, 3, -1, -1, 3))
	require.NoError(t, s.UpdateBuffer(vb, 0, data))
	p := newProgram(t, s, fragColorSrc)
	require.NoError(t, s.SetUniform(p, "color", Vec4{1, 1, 1, 1}))
	g, err := s.NewGeometry(GeometryDesc{Attributes: []VertexAttribute{
		{Name: "pos", Buffer: vb, Components: 2, Type: AttribFloat},
	}})
	require.NoError(t, err)
	require.NoError(t, s.Draw(fb, p, g, DrawParams{Topology: Triangles, Count: 3}))
	assert.NotEqual(t, before, pixelAt(t, s, fb, 4, 4))
}

func TestZeroWidthTextureAllocatesNothing(t *testing.T) {
	s, ctx := newServer(t, surface.Software{})
	calls := ctx.GL().Calls()
	tex, err := s.NewTexture(TextureDesc{Width: 0, Height: 16})
	var rerr *ResourceCreationError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, KindTexture, rerr.Kind)
	assert.Equal(t, Texture{}, tex)
	assert.Equal(t, 0, s.Counts()[KindTexture])
	assert.Equal(t, calls, ctx.GL().Calls())
}

func TestDrawToDestroyedTarget(t *testing.T) {
	s, ctx := newServer(t, surface.Software{})
	p := newProgram(t, s, fragColorSrc)
	g := newQuad(t, s)
	newTarget := func() Framebuffer {
		tex, err := s.NewTexture(TextureDesc{Format: FormatRGBA8, Width: 8, Height: 8})
		require.NoError(t, err)
		fb, err := s.NewFramebuffer(FramebufferDesc{Color: []Attachment{{Texture: tex}}})
		require.NoError(t, err)
		return fb
	}
	fb := newTarget()
	require.NoError(t, s.Draw(fb, p, g, DrawParams{Count: 6}))
	s.DestroyFramebuffer(fb)
	// The draw has not retired, so the GL object is still alive.
	assert.Equal(t, 1, ctx.GL().Live("framebuffer"))
	assert.ErrorIs(t, s.Draw(fb, p, g, DrawParams{Count: 6}), ErrInvalidHandle)

	// A framebuffer reusing the slot is not reachable through the old handle.
	fb2 := newTarget()
	assert.NotEqual(t, fb, fb2)
	assert.ErrorIs(t, s.Draw(fb, p, g, DrawParams{Count: 6}), ErrInvalidHandle)
	assert.NoError(t, s.Draw(fb2, p, g, DrawParams{Count: 6}))
}
