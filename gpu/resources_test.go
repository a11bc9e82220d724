// SPDX-License-Identifier: Unlicense OR MIT

//go:build !js
// +build !js

package gpu

import (
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glhal.org/surface"
)

func TestBufferReadBack(t *testing.T) {
	s, _ := newServer(t, surface.Software{})
	b, err := s.NewBuffer(BufferDesc{Usage: BufferUsageVertex, Data: []byte{1, 2, 3}, Size: 8})
	require.NoError(t, err)
	require.NoError(t, s.UpdateBuffer(b, 4, []byte{9, 9}))
	got := make([]byte, 8)
	require.NoError(t, s.ReadBuffer(b, 0, got))
	assert.Equal(t, []byte{1, 2, 3, 0, 9, 9, 0, 0}, got)
}

func TestBufferValidation(t *testing.T) {
	s, ctx := newServer(t, surface.Software{})
	calls := ctx.GL().Calls()
	for _, d := range []BufferDesc{
		{Usage: BufferUsageVertex},
		{Usage: BufferUsageUniform + 1, Size: 4},
		{Usage: BufferUsageIndex, Size: 2, Data: []byte{1, 2, 3}},
	} {
		_, err := s.NewBuffer(d)
		var rerr *ResourceCreationError
		assert.True(t, errors.As(err, &rerr), "%+v: %v", d, err)
	}
	assert.Equal(t, calls, ctx.GL().Calls(), "invalid descriptors reached GL")
}

func TestOutOfBoundsBeforeGL(t *testing.T) {
	s, ctx := newServer(t, surface.Software{})
	b, err := s.NewBuffer(BufferDesc{Usage: BufferUsageVertex, Size: 16})
	require.NoError(t, err)
	tex, err := s.NewTexture(TextureDesc{Format: FormatRGBA8, Width: 4, Height: 4})
	require.NoError(t, err)
	f := ctx.GL()
	calls := f.Calls()

	assert.ErrorIs(t, s.UpdateBuffer(b, 8, make([]byte, 16)), ErrOutOfBounds)
	assert.ErrorIs(t, s.UpdateBuffer(b, -1, make([]byte, 1)), ErrOutOfBounds)
	assert.ErrorIs(t, s.ReadBuffer(b, 12, make([]byte, 8)), ErrOutOfBounds)
	assert.ErrorIs(t, s.UploadTexture(tex, TextureUpload{Rect: image.Rect(2, 2, 6, 6), Data: make([]byte, 64)}), ErrOutOfBounds)
	assert.ErrorIs(t, s.ReadPixels(s.SurfaceFramebuffer(), image.Rect(0, 0, 9, 1), make([]byte, 36)), ErrOutOfBounds)
	assert.ErrorIs(t, s.ReadPixels(s.SurfaceFramebuffer(), image.Rect(0, 0, 2, 2), make([]byte, 4)), ErrOutOfBounds)
	assert.Equal(t, calls, f.Calls())
}

func TestOutOfMemory(t *testing.T) {
	s, ctx := newServer(t, surface.Software{})
	f := ctx.GL()
	f.SetMemoryBudget(64)
	_, err := s.NewBuffer(BufferDesc{Usage: BufferUsageVertex, Size: 128})
	var rerr *ResourceCreationError
	require.True(t, errors.As(err, &rerr), "got %v", err)
	assert.Equal(t, KindBuffer, rerr.Kind)
	assert.Equal(t, "out of memory", rerr.Reason)
	assert.Equal(t, 0, f.Live("buffer"))
	assert.Equal(t, 0, s.Counts()[KindBuffer])

	_, err = s.NewTexture(TextureDesc{Format: FormatRGBA8, Width: 16, Height: 16})
	require.True(t, errors.As(err, &rerr), "got %v", err)
	assert.Equal(t, KindTexture, rerr.Kind)
	assert.Equal(t, 0, f.Live("texture"))

	// Smaller allocations still succeed.
	_, err = s.NewBuffer(BufferDesc{Usage: BufferUsageVertex, Size: 32})
	assert.NoError(t, err)
}

func TestTextureValidation(t *testing.T) {
	s, _ := newServer(t, surface.Software{})
	for _, d := range []TextureDesc{
		{Width: 0, Height: 4},
		{Width: 4, Height: 4, Levels: 4},
		{Kind: TextureCube, Width: 4, Height: 8},
		{Width: 4, Height: 4, Samples: 4, Levels: 2},
		{Width: 1 << 20, Height: 1},
	} {
		_, err := s.NewTexture(d)
		var rerr *ResourceCreationError
		assert.True(t, errors.As(err, &rerr), "%+v: %v", d, err)
	}
}

func TestTextureMipmaps(t *testing.T) {
	s, ctx := newServer(t, surface.Software{})
	tex, err := s.NewTexture(TextureDesc{Format: FormatRGBA8, Width: 8, Height: 8, Levels: 4, MipFilter: MipLinear})
	require.NoError(t, err)
	require.NoError(t, s.UploadTexture(tex, TextureUpload{Data: make([]byte, 8*8*4)}))
	require.NoError(t, s.UploadTexture(tex, TextureUpload{Level: 3, Data: make([]byte, 4)}))
	assert.ErrorIs(t, s.UploadTexture(tex, TextureUpload{Level: 4, Data: make([]byte, 4)}), ErrOutOfBounds)
	require.NoError(t, s.GenerateMipmaps(tex))
	assert.Equal(t, 1, ctx.GL().Count("GenerateMipmap"))
}

func TestSampler(t *testing.T) {
	s, ctx := newServer(t, surface.Software{})
	smp, err := s.NewSampler(SamplerDesc{MinFilter: FilterLinear, Anisotropy: 64})
	require.NoError(t, err)
	assert.Equal(t, 1, ctx.GL().Live("sampler"))
	s.DestroySampler(smp)
	require.NoError(t, s.WaitIdle())
	assert.Equal(t, 0, ctx.GL().Live("sampler"))
}

func TestFramebufferDimensions(t *testing.T) {
	newTex := func(s *Server, w, h int) Texture {
		tex, err := s.NewTexture(TextureDesc{Format: FormatRGBA8, Width: w, Height: h})
		require.NoError(t, err)
		return tex
	}
	s, _ := newServer(t, surface.Software{})
	_, err := s.NewFramebuffer(FramebufferDesc{Color: []Attachment{
		{Texture: newTex(s, 4, 4)},
		{Texture: newTex(s, 8, 8)},
	}})
	var rerr *ResourceCreationError
	require.True(t, errors.As(err, &rerr), "got %v", err)
	assert.Equal(t, KindFramebuffer, rerr.Kind)
	assert.Equal(t, 0, s.Counts()[KindFramebuffer])

	// Desktop GL renders to the intersection.
	s, _ = newServer(t, surface.Software{Version: surface.Version{Major: 3, Minor: 3}})
	fb, err := s.NewFramebuffer(FramebufferDesc{Color: []Attachment{
		{Texture: newTex(s, 4, 4)},
		{Texture: newTex(s, 8, 8)},
	}})
	require.NoError(t, err)
	err = s.ReadPixels(fb, image.Rect(0, 0, 8, 8), make([]byte, 8*8*4))
	assert.ErrorIs(t, err, ErrOutOfBounds)
}

func TestFramebufferAttachments(t *testing.T) {
	s, _ := newServer(t, surface.Software{})
	color, err := s.NewTexture(TextureDesc{Format: FormatRGBA8, Width: 4, Height: 4})
	require.NoError(t, err)
	depth, err := s.NewTexture(TextureDesc{Format: FormatDepth24Stencil8, Width: 4, Height: 4})
	require.NoError(t, err)

	_, err = s.NewFramebuffer(FramebufferDesc{Color: []Attachment{{Texture: depth}}})
	assert.Error(t, err)
	_, err = s.NewFramebuffer(FramebufferDesc{Color: []Attachment{{Texture: color, Level: 1}}})
	assert.Error(t, err)
	_, err = s.NewFramebuffer(FramebufferDesc{})
	assert.Error(t, err)

	fb, err := s.NewFramebuffer(FramebufferDesc{
		Color:        []Attachment{{Texture: color}},
		DepthStencil: &Attachment{Texture: depth},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Counts()[KindFramebuffer])

	// Destroying an attachment invalidates the framebuffer for use.
	s.DestroyTexture(color)
	red := colorRed
	assert.ErrorIs(t, s.Clear(fb, ClearValues{Color: &red}), ErrInvalidHandle)

	// The surface framebuffer can't be destroyed.
	s.DestroyFramebuffer(s.SurfaceFramebuffer())
	assert.NoError(t, s.Clear(s.SurfaceFramebuffer(), ClearValues{Color: &red}))
}
