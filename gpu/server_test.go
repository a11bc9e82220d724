// SPDX-License-Identifier: Unlicense OR MIT

//go:build !js
// +build !js

package gpu

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glhal.org/internal/gl"
	"glhal.org/surface"
)

func newServer(t *testing.T, d surface.Software, opts ...Option) (*Server, *surface.SoftwareContext) {
	t.Helper()
	if d.Width == 0 {
		d.Width, d.Height = 8, 8
	}
	ctx, err := surface.NewContext(d)
	require.NoError(t, err)
	s, err := New(ctx, opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		s.Release()
		ctx.Release()
	})
	return s, ctx.(*surface.SoftwareContext)
}

func floats(vs ...float32) []byte {
	b := make([]byte, 4*len(vs))
	for i, v := range vs {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(v))
	}
	return b
}

func TestNewRejectsOldContexts(t *testing.T) {
	ctx, err := surface.NewContext(surface.Software{
		Width: 4, Height: 4,
		Version: surface.Version{Major: 3, Minor: 1},
	})
	require.NoError(t, err)
	_, err = New(ctx)
	var cerr *surface.ContextCreationError
	require.True(t, errors.As(err, &cerr), "got %v", err)
	assert.Equal(t, "version", cerr.Capability)
}

func TestCaps(t *testing.T) {
	s, _ := newServer(t, surface.Software{})
	c := s.Caps()
	assert.True(t, c.ES)
	assert.Equal(t, 3, c.Major)
	assert.True(t, c.Fences)
	assert.Greater(t, c.MaxTextureUnits, 0)
	assert.Greater(t, c.MaxTextureSize, 0)

	s, _ = newServer(t, surface.Software{NoFences: true, Version: surface.Version{Major: 3, Minor: 3}})
	c = s.Caps()
	assert.False(t, c.ES)
	assert.False(t, c.Fences)
	assert.True(t, c.FloatRenderTargets)
}

func TestStaleHandle(t *testing.T) {
	s, _ := newServer(t, surface.Software{})
	b, err := s.NewBuffer(BufferDesc{Usage: BufferUsageVertex, Size: 16})
	require.NoError(t, err)
	require.NoError(t, s.UpdateBuffer(b, 0, make([]byte, 16)))
	s.DestroyBuffer(b)
	assert.ErrorIs(t, s.UpdateBuffer(b, 0, make([]byte, 4)), ErrInvalidHandle)
	assert.ErrorIs(t, s.ReadBuffer(b, 0, make([]byte, 4)), ErrInvalidHandle)
	// Destroying twice is harmless.
	s.DestroyBuffer(b)

	// A new buffer must not revive the old handle.
	b2, err := s.NewBuffer(BufferDesc{Usage: BufferUsageVertex, Size: 16})
	require.NoError(t, err)
	assert.NotEqual(t, b, b2)
	assert.ErrorIs(t, s.UpdateBuffer(b, 0, make([]byte, 4)), ErrInvalidHandle)
	assert.ErrorIs(t, s.UpdateBuffer(Buffer{}, 0, nil), ErrInvalidHandle)
}

func TestRedundantStateSkipped(t *testing.T) {
	s, _ := newServer(t, surface.Software{})
	fb := s.SurfaceFramebuffer()
	red := colorRed
	require.NoError(t, s.Clear(fb, ClearValues{Color: &red}))
	before := s.Stats()
	require.NoError(t, s.Clear(fb, ClearValues{Color: &red}))
	after := s.Stats()
	assert.Equal(t, before.Issued, after.Issued)
	assert.Greater(t, after.Skipped, before.Skipped)
}

func TestFencedRelease(t *testing.T) {
	s, ctx := newServer(t, surface.Software{})
	f := ctx.GL()
	b, err := s.NewBuffer(BufferDesc{Usage: BufferUsageVertex, Size: 64})
	require.NoError(t, err)
	require.Equal(t, 1, f.Live("buffer"))

	s.DestroyBuffer(b)
	assert.Equal(t, 0, s.Counts()[KindBuffer])
	require.NoError(t, s.BeginFrame())
	assert.Equal(t, 1, f.Live("buffer"), "released before the GPU finished")
	assert.Equal(t, 1, s.Stats().PendingReleases)
	require.NoError(t, s.EndFrame())

	f.Retire()
	require.NoError(t, s.BeginFrame())
	assert.Equal(t, 0, f.Live("buffer"))
	assert.Equal(t, 0, f.Live("sync"))
	assert.Equal(t, 0, s.Stats().PendingReleases)
}

func TestReleasesShareFence(t *testing.T) {
	s, ctx := newServer(t, surface.Software{})
	f := ctx.GL()
	var bufs []Buffer
	for i := 0; i < 3; i++ {
		b, err := s.NewBuffer(BufferDesc{Usage: BufferUsageVertex, Size: 16})
		require.NoError(t, err)
		bufs = append(bufs, b)
	}
	for _, b := range bufs {
		s.DestroyBuffer(b)
	}
	assert.Equal(t, 1, f.Live("sync"))
	require.NoError(t, s.WaitIdle())
	assert.Equal(t, 0, f.Live("buffer"))
	assert.Equal(t, 0, f.Live("sync"))
}

func TestFrameLatencyRelease(t *testing.T) {
	s, ctx := newServer(t, surface.Software{NoFences: true}, WithFrameLatency(2))
	f := ctx.GL()
	tex, err := s.NewTexture(TextureDesc{Format: FormatRGBA8, Width: 4, Height: 4})
	require.NoError(t, err)
	s.DestroyTexture(tex)
	for i := 0; i < 2; i++ {
		require.NoError(t, s.BeginFrame())
		assert.Equal(t, 1, f.Live("texture"), "frame %d", i)
		require.NoError(t, s.EndFrame())
	}
	require.NoError(t, s.BeginFrame())
	assert.Equal(t, 0, f.Live("texture"))
	assert.Equal(t, 2, ctx.Presented)
}

func TestContextLoss(t *testing.T) {
	var logs bytes.Buffer
	l := slog.New(slog.NewTextHandler(&logs, nil))
	s, ctx := newServer(t, surface.Software{}, WithLogger(l))
	b, err := s.NewBuffer(BufferDesc{Usage: BufferUsageVertex, Size: 16})
	require.NoError(t, err)
	s.DestroyBuffer(b)

	ctx.GL().LoseContext()
	assert.ErrorIs(t, s.BeginFrame(), ErrContextLost)
	assert.Equal(t, 0, s.Stats().PendingReleases)
	assert.Contains(t, logs.String(), "context lost")

	_, err = s.NewBuffer(BufferDesc{Usage: BufferUsageVertex, Size: 16})
	assert.ErrorIs(t, err, ErrContextLost)
	_, err = s.NewTexture(TextureDesc{Width: 1, Height: 1})
	assert.ErrorIs(t, err, ErrContextLost)
	red := colorRed
	assert.ErrorIs(t, s.Clear(s.SurfaceFramebuffer(), ClearValues{Color: &red}), ErrContextLost)
	assert.ErrorIs(t, s.ReadPixels(s.SurfaceFramebuffer(), image.Rect(0, 0, 1, 1), make([]byte, 4)), ErrContextLost)
	assert.ErrorIs(t, s.EndFrame(), ErrContextLost)
	assert.ErrorIs(t, s.WaitIdle(), ErrContextLost)
}

func TestLossSeenOnlyThroughGetError(t *testing.T) {
	s, ctx := newServer(t, surface.Software{NoResetStatus: true})
	require.NoError(t, s.BeginFrame())
	require.NoError(t, s.EndFrame())
	ctx.GL().LoseContext()
	assert.Equal(t, gl.Enum(gl.NO_ERROR), ctx.GL().GetGraphicsResetStatus())
	assert.ErrorIs(t, s.BeginFrame(), ErrContextLost)
	_, err := s.NewBuffer(BufferDesc{Usage: BufferUsageVertex, Size: 16})
	assert.ErrorIs(t, err, ErrContextLost)
}

func TestFrameOrder(t *testing.T) {
	s, _ := newServer(t, surface.Software{})
	assert.ErrorIs(t, s.EndFrame(), ErrFrameOrder)
	require.NoError(t, s.BeginFrame())
	assert.ErrorIs(t, s.BeginFrame(), ErrFrameOrder)
	require.NoError(t, s.EndFrame())
	assert.ErrorIs(t, s.EndFrame(), ErrFrameOrder)
	assert.Equal(t, uint64(1), s.Stats().Frames)
}

func TestUseAfterRelease(t *testing.T) {
	s, _ := newServer(t, surface.Software{})
	p := newProgram(t, s, fragTextureSrc)
	g := newQuad(t, s)
	s.Release()
	s.Release()
	assert.ErrorIs(t, s.Draw(s.SurfaceFramebuffer(), p, g, DrawParams{Count: 6}), ErrReleased)
	assert.ErrorIs(t, s.BeginFrame(), ErrReleased)
	_, err := s.NewBuffer(BufferDesc{Usage: BufferUsageVertex, Size: 16})
	assert.ErrorIs(t, err, ErrReleased)
	assert.ErrorIs(t, s.WaitIdle(), ErrReleased)
}

func TestLostDuringCreation(t *testing.T) {
	s, ctx := newServer(t, surface.Software{})
	ctx.GL().LoseContext()
	_, err := s.NewBuffer(BufferDesc{Usage: BufferUsageVertex, Size: 16})
	assert.ErrorIs(t, err, ErrContextLost)
	assert.Equal(t, 0, s.Counts()[KindBuffer])
}

func TestRaw(t *testing.T) {
	s, _ := newServer(t, surface.Software{})
	fb := s.SurfaceFramebuffer()
	red := colorRed
	require.NoError(t, s.Clear(fb, ClearValues{Color: &red}))
	require.NoError(t, s.Raw(func(f gl.Functions) {
		f.ClearColor(0, 0, 1, 1)
	}))
	// Raw invalidates the cache, so the clear color is issued again.
	before := s.Stats().Issued
	require.NoError(t, s.Clear(fb, ClearValues{Color: &red}))
	assert.Greater(t, s.Stats().Issued, before)
	px := make([]byte, 4)
	require.NoError(t, s.ReadPixels(fb, image.Rect(0, 0, 1, 1), px))
	assert.Equal(t, []byte{255, 0, 0, 255}, px)
}

func TestResize(t *testing.T) {
	s, ctx := newServer(t, surface.Software{Width: 4, Height: 4})
	ctx.Resize(image.Pt(16, 8))
	s.Resize(image.Pt(16, 8))
	err := s.ReadPixels(s.SurfaceFramebuffer(), image.Rect(0, 0, 16, 8), make([]byte, 16*8*4))
	assert.NoError(t, err)
}
