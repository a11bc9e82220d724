// SPDX-License-Identifier: Unlicense OR MIT

//go:build !js
// +build !js

package surface

import (
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glhal.org/internal/softgl"
)

func TestChoosePixelFormat(t *testing.T) {
	rgba := PixelFormat{RedBits: 8, GreenBits: 8, BlueBits: 8, AlphaBits: 8}
	withDepth := rgba
	withDepth.DepthBits = 24
	withAll := withDepth
	withAll.StencilBits = 8
	withAll.Samples = 4

	got, err := ChoosePixelFormat(withDepth, []PixelFormat{withAll, rgba, withDepth})
	require.NoError(t, err)
	assert.Equal(t, withDepth, got, "want the format with the least excess")

	srgb := withDepth
	srgb.SRGB = true
	_, err = ChoosePixelFormat(srgb, []PixelFormat{rgba, withDepth})
	var cerr *ContextCreationError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "srgb", cerr.Capability)

	_, err = ChoosePixelFormat(rgba, nil)
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "pixel format", cerr.Capability)
}

func TestFallbackFormats(t *testing.T) {
	req := PixelFormat{RedBits: 8, GreenBits: 8, BlueBits: 8, AlphaBits: 8, DepthBits: 24, StencilBits: 8, Samples: 4, SRGB: true}
	formats := FallbackFormats(req)
	require.Len(t, formats, 4)
	assert.Equal(t, req, formats[0])
	assert.Equal(t, 0, formats[1].Samples)
	assert.False(t, formats[2].SRGB)
	assert.Equal(t, 16, formats[3].DepthBits)
	assert.Equal(t, 0, formats[3].StencilBits)

	plain := PixelFormat{RedBits: 8, GreenBits: 8, BlueBits: 8}
	assert.Equal(t, []PixelFormat{plain}, FallbackFormats(plain))
}

func TestSoftwareContext(t *testing.T) {
	ctx, err := NewContext(Software{Width: 16, Height: 8})
	require.NoError(t, err)
	defer ctx.Release()
	assert.Equal(t, image.Pt(16, 8), ctx.Size())
	require.NoError(t, ctx.MakeCurrent())
	require.NoError(t, ctx.Present())
	ctx.Resize(image.Pt(4, 4))
	assert.Equal(t, image.Pt(4, 4), ctx.Size())
	assert.Equal(t, image.Rect(0, 0, 4, 4), ctx.(*SoftwareContext).Snapshot().Bounds())

	ctx.ReleaseCurrent()
	assert.Error(t, ctx.Present())
}

func TestSoftwareVersions(t *testing.T) {
	ctx, err := NewContext(Software{Width: 1, Height: 1, Version: Version{Major: 3, Minor: 3}})
	require.NoError(t, err)
	ctx.Release()
}

func TestSoftwareMissingCapability(t *testing.T) {
	// A multisampled sRGB request is satisfied by the software context.
	_, err := NewContext(Software{Width: 1, Height: 1, PixelFormat: PixelFormat{RedBits: 8, GreenBits: 8, BlueBits: 8, Samples: 4, SRGB: true}})
	require.NoError(t, err)

	_, err = NewContext(Software{Width: 1, Height: 1, PixelFormat: PixelFormat{RedBits: 16}})
	var cerr *ContextCreationError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "color", cerr.Capability)

	_, err = NewContext(Software{Width: 0, Height: 1})
	assert.Error(t, err)

	_, err = NewContext(nil)
	assert.Error(t, err)
}

func TestVerifyRealizedFormat(t *testing.T) {
	f := softgl.New(softgl.Config{Width: 1, Height: 1, Version: "OpenGL ES 3.0 softgl", DepthBits: 16})
	es3 := Version{Major: 3, ES: true}
	require.NoError(t, verify(f, PixelFormat{RedBits: 8, GreenBits: 8, BlueBits: 8, DepthBits: 16}, es3))

	err := verify(f, PixelFormat{RedBits: 8, GreenBits: 8, BlueBits: 8, DepthBits: 24, StencilBits: 8}, es3)
	var cerr *ContextCreationError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "depth", cerr.Capability)
	assert.Contains(t, cerr.Error(), "realized pixel format")

	err = verify(f, PixelFormat{}, Version{Major: 3, Minor: 2, ES: true})
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "version", cerr.Capability)
}
