// SPDX-License-Identifier: Unlicense OR MIT

//go:build !js
// +build !js

package surface

import (
	"fmt"
	"image"

	"glhal.org/internal/gl"
	"glhal.org/internal/softgl"
)

// Software renders with the software GL implementation. It needs no
// display and is used by tests and command line tools.
type Software struct {
	Width, Height int
	PixelFormat   PixelFormat
	// Version defaults to OpenGL ES 3.0.
	Version Version
	// NoFences simulates a context without sync objects.
	NoFences bool
	// NoResetStatus simulates a context that reports resets only
	// through glGetError.
	NoResetStatus bool
}

// SoftwareContext is the Context created from a Software descriptor.
type SoftwareContext struct {
	f       *softgl.Functions
	size    image.Point
	current bool
	// Presented counts calls to Present.
	Presented int
}

func (d Software) newContext() (Context, error) {
	if d.Width <= 0 || d.Height <= 0 {
		return nil, &ContextCreationError{Err: fmt.Errorf("invalid size %dx%d", d.Width, d.Height)}
	}
	pf := withDefaults(d.PixelFormat)
	ver := d.Version
	if ver == (Version{}) {
		ver = Version{Major: 3, ES: true}
	}
	glVer := fmt.Sprintf("%d.%d softgl", ver.Major, ver.Minor)
	if ver.ES {
		glVer = fmt.Sprintf("OpenGL ES %d.%d softgl", ver.Major, ver.Minor)
	}
	f := softgl.New(softgl.Config{
		Width:         d.Width,
		Height:        d.Height,
		Version:       glVer,
		DepthBits:     pf.DepthBits,
		StencilBits:   pf.StencilBits,
		SRGB:          pf.SRGB,
		Samples:       pf.Samples,
		NoFences:      d.NoFences,
		NoResetStatus: d.NoResetStatus,
	})
	if err := verify(f, pf, ver); err != nil {
		return nil, err
	}
	return &SoftwareContext{f: f, size: image.Pt(d.Width, d.Height), current: true}, nil
}

func (c *SoftwareContext) Functions() gl.Functions {
	return c.f
}

// GL returns the software implementation for inspection.
func (c *SoftwareContext) GL() *softgl.Functions {
	return c.f
}

func (c *SoftwareContext) MakeCurrent() error {
	c.current = true
	return nil
}

func (c *SoftwareContext) ReleaseCurrent() {
	c.current = false
}

func (c *SoftwareContext) Present() error {
	if !c.current {
		return fmt.Errorf("surface: present without a current context")
	}
	c.Presented++
	return nil
}

func (c *SoftwareContext) Size() image.Point {
	return c.size
}

func (c *SoftwareContext) Resize(sz image.Point) {
	c.f.Resize(sz.X, sz.Y)
	c.size = sz
}

// Snapshot returns a copy of the default framebuffer.
func (c *SoftwareContext) Snapshot() *image.RGBA {
	return c.f.Snapshot()
}

func (c *SoftwareContext) Release() {
	c.current = false
}
