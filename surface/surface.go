// SPDX-License-Identifier: Unlicense OR MIT

// Package surface creates OpenGL and WebGL contexts from host supplied
// windows, hidden windows, browser canvases or the software renderer,
// and presents them behind one interface.
package surface

import (
	"errors"
	"fmt"
	"image"

	"glhal.org/internal/gl"
)

// Context is a current-able rendering context. A Context is used from
// one goroutine, locked to its OS thread where the platform requires it.
type Context interface {
	// Functions returns the GL entry points of the context.
	Functions() gl.Functions
	MakeCurrent() error
	ReleaseCurrent()
	// Present shows the default framebuffer.
	Present() error
	// Size returns the size of the default framebuffer in pixels.
	Size() image.Point
	// Resize notifies the context of a new default framebuffer size.
	Resize(sz image.Point)
	Release()
}

// Descriptor selects and configures a kind of context. The descriptors
// are Window, Headless, Software and, in browsers, Canvas.
type Descriptor interface {
	newContext() (Context, error)
}

// PixelFormat describes the default framebuffer.
type PixelFormat struct {
	RedBits, GreenBits, BlueBits, AlphaBits int
	DepthBits, StencilBits                  int
	// Samples is the multisample count. 0 and 1 both mean no
	// multisampling.
	Samples int
	SRGB    bool
}

// DefaultPixelFormat is RGBA8 with a 24 bit depth and 8 bit stencil
// buffer.
var DefaultPixelFormat = PixelFormat{
	RedBits: 8, GreenBits: 8, BlueBits: 8, AlphaBits: 8,
	DepthBits: 24, StencilBits: 8,
}

// Version is a requested or realized API version.
type Version struct {
	Major, Minor int
	// ES selects OpenGL ES. WebGL 2 contexts are OpenGL ES 3.0.
	ES bool
}

func (v Version) String() string {
	if v.ES {
		return fmt.Sprintf("OpenGL ES %d.%d", v.Major, v.Minor)
	}
	return fmt.Sprintf("OpenGL %d.%d", v.Major, v.Minor)
}

// AtLeast reports whether v is major.minor or newer.
func (v Version) AtLeast(major, minor int) bool {
	return gl.Version{Major: v.Major, Minor: v.Minor}.AtLeast(major, minor)
}

// DefaultVersion is OpenGL 3.3 core.
var DefaultVersion = Version{Major: 3, Minor: 3}

// ContextCreationError is returned when a context lacks a requested
// capability.
type ContextCreationError struct {
	// Capability names what is missing, such as "depth", "srgb" or an
	// extension name.
	Capability string
	Err        error
}

func (e *ContextCreationError) Error() string {
	msg := "surface: context creation failed"
	if e.Capability != "" {
		msg += ": " + e.Capability
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ContextCreationError) Unwrap() error {
	return e.Err
}

// NewContext creates a context from a descriptor and makes it current.
func NewContext(d Descriptor) (Context, error) {
	if d == nil {
		return nil, &ContextCreationError{Err: errors.New("nil descriptor")}
	}
	return d.newContext()
}

func withDefaults(pf PixelFormat) PixelFormat {
	if pf == (PixelFormat{}) {
		return DefaultPixelFormat
	}
	return pf
}

// missing returns the name of the first capability in req that pf
// lacks, or "".
func missing(req, pf PixelFormat) string {
	switch {
	case pf.RedBits < req.RedBits || pf.GreenBits < req.GreenBits || pf.BlueBits < req.BlueBits:
		return "color"
	case pf.AlphaBits < req.AlphaBits:
		return "alpha"
	case pf.DepthBits < req.DepthBits:
		return "depth"
	case pf.StencilBits < req.StencilBits:
		return "stencil"
	case req.Samples > 1 && pf.Samples < req.Samples:
		return "samples"
	case req.SRGB && !pf.SRGB:
		return "srgb"
	}
	return ""
}

func excess(req, pf PixelFormat) int {
	d := (pf.RedBits - req.RedBits) + (pf.GreenBits - req.GreenBits) + (pf.BlueBits - req.BlueBits) +
		(pf.AlphaBits - req.AlphaBits) + (pf.DepthBits - req.DepthBits) + (pf.StencilBits - req.StencilBits) +
		(pf.Samples - req.Samples)
	if pf.SRGB != req.SRGB {
		d++
	}
	return d
}

// ChoosePixelFormat returns the available format that satisfies req
// with the least excess. If none does, the error names a capability
// that no available format provides.
func ChoosePixelFormat(req PixelFormat, available []PixelFormat) (PixelFormat, error) {
	best, bestExcess := -1, 0
	for i, pf := range available {
		if missing(req, pf) != "" {
			continue
		}
		if e := excess(req, pf); best == -1 || e < bestExcess {
			best, bestExcess = i, e
		}
	}
	if best != -1 {
		return available[best], nil
	}
	capability := "pixel format"
	if len(available) > 0 {
		// Report the capability of the closest candidate.
		var closest PixelFormat
		fewest := -1
		for _, pf := range available {
			n := 0
			for _, c := range []bool{
				pf.RedBits < req.RedBits, pf.AlphaBits < req.AlphaBits, pf.DepthBits < req.DepthBits,
				pf.StencilBits < req.StencilBits, req.Samples > 1 && pf.Samples < req.Samples, req.SRGB && !pf.SRGB,
			} {
				if c {
					n++
				}
			}
			if fewest == -1 || n < fewest {
				fewest, closest = n, pf
			}
		}
		capability = missing(req, closest)
	}
	return PixelFormat{}, &ContextCreationError{Capability: capability, Err: errors.New("no matching pixel format")}
}

// FallbackFormats lists req followed by progressively weaker formats:
// without multisampling, without sRGB, and with a 16 bit depth and no
// stencil buffer. Duplicates are omitted.
func FallbackFormats(req PixelFormat) []PixelFormat {
	formats := []PixelFormat{req}
	add := func(pf PixelFormat) {
		if pf != formats[len(formats)-1] {
			formats = append(formats, pf)
		}
	}
	pf := req
	pf.Samples = 0
	add(pf)
	pf.SRGB = false
	add(pf)
	if pf.DepthBits > 16 {
		pf.DepthBits = 16
	}
	pf.StencilBits = 0
	add(pf)
	return formats
}

// queryPixelFormat reads the realized format of the default framebuffer.
func queryPixelFormat(f gl.Functions, es bool) PixelFormat {
	f.BindFramebuffer(gl.FRAMEBUFFER, gl.Framebuffer{})
	color := gl.Enum(gl.BACK_LEFT)
	if es {
		color = gl.BACK
	}
	get := func(att, pname gl.Enum) int {
		return f.GetFramebufferAttachmentParameteri(gl.FRAMEBUFFER, att, pname)
	}
	pf := PixelFormat{
		RedBits:     get(color, gl.FRAMEBUFFER_ATTACHMENT_RED_SIZE),
		GreenBits:   get(color, gl.FRAMEBUFFER_ATTACHMENT_GREEN_SIZE),
		BlueBits:    get(color, gl.FRAMEBUFFER_ATTACHMENT_BLUE_SIZE),
		AlphaBits:   get(color, gl.FRAMEBUFFER_ATTACHMENT_ALPHA_SIZE),
		DepthBits:   get(gl.DEPTH, gl.FRAMEBUFFER_ATTACHMENT_DEPTH_SIZE),
		StencilBits: get(gl.STENCIL, gl.FRAMEBUFFER_ATTACHMENT_STENCIL_SIZE),
		Samples:     f.GetInteger(gl.SAMPLES),
		SRGB:        get(color, gl.FRAMEBUFFER_ATTACHMENT_COLOR_ENCODING) == gl.SRGB,
	}
	// Drain errors from queries of absent attachments.
	for i := 0; i < 8 && f.GetError() != gl.NO_ERROR; i++ {
	}
	return pf
}

// verify checks the realized version and pixel format of the current
// context of f against a request.
func verify(f gl.Functions, req PixelFormat, ver Version) error {
	glVer, err := gl.ParseGLVersion(f.GetString(gl.VERSION))
	if err != nil {
		return &ContextCreationError{Capability: "version", Err: err}
	}
	if glVer.ES != ver.ES || !glVer.AtLeast(ver.Major, ver.Minor) {
		return &ContextCreationError{
			Capability: "version",
			Err:        fmt.Errorf("got %v, want %v", glVer, ver),
		}
	}
	got := queryPixelFormat(f, glVer.ES)
	if _, err := ChoosePixelFormat(req, []PixelFormat{got}); err != nil {
		var cerr *ContextCreationError
		errors.As(err, &cerr)
		cerr.Err = fmt.Errorf("realized pixel format %+v", got)
		return cerr
	}
	return nil
}
