// SPDX-License-Identifier: Unlicense OR MIT

//go:build !js && !android && !ios
// +build !js,!android,!ios

package surface

import (
	"errors"
	"fmt"
	"image"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"

	"glhal.org/internal/gl"
	"glhal.org/internal/gl/native"
)

// Window binds the OpenGL context of a host created GLFW window. Call
// WindowHints with the same PixelFormat and Version before creating the
// window.
type Window struct {
	Window      *glfw.Window
	PixelFormat PixelFormat
	Version     Version
}

// Headless creates a hidden GLFW window of the given size and renders to
// its default framebuffer. GLFW is initialized and terminated by the
// context.
type Headless struct {
	Width, Height int
	PixelFormat   PixelFormat
	Version       Version
}

type glfwContext struct {
	win   *glfw.Window
	f     *native.Functions
	owned bool
	size  image.Point
}

// WindowHints sets the GLFW window hints requesting a context of version
// ver with the pixel format pf.
func WindowHints(pf PixelFormat, ver Version) {
	pf = withDefaults(pf)
	if ver == (Version{}) {
		ver = DefaultVersion
	}
	glfw.WindowHint(glfw.RedBits, pf.RedBits)
	glfw.WindowHint(glfw.GreenBits, pf.GreenBits)
	glfw.WindowHint(glfw.BlueBits, pf.BlueBits)
	glfw.WindowHint(glfw.AlphaBits, pf.AlphaBits)
	glfw.WindowHint(glfw.DepthBits, pf.DepthBits)
	glfw.WindowHint(glfw.StencilBits, pf.StencilBits)
	samples := pf.Samples
	if samples <= 1 {
		samples = 0
	}
	glfw.WindowHint(glfw.Samples, samples)
	glfw.WindowHint(glfw.SRGBCapable, glfwBool(pf.SRGB))
	// Resets must surface as GL_CONTEXT_LOST instead of undefined
	// behavior.
	glfw.WindowHint(glfw.ContextRobustness, glfw.LoseContextOnReset)
	glfw.WindowHint(glfw.ContextVersionMajor, ver.Major)
	glfw.WindowHint(glfw.ContextVersionMinor, ver.Minor)
	if ver.ES {
		glfw.WindowHint(glfw.ClientAPI, glfw.OpenGLESAPI)
	} else {
		glfw.WindowHint(glfw.ClientAPI, glfw.OpenGLAPI)
		if ver.AtLeast(3, 2) {
			glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
			glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
		}
	}
}

func glfwBool(b bool) int {
	if b {
		return glfw.True
	}
	return glfw.False
}

func (d Window) newContext() (Context, error) {
	if d.Window == nil {
		return nil, &ContextCreationError{Err: errors.New("nil GLFW window")}
	}
	ver := d.Version
	if ver == (Version{}) {
		ver = DefaultVersion
	}
	// Contexts are bound to the thread that made them current.
	runtime.LockOSThread()
	c := &glfwContext{win: d.Window}
	if err := c.init(withDefaults(d.PixelFormat), ver); err != nil {
		runtime.UnlockOSThread()
		return nil, err
	}
	return c, nil
}

func (d Headless) newContext() (Context, error) {
	if d.Width <= 0 || d.Height <= 0 {
		return nil, &ContextCreationError{Err: fmt.Errorf("invalid size %dx%d", d.Width, d.Height)}
	}
	ver := d.Version
	if ver == (Version{}) {
		ver = DefaultVersion
	}
	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		runtime.UnlockOSThread()
		return nil, &ContextCreationError{Err: err}
	}
	var lastErr error
	for _, pf := range FallbackFormats(withDefaults(d.PixelFormat)) {
		glfw.DefaultWindowHints()
		glfw.WindowHint(glfw.Visible, glfw.False)
		WindowHints(pf, ver)
		win, err := glfw.CreateWindow(d.Width, d.Height, "glhal", nil, nil)
		if err != nil {
			lastErr = err
			continue
		}
		c := &glfwContext{win: win, owned: true}
		if err := c.init(pf, ver); err != nil {
			win.Destroy()
			lastErr = err
			continue
		}
		return c, nil
	}
	glfw.Terminate()
	runtime.UnlockOSThread()
	var cerr *ContextCreationError
	if errors.As(lastErr, &cerr) {
		return nil, cerr
	}
	return nil, &ContextCreationError{Capability: "pixel format", Err: lastErr}
}

func (c *glfwContext) init(pf PixelFormat, ver Version) error {
	c.win.MakeContextCurrent()
	f, err := native.New()
	if err != nil {
		glfw.DetachCurrentContext()
		return &ContextCreationError{Err: fmt.Errorf("loading GL entry points: %w", err)}
	}
	if err := verify(f, pf, ver); err != nil {
		glfw.DetachCurrentContext()
		return err
	}
	if pf.SRGB {
		f.Enable(gl.FRAMEBUFFER_SRGB)
	}
	c.f = f
	w, h := c.win.GetFramebufferSize()
	c.size = image.Pt(w, h)
	return nil
}

func (c *glfwContext) Functions() gl.Functions {
	return c.f
}

func (c *glfwContext) MakeCurrent() error {
	c.win.MakeContextCurrent()
	return nil
}

func (c *glfwContext) ReleaseCurrent() {
	glfw.DetachCurrentContext()
}

func (c *glfwContext) Present() error {
	c.win.SwapBuffers()
	return nil
}

func (c *glfwContext) Size() image.Point {
	return c.size
}

func (c *glfwContext) Resize(sz image.Point) {
	if c.owned {
		c.win.SetSize(sz.X, sz.Y)
		w, h := c.win.GetFramebufferSize()
		sz = image.Pt(w, h)
	}
	c.size = sz
}

func (c *glfwContext) Release() {
	glfw.DetachCurrentContext()
	if c.owned {
		c.win.Destroy()
		glfw.Terminate()
	}
	runtime.UnlockOSThread()
}
