// SPDX-License-Identifier: Unlicense OR MIT

package surface

import (
	"errors"
	"image"
	"syscall/js"

	"glhal.org/internal/gl"
	"glhal.org/internal/gl/webgl"
)

// Canvas binds a WebGL 2 context to the <canvas> element with the given
// id.
type Canvas struct {
	ID string
	// Version must be OpenGL ES 3.0, the API level of WebGL 2. The zero
	// Version selects it.
	Version Version
	// Attributes are passed to getContext. The defaults request a low
	// latency, high performance context.
	Attributes map[string]interface{}
	// Extensions lists WebGL extensions the context must support.
	Extensions []string
}

type canvasContext struct {
	cnv js.Value
	f   *webgl.Functions
}

func (d Canvas) newContext() (Context, error) {
	ver := d.Version
	if ver == (Version{}) {
		ver = Version{Major: 3, ES: true}
	}
	if !ver.ES || ver.Major != 3 || ver.Minor != 0 {
		return nil, &ContextCreationError{Capability: "version", Err: errors.New("WebGL 2 provides OpenGL ES 3.0 only")}
	}
	cnv := js.Global().Get("document").Call("getElementById", d.ID)
	if cnv.IsNull() || cnv.IsUndefined() {
		return nil, &ContextCreationError{Err: errors.New("no canvas with id " + d.ID)}
	}
	args := map[string]interface{}{
		// Enable low latency rendering.
		"desynchronized":        true,
		"preserveDrawingBuffer": false,
		"powerPreference":       "high-performance",
	}
	for k, v := range d.Attributes {
		args[k] = v
	}
	ctx := cnv.Call("getContext", "webgl2", args)
	if ctx.IsNull() {
		return nil, &ContextCreationError{Capability: "webgl2", Err: errors.New("WebGL 2 is not supported")}
	}
	for _, ext := range d.Extensions {
		if ctx.Call("getExtension", ext).IsNull() {
			return nil, &ContextCreationError{Capability: ext, Err: errors.New("extension not supported")}
		}
	}
	f, err := webgl.New(ctx)
	if err != nil {
		return nil, &ContextCreationError{Capability: "webgl2", Err: err}
	}
	return &canvasContext{cnv: cnv, f: f}, nil
}

func (c *canvasContext) Functions() gl.Functions {
	return c.f
}

func (c *canvasContext) MakeCurrent() error {
	return nil
}

func (c *canvasContext) ReleaseCurrent() {}

// Present reports a lost context. The browser composites the canvas by
// itself.
func (c *canvasContext) Present() error {
	if c.f.Ctx.Call("isContextLost").Bool() {
		return errors.New("surface: WebGL context lost")
	}
	return nil
}

func (c *canvasContext) Size() image.Point {
	return image.Pt(c.cnv.Get("width").Int(), c.cnv.Get("height").Int())
}

func (c *canvasContext) Resize(sz image.Point) {
	c.cnv.Set("width", sz.X)
	c.cnv.Set("height", sz.Y)
}

func (c *canvasContext) Release() {}
