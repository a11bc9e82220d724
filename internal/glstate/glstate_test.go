// SPDX-License-Identifier: Unlicense OR MIT

//go:build !js
// +build !js

package glstate

import (
	"testing"

	"glhal.org/internal/gl"
	"glhal.org/internal/softgl"
)

func newCache() (*Cache, *softgl.Functions) {
	f := softgl.New(softgl.Config{Width: 16, Height: 16})
	return New(f, Limits{TextureUnits: 4, VertexAttribs: 4, UniformBufferBindings: 2}), f
}

func TestRedundantCallsSkipped(t *testing.T) {
	c, f := newCache()
	tex := f.CreateTexture()
	buf := f.CreateBuffer()
	apply := func() {
		c.Set(gl.BLEND, true)
		c.BlendFuncSeparate(gl.ONE, gl.ONE_MINUS_SRC_ALPHA, gl.ONE, gl.ONE_MINUS_SRC_ALPHA)
		c.DepthFunc(gl.LEQUAL)
		c.DepthMask(false)
		c.Viewport(0, 0, 16, 16)
		c.ClearColor(0, 0, 0, 1)
		c.BindTexture(1, gl.TEXTURE_2D, tex)
		c.BindBuffer(gl.ARRAY_BUFFER, buf)
		c.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	}
	apply()
	first := f.Calls()
	if first == 0 {
		t.Fatal("no calls issued")
	}
	apply()
	if got := f.Calls(); got != first {
		t.Errorf("reapplying identical state issued %d calls", got-first)
	}
	if s := c.Stats(); s.Skipped == 0 {
		t.Errorf("no skipped calls recorded: %+v", s)
	}
}

func TestInvalidate(t *testing.T) {
	c, f := newCache()
	c.Viewport(0, 0, 4, 4)
	c.Viewport(0, 0, 4, 4)
	if n := f.Count("Viewport"); n != 1 {
		t.Fatalf("Viewport called %d times", n)
	}
	c.Invalidate()
	c.Viewport(0, 0, 4, 4)
	if n := f.Count("Viewport"); n != 2 {
		t.Errorf("Viewport called %d times after Invalidate", n)
	}
}

func TestUnknownStateIssued(t *testing.T) {
	c, f := newCache()
	// The zero value matches the mirror, but the mirror is unknown.
	c.Set(gl.DEPTH_TEST, false)
	if n := f.Count("Disable"); n != 1 {
		t.Errorf("Disable called %d times", n)
	}
}

func TestDeleteClearsBinding(t *testing.T) {
	c, f := newCache()
	p := f.CreateProgram()
	c.BindFramebuffer(gl.FRAMEBUFFER, gl.Framebuffer{})
	fbo := f.CreateFramebuffer()
	c.BindFramebuffer(gl.FRAMEBUFFER, fbo)
	c.DeleteFramebuffer(fbo)
	if cur, known := c.Framebuffer(); !known || cur.Valid() {
		t.Errorf("framebuffer binding = %v (known %v) after delete", cur, known)
	}
	// GL rebinds 0 on delete, so binding 0 again is redundant.
	n := f.Count("BindFramebuffer")
	c.BindFramebuffer(gl.FRAMEBUFFER, gl.Framebuffer{})
	if f.Count("BindFramebuffer") != n {
		t.Error("redundant bind after delete")
	}
	c.DeleteProgram(p)
}

func TestTextureUnits(t *testing.T) {
	c, f := newCache()
	a, b := f.CreateTexture(), f.CreateTexture()
	c.BindTexture(0, gl.TEXTURE_2D, a)
	c.BindTexture(1, gl.TEXTURE_2D, b)
	c.BindTexture(0, gl.TEXTURE_2D, a)
	c.BindTexture(1, gl.TEXTURE_2D, b)
	if n := f.Count("BindTexture"); n != 2 {
		t.Errorf("BindTexture called %d times", n)
	}
	if n := f.Count("ActiveTexture"); n != 2 {
		t.Errorf("ActiveTexture called %d times", n)
	}
	c.DeleteTexture(a)
	c.BindTexture(0, gl.TEXTURE_2D, gl.Texture{})
	if n := f.Count("BindTexture"); n != 2 {
		t.Errorf("binding the zero texture over a deleted one was not skipped")
	}
}

func TestVertexArrayForgetsAttribs(t *testing.T) {
	c, f := newCache()
	buf := f.CreateBuffer()
	c.VertexAttribPointer(buf, 0, 2, gl.FLOAT, false, 8, 0)
	c.VertexAttribPointer(buf, 0, 2, gl.FLOAT, false, 8, 0)
	if n := f.Count("VertexAttribPointer"); n != 1 {
		t.Fatalf("VertexAttribPointer called %d times", n)
	}
	c.BindVertexArray(f.CreateVertexArray())
	c.VertexAttribPointer(buf, 0, 2, gl.FLOAT, false, 8, 0)
	if n := f.Count("VertexAttribPointer"); n != 2 {
		t.Errorf("attribute state survived a vertex array change")
	}
}
