// SPDX-License-Identifier: Unlicense OR MIT

//go:build !js
// +build !js

package softgl

import (
	"encoding/binary"
	"math"
	"strings"
	"testing"

	"glhal.org/internal/gl"
)

const vertSrc = `#version 300 es
layout(location = 0) in vec2 pos;
out vec2 uv;
void main() {
	uv = pos;
	gl_Position = vec4(pos, 0.0, 1.0);
}
`

const fragSrc = `#version 300 es
precision mediump float;
in vec2 uv;
uniform vec4 color;
out vec4 fragColor;
void main() {
	fragColor = color;
}
`

func floats(vs ...float32) []byte {
	b := make([]byte, 4*len(vs))
	for i, v := range vs {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(v))
	}
	return b
}

func buildProgram(t *testing.T, f *Functions, vsrc, fsrc string) gl.Program {
	t.Helper()
	vs, log, err := gl.CreateShader(f, gl.VERTEX_SHADER, vsrc)
	if err != nil {
		t.Fatalf("vertex shader: %v: %s", err, log)
	}
	fs, log, err := gl.CreateShader(f, gl.FRAGMENT_SHADER, fsrc)
	if err != nil {
		t.Fatalf("fragment shader: %v: %s", err, log)
	}
	p, log, err := gl.LinkProgram(f, []gl.Shader{vs, fs}, nil)
	if err != nil {
		t.Fatalf("link: %v: %s", err, log)
	}
	return p
}

func TestCompileUndeclared(t *testing.T) {
	f := New(Config{Width: 4, Height: 4})
	src := strings.Replace(fragSrc, "fragColor = color;", "fragColor = colour;", 1)
	_, log, err := gl.CreateShader(f, gl.FRAGMENT_SHADER, src)
	if err == nil {
		t.Fatal("compile succeeded")
	}
	if !strings.Contains(log, "0:7: 'colour' : undeclared identifier") {
		t.Errorf("unexpected log %q", log)
	}
	if n := f.Live("shader"); n != 0 {
		t.Errorf("%d shaders leaked", n)
	}
}

func TestLinkVaryingMismatch(t *testing.T) {
	f := New(Config{Width: 4, Height: 4})
	vs, _, err := gl.CreateShader(f, gl.VERTEX_SHADER, strings.Replace(vertSrc, "uv", "st", -1))
	if err != nil {
		t.Fatal(err)
	}
	fs, _, err := gl.CreateShader(f, gl.FRAGMENT_SHADER, fragSrc)
	if err != nil {
		t.Fatal(err)
	}
	_, log, err := gl.LinkProgram(f, []gl.Shader{vs, fs}, nil)
	if err == nil {
		t.Fatal("link succeeded")
	}
	if !strings.Contains(log, "'uv'") {
		t.Errorf("log does not name the varying: %q", log)
	}
}

func TestReflection(t *testing.T) {
	f := New(Config{Width: 4, Height: 4})
	p := buildProgram(t, f, vertSrc, fragSrc)
	if n := f.GetProgrami(p, gl.ACTIVE_ATTRIBUTES); n != 1 {
		t.Fatalf("%d attributes", n)
	}
	name, size, typ := f.GetActiveAttrib(p, 0)
	if name != "pos" || size != 1 || typ != gl.FLOAT_VEC2 {
		t.Errorf("attribute %q %d 0x%x", name, size, typ)
	}
	if loc := f.GetUniformLocation(p, "color"); !loc.Valid() {
		t.Error("color uniform not found")
	}
	if loc := f.GetUniformLocation(p, "missing"); loc.Valid() {
		t.Error("missing uniform found")
	}
}

func TestDrawTriangle(t *testing.T) {
	f := New(Config{Width: 8, Height: 8})
	p := buildProgram(t, f, vertSrc, fragSrc)
	f.UseProgram(p)
	f.Uniform4f(f.GetUniformLocation(p, "color"), 1, 0, 0, 1)
	buf := f.CreateBuffer()
	f.BindBuffer(gl.ARRAY_BUFFER, buf)
	f.BufferData(gl.ARRAY_BUFFER, 6*4*2, gl.STATIC_DRAW, floats(-1, -1, 1, -1, -1, 1, -1, 1, 1, -1, 1, 1))
	f.VertexAttribPointer(0, 2, gl.FLOAT, false, 0, 0)
	f.EnableVertexAttribArray(0)
	f.DrawArrays(gl.TRIANGLES, 0, 6)
	if e := f.GetError(); e != gl.NO_ERROR {
		t.Fatalf("GL error %s", gl.ErrorString(e))
	}
	pix := make([]byte, 8*8*4)
	f.ReadPixels(0, 0, 8, 8, gl.RGBA, gl.UNSIGNED_BYTE, pix)
	for i := 0; i < len(pix); i += 4 {
		if pix[i] != 255 || pix[i+1] != 0 || pix[i+3] != 255 {
			t.Fatalf("pixel %d = %v, want red", i/4, pix[i:i+4])
		}
	}
}

func TestFences(t *testing.T) {
	f := New(Config{Width: 1, Height: 1})
	s := f.FenceSync(gl.SYNC_GPU_COMMANDS_COMPLETE, 0)
	if got := f.ClientWaitSync(s, 0, 0); got != gl.TIMEOUT_EXPIRED {
		t.Errorf("pending fence: 0x%x", got)
	}
	f.Retire()
	if got := f.ClientWaitSync(s, 0, 0); got != gl.ALREADY_SIGNALED {
		t.Errorf("retired fence: 0x%x", got)
	}
	f.DeleteSync(s)
	if f.Live("sync") != 0 {
		t.Error("sync leaked")
	}
	nf := New(Config{Width: 1, Height: 1, NoFences: true})
	if nf.FenceSync(gl.SYNC_GPU_COMMANDS_COMPLETE, 0).Valid() {
		t.Error("fence created without fence support")
	}
}

func TestOutOfMemory(t *testing.T) {
	f := New(Config{Width: 1, Height: 1})
	f.SetMemoryBudget(100)
	b := f.CreateBuffer()
	f.BindBuffer(gl.ARRAY_BUFFER, b)
	f.BufferData(gl.ARRAY_BUFFER, 200, gl.STATIC_DRAW, nil)
	if e := f.GetError(); e != gl.OUT_OF_MEMORY {
		t.Fatalf("got %s, want GL_OUT_OF_MEMORY", gl.ErrorString(e))
	}
	f.BufferData(gl.ARRAY_BUFFER, 50, gl.STATIC_DRAW, nil)
	if e := f.GetError(); e != gl.NO_ERROR {
		t.Fatalf("in-budget allocation failed: %s", gl.ErrorString(e))
	}
}

func TestContextLoss(t *testing.T) {
	f := New(Config{Width: 1, Height: 1})
	f.LoseContext()
	if f.GetGraphicsResetStatus() == gl.NO_ERROR {
		t.Error("reset not reported")
	}
	if f.CreateBuffer().Valid() {
		t.Error("object created on a lost context")
	}
	if e := f.GetError(); e != gl.CONTEXT_LOST {
		t.Errorf("GetError = %s", gl.ErrorString(e))
	}
}

func TestFramebufferDimensions(t *testing.T) {
	newTex := func(f *Functions, w, h int) gl.Texture {
		tex := f.CreateTexture()
		f.BindTexture(gl.TEXTURE_2D, tex)
		f.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, w, h, gl.RGBA, gl.UNSIGNED_BYTE, nil)
		return tex
	}
	for _, tc := range []struct {
		version string
		want    gl.Enum
	}{
		{"OpenGL ES 3.0", gl.FRAMEBUFFER_INCOMPLETE_DIMENSIONS},
		{"3.3.0 softgl", gl.FRAMEBUFFER_COMPLETE},
	} {
		f := New(Config{Width: 1, Height: 1, Version: tc.version})
		a, b := newTex(f, 4, 4), newTex(f, 8, 8)
		fbo := f.CreateFramebuffer()
		f.BindFramebuffer(gl.FRAMEBUFFER, fbo)
		f.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, a, 0)
		f.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT1, gl.TEXTURE_2D, b, 0)
		if got := f.CheckFramebufferStatus(gl.FRAMEBUFFER); got != tc.want {
			t.Errorf("%s: status 0x%x, want 0x%x", tc.version, got, tc.want)
		}
	}
}
