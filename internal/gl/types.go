// SPDX-License-Identifier: Unlicense OR MIT

//go:build !js
// +build !js

package gl

type (
	Buffer       struct{ V uint }
	Framebuffer  struct{ V uint }
	Program      struct{ V uint }
	Renderbuffer struct{ V uint }
	Sampler      struct{ V uint }
	Shader       struct{ V uint }
	Sync         struct{ V uintptr }
	Texture      struct{ V uint }
	Uniform      struct{ V int }
	VertexArray  struct{ V uint }
	Object       struct{ V uint }
)

func (b Buffer) Valid() bool       { return b.V != 0 }
func (f Framebuffer) Valid() bool  { return f.V != 0 }
func (p Program) Valid() bool      { return p.V != 0 }
func (r Renderbuffer) Valid() bool { return r.V != 0 }
func (s Sampler) Valid() bool      { return s.V != 0 }
func (s Shader) Valid() bool       { return s.V != 0 }
func (s Sync) Valid() bool         { return s.V != 0 }
func (t Texture) Valid() bool      { return t.V != 0 }
func (u Uniform) Valid() bool      { return u.V != -1 }
func (a VertexArray) Valid() bool  { return a.V != 0 }

func (b Buffer) Equal(b2 Buffer) bool             { return b == b2 }
func (f Framebuffer) Equal(f2 Framebuffer) bool   { return f == f2 }
func (p Program) Equal(p2 Program) bool           { return p == p2 }
func (r Renderbuffer) Equal(r2 Renderbuffer) bool { return r == r2 }
func (s Sampler) Equal(s2 Sampler) bool           { return s == s2 }
func (t Texture) Equal(t2 Texture) bool           { return t == t2 }
func (a VertexArray) Equal(a2 VertexArray) bool   { return a == a2 }
