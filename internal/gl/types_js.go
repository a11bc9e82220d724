// SPDX-License-Identifier: Unlicense OR MIT

package gl

import "syscall/js"

type (
	Buffer       js.Value
	Framebuffer  js.Value
	Program      js.Value
	Renderbuffer js.Value
	Sampler      js.Value
	Shader       js.Value
	Sync         js.Value
	Texture      js.Value
	Uniform      js.Value
	VertexArray  js.Value
	Object       js.Value
)

func valid(v js.Value) bool {
	return !v.IsUndefined() && !v.IsNull()
}

// equal reports whether two objects are the same. The zero js.Value is
// undefined, and WebGL reports unbound objects as null; both mean "none".
func equal(a, b js.Value) bool {
	if !valid(a) || !valid(b) {
		return valid(a) == valid(b)
	}
	return a.Equal(b)
}

func (b Buffer) Valid() bool       { return valid(js.Value(b)) }
func (f Framebuffer) Valid() bool  { return valid(js.Value(f)) }
func (p Program) Valid() bool      { return valid(js.Value(p)) }
func (r Renderbuffer) Valid() bool { return valid(js.Value(r)) }
func (s Sampler) Valid() bool      { return valid(js.Value(s)) }
func (s Shader) Valid() bool       { return valid(js.Value(s)) }
func (s Sync) Valid() bool         { return valid(js.Value(s)) }
func (t Texture) Valid() bool      { return valid(js.Value(t)) }
func (u Uniform) Valid() bool      { return valid(js.Value(u)) }
func (a VertexArray) Valid() bool  { return valid(js.Value(a)) }

func (b Buffer) Equal(b2 Buffer) bool             { return equal(js.Value(b), js.Value(b2)) }
func (f Framebuffer) Equal(f2 Framebuffer) bool   { return equal(js.Value(f), js.Value(f2)) }
func (p Program) Equal(p2 Program) bool           { return equal(js.Value(p), js.Value(p2)) }
func (r Renderbuffer) Equal(r2 Renderbuffer) bool { return equal(js.Value(r), js.Value(r2)) }
func (s Sampler) Equal(s2 Sampler) bool           { return equal(js.Value(s), js.Value(s2)) }
func (t Texture) Equal(t2 Texture) bool           { return equal(js.Value(t), js.Value(t2)) }
func (a VertexArray) Equal(a2 VertexArray) bool   { return equal(js.Value(a), js.Value(a2)) }
