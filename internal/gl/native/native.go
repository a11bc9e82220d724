// SPDX-License-Identifier: Unlicense OR MIT

//go:build !js
// +build !js

// Package native implements gl.Functions on top of the desktop OpenGL 3.3
// core profile entry points loaded by go-gl.
package native

import (
	"strings"
	"unsafe"

	"github.com/go-gl/gl/v3.3-core/gl"

	glhal "glhal.org/internal/gl"
)

// Functions implements gl.Functions. The zero value is not usable; call
// New with a current context.
type Functions struct {
	// lost is set once glGetError has reported GL_CONTEXT_LOST. The 3.3
	// core profile has no glGetGraphicsResetStatus.
	lost bool
}

var _ glhal.Functions = (*Functions)(nil)

// New loads the GL entry points for the context current on the calling
// thread.
func New() (*Functions, error) {
	if err := gl.Init(); err != nil {
		return nil, err
	}
	return new(Functions), nil
}

func ptr(data []byte) unsafe.Pointer {
	if len(data) == 0 {
		return nil
	}
	return unsafe.Pointer(&data[0])
}

func (f *Functions) ActiveTexture(texture glhal.Enum) {
	gl.ActiveTexture(uint32(texture))
}

func (f *Functions) AttachShader(p glhal.Program, s glhal.Shader) {
	gl.AttachShader(uint32(p.V), uint32(s.V))
}

func (f *Functions) BindAttribLocation(p glhal.Program, a glhal.Attrib, name string) {
	gl.BindAttribLocation(uint32(p.V), uint32(a), gl.Str(name+"\x00"))
}

func (f *Functions) BindBuffer(target glhal.Enum, b glhal.Buffer) {
	gl.BindBuffer(uint32(target), uint32(b.V))
}

func (f *Functions) BindBufferBase(target glhal.Enum, index int, b glhal.Buffer) {
	gl.BindBufferBase(uint32(target), uint32(index), uint32(b.V))
}

func (f *Functions) BindFramebuffer(target glhal.Enum, fb glhal.Framebuffer) {
	gl.BindFramebuffer(uint32(target), uint32(fb.V))
}

func (f *Functions) BindRenderbuffer(target glhal.Enum, rb glhal.Renderbuffer) {
	gl.BindRenderbuffer(uint32(target), uint32(rb.V))
}

func (f *Functions) BindSampler(unit int, s glhal.Sampler) {
	gl.BindSampler(uint32(unit), uint32(s.V))
}

func (f *Functions) BindTexture(target glhal.Enum, t glhal.Texture) {
	gl.BindTexture(uint32(target), uint32(t.V))
}

func (f *Functions) BindVertexArray(a glhal.VertexArray) {
	gl.BindVertexArray(uint32(a.V))
}

func (f *Functions) BlendEquationSeparate(modeRGB, modeAlpha glhal.Enum) {
	gl.BlendEquationSeparate(uint32(modeRGB), uint32(modeAlpha))
}

func (f *Functions) BlendFuncSeparate(srcRGB, dstRGB, srcA, dstA glhal.Enum) {
	gl.BlendFuncSeparate(uint32(srcRGB), uint32(dstRGB), uint32(srcA), uint32(dstA))
}

func (f *Functions) BlitFramebuffer(sx0, sy0, sx1, sy1, dx0, dy0, dx1, dy1 int, mask glhal.Enum, filter glhal.Enum) {
	gl.BlitFramebuffer(int32(sx0), int32(sy0), int32(sx1), int32(sy1), int32(dx0), int32(dy0), int32(dx1), int32(dy1), uint32(mask), uint32(filter))
}

func (f *Functions) BufferData(target glhal.Enum, size int, usage glhal.Enum, data []byte) {
	gl.BufferData(uint32(target), size, ptr(data), uint32(usage))
}

func (f *Functions) BufferSubData(target glhal.Enum, offset int, src []byte) {
	gl.BufferSubData(uint32(target), offset, len(src), ptr(src))
}

func (f *Functions) CheckFramebufferStatus(target glhal.Enum) glhal.Enum {
	return glhal.Enum(gl.CheckFramebufferStatus(uint32(target)))
}

func (f *Functions) Clear(mask glhal.Enum) {
	gl.Clear(uint32(mask))
}

func (f *Functions) ClearColor(red, green, blue, alpha float32) {
	gl.ClearColor(red, green, blue, alpha)
}

func (f *Functions) ClearDepthf(d float32) {
	gl.ClearDepth(float64(d))
}

func (f *Functions) ClearStencil(s int) {
	gl.ClearStencil(int32(s))
}

func (f *Functions) ClientWaitSync(s glhal.Sync, flags glhal.Enum, timeout uint64) glhal.Enum {
	return glhal.Enum(gl.ClientWaitSync(s.V, uint32(flags), timeout))
}

func (f *Functions) ColorMask(r, g, b, a bool) {
	gl.ColorMask(r, g, b, a)
}

func (f *Functions) CompileShader(s glhal.Shader) {
	gl.CompileShader(uint32(s.V))
}

func (f *Functions) CreateBuffer() glhal.Buffer {
	var buf uint32
	gl.GenBuffers(1, &buf)
	return glhal.Buffer{V: uint(buf)}
}

func (f *Functions) CreateFramebuffer() glhal.Framebuffer {
	var fb uint32
	gl.GenFramebuffers(1, &fb)
	return glhal.Framebuffer{V: uint(fb)}
}

func (f *Functions) CreateProgram() glhal.Program {
	return glhal.Program{V: uint(gl.CreateProgram())}
}

func (f *Functions) CreateRenderbuffer() glhal.Renderbuffer {
	var rb uint32
	gl.GenRenderbuffers(1, &rb)
	return glhal.Renderbuffer{V: uint(rb)}
}

func (f *Functions) CreateSampler() glhal.Sampler {
	var s uint32
	gl.GenSamplers(1, &s)
	return glhal.Sampler{V: uint(s)}
}

func (f *Functions) CreateShader(ty glhal.Enum) glhal.Shader {
	return glhal.Shader{V: uint(gl.CreateShader(uint32(ty)))}
}

func (f *Functions) CreateTexture() glhal.Texture {
	var t uint32
	gl.GenTextures(1, &t)
	return glhal.Texture{V: uint(t)}
}

func (f *Functions) CreateVertexArray() glhal.VertexArray {
	var a uint32
	gl.GenVertexArrays(1, &a)
	return glhal.VertexArray{V: uint(a)}
}

func (f *Functions) CullFace(mode glhal.Enum) {
	gl.CullFace(uint32(mode))
}

func (f *Functions) DeleteBuffer(v glhal.Buffer) {
	buf := uint32(v.V)
	gl.DeleteBuffers(1, &buf)
}

func (f *Functions) DeleteFramebuffer(v glhal.Framebuffer) {
	fb := uint32(v.V)
	gl.DeleteFramebuffers(1, &fb)
}

func (f *Functions) DeleteProgram(p glhal.Program) {
	gl.DeleteProgram(uint32(p.V))
}

func (f *Functions) DeleteRenderbuffer(rb glhal.Renderbuffer) {
	r := uint32(rb.V)
	gl.DeleteRenderbuffers(1, &r)
}

func (f *Functions) DeleteSampler(s glhal.Sampler) {
	v := uint32(s.V)
	gl.DeleteSamplers(1, &v)
}

func (f *Functions) DeleteShader(s glhal.Shader) {
	gl.DeleteShader(uint32(s.V))
}

func (f *Functions) DeleteSync(s glhal.Sync) {
	gl.DeleteSync(s.V)
}

func (f *Functions) DeleteTexture(v glhal.Texture) {
	t := uint32(v.V)
	gl.DeleteTextures(1, &t)
}

func (f *Functions) DeleteVertexArray(a glhal.VertexArray) {
	v := uint32(a.V)
	gl.DeleteVertexArrays(1, &v)
}

func (f *Functions) DepthFunc(d glhal.Enum) {
	gl.DepthFunc(uint32(d))
}

func (f *Functions) DepthMask(mask bool) {
	gl.DepthMask(mask)
}

func (f *Functions) Disable(cap glhal.Enum) {
	gl.Disable(uint32(cap))
}

func (f *Functions) DisableVertexAttribArray(a glhal.Attrib) {
	gl.DisableVertexAttribArray(uint32(a))
}

func (f *Functions) DrawArrays(mode glhal.Enum, first, count int) {
	gl.DrawArrays(uint32(mode), int32(first), int32(count))
}

func (f *Functions) DrawArraysInstanced(mode glhal.Enum, first, count, instances int) {
	gl.DrawArraysInstanced(uint32(mode), int32(first), int32(count), int32(instances))
}

func (f *Functions) DrawBuffers(bufs []glhal.Enum) {
	if len(bufs) == 0 {
		return
	}
	enums := make([]uint32, len(bufs))
	for i, b := range bufs {
		enums[i] = uint32(b)
	}
	gl.DrawBuffers(int32(len(enums)), &enums[0])
}

func (f *Functions) DrawElements(mode glhal.Enum, count int, ty glhal.Enum, offset int) {
	gl.DrawElements(uint32(mode), int32(count), uint32(ty), gl.PtrOffset(offset))
}

func (f *Functions) DrawElementsInstanced(mode glhal.Enum, count int, ty glhal.Enum, offset, instances int) {
	gl.DrawElementsInstanced(uint32(mode), int32(count), uint32(ty), gl.PtrOffset(offset), int32(instances))
}

func (f *Functions) Enable(cap glhal.Enum) {
	gl.Enable(uint32(cap))
}

func (f *Functions) EnableVertexAttribArray(a glhal.Attrib) {
	gl.EnableVertexAttribArray(uint32(a))
}

func (f *Functions) FenceSync(condition, flags glhal.Enum) glhal.Sync {
	return glhal.Sync{V: gl.FenceSync(uint32(condition), uint32(flags))}
}

func (f *Functions) Finish() {
	gl.Finish()
}

func (f *Functions) Flush() {
	gl.Flush()
}

func (f *Functions) FramebufferRenderbuffer(target, attachment, renderbuffertarget glhal.Enum, renderbuffer glhal.Renderbuffer) {
	gl.FramebufferRenderbuffer(uint32(target), uint32(attachment), uint32(renderbuffertarget), uint32(renderbuffer.V))
}

func (f *Functions) FramebufferTexture2D(target, attachment, texTarget glhal.Enum, t glhal.Texture, level int) {
	gl.FramebufferTexture2D(uint32(target), uint32(attachment), uint32(texTarget), uint32(t.V), int32(level))
}

func (f *Functions) FrontFace(mode glhal.Enum) {
	gl.FrontFace(uint32(mode))
}

func (f *Functions) GenerateMipmap(target glhal.Enum) {
	gl.GenerateMipmap(uint32(target))
}

func (f *Functions) GetActiveAttrib(p glhal.Program, index int) (string, int, glhal.Enum) {
	var (
		length, size int32
		ty           uint32
		buf          [256]uint8
	)
	gl.GetActiveAttrib(uint32(p.V), uint32(index), int32(len(buf)), &length, &size, &ty, &buf[0])
	return string(buf[:length]), int(size), glhal.Enum(ty)
}

func (f *Functions) GetActiveUniform(p glhal.Program, index int) (string, int, glhal.Enum) {
	var (
		length, size int32
		ty           uint32
		buf          [256]uint8
	)
	gl.GetActiveUniform(uint32(p.V), uint32(index), int32(len(buf)), &length, &size, &ty, &buf[0])
	return string(buf[:length]), int(size), glhal.Enum(ty)
}

func (f *Functions) GetActiveUniformBlockName(p glhal.Program, index int) string {
	var (
		length int32
		buf    [256]uint8
	)
	gl.GetActiveUniformBlockName(uint32(p.V), uint32(index), int32(len(buf)), &length, &buf[0])
	return string(buf[:length])
}

func (f *Functions) GetAttribLocation(p glhal.Program, name string) int {
	return int(gl.GetAttribLocation(uint32(p.V), gl.Str(name+"\x00")))
}

func (f *Functions) GetBufferSubData(target glhal.Enum, offset int, dst []byte) {
	gl.GetBufferSubData(uint32(target), offset, len(dst), ptr(dst))
}

func (f *Functions) GetError() glhal.Enum {
	e := glhal.Enum(gl.GetError())
	if e == glhal.CONTEXT_LOST {
		f.lost = true
	}
	return e
}

func (f *Functions) GetFloat(pname glhal.Enum) float32 {
	var v [16]float32
	gl.GetFloatv(uint32(pname), &v[0])
	return v[0]
}

func (f *Functions) GetFramebufferAttachmentParameteri(target, attachment, pname glhal.Enum) int {
	var v int32
	gl.GetFramebufferAttachmentParameteriv(uint32(target), uint32(attachment), uint32(pname), &v)
	return int(v)
}

func (f *Functions) GetGraphicsResetStatus() glhal.Enum {
	if f.lost {
		return glhal.UNKNOWN_CONTEXT_RESET
	}
	return glhal.NO_ERROR
}

func (f *Functions) GetInteger(pname glhal.Enum) int {
	var p [16]int32
	gl.GetIntegerv(uint32(pname), &p[0])
	return int(p[0])
}

func (f *Functions) GetProgrami(p glhal.Program, pname glhal.Enum) int {
	var v int32
	gl.GetProgramiv(uint32(p.V), uint32(pname), &v)
	return int(v)
}

func (f *Functions) GetProgramInfoLog(p glhal.Program) string {
	var logLength int32
	gl.GetProgramiv(uint32(p.V), gl.INFO_LOG_LENGTH, &logLength)
	if logLength == 0 {
		return ""
	}
	log := strings.Repeat("\x00", int(logLength+1))
	gl.GetProgramInfoLog(uint32(p.V), logLength, nil, gl.Str(log))
	return log[:logLength]
}

func (f *Functions) GetShaderi(s glhal.Shader, pname glhal.Enum) int {
	var v int32
	gl.GetShaderiv(uint32(s.V), uint32(pname), &v)
	return int(v)
}

func (f *Functions) GetShaderInfoLog(s glhal.Shader) string {
	var logLength int32
	gl.GetShaderiv(uint32(s.V), gl.INFO_LOG_LENGTH, &logLength)
	if logLength == 0 {
		return ""
	}
	log := strings.Repeat("\x00", int(logLength+1))
	gl.GetShaderInfoLog(uint32(s.V), logLength, nil, gl.Str(log))
	return log[:logLength]
}

func (f *Functions) GetString(pname glhal.Enum) string {
	switch pname {
	case glhal.EXTENSIONS:
		// OpenGL 3 core profile doesn't support glGetString(GL_EXTENSIONS).
		// Use glGetStringi(GL_EXTENSIONS, <index>).
		var exts []string
		nexts := f.GetInteger(glhal.NUM_EXTENSIONS)
		for i := 0; i < nexts; i++ {
			ext := gl.GetStringi(gl.EXTENSIONS, uint32(i))
			exts = append(exts, gl.GoStr(ext))
		}
		return strings.Join(exts, " ")
	default:
		return gl.GoStr(gl.GetString(uint32(pname)))
	}
}

func (f *Functions) GetUniformBlockIndex(p glhal.Program, name string) uint {
	return uint(gl.GetUniformBlockIndex(uint32(p.V), gl.Str(name+"\x00")))
}

func (f *Functions) GetUniformLocation(p glhal.Program, name string) glhal.Uniform {
	return glhal.Uniform{V: int(gl.GetUniformLocation(uint32(p.V), gl.Str(name+"\x00")))}
}

func (f *Functions) LinkProgram(p glhal.Program) {
	gl.LinkProgram(uint32(p.V))
}

func (f *Functions) PixelStorei(pname glhal.Enum, param int) {
	gl.PixelStorei(uint32(pname), int32(param))
}

func (f *Functions) ReadPixels(x, y, width, height int, format, ty glhal.Enum, data []byte) {
	gl.ReadPixels(int32(x), int32(y), int32(width), int32(height), uint32(format), uint32(ty), ptr(data))
}

func (f *Functions) RenderbufferStorageMultisample(target glhal.Enum, samples int, internalformat glhal.Enum, width, height int) {
	gl.RenderbufferStorageMultisample(uint32(target), int32(samples), uint32(internalformat), int32(width), int32(height))
}

func (f *Functions) SamplerParameterf(s glhal.Sampler, pname glhal.Enum, param float32) {
	gl.SamplerParameterf(uint32(s.V), uint32(pname), param)
}

func (f *Functions) SamplerParameteri(s glhal.Sampler, pname glhal.Enum, param int) {
	gl.SamplerParameteri(uint32(s.V), uint32(pname), int32(param))
}

func (f *Functions) Scissor(x, y, width, height int) {
	gl.Scissor(int32(x), int32(y), int32(width), int32(height))
}

func (f *Functions) ShaderSource(s glhal.Shader, src string) {
	csources, free := gl.Strs(src + "\x00")
	gl.ShaderSource(uint32(s.V), 1, csources, nil)
	free()
}

func (f *Functions) StencilFunc(fn glhal.Enum, ref int, mask uint) {
	gl.StencilFunc(uint32(fn), int32(ref), uint32(mask))
}

func (f *Functions) StencilMask(mask uint) {
	gl.StencilMask(uint32(mask))
}

func (f *Functions) StencilOp(sfail, dpfail, dppass glhal.Enum) {
	gl.StencilOp(uint32(sfail), uint32(dpfail), uint32(dppass))
}

func (f *Functions) TexImage2D(target glhal.Enum, level int, internalFormat glhal.Enum, width, height int, format, ty glhal.Enum, data []byte) {
	gl.TexImage2D(uint32(target), int32(level), int32(internalFormat), int32(width), int32(height), 0, uint32(format), uint32(ty), ptr(data))
}

func (f *Functions) TexParameteri(target, pname glhal.Enum, param int) {
	gl.TexParameteri(uint32(target), uint32(pname), int32(param))
}

func (f *Functions) TexSubImage2D(target glhal.Enum, level int, x, y, width, height int, format, ty glhal.Enum, data []byte) {
	gl.TexSubImage2D(uint32(target), int32(level), int32(x), int32(y), int32(width), int32(height), uint32(format), uint32(ty), ptr(data))
}

func (f *Functions) Uniform1f(dst glhal.Uniform, v float32) {
	gl.Uniform1f(int32(dst.V), v)
}

func (f *Functions) Uniform1i(dst glhal.Uniform, v int) {
	gl.Uniform1i(int32(dst.V), int32(v))
}

func (f *Functions) Uniform2f(dst glhal.Uniform, v0, v1 float32) {
	gl.Uniform2f(int32(dst.V), v0, v1)
}

func (f *Functions) Uniform3f(dst glhal.Uniform, v0, v1, v2 float32) {
	gl.Uniform3f(int32(dst.V), v0, v1, v2)
}

func (f *Functions) Uniform4f(dst glhal.Uniform, v0, v1, v2, v3 float32) {
	gl.Uniform4f(int32(dst.V), v0, v1, v2, v3)
}

func (f *Functions) UniformMatrix4fv(dst glhal.Uniform, data []float32) {
	if len(data) < 16 {
		return
	}
	gl.UniformMatrix4fv(int32(dst.V), int32(len(data)/16), false, &data[0])
}

func (f *Functions) UniformBlockBinding(p glhal.Program, uniformBlockIndex uint, uniformBlockBinding uint) {
	gl.UniformBlockBinding(uint32(p.V), uint32(uniformBlockIndex), uint32(uniformBlockBinding))
}

func (f *Functions) UseProgram(p glhal.Program) {
	gl.UseProgram(uint32(p.V))
}

func (f *Functions) VertexAttribDivisor(a glhal.Attrib, divisor int) {
	gl.VertexAttribDivisor(uint32(a), uint32(divisor))
}

func (f *Functions) VertexAttribPointer(dst glhal.Attrib, size int, ty glhal.Enum, normalized bool, stride, offset int) {
	gl.VertexAttribPointer(uint32(dst), int32(size), uint32(ty), normalized, int32(stride), gl.PtrOffset(offset))
}

func (f *Functions) Viewport(x, y, width, height int) {
	gl.Viewport(int32(x), int32(y), int32(width), int32(height))
}
