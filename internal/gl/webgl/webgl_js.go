// SPDX-License-Identifier: Unlicense OR MIT

// Package webgl implements gl.Functions on top of a WebGL 2 rendering
// context.
package webgl

import (
	"errors"
	"strings"
	"syscall/js"

	"glhal.org/internal/gl"
)

// Functions implements gl.Functions for a WebGL 2 context.
type Functions struct {
	Ctx js.Value

	anisotropic js.Value
	// Scratch typed arrays, grown on demand.
	uint8Array   js.Value
	float32Array js.Value
	int32Buf     js.Value
}

var _ gl.Functions = (*Functions)(nil)

// New wraps a WebGL2RenderingContext.
func New(ctx js.Value) (*Functions, error) {
	webgl2Class := js.Global().Get("WebGL2RenderingContext")
	if webgl2Class.IsUndefined() || !ctx.InstanceOf(webgl2Class) {
		return nil, errors.New("webgl: not a WebGL 2 context")
	}
	f := &Functions{
		Ctx:          ctx,
		uint8Array:   js.Global().Get("Uint8Array").New(1),
		float32Array: js.Global().Get("Float32Array").New(16),
	}
	f.anisotropic = f.getExtension("EXT_texture_filter_anisotropic")
	return f, nil
}

func (f *Functions) getExtension(name string) js.Value {
	return f.Ctx.Call("getExtension", name)
}

func (f *Functions) byteArrayOf(data []byte) js.Value {
	if len(data) == 0 {
		return js.Null()
	}
	if f.uint8Array.Get("byteLength").Int() < len(data) {
		size := 1
		for size < len(data) {
			size *= 2
		}
		f.uint8Array = js.Global().Get("Uint8Array").New(size)
	}
	js.CopyBytesToJS(f.uint8Array, data)
	return f.uint8Array.Call("subarray", 0, len(data))
}

func (f *Functions) float32ArrayOf(data []float32) js.Value {
	if f.float32Array.Get("length").Int() < len(data) {
		f.float32Array = js.Global().Get("Float32Array").New(len(data))
	}
	for i, v := range data {
		f.float32Array.SetIndex(i, v)
	}
	return f.float32Array.Call("subarray", 0, len(data))
}

func (f *Functions) ActiveTexture(t gl.Enum) {
	f.Ctx.Call("activeTexture", int(t))
}
func (f *Functions) AttachShader(p gl.Program, s gl.Shader) {
	f.Ctx.Call("attachShader", js.Value(p), js.Value(s))
}
func (f *Functions) BindAttribLocation(p gl.Program, a gl.Attrib, name string) {
	f.Ctx.Call("bindAttribLocation", js.Value(p), int(a), name)
}
func (f *Functions) BindBuffer(target gl.Enum, b gl.Buffer) {
	f.Ctx.Call("bindBuffer", int(target), nullable(js.Value(b)))
}
func (f *Functions) BindBufferBase(target gl.Enum, index int, b gl.Buffer) {
	f.Ctx.Call("bindBufferBase", int(target), index, nullable(js.Value(b)))
}
func (f *Functions) BindFramebuffer(target gl.Enum, fb gl.Framebuffer) {
	f.Ctx.Call("bindFramebuffer", int(target), nullable(js.Value(fb)))
}
func (f *Functions) BindRenderbuffer(target gl.Enum, rb gl.Renderbuffer) {
	f.Ctx.Call("bindRenderbuffer", int(target), nullable(js.Value(rb)))
}
func (f *Functions) BindSampler(unit int, s gl.Sampler) {
	f.Ctx.Call("bindSampler", unit, nullable(js.Value(s)))
}
func (f *Functions) BindTexture(target gl.Enum, t gl.Texture) {
	f.Ctx.Call("bindTexture", int(target), nullable(js.Value(t)))
}
func (f *Functions) BindVertexArray(a gl.VertexArray) {
	f.Ctx.Call("bindVertexArray", nullable(js.Value(a)))
}
func (f *Functions) BlendEquationSeparate(modeRGB, modeAlpha gl.Enum) {
	f.Ctx.Call("blendEquationSeparate", int(modeRGB), int(modeAlpha))
}
func (f *Functions) BlendFuncSeparate(srcRGB, dstRGB, srcA, dstA gl.Enum) {
	f.Ctx.Call("blendFuncSeparate", int(srcRGB), int(dstRGB), int(srcA), int(dstA))
}
func (f *Functions) BlitFramebuffer(sx0, sy0, sx1, sy1, dx0, dy0, dx1, dy1 int, mask gl.Enum, filter gl.Enum) {
	f.Ctx.Call("blitFramebuffer", sx0, sy0, sx1, sy1, dx0, dy0, dx1, dy1, int(mask), int(filter))
}
func (f *Functions) BufferData(target gl.Enum, size int, usage gl.Enum, data []byte) {
	if data == nil {
		f.Ctx.Call("bufferData", int(target), size, int(usage))
		return
	}
	f.Ctx.Call("bufferData", int(target), f.byteArrayOf(data), int(usage))
}
func (f *Functions) BufferSubData(target gl.Enum, offset int, src []byte) {
	f.Ctx.Call("bufferSubData", int(target), offset, f.byteArrayOf(src))
}
func (f *Functions) CheckFramebufferStatus(target gl.Enum) gl.Enum {
	return gl.Enum(f.Ctx.Call("checkFramebufferStatus", int(target)).Int())
}
func (f *Functions) Clear(mask gl.Enum) {
	f.Ctx.Call("clear", int(mask))
}
func (f *Functions) ClearColor(red, green, blue, alpha float32) {
	f.Ctx.Call("clearColor", red, green, blue, alpha)
}
func (f *Functions) ClearDepthf(d float32) {
	f.Ctx.Call("clearDepth", d)
}
func (f *Functions) ClearStencil(s int) {
	f.Ctx.Call("clearStencil", s)
}
func (f *Functions) ClientWaitSync(s gl.Sync, flags gl.Enum, timeout uint64) gl.Enum {
	// WebGL caps the timeout at MAX_CLIENT_WAIT_TIMEOUT_WEBGL, which is
	// usually 0. Larger waits are served by gl.Finish.
	if timeout > 0 {
		f.Finish()
		return gl.CONDITION_SATISFIED
	}
	return gl.Enum(f.Ctx.Call("clientWaitSync", js.Value(s), int(flags), 0).Int())
}
func (f *Functions) ColorMask(r, g, b, a bool) {
	f.Ctx.Call("colorMask", r, g, b, a)
}
func (f *Functions) CompileShader(s gl.Shader) {
	f.Ctx.Call("compileShader", js.Value(s))
}
func (f *Functions) CreateBuffer() gl.Buffer {
	return gl.Buffer(f.Ctx.Call("createBuffer"))
}
func (f *Functions) CreateFramebuffer() gl.Framebuffer {
	return gl.Framebuffer(f.Ctx.Call("createFramebuffer"))
}
func (f *Functions) CreateProgram() gl.Program {
	return gl.Program(f.Ctx.Call("createProgram"))
}
func (f *Functions) CreateRenderbuffer() gl.Renderbuffer {
	return gl.Renderbuffer(f.Ctx.Call("createRenderbuffer"))
}
func (f *Functions) CreateSampler() gl.Sampler {
	return gl.Sampler(f.Ctx.Call("createSampler"))
}
func (f *Functions) CreateShader(ty gl.Enum) gl.Shader {
	return gl.Shader(f.Ctx.Call("createShader", int(ty)))
}
func (f *Functions) CreateTexture() gl.Texture {
	return gl.Texture(f.Ctx.Call("createTexture"))
}
func (f *Functions) CreateVertexArray() gl.VertexArray {
	return gl.VertexArray(f.Ctx.Call("createVertexArray"))
}
func (f *Functions) CullFace(mode gl.Enum) {
	f.Ctx.Call("cullFace", int(mode))
}
func (f *Functions) DeleteBuffer(v gl.Buffer) {
	f.Ctx.Call("deleteBuffer", js.Value(v))
}
func (f *Functions) DeleteFramebuffer(v gl.Framebuffer) {
	f.Ctx.Call("deleteFramebuffer", js.Value(v))
}
func (f *Functions) DeleteProgram(p gl.Program) {
	f.Ctx.Call("deleteProgram", js.Value(p))
}
func (f *Functions) DeleteRenderbuffer(v gl.Renderbuffer) {
	f.Ctx.Call("deleteRenderbuffer", js.Value(v))
}
func (f *Functions) DeleteSampler(s gl.Sampler) {
	f.Ctx.Call("deleteSampler", js.Value(s))
}
func (f *Functions) DeleteShader(s gl.Shader) {
	f.Ctx.Call("deleteShader", js.Value(s))
}
func (f *Functions) DeleteSync(s gl.Sync) {
	f.Ctx.Call("deleteSync", js.Value(s))
}
func (f *Functions) DeleteTexture(v gl.Texture) {
	f.Ctx.Call("deleteTexture", js.Value(v))
}
func (f *Functions) DeleteVertexArray(a gl.VertexArray) {
	f.Ctx.Call("deleteVertexArray", js.Value(a))
}
func (f *Functions) DepthFunc(fn gl.Enum) {
	f.Ctx.Call("depthFunc", int(fn))
}
func (f *Functions) DepthMask(mask bool) {
	f.Ctx.Call("depthMask", mask)
}
func (f *Functions) Disable(cap gl.Enum) {
	f.Ctx.Call("disable", int(cap))
}
func (f *Functions) DisableVertexAttribArray(a gl.Attrib) {
	f.Ctx.Call("disableVertexAttribArray", int(a))
}
func (f *Functions) DrawArrays(mode gl.Enum, first, count int) {
	f.Ctx.Call("drawArrays", int(mode), first, count)
}
func (f *Functions) DrawArraysInstanced(mode gl.Enum, first, count, instances int) {
	f.Ctx.Call("drawArraysInstanced", int(mode), first, count, instances)
}
func (f *Functions) DrawBuffers(bufs []gl.Enum) {
	arr := make([]interface{}, len(bufs))
	for i, b := range bufs {
		arr[i] = int(b)
	}
	f.Ctx.Call("drawBuffers", js.ValueOf(arr))
}
func (f *Functions) DrawElements(mode gl.Enum, count int, ty gl.Enum, offset int) {
	f.Ctx.Call("drawElements", int(mode), count, int(ty), offset)
}
func (f *Functions) DrawElementsInstanced(mode gl.Enum, count int, ty gl.Enum, offset, instances int) {
	f.Ctx.Call("drawElementsInstanced", int(mode), count, int(ty), offset, instances)
}
func (f *Functions) Enable(cap gl.Enum) {
	f.Ctx.Call("enable", int(cap))
}
func (f *Functions) EnableVertexAttribArray(a gl.Attrib) {
	f.Ctx.Call("enableVertexAttribArray", int(a))
}
func (f *Functions) FenceSync(condition, flags gl.Enum) gl.Sync {
	return gl.Sync(f.Ctx.Call("fenceSync", int(condition), int(flags)))
}
func (f *Functions) Finish() {
	f.Ctx.Call("finish")
}
func (f *Functions) Flush() {
	f.Ctx.Call("flush")
}
func (f *Functions) FramebufferRenderbuffer(target, attachment, renderbuffertarget gl.Enum, renderbuffer gl.Renderbuffer) {
	f.Ctx.Call("framebufferRenderbuffer", int(target), int(attachment), int(renderbuffertarget), js.Value(renderbuffer))
}
func (f *Functions) FramebufferTexture2D(target, attachment, texTarget gl.Enum, t gl.Texture, level int) {
	f.Ctx.Call("framebufferTexture2D", int(target), int(attachment), int(texTarget), js.Value(t), level)
}
func (f *Functions) FrontFace(mode gl.Enum) {
	f.Ctx.Call("frontFace", int(mode))
}
func (f *Functions) GenerateMipmap(target gl.Enum) {
	f.Ctx.Call("generateMipmap", int(target))
}
func (f *Functions) GetActiveAttrib(p gl.Program, index int) (string, int, gl.Enum) {
	info := f.Ctx.Call("getActiveAttrib", js.Value(p), index)
	if info.IsNull() {
		return "", 0, 0
	}
	return info.Get("name").String(), info.Get("size").Int(), gl.Enum(info.Get("type").Int())
}
func (f *Functions) GetActiveUniform(p gl.Program, index int) (string, int, gl.Enum) {
	info := f.Ctx.Call("getActiveUniform", js.Value(p), index)
	if info.IsNull() {
		return "", 0, 0
	}
	return info.Get("name").String(), info.Get("size").Int(), gl.Enum(info.Get("type").Int())
}
func (f *Functions) GetActiveUniformBlockName(p gl.Program, index int) string {
	name := f.Ctx.Call("getActiveUniformBlockName", js.Value(p), index)
	if name.IsNull() {
		return ""
	}
	return name.String()
}
func (f *Functions) GetAttribLocation(p gl.Program, name string) int {
	return f.Ctx.Call("getAttribLocation", js.Value(p), name).Int()
}
func (f *Functions) GetBufferSubData(target gl.Enum, offset int, dst []byte) {
	if len(dst) == 0 {
		return
	}
	arr := js.Global().Get("Uint8Array").New(len(dst))
	f.Ctx.Call("getBufferSubData", int(target), offset, arr)
	js.CopyBytesToGo(dst, arr)
}
func (f *Functions) GetError() gl.Enum {
	return gl.Enum(f.Ctx.Call("getError").Int())
}
func (f *Functions) GetFloat(pname gl.Enum) float32 {
	return float32(paramVal(f.Ctx.Call("getParameter", int(pname))))
}
func (f *Functions) GetFramebufferAttachmentParameteri(target, attachment, pname gl.Enum) int {
	return int(paramVal(f.Ctx.Call("getFramebufferAttachmentParameter", int(target), int(attachment), int(pname))))
}
func (f *Functions) GetGraphicsResetStatus() gl.Enum {
	if f.Ctx.Call("isContextLost").Bool() {
		return gl.UNKNOWN_CONTEXT_RESET
	}
	return gl.NO_ERROR
}
func (f *Functions) GetInteger(pname gl.Enum) int {
	if pname == gl.MAX_TEXTURE_MAX_ANISOTROPY_EXT && f.anisotropic.IsNull() {
		return 0
	}
	return int(paramVal(f.Ctx.Call("getParameter", int(pname))))
}
func (f *Functions) GetProgrami(p gl.Program, pname gl.Enum) int {
	return int(paramVal(f.Ctx.Call("getProgramParameter", js.Value(p), int(pname))))
}
func (f *Functions) GetProgramInfoLog(p gl.Program) string {
	return f.Ctx.Call("getProgramInfoLog", js.Value(p)).String()
}
func (f *Functions) GetShaderi(s gl.Shader, pname gl.Enum) int {
	return int(paramVal(f.Ctx.Call("getShaderParameter", js.Value(s), int(pname))))
}
func (f *Functions) GetShaderInfoLog(s gl.Shader) string {
	return f.Ctx.Call("getShaderInfoLog", js.Value(s)).String()
}
func (f *Functions) GetString(pname gl.Enum) string {
	switch pname {
	case gl.EXTENSIONS:
		extsjs := f.Ctx.Call("getSupportedExtensions")
		var exts []string
		for i := 0; i < extsjs.Length(); i++ {
			exts = append(exts, "GL_"+extsjs.Index(i).String())
		}
		return strings.Join(exts, " ")
	default:
		return f.Ctx.Call("getParameter", int(pname)).String()
	}
}
func (f *Functions) GetUniformBlockIndex(p gl.Program, name string) uint {
	return uint(paramVal(f.Ctx.Call("getUniformBlockIndex", js.Value(p), name)))
}
func (f *Functions) GetUniformLocation(p gl.Program, name string) gl.Uniform {
	return gl.Uniform(f.Ctx.Call("getUniformLocation", js.Value(p), name))
}
func (f *Functions) LinkProgram(p gl.Program) {
	f.Ctx.Call("linkProgram", js.Value(p))
}
func (f *Functions) PixelStorei(pname gl.Enum, param int) {
	f.Ctx.Call("pixelStorei", int(pname), param)
}
func (f *Functions) ReadPixels(x, y, width, height int, format, ty gl.Enum, data []byte) {
	if len(data) == 0 {
		return
	}
	if ty == gl.FLOAT {
		// FLOAT reads require a Float32Array destination.
		farr := js.Global().Get("Float32Array").New(len(data) / 4)
		f.Ctx.Call("readPixels", x, y, width, height, int(format), int(ty), farr)
		js.CopyBytesToGo(data, js.Global().Get("Uint8Array").New(farr.Get("buffer")))
		return
	}
	arr := js.Global().Get("Uint8Array").New(len(data))
	f.Ctx.Call("readPixels", x, y, width, height, int(format), int(ty), arr)
	js.CopyBytesToGo(data, arr)
}
func (f *Functions) RenderbufferStorageMultisample(target gl.Enum, samples int, internalformat gl.Enum, width, height int) {
	f.Ctx.Call("renderbufferStorageMultisample", int(target), samples, int(internalformat), width, height)
}
func (f *Functions) SamplerParameterf(s gl.Sampler, pname gl.Enum, param float32) {
	if pname == gl.TEXTURE_MAX_ANISOTROPY_EXT && f.anisotropic.IsNull() {
		return
	}
	f.Ctx.Call("samplerParameterf", js.Value(s), int(pname), param)
}
func (f *Functions) SamplerParameteri(s gl.Sampler, pname gl.Enum, param int) {
	f.Ctx.Call("samplerParameteri", js.Value(s), int(pname), param)
}
func (f *Functions) Scissor(x, y, width, height int) {
	f.Ctx.Call("scissor", x, y, width, height)
}
func (f *Functions) ShaderSource(s gl.Shader, src string) {
	f.Ctx.Call("shaderSource", js.Value(s), src)
}
func (f *Functions) StencilFunc(fn gl.Enum, ref int, mask uint) {
	f.Ctx.Call("stencilFunc", int(fn), ref, int(mask))
}
func (f *Functions) StencilMask(mask uint) {
	f.Ctx.Call("stencilMask", int(mask))
}
func (f *Functions) StencilOp(sfail, dpfail, dppass gl.Enum) {
	f.Ctx.Call("stencilOp", int(sfail), int(dpfail), int(dppass))
}
func (f *Functions) TexImage2D(target gl.Enum, level int, internalFormat gl.Enum, width, height int, format, ty gl.Enum, data []byte) {
	f.Ctx.Call("texImage2D", int(target), level, int(internalFormat), width, height, 0, int(format), int(ty), f.byteArrayOf(data))
}
func (f *Functions) TexParameteri(target, pname gl.Enum, param int) {
	f.Ctx.Call("texParameteri", int(target), int(pname), param)
}
func (f *Functions) TexSubImage2D(target gl.Enum, level int, x, y, width, height int, format, ty gl.Enum, data []byte) {
	f.Ctx.Call("texSubImage2D", int(target), level, x, y, width, height, int(format), int(ty), f.byteArrayOf(data))
}
func (f *Functions) Uniform1f(dst gl.Uniform, v float32) {
	f.Ctx.Call("uniform1f", js.Value(dst), v)
}
func (f *Functions) Uniform1i(dst gl.Uniform, v int) {
	f.Ctx.Call("uniform1i", js.Value(dst), v)
}
func (f *Functions) Uniform2f(dst gl.Uniform, v0, v1 float32) {
	f.Ctx.Call("uniform2f", js.Value(dst), v0, v1)
}
func (f *Functions) Uniform3f(dst gl.Uniform, v0, v1, v2 float32) {
	f.Ctx.Call("uniform3f", js.Value(dst), v0, v1, v2)
}
func (f *Functions) Uniform4f(dst gl.Uniform, v0, v1, v2, v3 float32) {
	f.Ctx.Call("uniform4f", js.Value(dst), v0, v1, v2, v3)
}
func (f *Functions) UniformMatrix4fv(dst gl.Uniform, data []float32) {
	f.Ctx.Call("uniformMatrix4fv", js.Value(dst), false, f.float32ArrayOf(data))
}
func (f *Functions) UniformBlockBinding(p gl.Program, uniformBlockIndex uint, uniformBlockBinding uint) {
	f.Ctx.Call("uniformBlockBinding", js.Value(p), int(uniformBlockIndex), int(uniformBlockBinding))
}
func (f *Functions) UseProgram(p gl.Program) {
	f.Ctx.Call("useProgram", nullable(js.Value(p)))
}
func (f *Functions) VertexAttribDivisor(a gl.Attrib, divisor int) {
	f.Ctx.Call("vertexAttribDivisor", int(a), divisor)
}
func (f *Functions) VertexAttribPointer(dst gl.Attrib, size int, ty gl.Enum, normalized bool, stride, offset int) {
	f.Ctx.Call("vertexAttribPointer", int(dst), size, int(ty), normalized, stride, offset)
}
func (f *Functions) Viewport(x, y, width, height int) {
	f.Ctx.Call("viewport", x, y, width, height)
}

// nullable maps the zero js.Value to null, which WebGL expects for "no
// object".
func nullable(v js.Value) js.Value {
	if v.IsUndefined() {
		return js.Null()
	}
	return v
}

func paramVal(v js.Value) int {
	switch v.Type() {
	case js.TypeBoolean:
		if v.Bool() {
			return 1
		}
		return 0
	case js.TypeNumber:
		return v.Int()
	case js.TypeUndefined, js.TypeNull:
		return 0
	default:
		panic("unknown parameter type")
	}
}
