// SPDX-License-Identifier: Unlicense OR MIT

package gl

// Functions is the set of OpenGL (ES) and WebGL 2 entry points used by
// the graphics server. Implementations exist for desktop OpenGL through
// go-gl, for WebGL through syscall/js and for the software substitute
// used in tests.
//
// Object arguments and results use the platform specific types in this
// package; integer arguments are converted to the C types by each
// implementation.
type Functions interface {
	ActiveTexture(texture Enum)
	AttachShader(p Program, s Shader)
	BindAttribLocation(p Program, a Attrib, name string)
	BindBuffer(target Enum, b Buffer)
	BindBufferBase(target Enum, index int, b Buffer)
	BindFramebuffer(target Enum, fb Framebuffer)
	BindRenderbuffer(target Enum, rb Renderbuffer)
	BindSampler(unit int, s Sampler)
	BindTexture(target Enum, t Texture)
	BindVertexArray(a VertexArray)
	BlendEquationSeparate(modeRGB, modeAlpha Enum)
	BlendFuncSeparate(srcRGB, dstRGB, srcA, dstA Enum)
	BlitFramebuffer(sx0, sy0, sx1, sy1, dx0, dy0, dx1, dy1 int, mask Enum, filter Enum)
	// BufferData allocates size bytes for the buffer bound to target. If
	// data is non-nil it is copied into the new storage.
	BufferData(target Enum, size int, usage Enum, data []byte)
	BufferSubData(target Enum, offset int, src []byte)
	CheckFramebufferStatus(target Enum) Enum
	Clear(mask Enum)
	ClearColor(red, green, blue, alpha float32)
	ClearDepthf(d float32)
	ClearStencil(s int)
	ClientWaitSync(s Sync, flags Enum, timeout uint64) Enum
	ColorMask(r, g, b, a bool)
	CompileShader(s Shader)
	CreateBuffer() Buffer
	CreateFramebuffer() Framebuffer
	CreateProgram() Program
	CreateRenderbuffer() Renderbuffer
	CreateSampler() Sampler
	CreateShader(ty Enum) Shader
	CreateTexture() Texture
	CreateVertexArray() VertexArray
	CullFace(mode Enum)
	DeleteBuffer(v Buffer)
	DeleteFramebuffer(v Framebuffer)
	DeleteProgram(p Program)
	DeleteRenderbuffer(r Renderbuffer)
	DeleteSampler(s Sampler)
	DeleteShader(s Shader)
	DeleteSync(s Sync)
	DeleteTexture(t Texture)
	DeleteVertexArray(a VertexArray)
	DepthFunc(f Enum)
	DepthMask(mask bool)
	Disable(cap Enum)
	DisableVertexAttribArray(a Attrib)
	DrawArrays(mode Enum, first, count int)
	DrawArraysInstanced(mode Enum, first, count, instances int)
	DrawBuffers(bufs []Enum)
	// DrawElements draws from the bound element array; offset is in bytes.
	DrawElements(mode Enum, count int, ty Enum, offset int)
	DrawElementsInstanced(mode Enum, count int, ty Enum, offset, instances int)
	Enable(cap Enum)
	EnableVertexAttribArray(a Attrib)
	FenceSync(condition, flags Enum) Sync
	Finish()
	Flush()
	FramebufferRenderbuffer(target, attachment, renderbuffertarget Enum, renderbuffer Renderbuffer)
	FramebufferTexture2D(target, attachment, texTarget Enum, t Texture, level int)
	FrontFace(mode Enum)
	GenerateMipmap(target Enum)
	GetActiveAttrib(p Program, index int) (name string, size int, ty Enum)
	GetActiveUniform(p Program, index int) (name string, size int, ty Enum)
	GetActiveUniformBlockName(p Program, index int) string
	GetAttribLocation(p Program, name string) int
	GetBufferSubData(target Enum, offset int, dst []byte)
	GetError() Enum
	GetFloat(pname Enum) float32
	GetFramebufferAttachmentParameteri(target, attachment, pname Enum) int
	// GetGraphicsResetStatus returns NO_ERROR while the context is usable,
	// and one of the *_CONTEXT_RESET values once it is lost.
	GetGraphicsResetStatus() Enum
	GetInteger(pname Enum) int
	GetProgrami(p Program, pname Enum) int
	GetProgramInfoLog(p Program) string
	GetShaderi(s Shader, pname Enum) int
	GetShaderInfoLog(s Shader) string
	GetString(pname Enum) string
	GetUniformBlockIndex(p Program, name string) uint
	GetUniformLocation(p Program, name string) Uniform
	LinkProgram(p Program)
	PixelStorei(pname Enum, param int)
	ReadPixels(x, y, width, height int, format, ty Enum, data []byte)
	RenderbufferStorageMultisample(target Enum, samples int, internalformat Enum, width, height int)
	SamplerParameterf(s Sampler, pname Enum, param float32)
	SamplerParameteri(s Sampler, pname Enum, param int)
	Scissor(x, y, width, height int)
	ShaderSource(s Shader, src string)
	StencilFunc(fn Enum, ref int, mask uint)
	StencilMask(mask uint)
	StencilOp(sfail, dpfail, dppass Enum)
	TexImage2D(target Enum, level int, internalFormat Enum, width, height int, format, ty Enum, data []byte)
	TexParameteri(target, pname Enum, param int)
	TexSubImage2D(target Enum, level int, x, y, width, height int, format, ty Enum, data []byte)
	Uniform1f(dst Uniform, v float32)
	Uniform1i(dst Uniform, v int)
	Uniform2f(dst Uniform, v0, v1 float32)
	Uniform3f(dst Uniform, v0, v1, v2 float32)
	Uniform4f(dst Uniform, v0, v1, v2, v3 float32)
	UniformMatrix4fv(dst Uniform, data []float32)
	UniformBlockBinding(p Program, uniformBlockIndex uint, uniformBlockBinding uint)
	UseProgram(p Program)
	VertexAttribDivisor(a Attrib, divisor int)
	VertexAttribPointer(dst Attrib, size int, ty Enum, normalized bool, stride, offset int)
	Viewport(x, y, width, height int)
}
