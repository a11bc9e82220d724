// SPDX-License-Identifier: Unlicense OR MIT

package gpu

import (
	"image"
	"image/color"
)

type BufferUsage uint8

const (
	BufferUsageVertex BufferUsage = iota
	BufferUsageIndex
	BufferUsageUniform
)

// BufferDesc describes a buffer. Data, if set, is the initial content
// and must not exceed Size. A zero Size is taken from len(Data).
type BufferDesc struct {
	Usage BufferUsage
	Size  int
	Data  []byte
	// Dynamic hints that the buffer is updated often.
	Dynamic bool
}

type TextureKind uint8

const (
	Texture2D TextureKind = iota
	TextureCube
)

type TextureFormat uint8

const (
	FormatRGBA8 TextureFormat = iota
	// FormatSRGBA8 is RGBA8 with sRGB encoded color channels.
	FormatSRGBA8
	FormatR8
	FormatRGBA16F
	FormatRGBA32F
	FormatDepth24
	FormatDepth24Stencil8
	FormatDepth32F
)

type Filter uint8

const (
	FilterNearest Filter = iota
	FilterLinear
)

// MipFilter selects filtering between mip levels.
type MipFilter uint8

const (
	MipNone MipFilter = iota
	MipNearest
	MipLinear
)

type Wrap uint8

const (
	WrapClampToEdge Wrap = iota
	WrapRepeat
	WrapMirroredRepeat
)

// CubeFace selects a face of a cube map: +X, -X, +Y, -Y, +Z, -Z.
type CubeFace uint8

const (
	FacePositiveX CubeFace = iota
	FaceNegativeX
	FacePositiveY
	FaceNegativeY
	FacePositiveZ
	FaceNegativeZ
)

// TextureDesc describes a texture.
type TextureDesc struct {
	Kind          TextureKind
	Format        TextureFormat
	Width, Height int
	// Levels is the number of mip levels. 0 means 1.
	Levels int
	// Samples above 1 create a multisampled texture. Multisampled
	// textures can only be attached to framebuffers and resolved with
	// Blit.
	Samples int
	// Sampling defaults used when no Sampler is bound.
	MinFilter, MagFilter Filter
	MipFilter            MipFilter
	WrapU, WrapV, WrapW  Wrap
}

// TextureUpload is a region of pixel data for one level and face of a
// texture. Data rows are tightly packed, bottom row first.
type TextureUpload struct {
	Level int
	Face  CubeFace
	// Rect is the destination region. The zero Rect is the whole level.
	Rect image.Rectangle
	Data []byte
}

type CompareFunc uint8

const (
	CompareNever CompareFunc = iota
	CompareLess
	CompareEqual
	CompareLessOrEqual
	CompareGreater
	CompareNotEqual
	CompareGreaterOrEqual
	CompareAlways
)

// SamplerDesc describes a sampler object.
type SamplerDesc struct {
	MinFilter, MagFilter Filter
	MipFilter            MipFilter
	WrapU, WrapV, WrapW  Wrap
	// Anisotropy above 1 enables anisotropic filtering, clamped to
	// Caps.MaxAnisotropy.
	Anisotropy     float32
	MinLOD, MaxLOD float32
	// Compare enables depth comparison with CompareFunc.
	Compare     bool
	CompareFunc CompareFunc
}

// Attachment is a texture level bound to a framebuffer.
type Attachment struct {
	Texture Texture
	Level   int
	// Face selects the face of a cube map texture.
	Face CubeFace
}

// FramebufferDesc lists the attachments of an offscreen framebuffer.
type FramebufferDesc struct {
	Color []Attachment
	// DepthStencil is an optional depth or depth-stencil texture.
	DepthStencil *Attachment
}

type AttribType uint8

const (
	AttribFloat AttribType = iota
	AttribUnsignedByte
	AttribShort
	AttribUnsignedShort
	AttribInt
	AttribUnsignedInt
	AttribHalfFloat
)

// VertexAttribute describes one attribute of a Geometry.
type VertexAttribute struct {
	// Name documents the shader input; the binding uses Location.
	Name       string
	Location   int
	Buffer     Buffer
	Components int
	Type       AttribType
	Normalized bool
	Stride     int
	Offset     int
	// Divisor advances the attribute once per Divisor instances. 0 is
	// per vertex.
	Divisor int
}

type IndexType uint8

const (
	Index16 IndexType = iota
	Index32
)

// GeometryDesc describes vertex attributes and an optional index
// buffer.
type GeometryDesc struct {
	Attributes []VertexAttribute
	Indices    Buffer
	IndexType  IndexType
}

type Topology uint8

const (
	Triangles Topology = iota
	TriangleStrip
	TriangleFan
	Points
	Lines
	LineStrip
)

type BlendFactor uint8

const (
	BlendZero BlendFactor = iota
	BlendOne
	BlendSrcColor
	BlendOneMinusSrcColor
	BlendDstColor
	BlendOneMinusDstColor
	BlendSrcAlpha
	BlendOneMinusSrcAlpha
	BlendDstAlpha
	BlendOneMinusDstAlpha
	BlendConstantAlpha
)

type BlendOp uint8

const (
	BlendAdd BlendOp = iota
	BlendSubtract
	BlendReverseSubtract
	BlendMin
	BlendMax
)

// Blend enables blending. A nil *Blend in DrawParams disables it.
type Blend struct {
	SrcRGB, DstRGB     BlendFactor
	SrcAlpha, DstAlpha BlendFactor
	OpRGB, OpAlpha     BlendOp
}

// AlphaBlend is premultiplied alpha "over" blending.
var AlphaBlend = Blend{
	SrcRGB: BlendOne, DstRGB: BlendOneMinusSrcAlpha,
	SrcAlpha: BlendOne, DstAlpha: BlendOneMinusSrcAlpha,
}

// Depth enables depth testing. A nil *Depth disables it.
type Depth struct {
	Func  CompareFunc
	Write bool
}

type StencilOp uint8

const (
	StencilKeep StencilOp = iota
	StencilZero
	StencilReplace
	StencilIncr
	StencilDecr
	StencilInvert
)

// Stencil enables stencil testing. A nil *Stencil disables it.
type Stencil struct {
	Func                  CompareFunc
	Ref                   int
	ReadMask, WriteMask   uint
	Fail, DepthFail, Pass StencilOp
}

type CullMode uint8

const (
	CullNone CullMode = iota
	CullBack
	CullFront
	CullFrontAndBack
)

// ColorWrite masks color channel writes.
type ColorWrite struct {
	R, G, B, A bool
}

// WriteAll enables writes to every channel.
var WriteAll = ColorWrite{true, true, true, true}

// TextureBinding binds a texture and an optional sampler to a sampler
// uniform by name.
type TextureBinding struct {
	Name    string
	Texture Texture
	Sampler Sampler
}

// UniformBufferBinding binds a uniform buffer to a uniform block by
// name.
type UniformBufferBinding struct {
	Block  string
	Buffer Buffer
}

// DrawParams describe a draw call and its pipeline state.
type DrawParams struct {
	Topology Topology
	First    int
	Count    int
	// Indexed draws from the geometry index buffer. First and Count are
	// then in indices.
	Indexed bool
	// InstanceCount above 1 draws instanced.
	InstanceCount int

	Blend   *Blend
	Depth   *Depth
	Stencil *Stencil
	Cull    CullMode
	// FrontCW selects clockwise front faces.
	FrontCW bool
	// ColorMask is nil for WriteAll.
	ColorMask *ColorWrite
	// Scissor, if non-empty, restricts drawing. Coordinates are in
	// framebuffer pixels with the origin in the lower left corner.
	Scissor image.Rectangle
	// Viewport defaults to the whole framebuffer.
	Viewport image.Rectangle

	Textures       []TextureBinding
	UniformBuffers []UniformBufferBinding
}

// ClearValues selects the buffers cleared by Clear.
type ClearValues struct {
	Color   *color.NRGBA
	Depth   *float32
	Stencil *int
	// Scissor, if non-empty, restricts the clear.
	Scissor image.Rectangle
}

// BlitParams describe a copy between framebuffers. Empty rectangles
// select the whole framebuffer.
type BlitParams struct {
	Src, Dst image.Rectangle
	Color    bool
	Depth    bool
	Stencil  bool
	// Linear filters color when scaling.
	Linear bool
}
