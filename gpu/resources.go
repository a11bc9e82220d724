// SPDX-License-Identifier: Unlicense OR MIT

package gpu

import (
	"fmt"
	"image"

	"glhal.org/internal/gl"
)

type buffer struct {
	obj    gl.Buffer
	usage  BufferUsage
	target gl.Enum
	size   int
}

type texture struct {
	desc   TextureDesc
	obj    gl.Texture
	target gl.Enum
	// rb holds multisampled textures.
	rb     gl.Renderbuffer
	triple textureTriple
}

type sampler struct {
	obj  gl.Sampler
	desc SamplerDesc
}

type framebuffer struct {
	obj     gl.Framebuffer
	surface bool
	size    image.Point
	samples int
	colors  int
	// srgb framebuffers encode written colors.
	srgb bool
	// float framebuffers have a floating point first color attachment.
	float bool
	// attachments are checked before every use.
	attachments []Texture
}

type geometry struct {
	vao     gl.VertexArray
	attribs []VertexAttribute
	indices Buffer
	idxType IndexType
}

// textureTriple holds the type settings for a TexImage2D call.
type textureTriple struct {
	internalFormat gl.Enum
	format         gl.Enum
	typ            gl.Enum
	bytes          int
}

func tripleFor(f TextureFormat) (textureTriple, bool) {
	switch f {
	case FormatRGBA8:
		return textureTriple{gl.RGBA8, gl.RGBA, gl.UNSIGNED_BYTE, 4}, true
	case FormatSRGBA8:
		return textureTriple{gl.SRGB8_ALPHA8, gl.RGBA, gl.UNSIGNED_BYTE, 4}, true
	case FormatR8:
		return textureTriple{gl.R8, gl.RED, gl.UNSIGNED_BYTE, 1}, true
	case FormatRGBA16F:
		return textureTriple{gl.RGBA16F, gl.RGBA, gl.HALF_FLOAT, 8}, true
	case FormatRGBA32F:
		return textureTriple{gl.RGBA32F, gl.RGBA, gl.FLOAT, 16}, true
	case FormatDepth24:
		return textureTriple{gl.DEPTH_COMPONENT24, gl.DEPTH_COMPONENT, gl.UNSIGNED_INT, 4}, true
	case FormatDepth24Stencil8:
		return textureTriple{gl.DEPTH24_STENCIL8, gl.DEPTH_STENCIL, gl.UNSIGNED_INT_24_8, 4}, true
	case FormatDepth32F:
		return textureTriple{gl.DEPTH_COMPONENT32F, gl.DEPTH_COMPONENT, gl.FLOAT, 4}, true
	}
	return textureTriple{}, false
}

func (f TextureFormat) isDepth() bool {
	return f == FormatDepth24 || f == FormatDepth24Stencil8 || f == FormatDepth32F
}

func (f TextureFormat) isFloat() bool {
	return f == FormatRGBA16F || f == FormatRGBA32F
}

// pendingRelease is a destroyed resource waiting for the GPU.
type pendingRelease struct {
	kind  Kind
	fence *fence
	frame uint64
	free  func()
}

type fence struct {
	sync gl.Sync
	seq  uint64
	refs int
	done bool
}

// deferRelease queues free behind a fence inserted into the command
// stream, or behind the frame latency if fences are unavailable.
func (s *Server) deferRelease(k Kind, free func()) {
	if s.lost {
		return
	}
	p := pendingRelease{kind: k, frame: s.frame, free: free}
	if s.caps.Fences {
		if s.lastFence == nil || s.lastFence.seq != s.cmdSeq {
			sync := s.f.FenceSync(gl.SYNC_GPU_COMMANDS_COMPLETE, 0)
			if sync.Valid() {
				s.lastFence = &fence{sync: sync, seq: s.cmdSeq}
			} else {
				s.lastFence = nil
			}
		}
		if s.lastFence != nil {
			s.lastFence.refs++
			p.fence = s.lastFence
		}
	}
	s.pending = append(s.pending, p)
	s.log.Debug("gpu: release queued", "kind", k, "frame", s.frame, "fenced", p.fence != nil)
}

// collect releases the queued resources whose fence has signaled, or
// all of them if wait is set. Fences signal in submission order, so
// collection stops at the first pending fence.
func (s *Server) collect(wait bool) {
	n := 0
	for _, p := range s.pending {
		if !wait && !s.retired(p) {
			break
		}
		p.free()
		if fc := p.fence; fc != nil {
			fc.refs--
			if fc.refs == 0 {
				s.f.DeleteSync(fc.sync)
				if s.lastFence == fc {
					s.lastFence = nil
				}
			}
		}
		n++
	}
	if n > 0 {
		s.log.Debug("gpu: released", "count", n, "frame", s.frame)
	}
	s.pending = append(s.pending[:0], s.pending[n:]...)
}

func (s *Server) retired(p pendingRelease) bool {
	fc := p.fence
	if fc == nil {
		return s.frame >= p.frame+uint64(s.opts.frameLatency)
	}
	if !fc.done {
		switch s.f.ClientWaitSync(fc.sync, 0, 0) {
		case gl.ALREADY_SIGNALED, gl.CONDITION_SATISFIED:
			fc.done = true
		case gl.WAIT_FAILED:
			s.log.Warn("gpu: fence wait failed")
			fc.done = true
		}
	}
	return fc.done
}

// Counts returns the number of live handles of each kind. The surface
// framebuffer is not counted.
func (s *Server) Counts() map[Kind]int {
	return map[Kind]int{
		KindBuffer:      s.buffers.Len(),
		KindTexture:     s.textures.Len(),
		KindSampler:     s.samplers.Len(),
		KindFramebuffer: s.framebuffers.Len() - 1,
		KindProgram:     s.programs.Len(),
		KindGeometry:    s.geometries.Len(),
	}
}

// createCheck reports a GL failure of a creation call.
func (s *Server) createCheck(k Kind) error {
	switch e := s.glErr(); e {
	case gl.NO_ERROR:
		return nil
	case gl.OUT_OF_MEMORY:
		return &ResourceCreationError{Kind: k, Reason: "out of memory"}
	case gl.CONTEXT_LOST:
		return ErrContextLost
	default:
		return &ResourceCreationError{Kind: k, Reason: gl.ErrorString(e)}
	}
}

func bufferTarget(u BufferUsage) gl.Enum {
	switch u {
	case BufferUsageIndex:
		return gl.ELEMENT_ARRAY_BUFFER
	case BufferUsageUniform:
		return gl.UNIFORM_BUFFER
	default:
		return gl.ARRAY_BUFFER
	}
}

func (s *Server) bindBuffer(b *buffer) {
	if b.target == gl.ELEMENT_ARRAY_BUFFER {
		s.state.BindVertexArray(s.scratchVAO)
	}
	s.state.BindBuffer(b.target, b.obj)
}

// NewBuffer creates a buffer.
func (s *Server) NewBuffer(desc BufferDesc) (Buffer, error) {
	if err := s.checkLost(); err != nil {
		return Buffer{}, err
	}
	size := desc.Size
	if size == 0 {
		size = len(desc.Data)
	}
	switch {
	case desc.Usage > BufferUsageUniform:
		return Buffer{}, createErr(KindBuffer, "invalid usage")
	case size <= 0:
		return Buffer{}, createErr(KindBuffer, "zero size")
	case len(desc.Data) > size:
		return Buffer{}, createErr(KindBuffer, fmt.Sprintf("%d bytes of data exceed size %d", len(desc.Data), size))
	}
	if err := s.drain(); err != nil {
		return Buffer{}, err
	}
	b := buffer{obj: s.f.CreateBuffer(), usage: desc.Usage, target: bufferTarget(desc.Usage), size: size}
	s.bindBuffer(&b)
	usage := gl.Enum(gl.STATIC_DRAW)
	if desc.Dynamic {
		usage = gl.DYNAMIC_DRAW
	}
	data := desc.Data
	if data != nil && len(data) < size {
		data = make([]byte, size)
		copy(data, desc.Data)
	}
	s.f.BufferData(b.target, size, usage, data)
	if err := s.createCheck(KindBuffer); err != nil {
		s.state.DeleteBuffer(b.obj)
		return Buffer{}, err
	}
	h := Buffer{s.buffers.Insert(b)}
	s.log.Debug("gpu: buffer created", "size", size, "usage", desc.Usage)
	return h, nil
}

// UpdateBuffer replaces len(data) bytes of a buffer at offset.
func (s *Server) UpdateBuffer(h Buffer, offset int, data []byte) error {
	if err := s.checkLost(); err != nil {
		return err
	}
	b := s.buffers.Get(h.h)
	if b == nil {
		return ErrInvalidHandle
	}
	if offset < 0 || offset+len(data) > b.size {
		return fmt.Errorf("%w: %d bytes at %d in buffer of %d", ErrOutOfBounds, len(data), offset, b.size)
	}
	if len(data) == 0 {
		return nil
	}
	s.bindBuffer(b)
	s.f.BufferSubData(b.target, offset, data)
	s.cmdSeq++
	return s.check("update buffer")
}

// ReadBuffer copies len(dst) bytes at offset from a buffer. It blocks
// until the GPU has written the buffer.
func (s *Server) ReadBuffer(h Buffer, offset int, dst []byte) error {
	if err := s.checkLost(); err != nil {
		return err
	}
	b := s.buffers.Get(h.h)
	if b == nil {
		return ErrInvalidHandle
	}
	if offset < 0 || offset+len(dst) > b.size {
		return fmt.Errorf("%w: %d bytes at %d in buffer of %d", ErrOutOfBounds, len(dst), offset, b.size)
	}
	s.bindBuffer(b)
	s.f.GetBufferSubData(b.target, offset, dst)
	if st := s.f.GetGraphicsResetStatus(); st != gl.NO_ERROR {
		s.contextLost(st)
		return ErrContextLost
	}
	return s.check("read buffer")
}

// DestroyBuffer invalidates h immediately and releases the buffer once
// the GPU is done with it. Destroying an invalid handle does nothing.
func (s *Server) DestroyBuffer(h Buffer) {
	b, ok := s.buffers.Remove(h.h)
	if !ok {
		return
	}
	s.deferRelease(KindBuffer, func() { s.state.DeleteBuffer(b.obj) })
}

func mipLevels(w, h int) int {
	n := 1
	for w > 1 || h > 1 {
		w, h = w/2, h/2
		n++
	}
	return n
}

func levelSize(w, h, level int) image.Point {
	w, h = w>>level, h>>level
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return image.Pt(w, h)
}

func (s *Server) validateTexture(desc *TextureDesc) error {
	if desc.Levels == 0 {
		desc.Levels = 1
	}
	if desc.Samples == 0 {
		desc.Samples = 1
	}
	max := s.caps.MaxTextureSize
	switch {
	case desc.Kind > TextureCube:
		return createErr(KindTexture, "invalid kind")
	case desc.Width <= 0 || desc.Height <= 0:
		return createErr(KindTexture, fmt.Sprintf("invalid size %dx%d", desc.Width, desc.Height))
	case desc.Width > max || desc.Height > max:
		return createErr(KindTexture, fmt.Sprintf("size %dx%d exceeds maximum %d", desc.Width, desc.Height, max))
	case desc.Kind == TextureCube && desc.Width != desc.Height:
		return createErr(KindTexture, "cube map faces must be square")
	case desc.Levels < 0 || desc.Levels > mipLevels(desc.Width, desc.Height):
		return createErr(KindTexture, fmt.Sprintf("%d mip levels for %dx%d", desc.Levels, desc.Width, desc.Height))
	case desc.Samples < 0 || desc.Samples > 1 && desc.Samples > s.caps.MaxSamples:
		return createErr(KindTexture, fmt.Sprintf("%d samples exceed maximum %d", desc.Samples, s.caps.MaxSamples))
	case desc.Samples > 1 && (desc.Kind != Texture2D || desc.Levels != 1):
		return createErr(KindTexture, "multisampled textures must be 2D with one level")
	}
	if _, ok := tripleFor(desc.Format); !ok {
		return createErr(KindTexture, "invalid format")
	}
	return nil
}

func faceTarget(kind TextureKind, face CubeFace) gl.Enum {
	if kind == TextureCube {
		return gl.TEXTURE_CUBE_MAP_POSITIVE_X + gl.Enum(face)
	}
	return gl.TEXTURE_2D
}

// NewTexture creates a texture with storage for every level.
func (s *Server) NewTexture(desc TextureDesc) (Texture, error) {
	if err := s.checkLost(); err != nil {
		return Texture{}, err
	}
	if err := s.validateTexture(&desc); err != nil {
		return Texture{}, err
	}
	triple, _ := tripleFor(desc.Format)
	if err := s.drain(); err != nil {
		return Texture{}, err
	}
	t := texture{desc: desc, triple: triple, target: gl.TEXTURE_2D}
	if desc.Samples > 1 {
		t.rb = s.f.CreateRenderbuffer()
		s.state.BindRenderbuffer(t.rb)
		s.f.RenderbufferStorageMultisample(gl.RENDERBUFFER, desc.Samples, triple.internalFormat, desc.Width, desc.Height)
		if err := s.createCheck(KindTexture); err != nil {
			s.state.DeleteRenderbuffer(t.rb)
			return Texture{}, err
		}
	} else {
		if desc.Kind == TextureCube {
			t.target = gl.TEXTURE_CUBE_MAP
		}
		t.obj = s.f.CreateTexture()
		s.state.BindTexture(0, t.target, t.obj)
		s.f.TexParameteri(t.target, gl.TEXTURE_MIN_FILTER, minFilter(desc.MinFilter, desc.MipFilter))
		s.f.TexParameteri(t.target, gl.TEXTURE_MAG_FILTER, magFilter(desc.MagFilter))
		s.f.TexParameteri(t.target, gl.TEXTURE_WRAP_S, wrapMode(desc.WrapU))
		s.f.TexParameteri(t.target, gl.TEXTURE_WRAP_T, wrapMode(desc.WrapV))
		s.f.TexParameteri(t.target, gl.TEXTURE_WRAP_R, wrapMode(desc.WrapW))
		s.f.TexParameteri(t.target, gl.TEXTURE_MAX_LEVEL, desc.Levels-1)
		faces := 1
		if desc.Kind == TextureCube {
			faces = 6
		}
		for face := 0; face < faces; face++ {
			for l := 0; l < desc.Levels; l++ {
				sz := levelSize(desc.Width, desc.Height, l)
				s.f.TexImage2D(faceTarget(desc.Kind, CubeFace(face)), l, triple.internalFormat, sz.X, sz.Y, triple.format, triple.typ, nil)
			}
		}
		if err := s.createCheck(KindTexture); err != nil {
			s.state.DeleteTexture(t.obj)
			return Texture{}, err
		}
	}
	h := Texture{s.textures.Insert(t)}
	s.log.Debug("gpu: texture created", "width", desc.Width, "height", desc.Height, "format", desc.Format, "levels", desc.Levels)
	return h, nil
}

// UploadTexture copies pixel data into a region of a texture level.
func (s *Server) UploadTexture(h Texture, up TextureUpload) error {
	if err := s.checkLost(); err != nil {
		return err
	}
	t := s.textures.Get(h.h)
	if t == nil {
		return ErrInvalidHandle
	}
	if t.desc.Samples > 1 {
		return fmt.Errorf("gpu: multisampled textures can't be uploaded to")
	}
	if up.Level < 0 || up.Level >= t.desc.Levels {
		return fmt.Errorf("%w: level %d of %d", ErrOutOfBounds, up.Level, t.desc.Levels)
	}
	if up.Face > FaceNegativeZ || t.desc.Kind == Texture2D && up.Face != FacePositiveX {
		return fmt.Errorf("%w: face %d", ErrOutOfBounds, up.Face)
	}
	bounds := image.Rectangle{Max: levelSize(t.desc.Width, t.desc.Height, up.Level)}
	r := up.Rect
	if r == (image.Rectangle{}) {
		r = bounds
	}
	if r.Empty() || !r.In(bounds) {
		return fmt.Errorf("%w: region %v of level %v", ErrOutOfBounds, r, bounds)
	}
	if need := r.Dx() * r.Dy() * t.triple.bytes; len(up.Data) < need {
		return fmt.Errorf("%w: %d bytes for %d byte region", ErrOutOfBounds, len(up.Data), need)
	}
	s.state.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	s.state.BindTexture(0, t.target, t.obj)
	s.f.TexSubImage2D(faceTarget(t.desc.Kind, up.Face), up.Level, r.Min.X, r.Min.Y, r.Dx(), r.Dy(), t.triple.format, t.triple.typ, up.Data)
	s.cmdSeq++
	return s.check("upload texture")
}

// GenerateMipmaps fills every level of a texture from level 0.
func (s *Server) GenerateMipmaps(h Texture) error {
	if err := s.checkLost(); err != nil {
		return err
	}
	t := s.textures.Get(h.h)
	if t == nil {
		return ErrInvalidHandle
	}
	if t.desc.Samples > 1 {
		return fmt.Errorf("gpu: multisampled textures have no mipmaps")
	}
	if t.desc.Levels == 1 {
		return nil
	}
	s.state.BindTexture(0, t.target, t.obj)
	s.f.GenerateMipmap(t.target)
	s.cmdSeq++
	return s.check("generate mipmaps")
}

// DestroyTexture invalidates h and releases the texture once the GPU is
// done with it.
func (s *Server) DestroyTexture(h Texture) {
	t, ok := s.textures.Remove(h.h)
	if !ok {
		return
	}
	s.deferRelease(KindTexture, func() {
		if t.rb.Valid() {
			s.state.DeleteRenderbuffer(t.rb)
		} else {
			s.state.DeleteTexture(t.obj)
		}
	})
}

func minFilter(min Filter, mip MipFilter) int {
	switch {
	case mip == MipNearest && min == FilterLinear:
		return gl.LINEAR_MIPMAP_NEAREST
	case mip == MipNearest:
		return gl.NEAREST_MIPMAP_NEAREST
	case mip == MipLinear && min == FilterLinear:
		return gl.LINEAR_MIPMAP_LINEAR
	case mip == MipLinear:
		return gl.NEAREST_MIPMAP_LINEAR
	case min == FilterLinear:
		return gl.LINEAR
	default:
		return gl.NEAREST
	}
}

func magFilter(f Filter) int {
	if f == FilterLinear {
		return gl.LINEAR
	}
	return gl.NEAREST
}

func wrapMode(w Wrap) int {
	switch w {
	case WrapRepeat:
		return gl.REPEAT
	case WrapMirroredRepeat:
		return gl.MIRRORED_REPEAT
	default:
		return gl.CLAMP_TO_EDGE
	}
}

func compareFunc(c CompareFunc) gl.Enum {
	return gl.NEVER + gl.Enum(c)
}

// NewSampler creates a sampler object.
func (s *Server) NewSampler(desc SamplerDesc) (Sampler, error) {
	if err := s.checkLost(); err != nil {
		return Sampler{}, err
	}
	if desc.MinLOD == 0 && desc.MaxLOD == 0 {
		desc.MinLOD, desc.MaxLOD = -1000, 1000
	}
	switch {
	case desc.MaxLOD < desc.MinLOD:
		return Sampler{}, createErr(KindSampler, fmt.Sprintf("LOD range [%g, %g] is empty", desc.MinLOD, desc.MaxLOD))
	case desc.Anisotropy < 0:
		return Sampler{}, createErr(KindSampler, "negative anisotropy")
	case desc.CompareFunc > CompareAlways:
		return Sampler{}, createErr(KindSampler, "invalid compare function")
	}
	if err := s.drain(); err != nil {
		return Sampler{}, err
	}
	obj := s.f.CreateSampler()
	s.f.SamplerParameteri(obj, gl.TEXTURE_MIN_FILTER, minFilter(desc.MinFilter, desc.MipFilter))
	s.f.SamplerParameteri(obj, gl.TEXTURE_MAG_FILTER, magFilter(desc.MagFilter))
	s.f.SamplerParameteri(obj, gl.TEXTURE_WRAP_S, wrapMode(desc.WrapU))
	s.f.SamplerParameteri(obj, gl.TEXTURE_WRAP_T, wrapMode(desc.WrapV))
	s.f.SamplerParameteri(obj, gl.TEXTURE_WRAP_R, wrapMode(desc.WrapW))
	s.f.SamplerParameterf(obj, gl.TEXTURE_MIN_LOD, desc.MinLOD)
	s.f.SamplerParameterf(obj, gl.TEXTURE_MAX_LOD, desc.MaxLOD)
	if desc.Anisotropy > 1 && s.caps.MaxAnisotropy > 1 {
		a := desc.Anisotropy
		if a > s.caps.MaxAnisotropy {
			a = s.caps.MaxAnisotropy
		}
		s.f.SamplerParameterf(obj, gl.TEXTURE_MAX_ANISOTROPY_EXT, a)
	}
	if desc.Compare {
		s.f.SamplerParameteri(obj, gl.TEXTURE_COMPARE_MODE, gl.COMPARE_REF_TO_TEXTURE)
		s.f.SamplerParameteri(obj, gl.TEXTURE_COMPARE_FUNC, int(compareFunc(desc.CompareFunc)))
	}
	if err := s.createCheck(KindSampler); err != nil {
		s.state.DeleteSampler(obj)
		return Sampler{}, err
	}
	return Sampler{s.samplers.Insert(sampler{obj: obj, desc: desc})}, nil
}

// DestroySampler invalidates h and releases the sampler once the GPU is
// done with it.
func (s *Server) DestroySampler(h Sampler) {
	sm, ok := s.samplers.Remove(h.h)
	if !ok {
		return
	}
	s.deferRelease(KindSampler, func() { s.state.DeleteSampler(sm.obj) })
}

// SurfaceFramebuffer returns the framebuffer presented by EndFrame. Its
// size follows Resize. It can't be destroyed.
func (s *Server) SurfaceFramebuffer() Framebuffer {
	return s.surfaceFB
}

// NewFramebuffer creates an offscreen framebuffer. All attachments must
// have the same sample count. On OpenGL ES and WebGL they must also have
// the same size; on desktop OpenGL the framebuffer takes the smallest
// attachment size.
func (s *Server) NewFramebuffer(desc FramebufferDesc) (Framebuffer, error) {
	if err := s.checkLost(); err != nil {
		return Framebuffer{}, err
	}
	if len(desc.Color) == 0 && desc.DepthStencil == nil {
		return Framebuffer{}, createErr(KindFramebuffer, "no attachments")
	}
	if len(desc.Color) > s.caps.MaxColorAttachments {
		return Framebuffer{}, createErr(KindFramebuffer, fmt.Sprintf("%d color attachments exceed maximum %d", len(desc.Color), s.caps.MaxColorAttachments))
	}
	type resolved struct {
		att Attachment
		tex *texture
		gl  gl.Enum
	}
	var atts []resolved
	for i, a := range desc.Color {
		atts = append(atts, resolved{att: a, gl: gl.COLOR_ATTACHMENT0 + gl.Enum(i)})
	}
	if d := desc.DepthStencil; d != nil {
		atts = append(atts, resolved{att: *d, gl: gl.DEPTH_ATTACHMENT})
	}
	fb := framebuffer{colors: len(desc.Color)}
	for i := range atts {
		a := &atts[i]
		t := s.textures.Get(a.att.Texture.h)
		if t == nil {
			return Framebuffer{}, ErrInvalidHandle
		}
		a.tex = t
		fb.attachments = append(fb.attachments, a.att.Texture)
		depth := a.gl == gl.DEPTH_ATTACHMENT
		switch {
		case depth && !t.desc.Format.isDepth():
			return Framebuffer{}, createErr(KindFramebuffer, "depth attachment has a color format")
		case !depth && t.desc.Format.isDepth():
			return Framebuffer{}, createErr(KindFramebuffer, "color attachment has a depth format")
		case !depth && t.desc.Format.isFloat() && !s.caps.FloatRenderTargets:
			return Framebuffer{}, createErr(KindFramebuffer, "float render targets are not supported")
		case a.att.Level < 0 || a.att.Level >= t.desc.Levels:
			return Framebuffer{}, createErr(KindFramebuffer, fmt.Sprintf("attachment level %d of %d", a.att.Level, t.desc.Levels))
		case a.att.Face > FaceNegativeZ || t.desc.Kind == Texture2D && a.att.Face != FacePositiveX:
			return Framebuffer{}, createErr(KindFramebuffer, fmt.Sprintf("invalid attachment face %d", a.att.Face))
		}
		if t.desc.Format == FormatDepth24Stencil8 {
			a.gl = gl.DEPTH_STENCIL_ATTACHMENT
		}
		sz := levelSize(t.desc.Width, t.desc.Height, a.att.Level)
		if i == 0 {
			fb.size, fb.samples = sz, t.desc.Samples
			fb.srgb = t.desc.Format == FormatSRGBA8
			fb.float = t.desc.Format.isFloat()
			continue
		}
		if t.desc.Samples != fb.samples {
			return Framebuffer{}, createErr(KindFramebuffer, "attachments differ in sample count")
		}
		if sz != fb.size {
			if s.caps.ES {
				return Framebuffer{}, createErr(KindFramebuffer, fmt.Sprintf("attachment sizes %v and %v differ", fb.size, sz))
			}
			fb.size = image.Pt(minInt(fb.size.X, sz.X), minInt(fb.size.Y, sz.Y))
		}
	}

	if err := s.drain(); err != nil {
		return Framebuffer{}, err
	}
	fb.obj = s.f.CreateFramebuffer()
	s.state.BindFramebuffer(gl.FRAMEBUFFER, fb.obj)
	for _, a := range atts {
		if a.tex.rb.Valid() {
			s.f.FramebufferRenderbuffer(gl.FRAMEBUFFER, a.gl, gl.RENDERBUFFER, a.tex.rb)
		} else {
			s.f.FramebufferTexture2D(gl.FRAMEBUFFER, a.gl, faceTarget(a.tex.desc.Kind, a.att.Face), a.tex.obj, a.att.Level)
		}
	}
	bufs := []gl.Enum{gl.NONE}
	if fb.colors > 0 {
		bufs = make([]gl.Enum, fb.colors)
		for i := range bufs {
			bufs[i] = gl.COLOR_ATTACHMENT0 + gl.Enum(i)
		}
	}
	s.f.DrawBuffers(bufs)
	if st := s.f.CheckFramebufferStatus(gl.FRAMEBUFFER); st != gl.FRAMEBUFFER_COMPLETE {
		s.state.DeleteFramebuffer(fb.obj)
		s.glErr()
		return Framebuffer{}, &ResourceCreationError{Kind: KindFramebuffer, Reason: "incomplete framebuffer: " + framebufferStatus(st)}
	}
	if err := s.createCheck(KindFramebuffer); err != nil {
		s.state.DeleteFramebuffer(fb.obj)
		return Framebuffer{}, err
	}
	h := Framebuffer{s.framebuffers.Insert(fb)}
	s.log.Debug("gpu: framebuffer created", "size", fb.size, "colors", fb.colors, "samples", fb.samples)
	return h, nil
}

func framebufferStatus(st gl.Enum) string {
	switch st {
	case gl.FRAMEBUFFER_INCOMPLETE_ATTACHMENT:
		return "incomplete attachment"
	case gl.FRAMEBUFFER_INCOMPLETE_DIMENSIONS:
		return "attachment dimensions differ"
	case gl.FRAMEBUFFER_INCOMPLETE_MISSING_ATTACHMENT:
		return "missing attachment"
	case gl.FRAMEBUFFER_INCOMPLETE_MULTISAMPLE:
		return "attachment sample counts differ"
	case gl.FRAMEBUFFER_UNSUPPORTED:
		return "unsupported attachment combination"
	default:
		return fmt.Sprintf("status 0x%x", uint(st))
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// DestroyFramebuffer invalidates h and releases the framebuffer once
// the GPU is done with it. The attached textures are not destroyed.
func (s *Server) DestroyFramebuffer(h Framebuffer) {
	if h == s.surfaceFB {
		return
	}
	fb, ok := s.framebuffers.Remove(h.h)
	if !ok {
		return
	}
	s.deferRelease(KindFramebuffer, func() { s.state.DeleteFramebuffer(fb.obj) })
}

func attribType(t AttribType) (gl.Enum, int, bool) {
	switch t {
	case AttribFloat:
		return gl.FLOAT, 4, true
	case AttribUnsignedByte:
		return gl.UNSIGNED_BYTE, 1, true
	case AttribShort:
		return gl.SHORT, 2, true
	case AttribUnsignedShort:
		return gl.UNSIGNED_SHORT, 2, true
	case AttribInt:
		return gl.INT, 4, true
	case AttribUnsignedInt:
		return gl.UNSIGNED_INT, 4, true
	case AttribHalfFloat:
		return gl.HALF_FLOAT, 2, true
	}
	return 0, 0, false
}

// NewGeometry creates a vertex array from attributes in vertex buffers
// and an optional index buffer.
func (s *Server) NewGeometry(desc GeometryDesc) (Geometry, error) {
	if err := s.checkLost(); err != nil {
		return Geometry{}, err
	}
	used := make(map[int]bool)
	bufs := make([]*buffer, len(desc.Attributes))
	for i, a := range desc.Attributes {
		b := s.buffers.Get(a.Buffer.h)
		if b == nil {
			return Geometry{}, ErrInvalidHandle
		}
		_, size, ok := attribType(a.Type)
		switch {
		case b.usage != BufferUsageVertex:
			return Geometry{}, createErr(KindGeometry, fmt.Sprintf("attribute %q buffer is not a vertex buffer", a.Name))
		case !ok:
			return Geometry{}, createErr(KindGeometry, fmt.Sprintf("attribute %q has an invalid type", a.Name))
		case a.Components < 1 || a.Components > 4:
			return Geometry{}, createErr(KindGeometry, fmt.Sprintf("attribute %q has %d components", a.Name, a.Components))
		case a.Location < 0 || a.Location >= s.caps.MaxVertexAttribs:
			return Geometry{}, createErr(KindGeometry, fmt.Sprintf("attribute %q location %d out of range", a.Name, a.Location))
		case used[a.Location]:
			return Geometry{}, createErr(KindGeometry, fmt.Sprintf("attribute location %d used twice", a.Location))
		case a.Stride < 0 || a.Offset < 0 || a.Divisor < 0:
			return Geometry{}, createErr(KindGeometry, fmt.Sprintf("attribute %q has a negative stride, offset or divisor", a.Name))
		case a.Offset+a.Components*size > b.size:
			return Geometry{}, fmt.Errorf("%w: attribute %q at offset %d in buffer of %d", ErrOutOfBounds, a.Name, a.Offset, b.size)
		}
		used[a.Location] = true
		bufs[i] = b
	}
	var ib *buffer
	if !desc.Indices.IsZero() {
		ib = s.buffers.Get(desc.Indices.h)
		if ib == nil {
			return Geometry{}, ErrInvalidHandle
		}
		if ib.usage != BufferUsageIndex {
			return Geometry{}, createErr(KindGeometry, "index buffer is not an index buffer")
		}
		if desc.IndexType > Index32 {
			return Geometry{}, createErr(KindGeometry, "invalid index type")
		}
	}
	if err := s.drain(); err != nil {
		return Geometry{}, err
	}
	g := geometry{
		vao:     s.f.CreateVertexArray(),
		attribs: append([]VertexAttribute(nil), desc.Attributes...),
		indices: desc.Indices,
		idxType: desc.IndexType,
	}
	s.state.BindVertexArray(g.vao)
	for i, a := range desc.Attributes {
		typ, _, _ := attribType(a.Type)
		s.state.VertexAttribPointer(bufs[i].obj, a.Location, a.Components, typ, a.Normalized, a.Stride, a.Offset)
		s.state.SetVertexAttribArray(a.Location, true)
		s.state.VertexAttribDivisor(a.Location, a.Divisor)
	}
	if ib != nil {
		s.state.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, ib.obj)
	}
	if err := s.createCheck(KindGeometry); err != nil {
		s.state.DeleteVertexArray(g.vao)
		return Geometry{}, err
	}
	return Geometry{s.geometries.Insert(g)}, nil
}

// DestroyGeometry invalidates h and releases its vertex array once the
// GPU is done with it. The buffers are not destroyed.
func (s *Server) DestroyGeometry(h Geometry) {
	g, ok := s.geometries.Remove(h.h)
	if !ok {
		return
	}
	s.deferRelease(KindGeometry, func() { s.state.DeleteVertexArray(g.vao) })
}
