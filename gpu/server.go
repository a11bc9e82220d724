// SPDX-License-Identifier: Unlicense OR MIT

// Package gpu implements a graphics server over OpenGL 3.2+, OpenGL ES
// 3.0 and WebGL 2. Resources are addressed by generation checked
// handles, GL state changes go through a deduplicating cache and
// destroyed objects are released only after the GPU has finished with
// them.
//
// A Server is used from the goroutine that owns its context. Handles
// are plain values and may be passed between goroutines.
package gpu

import (
	"fmt"
	"image"
	"log/slog"

	"glhal.org/internal/gl"
	"glhal.org/internal/glstate"
	"glhal.org/internal/pool"
	"glhal.org/surface"
)

// Server owns every GL object created through it.
type Server struct {
	ctx   surface.Context
	f     gl.Functions
	state *glstate.Cache
	opts  options
	log   *slog.Logger
	caps  Caps

	buffers      pool.Pool[buffer]
	textures     pool.Pool[texture]
	samplers     pool.Pool[sampler]
	framebuffers pool.Pool[framebuffer]
	programs     pool.Pool[program]
	geometries   pool.Pool[geometry]

	surfaceFB Framebuffer
	// scratchVAO is bound while index buffers are created or updated, so
	// that no geometry's element binding is disturbed.
	scratchVAO gl.VertexArray
	fallbacks  map[fallbackKey]gl.Texture

	pending   []pendingRelease
	lastFence *fence
	// cmdSeq counts submitted commands. Releases queued without an
	// intervening command share a fence.
	cmdSeq uint64

	frame    uint64
	draws    int
	lost     bool
	released bool
	inFrame  bool
}

// Caps describes the context of a Server.
type Caps struct {
	Version  string
	Renderer string
	Major    int
	Minor    int
	// ES is set for OpenGL ES and WebGL contexts.
	ES bool

	MaxTextureSize           int
	MaxTextureUnits          int
	MaxVertexAttribs         int
	MaxUniformBufferBindings int
	MaxColorAttachments      int
	MaxSamples               int
	// MaxAnisotropy is 1 without anisotropic filtering.
	MaxAnisotropy float32
	// Fences reports sync object support. Without it, destroyed
	// resources are released after a fixed number of frames.
	Fences             bool
	FloatRenderTargets bool
	Extensions         []string
}

// Stats reports counters of a Server.
type Stats struct {
	// Issued and Skipped count state changes forwarded to GL and dropped
	// as redundant by the state cache.
	Issued, Skipped int
	DrawCalls       int
	Frames          uint64
	// PendingReleases is the number of destroyed resources waiting for
	// the GPU.
	PendingReleases int
	Live            map[Kind]int
}

// New creates a server for a context. The context must stay current on
// the calling thread for the lifetime of the server. The server does
// not take ownership of ctx.
func New(ctx surface.Context, opts ...Option) (*Server, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := ctx.MakeCurrent(); err != nil {
		return nil, err
	}
	f := ctx.Functions()
	glVer := f.GetString(gl.VERSION)
	ver, err := gl.ParseGLVersion(glVer)
	if err != nil {
		return nil, &surface.ContextCreationError{Capability: "version", Err: err}
	}
	if ver.ES && !ver.AtLeast(3, 0) || !ver.ES && !ver.AtLeast(3, 2) {
		return nil, &surface.ContextCreationError{
			Capability: "version",
			Err:        fmt.Errorf("%v is older than OpenGL ES 3.0 or OpenGL 3.2", ver),
		}
	}
	s := &Server{
		ctx:       ctx,
		f:         f,
		opts:      o,
		log:       o.logger,
		fallbacks: make(map[fallbackKey]gl.Texture),
	}
	s.caps = queryCaps(f, glVer, ver)
	s.state = glstate.New(f, glstate.Limits{
		TextureUnits:          s.caps.MaxTextureUnits,
		VertexAttribs:         s.caps.MaxVertexAttribs,
		UniformBufferBindings: s.caps.MaxUniformBufferBindings,
	})
	s.scratchVAO = f.CreateVertexArray()
	if !ver.ES {
		// ES encodes sRGB attachments unconditionally.
		s.state.Set(gl.FRAMEBUFFER_SRGB, true)
	}
	s.surfaceFB = Framebuffer{s.framebuffers.Insert(framebuffer{
		surface: true,
		srgb:    s.surfaceSRGB(),
		size:    ctx.Size(),
		colors:  1,
		samples: 1,
	})}
	s.log.Info("gpu: context created",
		"version", s.caps.Version,
		"renderer", s.caps.Renderer,
		"fences", s.caps.Fences,
		"debug", o.debug)
	return s, nil
}

// surfaceSRGB reports whether the default framebuffer has sRGB encoded
// color channels. Contexts that cannot answer are treated as linear.
func (s *Server) surfaceSRGB() bool {
	att := gl.Enum(gl.BACK_LEFT)
	if s.caps.ES {
		att = gl.BACK
	}
	enc := s.f.GetFramebufferAttachmentParameteri(gl.FRAMEBUFFER, att, gl.FRAMEBUFFER_ATTACHMENT_COLOR_ENCODING)
	s.glErr()
	return enc == gl.SRGB
}

func queryCaps(f gl.Functions, glVer string, ver gl.Version) Caps {
	exts := gl.Extensions(f)
	c := Caps{
		Version:                  glVer,
		Renderer:                 f.GetString(gl.RENDERER),
		Major:                    ver.Major,
		Minor:                    ver.Minor,
		ES:                       ver.ES,
		MaxTextureSize:           f.GetInteger(gl.MAX_TEXTURE_SIZE),
		MaxTextureUnits:          f.GetInteger(gl.MAX_COMBINED_TEXTURE_IMAGE_UNITS),
		MaxVertexAttribs:         f.GetInteger(gl.MAX_VERTEX_ATTRIBS),
		MaxUniformBufferBindings: f.GetInteger(gl.MAX_UNIFORM_BUFFER_BINDINGS),
		MaxColorAttachments:      f.GetInteger(gl.MAX_COLOR_ATTACHMENTS),
		MaxSamples:               f.GetInteger(gl.MAX_SAMPLES),
		MaxAnisotropy:            1,
		Extensions:               exts,
	}
	if gl.HasExtension(exts, "GL_EXT_texture_filter_anisotropic") || gl.HasExtension(exts, "GL_ARB_texture_filter_anisotropic") {
		c.MaxAnisotropy = f.GetFloat(gl.MAX_TEXTURE_MAX_ANISOTROPY_EXT)
	}
	// Desktop GL 3.x renders to float textures; ES and WebGL need an
	// extension.
	c.FloatRenderTargets = !ver.ES || gl.HasExtension(exts, "GL_EXT_color_buffer_float")
	if sync := f.FenceSync(gl.SYNC_GPU_COMMANDS_COMPLETE, 0); sync.Valid() {
		c.Fences = true
		f.DeleteSync(sync)
	}
	f.GetError()
	return c
}

// Caps returns the capabilities of the context.
func (s *Server) Caps() Caps {
	return s.caps
}

// Stats returns the counters of the server.
func (s *Server) Stats() Stats {
	cs := s.state.Stats()
	return Stats{
		Issued:          cs.Issued,
		Skipped:         cs.Skipped,
		DrawCalls:       s.draws,
		Frames:          s.frame,
		PendingReleases: len(s.pending),
		Live:            s.Counts(),
	}
}

// BeginFrame starts a frame. It checks for context loss and releases
// destroyed resources the GPU has finished with.
func (s *Server) BeginFrame() error {
	if err := s.checkLost(); err != nil {
		return err
	}
	if s.inFrame {
		return ErrFrameOrder
	}
	// Contexts without a reset status query report loss through
	// glGetError only.
	if err := s.drain(); err != nil {
		return err
	}
	if st := s.f.GetGraphicsResetStatus(); st != gl.NO_ERROR {
		s.contextLost(st)
		return ErrContextLost
	}
	s.collect(false)
	s.inFrame = true
	return nil
}

// EndFrame presents the surface framebuffer and advances the frame
// counter.
func (s *Server) EndFrame() error {
	if err := s.checkLost(); err != nil {
		return err
	}
	if !s.inFrame {
		return ErrFrameOrder
	}
	s.inFrame = false
	s.frame++
	if err := s.ctx.Present(); err != nil {
		if st := s.f.GetGraphicsResetStatus(); st != gl.NO_ERROR {
			s.contextLost(st)
			return ErrContextLost
		}
		return fmt.Errorf("gpu: present: %w", err)
	}
	return nil
}

// Resize updates the size of the surface framebuffer.
func (s *Server) Resize(sz image.Point) {
	s.ctx.Resize(sz)
	if fb := s.framebuffers.Get(s.surfaceFB.h); fb != nil {
		fb.size = s.ctx.Size()
	}
}

// WaitIdle blocks until the GPU has executed every submitted command,
// then releases every destroyed resource.
func (s *Server) WaitIdle() error {
	if err := s.checkLost(); err != nil {
		return err
	}
	s.f.Finish()
	if st := s.f.GetGraphicsResetStatus(); st != gl.NO_ERROR {
		s.contextLost(st)
		return ErrContextLost
	}
	s.collect(true)
	return nil
}

// Raw calls fn with the GL functions of the context. The state cache
// is invalidated afterwards, because fn may change any GL state.
func (s *Server) Raw(fn func(f gl.Functions)) error {
	if err := s.checkLost(); err != nil {
		return err
	}
	fn(s.f)
	s.state.Invalidate()
	return s.check("raw")
}

// Release destroys every resource and waits for their release. The
// context is left to its owner. Calls after Release fail with
// ErrReleased.
func (s *Server) Release() {
	if s.released {
		return
	}
	if !s.lost {
		s.f.Finish()
	}
	s.buffers.Each(func(h pool.Handle, _ *buffer) { s.DestroyBuffer(Buffer{h}) })
	s.geometries.Each(func(h pool.Handle, _ *geometry) { s.DestroyGeometry(Geometry{h}) })
	s.framebuffers.Each(func(h pool.Handle, _ *framebuffer) { s.DestroyFramebuffer(Framebuffer{h}) })
	s.textures.Each(func(h pool.Handle, _ *texture) { s.DestroyTexture(Texture{h}) })
	s.samplers.Each(func(h pool.Handle, _ *sampler) { s.DestroySampler(Sampler{h}) })
	s.programs.Each(func(h pool.Handle, _ *program) { s.DestroyProgram(Program{h}) })
	s.collect(true)
	if !s.lost {
		for _, t := range s.fallbacks {
			s.state.DeleteTexture(t)
		}
		s.state.DeleteVertexArray(s.scratchVAO)
	}
	s.fallbacks = nil
	s.released = true
}

// checkLost fails once the server can no longer issue GL calls.
func (s *Server) checkLost() error {
	if s.released {
		return ErrReleased
	}
	if s.lost {
		return ErrContextLost
	}
	return nil
}

func (s *Server) contextLost(status gl.Enum) {
	if s.lost {
		return
	}
	s.lost = true
	s.pending = nil
	s.lastFence = nil
	s.log.Warn("gpu: context lost", "status", gl.ErrorString(status), "frame", s.frame)
}

// glErr drains and returns the pending GL error, marking the server
// lost on GL_CONTEXT_LOST.
func (s *Server) glErr() gl.Enum {
	e := s.f.GetError()
	if e == gl.CONTEXT_LOST {
		s.contextLost(e)
	}
	return e
}

// drain discards stale GL errors before a call whose errors are
// checked, failing if the context was lost in the meantime.
func (s *Server) drain() error {
	s.glErr()
	return s.checkLost()
}

// check reports GL errors after a command when debugging is enabled.
func (s *Server) check(op string) error {
	if !s.opts.debug {
		return nil
	}
	switch e := s.glErr(); e {
	case gl.NO_ERROR:
		return nil
	case gl.CONTEXT_LOST:
		return ErrContextLost
	default:
		return fmt.Errorf("gpu: %s: %s", op, gl.ErrorString(e))
	}
}
