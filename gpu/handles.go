// SPDX-License-Identifier: Unlicense OR MIT

package gpu

import (
	"glhal.org/internal/pool"
)

// Kind identifies a type of resource.
type Kind uint8

const (
	KindBuffer Kind = iota
	KindTexture
	KindSampler
	KindFramebuffer
	KindProgram
	KindGeometry
)

func (k Kind) String() string {
	switch k {
	case KindBuffer:
		return "buffer"
	case KindTexture:
		return "texture"
	case KindSampler:
		return "sampler"
	case KindFramebuffer:
		return "framebuffer"
	case KindProgram:
		return "program"
	case KindGeometry:
		return "geometry"
	default:
		panic("invalid resource kind")
	}
}

// Handles are small comparable values referring to server owned
// resources. The zero handle of every type is never valid. A handle
// stays invalid after its resource is destroyed, even when the slot is
// reused.
type (
	Buffer      struct{ h pool.Handle }
	Texture     struct{ h pool.Handle }
	Sampler     struct{ h pool.Handle }
	Framebuffer struct{ h pool.Handle }
	Program     struct{ h pool.Handle }
	Geometry    struct{ h pool.Handle }
)

func (b Buffer) IsZero() bool      { return b.h.IsZero() }
func (t Texture) IsZero() bool     { return t.h.IsZero() }
func (s Sampler) IsZero() bool     { return s.h.IsZero() }
func (f Framebuffer) IsZero() bool { return f.h.IsZero() }
func (p Program) IsZero() bool     { return p.h.IsZero() }
func (g Geometry) IsZero() bool    { return g.h.IsZero() }
