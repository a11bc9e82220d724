// SPDX-License-Identifier: Unlicense OR MIT

package gpu

import (
	"github.com/go-gl/mathgl/mgl32"

	"glhal.org/internal/gl"
)

// UniformType is the GLSL type of a uniform.
type UniformType uint8

const (
	UniformOther UniformType = iota
	UniformFloat
	UniformVec2
	UniformVec3
	UniformVec4
	UniformInt
	UniformBool
	UniformMat4
	UniformSampler2D
	UniformSamplerCube
	UniformSampler2DShadow
)

func (t UniformType) String() string {
	switch t {
	case UniformFloat:
		return "float"
	case UniformVec2:
		return "vec2"
	case UniformVec3:
		return "vec3"
	case UniformVec4:
		return "vec4"
	case UniformInt:
		return "int"
	case UniformBool:
		return "bool"
	case UniformMat4:
		return "mat4"
	case UniformSampler2D:
		return "sampler2D"
	case UniformSamplerCube:
		return "samplerCube"
	case UniformSampler2DShadow:
		return "sampler2DShadow"
	default:
		return "other"
	}
}

func (t UniformType) isSampler() bool {
	return t == UniformSampler2D || t == UniformSamplerCube || t == UniformSampler2DShadow
}

func uniformType(e gl.Enum) UniformType {
	switch e {
	case gl.FLOAT:
		return UniformFloat
	case gl.FLOAT_VEC2:
		return UniformVec2
	case gl.FLOAT_VEC3:
		return UniformVec3
	case gl.FLOAT_VEC4:
		return UniformVec4
	case gl.INT:
		return UniformInt
	case gl.BOOL:
		return UniformBool
	case gl.FLOAT_MAT4:
		return UniformMat4
	case gl.SAMPLER_2D:
		return UniformSampler2D
	case gl.SAMPLER_CUBE:
		return UniformSamplerCube
	case gl.SAMPLER_2D_SHADOW:
		return UniformSampler2DShadow
	default:
		return UniformOther
	}
}

// Value is a typed uniform value: Float, Int, Vec2, Vec3, Vec4 or Mat4.
type Value interface {
	Type() UniformType
	set(f gl.Functions, u gl.Uniform)
}

type (
	Float float32
	Int   int32
	Vec2  mgl32.Vec2
	Vec3  mgl32.Vec3
	Vec4  mgl32.Vec4
	// Mat4 is a column major matrix, as built by mgl32.
	Mat4 mgl32.Mat4
)

func (Float) Type() UniformType { return UniformFloat }
func (Int) Type() UniformType   { return UniformInt }
func (Vec2) Type() UniformType  { return UniformVec2 }
func (Vec3) Type() UniformType  { return UniformVec3 }
func (Vec4) Type() UniformType  { return UniformVec4 }
func (Mat4) Type() UniformType  { return UniformMat4 }

func (v Float) set(f gl.Functions, u gl.Uniform) { f.Uniform1f(u, float32(v)) }
func (v Int) set(f gl.Functions, u gl.Uniform)   { f.Uniform1i(u, int(v)) }
func (v Vec2) set(f gl.Functions, u gl.Uniform)  { f.Uniform2f(u, v[0], v[1]) }
func (v Vec3) set(f gl.Functions, u gl.Uniform)  { f.Uniform3f(u, v[0], v[1], v[2]) }
func (v Vec4) set(f gl.Functions, u gl.Uniform)  { f.Uniform4f(u, v[0], v[1], v[2], v[3]) }
func (v Mat4) set(f gl.Functions, u gl.Uniform)  { f.UniformMatrix4fv(u, v[:]) }

// assignable reports whether a value of type v may be stored in a
// uniform of type u. Booleans are set as integers.
func assignable(v, u UniformType) bool {
	return v == u || v == UniformInt && u == UniformBool
}
