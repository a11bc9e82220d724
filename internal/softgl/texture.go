// SPDX-License-Identifier: Unlicense OR MIT

//go:build !js
// +build !js

package softgl

import (
	"image"

	"golang.org/x/image/draw"

	"glhal.org/internal/gl"
)

// bytesPerPixel returns the storage size of a texel for an internal
// format.
func bytesPerPixel(format gl.Enum) int {
	switch format {
	case gl.R8, gl.RED:
		return 1
	case gl.RGBA16F:
		return 8
	case gl.RGBA32F:
		return 16
	default:
		return 4
	}
}

// renderable reports whether texels of format can be drawn to by the
// rasterizer.
func renderable(format gl.Enum) bool {
	switch format {
	case gl.RGBA8, gl.SRGB8_ALPHA8, gl.RGBA:
		return true
	}
	return false
}

func (f *Functions) boundTexture(target gl.Enum) (*texture, int) {
	face := 0
	switch {
	case target == gl.TEXTURE_2D:
		return f.textures[f.state.tex2D[f.state.activeUnit]], 0
	case target == gl.TEXTURE_CUBE_MAP:
		return f.textures[f.state.texCube[f.state.activeUnit]], 0
	case target >= gl.TEXTURE_CUBE_MAP_POSITIVE_X && target < gl.TEXTURE_CUBE_MAP_POSITIVE_X+6:
		face = int(target - gl.TEXTURE_CUBE_MAP_POSITIVE_X)
		return f.textures[f.state.texCube[f.state.activeUnit]], face
	}
	return nil, 0
}

func (f *Functions) TexImage2D(target gl.Enum, lvl int, internalFormat gl.Enum, width, height int, format, ty gl.Enum, data []byte) {
	if !f.call("TexImage2D") {
		return
	}
	t, face := f.boundTexture(target)
	if t == nil {
		f.setError(gl.INVALID_OPERATION)
		return
	}
	max := f.integer(gl.MAX_TEXTURE_SIZE)
	if width < 0 || height < 0 || width > max || height > max {
		f.setError(gl.INVALID_VALUE)
		return
	}
	n := width * height * bytesPerPixel(internalFormat)
	if !f.alloc(n) {
		return
	}
	levels := t.faces[face]
	for len(levels) <= lvl {
		levels = append(levels, level{})
	}
	f.free(len(levels[lvl].data))
	l := level{w: width, h: height, format: internalFormat, data: make([]byte, n)}
	copy(l.data, data)
	levels[lvl] = l
	t.faces[face] = levels
}

func (f *Functions) TexSubImage2D(target gl.Enum, lvl int, x, y, width, height int, format, ty gl.Enum, data []byte) {
	if !f.call("TexSubImage2D") {
		return
	}
	t, face := f.boundTexture(target)
	if t == nil || lvl >= len(t.faces[face]) {
		f.setError(gl.INVALID_OPERATION)
		return
	}
	l := &t.faces[face][lvl]
	if x < 0 || y < 0 || x+width > l.w || y+height > l.h {
		f.setError(gl.INVALID_VALUE)
		return
	}
	bpp := bytesPerPixel(l.format)
	row := width * bpp
	if len(data) < row*height {
		f.setError(gl.INVALID_OPERATION)
		return
	}
	for j := 0; j < height; j++ {
		dst := ((y+j)*l.w + x) * bpp
		copy(l.data[dst:dst+row], data[j*row:])
	}
}

func (f *Functions) GenerateMipmap(target gl.Enum) {
	if !f.call("GenerateMipmap") {
		return
	}
	t, _ := f.boundTexture(target)
	if t == nil {
		f.setError(gl.INVALID_OPERATION)
		return
	}
	for face, levels := range t.faces {
		if len(levels) == 0 {
			continue
		}
		base := levels[0]
		levels = levels[:1]
		w, h := base.w, base.h
		prev := base
		for w > 1 || h > 1 {
			w, h = max1(w/2), max1(h/2)
			n := w * h * bytesPerPixel(base.format)
			if !f.alloc(n) {
				return
			}
			l := level{w: w, h: h, format: base.format, data: make([]byte, n)}
			if renderable(base.format) {
				draw.ApproxBiLinear.Scale(l.image(), l.image().Bounds(), prev.image(), prev.image().Bounds(), draw.Src, nil)
			}
			levels = append(levels, l)
			prev = l
		}
		t.faces[face] = levels
	}
}

func max1(v int) int {
	if v < 1 {
		return 1
	}
	return v
}

// Levels returns the number of mip levels allocated for face 0 of t.
func (f *Functions) Levels(t gl.Texture) int {
	if tex := f.textures[t.V]; tex != nil {
		return len(tex.faces[0])
	}
	return 0
}

// image wraps an RGBA level in an image. Rows are stored bottom up, as
// GL stores them, so the image is vertically flipped relative to the
// displayed result.
func (l *level) image() *image.RGBA {
	return &image.RGBA{Pix: l.data, Stride: l.w * 4, Rect: image.Rect(0, 0, l.w, l.h)}
}

func (rb *renderbuffer) image() *image.RGBA {
	return &image.RGBA{Pix: rb.data, Stride: rb.w * 4, Rect: image.Rect(0, 0, rb.w, rb.h)}
}

// texel returns the first texel of level 0 of a texture as RGBA.
func (t *texture) texel() [4]uint8 {
	if t == nil || len(t.faces[0]) == 0 {
		return [4]uint8{0, 0, 0, 255}
	}
	l := t.faces[0][0]
	if len(l.data) == 0 {
		return [4]uint8{0, 0, 0, 255}
	}
	switch bytesPerPixel(l.format) {
	case 1:
		return [4]uint8{l.data[0], 0, 0, 255}
	case 4:
		return [4]uint8{l.data[0], l.data[1], l.data[2], l.data[3]}
	}
	return [4]uint8{0, 0, 0, 255}
}
