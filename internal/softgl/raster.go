// SPDX-License-Identifier: Unlicense OR MIT

//go:build !js
// +build !js

package softgl

import (
	"encoding/binary"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f32"
	"golang.org/x/image/vector"

	"glhal.org/internal/f32color"
	"glhal.org/internal/gl"
)

// target is a resolved color attachment.
type target struct {
	img     *image.RGBA
	size    image.Point
	samples int
	srgb    bool
	// format and data describe the storage of attachments the
	// rasterizer can't write to.
	format gl.Enum
	data   []byte
}

// colorTarget resolves COLOR_ATTACHMENT0 of a framebuffer, or the
// default framebuffer for id 0. img is nil for attachments the
// rasterizer can't write to.
func (f *Functions) colorTarget(id uint) (target, bool) {
	if id == 0 {
		return target{img: f.surface, size: f.surface.Rect.Size(), samples: f.cfg.Samples, srgb: f.cfg.SRGB}, true
	}
	fb := f.framebuffers[id]
	if fb == nil {
		return target{}, false
	}
	att, ok := fb.attachments[gl.COLOR_ATTACHMENT0]
	if !ok {
		return target{}, false
	}
	return f.attachmentTarget(att)
}

func (f *Functions) attachmentTarget(att attachment) (target, bool) {
	if att.rb != 0 {
		rb := f.renderbuffers[att.rb]
		if rb == nil || rb.data == nil {
			return target{}, false
		}
		t := target{size: image.Pt(rb.w, rb.h), samples: max1(rb.samples), srgb: rb.format == gl.SRGB8_ALPHA8, format: rb.format, data: rb.data}
		if renderable(rb.format) {
			t.img = rb.image()
		}
		return t, true
	}
	tex := f.textures[att.tex]
	if tex == nil {
		return target{}, false
	}
	face := 0
	if att.target >= gl.TEXTURE_CUBE_MAP_POSITIVE_X && att.target < gl.TEXTURE_CUBE_MAP_POSITIVE_X+6 {
		face = int(att.target - gl.TEXTURE_CUBE_MAP_POSITIVE_X)
	}
	if att.level >= len(tex.faces[face]) {
		return target{}, false
	}
	l := &tex.faces[face][att.level]
	if l.data == nil && l.w*l.h > 0 {
		return target{}, false
	}
	t := target{size: image.Pt(l.w, l.h), samples: 1, srgb: l.format == gl.SRGB8_ALPHA8, format: l.format, data: l.data}
	if renderable(l.format) {
		t.img = l.image()
	}
	return t, true
}

func (f *Functions) CheckFramebufferStatus(tgt gl.Enum) gl.Enum {
	if !f.call("CheckFramebufferStatus") {
		return 0
	}
	return f.status(f.boundFBO(tgt))
}

func (f *Functions) status(id uint) gl.Enum {
	if id == 0 {
		return gl.FRAMEBUFFER_COMPLETE
	}
	fb := f.framebuffers[id]
	if len(fb.attachments) == 0 {
		return gl.FRAMEBUFFER_INCOMPLETE_MISSING_ATTACHMENT
	}
	var size image.Point
	samples := -1
	for _, att := range fb.attachments {
		t, ok := f.attachmentTarget(att)
		if !ok || t.size.X == 0 || t.size.Y == 0 {
			return gl.FRAMEBUFFER_INCOMPLETE_ATTACHMENT
		}
		if samples == -1 {
			samples, size = t.samples, t.size
			continue
		}
		if t.samples != samples {
			return gl.FRAMEBUFFER_INCOMPLETE_MULTISAMPLE
		}
		if f.version.ES && t.size != size {
			return gl.FRAMEBUFFER_INCOMPLETE_DIMENSIONS
		}
	}
	return gl.FRAMEBUFFER_COMPLETE
}

func (f *Functions) Clear(mask gl.Enum) {
	if !f.call("Clear") {
		return
	}
	if mask&gl.COLOR_BUFFER_BIT == 0 {
		return
	}
	t, ok := f.colorTarget(f.state.drawFBO)
	if !ok || t.img == nil {
		return
	}
	c := f.state.clearColor
	col := [4]uint8{unorm(c[0]), unorm(c[1]), unorm(c[2]), unorm(c[3])}
	// Desktop GL encodes only while FRAMEBUFFER_SRGB is enabled.
	if t.srgb && (f.version.ES || f.state.caps[gl.FRAMEBUFFER_SRGB]) {
		e := f32color.RGBA{R: c[0], G: c[1], B: c[2], A: c[3]}.SRGB()
		col = [4]uint8{e.R, e.G, e.B, e.A}
	}
	r := t.img.Rect
	if f.state.caps[gl.SCISSOR_TEST] {
		r = r.Intersect(f.state.scissor)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			f.writePixel(t.img, x, y, col)
		}
	}
}

func unorm(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}

func (f *Functions) writePixel(img *image.RGBA, x, y int, c [4]uint8) {
	i := img.PixOffset(x, y)
	for ch := 0; ch < 4; ch++ {
		if f.state.colorMask[ch] {
			img.Pix[i+ch] = c[ch]
		}
	}
}

func (f *Functions) DrawArrays(mode gl.Enum, first, count int) {
	if !f.call("DrawArrays") {
		return
	}
	f.draw(mode, f.arrayIndices(first, count), 1)
}

func (f *Functions) DrawArraysInstanced(mode gl.Enum, first, count, instances int) {
	if !f.call("DrawArraysInstanced") {
		return
	}
	f.draw(mode, f.arrayIndices(first, count), instances)
}

func (f *Functions) DrawElements(mode gl.Enum, count int, ty gl.Enum, offset int) {
	if !f.call("DrawElements") {
		return
	}
	idx, ok := f.elementIndices(count, ty, offset)
	if !ok {
		return
	}
	f.draw(mode, idx, 1)
}

func (f *Functions) DrawElementsInstanced(mode gl.Enum, count int, ty gl.Enum, offset, instances int) {
	if !f.call("DrawElementsInstanced") {
		return
	}
	idx, ok := f.elementIndices(count, ty, offset)
	if !ok {
		return
	}
	f.draw(mode, idx, instances)
}

func (f *Functions) arrayIndices(first, count int) []int {
	idx := make([]int, count)
	for i := range idx {
		idx[i] = first + i
	}
	return idx
}

func (f *Functions) elementIndices(count int, ty gl.Enum, offset int) ([]int, bool) {
	b := f.buffers[f.state.elemBuf]
	if b == nil {
		f.setError(gl.INVALID_OPERATION)
		return nil, false
	}
	var size int
	switch ty {
	case gl.UNSIGNED_BYTE:
		size = 1
	case gl.UNSIGNED_SHORT:
		size = 2
	case gl.UNSIGNED_INT:
		size = 4
	default:
		f.setError(gl.INVALID_ENUM)
		return nil, false
	}
	if offset < 0 || offset+count*size > len(b.data) {
		f.setError(gl.INVALID_OPERATION)
		return nil, false
	}
	idx := make([]int, count)
	for i := range idx {
		p := b.data[offset+i*size:]
		switch size {
		case 1:
			idx[i] = int(p[0])
		case 2:
			idx[i] = int(binary.LittleEndian.Uint16(p))
		case 4:
			idx[i] = int(binary.LittleEndian.Uint32(p))
		}
	}
	return idx, true
}

// draw rasterizes the triangles of a draw call in a flat color. The
// vertex position is the xy of the float attribute at location 0, in
// normalized device coordinates. Points and lines are accepted but not
// rasterized.
func (f *Functions) draw(mode gl.Enum, indices []int, instances int) {
	prog := f.programs[f.state.prog]
	if prog == nil || !prog.linked {
		f.setError(gl.INVALID_OPERATION)
		return
	}
	if f.status(f.state.drawFBO) != gl.FRAMEBUFFER_COMPLETE {
		f.setError(gl.INVALID_OPERATION)
		return
	}
	t, ok := f.colorTarget(f.state.drawFBO)
	if !ok || t.img == nil || instances < 1 {
		return
	}
	pos, ok := f.positions(indices)
	if !ok {
		return
	}
	var tris [][3]f32.Vec2
	switch mode {
	case gl.TRIANGLES:
		for i := 0; i+2 < len(pos); i += 3 {
			tris = append(tris, [3]f32.Vec2{pos[i], pos[i+1], pos[i+2]})
		}
	case gl.TRIANGLE_STRIP:
		for i := 0; i+2 < len(pos); i++ {
			if i%2 == 0 {
				tris = append(tris, [3]f32.Vec2{pos[i], pos[i+1], pos[i+2]})
			} else {
				tris = append(tris, [3]f32.Vec2{pos[i+1], pos[i], pos[i+2]})
			}
		}
	case gl.TRIANGLE_FAN:
		for i := 1; i+1 < len(pos); i++ {
			tris = append(tris, [3]f32.Vec2{pos[0], pos[i], pos[i+1]})
		}
	case gl.POINTS, gl.LINES, gl.LINE_STRIP:
		return
	default:
		f.setError(gl.INVALID_ENUM)
		return
	}
	if len(tris) == 0 {
		return
	}
	bounds := t.img.Rect.Intersect(f.state.viewport)
	if f.state.caps[gl.SCISSOR_TEST] {
		bounds = bounds.Intersect(f.state.scissor)
	}
	if bounds.Empty() {
		return
	}
	mask := image.NewAlpha(t.img.Rect)
	r := vector.NewRasterizer(t.size.X, t.size.Y)
	for _, tri := range tris {
		r.Reset(t.size.X, t.size.Y)
		r.DrawOp = draw.Over
		r.MoveTo(tri[0][0], tri[0][1])
		r.LineTo(tri[1][0], tri[1][1])
		r.LineTo(tri[2][0], tri[2][1])
		r.ClosePath()
		r.Draw(mask, mask.Rect, image.Opaque, image.Point{})
	}
	src := f.fragColor(prog)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if mask.AlphaAt(x, y).A < 128 {
				continue
			}
			c := src
			if f.state.caps[gl.BLEND] {
				c = f.blend(src, t.img.RGBAAt(x, y))
			}
			f.writePixel(t.img, x, y, c)
		}
	}
}

// positions maps vertex indices to window coordinates.
func (f *Functions) positions(indices []int) ([]f32.Vec2, bool) {
	a := f.state.attribs[0]
	if !a.enabled || a.typ != gl.FLOAT || a.size < 2 {
		return nil, false
	}
	b := f.buffers[a.buf]
	if b == nil {
		return nil, false
	}
	stride := a.stride
	if stride == 0 {
		stride = a.size * 4
	}
	vp := f.state.viewport
	pos := make([]f32.Vec2, len(indices))
	for i, idx := range indices {
		off := a.offset + idx*stride
		if off+8 > len(b.data) {
			f.setError(gl.INVALID_OPERATION)
			return nil, false
		}
		x := math.Float32frombits(binary.LittleEndian.Uint32(b.data[off:]))
		y := math.Float32frombits(binary.LittleEndian.Uint32(b.data[off+4:]))
		pos[i] = f32.Vec2{
			float32(vp.Min.X) + (x+1)*.5*float32(vp.Dx()),
			float32(vp.Min.Y) + (y+1)*.5*float32(vp.Dy()),
		}
	}
	return pos, true
}

// fragColor returns the output color of a program: the first vec4
// literal of its fragment shader, or else the last vec4 uniform set,
// or else the first texel of its first sampler's texture, or white.
func (f *Functions) fragColor(p *program) [4]uint8 {
	if p.literal != nil {
		return *p.literal
	}
	if p.uniformColor != nil {
		c := p.uniformColor
		return [4]uint8{unorm(c[0]), unorm(c[1]), unorm(c[2]), unorm(c[3])}
	}
	for i, u := range p.uniforms {
		if u.typ != gl.SAMPLER_2D && u.typ != gl.SAMPLER_CUBE {
			continue
		}
		unit := 0
		if v := p.values[i]; len(v) > 0 {
			unit = int(v[0])
		}
		if unit < 0 || unit >= maxUnits {
			break
		}
		id := f.state.tex2D[unit]
		if u.typ == gl.SAMPLER_CUBE {
			id = f.state.texCube[unit]
		}
		return f.textures[id].texel()
	}
	return [4]uint8{255, 255, 255, 255}
}

func (f *Functions) blend(src [4]uint8, dst color.RGBA) [4]uint8 {
	s := [4]float32{float32(src[0]) / 255, float32(src[1]) / 255, float32(src[2]) / 255, float32(src[3]) / 255}
	d := [4]float32{float32(dst.R) / 255, float32(dst.G) / 255, float32(dst.B) / 255, float32(dst.A) / 255}
	bf := f.state.blendFunc
	var out [4]uint8
	for ch := 0; ch < 4; ch++ {
		sf, df := bf[0], bf[1]
		if ch == 3 {
			sf, df = bf[2], bf[3]
		}
		v := s[ch]*factor(sf, s, d) + d[ch]*factor(df, s, d)
		out[ch] = unorm(v)
	}
	return out
}

func factor(e gl.Enum, s, d [4]float32) float32 {
	switch e {
	case gl.ZERO:
		return 0
	case gl.ONE:
		return 1
	case gl.SRC_ALPHA:
		return s[3]
	case gl.ONE_MINUS_SRC_ALPHA:
		return 1 - s[3]
	case gl.DST_ALPHA:
		return d[3]
	case gl.ONE_MINUS_DST_ALPHA:
		return 1 - d[3]
	default:
		return 1
	}
}

func (f *Functions) BlitFramebuffer(sx0, sy0, sx1, sy1, dx0, dy0, dx1, dy1 int, mask gl.Enum, filter gl.Enum) {
	if !f.call("BlitFramebuffer") {
		return
	}
	if mask&gl.COLOR_BUFFER_BIT == 0 {
		return
	}
	src, ok1 := f.colorTarget(f.state.readFBO)
	dst, ok2 := f.colorTarget(f.state.drawFBO)
	if !ok1 || !ok2 {
		f.setError(gl.INVALID_OPERATION)
		return
	}
	if src.img == nil || dst.img == nil {
		return
	}
	sr := image.Rect(sx0, sy0, sx1, sy1)
	dr := image.Rect(dx0, dy0, dx1, dy1)
	if src.samples > 1 && sr.Size() != dr.Size() {
		f.setError(gl.INVALID_OPERATION)
		return
	}
	var scaler draw.Scaler = draw.NearestNeighbor
	if filter == gl.LINEAR {
		scaler = draw.ApproxBiLinear
	}
	scaler.Scale(dst.img, dr, src.img, sr, draw.Src, nil)
}

func (f *Functions) ReadPixels(x, y, width, height int, format, ty gl.Enum, data []byte) {
	if !f.call("ReadPixels") {
		return
	}
	if format != gl.RGBA || ty != gl.UNSIGNED_BYTE && ty != gl.FLOAT {
		f.setError(gl.INVALID_ENUM)
		return
	}
	src, ok := f.colorTarget(f.state.readFBO)
	if !ok || src.samples > 1 {
		f.setError(gl.INVALID_OPERATION)
		return
	}
	// ES reads float buffers only as FLOAT and normalized buffers only
	// as UNSIGNED_BYTE.
	float := src.format == gl.RGBA16F || src.format == gl.RGBA32F
	if float != (ty == gl.FLOAT) {
		f.setError(gl.INVALID_OPERATION)
		return
	}
	if float {
		f.readFloat(src, x, y, width, height, data)
		return
	}
	if len(data) < width*height*4 || src.img == nil {
		f.setError(gl.INVALID_OPERATION)
		return
	}
	for j := 0; j < height; j++ {
		for i := 0; i < width; i++ {
			o := (j*width + i) * 4
			p := image.Pt(x+i, y+j)
			if !p.In(src.img.Rect) {
				copy(data[o:o+4], []byte{0, 0, 0, 0})
				continue
			}
			s := src.img.PixOffset(p.X, p.Y)
			copy(data[o:o+4], src.img.Pix[s:s+4])
		}
	}
}

func (f *Functions) readFloat(src target, x, y, width, height int, data []byte) {
	if len(data) < width*height*16 || src.data == nil {
		f.setError(gl.INVALID_OPERATION)
		return
	}
	bpp := bytesPerPixel(src.format)
	for j := 0; j < height; j++ {
		for i := 0; i < width; i++ {
			o := (j*width + i) * 16
			p := image.Pt(x+i, y+j)
			if !p.In(image.Rectangle{Max: src.size}) {
				copy(data[o:o+16], make([]byte, 16))
				continue
			}
			s := (p.Y*src.size.X + p.X) * bpp
			if src.format == gl.RGBA32F {
				copy(data[o:o+16], src.data[s:s+16])
				continue
			}
			for c := 0; c < 4; c++ {
				h := binary.LittleEndian.Uint16(src.data[s+c*2:])
				binary.LittleEndian.PutUint32(data[o+c*4:], math.Float32bits(halfToFloat(h)))
			}
		}
	}
}

// halfToFloat decodes an IEEE 754 binary16 value.
func halfToFloat(h uint16) float32 {
	sign := float32(1)
	if h&0x8000 != 0 {
		sign = -1
	}
	exp := int(h>>10) & 0x1f
	frac := float32(h & 0x3ff)
	switch exp {
	case 0:
		return sign * frac * float32(math.Pow(2, -24))
	case 0x1f:
		if frac != 0 {
			return float32(math.NaN())
		}
		return sign * float32(math.Inf(1))
	}
	return sign * (1 + frac/1024) * float32(math.Pow(2, float64(exp-15)))
}

// Snapshot returns a copy of the default framebuffer, top row first.
func (f *Functions) Snapshot() *image.RGBA {
	r := f.surface.Rect
	img := image.NewRGBA(r)
	for y := 0; y < r.Dy(); y++ {
		copy(img.Pix[y*img.Stride:(y+1)*img.Stride], f.surface.Pix[(r.Dy()-1-y)*f.surface.Stride:])
	}
	return img
}

func copy2D(dst, src *image.RGBA) {
	draw.Copy(dst, image.Point{}, src, src.Rect, draw.Src, nil)
}
