// SPDX-License-Identifier: Unlicense OR MIT

// Package f32color converts between sRGB encoded 8-bit colors and
// linear float colors.
package f32color

import (
	"image/color"
	"math"
)

// RGBA is a linear color with straight alpha.
type RGBA struct {
	R, G, B, A float32
}

// LinearFromSRGB decodes the color channels of c.
func LinearFromSRGB(c color.NRGBA) RGBA {
	return RGBA{
		R: linearFromSRGB(float32(c.R) / 255),
		G: linearFromSRGB(float32(c.G) / 255),
		B: linearFromSRGB(float32(c.B) / 255),
		A: float32(c.A) / 255,
	}
}

// Float returns the channels of c scaled to [0, 1] without decoding.
func Float(c color.NRGBA) RGBA {
	return RGBA{R: float32(c.R) / 255, G: float32(c.G) / 255, B: float32(c.B) / 255, A: float32(c.A) / 255}
}

// SRGB encodes c. Fully transparent colors encode to zero.
func (c RGBA) SRGB() color.NRGBA {
	if c.A == 0 {
		return color.NRGBA{}
	}
	return color.NRGBA{
		R: Unorm(sRGBFromLinear(c.R)),
		G: Unorm(sRGBFromLinear(c.G)),
		B: Unorm(sRGBFromLinear(c.B)),
		A: Unorm(c.A),
	}
}

// Unorm converts v to an 8-bit normalized value, clamping to [0, 1].
func Unorm(v float32) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return uint8(v*255 + .5)
}

func linearFromSRGB(c float32) float32 {
	if c <= 0.04045 {
		return c / 12.92
	}
	return float32(math.Pow(float64((c+0.055)/1.055), 2.4))
}

func sRGBFromLinear(c float32) float32 {
	if c <= 0.0031308 {
		return c * 12.92
	}
	return 1.055*float32(math.Pow(float64(c), 1/2.4)) - 0.055
}
