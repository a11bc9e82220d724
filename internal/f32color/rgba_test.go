// SPDX-License-Identifier: Unlicense OR MIT

package f32color

import (
	"image/color"
	"testing"
)

func TestLinearToRGBARoundtrip(t *testing.T) {
	for col := 0; col <= 0xFF; col++ {
		for alpha := 0; alpha <= 0xFF; alpha++ {
			want := color.NRGBA{R: uint8(col), G: uint8(0xFF - col), A: uint8(alpha)}
			if alpha == 0 {
				want = color.NRGBA{}
			}
			got := LinearFromSRGB(want).SRGB()
			if want != got {
				t.Errorf("got %v expected %v", got, want)
			}
		}
	}
}

func TestLinearFromSRGB(t *testing.T) {
	c := LinearFromSRGB(color.NRGBA{R: 0xFF, G: 0x80, B: 0, A: 0x80})
	if c.R != 1 || c.B != 0 {
		t.Errorf("extremes changed: %v", c)
	}
	// sRGB 0.5 is about 21.6% linear intensity.
	if c.G < 0.21 || c.G > 0.22 {
		t.Errorf("G = %v", c.G)
	}
	if c.A != float32(0x80)/255 {
		t.Errorf("alpha was decoded: %v", c.A)
	}
}

var sink RGBA

func BenchmarkLinearFromSRGB(b *testing.B) {
	b.Run("opaque", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			sink = LinearFromSRGB(color.NRGBA{R: byte(i), G: byte(i >> 8), B: byte(i >> 16), A: 0xFF})
		}
	})
	b.Run("translucent", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			sink = LinearFromSRGB(color.NRGBA{R: byte(i), G: byte(i >> 8), B: byte(i >> 16), A: 0x50})
		}
	})
}
