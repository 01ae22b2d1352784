package pixel

import (
	colorful "github.com/lucasb-eyer/go-colorful"
)

// RGB is one LED value in wire order.
type RGB struct{ R, G, B uint8 }

var (
	Black = RGB{}
	White = RGB{R: 255, G: 255, B: 255}
)

// FromColorful converts a linear 0..1 color, clamping out-of-gamut values.
func FromColorful(c colorful.Color) RGB {
	r, g, b := c.Clamped().RGB255()
	return RGB{R: r, G: g, B: b}
}

// Colorful returns c as a go-colorful color.
func (c RGB) Colorful() colorful.Color {
	return colorful.Color{
		R: float64(c.R) / 255.0,
		G: float64(c.G) / 255.0,
		B: float64(c.B) / 255.0,
	}
}

// Scale multiplies every channel by brightness (0..1), rounding to the
// nearest step.
func (c RGB) Scale(brightness float64) RGB {
	if brightness >= 1 {
		return c
	}
	if brightness <= 0 {
		return Black
	}
	return FromColorful(Black.Colorful().BlendRgb(c.Colorful(), brightness))
}

// Hex parses "#rrggbb".
func Hex(s string) (RGB, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return Black, err
	}
	return FromColorful(c), nil
}

func (c RGB) Hex() string { return c.Colorful().Hex() }
