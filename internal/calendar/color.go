package calendar

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
)

// Color is the RGB color an event title is drawn with.
type Color struct {
	R, G, B uint8
}

// DefaultColor is used when an event is created without an explicit color.
var DefaultColor = Color{R: 0x00, G: 0xff, B: 0x00}

// ParseColor accepts #RRGGBB in either case.
func ParseColor(s string) (Color, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return Color{}, fmt.Errorf("parse color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return Color{R: r, G: g, B: b}, nil
}

// Hex renders the color as lowercase #rrggbb.
func (c Color) Hex() string {
	return colorful.Color{
		R: float64(c.R) / 255.0,
		G: float64(c.G) / 255.0,
		B: float64(c.B) / 255.0,
	}.Hex()
}

func (c Color) String() string {
	return c.Hex()
}
