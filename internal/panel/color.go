package panel

import (
	"encoding"
	"fmt"
	"strconv"
)

// RGBColor is a color with 8 bits per channel, in R, G, B order.
type RGBColor [3]uint8

var (
	_ encoding.TextUnmarshaler = (*RGBColor)(nil)
	_ encoding.TextMarshaler   = (*RGBColor)(nil)
)

// Scale multiplies every channel by f, truncating to integers. f is
// expected in [0, 1]; values above 1 are clamped per channel.
func (c RGBColor) Scale(f float64) RGBColor {
	var out RGBColor
	for i, ch := range c {
		v := float64(ch) * f
		if v > 255 {
			v = 255
		}
		if v < 0 {
			v = 0
		}
		out[i] = uint8(v)
	}
	return out
}

// Hex formats the color as #rrggbb.
func (c RGBColor) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}

func (c RGBColor) String() string { return c.Hex() }

// UnmarshalText parses #rrggbb or rrggbb.
func (c *RGBColor) UnmarshalText(text []byte) error {
	s := string(text)
	if len(s) > 0 && s[0] == '#' {
		s = s[1:]
	}
	if len(s) != 6 {
		return fmt.Errorf("invalid color %q: want rrggbb", text)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return fmt.Errorf("invalid color %q: %v", text, err)
	}
	*c = RGBColor{uint8(v >> 16), uint8(v >> 8), uint8(v)}
	return nil
}

// MarshalText formats the color as #rrggbb.
func (c RGBColor) MarshalText() ([]byte, error) {
	return []byte(c.Hex()), nil
}
