package term

import (
	"fmt"
	"strconv"
	"strings"
)

// Rgb is a 24-bit color.
type Rgb struct {
	R, G, B uint8
}

// ParseRgb reads "#rrggbb" or "0xrrggbb".
func ParseRgb(s string) (Rgb, error) {
	raw := strings.TrimSpace(s)
	raw = strings.TrimPrefix(raw, "#")
	raw = strings.TrimPrefix(strings.TrimPrefix(raw, "0x"), "0X")
	if len(raw) != 6 {
		return Rgb{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(raw, 16, 32)
	if err != nil {
		return Rgb{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return Rgb{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// MustRgb is ParseRgb for compile-time constants.
func MustRgb(s string) Rgb {
	c, err := ParseRgb(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Hex returns the color as "#rrggbb".
func (c Rgb) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func (c Rgb) String() string {
	return c.Hex()
}

// RGBA implements image/color.Color.
func (c Rgb) RGBA() (r, g, b, a uint32) {
	return uint32(c.R) * 257, uint32(c.G) * 257, uint32(c.B) * 257, 65535
}

// MarshalText encodes the color as hex for JSON dumps and config.
func (c Rgb) MarshalText() ([]byte, error) {
	return []byte(c.Hex()), nil
}

// UnmarshalText decodes a hex color.
func (c *Rgb) UnmarshalText(text []byte) error {
	parsed, err := ParseRgb(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ansiPalette is the xterm base-16 palette.
var ansiPalette = [16]Rgb{
	{0x1d, 0x1f, 0x21}, {0xcc, 0x66, 0x66}, {0xb5, 0xbd, 0x68}, {0xf0, 0xc6, 0x74},
	{0x81, 0xa2, 0xbe}, {0xb2, 0x94, 0xbb}, {0x8a, 0xbe, 0xb7}, {0xc5, 0xc8, 0xc6},
	{0x66, 0x66, 0x66}, {0xd5, 0x4e, 0x53}, {0xb9, 0xca, 0x4a}, {0xe7, 0xc5, 0x47},
	{0x7a, 0xa6, 0xda}, {0xc3, 0x97, 0xd8}, {0x70, 0xc0, 0xb1}, {0xea, 0xea, 0xea},
}

// IndexedColor resolves an xterm 256-color index.
func IndexedColor(idx int) Rgb {
	switch {
	case idx < 0:
		return ansiPalette[0]
	case idx < 16:
		return ansiPalette[idx]
	case idx < 232:
		i := idx - 16
		steps := [6]uint8{0, 95, 135, 175, 215, 255}
		return Rgb{R: steps[i/36], G: steps[(i/6)%6], B: steps[i%6]}
	case idx < 256:
		v := uint8(8 + (idx-232)*10)
		return Rgb{R: v, G: v, B: v}
	default:
		return ansiPalette[15]
	}
}
