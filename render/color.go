package render

import (
	"image/color"
	"strings"
)

// parseHexColor parses #rgb and #rrggbb colors. Anything else is opaque black.
func parseHexColor(hex string) color.RGBA {
	hex = strings.TrimPrefix(hex, "#")

	switch len(hex) {
	case 3:
		r := parseHexDigit(hex[0])
		g := parseHexDigit(hex[1])
		b := parseHexDigit(hex[2])
		return color.RGBA{R: r * 17, G: g * 17, B: b * 17, A: 0xff}
	case 6:
		return color.RGBA{
			R: parseHexByte(hex[0:2]),
			G: parseHexByte(hex[2:4]),
			B: parseHexByte(hex[4:6]),
			A: 0xff,
		}
	default:
		return color.RGBA{A: 0xff}
	}
}

func parseHexDigit(c byte) uint8 {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	}
	return 0
}

func parseHexByte(s string) uint8 {
	var result uint8
	for i := 0; i < len(s); i++ {
		result = result*16 + parseHexDigit(s[i])
	}
	return result
}
