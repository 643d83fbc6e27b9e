package geometry

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Color is an {red,green,blue,alpha} tuple. Channels are 0-255, alpha is 0-1.
type Color struct {
	Red   float64 `mapstructure:"red" json:"red" toml:"red" yaml:"red"`
	Green float64 `mapstructure:"green" json:"green" toml:"green" yaml:"green"`
	Blue  float64 `mapstructure:"blue" json:"blue" toml:"blue" yaml:"blue"`
	Alpha float64 `mapstructure:"alpha" json:"alpha" toml:"alpha" yaml:"alpha"`
}

// RGBA builds a Color.
func RGBA(r, g, b, a float64) Color {
	return Color{Red: r, Green: g, Blue: b, Alpha: a}
}

// String returns the CSS form rgba(r,g,b,a).
func (c Color) String() string {
	return fmt.Sprintf("rgba(%s,%s,%s,%s)", Num(c.Red), Num(c.Green), Num(c.Blue), Num(c.Alpha))
}

// colorPayload mirrors Color with an optional alpha; a tuple without alpha
// is opaque.
type colorPayload struct {
	Red   float64  `mapstructure:"red"`
	Green float64  `mapstructure:"green"`
	Blue  float64  `mapstructure:"blue"`
	Alpha *float64 `mapstructure:"alpha"`
}

func (p *colorPayload) color() Color {
	c := Color{Red: p.Red, Green: p.Green, Blue: p.Blue, Alpha: 1}
	if p.Alpha != nil {
		c.Alpha = *p.Alpha
	}
	return c
}

// ParseCSSColor parses the colour strings this package produces or accepts
// from payloads: rgba(r,g,b,a), rgb(r,g,b), #rgb/#rrggbb hex and a few names.
// Channels are returned in 0-1.
func ParseCSSColor(s string) (r, g, b, a float64, err error) {
	s = strings.TrimSpace(strings.ToLower(s))
	switch {
	case s == "":
		return 0, 0, 0, 0, fmt.Errorf("empty colour")
	case strings.HasPrefix(s, "#"):
		c, err := colorful.Hex(expandShortHex(s))
		if err != nil {
			return 0, 0, 0, 0, fmt.Errorf("parse colour %q: %w", s, err)
		}
		return c.R, c.G, c.B, 1, nil
	case strings.HasPrefix(s, "rgba(") || strings.HasPrefix(s, "rgb("):
		return parseRGBFunc(s)
	}
	if hex, ok := namedColors[s]; ok {
		c, _ := colorful.Hex(hex)
		return c.R, c.G, c.B, 1, nil
	}
	if s == "none" || s == "transparent" {
		return 0, 0, 0, 0, nil
	}
	return 0, 0, 0, 0, fmt.Errorf("unsupported colour %q", s)
}

var namedColors = map[string]string{
	"black":          "#000000",
	"white":          "#ffffff",
	"lightsteelblue": "#b0c4de",
}

func expandShortHex(s string) string {
	if len(s) != 4 {
		return s
	}
	return "#" + strings.Repeat(s[1:2], 2) + strings.Repeat(s[2:3], 2) + strings.Repeat(s[3:4], 2)
}

func parseRGBFunc(s string) (r, g, b, a float64, err error) {
	open, end := strings.IndexByte(s, '('), strings.LastIndexByte(s, ')')
	if open < 0 || end < open {
		return 0, 0, 0, 0, fmt.Errorf("malformed colour %q", s)
	}
	parts := strings.Split(s[open+1:end], ",")
	if len(parts) != 3 && len(parts) != 4 {
		return 0, 0, 0, 0, fmt.Errorf("malformed colour %q", s)
	}
	vals := make([]float64, 4)
	vals[3] = 1
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return 0, 0, 0, 0, fmt.Errorf("malformed colour %q: %w", s, err)
		}
		vals[i] = v
	}
	return vals[0] / 255, vals[1] / 255, vals[2] / 255, vals[3], nil
}
