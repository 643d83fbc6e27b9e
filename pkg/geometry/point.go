package geometry

import (
	"math"
	"strconv"
)

// Point is a position in chart coordinates. Y grows downward.
type Point struct {
	X, Y float64
}

// Lerp interpolates between a and b. t=0 yields a, t=1 yields b.
func Lerp(a, b Point, t float64) Point {
	return Point{
		X: a.X + (b.X-a.X)*t,
		Y: a.Y + (b.Y-a.Y)*t,
	}
}

// Equal reports whether p and q are within a thousandth of a unit.
func (p Point) Equal(q Point) bool {
	return math.Abs(p.X-q.X) < 1e-3 && math.Abs(p.Y-q.Y) < 1e-3
}

// String formats the point as "x,y".
func (p Point) String() string {
	return Num(p.X) + "," + Num(p.Y)
}

// Num formats a coordinate without exponent notation and without trailing
// zeros, so the output is stable across platforms.
func Num(v float64) string {
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
