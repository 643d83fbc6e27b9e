package geometry

import (
	"math"
	"strings"
)

// maxCornerRadius caps the rounded corners of a connector.
const maxCornerRadius = 35.0

// Connector is the elbow path between two node centres: a vertical run out
// of the source, a rounded corner, a horizontal run, a second corner and a
// vertical run into the target.
type Connector struct {
	Source, Target Point

	// Resolved geometry.
	Radius float64
	Rise   float64 // length of each vertical run
	Run    float64 // length of the horizontal run
	xDir   float64
	yDir   float64
}

// Tracer receives path segments. *gg.Context satisfies it.
type Tracer interface {
	MoveTo(x, y float64)
	LineTo(x, y float64)
	CubicTo(x1, y1, x2, y2, x3, y3 float64)
}

// NewConnector resolves the connector between source and target. The
// horizontal and vertical directions are taken from the signs of the deltas
// independently.
func NewConnector(source, target Point) Connector {
	dx, dy := target.X-source.X, target.Y-source.Y
	c := Connector{Source: source, Target: target, xDir: 1, yDir: 1}
	if dx < 0 {
		c.xDir = -1
	}
	if dy < 0 {
		c.yDir = -1
	}
	c.Radius = math.Min(maxCornerRadius, math.Abs(dx)/2)
	c.Radius = math.Min(c.Radius, math.Abs(dy)/2)
	c.Rise = math.Abs(dy)/2 - c.Radius
	c.Run = math.Abs(dx) - 2*c.Radius
	return c
}

// Mid is the y of the horizontal run.
func (c Connector) Mid() float64 {
	return c.Source.Y + c.Rise*c.yDir + c.Radius*c.yDir
}

// Trace replays the connector into t.
func (c Connector) Trace(t Tracer) {
	x, y := c.Source.X, c.Source.Y
	ex, ey := c.Target.X, c.Target.Y
	mid := c.Mid()

	t.MoveTo(x, y)
	t.LineTo(x, y+c.Rise*c.yDir)
	t.CubicTo(x, mid, x, mid, x+c.Radius*c.xDir, mid)
	t.LineTo(x+c.Run*c.xDir+c.Radius*c.xDir, mid)
	t.CubicTo(ex, mid, ex, mid, ex, ey-c.Rise*c.yDir)
	t.LineTo(ex, ey)
}

// Path returns the SVG path data of the connector.
func (c Connector) Path() string {
	var p pathWriter
	c.Trace(&p)
	return p.String()
}

// ConnectorPath is shorthand for NewConnector(source, target).Path().
func ConnectorPath(source, target Point) string {
	return NewConnector(source, target).Path()
}

type pathWriter struct {
	b strings.Builder
}

func (p *pathWriter) cmd(op string, xy ...float64) {
	if p.b.Len() > 0 {
		p.b.WriteByte(' ')
	}
	p.b.WriteString(op)
	for _, v := range xy {
		p.b.WriteByte(' ')
		p.b.WriteString(Num(v))
	}
}

func (p *pathWriter) MoveTo(x, y float64) { p.cmd("M", x, y) }
func (p *pathWriter) LineTo(x, y float64) { p.cmd("L", x, y) }
func (p *pathWriter) CubicTo(x1, y1, x2, y2, x3, y3 float64) {
	p.cmd("C", x1, y1, x2, y2, x3, y3)
}

func (p *pathWriter) String() string { return p.b.String() }
