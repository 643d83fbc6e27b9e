package geometry

import (
	"math"
	"strings"
	"testing"

	"pgregory.net/rapid"
)

func TestConnectorPath(t *testing.T) {
	tests := []struct {
		name           string
		source, target Point
		want           string
	}{
		{
			name:   "down right",
			source: Point{0, 0},
			target: Point{100, 200},
			want:   "M 0 0 L 0 65 C 0 100 0 100 35 100 L 65 100 C 100 100 100 100 100 135 L 100 200",
		},
		{
			name:   "up left",
			source: Point{100, 200},
			target: Point{0, 0},
			want:   "M 100 200 L 100 135 C 100 100 100 100 65 100 L 35 100 C 0 100 0 100 0 65 L 0 0",
		},
		{
			name:   "straight down",
			source: Point{0, 0},
			target: Point{0, 232},
			want:   "M 0 0 L 0 116 C 0 116 0 116 0 116 L 0 116 C 0 116 0 116 0 116 L 0 232",
		},
		{
			name:   "degenerate",
			source: Point{5, 5},
			target: Point{5, 5},
			want:   "M 5 5 L 5 5 C 5 5 5 5 5 5 L 5 5 C 5 5 5 5 5 5 L 5 5",
		},
		{
			name:   "short horizontal",
			source: Point{0, 0},
			target: Point{20, 200},
			want:   "M 0 0 L 0 90 C 0 100 0 100 10 100 L 10 100 C 20 100 20 100 20 110 L 20 200",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ConnectorPath(tt.source, tt.target); got != tt.want {
				t.Errorf("ConnectorPath() =\n  %s\nwant\n  %s", got, tt.want)
			}
		})
	}
}

type segmentRecorder struct {
	ops  []string
	last Point
}

func (r *segmentRecorder) MoveTo(x, y float64) {
	r.ops = append(r.ops, "M")
	r.last = Point{x, y}
}

func (r *segmentRecorder) LineTo(x, y float64) {
	r.ops = append(r.ops, "L")
	r.last = Point{x, y}
}

func (r *segmentRecorder) CubicTo(_, _, _, _, x, y float64) {
	r.ops = append(r.ops, "C")
	r.last = Point{x, y}
}

func TestConnectorTrace(t *testing.T) {
	var rec segmentRecorder
	NewConnector(Point{0, 0}, Point{-300, 232}).Trace(&rec)

	if got := strings.Join(rec.ops, ""); got != "MLCLCL" {
		t.Errorf("ops = %s, want MLCLCL", got)
	}
	if !rec.last.Equal(Point{-300, 232}) {
		t.Errorf("trace ends at %v", rec.last)
	}
}

func TestConnectorProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := Point{
			X: rapid.Float64Range(-5000, 5000).Draw(t, "sx"),
			Y: rapid.Float64Range(-5000, 5000).Draw(t, "sy"),
		}
		e := Point{
			X: rapid.Float64Range(-5000, 5000).Draw(t, "ex"),
			Y: rapid.Float64Range(-5000, 5000).Draw(t, "ey"),
		}
		c := NewConnector(s, e)

		if c.Radius > maxCornerRadius+1e-9 {
			t.Fatalf("radius %v exceeds cap", c.Radius)
		}
		if c.Radius > math.Abs(e.X-s.X)/2+1e-9 || c.Radius > math.Abs(e.Y-s.Y)/2+1e-9 {
			t.Fatalf("radius %v exceeds half delta", c.Radius)
		}
		if c.Rise < -1e-9 || c.Run < -1e-9 {
			t.Fatalf("negative run: rise=%v run=%v", c.Rise, c.Run)
		}

		var rec segmentRecorder
		c.Trace(&rec)
		if !rec.last.Equal(e) {
			t.Fatalf("trace ends at %v, want %v", rec.last, e)
		}
		if !strings.HasPrefix(c.Path(), "M "+Num(s.X)+" "+Num(s.Y)+" ") {
			t.Fatalf("path %q does not start at source", c.Path())
		}
	})
}

func TestLerp(t *testing.T) {
	a, b := Point{0, 10}, Point{100, -10}
	tests := []struct {
		t    float64
		want Point
	}{
		{0, a},
		{1, b},
		{0.5, Point{50, 0}},
	}
	for _, tt := range tests {
		if got := Lerp(a, b, tt.t); !got.Equal(tt.want) {
			t.Errorf("Lerp(%v) = %v, want %v", tt.t, got, tt.want)
		}
	}
}

func TestNum(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{math.Copysign(0, -1), "0"},
		{1.5, "1.5"},
		{-162, "-162"},
		{0.1, "0.1"},
	}
	for _, tt := range tests {
		if got := Num(tt.in); got != tt.want {
			t.Errorf("Num(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
