package chart

import (
	"github.com/matzehuels/orgtree/pkg/geometry"
	"github.com/matzehuels/orgtree/pkg/reconcile"
)

// Surface draws frames. Implementations keep their own retained elements,
// keyed by node and link ID, and run the frame's transition on their own
// timer.
type Surface interface {
	// Size reports the container size; zero means unknown.
	Size() (width, height float64)
	// Apply draws a frame. A frame supersedes any frame still animating.
	Apply(f *Frame)
	// SetTransform applies a pan/zoom transform to the chart group.
	SetTransform(t Transform)
}

// Binder is implemented by surfaces that deliver user input.
type Binder interface {
	Bind(sink EventSink)
}

// EventSink receives user input from a surface. *Chart implements it.
type EventSink interface {
	Click(ev ClickEvent) error
	Zoom(t Transform) error
	Resize() error
}

// Target identifies the part of a node that was clicked.
type Target int

const (
	// TargetNode is the node card.
	TargetNode Target = iota
	// TargetToggle is the expand/collapse button.
	TargetToggle
)

func (t Target) String() string {
	if t == TargetToggle {
		return "toggle"
	}
	return "node"
}

// ClickEvent is a click on a node.
type ClickEvent struct {
	NodeID string
	Target Target
}

// Transform is a pan/zoom transform: translate(X,Y) scale(Scale).
type Transform struct {
	X, Y  float64
	Scale float64
}

// Identity is the transform that leaves the chart group untouched.
var Identity = Transform{Scale: 1}

// String returns the SVG transform attribute value.
func (t Transform) String() string {
	return "translate(" + geometry.Num(t.X) + "," + geometry.Num(t.Y) + ") scale(" + geometry.Num(t.Scale) + ")"
}

// Apply maps a chart point to container coordinates.
func (t Transform) Apply(p geometry.Point) geometry.Point {
	return geometry.Point{X: p.X*t.Scale + t.X, Y: p.Y*t.Scale + t.Y}
}

// Canvas describes the fixed parts of the drawing: the container, the
// centre group that holds the tree and the shared definitions.
type Canvas struct {
	ChartID    string
	Width      float64
	Height     float64
	Margins    Margins
	Background string
	Font       string
	// Center offsets the tree group inside the chart group.
	Center geometry.Point
	// Zoom is the fixed initial scale of the tree group.
	Zoom           float64
	ShadowFilterID string
}

// Reason says what triggered a frame.
type Reason string

const (
	ReasonData   Reason = "data"
	ReasonRender Reason = "render"
	ReasonToggle Reason = "toggle"
	ReasonResize Reason = "resize"
	ReasonRoot   Reason = "root"
)

// Frame is one reconciled update. Result holds the enter/update/exit sets,
// Target the visible state once the transition has finished.
type Frame struct {
	Seq    int
	Reason Reason
	Canvas Canvas
	// View is the current pan/zoom transform of the chart group.
	View       Transform
	Result     reconcile.Result
	Target     reconcile.Snapshot
	Transition *reconcile.Transition
}

type nopSurface struct{}

func (nopSurface) Size() (float64, float64) { return 0, 0 }
func (nopSurface) Apply(*Frame)             {}
func (nopSurface) SetTransform(Transform)   {}
