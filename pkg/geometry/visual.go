package geometry

import (
	orgerrors "github.com/matzehuels/orgtree/pkg/errors"
)

// Input is the slice of a tree node the geometry engine looks at.
type Input struct {
	ID       string
	Template string
	Payload  map[string]any
}

// Visual holds every drawable attribute of one node card. It is a pure
// function of the node's payload and the chart style.
type Visual struct {
	ID       string
	Template string

	Width, Height float64
	BorderWidth   float64
	BorderColor   string
	BorderRadius  float64
	Background    string

	Image ImageLayout
	Icon  IconLayout
	Link  Stroke

	// Anchors relative to the node centre.
	Button      Point
	TotalLabel  Point
	DirectLabel Point

	TextFill     string
	NodeTextFill string
	Font         string

	// Warnings are non-fatal style problems; each substituted a default.
	Warnings []error
}

// ImageLayout positions the node image. Group is the offset of the image
// group from the node centre, Offset the rect position inside the group.
type ImageLayout struct {
	URL          string
	PatternID    string
	Width        float64
	Height       float64
	Group        Point
	Offset       Point
	CornerShape  string
	CornerRadius float64
	BorderWidth  float64
	BorderColor  string
	// Filter is a url(#id) reference, empty without a shadow.
	Filter string
}

// IconLayout positions the icon left of the subsidiary counters.
type IconLayout struct {
	URL  string
	Size float64
	At   Point
}

// Stroke is the connector style a child gives the link to its parent.
type Stroke struct {
	Color     string
	Width     float64
	DashArray string
}

// ComputeVisual resolves a node's style against defaults and lays out
// the card. Style problems are reported in Visual.Warnings, never as a
// failure.
func ComputeVisual(in Input, defaults Style) Visual {
	s, warnings := Resolve(in.ID, in.Payload, defaults)

	v := Visual{
		ID:           in.ID,
		Template:     in.Template,
		Width:        s.Width,
		Height:       s.Height,
		BorderWidth:  s.BorderWidth,
		BorderColor:  s.BorderColor.String(),
		BorderRadius: s.BorderRadius,
		Background:   s.BackgroundColor.String(),
		TextFill:     s.TextFill,
		NodeTextFill: s.NodeTextFill,
		Font:         s.Font,
	}
	if v.BorderWidth == 0 {
		v.BorderWidth = nonZero(s.StrokeWidth, DefaultStrokeWidth)
	}

	v.Link = Stroke{
		Color:     s.ConnectorLineColor,
		Width:     nonZero(s.ConnectorLineWidth, DefaultConnectorWidth),
		DashArray: s.DashArray,
	}

	radius, ok := CornerRadius(s.Image.CornerShape, s.Image.Width, s.Image.Height)
	if !ok {
		warnings = append(warnings, orgerrors.New(orgerrors.ErrCodeInvalidStyleValue,
			"node %q: unknown corner shape %q, drawing square corners", in.ID, s.Image.CornerShape))
	}
	v.Image = ImageLayout{
		URL:       s.Image.URL,
		PatternID: PatternID(in.ID),
		Width:     s.Image.Width,
		Height:    s.Image.Height,
		Group: Point{
			X: -s.Image.Width/2.25 - s.Width/2.25,
			Y: -s.Image.Height/2.25 - s.Height/2.25,
		},
		Offset:       Point{X: s.Image.CenterLeftDistance, Y: s.Image.CenterTopDistance},
		CornerShape:  s.Image.CornerShape,
		CornerRadius: radius,
		BorderWidth:  s.Image.BorderWidth,
		BorderColor:  s.Image.BorderColor.String(),
	}
	if s.Image.Shadow && s.ShadowFilterID != "" {
		v.Image.Filter = "url(#" + s.ShadowFilterID + ")"
	}

	v.Icon = IconLayout{
		URL:  s.Icon.URL,
		Size: s.Icon.Size,
		At:   Point{X: -s.Width/2 + 14, Y: s.Height/2 - s.Icon.Size - 8},
	}
	v.Button = Point{X: 0, Y: s.Height / 2}
	v.TotalLabel = Point{X: -s.Width/2 + 14, Y: s.Height/2 - s.Icon.Size - 8}
	v.DirectLabel = Point{X: -s.Width/2 + 14 + 6 + s.Icon.Size, Y: s.Height/2 - 14}

	v.Warnings = warnings
	return v
}

// PatternID is the id of the image fill pattern of a node.
func PatternID(nodeID string) string {
	return "img-" + nodeID
}

func nonZero(v, fallback float64) float64 {
	if v == 0 {
		return fallback
	}
	return v
}
