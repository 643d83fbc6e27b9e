package graph

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"

	"github.com/matzehuels/orgtree/pkg/chart"
	orgerrors "github.com/matzehuels/orgtree/pkg/errors"
	"github.com/matzehuels/orgtree/pkg/geometry"
)

// =============================================================================
// Export
// =============================================================================

// Export converts the end state of a frame into a Layout. A nil frame
// exports an empty layout.
func Export(f *chart.Frame, view chart.ViewState) Layout {
	l := Layout{Version: FormatVersion, RootID: view.RootID, Nodes: []Node{}}
	l.View = Transform{X: view.Transform.X, Y: view.Transform.Y, Scale: view.Transform.Scale}
	if f == nil {
		return l
	}

	cv := f.Canvas
	l.ChartID = cv.ChartID
	l.Width, l.Height = cv.Width, cv.Height
	l.Margins = Margins(cv.Margins)
	l.Center = Point{X: cv.Center.X, Y: cv.Center.Y}
	l.Zoom = cv.Zoom

	for _, n := range f.Target.Nodes {
		v := n.Visual
		node := Node{
			ID:          n.ID,
			X:           n.At.X,
			Y:           n.At.Y,
			Width:       v.Width,
			Height:      v.Height,
			State:       n.State.String(),
			Direct:      n.DirectCount,
			Total:       n.TotalCount,
			Template:    v.Template,
			Background:  v.Background,
			BorderColor: v.BorderColor,
			BorderWidth: v.BorderWidth,
		}
		if img := v.Image; img.URL != "" {
			node.Image = &Image{
				URL:          img.URL,
				X:            n.At.X + img.Group.X + img.Offset.X,
				Y:            n.At.Y + img.Group.Y + img.Offset.Y,
				Width:        img.Width,
				Height:       img.Height,
				CornerRadius: img.CornerRadius,
			}
		}
		l.Nodes = append(l.Nodes, node)
	}
	for _, lv := range f.Target.Links {
		l.Links = append(l.Links, Link{
			ID:        lv.ID,
			Parent:    lv.ParentID,
			Path:      geometry.ConnectorPath(lv.Child, lv.Parent),
			Stroke:    lv.Stroke.Color,
			Width:     lv.Stroke.Width,
			DashArray: lv.Stroke.DashArray,
		})
	}
	return l
}

// =============================================================================
// Layout Serialization API
// =============================================================================

// MarshalLayout serializes a Layout to pretty-printed JSON bytes.
func MarshalLayout(l Layout) ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// WriteLayout writes a Layout as JSON to w.
func WriteLayout(l Layout, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(l); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// UnmarshalLayout deserializes JSON bytes into a Layout and checks that
// node IDs are unique and every link joins two known nodes.
func UnmarshalLayout(data []byte) (Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, orgerrors.Wrap(orgerrors.ErrCodeInvalidFormat, err, "unmarshal layout")
	}
	if err := l.Validate(); err != nil {
		return Layout{}, err
	}
	return l, nil
}

// Validate checks the structural rules of a layout.
func (l *Layout) Validate() error {
	if l.Version == 0 {
		l.Version = FormatVersion
	}
	if l.Version > FormatVersion {
		return orgerrors.New(orgerrors.ErrCodeInvalidFormat, "layout version %d is newer than %d", l.Version, FormatVersion)
	}
	ids := make(map[string]bool, len(l.Nodes))
	for _, n := range l.Nodes {
		if n.ID == "" {
			return orgerrors.New(orgerrors.ErrCodeInvalidFormat, "layout node without id")
		}
		if ids[n.ID] {
			return orgerrors.New(orgerrors.ErrCodeInvalidFormat, "duplicate layout node %q", n.ID)
		}
		ids[n.ID] = true
		switch n.State {
		case StateLeaf, StateExpanded, StateCollapsed:
		default:
			return orgerrors.New(orgerrors.ErrCodeInvalidFormat, "node %q: unknown state %q", n.ID, n.State)
		}
	}
	for _, lk := range l.Links {
		if !ids[lk.ID] || !ids[lk.Parent] {
			return orgerrors.New(orgerrors.ErrCodeInvalidFormat, "link %q -> %q references an unknown node", lk.ID, lk.Parent)
		}
	}
	return nil
}

// WriteLayoutFile writes a Layout to a JSON file.
func WriteLayoutFile(l Layout, path string) error {
	data, err := MarshalLayout(l)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadLayoutFile reads a Layout from a JSON file.
func ReadLayoutFile(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalLayout(data)
}
