package sink

import (
	"math"
	"strconv"

	"github.com/matzehuels/orgtree/pkg/chart"
	orgerrors "github.com/matzehuels/orgtree/pkg/errors"
	"github.com/matzehuels/orgtree/pkg/reconcile"
	"github.com/matzehuels/orgtree/pkg/tree"
)

// buttonRadius is the radius of the expand/collapse button.
const buttonRadius = 16.0

// nodeItem is one node card to draw.
type nodeItem struct {
	reconcile.NodeChange
	exiting bool
}

type linkItem struct {
	reconcile.LinkChange
	exiting bool
}

// items flattens a frame into draw order: links under nodes, exits last.
// Without animation only the end state is kept.
func items(f *chart.Frame, animate bool) ([]nodeItem, []linkItem) {
	if !animate {
		nodes := make([]nodeItem, 0, len(f.Target.Nodes))
		for _, n := range f.Target.Nodes {
			nodes = append(nodes, nodeItem{NodeChange: reconcile.NodeChange{
				NodeView: n, From: n.At, To: n.At, FromOpacity: 1, ToOpacity: 1,
			}})
		}
		links := make([]linkItem, 0, len(f.Target.Links))
		for _, l := range f.Target.Links {
			links = append(links, linkItem{LinkChange: reconcile.LinkChange{
				ID: l.ID, Stroke: l.Stroke,
				FromChild: l.Child, FromParent: l.Parent,
				ToChild: l.Child, ToParent: l.Parent,
			}})
		}
		return nodes, links
	}

	r := f.Result
	var nodes []nodeItem
	for _, set := range [][]reconcile.NodeChange{r.Nodes.Enter, r.Nodes.Update} {
		for _, c := range set {
			nodes = append(nodes, nodeItem{NodeChange: c})
		}
	}
	for _, c := range r.Nodes.Exit {
		nodes = append(nodes, nodeItem{NodeChange: c, exiting: true})
	}
	var links []linkItem
	for _, set := range [][]reconcile.LinkChange{r.Links.Enter, r.Links.Update} {
		for _, c := range set {
			links = append(links, linkItem{LinkChange: c})
		}
	}
	for _, c := range r.Links.Exit {
		links = append(links, linkItem{LinkChange: c, exiting: true})
	}
	return nodes, links
}

// bounds is the box around the end state of every visible card in chart
// coordinates, toggle buttons included.
type bounds struct {
	minX, minY, maxX, maxY float64
}

func (b bounds) width() float64  { return b.maxX - b.minX }
func (b bounds) height() float64 { return b.maxY - b.minY }

func targetBounds(s reconcile.Snapshot) bounds {
	if len(s.Nodes) == 0 {
		return bounds{}
	}
	b := bounds{minX: math.Inf(1), minY: math.Inf(1), maxX: math.Inf(-1), maxY: math.Inf(-1)}
	for _, n := range s.Nodes {
		hw, hh := n.Visual.Width/2, n.Visual.Height/2
		b.minX = math.Min(b.minX, n.At.X-hw)
		b.maxX = math.Max(b.maxX, n.At.X+hw)
		b.minY = math.Min(b.minY, n.At.Y-hh)
		b.maxY = math.Max(b.maxY, n.At.Y+hh+buttonRadius)
	}
	return b
}

// placement is the document size and the two group transforms.
type placement struct {
	width, height float64
	outer         chart.Transform
	inner         chart.Transform
}

func place(f *chart.Frame, fit bool, padding float64) placement {
	cv := f.Canvas
	p := placement{
		width:  cv.Width,
		height: cv.Height,
		outer:  f.View,
		inner:  chart.Transform{X: cv.Center.X, Y: cv.Center.Y, Scale: cv.Zoom},
	}
	if !fit {
		return p
	}
	b := targetBounds(f.Target)
	k := cv.Zoom
	p.width = b.width()*k + 2*padding
	p.height = b.height()*k + 2*padding
	p.outer = chart.Transform{X: padding - b.minX*k, Y: padding - b.minY*k, Scale: 1}
	p.inner = chart.Transform{Scale: k}
	return p
}

func checkFrame(f *chart.Frame) error {
	if f == nil {
		return orgerrors.New(orgerrors.ErrCodeInvalidInput, "no frame to render")
	}
	return nil
}

func buttonLabel(s tree.State) (text string, size int) {
	if s == tree.Expanded {
		return "-", 34
	}
	return "+", 20
}

func subsidiaries(n int) string {
	if n == 1 {
		return "1 Subsidiary"
	}
	return strconv.Itoa(n) + " Subsidiaries"
}
