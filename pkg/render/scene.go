package render

import (
	"sync"
	"time"

	"github.com/matzehuels/orgtree/pkg/chart"
	"github.com/matzehuels/orgtree/pkg/geometry"
	"github.com/matzehuels/orgtree/pkg/reconcile"
)

// Element is the retained drawing of one node.
type Element struct {
	reconcile.NodeChange
	Exiting bool
}

// Path is the retained drawing of one connector.
type Path struct {
	reconcile.LinkChange
	Exiting bool
}

// Stats counts element operations since the scene was created.
type Stats struct {
	Created int
	Updated int
	Removed int
}

// NodeSample is a node at one instant of a transition.
type NodeSample struct {
	ID      string
	At      geometry.Point
	Opacity float64
	Exiting bool
	View    reconcile.NodeView
}

// LinkSample is a connector at one instant of a transition.
type LinkSample struct {
	ID        string
	Connector geometry.Connector
	Stroke    geometry.Stroke
	Exiting   bool
}

// Sample is the whole scene at one instant. Nodes and links follow the
// order of the frame that produced them, exits last.
type Sample struct {
	Progress float64
	Canvas   chart.Canvas
	View     chart.Transform
	Nodes    []NodeSample
	Links    []LinkSample
}

// Scene is a retained surface. It is safe for concurrent use.
type Scene struct {
	mu            sync.Mutex
	width, height float64

	canvas chart.Canvas
	view   chart.Transform
	tr     *reconcile.Transition
	seq    int

	nodes     map[string]*Element
	links     map[string]*Path
	nodeOrder []string
	linkOrder []string

	stats Stats
}

// NewScene returns an empty scene of the given container size.
func NewScene(width, height float64) *Scene {
	return &Scene{
		width:  width,
		height: height,
		view:   chart.Identity,
		nodes:  make(map[string]*Element),
		links:  make(map[string]*Path),
	}
}

// Size implements chart.Surface.
func (s *Scene) Size() (float64, float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

// SetSize changes the container size. Call chart.Resize afterwards.
func (s *Scene) SetSize(width, height float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width, s.height = width, height
}

// SetTransform implements chart.Surface.
func (s *Scene) SetTransform(t chart.Transform) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = t
}

// Apply implements chart.Surface.
func (s *Scene) Apply(f *chart.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweep()
	s.nodeOrder = s.nodeOrder[:0]
	s.linkOrder = s.linkOrder[:0]

	for _, set := range [][]reconcile.NodeChange{f.Result.Nodes.Enter, f.Result.Nodes.Update} {
		for _, c := range set {
			s.putNode(c, false)
		}
	}
	for _, c := range f.Result.Nodes.Exit {
		if _, ok := s.nodes[c.ID]; ok {
			s.putNode(c, true)
		}
	}
	for _, set := range [][]reconcile.LinkChange{f.Result.Links.Enter, f.Result.Links.Update} {
		for _, c := range set {
			s.putLink(c, false)
		}
	}
	for _, c := range f.Result.Links.Exit {
		if _, ok := s.links[c.ID]; ok {
			s.putLink(c, true)
		}
	}

	s.canvas = f.Canvas
	s.view = f.View
	s.tr = f.Transition
	s.seq = f.Seq
}

func (s *Scene) putNode(c reconcile.NodeChange, exiting bool) {
	if _, ok := s.nodes[c.ID]; ok {
		s.stats.Updated++
	} else {
		s.stats.Created++
	}
	s.nodes[c.ID] = &Element{NodeChange: c, Exiting: exiting}
	s.nodeOrder = append(s.nodeOrder, c.ID)
}

func (s *Scene) putLink(c reconcile.LinkChange, exiting bool) {
	if _, ok := s.links[c.ID]; ok {
		s.stats.Updated++
	} else {
		s.stats.Created++
	}
	s.links[c.ID] = &Path{LinkChange: c, Exiting: exiting}
	s.linkOrder = append(s.linkOrder, c.ID)
}

// sweep removes exiting elements and anything the last frame did not
// mention.
func (s *Scene) sweep() {
	keep := make(map[string]bool, len(s.nodeOrder))
	for _, id := range s.nodeOrder {
		keep[id] = true
	}
	for id, el := range s.nodes {
		if el.Exiting || !keep[id] {
			delete(s.nodes, id)
			s.stats.Removed++
		}
	}
	keep = make(map[string]bool, len(s.linkOrder))
	for _, id := range s.linkOrder {
		keep[id] = true
	}
	for id, p := range s.links {
		if p.Exiting || !keep[id] {
			delete(s.links, id)
			s.stats.Removed++
		}
	}
}

// Settle finishes the running transition: exiting elements are removed and
// the rest are pinned to their end state.
func (s *Scene) Settle() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweep()
	s.nodeOrder = compact(s.nodeOrder, func(id string) bool { _, ok := s.nodes[id]; return ok })
	s.linkOrder = compact(s.linkOrder, func(id string) bool { _, ok := s.links[id]; return ok })
	for _, el := range s.nodes {
		el.From, el.FromOpacity = el.To, el.ToOpacity
	}
	for _, p := range s.links {
		p.FromChild, p.FromParent = p.ToChild, p.ToParent
	}
	if s.tr != nil {
		s.tr.Cancel()
	}
}

// Sample returns every element interpolated at now.
func (s *Scene) Sample(now time.Time) Sample {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := 1.0
	if s.tr != nil {
		p = s.tr.Progress(now)
	}
	out := Sample{Progress: p, Canvas: s.canvas, View: s.view}
	for _, exiting := range []bool{false, true} {
		for _, id := range s.nodeOrder {
			el := s.nodes[id]
			if el == nil || el.Exiting != exiting {
				continue
			}
			out.Nodes = append(out.Nodes, NodeSample{
				ID:      id,
				At:      el.Position(p),
				Opacity: el.Opacity(p),
				Exiting: el.Exiting,
				View:    el.NodeView,
			})
		}
		for _, id := range s.linkOrder {
			l := s.links[id]
			if l == nil || l.Exiting != exiting {
				continue
			}
			out.Links = append(out.Links, LinkSample{
				ID:        id,
				Connector: l.Connector(p),
				Stroke:    l.Stroke,
				Exiting:   l.Exiting,
			})
		}
	}
	return out
}

// Animating reports whether the transition is still running at now.
func (s *Scene) Animating(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tr != nil && !s.tr.Finished(now)
}

// Node returns the retained element of id, exiting or not.
func (s *Scene) Node(id string) (Element, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	el, ok := s.nodes[id]
	if !ok {
		return Element{}, false
	}
	return *el, true
}

// Len returns the number of retained node and link elements.
func (s *Scene) Len() (nodes, links int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.nodes), len(s.links)
}

// Seq returns the sequence number of the last applied frame.
func (s *Scene) Seq() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// Stats returns the element operation counters.
func (s *Scene) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func compact(ids []string, keep func(string) bool) []string {
	out := ids[:0]
	for _, id := range ids {
		if keep(id) {
			out = append(out, id)
		}
	}
	return out
}

var _ chart.Surface = (*Scene)(nil)
