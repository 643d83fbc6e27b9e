package reconcile

import (
	"github.com/matzehuels/orgtree/pkg/geometry"
	"github.com/matzehuels/orgtree/pkg/tree"
)

// NodeView is a visible node at its target position.
type NodeView struct {
	ID          string
	At          geometry.Point
	Visual      geometry.Visual
	State       tree.State
	DirectCount int
	TotalCount  int
}

// LinkView is a visible connector, keyed by its child.
type LinkView struct {
	ID       string
	ParentID string
	Child    geometry.Point
	Parent   geometry.Point
	Stroke   geometry.Stroke
}

// Snapshot is everything visible in one frame.
type Snapshot struct {
	Nodes []NodeView
	Links []LinkView
}

// Node returns the view of id.
func (s Snapshot) Node(id string) (NodeView, bool) {
	for _, n := range s.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return NodeView{}, false
}

// Capture takes a snapshot of the visible part of t. visual resolves the
// drawable attributes of a node.
func Capture(t *tree.Tree, visual func(*tree.Node) geometry.Visual) Snapshot {
	visible := t.Visible()
	s := Snapshot{Nodes: make([]NodeView, 0, len(visible))}
	strokes := make(map[string]geometry.Stroke, len(visible))

	for _, n := range visible {
		v := visual(n)
		strokes[n.ID] = v.Link
		s.Nodes = append(s.Nodes, NodeView{
			ID:          n.ID,
			At:          n.Position(),
			Visual:      v,
			State:       n.State(),
			DirectCount: n.DirectCount,
			TotalCount:  n.TotalCount,
		})
	}
	for _, l := range t.Links() {
		s.Links = append(s.Links, LinkView{
			ID:       l.ID(),
			ParentID: l.Parent.ID,
			Child:    l.Child.Position(),
			Parent:   l.Parent.Position(),
			Stroke:   strokes[l.Child.ID],
		})
	}
	return s
}

// Origin anchors entering and exiting elements.
type Origin struct {
	// Prior is where the origin node was drawn before the change.
	Prior geometry.Point
	// Current is where the origin node is laid out now.
	Current geometry.Point
}

// NodeChange animates one node.
type NodeChange struct {
	NodeView
	From, To               geometry.Point
	FromOpacity, ToOpacity float64
}

// Position returns the node centre at eased progress p.
func (c NodeChange) Position(p float64) geometry.Point { return geometry.Lerp(c.From, c.To, p) }

// Opacity returns the node opacity at eased progress p.
func (c NodeChange) Opacity(p float64) float64 {
	return c.FromOpacity + (c.ToOpacity-c.FromOpacity)*p
}

// LinkChange animates one connector.
type LinkChange struct {
	ID                    string
	Stroke                geometry.Stroke
	FromChild, FromParent geometry.Point
	ToChild, ToParent     geometry.Point
}

// Connector returns the connector at eased progress p.
func (c LinkChange) Connector(p float64) geometry.Connector {
	return geometry.NewConnector(
		geometry.Lerp(c.FromChild, c.ToChild, p),
		geometry.Lerp(c.FromParent, c.ToParent, p),
	)
}

// Path returns the connector path data at eased progress p.
func (c LinkChange) Path(p float64) string { return c.Connector(p).Path() }

// Result is the diff between two snapshots.
type Result struct {
	Nodes  Changes[NodeChange]
	Links  Changes[LinkChange]
	Origin Origin
}

// Reconcile diffs prev against next.
func Reconcile(prev, next Snapshot, origin Origin) Result {
	res := Result{Origin: origin}

	oldNodes := make(map[string]NodeView, len(prev.Nodes))
	for _, n := range prev.Nodes {
		oldNodes[n.ID] = n
	}
	nodes := Partition(prev.Nodes, next.Nodes, func(n NodeView) string { return n.ID })
	for _, n := range nodes.Enter {
		res.Nodes.Enter = append(res.Nodes.Enter, NodeChange{
			NodeView: n, From: origin.Prior, To: n.At, FromOpacity: 0, ToOpacity: 1,
		})
	}
	for _, n := range nodes.Update {
		res.Nodes.Update = append(res.Nodes.Update, NodeChange{
			NodeView: n, From: oldNodes[n.ID].At, To: n.At, FromOpacity: 1, ToOpacity: 1,
		})
	}
	for _, n := range nodes.Exit {
		res.Nodes.Exit = append(res.Nodes.Exit, NodeChange{
			NodeView: n, From: n.At, To: origin.Current, FromOpacity: 1, ToOpacity: 0,
		})
	}

	oldLinks := make(map[string]LinkView, len(prev.Links))
	for _, l := range prev.Links {
		oldLinks[l.ID] = l
	}
	links := Partition(prev.Links, next.Links, func(l LinkView) string { return l.ID })
	for _, l := range links.Enter {
		res.Links.Enter = append(res.Links.Enter, LinkChange{
			ID: l.ID, Stroke: l.Stroke,
			FromChild: origin.Prior, FromParent: origin.Prior,
			ToChild: l.Child, ToParent: l.Parent,
		})
	}
	for _, l := range links.Update {
		old := oldLinks[l.ID]
		res.Links.Update = append(res.Links.Update, LinkChange{
			ID: l.ID, Stroke: l.Stroke,
			FromChild: old.Child, FromParent: old.Parent,
			ToChild: l.Child, ToParent: l.Parent,
		})
	}
	for _, l := range links.Exit {
		res.Links.Exit = append(res.Links.Exit, LinkChange{
			ID: l.ID, Stroke: l.Stroke,
			FromChild: l.Child, FromParent: l.Parent,
			ToChild: origin.Current, ToParent: origin.Current,
		})
	}
	return res
}
