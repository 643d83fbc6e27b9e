package tree

import (
	"errors"

	orgerrors "github.com/matzehuels/orgtree/pkg/errors"
	"github.com/matzehuels/orgtree/pkg/geometry"
)

var (
	// ErrEmptyID is returned when a record has an empty ID.
	ErrEmptyID = errors.New("record ID must not be empty")

	// ErrDuplicateID is returned when two records share an ID.
	ErrDuplicateID = errors.New("duplicate record ID")

	// ErrUnknownParent is returned when a ParentID names no record.
	ErrUnknownParent = errors.New("unknown parent")

	// ErrNoRoot is returned when every record has a parent, including the
	// empty input.
	ErrNoRoot = errors.New("no root record")

	// ErrMultipleRoots is returned when more than one record has no parent.
	ErrMultipleRoots = errors.New("multiple root records")

	// ErrCycle is returned when following parents from a record never
	// reaches the root.
	ErrCycle = errors.New("parent chain contains a cycle")

	// ErrMissingTemplate is returned when [Options.RequireTemplate] is set
	// and a record has no template.
	ErrMissingTemplate = errors.New("record has no template")
)

// Default gaps between node boxes.
const (
	DefaultHorizontalGap = 100.0
	DefaultLevelGap      = 100.0
)

// Record is one input row. An empty ParentID marks the root.
type Record struct {
	ID       string
	ParentID string
	Template string
	Expanded bool
	Payload  map[string]any
}

// Options controls how records are turned into a tree.
type Options struct {
	// NodeSize returns the box size of a record. Nil uses the card default.
	NodeSize func(Record) (w, h float64)
	// HorizontalGap is added to the widest node to get the slot pitch.
	// Zero or less selects DefaultHorizontalGap.
	HorizontalGap float64
	// LevelGap is added to the tallest node to get the row pitch.
	// Zero or less selects DefaultLevelGap.
	LevelGap float64
	// RequireTemplate fails the build for records without a template.
	RequireTemplate bool
}

func (o Options) withDefaults() Options {
	if o.NodeSize == nil {
		style := geometry.DefaultStyle()
		o.NodeSize = func(r Record) (float64, float64) {
			return geometry.NodeSize(r.ID, r.Payload, style)
		}
	}
	if o.HorizontalGap <= 0 {
		o.HorizontalGap = DefaultHorizontalGap
	}
	if o.LevelGap <= 0 {
		o.LevelGap = DefaultLevelGap
	}
	return o
}

// Node is a record placed in the tree.
//
// X and Y are the centre of the node box from the last [Tree.Layout];
// PrevX and PrevY are where the node was last drawn.
type Node struct {
	Record

	Parent *Node
	Depth  int

	X, Y         float64
	PrevX, PrevY float64
	// Placed is false until the node has been drawn once.
	Placed bool

	Width, Height float64

	DirectCount int
	TotalCount  int

	kids      []*Node
	collapsed bool
}

// Children returns the visible children, or nil when collapsed.
func (n *Node) Children() []*Node {
	if n.collapsed {
		return nil
	}
	return n.kids
}

// HiddenChildren returns the children hidden by a collapse, or nil.
func (n *Node) HiddenChildren() []*Node {
	if !n.collapsed {
		return nil
	}
	return n.kids
}

// AllChildren returns the children regardless of visibility.
func (n *Node) AllChildren() []*Node { return n.kids }

// State returns the node's collapse state.
func (n *Node) State() State { return Classify(n) }

// Position is the laid out centre of the node.
func (n *Node) Position() geometry.Point { return geometry.Point{X: n.X, Y: n.Y} }

// Previous is the last drawn centre of the node.
func (n *Node) Previous() geometry.Point { return geometry.Point{X: n.PrevX, Y: n.PrevY} }

// Tree is a validated, linked record set.
//
// A Tree is not safe for concurrent use.
type Tree struct {
	Root *Node
	top  *Node

	nodes map[string]*Node
	order []*Node
	opts  Options

	pitchX, pitchY float64
}

// Build validates records and links them into a tree. The returned tree is
// laid out with every node expanded; apply [InitialCollapse] or
// [ApplyExpandedFlags] and call [Tree.Layout] to get a first view.
func Build(records []Record, opts Options) (*Tree, error) {
	opts = opts.withDefaults()

	t := &Tree{
		nodes: make(map[string]*Node, len(records)),
		order: make([]*Node, 0, len(records)),
		opts:  opts,
	}

	for i := range records {
		r := records[i]
		if r.ID == "" {
			return nil, malformed(ErrEmptyID, "record %d", i)
		}
		if _, dup := t.nodes[r.ID]; dup {
			return nil, malformed(ErrDuplicateID, "record %q", r.ID)
		}
		if opts.RequireTemplate && r.Template == "" {
			return nil, orgerrors.Wrap(orgerrors.ErrCodeMissingTemplate, ErrMissingTemplate, "record %q", r.ID)
		}
		n := &Node{Record: r}
		t.nodes[r.ID] = n
		t.order = append(t.order, n)
	}

	for _, n := range t.order {
		if n.ParentID == "" {
			if t.Root != nil {
				return nil, malformed(ErrMultipleRoots, "records %q and %q", t.Root.ID, n.ID)
			}
			t.Root = n
			continue
		}
		p, ok := t.nodes[n.ParentID]
		if !ok {
			return nil, malformed(ErrUnknownParent, "record %q references %q", n.ID, n.ParentID)
		}
		n.Parent = p
		p.kids = append(p.kids, n)
	}
	if t.Root == nil {
		return nil, malformed(ErrNoRoot, "%d records", len(records))
	}
	if err := t.checkReachable(); err != nil {
		return nil, err
	}

	t.top = t.Root
	t.assignDepths()
	t.count(t.Root)
	t.measure()
	t.Layout()
	return t, nil
}

func malformed(reason error, format string, args ...any) error {
	return orgerrors.Wrap(orgerrors.ErrCodeMalformedTree, reason, format, args...)
}

// checkReachable verifies that every parent chain ends at the root. Chains
// are walked at most len(nodes) steps; nodes already proven to reach the
// root end a walk early.
func (t *Tree) checkReachable() error {
	reaches := make(map[*Node]bool, len(t.nodes))
	reaches[t.Root] = true
	limit := len(t.order)

	for _, start := range t.order {
		var path []*Node
		n := start
		for steps := 0; !reaches[n]; steps++ {
			if steps > limit || n.Parent == nil {
				return malformed(ErrCycle, "record %q", start.ID)
			}
			path = append(path, n)
			n = n.Parent
		}
		for _, p := range path {
			reaches[p] = true
		}
	}
	return nil
}

func (t *Tree) assignDepths() {
	queue := []*Node{t.Root}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, c := range n.kids {
			c.Depth = n.Depth + 1
			queue = append(queue, c)
		}
	}
}

func (t *Tree) count(n *Node) int {
	n.DirectCount = len(n.kids)
	total := 0
	for _, c := range n.kids {
		total += 1 + t.count(c)
	}
	n.TotalCount = total
	return total
}

func (t *Tree) measure() {
	var maxW, maxH float64
	for _, n := range t.order {
		n.Width, n.Height = t.opts.NodeSize(n.Record)
		maxW = max(maxW, n.Width)
		maxH = max(maxH, n.Height)
	}
	t.pitchX = maxW + t.opts.HorizontalGap
	t.pitchY = maxH + t.opts.LevelGap
}

// Len returns the number of nodes.
func (t *Tree) Len() int { return len(t.order) }

// Node returns the node with the given ID.
func (t *Tree) Node(id string) (*Node, bool) {
	n, ok := t.nodes[id]
	return n, ok
}

// Nodes returns every node in input order.
func (t *Tree) Nodes() []*Node { return t.order }

// Pitch returns the slot and row pitch used by the layout.
func (t *Tree) Pitch() (x, y float64) { return t.pitchX, t.pitchY }

// MaxNodeHeight is the tallest node box.
func (t *Tree) MaxNodeHeight() float64 { return t.pitchY - t.opts.LevelGap }

// ViewRoot returns the node the view starts from, the root unless
// [Tree.SetViewRoot] picked another one.
func (t *Tree) ViewRoot() *Node { return t.top }

// SetViewRoot shows only the subtree under id. An empty id restores the
// full tree. Collapse state is unaffected.
func (t *Tree) SetViewRoot(id string) error {
	if id == "" {
		t.top = t.Root
		return nil
	}
	n, ok := t.nodes[id]
	if !ok {
		return orgerrors.New(orgerrors.ErrCodeNodeNotFound, "node %q not found", id)
	}
	t.top = n
	return nil
}

// Visible returns the nodes reachable from the view root through visible
// children, in depth-first pre-order.
func (t *Tree) Visible() []*Node {
	var out []*Node
	var walk func(*Node)
	walk = func(n *Node) {
		out = append(out, n)
		for _, c := range n.Children() {
			walk(c)
		}
	}
	walk(t.top)
	return out
}

// Link is the connector from a visible child to its parent.
type Link struct {
	Child, Parent *Node
}

// ID keys a link by its child.
func (l Link) ID() string { return l.Child.ID }

// Links returns the links between visible nodes, in the order of
// [Tree.Visible].
func (t *Tree) Links() []Link {
	var out []Link
	for _, n := range t.Visible() {
		if n != t.top {
			out = append(out, Link{Child: n, Parent: n.Parent})
		}
	}
	return out
}

// Walk calls fn for n and all its descendants, hidden or not, in pre-order.
func Walk(n *Node, fn func(*Node)) {
	fn(n)
	for _, c := range n.kids {
		Walk(c, fn)
	}
}

// Ancestors returns the chain from n's parent up to the root.
func (n *Node) Ancestors() []*Node {
	var out []*Node
	for p := n.Parent; p != nil; p = p.Parent {
		out = append(out, p)
	}
	return out
}

// Records returns the records the tree was built from, in input order.
func (t *Tree) Records() []Record {
	out := make([]Record, len(t.order))
	for i, n := range t.order {
		out[i] = n.Record
	}
	return out
}
