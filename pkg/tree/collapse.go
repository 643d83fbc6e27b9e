package tree

// State is the collapse state of a node.
type State int

const (
	// Leaf nodes have no children and cannot be toggled.
	Leaf State = iota
	// Expanded nodes show their children.
	Expanded
	// Collapsed nodes hide their children.
	Collapsed
)

func (s State) String() string {
	switch s {
	case Leaf:
		return "leaf"
	case Expanded:
		return "expanded"
	case Collapsed:
		return "collapsed"
	default:
		return "unknown"
	}
}

// Classify returns the state of n without modifying it.
func Classify(n *Node) State {
	switch {
	case len(n.kids) == 0:
		return Leaf
	case n.collapsed:
		return Collapsed
	default:
		return Expanded
	}
}

// Toggle flips n between expanded and collapsed and returns the new state.
// Leaves are left alone.
func Toggle(n *Node) State {
	if len(n.kids) > 0 {
		n.collapsed = !n.collapsed
	}
	return Classify(n)
}

// Expand shows n's children.
func Expand(n *Node) { n.collapsed = false }

// Collapse hides n's children. It is a no-op on leaves.
func Collapse(n *Node) {
	if len(n.kids) > 0 {
		n.collapsed = true
	}
}

// InitialCollapse collapses every node below the root. The root stays
// expanded so its direct children are visible.
func InitialCollapse(root *Node) {
	Expand(root)
	for _, c := range root.kids {
		Walk(c, Collapse)
	}
}

// ExpandAll expands every node under root.
func ExpandAll(root *Node) { Walk(root, Expand) }

// ApplyExpandedFlags expands every node whose record is flagged Expanded,
// together with all of its ancestors.
func ApplyExpandedFlags(root *Node) {
	Walk(root, func(n *Node) {
		if !n.Expanded {
			return
		}
		Expand(n)
		for _, a := range n.Ancestors() {
			Expand(a)
		}
	})
}

// Inherit carries view state from a previous build of the same data.
// Nodes present in prev keep their collapse state and drawn position. New
// nodes, and former leaves that gained children, start collapsed unless
// flagged. A flagged node of either kind expands its ancestors as well.
func (t *Tree) Inherit(prev *Tree) {
	if prev == nil {
		return
	}
	var fresh []*Node
	for _, n := range t.order {
		old, ok := prev.nodes[n.ID]
		if !ok {
			Collapse(n)
			fresh = append(fresh, n)
			continue
		}
		n.PrevX, n.PrevY, n.Placed = old.PrevX, old.PrevY, old.Placed
		if len(old.kids) == 0 && len(n.kids) > 0 {
			// A former leaf that gained children opens like a new node.
			Collapse(n)
			fresh = append(fresh, n)
			continue
		}
		n.collapsed = old.collapsed && len(n.kids) > 0
	}
	for _, n := range fresh {
		if n == t.Root {
			Expand(n)
		}
		if !n.Expanded {
			continue
		}
		Expand(n)
		for _, a := range n.Ancestors() {
			Expand(a)
		}
	}
}
