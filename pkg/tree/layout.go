package tree

// Layout positions the visible nodes with the view root at the origin.
// Hidden nodes keep their last position.
func (t *Tree) Layout() {
	slots := make(map[*Node]float64)
	next := 0.0

	var place func(n *Node)
	place = func(n *Node) {
		kids := n.Children()
		if len(kids) == 0 {
			slots[n] = next
			next++
			return
		}
		for _, c := range kids {
			place(c)
		}
		slots[n] = (slots[kids[0]] + slots[kids[len(kids)-1]]) / 2
	}
	place(t.top)

	origin := slots[t.top]
	for n, s := range slots {
		n.X = (s - origin) * t.pitchX
		n.Y = float64(n.Depth-t.top.Depth) * t.pitchY
	}
}

// Settle records the current position of every visible node as its
// previous position. Call it once a frame has been drawn.
func (t *Tree) Settle() {
	for _, n := range t.Visible() {
		n.PrevX, n.PrevY = n.X, n.Y
		n.Placed = true
	}
}

// Bounds returns the box enclosing the visible nodes.
func (t *Tree) Bounds() (minX, minY, maxX, maxY float64) {
	first := true
	for _, n := range t.Visible() {
		l, r := n.X-n.Width/2, n.X+n.Width/2
		top, bot := n.Y-n.Height/2, n.Y+n.Height/2
		if first {
			minX, minY, maxX, maxY = l, top, r, bot
			first = false
			continue
		}
		minX, minY = min(minX, l), min(minY, top)
		maxX, maxY = max(maxX, r), max(maxY, bot)
	}
	return minX, minY, maxX, maxY
}
