package chart

import (
	"math"
	"time"

	orgerrors "github.com/matzehuels/orgtree/pkg/errors"
	"github.com/matzehuels/orgtree/pkg/geometry"
	"github.com/matzehuels/orgtree/pkg/reconcile"
	"github.com/matzehuels/orgtree/pkg/tree"
)

// ViewState is the session view: pan/zoom and the subtree being shown.
type ViewState struct {
	Transform Transform
	RootID    string
}

// Chart is an interactive org chart bound to one surface.
type Chart struct {
	cfg     Config
	surface Surface

	tree    *tree.Tree
	visuals map[string]geometry.Visual
	rootID  string

	width, height float64
	view          Transform

	prev       reconcile.Snapshot
	frame      *Frame
	transition *reconcile.Transition
	seq        int
}

// New creates a chart drawing on s. A nil surface renders headless. When
// the config carries data it is built and rendered immediately.
func New(cfg Config, s Surface) (*Chart, error) {
	if cfg.clock == nil {
		return nil, orgerrors.New(orgerrors.ErrCodeInvalidConfig, "config was not produced by Builder.Build")
	}
	if s == nil {
		s = nopSurface{}
	}
	c := &Chart{
		cfg:     cfg,
		surface: s,
		width:   cfg.width,
		height:  cfg.height,
		view:    Transform{X: cfg.margins.Left, Y: cfg.margins.Top, Scale: 1},
	}
	if b, ok := s.(Binder); ok {
		b.Bind(c)
	}
	if len(cfg.data) > 0 {
		if err := c.SetData(cfg.data); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// ID returns the chart instance id.
func (c *Chart) ID() string { return c.cfg.id }

// Config returns the chart configuration.
func (c *Chart) Config() Config { return c.cfg }

// SetData replaces the records and renders. On error the previous tree and
// frame are kept.
func (c *Chart) SetData(records []tree.Record) error {
	start := time.Now()
	style := c.cfg.style
	t, err := tree.Build(records, tree.Options{
		NodeSize: func(r tree.Record) (float64, float64) {
			return geometry.NodeSize(r.ID, r.Payload, style)
		},
		HorizontalGap:   c.cfg.hGap,
		LevelGap:        c.cfg.levelGap,
		RequireTemplate: c.cfg.requireTemplate,
	})
	c.cfg.hooks.OnBuild(len(records), time.Since(start), err)
	if err != nil {
		c.cfg.logger.Error("build failed, keeping previous tree", "records", len(records), "err", err)
		return err
	}

	if c.tree == nil {
		tree.InitialCollapse(t.Root)
		tree.ApplyExpandedFlags(t.Root)
	} else {
		t.Inherit(c.tree)
	}
	if c.rootID != "" {
		if err := t.SetViewRoot(c.rootID); err != nil {
			c.cfg.logger.Warn("view root no longer exists, showing full tree", "root", c.rootID)
			c.rootID = ""
		}
	}

	c.tree = t
	c.visuals = make(map[string]geometry.Visual, t.Len())
	for _, n := range t.Nodes() {
		v := geometry.ComputeVisual(geometry.Input{ID: n.ID, Template: n.Template, Payload: n.Payload}, style)
		for _, w := range v.Warnings {
			c.cfg.logger.Warn("style value replaced by default", "node", n.ID, "err", w)
			c.cfg.hooks.OnStyleWarning(n.ID, w)
		}
		c.visuals[n.ID] = v
	}
	c.cfg.logger.Debug("built tree", "nodes", t.Len(), "duration", time.Since(start))

	c.update(ReasonData, t.ViewRoot())
	return nil
}

// Render redraws the current state, anchored at the view root.
func (c *Chart) Render() error {
	if c.tree == nil {
		return orgerrors.New(orgerrors.ErrCodeInvalidInput, "no data")
	}
	c.update(ReasonRender, c.tree.ViewRoot())
	return nil
}

// ToggleNode expands or collapses id and redraws, animating from the node.
func (c *Chart) ToggleNode(id string) (tree.State, error) {
	n, err := c.lookup(id)
	if err != nil {
		return tree.Leaf, err
	}
	if n.State() == tree.Leaf {
		return tree.Leaf, nil
	}
	state := tree.Toggle(n)
	c.cfg.hooks.OnToggle(id, state.String())
	c.cfg.logger.Debug("toggled node", "node", id, "state", state)
	c.update(ReasonToggle, n)
	return state, nil
}

// ExpandSubtree expands id and every node below it in one transition.
// It is a no-op on leaves.
func (c *Chart) ExpandSubtree(id string) error {
	n, err := c.lookup(id)
	if err != nil {
		return err
	}
	if n.State() == tree.Leaf {
		return nil
	}
	tree.ExpandAll(n)
	c.cfg.hooks.OnToggle(id, tree.Expanded.String())
	c.cfg.logger.Debug("expanded subtree", "node", id)
	c.update(ReasonToggle, n)
	return nil
}

// Click dispatches a click from the surface.
func (c *Chart) Click(ev ClickEvent) error {
	if _, err := c.lookup(ev.NodeID); err != nil {
		return err
	}
	if ev.Target == TargetToggle {
		_, err := c.ToggleNode(ev.NodeID)
		return err
	}
	if fn := c.cfg.onNodeClick; fn != nil {
		fn(ev.NodeID)
	}
	return nil
}

// Zoom applies a pan/zoom transform. It replaces the margin offset of the
// chart group.
func (c *Chart) Zoom(t Transform) error {
	if !(t.Scale > 0) || math.IsInf(t.Scale, 0) {
		return orgerrors.New(orgerrors.ErrCodeInvalidInput, "zoom scale %g must be finite and positive", t.Scale)
	}
	if !finite(t.X) || !finite(t.Y) {
		return orgerrors.New(orgerrors.ErrCodeInvalidInput, "zoom offset %g,%g must be finite", t.X, t.Y)
	}
	c.view = t
	c.surface.SetTransform(t)
	return nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// Resize adopts the surface size and redraws.
func (c *Chart) Resize() error {
	w, h := c.surface.Size()
	if w > 0 {
		c.width = w
	}
	if h > 0 {
		c.height = h
	}
	if c.tree == nil {
		return nil
	}
	c.update(ReasonResize, c.tree.ViewRoot())
	return nil
}

// SetRoot shows only the subtree under id; an empty id restores the full
// tree.
func (c *Chart) SetRoot(id string) error {
	if c.tree == nil {
		return orgerrors.New(orgerrors.ErrCodeInvalidInput, "no data")
	}
	if err := c.tree.SetViewRoot(id); err != nil {
		return err
	}
	c.rootID = id
	c.update(ReasonRoot, c.tree.ViewRoot())
	return nil
}

// View returns the session view state.
func (c *Chart) View() ViewState {
	return ViewState{Transform: c.view, RootID: c.rootID}
}

// Visible returns the nodes of the latest frame in pre-order.
func (c *Chart) Visible() []reconcile.NodeView { return c.prev.Nodes }

// Node returns a node of the current tree, visible or not.
func (c *Chart) Node(id string) (*tree.Node, bool) {
	if c.tree == nil {
		return nil, false
	}
	return c.tree.Node(id)
}

// Tree returns the current tree, nil before the first SetData.
func (c *Chart) Tree() *tree.Tree { return c.tree }

// Frame returns the latest frame, nil before the first render.
func (c *Chart) Frame() *Frame { return c.frame }

func (c *Chart) lookup(id string) (*tree.Node, error) {
	if c.tree == nil {
		return nil, orgerrors.New(orgerrors.ErrCodeInvalidInput, "no data")
	}
	n, ok := c.tree.Node(id)
	if !ok {
		return nil, orgerrors.New(orgerrors.ErrCodeNodeNotFound, "node %q not found", id)
	}
	return n, nil
}

func (c *Chart) canvas() Canvas {
	chartWidth := c.width - c.cfg.margins.Left - c.cfg.margins.Right
	return Canvas{
		ChartID:        c.cfg.id,
		Width:          c.width,
		Height:         c.height,
		Margins:        c.cfg.margins,
		Background:     c.cfg.background,
		Font:           c.cfg.style.Font,
		Center:         geometry.Point{X: chartWidth / 2, Y: c.tree.MaxNodeHeight() / 2},
		Zoom:           c.cfg.initialZoom,
		ShadowFilterID: c.cfg.style.ShadowFilterID,
	}
}

// anchor returns the nearest node to n that was drawn in the last frame,
// walking up the ancestors.
func (c *Chart) anchor(n *tree.Node) *tree.Node {
	for m := n; m != nil; m = m.Parent {
		if _, ok := c.prev.Node(m.ID); ok {
			return m
		}
	}
	return n
}

// update lays out, reconciles against the previous frame and hands the
// result to the surface. A transition still running is canceled first.
func (c *Chart) update(reason Reason, origin *tree.Node) {
	if c.transition != nil && !c.transition.Finished(c.cfg.clock()) {
		c.cfg.logger.Debug("superseding running transition", "frame", c.seq)
		c.transition.Cancel()
	}

	origin = c.anchor(origin)
	prior := origin.Previous()
	if !origin.Placed {
		prior = geometry.Point{}
	}
	c.tree.Layout()

	next := reconcile.Capture(c.tree, func(n *tree.Node) geometry.Visual { return c.visuals[n.ID] })
	res := reconcile.Reconcile(c.prev, next, reconcile.Origin{Prior: prior, Current: origin.Position()})
	tr := reconcile.NewTransition(c.cfg.clock(), c.cfg.duration, reconcile.CubicInOut)

	c.seq++
	f := &Frame{
		Seq:        c.seq,
		Reason:     reason,
		Canvas:     c.canvas(),
		View:       c.view,
		Result:     res,
		Target:     next,
		Transition: tr,
	}
	c.cfg.hooks.OnFrame(len(res.Nodes.Enter), len(res.Nodes.Update), len(res.Nodes.Exit))
	c.cfg.logger.Debug("frame",
		"seq", f.Seq,
		"reason", reason,
		"enter", len(res.Nodes.Enter),
		"update", len(res.Nodes.Update),
		"exit", len(res.Nodes.Exit),
	)

	c.surface.Apply(f)

	c.tree.Settle()
	c.prev = next
	c.frame = f
	c.transition = tr
}

var _ EventSink = (*Chart)(nil)
