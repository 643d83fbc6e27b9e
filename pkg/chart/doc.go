// Package chart drives an interactive org chart: it owns the tree, the view
// state and the previous frame, and pushes reconciled frames to a [Surface].
//
// # Lifecycle
//
//	cfg, err := chart.NewBuilder().
//	    Width(1200).Height(800).
//	    OnNodeClick(func(id string) { fmt.Println("clicked", id) }).
//	    Build()
//	c, err := chart.New(cfg, svgSurface)
//	err = c.SetData(records)        // first build collapses below the root
//	state, err := c.ToggleNode("A") // animated from A's position
//
// Every state change lays the tree out again, diffs the visible nodes and
// links against the last frame with package reconcile, and hands the surface
// one [Frame]. A frame carries a single [reconcile.Transition]; a newer frame
// cancels the one in flight and starts from the logical state of the last
// frame, so surfaces may drop exits that have not finished.
//
// # Data Updates
//
// The first successful SetData applies the initial collapse and then the
// records' expanded flags. Later calls keep the expand/collapse state of every
// node ID that survives; new nodes start collapsed unless flagged. A failing
// build leaves the previous tree, view and frame untouched.
//
// # Events
//
// Surfaces that can deliver input implement [Binder] and receive the chart as
// an [EventSink]. A click on a node's toggle control toggles it and never
// reaches the node click callback; a click anywhere else on the node does.
//
// A Chart is not safe for concurrent use.
package chart
