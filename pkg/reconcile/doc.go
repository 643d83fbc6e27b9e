// Package reconcile diffs two consecutive views of a chart and describes the
// animation between them.
//
// A view is a [Snapshot]: the visible nodes and links with their target
// positions. [Reconcile] keys both snapshots by ID and sorts every element into
// exactly one of three sets:
//
//	enter   in the new snapshot only; starts at Origin.Prior, fades in
//	update  in both; moves from its old position to its new one
//	exit    in the old snapshot only; moves to Origin.Current, fades out
//
// The [Origin] is the interaction point: for a toggle it is the toggled node,
// Prior being where it was drawn and Current where the new layout puts it.
// Entering links start as a zero-length connector at Origin.Prior and exiting
// links shrink into Origin.Current.
//
// Reconcile works on logical positions only. Interrupting a running
// [Transition] and reconciling again starts from where the last snapshot put
// each element, never from a half-way visual state.
package reconcile
