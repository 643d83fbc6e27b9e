// Package tree builds a rooted, laid out org tree from flat parent-referencing
// records and holds its expand/collapse state.
//
// # Building
//
// [Build] validates a record list and links it into a [Tree]:
//
//   - every record has a non-empty, unique ID
//   - every ParentID refers to an existing record
//   - exactly one record has no parent (the root)
//   - following parents from any record reaches the root
//
// Violations fail the whole build with a MALFORMED_TREE error that wraps one of
// the sentinel reasons ([ErrNoRoot], [ErrMultipleRoots], [ErrUnknownParent],
// [ErrCycle], [ErrDuplicateID], [ErrEmptyID]). A build never returns a partial
// tree. Cycle detection walks parent chains with a step bound, so it terminates
// on any input.
//
// Children keep the order in which their records appear in the input, and
// subsidiary counts are computed once per build:
//
//	DirectCount  number of child records
//	TotalCount   number of descendants, excluding the node itself
//
// # Layout
//
// [Tree.Layout] positions the visible nodes on a uniform grid. Every visible
// leaf (including collapsed nodes) takes the next horizontal slot in
// depth-first order and a parent is centred over its first and last visible
// child. The slot pitch is the widest node plus [Options.HorizontalGap]; the
// row pitch is the tallest node plus [Options.LevelGap]. The view root sits at x=0,
// y=0 and y grows with depth. Adjacent centres on the same row are therefore
// at least one pitch apart, so sibling boxes never overlap.
//
// [Tree.SetViewRoot] narrows the view to one subtree. Layout, [Tree.Visible]
// and [Tree.Links] then start from that node.
//
// # Collapse State
//
// Every node is in one of three states ([Leaf], [Expanded], [Collapsed]). A
// node stores its children once and a single flag decides whether they are
// visible ([Node.Children]) or hidden ([Node.HiddenChildren]), so the two lists
// can never both be non-empty. [Toggle] flips the flag and is a no-op on
// leaves; [InitialCollapse] and [ApplyExpandedFlags] set up the first view.
package tree
