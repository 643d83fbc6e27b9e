// Package graph provides the serialization format for rendered org chart
// layouts.
//
// This package defines the wire format of a chart's visible state, used for
// JSON files, the preview server API, the artifact cache and external tools
// that want to draw the chart themselves.
//
// # Architecture
//
// The package sits at the serialization boundary:
//
//   - [Layout]: serialization type (this package)
//   - pkg/chart.Frame: the in-memory frame a chart hands its surface
//
// Use [Export] to turn the latest frame into a Layout.
//
// # Format
//
//	{
//	  "version": 1,
//	  "chart_id": "orgtree-…",
//	  "width": 800, "height": 600,
//	  "nodes": [{"id": "O-1", "x": 0, "y": 0, "width": 324, "height": 132, "state": "expanded", …}],
//	  "links": [{"id": "A", "parent": "O-1", "path": "M 0 232 L …", …}]
//	}
//
// Node coordinates are card centres in chart space; the view transform and
// the centre offset map them into the container. A link is keyed by its
// child node and carries the finished connector path.
//
// Common operations:
//
//	l := graph.Export(c.Frame(), c.View())
//	data, _ := graph.MarshalLayout(l)
//	parsed, _ := graph.UnmarshalLayout(data)
//	graph.WriteLayoutFile(l, "layout.json")
//
// # Concurrency
//
// All functions are safe for concurrent reads but not concurrent writes.
package graph
