// Package nodelink renders the visible part of an org chart as a
// traditional node-link diagram.
//
// # Overview
//
// This package produces directed graph visualizations using Graphviz, where
// nodes appear as boxes connected by arrows from manager to report. It is a
// quick structural view next to the card rendering of package sink.
//
// # Usage
//
// Convert a frame's visible snapshot to DOT format, then render:
//
//	dot := nodelink.ToDOT(frame.Target, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(dot)
//	png, err := nodelink.RenderPNG(dot)
//
// # Options
//
//   - Detailed: node labels include the subsidiary counters and the
//     expand/collapse state
//
// Collapsed nodes are drawn with a dashed outline so hidden subtrees stand
// out; node fill and border follow the card colours.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG and
// PNG rendering.
package nodelink
