// Package sink provides output format renderers for chart frames.
//
// # Overview
//
// A "sink" turns a [chart.Frame] into a final output format:
//
//   - SVG: the node cards, connectors and toggle buttons, optionally with
//     SMIL animations replaying the frame's transition and a script that
//     posts clicks back to a preview server
//   - PNG: a static raster of the frame's end state
//
// # SVG Output
//
//	svg, err := sink.RenderSVG(frame,
//	    sink.WithAnimation(),
//	    sink.WithInteraction("/api"),
//	)
//
// Without [WithAnimation] the frame's end state is drawn. [WithFit] sizes
// the document to the tree instead of the chart container.
//
// # PNG Output
//
//	png, err := sink.RenderPNG(frame, sink.WithScale(2))
//
// Node images and icons are not fetched; their placeholders are drawn with
// the configured border.
package sink
