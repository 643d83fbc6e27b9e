// Package geometry computes everything about a chart node that can be derived
// without looking at the rest of the tree.
//
// # Overview
//
// The package holds pure functions only:
//
//   - [ComputeVisual] resolves a node's payload against the chart's [Style]
//     defaults and returns a [Visual]: box size, border and background colours,
//     image placement, corner radius, icon placement, connector stroke and the
//     shadow filter reference.
//   - [NewConnector] builds the rounded elbow connector between two points;
//     [Connector.Path] renders it as SVG path data and [Connector.Trace] replays
//     it on any raster context with MoveTo/LineTo/CubicTo.
//   - [Color] converts {red,green,blue,alpha} tuples to CSS rgba() strings.
//
// # Style Resolution
//
// Payload fields are decoded with mapstructure into pointer fields, so a field
// that is absent falls back to the default while an explicit zero is kept.
// Two zero values are treated as unset, matching the card renderer: a border
// width of zero falls back to [Style.StrokeWidth], and a connector width of
// zero falls back to 2.
//
// Values that cannot be decoded or enum values that are not recognised never
// fail a build. The default is substituted and the problem is recorded in
// [Visual.Warnings] as an INVALID_STYLE_VALUE error.
//
// # Corner Shapes
//
//	circle   radius = max(imageWidth, imageHeight)
//	rounded  radius = min(imageWidth, imageHeight) / 6
//	square   radius = 0
//
// Matching is case-insensitive. Any other value is reported and drawn square.
package geometry
