// Package render provides the drawing surfaces for org charts.
//
// # Overview
//
// A [chart.Chart] pushes one [chart.Frame] per state change to its surface.
// This package holds the surfaces that keep state between frames:
//
//   - [Scene]: a retained element model keyed by node and link ID. It
//     creates, updates and removes elements as frames arrive and samples
//     the running transition at any instant.
//   - [Recorder]: a surface that keeps every frame and transform it was
//     handed, and can feed clicks back into the chart.
//
// Stateless output formats live in subpackages:
//
//   - [sink]: animated SVG and static PNG of a frame
//   - [nodelink]: Graphviz DOT of the visible tree
//
// # Sampling
//
// A scene interpolates every element with the frame's transition:
//
//	scene := render.NewScene(1200, 800)
//	c, _ := chart.New(cfg, scene)
//	c.SetData(records)
//	for _, n := range scene.Sample(time.Now()).Nodes {
//	    fmt.Println(n.ID, n.At, n.Opacity)
//	}
//
// When a frame arrives while the previous one is still animating, elements
// that were on their way out are removed at once and the new frame starts
// from its own start positions.
//
// [sink]: github.com/matzehuels/orgtree/pkg/render/sink
// [nodelink]: github.com/matzehuels/orgtree/pkg/render/nodelink
package render
