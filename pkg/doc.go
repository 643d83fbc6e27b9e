// Package pkg provides the core libraries for orgtree, an interactive org
// chart engine.
//
// # Overview
//
// orgtree turns a flat list of records with parent references into an
// expandable, collapsible and zoomable tree chart. Every state change is
// reconciled against the previous drawing so surfaces can animate nodes in,
// out and between positions. The pkg directory is organized into four areas:
//
//  1. Engine - [tree], [geometry], [reconcile] and [chart]
//  2. Rendering - [render] and its [render/sink] and [render/nodelink]
//     subpackages
//  3. Data - [io] for record files, [graph] for exported layouts, [config]
//     for the TOML config file
//  4. Infrastructure - [pipeline], [cache], [observability], [errors]
//
// # Architecture
//
// The data flow through orgtree:
//
//	JSON / YAML records
//	         ↓
//	    [io] package (decode records)
//	         ↓
//	    [tree] package (build, collapse state, slot layout)
//	         ↓
//	    [geometry] package (card style, image, connector paths)
//	         ↓
//	    [reconcile] package (enter / update / exit against the last frame)
//	         ↓
//	    [chart] package (frames handed to a Surface)
//	         ↓
//	    SVG / PNG / DOT / JSON output, preview server, terminal UI
//
// # Quick Start
//
// Build a chart and render the current state:
//
//	records, _ := io.ImportRecords("org.yaml")
//	cfg, _ := chart.NewBuilder().Width(1200).Data(records).Build()
//	c, _ := chart.New(cfg, nil)
//	c.ToggleNode("O-2")
//	svg, _ := sink.RenderSVG(c.Frame(), sink.WithAnimation())
//
// Or run the whole pipeline with caching:
//
//	runner := pipeline.NewRunner(nil, nil, logger)
//	res, _ := runner.Execute(ctx, pipeline.Options{Input: "org.yaml", Formats: []string{"svg", "json"}})
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...          # All tests
//	go test ./pkg/tree/...     # Specific package
//	go test -run Example ./... # Examples only
//
// [tree]: https://pkg.go.dev/github.com/matzehuels/orgtree/pkg/tree
// [geometry]: https://pkg.go.dev/github.com/matzehuels/orgtree/pkg/geometry
// [reconcile]: https://pkg.go.dev/github.com/matzehuels/orgtree/pkg/reconcile
// [chart]: https://pkg.go.dev/github.com/matzehuels/orgtree/pkg/chart
// [render]: https://pkg.go.dev/github.com/matzehuels/orgtree/pkg/render
// [render/sink]: https://pkg.go.dev/github.com/matzehuels/orgtree/pkg/render/sink
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/orgtree/pkg/render/nodelink
// [io]: https://pkg.go.dev/github.com/matzehuels/orgtree/pkg/io
// [graph]: https://pkg.go.dev/github.com/matzehuels/orgtree/pkg/graph
// [config]: https://pkg.go.dev/github.com/matzehuels/orgtree/pkg/config
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/orgtree/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/orgtree/pkg/cache
// [observability]: https://pkg.go.dev/github.com/matzehuels/orgtree/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/orgtree/pkg/errors
package pkg
