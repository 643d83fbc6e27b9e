package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/matzehuels/orgtree/pkg/geometry"
	"github.com/matzehuels/orgtree/pkg/reconcile"
	"github.com/matzehuels/orgtree/pkg/tree"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed includes counters and state in node labels.
	// When false, only the node ID is shown.
	Detailed bool
}

// ToDOT converts the visible nodes and links of a snapshot to Graphviz DOT
// format. Nodes keep their pre-order so sibling order survives layout.
func ToDOT(s reconcile.Snapshot, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=24, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [arrowhead=none];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, n := range s.Nodes {
		label := fmtLabel(n, opts.Detailed)
		attrs := fmtAttrs(n, label)
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, l := range s.Links {
		fmt.Fprintf(&buf, "  %q -> %q;\n", l.ParentID, l.ID)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n reconcile.NodeView, detailed bool) string {
	if !detailed {
		return n.ID
	}
	parts := []string{
		fmt.Sprintf("direct: %d", n.DirectCount),
		fmt.Sprintf("total: %d", n.TotalCount),
	}
	if n.State != tree.Leaf {
		parts = append(parts, n.State.String())
	}
	return n.ID + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(n reconcile.NodeView, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if c, ok := hexColor(n.Visual.Background); ok {
		attrs = append(attrs, fmt.Sprintf("fillcolor=%q", c))
	}
	if c, ok := hexColor(n.Visual.BorderColor); ok {
		attrs = append(attrs, fmt.Sprintf("color=%q", c))
	}
	if n.State == tree.Collapsed {
		attrs = append(attrs, "style=\"rounded,filled,dashed\"")
	}
	return attrs
}

// hexColor converts a CSS colour to the #rrggbb form Graphviz accepts.
// Alpha is dropped.
func hexColor(css string) (string, bool) {
	r, g, b, a, err := geometry.ParseCSSColor(css)
	if err != nil || a == 0 {
		return "", false
	}
	return colorful.Color{R: r, G: g, B: b}.Clamped().Hex(), true
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	out, err := render(dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(out), nil
}

// RenderPNG renders a DOT graph to PNG using Graphviz.
func RenderPNG(dot string) ([]byte, error) {
	return render(dot, graphviz.PNG)
}

func render(dot string, format graphviz.Format) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces the Graphviz root element with one whose
// viewBox starts at the origin and whose size matches it.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
