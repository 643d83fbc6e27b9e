package pipeline

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/orgtree/pkg/chart"
	orgerrors "github.com/matzehuels/orgtree/pkg/errors"
	"github.com/matzehuels/orgtree/pkg/graph"
	"github.com/matzehuels/orgtree/pkg/render/nodelink"
	"github.com/matzehuels/orgtree/pkg/render/sink"
)

// Render produces the requested formats from a frame concurrently.
func Render(ctx context.Context, f *chart.Frame, view chart.ViewState, opts Options) (map[string][]byte, error) {
	return renderFormats(ctx, f, view, opts, opts.Formats)
}

func renderFormats(ctx context.Context, f *chart.Frame, view chart.ViewState, opts Options, formats []string) (map[string][]byte, error) {
	if f == nil {
		return nil, orgerrors.New(orgerrors.ErrCodeInvalidInput, "nothing to render: chart has no frame")
	}

	var (
		mu        sync.Mutex
		artifacts = make(map[string][]byte, len(formats))
	)
	g, ctx := errgroup.WithContext(ctx)
	for _, format := range formats {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := RenderFormat(f, view, format, opts)
			if err != nil {
				return fmt.Errorf("render %s: %w", format, err)
			}
			mu.Lock()
			artifacts[format] = data
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return artifacts, nil
}

// RenderFormat produces a single artifact.
func RenderFormat(f *chart.Frame, view chart.ViewState, format string, opts Options) ([]byte, error) {
	switch format {
	case FormatSVG:
		return sink.RenderSVG(f, SVGOptions(opts)...)
	case FormatPNG:
		pngOpts := []sink.PNGOption{sink.WithScale(opts.Scale)}
		if opts.Fit {
			pngOpts = append(pngOpts, sink.WithPNGFit(opts.Padding))
		}
		return sink.RenderPNG(f, pngOpts...)
	case FormatDOT:
		return []byte(nodelink.ToDOT(f.Target, nodelink.Options{Detailed: opts.Detailed})), nil
	case FormatNodelink:
		return nodelink.RenderSVG(nodelink.ToDOT(f.Target, nodelink.Options{Detailed: opts.Detailed}))
	case FormatJSON:
		return graph.MarshalLayout(graph.Export(f, view))
	default:
		return nil, ValidateFormat(format)
	}
}

// SVGOptions maps pipeline options to SVG sink options.
func SVGOptions(opts Options) []sink.SVGOption {
	var out []sink.SVGOption
	if opts.Animate {
		out = append(out, sink.WithAnimation())
	}
	if opts.Title != "" {
		out = append(out, sink.WithTitle(opts.Title))
	}
	if opts.Fit {
		out = append(out, sink.WithFit(opts.Padding))
	}
	return out
}
