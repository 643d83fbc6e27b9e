package cli

import (
	"context"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/orgtree/pkg/pipeline"
)

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		output     string
		formatsStr string
		noCache    bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "render [records.json|records.yaml]",
		Short: "Render an org chart to SVG, PNG, DOT or JSON",
		Long: `Render an org chart from a record file.

Each record names its id, its parentId and an HTML template for its card.
The chart starts with the root expanded and every other node collapsed;
--root and --toggle change what is visible before drawing. With --animate
the SVG plays the transition of the last toggle.

Results are cached; --refresh re-renders and --no-cache skips the cache.`,
		Example: `  orgtree render org.yaml
  orgtree render org.json -f svg,png -t O-2 -t O-7 --animate
  orgtree render org.json -f nodelink --detailed -o org`,
		Args:              fileArg,
		ValidArgsFunction: completeRecordFiles,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Input = args[0]
			opts.Formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, dot, nodelink, json (comma-separated)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "ignore cached results")
	sizeFlags(cmd, &opts)
	viewFlags(cmd, &opts)
	cmd.Flags().BoolVar(&opts.Animate, "animate", false, "animate the last transition (svg)")
	cmd.Flags().BoolVar(&opts.Fit, "fit", false, "size the drawing to the tree instead of the container")
	cmd.Flags().Float64Var(&opts.Padding, "padding", pipeline.DefaultPadding, "padding around a fitted drawing")
	cmd.Flags().Float64Var(&opts.Scale, "scale", pipeline.DefaultScale, "pixel ratio (png)")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "label nodes with counts and state (dot, nodelink)")
	cmd.Flags().StringVar(&opts.Title, "title", "", "document title (svg)")
	_ = cmd.RegisterFlagCompletionFunc("format", completeFormats)

	return cmd
}

func (c *CLI) runRender(ctx context.Context, opts pipeline.Options, output string, noCache bool) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	opts.Config = cfg
	opts.Logger = c.Logger

	runner, err := c.newRunner(ctx, cfg, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %s...", strings.Join(opts.Formats, ", ")))
	spinner.Start()
	p := newProgress(c.Logger)
	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()
	p.done("rendered", "formats", len(result.Artifacts))

	paths, err := writeArtifacts(result.Artifacts, opts.Formats, opts.Input, output)
	if err != nil {
		return err
	}

	printSuccess("Rendered %s", opts.Input)
	for _, path := range paths {
		printFile(path)
	}
	printStats(result.Stats.RecordCount, result.Stats.VisibleNodes, result.CacheInfo.RenderHit)
	if slices.Contains(opts.Formats, pipeline.FormatSVG) && !opts.Animate {
		printNewline()
		printNextStep("Explore interactively", appName+" serve "+opts.Input)
	}
	return nil
}

// outputPaths maps formats to output files. A single format writes to
// output as given; otherwise output (or the input path) is a base name
// that each format's extension is appended to.
func outputPaths(formats []string, input, output string) map[string]string {
	paths := make(map[string]string, len(formats))
	if len(formats) == 1 && output != "" {
		paths[formats[0]] = output
		return paths
	}
	base := basePath(output, input)
	for _, f := range formats {
		paths[f] = base + pipeline.Extensions[f]
	}
	return paths
}

// basePath strips a known output extension from output, or the record
// extension from input when output is empty.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	// Longest first so ".nodelink.svg" wins over ".svg".
	exts := slices.Collect(maps.Values(pipeline.Extensions))
	slices.SortFunc(exts, func(a, b string) int { return len(b) - len(a) })
	for _, ext := range exts {
		if strings.HasSuffix(output, ext) {
			return strings.TrimSuffix(output, ext)
		}
	}
	return output
}

func writeArtifacts(artifacts map[string][]byte, formats []string, input, output string) ([]string, error) {
	paths := outputPaths(formats, input, output)
	written := make([]string, 0, len(formats))
	for _, f := range formats {
		path := paths[f]
		if err := os.WriteFile(path, artifacts[f], 0o644); err != nil {
			return written, fmt.Errorf("write %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}
