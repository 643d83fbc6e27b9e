package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/orgtree/pkg/graph"
	"github.com/matzehuels/orgtree/pkg/pipeline"
)

// layoutCommand creates the layout command.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output  string
		noCache bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "layout [records.json|records.yaml]",
		Short: "Compute the chart layout of a record file",
		Long: `Compute the chart layout of a record file.

The layout lists every visible node with its position, size, state and
subordinate counts, and every link with its connector path. It is the
same document as 'render -f json'. Use -o - to write to stdout.`,
		Args:              fileArg,
		ValidArgsFunction: completeRecordFiles,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Input = args[0]
			return c.runLayout(cmd.Context(), opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	sizeFlags(cmd, &opts)
	viewFlags(cmd, &opts)

	return cmd
}

func (c *CLI) runLayout(ctx context.Context, opts pipeline.Options, output string, noCache bool) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	opts.Config = cfg
	opts.Logger = c.Logger
	opts.Formats = []string{pipeline.FormatJSON}

	runner, err := c.newRunner(ctx, cfg, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		return fmt.Errorf("compute layout: %w", err)
	}

	if output == "-" {
		_, err := os.Stdout.Write(result.Artifacts[pipeline.FormatJSON])
		return err
	}
	if output == "" {
		output = strings.TrimSuffix(opts.Input, filepath.Ext(opts.Input)) + ".layout.json"
	}
	l, err := graph.UnmarshalLayout(result.Artifacts[pipeline.FormatJSON])
	if err != nil {
		return err
	}
	if err := graph.WriteLayoutFile(l, output); err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}

	printSuccess("Layout complete")
	printFile(output)
	printStats(result.Stats.RecordCount, len(l.Nodes), result.CacheInfo.RenderHit)
	return nil
}
