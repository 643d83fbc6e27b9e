package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/orgtree/pkg/io"
	"github.com/matzehuels/orgtree/pkg/tree"
)

// convertCommand creates the convert command.
func (c *CLI) convertCommand() *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "convert [input] [output]",
		Short: "Convert a record file between JSON and YAML",
		Long: `Convert a record file between JSON and YAML.

Formats follow the file extensions (.json, .yaml, .yml). With --check the
records must also form a single tree: one root, known parents and no
cycles.`,
		Example: `  orgtree convert org.json org.yaml
  orgtree convert --check export.yml org.json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runConvert(args[0], args[1], check)
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "fail unless the records form a single tree")
	return cmd
}

func (c *CLI) runConvert(input, output string, check bool) error {
	records, err := io.ImportRecords(input)
	if err != nil {
		return err
	}
	c.Logger.Debug("read records", "path", input, "count", len(records))

	if check {
		t, err := tree.Build(records, tree.Options{})
		if err != nil {
			return err
		}
		c.Logger.Debug("records form a tree", "root", t.ViewRoot().ID)
		records = t.Records()
	}
	if err := io.ExportRecords(records, output); err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}

	printSuccess("Converted %s", input)
	printFile(output)
	printDetail("%d records · %s → %s", len(records), io.FormatFromPath(input), io.FormatFromPath(output))
	return nil
}
