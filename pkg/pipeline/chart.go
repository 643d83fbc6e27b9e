package pipeline

import (
	"github.com/matzehuels/orgtree/pkg/chart"
	"github.com/matzehuels/orgtree/pkg/tree"
)

// Builder returns a chart builder carrying the config file and size
// overrides of opts. Callers add a surface-specific logger or hooks.
func Builder(opts Options) *chart.Builder {
	opts.SetDefaults()
	b := opts.Config.Apply(chart.NewBuilder()).Logger(opts.Logger)
	if opts.Width > 0 {
		b.Width(opts.Width)
	}
	if opts.Height > 0 {
		b.Height(opts.Height)
	}
	return b
}

// BuildChart builds a headless chart from records and applies the view
// root and toggles of opts. The returned chart's latest frame holds the
// transition from the second-to-last state, which animated SVG output
// plays back.
func BuildChart(records []tree.Record, opts Options) (*chart.Chart, error) {
	cfg, err := Builder(opts).Data(records).Build()
	if err != nil {
		return nil, err
	}
	c, err := chart.New(cfg, nil)
	if err != nil {
		return nil, err
	}
	if opts.Root != "" {
		if err := c.SetRoot(opts.Root); err != nil {
			return nil, err
		}
	}
	for _, id := range opts.Toggles {
		state, err := c.ToggleNode(id)
		if err != nil {
			return nil, err
		}
		opts.Logger.Debug("toggled", "node", id, "state", state)
	}
	return c, nil
}
