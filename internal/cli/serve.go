package cli

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/orgtree/internal/server"
	"github.com/matzehuels/orgtree/pkg/observability"
	"github.com/matzehuels/orgtree/pkg/pipeline"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		watch   bool
		metrics bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "serve [records.json|records.yaml]",
		Short: "Serve a live, clickable chart",
		Long: `Serve a live chart in the browser.

Clicking a node's button expands or collapses it; every open page follows
along over server-sent events. With --watch the record file is reloaded
whenever it changes, keeping the nodes that were expanded.`,
		Args:              fileArg,
		ValidArgsFunction: completeRecordFiles,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Input = args[0]
			return c.runServe(cmd, opts, addr, watch, metrics)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "reload when the record file changes")
	cmd.Flags().BoolVar(&metrics, "metrics", false, "expose Prometheus metrics on /metrics")
	sizeFlags(cmd, &opts)
	viewFlags(cmd, &opts)
	cmd.Flags().StringVar(&opts.Title, "title", "", "page title")

	return cmd
}

func (c *CLI) runServe(cmd *cobra.Command, opts pipeline.Options, addr string, watch, metrics bool) error {
	ctx := cmd.Context()
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	opts.Config = cfg
	if addr == "" {
		addr = cfg.Server.Addr
	}
	if !cmd.Flags().Changed("watch") {
		watch = cfg.Server.Watch
	}

	srvOpts := server.Options{
		Pipeline: opts,
		Logger:   c.Logger,
		Debounce: cfg.Debounce(),
	}
	if metrics {
		reg, err := newRegistry()
		if err != nil {
			return err
		}
		srvOpts.Gatherer = reg
	}

	srv, err := server.New(ctx, srvOpts)
	if err != nil {
		return err
	}
	defer srv.Close()

	printSuccess("Serving %s", opts.Input)
	printKeyValue("URL", StyleLink.Render("http://"+addr))
	if watch {
		printKeyValue("Watching", opts.Input)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.ListenAndServe(gctx, addr) })
	if watch {
		g.Go(func() error { return srv.Watch(gctx) })
	}
	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// newRegistry registers orgtree and process metrics and installs them as
// the global observability hooks.
func newRegistry() (*prometheus.Registry, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	p, err := observability.NewPrometheus(reg)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}
	observability.SetChartHooks(p)
	observability.SetPipelineHooks(p)
	observability.SetCacheHooks(p)
	observability.SetHTTPHooks(p)
	return reg, nil
}
