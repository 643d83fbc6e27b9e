// Package pipeline provides the render pipeline for orgtree.
//
// This package implements the complete load → chart → render pipeline used
// by the CLI commands and the preview server. Centralizing it keeps cache
// keys, defaults and render options identical across entry points.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: Read records from a JSON or YAML file (or raw bytes)
//  2. Chart: Build a headless chart, apply the view root and toggles
//  3. Render: Produce artifacts from the final frame (SVG, PNG, DOT,
//     Graphviz node-link SVG, JSON layout), concurrently
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Input:   "org.yaml",
//	    Formats: []string{"svg", "json"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	records, hash, err := runner.Load(ctx, opts)
//	c, err := pipeline.BuildChart(records, opts)
//	artifacts, err := pipeline.Render(ctx, c.Frame(), c.View(), opts)
package pipeline

import (
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/orgtree/pkg/cache"
	"github.com/matzehuels/orgtree/pkg/config"
	orgerrors "github.com/matzehuels/orgtree/pkg/errors"
	"github.com/matzehuels/orgtree/pkg/graph"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

const (
	// DefaultPadding is the margin kept around a fitted drawing.
	DefaultPadding = 20.0

	// DefaultScale is the PNG device pixel ratio.
	DefaultScale = 1.0
)

// Format constants for output formats.
const (
	FormatSVG      = "svg"
	FormatPNG      = "png"
	FormatDOT      = "dot"
	FormatNodelink = "nodelink"
	FormatJSON     = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:      true,
	FormatPNG:      true,
	FormatDOT:      true,
	FormatNodelink: true,
	FormatJSON:     true,
}

// Extensions maps formats to output file extensions.
var Extensions = map[string]string{
	FormatSVG:      ".svg",
	FormatPNG:      ".png",
	FormatDOT:      ".dot",
	FormatNodelink: ".nodelink.svg",
	FormatJSON:     ".layout.json",
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for a pipeline run.
type Options struct {
	// Load options
	Input       string `json:"input,omitempty"`
	Data        []byte `json:"-"` // raw records; overrides Input
	InputFormat string `json:"input_format,omitempty"`

	// Chart options
	Width   float64  `json:"width,omitempty"`
	Height  float64  `json:"height,omitempty"`
	Root    string   `json:"root,omitempty"`
	Toggles []string `json:"toggles,omitempty"` // applied in order after load

	// Render options
	Formats  []string `json:"formats,omitempty"`
	Animate  bool     `json:"animate,omitempty"`
	Fit      bool     `json:"fit,omitempty"`
	Padding  float64  `json:"padding,omitempty"`
	Scale    float64  `json:"scale,omitempty"`
	Detailed bool     `json:"detailed,omitempty"`
	Title    string   `json:"title,omitempty"`
	Refresh  bool     `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Config *config.File `json:"-"`
	Logger *log.Logger  `json:"-"`

	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// DataHash is the content hash of the loaded records.
	DataHash string

	// Layout is the exported final layout. Empty when every artifact came
	// from the cache and the layout was not cached.
	Layout graph.Layout

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	RecordCount  int
	VisibleNodes int
	LoadTime     time.Duration
	ChartTime    time.Duration
	RenderTime   time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool // Whether the layout came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return orgerrors.New(orgerrors.ErrCodeInvalidInput,
			"invalid format: %q (must be one of: svg, png, dot, nodelink, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults. It is
// idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Input == "" && len(o.Data) == 0 {
		return orgerrors.New(orgerrors.ErrCodeInvalidInput, "input file or data is required")
	}
	o.SetDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Width < 0 || o.Height < 0 {
		return orgerrors.New(orgerrors.ErrCodeInvalidInput, "size %gx%g must not be negative", o.Width, o.Height)
	}
	if o.Scale <= 0 {
		return orgerrors.New(orgerrors.ErrCodeInvalidInput, "scale %g must be positive", o.Scale)
	}
	if err := o.Config.Validate(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// SetDefaults fills unset options.
func (o *Options) SetDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	o.Formats = dedupe(o.Formats)
	if o.Padding == 0 {
		o.Padding = DefaultPadding
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Config == nil {
		f := config.Default()
		o.Config = &f
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// LayoutKeyOpts returns cache key options for the layout.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		ConfigHash: configHash(o.Config),
		Width:      o.Width,
		Height:     o.Height,
		Root:       o.Root,
		Toggles:    o.Toggles,
	}
}

// ArtifactKeyOpts returns cache key options for one artifact.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{LayoutKeyOpts: o.LayoutKeyOpts(), Format: format}
	switch format {
	case FormatSVG:
		k.Animate, k.Title = o.Animate, o.Title
		if o.Fit {
			k.Fit = o.Padding
		}
	case FormatPNG:
		k.Scale = o.Scale
		if o.Fit {
			k.Fit = o.Padding
		}
	case FormatDOT, FormatNodelink:
		k.Detailed = o.Detailed
	}
	return k
}

func dedupe(formats []string) []string {
	out := make([]string, 0, len(formats))
	for _, f := range formats {
		if !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	return out
}
