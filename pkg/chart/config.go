package chart

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	orgerrors "github.com/matzehuels/orgtree/pkg/errors"
	"github.com/matzehuels/orgtree/pkg/geometry"
	"github.com/matzehuels/orgtree/pkg/observability"
	"github.com/matzehuels/orgtree/pkg/reconcile"
	"github.com/matzehuels/orgtree/pkg/tree"
)

// Canvas defaults.
const (
	DefaultWidth      = 800.0
	DefaultHeight     = 600.0
	DefaultMarginTop  = 100.0
	DefaultBackground = "#e8e8e8"
)

// Margins around the chart group.
type Margins struct {
	Top, Right, Bottom, Left float64
}

// Config is an immutable chart configuration. Obtain one from [Builder].
type Config struct {
	id              string
	width, height   float64
	margins         Margins
	initialZoom     float64
	duration        time.Duration
	onNodeClick     func(id string)
	style           geometry.Style
	hGap, levelGap  float64
	background      string
	requireTemplate bool
	logger          *log.Logger
	hooks           observability.ChartHooks
	clock           func() time.Time
	data            []tree.Record
}

func (c Config) ID() string                      { return c.id }
func (c Config) Width() float64                  { return c.width }
func (c Config) Height() float64                 { return c.height }
func (c Config) Margins() Margins                { return c.margins }
func (c Config) InitialZoom() float64            { return c.initialZoom }
func (c Config) Duration() time.Duration         { return c.duration }
func (c Config) Style() geometry.Style           { return c.style }
func (c Config) HorizontalGap() float64          { return c.hGap }
func (c Config) LevelGap() float64               { return c.levelGap }
func (c Config) Background() string              { return c.background }
func (c Config) RequireTemplate() bool           { return c.requireTemplate }
func (c Config) Logger() *log.Logger             { return c.logger }
func (c Config) Hooks() observability.ChartHooks { return c.hooks }
func (c Config) Data() []tree.Record             { return c.data }
func (c Config) ShadowFilterID() string          { return c.id + "-drop-shadow" }
func (c Config) OnNodeClick() func(id string)    { return c.onNodeClick }

// Builder assembles a [Config]. Setters may be chained; Build validates.
type Builder struct {
	cfg Config
}

// NewBuilder returns a builder preset with the chart defaults.
func NewBuilder() *Builder {
	return &Builder{cfg: Config{
		width:           DefaultWidth,
		height:          DefaultHeight,
		margins:         Margins{Top: DefaultMarginTop},
		initialZoom:     1,
		duration:        reconcile.DefaultDuration,
		style:           geometry.DefaultStyle(),
		hGap:            tree.DefaultHorizontalGap,
		levelGap:        tree.DefaultLevelGap,
		background:      DefaultBackground,
		requireTemplate: true,
	}}
}

// From starts a builder from an existing configuration.
func From(cfg Config) *Builder {
	cfg.data = append([]tree.Record(nil), cfg.data...)
	return &Builder{cfg: cfg}
}

func (b *Builder) ID(id string) *Builder                   { b.cfg.id = id; return b }
func (b *Builder) Width(w float64) *Builder                { b.cfg.width = w; return b }
func (b *Builder) Height(h float64) *Builder               { b.cfg.height = h; return b }
func (b *Builder) Margins(m Margins) *Builder              { b.cfg.margins = m; return b }
func (b *Builder) InitialZoom(z float64) *Builder          { b.cfg.initialZoom = z; return b }
func (b *Builder) Duration(d time.Duration) *Builder       { b.cfg.duration = d; return b }
func (b *Builder) OnNodeClick(fn func(id string)) *Builder { b.cfg.onNodeClick = fn; return b }
func (b *Builder) Style(s geometry.Style) *Builder         { b.cfg.style = s; return b }
func (b *Builder) HorizontalGap(g float64) *Builder        { b.cfg.hGap = g; return b }
func (b *Builder) LevelGap(g float64) *Builder             { b.cfg.levelGap = g; return b }
func (b *Builder) Background(c string) *Builder            { b.cfg.background = c; return b }
func (b *Builder) RequireTemplate(v bool) *Builder         { b.cfg.requireTemplate = v; return b }
func (b *Builder) Logger(l *log.Logger) *Builder           { b.cfg.logger = l; return b }
func (b *Builder) Hooks(h observability.ChartHooks) *Builder {
	b.cfg.hooks = h
	return b
}

// Font sets the chart font family.
func (b *Builder) Font(f string) *Builder {
	b.cfg.style.Font = f
	return b
}

// Clock replaces time.Now for transition timing.
func (b *Builder) Clock(now func() time.Time) *Builder {
	b.cfg.clock = now
	return b
}

// Data sets records to render as soon as the chart is created.
func (b *Builder) Data(records []tree.Record) *Builder {
	b.cfg.data = append([]tree.Record(nil), records...)
	return b
}

// Build validates the configuration and fills in the id, logger, hooks and
// clock when unset.
func (b *Builder) Build() (Config, error) {
	c := b.cfg
	switch {
	case c.width <= 0 || c.height <= 0:
		return Config{}, orgerrors.New(orgerrors.ErrCodeInvalidConfig, "chart size %gx%g must be positive", c.width, c.height)
	case c.initialZoom <= 0:
		return Config{}, orgerrors.New(orgerrors.ErrCodeInvalidConfig, "initial zoom %g must be positive", c.initialZoom)
	case c.duration < 0:
		return Config{}, orgerrors.New(orgerrors.ErrCodeInvalidConfig, "duration %s must not be negative", c.duration)
	case c.hGap <= 0 || c.levelGap <= 0:
		return Config{}, orgerrors.New(orgerrors.ErrCodeInvalidConfig, "gaps %g and %g must be positive", c.hGap, c.levelGap)
	case c.style.Width <= 0 || c.style.Height <= 0:
		return Config{}, orgerrors.New(orgerrors.ErrCodeInvalidConfig, "default node size %gx%g must be positive", c.style.Width, c.style.Height)
	}
	if c.width-c.margins.Left-c.margins.Right <= 0 {
		return Config{}, orgerrors.New(orgerrors.ErrCodeInvalidConfig, "margins leave no room for the chart")
	}

	if c.id == "" {
		c.id = "orgtree-" + uuid.NewString()
	}
	if c.logger == nil {
		c.logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if c.hooks == nil {
		c.hooks = observability.Chart()
	}
	if c.clock == nil {
		c.clock = time.Now
	}
	c.style.ShadowFilterID = c.ID() + "-drop-shadow"
	return c, nil
}
