// Package config loads the orgtree TOML configuration file.
//
// A config file has four optional sections:
//
//	[chart]
//	width = 1200
//	height = 800
//	duration = "400ms"
//	horizontal_gap = 80
//
//	[chart.margins]
//	top = 120
//
//	[style]
//	width = 300
//	connector_line_color = "#999"
//	border_color = { red = 0, green = 0, blue = 0, alpha = 0.2 }
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//	ttl = "24h"
//
//	[server]
//	addr = ":8080"
//	watch = true
//
// Omitted keys keep their defaults. Unknown keys are an error so typos do
// not go unnoticed.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/orgtree/pkg/chart"
	orgerrors "github.com/matzehuels/orgtree/pkg/errors"
	"github.com/matzehuels/orgtree/pkg/geometry"
	"github.com/matzehuels/orgtree/pkg/reconcile"
	"github.com/matzehuels/orgtree/pkg/tree"
)

// DefaultPath is the file Discover looks for in the working directory.
const DefaultPath = "orgtree.toml"

const appName = "orgtree"

// Cache backends.
const (
	CacheNone  = "none"
	CacheFile  = "file"
	CacheRedis = "redis"
)

// File is a decoded config file.
type File struct {
	Chart  Chart          `toml:"chart"`
	Style  geometry.Style `toml:"style"`
	Cache  Cache          `toml:"cache"`
	Server Server         `toml:"server"`

	// Path is where the file was read from; empty for defaults.
	Path string `toml:"-"`
}

// Chart holds the container and animation settings.
type Chart struct {
	Width           float64 `toml:"width"`
	Height          float64 `toml:"height"`
	Margins         Margins `toml:"margins"`
	InitialZoom     float64 `toml:"initial_zoom"`
	Duration        string  `toml:"duration"`
	HorizontalGap   float64 `toml:"horizontal_gap"`
	LevelGap        float64 `toml:"level_gap"`
	Background      string  `toml:"background"`
	RequireTemplate bool    `toml:"require_template"`
}

// Margins around the chart group.
type Margins struct {
	Top    float64 `toml:"top"`
	Right  float64 `toml:"right"`
	Bottom float64 `toml:"bottom"`
	Left   float64 `toml:"left"`
}

// Cache selects the artifact cache backend.
type Cache struct {
	Backend       string `toml:"backend"`
	Dir           string `toml:"dir"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	Prefix        string `toml:"prefix"`
	TTL           string `toml:"ttl"`
}

// Server configures the preview server.
type Server struct {
	Addr     string `toml:"addr"`
	Watch    bool   `toml:"watch"`
	Debounce string `toml:"debounce"`
}

// Default returns the configuration used when no file is present.
func Default() File {
	return File{
		Chart: Chart{
			Width:         chart.DefaultWidth,
			Height:        chart.DefaultHeight,
			Margins:       Margins{Top: chart.DefaultMarginTop},
			InitialZoom:   1,
			Duration:      reconcile.DefaultDuration.String(),
			HorizontalGap: tree.DefaultHorizontalGap,
			LevelGap:      tree.DefaultLevelGap,
			Background:    chart.DefaultBackground,
			// Records without a template are rejected unless a file opts out.
			RequireTemplate: true,
		},
		Style: geometry.DefaultStyle(),
		Cache: Cache{
			Backend: CacheFile,
			Prefix:  "orgtree:",
			TTL:     "24h",
		},
		Server: Server{
			Addr:     "localhost:8080",
			Debounce: "200ms",
		},
	}
}

// Load reads a config file over the defaults.
func Load(path string) (File, error) {
	f := Default()
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return File{}, orgerrors.Wrap(orgerrors.ErrCodeFileNotFound, err, "config %s", path)
		}
		return File{}, orgerrors.Wrap(orgerrors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return File{}, orgerrors.New(orgerrors.ErrCodeInvalidConfig, "%s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	f.Path = path
	if err := f.Validate(); err != nil {
		return File{}, err
	}
	return f, nil
}

// Discover loads path when given, else DefaultPath when it exists, else
// the defaults.
func Discover(path string) (File, error) {
	if path != "" {
		return Load(path)
	}
	if _, err := os.Stat(DefaultPath); err == nil {
		return Load(DefaultPath)
	}
	return Default(), nil
}

// Validate checks value ranges and durations.
func (f *File) Validate() error {
	c := f.Chart
	if c.Width <= 0 || c.Height <= 0 {
		return orgerrors.New(orgerrors.ErrCodeInvalidConfig, "chart size %gx%g must be positive", c.Width, c.Height)
	}
	if c.InitialZoom <= 0 {
		return orgerrors.New(orgerrors.ErrCodeInvalidConfig, "chart.initial_zoom must be positive")
	}
	if c.HorizontalGap <= 0 || c.LevelGap <= 0 {
		return orgerrors.New(orgerrors.ErrCodeInvalidConfig, "chart.horizontal_gap and chart.level_gap must be positive")
	}
	for name, v := range map[string]string{
		"chart.duration":  c.Duration,
		"cache.ttl":       f.Cache.TTL,
		"server.debounce": f.Server.Debounce,
	} {
		if _, err := parseDuration(v); err != nil {
			return orgerrors.Wrap(orgerrors.ErrCodeInvalidConfig, err, "%s", name)
		}
	}
	switch f.Cache.Backend {
	case "", CacheNone:
	case CacheFile:
	case CacheRedis:
		if f.Cache.RedisAddr == "" {
			return orgerrors.New(orgerrors.ErrCodeInvalidConfig, "cache.redis_addr is required for the redis backend")
		}
	default:
		return orgerrors.New(orgerrors.ErrCodeInvalidConfig, "unknown cache backend %q", f.Cache.Backend)
	}
	return nil
}

// Apply copies the chart and style settings onto a builder.
func (f *File) Apply(b *chart.Builder) *chart.Builder {
	c := f.Chart
	d, _ := parseDuration(c.Duration)
	return b.
		Width(c.Width).
		Height(c.Height).
		Margins(chart.Margins(c.Margins)).
		InitialZoom(c.InitialZoom).
		Duration(d).
		HorizontalGap(c.HorizontalGap).
		LevelGap(c.LevelGap).
		Background(c.Background).
		RequireTemplate(c.RequireTemplate).
		Style(f.Style)
}

// Write encodes f as TOML. The output loads back to an equal File.
func (f *File) Write(w io.Writer) error {
	if err := toml.NewEncoder(w).Encode(f); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}

// CacheTTL returns the parsed cache TTL.
func (f *File) CacheTTL() time.Duration {
	d, _ := parseDuration(f.Cache.TTL)
	return d
}

// CacheDir returns cache.dir, or the user cache directory when unset.
func (f *File) CacheDir() (string, error) {
	if f.Cache.Dir != "" {
		return f.Cache.Dir, nil
	}
	return DefaultCacheDir()
}

// DefaultCacheDir returns $XDG_CACHE_HOME/orgtree, falling back to
// ~/.cache/orgtree.
func DefaultCacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// Debounce returns the parsed watcher debounce interval.
func (f *File) Debounce() time.Duration {
	d, _ := parseDuration(f.Server.Debounce)
	return d
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, errors.New("duration must not be negative")
	}
	return d, nil
}
