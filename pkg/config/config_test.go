package config

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/matzehuels/orgtree/pkg/chart"
	orgerrors "github.com/matzehuels/orgtree/pkg/errors"
)

func write(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "orgtree.toml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := write(t, `
[chart]
width = 1200
duration = "400ms"
require_template = false

[chart.margins]
top = 20
left = 10

[style]
width = 300
connector_line_color = "#999"
border_color = { red = 10, green = 20, blue = 30, alpha = 0.5 }

[style.image]
corner_shape = "CIRCLE"

[cache]
backend = "file"
dir = "/tmp/orgtree"
ttl = "1h"

[server]
addr = ":9090"
watch = true
`)
	f, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if f.Path != path {
		t.Errorf("Path = %q", f.Path)
	}
	if f.Chart.Width != 1200 || f.Chart.Height != chart.DefaultHeight {
		t.Errorf("chart size = %vx%v", f.Chart.Width, f.Chart.Height)
	}
	if f.Style.Width != 300 || f.Style.Height != 132 {
		t.Errorf("style size = %vx%v, height should keep its default", f.Style.Width, f.Style.Height)
	}
	if f.Style.BorderColor.Green != 20 || f.Style.BorderColor.Alpha != 0.5 {
		t.Errorf("border color = %+v", f.Style.BorderColor)
	}
	if f.Style.Image.CornerShape != "CIRCLE" || f.Style.Image.Width != 94 {
		t.Errorf("image style = %+v", f.Style.Image)
	}
	if f.CacheTTL() != time.Hour || f.Debounce() != 200*time.Millisecond {
		t.Errorf("durations = %v, %v", f.CacheTTL(), f.Debounce())
	}
	if !f.Server.Watch || f.Server.Addr != ":9090" {
		t.Errorf("server = %+v", f.Server)
	}

	cfg, err := f.Apply(chart.NewBuilder()).Build()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width() != 1200 || cfg.Duration() != 400*time.Millisecond || cfg.RequireTemplate() {
		t.Errorf("builder config = %v %v %v", cfg.Width(), cfg.Duration(), cfg.RequireTemplate())
	}
	if m := cfg.Margins(); m.Top != 20 || m.Left != 10 {
		t.Errorf("margins = %+v", m)
	}
	if cfg.Style().ConnectorLineColor != "#999" {
		t.Errorf("style not applied: %+v", cfg.Style())
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"syntax", `[chart`},
		{"unknown key", "[chart]\nwidht = 10\n"},
		{"bad duration", "[chart]\nduration = \"soon\"\n"},
		{"negative duration", "[cache]\nttl = \"-1s\"\n"},
		{"zero width", "[chart]\nwidth = 0\n"},
		{"zero zoom", "[chart]\ninitial_zoom = 0\n"},
		{"zero gap", "[chart]\nlevel_gap = 0\n"},
		{"unknown backend", "[cache]\nbackend = \"memcached\"\n"},
		{"redis without addr", "[cache]\nbackend = \"redis\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(write(t, tt.body))
			if !orgerrors.Is(err, orgerrors.ErrCodeInvalidConfig) {
				t.Errorf("err = %v, want INVALID_CONFIG", err)
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); !orgerrors.Is(err, orgerrors.ErrCodeFileNotFound) {
		t.Errorf("missing file: %v", err)
	}
}

func TestDiscover(t *testing.T) {
	t.Chdir(t.TempDir())

	f, err := Discover("")
	if err != nil {
		t.Fatal(err)
	}
	if f.Path != "" || f.Chart.Width != chart.DefaultWidth {
		t.Errorf("defaults = %+v", f.Chart)
	}

	if err := os.WriteFile(DefaultPath, []byte("[server]\naddr = \":1\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	f, err = Discover("")
	if err != nil {
		t.Fatal(err)
	}
	if f.Server.Addr != ":1" {
		t.Errorf("orgtree.toml not picked up: %+v", f.Server)
	}
}

func TestDefaultBuilds(t *testing.T) {
	f := Default()
	if err := f.Validate(); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Apply(chart.NewBuilder()).Build(); err != nil {
		t.Fatal(err)
	}
}

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg")
	f := Default()
	dir, err := f.CacheDir()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join("/tmp/xdg", "orgtree"); dir != want {
		t.Errorf("CacheDir() = %q, want %q", dir, want)
	}

	f.Cache.Dir = "/srv/cache"
	if dir, _ := f.CacheDir(); dir != "/srv/cache" {
		t.Errorf("explicit dir = %q", dir)
	}

	t.Setenv("XDG_CACHE_HOME", "")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if dir, _ := DefaultCacheDir(); dir != filepath.Join(home, ".cache", "orgtree") {
		t.Errorf("DefaultCacheDir() = %q", dir)
	}
}

func TestWriteLoads(t *testing.T) {
	f := Default()
	f.Chart.Width = 1440
	f.Cache.Backend = CacheRedis
	f.Cache.RedisAddr = "cache:6379"
	f.Server.Watch = true

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	path := write(t, buf.String())
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v\n%s", err, buf.String())
	}
	got.Path = ""
	if !reflect.DeepEqual(got, f) {
		t.Errorf("Load(Write(f)) = %+v, want %+v", got, f)
	}
}
