package pipeline

import (
	"bytes"
	"context"
	"os"
	"time"

	"github.com/goccy/go-json"

	"github.com/matzehuels/orgtree/pkg/cache"
	"github.com/matzehuels/orgtree/pkg/config"
	orgerrors "github.com/matzehuels/orgtree/pkg/errors"
	orgio "github.com/matzehuels/orgtree/pkg/io"
	"github.com/matzehuels/orgtree/pkg/observability"
	"github.com/matzehuels/orgtree/pkg/tree"
)

// Load reads the records named by opts and returns them with the content
// hash used in cache keys.
func Load(ctx context.Context, opts Options) ([]tree.Record, string, error) {
	source := opts.Input
	if len(opts.Data) > 0 {
		source = "<data>"
	}
	hooks := observability.Pipeline()
	hooks.OnLoadStart(ctx, source)
	start := time.Now()

	records, hash, err := load(opts)
	n := len(records)
	hooks.OnLoadComplete(ctx, source, n, time.Since(start), err)
	if err != nil {
		return nil, "", err
	}
	return records, hash, nil
}

func load(opts Options) ([]tree.Record, string, error) {
	data := opts.Data
	if len(data) == 0 {
		var err error
		data, err = os.ReadFile(opts.Input)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, "", orgerrors.Wrap(orgerrors.ErrCodeFileNotFound, err, "data file %s", opts.Input)
			}
			return nil, "", orgerrors.Wrap(orgerrors.ErrCodeInvalidInput, err, "read %s", opts.Input)
		}
	}

	format := orgio.FormatFromPath(opts.Input)
	if opts.InputFormat != "" {
		var err error
		if format, err = orgio.ParseFormat(opts.InputFormat); err != nil {
			return nil, "", err
		}
	}

	records, err := orgio.ReadRecords(bytes.NewReader(data), format)
	if err != nil {
		return nil, "", err
	}
	return records, cache.Hash(append([]byte(format+":"), data...)), nil
}

// configHash keys everything in the config file that changes the drawing.
func configHash(f *config.File) string {
	if f == nil {
		return ""
	}
	data, err := json.Marshal(struct {
		Chart config.Chart
		Style any
	}{f.Chart, f.Style})
	if err != nil {
		return ""
	}
	return cache.Hash(data)
}
