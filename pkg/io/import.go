package io

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	orgerrors "github.com/matzehuels/orgtree/pkg/errors"
	"github.com/matzehuels/orgtree/pkg/tree"
)

// Identity fields; everything else goes to the payload.
var (
	idKeys     = []string{"id", "nodeId"}
	parentKeys = []string{"parentId", "parentNodeId"}
	reserved   = map[string]bool{
		"id": true, "nodeId": true,
		"parentId": true, "parentNodeId": true,
		"template": true, "expanded": true,
	}
)

// ReadRecords decodes records from r.
//
// ReadRecords returns an INVALID_FORMAT error if the document does not
// decode, or if a record lacks an id or has an id, parent, template or
// expanded field of the wrong type. It does not close r.
func ReadRecords(r io.Reader, format Format) ([]tree.Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	raw, err := decode(bytes.TrimSpace(data), format)
	if err != nil {
		return nil, err
	}

	records := make([]tree.Record, 0, len(raw))
	for i, m := range raw {
		rec, err := toRecord(m)
		if err != nil {
			return nil, orgerrors.Wrap(orgerrors.ErrCodeInvalidFormat, err, "record %d", i)
		}
		records = append(records, rec)
	}
	return records, nil
}

// ImportRecords reads the record file at path. The format follows the file
// extension.
func ImportRecords(path string) ([]tree.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, orgerrors.Wrap(orgerrors.ErrCodeFileNotFound, err, "data file %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadRecords(f, FormatFromPath(path))
}

func decode(data []byte, format Format) ([]map[string]any, error) {
	if len(data) == 0 {
		return nil, orgerrors.New(orgerrors.ErrCodeInvalidFormat, "empty document")
	}

	var doc any
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &doc)
	case FormatJSON, "":
		err = json.Unmarshal(data, &doc)
	default:
		return nil, orgerrors.New(orgerrors.ErrCodeInvalidInput, "unknown record format %q", format)
	}
	if err != nil {
		return nil, orgerrors.Wrap(orgerrors.ErrCodeInvalidFormat, err, "decode %s", format)
	}

	if obj, ok := doc.(map[string]any); ok {
		switch {
		case obj["records"] != nil:
			doc = obj["records"]
		case obj["data"] != nil:
			doc = obj["data"]
		default:
			return nil, orgerrors.New(orgerrors.ErrCodeInvalidFormat, `object without "records" or "data" list`)
		}
	}
	list, ok := doc.([]any)
	if !ok {
		return nil, orgerrors.New(orgerrors.ErrCodeInvalidFormat, "expected a list of records, got %T", doc)
	}

	out := make([]map[string]any, len(list))
	for i, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, orgerrors.New(orgerrors.ErrCodeInvalidFormat, "record %d: expected an object, got %T", i, item)
		}
		out[i] = m
	}
	return out, nil
}

func toRecord(m map[string]any) (tree.Record, error) {
	var rec tree.Record

	id, err := identifier(m, idKeys)
	if err != nil {
		return rec, err
	}
	if id == "" {
		return rec, fmt.Errorf("missing id")
	}
	rec.ID = id

	if rec.ParentID, err = identifier(m, parentKeys); err != nil {
		return rec, fmt.Errorf("node %q: %w", id, err)
	}

	if v, ok := m["template"]; ok && v != nil {
		s, ok := v.(string)
		if !ok {
			return rec, fmt.Errorf("node %q: template must be a string, got %T", id, v)
		}
		rec.Template = s
	}
	if v, ok := m["expanded"]; ok && v != nil {
		b, ok := v.(bool)
		if !ok {
			return rec, fmt.Errorf("node %q: expanded must be a boolean, got %T", id, v)
		}
		rec.Expanded = b
	}

	for k, v := range m {
		if reserved[k] {
			continue
		}
		if rec.Payload == nil {
			rec.Payload = make(map[string]any)
		}
		rec.Payload[k] = v
	}
	return rec, nil
}

// identifier returns the first present key as a string. Integral numbers
// are accepted because exported org data often uses numeric ids.
func identifier(m map[string]any, keys []string) (string, error) {
	for _, k := range keys {
		v, ok := m[k]
		if !ok || v == nil {
			continue
		}
		switch x := v.(type) {
		case string:
			return strings.TrimSpace(x), nil
		case int:
			return strconv.Itoa(x), nil
		case int64:
			return strconv.FormatInt(x, 10), nil
		case uint64:
			return strconv.FormatUint(x, 10), nil
		case float64:
			return strconv.FormatFloat(x, 'f', -1, 64), nil
		default:
			return "", fmt.Errorf("%s must be a string or number, got %T", k, v)
		}
	}
	return "", nil
}
