package io

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/orgtree/pkg/tree"
)

// WriteRecords encodes records to w. Payload fields are written next to
// the identity fields; payload keys that collide with them are dropped.
func WriteRecords(records []tree.Record, w io.Writer, format Format) error {
	out := make([]map[string]any, len(records))
	for i, r := range records {
		m := make(map[string]any, len(r.Payload)+4)
		for k, v := range r.Payload {
			if !reserved[k] {
				m[k] = v
			}
		}
		m["id"] = r.ID
		if r.ParentID != "" {
			m["parentId"] = r.ParentID
		}
		if r.Template != "" {
			m["template"] = r.Template
		}
		if r.Expanded {
			m["expanded"] = true
		}
		out[i] = m
	}

	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		return nil
	}
}

// ExportRecords writes records to path in the format its extension names.
func ExportRecords(records []tree.Record, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteRecords(records, f, FormatFromPath(path)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
