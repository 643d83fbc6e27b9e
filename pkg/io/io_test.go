package io

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	orgerrors "github.com/matzehuels/orgtree/pkg/errors"
	"github.com/matzehuels/orgtree/pkg/tree"
)

const jsonRecords = `[
  {"id": "O-1", "template": "<div>CEO</div>"},
  {"id": "O-2", "parentId": "O-1", "template": "<div>CTO</div>", "width": 300,
   "nodeImage": {"url": "https://example.com/cto.png", "shadow": true}},
  {"nodeId": 3, "parentNodeId": "O-1", "expanded": true}
]`

const yamlRecords = `
records:
  - id: O-1
    template: <div>CEO</div>
  - id: O-2
    parentId: O-1
    template: <div>CTO</div>
    width: 300
    nodeImage:
      url: https://example.com/cto.png
      shadow: true
  - nodeId: 3
    parentNodeId: O-1
    expanded: true
`

func checkRecords(t *testing.T, got []tree.Record) {
	t.Helper()
	if len(got) != 3 {
		t.Fatalf("got %d records", len(got))
	}
	if got[0].ID != "O-1" || got[0].ParentID != "" || got[0].Template != "<div>CEO</div>" || got[0].Payload != nil {
		t.Errorf("root = %+v", got[0])
	}
	cto := got[1]
	if cto.ParentID != "O-1" {
		t.Errorf("O-2 parent = %q", cto.ParentID)
	}
	if w, ok := cto.Payload["width"]; !ok || w == nil {
		t.Errorf("width not kept in payload: %v", cto.Payload)
	}
	img, ok := cto.Payload["nodeImage"].(map[string]any)
	if !ok || img["url"] != "https://example.com/cto.png" {
		t.Errorf("nodeImage = %#v", cto.Payload["nodeImage"])
	}
	if _, ok := cto.Payload["template"]; ok {
		t.Error("template leaked into payload")
	}
	if got[2].ID != "3" || got[2].ParentID != "O-1" || !got[2].Expanded {
		t.Errorf("aliased record = %+v", got[2])
	}
}

func TestReadRecords(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		format Format
	}{
		{"json", jsonRecords, FormatJSON},
		{"json object", `{"data": ` + jsonRecords + `}`, FormatJSON},
		{"yaml", yamlRecords, FormatYAML},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadRecords(strings.NewReader(tt.input), tt.format)
			if err != nil {
				t.Fatal(err)
			}
			checkRecords(t, got)
		})
	}
}

func TestReadRecordsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", "  "},
		{"malformed", `[{"id": "a"`},
		{"scalar", `"records"`},
		{"object without list", `{"nodes": []}`},
		{"non-object record", `["a"]`},
		{"missing id", `[{"parentId": "a"}]`},
		{"bad id", `[{"id": true}]`},
		{"bad template", `[{"id": "a", "template": 5}]`},
		{"bad expanded", `[{"id": "a", "expanded": "yes"}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadRecords(strings.NewReader(tt.input), FormatJSON)
			if !orgerrors.Is(err, orgerrors.ErrCodeInvalidFormat) {
				t.Errorf("err = %v, want INVALID_FORMAT", err)
			}
		})
	}
}

func TestImportRecords(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "org.yml")
	if err := os.WriteFile(path, []byte(yamlRecords), 0644); err != nil {
		t.Fatal(err)
	}
	got, err := ImportRecords(path)
	if err != nil {
		t.Fatal(err)
	}
	checkRecords(t, got)

	if _, err := ImportRecords(filepath.Join(dir, "missing.json")); !orgerrors.Is(err, orgerrors.ErrCodeFileNotFound) {
		t.Errorf("missing file: %v", err)
	}
}

func TestRecordsRoundTrip(t *testing.T) {
	in, err := ReadRecords(strings.NewReader(jsonRecords), FormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	for _, format := range []Format{FormatJSON, FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			if err := WriteRecords(in, &buf, format); err != nil {
				t.Fatal(err)
			}
			out, err := ReadRecords(&buf, format)
			if err != nil {
				t.Fatalf("re-read: %v\n%s", err, buf.String())
			}
			checkRecords(t, out)
		})
	}

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := ExportRecords(in, path); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "parentId: O-1") {
		t.Errorf("yaml export:\n%s", data)
	}
}

func TestFormat(t *testing.T) {
	if FormatFromPath("a/b.YAML") != FormatYAML || FormatFromPath("x.json") != FormatJSON || FormatFromPath("x") != FormatJSON {
		t.Error("FormatFromPath")
	}
	if f, err := ParseFormat("yml"); err != nil || f != FormatYAML {
		t.Errorf("ParseFormat(yml) = %v, %v", f, err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("xml accepted")
	}
}
