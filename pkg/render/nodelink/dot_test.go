package nodelink

import (
	"strings"
	"testing"

	"github.com/matzehuels/orgtree/pkg/geometry"
	"github.com/matzehuels/orgtree/pkg/reconcile"
	"github.com/matzehuels/orgtree/pkg/tree"
)

func snapshot() reconcile.Snapshot {
	style := geometry.DefaultStyle()
	visual := func(id string) geometry.Visual {
		return geometry.ComputeVisual(geometry.Input{ID: id}, style)
	}
	return reconcile.Snapshot{
		Nodes: []reconcile.NodeView{
			{ID: "O-1", Visual: visual("O-1"), State: tree.Expanded, DirectCount: 2, TotalCount: 3},
			{ID: "A", Visual: visual("A"), State: tree.Collapsed, DirectCount: 1, TotalCount: 1},
			{ID: "B", Visual: visual("B"), State: tree.Leaf},
		},
		Links: []reconcile.LinkView{
			{ID: "A", ParentID: "O-1"},
			{ID: "B", ParentID: "O-1"},
		},
	}
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(snapshot(), Options{})
	for _, want := range []string{
		`digraph G {`,
		`"O-1" [label="O-1", fillcolor="#ffffff"`,
		`"O-1" -> "A";`,
		`"O-1" -> "B";`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
	if strings.Count(dot, "dashed") != 1 {
		t.Errorf("expected exactly the collapsed node dashed:\n%s", dot)
	}
}

func TestToDOTDetailed(t *testing.T) {
	dot := ToDOT(snapshot(), Options{Detailed: true})
	if !strings.Contains(dot, `label="O-1\ndirect: 2\ntotal: 3\nexpanded"`) {
		t.Errorf("detailed label missing:\n%s", dot)
	}
	if !strings.Contains(dot, `label="B\ndirect: 0\ntotal: 0"`) {
		t.Errorf("leaf label should carry no state:\n%s", dot)
	}
}

func TestHexColor(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"rgba(255,255,255,1)", "#ffffff", true},
		{"#d8d7d7", "#d8d7d7", true},
		{"rgba(0,0,0,0)", "", false},
		{"nonsense", "", false},
	}
	for _, tt := range tests {
		got, ok := hexColor(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("hexColor(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	out := string(normalizeViewBox(in))
	if !strings.HasPrefix(out, `<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" viewBox="0 0 100.00 50.00" width="100" height="50">`) {
		t.Errorf("normalized = %s", out)
	}
	if got := normalizeViewBox([]byte("<svg></svg>")); string(got) != "<svg></svg>" {
		t.Errorf("svg without viewBox changed: %s", got)
	}
}

func TestRenderSVG(t *testing.T) {
	out, err := RenderSVG(ToDOT(snapshot(), Options{}))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), `viewBox="0 0 `) {
		t.Errorf("viewBox not normalized: %.200s", out)
	}
	if _, err := RenderSVG("digraph {"); err == nil {
		t.Error("malformed DOT accepted")
	}
}
