package tree

import (
	"errors"
	"slices"
	"testing"

	orgerrors "github.com/matzehuels/orgtree/pkg/errors"
)

func rec(id, parent string) Record { return Record{ID: id, ParentID: parent} }

func ids(nodes []*Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}

func mustBuild(t *testing.T, records []Record) *Tree {
	t.Helper()
	tr, err := Build(records, Options{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return tr
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name    string
		records []Record
		want    error
	}{
		{"empty input", nil, ErrNoRoot},
		{"unknown parent", []Record{rec("X", "Y")}, ErrUnknownParent},
		{"multiple roots", []Record{rec("A", ""), rec("B", "")}, ErrMultipleRoots},
		{"empty id", []Record{rec("", "")}, ErrEmptyID},
		{"duplicate id", []Record{rec("A", ""), rec("A", "")}, ErrDuplicateID},
		{"self parent", []Record{rec("R", ""), rec("A", "A")}, ErrCycle},
		{"cycle beside root", []Record{rec("R", ""), rec("A", "B"), rec("B", "C"), rec("C", "A")}, ErrCycle},
		{"everything in a cycle", []Record{rec("A", "B"), rec("B", "A")}, ErrNoRoot},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := Build(tt.records, Options{})
			if err == nil {
				t.Fatalf("Build() = %v, want error", tr)
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
			if !orgerrors.Is(err, orgerrors.ErrCodeMalformedTree) {
				t.Errorf("code = %q, want MALFORMED_TREE", orgerrors.GetCode(err))
			}
		})
	}
}

func TestBuildRequireTemplate(t *testing.T) {
	records := []Record{{ID: "R", Template: "<b>R</b>"}, {ID: "A", ParentID: "R"}}

	_, err := Build(records, Options{RequireTemplate: true})
	if !errors.Is(err, ErrMissingTemplate) || !orgerrors.Is(err, orgerrors.ErrCodeMissingTemplate) {
		t.Fatalf("err = %v, want missing template", err)
	}
	if _, err := Build(records, Options{}); err != nil {
		t.Fatalf("Build without RequireTemplate: %v", err)
	}
}

func TestBuildCountsAndOrder(t *testing.T) {
	tr := mustBuild(t, []Record{
		rec("b2", "b"),
		rec("root", ""),
		rec("b", "root"),
		rec("a", "root"),
		rec("b1", "b"),
		rec("b1x", "b1"),
	})

	if tr.Root.ID != "root" {
		t.Fatalf("root = %q", tr.Root.ID)
	}
	if got := ids(tr.Root.Children()); !slices.Equal(got, []string{"b", "a"}) {
		t.Errorf("root children = %v, want input order [b a]", got)
	}
	b, _ := tr.Node("b")
	if got := ids(b.Children()); !slices.Equal(got, []string{"b2", "b1"}) {
		t.Errorf("b children = %v", got)
	}

	tests := []struct {
		id            string
		direct, total int
		depth         int
	}{
		{"root", 2, 5, 0},
		{"b", 2, 3, 1},
		{"a", 0, 0, 1},
		{"b1", 1, 1, 2},
		{"b1x", 0, 0, 3},
	}
	for _, tt := range tests {
		n, ok := tr.Node(tt.id)
		if !ok {
			t.Fatalf("node %q missing", tt.id)
		}
		if n.DirectCount != tt.direct || n.TotalCount != tt.total || n.Depth != tt.depth {
			t.Errorf("%s: direct=%d total=%d depth=%d, want %d %d %d",
				tt.id, n.DirectCount, n.TotalCount, n.Depth, tt.direct, tt.total, tt.depth)
		}
	}
}

func TestRecords(t *testing.T) {
	in := []Record{
		rec("b", "root"),
		{ID: "root", Template: "<p>r</p>", Payload: map[string]any{"width": 120.0}},
		{ID: "c", ParentID: "b", Expanded: true},
	}
	tr := mustBuild(t, in)
	got := tr.Records()
	if len(got) != len(in) {
		t.Fatalf("Records() has %d records, want %d", len(got), len(in))
	}
	for i := range in {
		if got[i].ID != in[i].ID || got[i].ParentID != in[i].ParentID ||
			got[i].Template != in[i].Template || got[i].Expanded != in[i].Expanded {
			t.Errorf("record %d = %+v, want %+v", i, got[i], in[i])
		}
	}
	if got[1].Payload["width"] != 120.0 {
		t.Errorf("payload = %v", got[1].Payload)
	}
}

func TestLayoutGrid(t *testing.T) {
	tr := mustBuild(t, []Record{
		rec("R", ""),
		rec("A", "R"),
		rec("B", "R"),
		rec("A1", "A"),
		rec("A2", "A"),
		rec("A3", "A"),
	})
	px, py := tr.Pitch()
	if px != 424 || py != 232 {
		t.Fatalf("pitch = %v,%v; want 424,232", px, py)
	}

	// Leaves A1 A2 A3 B take slots 0..3, A sits on 1, R on (1+3)/2=2.
	want := map[string][2]float64{
		"R":  {0, 0},
		"A":  {-424, 232},
		"B":  {424, 232},
		"A1": {-848, 464},
		"A2": {-424, 464},
		"A3": {0, 464},
	}
	for id, pos := range want {
		n, _ := tr.Node(id)
		if n.X != pos[0] || n.Y != pos[1] {
			t.Errorf("%s at (%v,%v), want (%v,%v)", id, n.X, n.Y, pos[0], pos[1])
		}
	}

	InitialCollapse(tr.Root)
	tr.Layout()
	a, _ := tr.Node("A")
	b, _ := tr.Node("B")
	if a.X != -212 || b.X != 212 {
		t.Errorf("collapsed layout A=%v B=%v, want -212 212", a.X, b.X)
	}
}

func TestLayoutUsesWidestNode(t *testing.T) {
	tr, err := Build([]Record{
		{ID: "R"},
		{ID: "A", ParentID: "R", Payload: map[string]any{"width": 500}},
		{ID: "B", ParentID: "R", Payload: map[string]any{"height": 300}},
	}, Options{HorizontalGap: 50, LevelGap: 20})
	if err != nil {
		t.Fatal(err)
	}
	px, py := tr.Pitch()
	if px != 550 || py != 320 {
		t.Errorf("pitch = %v,%v; want 550,320", px, py)
	}
	if tr.MaxNodeHeight() != 300 {
		t.Errorf("MaxNodeHeight = %v", tr.MaxNodeHeight())
	}
}

func TestSetViewRoot(t *testing.T) {
	tr := mustBuild(t, []Record{rec("R", ""), rec("A", "R"), rec("A1", "A"), rec("B", "R"), rec("A2", "A")})

	if err := tr.SetViewRoot("A"); err != nil {
		t.Fatal(err)
	}
	tr.Layout()
	if got := ids(tr.Visible()); !slices.Equal(got, []string{"A", "A1", "A2"}) {
		t.Errorf("visible = %v", got)
	}
	var links []string
	for _, l := range tr.Links() {
		links = append(links, l.ID())
	}
	if !slices.Equal(links, []string{"A1", "A2"}) {
		t.Errorf("links = %v", links)
	}
	a, _ := tr.Node("A")
	a1, _ := tr.Node("A1")
	if a.X != 0 || a.Y != 0 || a1.X != -212 || a1.Y != 232 {
		t.Errorf("A at %v, A1 at %v", a.Position(), a1.Position())
	}

	if err := tr.SetViewRoot("nope"); !orgerrors.Is(err, orgerrors.ErrCodeNodeNotFound) {
		t.Errorf("err = %v, want NODE_NOT_FOUND", err)
	}
	if err := tr.SetViewRoot(""); err != nil || tr.ViewRoot() != tr.Root {
		t.Errorf("reset: err=%v root=%v", err, tr.ViewRoot().ID)
	}
}

func TestBounds(t *testing.T) {
	tr := mustBuild(t, []Record{rec("R", ""), rec("A", "R"), rec("B", "R")})
	minX, minY, maxX, maxY := tr.Bounds()
	if minX != -212-162 || maxX != 212+162 || minY != -66 || maxY != 232+66 {
		t.Errorf("Bounds = %v %v %v %v", minX, minY, maxX, maxY)
	}
}
