package chart

import (
	"errors"
	"math"
	"slices"
	"testing"
	"time"

	orgerrors "github.com/matzehuels/orgtree/pkg/errors"
	"github.com/matzehuels/orgtree/pkg/geometry"
	"github.com/matzehuels/orgtree/pkg/observability"
	"github.com/matzehuels/orgtree/pkg/reconcile"
	"github.com/matzehuels/orgtree/pkg/tree"
)

type fakeSurface struct {
	w, h       float64
	frames     []*Frame
	transforms []Transform
	sink       EventSink
}

func (s *fakeSurface) Size() (float64, float64) { return s.w, s.h }
func (s *fakeSurface) Apply(f *Frame)           { s.frames = append(s.frames, f) }
func (s *fakeSurface) SetTransform(t Transform) { s.transforms = append(s.transforms, t) }
func (s *fakeSurface) Bind(sink EventSink)      { s.sink = sink }

func (s *fakeSurface) last() *Frame { return s.frames[len(s.frames)-1] }

type countingHooks struct {
	observability.NoopChartHooks
	builds, failed int
	toggles        []string
	warnings       []string
}

func (h *countingHooks) OnBuild(_ int, _ time.Duration, err error) {
	h.builds++
	if err != nil {
		h.failed++
	}
}

func (h *countingHooks) OnToggle(id, state string)         { h.toggles = append(h.toggles, id+":"+state) }
func (h *countingHooks) OnStyleWarning(id string, _ error) { h.warnings = append(h.warnings, id) }

func records() []tree.Record {
	return []tree.Record{
		{ID: "O-1", Template: "<div>O-1</div>"},
		{ID: "A", ParentID: "O-1", Template: "<div>A</div>"},
		{ID: "B", ParentID: "A", Template: "<div>B</div>"},
	}
}

type fixture struct {
	chart   *Chart
	surface *fakeSurface
	hooks   *countingHooks
	now     time.Time
	clicks  []string
}

func newFixture(t *testing.T, configure ...func(*Builder)) *fixture {
	t.Helper()
	fx := &fixture{surface: &fakeSurface{}, hooks: &countingHooks{}, now: time.Unix(1000, 0)}
	b := NewBuilder().
		ID("test").
		Hooks(fx.hooks).
		Clock(func() time.Time { return fx.now }).
		OnNodeClick(func(id string) { fx.clicks = append(fx.clicks, id) })
	for _, fn := range configure {
		fn(b)
	}
	cfg, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	fx.chart, err = New(cfg, fx.surface)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return fx
}

func visibleIDs(c *Chart) []string {
	var out []string
	for _, n := range c.Visible() {
		out = append(out, n.ID)
	}
	return out
}

func changeIDs(cs []reconcile.NodeChange) []string {
	var out []string
	for _, c := range cs {
		out = append(out, c.ID)
	}
	return out
}

func TestBuilderDefaults(t *testing.T) {
	cfg, err := NewBuilder().Build()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width() != 800 || cfg.Height() != 600 {
		t.Errorf("size = %vx%v", cfg.Width(), cfg.Height())
	}
	if cfg.Margins() != (Margins{Top: 100}) {
		t.Errorf("margins = %+v", cfg.Margins())
	}
	if cfg.Duration() != 600*time.Millisecond || cfg.InitialZoom() != 1 {
		t.Errorf("duration=%v zoom=%v", cfg.Duration(), cfg.InitialZoom())
	}
	if cfg.Background() != "#e8e8e8" || !cfg.RequireTemplate() {
		t.Errorf("background=%q requireTemplate=%v", cfg.Background(), cfg.RequireTemplate())
	}
	if cfg.ID() == "" || cfg.ShadowFilterID() != cfg.ID()+"-drop-shadow" {
		t.Errorf("id=%q shadow=%q", cfg.ID(), cfg.ShadowFilterID())
	}
	if cfg.Style().ShadowFilterID != cfg.ShadowFilterID() {
		t.Errorf("style shadow id = %q", cfg.Style().ShadowFilterID)
	}

	other, _ := NewBuilder().Build()
	if other.ID() == cfg.ID() {
		t.Error("two charts share an id")
	}
}

func TestBuilderValidation(t *testing.T) {
	tests := []struct {
		name string
		b    *Builder
	}{
		{"zero width", NewBuilder().Width(0)},
		{"negative height", NewBuilder().Height(-1)},
		{"zero zoom", NewBuilder().InitialZoom(0)},
		{"negative duration", NewBuilder().Duration(-time.Second)},
		{"negative gap", NewBuilder().LevelGap(-5)},
		{"zero gap", NewBuilder().HorizontalGap(0)},
		{"margins too wide", NewBuilder().Margins(Margins{Left: 500, Right: 400})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.b.Build(); !orgerrors.Is(err, orgerrors.ErrCodeInvalidConfig) {
				t.Errorf("err = %v, want INVALID_CONFIG", err)
			}
		})
	}
}

func TestNewRejectsZeroConfig(t *testing.T) {
	if _, err := New(Config{}, nil); !orgerrors.Is(err, orgerrors.ErrCodeInvalidConfig) {
		t.Errorf("err = %v", err)
	}
}

func TestScenarioInitialCollapse(t *testing.T) {
	fx := newFixture(t)
	if err := fx.chart.SetData(records()); err != nil {
		t.Fatal(err)
	}

	if got := visibleIDs(fx.chart); !slices.Equal(got, []string{"O-1", "A"}) {
		t.Errorf("visible = %v, want [O-1 A]", got)
	}
	f := fx.surface.last()
	if f.Seq != 1 || f.Reason != ReasonData {
		t.Errorf("frame %d %s", f.Seq, f.Reason)
	}
	if got := changeIDs(f.Result.Nodes.Enter); !slices.Equal(got, []string{"O-1", "A"}) {
		t.Errorf("enter = %v", got)
	}
	if f.Result.Origin.Prior != (geometry.Point{}) {
		t.Errorf("first frame enters from %v", f.Result.Origin.Prior)
	}
	if fx.surface.sink != fx.chart {
		t.Error("surface was not bound")
	}
}

func TestScenarioExpandedFlag(t *testing.T) {
	fx := newFixture(t)
	recs := records()
	recs[2].Expanded = true
	if err := fx.chart.SetData(recs); err != nil {
		t.Fatal(err)
	}
	if got := visibleIDs(fx.chart); !slices.Equal(got, []string{"O-1", "A", "B"}) {
		t.Errorf("visible = %v, want [O-1 A B]", got)
	}
}

func TestScenarioToggle(t *testing.T) {
	fx := newFixture(t)
	if err := fx.chart.SetData(records()); err != nil {
		t.Fatal(err)
	}
	a, _ := fx.chart.Node("A")
	drawnAt := a.Position()

	state, err := fx.chart.ToggleNode("A")
	if err != nil || state != tree.Expanded {
		t.Fatalf("ToggleNode = %v, %v", state, err)
	}
	if got := visibleIDs(fx.chart); !slices.Equal(got, []string{"O-1", "A", "B"}) {
		t.Errorf("visible = %v, want [O-1 A B]", got)
	}
	f := fx.surface.last()
	if got := changeIDs(f.Result.Nodes.Enter); !slices.Equal(got, []string{"B"}) {
		t.Fatalf("enter = %v", got)
	}
	if f.Result.Nodes.Enter[0].From != drawnAt {
		t.Errorf("B enters from %v, want A's drawn position %v", f.Result.Nodes.Enter[0].From, drawnAt)
	}

	if _, err := fx.chart.ToggleNode("A"); err != nil {
		t.Fatal(err)
	}
	f = fx.surface.last()
	if got := changeIDs(f.Result.Nodes.Exit); !slices.Equal(got, []string{"B"}) {
		t.Fatalf("exit = %v", got)
	}
	a, _ = fx.chart.Node("A")
	if f.Result.Nodes.Exit[0].To != a.Position() {
		t.Errorf("B exits to %v, want %v", f.Result.Nodes.Exit[0].To, a.Position())
	}
	if !slices.Equal(fx.hooks.toggles, []string{"A:expanded", "A:collapsed"}) {
		t.Errorf("toggle hooks = %v", fx.hooks.toggles)
	}
}

func TestToggleLeafAndUnknown(t *testing.T) {
	fx := newFixture(t)
	if err := fx.chart.SetData(records()); err != nil {
		t.Fatal(err)
	}
	frames := len(fx.surface.frames)

	if s, err := fx.chart.ToggleNode("B"); err != nil || s != tree.Leaf {
		t.Errorf("ToggleNode(leaf) = %v, %v", s, err)
	}
	if len(fx.surface.frames) != frames {
		t.Error("toggling a leaf drew a frame")
	}
	if _, err := fx.chart.ToggleNode("nope"); !orgerrors.Is(err, orgerrors.ErrCodeNodeNotFound) {
		t.Errorf("err = %v, want NODE_NOT_FOUND", err)
	}
}

func TestExpandSubtree(t *testing.T) {
	fx := newFixture(t)
	data := append(records(), tree.Record{ID: "C", ParentID: "B", Template: "<div>C</div>"})
	if err := fx.chart.SetData(data); err != nil {
		t.Fatal(err)
	}

	if err := fx.chart.ExpandSubtree("A"); err != nil {
		t.Fatal(err)
	}
	if got := visibleIDs(fx.chart); !slices.Equal(got, []string{"O-1", "A", "B", "C"}) {
		t.Errorf("visible = %v, want [O-1 A B C]", got)
	}
	if got := changeIDs(fx.surface.last().Result.Nodes.Enter); !slices.Equal(got, []string{"B", "C"}) {
		t.Errorf("enter = %v, want [B C]", got)
	}
	if !slices.Equal(fx.hooks.toggles, []string{"A:expanded"}) {
		t.Errorf("toggle hooks = %v", fx.hooks.toggles)
	}

	frames := len(fx.surface.frames)
	if err := fx.chart.ExpandSubtree("C"); err != nil || len(fx.surface.frames) != frames {
		t.Errorf("ExpandSubtree(leaf) err = %v, frames %d -> %d", err, frames, len(fx.surface.frames))
	}
	if err := fx.chart.ExpandSubtree("nope"); !orgerrors.Is(err, orgerrors.ErrCodeNodeNotFound) {
		t.Errorf("err = %v, want NODE_NOT_FOUND", err)
	}
}

func TestClickDispatch(t *testing.T) {
	fx := newFixture(t)
	if err := fx.chart.SetData(records()); err != nil {
		t.Fatal(err)
	}

	if err := fx.surface.sink.Click(ClickEvent{NodeID: "A", Target: TargetToggle}); err != nil {
		t.Fatal(err)
	}
	if len(fx.clicks) != 0 {
		t.Errorf("toggle click reached the node handler: %v", fx.clicks)
	}
	if n, _ := fx.chart.Node("A"); n.State() != tree.Expanded {
		t.Errorf("A = %v after toggle click", n.State())
	}

	if err := fx.surface.sink.Click(ClickEvent{NodeID: "B", Target: TargetNode}); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(fx.clicks, []string{"B"}) {
		t.Errorf("clicks = %v", fx.clicks)
	}

	if err := fx.chart.Click(ClickEvent{NodeID: "ghost"}); !orgerrors.Is(err, orgerrors.ErrCodeNodeNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestSetDataFailureKeepsPreviousTree(t *testing.T) {
	fx := newFixture(t)
	if err := fx.chart.SetData(records()); err != nil {
		t.Fatal(err)
	}
	before, frame := fx.chart.Tree(), fx.chart.Frame()

	err := fx.chart.SetData([]tree.Record{{ID: "X", ParentID: "Y", Template: "x"}})
	if !orgerrors.Is(err, orgerrors.ErrCodeMalformedTree) || !errors.Is(err, tree.ErrUnknownParent) {
		t.Fatalf("err = %v", err)
	}
	if fx.chart.Tree() != before || fx.chart.Frame() != frame {
		t.Error("failed build replaced the tree")
	}
	if fx.hooks.failed != 1 {
		t.Errorf("failed builds = %d", fx.hooks.failed)
	}

	err = fx.chart.SetData([]tree.Record{{ID: "R"}})
	if !orgerrors.Is(err, orgerrors.ErrCodeMissingTemplate) {
		t.Errorf("err = %v, want MISSING_TEMPLATE", err)
	}
}

func TestSetDataPreservesState(t *testing.T) {
	fx := newFixture(t)
	if err := fx.chart.SetData(records()); err != nil {
		t.Fatal(err)
	}
	if _, err := fx.chart.ToggleNode("A"); err != nil {
		t.Fatal(err)
	}

	next := append(records(),
		tree.Record{ID: "C", ParentID: "O-1", Template: "c"},
		tree.Record{ID: "C1", ParentID: "C", Template: "c1"},
	)
	if err := fx.chart.SetData(next); err != nil {
		t.Fatal(err)
	}
	if got := visibleIDs(fx.chart); !slices.Equal(got, []string{"O-1", "A", "B", "C"}) {
		t.Errorf("visible = %v", got)
	}
	f := fx.surface.last()
	if got := changeIDs(f.Result.Nodes.Enter); !slices.Equal(got, []string{"C"}) {
		t.Errorf("enter = %v", got)
	}
	if got := changeIDs(f.Result.Nodes.Update); !slices.Equal(got, []string{"O-1", "A", "B"}) {
		t.Errorf("update = %v", got)
	}
}

func TestTransitionCancelAndRestart(t *testing.T) {
	fx := newFixture(t)
	if err := fx.chart.SetData(records()); err != nil {
		t.Fatal(err)
	}
	first := fx.surface.last().Transition

	fx.now = fx.now.Add(100 * time.Millisecond)
	if _, err := fx.chart.ToggleNode("A"); err != nil {
		t.Fatal(err)
	}
	second := fx.surface.last().Transition
	if !first.Canceled() {
		t.Error("running transition was not canceled")
	}
	if second.Canceled() || second.Start != fx.now {
		t.Errorf("new transition canceled=%v start=%v", second.Canceled(), second.Start)
	}

	fx.now = fx.now.Add(time.Second)
	if _, err := fx.chart.ToggleNode("A"); err != nil {
		t.Fatal(err)
	}
	if second.Canceled() {
		t.Error("finished transition was canceled")
	}
}

func TestZoom(t *testing.T) {
	fx := newFixture(t)
	if v := fx.chart.View(); v.Transform != (Transform{Y: 100, Scale: 1}) {
		t.Errorf("initial view = %+v", v.Transform)
	}
	for _, bad := range []Transform{
		{Scale: 0},
		{Scale: -2},
		{Scale: math.NaN()},
		{Scale: math.Inf(1)},
		{X: math.NaN(), Scale: 1},
		{Y: math.Inf(-1), Scale: 1},
	} {
		if err := fx.chart.Zoom(bad); !orgerrors.Is(err, orgerrors.ErrCodeInvalidInput) {
			t.Errorf("Zoom(%+v) err = %v, want INVALID_INPUT", bad, err)
		}
	}
	if len(fx.surface.transforms) != 0 {
		t.Errorf("rejected zooms reached the surface: %v", fx.surface.transforms)
	}
	z := Transform{X: 10, Y: -20, Scale: 1.5}
	if err := fx.chart.Zoom(z); err != nil {
		t.Fatal(err)
	}
	if fx.chart.View().Transform != z || len(fx.surface.transforms) != 1 {
		t.Errorf("view = %+v transforms = %v", fx.chart.View(), fx.surface.transforms)
	}
	if got := z.String(); got != "translate(10,-20) scale(1.5)" {
		t.Errorf("String = %q", got)
	}
}

func TestCanvasAndResize(t *testing.T) {
	fx := newFixture(t, func(b *Builder) { b.InitialZoom(0.8) })
	if err := fx.chart.SetData(records()); err != nil {
		t.Fatal(err)
	}
	c := fx.surface.last().Canvas
	if c.Center != (geometry.Point{X: 400, Y: 66}) || c.Zoom != 0.8 {
		t.Errorf("canvas = %+v", c)
	}
	if c.ShadowFilterID != "test-drop-shadow" || c.ChartID != "test" {
		t.Errorf("ids = %q %q", c.ChartID, c.ShadowFilterID)
	}

	fx.surface.w, fx.surface.h = 1200, 900
	if err := fx.chart.Resize(); err != nil {
		t.Fatal(err)
	}
	f := fx.surface.last()
	if f.Reason != ReasonResize || f.Canvas.Width != 1200 || f.Canvas.Height != 900 || f.Canvas.Center.X != 600 {
		t.Errorf("resized canvas = %+v", f.Canvas)
	}
}

func TestSetRoot(t *testing.T) {
	fx := newFixture(t)
	if err := fx.chart.SetData(records()); err != nil {
		t.Fatal(err)
	}
	if err := fx.chart.SetRoot("A"); err != nil {
		t.Fatal(err)
	}
	if got := visibleIDs(fx.chart); !slices.Equal(got, []string{"A"}) {
		t.Errorf("visible = %v", got)
	}
	if fx.chart.View().RootID != "A" {
		t.Errorf("view root = %q", fx.chart.View().RootID)
	}
	f := fx.surface.last()
	if got := changeIDs(f.Result.Nodes.Exit); !slices.Equal(got, []string{"O-1"}) {
		t.Errorf("exit = %v", got)
	}

	if err := fx.chart.SetRoot("ghost"); !orgerrors.Is(err, orgerrors.ErrCodeNodeNotFound) {
		t.Errorf("err = %v", err)
	}
	if err := fx.chart.SetRoot(""); err != nil {
		t.Fatal(err)
	}
	if got := visibleIDs(fx.chart); !slices.Equal(got, []string{"O-1", "A"}) {
		t.Errorf("visible after reset = %v", got)
	}
}

func TestStyleWarningsReported(t *testing.T) {
	fx := newFixture(t)
	recs := records()
	recs[1].Payload = map[string]any{"nodeImage": map[string]any{"cornerShape": "BLOB"}}
	if err := fx.chart.SetData(recs); err != nil {
		t.Fatalf("style problems must not fail a build: %v", err)
	}
	if !slices.Equal(fx.hooks.warnings, []string{"A"}) {
		t.Errorf("warnings = %v", fx.hooks.warnings)
	}
}

func TestRenderWithoutData(t *testing.T) {
	fx := newFixture(t)
	if err := fx.chart.Render(); !orgerrors.Is(err, orgerrors.ErrCodeInvalidInput) {
		t.Errorf("err = %v", err)
	}
	if err := fx.chart.Resize(); err != nil {
		t.Errorf("Resize without data: %v", err)
	}
}

func TestDataInConfig(t *testing.T) {
	fx := newFixture(t, func(b *Builder) { b.Data(records()) })
	if len(fx.surface.frames) != 1 || len(fx.chart.Visible()) != 2 {
		t.Errorf("frames = %d visible = %d", len(fx.surface.frames), len(fx.chart.Visible()))
	}
}
