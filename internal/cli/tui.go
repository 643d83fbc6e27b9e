package cli

import (
	"context"
	"fmt"
	"html"
	"math"
	"regexp"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/matzehuels/orgtree/pkg/chart"
	"github.com/matzehuels/orgtree/pkg/geometry"
	"github.com/matzehuels/orgtree/pkg/pipeline"
	"github.com/matzehuels/orgtree/pkg/render"
	"github.com/matzehuels/orgtree/pkg/tree"
)

// Chart view styles
var (
	tuiNodeStyle     = lipgloss.NewStyle().Foreground(colorWhite)
	tuiSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan).Reverse(true)
	tuiFadedStyle    = lipgloss.NewStyle().Foreground(colorDim)
	tuiLinkStyle     = lipgloss.NewStyle().Foreground(colorGray)
	tuiHeaderStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
)

const (
	frameInterval = 16 * time.Millisecond
	maxLabelWidth = 24
	zoomStep      = 1.25

	// Cells per chart pixel before zooming.
	maxColsPerPx = 0.12
	maxRowsPerPx = 0.04
)

// tuiCommand creates the tui command.
func (c *CLI) tuiCommand() *cobra.Command {
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "tui [records.json|records.yaml]",
		Short: "Browse the chart in the terminal",
		Long: `Browse the chart in the terminal.

Keys:
  ↑/↓ k/j     previous/next node        ← h   parent        → l   first child
  enter/space expand or collapse        c     click node
  r           show subtree of node      u     show whole tree
  + -         zoom                      H J K L  pan
  q           quit`,
		Args:              fileArg,
		ValidArgsFunction: completeRecordFiles,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Input = args[0]
			return c.runTUI(cmd.Context(), opts)
		},
	}
	sizeFlags(cmd, &opts)
	viewFlags(cmd, &opts)
	return cmd
}

func (c *CLI) runTUI(ctx context.Context, opts pipeline.Options) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	opts.Config = cfg
	// The log would draw over the chart.
	c.SetLogLevel(LogError)
	opts.Logger = c.Logger

	records, _, err := pipeline.Load(ctx, opts)
	if err != nil {
		return err
	}
	m := &chartModel{title: opts.Input, now: time.Now}
	chartCfg, err := pipeline.Builder(opts).OnNodeClick(m.clicked).Build()
	if err != nil {
		return err
	}
	scene := render.NewScene(chartCfg.Width(), chartCfg.Height())
	ch, err := chart.New(chartCfg, scene)
	if err != nil {
		return err
	}
	if err := ch.SetData(records); err != nil {
		return err
	}
	if opts.Root != "" {
		if err := ch.SetRoot(opts.Root); err != nil {
			return err
		}
	}
	for _, id := range opts.Toggles {
		if _, err := ch.ToggleNode(id); err != nil {
			return err
		}
	}
	m.attach(ch, scene)

	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

// =============================================================================
// chartModel - Interactive chart
// =============================================================================

type tickMsg time.Time

// chartModel draws the chart scene as text. Node positions come from the
// scene, so toggles animate the way they do in the browser.
type chartModel struct {
	title  string
	chart  *chart.Chart
	scene  *render.Scene
	labels map[string]string
	now    func() time.Time

	cursor        string
	width, height int
	panX, panY    int
	status        string
}

func (m *chartModel) attach(c *chart.Chart, s *render.Scene) {
	m.chart = c
	m.scene = s
	m.labels = make(map[string]string, c.Tree().Len())
	for _, n := range c.Tree().Nodes() {
		m.labels[n.ID] = plainLabel(n.Template, n.ID)
	}
	m.cursor = c.Tree().ViewRoot().ID
	if m.width == 0 {
		m.width, m.height = 100, 30
	}
}

func (m *chartModel) clicked(id string) {
	m.status = "clicked " + m.labels[id]
}

func (m *chartModel) Init() tea.Cmd { return m.tick() }

// tick schedules the next animation frame while a transition runs.
func (m *chartModel) tick() tea.Cmd {
	if !m.scene.Animating(m.now()) {
		return nil
	}
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *chartModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil
	case tickMsg:
		return m, m.tick()
	case tea.KeyMsg:
		return m, m.key(msg.String())
	}
	return m, nil
}

func (m *chartModel) key(k string) tea.Cmd {
	m.status = ""
	switch k {
	case "q", "ctrl+c", "esc":
		return tea.Quit
	case "up", "k":
		m.step(-1)
	case "down", "j":
		m.step(1)
	case "left", "h":
		if n, ok := m.chart.Node(m.cursor); ok && n.Parent != nil && n != m.chart.Tree().ViewRoot() {
			m.cursor = n.Parent.ID
		}
	case "right", "l":
		if n, ok := m.chart.Node(m.cursor); ok {
			if kids := n.Children(); len(kids) > 0 {
				m.cursor = kids[0].ID
			}
		}
	case "enter", " ":
		state, err := m.chart.ToggleNode(m.cursor)
		m.report(err, fmt.Sprintf("%s %s", m.labels[m.cursor], state))
	case "e":
		m.report(m.chart.ExpandSubtree(m.cursor), m.labels[m.cursor]+" expanded all")
	case "c":
		if err := m.chart.Click(chart.ClickEvent{NodeID: m.cursor, Target: chart.TargetNode}); err != nil {
			m.report(err, "")
		}
	case "r":
		m.report(m.chart.SetRoot(m.cursor), "root "+m.labels[m.cursor])
	case "u":
		m.report(m.chart.SetRoot(""), "whole tree")
		m.keepCursor()
	case "+", "=":
		m.zoom(zoomStep)
	case "-":
		m.zoom(1 / zoomStep)
	case "H":
		m.panX += 4
	case "L":
		m.panX -= 4
	case "K":
		m.panY += 2
	case "J":
		m.panY -= 2
	}
	return m.tick()
}

func (m *chartModel) report(err error, ok string) {
	if err != nil {
		m.status = "error: " + err.Error()
		return
	}
	m.status = ok
}

// step moves the cursor through the visible nodes in pre-order.
func (m *chartModel) step(delta int) {
	visible := m.chart.Tree().Visible()
	for i, n := range visible {
		if n.ID == m.cursor {
			j := min(max(i+delta, 0), len(visible)-1)
			m.cursor = visible[j].ID
			return
		}
	}
	m.keepCursor()
}

// keepCursor moves the cursor to the view root if its node is hidden.
func (m *chartModel) keepCursor() {
	for _, n := range m.chart.Tree().Visible() {
		if n.ID == m.cursor {
			return
		}
	}
	m.cursor = m.chart.Tree().ViewRoot().ID
}

func (m *chartModel) zoom(factor float64) {
	t := m.chart.View().Transform
	t.Scale *= factor
	m.report(m.chart.Zoom(t), fmt.Sprintf("zoom %.0f%%", t.Scale*100))
}

// =============================================================================
// Drawing
// =============================================================================

func (m *chartModel) View() string {
	sample := m.scene.Sample(m.now())
	rows := max(m.height-2, 4)

	var b strings.Builder
	b.WriteString(tuiHeaderStyle.Render(appName) + " " + StyleDim.Render(m.header(sample)))
	b.WriteByte('\n')
	b.WriteString(m.canvas(sample, m.width, rows))
	b.WriteByte('\n')
	footer := "↑↓←→ move · enter toggle · e expand all · r root · u reset · +/- zoom · q quit"
	if m.status != "" {
		footer = m.status
	}
	b.WriteString(StyleDim.Render(runewidth.Truncate(footer, m.width, "…")))
	return b.String()
}

func (m *chartModel) header(s render.Sample) string {
	visible := 0
	for _, n := range s.Nodes {
		if !n.Exiting {
			visible++
		}
	}
	parts := []string{m.title, fmt.Sprintf("%d of %d nodes", visible, m.chart.Tree().Len())}
	if root := m.chart.View().RootID; root != "" {
		parts = append(parts, "root "+m.labels[root])
	}
	return strings.Join(parts, " · ")
}

// cellStyle indexes the styles a grid cell can take.
type cellStyle uint8

const (
	cellBlank cellStyle = iota
	cellLink
	cellNode
	cellFaded
	cellSelected
)

type cell struct {
	r     rune
	style cellStyle
	// skip marks the second column of a wide rune.
	skip bool
}

type grid struct {
	w, h  int
	cells []cell
}

func newGrid(w, h int) *grid {
	g := &grid{w: w, h: h, cells: make([]cell, w*h)}
	for i := range g.cells {
		g.cells[i].r = ' '
	}
	return g
}

func (g *grid) set(col, row int, r rune, style cellStyle) {
	if col < 0 || row < 0 || col >= g.w || row >= g.h {
		return
	}
	c := &g.cells[row*g.w+col]
	if c.style >= cellNode && style == cellLink {
		return
	}
	*c = cell{r: r, style: style}
}

// text writes s starting at col, honouring wide runes.
func (g *grid) text(col, row int, s string, style cellStyle) {
	for _, r := range s {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		g.set(col, row, r, style)
		if w == 2 && col+1 >= 0 && col+1 < g.w && row >= 0 && row < g.h {
			g.cells[row*g.w+col+1] = cell{skip: true, style: style}
		}
		col += w
	}
}

func (g *grid) String() string {
	styles := map[cellStyle]lipgloss.Style{
		cellBlank:    lipgloss.NewStyle(),
		cellLink:     tuiLinkStyle,
		cellNode:     tuiNodeStyle,
		cellFaded:    tuiFadedStyle,
		cellSelected: tuiSelectedStyle,
	}
	var b strings.Builder
	for row := 0; row < g.h; row++ {
		if row > 0 {
			b.WriteByte('\n')
		}
		// Render runs of equal style together.
		var run strings.Builder
		cur := cellBlank
		flush := func() {
			if run.Len() > 0 {
				b.WriteString(styles[cur].Render(run.String()))
				run.Reset()
			}
		}
		for col := 0; col < g.w; col++ {
			c := g.cells[row*g.w+col]
			if c.skip {
				continue
			}
			if c.style != cur {
				flush()
				cur = c.style
			}
			run.WriteRune(c.r)
		}
		flush()
	}
	return b.String()
}

// projection maps chart coordinates to grid cells.
type projection struct {
	minX, minY float64
	sx, sy     float64
	offX, offY float64
}

func (p projection) at(pt geometry.Point) (int, int) {
	return int(math.Round((pt.X-p.minX)*p.sx + p.offX)), int(math.Round((pt.Y-p.minY)*p.sy + p.offY))
}

// project fits the chart's target state into w×h cells, then applies the
// view zoom and the pan offset.
func (m *chartModel) project(s render.Sample, w, h int) projection {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, n := range s.Nodes {
		if n.Exiting {
			continue
		}
		minX, maxX = math.Min(minX, n.At.X), math.Max(maxX, n.At.X)
		minY, maxY = math.Min(minY, n.At.Y), math.Max(maxY, n.At.Y)
	}
	if math.IsInf(minX, 1) {
		return projection{}
	}
	spanX, spanY := math.Max(maxX-minX, 1), math.Max(maxY-minY, 1)
	zoom := s.View.Scale
	if zoom <= 0 {
		zoom = 1
	}
	p := projection{
		minX: minX,
		minY: minY,
		sx:   math.Min(float64(w-maxLabelWidth)/spanX, maxColsPerPx) * zoom,
		sy:   math.Min(float64(h-1)/spanY, maxRowsPerPx) * zoom,
	}
	p.offX = (float64(w)-spanX*p.sx)/2 + float64(m.panX)
	p.offY = math.Max((float64(h)-spanY*p.sy)/2, 0) + float64(m.panY)
	return p
}

func (m *chartModel) canvas(s render.Sample, w, h int) string {
	g := newGrid(w, h)
	p := m.project(s, w, h)

	for _, l := range s.Links {
		c1, r1 := p.at(l.Connector.Source)
		c2, r2 := p.at(l.Connector.Target)
		elbow(g, c1, r1, c2, r2)
	}
	for _, n := range s.Nodes {
		label := m.nodeLabel(n)
		col, row := p.at(n.At)
		col -= runewidth.StringWidth(label) / 2
		style := cellNode
		switch {
		case n.ID == m.cursor && !n.Exiting:
			style = cellSelected
		case n.Exiting || n.Opacity < 0.5:
			style = cellFaded
		}
		g.text(col, row, label, style)
	}
	return g.String()
}

// elbow draws a vertical-horizontal-vertical connector between two cells.
func elbow(g *grid, c1, r1, c2, r2 int) {
	mid := (r1 + r2) / 2
	vline(g, c1, r1, mid)
	vline(g, c2, mid, r2)
	lo, hi := min(c1, c2), max(c1, c2)
	for c := lo; c <= hi; c++ {
		g.set(c, mid, '─', cellLink)
	}
}

func vline(g *grid, col, a, b int) {
	for r := min(a, b); r <= max(a, b); r++ {
		g.set(col, r, '│', cellLink)
	}
}

func (m *chartModel) nodeLabel(n render.NodeSample) string {
	name := runewidth.Truncate(m.labels[n.ID], maxLabelWidth-4, "…")
	switch n.View.State {
	case tree.Expanded:
		return "▾ " + name
	case tree.Collapsed:
		return fmt.Sprintf("▸ %s +%d", name, n.View.TotalCount)
	default:
		return "• " + name
	}
}

var (
	tagPattern   = regexp.MustCompile(`<[^>]*>`)
	spacePattern = regexp.MustCompile(`\s+`)
)

// plainLabel reduces a card template to its text, or fallback when it has
// none.
func plainLabel(template, fallback string) string {
	text := tagPattern.ReplaceAllString(template, " ")
	text = strings.TrimSpace(spacePattern.ReplaceAllString(html.UnescapeString(text), " "))
	if text == "" {
		return fallback
	}
	return text
}
