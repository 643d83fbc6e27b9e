package graph

// FormatVersion is the layout format this package writes.
const FormatVersion = 1

// Node states as written to JSON.
const (
	StateLeaf      = "leaf"
	StateExpanded  = "expanded"
	StateCollapsed = "collapsed"
)

// =============================================================================
// Layout - Rendered Chart
// =============================================================================

// Layout is the visible part of a chart after a frame has finished
// animating.
type Layout struct {
	Version int    `json:"version"`
	ChartID string `json:"chart_id,omitempty"`

	// Container and view
	Width   float64   `json:"width"`
	Height  float64   `json:"height"`
	Margins Margins   `json:"margins"`
	Center  Point     `json:"center"`
	Zoom    float64   `json:"zoom"`
	View    Transform `json:"view"`
	RootID  string    `json:"root_id,omitempty"`

	Nodes []Node `json:"nodes"`
	Links []Link `json:"links,omitempty"`
}

// Point is a position in chart space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Margins of the container.
type Margins struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// Transform is the pan/zoom of the chart group.
type Transform struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Scale float64 `json:"scale"`
}

// =============================================================================
// Node - Positioned Card
// =============================================================================

// Node is one visible card.
type Node struct {
	ID          string  `json:"id"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	State       string  `json:"state"`
	Direct      int     `json:"direct"`
	Total       int     `json:"total"`
	Template    string  `json:"template,omitempty"`
	Background  string  `json:"background,omitempty"`
	BorderColor string  `json:"border_color,omitempty"`
	BorderWidth float64 `json:"border_width,omitempty"`
	Image       *Image  `json:"image,omitempty"`
}

// Image is the node picture, present only when the node has one.
type Image struct {
	URL          string  `json:"url"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Width        float64 `json:"width"`
	Height       float64 `json:"height"`
	CornerRadius float64 `json:"corner_radius,omitempty"`
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool { return n.State == StateLeaf }

// =============================================================================
// Link - Connector
// =============================================================================

// Link is the connector from a child card up to its parent.
type Link struct {
	ID        string  `json:"id"`
	Parent    string  `json:"parent"`
	Path      string  `json:"path"`
	Stroke    string  `json:"stroke,omitempty"`
	Width     float64 `json:"width,omitempty"`
	DashArray string  `json:"dash_array,omitempty"`
}

// Node returns the node with id.
func (l *Layout) Node(id string) (Node, bool) {
	for _, n := range l.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}
