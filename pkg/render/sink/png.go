package sink

import (
	"bytes"
	"io"
	"math"
	"strconv"
	"strings"

	"git.sr.ht/~sbinet/gg"

	"github.com/matzehuels/orgtree/pkg/chart"
	orgerrors "github.com/matzehuels/orgtree/pkg/errors"
	"github.com/matzehuels/orgtree/pkg/geometry"
	"github.com/matzehuels/orgtree/pkg/reconcile"
	"github.com/matzehuels/orgtree/pkg/tree"
)

// PNGOption configures PNG rendering.
type PNGOption func(*pngRenderer)

type pngRenderer struct {
	scale   float64
	fit     bool
	padding float64
}

// WithScale sets the PNG scale factor (default 1).
func WithScale(s float64) PNGOption {
	return func(r *pngRenderer) { r.scale = s }
}

// WithPNGFit sizes the image to the tree plus padding, like [WithFit].
func WithPNGFit(padding float64) PNGOption {
	return func(r *pngRenderer) { r.fit = true; r.padding = padding }
}

// RenderPNG rasterizes the end state of f.
func RenderPNG(f *chart.Frame, opts ...PNGOption) ([]byte, error) {
	var buf bytes.Buffer
	if err := WritePNG(&buf, f, opts...); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WritePNG rasterizes the end state of f into w.
func WritePNG(w io.Writer, f *chart.Frame, opts ...PNGOption) error {
	if err := checkFrame(f); err != nil {
		return err
	}
	r := pngRenderer{scale: 1}
	for _, opt := range opts {
		opt(&r)
	}
	if r.scale <= 0 {
		return orgerrors.New(orgerrors.ErrCodeInvalidInput, "png scale %g must be positive", r.scale)
	}

	p := place(f, r.fit, r.padding)
	width, height := int(math.Ceil(p.width*r.scale)), int(math.Ceil(p.height*r.scale))
	if width <= 0 || height <= 0 {
		return orgerrors.New(orgerrors.ErrCodeInvalidInput, "empty image %dx%d", width, height)
	}

	dc := gg.NewContext(width, height)
	setColor(dc, f.Canvas.Background, "white")
	dc.Clear()

	dc.Scale(r.scale, r.scale)
	for _, t := range []chart.Transform{p.outer, p.inner} {
		dc.Translate(t.X, t.Y)
		dc.Scale(t.Scale, t.Scale)
	}

	for _, l := range f.Target.Links {
		drawLink(dc, l)
	}
	for _, n := range f.Target.Nodes {
		drawNode(dc, n)
	}

	if err := dc.EncodePNG(w); err != nil {
		return orgerrors.Wrap(orgerrors.ErrCodeInternal, err, "encode png")
	}
	return nil
}

func drawLink(dc *gg.Context, l reconcile.LinkView) {
	setColor(dc, l.Stroke.Color, "#d8d7d7")
	dc.SetLineWidth(l.Stroke.Width)
	dc.SetDash(parseDash(l.Stroke.DashArray)...)
	geometry.NewConnector(l.Child, l.Parent).Trace(dc)
	dc.Stroke()
	dc.SetDash()
}

func drawNode(dc *gg.Context, n reconcile.NodeView) {
	v := n.Visual
	x, y := n.At.X, n.At.Y

	dc.DrawRoundedRectangle(x-v.Width/2, y-v.Height/2, v.Width, v.Height, v.BorderRadius)
	setColor(dc, v.Background, "white")
	dc.FillPreserve()
	setColor(dc, v.BorderColor, "black")
	dc.SetLineWidth(v.BorderWidth)
	dc.Stroke()

	if img := v.Image; img.URL != "" {
		ix := x + img.Group.X + img.Offset.X
		iy := y + img.Group.Y + img.Offset.Y
		dc.DrawRoundedRectangle(ix, iy, img.Width, img.Height, math.Min(img.CornerRadius, math.Min(img.Width, img.Height)/2))
		setColor(dc, "lightsteelblue", "white")
		dc.FillPreserve()
		setColor(dc, img.BorderColor, "black")
		dc.SetLineWidth(img.BorderWidth)
		dc.Stroke()
	}

	setColor(dc, v.NodeTextFill, "black")
	if label := templateText(v.Template); label != "" {
		dc.DrawStringAnchored(label, x, y, 0.5, 0.5)
	} else {
		dc.DrawStringAnchored(n.ID, x, y, 0.5, 0.5)
	}
	dc.DrawString(subsidiaries(n.TotalCount), x+v.TotalLabel.X, y+v.TotalLabel.Y)
	dc.DrawString(strconv.Itoa(n.DirectCount)+" Direct", x+v.DirectLabel.X, y+v.DirectLabel.Y)

	if n.State == tree.Leaf {
		return
	}
	bx, by := x+v.Button.X, y+v.Button.Y
	dc.DrawCircle(bx, by, buttonRadius)
	setColor(dc, "white", "white")
	dc.FillPreserve()
	setColor(dc, v.BorderColor, "black")
	dc.SetLineWidth(v.BorderWidth)
	dc.Stroke()
	label, _ := buttonLabel(n.State)
	setColor(dc, v.TextFill, "black")
	dc.DrawStringAnchored(label, bx, by, 0.5, 0.5)
}

func setColor(dc *gg.Context, css, fallback string) {
	r, g, b, a, err := geometry.ParseCSSColor(css)
	if err != nil {
		r, g, b, a, _ = geometry.ParseCSSColor(fallback)
	}
	dc.SetRGBA(r, g, b, a)
}

// parseDash reads an SVG stroke-dasharray. Malformed entries are skipped.
func parseDash(s string) []float64 {
	var out []float64
	for _, f := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' }) {
		if v, err := strconv.ParseFloat(f, 64); err == nil && v >= 0 {
			out = append(out, v)
		}
	}
	return out
}

// templateText returns the first run of text in an HTML template.
func templateText(tpl string) string {
	var b strings.Builder
	inTag := false
	for _, r := range tpl {
		switch {
		case r == '<':
			inTag = true
			if t := strings.TrimSpace(b.String()); t != "" {
				return t
			}
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
