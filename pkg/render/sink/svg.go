package sink

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"math"
	"strconv"

	svg "github.com/ajstarks/svgo"

	"github.com/matzehuels/orgtree/pkg/chart"
	"github.com/matzehuels/orgtree/pkg/geometry"
	"github.com/matzehuels/orgtree/pkg/tree"
)

// easeSpline is the SMIL key spline closest to cubic in-out easing.
const easeSpline = "0.645 0.045 0.355 1"

const interactionJS = `
    (function () {
      var base = %q;
      function post(path) { fetch(base + path, {method: 'POST'}); }
      document.querySelectorAll('g.node').forEach(function (el) {
        var id = encodeURIComponent(el.getAttribute('data-node-id'));
        el.addEventListener('click', function (ev) {
          if (ev.target.classList.contains('node-button-circle')) {
            post('/nodes/' + id + '/toggle');
          } else {
            post('/nodes/' + id + '/click');
          }
        });
      });
    })();`

type SVGOption func(*svgRenderer)

type svgRenderer struct {
	animate  bool
	fit      bool
	padding  float64
	endpoint string
	title    string
	dur      string
}

func WithAnimation() SVGOption         { return func(r *svgRenderer) { r.animate = true } }
func WithTitle(title string) SVGOption { return func(r *svgRenderer) { r.title = title } }

// WithFit sizes the document to the tree plus padding on every side,
// ignoring the container size and pan/zoom.
func WithFit(padding float64) SVGOption {
	return func(r *svgRenderer) { r.fit = true; r.padding = padding }
}

// WithInteraction embeds a script that posts node and toggle clicks to
// endpoint+"/nodes/{id}/click" and endpoint+"/nodes/{id}/toggle".
func WithInteraction(endpoint string) SVGOption {
	return func(r *svgRenderer) { r.endpoint = endpoint }
}

// RenderSVG renders f as an SVG document.
func RenderSVG(f *chart.Frame, opts ...SVGOption) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteSVG(&buf, f, opts...); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteSVG renders f as an SVG document into w.
func WriteSVG(w io.Writer, f *chart.Frame, opts ...SVGOption) error {
	if err := checkFrame(f); err != nil {
		return err
	}
	r := svgRenderer{}
	for _, opt := range opts {
		opt(&r)
	}
	if f.Transition == nil || f.Transition.Duration <= 0 {
		r.animate = false
	} else {
		r.dur = strconv.FormatFloat(f.Transition.Duration.Seconds(), 'f', -1, 64) + "s"
	}

	ew := &errWriter{w: w}
	cv := f.Canvas
	nodes, links := items(f, r.animate)
	p := place(f, r.fit, r.padding)
	width, height := int(math.Ceil(p.width)), int(math.Ceil(p.height))

	canvas := svg.New(ew)
	canvas.Start(width, height,
		fmt.Sprintf(`viewBox="0 0 %d %d"`, width, height),
		attr("id", cv.ChartID),
		`class="orgtree"`,
		attr("font-family", cv.Font),
	)
	if r.title != "" {
		canvas.Title(r.title)
	}
	r.defs(canvas, cv, nodes)
	canvas.Rect(0, 0, width, height, `class="background"`, attr("fill", cv.Background))

	canvas.Group(`class="chart"`, attr("transform", p.outer.String()))
	canvas.Group(`class="center-group"`, attr("transform", p.inner.String()))
	for _, l := range links {
		r.link(ew, l)
	}
	for _, n := range nodes {
		r.node(canvas, n)
	}
	canvas.Gend()
	canvas.Gend()

	if r.endpoint != "" {
		fmt.Fprintf(ew, "<script type=\"text/javascript\"><![CDATA[%s\n]]></script>\n", fmt.Sprintf(interactionJS, r.endpoint))
	}
	canvas.End()
	return ew.err
}

func (r *svgRenderer) defs(canvas *svg.SVG, cv chart.Canvas, nodes []nodeItem) {
	canvas.Def()
	if cv.ShadowFilterID != "" {
		canvas.Filter(cv.ShadowFilterID, `x="-50%"`, `y="-50%"`, `width="200%"`, `height="200%"`)
		canvas.FeGaussianBlur(svg.Filterspec{In: "SourceAlpha", Result: "blur"}, 3.1, 3.1)
		fmt.Fprintln(canvas.Writer, `<feOffset in="blur" dx="4.28" dy="4.48" result="offsetBlur"/>`)
		fmt.Fprintln(canvas.Writer, `<feFlood flood-color="black" flood-opacity="0.3" result="offsetColor"/>`)
		fmt.Fprintln(canvas.Writer, `<feComposite in="offsetColor" in2="offsetBlur" operator="in" result="offsetBlur"/>`)
		canvas.FeMerge([]string{"offsetBlur", "SourceGraphic"})
		canvas.Fend()
	}

	seen := make(map[string]bool)
	for _, n := range nodes {
		img := n.Visual.Image
		if img.URL == "" || seen[img.PatternID] {
			continue
		}
		seen[img.PatternID] = true
		fmt.Fprintf(canvas.Writer,
			`<pattern class="pattern" %s height="1" width="1"><image x="0" y="0" width="%s" height="%s" %s viewBox="0 0 %s %s" preserveAspectRatio="xMidYMin slice"/></pattern>`+"\n",
			attr("id", img.PatternID), num(img.Width), num(img.Height), attr("xlink:href", img.URL),
			num(img.Width*2), num(img.Height))
	}
	canvas.DefEnd()
}

func (r *svgRenderer) link(w io.Writer, l linkItem) {
	class := "link"
	if l.exiting {
		class += " link--exiting"
	}
	from, to := l.Path(0), l.Path(1)
	fmt.Fprintf(w, `<path class="%s" %s d="%s" fill="none" %s stroke-width="%s"`,
		class, attr("data-link-id", l.ID), to, attr("stroke", l.Stroke.Color), num(l.Stroke.Width))
	if l.Stroke.DashArray != "" {
		fmt.Fprintf(w, " %s", attr("stroke-dasharray", l.Stroke.DashArray))
	}
	if !r.animate || from == to {
		fmt.Fprintln(w, "/>")
		return
	}
	fmt.Fprintf(w, ">%s</path>\n", r.animation("d", from, to))
}

func (r *svgRenderer) node(canvas *svg.SVG, n nodeItem) {
	w := canvas.Writer
	v := n.Visual

	class := "node"
	if n.TotalCount == 0 {
		class += " node--no-subsidiaries"
	}
	if n.exiting {
		class += " node--exiting"
	}
	fmt.Fprintf(w, `<g class="%s" %s transform="translate(%s)" opacity="%s" cursor="pointer">`+"\n",
		class, attr("data-node-id", n.ID), n.To, num(n.ToOpacity))
	if r.animate && !n.From.Equal(n.To) {
		fmt.Fprintf(w, `<animateTransform attributeName="transform" type="translate" from="%s" to="%s" dur="%s" fill="freeze" calcMode="spline" keyTimes="0;1" keySplines="%s"/>`+"\n",
			n.From, n.To, r.dur, easeSpline)
	}
	if r.animate && n.FromOpacity != n.ToOpacity {
		fmt.Fprintln(w, r.animation("opacity", num(n.FromOpacity), num(n.ToOpacity)))
	}

	// card
	fmt.Fprintf(w, `<rect class="node-rect" x="%s" y="%s" width="%s" height="%s" rx="%s" stroke-width="%s" %s %s cursor="pointer"`,
		num(-v.Width/2), num(-v.Height/2), num(v.Width), num(v.Height), num(v.BorderRadius),
		num(v.BorderWidth), attr("stroke", v.BorderColor), attr("fill", v.Background))
	r.closeShrinking(w, "rect", n.exiting, 0, 0)
	fmt.Fprintf(w, `<foreignObject class="node-foreign-object" x="%s" y="%s" width="%s" height="%s"><div xmlns="http://www.w3.org/1999/xhtml" class="node-foreign-object-div" style="width:%spx;height:%spx;color:black">%s</div></foreignObject>`+"\n",
		num(-v.Width/2), num(-v.Height/2), num(v.Width), num(v.Height), num(v.Width), num(v.Height), v.Template)

	// counters
	if v.Icon.URL != "" {
		fmt.Fprintf(w, `<image class="node-icon-image" x="%s" y="%s" width="%s" height="%s" %s/>`+"\n",
			num(v.Icon.At.X), num(v.Icon.At.Y), num(v.Icon.Size), num(v.Icon.Size), attr("xlink:href", v.Icon.URL))
	}
	fmt.Fprintf(w, `<text class="node-icon-text-total" x="%s" y="%s" %s font-weight="600" %s>%s</text>`+"\n",
		num(v.TotalLabel.X), num(v.TotalLabel.Y), attr("fill", v.NodeTextFill), attr("font-family", v.Font),
		subsidiaries(n.TotalCount))
	fmt.Fprintf(w, `<text class="node-icon-text-direct" x="%s" y="%s" %s font-weight="600" %s>%d Direct </text>`+"\n",
		num(v.DirectLabel.X), num(v.DirectLabel.Y), attr("fill", v.NodeTextFill), attr("font-family", v.Font),
		n.DirectCount)

	if img := v.Image; img.URL != "" {
		fmt.Fprintf(w, `<g class="node-image-group" transform="translate(%s)">`, img.Group)
		fmt.Fprintf(w, `<rect class="node-image-rect" fill="url(#%s)" width="%s" height="%s" %s stroke-width="%s" rx="%s" x="%s" y="%s"`,
			html.EscapeString(img.PatternID), num(img.Width), num(img.Height), attr("stroke", img.BorderColor),
			num(img.BorderWidth), num(img.CornerRadius), num(img.Offset.X), num(img.Offset.Y))
		if img.Filter != "" {
			fmt.Fprintf(w, " %s", attr("filter", img.Filter))
		}
		r.closeShrinking(w, "rect", n.exiting, v.Width/2, v.Height/2)
		fmt.Fprintln(w, "</g>")
	}

	// toggle button
	label, size := buttonLabel(n.State)
	opacity := 1
	if n.State == tree.Leaf {
		opacity = 0
	}
	fmt.Fprintf(w, `<g class="node-button-g" %s transform="translate(%s)" opacity="%d">`+"\n",
		attr("data-toggle", n.ID), v.Button, opacity)
	canvas.Circle(0, 0, int(buttonRadius),
		`class="node-button-circle"`,
		attr("stroke-width", num(v.BorderWidth)),
		`fill="rgba(255,255,255,1)"`,
		attr("stroke", v.BorderColor),
	)
	canvas.Text(0, 0, label,
		`class="node-button-text"`,
		`text-anchor="middle"`,
		`alignment-baseline="middle"`,
		attr("fill", v.TextFill),
		`transform="translate(0, 1)"`,
		fmt.Sprintf(`font-size="%d"`, size),
		`pointer-events="none"`,
	)
	canvas.Gend()
	canvas.Gend()
}

// closeShrinking ends an open rect tag. Exiting rects shrink to 10x10 at
// (x, y) over the transition.
func (r *svgRenderer) closeShrinking(w io.Writer, tag string, exiting bool, x, y float64) {
	if !r.animate || !exiting {
		fmt.Fprintln(w, "/>")
		return
	}
	fmt.Fprintln(w, ">")
	for _, a := range [][2]string{{"width", "10"}, {"height", "10"}, {"x", num(x)}, {"y", num(y)}} {
		fmt.Fprintf(w, `<animate attributeName="%s" to="%s" dur="%s" fill="freeze"/>`+"\n", a[0], a[1], r.dur)
	}
	fmt.Fprintf(w, "</%s>\n", tag)
}

func (r *svgRenderer) animation(name, from, to string) string {
	return fmt.Sprintf(`<animate attributeName="%s" from="%s" to="%s" dur="%s" fill="freeze" calcMode="spline" keyTimes="0;1" keySplines="%s"/>`,
		name, from, to, r.dur, easeSpline)
}

func attr(name, value string) string {
	return name + `="` + html.EscapeString(value) + `"`
}

func num(v float64) string { return geometry.Num(v) }

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	e.err = err
	return n, err
}
