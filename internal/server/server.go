// Package server serves a live, clickable org chart over HTTP.
//
// The server owns one chart bound to a recording surface. Browsers load
// the newest frame as an SVG document whose embedded script posts node
// and toggle clicks back to the JSON API. Every new frame, transform or
// data reload is pushed over a server-sent event stream so open pages
// refetch the drawing.
//
// Routes:
//
//	GET  /                        preview page
//	GET  /chart.svg               newest frame (?static=1 disables animation, ?fit=1 fits the tree)
//	GET  /export/{format}         newest frame as svg, png, dot, nodelink or json
//	GET  /events                  server-sent events
//	GET  /api/layout              JSON layout of the newest frame
//	GET  /api/records             the loaded records
//	GET  /api/nodes/{id}          one node's state and counts
//	POST /api/nodes/{id}/toggle   expand or collapse a node
//	POST /api/nodes/{id}/click    node click callback
//	POST /api/zoom                {"x", "y", "scale"}
//	POST /api/resize              {"width", "height"}
//	POST /api/root                {"id"}; an empty id shows the whole tree
//	POST /api/reload              re-read the data file
//	GET  /metrics                 Prometheus metrics, when a gatherer is set
//	GET  /healthz
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/orgtree/pkg/chart"
	orgerrors "github.com/matzehuels/orgtree/pkg/errors"
	"github.com/matzehuels/orgtree/pkg/graph"
	orgio "github.com/matzehuels/orgtree/pkg/io"
	"github.com/matzehuels/orgtree/pkg/observability"
	"github.com/matzehuels/orgtree/pkg/pipeline"
	"github.com/matzehuels/orgtree/pkg/render"
	"github.com/matzehuels/orgtree/pkg/render/sink"
	"github.com/matzehuels/orgtree/pkg/tree"
)

const (
	// DefaultDebounce is how long file changes settle before a reload.
	DefaultDebounce = 200 * time.Millisecond

	// DefaultHistory is how many frames the server keeps.
	DefaultHistory = 32

	apiPrefix = "/api"
)

// Options configures a Server.
type Options struct {
	// Pipeline names the data file (or raw data), config file, size, view
	// root and initial toggles.
	Pipeline pipeline.Options

	Logger   *log.Logger
	Debounce time.Duration
	History  int

	// Gatherer backs /metrics. Nil disables the route.
	Gatherer prometheus.Gatherer
}

// Server is a live chart session shared by every connected browser.
type Server struct {
	opts   Options
	logger *log.Logger
	events *Hub

	mu      sync.Mutex
	chart   *chart.Chart
	surface *surface
	records []tree.Record
}

// surface records frames and announces them on the hub.
type surface struct {
	*render.Recorder
	events *Hub
}

func (s *surface) Apply(f *chart.Frame) {
	s.Recorder.Apply(f)
	s.events.Publish(Event{Type: EventFrame, Seq: f.Seq, Info: string(f.Reason)})
}

func (s *surface) SetTransform(t chart.Transform) {
	s.Recorder.SetTransform(t)
	s.events.Publish(Event{Type: EventTransform, Info: t.String()})
}

// New loads the records named by opts and builds the chart.
func New(ctx context.Context, opts Options) (*Server, error) {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.History <= 0 {
		opts.History = DefaultHistory
	}
	opts.Pipeline.Logger = opts.Logger
	if err := opts.Pipeline.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	s := &Server{
		opts:   opts,
		logger: opts.Logger,
		events: NewHub(),
	}

	records, _, err := pipeline.Load(ctx, opts.Pipeline)
	if err != nil {
		return nil, err
	}
	cfg, err := pipeline.Builder(opts.Pipeline).OnNodeClick(s.nodeClicked).Build()
	if err != nil {
		return nil, err
	}

	rec := render.NewRecorder(cfg.Width(), cfg.Height())
	rec.SetLimit(opts.History)
	s.surface = &surface{Recorder: rec, events: s.events}

	c, err := chart.New(cfg, s.surface)
	if err != nil {
		return nil, err
	}
	if err := c.SetData(records); err != nil {
		return nil, err
	}
	if root := opts.Pipeline.Root; root != "" {
		if err := c.SetRoot(root); err != nil {
			return nil, err
		}
	}
	for _, id := range opts.Pipeline.Toggles {
		if _, err := c.ToggleNode(id); err != nil {
			return nil, err
		}
	}
	s.chart = c
	s.records = records
	s.logger.Info("chart ready", "records", len(records), "visible", len(c.Visible()))
	return s, nil
}

// Events returns the server's event hub.
func (s *Server) Events() *Hub { return s.events }

// Reload re-reads the data file and redraws. On error the previous chart
// is kept and an error event is published.
func (s *Server) Reload(ctx context.Context) error {
	records, _, err := pipeline.Load(ctx, s.opts.Pipeline)
	if err == nil {
		s.mu.Lock()
		err = s.chart.SetData(records)
		if err == nil {
			s.records = records
		}
		s.mu.Unlock()
	}
	if err != nil {
		s.events.Publish(Event{Type: EventError, Info: orgerrors.UserMessage(err)})
		return err
	}
	s.logger.Info("reloaded", "records", len(records))
	s.events.Publish(Event{Type: EventReload})
	return nil
}

// Close disconnects event streams.
func (s *Server) Close() error {
	s.events.Close()
	return nil
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("serving", "addr", "http://"+addr)

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	// Event streams only end when their subscribers are dropped.
	s.events.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Handler returns the HTTP handler for all routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/", s.index)
	r.Get("/chart.svg", s.chartSVG)
	r.Get("/export/{format}", s.export)
	r.Get("/events", s.stream)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route(apiPrefix, func(r chi.Router) {
		r.Get("/layout", s.layout)
		r.Get("/records", s.recordsHandler)
		r.Get("/nodes/{id}", s.node)
		r.Post("/nodes/{id}/toggle", s.toggle)
		r.Post("/nodes/{id}/click", s.click)
		r.Post("/zoom", s.zoom)
		r.Post("/resize", s.resize)
		r.Post("/root", s.root)
		r.Post("/reload", func(w http.ResponseWriter, r *http.Request) {
			if err := s.Reload(r.Context()); err != nil {
				writeError(w, r, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})
	})
	return instrument(r)
}

// current returns the newest frame drawn with the current pan/zoom, and
// the view state it belongs to.
func (s *Server) current() (*chart.Frame, chart.ViewState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	view := s.chart.View()
	last := s.surface.Last()
	if last == nil {
		return nil, view
	}
	f := *last
	f.View = view.Transform
	return &f, view
}

// =============================================================================
// Drawing
// =============================================================================

func (s *Server) chartSVG(w http.ResponseWriter, r *http.Request) {
	f, _ := s.current()
	q := r.URL.Query()
	opts := []sink.SVGOption{sink.WithInteraction(apiPrefix)}
	if q.Get("static") == "" {
		opts = append(opts, sink.WithAnimation())
	}
	if q.Get("fit") != "" {
		opts = append(opts, sink.WithFit(s.opts.Pipeline.Padding))
	}
	data, err := sink.RenderSVG(f, opts...)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(data)
}

var contentTypes = map[string]string{
	pipeline.FormatSVG:      "image/svg+xml",
	pipeline.FormatPNG:      "image/png",
	pipeline.FormatDOT:      "text/vnd.graphviz; charset=utf-8",
	pipeline.FormatNodelink: "image/svg+xml",
	pipeline.FormatJSON:     "application/json",
}

func (s *Server) export(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	if err := pipeline.ValidateFormat(format); err != nil {
		writeError(w, r, err)
		return
	}
	f, view := s.current()
	opts := s.opts.Pipeline
	opts.Animate = false
	opts.Fit = r.URL.Query().Get("fit") != ""

	data, err := pipeline.RenderFormat(f, view, format, opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentTypes[format])
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="%s%s"`, s.chartID(), pipeline.Extensions[format]))
	w.Write(data)
}

func (s *Server) chartID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chart.ID()
}

// =============================================================================
// JSON API
// =============================================================================

func (s *Server) layout(w http.ResponseWriter, r *http.Request) {
	f, view := s.current()
	data, err := graph.MarshalLayout(graph.Export(f, view))
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func (s *Server) recordsHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	records := s.records
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if err := orgio.WriteRecords(records, w, orgio.FormatJSON); err != nil {
		s.logger.Error("write records", "error", err)
	}
}

// NodeStatus is the JSON view of one node.
type NodeStatus struct {
	ID      string `json:"id"`
	Parent  string `json:"parent,omitempty"`
	State   string `json:"state"`
	Direct  int    `json:"direct"`
	Total   int    `json:"total"`
	Visible bool   `json:"visible"`
}

func (s *Server) status(id string) (NodeStatus, error) {
	n, ok := s.chart.Node(id)
	if !ok {
		return NodeStatus{}, orgerrors.New(orgerrors.ErrCodeNodeNotFound, "node %q not found", id)
	}
	st := NodeStatus{
		ID:     n.ID,
		State:  n.State().String(),
		Direct: n.DirectCount,
		Total:  n.TotalCount,
	}
	if n.Parent != nil {
		st.Parent = n.Parent.ID
	}
	for _, v := range s.chart.Visible() {
		if v.ID == id {
			st.Visible = true
			break
		}
	}
	return st, nil
}

func (s *Server) node(w http.ResponseWriter, r *http.Request) {
	id, err := nodeID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.mu.Lock()
	st, err := s.status(id)
	s.mu.Unlock()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) toggle(w http.ResponseWriter, r *http.Request) {
	id, err := nodeID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.mu.Lock()
	err = s.surface.ClickToggle(id)
	var st NodeStatus
	if err == nil {
		st, err = s.status(id)
	}
	s.mu.Unlock()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) click(w http.ResponseWriter, r *http.Request) {
	id, err := nodeID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.mu.Lock()
	err = s.surface.Click(id)
	s.mu.Unlock()
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// nodeClicked is the chart's node click callback.
func (s *Server) nodeClicked(id string) {
	s.logger.Info("node clicked", "node", id)
	s.events.Publish(Event{Type: EventClick, ID: id})
}

type zoomRequest struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Scale float64 `json:"scale"`
}

func (s *Server) zoom(w http.ResponseWriter, r *http.Request) {
	var req zoomRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s.mu.Lock()
	err := s.surface.Zoom(chart.Transform{X: req.X, Y: req.Y, Scale: req.Scale})
	view := s.chart.View()
	s.mu.Unlock()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewJSON(view))
}

type resizeRequest struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (s *Server) resize(w http.ResponseWriter, r *http.Request) {
	var req resizeRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Width <= 0 || req.Height <= 0 {
		writeError(w, r, orgerrors.New(orgerrors.ErrCodeInvalidInput, "size %gx%g must be positive", req.Width, req.Height))
		return
	}
	s.mu.Lock()
	err := s.surface.Resize(req.Width, req.Height)
	s.mu.Unlock()
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type rootRequest struct {
	ID string `json:"id"`
}

func (s *Server) root(w http.ResponseWriter, r *http.Request) {
	var req rootRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s.mu.Lock()
	err := s.chart.SetRoot(req.ID)
	view := s.chart.View()
	s.mu.Unlock()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewJSON(view))
}

func viewJSON(v chart.ViewState) map[string]any {
	return map[string]any{
		"x":     v.Transform.X,
		"y":     v.Transform.Y,
		"scale": v.Transform.Scale,
		"root":  v.RootID,
	}
}

// =============================================================================
// Helpers
// =============================================================================

func nodeID(r *http.Request) (string, error) {
	id := chi.URLParam(r, "id")
	if err := orgerrors.ValidateNodeID(id); err != nil {
		return "", err
	}
	return id, nil
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return orgerrors.Wrap(orgerrors.ErrCodeInvalidInput, err, "invalid request body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// errorResponse is the JSON body of every failed request.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func statusFor(err error) int {
	switch orgerrors.GetCode(err) {
	case orgerrors.ErrCodeNodeNotFound, orgerrors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case orgerrors.ErrCodeInvalidInput, orgerrors.ErrCodeInvalidFormat, orgerrors.ErrCodeInvalidConfig,
		orgerrors.ErrCodeMalformedTree, orgerrors.ErrCodeMissingTemplate, orgerrors.ErrCodeInvalidStyleValue:
		return http.StatusBadRequest
	case orgerrors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	code := string(orgerrors.GetCode(err))
	if code == "" {
		code = string(orgerrors.ErrCodeInternal)
	}
	observability.HTTP().OnError(r.Context(), r.Method, routePattern(r), err)
	writeJSON(w, status, errorResponse{Code: code, Message: orgerrors.UserMessage(err)})
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// statusWriter remembers the response status.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

// Flush keeps event streams working through the wrapper.
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// instrument reports every request to the HTTP hooks under its route
// pattern rather than its path.
func instrument(mux *chi.Mux) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hooks := observability.HTTP()
		route := mux.Find(chi.NewRouteContext(), r.Method, r.URL.Path)
		if route == "" {
			route = "unmatched"
		}
		hooks.OnRequest(r.Context(), r.Method, route)
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w}
		mux.ServeHTTP(sw, r)

		status := sw.status
		if status == 0 {
			status = http.StatusOK
		}
		hooks.OnResponse(r.Context(), r.Method, route, status, time.Since(start))
	})
}
