package server

import (
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/goccy/go-json"
)

// keepAlive is the comment interval that holds idle event streams open
// through proxies.
const keepAlive = 30 * time.Second

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
  html, body { margin: 0; height: 100%; background: {{.Background}}; }
  #chart { display: block; width: 100%; height: 100%; border: 0; }
  #status { position: fixed; bottom: 8px; left: 8px; font: 12px sans-serif; color: #555; }
</style>
</head>
<body>
<object id="chart" type="image/svg+xml" data="/chart.svg"></object>
<div id="status"></div>
<script>
(function () {
  var chart = document.getElementById('chart');
  var status = document.getElementById('status');
  function redraw(q) { chart.data = '/chart.svg?' + q; }
  var events = new EventSource('/events');
  events.addEventListener('frame', function (ev) {
    redraw('seq=' + JSON.parse(ev.data).seq);
    status.textContent = '';
  });
  events.addEventListener('transform', function () { redraw('static=1&t=' + Date.now()); });
  events.addEventListener('error', function (ev) {
    if (ev.data) { status.textContent = JSON.parse(ev.data).info; }
  });
  events.addEventListener('click', function (ev) {
    status.textContent = 'clicked ' + JSON.parse(ev.data).id;
  });
})();
</script>
</body>
</html>
`))

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	cfg := s.opts.Pipeline.Config
	data := struct {
		Title      string
		Background string
	}{
		Title:      s.opts.Pipeline.Title,
		Background: cfg.Chart.Background,
	}
	if data.Title == "" {
		data.Title = s.chartID()
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, data); err != nil {
		s.logger.Error("render index", "error", err)
	}
}

// stream serves the event stream. A ping is sent on connect; afterwards
// every hub event is forwarded as a named SSE event with a JSON body.
func (s *Server) stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	events, cancel := s.events.Subscribe()
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		case ev, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				s.logger.Error("encode event", "error", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
			flusher.Flush()
		}
	}
}
