package render

import (
	"sync"

	"github.com/matzehuels/orgtree/pkg/chart"
	orgerrors "github.com/matzehuels/orgtree/pkg/errors"
)

// Recorder is a headless surface that keeps every frame and transform and
// plays input back into the bound chart.
type Recorder struct {
	mu            sync.Mutex
	width, height float64
	frames        []*chart.Frame
	transforms    []chart.Transform
	sink          chart.EventSink
	limit         int
}

// NewRecorder returns a recorder of the given container size.
func NewRecorder(width, height float64) *Recorder {
	return &Recorder{width: width, height: height}
}

func (r *Recorder) Size() (float64, float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.width, r.height
}

func (r *Recorder) Apply(f *chart.Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, f)
	if r.limit > 0 && len(r.frames) > r.limit {
		r.frames = append(r.frames[:0], r.frames[len(r.frames)-r.limit:]...)
	}
}

func (r *Recorder) SetTransform(t chart.Transform) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transforms = append(r.transforms, t)
	if r.limit > 0 && len(r.transforms) > r.limit {
		r.transforms = append(r.transforms[:0], r.transforms[len(r.transforms)-r.limit:]...)
	}
}

// SetLimit keeps only the newest n frames and transforms. Zero keeps all.
func (r *Recorder) SetLimit(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.limit = n
}

func (r *Recorder) Bind(sink chart.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sink = sink
}

// Frames returns the recorded frames, oldest first.
func (r *Recorder) Frames() []*chart.Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*chart.Frame(nil), r.frames...)
}

// Last returns the newest frame, nil if none was recorded.
func (r *Recorder) Last() *chart.Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.frames) == 0 {
		return nil
	}
	return r.frames[len(r.frames)-1]
}

// Transforms returns the recorded pan/zoom transforms.
func (r *Recorder) Transforms() []chart.Transform {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]chart.Transform(nil), r.transforms...)
}

// Click delivers a click on the node card of id.
func (r *Recorder) Click(id string) error {
	return r.deliver(func(s chart.EventSink) error {
		return s.Click(chart.ClickEvent{NodeID: id, Target: chart.TargetNode})
	})
}

// ClickToggle delivers a click on the toggle button of id.
func (r *Recorder) ClickToggle(id string) error {
	return r.deliver(func(s chart.EventSink) error {
		return s.Click(chart.ClickEvent{NodeID: id, Target: chart.TargetToggle})
	})
}

// Zoom delivers a pan/zoom gesture.
func (r *Recorder) Zoom(t chart.Transform) error {
	return r.deliver(func(s chart.EventSink) error { return s.Zoom(t) })
}

// Resize changes the container size and notifies the chart.
func (r *Recorder) Resize(width, height float64) error {
	r.mu.Lock()
	r.width, r.height = width, height
	r.mu.Unlock()
	return r.deliver(func(s chart.EventSink) error { return s.Resize() })
}

func (r *Recorder) deliver(fn func(chart.EventSink) error) error {
	r.mu.Lock()
	sink := r.sink
	r.mu.Unlock()
	if sink == nil {
		return orgerrors.New(orgerrors.ErrCodeInvalidInput, "recorder is not bound to a chart")
	}
	return fn(sink)
}

var (
	_ chart.Surface = (*Recorder)(nil)
	_ chart.Binder  = (*Recorder)(nil)
)
