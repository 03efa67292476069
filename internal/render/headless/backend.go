package headless

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/danielpatrickdp/jsonui/internal/render"
	"github.com/danielpatrickdp/jsonui/internal/value"
)

var _ render.Backend = (*Backend)(nil)

// #region backend
// Backend is a render.Backend without a screen. Input comes from queued
// events, output is a per-frame widget trace. Queue and LastFrame are safe
// for concurrent use; everything else belongs to the frame loop.
type Backend struct {
	mu        sync.Mutex
	queue     []Event
	last      Frame
	failNext  error
	collapsed map[string]bool

	// frame-local state
	number  int
	pending map[string]Event
	ids     []string
	trees   int
	windows int
	widgets []Widget
	dropped []Event
	remote  bool
	syncErr error
}

// New returns a backend with every tree node expanded.
func New() *Backend {
	return &Backend{collapsed: make(map[string]bool)}
}

// #endregion backend

// #region control
// Queue schedules events for upcoming frames. At most one event per widget
// path is delivered per frame; later events for the same path wait.
func (b *Backend) Queue(events ...Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queue = append(b.queue, events...)
}

// Pending returns the number of queued events not yet delivered.
func (b *Backend) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

// LastFrame returns the trace of the most recently completed frame.
func (b *Backend) LastFrame() Frame {
	b.mu.Lock()
	defer b.mu.Unlock()
	f := b.last
	f.Widgets = append([]Widget(nil), f.Widgets...)
	f.Dropped = append([]Event(nil), f.Dropped...)
	return f
}

// RemoteInput reports whether the last completed frame was delivered an
// event marked Remote.
func (b *Backend) RemoteInput() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last.Remote
}

// FailNextFrame makes the next EndFrame return err.
func (b *Backend) FailNextFrame(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failNext = err
}

// Collapse renders the tree node at path collapsed.
func (b *Backend) Collapse(path string, collapsed bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.collapsed[path] = collapsed
}

// #endregion control

// #region frame
func (b *Backend) BeginFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.number++
	b.pending = make(map[string]Event)
	b.ids = b.ids[:0]
	b.trees, b.windows = 0, 0
	b.widgets = nil
	b.dropped = nil
	b.remote = false
	b.syncErr = nil

	rest := b.queue[:0]
	for _, ev := range b.queue {
		if _, dup := b.pending[ev.Path]; dup {
			rest = append(rest, ev)
			continue
		}
		b.pending[ev.Path] = ev
		b.remote = b.remote || ev.Remote
	}
	b.queue = rest
}

func (b *Backend) EndFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ev := range b.pending {
		b.dropped = append(b.dropped, ev)
	}
	b.last = Frame{Number: b.number, Widgets: b.widgets, Dropped: b.dropped, Remote: b.remote}
	b.pending = nil

	err := b.syncErr
	if err == nil && (len(b.ids) != 0 || b.trees != 0 || b.windows != 0) {
		err = fmt.Errorf("%w: ids=%v trees=%d windows=%d", ErrUnbalanced, b.ids, b.trees, b.windows)
	}
	if b.failNext != nil {
		err, b.failNext = b.failNext, nil
	}
	return err
}

// #endregion frame

// #region scopes
func (b *Backend) path(label string) string {
	parts := make([]string, 0, len(b.ids)+1)
	for _, id := range b.ids {
		if id != "" {
			parts = append(parts, id)
		}
	}
	if label != "" {
		parts = append(parts, label)
	}
	return strings.Join(parts, "/")
}

func (b *Backend) PushID(id string) {
	b.ids = append(b.ids, id)
}

func (b *Backend) PopID() {
	if len(b.ids) == 0 {
		b.syncErr = fmt.Errorf("%w: PopID on empty stack", ErrUnbalanced)
		return
	}
	b.ids = b.ids[:len(b.ids)-1]
}

func (b *Backend) Columns(int, float64) {}

func (b *Backend) NextColumn() {}

func (b *Backend) Begin(name string, closable bool) (visible, open bool) {
	p := b.path(name)
	open = true
	if closable && b.pressed(p+"/close") {
		open = false
	}
	b.record(Widget{Path: p, Type: TypeWindow, Value: open, Changed: !open})
	b.PushID(name)
	b.windows++
	return true, open
}

func (b *Backend) End() {
	if b.windows == 0 {
		b.syncErr = fmt.Errorf("%w: End without Begin", ErrUnbalanced)
		return
	}
	b.windows--
	b.PopID()
}

func (b *Backend) TreeNode(label string) bool {
	p := b.path(label)
	b.mu.Lock()
	if b.pressed(p) {
		b.collapsed[p] = !b.collapsed[p]
	}
	expanded := !b.collapsed[p]
	b.mu.Unlock()
	b.record(Widget{Path: p, Type: TypeTree, Value: expanded})
	if expanded {
		b.PushID(label)
		b.trees++
	}
	return expanded
}

func (b *Backend) TreePop() {
	if b.trees == 0 {
		b.syncErr = fmt.Errorf("%w: TreePop without TreeNode", ErrUnbalanced)
		return
	}
	b.trees--
	b.PopID()
}

// #endregion scopes

// #region widgets
func (b *Backend) Text(s string) {
	b.record(Widget{Path: b.path(""), Type: TypeText, Value: s})
}

func (b *Backend) Button(label string) bool {
	p := b.path(label)
	pressed := b.pressed(p)
	b.record(Widget{Path: p, Type: TypeButton, Changed: pressed})
	return pressed
}

func (b *Backend) Checkbox(label string, v bool) (bool, bool) {
	p := b.path(label)
	nv := v
	if ev, ok := b.event(p); ok {
		if x, ok := ev.Value.(bool); ok {
			nv = x
		} else {
			b.dropped = append(b.dropped, ev)
		}
	}
	b.record(Widget{Path: p, Type: TypeBool, Value: nv, Changed: nv != v})
	return nv != v, nv
}

func (b *Backend) InputInt(label string, v int64) (bool, int64) {
	p := b.path(label)
	nv := v
	if ev, ok := b.event(p); ok {
		if x, ok := toInt(ev.Value); ok {
			nv = x
		} else {
			b.dropped = append(b.dropped, ev)
		}
	}
	b.record(Widget{Path: p, Type: TypeInt, Value: nv, Changed: nv != v})
	return nv != v, nv
}

func (b *Backend) InputFloat(label string, v float64) (bool, float64) {
	p := b.path(label)
	nv := v
	if ev, ok := b.event(p); ok {
		if x, ok := toFloat(ev.Value); ok {
			nv = x
		} else {
			b.dropped = append(b.dropped, ev)
		}
	}
	changed := floatChanged(nv, v)
	b.record(Widget{Path: p, Type: TypeFloat, Value: nv, Changed: changed})
	return changed, nv
}

func (b *Backend) InputText(label string, v string) (bool, string) {
	p := b.path(label)
	nv := v
	if ev, ok := b.event(p); ok {
		if x, ok := ev.Value.(string); ok {
			nv = x
		} else {
			b.dropped = append(b.dropped, ev)
		}
	}
	b.record(Widget{Path: p, Type: TypeString, Value: nv, Changed: nv != v})
	return nv != v, nv
}

func (b *Backend) InputFloat4(label string, v [4]float64) (bool, [4]float64) {
	return b.float4(label, v, math.Inf(-1), math.Inf(1))
}

func (b *Backend) DragFloat4(label string, v [4]float64, _, min, max float64) (bool, [4]float64) {
	return b.float4(label, v, min, max)
}

func (b *Backend) float4(label string, v [4]float64, lo, hi float64) (bool, [4]float64) {
	p := b.path(label)
	nv := v
	if ev, ok := b.event(p); ok {
		if x, ok := toFloat4(ev.Value); ok {
			for i := range x {
				x[i] = math.Min(math.Max(x[i], lo), hi)
			}
			nv = x
		} else {
			b.dropped = append(b.dropped, ev)
		}
	}
	changed := false
	for i := range nv {
		changed = changed || floatChanged(nv[i], v[i])
	}
	b.record(Widget{Path: p, Type: TypeFloat4, Value: nv[:], Changed: changed})
	return changed, nv
}

// #endregion widgets

// #region helpers
func (b *Backend) record(w Widget) {
	b.widgets = append(b.widgets, w)
}

// event consumes a value event for path.
func (b *Backend) event(path string) (Event, bool) {
	ev, ok := b.pending[path]
	if !ok || ev.Press {
		return Event{}, false
	}
	delete(b.pending, path)
	return ev, true
}

// pressed consumes a press event for path.
func (b *Backend) pressed(path string) bool {
	ev, ok := b.pending[path]
	if !ok || !ev.Press {
		return false
	}
	delete(b.pending, path)
	return true
}

// floatChanged treats two NaNs as equal so a NaN leaf does not report an
// edit on every frame.
func floatChanged(a, b float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return false
	}
	return a != b
}

func toInt(v any) (int64, bool) {
	if n, ok := value.AsInt(v); ok {
		return n, true
	}
	if f, ok := v.(float64); ok && f == math.Trunc(f) {
		return int64(f), true
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	if f, ok := v.(float64); ok {
		return f, true
	}
	if n, ok := value.AsInt(v); ok {
		return float64(n), true
	}
	return 0, false
}

func toFloat4(v any) ([4]float64, bool) {
	var out [4]float64
	switch x := v.(type) {
	case [4]float64:
		return x, true
	case []float64:
		if len(x) != 4 {
			return out, false
		}
		copy(out[:], x)
		return out, true
	case []any:
		if len(x) != 4 {
			return out, false
		}
		for i, item := range x {
			f, ok := toFloat(item)
			if !ok {
				return out, false
			}
			out[i] = f
		}
		return out, true
	}
	return out, false
}

// #endregion helpers
