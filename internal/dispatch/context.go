package dispatch

import (
	"errors"
	"log/slog"
	"maps"

	"github.com/danielpatrickdp/jsonui/internal/render"
	"github.com/danielpatrickdp/jsonui/internal/value"
)

// #region options
// Options configures a Context.
type Options struct {
	// Strict records unmatched nodes as *NoHandlerError in Errors instead
	// of logging a warning.
	Strict bool
	Logger *slog.Logger
}

// #endregion options

// #region context
// Context drives one editing session: it picks a handler for every node,
// keeps the stack of nodes being handled, and accumulates dirty flags.
// A Context belongs to a single frame loop and is not safe for concurrent use.
type Context struct {
	reg    *Registry
	ui     render.Backend
	log    *slog.Logger
	strict bool

	stack  []Frame
	dirty  map[int]bool
	state  map[string]any
	errs   []error
	warned map[string]bool
}

// NewContext returns a context dispatching through reg and drawing into ui.
// Dirty level 0 starts known and clean.
func NewContext(reg *Registry, ui render.Backend, opts Options) *Context {
	if reg == nil {
		reg = NewRegistry()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Context{
		reg:    reg,
		ui:     ui,
		log:    logger,
		strict: opts.Strict,
		dirty:  map[int]bool{0: false},
		state:  make(map[string]any),
		warned: make(map[string]bool),
	}
}

// UI returns the backend handlers draw into.
func (c *Context) UI() render.Backend { return c.ui }

// Registry returns the handler registry.
func (c *Context) Registry() *Registry { return c.reg }

// Logger returns the context logger.
func (c *Context) Logger() *slog.Logger { return c.log }

// Register appends handlers to the registry.
func (c *Context) Register(handlers ...Handler) {
	c.reg.Register(handlers...)
}

// BeginFrame clears per-frame bookkeeping: the stack, recorded errors and
// warning suppression. Dirty flags and handler state survive.
func (c *Context) BeginFrame() {
	c.stack = c.stack[:0]
	c.errs = nil
	clear(c.warned)
}

// #endregion context

// #region input
// Input dispatches one node and returns it, edited or unchanged. A node no
// handler accepts comes back unchanged; see Options.Strict.
func (c *Context) Input(key string, v any) any {
	out, err := c.TryInput(key, v)
	if err == nil {
		return out
	}
	if c.strict {
		c.errs = append(c.errs, err)
		return v
	}
	var nh *NoHandlerError
	if errors.As(err, &nh) {
		id := nh.Kind.String() + ":" + key
		if !c.warned[id] {
			c.warned[id] = true
			c.log.Warn("node not handled", "key", key, "kind", nh.Kind.String(), "path", nh.Path)
		}
	}
	return v
}

// TryInput dispatches like Input but reports an unmatched node as a
// *NoHandlerError.
func (c *Context) TryInput(key string, v any) (any, error) {
	kind := value.KindOf(v)
	for _, h := range c.reg.Candidates(key, kind) {
		if !h.CanHandle(key, v, c) {
			continue
		}
		return c.run(h, key, v), nil
	}
	return v, &NoHandlerError{Key: key, Kind: kind, Path: c.path(key)}
}

func (c *Context) run(h Handler, key string, v any) any {
	c.stack = append(c.stack, Frame{Key: key, Value: v, Handler: h})
	depth := len(c.stack)
	defer func() { c.stack = c.stack[:depth-1] }()
	return h.RenderAndEdit(key, v, c)
}

func (c *Context) path(key string) []string {
	p := make([]string, 0, len(c.stack)+1)
	for _, f := range c.stack {
		p = append(p, f.Key)
	}
	return append(p, key)
}

// #endregion input

// #region stack
// Parent returns the frame depth levels above the innermost one. Parent(0)
// is the innermost frame: inside CanHandle that is the enclosing node,
// inside RenderAndEdit the node itself. ok is false past the root.
func (c *Context) Parent(depth int) (f Frame, ok bool) {
	i := len(c.stack) - 1 - depth
	if depth < 0 || i < 0 {
		return Frame{}, false
	}
	return c.stack[i], true
}

// Depth returns the number of frames on the stack.
func (c *Context) Depth() int { return len(c.stack) }

// #endregion stack

// #region dirty
// MarkDirty ORs dirty into level 0.
func (c *Context) MarkDirty(dirty bool) {
	c.MarkDirtyAt(0, dirty)
}

// MarkDirtyAt ORs dirty into level, creating the level clean first.
func (c *Context) MarkDirtyAt(level int, dirty bool) {
	c.dirty[level] = c.dirty[level] || dirty
}

// IsDirty reports level 0.
func (c *Context) IsDirty() bool {
	return c.dirty[0]
}

// IsDirtyAt reports level, or ErrUnknownDirtyLevel if it was never marked.
func (c *Context) IsDirtyAt(level int) (bool, error) {
	d, ok := c.dirty[level]
	if !ok {
		return false, ErrUnknownDirtyLevel
	}
	return d, nil
}

// DirtyLevels returns a copy of every known level.
func (c *Context) DirtyLevels() map[int]bool {
	return maps.Clone(c.dirty)
}

// ResetDirty sets every known level clean.
func (c *Context) ResetDirty() {
	for level := range c.dirty {
		c.dirty[level] = false
	}
}

// RestoreDirty replaces every level with levels, as returned by
// DirtyLevels. Level 0 always stays known.
func (c *Context) RestoreDirty(levels map[int]bool) {
	c.dirty = make(map[int]bool, len(levels)+1)
	maps.Copy(c.dirty, levels)
	if _, ok := c.dirty[0]; !ok {
		c.dirty[0] = false
	}
}

// #endregion dirty

// #region state
// State returns cross-frame handler state stored under key.
func (c *Context) State(key string) (any, bool) {
	v, ok := c.state[key]
	return v, ok
}

// SetState stores cross-frame handler state.
func (c *Context) SetState(key string, v any) {
	c.state[key] = v
}

// Errors returns the errors recorded during the current frame.
func (c *Context) Errors() []error {
	return append([]error(nil), c.errs...)
}

// Err joins the errors recorded during the current frame.
func (c *Context) Err() error {
	return errors.Join(c.errs...)
}

// #endregion state
