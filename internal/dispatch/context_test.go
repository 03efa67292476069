package dispatch

import (
	"errors"
	"testing"

	"github.com/danielpatrickdp/jsonui/internal/render/headless"
	"github.com/danielpatrickdp/jsonui/internal/value"
)

// #region helpers
type stubHandler struct {
	name  string
	keys  []Match[string]
	kinds []Match[value.Kind]
	can   func(key string, v any, c *Context) bool
	edit  func(key string, v any, c *Context) any
	asked int
}

func (s *stubHandler) Name() string                       { return s.name }
func (s *stubHandler) RegisterKeys() []Match[string]      { return s.keys }
func (s *stubHandler) RegisterKinds() []Match[value.Kind] { return s.kinds }

func (s *stubHandler) CanHandle(key string, v any, c *Context) bool {
	s.asked++
	if s.can == nil {
		return true
	}
	return s.can(key, v, c)
}

func (s *stubHandler) RenderAndEdit(key string, v any, c *Context) any {
	if s.edit == nil {
		return v
	}
	return s.edit(key, v, c)
}

func newContext(handlers ...Handler) *Context {
	return NewContext(NewRegistry(handlers...), headless.New(), Options{})
}

// #endregion helpers

// #region dispatch-tests
func TestCandidatesFollowRegistrationOrder(t *testing.T) {
	generic := &stubHandler{name: "generic", kinds: Kinds(value.KindMap)}
	byKey := &stubHandler{name: "by-key", keys: Keys("nodes")}
	catchAll := &stubHandler{name: "catch-all", keys: []Match[string]{AnyKey}}
	r := NewRegistry(byKey, generic, catchAll)

	got := r.Candidates("nodes", value.KindMap)
	want := []string{"by-key", "generic", "catch-all"}
	if len(got) != len(want) {
		t.Fatalf("got %d candidates, want %d", len(got), len(want))
	}
	for i, h := range got {
		if h.Name() != want[i] {
			t.Errorf("candidate %d: got %s, want %s", i, h.Name(), want[i])
		}
	}

	if got := r.Candidates("other", value.KindInt); len(got) != 1 || got[0] != catchAll {
		t.Errorf("expected only the wildcard handler, got %v", got)
	}
}

func TestHandlerFiledUnderSeveralBucketsAskedOnce(t *testing.T) {
	h := &stubHandler{
		name:  "multi",
		keys:  []Match[string]{Exactly("x"), AnyKey},
		kinds: []Match[value.Kind]{Exactly(value.KindInt), AnyKind},
		can:   func(string, any, *Context) bool { return false },
	}
	c := newContext(h)
	c.Input("x", int64(1))
	if h.asked != 1 {
		t.Errorf("CanHandle called %d times, want 1", h.asked)
	}
}

func TestFirstAcceptingHandlerWins(t *testing.T) {
	decline := &stubHandler{name: "decline", keys: []Match[string]{AnyKey}, can: func(string, any, *Context) bool { return false }}
	first := &stubHandler{name: "first", keys: []Match[string]{AnyKey}, edit: func(string, any, *Context) any { return "first" }}
	second := &stubHandler{name: "second", keys: []Match[string]{AnyKey}, edit: func(string, any, *Context) any { return "second" }}
	c := newContext(decline, first, second)

	if got := c.Input("k", "v"); got != "first" {
		t.Fatalf("got %v, want first", got)
	}
	if second.asked != 0 {
		t.Error("handlers after the accepting one must not be consulted")
	}
}

func TestParentDuringCanHandleAndRender(t *testing.T) {
	var seenInCan, seenInRender string
	var rootParentOK = true
	child := &stubHandler{
		name:  "child",
		kinds: Kinds(value.KindInt),
		can: func(key string, v any, c *Context) bool {
			p, ok := c.Parent(0)
			if ok {
				seenInCan = p.Key
			}
			return true
		},
		edit: func(key string, v any, c *Context) any {
			p, _ := c.Parent(0)
			seenInRender = p.Key
			return v
		},
	}
	container := &stubHandler{
		name:  "container",
		kinds: Kinds(value.KindMap),
		can: func(key string, v any, c *Context) bool {
			_, rootParentOK = c.Parent(0)
			return true
		},
		edit: func(key string, v any, c *Context) any {
			m := v.(*value.Map)
			for k, item := range m.All() {
				m.Set(k, c.Input(k, item))
			}
			return m
		},
	}
	c := newContext(child, container)
	c.Input("outer", value.MapOf("leaf", int64(1)))

	if rootParentOK {
		t.Error("root node should have no parent frame")
	}
	if seenInCan != "outer" {
		t.Errorf("Parent(0) in CanHandle = %q, want outer", seenInCan)
	}
	if seenInRender != "leaf" {
		t.Errorf("Parent(0) in RenderAndEdit = %q, want leaf", seenInRender)
	}
	if c.Depth() != 0 {
		t.Errorf("stack not empty after input: %d", c.Depth())
	}
	if _, ok := c.Parent(-1); ok {
		t.Error("negative depth should report absent")
	}
}

func TestStackPoppedOnPanic(t *testing.T) {
	h := &stubHandler{name: "boom", keys: []Match[string]{AnyKey}, edit: func(string, any, *Context) any { panic("boom") }}
	c := newContext(h)
	func() {
		defer func() { recover() }()
		c.Input("k", 1)
	}()
	if c.Depth() != 0 {
		t.Errorf("expected empty stack after panic, got %d", c.Depth())
	}
}

// #endregion dispatch-tests

// #region no-handler-tests
func TestNoHandlerLenient(t *testing.T) {
	c := newContext()
	v := value.MapOf("a", 1)
	if got := c.Input("k", v); got != v {
		t.Fatal("unmatched node should come back unchanged")
	}
	if len(c.Errors()) != 0 {
		t.Errorf("lenient mode should not record errors, got %v", c.Errors())
	}
}

func TestNoHandlerStrict(t *testing.T) {
	c := NewContext(NewRegistry(), headless.New(), Options{Strict: true})
	c.Input("k", "v")
	err := c.Err()
	if !errors.Is(err, ErrNoHandler) {
		t.Fatalf("expected ErrNoHandler, got %v", err)
	}
	var nh *NoHandlerError
	if !errors.As(err, &nh) || nh.Key != "k" || nh.Kind != value.KindString {
		t.Fatalf("unexpected error detail: %+v", nh)
	}

	c.BeginFrame()
	if c.Err() != nil {
		t.Error("BeginFrame should clear recorded errors")
	}
}

func TestTryInput(t *testing.T) {
	c := newContext()
	_, err := c.TryInput("k", 1.5)
	if !errors.Is(err, ErrNoHandler) {
		t.Fatalf("expected ErrNoHandler, got %v", err)
	}
}

// #endregion no-handler-tests

// #region dirty-tests
func TestDirtyLevels(t *testing.T) {
	c := newContext()
	if c.IsDirty() {
		t.Fatal("level 0 should start clean")
	}
	if _, err := c.IsDirtyAt(2); !errors.Is(err, ErrUnknownDirtyLevel) {
		t.Fatalf("expected ErrUnknownDirtyLevel, got %v", err)
	}

	c.MarkDirtyAt(2, false)
	if d, err := c.IsDirtyAt(2); err != nil || d {
		t.Fatalf("level 2 = %v, %v; want false, nil", d, err)
	}

	c.MarkDirty(true)
	c.MarkDirty(false)
	if !c.IsDirty() {
		t.Fatal("MarkDirty(false) must not clear an earlier mark")
	}

	c.ResetDirty()
	if c.IsDirty() {
		t.Fatal("ResetDirty should clear level 0")
	}
	if _, err := c.IsDirtyAt(2); err != nil {
		t.Fatal("ResetDirty should keep levels known")
	}
	if got := c.DirtyLevels(); len(got) != 2 {
		t.Errorf("expected 2 known levels, got %v", got)
	}
}

func TestRestoreDirty(t *testing.T) {
	c := newContext()
	c.MarkDirtyAt(1, true)
	snap := c.DirtyLevels()

	c.MarkDirtyAt(3, true)
	c.ResetDirty()
	c.RestoreDirty(snap)
	if d, _ := c.IsDirtyAt(1); !d {
		t.Error("level 1 should be dirty again")
	}
	if _, err := c.IsDirtyAt(3); !errors.Is(err, ErrUnknownDirtyLevel) {
		t.Errorf("level 3 was not in the snapshot, got %v", err)
	}

	snap[1] = false
	if d, _ := c.IsDirtyAt(1); !d {
		t.Error("RestoreDirty must copy the snapshot")
	}

	c.RestoreDirty(nil)
	if _, err := c.IsDirtyAt(0); err != nil {
		t.Errorf("level 0 should stay known: %v", err)
	}
}

func TestState(t *testing.T) {
	c := newContext()
	if _, ok := c.State("x"); ok {
		t.Fatal("unexpected state")
	}
	c.SetState("x", 1)
	c.BeginFrame()
	if v, ok := c.State("x"); !ok || v != 1 {
		t.Errorf("state should survive frames, got %v %v", v, ok)
	}
}

// #endregion dirty-tests
