package dispatch

import (
	"errors"
	"fmt"

	"github.com/danielpatrickdp/jsonui/internal/value"
)

// #region match
// Match is an index bucket selector: either one exact key/kind or the
// wildcard that every lookup also consults.
type Match[T comparable] struct {
	Value T
	Any   bool
}

// Exactly selects the bucket for v.
func Exactly[T comparable](v T) Match[T] {
	return Match[T]{Value: v}
}

// Wildcards consulted by every lookup.
var (
	AnyKey  = Match[string]{Any: true}
	AnyKind = Match[value.Kind]{Any: true}
)

// Keys selects the buckets for the given keys.
func Keys(keys ...string) []Match[string] {
	out := make([]Match[string], len(keys))
	for i, k := range keys {
		out[i] = Exactly(k)
	}
	return out
}

// Kinds selects the buckets for the given kinds.
func Kinds(kinds ...value.Kind) []Match[value.Kind] {
	out := make([]Match[value.Kind], len(kinds))
	for i, k := range kinds {
		out[i] = Exactly(k)
	}
	return out
}

func (m Match[T]) String() string {
	if m.Any {
		return "any"
	}
	return fmt.Sprint(m.Value)
}

// #endregion match

// #region handler
// Handler renders and edits nodes of one shape. RegisterKeys and
// RegisterKinds say which index buckets it is filed under; CanHandle makes
// the final decision for a concrete node. RenderAndEdit returns the node,
// possibly mutated or replaced, and must not fail on shape: CanHandle has
// already accepted it.
type Handler interface {
	Name() string
	RegisterKeys() []Match[string]
	RegisterKinds() []Match[value.Kind]
	CanHandle(key string, v any, c *Context) bool
	RenderAndEdit(key string, v any, c *Context) any
}

// Wildcard can be embedded by handlers that register under both wildcards.
type Wildcard struct{}

func (Wildcard) RegisterKeys() []Match[string] { return []Match[string]{AnyKey} }

func (Wildcard) RegisterKinds() []Match[value.Kind] { return []Match[value.Kind]{AnyKind} }

// Frame is one in-progress node on the dispatch stack.
type Frame struct {
	Key     string
	Value   any
	Handler Handler
}

// #endregion handler

// #region errors
var (
	// ErrNoHandler matches every *NoHandlerError.
	ErrNoHandler = errors.New("no handler matched")
	// ErrUnknownDirtyLevel is returned for dirty levels never marked.
	ErrUnknownDirtyLevel = errors.New("unknown dirty level")
)

// NoHandlerError reports a node no registered handler accepted.
type NoHandlerError struct {
	Key  string
	Kind value.Kind
	Path []string
}

func (e *NoHandlerError) Error() string {
	return fmt.Sprintf("no handler matched key %q (%s) at %v", e.Key, e.Kind, e.Path)
}

func (e *NoHandlerError) Is(target error) bool {
	return target == ErrNoHandler
}

// #endregion errors
