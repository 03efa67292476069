package dispatch

import (
	"slices"

	"github.com/danielpatrickdp/jsonui/internal/value"
)

// #region registry
// Registry files handlers by key and by value kind. Buckets hold registration
// positions, so candidates always come back in registration order no matter
// which buckets they were found in.
type Registry struct {
	handlers []Handler
	byKey    map[Match[string]][]int
	byKind   map[Match[value.Kind]][]int
}

// NewRegistry returns a registry holding handlers in the given order.
func NewRegistry(handlers ...Handler) *Registry {
	r := &Registry{
		byKey:  make(map[Match[string]][]int),
		byKind: make(map[Match[value.Kind]][]int),
	}
	r.Register(handlers...)
	return r
}

// Register appends handlers after the ones already registered.
func (r *Registry) Register(handlers ...Handler) {
	for _, h := range handlers {
		pos := len(r.handlers)
		r.handlers = append(r.handlers, h)
		for _, k := range h.RegisterKeys() {
			r.byKey[k] = append(r.byKey[k], pos)
		}
		for _, k := range h.RegisterKinds() {
			r.byKind[k] = append(r.byKind[k], pos)
		}
	}
}

// #endregion registry

// #region candidates
// Candidates returns the handlers filed under key, kind or either wildcard,
// each once, in registration order.
func (r *Registry) Candidates(key string, kind value.Kind) []Handler {
	var buf [16]int
	pos := buf[:0]
	pos = append(pos, r.byKey[Exactly(key)]...)
	pos = append(pos, r.byKind[Exactly(kind)]...)
	pos = append(pos, r.byKey[AnyKey]...)
	pos = append(pos, r.byKind[AnyKind]...)
	slices.Sort(pos)
	pos = slices.Compact(pos)

	out := make([]Handler, len(pos))
	for i, p := range pos {
		out[i] = r.handlers[p]
	}
	return out
}

// #endregion candidates
