package handlers

import (
	"fmt"

	"github.com/danielpatrickdp/jsonui/internal/dispatch"
)

// Default returns the built-in handlers in priority order. Earlier handlers
// win when several accept a node.
func Default() []dispatch.Handler {
	return []dispatch.Handler{
		Hidden{},
		Nodes{},
		UnnamedDict{},
		SingleValue{},
		MultiValue{},
		Vector4{},
		Scalar{},
		Bool{},
		String{},
		List{},
		Dict{},
		Fallback{},
	}
}

// Names returns the names of the built-in handlers in priority order.
func Names() []string {
	hs := Default()
	out := make([]string, len(hs))
	for i, h := range hs {
		out[i] = h.Name()
	}
	return out
}

// ByName returns the built-in handler called name.
func ByName(name string) (dispatch.Handler, bool) {
	for _, h := range Default() {
		if h.Name() == name {
			return h, true
		}
	}
	return nil, false
}

// Select returns the named built-in handlers in the given order. An empty
// list selects Default.
func Select(names []string) ([]dispatch.Handler, error) {
	if len(names) == 0 {
		return Default(), nil
	}
	out := make([]dispatch.Handler, 0, len(names))
	for _, name := range names {
		h, ok := ByName(name)
		if !ok {
			return nil, fmt.Errorf("unknown handler %q", name)
		}
		out = append(out, h)
	}
	return out, nil
}

// NewRegistry returns a registry holding Default.
func NewRegistry() *dispatch.Registry {
	return dispatch.NewRegistry(Default()...)
}
