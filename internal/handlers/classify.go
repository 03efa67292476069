package handlers

import (
	"slices"
	"strings"

	"github.com/danielpatrickdp/jsonui/internal/dispatch"
	"github.com/danielpatrickdp/jsonui/internal/value"
)

// #region reserved-keys
// hiddenKeys are record bookkeeping fields never shown as editable nodes.
var hiddenKeys = []string{"type", "count", "descType"}

// unnamedKeys are containers drawn without a tree node of their own.
var unnamedKeys = []string{"entries", "state", "data"}

// NodesKey is the key whose children render as separate windows.
const NodesKey = "nodes"

// #endregion reserved-keys

// #region predicates
// The predicates overlap on purpose; registration order decides between them.

// IsHidden matches reserved record fields and keys starting with "_".
func IsHidden(key string, _ any, _ *dispatch.Context) bool {
	return slices.Contains(hiddenKeys, key) || strings.HasPrefix(key, "_")
}

// IsScalar matches int and float nodes. Booleans are not scalars.
func IsScalar(_ string, v any, _ *dispatch.Context) bool {
	k := value.KindOf(v)
	return k == value.KindInt || k == value.KindFloat
}

// IsVector4 matches a list of exactly four floats.
func IsVector4(_ string, v any, _ *dispatch.Context) bool {
	list, ok := v.([]any)
	if !ok || len(list) != 4 {
		return false
	}
	for _, item := range list {
		if _, ok := item.(float64); !ok {
			return false
		}
	}
	return true
}

// IsDict matches any map.
func IsDict(_ string, v any, _ *dispatch.Context) bool {
	_, ok := v.(*value.Map)
	return ok
}

// IsList matches any list.
func IsList(_ string, v any, _ *dispatch.Context) bool {
	_, ok := v.([]any)
	return ok
}

// IsNodes matches a map under the "nodes" key.
func IsNodes(key string, v any, c *dispatch.Context) bool {
	return key == NodesKey && IsDict(key, v, c)
}

// IsUnnamedDict matches a map under one of the unnamed keys, or a map whose
// enclosing node is "nodes". A node without an enclosing frame only matches
// by key.
func IsUnnamedDict(key string, v any, c *dispatch.Context) bool {
	if !IsDict(key, v, c) {
		return false
	}
	if slices.Contains(unnamedKeys, key) {
		return true
	}
	if c == nil {
		return false
	}
	parent, ok := c.Parent(0)
	return ok && parent.Key == NodesKey
}

// IsSingleValue matches a {type, value} record without a count.
func IsSingleValue(_ string, v any, _ *dispatch.Context) bool {
	m, ok := v.(*value.Map)
	return ok && m.Has("type") && m.Has("value") && !m.Has("count")
}

// IsMultiValue matches a {type, value, count} record.
func IsMultiValue(_ string, v any, _ *dispatch.Context) bool {
	m, ok := v.(*value.Map)
	return ok && m.Has("type") && m.Has("value") && m.Has("count")
}

// #endregion predicates
