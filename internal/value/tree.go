package value

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrPathNotFound is returned when a path does not address an existing node.
var ErrPathNotFound = errors.New("path not found")

// #region clone
// Clone returns a deep copy of v.
func Clone(v any) any {
	switch x := v.(type) {
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = Clone(item)
		}
		return out
	case *Map:
		out := NewMap()
		for k, item := range x.All() {
			out.Set(k, Clone(item))
		}
		return out
	default:
		return v
	}
}

// #endregion clone

// #region leaves
// Leaves counts scalar nodes under v. Empty containers contribute nothing.
func Leaves(v any) int {
	switch x := v.(type) {
	case []any:
		n := 0
		for _, item := range x {
			n += Leaves(item)
		}
		return n
	case *Map:
		n := 0
		for _, item := range x.All() {
			n += Leaves(item)
		}
		return n
	default:
		return 1
	}
}

// Depth returns the container nesting depth of v; scalars have depth 0.
func Depth(v any) int {
	d := 0
	switch x := v.(type) {
	case []any:
		for _, item := range x {
			d = max(d, Depth(item))
		}
		return d + 1
	case *Map:
		for _, item := range x.All() {
			d = max(d, Depth(item))
		}
		return d + 1
	}
	return 0
}

// #endregion leaves

// #region paths
// ParsePath splits a slash separated path. The empty string is the root.
func ParsePath(s string) []string {
	s = strings.Trim(s, "/")
	if s == "" {
		return nil
	}
	return strings.Split(s, "/")
}

// Get returns the node addressed by path. List elements are addressed by
// their decimal index.
func Get(root any, path []string) (any, bool) {
	cur := root
	for _, seg := range path {
		switch x := cur.(type) {
		case *Map:
			v, ok := x.Get(seg)
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(x) {
				return nil, false
			}
			cur = x[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

// Set replaces the node addressed by path and returns the (possibly new)
// root. Intermediate nodes must exist; the last segment may add a map key.
func Set(root any, path []string, v any) (any, error) {
	if len(path) == 0 {
		return v, nil
	}
	parent, ok := Get(root, path[:len(path)-1])
	if !ok {
		return root, fmt.Errorf("set %s: %w", strings.Join(path, "/"), ErrPathNotFound)
	}
	last := path[len(path)-1]
	switch x := parent.(type) {
	case *Map:
		x.Set(last, v)
	case []any:
		i, err := strconv.Atoi(last)
		if err != nil || i < 0 || i >= len(x) {
			return root, fmt.Errorf("set %s: %w", strings.Join(path, "/"), ErrPathNotFound)
		}
		x[i] = v
	default:
		return root, fmt.Errorf("set %s: parent is %s: %w", strings.Join(path, "/"), KindOf(parent), ErrPathNotFound)
	}
	return root, nil
}

// #endregion paths
