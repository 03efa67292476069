package handlers

import (
	"strconv"
	"strings"

	"github.com/danielpatrickdp/jsonui/internal/dispatch"
	"github.com/danielpatrickdp/jsonui/internal/render"
	"github.com/danielpatrickdp/jsonui/internal/value"
)

// Widget labels. Together with the ID scopes they form the widget paths the
// headless backend and the remote edit service address.
const (
	LabelInt    = "int"
	LabelFloat  = "float"
	LabelBool   = "bool"
	LabelText   = "text"
	LabelVec4   = "vec4"
	LabelLen    = "len"
	LabelClose  = "close"
	nodesColumn = 0.08
)

// Color vectors are dragged inside [colorMin, colorMax].
const (
	colorSpeed = 0.05
	colorMin   = 0.0
	colorMax   = 2.0
)

// #region hidden
// Hidden swallows bookkeeping fields. It draws nothing.
type Hidden struct{}

func (Hidden) Name() string { return "hidden" }

func (Hidden) RegisterKeys() []dispatch.Match[string] {
	return append(dispatch.Keys(hiddenKeys...), dispatch.AnyKey)
}

func (Hidden) RegisterKinds() []dispatch.Match[value.Kind] { return nil }

func (Hidden) CanHandle(key string, v any, c *dispatch.Context) bool {
	return IsHidden(key, v, c)
}

func (Hidden) RenderAndEdit(_ string, v any, _ *dispatch.Context) any { return v }

// #endregion hidden

// #region nodes
// WindowState is the per-child state the Nodes handler keeps in the context.
// Allocated is set once the child has been opened at least once.
type WindowState struct {
	Allocated bool
	Open      bool
}

// Nodes draws every child of a "nodes" map as a button that opens it in a
// window of its own.
type Nodes struct{}

func (Nodes) Name() string { return "nodes" }

func (Nodes) RegisterKeys() []dispatch.Match[string] { return dispatch.Keys(NodesKey) }

func (Nodes) RegisterKinds() []dispatch.Match[value.Kind] { return nil }

func (Nodes) CanHandle(key string, v any, c *dispatch.Context) bool {
	return IsNodes(key, v, c)
}

func (Nodes) RenderAndEdit(key string, v any, c *dispatch.Context) any {
	m := v.(*value.Map)
	ui := c.UI()
	render.WithID(ui, key, func() {
		ui.Text(key)
		for k, child := range m.All() {
			render.LabelWrap(ui, "", nodesColumn, func() {
				ws := NodeWindow(c, k)
				switch {
				case ws.Open && ui.Button(LabelClose+" ["+k+"]"):
					ws.Open = false
				case ws.Open:
					ws.Open = render.Window(ui, k, true, func() {
						m.Set(k, c.Input(k, child))
					})
				case ui.Button("[" + k + "]"):
					ws.Allocated, ws.Open = true, true
				}
				c.SetState(k, ws)
			})
		}
	})
	return m
}

// NodeWindow returns the window state of the nodes child k. A missing or
// foreign state entry reads as closed.
func NodeWindow(c *dispatch.Context, k string) WindowState {
	if s, ok := c.State(k); ok {
		if ws, ok := s.(WindowState); ok {
			return ws
		}
	}
	return WindowState{}
}

// #endregion nodes

// #region unnamed-dict
// UnnamedDict draws a container's entries in place, without a tree node.
type UnnamedDict struct{}

func (UnnamedDict) Name() string { return "unnamed_dict" }

func (UnnamedDict) RegisterKeys() []dispatch.Match[string] { return nil }

func (UnnamedDict) RegisterKinds() []dispatch.Match[value.Kind] {
	return dispatch.Kinds(value.KindMap)
}

func (UnnamedDict) CanHandle(key string, v any, c *dispatch.Context) bool {
	return IsUnnamedDict(key, v, c)
}

func (UnnamedDict) RenderAndEdit(key string, v any, c *dispatch.Context) any {
	m := v.(*value.Map)
	render.WithID(c.UI(), key, func() {
		for k, item := range m.All() {
			m.Set(k, c.Input(k, item))
		}
	})
	return m
}

// #endregion unnamed-dict

// #region records
// SingleValue draws a {type, value} record as its value, under the record's
// key.
type SingleValue struct{}

func (SingleValue) Name() string { return "single_value" }

func (SingleValue) RegisterKeys() []dispatch.Match[string] { return nil }

func (SingleValue) RegisterKinds() []dispatch.Match[value.Kind] {
	return dispatch.Kinds(value.KindMap)
}

func (SingleValue) CanHandle(key string, v any, c *dispatch.Context) bool {
	return IsSingleValue(key, v, c)
}

func (SingleValue) RenderAndEdit(key string, v any, c *dispatch.Context) any {
	m := v.(*value.Map)
	inner, _ := m.Get("value")
	m.Set("value", c.Input(key, inner))
	return m
}

// MultiValue draws a {type, value, count} record: an editable length followed
// by every element. Resizing keeps the common prefix and fills new slots
// from a deep copy of the "template" field, or of the first element.
type MultiValue struct{}

func (MultiValue) Name() string { return "multi_value" }

func (MultiValue) RegisterKeys() []dispatch.Match[string] { return nil }

func (MultiValue) RegisterKinds() []dispatch.Match[value.Kind] {
	return dispatch.Kinds(value.KindMap)
}

func (MultiValue) CanHandle(key string, v any, c *dispatch.Context) bool {
	return IsMultiValue(key, v, c)
}

func (MultiValue) RenderAndEdit(key string, v any, c *dispatch.Context) any {
	m := v.(*value.Map)
	ui := c.UI()

	raw, _ := m.Get("value")
	items, isList := raw.([]any)
	if !isList {
		items = []any{raw}
	}
	rawCount, _ := m.Get("count")
	count := countOf(rawCount, len(items))

	var changed bool
	render.LabelWrap(ui, key, 0, func() {
		changed, count = ui.InputInt(LabelLen, count)
	})
	// The record is only reshaped when the count is edited. A mismatched
	// count or a scalar value is left for the gate to judge.
	if changed {
		count = max(count, 0)
		items = resize(items, int(count), m)
		isList = true
		m.Set("count", count)
		c.MarkDirty(true)
		c.MarkDirtyAt(1, true)
	}

	for i, item := range items {
		render.WithID(ui, strconv.Itoa(i), func() {
			items[i] = c.Input(key, item)
		})
	}
	if isList {
		m.Set("value", items)
	} else {
		m.Set("value", items[0])
	}
	return m
}

func countOf(raw any, fallback int) int64 {
	if n, ok := value.AsInt(raw); ok {
		return n
	}
	if f, ok := raw.(float64); ok {
		return int64(f)
	}
	return int64(fallback)
}

func resize(items []any, n int, record *value.Map) []any {
	if n <= len(items) {
		return items[:n:n]
	}
	tmpl, ok := record.Get("template")
	if !ok && len(items) > 0 {
		tmpl, ok = items[0], true
	}
	out := make([]any, n)
	copy(out, items)
	for i := len(items); i < n; i++ {
		if ok {
			out[i] = value.Clone(tmpl)
		}
	}
	return out
}

// #endregion records

// #region leaves
// Vector4 edits a list of four floats. Keys mentioning "color" get a
// bounded drag widget.
type Vector4 struct{}

func (Vector4) Name() string { return "vector4" }

func (Vector4) RegisterKeys() []dispatch.Match[string] { return nil }

func (Vector4) RegisterKinds() []dispatch.Match[value.Kind] {
	return dispatch.Kinds(value.KindList)
}

func (Vector4) CanHandle(key string, v any, c *dispatch.Context) bool {
	return IsVector4(key, v, c)
}

func (Vector4) RenderAndEdit(key string, v any, c *dispatch.Context) any {
	list := v.([]any)
	var cur [4]float64
	for i := range cur {
		cur[i] = list[i].(float64)
	}
	ui := c.UI()
	var changed bool
	render.LabelWrap(ui, key, 0, func() {
		if strings.Contains(strings.ToLower(key), "color") {
			changed, cur = ui.DragFloat4(LabelVec4, cur, colorSpeed, colorMin, colorMax)
		} else {
			changed, cur = ui.InputFloat4(LabelVec4, cur)
		}
	})
	c.MarkDirty(changed)
	for i, f := range cur {
		list[i] = f
	}
	return list
}

// Scalar edits ints and floats, keeping the kind.
type Scalar struct{}

func (Scalar) Name() string { return "scalar" }

func (Scalar) RegisterKeys() []dispatch.Match[string] { return nil }

func (Scalar) RegisterKinds() []dispatch.Match[value.Kind] {
	return dispatch.Kinds(value.KindInt, value.KindFloat)
}

func (Scalar) CanHandle(key string, v any, c *dispatch.Context) bool {
	return IsScalar(key, v, c)
}

func (Scalar) RenderAndEdit(key string, v any, c *dispatch.Context) any {
	ui := c.UI()
	var (
		changed bool
		out     any
	)
	render.LabelWrap(ui, key, 0, func() {
		if n, ok := value.AsInt(v); ok {
			changed, out = ui.InputInt(LabelInt, n)
			return
		}
		changed, out = ui.InputFloat(LabelFloat, v.(float64))
	})
	c.MarkDirty(changed)
	return out
}

// Bool edits booleans with a checkbox.
type Bool struct{}

func (Bool) Name() string { return "bool" }

func (Bool) RegisterKeys() []dispatch.Match[string] { return nil }

func (Bool) RegisterKinds() []dispatch.Match[value.Kind] { return dispatch.Kinds(value.KindBool) }

func (Bool) CanHandle(_ string, v any, _ *dispatch.Context) bool {
	_, ok := v.(bool)
	return ok
}

func (Bool) RenderAndEdit(key string, v any, c *dispatch.Context) any {
	ui := c.UI()
	cur := v.(bool)
	var changed bool
	render.LabelWrap(ui, key, 0, func() {
		changed, cur = ui.Checkbox(LabelBool, cur)
	})
	c.MarkDirty(changed)
	return cur
}

// String edits strings with a text field.
type String struct{}

func (String) Name() string { return "string" }

func (String) RegisterKeys() []dispatch.Match[string] { return nil }

func (String) RegisterKinds() []dispatch.Match[value.Kind] {
	return dispatch.Kinds(value.KindString)
}

func (String) CanHandle(_ string, v any, _ *dispatch.Context) bool {
	_, ok := v.(string)
	return ok
}

func (String) RenderAndEdit(key string, v any, c *dispatch.Context) any {
	ui := c.UI()
	cur := v.(string)
	var changed bool
	render.LabelWrap(ui, key, 0, func() {
		changed, cur = ui.InputText(LabelText, cur)
	})
	c.MarkDirty(changed)
	return cur
}

// #endregion leaves

// #region containers
// List draws a list as a tree node with one scope per index. Elements are
// dispatched under the list's key.
type List struct{}

func (List) Name() string { return "list" }

func (List) RegisterKeys() []dispatch.Match[string] { return nil }

func (List) RegisterKinds() []dispatch.Match[value.Kind] { return dispatch.Kinds(value.KindList) }

func (List) CanHandle(key string, v any, c *dispatch.Context) bool {
	return IsList(key, v, c)
}

func (List) RenderAndEdit(key string, v any, c *dispatch.Context) any {
	list := v.([]any)
	ui := c.UI()
	render.Tree(ui, key, func() {
		for i, item := range list {
			render.WithID(ui, strconv.Itoa(i), func() {
				list[i] = c.Input(key, item)
			})
		}
	})
	return list
}

// Dict draws a map as a collapsible tree node.
type Dict struct{}

func (Dict) Name() string { return "dict" }

func (Dict) RegisterKeys() []dispatch.Match[string] { return nil }

func (Dict) RegisterKinds() []dispatch.Match[value.Kind] { return dispatch.Kinds(value.KindMap) }

func (Dict) CanHandle(key string, v any, c *dispatch.Context) bool {
	return IsDict(key, v, c)
}

func (Dict) RenderAndEdit(key string, v any, c *dispatch.Context) any {
	m := v.(*value.Map)
	render.Tree(c.UI(), key, func() {
		for k, item := range m.All() {
			m.Set(k, c.Input(k, item))
		}
	})
	return m
}

// Fallback shows any node read-only. It is registered last so every node
// gets drawn.
type Fallback struct{ dispatch.Wildcard }

func (Fallback) Name() string { return "fallback" }

func (Fallback) CanHandle(string, any, *dispatch.Context) bool { return true }

func (Fallback) RenderAndEdit(key string, v any, c *dispatch.Context) any {
	ui := c.UI()
	render.LabelWrap(ui, key, 0, func() {
		ui.Text(display(v))
	})
	return v
}

func display(v any) string {
	b, err := value.Encode(v)
	if err != nil {
		return "<" + value.KindOf(v).String() + ">"
	}
	return string(b)
}

// #endregion containers
