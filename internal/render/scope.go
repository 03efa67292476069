package render

// DefaultLabelWidth is the label column share used by LabelWrap.
const DefaultLabelWidth = 0.4

// #region scopes
// WithID runs fn with id pushed on the backend's ID stack. The ID is popped
// on every exit path of fn, including panics.
func WithID(b Backend, id string, fn func()) {
	b.PushID(id)
	defer b.PopID()
	fn()
}

// LabelWrap draws label in a left column and runs fn in the right column,
// scoped under label's ID. width is the label column share; zero means
// DefaultLabelWidth.
func LabelWrap(b Backend, label string, width float64, fn func()) {
	if width <= 0 {
		width = DefaultLabelWidth
	}
	b.PushID(label)
	b.Columns(2, width)
	defer func() {
		b.Columns(1, 0)
		b.PopID()
	}()
	b.Text(label)
	b.NextColumn()
	fn()
}

// Window runs fn inside a window when the window is visible and reports
// whether the window is still open afterwards.
func Window(b Backend, name string, closable bool, fn func()) (open bool) {
	visible, open := b.Begin(name, closable)
	defer b.End()
	if visible {
		fn()
	}
	return open
}

// Tree runs fn inside a collapsible tree node when it is expanded.
func Tree(b Backend, label string, fn func()) {
	if !b.TreeNode(label) {
		return
	}
	defer b.TreePop()
	fn()
}

// #endregion scopes
