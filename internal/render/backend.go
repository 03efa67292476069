package render

// #region backend
// Backend is the immediate-mode widget surface handlers draw into. Every
// widget call happens inside a BeginFrame/EndFrame pair; editable widgets
// return whether the user changed the value this frame and the new value.
type Backend interface {
	BeginFrame()
	// EndFrame finishes the frame. A non-nil error means the frame is out of
	// sync with the backend and its edits must be discarded.
	EndFrame() error

	// Begin opens a window. visible reports whether its contents should be
	// drawn; open turns false when the user closes a closable window.
	// End must be called whenever Begin was called.
	Begin(name string, closable bool) (visible, open bool)
	End()

	// TreeNode draws a collapsible node; TreePop must follow only when it
	// returned true.
	TreeNode(label string) bool
	TreePop()

	Text(s string)
	Button(label string) bool
	Checkbox(label string, v bool) (bool, bool)
	InputInt(label string, v int64) (bool, int64)
	InputFloat(label string, v float64) (bool, float64)
	InputText(label string, v string) (bool, string)
	InputFloat4(label string, v [4]float64) (bool, [4]float64)
	DragFloat4(label string, v [4]float64, speed, min, max float64) (bool, [4]float64)

	PushID(id string)
	PopID()
	// Columns switches to n layout columns; labelWidth is the first column's
	// share of the content width. Columns(1, 0) restores a single column.
	Columns(n int, labelWidth float64)
	NextColumn()
}

// #endregion backend
