package headless

import "errors"

// ErrUnbalanced is returned from EndFrame when the frame left IDs, tree nodes
// or windows on the stack.
var ErrUnbalanced = errors.New("headless: unbalanced scope stack")

// #region event
// Event is an input addressed to a widget path. A widget path is the ID stack
// joined by "/" followed by the widget label, with empty IDs skipped.
type Event struct {
	Path   string `json:"path"`
	Value  any    `json:"value,omitempty"`
	Press  bool   `json:"press,omitempty"`
	Remote bool   `json:"remote,omitempty"` // came from the state service
}

// SetValue returns an event that edits the widget at path.
func SetValue(path string, v any) Event {
	return Event{Path: path, Value: v}
}

// Press returns an event that presses the button, toggles the tree node or
// closes the window at path. Closing a window presses "<window path>/close".
func Press(path string) Event {
	return Event{Path: path, Press: true}
}

// #endregion event

// #region widget
// Widget is one drawn widget in a frame trace.
type Widget struct {
	Path    string `json:"path"`
	Type    string `json:"type"`
	Value   any    `json:"value,omitempty"`
	Changed bool   `json:"changed,omitempty"`
}

// Widget types recorded in a trace.
const (
	TypeWindow = "window"
	TypeTree   = "tree"
	TypeText   = "text"
	TypeButton = "button"
	TypeBool   = "bool"
	TypeInt    = "int"
	TypeFloat  = "float"
	TypeString = "string"
	TypeFloat4 = "float4"
)

// Frame is the trace of one completed frame.
type Frame struct {
	Number  int      `json:"number"`
	Widgets []Widget `json:"widgets"`
	// Dropped lists events that no widget consumed, or whose value could not
	// be converted to the widget's type.
	Dropped []Event `json:"dropped,omitempty"`
	// Remote is set when any delivered event was marked Remote.
	Remote bool `json:"remote,omitempty"`
}

// Find returns the first widget with the given path.
func (f Frame) Find(path string) (Widget, bool) {
	for _, w := range f.Widgets {
		if w.Path == path {
			return w, true
		}
	}
	return Widget{}, false
}

// #endregion widget
