// Package textui renders frames as an indented text outline. It never reports
// edits, which makes it a read-only view of a document.
package textui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/danielpatrickdp/jsonui/internal/render"
)

var _ render.Backend = (*Backend)(nil)

const (
	ansiReset = "\033[0m"
	ansiBold  = "\033[1m"
	ansiDim   = "\033[2m"
	ansiCyan  = "\033[36m"
)

// #region backend
// Backend writes each frame to an io.Writer.
type Backend struct {
	w      *bufio.Writer
	color  bool
	depth  int
	ids    int
	column int
	split  bool
	label  string
	err    error
}

// New returns a backend writing to w. Colour is enabled when w is a terminal.
func New(w io.Writer) *Backend {
	color := false
	if f, ok := w.(*os.File); ok {
		color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Backend{w: bufio.NewWriter(w), color: color}
}

// SetColor overrides terminal detection.
func (b *Backend) SetColor(on bool) {
	b.color = on
}

// #endregion backend

// #region frame
func (b *Backend) BeginFrame() {
	b.depth, b.ids, b.column = 0, 0, 0
	b.split, b.label = false, ""
	b.err = nil
}

func (b *Backend) EndFrame() error {
	b.flushLabel()
	if err := b.w.Flush(); err != nil {
		return fmt.Errorf("flush frame: %w", err)
	}
	if b.err == nil && (b.depth != 0 || b.ids != 0) {
		return fmt.Errorf("textui: unbalanced frame (depth=%d ids=%d)", b.depth, b.ids)
	}
	return b.err
}

// #endregion frame

// #region layout
func (b *Backend) line(style, s string) {
	b.flushLabel()
	b.emit(style, s)
}

func (b *Backend) emit(style, s string) {
	if b.err != nil {
		return
	}
	indent := strings.Repeat("  ", b.depth)
	if b.color && style != "" {
		s = style + s + ansiReset
	}
	_, b.err = fmt.Fprintf(b.w, "%s%s\n", indent, s)
}

// field writes "label: value" when a label column is pending.
func (b *Backend) field(v string) {
	if b.split && b.label != "" {
		label := b.label
		if b.color {
			label = ansiCyan + label + ansiReset
		}
		b.label = ""
		b.emit("", label+": "+v)
		return
	}
	b.line("", v)
}

func (b *Backend) flushLabel() {
	if b.label == "" {
		return
	}
	label := b.label
	b.label = ""
	b.emit(ansiCyan, label)
}

func (b *Backend) PushID(string) { b.ids++ }

func (b *Backend) PopID() {
	if b.ids == 0 {
		b.err = fmt.Errorf("textui: PopID on empty stack")
		return
	}
	b.ids--
}

func (b *Backend) Columns(n int, _ float64) {
	b.flushLabel()
	b.split = n > 1
	b.column = 0
}

func (b *Backend) NextColumn() { b.column++ }

func (b *Backend) Begin(name string, _ bool) (bool, bool) {
	b.line(ansiBold, "["+name+"]")
	b.depth++
	return true, true
}

func (b *Backend) End() {
	b.flushLabel()
	if b.depth > 0 {
		b.depth--
	}
}

func (b *Backend) TreeNode(label string) bool {
	b.line(ansiBold, "▾ "+label)
	b.depth++
	return true
}

func (b *Backend) TreePop() {
	b.flushLabel()
	if b.depth > 0 {
		b.depth--
	}
}

// #endregion layout

// #region widgets
func (b *Backend) Text(s string) {
	if b.split && b.column == 0 {
		b.label = s
		return
	}
	b.line(ansiDim, s)
}

func (b *Backend) Button(label string) bool {
	b.field("<" + label + ">")
	return false
}

func (b *Backend) Checkbox(_ string, v bool) (bool, bool) {
	b.field(strconv.FormatBool(v))
	return false, v
}

func (b *Backend) InputInt(_ string, v int64) (bool, int64) {
	b.field(strconv.FormatInt(v, 10))
	return false, v
}

func (b *Backend) InputFloat(_ string, v float64) (bool, float64) {
	b.field(strconv.FormatFloat(v, 'f', 6, 64))
	return false, v
}

func (b *Backend) InputText(_ string, v string) (bool, string) {
	b.field(strconv.Quote(v))
	return false, v
}

func (b *Backend) InputFloat4(_ string, v [4]float64) (bool, [4]float64) {
	b.field(formatVec(v))
	return false, v
}

func (b *Backend) DragFloat4(_ string, v [4]float64, _, _, _ float64) (bool, [4]float64) {
	b.field(formatVec(v))
	return false, v
}

func formatVec(v [4]float64) string {
	parts := make([]string, len(v))
	for i, f := range v {
		parts[i] = strconv.FormatFloat(f, 'f', 3, 64)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// #endregion widgets
