package session

import (
	"log/slog"

	"github.com/danielpatrickdp/jsonui/internal/gate"
	"github.com/danielpatrickdp/jsonui/internal/launcher"
	"github.com/danielpatrickdp/jsonui/internal/store"
)

// Widget labels of the session window.
const (
	DefaultWindow = "State"
	ApplyButton   = "apply"
)

// Sink persists a committed document.
type Sink interface {
	Save(doc any) error
}

// #region options
// Options configures a Session. Every collaborator is optional.
type Options struct {
	RootKey  string // defaults to "state"
	Window   string // defaults to DefaultWindow
	Sink     Sink
	Store    *store.Store
	Gate     *gate.Gate
	Launcher *launcher.Launcher
	Logger   *slog.Logger
}

// #endregion options

// #region frame-result
// FrameResult summarizes one frame.
type FrameResult struct {
	Number    int
	Dirty     map[int]bool
	Applied   bool
	Abandoned bool
	Save      *SaveResult // nil when nothing was saved
	Errors    []error     // dispatch errors recorded in strict mode
	Statuses  []launcher.Status
}

// SaveResult is the outcome of one save attempt.
type SaveResult struct {
	Trigger   string
	Decision  string // "commit" | "reject"
	Reason    string
	VersionID string
	Findings  []string
}

// #endregion frame-result
