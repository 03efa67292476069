package launcher

import (
	"errors"
	"fmt"
	"time"
)

// DefaultWindow hosts actions that name no window.
const DefaultWindow = "functions"

// ErrUnknownAction is returned by Launch for names not configured.
var ErrUnknownAction = errors.New("unknown action")

// #region state
// State is the lifecycle stage a Status reports.
type State string

const (
	StateStarted State = "started"
	StateExited  State = "exited"
	StateFailed  State = "failed"
)

// #endregion state

// #region status
// Status reports one lifecycle event of a launched action.
type Status struct {
	Action   string
	State    State
	PID      int
	ExitCode int
	Err      error
	At       time.Time
}

func (s Status) String() string {
	switch s.State {
	case StateStarted:
		return fmt.Sprintf("%s started (pid %d)", s.Action, s.PID)
	case StateExited:
		if s.Err != nil {
			return fmt.Sprintf("%s exited with code %d: %v", s.Action, s.ExitCode, s.Err)
		}
		return fmt.Sprintf("%s exited", s.Action)
	default:
		return fmt.Sprintf("%s failed: %v", s.Action, s.Err)
	}
}

// #endregion status
