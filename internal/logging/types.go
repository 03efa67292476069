package logging

import "time"

// Save decisions.
const (
	DecisionCommit = "commit"
	DecisionReject = "reject"
	DecisionNoOp   = "no_op"
)

// Save triggers.
const (
	TriggerFrame  = "frame"
	TriggerApply  = "apply"
	TriggerRemote = "remote"
)

// #region save-entry
// SaveEntry is a single row in the save_log table.
type SaveEntry struct {
	ID          int64
	VersionID   string
	TriggerType string
	DirtyJSON   string
	Decision    string // "commit" | "reject" | "no_op"
	Reason      string
	CreatedAt   time.Time
}
// #endregion save-entry

// #region dirty-record
// DirtyRecord captures the dirty levels and gate outcome behind one save
// decision. Serialized as JSON into save_log.dirty_json.
type DirtyRecord struct {
	Levels map[int]bool `json:"levels"`
	Leaves int          `json:"leaves"`

	// Gate output
	GateRejected bool     `json:"gate_rejected,omitempty"`
	GateFindings []string `json:"gate_findings,omitempty"`
}
// #endregion dirty-record
