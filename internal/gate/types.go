package gate

// #region veto-type
// VetoType enumerates hard veto categories.
type VetoType string

const (
	VetoNonFinite     VetoType = "non_finite"
	VetoCountMismatch VetoType = "count_mismatch"
	VetoNegativeCount VetoType = "negative_count"
	VetoDepth         VetoType = "max_depth"
	VetoLeaves        VetoType = "max_leaves"
)

// #endregion veto-type

// #region veto-signal
// VetoSignal represents a detected hard veto condition at one node.
type VetoSignal struct {
	Type   VetoType
	Path   string
	Reason string
}

// #endregion veto-signal

// #region gate-config
// GateConfig holds the limits a document must respect to be persisted.
type GateConfig struct {
	MaxDepth        int  // zero disables the depth check
	MaxLeaves       int  // zero disables the leaf count check
	RejectNonFinite bool // NaN and Inf do not encode as JSON
}

// DefaultGateConfig returns the limits used when none are configured.
func DefaultGateConfig() GateConfig {
	return GateConfig{
		MaxDepth:        64,
		RejectNonFinite: true,
	}
}

// #endregion gate-config

// #region gate-decision
// GateDecision is the output of the gate evaluation.
type GateDecision struct {
	Action      string // "commit" | "reject"
	Reason      string
	Vetoed      bool
	VetoSignals []VetoSignal // non-empty if vetoed
	Leaves      int
	Depth       int
}

// Findings returns one line per veto signal, for logging.
func (d GateDecision) Findings() []string {
	out := make([]string, len(d.VetoSignals))
	for i, v := range d.VetoSignals {
		out[i] = string(v.Type) + " at " + v.Path + ": " + v.Reason
	}
	return out
}

// #endregion gate-decision
