package gate

import (
	"fmt"
	"math"
	"strconv"

	"github.com/danielpatrickdp/jsonui/internal/handlers"
	"github.com/danielpatrickdp/jsonui/internal/value"
)

// #region gate
// Gate decides whether a candidate document may be persisted.
type Gate struct {
	config GateConfig
}

// NewGate creates a gate with the given configuration.
func NewGate(config GateConfig) *Gate {
	return &Gate{config: config}
}

// Config returns the active limits.
func (g *Gate) Config() GateConfig { return g.config }

// Evaluate walks doc once and collects hard vetoes. rootKey names the
// document root in reported paths.
func (g *Gate) Evaluate(rootKey string, doc any) GateDecision {
	var vetoes []VetoSignal
	g.walk(rootKey, rootKey, doc, &vetoes)

	leaves := value.Leaves(doc)
	depth := value.Depth(doc)

	if g.config.MaxDepth > 0 && depth > g.config.MaxDepth {
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoDepth,
			Path:   rootKey,
			Reason: fmt.Sprintf("depth %d exceeds cap %d", depth, g.config.MaxDepth),
		})
	}
	if g.config.MaxLeaves > 0 && leaves > g.config.MaxLeaves {
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoLeaves,
			Path:   rootKey,
			Reason: fmt.Sprintf("%d leaves exceed cap %d", leaves, g.config.MaxLeaves),
		})
	}

	if len(vetoes) > 0 {
		return GateDecision{
			Action:      "reject",
			Reason:      fmt.Sprintf("hard veto: %s", vetoes[0].Reason),
			Vetoed:      true,
			VetoSignals: vetoes,
			Leaves:      leaves,
			Depth:       depth,
		}
	}
	return GateDecision{
		Action: "commit",
		Reason: fmt.Sprintf("passed gate: leaves=%d depth=%d", leaves, depth),
		Leaves: leaves,
		Depth:  depth,
	}
}

// #endregion gate

// #region walk
func (g *Gate) walk(key, path string, v any, vetoes *[]VetoSignal) {
	switch x := v.(type) {
	case float64:
		if g.config.RejectNonFinite && (math.IsNaN(x) || math.IsInf(x, 0)) {
			*vetoes = append(*vetoes, VetoSignal{
				Type:   VetoNonFinite,
				Path:   path,
				Reason: fmt.Sprintf("non-finite float %v", x),
			})
		}
	case []any:
		for i, item := range x {
			g.walk(key, path+"/"+strconv.Itoa(i), item, vetoes)
		}
	case *value.Map:
		if handlers.IsMultiValue(key, x, nil) {
			checkCount(path, x, vetoes)
		}
		for k, item := range x.All() {
			g.walk(k, path+"/"+k, item, vetoes)
		}
	}
}

// checkCount verifies a {type, value, count} record is consistent.
func checkCount(path string, rec *value.Map, vetoes *[]VetoSignal) {
	raw, _ := rec.Get("count")
	count, ok := value.AsInt(raw)
	if !ok {
		*vetoes = append(*vetoes, VetoSignal{
			Type:   VetoCountMismatch,
			Path:   path,
			Reason: fmt.Sprintf("count is %s, not int", value.KindOf(raw)),
		})
		return
	}
	if count < 0 {
		*vetoes = append(*vetoes, VetoSignal{
			Type:   VetoNegativeCount,
			Path:   path,
			Reason: fmt.Sprintf("negative count %d", count),
		})
		return
	}
	items, _ := rec.Get("value")
	list, ok := items.([]any)
	if !ok || int64(len(list)) != count {
		n := 1
		if ok {
			n = len(list)
		}
		*vetoes = append(*vetoes, VetoSignal{
			Type:   VetoCountMismatch,
			Path:   path,
			Reason: fmt.Sprintf("count %d but %d values", count, n),
		})
	}
}

// #endregion walk
