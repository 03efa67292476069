package replay

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/danielpatrickdp/jsonui/internal/dispatch"
	"github.com/danielpatrickdp/jsonui/internal/gate"
	"github.com/danielpatrickdp/jsonui/internal/handlers"
	"github.com/danielpatrickdp/jsonui/internal/logging"
	"github.com/danielpatrickdp/jsonui/internal/render/headless"
	"github.com/danielpatrickdp/jsonui/internal/session"
	"github.com/danielpatrickdp/jsonui/internal/value"
)

// #region types
// Frame is the scripted input of one frame.
type Frame struct {
	Events []headless.Event
	Fail   string
}

// Config selects the handlers, strictness and gate for a replay run.
type Config struct {
	RootKey  string
	Strict   bool
	Handlers []string         // empty means the built-in order
	Gate     *gate.GateConfig // nil disables the gate
	Logger   *slog.Logger     // nil discards
}

// FrameOutcome captures what one frame did.
type FrameOutcome struct {
	Frame     int
	Dirty     bool
	Saved     bool
	Decision  string // "commit" | "reject" | "" when no save was attempted
	Reason    string
	Abandoned bool
	Errors    []error
	Dropped   []headless.Event
}

// Summary provides aggregate stats from a replay run.
type Summary struct {
	Frames    int
	Commits   int
	Rejects   int
	Abandoned int
	Idle      int
	Final     any
	Saved     []any
}

// #endregion types

// #region sink
type memorySink struct {
	saved []any
}

func (m *memorySink) Save(doc any) error {
	m.saved = append(m.saved, value.Clone(doc))
	return nil
}

// #endregion sink

// #region replay
// Replay runs frames against doc through a session with a headless backend
// and an in-memory sink. Operates entirely in-memory.
func Replay(doc any, frames []Frame, cfg Config) ([]FrameOutcome, Summary, error) {
	hs, err := handlers.Select(cfg.Handlers)
	if err != nil {
		return nil, Summary{}, fmt.Errorf("select handlers: %w", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	ui := headless.New()
	ctx := dispatch.NewContext(dispatch.NewRegistry(hs...), ui, dispatch.Options{Strict: cfg.Strict, Logger: logger})
	sink := &memorySink{}
	opts := session.Options{RootKey: cfg.RootKey, Sink: sink, Logger: logger}
	if cfg.Gate != nil {
		opts.Gate = gate.NewGate(*cfg.Gate)
	}
	sess := session.New(value.Clone(doc), ctx, ui, opts)

	outcomes := make([]FrameOutcome, 0, len(frames))
	for _, fr := range frames {
		ui.Queue(fr.Events...)
		if fr.Fail != "" {
			ui.FailNextFrame(errors.New(fr.Fail))
		}
		res, err := sess.RunFrame()
		if err != nil && !res.Abandoned {
			return outcomes, Summary{}, fmt.Errorf("run frame %d: %w", res.Number, err)
		}

		out := FrameOutcome{
			Frame:     res.Number,
			Abandoned: res.Abandoned,
			Errors:    res.Errors,
			Dropped:   ui.LastFrame().Dropped,
		}
		for _, d := range res.Dirty {
			out.Dirty = out.Dirty || d
		}
		if res.Save != nil {
			out.Decision = res.Save.Decision
			out.Reason = res.Save.Reason
			out.Saved = res.Save.Decision == logging.DecisionCommit
		}
		outcomes = append(outcomes, out)
	}

	return outcomes, Summarize(outcomes, sess.Document(), sink.saved), nil
}

// Summarize computes aggregate stats from frame outcomes.
func Summarize(outcomes []FrameOutcome, final any, saved []any) Summary {
	s := Summary{
		Frames: len(outcomes),
		Final:  final,
		Saved:  saved,
	}
	for _, o := range outcomes {
		switch {
		case o.Abandoned:
			s.Abandoned++
		case o.Decision == logging.DecisionCommit:
			s.Commits++
		case o.Decision == logging.DecisionReject:
			s.Rejects++
		default:
			s.Idle++
		}
	}
	return s
}

// #endregion replay

// #region check
// Check replays f and returns one message per expectation it misses.
func Check(f *Fixture) ([]FrameOutcome, []string, error) {
	doc, err := f.StartDocument()
	if err != nil {
		return nil, nil, err
	}
	outcomes, summary, err := Replay(doc, f.ToFrames(), f.ToConfig())
	if err != nil {
		return outcomes, nil, err
	}

	var diffs []string
	for _, want := range f.Expected {
		if want.Frame < 1 || want.Frame > len(outcomes) {
			diffs = append(diffs, fmt.Sprintf("frame %d: not replayed", want.Frame))
			continue
		}
		got := outcomes[want.Frame-1]
		if got.Dirty != want.Dirty {
			diffs = append(diffs, fmt.Sprintf("frame %d: dirty=%t, want %t", want.Frame, got.Dirty, want.Dirty))
		}
		if got.Saved != want.Saved {
			diffs = append(diffs, fmt.Sprintf("frame %d: saved=%t, want %t", want.Frame, got.Saved, want.Saved))
		}
		if want.Decision != "" && got.Decision != want.Decision {
			diffs = append(diffs, fmt.Sprintf("frame %d: decision=%q, want %q", want.Frame, got.Decision, want.Decision))
		}
		if got.Abandoned != want.Abandoned {
			diffs = append(diffs, fmt.Sprintf("frame %d: abandoned=%t, want %t", want.Frame, got.Abandoned, want.Abandoned))
		}
	}

	wantDoc, ok, err := f.WantDocument()
	if err != nil {
		return outcomes, diffs, err
	}
	if ok && !value.Equal(wantDoc, summary.Final) {
		got, _ := value.Encode(summary.Final)
		diffs = append(diffs, fmt.Sprintf("final document: got %s", got))
	}
	return outcomes, diffs, nil
}

// #endregion check
