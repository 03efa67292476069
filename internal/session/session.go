package session

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/danielpatrickdp/jsonui/internal/dispatch"
	"github.com/danielpatrickdp/jsonui/internal/launcher"
	"github.com/danielpatrickdp/jsonui/internal/logging"
	"github.com/danielpatrickdp/jsonui/internal/render"
	"github.com/danielpatrickdp/jsonui/internal/value"
)

// #region session
// Session owns the edited document and runs one tree walk per frame. All
// methods except Document and Committed belong to the frame loop goroutine.
type Session struct {
	ctx  *dispatch.Context
	ui   render.Backend
	opts Options
	log  *slog.Logger

	doc    any
	frames int

	mu        sync.RWMutex
	published any
	committed any
}

// New returns a session editing doc. ctx must draw into ui.
func New(doc any, ctx *dispatch.Context, ui render.Backend, opts Options) *Session {
	if opts.RootKey == "" {
		opts.RootKey = "state"
	}
	if opts.Window == "" {
		opts.Window = DefaultWindow
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		ctx:       ctx,
		ui:        ui,
		opts:      opts,
		log:       logger,
		doc:       doc,
		published: value.Clone(doc),
		committed: value.Clone(doc),
	}
}

// Context returns the dispatch context.
func (s *Session) Context() *dispatch.Context { return s.ctx }

// Frames returns the number of frames run, abandoned ones included.
func (s *Session) Frames() int { return s.frames }

// Document returns a copy of the document as of the last completed frame.
// Safe for concurrent use.
func (s *Session) Document() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return value.Clone(s.published)
}

// Committed returns a copy of the last saved document. Safe for concurrent
// use.
func (s *Session) Committed() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return value.Clone(s.committed)
}

// #endregion session

// #region frame
// remoteSource is implemented by backends that know whether the frame's
// input came from the state service.
type remoteSource interface {
	RemoteInput() bool
}

// RunFrame runs one frame: the document window with the tree walk and the
// apply button, then the launcher windows. A backend failure abandons the
// frame: the document and its dirty levels revert to their state before the
// frame and the error is returned. Dirty or applied documents are saved afterwards.
func (s *Session) RunFrame() (FrameResult, error) {
	s.frames++
	res := FrameResult{Number: s.frames}
	before := value.Clone(s.doc)
	dirtyBefore := s.ctx.DirtyLevels()

	s.ui.BeginFrame()
	s.ctx.BeginFrame()
	render.Window(s.ui, s.opts.Window, false, func() {
		s.doc = s.ctx.Input(s.opts.RootKey, s.doc)
		res.Applied = s.ui.Button(ApplyButton)
	})
	if s.opts.Launcher != nil {
		s.opts.Launcher.Draw(s.ui)
	}
	if err := s.ui.EndFrame(); err != nil {
		s.doc = before
		s.ctx.RestoreDirty(dirtyBefore)
		res.Abandoned = true
		s.log.Warn("frame abandoned", "frame", res.Number, "err", err)
		return res, fmt.Errorf("frame %d: %w", res.Number, err)
	}

	res.Errors = s.ctx.Errors()
	for _, err := range res.Errors {
		s.log.Warn("dispatch error", "frame", res.Number, "err", err)
	}
	res.Statuses = s.drainLauncher()
	res.Dirty = s.ctx.DirtyLevels()

	s.mu.Lock()
	s.published = value.Clone(s.doc)
	s.mu.Unlock()

	rs, ok := s.ui.(remoteSource)
	remote := ok && rs.RemoteInput()
	trigger := ""
	switch {
	case res.Applied:
		trigger = logging.TriggerApply
	case s.ctx.IsDirty() && remote:
		trigger = logging.TriggerRemote
	case s.ctx.IsDirty():
		trigger = logging.TriggerFrame
	}
	if trigger == "" {
		return res, nil
	}
	save, err := s.save(trigger)
	res.Save = save
	return res, err
}

func (s *Session) drainLauncher() []launcher.Status {
	if s.opts.Launcher == nil {
		return nil
	}
	statuses := s.opts.Launcher.Drain()
	for _, st := range statuses {
		if st.State == launcher.StateFailed || st.Err != nil {
			s.log.Warn("action", "status", st.String())
			continue
		}
		s.log.Info("action", "status", st.String())
	}
	return statuses
}

// #endregion frame

// #region save
// Apply saves the current document regardless of dirty state.
func (s *Session) Apply() (*SaveResult, error) {
	return s.save(logging.TriggerApply)
}

// save gates, persists, versions and logs the current document, then
// clears every dirty level. A dirty document equal to the last committed
// one is logged as a no-op and not written; apply always writes. A gate
// rejection is not an error. A sink or store failure is returned and
// leaves the dirty flags set so the next frame retries.
func (s *Session) save(trigger string) (*SaveResult, error) {
	levels := s.ctx.DirtyLevels()
	rec := logging.DirtyRecord{Levels: levels, Leaves: value.Leaves(s.doc)}
	res := &SaveResult{Trigger: trigger, Decision: logging.DecisionCommit, Reason: reason(trigger, levels)}

	if trigger != logging.TriggerApply && value.Equal(s.doc, s.Committed()) {
		res.Decision = logging.DecisionNoOp
		res.Reason = "unchanged since last commit"
		s.logSave(res, rec)
		s.ctx.ResetDirty()
		return res, nil
	}

	if s.opts.Gate != nil {
		d := s.opts.Gate.Evaluate(s.opts.RootKey, s.doc)
		if d.Vetoed {
			res.Decision = logging.DecisionReject
			res.Reason = d.Reason
			res.Findings = d.Findings()
			rec.GateRejected = true
			rec.GateFindings = res.Findings
			s.log.Warn("save rejected", "trigger", trigger, "reason", d.Reason)
			s.logSave(res, rec)
			s.ctx.ResetDirty()
			return res, nil
		}
	}

	if s.opts.Sink != nil {
		if err := s.opts.Sink.Save(s.doc); err != nil {
			return nil, fmt.Errorf("save document: %w", err)
		}
	}
	if s.opts.Store != nil {
		ver, err := s.opts.Store.Commit(s.doc, res.Reason)
		if err != nil {
			return nil, fmt.Errorf("commit version: %w", err)
		}
		res.VersionID = ver.VersionID
	}
	s.logSave(res, rec)

	s.mu.Lock()
	s.committed = value.Clone(s.doc)
	s.mu.Unlock()
	s.ctx.ResetDirty()
	s.log.Info("document saved", "trigger", trigger, "version", res.VersionID, "reason", res.Reason)
	return res, nil
}

func (s *Session) logSave(res *SaveResult, rec logging.DirtyRecord) {
	if s.opts.Store == nil {
		return
	}
	err := logging.LogSave(s.opts.Store.DB(), logging.SaveEntry{
		VersionID:   res.VersionID,
		TriggerType: res.Trigger,
		DirtyJSON:   logging.EncodeDirty(rec),
		Decision:    res.Decision,
		Reason:      res.Reason,
	})
	if err != nil {
		s.log.Error("save log", "err", err)
	}
}

func reason(trigger string, levels map[int]bool) string {
	if trigger == logging.TriggerApply {
		return "apply"
	}
	var dirty []string
	for _, level := range slices.Sorted(maps.Keys(levels)) {
		if levels[level] {
			dirty = append(dirty, strconv.Itoa(level))
		}
	}
	r := "dirty levels " + strings.Join(dirty, ",")
	if levels[1] {
		r += " (structural)"
	}
	return r
}

// #endregion save

// #region run
// Run calls RunFrame every interval until ctx is done. Abandoned frames and
// save failures are logged and the loop continues.
func (s *Session) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.RunFrame(); err != nil {
				s.log.Error("frame failed", "err", err)
			}
		}
	}
}

// #endregion run
