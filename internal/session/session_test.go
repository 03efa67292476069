package session

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/jsonui/internal/dispatch"
	"github.com/danielpatrickdp/jsonui/internal/gate"
	"github.com/danielpatrickdp/jsonui/internal/handlers"
	"github.com/danielpatrickdp/jsonui/internal/logging"
	"github.com/danielpatrickdp/jsonui/internal/render/headless"
	"github.com/danielpatrickdp/jsonui/internal/store"
	"github.com/danielpatrickdp/jsonui/internal/value"
)

// #region helpers
type memSink struct {
	saved []any
	err   error
}

func (m *memSink) Save(doc any) error {
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, value.Clone(doc))
	return nil
}

const doc = `{
  "speed": 1.5,
  "weights": {"type": "float", "value": [1.0, 2.0], "count": 2, "template": 0.0}
}`

func newSession(t *testing.T, opts Options) (*Session, *headless.Backend) {
	t.Helper()
	d, err := value.Decode([]byte(doc))
	require.NoError(t, err)
	ui := headless.New()
	ctx := dispatch.NewContext(handlers.NewRegistry(), ui, dispatch.Options{})
	return New(d, ctx, ui, opts), ui
}

func tempStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func get(t *testing.T, doc any, path ...string) any {
	t.Helper()
	v, ok := value.Get(doc, path)
	require.True(t, ok, "missing %v", path)
	return v
}

// #endregion helpers

// #region frame-tests
func TestIdleFrameDoesNotSave(t *testing.T) {
	sink := &memSink{}
	s, _ := newSession(t, Options{Sink: sink})

	res, err := s.RunFrame()
	require.NoError(t, err)
	require.Nil(t, res.Save)
	require.Empty(t, sink.saved)
	require.Equal(t, 1, res.Number)
}

func TestEditSavesOnce(t *testing.T) {
	sink := &memSink{}
	s, ui := newSession(t, Options{Sink: sink})

	ui.Queue(headless.SetValue("State/state/speed/float", 3.0))
	res, err := s.RunFrame()
	require.NoError(t, err)
	require.NotNil(t, res.Save)
	require.Equal(t, logging.TriggerFrame, res.Save.Trigger)
	require.Equal(t, logging.DecisionCommit, res.Save.Decision)
	require.Len(t, sink.saved, 1)
	require.Equal(t, 3.0, get(t, sink.saved[0], "speed"))
	require.False(t, s.Context().IsDirty())

	res, err = s.RunFrame()
	require.NoError(t, err)
	require.Nil(t, res.Save)
	require.Len(t, sink.saved, 1)

	require.Equal(t, 3.0, get(t, s.Document(), "speed"))
	require.Equal(t, 3.0, get(t, s.Committed(), "speed"))
}

func TestAbandonedFrameReverts(t *testing.T) {
	sink := &memSink{}
	s, ui := newSession(t, Options{Sink: sink})
	boom := errors.New("backend out of sync")

	ui.Queue(headless.SetValue("State/state/speed/float", 9.0))
	ui.FailNextFrame(boom)
	res, err := s.RunFrame()
	require.ErrorIs(t, err, boom)
	require.True(t, res.Abandoned)
	require.Empty(t, sink.saved)
	require.Equal(t, 1.5, get(t, s.Document(), "speed"))

	res, err = s.RunFrame()
	require.NoError(t, err)
	require.False(t, res.Abandoned)
	require.Nil(t, res.Save)
	require.Equal(t, 1.5, get(t, s.Document(), "speed"))
}

func TestApplyButtonSavesCleanDocument(t *testing.T) {
	sink := &memSink{}
	s, ui := newSession(t, Options{Sink: sink})

	ui.Queue(headless.Press("State/" + ApplyButton))
	res, err := s.RunFrame()
	require.NoError(t, err)
	require.True(t, res.Applied)
	require.NotNil(t, res.Save)
	require.Equal(t, logging.TriggerApply, res.Save.Trigger)
	require.Len(t, sink.saved, 1)

	_, err = s.Apply()
	require.NoError(t, err)
	require.Len(t, sink.saved, 2)
}

func TestRemoteEventTrigger(t *testing.T) {
	s, ui := newSession(t, Options{Sink: &memSink{}})

	// An idle frame between queueing and delivery must not lose the tag.
	ev := headless.SetValue("State/state/speed/float", 2.0)
	ev.Remote = true
	_, err := s.RunFrame()
	require.NoError(t, err)
	ui.Queue(ev)

	res, err := s.RunFrame()
	require.NoError(t, err)
	require.Equal(t, logging.TriggerRemote, res.Save.Trigger)

	ui.Queue(headless.SetValue("State/state/speed/float", 3.0))
	res, err = s.RunFrame()
	require.NoError(t, err)
	require.Equal(t, logging.TriggerFrame, res.Save.Trigger)
}

func TestStructuralEditReason(t *testing.T) {
	s, ui := newSession(t, Options{Sink: &memSink{}})
	ui.Queue(headless.SetValue("State/state/weights/len", 4))
	res, err := s.RunFrame()
	require.NoError(t, err)
	require.Equal(t, "dirty levels 0,1 (structural)", res.Save.Reason)
	require.Len(t, get(t, s.Document(), "weights", "value").([]any), 4)
}

// #endregion frame-tests

// #region save-tests
func TestSinkFailureKeepsDirty(t *testing.T) {
	sink := &memSink{err: errors.New("disk full")}
	s, ui := newSession(t, Options{Sink: sink})

	ui.Queue(headless.SetValue("State/state/speed/float", 3.0))
	_, err := s.RunFrame()
	require.Error(t, err)
	require.True(t, s.Context().IsDirty())

	sink.err = nil
	res, err := s.RunFrame()
	require.NoError(t, err)
	require.NotNil(t, res.Save)
	require.Len(t, sink.saved, 1)
}

func TestAbandonedFrameKeepsPendingSave(t *testing.T) {
	sink := &memSink{err: errors.New("disk full")}
	s, ui := newSession(t, Options{Sink: sink})

	ui.Queue(headless.SetValue("State/state/speed/float", 3.0))
	_, err := s.RunFrame()
	require.Error(t, err)
	require.True(t, s.Context().IsDirty())

	sink.err = nil
	ui.FailNextFrame(errors.New("backend out of sync"))
	res, err := s.RunFrame()
	require.Error(t, err)
	require.True(t, res.Abandoned)
	require.True(t, s.Context().IsDirty(), "abandoning must not drop a pending save")

	res, err = s.RunFrame()
	require.NoError(t, err)
	require.NotNil(t, res.Save)
	require.Len(t, sink.saved, 1)
	require.Equal(t, 3.0, get(t, sink.saved[0], "speed"))
}

func TestEditBackToCommittedIsNoOp(t *testing.T) {
	st := tempStore(t)
	sink := &memSink{err: errors.New("disk full")}
	s, ui := newSession(t, Options{Store: st, Sink: sink})

	ui.Queue(headless.SetValue("State/state/speed/float", 3.0))
	_, err := s.RunFrame()
	require.Error(t, err)

	sink.err = nil
	ui.Queue(headless.SetValue("State/state/speed/float", 1.5))
	res, err := s.RunFrame()
	require.NoError(t, err)
	require.Equal(t, logging.DecisionNoOp, res.Save.Decision)
	require.Empty(t, res.Save.VersionID)
	require.Empty(t, sink.saved)
	require.False(t, s.Context().IsDirty())

	saves, err := logging.ListSaves(st.DB(), 10)
	require.NoError(t, err)
	require.Len(t, saves, 1)
	require.Equal(t, logging.DecisionNoOp, saves[0].Decision)

	res, err = s.Apply()
	require.NoError(t, err)
	require.Equal(t, logging.DecisionCommit, res.Decision)
	require.Len(t, sink.saved, 1)
}

func TestStoreVersionsAndLog(t *testing.T) {
	st := tempStore(t)
	s, ui := newSession(t, Options{Store: st})

	ui.Queue(headless.SetValue("State/state/speed/float", 4.0))
	res, err := s.RunFrame()
	require.NoError(t, err)
	require.NotEmpty(t, res.Save.VersionID)

	cur, err := st.Current()
	require.NoError(t, err)
	require.Equal(t, res.Save.VersionID, cur.VersionID)
	require.Equal(t, 4.0, get(t, cur.Document, "speed"))

	saves, err := logging.ListSaves(st.DB(), 10)
	require.NoError(t, err)
	require.Len(t, saves, 1)
	require.Equal(t, logging.DecisionCommit, saves[0].Decision)
	require.Equal(t, res.Save.VersionID, saves[0].VersionID)
	rec := logging.ParseDirty(saves[0].DirtyJSON)
	require.NotNil(t, rec)
	require.True(t, rec.Levels[0])
}

func TestGateRejectsNaN(t *testing.T) {
	st := tempStore(t)
	sink := &memSink{}
	s, ui := newSession(t, Options{Store: st, Sink: sink, Gate: gate.NewGate(gate.DefaultGateConfig())})

	ui.Queue(headless.SetValue("State/state/speed/float", math.NaN()))
	res, err := s.RunFrame()
	require.NoError(t, err)
	require.Equal(t, logging.DecisionReject, res.Save.Decision)
	require.NotEmpty(t, res.Save.Findings)
	require.Empty(t, sink.saved)
	require.False(t, s.Context().IsDirty())

	saves, err := logging.ListSaves(st.DB(), 10)
	require.NoError(t, err)
	require.Len(t, saves, 1)
	require.Equal(t, logging.DecisionReject, saves[0].Decision)
	require.Empty(t, saves[0].VersionID)
	require.True(t, strings.HasPrefix(saves[0].Reason, "hard veto"))

	_, err = st.Current()
	require.ErrorIs(t, err, store.ErrNoActive)

	for range 3 {
		res, err = s.RunFrame()
		require.NoError(t, err)
		require.Nil(t, res.Save, "an idle frame over a NaN leaf must not save again")
	}
	saves, err = logging.ListSaves(st.DB(), 10)
	require.NoError(t, err)
	require.Len(t, saves, 1)
}

// #endregion save-tests

// #region run-tests
func TestRunStopsOnCancel(t *testing.T) {
	s, _ := newSession(t, Options{})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.NoError(t, s.Run(ctx, 5*time.Millisecond))
	require.Greater(t, s.Frames(), 0)
}

// #endregion run-tests
