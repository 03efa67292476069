package launcher

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os/exec"
	"sync"
	"time"

	"github.com/danielpatrickdp/jsonui/internal/config"
	"github.com/danielpatrickdp/jsonui/internal/persist"
	"github.com/danielpatrickdp/jsonui/internal/render"
	"github.com/danielpatrickdp/jsonui/internal/value"
)

// #region launcher
// Launcher starts configured actions as detached processes. Their
// lifecycle is reported on a buffered status channel and never reaches the
// edited document. Processes are never waited for on shutdown.
type Launcher struct {
	actions []config.Action
	log     *slog.Logger
	status  chan Status
	results *persist.Cache

	mu      sync.Mutex
	running map[string]int
}

// Options configures a Launcher.
type Options struct {
	Logger *slog.Logger
	// Buffer is the status channel capacity. Statuses beyond it are logged
	// and dropped.
	Buffer int
	// Results keeps the latest status of every action, one entry per
	// action name. Nil disables it.
	Results *persist.Cache
}

// New returns a launcher for actions.
func New(actions []config.Action, opts Options) *Launcher {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Buffer <= 0 {
		opts.Buffer = 64
	}
	return &Launcher{
		actions: actions,
		log:     logger,
		status:  make(chan Status, opts.Buffer),
		results: opts.Results,
		running: make(map[string]int),
	}
}

// Actions returns the configured actions.
func (l *Launcher) Actions() []config.Action {
	return append([]config.Action(nil), l.actions...)
}

// Running returns how many processes of action are still running.
func (l *Launcher) Running(action string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running[action]
}

// Active returns the running process count of every action with one.
func (l *Launcher) Active() map[string]int {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := maps.Clone(l.running)
	maps.DeleteFunc(out, func(_ string, n int) bool { return n <= 0 })
	return out
}

// #endregion launcher

// #region launch
// Launch starts action name and returns once the process is running.
// Start failures are returned and also reported as StateFailed.
func (l *Launcher) Launch(name string) error {
	a, ok := l.lookup(name)
	if !ok {
		return fmt.Errorf("launch %s: %w", name, ErrUnknownAction)
	}

	cmd := exec.Command(a.Command, a.Args...)
	cmd.Dir = a.Dir
	detach(cmd)
	if err := cmd.Start(); err != nil {
		l.send(Status{Action: name, State: StateFailed, Err: err, At: time.Now()})
		return fmt.Errorf("launch %s: %w", name, err)
	}

	pid := cmd.Process.Pid
	l.mu.Lock()
	l.running[name]++
	l.mu.Unlock()
	l.send(Status{Action: name, State: StateStarted, PID: pid, At: time.Now()})

	go func() {
		err := cmd.Wait()
		l.mu.Lock()
		l.running[name]--
		l.mu.Unlock()

		st := Status{Action: name, State: StateExited, PID: pid, Err: err, At: time.Now()}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			st.ExitCode = exitErr.ExitCode()
		}
		l.send(st)
	}()
	return nil
}

func (l *Launcher) lookup(name string) (config.Action, bool) {
	for _, a := range l.actions {
		if a.Name == name {
			return a, true
		}
	}
	return config.Action{}, false
}

func (l *Launcher) send(s Status) {
	l.record(s)
	select {
	case l.status <- s:
	default:
		l.log.Warn("launcher status dropped", "status", s.String())
	}
}

// #endregion launch

// #region status
// Drain returns every status available without blocking.
func (l *Launcher) Drain() []Status {
	var out []Status
	for {
		select {
		case s := <-l.status:
			out = append(out, s)
		default:
			return out
		}
	}
}

// record stores s as the latest result of its action.
func (l *Launcher) record(s Status) {
	if l.results == nil {
		return
	}
	if err := l.results.Put(s.Action, statusRecord(s)); err != nil {
		l.log.Warn("record action result", "action", s.Action, "err", err)
	}
}

// Last returns the latest recorded status of action, possibly from an
// earlier run. Without a results cache it is persist.ErrNotFound.
func (l *Launcher) Last(action string) (Status, error) {
	if l.results == nil {
		return Status{}, fmt.Errorf("last %s: %w", action, persist.ErrNotFound)
	}
	v, err := l.results.Get(action)
	if err != nil {
		return Status{}, fmt.Errorf("last %s: %w", action, err)
	}
	return parseRecord(action, v)
}

func statusRecord(s Status) *value.Map {
	m := value.MapOf(
		"state", string(s.State),
		"pid", int64(s.PID),
		"exit_code", int64(s.ExitCode),
		"at", s.At.UTC().Format(time.RFC3339Nano),
	)
	if s.Err != nil {
		m.Set("error", s.Err.Error())
	}
	return m
}

func parseRecord(action string, v any) (Status, error) {
	m, ok := v.(*value.Map)
	if !ok {
		return Status{}, fmt.Errorf("parse %s result: not an object", action)
	}
	st := Status{Action: action}
	if x, ok := m.Get("state"); ok {
		state, _ := x.(string)
		st.State = State(state)
	}
	if x, ok := m.Get("pid"); ok {
		n, _ := value.AsInt(x)
		st.PID = int(n)
	}
	if x, ok := m.Get("exit_code"); ok {
		n, _ := value.AsInt(x)
		st.ExitCode = int(n)
	}
	if x, ok := m.Get("error"); ok {
		if msg, _ := x.(string); msg != "" {
			st.Err = errors.New(msg)
		}
	}
	if x, ok := m.Get("at"); ok {
		at, _ := x.(string)
		t, err := time.Parse(time.RFC3339Nano, at)
		if err != nil {
			return Status{}, fmt.Errorf("parse %s result: %w", action, err)
		}
		st.At = t
	}
	return st, nil
}

// #endregion status

// #region draw
// Draw renders one button per action, grouped into windows in order of
// first appearance. A pressed button launches its action; failures are
// logged.
func (l *Launcher) Draw(ui render.Backend) {
	var windows []string
	byWindow := make(map[string][]config.Action)
	for _, a := range l.actions {
		w := a.Window
		if w == "" {
			w = DefaultWindow
		}
		if _, ok := byWindow[w]; !ok {
			windows = append(windows, w)
		}
		byWindow[w] = append(byWindow[w], a)
	}
	for _, w := range windows {
		render.Window(ui, w, false, func() {
			for _, a := range byWindow[w] {
				if !ui.Button(a.Name) {
					continue
				}
				if err := l.Launch(a.Name); err != nil {
					l.log.Error("launch failed", "action", a.Name, "err", err)
				}
			}
		})
	}
}

// #endregion draw
