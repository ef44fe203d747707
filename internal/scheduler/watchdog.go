package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/hamed0406/urlwatchdog/internal/domain"
	"github.com/hamed0406/urlwatchdog/internal/probe"
	"github.com/hamed0406/urlwatchdog/internal/repo"
	"github.com/hamed0406/urlwatchdog/internal/status"
)

var ErrNotInitialized = errors.New("watchdog: Run called before a successful Init")

// Alerter delivers a transition message and reports whether it went out.
// notify.Gateway implements it.
type Alerter interface {
	Notify(ctx context.Context, message string) bool
}

type Watchdog struct {
	Logger       *zap.Logger
	ErrorLog     *zap.Logger
	Targets      repo.TargetSource
	Results      repo.ResultStore // optional
	Checker      probe.Checker
	Tracker      *status.Tracker
	Schedule     cron.Schedule
	Concurrency  int
	ProbeTimeout time.Duration
	notifier     Alerter

	state       atomic.Int32
	initialized bool
	stopOnce    sync.Once

	mu      sync.Mutex
	lastErr error
}

func NewWatchdog(
	logger *zap.Logger,
	ts repo.TargetSource,
	rs repo.ResultStore,
	checker probe.Checker,
	tracker *status.Tracker,
	notifier Alerter,
	schedule cron.Schedule,
	concurrency int,
) *Watchdog {
	if concurrency < 1 {
		concurrency = 1
	}
	if tracker == nil {
		tracker = status.NewTracker()
	}
	if schedule == nil {
		schedule = Interval(30 * time.Second)
	}
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &Watchdog{
		Logger:       logger,
		ErrorLog:     zap.NewNop(),
		Targets:      ts,
		Results:      rs,
		Checker:      checker,
		Tracker:      tracker,
		Schedule:     schedule,
		Concurrency:  concurrency,
		ProbeTimeout: 30 * time.Second,
		notifier:     notifier,
	}
}

func (w *Watchdog) State() State { return State(w.state.Load()) }

func (w *Watchdog) setState(s State) {
	w.state.Store(int32(s))
	w.Logger.Debug("watchdog_state", zap.Stringer("state", s))
}

// LastError is the registry or target configuration error of the latest
// cycle, nil once a cycle completes without one.
func (w *Watchdog) LastError() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastErr
}

func (w *Watchdog) setErr(err error) {
	w.mu.Lock()
	w.lastErr = err
	w.mu.Unlock()
}

// Init loads the registry once and seeds every target UP. A failure here is
// a configuration error and the watchdog must not start.
func (w *Watchdog) Init(ctx context.Context) error {
	w.setState(StateInitializing)
	descs, err := w.Targets.Load(ctx)
	if err != nil {
		return fmt.Errorf("load targets: %w", err)
	}
	names := make([]string, 0, len(descs))
	for _, d := range descs {
		if _, err := domain.Resolve(d); err != nil {
			w.Logger.Warn("target_config_error", zap.String("target", d.Name), zap.Error(err))
		}
		names = append(names, strings.TrimSpace(d.Name))
	}
	w.Tracker.Seed(names...)
	w.initialized = true
	w.Logger.Info("watchdog_initialized", zap.Int("targets", len(descs)))
	return nil
}

// Run polls until ctx is canceled and returns the cancellation cause.
// Cycles never overlap: the next wait starts after every probe returned.
func (w *Watchdog) Run(ctx context.Context) error {
	if !w.initialized {
		return ErrNotInitialized
	}
	w.setState(StateRunning)
	w.Logger.Info("watchdog_running", zap.Int("concurrency", w.Concurrency))

	for ctx.Err() == nil {
		_ = w.RunOnce(ctx)
		if !w.wait(ctx) {
			break
		}
	}

	w.setState(StateTerminating)
	w.Logger.Info("watchdog_stopping", zap.NamedError("cause", context.Cause(ctx)))
	return context.Cause(ctx)
}

func (w *Watchdog) wait(ctx context.Context) bool {
	now := time.Now()
	d := w.Schedule.Next(now).Sub(now)
	if d < 0 {
		d = 0
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// RunOnce performs one cycle: reload, probe everything, then record and
// notify in registry order.
func (w *Watchdog) RunOnce(ctx context.Context) error {
	cycle := uuid.NewString()
	log := w.Logger.With(zap.String("cycle", cycle))
	start := time.Now()

	descs, err := w.Targets.Load(ctx)
	if err != nil {
		w.setErr(err)
		log.Warn("registry_load_error", zap.Error(err))
		return fmt.Errorf("load targets: %w", err)
	}

	var cycleErr error
	targets := make([]domain.Target, 0, len(descs))
	seen := make(map[string]struct{}, len(descs))
	for _, d := range descs {
		t, err := domain.Resolve(d)
		if err != nil {
			cycleErr = err
			log.Warn("target_config_error", zap.String("target", d.Name), zap.String("url", d.URL), zap.Error(err))
			continue
		}
		if _, dup := seen[t.TargetName()]; dup {
			log.Warn("target_duplicate_name", zap.String("target", t.TargetName()), zap.String("url", d.URL))
			continue
		}
		seen[t.TargetName()] = struct{}{}
		targets = append(targets, t)
	}
	log.Debug("cycle_started", zap.Int("targets", len(targets)))

	results := make([]probe.CheckResult, len(targets))
	sem := make(chan struct{}, w.Concurrency)
	var wg sync.WaitGroup
	started := 0
dispatch:
	for i, t := range targets {
		if ctx.Err() != nil {
			break
		}
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			break dispatch
		}
		started++
		i, t := i, t
		wg.Add(1)
		go func() {
			defer func() { <-sem }()
			defer wg.Done()
			results[i] = w.probe(ctx, log, t)
		}()
	}
	wg.Wait()

	if ctx.Err() != nil {
		if cycleErr != nil {
			w.setErr(cycleErr)
		}
		log.Info("cycle_interrupted", zap.Int("targets", len(targets)), zap.Int("probed", started))
		return context.Cause(ctx)
	}

	down := 0
	for i, t := range targets {
		if !w.evaluate(ctx, log, t, results[i]) {
			down++
		}
	}
	// a clean cycle clears any earlier registry or target error
	w.setErr(cycleErr)
	if p, ok := w.Results.(interface{ Prune(map[string]struct{}) }); ok {
		p.Prune(seen)
	}

	log.Info("cycle_finished",
		zap.Int("targets", len(targets)),
		zap.Int("down", down),
		zap.Duration("took", time.Since(start)),
	)
	return nil
}

// probe runs one check on a context that survives shutdown so an in-flight
// probe finishes within its own timeout. A panicking checker counts as DOWN.
func (w *Watchdog) probe(ctx context.Context, log *zap.Logger, t domain.Target) (out probe.CheckResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("probe_panic", zap.String("target", t.TargetName()), zap.Any("panic", r))
			out = probe.CheckResult{Success: false, Message: fmt.Sprintf("probe panic: %v", r)}
		}
	}()
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.ProbeTimeout)
	defer cancel()
	return w.Checker.Check(pctx, t)
}

func (w *Watchdog) evaluate(ctx context.Context, log *zap.Logger, t domain.Target, out probe.CheckResult) bool {
	up := out.Success
	fields := []zap.Field{
		zap.String("target", t.TargetName()),
		zap.String("kind", string(t.Kind())),
		zap.String("address", t.Address()),
		zap.String("status", statusWord(up)),
		zap.String("detail", out.Message),
	}
	if out.LatencyMS != nil {
		fields = append(fields, zap.Float64("latency_ms", *out.LatencyMS))
	}
	if out.StatusCode != 0 {
		fields = append(fields, zap.Int("http_status", out.StatusCode))
	}
	log.Info("target_checked", fields...)

	if w.Results != nil {
		cr := &domain.CheckResult{
			Target:     t.TargetName(),
			Kind:       t.Kind(),
			Address:    t.Address(),
			Up:         up,
			HTTPStatus: out.StatusCode,
			LatencyMS:  out.LatencyMS,
			Reason:     out.Message,
			CheckedAt:  time.Now().UTC(),
		}
		if err := w.Results.Append(ctx, cr); err != nil {
			log.Warn("result_append_error", zap.String("target", t.TargetName()), zap.Error(err))
		}
	}

	if w.Tracker.Record(t.TargetName(), up) {
		log.Info("status_changed", zap.String("target", t.TargetName()), zap.String("status", statusWord(up)))
		// A failed send is logged by the gateway; the new status stays recorded.
		w.notifier.Notify(ctx, Message(t.TargetName(), up))
	}
	return up
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, string) bool { return true }

// Message is the alert text for a transition.
func Message(name string, up bool) string {
	if up {
		return fmt.Sprintf("[%s ✅] is UP", name)
	}
	return fmt.Sprintf("[%s 🔴] is DOWN", name)
}

func statusWord(up bool) string {
	if up {
		return "UP"
	}
	return "DOWN"
}
