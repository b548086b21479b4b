package runner

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/sznuper/prtgwatch/internal/alert"
	"github.com/sznuper/prtgwatch/internal/config"
	"github.com/sznuper/prtgwatch/internal/inspect"
	"github.com/sznuper/prtgwatch/internal/notify"
	"github.com/sznuper/prtgwatch/internal/status"
)

// Inspector counts the status markers on a target's page.
type Inspector interface {
	Inspect(ctx context.Context, url string) (status.Counts, error)
}

// Session is the reusable page-rendering session behind an Inspector.
type Session interface {
	Reset()
	Close()
}

// Runner orchestrates the inspect → classify → decide → notify pipeline for
// every target, once per cycle.
type Runner struct {
	targets     []config.Target
	inspector   Inspector
	session     Session
	notifier    notify.Notifier
	decider     *alert.Decider
	schedule    cron.Schedule
	retry       RetryPolicy
	concurrency int
	rearm       bool
	dryRun      bool
	logger      *slog.Logger
	now         func() time.Time
}

type Option func(*Runner)

func WithInspector(i Inspector) Option {
	return func(r *Runner) { r.inspector = i }
}

// WithSession sets the session that is reset after a failed inspection and
// closed by Close. Use it together with WithInspector.
func WithSession(s Session) Option {
	return func(r *Runner) { r.session = s }
}

func WithNotifier(n notify.Notifier) Option {
	return func(r *Runner) { r.notifier = n }
}

func WithSchedule(s cron.Schedule) Option {
	return func(r *Runner) { r.schedule = s }
}

func WithRetryPolicy(p RetryPolicy) Option {
	return func(r *Runner) { r.retry = p }
}

// WithDryRun makes the runner decide and log as usual but only validate
// notifications instead of sending them.
func WithDryRun(dryRun bool) Option {
	return func(r *Runner) { r.dryRun = dryRun }
}

// New creates a Runner for cfg, which must have defaults applied and be
// valid. Components not supplied through options are built from cfg.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Runner, error) {
	timeout, backoff, maxBackoff := cfg.Durations()
	retries := config.DefaultRetries
	if cfg.Retry.Retries != nil {
		retries = *cfg.Retry.Retries
	}

	r := &Runner{
		targets:     cfg.Targets(),
		decider:     alert.New(cfg.Notify.Recovery),
		retry:       RetryPolicy{MaxRetries: retries, BaseBackoff: backoff, MaxBackoff: maxBackoff},
		concurrency: cfg.Concurrency,
		rearm:       cfg.Notify.RearmOnFailure,
		logger:      logger,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.schedule == nil {
		sched, err := cfg.PollSchedule()
		if err != nil {
			return nil, fmt.Errorf("parsing schedule: %w", err)
		}
		r.schedule = sched
	}
	if r.inspector == nil {
		renderer := inspect.NewHTTPRenderer(inspect.SessionOptions{
			BaseURL:            cfg.PRTG.BaseURL,
			Username:           cfg.PRTG.Username,
			Password:           cfg.PRTG.Password,
			Passhash:           cfg.PRTG.Passhash,
			InsecureSkipVerify: cfg.PRTG.InsecureSkipVerify,
			Timeout:            timeout,
		}, logger.With("component", "prtg"))
		r.session = renderer
		r.inspector = inspect.New(renderer)
	}
	if r.notifier == nil {
		r.notifier = BuildNotifier(cfg, r.dryRun, logger.With("component", "notify"))
	}

	return r, nil
}

// Targets returns the targets in processing order.
func (r *Runner) Targets() []config.Target {
	return r.targets
}

// Decider exposes the per-target state for reporting.
func (r *Runner) Decider() *alert.Decider {
	return r.decider
}

// Close releases the PRTG session.
func (r *Runner) Close() {
	if r.session != nil {
		r.session.Close()
	}
}

// Run processes a cycle immediately and then one per schedule activation
// until ctx is cancelled. Cancellation is a clean stop and returns nil.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info("monitoring started", "targets", len(r.targets), "concurrency", r.concurrency)

	for cycle := 1; ; cycle++ {
		if ctx.Err() != nil {
			break
		}
		r.runCycle(ctx, cycle)

		next := r.schedule.Next(r.now())
		r.logger.Info("next cycle scheduled", "at", next.Format(time.DateTime))

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
		case <-timer.C:
		}
	}

	r.logger.Info("monitoring stopped")
	return nil
}

// RunOnce processes exactly one cycle and returns the per-target results.
func (r *Runner) RunOnce(ctx context.Context) []Result {
	return r.runCycle(ctx, 1)
}

func (r *Runner) runCycle(ctx context.Context, cycle int) []Result {
	log := r.logger.With("cycle", cycle)
	start := time.Now()
	log.Info("cycle started")

	results := r.RunCycle(ctx)

	failed, alerts := 0, 0
	for _, res := range results {
		if res.Err != nil {
			failed++
		}
		if res.Action == alert.SendAlert {
			alerts++
		}
	}
	log.Info("cycle completed", "targets", len(results), "failed", failed, "alerts", alerts, "duration", time.Since(start))
	return results
}

// RunCycle processes every target once, in configuration order. With
// concurrency above one, targets are spread over a bounded worker pool; each
// target is still handled by exactly one worker and results keep
// configuration order.
func (r *Runner) RunCycle(ctx context.Context) []Result {
	results := make([]Result, len(r.targets))

	if r.concurrency <= 1 {
		for i, t := range r.targets {
			results[i] = r.RunTarget(ctx, t)
		}
		return results
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < min(r.concurrency, len(r.targets)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = r.RunTarget(ctx, r.targets[i])
			}
		}()
	}
	for i := range r.targets {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}

// RunTarget executes the pipeline for one target. It never panics and never
// returns an error; failures are recorded in the Result and leave the
// target's state as it was.
func (r *Runner) RunTarget(ctx context.Context, t config.Target) (result Result) {
	log := r.logger.With("target", t.Name, "map_id", t.MapID)
	start := time.Now()

	result = Result{
		Target: t.Name,
		MapID:  t.MapID,
		URL:    t.URL,
		DryRun: r.dryRun,
	}

	defer func() {
		if p := recover(); p != nil {
			correlationID := uuid.NewString()
			log.Error("target panic",
				"correlation_id", correlationID,
				"panic", fmt.Sprintf("%v", p),
				"stack", string(debug.Stack()),
			)
			result.Err = fmt.Errorf("internal error (correlation_id: %s)", correlationID)
			result.ErrStage = "panic"
		}
		result.Duration = time.Since(start)
	}()

	if err := ctx.Err(); err != nil {
		result.Err = err
		result.ErrStage = "skipped"
		return result
	}

	// Stage 1: Inspect the map page.
	log.Debug("inspecting map", "url", t.URL)
	var counts status.Counts
	err := Retry(ctx, r.retry, func(attempt int) error {
		result.Attempts = attempt
		c, err := r.inspector.Inspect(ctx, t.URL)
		if err != nil {
			log.Warn("inspection attempt failed", "attempt", attempt, "error", err)
			// The next attempt, in this cycle or the next, starts a new session.
			if r.session != nil {
				r.session.Reset()
			}
			return err
		}
		counts = c
		return nil
	})
	if err != nil {
		result.Err = err
		result.ErrStage = "inspect"
		log.Error("inspection failed, no status update", "attempts", result.Attempts, "error", err)
		return result
	}
	result.Counts = counts

	// Stage 2: Classify.
	sr, err := status.Classify(counts)
	if err != nil {
		result.Err = fmt.Errorf("%w: %w", inspect.ErrInspectionFailed, err)
		result.ErrStage = "classify"
		log.Error("classification failed, no status update", "counts", counts.String(), "error", err)
		return result
	}
	result.Status = sr
	if len(sr.Unmapped) > 0 {
		log.Warn("unmapped status markers ignored", "unmapped", sr.Unmapped.String())
	}

	// Stage 3: Decide.
	dec := r.decider.Decide(t.Name, sr)
	result.Action = dec.Action
	result.State = dec.Next
	logDecision(log, dec, sr)

	// Stage 4: Notify.
	var kind notify.Kind
	switch dec.Action {
	case alert.SendAlert:
		kind = notify.KindAlert
	case alert.SendRecovery:
		kind = notify.KindRecovery
	default:
		return result
	}

	notified, err := r.notifier.Notify(ctx, notify.Message{
		Kind:   kind,
		Target: t.Name,
		MapID:  t.MapID,
		MapURL: t.MapURL,
		Level:  sr.Overall.String(),
		Detail: sr.Detail(),
		Time:   r.now(),
	})
	result.Notified = notified
	if err != nil {
		result.Err = err
		result.ErrStage = "notify"
		log.Error("notification failed", "kind", kind, "error", err)
		if r.rearm && dec.Action == alert.SendAlert && r.decider.Rearm(t.Name) {
			log.Warn("alert re-armed, will retry next cycle")
			result.State, _ = r.decider.State(t.Name)
		}
		return result
	}

	return result
}

func logDecision(log *slog.Logger, dec alert.Decision, sr status.Result) {
	attrs := []any{"level", sr.Overall.String(), "detail", sr.Detail(), "action", dec.Action.String()}

	switch {
	case dec.Action == alert.SendAlert:
		log.Warn("map entered error, sending alert", attrs...)
	case dec.Action == alert.SendRecovery:
		log.Info("map recovered, sending recovery", attrs...)
	case dec.Action == alert.LogOnly:
		log.Warn("map has warnings, not notifying", attrs...)
	case dec.Next.AlertActive:
		log.Info("error persists, alert already sent", append(attrs, "since", dec.Next.Since.Format(time.DateTime))...)
	case dec.Prev.AlertActive:
		log.Info("incident cleared", attrs...)
	default:
		log.Info("map healthy", attrs...)
	}
}
