package jobs

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"shipping/internal/core/application/usecases/commands"
	"shipping/internal/core/domain/model/delivery"
	"shipping/internal/metrics"

	"github.com/robfig/cron/v3"
)

// DefaultSchedule runs a pass at the top of every minute (seconds field first).
const DefaultSchedule = "0 * * * * *"

const defaultLockTTL = 5 * time.Minute

// ErrLockHeld is returned by RunOnce when another replica is reconciling the
// same provider.
var ErrLockHeld = errors.New("reconciliation is already running elsewhere")

type (
	// Reconciler runs one polling pass for a provider.
	Reconciler interface {
		Handle(ctx context.Context, cmd commands.ReconcileProviderCommand) (commands.ReconcileReport, error)
	}

	// Locker provides mutual exclusion across replicas. ok is false when the
	// key is held by someone else.
	Locker interface {
		TryLock(ctx context.Context, key string, ttl time.Duration) (unlock func(context.Context) error, ok bool, err error)
	}
)

// JobOption configures a ReconciliationJob.
type JobOption func(*ReconciliationJob)

// WithLocker guards every pass with a distributed lock held for at most ttl.
func WithLocker(locker Locker, ttl time.Duration) JobOption {
	return func(j *ReconciliationJob) {
		j.locker = locker
		if ttl > 0 {
			j.lockTTL = ttl
		}
	}
}

// ReconciliationJob polls one provider on a cron schedule. Ticks never
// overlap: a tick that fires while the previous pass is still running is
// skipped.
type ReconciliationJob struct {
	provider delivery.Provider
	handler  Reconciler
	schedule string
	cron     *cron.Cron
	metrics  *metrics.Metrics
	logger   *slog.Logger

	locker  Locker
	lockTTL time.Duration

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

// NewReconciliationJob creates a job for provider. An empty schedule means
// DefaultSchedule. Nothing runs until Start.
func NewReconciliationJob(
	provider delivery.Provider,
	handler Reconciler,
	schedule string,
	m *metrics.Metrics,
	logger *slog.Logger,
	opts ...JobOption,
) *ReconciliationJob {
	if schedule == "" {
		schedule = DefaultSchedule
	}

	logger = logger.With("component", "reconciliation_job", "provider", provider.String())
	cronLog := cronLogger{logger: logger}

	j := &ReconciliationJob{
		provider: provider,
		handler:  handler,
		schedule: schedule,
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(time.UTC),
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
		metrics: m,
		logger:  logger,
		lockTTL: defaultLockTTL,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

func (j *ReconciliationJob) Provider() delivery.Provider {
	return j.provider
}

// Start schedules the job. An invalid schedule is reported here. Calling
// Start again, also after Stop, does nothing.
func (j *ReconciliationJob) Start() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.ctx != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	if _, err := j.cron.AddFunc(j.schedule, func() {
		_, _ = j.RunOnce(ctx)
	}); err != nil {
		cancel()
		return err
	}

	j.ctx, j.cancel = ctx, cancel
	j.cron.Start()
	j.logger.Info("Reconciliation job started", "schedule", j.schedule)
	return nil
}

// Stop cancels a running pass and waits for it to return.
func (j *ReconciliationJob) Stop() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.cancel == nil {
		return
	}

	done := j.cron.Stop()
	j.cancel()
	<-done.Done()

	j.cancel = nil
	j.logger.Info("Reconciliation job stopped")
}

// RunOnce performs a single pass immediately. The cron schedule uses it for
// every tick; the CLI calls it directly.
func (j *ReconciliationJob) RunOnce(ctx context.Context) (commands.ReconcileReport, error) {
	if j.locker != nil {
		unlock, ok, err := j.locker.TryLock(ctx, "reconcile:"+j.provider.String(), j.lockTTL)
		if err != nil {
			j.logger.ErrorContext(ctx, "Failed to acquire reconciliation lock", "error", err)
			return commands.ReconcileReport{}, err
		}
		if !ok {
			j.logger.DebugContext(ctx, "Reconciliation skipped, lock held by another replica")
			return commands.ReconcileReport{}, ErrLockHeld
		}
		defer func() {
			// The pass context may already be cancelled; release anyway.
			if unlockErr := unlock(context.WithoutCancel(ctx)); unlockErr != nil {
				j.logger.Warn("Failed to release reconciliation lock", "error", unlockErr)
			}
		}()
	}

	start := time.Now()

	cmd, err := commands.NewReconcileProviderCommand(j.provider)
	if err != nil {
		return commands.ReconcileReport{}, err
	}

	report, err := j.handler.Handle(ctx, cmd)
	j.record(ctx, report, err, time.Since(start))
	return report, err
}

func (j *ReconciliationJob) record(ctx context.Context, report commands.ReconcileReport, err error, elapsed time.Duration) {
	if err != nil {
		j.logger.ErrorContext(ctx, "Reconciliation failed", "error", err)
	} else if !report.PollingSupported {
		j.logger.DebugContext(ctx, "Provider does not support status polling")
	}

	for _, change := range report.Updated {
		j.metrics.ObserveTransition(j.provider.String(), "poll", change.Current.String())
		j.logger.InfoContext(ctx, "Delivery status updated",
			"deliveryId", change.DeliveryID.String(),
			"trackingId", change.TrackingID,
			"from", change.Previous.String(),
			"to", change.Current.String(),
		)
	}

	for _, failure := range report.Failures {
		j.logger.ErrorContext(ctx, "Failed to reconcile delivery",
			"deliveryId", failure.DeliveryID.String(),
			"trackingId", failure.TrackingID,
			"error", failure.Err,
		)
	}

	j.metrics.ObserveReconcile(j.provider.String(), err, elapsed, map[string]int{
		metrics.OutcomeUpdated:   len(report.Updated),
		metrics.OutcomeUnchanged: report.Unchanged,
		metrics.OutcomeSkipped:   report.SkippedTerminal,
		metrics.OutcomeFailed:    len(report.Failures),
	})

	if err == nil && report.PollingSupported {
		j.logger.InfoContext(ctx, "Reconciliation completed",
			"checked", report.Checked,
			"updated", len(report.Updated),
			"unchanged", report.Unchanged,
			"skipped", report.SkippedTerminal,
			"failed", len(report.Failures),
			"duration", elapsed,
		)
	}
}

// cronLogger routes robfig/cron's logging into slog. Scheduler chatter goes
// to debug.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
