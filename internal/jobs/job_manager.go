package jobs

import (
	"fmt"
	"log/slog"

	"shipping/internal/core/ports"
	"shipping/internal/metrics"
)

// JobManager runs one ReconciliationJob per provider that supports status
// polling. Webhook-only providers get no job.
type JobManager struct {
	jobs []*ReconciliationJob
}

// NewJobManager creates one job per carrier in gateway that supports polling.
func NewJobManager(
	gateway ports.ProviderGateway,
	handler Reconciler,
	schedule string,
	m *metrics.Metrics,
	logger *slog.Logger,
	opts ...JobOption,
) *JobManager {
	jm := &JobManager{}
	for _, provider := range gateway.Providers() {
		if _, ok := provider.StatusPoller(); !ok {
			continue
		}
		jm.jobs = append(jm.jobs, NewReconciliationJob(provider.Name(), handler, schedule, m, logger, opts...))
	}
	return jm
}

func (jm *JobManager) Jobs() []*ReconciliationJob {
	return jm.jobs
}

// StartAll starts every job. If one fails, the ones already started are
// stopped again.
func (jm *JobManager) StartAll() error {
	for i, job := range jm.jobs {
		if err := job.Start(); err != nil {
			for _, started := range jm.jobs[:i] {
				started.Stop()
			}
			return fmt.Errorf("failed to start %s reconciliation job: %w", job.Provider(), err)
		}
	}
	return nil
}

// StopAll stops every job and waits for running passes.
func (jm *JobManager) StopAll() {
	for _, job := range jm.jobs {
		job.Stop()
	}
}
