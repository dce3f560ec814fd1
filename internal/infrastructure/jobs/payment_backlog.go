package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
	"payportal.backend/internal/domain/entities"
	"payportal.backend/pkg/logger"
)

type statusCounter interface {
	CountByStatus(ctx context.Context) ([]entities.StatusCount, error)
}

type backlogGauge interface {
	SetPaymentsByStatus(status string, count int64)
}

// PaymentBacklogJob periodically publishes the number of payments in each status
type PaymentBacklogJob struct {
	repo     statusCounter
	gauge    backlogGauge
	interval time.Duration
	stop     chan struct{}
}

func NewPaymentBacklogJob(repo statusCounter, gauge backlogGauge, interval time.Duration) *PaymentBacklogJob {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &PaymentBacklogJob{
		repo:     repo,
		gauge:    gauge,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

func (j *PaymentBacklogJob) Start(ctx context.Context) {
	logger.Info(ctx, "Starting payment backlog job", zap.Duration("interval", j.interval))

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Payment backlog job stopped (context cancelled)")
			return
		case <-j.stop:
			logger.Info(ctx, "Payment backlog job stopped")
			return
		case <-ticker.C:
			j.refresh(ctx)
		}
	}
}

func (j *PaymentBacklogJob) Stop() {
	close(j.stop)
}

func (j *PaymentBacklogJob) refresh(ctx context.Context) {
	counts, err := j.repo.CountByStatus(ctx)
	if err != nil {
		logger.Error(ctx, "Failed to count payments by status", zap.Error(err))
		return
	}

	// statuses with no rows are reported as zero, not left stale
	seen := make(map[entities.PaymentStatus]int64, len(entities.AllPaymentStatuses))
	for _, c := range counts {
		seen[c.Status] = c.Count
	}
	for _, status := range entities.AllPaymentStatuses {
		j.gauge.SetPaymentsByStatus(string(status), seen[status])
	}
}
