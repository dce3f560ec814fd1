package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"payportal.backend/internal/domain/entities"
)

type statusCounterStub struct {
	counts []entities.StatusCount
	err    error
	calls  int
}

func (s *statusCounterStub) CountByStatus(context.Context) ([]entities.StatusCount, error) {
	s.calls++
	return s.counts, s.err
}

type gaugeStub struct {
	mu     sync.Mutex
	values map[string]int64
}

func (g *gaugeStub) SetPaymentsByStatus(status string, count int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.values == nil {
		g.values = map[string]int64{}
	}
	g.values[status] = count
}

func TestRefresh_SetsEveryStatus(t *testing.T) {
	repo := &statusCounterStub{counts: []entities.StatusCount{{Status: entities.PaymentStatusPending, Count: 4}}}
	gauge := &gaugeStub{}
	job := NewPaymentBacklogJob(repo, gauge, time.Millisecond)

	job.refresh(context.Background())
	require.Equal(t, map[string]int64{"pending": 4, "verified": 0, "submitted": 0}, gauge.values)
}

func TestRefresh_ErrorLeavesGaugeUntouched(t *testing.T) {
	repo := &statusCounterStub{err: errors.New("db down")}
	gauge := &gaugeStub{}
	job := NewPaymentBacklogJob(repo, gauge, time.Millisecond)

	job.refresh(context.Background())
	require.Equal(t, 1, repo.calls)
	require.Nil(t, gauge.values)
}

func TestNewPaymentBacklogJob_DefaultInterval(t *testing.T) {
	job := NewPaymentBacklogJob(&statusCounterStub{}, &gaugeStub{}, 0)
	require.Equal(t, 30*time.Second, job.interval)
}

func TestStartStop_StopsByContext(t *testing.T) {
	job := NewPaymentBacklogJob(&statusCounterStub{}, &gaugeStub{}, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		job.Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("job did not stop on context cancel")
	}
}

func TestStartStop_StopsByStopChannel(t *testing.T) {
	job := NewPaymentBacklogJob(&statusCounterStub{}, &gaugeStub{}, time.Millisecond)

	done := make(chan struct{})
	go func() {
		job.Start(context.Background())
		close(done)
	}()
	job.Stop()

	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("job did not stop on Stop()")
	}
}
