package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"
)

type stubPurger struct {
	mu      sync.Mutex
	cutoffs []time.Time
	err     error
}

func (p *stubPurger) DeleteReportsBefore(_ context.Context, t time.Time) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.cutoffs = append(p.cutoffs, t)

	return 3, p.err
}

func TestPurgeReportsUsesRetention(t *testing.T) {
	store := &stubPurger{}
	s := New(context.Background(), store, 48*time.Hour, slog.Default())
	s.now = func() time.Time { return time.Date(2025, 5, 10, 3, 0, 0, 0, time.UTC) }

	s.purgeReports()

	if len(store.cutoffs) != 1 {
		t.Fatalf("expected one purge, got %d", len(store.cutoffs))
	}

	if want := time.Date(2025, 5, 8, 3, 0, 0, 0, time.UTC); !store.cutoffs[0].Equal(want) {
		t.Fatalf("unexpected cutoff: %v", store.cutoffs[0])
	}
}

func TestPurgeReportsSkipsWhenContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := &stubPurger{}
	New(ctx, store, time.Hour, slog.Default()).purgeReports()

	if len(store.cutoffs) != 0 {
		t.Fatalf("expected no purge after cancellation")
	}
}

func TestPurgeReportsSurvivesStoreError(t *testing.T) {
	store := &stubPurger{err: errors.New("database is locked")}
	New(context.Background(), store, 0, slog.Default()).purgeReports()

	if len(store.cutoffs) != 1 {
		t.Fatalf("expected purge attempt")
	}
}

func TestStartStop(t *testing.T) {
	s := New(context.Background(), &stubPurger{}, time.Hour, slog.Default())

	if err := s.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if entries := s.cron.Entries(); len(entries) != 1 {
		t.Fatalf("expected one scheduled job, got %d", len(entries))
	}

	s.Stop()
}
