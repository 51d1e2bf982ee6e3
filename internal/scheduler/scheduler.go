package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	DailyPurgeSpec        = "0 3 * * *"
	Timezone              = "UTC"
	TimezoneOffsetSeconds = 0
	DefaultRetention      = 30 * 24 * time.Hour
	purgeReportsTimeout   = 5 * time.Minute
)

// ReportPurger deletes reports created before a cutoff.
type ReportPurger interface {
	DeleteReportsBefore(ctx context.Context, t time.Time) (int64, error)
}

type Scheduler struct {
	ctx       context.Context
	cron      *cron.Cron
	store     ReportPurger
	retention time.Duration
	now       func() time.Time
	log       *slog.Logger
}

func New(
	ctx context.Context,
	store ReportPurger,
	retention time.Duration,
	log *slog.Logger,
) *Scheduler {
	c := cron.New(cron.WithLocation(time.FixedZone(Timezone, TimezoneOffsetSeconds)))

	if retention <= 0 {
		retention = DefaultRetention
	}

	return &Scheduler{
		ctx:       ctx,
		cron:      c,
		store:     store,
		retention: retention,
		now:       time.Now,
		log:       log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(DailyPurgeSpec, s.purgeReports); err != nil {
		return err
	}

	s.cron.Start()

	return nil
}

func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) purgeReports() {
	ctx, cancel := context.WithTimeout(s.ctx, purgeReportsTimeout)
	defer cancel()

	select {
	case <-ctx.Done():
		s.log.InfoContext(ctx, "Scheduler context is done",
			"error", ctx.Err())
		return
	default:
	}

	cutoff := s.now().UTC().Add(-s.retention)

	deleted, err := s.store.DeleteReportsBefore(ctx, cutoff)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to purge reports",
			"error", err,
			"cutoff", cutoff)
		return
	}

	s.log.InfoContext(ctx, "Reports are purged",
		"cutoff", cutoff,
		"deleted", deleted)
}
