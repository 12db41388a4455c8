// Package cron runs background jobs on a fixed interval.
package cron

import (
	"context"
	"time"

	"go.uber.org/zap"

	"readiness-backend/internal/readiness"
)

// TargetLister returns the shifts that have roster rows on a date.
type TargetLister interface {
	SnapshotTargets(ctx context.Context, date string) ([]readiness.Query, error)
}

// Archiver stores one shift's evaluation.
type Archiver interface {
	Snapshot(ctx context.Context, q readiness.Query) (*readiness.SnapshotManifest, error)
}

// Snapshotter archives today's readiness for every rostered shift.
type Snapshotter struct {
	targets  TargetLister
	archiver Archiver
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewSnapshotter creates a Snapshotter running every interval.
func NewSnapshotter(targets TargetLister, archiver Archiver, interval time.Duration, logger *zap.Logger) *Snapshotter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Snapshotter{
		targets:  targets,
		archiver: archiver,
		interval: interval,
		logger:   logger.Named("snapshotter"),
		now:      time.Now,
	}
}

// Start runs one cycle immediately, then one per interval, until ctx is done.
// The returned channel closes when the loop has exited.
func (s *Snapshotter) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.RunCycle(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.RunCycle(ctx)
			}
		}
	}()

	s.logger.Info("readiness snapshotter started", zap.Duration("interval", s.interval))
	return done
}

// RunCycle archives every target for today and returns how many succeeded.
// A failing shift is logged and skipped.
func (s *Snapshotter) RunCycle(ctx context.Context) int {
	date := s.now().Format(readiness.DateLayout)

	listCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	targets, err := s.targets.SnapshotTargets(listCtx, date)
	cancel()
	if err != nil {
		s.logger.Error("listing snapshot targets", zap.String("date", date), zap.Error(err))
		return 0
	}
	if len(targets) == 0 {
		s.logger.Info("no rostered shifts", zap.String("date", date))
		return 0
	}

	archived := 0
	for _, q := range targets {
		if ctx.Err() != nil {
			break
		}
		if !q.ShiftCode.Valid() {
			s.logger.Warn("skipping roster with unknown shift code",
				zap.String("org_id", q.OrgID),
				zap.String("shift", string(q.ShiftCode)),
			)
			continue
		}

		runCtx, cancel := context.WithTimeout(ctx, time.Minute)
		_, err := s.archiver.Snapshot(runCtx, q)
		cancel()
		if err != nil {
			s.logger.Error("snapshot failed",
				zap.String("org_id", q.OrgID),
				zap.String("shift", string(q.ShiftCode)),
				zap.Error(err),
			)
			continue
		}
		archived++
	}

	s.logger.Info("snapshot cycle complete",
		zap.String("date", date),
		zap.Int("archived", archived),
		zap.Int("targets", len(targets)),
	)
	return archived
}
