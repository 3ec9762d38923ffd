package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/foodmes-backend/internal/data/repos"
	types "github.com/yungbote/foodmes-backend/internal/domain"
	"github.com/yungbote/foodmes-backend/internal/pkg/dbctx"
	"github.com/yungbote/foodmes-backend/internal/platform/logger"
	"github.com/yungbote/foodmes-backend/internal/services"
)

const maxConcurrentHeartbeats = 4

// HeartbeatScheduler drives time-based sampling on a fixed cadence,
// decoupled from any UI activity. Correctness does not depend on the
// cadence: the orchestrator's reminder claim dedupes overlapping ticks.
type HeartbeatScheduler struct {
	log          *logger.Logger
	batches      repos.BatchRepo
	orchestrator services.SamplingOrchestrator
	interval     time.Duration
	cron         *cron.Cron
}

func NewHeartbeatScheduler(log *logger.Logger, batches repos.BatchRepo, orchestrator services.SamplingOrchestrator, interval time.Duration) *HeartbeatScheduler {
	return &HeartbeatScheduler{
		log:          log.With("service", "HeartbeatScheduler"),
		batches:      batches,
		orchestrator: orchestrator,
		interval:     interval,
	}
}

func (s *HeartbeatScheduler) Start(ctx context.Context) error {
	s.cron = cron.New()
	spec := fmt.Sprintf("@every %s", s.interval)
	if err := s.cron.AddFunc(spec, func() { s.Tick(ctx) }); err != nil {
		return fmt.Errorf("schedule heartbeat: %w", err)
	}
	s.cron.Start()
	s.log.Info("heartbeat scheduler started", "interval", s.interval.String())
	return nil
}

func (s *HeartbeatScheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// Tick fans one heartbeat out over every running batch. Failures are
// per-batch: one broken batch does not starve the rest.
func (s *HeartbeatScheduler) Tick(ctx context.Context) {
	batches, err := s.batches.ListRunning(dbctx.New(ctx))
	if err != nil {
		s.log.Error("list running batches", "error", err)
		return
	}
	if len(batches) == 0 {
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentHeartbeats)
	for _, batch := range batches {
		batch := batch
		g.Go(func() error {
			actor := types.ActorScope{
				OrganizationID: batch.OrganizationID,
				PlantID:        batch.PlantID,
				Role:           types.RoleSystem,
			}
			res, err := s.orchestrator.ProcessHeartbeat(gctx, actor, batch.ID)
			if err != nil {
				s.log.Error("heartbeat failed", "batch_id", batch.ID, "error", err)
				return nil
			}
			if len(res.SamplesCreated) > 0 {
				s.log.Info("heartbeat created samples", "batch_id", batch.ID, "count", len(res.SamplesCreated))
			}
			return nil
		})
	}
	_ = g.Wait()
}
