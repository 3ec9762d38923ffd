package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/foodmes-backend/internal/data/repos"
	types "github.com/yungbote/foodmes-backend/internal/domain"
	"github.com/yungbote/foodmes-backend/internal/pkg/dbctx"
	"github.com/yungbote/foodmes-backend/internal/pkg/qerr"
	"github.com/yungbote/foodmes-backend/internal/platform/clock"
	"github.com/yungbote/foodmes-backend/internal/platform/logger"
)

// HeartbeatResult reports what one heartbeat tick did for a batch.
type HeartbeatResult struct {
	Suppressed     bool
	SamplesCreated []uuid.UUID
}

// SamplingOrchestrator auto-creates samples against running batches.
// Every scheduled obligation fires at most once: reminders are claimed
// with a conditional update before any sample is created.
type SamplingOrchestrator interface {
	// TriggerInitialSampling registers the batch-start samples and seeds
	// the reminders of time-based plans.
	TriggerInitialSampling(ctx context.Context, actor types.ActorScope, batchID uuid.UUID) ([]uuid.UUID, error)
	ProcessHeartbeat(ctx context.Context, actor types.ActorScope, batchID uuid.UUID) (HeartbeatResult, error)
}

type samplingOrchestrator struct {
	db        *gorm.DB
	log       *logger.Logger
	plans     repos.SamplingPlanRepo
	reminders repos.SamplingReminderRepo
	batches   repos.BatchRepo
	sampleSvc SampleService
	audit     AuditTrail
	clk       clock.Clock
}

func NewSamplingOrchestrator(
	db *gorm.DB,
	log *logger.Logger,
	plans repos.SamplingPlanRepo,
	reminders repos.SamplingReminderRepo,
	batches repos.BatchRepo,
	sampleSvc SampleService,
	audit AuditTrail,
	clk clock.Clock,
) SamplingOrchestrator {
	return &samplingOrchestrator{
		db:        db,
		log:       log.With("service", "SamplingOrchestrator"),
		plans:     plans,
		reminders: reminders,
		batches:   batches,
		sampleSvc: sampleSvc,
		audit:     audit,
		clk:       clk,
	}
}

func (s *samplingOrchestrator) TriggerInitialSampling(ctx context.Context, actor types.ActorScope, batchID uuid.UUID) ([]uuid.UUID, error) {
	dbc := dbctx.New(ctx)
	batch, err := s.batches.GetByID(dbc, batchID)
	if err != nil {
		return nil, err
	}
	if !actor.OwnsOrganization(batch.OrganizationID) {
		return nil, qerr.ErrAccessDenied
	}

	plans, err := s.plans.ListActiveOnStart(dbc, batch.OrganizationID, batch.ProductID)
	if err != nil {
		return nil, err
	}

	now := s.clk.Now()
	var created []uuid.UUID
	for _, plan := range plans {
		sample, err := s.createPlanSample(ctx, actor, batch, plan)
		if err != nil {
			return created, fmt.Errorf("initial sample for plan %s: %w", plan.ID, err)
		}
		created = append(created, sample.ID)

		if plan.TimeBased() {
			if err := s.seedReminder(dbc, batch, plan, now, &sample.ID); err != nil {
				return created, err
			}
		}
	}

	// Time-based plans without a start anchor still need their first
	// reminder seeded here.
	timePlans, err := s.plans.ListActiveTimeBased(dbc, batch.OrganizationID, batch.ProductID)
	if err != nil {
		return created, err
	}
	for _, plan := range timePlans {
		exists, err := s.reminders.HasForPlan(dbc, batch.ID, plan.ID)
		if err != nil {
			return created, err
		}
		if !exists {
			if err := s.seedReminder(dbc, batch, plan, now, nil); err != nil {
				return created, err
			}
		}
	}

	if err := s.audit.Record(dbc, actor, "sampling.batch_start", "production_batch", &batchID, map[string]interface{}{
		"samples_created": len(created),
	}); err != nil {
		return created, err
	}
	return created, nil
}

func (s *samplingOrchestrator) ProcessHeartbeat(ctx context.Context, actor types.ActorScope, batchID uuid.UUID) (HeartbeatResult, error) {
	var res HeartbeatResult
	dbc := dbctx.New(ctx)

	batch, err := s.batches.GetByID(dbc, batchID)
	if err != nil {
		return res, err
	}
	if !actor.OwnsOrganization(batch.OrganizationID) {
		return res, qerr.ErrAccessDenied
	}

	running, err := s.isRunning(dbc, batch)
	if err != nil {
		return res, err
	}
	if !running {
		// Heartbeats outside active execution are strict no-ops.
		res.Suppressed = true
		return res, nil
	}

	now := s.clk.Now()

	// Bridge plans introduced after batch start: give them an
	// immediately-due reminder.
	timePlans, err := s.plans.ListActiveTimeBased(dbc, batch.OrganizationID, batch.ProductID)
	if err != nil {
		return res, err
	}
	planIndex := map[uuid.UUID]*types.SamplingPlan{}
	for _, plan := range timePlans {
		planIndex[plan.ID] = plan
		exists, err := s.reminders.HasForPlan(dbc, batch.ID, plan.ID)
		if err != nil {
			return res, err
		}
		if !exists {
			if _, err := s.reminders.Create(dbc, []*types.SamplingReminder{{
				ID:                uuid.New(),
				OrganizationID:    batch.OrganizationID,
				PlantID:           batch.PlantID,
				ProductionBatchID: batch.ID,
				SamplingPlanID:    plan.ID,
				Status:            types.ReminderPending,
				NextSampleDueAt:   now,
			}}); err != nil {
				return res, fmt.Errorf("bridge reminder for plan %s: %w", plan.ID, err)
			}
		}
	}

	due, err := s.reminders.ListDue(dbc, batch.OrganizationID, now)
	if err != nil {
		return res, err
	}

	for _, reminder := range due {
		if reminder.ProductionBatchID != batch.ID {
			continue
		}
		plan := planIndex[reminder.SamplingPlanID]
		if plan == nil {
			plan, err = s.plans.GetByID(dbc, reminder.SamplingPlanID)
			if err != nil {
				return res, err
			}
		}

		// Claim before create. Losing the race means another heartbeat
		// owns this obligation; skip without side effects.
		claimed, err := s.reminders.Claim(dbc, reminder.ID)
		if err != nil {
			return res, err
		}
		if !claimed {
			continue
		}

		sample, err := s.createPlanSample(ctx, actor, batch, plan)
		if err != nil {
			if _, reopenErr := s.reminders.Reopen(dbc, reminder.ID); reopenErr != nil {
				s.log.Error("reopen claimed reminder failed", "reminder_id", reminder.ID, "error", reopenErr)
			}
			return res, fmt.Errorf("sample for reminder %s: %w", reminder.ID, err)
		}

		if _, err := s.reminders.Complete(dbc, reminder.ID, sample.ID, now); err != nil {
			return res, err
		}
		if err := s.seedReminder(dbc, batch, plan, now, &sample.ID); err != nil {
			return res, err
		}
		res.SamplesCreated = append(res.SamplesCreated, sample.ID)
	}

	if len(res.SamplesCreated) > 0 {
		if err := s.audit.Record(dbc, actor, "sampling.heartbeat", "production_batch", &batchID, map[string]interface{}{
			"samples_created": len(res.SamplesCreated),
		}); err != nil {
			return res, err
		}
	}
	return res, nil
}

// isRunning requires the batch status to say in-progress AND the latest
// shop-floor event to not have parked the line.
func (s *samplingOrchestrator) isRunning(dbc dbctx.Context, batch *types.ProductionBatch) (bool, error) {
	if batch.Status != types.BatchInProgress {
		return false, nil
	}
	latest, err := s.batches.LatestEvent(dbc, batch.ID)
	if err != nil {
		return false, err
	}
	if latest != nil && latest.EventType.Halting() {
		return false, nil
	}
	return true, nil
}

func (s *samplingOrchestrator) createPlanSample(ctx context.Context, actor types.ActorScope, batch *types.ProductionBatch, plan *types.SamplingPlan) (*types.Sample, error) {
	batchID := batch.ID
	return s.sampleSvc.Register(ctx, actor, RegisterSampleInput{
		SampleTypeID:      plan.SampleTypeID,
		ProductionBatchID: &batchID,
		Notes:             plan.ProcessContext,
	})
}

func (s *samplingOrchestrator) seedReminder(dbc dbctx.Context, batch *types.ProductionBatch, plan *types.SamplingPlan, now time.Time, lastSampleID *uuid.UUID) error {
	if !plan.TimeBased() {
		return nil
	}
	rem := &types.SamplingReminder{
		ID:                uuid.New(),
		OrganizationID:    batch.OrganizationID,
		PlantID:           batch.PlantID,
		ProductionBatchID: batch.ID,
		SamplingPlanID:    plan.ID,
		Status:            types.ReminderPending,
		NextSampleDueAt:   now.Add(time.Duration(plan.FrequencyMinutes) * time.Minute),
		LastSampleID:      lastSampleID,
	}
	if lastSampleID != nil {
		at := now
		rem.LastSampleAt = &at
	}
	if _, err := s.reminders.Create(dbc, []*types.SamplingReminder{rem}); err != nil {
		return fmt.Errorf("seed reminder for plan %s: %w", plan.ID, err)
	}
	return nil
}
