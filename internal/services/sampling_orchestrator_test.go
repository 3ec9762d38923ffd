package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/foodmes-backend/internal/data/repos/testutil"
	types "github.com/yungbote/foodmes-backend/internal/domain"
	"github.com/yungbote/foodmes-backend/internal/pkg/dbctx"
)

type orchestratorFixture struct {
	orgID   uuid.UUID
	plantID uuid.UUID
	product *types.Product
	batch   *types.ProductionBatch
	st      *types.SampleType
	plan    *types.SamplingPlan
}

func seedOrchestratorFixture(t *testing.T, h *harness, batchStatus types.BatchStatus, freqMinutes int) *orchestratorFixture {
	t.Helper()
	ctx := context.Background()
	orgID := uuid.New()
	plantID := uuid.New()
	product := testutil.SeedProduct(t, ctx, h.db, orgID)
	batch := testutil.SeedBatch(t, ctx, h.db, orgID, plantID, product.ID, batchStatus)
	st := testutil.SeedSampleType(t, ctx, h.db, orgID, types.CategoryPhysicoChemical)
	plan := testutil.SeedSamplingPlan(t, ctx, h.db, orgID, plantID, st.ID, &product.ID, false, freqMinutes)
	return &orchestratorFixture{orgID: orgID, plantID: plantID, product: product, batch: batch, st: st, plan: plan}
}

func systemActor(orgID, plantID uuid.UUID) types.ActorScope {
	return types.ActorScope{OrganizationID: orgID, PlantID: plantID, Role: types.RoleSystem}
}

func TestHeartbeatSuppressedOnPlannedBatch(t *testing.T) {
	h := newHarness(t)
	fx := seedOrchestratorFixture(t, h, types.BatchPlanned, 30)
	ctx := context.Background()

	res, err := h.orchestrator.ProcessHeartbeat(ctx, systemActor(fx.orgID, fx.plantID), fx.batch.ID)
	if err != nil {
		t.Fatalf("heartbeat: %v", err)
	}
	if !res.Suppressed {
		t.Error("heartbeat on a planned batch must be suppressed")
	}
	if len(res.SamplesCreated) != 0 {
		t.Errorf("samples created = %d, want 0", len(res.SamplesCreated))
	}

	var count int64
	if err := h.db.Model(&types.SamplingReminder{}).
		Where("production_batch_id = ?", fx.batch.ID).Count(&count).Error; err != nil {
		t.Fatalf("count reminders: %v", err)
	}
	if count != 0 {
		t.Errorf("reminders = %d, suppressed heartbeat must not create any", count)
	}
}

func TestHeartbeatSuppressedWhileLineHalted(t *testing.T) {
	h := newHarness(t)
	fx := seedOrchestratorFixture(t, h, types.BatchInProgress, 30)
	ctx := context.Background()

	if err := h.db.Create(&types.ProductionEvent{
		ID:                uuid.New(),
		OrganizationID:    fx.orgID,
		PlantID:           fx.plantID,
		ProductionBatchID: fx.batch.ID,
		EventType:         types.EventBreakdown,
		OccurredAt:        h.clk.Now(),
	}).Error; err != nil {
		t.Fatalf("seed event: %v", err)
	}

	res, err := h.orchestrator.ProcessHeartbeat(ctx, systemActor(fx.orgID, fx.plantID), fx.batch.ID)
	if err != nil {
		t.Fatalf("heartbeat: %v", err)
	}
	if !res.Suppressed {
		t.Error("heartbeat during a breakdown must be suppressed")
	}
}

func TestHeartbeatBridgesNewPlanAndCreatesSample(t *testing.T) {
	h := newHarness(t)
	fx := seedOrchestratorFixture(t, h, types.BatchInProgress, 30)
	ctx := context.Background()

	res, err := h.orchestrator.ProcessHeartbeat(ctx, systemActor(fx.orgID, fx.plantID), fx.batch.ID)
	if err != nil {
		t.Fatalf("heartbeat: %v", err)
	}
	if res.Suppressed {
		t.Fatal("running batch must not be suppressed")
	}
	if len(res.SamplesCreated) != 1 {
		t.Fatalf("samples created = %d, want 1 (bridged plan immediately due)", len(res.SamplesCreated))
	}

	dbc := dbctx.New(ctx)
	sample, err := h.samples.GetByID(dbc, res.SamplesCreated[0])
	if err != nil {
		t.Fatalf("load sample: %v", err)
	}
	if sample.ProductionBatchID == nil || *sample.ProductionBatchID != fx.batch.ID {
		t.Error("created sample must link the batch")
	}
	if sample.Source != types.SourceFinishedProduct {
		t.Errorf("source = %s, want finished_product", sample.Source)
	}

	// A successor reminder is pending at now + frequency.
	var reminders []*types.SamplingReminder
	if err := h.db.Where("production_batch_id = ? AND status = ?", fx.batch.ID, types.ReminderPending).
		Find(&reminders).Error; err != nil {
		t.Fatalf("list reminders: %v", err)
	}
	if len(reminders) != 1 {
		t.Fatalf("pending reminders = %d, want 1", len(reminders))
	}
	wantDue := h.clk.Now().Add(30 * time.Minute)
	if !reminders[0].NextSampleDueAt.Equal(wantDue) {
		t.Errorf("next due = %v, want %v", reminders[0].NextSampleDueAt, wantDue)
	}

	// A second tick before the due time creates nothing new.
	res2, err := h.orchestrator.ProcessHeartbeat(ctx, systemActor(fx.orgID, fx.plantID), fx.batch.ID)
	if err != nil {
		t.Fatalf("second heartbeat: %v", err)
	}
	if len(res2.SamplesCreated) != 0 {
		t.Errorf("second tick created %d samples, want 0", len(res2.SamplesCreated))
	}
}

func TestHeartbeatClaimPreventsDuplicates(t *testing.T) {
	h := newHarness(t)
	fx := seedOrchestratorFixture(t, h, types.BatchInProgress, 30)
	ctx := context.Background()
	dbc := dbctx.New(ctx)

	rem := testutil.SeedReminder(t, ctx, h.db, fx.orgID, fx.plantID, fx.batch.ID, fx.plan.ID,
		types.ReminderPending, h.clk.Now().Add(-time.Minute))

	// Both racers read the same pending state; only one claim succeeds.
	first, err := h.reminders.Claim(dbc, rem.ID)
	if err != nil {
		t.Fatalf("first claim: %v", err)
	}
	second, err := h.reminders.Claim(dbc, rem.ID)
	if err != nil {
		t.Fatalf("second claim: %v", err)
	}
	if !first || second {
		t.Errorf("claims = (%v, %v), want exactly one winner", first, second)
	}
}

func TestConcurrentHeartbeatsCreateOneSample(t *testing.T) {
	testutil.Postgres(t)

	h := newHarness(t)
	fx := seedOrchestratorFixture(t, h, types.BatchInProgress, 30)
	ctx := context.Background()

	testutil.SeedReminder(t, ctx, h.db, fx.orgID, fx.plantID, fx.batch.ID, fx.plan.ID,
		types.ReminderPending, h.clk.Now().Add(-time.Minute))

	const racers = 4
	var wg sync.WaitGroup
	results := make([]HeartbeatResult, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := h.orchestrator.ProcessHeartbeat(ctx, systemActor(fx.orgID, fx.plantID), fx.batch.ID)
			if err != nil {
				t.Errorf("racer %d: %v", i, err)
				return
			}
			results[i] = res
		}(i)
	}
	wg.Wait()

	total := 0
	for _, res := range results {
		total += len(res.SamplesCreated)
	}
	if total != 1 {
		t.Errorf("samples created across racers = %d, want exactly 1", total)
	}

	var successors int64
	if err := h.db.Model(&types.SamplingReminder{}).
		Where("production_batch_id = ? AND status = ?", fx.batch.ID, types.ReminderPending).
		Count(&successors).Error; err != nil {
		t.Fatalf("count successors: %v", err)
	}
	if successors != 1 {
		t.Errorf("pending successor reminders = %d, want exactly 1", successors)
	}
}

func TestTriggerInitialSampling(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	orgID := uuid.New()
	plantID := uuid.New()
	product := testutil.SeedProduct(t, ctx, h.db, orgID)
	batch := testutil.SeedBatch(t, ctx, h.db, orgID, plantID, product.ID, types.BatchInProgress)
	st := testutil.SeedSampleType(t, ctx, h.db, orgID, types.CategoryPhysicoChemical)

	// One start-anchored plan for the product, one wildcard time-based plan.
	testutil.SeedSamplingPlan(t, ctx, h.db, orgID, plantID, st.ID, &product.ID, true, 0)
	testutil.SeedSamplingPlan(t, ctx, h.db, orgID, plantID, st.ID, nil, false, 45)

	created, err := h.orchestrator.TriggerInitialSampling(ctx, systemActor(orgID, plantID), batch.ID)
	if err != nil {
		t.Fatalf("initial sampling: %v", err)
	}
	if len(created) != 1 {
		t.Fatalf("samples created = %d, want 1 from the start-anchored plan", len(created))
	}

	var reminders int64
	if err := h.db.Model(&types.SamplingReminder{}).
		Where("production_batch_id = ? AND status = ?", batch.ID, types.ReminderPending).
		Count(&reminders).Error; err != nil {
		t.Fatalf("count reminders: %v", err)
	}
	if reminders != 1 {
		t.Errorf("pending reminders = %d, want 1 for the time-based plan", reminders)
	}
}
