package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/foodmes-backend/internal/data/repos/testutil"
	types "github.com/yungbote/foodmes-backend/internal/domain"
	"github.com/yungbote/foodmes-backend/internal/pkg/dbctx"
	"github.com/yungbote/foodmes-backend/internal/pkg/qerr"
)

type gateFixture struct {
	orgID   uuid.UUID
	plantID uuid.UUID
	manager *types.UserProfile
	batch   *types.ProductionBatch
	st      *types.SampleType
}

func seedGateFixture(t *testing.T, h *harness, batchStatus types.BatchStatus) *gateFixture {
	t.Helper()
	ctx := context.Background()
	orgID := uuid.New()
	plantID := uuid.New()
	manager := testutil.SeedUser(t, ctx, h.db, orgID, types.RoleQAManager, pinHash(t))
	product := testutil.SeedProduct(t, ctx, h.db, orgID)
	batch := testutil.SeedBatch(t, ctx, h.db, orgID, plantID, product.ID, batchStatus)
	st := testutil.SeedSampleType(t, ctx, h.db, orgID, types.CategoryPhysicoChemical)
	return &gateFixture{orgID: orgID, plantID: plantID, manager: manager, batch: batch, st: st}
}

func TestVerifyComplianceBlocksOnPendingSample(t *testing.T) {
	h := newHarness(t)
	fx := seedGateFixture(t, h, types.BatchCompleted)
	ctx := context.Background()
	actor := actorFor(fx.manager, fx.plantID)

	testutil.SeedSample(t, ctx, h.db, fx.orgID, fx.plantID, fx.st.ID, &fx.batch.ID, types.SampleApproved)
	testutil.SeedSample(t, ctx, h.db, fx.orgID, fx.plantID, fx.st.ID, &fx.batch.ID, types.SampleApproved)
	pending := testutil.SeedSample(t, ctx, h.db, fx.orgID, fx.plantID, fx.st.ID, &fx.batch.ID, types.SampleCollected)

	result, err := h.gatekeeper.VerifyCompliance(ctx, actor, fx.batch.ID)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if result.Compliant {
		t.Fatal("one collected sample must block compliance")
	}
	if result.SampleCount != 3 {
		t.Errorf("sample count = %d, want 3", result.SampleCount)
	}
	if result.PendingSamples != 1 {
		t.Errorf("pending samples = %d, want 1", result.PendingSamples)
	}
	if result.OOSResults != 0 {
		t.Errorf("oos results = %d, want 0", result.OOSResults)
	}
	found := false
	for _, b := range result.Blockers {
		if strings.Contains(b, pending.Code) {
			found = true
		}
	}
	if !found {
		t.Errorf("blockers %v must name the pending sample %s", result.Blockers, pending.Code)
	}
}

func TestVerifyComplianceBlocksOnOOSAndNC(t *testing.T) {
	h := newHarness(t)
	fx := seedGateFixture(t, h, types.BatchCompleted)
	ctx := context.Background()
	actor := actorFor(fx.manager, fx.plantID)

	sample := testutil.SeedSample(t, ctx, h.db, fx.orgID, fx.plantID, fx.st.ID, &fx.batch.ID, types.SampleApproved)
	param := testutil.SeedParameter(t, ctx, h.db, fx.orgID, types.CategoryPhysicoChemical)
	a := testutil.SeedAnalysis(t, ctx, h.db, fx.orgID, fx.plantID, sample.ID, param.ID, types.AnalysisCompleted)
	fail := false
	if err := h.db.Model(&types.Analysis{}).Where("id = ?", a.ID).Update("is_conforming", fail).Error; err != nil {
		t.Fatalf("mark oos: %v", err)
	}

	batchID := fx.batch.ID
	if err := h.db.Create(&types.NonConformity{
		ID:                uuid.New(),
		OrganizationID:    fx.orgID,
		PlantID:           fx.plantID,
		Number:            "NC-2026-0001",
		Title:             "test",
		Severity:          types.SeverityCritical,
		NCType:            "internal",
		Status:            types.NCOpen,
		ProductionBatchID: &batchID,
		DetectedBy:        fx.manager.ID,
		OpenedAt:          h.clk.Now(),
	}).Error; err != nil {
		t.Fatalf("seed nc: %v", err)
	}

	result, err := h.gatekeeper.VerifyCompliance(ctx, actor, fx.batch.ID)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if result.Compliant {
		t.Fatal("OOS result and open NC must block")
	}
	if result.OpenNCCount != 1 {
		t.Errorf("open NC count = %d, want 1", result.OpenNCCount)
	}
	if result.OOSResults != 1 {
		t.Errorf("oos results = %d, want 1", result.OOSResults)
	}
	if result.PendingSamples != 0 {
		t.Errorf("pending samples = %d, want 0", result.PendingSamples)
	}
	if len(result.Blockers) < 2 {
		t.Errorf("blockers = %v, want lims and qms entries", result.Blockers)
	}
}

func TestReleaseBatchHappyPath(t *testing.T) {
	h := newHarness(t)
	fx := seedGateFixture(t, h, types.BatchCompleted)
	ctx := context.Background()
	actor := actorFor(fx.manager, fx.plantID)

	testutil.SeedSample(t, ctx, h.db, fx.orgID, fx.plantID, fx.st.ID, &fx.batch.ID, types.SampleApproved)

	released, err := h.gatekeeper.ReleaseBatch(ctx, actor, fx.batch.ID, testPIN)
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	if released.Status != types.BatchReleased {
		t.Errorf("status = %s, want released", released.Status)
	}
	if released.QAApprovedBy == nil || *released.QAApprovedBy != fx.manager.ID {
		t.Error("release must stamp the approver")
	}

	var count int64
	if err := h.db.Model(&types.AuditEvent{}).
		Where("action = ? AND entity_id = ?", "batch.released", fx.batch.ID).
		Count(&count).Error; err != nil {
		t.Fatalf("count audit events: %v", err)
	}
	if count != 1 {
		t.Errorf("audit events = %d, want exactly 1 with the compliance snapshot", count)
	}
}

func TestReleaseBatchInvalidSignature(t *testing.T) {
	h := newHarness(t)
	fx := seedGateFixture(t, h, types.BatchCompleted)
	ctx := context.Background()
	actor := actorFor(fx.manager, fx.plantID)

	testutil.SeedSample(t, ctx, h.db, fx.orgID, fx.plantID, fx.st.ID, &fx.batch.ID, types.SampleApproved)

	_, err := h.gatekeeper.ReleaseBatch(ctx, actor, fx.batch.ID, "wrong-pin")
	if !errors.Is(err, qerr.ErrInvalidSignature) {
		t.Fatalf("got %v, want InvalidSignature", err)
	}

	batch, err := h.batches.GetByID(dbctx.New(ctx), fx.batch.ID)
	if err != nil {
		t.Fatalf("reload batch: %v", err)
	}
	if batch.Status != types.BatchCompleted {
		t.Errorf("status = %s, invalid signature must not change state", batch.Status)
	}
}

func TestReleaseBatchBlockedCarriesBlockers(t *testing.T) {
	h := newHarness(t)
	fx := seedGateFixture(t, h, types.BatchCompleted)
	ctx := context.Background()
	actor := actorFor(fx.manager, fx.plantID)

	testutil.SeedSample(t, ctx, h.db, fx.orgID, fx.plantID, fx.st.ID, &fx.batch.ID, types.SampleCollected)

	_, err := h.gatekeeper.ReleaseBatch(ctx, actor, fx.batch.ID, testPIN)
	qb, ok := qerr.IsQualityBlock(err)
	if !ok {
		t.Fatalf("got %v, want QualityBlock", err)
	}
	if len(qb.Blockers) == 0 {
		t.Error("quality block must itemize blockers")
	}
}

func TestRejectBatchRequiresJustification(t *testing.T) {
	h := newHarness(t)
	fx := seedGateFixture(t, h, types.BatchCompleted)
	ctx := context.Background()
	actor := actorFor(fx.manager, fx.plantID)

	_, err := h.gatekeeper.RejectBatch(ctx, actor, fx.batch.ID, "  ", testPIN)
	var jr *qerr.JustificationRequiredError
	if !errors.As(err, &jr) {
		t.Fatalf("got %v, want JustificationRequired", err)
	}

	// Rejection does not require compliance: a pending sample is fine.
	testutil.SeedSample(t, ctx, h.db, fx.orgID, fx.plantID, fx.st.ID, &fx.batch.ID, types.SampleCollected)
	rejected, err := h.gatekeeper.RejectBatch(ctx, actor, fx.batch.ID, "foreign odor on the line", testPIN)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != types.BatchRejected {
		t.Errorf("status = %s, want rejected", rejected.Status)
	}
}
