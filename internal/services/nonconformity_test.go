package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/foodmes-backend/internal/domain"
	"github.com/yungbote/foodmes-backend/internal/pkg/dbctx"
)

func TestNCNumberAllocationSkipsTakenNumber(t *testing.T) {
	h := newHarness(t)
	fx := seedLabFixture(t, h)
	ctx := context.Background()
	actor := actorFor(fx.analyst, fx.plantID)

	// A record carrying this year's first number but created before the
	// year started, so the counter proposes NC-2026-0001 again and the
	// unique index forces a retry.
	carried := time.Date(2025, time.December, 1, 0, 0, 0, 0, time.UTC)
	if err := h.db.Create(&types.NonConformity{
		ID:             uuid.New(),
		OrganizationID: fx.orgID,
		PlantID:        fx.plantID,
		Number:         "NC-2026-0001",
		Title:          "carried over",
		Severity:       types.SeverityMinor,
		NCType:         "internal",
		Status:         types.NCClosed,
		DetectedBy:     fx.analyst.ID,
		OpenedAt:       carried,
		CreatedAt:      carried,
	}).Error; err != nil {
		t.Fatalf("seed carried-over nc: %v", err)
	}

	if _, err := h.analysisSvc.Complete(ctx, actor, fx.analysis.ID, CompleteAnalysisInput{
		ValueNumeric: fp(12),
		Notes:        "out of range",
	}); err != nil {
		t.Fatalf("complete: %v", err)
	}

	nc, err := h.ncs.GetBySourceAnalysis(dbctx.New(ctx), fx.analysis.ID)
	if err != nil {
		t.Fatalf("lookup nc: %v", err)
	}
	if nc == nil {
		t.Fatal("critical failure must open a non-conformity")
	}
	if nc.Number != "NC-2026-0002" {
		t.Errorf("number = %s, want NC-2026-0002 after the taken candidate", nc.Number)
	}
}
