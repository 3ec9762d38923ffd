package lab

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/foodmes-backend/internal/data/repos/testutil"
	types "github.com/yungbote/foodmes-backend/internal/domain"
	"github.com/yungbote/foodmes-backend/internal/pkg/dbctx"
)

func TestSampleUpdateStatusIfIsConditional(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	repo := NewSampleRepo(db, log)

	ctx := context.Background()
	dbc := dbctx.New(ctx)
	orgID := uuid.New()
	plantID := uuid.New()
	st := testutil.SeedSampleType(t, ctx, db, orgID, types.CategoryPhysicoChemical)
	sample := testutil.SeedSample(t, ctx, db, orgID, plantID, st.ID, nil, types.SampleCollected)

	ok, err := repo.UpdateStatusIf(dbc, sample.ID, types.SampleCollected, types.SampleInAnalysis, nil)
	if err != nil || !ok {
		t.Fatalf("transition from matching status: ok=%v err=%v, want true nil", ok, err)
	}

	// Stale writer: still believes the sample is collected.
	ok, err = repo.UpdateStatusIf(dbc, sample.ID, types.SampleCollected, types.SampleInAnalysis, nil)
	if err != nil {
		t.Fatalf("stale transition: %v", err)
	}
	if ok {
		t.Error("transition guarded on a stale status must not succeed")
	}

	got, err := repo.GetByID(dbc, sample.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Status != types.SampleInAnalysis {
		t.Errorf("status = %s, want in_analysis", got.Status)
	}
}

func TestAnalysisProgressCountsOnlyLiveRows(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	repo := NewAnalysisRepo(db, log)

	ctx := context.Background()
	dbc := dbctx.New(ctx)
	orgID := uuid.New()
	plantID := uuid.New()
	st := testutil.SeedSampleType(t, ctx, db, orgID, types.CategoryPhysicoChemical)
	sample := testutil.SeedSample(t, ctx, db, orgID, plantID, st.ID, nil, types.SampleInAnalysis)
	param := testutil.SeedParameter(t, ctx, db, orgID, types.CategoryPhysicoChemical)

	testutil.SeedAnalysis(t, ctx, db, orgID, plantID, sample.ID, param.ID, types.AnalysisCompleted)
	testutil.SeedAnalysis(t, ctx, db, orgID, plantID, sample.ID, param.ID, types.AnalysisPending)
	retired := testutil.SeedAnalysis(t, ctx, db, orgID, plantID, sample.ID, param.ID, types.AnalysisInvalidated)
	if err := db.Model(&types.Analysis{}).Where("id = ?", retired.ID).Update("is_valid", false).Error; err != nil {
		t.Fatalf("retire analysis: %v", err)
	}

	progress, err := repo.Progress(dbc, sample.ID)
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if progress.Total != 2 || progress.Completed != 1 {
		t.Errorf("progress = %d/%d, want 1/2", progress.Completed, progress.Total)
	}
}
