package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/foodmes-backend/internal/data/repos/testutil"
	types "github.com/yungbote/foodmes-backend/internal/domain"
	"github.com/yungbote/foodmes-backend/internal/pkg/dbctx"
	"github.com/yungbote/foodmes-backend/internal/pkg/qerr"
)

type labFixture struct {
	orgID    uuid.UUID
	plantID  uuid.UUID
	analyst  *types.UserProfile
	batch    *types.ProductionBatch
	sample   *types.Sample
	param    *types.Parameter
	spec     *types.Specification
	analysis *types.Analysis
}

// seedLabFixture builds one in-analysis sample on a running batch with a
// single pending analysis against a critical 5..10 specification.
func seedLabFixture(t *testing.T, h *harness) *labFixture {
	t.Helper()
	ctx := context.Background()
	orgID := uuid.New()
	plantID := uuid.New()

	analyst := testutil.SeedUser(t, ctx, h.db, orgID, types.RoleLabAnalyst, pinHash(t))
	product := testutil.SeedProduct(t, ctx, h.db, orgID)
	batch := testutil.SeedBatch(t, ctx, h.db, orgID, plantID, product.ID, types.BatchInProgress)
	sampleType := testutil.SeedSampleType(t, ctx, h.db, orgID, types.CategoryPhysicoChemical)
	sample := testutil.SeedSample(t, ctx, h.db, orgID, plantID, sampleType.ID, &batch.ID, types.SampleInAnalysis)
	param := testutil.SeedParameter(t, ctx, h.db, orgID, types.CategoryPhysicoChemical)

	spec := testutil.SeedSpecification(t, ctx, h.db, orgID, param.ID, &product.ID, fp(5), fp(10))
	spec.IsCritical = true
	if err := h.db.Save(spec).Error; err != nil {
		t.Fatalf("mark spec critical: %v", err)
	}

	analysis := testutil.SeedAnalysis(t, ctx, h.db, orgID, plantID, sample.ID, param.ID, types.AnalysisPending)

	return &labFixture{
		orgID: orgID, plantID: plantID, analyst: analyst, batch: batch,
		sample: sample, param: param, spec: spec, analysis: analysis,
	}
}

func TestCompleteOOSRequiresJustification(t *testing.T) {
	h := newHarness(t)
	fx := seedLabFixture(t, h)
	ctx := context.Background()
	actor := actorFor(fx.analyst, fx.plantID)

	_, err := h.analysisSvc.Complete(ctx, actor, fx.analysis.ID, CompleteAnalysisInput{ValueNumeric: fp(12)})
	var jr *qerr.JustificationRequiredError
	if !errors.As(err, &jr) {
		t.Fatalf("OOS result without note: got %v, want JustificationRequired", err)
	}

	got, err := h.analysisSvc.Complete(ctx, actor, fx.analysis.ID, CompleteAnalysisInput{
		ValueNumeric: fp(12),
		Notes:        "instrument drift suspected, retest scheduled",
	})
	if err != nil {
		t.Fatalf("OOS result with note: %v", err)
	}
	if got.Status != types.AnalysisCompleted {
		t.Errorf("status = %s, want completed", got.Status)
	}
	if got.IsConforming == nil || *got.IsConforming {
		t.Error("verdict must be non-conforming")
	}
}

func TestCompleteConformingResult(t *testing.T) {
	h := newHarness(t)
	fx := seedLabFixture(t, h)
	ctx := context.Background()
	actor := actorFor(fx.analyst, fx.plantID)

	got, err := h.analysisSvc.Complete(ctx, actor, fx.analysis.ID, CompleteAnalysisInput{ValueNumeric: fp(7)})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if got.IsConforming == nil || !*got.IsConforming {
		t.Error("7 in 5..10 must conform")
	}

	// The only analysis completed: the sample moves to under_review.
	sample, err := h.samples.GetByID(dbctx.New(ctx), fx.sample.ID)
	if err != nil {
		t.Fatalf("reload sample: %v", err)
	}
	if sample.Status != types.SampleUnderReview {
		t.Errorf("sample status = %s, want under_review", sample.Status)
	}
}

func TestCriticalFailureOpensExactlyOneNC(t *testing.T) {
	h := newHarness(t)
	fx := seedLabFixture(t, h)
	ctx := context.Background()
	actor := actorFor(fx.analyst, fx.plantID)

	if _, err := h.analysisSvc.Complete(ctx, actor, fx.analysis.ID, CompleteAnalysisInput{
		ValueNumeric: fp(12),
		Notes:        "out of range",
	}); err != nil {
		t.Fatalf("complete: %v", err)
	}

	dbc := dbctx.New(ctx)
	nc, err := h.ncs.GetBySourceAnalysis(dbc, fx.analysis.ID)
	if err != nil {
		t.Fatalf("lookup nc: %v", err)
	}
	if nc == nil {
		t.Fatal("critical failure must open a non-conformity")
	}
	if nc.Severity != types.SeverityCritical {
		t.Errorf("severity = %s, want critical", nc.Severity)
	}
	if nc.ProductionBatchID == nil || *nc.ProductionBatchID != fx.batch.ID {
		t.Error("nc must link the production batch")
	}

	// Rewriting the unsigned result must not duplicate the NC.
	if _, err := h.analysisSvc.Complete(ctx, actor, fx.analysis.ID, CompleteAnalysisInput{
		ValueNumeric: fp(13),
		Notes:        "re-read, still out of range",
	}); err != nil {
		t.Fatalf("re-complete: %v", err)
	}
	count, err := h.ncs.CountOpenByBatch(dbc, fx.batch.ID, nil)
	if err != nil {
		t.Fatalf("count ncs: %v", err)
	}
	if count != 1 {
		t.Errorf("open NCs = %d, want exactly 1", count)
	}
}

func TestSignedResultCannotBeOverwritten(t *testing.T) {
	h := newHarness(t)
	fx := seedLabFixture(t, h)
	ctx := context.Background()
	actor := actorFor(fx.analyst, fx.plantID)

	if _, err := h.analysisSvc.Complete(ctx, actor, fx.analysis.ID, CompleteAnalysisInput{
		ValueNumeric: fp(7),
		Credential:   testPIN,
	}); err != nil {
		t.Fatalf("signed complete: %v", err)
	}

	_, err := h.analysisSvc.Complete(ctx, actor, fx.analysis.ID, CompleteAnalysisInput{ValueNumeric: fp(8)})
	var iv *qerr.ImmutabilityViolationError
	if !errors.As(err, &iv) {
		t.Fatalf("overwrite of signed result: got %v, want ImmutabilityViolation", err)
	}
}

func TestInvalidateOnLockedSampleFails(t *testing.T) {
	h := newHarness(t)
	fx := seedLabFixture(t, h)
	ctx := context.Background()
	supervisor := testutil.SeedUser(t, ctx, h.db, fx.orgID, types.RoleQCSupervisor, pinHash(t))
	actor := actorFor(supervisor, fx.plantID)

	analysis := testutil.SeedAnalysis(t, ctx, h.db, fx.orgID, fx.plantID, fx.sample.ID, fx.param.ID, types.AnalysisCompleted)
	if err := h.db.Model(&types.Sample{}).Where("id = ?", fx.sample.ID).
		Update("status", types.SampleReleased).Error; err != nil {
		t.Fatalf("lock sample: %v", err)
	}

	_, err := h.analysisSvc.Invalidate(ctx, actor, analysis.ID, "suspected contamination", "")
	var iv *qerr.ImmutabilityViolationError
	if !errors.As(err, &iv) {
		t.Fatalf("invalidate on released sample: got %v, want ImmutabilityViolation", err)
	}
}

func TestInvalidateCreatesRetestChain(t *testing.T) {
	h := newHarness(t)
	fx := seedLabFixture(t, h)
	ctx := context.Background()
	supervisor := testutil.SeedUser(t, ctx, h.db, fx.orgID, types.RoleQCSupervisor, pinHash(t))
	actor := actorFor(supervisor, fx.plantID)

	analysis := testutil.SeedAnalysis(t, ctx, h.db, fx.orgID, fx.plantID, fx.sample.ID, fx.param.ID, types.AnalysisCompleted)

	if _, err := h.analysisSvc.Invalidate(ctx, actor, analysis.ID, "", ""); err == nil {
		t.Fatal("invalidation without a reason must fail")
	}

	retest, err := h.analysisSvc.Invalidate(ctx, actor, analysis.ID, "suspected contamination", "")
	if err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if retest.Status != types.AnalysisPending || !retest.IsRetest {
		t.Errorf("retest = %s/is_retest=%v, want pending retest", retest.Status, retest.IsRetest)
	}
	if retest.SupersedesID == nil || *retest.SupersedesID != analysis.ID {
		t.Error("retest must supersede the invalidated analysis")
	}

	dbc := dbctx.New(ctx)
	old, err := h.analyses.GetByID(dbc, analysis.ID)
	if err != nil {
		t.Fatalf("reload old analysis: %v", err)
	}
	if old.Status != types.AnalysisInvalidated || old.IsValid {
		t.Errorf("old analysis = %s/is_valid=%v, want invalidated retired", old.Status, old.IsValid)
	}

	sample, err := h.samples.GetByID(dbc, fx.sample.ID)
	if err != nil {
		t.Fatalf("reload sample: %v", err)
	}
	if sample.Status != types.SampleInAnalysis {
		t.Errorf("sample status = %s, want in_analysis", sample.Status)
	}

	// Exactly one live analysis path per parameter after the retest.
	live, err := h.analyses.ListBySample(dbc, fx.sample.ID, true)
	if err != nil {
		t.Fatalf("list live: %v", err)
	}
	perParam := 0
	for _, a := range live {
		if a.ParameterID == fx.param.ID && a.ID != fx.analysis.ID {
			perParam++
		}
	}
	if perParam != 1 {
		t.Errorf("live analyses for parameter = %d, want 1", perParam)
	}
}

func TestMicroSegregation(t *testing.T) {
	h := newHarness(t)
	fx := seedLabFixture(t, h)
	ctx := context.Background()

	microParam := testutil.SeedParameter(t, ctx, h.db, fx.orgID, types.CategoryMicrobiological)
	microAnalysis := testutil.SeedAnalysis(t, ctx, h.db, fx.orgID, fx.plantID, fx.sample.ID, microParam.ID, types.AnalysisPending)

	labActor := actorFor(fx.analyst, fx.plantID)
	if _, err := h.analysisSvc.Start(ctx, labActor, microAnalysis.ID); !errors.Is(err, qerr.ErrAccessDenied) {
		t.Errorf("lab analyst on micro parameter: got %v, want AccessDenied", err)
	}

	micro := testutil.SeedUser(t, ctx, h.db, fx.orgID, types.RoleMicroAnalyst, pinHash(t))
	if _, err := h.analysisSvc.Start(ctx, actorFor(micro, fx.plantID), microAnalysis.ID); err != nil {
		t.Errorf("micro analyst on micro parameter: %v", err)
	}
	if _, err := h.analysisSvc.Start(ctx, actorFor(micro, fx.plantID), fx.analysis.ID); !errors.Is(err, qerr.ErrAccessDenied) {
		t.Errorf("micro analyst on physico parameter: got %v, want AccessDenied", err)
	}
}
