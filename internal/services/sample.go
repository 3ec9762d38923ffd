package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/foodmes-backend/internal/data/repos"
	types "github.com/yungbote/foodmes-backend/internal/domain"
	"github.com/yungbote/foodmes-backend/internal/domain/lab"
	"github.com/yungbote/foodmes-backend/internal/pkg/dbctx"
	"github.com/yungbote/foodmes-backend/internal/pkg/qerr"
	"github.com/yungbote/foodmes-backend/internal/platform/clock"
	"github.com/yungbote/foodmes-backend/internal/platform/logger"
)

// RegisterSampleInput describes one new physical sample. Exactly one of
// the three production links must be set.
type RegisterSampleInput struct {
	SampleTypeID          uuid.UUID
	ProductionBatchID     *uuid.UUID
	IntermediateProductID *uuid.UUID
	SamplingPointID       *uuid.UUID
	Notes                 string
}

type SampleService interface {
	Register(ctx context.Context, actor types.ActorScope, in RegisterSampleInput) (*types.Sample, error)
	UpdateStatus(ctx context.Context, actor types.ActorScope, sampleID uuid.UUID, to types.SampleStatus, justification string) (*types.Sample, error)
	// RefreshStatus recomputes collected/in_analysis/under_review from the
	// completion tally of the sample's live analyses.
	RefreshStatus(ctx context.Context, sampleID uuid.UUID) (*types.Sample, error)
	// TechnicalReview is the level-2 decision on a sample under review.
	TechnicalReview(ctx context.Context, actor types.ActorScope, sampleID uuid.UUID, approve bool, justification, credential string) (*types.Sample, error)
	// FinalRelease is the level-3 signed release of an approved sample.
	FinalRelease(ctx context.Context, actor types.ActorScope, sampleID uuid.UUID, credential, notes string) (*types.Sample, error)
}

type sampleService struct {
	db         *gorm.DB
	log        *logger.Logger
	samples    repos.SampleRepo
	analyses   repos.AnalysisRepo
	specs      repos.SpecificationRepo
	params     repos.ParameterRepo
	sampleTyps repos.SampleTypeRepo
	batches    repos.BatchRepo
	products   repos.ProductRepo
	signatures SignatureService
	audit      AuditTrail
	clk        clock.Clock
}

func NewSampleService(
	db *gorm.DB,
	log *logger.Logger,
	samples repos.SampleRepo,
	analyses repos.AnalysisRepo,
	specs repos.SpecificationRepo,
	params repos.ParameterRepo,
	sampleTyps repos.SampleTypeRepo,
	batches repos.BatchRepo,
	products repos.ProductRepo,
	signatures SignatureService,
	audit AuditTrail,
	clk clock.Clock,
) SampleService {
	return &sampleService{
		db:         db,
		log:        log.With("service", "SampleService"),
		samples:    samples,
		analyses:   analyses,
		specs:      specs,
		params:     params,
		sampleTyps: sampleTyps,
		batches:    batches,
		products:   products,
		signatures: signatures,
		audit:      audit,
		clk:        clk,
	}
}

func (s *sampleService) Register(ctx context.Context, actor types.ActorScope, in RegisterSampleInput) (*types.Sample, error) {
	if !actor.Allows(types.RoleAdmin, types.RoleQAManager, types.RoleQCSupervisor, types.RoleLabAnalyst, types.RoleMicroAnalyst, types.RoleOperator) {
		return nil, qerr.ErrAccessDenied
	}

	source, err := resolveSource(in)
	if err != nil {
		return nil, err
	}

	dbc := dbctx.New(ctx)
	sampleType, err := s.sampleTyps.GetByID(dbc, in.SampleTypeID)
	if err != nil {
		return nil, err
	}

	var batch *types.ProductionBatch
	var product *types.Product
	if in.ProductionBatchID != nil {
		batch, err = s.batches.GetByID(dbc, *in.ProductionBatchID)
		if err != nil {
			return nil, err
		}
		if !actor.OwnsOrganization(batch.OrganizationID) {
			return nil, qerr.ErrAccessDenied
		}
		product, err = s.products.GetByID(dbc, batch.ProductID)
		if err != nil {
			return nil, err
		}
	}

	now := s.clk.Now()
	sample := &types.Sample{
		ID:                    uuid.New(),
		OrganizationID:        actor.OrganizationID,
		PlantID:               actor.PlantID,
		SampleTypeID:          sampleType.ID,
		Code:                  sampleCode(product, sampleType, now),
		Status:                types.SampleRegistered,
		Source:                source,
		ProductionBatchID:     in.ProductionBatchID,
		IntermediateProductID: in.IntermediateProductID,
		SamplingPointID:       in.SamplingPointID,
		Notes:                 in.Notes,
	}
	if batch != nil {
		sample.SpecVersionID = batch.SpecVersionID
		sample.PlantID = batch.PlantID
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbc.WithTx(tx)
		if _, err := s.samples.Create(txc, []*types.Sample{sample}); err != nil {
			return fmt.Errorf("create sample: %w", err)
		}
		if err := s.initAnalysisQueue(txc, sample, sampleType, batch); err != nil {
			return err
		}
		return s.audit.Record(txc, actor, "sample.registered", "sample", &sample.ID, map[string]interface{}{
			"code":   sample.Code,
			"source": string(sample.Source),
		})
	})
	if err != nil {
		return nil, err
	}
	return sample, nil
}

// initAnalysisQueue creates one pending analysis per active specification
// whose parameter belongs to the sample type's test category.
func (s *sampleService) initAnalysisQueue(dbc dbctx.Context, sample *types.Sample, sampleType *types.SampleType, batch *types.ProductionBatch) error {
	var specs []*types.Specification
	var err error
	if batch != nil {
		specs, err = s.specs.ListActiveForProduct(dbc, sample.OrganizationID, batch.ProductID)
	} else {
		specs, err = s.specs.ListActiveForSampleType(dbc, sample.OrganizationID, sample.SampleTypeID)
	}
	if err != nil {
		return fmt.Errorf("load specifications: %w", err)
	}
	if len(specs) == 0 {
		return nil
	}

	paramIDs := make([]uuid.UUID, 0, len(specs))
	seen := map[uuid.UUID]bool{}
	for _, sp := range specs {
		if !seen[sp.ParameterID] {
			seen[sp.ParameterID] = true
			paramIDs = append(paramIDs, sp.ParameterID)
		}
	}
	params, err := s.params.GetByIDs(dbc, paramIDs)
	if err != nil {
		return fmt.Errorf("load parameters: %w", err)
	}
	categories := map[uuid.UUID]types.ParameterCategory{}
	for _, p := range params {
		categories[p.ID] = p.Category
	}

	var queue []*types.Analysis
	queued := map[uuid.UUID]bool{}
	for _, sp := range specs {
		if queued[sp.ParameterID] {
			continue
		}
		if categories[sp.ParameterID] != sampleType.TestCategory {
			continue
		}
		queued[sp.ParameterID] = true
		queue = append(queue, &types.Analysis{
			ID:             uuid.New(),
			OrganizationID: sample.OrganizationID,
			PlantID:        sample.PlantID,
			SampleID:       sample.ID,
			ParameterID:    sp.ParameterID,
			Status:         types.AnalysisPending,
			IsValid:        true,
		})
	}
	if _, err := s.analyses.Create(dbc, queue); err != nil {
		return fmt.Errorf("init analysis queue: %w", err)
	}
	return nil
}

func (s *sampleService) UpdateStatus(ctx context.Context, actor types.ActorScope, sampleID uuid.UUID, to types.SampleStatus, justification string) (*types.Sample, error) {
	if !actor.Allows(types.RoleAdmin, types.RoleQAManager, types.RoleQCSupervisor, types.RoleLabAnalyst, types.RoleMicroAnalyst) {
		return nil, qerr.ErrAccessDenied
	}

	dbc := dbctx.New(ctx)
	sample, err := s.samples.GetByID(dbc, sampleID)
	if err != nil {
		return nil, err
	}
	if !actor.OwnsOrganization(sample.OrganizationID) {
		return nil, qerr.ErrAccessDenied
	}
	if !lab.IsValidSampleTransition(sample.Status, to) {
		return nil, &qerr.InvalidTransitionError{Entity: "sample", From: string(sample.Status), To: string(to)}
	}

	extra := map[string]interface{}{}
	now := s.clk.Now()
	switch to {
	case types.SampleCollected:
		extra["collected_by"] = actor.UserID
		extra["collected_at"] = now
	case types.SampleApproved:
		if err := s.guardCompliantApproval(dbc, sampleID, justification); err != nil {
			return nil, err
		}
		extra["reviewed_by"] = actor.UserID
		extra["reviewed_at"] = now
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbc.WithTx(tx)
		ok, err := s.samples.UpdateStatusIf(txc, sampleID, sample.Status, to, extra)
		if err != nil {
			return err
		}
		if !ok {
			return &qerr.InvalidTransitionError{Entity: "sample", From: string(sample.Status), To: string(to)}
		}
		payload := map[string]interface{}{"from": string(sample.Status), "to": string(to)}
		if justification != "" {
			payload["justification"] = justification
		}
		return s.audit.Record(txc, actor, "sample.status_changed", "sample", &sampleID, payload)
	})
	if err != nil {
		return nil, err
	}
	return s.samples.GetByID(dbc, sampleID)
}

// guardCompliantApproval blocks approval of a sample with non-passing live
// results unless a human justification accompanies the decision.
func (s *sampleService) guardCompliantApproval(dbc dbctx.Context, sampleID uuid.UUID, justification string) error {
	results, err := s.analyses.ListBySample(dbc, sampleID, true)
	if err != nil {
		return err
	}
	if lab.IsCompliant(results) {
		return nil
	}
	if strings.TrimSpace(justification) == "" {
		return &qerr.QualityBlockError{Blockers: []string{"sample has non-conforming results and no approval justification"}}
	}
	return nil
}

func (s *sampleService) RefreshStatus(ctx context.Context, sampleID uuid.UUID) (*types.Sample, error) {
	dbc := dbctx.New(ctx)
	sample, err := s.samples.GetByID(dbc, sampleID)
	if err != nil {
		return nil, err
	}
	if lab.IsSampleLocked(sample.Status) {
		return sample, nil
	}

	progress, err := s.analyses.Progress(dbc, sampleID)
	if err != nil {
		return nil, err
	}

	switch {
	case sample.Status == types.SampleCollected && progress.Total > 0:
		if _, err := s.samples.UpdateStatusIf(dbc, sampleID, types.SampleCollected, types.SampleInAnalysis, nil); err != nil {
			return nil, err
		}
	case sample.Status == types.SampleInAnalysis && lab.IsReadyForReview(progress.Completed, progress.Total):
		if _, err := s.samples.UpdateStatusIf(dbc, sampleID, types.SampleInAnalysis, types.SampleUnderReview, nil); err != nil {
			return nil, err
		}
	}
	return s.samples.GetByID(dbc, sampleID)
}

func (s *sampleService) TechnicalReview(ctx context.Context, actor types.ActorScope, sampleID uuid.UUID, approve bool, justification, credential string) (*types.Sample, error) {
	if !actor.Allows(types.RoleAdmin, types.RoleQAManager, types.RoleQCSupervisor) {
		return nil, qerr.ErrAccessDenied
	}

	verified, err := s.signatures.Verify(ctx, actor.UserID, credential)
	if err != nil {
		return nil, err
	}
	if !verified {
		return nil, qerr.ErrInvalidSignature
	}

	to := types.SampleApproved
	if !approve {
		to = types.SampleRejected
		if strings.TrimSpace(justification) == "" {
			return nil, &qerr.JustificationRequiredError{Subject: "sample rejection"}
		}
	}
	return s.UpdateStatus(ctx, actor, sampleID, to, justification)
}

func (s *sampleService) FinalRelease(ctx context.Context, actor types.ActorScope, sampleID uuid.UUID, credential, notes string) (*types.Sample, error) {
	if !actor.Allows(types.RoleAdmin, types.RoleQAManager) {
		return nil, qerr.ErrAccessDenied
	}

	verified, err := s.signatures.Verify(ctx, actor.UserID, credential)
	if err != nil {
		return nil, err
	}
	if !verified {
		return nil, qerr.ErrInvalidSignature
	}

	dbc := dbctx.New(ctx)
	sample, err := s.samples.GetByID(dbc, sampleID)
	if err != nil {
		return nil, err
	}
	if !actor.OwnsOrganization(sample.OrganizationID) {
		return nil, qerr.ErrAccessDenied
	}
	if sample.Status != types.SampleApproved {
		return nil, &qerr.InvalidTransitionError{Entity: "sample", From: string(sample.Status), To: string(types.SampleReleased)}
	}

	now := s.clk.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbc.WithTx(tx)
		ok, err := s.samples.UpdateStatusIf(txc, sampleID, types.SampleApproved, types.SampleReleased, map[string]interface{}{
			"released_by":   actor.UserID,
			"released_at":   now,
			"release_notes": notes,
		})
		if err != nil {
			return err
		}
		if !ok {
			return &qerr.InvalidTransitionError{Entity: "sample", From: string(sample.Status), To: string(types.SampleReleased)}
		}
		return s.audit.Record(txc, actor, "sample.released", "sample", &sampleID, map[string]interface{}{
			"notes": notes,
		})
	})
	if err != nil {
		return nil, err
	}
	return s.samples.GetByID(dbc, sampleID)
}

func resolveSource(in RegisterSampleInput) (types.SampleSource, error) {
	links := 0
	var source types.SampleSource
	if in.ProductionBatchID != nil {
		links++
		source = types.SourceFinishedProduct
	}
	if in.IntermediateProductID != nil {
		links++
		source = types.SourceIntermediate
	}
	if in.SamplingPointID != nil {
		links++
		source = types.SourceEnvironmental
	}
	if links != 1 {
		return "", fmt.Errorf("exactly one production link must be set, got %d", links)
	}
	return source, nil
}

// sampleCode builds the industrial identifier SKU-TYPE-YYYYMMDD-HHMM.
// Environmental samples have no product and use the type code alone.
func sampleCode(product *types.Product, sampleType *types.SampleType, now time.Time) string {
	stamp := now.Format("20060102-1504")
	if product != nil {
		return fmt.Sprintf("%s-%s-%s", product.SKU, sampleType.Code, stamp)
	}
	return fmt.Sprintf("%s-%s", sampleType.Code, stamp)
}
