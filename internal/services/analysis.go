package services

import (
	"context"
	"fmt"
	"strings"

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

// CompleteAnalysisInput carries one measured result. Exactly one of
// ValueNumeric and ValueText must be set.
type CompleteAnalysisInput struct {
	ValueNumeric *float64
	ValueText    *string
	Notes        string
	EquipmentID  *uuid.UUID
	// Credential, when present, electronically signs the result.
	Credential string
}

type AnalysisService interface {
	Start(ctx context.Context, actor types.ActorScope, analysisID uuid.UUID) (*types.Analysis, error)
	Complete(ctx context.Context, actor types.ActorScope, analysisID uuid.UUID, in CompleteAnalysisInput) (*types.Analysis, error)
	// Invalidate retires a result and chains a fresh pending retest. The
	// reason is mandatory and the parent sample must not be locked.
	Invalidate(ctx context.Context, actor types.ActorScope, analysisID uuid.UUID, reason, credential string) (*types.Analysis, error)
}

type analysisService struct {
	db         *gorm.DB
	log        *logger.Logger
	analyses   repos.AnalysisRepo
	samples    repos.SampleRepo
	specs      repos.SpecificationRepo
	params     repos.ParameterRepo
	batches    repos.BatchRepo
	sampleSvc  SampleService
	ncTrigger  NonConformityService
	signatures SignatureService
	audit      AuditTrail
	clk        clock.Clock
}

func NewAnalysisService(
	db *gorm.DB,
	log *logger.Logger,
	analyses repos.AnalysisRepo,
	samples repos.SampleRepo,
	specs repos.SpecificationRepo,
	params repos.ParameterRepo,
	batches repos.BatchRepo,
	sampleSvc SampleService,
	ncTrigger NonConformityService,
	signatures SignatureService,
	audit AuditTrail,
	clk clock.Clock,
) AnalysisService {
	return &analysisService{
		db:         db,
		log:        log.With("service", "AnalysisService"),
		analyses:   analyses,
		samples:    samples,
		specs:      specs,
		params:     params,
		batches:    batches,
		sampleSvc:  sampleSvc,
		ncTrigger:  ncTrigger,
		signatures: signatures,
		audit:      audit,
		clk:        clk,
	}
}

func (s *analysisService) Start(ctx context.Context, actor types.ActorScope, analysisID uuid.UUID) (*types.Analysis, error) {
	dbc := dbctx.New(ctx)
	analysis, err := s.analyses.GetByID(dbc, analysisID)
	if err != nil {
		return nil, err
	}
	if !actor.OwnsOrganization(analysis.OrganizationID) {
		return nil, qerr.ErrAccessDenied
	}
	if err := s.guardCategory(dbc, actor, analysis.ParameterID); err != nil {
		return nil, err
	}
	if !lab.IsValidAnalysisTransition(analysis.Status, types.AnalysisStarted) {
		return nil, &qerr.InvalidTransitionError{Entity: "analysis", From: string(analysis.Status), To: string(types.AnalysisStarted)}
	}

	ok, err := s.analyses.UpdateStatusIf(dbc, analysisID, analysis.Status, types.AnalysisStarted, map[string]interface{}{
		"analyzed_by": actor.UserID,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &qerr.InvalidTransitionError{Entity: "analysis", From: string(analysis.Status), To: string(types.AnalysisStarted)}
	}
	return s.analyses.GetByID(dbc, analysisID)
}

func (s *analysisService) Complete(ctx context.Context, actor types.ActorScope, analysisID uuid.UUID, in CompleteAnalysisInput) (*types.Analysis, error) {
	if (in.ValueNumeric == nil) == (in.ValueText == nil) {
		return nil, fmt.Errorf("exactly one of numeric and text value must be set")
	}

	dbc := dbctx.New(ctx)
	analysis, err := s.analyses.GetByID(dbc, analysisID)
	if err != nil {
		return nil, err
	}
	if !actor.OwnsOrganization(analysis.OrganizationID) {
		return nil, qerr.ErrAccessDenied
	}
	if err := s.guardCategory(dbc, actor, analysis.ParameterID); err != nil {
		return nil, err
	}

	sample, err := s.samples.GetByID(dbc, analysis.SampleID)
	if err != nil {
		return nil, err
	}
	if !lab.CanEditResults(sample.Status) {
		return nil, &qerr.ImmutabilityViolationError{Entity: "sample", Status: string(sample.Status)}
	}
	if !lab.CanEditAnalysis(analysis.Status) {
		return nil, &qerr.ImmutabilityViolationError{Entity: "analysis", Status: string(analysis.Status)}
	}
	// A signed completed result can never be overwritten.
	if analysis.Status == types.AnalysisCompleted && analysis.SignatureHash != nil {
		return nil, &qerr.ImmutabilityViolationError{Entity: "analysis", Status: "signed"}
	}

	spec, err := s.resolveSpec(dbc, sample, analysis.ParameterID)
	if err != nil {
		return nil, err
	}

	var ev Evaluation
	var valueStr string
	if in.ValueNumeric != nil {
		ev = EvaluateNumeric(*in.ValueNumeric, spec)
		valueStr = fmt.Sprintf("%g", *in.ValueNumeric)
	} else {
		ev = EvaluateText(*in.ValueText, spec)
		valueStr = *in.ValueText
	}

	if !ev.IsConforming && strings.TrimSpace(in.Notes) == "" {
		return nil, &qerr.JustificationRequiredError{Subject: "out-of-spec result"}
	}

	now := s.clk.Now()
	var signatureHash *string
	if in.Credential != "" {
		verified, err := s.signatures.Verify(ctx, actor.UserID, in.Credential)
		if err != nil {
			return nil, err
		}
		if !verified {
			return nil, qerr.ErrInvalidSignature
		}
		h := s.signatures.GenerateHash("analysis", analysis.ID, sample.ID, analysis.ParameterID, valueStr, actor.UserID, now)
		signatureHash = &h
	}

	updates := map[string]interface{}{
		"value_numeric": in.ValueNumeric,
		"value_text":    in.ValueText,
		"is_conforming": ev.IsConforming,
		"notes":         in.Notes,
		"equipment_id":  in.EquipmentID,
		"analyzed_by":   actor.UserID,
		"analyzed_at":   now,
	}
	if signatureHash != nil {
		updates["signed_transaction_hash"] = *signatureHash
	}

	from := analysis.Status
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbc.WithTx(tx)

		// Results recorded straight from the queue pass through started.
		if from == types.AnalysisPending {
			ok, err := s.analyses.UpdateStatusIf(txc, analysisID, types.AnalysisPending, types.AnalysisStarted, nil)
			if err != nil {
				return err
			}
			if !ok {
				return &qerr.InvalidTransitionError{Entity: "analysis", From: string(from), To: string(types.AnalysisStarted)}
			}
			from = types.AnalysisStarted
		}
		ok, err := s.analyses.UpdateStatusIf(txc, analysisID, from, types.AnalysisCompleted, updates)
		if err != nil {
			return err
		}
		if !ok {
			return &qerr.InvalidTransitionError{Entity: "analysis", From: string(from), To: string(types.AnalysisCompleted)}
		}

		payload := map[string]interface{}{
			"value":         valueStr,
			"is_conforming": ev.IsConforming,
		}
		if ev.Message != "" {
			payload["message"] = ev.Message
		}
		if err := s.audit.Record(txc, actor, "analysis.completed", "analysis", &analysisID, payload); err != nil {
			return err
		}

		if !ev.IsConforming {
			if err := s.ncTrigger.CreateFromAnalysisFailure(txc, actor, analysis, spec, sample, valueStr); err != nil {
				return fmt.Errorf("non-conformity trigger: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.sampleSvc.RefreshStatus(ctx, sample.ID); err != nil {
		s.log.Warn("sample status refresh failed", "sample_id", sample.ID, "error", err)
	}
	return s.analyses.GetByID(dbc, analysisID)
}

func (s *analysisService) Invalidate(ctx context.Context, actor types.ActorScope, analysisID uuid.UUID, reason, credential string) (*types.Analysis, error) {
	if !actor.Allows(types.RoleAdmin, types.RoleQAManager, types.RoleQCSupervisor) {
		return nil, qerr.ErrAccessDenied
	}
	if strings.TrimSpace(reason) == "" {
		return nil, &qerr.JustificationRequiredError{Subject: "analysis invalidation"}
	}

	dbc := dbctx.New(ctx)
	analysis, err := s.analyses.GetByID(dbc, analysisID)
	if err != nil {
		return nil, err
	}
	if !actor.OwnsOrganization(analysis.OrganizationID) {
		return nil, qerr.ErrAccessDenied
	}
	sample, err := s.samples.GetByID(dbc, analysis.SampleID)
	if err != nil {
		return nil, err
	}
	if lab.IsSampleLocked(sample.Status) {
		return nil, &qerr.ImmutabilityViolationError{Entity: "sample", Status: string(sample.Status)}
	}
	if !lab.IsValidAnalysisTransition(analysis.Status, types.AnalysisInvalidated) {
		return nil, &qerr.InvalidTransitionError{Entity: "analysis", From: string(analysis.Status), To: string(types.AnalysisInvalidated)}
	}

	if credential != "" {
		verified, err := s.signatures.Verify(ctx, actor.UserID, credential)
		if err != nil {
			return nil, err
		}
		if !verified {
			return nil, qerr.ErrInvalidSignature
		}
	}

	notes := analysis.Notes
	if notes != "" {
		notes += "\n"
	}
	notes += "invalidated: " + reason

	retest := &types.Analysis{
		ID:             uuid.New(),
		OrganizationID: analysis.OrganizationID,
		PlantID:        analysis.PlantID,
		SampleID:       analysis.SampleID,
		ParameterID:    analysis.ParameterID,
		Status:         types.AnalysisPending,
		IsValid:        true,
		IsRetest:       true,
		SupersedesID:   &analysis.ID,
		RetestReason:   reason,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbc.WithTx(tx)

		ok, err := s.analyses.UpdateStatusIf(txc, analysisID, analysis.Status, types.AnalysisInvalidated, map[string]interface{}{
			"is_valid": false,
			"notes":    notes,
		})
		if err != nil {
			return err
		}
		if !ok {
			return &qerr.InvalidTransitionError{Entity: "analysis", From: string(analysis.Status), To: string(types.AnalysisInvalidated)}
		}

		if _, err := s.analyses.Create(txc, []*types.Analysis{retest}); err != nil {
			return fmt.Errorf("create retest: %w", err)
		}

		// Force re-review: the sample returns to in_analysis and loses its
		// prior review stamps.
		if sample.Status != types.SampleInAnalysis {
			ok, err := s.samples.UpdateStatusIf(txc, sample.ID, sample.Status, types.SampleInAnalysis, map[string]interface{}{
				"reviewed_by":  nil,
				"reviewed_at":  nil,
				"validated_by": nil,
				"validated_at": nil,
			})
			if err != nil {
				return err
			}
			if !ok {
				return &qerr.InvalidTransitionError{Entity: "sample", From: string(sample.Status), To: string(types.SampleInAnalysis)}
			}
		}

		return s.audit.Record(txc, actor, "analysis.invalidated", "analysis", &analysisID, map[string]interface{}{
			"reason":    reason,
			"retest_id": retest.ID.String(),
		})
	})
	if err != nil {
		return nil, err
	}
	return s.analyses.GetByID(dbc, retest.ID)
}

// guardCategory enforces analyst segregation: microbiological parameters
// belong to micro analysts, everything else to lab analysts. Supervisors
// and managers may execute either.
func (s *analysisService) guardCategory(dbc dbctx.Context, actor types.ActorScope, parameterID uuid.UUID) error {
	if actor.Allows(types.RoleAdmin, types.RoleQAManager, types.RoleQCSupervisor) {
		return nil
	}
	param, err := s.params.GetByID(dbc, parameterID)
	if err != nil {
		return err
	}
	if param.Category == types.CategoryMicrobiological {
		if actor.Role != types.RoleMicroAnalyst {
			return qerr.ErrAccessDenied
		}
		return nil
	}
	if actor.Role != types.RoleLabAnalyst {
		return qerr.ErrAccessDenied
	}
	return nil
}

func (s *analysisService) resolveSpec(dbc dbctx.Context, sample *types.Sample, parameterID uuid.UUID) (*types.Specification, error) {
	var productID *uuid.UUID
	var sampleTypeID *uuid.UUID
	if sample.ProductionBatchID != nil {
		batch, err := s.batches.GetByID(dbc, *sample.ProductionBatchID)
		if err != nil {
			return nil, err
		}
		productID = &batch.ProductID
	} else {
		stID := sample.SampleTypeID
		sampleTypeID = &stID
	}
	return s.specs.ResolveForParameter(dbc, sample.OrganizationID, parameterID, productID, sampleTypeID)
}
