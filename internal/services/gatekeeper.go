package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/foodmes-backend/internal/data/repos"
	types "github.com/yungbote/foodmes-backend/internal/domain"
	"github.com/yungbote/foodmes-backend/internal/pkg/dbctx"
	"github.com/yungbote/foodmes-backend/internal/pkg/qerr"
	"github.com/yungbote/foodmes-backend/internal/platform/clock"
	"github.com/yungbote/foodmes-backend/internal/platform/logger"
	"github.com/yungbote/foodmes-backend/internal/realtime/bus"
)

// samplePassStates are the terminal-pass sample states the LIMS check
// accepts. Anything else counts as a pending sample.
var samplePassStates = map[types.SampleStatus]bool{
	types.SampleApproved: true,
	types.SampleReleased: true,
	types.SampleArchived: true,
}

// GatekeeperService aggregates lab, quality and food-safety state for a
// batch into one release/block decision and executes the signed release.
type GatekeeperService interface {
	// VerifyCompliance is read-only; it never mutates state.
	VerifyCompliance(ctx context.Context, actor types.ActorScope, batchID uuid.UUID) (*types.ComplianceCheckResult, error)
	ReleaseBatch(ctx context.Context, actor types.ActorScope, batchID uuid.UUID, credential string) (*types.ProductionBatch, error)
	// RejectBatch needs a justification but no compliance: an operator may
	// reject a technically passing batch for non-LIMS reasons.
	RejectBatch(ctx context.Context, actor types.ActorScope, batchID uuid.UUID, justification, credential string) (*types.ProductionBatch, error)
}

type gatekeeperService struct {
	db         *gorm.DB
	log        *logger.Logger
	batches    repos.BatchRepo
	samples    repos.SampleRepo
	analyses   repos.AnalysisRepo
	ncs        repos.NonConformityRepo
	pccs       repos.PCCDeviationRepo
	reminders  repos.SamplingReminderRepo
	signatures SignatureService
	audit      AuditTrail
	events     bus.Publisher
	clk        clock.Clock
}

func NewGatekeeperService(
	db *gorm.DB,
	log *logger.Logger,
	batches repos.BatchRepo,
	samples repos.SampleRepo,
	analyses repos.AnalysisRepo,
	ncs repos.NonConformityRepo,
	pccs repos.PCCDeviationRepo,
	reminders repos.SamplingReminderRepo,
	signatures SignatureService,
	audit AuditTrail,
	events bus.Publisher,
	clk clock.Clock,
) GatekeeperService {
	return &gatekeeperService{
		db:         db,
		log:        log.With("service", "GatekeeperService"),
		batches:    batches,
		samples:    samples,
		analyses:   analyses,
		ncs:        ncs,
		pccs:       pccs,
		reminders:  reminders,
		signatures: signatures,
		audit:      audit,
		events:     events,
		clk:        clk,
	}
}

func (s *gatekeeperService) VerifyCompliance(ctx context.Context, actor types.ActorScope, batchID uuid.UUID) (*types.ComplianceCheckResult, error) {
	dbc := dbctx.New(ctx)
	batch, err := s.batches.GetByID(dbc, batchID)
	if err != nil {
		return nil, err
	}
	if !actor.OwnsOrganization(batch.OrganizationID) {
		return nil, qerr.ErrAccessDenied
	}

	result := &types.ComplianceCheckResult{
		ProductionBatchID: batchID,
		CheckedAt:         s.clk.Now(),
	}

	// LIMS: every sample in a terminal-pass state, no failing live result.
	samples, err := s.samples.ListByBatch(dbc, batchID)
	if err != nil {
		return nil, err
	}
	result.SampleCount = len(samples)

	pendingSamples := 0
	var pendingCodes []string
	sampleIDs := make([]uuid.UUID, 0, len(samples))
	for _, sample := range samples {
		sampleIDs = append(sampleIDs, sample.ID)
		if !samplePassStates[sample.Status] {
			pendingSamples++
			pendingCodes = append(pendingCodes, sample.Code)
		}
	}

	oosResults := 0
	analyses, err := s.analyses.ListBySampleIDs(dbc, sampleIDs, true)
	if err != nil {
		return nil, err
	}
	for _, a := range analyses {
		if a.IsConforming != nil && !*a.IsConforming {
			oosResults++
		}
	}

	result.PendingSamples = pendingSamples
	result.OOSResults = oosResults
	limsCheck := types.ComplianceCheck{Name: "lims", Passed: pendingSamples == 0 && oosResults == 0}
	if pendingSamples > 0 {
		limsCheck.Blocker = fmt.Sprintf("%d sample(s) not finalized: %s", pendingSamples, strings.Join(pendingCodes, ", "))
	}
	if oosResults > 0 {
		detail := fmt.Sprintf("%d out-of-spec result(s)", oosResults)
		if limsCheck.Blocker != "" {
			limsCheck.Blocker += "; " + detail
		} else {
			limsCheck.Blocker = detail
		}
	}

	// QMS: no open critical/major non-conformities.
	openNCs, err := s.ncs.CountOpenByBatch(dbc, batchID, []types.NCSeverity{types.SeverityCritical, types.SeverityMajor})
	if err != nil {
		return nil, err
	}
	result.OpenNCCount = int(openNCs)
	qmsCheck := types.ComplianceCheck{Name: "qms", Passed: openNCs == 0}
	if openNCs > 0 {
		qmsCheck.Blocker = fmt.Sprintf("%d open critical/major non-conformities", openNCs)
	}

	// FSMS: no open hazard-control deviations.
	openDevs, err := s.pccs.CountOpenByBatch(dbc, batchID)
	if err != nil {
		return nil, err
	}
	result.OpenDeviations = int(openDevs)
	fsmsCheck := types.ComplianceCheck{Name: "fsms", Passed: openDevs == 0}
	if openDevs > 0 {
		fsmsCheck.Blocker = fmt.Sprintf("%d open hazard-control deviations", openDevs)
	}

	result.Checks = []types.ComplianceCheck{limsCheck, qmsCheck, fsmsCheck}
	result.Compliant = true
	for _, check := range result.Checks {
		if !check.Passed {
			result.Compliant = false
			if check.Blocker != "" {
				result.Blockers = append(result.Blockers, check.Blocker)
			}
		}
	}
	return result, nil
}

func (s *gatekeeperService) ReleaseBatch(ctx context.Context, actor types.ActorScope, batchID uuid.UUID, credential string) (*types.ProductionBatch, error) {
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

	compliance, err := s.VerifyCompliance(ctx, actor, batchID)
	if err != nil {
		return nil, err
	}
	if !compliance.Compliant {
		return nil, &qerr.QualityBlockError{Blockers: compliance.Blockers}
	}

	dbc := dbctx.New(ctx)
	batch, err := s.batches.GetByID(dbc, batchID)
	if err != nil {
		return nil, err
	}
	if batch.Status != types.BatchCompleted && batch.Status != types.BatchRetained {
		return nil, &qerr.InvalidTransitionError{Entity: "production_batch", From: string(batch.Status), To: string(types.BatchReleased)}
	}

	now := s.clk.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbc.WithTx(tx)
		ok, err := s.batches.UpdateStatusIf(txc, batchID, batch.Status, types.BatchReleased, map[string]interface{}{
			"qa_approved_by": actor.UserID,
			"qa_approved_at": now,
		})
		if err != nil {
			return err
		}
		if !ok {
			return &qerr.InvalidTransitionError{Entity: "production_batch", From: string(batch.Status), To: string(types.BatchReleased)}
		}

		if err := s.reminders.CompleteAllForBatch(txc, batchID); err != nil {
			return err
		}

		// The snapshot makes the release decision reconstructable later.
		return s.audit.Record(txc, actor, "batch.released", "production_batch", &batchID, map[string]interface{}{
			"compliance": compliance,
		})
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(ctx, bus.QualityEvent{
		Event:             bus.EventBatchReleased,
		OrganizationID:    batch.OrganizationID,
		ProductionBatchID: &batchID,
		EntityID:          batchID,
		ActorID:           actor.UserID,
		OccurredAt:        now,
	})
	return s.batches.GetByID(dbc, batchID)
}

func (s *gatekeeperService) RejectBatch(ctx context.Context, actor types.ActorScope, batchID uuid.UUID, justification, credential string) (*types.ProductionBatch, error) {
	if !actor.Allows(types.RoleAdmin, types.RoleQAManager, types.RoleQCSupervisor) {
		return nil, qerr.ErrAccessDenied
	}
	if strings.TrimSpace(justification) == "" {
		return nil, &qerr.JustificationRequiredError{Subject: "batch rejection"}
	}

	verified, err := s.signatures.Verify(ctx, actor.UserID, credential)
	if err != nil {
		return nil, err
	}
	if !verified {
		return nil, qerr.ErrInvalidSignature
	}

	dbc := dbctx.New(ctx)
	batch, err := s.batches.GetByID(dbc, batchID)
	if err != nil {
		return nil, err
	}
	if !actor.OwnsOrganization(batch.OrganizationID) {
		return nil, qerr.ErrAccessDenied
	}
	if batch.Status == types.BatchReleased || batch.Status == types.BatchRejected {
		return nil, &qerr.InvalidTransitionError{Entity: "production_batch", From: string(batch.Status), To: string(types.BatchRejected)}
	}

	now := s.clk.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbc.WithTx(tx)
		ok, err := s.batches.UpdateStatusIf(txc, batchID, batch.Status, types.BatchRejected, map[string]interface{}{
			"qa_approved_by":  actor.UserID,
			"qa_approved_at":  now,
			"rejection_notes": justification,
		})
		if err != nil {
			return err
		}
		if !ok {
			return &qerr.InvalidTransitionError{Entity: "production_batch", From: string(batch.Status), To: string(types.BatchRejected)}
		}

		if err := s.reminders.CompleteAllForBatch(txc, batchID); err != nil {
			return err
		}
		return s.audit.Record(txc, actor, "batch.rejected", "production_batch", &batchID, map[string]interface{}{
			"justification": justification,
		})
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(ctx, bus.QualityEvent{
		Event:             bus.EventBatchRejected,
		OrganizationID:    batch.OrganizationID,
		ProductionBatchID: &batchID,
		EntityID:          batchID,
		ActorID:           actor.UserID,
		Detail:            justification,
		OccurredAt:        now,
	})
	return s.batches.GetByID(dbc, batchID)
}
