package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/foodmes-backend/internal/data/repos"
	types "github.com/yungbote/foodmes-backend/internal/domain"
	"github.com/yungbote/foodmes-backend/internal/pkg/dbctx"
	"github.com/yungbote/foodmes-backend/internal/platform/clock"
	"github.com/yungbote/foodmes-backend/internal/platform/logger"
	"github.com/yungbote/foodmes-backend/internal/realtime/bus"
)

// NonConformityService opens formal deviation records for failing critical
// or hazard-linked results. Creation is idempotent per source analysis.
type NonConformityService interface {
	CreateFromAnalysisFailure(dbc dbctx.Context, actor types.ActorScope, analysis *types.Analysis, spec *types.Specification, sample *types.Sample, value string) error
}

type nonConformityService struct {
	log    *logger.Logger
	ncs    repos.NonConformityRepo
	pccs   repos.PCCDeviationRepo
	params repos.ParameterRepo
	audit  AuditTrail
	events bus.Publisher
	clk    clock.Clock
}

func NewNonConformityService(
	log *logger.Logger,
	ncs repos.NonConformityRepo,
	pccs repos.PCCDeviationRepo,
	params repos.ParameterRepo,
	audit AuditTrail,
	events bus.Publisher,
	clk clock.Clock,
) NonConformityService {
	return &nonConformityService{
		log:    log.With("service", "NonConformityService"),
		ncs:    ncs,
		pccs:   pccs,
		params: params,
		audit:  audit,
		events: events,
		clk:    clk,
	}
}

func (s *nonConformityService) CreateFromAnalysisFailure(dbc dbctx.Context, actor types.ActorScope, analysis *types.Analysis, spec *types.Specification, sample *types.Sample, value string) error {
	// Only critical or hazard-linked parameters escalate to a formal NC.
	if spec == nil || (!spec.IsCritical && spec.PCCPointID == nil) {
		return nil
	}

	existing, err := s.ncs.GetBySourceAnalysis(dbc, analysis.ID)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	param, err := s.params.GetByID(dbc, analysis.ParameterID)
	if err != nil {
		return err
	}

	severity := types.SeverityMajor
	if spec.IsCritical {
		severity = types.SeverityCritical
	}

	now := s.clk.Now()
	analysisID := analysis.ID
	sampleID := sample.ID

	// Numbers are allocated count-then-insert; the unique (org, number)
	// index rejects the loser of a concurrent allocation, which retries
	// with the next candidate.
	var nc *types.NonConformity
	for attempt := 0; ; attempt++ {
		number, err := s.nextNumber(dbc, analysis.OrganizationID, now, attempt)
		if err != nil {
			return err
		}
		nc = &types.NonConformity{
			ID:                uuid.New(),
			OrganizationID:    analysis.OrganizationID,
			PlantID:           analysis.PlantID,
			Number:            number,
			Title:             fmt.Sprintf("Out-of-spec result: %s", param.Name),
			Description:       fmt.Sprintf("Parameter %s measured %s on sample %s", param.Code, value, sample.Code),
			Severity:          severity,
			NCType:            "internal",
			Status:            types.NCOpen,
			SourceAnalysisID:  &analysisID,
			ProductionBatchID: sample.ProductionBatchID,
			SampleID:          &sampleID,
			DetectedBy:        actor.UserID,
			OpenedAt:          now,
		}
		_, err = s.ncs.Create(dbc, nc)
		if err == nil {
			break
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) || attempt+1 >= ncNumberAttempts {
			return fmt.Errorf("create non-conformity: %w", err)
		}
		s.log.Warn("nc number taken, retrying", "number", number, "attempt", attempt+1)
	}

	if spec.PCCPointID != nil {
		dev := &types.PCCDeviation{
			ID:               uuid.New(),
			OrganizationID:   analysis.OrganizationID,
			PlantID:          analysis.PlantID,
			PCCPointID:       *spec.PCCPointID,
			SourceAnalysisID: &analysisID,
			Description:      nc.Description,
			MeasuredValue:    analysis.ValueNumeric,
			Status:           types.PCCDeviationOpen,
			OpenedAt:         now,
		}
		if sample.ProductionBatchID != nil {
			dev.ProductionBatchID = *sample.ProductionBatchID
		}
		if _, err := s.pccs.Create(dbc, dev); err != nil {
			return fmt.Errorf("create pcc deviation: %w", err)
		}
	}

	if err := s.audit.Record(dbc, actor, "nonconformity.opened", "nonconformity", &nc.ID, map[string]interface{}{
		"number":      nc.Number,
		"severity":    string(nc.Severity),
		"analysis_id": analysis.ID.String(),
	}); err != nil {
		return err
	}

	s.events.Publish(dbc.Ctx, bus.QualityEvent{
		Event:             bus.EventNCOpened,
		OrganizationID:    nc.OrganizationID,
		ProductionBatchID: nc.ProductionBatchID,
		EntityID:          nc.ID,
		ActorID:           actor.UserID,
		Detail:            nc.Number,
		OccurredAt:        now,
	})
	return nil
}

// ncNumberAttempts bounds the allocation retry loop.
const ncNumberAttempts = 3

// nextNumber proposes NC-YYYY-NNNN, a per-organization yearly sequence.
// attempt skips past candidates already rejected by the unique index.
func (s *nonConformityService) nextNumber(dbc dbctx.Context, orgID uuid.UUID, now time.Time, attempt int) (string, error) {
	yearStart := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	count, err := s.ncs.CountSince(dbc, orgID, yearStart)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("NC-%d-%04d", now.Year(), count+1+int64(attempt)), nil
}
