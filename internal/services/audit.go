package services

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/foodmes-backend/internal/data/repos"
	types "github.com/yungbote/foodmes-backend/internal/domain"
	"github.com/yungbote/foodmes-backend/internal/pkg/dbctx"
	"github.com/yungbote/foodmes-backend/internal/platform/clock"
	"github.com/yungbote/foodmes-backend/internal/platform/logger"
)

// AuditTrail appends one immutable event per state-changing operation.
// Policy is configurable: fail-open logs write failures and keeps the
// primary mutation; fail-closed propagates them so the caller aborts.
type AuditTrail interface {
	Record(dbc dbctx.Context, actor types.ActorScope, action, entityType string, entityID *uuid.UUID, payload map[string]interface{}) error
}

type auditTrail struct {
	log        *logger.Logger
	events     repos.AuditEventRepo
	clk        clock.Clock
	failClosed bool
}

func NewAuditTrail(log *logger.Logger, events repos.AuditEventRepo, clk clock.Clock, failClosed bool) AuditTrail {
	return &auditTrail{
		log:        log.With("service", "AuditTrail"),
		events:     events,
		clk:        clk,
		failClosed: failClosed,
	}
}

func (a *auditTrail) Record(dbc dbctx.Context, actor types.ActorScope, action, entityType string, entityID *uuid.UUID, payload map[string]interface{}) error {
	var raw datatypes.JSON
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return a.fail(action, fmt.Errorf("marshal audit payload: %w", err))
		}
		raw = datatypes.JSON(b)
	}

	ev := &types.AuditEvent{
		ID:             uuid.New(),
		OrganizationID: actor.OrganizationID,
		Action:         action,
		EntityType:     entityType,
		EntityID:       entityID,
		ActorRole:      string(actor.Role),
		Payload:        raw,
		CorrelationID:  actor.CorrelationID,
		OccurredAt:     a.clk.Now(),
	}
	if actor.PlantID != uuid.Nil {
		plantID := actor.PlantID
		ev.PlantID = &plantID
	}
	if actor.UserID != uuid.Nil {
		userID := actor.UserID
		ev.ActorID = &userID
	}

	if err := a.events.Append(dbc, ev); err != nil {
		return a.fail(action, err)
	}
	return nil
}

func (a *auditTrail) fail(action string, err error) error {
	if a.failClosed {
		return fmt.Errorf("audit write for %s: %w", action, err)
	}
	a.log.Error("audit write failed, keeping primary mutation", "action", action, "error", err)
	return nil
}
