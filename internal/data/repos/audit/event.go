package audit

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/foodmes-backend/internal/domain"
	"github.com/yungbote/foodmes-backend/internal/pkg/dbctx"
	"github.com/yungbote/foodmes-backend/internal/platform/logger"
)

// AuditEventRepo only appends. There is deliberately no update or delete.
type AuditEventRepo interface {
	Append(dbc dbctx.Context, ev *types.AuditEvent) error
	ListByEntity(dbc dbctx.Context, entityType string, entityID uuid.UUID) ([]*types.AuditEvent, error)
	ListByCorrelation(dbc dbctx.Context, correlationID string) ([]*types.AuditEvent, error)
}

type auditEventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAuditEventRepo(db *gorm.DB, baseLog *logger.Logger) AuditEventRepo {
	return &auditEventRepo{
		db:  db,
		log: baseLog.With("repo", "AuditEventRepo"),
	}
}

func (r *auditEventRepo) Append(dbc dbctx.Context, ev *types.AuditEvent) error {
	return dbc.Session(r.db).Create(ev).Error
}

func (r *auditEventRepo) ListByEntity(dbc dbctx.Context, entityType string, entityID uuid.UUID) ([]*types.AuditEvent, error) {
	var out []*types.AuditEvent
	err := dbc.Session(r.db).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("occurred_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *auditEventRepo) ListByCorrelation(dbc dbctx.Context, correlationID string) ([]*types.AuditEvent, error) {
	var out []*types.AuditEvent
	err := dbc.Session(r.db).
		Where("correlation_id = ?", correlationID).
		Order("occurred_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
