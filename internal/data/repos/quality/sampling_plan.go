package quality

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/foodmes-backend/internal/domain"
	"github.com/yungbote/foodmes-backend/internal/pkg/dbctx"
	"github.com/yungbote/foodmes-backend/internal/pkg/qerr"
	"github.com/yungbote/foodmes-backend/internal/platform/logger"
)

type SamplingPlanRepo interface {
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.SamplingPlan, error)
	// ListActiveOnStart returns plans anchored at batch start for the
	// product, including wildcard plans (product_id IS NULL).
	ListActiveOnStart(dbc dbctx.Context, orgID, productID uuid.UUID) ([]*types.SamplingPlan, error)
	ListActiveTimeBased(dbc dbctx.Context, orgID, productID uuid.UUID) ([]*types.SamplingPlan, error)
}

type samplingPlanRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSamplingPlanRepo(db *gorm.DB, baseLog *logger.Logger) SamplingPlanRepo {
	return &samplingPlanRepo{
		db:  db,
		log: baseLog.With("repo", "SamplingPlanRepo"),
	}
}

func (r *samplingPlanRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.SamplingPlan, error) {
	var p types.SamplingPlan
	err := dbc.Session(r.db).Where("id = ?", id).Limit(1).Find(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == uuid.Nil {
		return nil, qerr.ErrNotFound
	}
	return &p, nil
}

func (r *samplingPlanRepo) ListActiveOnStart(dbc dbctx.Context, orgID, productID uuid.UUID) ([]*types.SamplingPlan, error) {
	var out []*types.SamplingPlan
	err := dbc.Session(r.db).
		Where("organization_id = ? AND is_active = ? AND trigger_on_start = ?", orgID, true, true).
		Where("product_id = ? OR product_id IS NULL", productID).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *samplingPlanRepo) ListActiveTimeBased(dbc dbctx.Context, orgID, productID uuid.UUID) ([]*types.SamplingPlan, error) {
	var out []*types.SamplingPlan
	err := dbc.Session(r.db).
		Where("organization_id = ? AND is_active = ? AND frequency_minutes > 0", orgID, true).
		Where("product_id = ? OR product_id IS NULL", productID).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
