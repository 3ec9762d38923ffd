package lab

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/foodmes-backend/internal/domain"
	"github.com/yungbote/foodmes-backend/internal/pkg/dbctx"
	"github.com/yungbote/foodmes-backend/internal/pkg/qerr"
	"github.com/yungbote/foodmes-backend/internal/platform/logger"
)

type SpecificationRepo interface {
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Specification, error)
	// ResolveForParameter finds the active rule for a parameter. Scoping is
	// strict: when productID is set only product-scoped rows match, never a
	// sample-type fallback for a different product's sample.
	ResolveForParameter(dbc dbctx.Context, orgID, parameterID uuid.UUID, productID, sampleTypeID *uuid.UUID) (*types.Specification, error)
	ListActiveForProduct(dbc dbctx.Context, orgID, productID uuid.UUID) ([]*types.Specification, error)
	ListActiveForSampleType(dbc dbctx.Context, orgID, sampleTypeID uuid.UUID) ([]*types.Specification, error)
}

type specificationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSpecificationRepo(db *gorm.DB, baseLog *logger.Logger) SpecificationRepo {
	return &specificationRepo{
		db:  db,
		log: baseLog.With("repo", "SpecificationRepo"),
	}
}

func (r *specificationRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Specification, error) {
	var s types.Specification
	err := dbc.Session(r.db).Where("id = ?", id).Limit(1).Find(&s).Error
	if err != nil {
		return nil, err
	}
	if s.ID == uuid.Nil {
		return nil, qerr.ErrNotFound
	}
	return &s, nil
}

func (r *specificationRepo) ResolveForParameter(dbc dbctx.Context, orgID, parameterID uuid.UUID, productID, sampleTypeID *uuid.UUID) (*types.Specification, error) {
	q := dbc.Session(r.db).
		Where("organization_id = ? AND parameter_id = ? AND status = ?", orgID, parameterID, "active")
	switch {
	case productID != nil:
		q = q.Where("product_id = ?", *productID)
	case sampleTypeID != nil:
		q = q.Where("product_id IS NULL AND sample_type_id = ?", *sampleTypeID)
	default:
		return nil, nil
	}
	var s types.Specification
	err := q.Order("version DESC").Limit(1).Find(&s).Error
	if err != nil {
		return nil, err
	}
	if s.ID == uuid.Nil {
		return nil, nil
	}
	return &s, nil
}

func (r *specificationRepo) ListActiveForProduct(dbc dbctx.Context, orgID, productID uuid.UUID) ([]*types.Specification, error) {
	var out []*types.Specification
	err := dbc.Session(r.db).
		Where("organization_id = ? AND product_id = ? AND status = ?", orgID, productID, "active").
		Order("version DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *specificationRepo) ListActiveForSampleType(dbc dbctx.Context, orgID, sampleTypeID uuid.UUID) ([]*types.Specification, error) {
	var out []*types.Specification
	err := dbc.Session(r.db).
		Where("organization_id = ? AND product_id IS NULL AND sample_type_id = ? AND status = ?", orgID, sampleTypeID, "active").
		Order("version DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
