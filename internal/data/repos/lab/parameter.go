package lab

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/foodmes-backend/internal/domain"
	"github.com/yungbote/foodmes-backend/internal/pkg/dbctx"
	"github.com/yungbote/foodmes-backend/internal/pkg/qerr"
	"github.com/yungbote/foodmes-backend/internal/platform/logger"
)

type ParameterRepo interface {
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Parameter, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Parameter, error)
}

type parameterRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewParameterRepo(db *gorm.DB, baseLog *logger.Logger) ParameterRepo {
	return &parameterRepo{
		db:  db,
		log: baseLog.With("repo", "ParameterRepo"),
	}
}

func (r *parameterRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Parameter, error) {
	var p types.Parameter
	err := dbc.Session(r.db).Where("id = ?", id).Limit(1).Find(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == uuid.Nil {
		return nil, qerr.ErrNotFound
	}
	return &p, nil
}

func (r *parameterRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Parameter, error) {
	var out []*types.Parameter
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbc.Session(r.db).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

type SampleTypeRepo interface {
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.SampleType, error)
}

type sampleTypeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSampleTypeRepo(db *gorm.DB, baseLog *logger.Logger) SampleTypeRepo {
	return &sampleTypeRepo{
		db:  db,
		log: baseLog.With("repo", "SampleTypeRepo"),
	}
}

func (r *sampleTypeRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.SampleType, error) {
	var st types.SampleType
	err := dbc.Session(r.db).Where("id = ?", id).Limit(1).Find(&st).Error
	if err != nil {
		return nil, err
	}
	if st.ID == uuid.Nil {
		return nil, qerr.ErrNotFound
	}
	return &st, nil
}
