package lab

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/foodmes-backend/internal/domain"
	"github.com/yungbote/foodmes-backend/internal/pkg/dbctx"
	"github.com/yungbote/foodmes-backend/internal/pkg/qerr"
	"github.com/yungbote/foodmes-backend/internal/platform/logger"
)

// SampleProgress is the per-sample completion tally used to decide when a
// sample is ready for review. Only live rows (is_valid) are counted.
type SampleProgress struct {
	Total     int
	Completed int
}

type AnalysisRepo interface {
	Create(dbc dbctx.Context, analyses []*types.Analysis) ([]*types.Analysis, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Analysis, error)
	ListBySample(dbc dbctx.Context, sampleID uuid.UUID, onlyValid bool) ([]*types.Analysis, error)
	ListBySampleIDs(dbc dbctx.Context, sampleIDs []uuid.UUID, onlyValid bool) ([]*types.Analysis, error)
	Progress(dbc dbctx.Context, sampleID uuid.UUID) (SampleProgress, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	UpdateStatusIf(dbc dbctx.Context, id uuid.UUID, from, to types.AnalysisStatus, extra map[string]interface{}) (bool, error)
}

type analysisRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAnalysisRepo(db *gorm.DB, baseLog *logger.Logger) AnalysisRepo {
	return &analysisRepo{
		db:  db,
		log: baseLog.With("repo", "AnalysisRepo"),
	}
}

func (r *analysisRepo) Create(dbc dbctx.Context, analyses []*types.Analysis) ([]*types.Analysis, error) {
	if len(analyses) == 0 {
		return []*types.Analysis{}, nil
	}
	if err := dbc.Session(r.db).Create(&analyses).Error; err != nil {
		return nil, err
	}
	return analyses, nil
}

func (r *analysisRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Analysis, error) {
	var a types.Analysis
	err := dbc.Session(r.db).Where("id = ?", id).Limit(1).Find(&a).Error
	if err != nil {
		return nil, err
	}
	if a.ID == uuid.Nil {
		return nil, qerr.ErrNotFound
	}
	return &a, nil
}

func (r *analysisRepo) ListBySample(dbc dbctx.Context, sampleID uuid.UUID, onlyValid bool) ([]*types.Analysis, error) {
	var out []*types.Analysis
	q := dbc.Session(r.db).Where("sample_id = ?", sampleID)
	if onlyValid {
		q = q.Where("is_valid = ?", true)
	}
	if err := q.Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *analysisRepo) ListBySampleIDs(dbc dbctx.Context, sampleIDs []uuid.UUID, onlyValid bool) ([]*types.Analysis, error) {
	var out []*types.Analysis
	if len(sampleIDs) == 0 {
		return out, nil
	}
	q := dbc.Session(r.db).Where("sample_id IN ?", sampleIDs)
	if onlyValid {
		q = q.Where("is_valid = ?", true)
	}
	if err := q.Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *analysisRepo) Progress(dbc dbctx.Context, sampleID uuid.UUID) (SampleProgress, error) {
	var p SampleProgress
	var total int64
	if err := dbc.Session(r.db).
		Model(&types.Analysis{}).
		Where("sample_id = ? AND is_valid = ?", sampleID, true).
		Count(&total).Error; err != nil {
		return p, err
	}
	var completed int64
	if err := dbc.Session(r.db).
		Model(&types.Analysis{}).
		Where("sample_id = ? AND is_valid = ? AND status IN ?", sampleID, true,
			[]types.AnalysisStatus{types.AnalysisCompleted, types.AnalysisReviewed, types.AnalysisValidated}).
		Count(&completed).Error; err != nil {
		return p, err
	}
	p.Total = int(total)
	p.Completed = int(completed)
	return p, nil
}

func (r *analysisRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = time.Now()
	return dbc.Session(r.db).
		Model(&types.Analysis{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *analysisRepo) UpdateStatusIf(dbc dbctx.Context, id uuid.UUID, from, to types.AnalysisStatus, extra map[string]interface{}) (bool, error) {
	updates := map[string]interface{}{
		"status":     to,
		"updated_at": time.Now(),
	}
	for k, v := range extra {
		updates[k] = v
	}
	res := dbc.Session(r.db).
		Model(&types.Analysis{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
