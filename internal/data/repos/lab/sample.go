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

type SampleRepo interface {
	Create(dbc dbctx.Context, samples []*types.Sample) ([]*types.Sample, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Sample, error)
	GetByCode(dbc dbctx.Context, orgID uuid.UUID, code string) (*types.Sample, error)
	ListByBatch(dbc dbctx.Context, batchID uuid.UUID) ([]*types.Sample, error)
	ListByStatus(dbc dbctx.Context, orgID uuid.UUID, statuses []types.SampleStatus) ([]*types.Sample, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	// UpdateStatusIf moves the sample from exactly `from` to `to` in one
	// conditional write. False means another writer got there first.
	UpdateStatusIf(dbc dbctx.Context, id uuid.UUID, from, to types.SampleStatus, extra map[string]interface{}) (bool, error)
	CountCreatedSince(dbc dbctx.Context, orgID uuid.UUID, since time.Time) (int64, error)
}

type sampleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSampleRepo(db *gorm.DB, baseLog *logger.Logger) SampleRepo {
	return &sampleRepo{
		db:  db,
		log: baseLog.With("repo", "SampleRepo"),
	}
}

func (r *sampleRepo) Create(dbc dbctx.Context, samples []*types.Sample) ([]*types.Sample, error) {
	if len(samples) == 0 {
		return []*types.Sample{}, nil
	}
	if err := dbc.Session(r.db).Create(&samples).Error; err != nil {
		return nil, err
	}
	return samples, nil
}

func (r *sampleRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Sample, error) {
	var s types.Sample
	err := dbc.Session(r.db).Where("id = ?", id).Limit(1).Find(&s).Error
	if err != nil {
		return nil, err
	}
	if s.ID == uuid.Nil {
		return nil, qerr.ErrNotFound
	}
	return &s, nil
}

func (r *sampleRepo) GetByCode(dbc dbctx.Context, orgID uuid.UUID, code string) (*types.Sample, error) {
	var s types.Sample
	err := dbc.Session(r.db).
		Where("organization_id = ? AND code = ?", orgID, code).
		Limit(1).
		Find(&s).Error
	if err != nil {
		return nil, err
	}
	if s.ID == uuid.Nil {
		return nil, qerr.ErrNotFound
	}
	return &s, nil
}

func (r *sampleRepo) ListByBatch(dbc dbctx.Context, batchID uuid.UUID) ([]*types.Sample, error) {
	var out []*types.Sample
	err := dbc.Session(r.db).
		Where("production_batch_id = ?", batchID).
		Order("created_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sampleRepo) ListByStatus(dbc dbctx.Context, orgID uuid.UUID, statuses []types.SampleStatus) ([]*types.Sample, error) {
	var out []*types.Sample
	if len(statuses) == 0 {
		return out, nil
	}
	err := dbc.Session(r.db).
		Where("organization_id = ? AND status IN ?", orgID, statuses).
		Order("created_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sampleRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = time.Now()
	return dbc.Session(r.db).
		Model(&types.Sample{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *sampleRepo) UpdateStatusIf(dbc dbctx.Context, id uuid.UUID, from, to types.SampleStatus, extra map[string]interface{}) (bool, error) {
	updates := map[string]interface{}{
		"status":     to,
		"updated_at": time.Now(),
	}
	for k, v := range extra {
		updates[k] = v
	}
	res := dbc.Session(r.db).
		Model(&types.Sample{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *sampleRepo) CountCreatedSince(dbc dbctx.Context, orgID uuid.UUID, since time.Time) (int64, error) {
	var n int64
	err := dbc.Session(r.db).
		Model(&types.Sample{}).
		Where("organization_id = ? AND created_at >= ?", orgID, since).
		Count(&n).Error
	return n, err
}
