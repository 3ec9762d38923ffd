package quality

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/foodmes-backend/internal/domain"
	"github.com/yungbote/foodmes-backend/internal/pkg/dbctx"
	"github.com/yungbote/foodmes-backend/internal/pkg/qerr"
	"github.com/yungbote/foodmes-backend/internal/platform/logger"
)

type NonConformityRepo interface {
	Create(dbc dbctx.Context, nc *types.NonConformity) (*types.NonConformity, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.NonConformity, error)
	// GetBySourceAnalysis is the idempotency lookup for the automatic
	// trigger. nil, nil means no NC exists yet for that analysis.
	GetBySourceAnalysis(dbc dbctx.Context, analysisID uuid.UUID) (*types.NonConformity, error)
	CountOpenByBatch(dbc dbctx.Context, batchID uuid.UUID, severities []types.NCSeverity) (int64, error)
	// CountSince feeds the yearly sequence in NC numbers.
	CountSince(dbc dbctx.Context, orgID uuid.UUID, since time.Time) (int64, error)
	ListByBatch(dbc dbctx.Context, batchID uuid.UUID) ([]*types.NonConformity, error)
}

type nonConformityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewNonConformityRepo(db *gorm.DB, baseLog *logger.Logger) NonConformityRepo {
	return &nonConformityRepo{
		db:  db,
		log: baseLog.With("repo", "NonConformityRepo"),
	}
}

// Create inserts behind a savepoint so a unique-index conflict (number
// allocation race, duplicate source analysis) leaves an enclosing
// transaction usable for a retry.
func (r *nonConformityRepo) Create(dbc dbctx.Context, nc *types.NonConformity) (*types.NonConformity, error) {
	err := dbc.Session(r.db).Transaction(func(tx *gorm.DB) error {
		return tx.Create(nc).Error
	})
	if err != nil {
		return nil, err
	}
	return nc, nil
}

func (r *nonConformityRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.NonConformity, error) {
	var nc types.NonConformity
	err := dbc.Session(r.db).Where("id = ?", id).Limit(1).Find(&nc).Error
	if err != nil {
		return nil, err
	}
	if nc.ID == uuid.Nil {
		return nil, qerr.ErrNotFound
	}
	return &nc, nil
}

func (r *nonConformityRepo) GetBySourceAnalysis(dbc dbctx.Context, analysisID uuid.UUID) (*types.NonConformity, error) {
	var nc types.NonConformity
	err := dbc.Session(r.db).
		Where("source_analysis_id = ?", analysisID).
		Limit(1).
		Find(&nc).Error
	if err != nil {
		return nil, err
	}
	if nc.ID == uuid.Nil {
		return nil, nil
	}
	return &nc, nil
}

func (r *nonConformityRepo) CountOpenByBatch(dbc dbctx.Context, batchID uuid.UUID, severities []types.NCSeverity) (int64, error) {
	var n int64
	q := dbc.Session(r.db).
		Model(&types.NonConformity{}).
		Where("production_batch_id = ? AND status <> ?", batchID, types.NCClosed)
	if len(severities) > 0 {
		q = q.Where("severity IN ?", severities)
	}
	err := q.Count(&n).Error
	return n, err
}

func (r *nonConformityRepo) CountSince(dbc dbctx.Context, orgID uuid.UUID, since time.Time) (int64, error) {
	var n int64
	err := dbc.Session(r.db).
		Model(&types.NonConformity{}).
		Where("organization_id = ? AND created_at >= ?", orgID, since).
		Count(&n).Error
	return n, err
}

func (r *nonConformityRepo) ListByBatch(dbc dbctx.Context, batchID uuid.UUID) ([]*types.NonConformity, error) {
	var out []*types.NonConformity
	err := dbc.Session(r.db).
		Where("production_batch_id = ?", batchID).
		Order("created_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

type PCCDeviationRepo interface {
	Create(dbc dbctx.Context, d *types.PCCDeviation) (*types.PCCDeviation, error)
	CountOpenByBatch(dbc dbctx.Context, batchID uuid.UUID) (int64, error)
	ListByBatch(dbc dbctx.Context, batchID uuid.UUID) ([]*types.PCCDeviation, error)
}

type pccDeviationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPCCDeviationRepo(db *gorm.DB, baseLog *logger.Logger) PCCDeviationRepo {
	return &pccDeviationRepo{
		db:  db,
		log: baseLog.With("repo", "PCCDeviationRepo"),
	}
}

func (r *pccDeviationRepo) Create(dbc dbctx.Context, d *types.PCCDeviation) (*types.PCCDeviation, error) {
	if err := dbc.Session(r.db).Create(d).Error; err != nil {
		return nil, err
	}
	return d, nil
}

func (r *pccDeviationRepo) CountOpenByBatch(dbc dbctx.Context, batchID uuid.UUID) (int64, error) {
	var n int64
	err := dbc.Session(r.db).
		Model(&types.PCCDeviation{}).
		Where("production_batch_id = ? AND status = ?", batchID, types.PCCDeviationOpen).
		Count(&n).Error
	return n, err
}

func (r *pccDeviationRepo) ListByBatch(dbc dbctx.Context, batchID uuid.UUID) ([]*types.PCCDeviation, error) {
	var out []*types.PCCDeviation
	err := dbc.Session(r.db).
		Where("production_batch_id = ?", batchID).
		Order("created_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
