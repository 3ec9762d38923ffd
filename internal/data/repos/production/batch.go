package production

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/foodmes-backend/internal/domain"
	"github.com/yungbote/foodmes-backend/internal/pkg/dbctx"
	"github.com/yungbote/foodmes-backend/internal/pkg/qerr"
	"github.com/yungbote/foodmes-backend/internal/platform/logger"
)

type BatchRepo interface {
	Create(dbc dbctx.Context, b *types.ProductionBatch) (*types.ProductionBatch, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ProductionBatch, error)
	ListByStatus(dbc dbctx.Context, orgID uuid.UUID, statuses []types.BatchStatus) ([]*types.ProductionBatch, error)
	// ListRunning crosses tenants; only the scheduler uses it.
	ListRunning(dbc dbctx.Context) ([]*types.ProductionBatch, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	// UpdateStatusIf guards the terminal release/reject transitions against
	// concurrent decisions on the same batch.
	UpdateStatusIf(dbc dbctx.Context, id uuid.UUID, from, to types.BatchStatus, extra map[string]interface{}) (bool, error)
	// LatestEvent returns the newest shop-floor event, or nil for none.
	LatestEvent(dbc dbctx.Context, batchID uuid.UUID) (*types.ProductionEvent, error)
	AppendEvent(dbc dbctx.Context, ev *types.ProductionEvent) (*types.ProductionEvent, error)
}

type batchRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBatchRepo(db *gorm.DB, baseLog *logger.Logger) BatchRepo {
	return &batchRepo{
		db:  db,
		log: baseLog.With("repo", "BatchRepo"),
	}
}

func (r *batchRepo) Create(dbc dbctx.Context, b *types.ProductionBatch) (*types.ProductionBatch, error) {
	if err := dbc.Session(r.db).Create(b).Error; err != nil {
		return nil, err
	}
	return b, nil
}

func (r *batchRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ProductionBatch, error) {
	var b types.ProductionBatch
	err := dbc.Session(r.db).Where("id = ?", id).Limit(1).Find(&b).Error
	if err != nil {
		return nil, err
	}
	if b.ID == uuid.Nil {
		return nil, qerr.ErrNotFound
	}
	return &b, nil
}

func (r *batchRepo) ListByStatus(dbc dbctx.Context, orgID uuid.UUID, statuses []types.BatchStatus) ([]*types.ProductionBatch, error) {
	var out []*types.ProductionBatch
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

func (r *batchRepo) ListRunning(dbc dbctx.Context) ([]*types.ProductionBatch, error) {
	var out []*types.ProductionBatch
	err := dbc.Session(r.db).
		Where("status = ?", types.BatchInProgress).
		Order("created_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *batchRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = time.Now()
	return dbc.Session(r.db).
		Model(&types.ProductionBatch{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *batchRepo) UpdateStatusIf(dbc dbctx.Context, id uuid.UUID, from, to types.BatchStatus, extra map[string]interface{}) (bool, error) {
	updates := map[string]interface{}{
		"status":     to,
		"updated_at": time.Now(),
	}
	for k, v := range extra {
		updates[k] = v
	}
	res := dbc.Session(r.db).
		Model(&types.ProductionBatch{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *batchRepo) LatestEvent(dbc dbctx.Context, batchID uuid.UUID) (*types.ProductionEvent, error) {
	var ev types.ProductionEvent
	err := dbc.Session(r.db).
		Where("production_batch_id = ?", batchID).
		Order("occurred_at DESC").
		Limit(1).
		Find(&ev).Error
	if err != nil {
		return nil, err
	}
	if ev.ID == uuid.Nil {
		return nil, nil
	}
	return &ev, nil
}

func (r *batchRepo) AppendEvent(dbc dbctx.Context, ev *types.ProductionEvent) (*types.ProductionEvent, error) {
	if err := dbc.Session(r.db).Create(ev).Error; err != nil {
		return nil, err
	}
	return ev, nil
}

type ProductRepo interface {
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Product, error)
}

type productRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProductRepo(db *gorm.DB, baseLog *logger.Logger) ProductRepo {
	return &productRepo{
		db:  db,
		log: baseLog.With("repo", "ProductRepo"),
	}
}

func (r *productRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Product, error) {
	var p types.Product
	err := dbc.Session(r.db).Where("id = ?", id).Limit(1).Find(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == uuid.Nil {
		return nil, qerr.ErrNotFound
	}
	return &p, nil
}
