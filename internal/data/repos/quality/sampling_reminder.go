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

type SamplingReminderRepo interface {
	Create(dbc dbctx.Context, reminders []*types.SamplingReminder) ([]*types.SamplingReminder, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.SamplingReminder, error)
	// ListDue returns pending reminders whose due time has passed.
	ListDue(dbc dbctx.Context, orgID uuid.UUID, now time.Time) ([]*types.SamplingReminder, error)
	HasForPlan(dbc dbctx.Context, batchID, planID uuid.UUID) (bool, error)
	// Claim moves a reminder pending -> processing. Exactly one caller wins;
	// everyone else gets false and must not create a sample.
	Claim(dbc dbctx.Context, id uuid.UUID) (bool, error)
	// Complete closes the claimed reminder and stamps the sample it produced.
	Complete(dbc dbctx.Context, id, sampleID uuid.UUID, sampledAt time.Time) (bool, error)
	// Reopen returns a claimed reminder to pending after a failed attempt.
	Reopen(dbc dbctx.Context, id uuid.UUID) (bool, error)
	CompleteAllForBatch(dbc dbctx.Context, batchID uuid.UUID) error
}

type samplingReminderRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSamplingReminderRepo(db *gorm.DB, baseLog *logger.Logger) SamplingReminderRepo {
	return &samplingReminderRepo{
		db:  db,
		log: baseLog.With("repo", "SamplingReminderRepo"),
	}
}

func (r *samplingReminderRepo) Create(dbc dbctx.Context, reminders []*types.SamplingReminder) ([]*types.SamplingReminder, error) {
	if len(reminders) == 0 {
		return []*types.SamplingReminder{}, nil
	}
	if err := dbc.Session(r.db).Create(&reminders).Error; err != nil {
		return nil, err
	}
	return reminders, nil
}

func (r *samplingReminderRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.SamplingReminder, error) {
	var rem types.SamplingReminder
	err := dbc.Session(r.db).Where("id = ?", id).Limit(1).Find(&rem).Error
	if err != nil {
		return nil, err
	}
	if rem.ID == uuid.Nil {
		return nil, qerr.ErrNotFound
	}
	return &rem, nil
}

func (r *samplingReminderRepo) ListDue(dbc dbctx.Context, orgID uuid.UUID, now time.Time) ([]*types.SamplingReminder, error) {
	var out []*types.SamplingReminder
	err := dbc.Session(r.db).
		Where("organization_id = ? AND status = ? AND next_sample_due_at <= ?", orgID, types.ReminderPending, now).
		Order("next_sample_due_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *samplingReminderRepo) HasForPlan(dbc dbctx.Context, batchID, planID uuid.UUID) (bool, error) {
	var n int64
	err := dbc.Session(r.db).
		Model(&types.SamplingReminder{}).
		Where("production_batch_id = ? AND sampling_plan_id = ? AND status IN ?",
			batchID, planID, []types.ReminderStatus{types.ReminderPending, types.ReminderProcessing}).
		Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *samplingReminderRepo) Claim(dbc dbctx.Context, id uuid.UUID) (bool, error) {
	res := dbc.Session(r.db).
		Model(&types.SamplingReminder{}).
		Where("id = ? AND status = ?", id, types.ReminderPending).
		Updates(map[string]interface{}{
			"status":     types.ReminderProcessing,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *samplingReminderRepo) Complete(dbc dbctx.Context, id, sampleID uuid.UUID, sampledAt time.Time) (bool, error) {
	res := dbc.Session(r.db).
		Model(&types.SamplingReminder{}).
		Where("id = ? AND status = ?", id, types.ReminderProcessing).
		Updates(map[string]interface{}{
			"status":         types.ReminderCompleted,
			"last_sample_id": sampleID,
			"last_sample_at": sampledAt,
			"updated_at":     time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *samplingReminderRepo) Reopen(dbc dbctx.Context, id uuid.UUID) (bool, error) {
	res := dbc.Session(r.db).
		Model(&types.SamplingReminder{}).
		Where("id = ? AND status = ?", id, types.ReminderProcessing).
		Updates(map[string]interface{}{
			"status":     types.ReminderPending,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *samplingReminderRepo) CompleteAllForBatch(dbc dbctx.Context, batchID uuid.UUID) error {
	return dbc.Session(r.db).
		Model(&types.SamplingReminder{}).
		Where("production_batch_id = ? AND status IN ?",
			batchID, []types.ReminderStatus{types.ReminderPending, types.ReminderProcessing}).
		Updates(map[string]interface{}{
			"status":     types.ReminderCompleted,
			"updated_at": time.Now(),
		}).Error
}
