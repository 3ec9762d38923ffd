package identity

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/foodmes-backend/internal/domain"
	"github.com/yungbote/foodmes-backend/internal/pkg/dbctx"
	"github.com/yungbote/foodmes-backend/internal/pkg/qerr"
	"github.com/yungbote/foodmes-backend/internal/platform/logger"
)

type UserRepo interface {
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.UserProfile, error)
	GetByEmail(dbc dbctx.Context, orgID uuid.UUID, email string) (*types.UserProfile, error)
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return &userRepo{
		db:  db,
		log: baseLog.With("repo", "UserRepo"),
	}
}

func (r *userRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.UserProfile, error) {
	var u types.UserProfile
	err := dbc.Session(r.db).Where("id = ?", id).Limit(1).Find(&u).Error
	if err != nil {
		return nil, err
	}
	if u.ID == uuid.Nil {
		return nil, qerr.ErrNotFound
	}
	return &u, nil
}

func (r *userRepo) GetByEmail(dbc dbctx.Context, orgID uuid.UUID, email string) (*types.UserProfile, error) {
	var u types.UserProfile
	err := dbc.Session(r.db).
		Where("organization_id = ? AND email = ?", orgID, email).
		Limit(1).
		Find(&u).Error
	if err != nil {
		return nil, err
	}
	if u.ID == uuid.Nil {
		return nil, qerr.ErrNotFound
	}
	return &u, nil
}
