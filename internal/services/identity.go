package services

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/yungbote/foodmes-backend/internal/data/repos"
	types "github.com/yungbote/foodmes-backend/internal/domain"
	"github.com/yungbote/foodmes-backend/internal/pkg/dbctx"
	"github.com/yungbote/foodmes-backend/internal/pkg/qerr"
	"github.com/yungbote/foodmes-backend/internal/platform/logger"
)

// IdentityService resolves the caller's tenant scope from a bearer token
// and performs the full credential re-authentication used as the signature
// fallback path.
type IdentityService interface {
	ParseActor(tokenString string) (types.ActorScope, error)
	// Authenticate re-verifies a user's primary password. Returns false on
	// mismatch, an error only for infrastructure failures.
	Authenticate(ctx context.Context, userID uuid.UUID, password string) (bool, error)
}

type identityService struct {
	log          *logger.Logger
	users        repos.UserRepo
	jwtSecretKey string
}

func NewIdentityService(log *logger.Logger, users repos.UserRepo, jwtSecretKey string) IdentityService {
	return &identityService{
		log:          log.With("service", "IdentityService"),
		users:        users,
		jwtSecretKey: jwtSecretKey,
	}
}

func (s *identityService) ParseActor(tokenString string) (types.ActorScope, error) {
	var scope types.ActorScope

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.jwtSecretKey), nil
	})
	if err != nil || !token.Valid {
		return scope, qerr.ErrAccessDenied
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return scope, qerr.ErrAccessDenied
	}

	userID, err := claimUUID(claims, "sub")
	if err != nil {
		return scope, qerr.ErrAccessDenied
	}
	orgID, err := claimUUID(claims, "org")
	if err != nil {
		return scope, qerr.ErrAccessDenied
	}
	// Plant is optional: org-level roles carry no plant claim.
	plantID, _ := claimUUID(claims, "plant")

	role, _ := claims["role"].(string)
	if role == "" {
		return scope, qerr.ErrAccessDenied
	}

	scope = types.ActorScope{
		OrganizationID: orgID,
		PlantID:        plantID,
		UserID:         userID,
		Role:           types.Role(role),
	}
	if cid, ok := claims["cid"].(string); ok {
		scope.CorrelationID = cid
	}
	return scope, nil
}

func (s *identityService) Authenticate(ctx context.Context, userID uuid.UUID, password string) (bool, error) {
	user, err := s.users.GetByID(dbctx.New(ctx), userID)
	if err != nil {
		return false, err
	}
	if user.PasswordHash == "" {
		return false, nil
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return false, nil
	}
	return true, nil
}

func claimUUID(claims jwt.MapClaims, key string) (uuid.UUID, error) {
	raw, ok := claims[key].(string)
	if !ok {
		return uuid.Nil, fmt.Errorf("missing claim %s", key)
	}
	return uuid.Parse(raw)
}
