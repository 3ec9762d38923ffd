package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/yungbote/foodmes-backend/internal/data/repos"
	"github.com/yungbote/foodmes-backend/internal/pkg/dbctx"
	"github.com/yungbote/foodmes-backend/internal/pkg/qerr"
	"github.com/yungbote/foodmes-backend/internal/platform/logger"
)

// SignatureService verifies electronic signatures and produces the
// deterministic digest stamped on signed records. The digest is tamper
// evidence, not a cryptographic non-repudiation primitive.
type SignatureService interface {
	// Verify checks the plaintext credential: first against the enrolled
	// signature PIN, then by full re-authentication when no PIN exists.
	// A mismatch returns false with a nil error.
	Verify(ctx context.Context, userID uuid.UUID, credential string) (bool, error)
	GenerateHash(entityType string, entityID, sampleID, parameterID uuid.UUID, value string, userID uuid.UUID, at time.Time) string
}

type signatureService struct {
	log           *logger.Logger
	users         repos.UserRepo
	identity      IdentityService
	reauthTimeout time.Duration
}

func NewSignatureService(log *logger.Logger, users repos.UserRepo, identity IdentityService, reauthTimeout time.Duration) SignatureService {
	return &signatureService{
		log:           log.With("service", "SignatureService"),
		users:         users,
		identity:      identity,
		reauthTimeout: reauthTimeout,
	}
}

func (s *signatureService) Verify(ctx context.Context, userID uuid.UUID, credential string) (bool, error) {
	if credential == "" {
		return false, nil
	}

	user, err := s.users.GetByID(dbctx.New(ctx), userID)
	if err != nil {
		if errors.Is(err, qerr.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	if user.SignaturePINHash != "" {
		if bcrypt.CompareHashAndPassword([]byte(user.SignaturePINHash), []byte(credential)) == nil {
			return true, nil
		}
		return false, nil
	}

	// No enrolled PIN: fall back to full re-authentication, bounded by the
	// configured timeout. On timeout the signature fails closed.
	reauthCtx, cancel := context.WithTimeout(ctx, s.reauthTimeout)
	defer cancel()
	ok, err := s.identity.Authenticate(reauthCtx, userID, credential)
	if err != nil {
		if reauthCtx.Err() != nil {
			s.log.Warn("signature re-authentication timed out", "user_id", userID)
			return false, nil
		}
		return false, err
	}
	return ok, nil
}

// GenerateHash binds signer, value and time into an order-sensitive digest.
// The canonical string carries a version prefix so the format can evolve
// without invalidating stored hashes.
func (s *signatureService) GenerateHash(entityType string, entityID, sampleID, parameterID uuid.UUID, value string, userID uuid.UUID, at time.Time) string {
	canonical := fmt.Sprintf("v1|%s|%s|%s|%s|%s|%s|%s",
		entityType, entityID, sampleID, parameterID, value, userID, at.UTC().Format(time.RFC3339Nano))
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}
