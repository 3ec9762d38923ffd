package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/foodmes-backend/internal/data/repos/testutil"
	types "github.com/yungbote/foodmes-backend/internal/domain"
)

func TestSignatureVerifyWithEnrolledPIN(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	orgID := uuid.New()
	user := testutil.SeedUser(t, ctx, h.db, orgID, types.RoleQAManager, pinHash(t))

	ok, err := h.signatures.Verify(ctx, user.ID, testPIN)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !ok {
		t.Error("correct PIN must verify")
	}

	ok, err = h.signatures.Verify(ctx, user.ID, "wrong")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if ok {
		t.Error("wrong PIN must not verify")
	}
}

func TestSignatureVerifyEmptyAndUnknown(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if ok, err := h.signatures.Verify(ctx, uuid.New(), ""); err != nil || ok {
		t.Errorf("empty credential: got ok=%v err=%v, want false nil", ok, err)
	}
	if ok, err := h.signatures.Verify(ctx, uuid.New(), "anything"); err != nil || ok {
		t.Errorf("unknown user: got ok=%v err=%v, want false nil", ok, err)
	}
}

func TestGenerateHashIsDeterministicAndOrderSensitive(t *testing.T) {
	h := newHarness(t)
	entityID := uuid.New()
	sampleID := uuid.New()
	parameterID := uuid.New()
	userID := uuid.New()
	at := time.Date(2026, time.March, 10, 9, 30, 0, 0, time.UTC)

	a := h.signatures.GenerateHash("analysis", entityID, sampleID, parameterID, "4.5", userID, at)
	b := h.signatures.GenerateHash("analysis", entityID, sampleID, parameterID, "4.5", userID, at)
	if a != b {
		t.Error("same inputs must produce the same hash")
	}

	if c := h.signatures.GenerateHash("analysis", entityID, sampleID, parameterID, "4.6", userID, at); c == a {
		t.Error("different value must change the hash")
	}
	if d := h.signatures.GenerateHash("analysis", sampleID, entityID, parameterID, "4.5", userID, at); d == a {
		t.Error("swapped ids must change the hash")
	}
	if e := h.signatures.GenerateHash("analysis", entityID, sampleID, parameterID, "4.5", userID, at.Add(time.Nanosecond)); e == a {
		t.Error("different timestamp must change the hash")
	}
}
