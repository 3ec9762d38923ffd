package quality

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/foodmes-backend/internal/data/repos/testutil"
	types "github.com/yungbote/foodmes-backend/internal/domain"
	"github.com/yungbote/foodmes-backend/internal/pkg/dbctx"
)

func TestReminderClaimLifecycle(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	repo := NewSamplingReminderRepo(db, log)

	ctx := context.Background()
	dbc := dbctx.New(ctx)
	orgID := uuid.New()
	plantID := uuid.New()
	batchID := uuid.New()
	planID := uuid.New()
	now := time.Now().UTC()

	rem := testutil.SeedReminder(t, ctx, db, orgID, plantID, batchID, planID, types.ReminderPending, now.Add(-time.Minute))

	ok, err := repo.Claim(dbc, rem.ID)
	if err != nil || !ok {
		t.Fatalf("claim pending: ok=%v err=%v, want true nil", ok, err)
	}
	ok, err = repo.Claim(dbc, rem.ID)
	if err != nil {
		t.Fatalf("second claim: %v", err)
	}
	if ok {
		t.Error("claiming a processing reminder must fail")
	}

	sampleID := uuid.New()
	ok, err = repo.Complete(dbc, rem.ID, sampleID, now)
	if err != nil || !ok {
		t.Fatalf("complete claimed: ok=%v err=%v, want true nil", ok, err)
	}
	ok, err = repo.Complete(dbc, rem.ID, sampleID, now)
	if err != nil {
		t.Fatalf("second complete: %v", err)
	}
	if ok {
		t.Error("completing a completed reminder must fail")
	}

	got, err := repo.GetByID(dbc, rem.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Status != types.ReminderCompleted {
		t.Errorf("status = %s, want completed", got.Status)
	}
	if got.LastSampleID == nil || *got.LastSampleID != sampleID {
		t.Error("completion must stamp the produced sample")
	}
}

func TestReminderReopenReturnsToPending(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	repo := NewSamplingReminderRepo(db, log)

	ctx := context.Background()
	dbc := dbctx.New(ctx)
	rem := testutil.SeedReminder(t, ctx, db, uuid.New(), uuid.New(), uuid.New(), uuid.New(),
		types.ReminderProcessing, time.Now().UTC())

	ok, err := repo.Reopen(dbc, rem.ID)
	if err != nil || !ok {
		t.Fatalf("reopen: ok=%v err=%v, want true nil", ok, err)
	}
	got, err := repo.GetByID(dbc, rem.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Status != types.ReminderPending {
		t.Errorf("status = %s, want pending", got.Status)
	}
}

func TestReminderListDue(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	repo := NewSamplingReminderRepo(db, log)

	ctx := context.Background()
	dbc := dbctx.New(ctx)
	orgID := uuid.New()
	plantID := uuid.New()
	batchID := uuid.New()
	now := time.Now().UTC()

	due := testutil.SeedReminder(t, ctx, db, orgID, plantID, batchID, uuid.New(), types.ReminderPending, now.Add(-time.Hour))
	testutil.SeedReminder(t, ctx, db, orgID, plantID, batchID, uuid.New(), types.ReminderPending, now.Add(time.Hour))
	testutil.SeedReminder(t, ctx, db, orgID, plantID, batchID, uuid.New(), types.ReminderCompleted, now.Add(-time.Hour))

	got, err := repo.ListDue(dbc, orgID, now)
	if err != nil {
		t.Fatalf("list due: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("due reminders = %d, want 1", len(got))
	}
	if got[0].ID != due.ID {
		t.Error("wrong reminder returned")
	}
}
