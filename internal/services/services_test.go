package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yungbote/foodmes-backend/internal/data/repos"
	"github.com/yungbote/foodmes-backend/internal/data/repos/testutil"
	types "github.com/yungbote/foodmes-backend/internal/domain"
	"github.com/yungbote/foodmes-backend/internal/platform/clock"
	"github.com/yungbote/foodmes-backend/internal/realtime/bus"
)

const testPIN = "1234"

// harness wires the full service stack against the shared test database
// with a pinned clock and a swallowed event bus.
type harness struct {
	db  *gorm.DB
	clk *clock.Fixed

	samples   repos.SampleRepo
	analyses  repos.AnalysisRepo
	batches   repos.BatchRepo
	ncs       repos.NonConformityRepo
	pccs      repos.PCCDeviationRepo
	reminders repos.SamplingReminderRepo

	signatures   SignatureService
	sampleSvc    SampleService
	analysisSvc  AnalysisService
	orchestrator SamplingOrchestrator
	gatekeeper   GatekeeperService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	clk := &clock.Fixed{T: time.Date(2026, time.March, 10, 9, 30, 0, 0, time.UTC)}

	sampleRepo := repos.NewSampleRepo(db, log)
	analysisRepo := repos.NewAnalysisRepo(db, log)
	specRepo := repos.NewSpecificationRepo(db, log)
	parameterRepo := repos.NewParameterRepo(db, log)
	sampleTypeRepo := repos.NewSampleTypeRepo(db, log)
	planRepo := repos.NewSamplingPlanRepo(db, log)
	reminderRepo := repos.NewSamplingReminderRepo(db, log)
	ncRepo := repos.NewNonConformityRepo(db, log)
	pccRepo := repos.NewPCCDeviationRepo(db, log)
	batchRepo := repos.NewBatchRepo(db, log)
	productRepo := repos.NewProductRepo(db, log)
	userRepo := repos.NewUserRepo(db, log)
	auditRepo := repos.NewAuditEventRepo(db, log)

	publisher := bus.NewNopPublisher()
	auditTrail := NewAuditTrail(log, auditRepo, clk, false)
	identitySvc := NewIdentityService(log, userRepo, "test-secret")
	signatureSvc := NewSignatureService(log, userRepo, identitySvc, time.Second)
	sampleSvc := NewSampleService(db, log, sampleRepo, analysisRepo, specRepo, parameterRepo,
		sampleTypeRepo, batchRepo, productRepo, signatureSvc, auditTrail, clk)
	ncSvc := NewNonConformityService(log, ncRepo, pccRepo, parameterRepo, auditTrail, publisher, clk)
	analysisSvc := NewAnalysisService(db, log, analysisRepo, sampleRepo, specRepo, parameterRepo,
		batchRepo, sampleSvc, ncSvc, signatureSvc, auditTrail, clk)
	orchestrator := NewSamplingOrchestrator(db, log, planRepo, reminderRepo, batchRepo,
		sampleSvc, auditTrail, clk)
	gatekeeper := NewGatekeeperService(db, log, batchRepo, sampleRepo, analysisRepo, ncRepo,
		pccRepo, reminderRepo, signatureSvc, auditTrail, publisher, clk)

	eng := Engine{
		Identity:        identitySvc,
		Signatures:      signatureSvc,
		Samples:         sampleSvc,
		Analyses:        analysisSvc,
		NonConformities: ncSvc,
		Orchestrator:    orchestrator,
		Gatekeeper:      gatekeeper,
	}

	return &harness{
		db:           db,
		clk:          clk,
		samples:      sampleRepo,
		analyses:     analysisRepo,
		batches:      batchRepo,
		ncs:          ncRepo,
		pccs:         pccRepo,
		reminders:    reminderRepo,
		signatures:   eng.Signatures,
		sampleSvc:    eng.Samples,
		analysisSvc:  eng.Analyses,
		orchestrator: eng.Orchestrator,
		gatekeeper:   eng.Gatekeeper,
	}
}

func pinHash(t *testing.T) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(testPIN), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash pin: %v", err)
	}
	return string(h)
}

func actorFor(user *types.UserProfile, plantID uuid.UUID) types.ActorScope {
	return types.ActorScope{
		OrganizationID: user.OrganizationID,
		PlantID:        plantID,
		UserID:         user.ID,
		Role:           user.Role,
	}
}
