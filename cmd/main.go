package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/yungbote/foodmes-backend/internal/config"
	"github.com/yungbote/foodmes-backend/internal/data/repos"
	"github.com/yungbote/foodmes-backend/internal/db"
	"github.com/yungbote/foodmes-backend/internal/platform/clock"
	"github.com/yungbote/foodmes-backend/internal/platform/envutil"
	"github.com/yungbote/foodmes-backend/internal/platform/logger"
	"github.com/yungbote/foodmes-backend/internal/realtime/bus"
	"github.com/yungbote/foodmes-backend/internal/scheduler"
	"github.com/yungbote/foodmes-backend/internal/services"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Config
	cfg, err := config.Load(envutil.String("CONFIG_PATH", "config.yaml"))
	if err != nil {
		log.Fatal("config load failed", "error", err)
	}
	jwtSecretKey := envutil.String("JWT_SECRET_KEY", "")
	if jwtSecretKey == "" {
		log.Fatal("JWT_SECRET_KEY is required")
	}

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Fatal("postgres init failed", "error", err)
	}
	if err := postgresService.AutoMigrate(); err != nil {
		log.Fatal("postgres migration failed", "error", err)
	}
	pg := postgresService.DB()

	// Repos
	sampleRepo := repos.NewSampleRepo(pg, log)
	analysisRepo := repos.NewAnalysisRepo(pg, log)
	specRepo := repos.NewSpecificationRepo(pg, log)
	parameterRepo := repos.NewParameterRepo(pg, log)
	sampleTypeRepo := repos.NewSampleTypeRepo(pg, log)
	planRepo := repos.NewSamplingPlanRepo(pg, log)
	reminderRepo := repos.NewSamplingReminderRepo(pg, log)
	ncRepo := repos.NewNonConformityRepo(pg, log)
	pccRepo := repos.NewPCCDeviationRepo(pg, log)
	batchRepo := repos.NewBatchRepo(pg, log)
	productRepo := repos.NewProductRepo(pg, log)
	userRepo := repos.NewUserRepo(pg, log)
	auditRepo := repos.NewAuditEventRepo(pg, log)

	// Event bus
	var publisher bus.Publisher
	if cfg.Redis.Addr != "" {
		publisher = bus.NewRedisPublisher(log, cfg.Redis.Addr, cfg.Redis.Channel)
	} else {
		log.Warn("REDIS_ADDR not set, quality events will not be published")
		publisher = bus.NewNopPublisher()
	}
	defer publisher.Close()

	// Services
	clk := clock.System()
	auditTrail := services.NewAuditTrail(log, auditRepo, clk, cfg.Audit.FailClosed)
	identitySvc := services.NewIdentityService(log, userRepo, jwtSecretKey)
	signatureSvc := services.NewSignatureService(log, userRepo, identitySvc, cfg.Signature.ReauthTimeout)
	sampleSvc := services.NewSampleService(pg, log, sampleRepo, analysisRepo, specRepo, parameterRepo,
		sampleTypeRepo, batchRepo, productRepo, signatureSvc, auditTrail, clk)
	ncSvc := services.NewNonConformityService(log, ncRepo, pccRepo, parameterRepo, auditTrail, publisher, clk)
	eng := services.Engine{
		Identity:        identitySvc,
		Signatures:      signatureSvc,
		Samples:         sampleSvc,
		NonConformities: ncSvc,
		Analyses: services.NewAnalysisService(pg, log, analysisRepo, sampleRepo, specRepo, parameterRepo,
			batchRepo, sampleSvc, ncSvc, signatureSvc, auditTrail, clk),
		Orchestrator: services.NewSamplingOrchestrator(pg, log, planRepo, reminderRepo, batchRepo,
			sampleSvc, auditTrail, clk),
		Gatekeeper: services.NewGatekeeperService(pg, log, batchRepo, sampleRepo, analysisRepo, ncRepo, pccRepo,
			reminderRepo, signatureSvc, auditTrail, publisher, clk),
	}

	// Scheduler
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Heartbeat.Enabled {
		hb := scheduler.NewHeartbeatScheduler(log, batchRepo, eng.Orchestrator, cfg.Heartbeat.Interval)
		if err := hb.Start(ctx); err != nil {
			log.Fatal("heartbeat scheduler failed", "error", err)
		}
		defer hb.Stop()
	}

	log.Info("quality engine up")
	<-ctx.Done()
	log.Info("shutting down")
}
