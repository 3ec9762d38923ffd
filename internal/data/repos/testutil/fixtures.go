package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/foodmes-backend/internal/domain"
)

func SeedProduct(tb testing.TB, ctx context.Context, tx *gorm.DB, orgID uuid.UUID) *types.Product {
	tb.Helper()
	p := &types.Product{
		ID:             uuid.New(),
		OrganizationID: orgID,
		SKU:            "SKU-" + uuid.NewString()[:8],
		Name:           "product",
		Status:         "active",
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed product: %v", err)
	}
	return p
}

func SeedBatch(tb testing.TB, ctx context.Context, tx *gorm.DB, orgID, plantID, productID uuid.UUID, status types.BatchStatus) *types.ProductionBatch {
	tb.Helper()
	b := &types.ProductionBatch{
		ID:             uuid.New(),
		OrganizationID: orgID,
		PlantID:        plantID,
		ProductID:      productID,
		BatchNumber:    "B-" + uuid.NewString()[:8],
		Status:         status,
	}
	if status != types.BatchPlanned {
		now := time.Now()
		b.StartedAt = &now
	}
	if err := tx.WithContext(ctx).Create(b).Error; err != nil {
		tb.Fatalf("seed batch: %v", err)
	}
	return b
}

func SeedSampleType(tb testing.TB, ctx context.Context, tx *gorm.DB, orgID uuid.UUID, category types.ParameterCategory) *types.SampleType {
	tb.Helper()
	st := &types.SampleType{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Code:           "ST-" + uuid.NewString()[:8],
		Name:           "sample type",
		TestCategory:   category,
	}
	if err := tx.WithContext(ctx).Create(st).Error; err != nil {
		tb.Fatalf("seed sample type: %v", err)
	}
	return st
}

func SeedSample(tb testing.TB, ctx context.Context, tx *gorm.DB, orgID, plantID, sampleTypeID uuid.UUID, batchID *uuid.UUID, status types.SampleStatus) *types.Sample {
	tb.Helper()
	s := &types.Sample{
		ID:                uuid.New(),
		OrganizationID:    orgID,
		PlantID:           plantID,
		SampleTypeID:      sampleTypeID,
		Code:              "S-" + uuid.NewString()[:8],
		Status:            status,
		Source:            types.SourceFinishedProduct,
		ProductionBatchID: batchID,
	}
	if batchID == nil {
		s.Source = types.SourceEnvironmental
		pt := uuid.New()
		s.SamplingPointID = &pt
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed sample: %v", err)
	}
	return s
}

func SeedParameter(tb testing.TB, ctx context.Context, tx *gorm.DB, orgID uuid.UUID, category types.ParameterCategory) *types.Parameter {
	tb.Helper()
	p := &types.Parameter{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Code:           "P-" + uuid.NewString()[:8],
		Name:           "parameter",
		Unit:           "pH",
		Category:       category,
		Status:         "active",
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed parameter: %v", err)
	}
	return p
}

func SeedSpecification(tb testing.TB, ctx context.Context, tx *gorm.DB, orgID, parameterID uuid.UUID, productID *uuid.UUID, min, max *float64) *types.Specification {
	tb.Helper()
	spec := &types.Specification{
		ID:             uuid.New(),
		OrganizationID: orgID,
		ProductID:      productID,
		ParameterID:    parameterID,
		MinValue:       min,
		MaxValue:       max,
		Version:        1,
		Status:         "active",
	}
	if err := tx.WithContext(ctx).Create(spec).Error; err != nil {
		tb.Fatalf("seed specification: %v", err)
	}
	return spec
}

func SeedAnalysis(tb testing.TB, ctx context.Context, tx *gorm.DB, orgID, plantID, sampleID, parameterID uuid.UUID, status types.AnalysisStatus) *types.Analysis {
	tb.Helper()
	a := &types.Analysis{
		ID:             uuid.New(),
		OrganizationID: orgID,
		PlantID:        plantID,
		SampleID:       sampleID,
		ParameterID:    parameterID,
		Status:         status,
		IsValid:        true,
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed analysis: %v", err)
	}
	return a
}

func SeedSamplingPlan(tb testing.TB, ctx context.Context, tx *gorm.DB, orgID, plantID, sampleTypeID uuid.UUID, productID *uuid.UUID, onStart bool, freqMinutes int) *types.SamplingPlan {
	tb.Helper()
	p := &types.SamplingPlan{
		ID:               uuid.New(),
		OrganizationID:   orgID,
		PlantID:          plantID,
		ProductID:        productID,
		SampleTypeID:     sampleTypeID,
		TriggerOnStart:   onStart,
		FrequencyMinutes: freqMinutes,
		IsActive:         true,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed sampling plan: %v", err)
	}
	return p
}

func SeedReminder(tb testing.TB, ctx context.Context, tx *gorm.DB, orgID, plantID, batchID, planID uuid.UUID, status types.ReminderStatus, dueAt time.Time) *types.SamplingReminder {
	tb.Helper()
	rem := &types.SamplingReminder{
		ID:                uuid.New(),
		OrganizationID:    orgID,
		PlantID:           plantID,
		ProductionBatchID: batchID,
		SamplingPlanID:    planID,
		Status:            status,
		NextSampleDueAt:   dueAt,
	}
	if err := tx.WithContext(ctx).Create(rem).Error; err != nil {
		tb.Fatalf("seed reminder: %v", err)
	}
	return rem
}

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, orgID uuid.UUID, role types.Role, pinHash string) *types.UserProfile {
	tb.Helper()
	u := &types.UserProfile{
		ID:               uuid.New(),
		OrganizationID:   orgID,
		Email:            uuid.NewString()[:8] + "@plant.test",
		FullName:         "Test Analyst",
		Role:             role,
		SignaturePINHash: pinHash,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}
