package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/foodmes-backend/internal/data/repos/audit"
	"github.com/yungbote/foodmes-backend/internal/data/repos/identity"
	"github.com/yungbote/foodmes-backend/internal/data/repos/lab"
	"github.com/yungbote/foodmes-backend/internal/data/repos/production"
	"github.com/yungbote/foodmes-backend/internal/data/repos/quality"
	"github.com/yungbote/foodmes-backend/internal/platform/logger"
)

type SampleRepo = lab.SampleRepo
type AnalysisRepo = lab.AnalysisRepo
type SampleProgress = lab.SampleProgress
type SpecificationRepo = lab.SpecificationRepo
type ParameterRepo = lab.ParameterRepo
type SampleTypeRepo = lab.SampleTypeRepo

type SamplingPlanRepo = quality.SamplingPlanRepo
type SamplingReminderRepo = quality.SamplingReminderRepo
type NonConformityRepo = quality.NonConformityRepo
type PCCDeviationRepo = quality.PCCDeviationRepo

type BatchRepo = production.BatchRepo
type ProductRepo = production.ProductRepo

type UserRepo = identity.UserRepo

type AuditEventRepo = audit.AuditEventRepo

func NewSampleRepo(db *gorm.DB, baseLog *logger.Logger) SampleRepo {
	return lab.NewSampleRepo(db, baseLog)
}
func NewAnalysisRepo(db *gorm.DB, baseLog *logger.Logger) AnalysisRepo {
	return lab.NewAnalysisRepo(db, baseLog)
}
func NewSpecificationRepo(db *gorm.DB, baseLog *logger.Logger) SpecificationRepo {
	return lab.NewSpecificationRepo(db, baseLog)
}
func NewParameterRepo(db *gorm.DB, baseLog *logger.Logger) ParameterRepo {
	return lab.NewParameterRepo(db, baseLog)
}
func NewSampleTypeRepo(db *gorm.DB, baseLog *logger.Logger) SampleTypeRepo {
	return lab.NewSampleTypeRepo(db, baseLog)
}

func NewSamplingPlanRepo(db *gorm.DB, baseLog *logger.Logger) SamplingPlanRepo {
	return quality.NewSamplingPlanRepo(db, baseLog)
}
func NewSamplingReminderRepo(db *gorm.DB, baseLog *logger.Logger) SamplingReminderRepo {
	return quality.NewSamplingReminderRepo(db, baseLog)
}
func NewNonConformityRepo(db *gorm.DB, baseLog *logger.Logger) NonConformityRepo {
	return quality.NewNonConformityRepo(db, baseLog)
}
func NewPCCDeviationRepo(db *gorm.DB, baseLog *logger.Logger) PCCDeviationRepo {
	return quality.NewPCCDeviationRepo(db, baseLog)
}

func NewBatchRepo(db *gorm.DB, baseLog *logger.Logger) BatchRepo {
	return production.NewBatchRepo(db, baseLog)
}
func NewProductRepo(db *gorm.DB, baseLog *logger.Logger) ProductRepo {
	return production.NewProductRepo(db, baseLog)
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return identity.NewUserRepo(db, baseLog)
}

func NewAuditEventRepo(db *gorm.DB, baseLog *logger.Logger) AuditEventRepo {
	return audit.NewAuditEventRepo(db, baseLog)
}
