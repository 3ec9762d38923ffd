package domain

import (
	"github.com/yungbote/foodmes-backend/internal/domain/audit"
	"github.com/yungbote/foodmes-backend/internal/domain/identity"
	"github.com/yungbote/foodmes-backend/internal/domain/lab"
	"github.com/yungbote/foodmes-backend/internal/domain/production"
	"github.com/yungbote/foodmes-backend/internal/domain/quality"
)

// Identity.
type (
	Role        = identity.Role
	ActorScope  = identity.Context
	UserProfile = identity.UserProfile
)

const (
	RoleSystemOwner  = identity.RoleSystemOwner
	RoleAdmin        = identity.RoleAdmin
	RoleQAManager    = identity.RoleQAManager
	RoleQCSupervisor = identity.RoleQCSupervisor
	RoleLabAnalyst   = identity.RoleLabAnalyst
	RoleMicroAnalyst = identity.RoleMicroAnalyst
	RoleOperator     = identity.RoleOperator
	RoleSystem       = identity.RoleSystem
)

// Lab.
type (
	Sample            = lab.Sample
	SampleType        = lab.SampleType
	SampleStatus      = lab.SampleStatus
	SampleSource      = lab.SampleSource
	Analysis          = lab.Analysis
	AnalysisStatus    = lab.AnalysisStatus
	Parameter         = lab.Parameter
	ParameterCategory = lab.ParameterCategory
	Specification     = lab.Specification
)

const (
	SampleDraft       = lab.SampleDraft
	SampleRegistered  = lab.SampleRegistered
	SampleCollected   = lab.SampleCollected
	SampleInAnalysis  = lab.SampleInAnalysis
	SampleUnderReview = lab.SampleUnderReview
	SampleApproved    = lab.SampleApproved
	SampleRejected    = lab.SampleRejected
	SampleReleased    = lab.SampleReleased
	SampleArchived    = lab.SampleArchived

	SourceFinishedProduct = lab.SourceFinishedProduct
	SourceIntermediate    = lab.SourceIntermediate
	SourceEnvironmental   = lab.SourceEnvironmental

	AnalysisPending     = lab.AnalysisPending
	AnalysisStarted     = lab.AnalysisStarted
	AnalysisCompleted   = lab.AnalysisCompleted
	AnalysisReviewed    = lab.AnalysisReviewed
	AnalysisValidated   = lab.AnalysisValidated
	AnalysisInvalidated = lab.AnalysisInvalidated

	CategoryPhysicoChemical = lab.CategoryPhysicoChemical
	CategoryMicrobiological = lab.CategoryMicrobiological
	CategorySensory         = lab.CategorySensory
)

// Quality.
type (
	SamplingPlan          = quality.SamplingPlan
	SamplingReminder      = quality.SamplingReminder
	ReminderStatus        = quality.ReminderStatus
	NonConformity         = quality.NonConformity
	NCSeverity            = quality.NCSeverity
	NCStatus              = quality.NCStatus
	PCCDeviation          = quality.PCCDeviation
	PCCDeviationStatus    = quality.PCCDeviationStatus
	ComplianceCheck       = quality.ComplianceCheck
	ComplianceCheckResult = quality.ComplianceCheckResult
)

const (
	ReminderPending    = quality.ReminderPending
	ReminderProcessing = quality.ReminderProcessing
	ReminderCompleted  = quality.ReminderCompleted

	SeverityCritical = quality.SeverityCritical
	SeverityMajor    = quality.SeverityMajor
	SeverityMinor    = quality.SeverityMinor

	NCOpen       = quality.NCOpen
	NCInProgress = quality.NCInProgress
	NCClosed     = quality.NCClosed

	PCCDeviationOpen     = quality.PCCDeviationOpen
	PCCDeviationResolved = quality.PCCDeviationResolved
)

// Production.
type (
	ProductionBatch = production.ProductionBatch
	BatchStatus     = production.BatchStatus
	ProductionEvent = production.ProductionEvent
	EventType       = production.EventType
	Product         = production.Product
)

const (
	BatchPlanned    = production.BatchPlanned
	BatchInProgress = production.BatchInProgress
	BatchCompleted  = production.BatchCompleted
	BatchRetained   = production.BatchRetained
	BatchReleased   = production.BatchReleased
	BatchRejected   = production.BatchRejected

	EventStart       = production.EventStart
	EventStop        = production.EventStop
	EventBreakdown   = production.EventBreakdown
	EventMaintenance = production.EventMaintenance
	EventResume      = production.EventResume
)

// Audit.
type AuditEvent = audit.AuditEvent
