package quality

import (
	"time"

	"github.com/google/uuid"
)

// ComplianceCheck names one gatekeeper verification. Checks are computed,
// never persisted; the release decision snapshot embeds them instead.
type ComplianceCheck struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Blocker string `json:"blocker,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

// ComplianceCheckResult aggregates every release gate for a batch.
type ComplianceCheckResult struct {
	ProductionBatchID uuid.UUID         `json:"production_batch_id"`
	Compliant         bool              `json:"compliant"`
	Checks            []ComplianceCheck `json:"checks"`
	Blockers          []string          `json:"blockers,omitempty"`
	SampleCount       int               `json:"sample_count"`
	PendingSamples    int               `json:"pending_samples"`
	OOSResults        int               `json:"oos_results"`
	OpenNCCount       int               `json:"open_nc_count"`
	OpenDeviations    int               `json:"open_deviations"`
	CheckedAt         time.Time         `json:"checked_at"`
}
