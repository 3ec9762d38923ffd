package lab

type SampleStatus string

const (
	SampleDraft       SampleStatus = "draft"
	SampleRegistered  SampleStatus = "registered"
	SampleCollected   SampleStatus = "collected"
	SampleInAnalysis  SampleStatus = "in_analysis"
	SampleUnderReview SampleStatus = "under_review"
	SampleApproved    SampleStatus = "approved"
	SampleRejected    SampleStatus = "rejected"
	SampleReleased    SampleStatus = "released"
	SampleArchived    SampleStatus = "archived"
)

// sampleTransitions is the legal lifecycle of a physical sample. A status
// absent from the map (or with an empty list) is terminal.
var sampleTransitions = map[SampleStatus][]SampleStatus{
	SampleDraft:       {SampleRegistered},
	SampleRegistered:  {SampleCollected, SampleDraft},
	SampleCollected:   {SampleInAnalysis, SampleRegistered},
	SampleInAnalysis:  {SampleUnderReview, SampleCollected},
	SampleUnderReview: {SampleApproved, SampleRejected, SampleInAnalysis},
	SampleApproved:    {SampleReleased, SampleUnderReview, SampleRejected},
	SampleRejected:    {SampleInAnalysis, SampleUnderReview},
	SampleReleased:    {SampleArchived},
	SampleArchived:    {},
}

func IsValidSampleTransition(from, to SampleStatus) bool {
	for _, allowed := range sampleTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// CanEditResults reports whether analytical results may still be recorded
// against a sample in the given state.
func CanEditResults(s SampleStatus) bool {
	switch s {
	case SampleCollected, SampleInAnalysis, SampleUnderReview:
		return true
	default:
		return false
	}
}

// IsSampleLocked reports whether the sample has reached a decision state.
// Locked samples are immutable except through the retest pathway.
func IsSampleLocked(s SampleStatus) bool {
	switch s {
	case SampleApproved, SampleRejected, SampleReleased, SampleArchived:
		return true
	default:
		return false
	}
}

func IsReadyForReview(completed, total int) bool {
	return total > 0 && completed == total
}

// IsCompliant reports whether every live result passed. An unknown verdict
// (nil) is not compliant; retired rows (is_valid=false) are ignored.
func IsCompliant(analyses []*Analysis) bool {
	for _, a := range analyses {
		if a == nil || !a.IsValid {
			continue
		}
		if a.IsConforming == nil || !*a.IsConforming {
			return false
		}
	}
	return true
}
