package lab

type AnalysisStatus string

const (
	AnalysisPending     AnalysisStatus = "pending"
	AnalysisStarted     AnalysisStatus = "started"
	AnalysisCompleted   AnalysisStatus = "completed"
	AnalysisReviewed    AnalysisStatus = "reviewed"
	AnalysisValidated   AnalysisStatus = "validated"
	AnalysisInvalidated AnalysisStatus = "invalidated"
)

// analysisTransitions mirrors the sample table at the single-result level.
// validated is terminal except for forced invalidation; invalidated can
// only restart the retest chain at pending.
var analysisTransitions = map[AnalysisStatus][]AnalysisStatus{
	AnalysisPending:     {AnalysisStarted, AnalysisInvalidated},
	AnalysisStarted:     {AnalysisCompleted, AnalysisPending, AnalysisInvalidated},
	AnalysisCompleted:   {AnalysisReviewed, AnalysisValidated, AnalysisInvalidated, AnalysisStarted},
	AnalysisReviewed:    {AnalysisValidated, AnalysisInvalidated, AnalysisCompleted},
	AnalysisValidated:   {AnalysisInvalidated},
	AnalysisInvalidated: {AnalysisPending},
}

func IsValidAnalysisTransition(from, to AnalysisStatus) bool {
	for _, allowed := range analysisTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func CanEditAnalysis(s AnalysisStatus) bool {
	switch s {
	case AnalysisPending, AnalysisStarted, AnalysisCompleted:
		return true
	default:
		return false
	}
}
