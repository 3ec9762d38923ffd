package services

import (
	types "github.com/yungbote/foodmes-backend/internal/domain"
)

// Evaluation is the verdict of comparing one measured value to its
// specification.
type Evaluation struct {
	IsConforming bool
	// Deviation is value - target when a numeric target exists.
	Deviation *float64
	Message   string
}

// EvaluateNumeric compares a numeric measurement against the rule. The max
// check runs after the min check so a value violating both reports the
// worst-case "above maximum" message.
func EvaluateNumeric(value float64, spec *types.Specification) Evaluation {
	ev := Evaluation{IsConforming: true}
	if spec == nil {
		return ev
	}
	if spec.MinValue != nil && value < *spec.MinValue {
		ev.IsConforming = false
		ev.Message = "below minimum"
	}
	if spec.MaxValue != nil && value > *spec.MaxValue {
		ev.IsConforming = false
		ev.Message = "above maximum"
	}
	if spec.TargetValue != nil {
		d := value - *spec.TargetValue
		ev.Deviation = &d
	}
	return ev
}

// EvaluateText compares a textual measurement. With no textual target the
// value is conforming by default.
func EvaluateText(value string, spec *types.Specification) Evaluation {
	ev := Evaluation{IsConforming: true}
	if spec == nil || spec.TargetText == nil {
		return ev
	}
	if value != *spec.TargetText {
		ev.IsConforming = false
		ev.Message = "does not match target"
	}
	return ev
}
