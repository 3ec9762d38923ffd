package qerr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound signals a missing referenced entity.
	ErrNotFound = errors.New("not found")
	// ErrAccessDenied signals a role not authorized for the action.
	ErrAccessDenied = errors.New("access denied")
	// ErrInvalidSignature signals a failed electronic-signature credential check.
	ErrInvalidSignature = errors.New("invalid electronic signature")
)

// InvalidTransitionError is returned when a state-machine guard rejects a
// requested status change.
type InvalidTransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid %s transition from %s to %s", e.Entity, e.From, e.To)
}

// ImmutabilityViolationError is returned when a mutation targets a record
// locked by its lifecycle state (approved/rejected/released/archived).
type ImmutabilityViolationError struct {
	Entity string
	Status string
}

func (e *ImmutabilityViolationError) Error() string {
	return fmt.Sprintf("%s is locked in state %s and cannot be modified", e.Entity, e.Status)
}

// JustificationRequiredError is returned when a regulated write (OOS result,
// non-compliant approval, batch rejection) is attempted without a technical note.
type JustificationRequiredError struct {
	Subject string
}

func (e *JustificationRequiredError) Error() string {
	return fmt.Sprintf("justification required: %s", e.Subject)
}

// QualityBlockError carries the itemized compliance blockers found by the
// gatekeeper so callers can render them without string parsing.
type QualityBlockError struct {
	Blockers []string
}

func (e *QualityBlockError) Error() string {
	if len(e.Blockers) == 0 {
		return "quality block"
	}
	return "quality block: " + strings.Join(e.Blockers, "; ")
}

func IsQualityBlock(err error) (*QualityBlockError, bool) {
	var qb *QualityBlockError
	if errors.As(err, &qb) {
		return qb, true
	}
	return nil, false
}
