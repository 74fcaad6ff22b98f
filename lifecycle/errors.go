package lifecycle

import (
	"errors"
	"fmt"

	"clearway-backend/models"
)

var (
	ErrJobNotFound     = errors.New("job not found")
	ErrQuoteLocked     = errors.New("quote is locked: client already approved")
	ErrPaymentRequired = errors.New("payment has not succeeded")
	ErrAlreadyInvoiced = errors.New("invoice already generated")
)

// TransitionDeniedError means the requested status change is not an edge in
// the transition graph, or a required context field is missing. No state is
// changed on denial.
type TransitionDeniedError struct {
	From   models.JobStatus
	To     models.JobStatus
	Reason string
}

func (e *TransitionDeniedError) Error() string {
	return fmt.Sprintf("transition %s -> %s denied: %s", e.From, e.To, e.Reason)
}

// GuardFailedError means a business precondition for an operation was unmet
// (crew missing, photos missing, payment incomplete).
type GuardFailedError struct {
	Operation string
	Reason    string
}

func (e *GuardFailedError) Error() string {
	return fmt.Sprintf("%s not allowed: %s", e.Operation, e.Reason)
}

// TerminalStateError means the job is in a state that accepts no further
// mutation; the only recovery is creating a new job.
type TerminalStateError struct {
	Status models.JobStatus
}

func (e *TerminalStateError) Error() string {
	return fmt.Sprintf("job is terminal (%s) and cannot be mutated", e.Status)
}

// InvalidStateError is thrown by the compliance report generator when the job
// has not reached a reportable lifecycle state.
type InvalidStateError struct {
	State models.LifecycleState
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("compliance report requires a completed job, got lifecycle state %q", e.State)
}

// MissingEvidenceError is thrown by the compliance report generator when the
// photographic evidence requirement is unmet.
type MissingEvidenceError struct {
	Missing string
}

func (e *MissingEvidenceError) Error() string {
	return fmt.Sprintf("missing evidence: %s", e.Missing)
}
