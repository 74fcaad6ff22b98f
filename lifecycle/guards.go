package lifecycle

import (
	"fmt"

	"clearway-backend/models"
)

// GuardResult is the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
}

// Err converts the guard result to a typed error when not allowed.
func (r GuardResult) Err(operation string) error {
	if r.Allowed {
		return nil
	}
	return &GuardFailedError{Operation: operation, Reason: r.Reason}
}

// Guards are pure precondition checks, independent from the strict status
// graph but consistent with it. The store evaluates the relevant guard
// before applying the corresponding mutation.
type Guards struct{}

func NewGuards() *Guards {
	return &Guards{}
}

// CanDispatch requires an accepted quote with the deposit paid, and a crew
// already assigned.
func (g *Guards) CanDispatch(job *models.Job) GuardResult {
	if job.FinalQuote == nil || !job.FinalQuote.Locked {
		return GuardResult{Allowed: false, Reason: "quote has not been accepted"}
	}
	if !job.DepositPaid() {
		return GuardResult{Allowed: false, Reason: "deposit has not been paid"}
	}
	if len(job.CrewIDs) == 0 {
		return GuardResult{Allowed: false, Reason: "no crew assigned"}
	}
	return GuardResult{Allowed: true}
}

// CanStart requires the crew to be dispatched; a job already in progress
// passes so the check is idempotent.
func (g *Guards) CanStart(job *models.Job) GuardResult {
	if job.Status == models.JobStatusDispatched || job.Status == models.JobStatusInProgress {
		return GuardResult{Allowed: true}
	}
	return GuardResult{Allowed: false, Reason: fmt.Sprintf("crew has not been dispatched (status %s)", job.Status)}
}

// CanComplete requires the job to be currently in progress.
func (g *Guards) CanComplete(job *models.Job) GuardResult {
	if job.Status != models.JobStatusInProgress {
		return GuardResult{Allowed: false, Reason: fmt.Sprintf("job is not in progress (status %s)", job.Status)}
	}
	return GuardResult{Allowed: true}
}

// CanVerify requires the work to be completed and awaiting admin review.
func (g *Guards) CanVerify(job *models.Job) GuardResult {
	if job.Status != models.JobStatusWorkCompleted {
		return GuardResult{Allowed: false, Reason: fmt.Sprintf("job is not awaiting verification (status %s)", job.Status)}
	}
	return GuardResult{Allowed: true}
}

// CanInvoice requires a completed lifecycle with the deposit paid.
func (g *Guards) CanInvoice(job *models.Job) GuardResult {
	if job.LifecycleState != models.LifecycleCompleted && job.LifecycleState != models.LifecycleInvoiced {
		return GuardResult{Allowed: false, Reason: fmt.Sprintf("job lifecycle is not completed (state %s)", job.LifecycleState)}
	}
	if !job.DepositPaid() {
		return GuardResult{Allowed: false, Reason: "deposit has not been paid"}
	}
	return GuardResult{Allowed: true}
}
