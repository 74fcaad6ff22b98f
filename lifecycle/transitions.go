// Package lifecycle contains the pure business rules for the clearance job
// workflow: the status transition graph, operation guards, SLA arithmetic,
// the role capability table and the compliance report generator. Nothing in
// this package mutates a job or touches I/O.
package lifecycle

import (
	"fmt"
	"strings"

	"clearway-backend/models"
)

// validTransitions lists every allowed (from -> to) pair. Cancelled and
// refunded are terminal.
var validTransitions = map[models.JobStatus][]models.JobStatus{
	models.JobStatusBookingRequest:      {models.JobStatusAdminQuoted, models.JobStatusCancelled},
	models.JobStatusAdminQuoted:         {models.JobStatusClientApproved, models.JobStatusQuoteRejected, models.JobStatusCancelled},
	models.JobStatusQuoteRejected:       {models.JobStatusAdminQuoted, models.JobStatusCancelled},
	models.JobStatusClientApproved:      {models.JobStatusPaymentPending, models.JobStatusCancelled},
	models.JobStatusPaymentPending:      {models.JobStatusBookingConfirmed, models.JobStatusCancelled},
	models.JobStatusBookingConfirmed:    {models.JobStatusCrewAssigned, models.JobStatusCancelled},
	models.JobStatusCrewAssigned:        {models.JobStatusDispatched, models.JobStatusInProgress, models.JobStatusCancelled},
	models.JobStatusDispatched:          {models.JobStatusInProgress, models.JobStatusCancelled},
	models.JobStatusInProgress:          {models.JobStatusWorkCompleted, models.JobStatusCancelled},
	models.JobStatusWorkCompleted:       {models.JobStatusAdminVerified, models.JobStatusAdminRejected},
	models.JobStatusAdminVerified:       {models.JobStatusFinalPaymentPending, models.JobStatusCompleted},
	models.JobStatusFinalPaymentPending: {models.JobStatusCompleted, models.JobStatusCancelled},
	models.JobStatusCompleted:           {models.JobStatusRefunded},
	models.JobStatusAdminRejected:       {models.JobStatusInProgress, models.JobStatusCancelled},
	models.JobStatusCancelled:           {},
	models.JobStatusRefunded:            {},
}

// ParseStatus converts a raw string to a JobStatus, rejecting unknown values.
func ParseStatus(s string) (models.JobStatus, error) {
	st := models.JobStatus(s)
	if _, ok := validTransitions[st]; !ok {
		return "", fmt.Errorf("unknown job status %q", s)
	}
	return st, nil
}

// TransitionContext carries the job fields the business-rule gates inspect.
// Built from the job snapshot plus any operation input (e.g. the crew list
// being assigned).
type TransitionContext struct {
	CrewIDs          []string
	AssignedCrew     []string
	AfterPhotos      int
	VerifiedPrice    *float64
	PaymentSucceeded bool
	RemainingBalance float64
}

// NewTransitionContext snapshots the gate-relevant fields of a job.
func NewTransitionContext(job *models.Job) *TransitionContext {
	return &TransitionContext{
		CrewIDs:          job.CrewIDs,
		AssignedCrew:     job.CrewIDs,
		AfterPhotos:      job.PhotoCount(models.PhotoTagAfter),
		VerifiedPrice:    job.VerifiedFinalPrice,
		PaymentSucceeded: job.FinalPayment != nil && job.FinalPayment.Status == models.PaymentStatusSuccess,
		RemainingBalance: job.RemainingBalance(),
	}
}

// TransitionResult is the outcome of a transition check.
type TransitionResult struct {
	Allowed bool
	Reason  string
}

// Validator enforces the job status graph plus the business-rule gates
// layered on top of it.
type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks whether current -> target is permitted. A same-status
// "transition" is always allowed (no-op). Callers must not mutate state when
// the result is not allowed.
func (v *Validator) Validate(current, target models.JobStatus, ctx *TransitionContext) TransitionResult {
	if current == target {
		return TransitionResult{Allowed: true}
	}

	allowed, ok := validTransitions[current]
	if !ok {
		return TransitionResult{Allowed: false, Reason: fmt.Sprintf("unknown current status %q", current)}
	}

	found := false
	for _, next := range allowed {
		if next == target {
			found = true
			break
		}
	}
	if !found {
		return TransitionResult{
			Allowed: false,
			Reason:  fmt.Sprintf("cannot move from %s to %s; valid next states: %s", current, target, formatStatusSet(allowed)),
		}
	}

	return v.checkGates(target, ctx)
}

// checkGates applies the business rules that go beyond graph adjacency.
func (v *Validator) checkGates(target models.JobStatus, ctx *TransitionContext) TransitionResult {
	if ctx == nil {
		ctx = &TransitionContext{}
	}

	switch target {
	case models.JobStatusCrewAssigned:
		if len(ctx.CrewIDs) == 0 {
			return TransitionResult{Allowed: false, Reason: "crew assignment requires at least one crew member"}
		}
	case models.JobStatusInProgress:
		if len(ctx.AssignedCrew) == 0 {
			return TransitionResult{Allowed: false, Reason: "work cannot start with no crew assigned"}
		}
	case models.JobStatusWorkCompleted:
		if ctx.AfterPhotos == 0 {
			return TransitionResult{Allowed: false, Reason: "completion requires at least one after photo"}
		}
	case models.JobStatusAdminVerified:
		if ctx.VerifiedPrice == nil {
			return TransitionResult{Allowed: false, Reason: "verification requires a verified final price (zero is valid)"}
		}
	case models.JobStatusCompleted:
		if ctx.RemainingBalance > 0 && !ctx.PaymentSucceeded {
			return TransitionResult{Allowed: false, Reason: "outstanding balance must be paid before completion"}
		}
	}

	return TransitionResult{Allowed: true}
}

// AllowedNext returns the valid next statuses from the given status.
func (v *Validator) AllowedNext(from models.JobStatus) []models.JobStatus {
	return validTransitions[from]
}

func formatStatusSet(statuses []models.JobStatus) string {
	if len(statuses) == 0 {
		return "(none - terminal state)"
	}
	parts := make([]string, len(statuses))
	for i, s := range statuses {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}
