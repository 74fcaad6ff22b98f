package lifecycle

import (
	"fmt"

	"clearway-backend/models"
)

// Action names a store mutation for permission purposes.
type Action string

const (
	ActionQuote        Action = "quote"
	ActionApproveQuote Action = "approve-quote"
	ActionRejectQuote  Action = "reject-quote"
	ActionPayDeposit   Action = "pay-deposit"
	ActionAssignCrew   Action = "assign-crew"
	ActionDispatch     Action = "dispatch"
	ActionStart        Action = "start"
	ActionComplete     Action = "complete"
	ActionVerify       Action = "verify"
	ActionPayFinal     Action = "pay-final"
	ActionInvoice      Action = "invoice"
	ActionCancel       Action = "cancel"
	ActionAddPhoto     Action = "add-photo"
)

// roleActions is the single capability table. Both the HTTP layer and the
// service layer consult it; no component re-derives role rules on its own.
var roleActions = map[models.ActorRole]map[Action]bool{
	models.RoleClient: {
		ActionApproveQuote: true,
		ActionRejectQuote:  true,
		ActionPayDeposit:   true,
		ActionPayFinal:     true,
		ActionCancel:       true,
		ActionAddPhoto:     true,
	},
	models.RoleAdmin: {
		ActionQuote:      true,
		ActionAssignCrew: true,
		ActionDispatch:   true,
		ActionVerify:     true,
		ActionInvoice:    true,
		ActionCancel:     true,
		ActionAddPhoto:   true,
	},
	models.RoleCrew: {
		ActionStart:    true,
		ActionComplete: true,
		ActionAddPhoto: true,
	},
}

// clientCancellable lists the statuses from which a client may cancel, with
// the deposit refund percentage for each. This is the canonical cancellation
// policy; crews never cancel, admins may cancel any non-terminal,
// pre-verification status with a full deposit refund.
var clientCancellable = map[models.JobStatus]int{
	models.JobStatusBookingRequest:   100,
	models.JobStatusAdminQuoted:      100,
	models.JobStatusQuoteRejected:    100,
	models.JobStatusClientApproved:   100,
	models.JobStatusPaymentPending:   100,
	models.JobStatusBookingConfirmed: 100,
	models.JobStatusCrewAssigned:     50,
	models.JobStatusDispatched:       50,
}

// Authorizer answers "may this role perform this action on a job in this
// status".
type Authorizer struct{}

func NewAuthorizer() *Authorizer {
	return &Authorizer{}
}

// Can checks the capability table plus the status-sensitive cancellation
// rules.
func (a *Authorizer) Can(role models.ActorRole, action Action, status models.JobStatus) GuardResult {
	if !roleActions[role][action] {
		return GuardResult{Allowed: false, Reason: fmt.Sprintf("role %s may not %s", role, action)}
	}
	if action == ActionCancel {
		return a.canCancel(role, status)
	}
	return GuardResult{Allowed: true}
}

func (a *Authorizer) canCancel(role models.ActorRole, status models.JobStatus) GuardResult {
	if status.IsTerminal() || status == models.JobStatusCompleted {
		return GuardResult{Allowed: false, Reason: fmt.Sprintf("job in status %s cannot be cancelled", status)}
	}

	switch role {
	case models.RoleAdmin:
		// Admin may cancel anything up to and including admin-rejected.
		switch status {
		case models.JobStatusWorkCompleted, models.JobStatusAdminVerified, models.JobStatusFinalPaymentPending:
			return GuardResult{Allowed: false, Reason: fmt.Sprintf("completed work in status %s must be resolved through verification, not cancellation", status)}
		}
		return GuardResult{Allowed: true}
	case models.RoleClient:
		if _, ok := clientCancellable[status]; !ok {
			return GuardResult{Allowed: false, Reason: fmt.Sprintf("client cannot cancel once work is underway (status %s)", status)}
		}
		return GuardResult{Allowed: true}
	default:
		return GuardResult{Allowed: false, Reason: fmt.Sprintf("role %s may not cancel", role)}
	}
}

// RefundPercent returns the deposit refund percentage for a cancellation by
// the given role from the given status. Only meaningful when the matching
// Can call allowed the cancellation.
func (a *Authorizer) RefundPercent(role models.ActorRole, status models.JobStatus) int {
	if role == models.RoleAdmin {
		return 100
	}
	if pct, ok := clientCancellable[status]; ok {
		return pct
	}
	return 0
}
