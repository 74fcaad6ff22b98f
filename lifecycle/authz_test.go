package lifecycle

import (
	"testing"

	"clearway-backend/models"

	"github.com/stretchr/testify/assert"
)

func TestCapabilityTable(t *testing.T) {
	a := NewAuthorizer()

	tests := []struct {
		role    models.ActorRole
		action  Action
		allowed bool
	}{
		{models.RoleAdmin, ActionQuote, true},
		{models.RoleAdmin, ActionAssignCrew, true},
		{models.RoleAdmin, ActionVerify, true},
		{models.RoleAdmin, ActionInvoice, true},
		{models.RoleAdmin, ActionApproveQuote, false},
		{models.RoleAdmin, ActionStart, false},
		{models.RoleClient, ActionApproveQuote, true},
		{models.RoleClient, ActionPayDeposit, true},
		{models.RoleClient, ActionPayFinal, true},
		{models.RoleClient, ActionQuote, false},
		{models.RoleClient, ActionDispatch, false},
		{models.RoleClient, ActionVerify, false},
		{models.RoleCrew, ActionStart, true},
		{models.RoleCrew, ActionComplete, true},
		{models.RoleCrew, ActionAddPhoto, true},
		{models.RoleCrew, ActionVerify, false},
		{models.RoleCrew, ActionInvoice, false},
	}

	for _, tt := range tests {
		res := a.Can(tt.role, tt.action, models.JobStatusInProgress)
		assert.Equal(t, tt.allowed, res.Allowed, "%s %s", tt.role, tt.action)
	}
}

func TestClientCancellationPolicy(t *testing.T) {
	a := NewAuthorizer()

	fullRefund := []models.JobStatus{
		models.JobStatusBookingRequest,
		models.JobStatusAdminQuoted,
		models.JobStatusQuoteRejected,
		models.JobStatusClientApproved,
		models.JobStatusPaymentPending,
		models.JobStatusBookingConfirmed,
	}
	for _, st := range fullRefund {
		assert.True(t, a.Can(models.RoleClient, ActionCancel, st).Allowed, string(st))
		assert.Equal(t, 100, a.RefundPercent(models.RoleClient, st), string(st))
	}

	halfRefund := []models.JobStatus{models.JobStatusCrewAssigned, models.JobStatusDispatched}
	for _, st := range halfRefund {
		assert.True(t, a.Can(models.RoleClient, ActionCancel, st).Allowed, string(st))
		assert.Equal(t, 50, a.RefundPercent(models.RoleClient, st), string(st))
	}

	// Once work is underway the client can no longer cancel.
	denied := []models.JobStatus{
		models.JobStatusInProgress,
		models.JobStatusWorkCompleted,
		models.JobStatusAdminVerified,
		models.JobStatusFinalPaymentPending,
	}
	for _, st := range denied {
		assert.False(t, a.Can(models.RoleClient, ActionCancel, st).Allowed, string(st))
		assert.Equal(t, 0, a.RefundPercent(models.RoleClient, st), string(st))
	}
}

func TestAdminCancellationPolicy(t *testing.T) {
	a := NewAuthorizer()

	assert.True(t, a.Can(models.RoleAdmin, ActionCancel, models.JobStatusInProgress).Allowed)
	assert.True(t, a.Can(models.RoleAdmin, ActionCancel, models.JobStatusAdminRejected).Allowed)
	assert.Equal(t, 100, a.RefundPercent(models.RoleAdmin, models.JobStatusInProgress))

	// Completed work must be resolved through verification.
	assert.False(t, a.Can(models.RoleAdmin, ActionCancel, models.JobStatusWorkCompleted).Allowed)
	assert.False(t, a.Can(models.RoleAdmin, ActionCancel, models.JobStatusAdminVerified).Allowed)
	assert.False(t, a.Can(models.RoleAdmin, ActionCancel, models.JobStatusFinalPaymentPending).Allowed)
	assert.False(t, a.Can(models.RoleAdmin, ActionCancel, models.JobStatusCompleted).Allowed)
	assert.False(t, a.Can(models.RoleAdmin, ActionCancel, models.JobStatusCancelled).Allowed)
}

func TestCrewNeverCancels(t *testing.T) {
	a := NewAuthorizer()

	for st := range validTransitions {
		assert.False(t, a.Can(models.RoleCrew, ActionCancel, st).Allowed, string(st))
	}
}
