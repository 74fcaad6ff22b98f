package lifecycle

import (
	"testing"

	"clearway-backend/models"

	"github.com/stretchr/testify/assert"
)

func dispatchReadyJob() *models.Job {
	return &models.Job{
		Status:     models.JobStatusCrewAssigned,
		CrewIDs:    []string{"crew-1"},
		FinalQuote: &models.FinalQuote{FixedPrice: 600, DepositAmount: 180, Locked: true},
		InitialPayment: &models.PaymentRecord{
			Amount: 180,
			Status: models.PaymentStatusSuccess,
		},
	}
}

func TestCanDispatch(t *testing.T) {
	g := NewGuards()

	assert.True(t, g.CanDispatch(dispatchReadyJob()).Allowed)

	noQuote := dispatchReadyJob()
	noQuote.FinalQuote = nil
	res := g.CanDispatch(noQuote)
	assert.False(t, res.Allowed)
	assert.Contains(t, res.Reason, "quote")

	unlocked := dispatchReadyJob()
	unlocked.FinalQuote.Locked = false
	assert.False(t, g.CanDispatch(unlocked).Allowed)

	noDeposit := dispatchReadyJob()
	noDeposit.InitialPayment = nil
	res = g.CanDispatch(noDeposit)
	assert.False(t, res.Allowed)
	assert.Contains(t, res.Reason, "deposit")

	failedDeposit := dispatchReadyJob()
	failedDeposit.InitialPayment.Status = models.PaymentStatusFailed
	assert.False(t, g.CanDispatch(failedDeposit).Allowed)

	noCrew := dispatchReadyJob()
	noCrew.CrewIDs = nil
	res = g.CanDispatch(noCrew)
	assert.False(t, res.Allowed)
	assert.Contains(t, res.Reason, "crew")
}

func TestCanStart(t *testing.T) {
	g := NewGuards()

	assert.True(t, g.CanStart(&models.Job{Status: models.JobStatusDispatched}).Allowed)
	// Idempotent: an in-progress job may be "started" again.
	assert.True(t, g.CanStart(&models.Job{Status: models.JobStatusInProgress}).Allowed)
	assert.False(t, g.CanStart(&models.Job{Status: models.JobStatusCrewAssigned}).Allowed)
	assert.False(t, g.CanStart(&models.Job{Status: models.JobStatusBookingConfirmed}).Allowed)
}

func TestCanComplete(t *testing.T) {
	g := NewGuards()

	assert.True(t, g.CanComplete(&models.Job{Status: models.JobStatusInProgress}).Allowed)
	assert.False(t, g.CanComplete(&models.Job{Status: models.JobStatusDispatched}).Allowed)
	assert.False(t, g.CanComplete(&models.Job{Status: models.JobStatusWorkCompleted}).Allowed)
}

func TestCanVerify(t *testing.T) {
	g := NewGuards()

	assert.True(t, g.CanVerify(&models.Job{Status: models.JobStatusWorkCompleted}).Allowed)
	assert.False(t, g.CanVerify(&models.Job{Status: models.JobStatusInProgress}).Allowed)
	assert.False(t, g.CanVerify(&models.Job{Status: models.JobStatusAdminVerified}).Allowed)
}

func TestCanInvoice(t *testing.T) {
	g := NewGuards()

	paid := &models.Job{
		LifecycleState: models.LifecycleCompleted,
		InitialPayment: &models.PaymentRecord{Amount: 180, Status: models.PaymentStatusSuccess},
	}
	assert.True(t, g.CanInvoice(paid).Allowed)

	// Already invoiced lifecycle still passes; the once-only rule lives in the
	// store.
	paid.LifecycleState = models.LifecycleInvoiced
	assert.True(t, g.CanInvoice(paid).Allowed)

	inFlight := &models.Job{
		LifecycleState: models.LifecycleInProgress,
		InitialPayment: &models.PaymentRecord{Amount: 180, Status: models.PaymentStatusSuccess},
	}
	assert.False(t, g.CanInvoice(inFlight).Allowed)

	unpaid := &models.Job{LifecycleState: models.LifecycleCompleted}
	res := g.CanInvoice(unpaid)
	assert.False(t, res.Allowed)
	assert.Contains(t, res.Reason, "deposit")
}

func TestGuardResultErr(t *testing.T) {
	assert.NoError(t, GuardResult{Allowed: true}.Err("dispatch"))

	err := GuardResult{Allowed: false, Reason: "no crew assigned"}.Err("dispatch")
	assert.Error(t, err)
	guardErr, ok := err.(*GuardFailedError)
	assert.True(t, ok)
	assert.Equal(t, "dispatch", guardErr.Operation)
}
