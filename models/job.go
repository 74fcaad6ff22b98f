package models

import "time"

type JobStatus string

const (
	JobStatusBookingRequest      JobStatus = "client-booking-request"
	JobStatusAdminQuoted         JobStatus = "admin-quoted"
	JobStatusQuoteRejected       JobStatus = "quote-rejected"
	JobStatusClientApproved      JobStatus = "client-approved"
	JobStatusPaymentPending      JobStatus = "payment-pending"
	JobStatusBookingConfirmed    JobStatus = "booking-confirmed"
	JobStatusCrewAssigned        JobStatus = "crew-assigned"
	JobStatusDispatched          JobStatus = "dispatched"
	JobStatusInProgress          JobStatus = "in-progress"
	JobStatusWorkCompleted       JobStatus = "work-completed"
	JobStatusAdminVerified       JobStatus = "admin-verified"
	JobStatusAdminRejected       JobStatus = "admin-rejected"
	JobStatusFinalPaymentPending JobStatus = "final-payment-pending"
	JobStatusCompleted           JobStatus = "completed"
	JobStatusCancelled           JobStatus = "cancelled"
	JobStatusRefunded            JobStatus = "refunded"
)

// IsTerminal reports statuses with no outgoing transitions.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCancelled || s == JobStatusRefunded
}

// LifecycleState is the coarse phase, distinct from the fine-grained JobStatus.
type LifecycleState string

const (
	LifecycleCreated    LifecycleState = "created"
	LifecycleAssigned   LifecycleState = "assigned"
	LifecycleInProgress LifecycleState = "in-progress"
	LifecycleCompleted  LifecycleState = "completed"
	LifecycleInvoiced   LifecycleState = "invoiced"
)

type Urgency string

const (
	UrgencyEmergency Urgency = "emergency"
	UrgencyStandard  Urgency = "standard"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusSuccess PaymentStatus = "success"
	PaymentStatusFailed  PaymentStatus = "failed"
)

type SLAType string

const (
	SLAType24h  SLAType = "24h"
	SLAType48h  SLAType = "48h"
	SLAType168h SLAType = "168h"
)

type SLAHealth string

const (
	SLAHealthSafe     SLAHealth = "safe"
	SLAHealthWarning  SLAHealth = "warning"
	SLAHealthCritical SLAHealth = "critical"
	SLAHealthBreached SLAHealth = "breached"
)

type PhotoTag string

const (
	PhotoTagBefore PhotoTag = "before"
	PhotoTagAfter  PhotoTag = "after"
)

type RefundStatus string

const (
	RefundStatusPending   RefundStatus = "pending"
	RefundStatusProcessed RefundStatus = "processed"
)

type InvoiceStatus string

const (
	InvoiceStatusPending   InvoiceStatus = "pending"
	InvoiceStatusGenerated InvoiceStatus = "generated"
	InvoiceStatusSent      InvoiceStatus = "sent"
	InvoiceStatusPaid      InvoiceStatus = "paid"
)

// QuoteDetails is admin-authored and mutable until the client approves.
type QuoteDetails struct {
	QuotedAmount  float64   `json:"quotedAmount" dynamodbav:"quotedAmount"`
	DepositAmount float64   `json:"depositAmount" dynamodbav:"depositAmount"`
	ScopeOfWork   string    `json:"scopeOfWork,omitempty" dynamodbav:"scopeOfWork,omitempty"`
	Terms         string    `json:"terms,omitempty" dynamodbav:"terms,omitempty"`
	QuotedBy      string    `json:"quotedBy" dynamodbav:"quotedBy"`
	QuotedAt      time.Time `json:"quotedAt" dynamodbav:"quotedAt"`
}

// FinalQuote is the snapshot taken when the client approves. Once Locked is
// true, FixedPrice/DepositAmount/ScopeOfWork must never change.
type FinalQuote struct {
	FixedPrice    float64    `json:"fixedPrice" dynamodbav:"fixedPrice"`
	DepositAmount float64    `json:"depositAmount" dynamodbav:"depositAmount"`
	ScopeOfWork   string     `json:"scopeOfWork,omitempty" dynamodbav:"scopeOfWork,omitempty"`
	Terms         string     `json:"terms,omitempty" dynamodbav:"terms,omitempty"`
	Locked        bool       `json:"locked" dynamodbav:"locked"`
	ApprovedAt    *time.Time `json:"approvedAt,omitempty" dynamodbav:"approvedAt,omitempty"`
	ApprovedBy    string     `json:"approvedBy,omitempty" dynamodbav:"approvedBy,omitempty"`
}

type PaymentRecord struct {
	Amount    float64       `json:"amount" dynamodbav:"amount"`
	Method    string        `json:"method,omitempty" dynamodbav:"method,omitempty"`
	Reference string        `json:"reference,omitempty" dynamodbav:"reference,omitempty"`
	Status    PaymentStatus `json:"status" dynamodbav:"status"`
	PaidAt    time.Time     `json:"paidAt" dynamodbav:"paidAt"`
	PaidBy    string        `json:"paidBy,omitempty" dynamodbav:"paidBy,omitempty"`
}

type GeoStamp struct {
	Latitude  float64 `json:"latitude" dynamodbav:"latitude"`
	Longitude float64 `json:"longitude" dynamodbav:"longitude"`
}

type JobPhoto struct {
	PhotoID      string    `json:"photoID" dynamodbav:"photoID"`
	Tag          PhotoTag  `json:"tag" dynamodbav:"tag" validate:"required,oneof=before after"`
	URL          string    `json:"url" dynamodbav:"url" validate:"required"`
	UploadedBy   string    `json:"uploadedBy" dynamodbav:"uploadedBy"`
	UploaderRole string    `json:"uploaderRole,omitempty" dynamodbav:"uploaderRole,omitempty"`
	Geo          *GeoStamp `json:"geo,omitempty" dynamodbav:"geo,omitempty"`
	UploadedAt   time.Time `json:"uploadedAt" dynamodbav:"uploadedAt"`
}

type ChecklistItem struct {
	Task        string     `json:"task" dynamodbav:"task"`
	Completed   bool       `json:"completed" dynamodbav:"completed"`
	CompletedBy string     `json:"completedBy,omitempty" dynamodbav:"completedBy,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty" dynamodbav:"completedAt,omitempty"`
}

// StatusHistoryEntry records one transition. The history slice is append-only:
// entries are never reordered or mutated in place.
type StatusHistoryEntry struct {
	Status    JobStatus `json:"status" dynamodbav:"status"`
	Timestamp time.Time `json:"timestamp" dynamodbav:"timestamp"`
	UpdatedBy string    `json:"updatedBy" dynamodbav:"updatedBy"`
	Notes     string    `json:"notes,omitempty" dynamodbav:"notes,omitempty"`
}

type Cancellation struct {
	CancelledAt time.Time `json:"cancelledAt" dynamodbav:"cancelledAt"`
	CancelledBy string    `json:"cancelledBy" dynamodbav:"cancelledBy"`
	Reason      string    `json:"reason,omitempty" dynamodbav:"reason,omitempty"`
}

// Job is the central aggregate: one job per client booking, owning its
// photos, checklist and status history outright.
type Job struct {
	JobID       string `json:"jobID" dynamodbav:"jobID" validate:"omitempty,uuid4"`
	ReferenceID string `json:"referenceID" dynamodbav:"referenceID"` // display reference, generated once, never changes

	ClientID   string `json:"clientID" dynamodbav:"clientID" validate:"required"`
	ClientName string `json:"clientName,omitempty" dynamodbav:"clientName,omitempty"`
	ClientType string `json:"clientType,omitempty" dynamodbav:"clientType,omitempty"`

	CrewIDs   []string `json:"crewIDs" dynamodbav:"crewIDs"`
	CrewNames []string `json:"crewNames,omitempty" dynamodbav:"crewNames,omitempty"`

	ServiceType  string   `json:"serviceType" dynamodbav:"serviceType" validate:"required"`
	Urgency      Urgency  `json:"urgency" dynamodbav:"urgency" validate:"required,oneof=emergency standard"`
	JobSize      string   `json:"jobSize,omitempty" dynamodbav:"jobSize,omitempty"`
	PropertyType string   `json:"propertyType,omitempty" dynamodbav:"propertyType,omitempty"`
	RiskFlags    []string `json:"riskFlags,omitempty" dynamodbav:"riskFlags,omitempty"`
	Notes        string   `json:"notes,omitempty" dynamodbav:"notes,omitempty" validate:"omitempty,max=1000"`

	EstimatedValue     float64        `json:"estimatedValue,omitempty" dynamodbav:"estimatedValue,omitempty"`
	QuoteDetails       *QuoteDetails  `json:"quoteDetails,omitempty" dynamodbav:"quoteDetails,omitempty"`
	FinalQuote         *FinalQuote    `json:"finalQuote,omitempty" dynamodbav:"finalQuote,omitempty"`
	InitialPayment     *PaymentRecord `json:"initialPayment,omitempty" dynamodbav:"initialPayment,omitempty"`
	FinalPayment       *PaymentRecord `json:"finalPayment,omitempty" dynamodbav:"finalPayment,omitempty"`
	FinalPrice         *float64       `json:"finalPrice,omitempty" dynamodbav:"finalPrice,omitempty"` // remaining balance owed
	VerifiedFinalPrice *float64       `json:"verifiedFinalPrice,omitempty" dynamodbav:"verifiedFinalPrice,omitempty"`
	PaymentStatus      PaymentStatus  `json:"paymentStatus" dynamodbav:"paymentStatus"`

	Status         JobStatus            `json:"status" dynamodbav:"status"`
	LifecycleState LifecycleState       `json:"lifecycleState" dynamodbav:"lifecycleState"`
	StatusHistory  []StatusHistoryEntry `json:"statusHistory" dynamodbav:"statusHistory"`

	SLAType               SLAType    `json:"slaType,omitempty" dynamodbav:"slaType,omitempty"`
	SLADeadline           *time.Time `json:"slaDeadline,omitempty" dynamodbav:"slaDeadline,omitempty"`
	SLABreached           bool       `json:"slaBreached" dynamodbav:"slaBreached"`
	ResponseTimeMinutes   *int       `json:"responseTimeMinutes,omitempty" dynamodbav:"responseTimeMinutes,omitempty"`
	CompletionTimeMinutes *int       `json:"completionTimeMinutes,omitempty" dynamodbav:"completionTimeMinutes,omitempty"`

	Photos    []JobPhoto      `json:"photos" dynamodbav:"photos"`
	Checklist []ChecklistItem `json:"checklist" dynamodbav:"checklist"`

	Cancellation *Cancellation `json:"cancellation,omitempty" dynamodbav:"cancellation,omitempty"`
	RefundStatus RefundStatus  `json:"refundStatus,omitempty" dynamodbav:"refundStatus,omitempty"`
	RefundAmount float64       `json:"refundAmount,omitempty" dynamodbav:"refundAmount,omitempty"`

	InvoiceID        string        `json:"invoiceID,omitempty" dynamodbav:"invoiceID,omitempty"`
	InvoiceGenerated bool          `json:"invoiceGenerated" dynamodbav:"invoiceGenerated"`
	InvoiceStatus    InvoiceStatus `json:"invoiceStatus,omitempty" dynamodbav:"invoiceStatus,omitempty"`

	CreatedAt    time.Time  `json:"createdAt" dynamodbav:"createdAt"`
	DispatchedAt *time.Time `json:"dispatchedAt,omitempty" dynamodbav:"dispatchedAt,omitempty"`
	StartedAt    *time.Time `json:"startedAt,omitempty" dynamodbav:"startedAt,omitempty"`
	CompletedAt  *time.Time `json:"completedAt,omitempty" dynamodbav:"completedAt,omitempty"`
	UpdatedAt    time.Time  `json:"updatedAt" dynamodbav:"updatedAt"`
	UpdatedBy    string     `json:"updatedBy,omitempty" dynamodbav:"updatedBy,omitempty"`
}

// TotalAmount returns the figure the client owes in total, preferring the
// admin-verified price, then the locked quote's fixed price, then the
// estimate. Every balance shown or charged uses this precedence.
func (j *Job) TotalAmount() float64 {
	if j.VerifiedFinalPrice != nil {
		return *j.VerifiedFinalPrice
	}
	if j.FinalQuote != nil && j.FinalQuote.Locked {
		return j.FinalQuote.FixedPrice
	}
	return j.EstimatedValue
}

// DepositPaid reports whether the upfront deposit has been captured.
func (j *Job) DepositPaid() bool {
	return j.InitialPayment != nil && j.InitialPayment.Status == PaymentStatusSuccess
}

// RemainingBalance is TotalAmount minus all captured payments, floored at
// zero.
func (j *Job) RemainingBalance() float64 {
	balance := j.TotalAmount()
	if j.DepositPaid() {
		balance -= j.InitialPayment.Amount
	}
	if j.FinalPayment != nil && j.FinalPayment.Status == PaymentStatusSuccess {
		balance -= j.FinalPayment.Amount
	}
	if balance < 0 {
		return 0
	}
	return balance
}

// PhotoCount counts photos carrying the given tag.
func (j *Job) PhotoCount(tag PhotoTag) int {
	n := 0
	for _, p := range j.Photos {
		if p.Tag == tag {
			n++
		}
	}
	return n
}

type CreateJobRequest struct {
	ClientID       string   `json:"clientID" validate:"required"`
	ClientName     string   `json:"clientName,omitempty" validate:"omitempty,max=200"`
	ClientType     string   `json:"clientType,omitempty"`
	ServiceType    string   `json:"serviceType" validate:"required,min=2,max=100"`
	Urgency        Urgency  `json:"urgency" validate:"required,oneof=emergency standard"`
	JobSize        string   `json:"jobSize,omitempty"`
	PropertyType   string   `json:"propertyType,omitempty"`
	RiskFlags      []string `json:"riskFlags,omitempty"`
	EstimatedValue float64  `json:"estimatedValue,omitempty" validate:"omitempty,gte=0"`
	SLAType        SLAType  `json:"slaType,omitempty" validate:"omitempty,oneof=24h 48h 168h"`
	Notes          string   `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

type ProvideQuoteRequest struct {
	QuotedAmount  float64 `json:"quotedAmount" validate:"required,gt=0"`
	DepositAmount float64 `json:"depositAmount" validate:"gte=0"`
	ScopeOfWork   string  `json:"scopeOfWork,omitempty" validate:"omitempty,max=2000"`
	Terms         string  `json:"terms,omitempty" validate:"omitempty,max=2000"`
}

type PaymentRequest struct {
	Amount    float64 `json:"amount" validate:"required,gt=0"`
	Method    string  `json:"method,omitempty"`
	Reference string  `json:"reference,omitempty"`
}

type AssignCrewRequest struct {
	CrewIDs   []string `json:"crewIDs" validate:"required,min=1"`
	CrewNames []string `json:"crewNames,omitempty"`
}

type VerifyJobRequest struct {
	VerifiedFinalPrice float64 `json:"verifiedFinalPrice" validate:"gte=0"`
}

type AddPhotoRequest struct {
	Tag PhotoTag  `json:"tag" validate:"required,oneof=before after"`
	URL string    `json:"url" validate:"required"`
	Geo *GeoStamp `json:"geo,omitempty"`
}

type CancelJobRequest struct {
	Reason string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

type UpdateJobRequest struct {
	JobSize      string   `json:"jobSize,omitempty"`
	PropertyType string   `json:"propertyType,omitempty"`
	RiskFlags    []string `json:"riskFlags,omitempty"`
	Notes        string   `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

type JobFilter struct {
	ClientID string    `json:"clientID,omitempty"`
	CrewID   string    `json:"crewID,omitempty"`
	Status   JobStatus `json:"status,omitempty"`
	Urgency  Urgency   `json:"urgency,omitempty"`
	FromDate time.Time `json:"fromDate,omitempty"`
	ToDate   time.Time `json:"toDate,omitempty"`
}
