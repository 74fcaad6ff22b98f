// Package store owns the authoritative in-memory collection of clearance
// jobs. Every mutation is validated by the lifecycle rules before any field
// is written, appends to the job's status history, and publishes a change
// event. Jobs are never physically deleted; cancellation is a status.
package store

import (
	"sort"
	"sync"
	"time"

	"clearway-backend/lifecycle"
	"clearway-backend/models"
	"clearway-backend/utils"
	"clearway-backend/utils/logger"
)

// defaultChecklist seeds every new job.
var defaultChecklist = []string{
	"Pre-clearance walkthrough and before photos",
	"Hazard and access assessment",
	"Clearance and removal",
	"Licensed waste disposal",
	"Final site sweep and after photos",
}

// Deps are the store's injected collaborators. Zero-value fields get
// sensible defaults so tests can construct isolated instances cheaply.
type Deps struct {
	Validator *lifecycle.Validator
	Guards    *lifecycle.Guards
	SLA       *lifecycle.SLACalculator
	Authorizer *lifecycle.Authorizer
	Notifier  *Notifier
	Runner    *FollowUpRunner
	Clock     func() time.Time
	NewID     func() string
	NewRef    func() string
	Logger    logger.Logger
}

// JobStore is the aggregate root for clearance jobs.
type JobStore struct {
	mu       sync.RWMutex
	jobs     map[string]*models.Job
	jobLocks map[string]*sync.Mutex
	byClient map[string][]string
	byStatus map[models.JobStatus]map[string]struct{}

	validator  *lifecycle.Validator
	guards     *lifecycle.Guards
	sla        *lifecycle.SLACalculator
	authorizer *lifecycle.Authorizer
	notifier   *Notifier
	runner     *FollowUpRunner
	clock      func() time.Time
	newID      func() string
	newRef     func() string
	logger     logger.Logger
}

func New(deps Deps) *JobStore {
	if deps.Validator == nil {
		deps.Validator = lifecycle.NewValidator()
	}
	if deps.Guards == nil {
		deps.Guards = lifecycle.NewGuards()
	}
	if deps.SLA == nil {
		deps.SLA = lifecycle.NewSLACalculator()
	}
	if deps.Authorizer == nil {
		deps.Authorizer = lifecycle.NewAuthorizer()
	}
	if deps.Logger == nil {
		deps.Logger = logger.NewLogger("info", "json")
	}
	if deps.Notifier == nil {
		deps.Notifier = NewNotifier(0)
	}
	if deps.Runner == nil {
		deps.Runner = NewFollowUpRunner(deps.Logger)
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.NewID == nil {
		deps.NewID = utils.GenerateUUID
	}
	if deps.NewRef == nil {
		deps.NewRef = utils.GenerateReferenceID
	}

	return &JobStore{
		jobs:       make(map[string]*models.Job),
		jobLocks:   make(map[string]*sync.Mutex),
		byClient:   make(map[string][]string),
		byStatus:   make(map[models.JobStatus]map[string]struct{}),
		validator:  deps.Validator,
		guards:     deps.Guards,
		sla:        deps.SLA,
		authorizer: deps.Authorizer,
		notifier:   deps.Notifier,
		runner:     deps.Runner,
		clock:      deps.Clock,
		newID:      deps.NewID,
		newRef:     deps.NewRef,
		logger:     deps.Logger,
	}
}

// Notifier exposes the change publisher for subscribers.
func (s *JobStore) Notifier() *Notifier { return s.notifier }

// Runner exposes the follow-up queue (started by main, drained by tests).
func (s *JobStore) Runner() *FollowUpRunner { return s.runner }

// CreateJob registers a new booking request and seeds the default checklist.
func (s *JobStore) CreateJob(req *models.CreateJobRequest, createdBy string) (*models.Job, error) {
	now := s.clock()

	slaType := req.SLAType
	if slaType == "" {
		if req.Urgency == models.UrgencyEmergency {
			slaType = models.SLAType24h
		} else {
			slaType = models.SLAType48h
		}
	}

	checklist := make([]models.ChecklistItem, len(defaultChecklist))
	for i, task := range defaultChecklist {
		checklist[i] = models.ChecklistItem{Task: task}
	}

	job := &models.Job{
		JobID:          s.newID(),
		ReferenceID:    s.newRef(),
		ClientID:       req.ClientID,
		ClientName:     req.ClientName,
		ClientType:     req.ClientType,
		CrewIDs:        []string{},
		ServiceType:    req.ServiceType,
		Urgency:        req.Urgency,
		JobSize:        req.JobSize,
		PropertyType:   req.PropertyType,
		RiskFlags:      req.RiskFlags,
		Notes:          req.Notes,
		EstimatedValue: req.EstimatedValue,
		PaymentStatus:  models.PaymentStatusPending,
		Status:         models.JobStatusBookingRequest,
		LifecycleState: models.LifecycleCreated,
		StatusHistory: []models.StatusHistoryEntry{{
			Status:    models.JobStatusBookingRequest,
			Timestamp: now,
			UpdatedBy: createdBy,
			Notes:     "booking request received",
		}},
		SLAType:   slaType,
		Photos:    []models.JobPhoto{},
		Checklist: checklist,
		CreatedAt: now,
		UpdatedAt: now,
		UpdatedBy: createdBy,
	}

	// Snapshot before the job becomes reachable through the map.
	snapshot := cloneJob(job)

	s.mu.Lock()
	s.jobs[job.JobID] = job
	s.jobLocks[job.JobID] = &sync.Mutex{}
	s.byClient[job.ClientID] = append(s.byClient[job.ClientID], job.JobID)
	s.indexStatusLocked(job.JobID, "", job.Status)
	s.mu.Unlock()

	s.logger.Infof("job %s created for client %s (%s)", snapshot.ReferenceID, snapshot.ClientID, snapshot.ServiceType)
	s.publish(snapshot, "create")
	return snapshot, nil
}

// ProvideQuote sets the admin quote. Fails once the client has approved.
func (s *JobStore) ProvideQuote(id string, req *models.ProvideQuoteRequest, quotedBy string) (*models.Job, error) {
	return s.withJob(id, "quote", func(job *models.Job) error {
		if job.FinalQuote != nil && job.FinalQuote.Locked {
			return lifecycle.ErrQuoteLocked
		}
		if err := s.transitionErr(job, models.JobStatusAdminQuoted, nil); err != nil {
			return err
		}

		now := s.clock()
		job.QuoteDetails = &models.QuoteDetails{
			QuotedAmount:  req.QuotedAmount,
			DepositAmount: req.DepositAmount,
			ScopeOfWork:   req.ScopeOfWork,
			Terms:         req.Terms,
			QuotedBy:      quotedBy,
			QuotedAt:      now,
		}
		// Unlocked snapshot; the client approval locks it.
		job.FinalQuote = &models.FinalQuote{
			FixedPrice:    req.QuotedAmount,
			DepositAmount: req.DepositAmount,
			ScopeOfWork:   req.ScopeOfWork,
			Terms:         req.Terms,
		}
		s.applyTransition(job, models.JobStatusAdminQuoted, quotedBy, "quote provided")
		return nil
	})
}

// ApproveQuote locks the quote and queues the advance to payment-pending.
func (s *JobStore) ApproveQuote(id, approvedBy string) (*models.Job, error) {
	job, err := s.withJob(id, "approve-quote", func(job *models.Job) error {
		if job.FinalQuote == nil {
			return &lifecycle.GuardFailedError{Operation: "approve-quote", Reason: "no quote to approve"}
		}
		if err := s.transitionErr(job, models.JobStatusClientApproved, nil); err != nil {
			return err
		}

		now := s.clock()
		job.FinalQuote.Locked = true
		job.FinalQuote.ApprovedAt = &now
		job.FinalQuote.ApprovedBy = approvedBy
		s.applyTransition(job, models.JobStatusClientApproved, approvedBy, "quote approved, price locked")
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.runner.Enqueue(FollowUp{
		JobID:     id,
		Operation: "advance-to-payment-pending",
		Run: func() error {
			_, err := s.UpdateJobStatus(id, models.JobStatusPaymentPending, "system", "awaiting deposit")
			return err
		},
	})
	return job, nil
}

// RejectQuote sends the quote back to the admin.
func (s *JobStore) RejectQuote(id, reason, rejectedBy string) (*models.Job, error) {
	return s.withJob(id, "reject-quote", func(job *models.Job) error {
		if err := s.transitionErr(job, models.JobStatusQuoteRejected, nil); err != nil {
			return err
		}
		s.applyTransition(job, models.JobStatusQuoteRejected, rejectedBy, reason)
		return nil
	})
}

// ProcessPayment captures the deposit and confirms the booking.
func (s *JobStore) ProcessPayment(id string, req *models.PaymentRequest, paidBy string) (*models.Job, error) {
	return s.withJob(id, "pay-deposit", func(job *models.Job) error {
		// The queued advance may not have run yet; take the validated hop
		// ourselves rather than fail a legitimate payment. Everything is
		// validated before the first write so a rejected deposit leaves the
		// job untouched.
		needHop := job.Status == models.JobStatusClientApproved
		if needHop {
			if err := s.transitionErr(job, models.JobStatusPaymentPending, nil); err != nil {
				return err
			}
			ctx := lifecycle.NewTransitionContext(job)
			if res := s.validator.Validate(models.JobStatusPaymentPending, models.JobStatusBookingConfirmed, ctx); !res.Allowed {
				return &lifecycle.TransitionDeniedError{From: models.JobStatusPaymentPending, To: models.JobStatusBookingConfirmed, Reason: res.Reason}
			}
		} else if err := s.transitionErr(job, models.JobStatusBookingConfirmed, nil); err != nil {
			return err
		}
		if job.FinalQuote != nil && job.FinalQuote.Locked && req.Amount < job.FinalQuote.DepositAmount {
			return lifecycle.ErrPaymentRequired
		}

		if needHop {
			s.applyTransition(job, models.JobStatusPaymentPending, "system", "awaiting deposit")
		}
		now := s.clock()
		job.InitialPayment = &models.PaymentRecord{
			Amount:    req.Amount,
			Method:    req.Method,
			Reference: req.Reference,
			Status:    models.PaymentStatusSuccess,
			PaidAt:    now,
			PaidBy:    paidBy,
		}
		job.PaymentStatus = models.PaymentStatusSuccess
		balance := job.RemainingBalance()
		job.FinalPrice = &balance
		s.applyTransition(job, models.JobStatusBookingConfirmed, paidBy, "deposit received")
		return nil
	})
}

// AssignCrew sets the crew. The store assigns; crews cannot self-assign.
func (s *JobStore) AssignCrew(id string, crewIDs, crewNames []string, assignedBy string) (*models.Job, error) {
	return s.withJob(id, "assign-crew", func(job *models.Job) error {
		ctx := lifecycle.NewTransitionContext(job)
		ctx.CrewIDs = crewIDs
		if err := s.transitionErr(job, models.JobStatusCrewAssigned, ctx); err != nil {
			return err
		}

		job.CrewIDs = append([]string(nil), crewIDs...)
		job.CrewNames = append([]string(nil), crewNames...)
		s.applyTransition(job, models.JobStatusCrewAssigned, assignedBy, "crew assigned")
		return nil
	})
}

// DispatchJob sends the crew out, fixing the SLA deadline and the response
// time.
func (s *JobStore) DispatchJob(id, dispatchedBy string) (*models.Job, error) {
	return s.withJob(id, "dispatch", func(job *models.Job) error {
		if err := s.guards.CanDispatch(job).Err("dispatch"); err != nil {
			return err
		}
		if err := s.transitionErr(job, models.JobStatusDispatched, nil); err != nil {
			return err
		}

		now := s.clock()
		deadline := s.sla.Deadline(now, job.SLAType)
		response := s.sla.ResponseMinutes(job.CreatedAt, now)
		job.DispatchedAt = &now
		job.SLADeadline = &deadline
		job.ResponseTimeMinutes = &response
		s.applyTransition(job, models.JobStatusDispatched, dispatchedBy, "crew dispatched")
		return nil
	})
}

// StartJob marks work begun. Idempotent: starting an in-progress job is a
// no-op.
func (s *JobStore) StartJob(id, startedBy string) (*models.Job, error) {
	return s.withJob(id, "start", func(job *models.Job) error {
		if job.Status == models.JobStatusInProgress {
			return nil
		}
		if err := s.guards.CanStart(job).Err("start"); err != nil {
			return err
		}
		if err := s.transitionErr(job, models.JobStatusInProgress, nil); err != nil {
			return err
		}

		if job.StartedAt == nil {
			now := s.clock()
			job.StartedAt = &now
		}
		s.applyTransition(job, models.JobStatusInProgress, startedBy, "work started")
		return nil
	})
}

// CompleteJob closes the field work: completion time and SLA breach are
// computed once here and frozen, and the remaining balance is fixed for the
// verification step.
func (s *JobStore) CompleteJob(id, completedBy string) (*models.Job, error) {
	return s.withJob(id, "complete", func(job *models.Job) error {
		if err := s.guards.CanComplete(job).Err("complete"); err != nil {
			return err
		}
		if err := s.transitionErr(job, models.JobStatusWorkCompleted, nil); err != nil {
			return err
		}

		now := s.clock()
		job.CompletedAt = &now
		if job.StartedAt != nil {
			minutes := s.sla.CompletionMinutes(*job.StartedAt, now)
			job.CompletionTimeMinutes = &minutes
		}
		if job.SLADeadline != nil {
			job.SLABreached = s.sla.Breached(*job.SLADeadline, now)
		}
		balance := job.RemainingBalance()
		job.FinalPrice = &balance
		s.applyTransition(job, models.JobStatusWorkCompleted, completedBy, "work completed, awaiting verification")
		return nil
	})
}

// VerifyJob records the admin's verified price, recomputes the balance and
// queues the next step: final payment when money is owed, otherwise straight
// to completed and invoicing.
func (s *JobStore) VerifyJob(id string, verifiedPrice float64, verifiedBy string) (*models.Job, error) {
	var owed float64
	job, err := s.withJob(id, "verify", func(job *models.Job) error {
		if err := s.guards.CanVerify(job).Err("verify"); err != nil {
			return err
		}
		ctx := lifecycle.NewTransitionContext(job)
		ctx.VerifiedPrice = &verifiedPrice
		if err := s.transitionErr(job, models.JobStatusAdminVerified, ctx); err != nil {
			return err
		}

		job.VerifiedFinalPrice = &verifiedPrice
		balance := job.RemainingBalance()
		job.FinalPrice = &balance
		owed = balance
		s.applyTransition(job, models.JobStatusAdminVerified, verifiedBy, "work verified")
		return nil
	})
	if err != nil {
		return nil, err
	}

	if owed > 0 {
		s.runner.Enqueue(FollowUp{
			JobID:     id,
			Operation: "request-final-payment",
			Run: func() error {
				_, err := s.RequestFinalPayment(id, owed, "system")
				return err
			},
		})
	} else {
		s.runner.Enqueue(FollowUp{
			JobID:     id,
			Operation: "auto-complete",
			Run: func() error {
				if _, err := s.UpdateJobStatus(id, models.JobStatusCompleted, "system", "no balance outstanding"); err != nil {
					return err
				}
				s.enqueueInvoice(id)
				return nil
			},
		})
	}
	return job, nil
}

// RequestFinalPayment asks the client for the outstanding balance.
func (s *JobStore) RequestFinalPayment(id string, amount float64, requestedBy string) (*models.Job, error) {
	return s.withJob(id, "request-final-payment", func(job *models.Job) error {
		if err := s.transitionErr(job, models.JobStatusFinalPaymentPending, nil); err != nil {
			return err
		}

		if amount <= 0 {
			amount = job.RemainingBalance()
		}
		job.FinalPrice = &amount
		s.applyTransition(job, models.JobStatusFinalPaymentPending, requestedBy, "final payment requested")
		// Client notification is simulated: subscribers see the change event.
		s.logger.Infof("job %s: final payment of %.2f requested from client %s", job.ReferenceID, amount, job.ClientID)
		return nil
	})
}

// ProcessFinalPayment captures the balance, completes the job and queues
// invoice generation.
func (s *JobStore) ProcessFinalPayment(id string, req *models.PaymentRequest, paidBy string) (*models.Job, error) {
	job, err := s.withJob(id, "pay-final", func(job *models.Job) error {
		ctx := lifecycle.NewTransitionContext(job)
		ctx.PaymentSucceeded = true
		ctx.RemainingBalance = 0
		if err := s.transitionErr(job, models.JobStatusCompleted, ctx); err != nil {
			return err
		}
		if req.Amount < job.RemainingBalance() {
			return lifecycle.ErrPaymentRequired
		}

		now := s.clock()
		job.FinalPayment = &models.PaymentRecord{
			Amount:    req.Amount,
			Method:    req.Method,
			Reference: req.Reference,
			Status:    models.PaymentStatusSuccess,
			PaidAt:    now,
			PaidBy:    paidBy,
		}
		job.PaymentStatus = models.PaymentStatusSuccess
		zero := 0.0
		job.FinalPrice = &zero
		s.applyTransition(job, models.JobStatusCompleted, paidBy, "final payment received")
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.enqueueInvoice(id)
	return job, nil
}

func (s *JobStore) enqueueInvoice(id string) {
	s.runner.Enqueue(FollowUp{
		JobID:     id,
		Operation: "generate-invoice",
		Run: func() error {
			_, err := s.GenerateInvoice(id, "system")
			return err
		},
	})
}

// GenerateInvoice creates the invoice exactly once and moves the lifecycle
// to its terminal invoiced state.
func (s *JobStore) GenerateInvoice(id, generatedBy string) (*models.Job, error) {
	return s.withJob(id, "invoice", func(job *models.Job) error {
		if job.InvoiceGenerated {
			return lifecycle.ErrAlreadyInvoiced
		}
		if job.PaymentStatus != models.PaymentStatusSuccess {
			return lifecycle.ErrPaymentRequired
		}
		if err := s.guards.CanInvoice(job).Err("invoice"); err != nil {
			return err
		}

		job.InvoiceID = s.newID()
		job.InvoiceGenerated = true
		job.InvoiceStatus = models.InvoiceStatusGenerated
		job.LifecycleState = models.LifecycleInvoiced
		job.UpdatedAt = s.clock()
		job.UpdatedBy = generatedBy
		job.StatusHistory = append(job.StatusHistory, models.StatusHistoryEntry{
			Status:    job.Status,
			Timestamp: job.UpdatedAt,
			UpdatedBy: generatedBy,
			Notes:     "invoice " + job.InvoiceID + " generated",
		})
		return nil
	})
}

// CancelJob cancels per the canonical cancellation policy and records the
// refund owed on the deposit.
func (s *JobStore) CancelJob(id, reason, cancelledBy string, role models.ActorRole) (*models.Job, error) {
	return s.withJob(id, "cancel", func(job *models.Job) error {
		if job.Status == models.JobStatusCompleted || job.Status.IsTerminal() {
			return &lifecycle.TerminalStateError{Status: job.Status}
		}
		if res := s.authorizer.Can(role, lifecycle.ActionCancel, job.Status); !res.Allowed {
			return &lifecycle.GuardFailedError{Operation: "cancel", Reason: res.Reason}
		}
		if err := s.transitionErr(job, models.JobStatusCancelled, nil); err != nil {
			return err
		}

		now := s.clock()
		job.Cancellation = &models.Cancellation{
			CancelledAt: now,
			CancelledBy: cancelledBy,
			Reason:      reason,
		}
		if job.DepositPaid() {
			pct := s.authorizer.RefundPercent(role, job.Status)
			job.RefundAmount = job.InitialPayment.Amount * float64(pct) / 100
			job.RefundStatus = models.RefundStatusProcessed
		}
		s.applyTransition(job, models.JobStatusCancelled, cancelledBy, reason)
		return nil
	})
}

// AddPhoto attaches evidence to a live job.
func (s *JobStore) AddPhoto(id string, req *models.AddPhotoRequest, uploadedBy string, role models.ActorRole) (*models.Job, error) {
	return s.withJob(id, "add-photo", func(job *models.Job) error {
		if job.Status.IsTerminal() || job.LifecycleState == models.LifecycleInvoiced {
			return &lifecycle.TerminalStateError{Status: job.Status}
		}

		job.Photos = append(job.Photos, models.JobPhoto{
			PhotoID:      s.newID(),
			Tag:          req.Tag,
			URL:          req.URL,
			UploadedBy:   uploadedBy,
			UploaderRole: string(role),
			Geo:          req.Geo,
			UploadedAt:   s.clock(),
		})
		job.UpdatedAt = s.clock()
		job.UpdatedBy = uploadedBy
		return nil
	})
}

// CompleteChecklistItem marks one task done.
func (s *JobStore) CompleteChecklistItem(id string, index int, completedBy string) (*models.Job, error) {
	return s.withJob(id, "checklist", func(job *models.Job) error {
		if index < 0 || index >= len(job.Checklist) {
			return &lifecycle.GuardFailedError{Operation: "checklist", Reason: "no such checklist item"}
		}
		if job.Status.IsTerminal() || job.LifecycleState == models.LifecycleInvoiced {
			return &lifecycle.TerminalStateError{Status: job.Status}
		}

		now := s.clock()
		job.Checklist[index].Completed = true
		job.Checklist[index].CompletedBy = completedBy
		job.Checklist[index].CompletedAt = &now
		job.UpdatedAt = now
		job.UpdatedBy = completedBy
		return nil
	})
}

// UpdateJob patches descriptive fields. Commercial and lifecycle fields are
// only reachable through their dedicated operations.
func (s *JobStore) UpdateJob(id string, req *models.UpdateJobRequest, updatedBy string) (*models.Job, error) {
	return s.withJob(id, "update", func(job *models.Job) error {
		if job.Status.IsTerminal() || job.LifecycleState == models.LifecycleInvoiced {
			return &lifecycle.TerminalStateError{Status: job.Status}
		}

		if req.JobSize != "" {
			job.JobSize = req.JobSize
		}
		if req.PropertyType != "" {
			job.PropertyType = req.PropertyType
		}
		if req.RiskFlags != nil {
			job.RiskFlags = req.RiskFlags
		}
		if req.Notes != "" {
			job.Notes = req.Notes
		}
		job.UpdatedAt = s.clock()
		job.UpdatedBy = updatedBy
		return nil
	})
}

// UpdateJobStatus is the generic validated status set.
func (s *JobStore) UpdateJobStatus(id string, target models.JobStatus, updatedBy, notes string) (*models.Job, error) {
	return s.withJob(id, "update-status", func(job *models.Job) error {
		if job.Status == target {
			return nil
		}
		if err := s.transitionErr(job, target, nil); err != nil {
			return err
		}
		s.applyTransition(job, target, updatedBy, notes)
		return nil
	})
}

// GetJob returns a snapshot of one job.
func (s *JobStore) GetJob(id string) (*models.Job, error) {
	job, lock, ok := s.lookup(id)
	if !ok {
		return nil, lifecycle.ErrJobNotFound
	}
	lock.Lock()
	snapshot := cloneJob(job)
	lock.Unlock()
	return snapshot, nil
}

// ListJobs returns snapshots matching the filter, newest first. Each job is
// snapshotted under its own mutex; the list is not a point-in-time view of
// the whole store.
func (s *JobStore) ListJobs(filter *models.JobFilter) []*models.Job {
	if filter == nil {
		filter = &models.JobFilter{}
	}

	type entry struct {
		job  *models.Job
		lock *sync.Mutex
	}
	s.mu.RLock()
	entries := make([]entry, 0, len(s.jobs))
	for id, job := range s.jobs {
		entries = append(entries, entry{job: job, lock: s.jobLocks[id]})
	}
	s.mu.RUnlock()

	var out []*models.Job
	for _, e := range entries {
		e.lock.Lock()
		if matchesFilter(e.job, filter) {
			out = append(out, cloneJob(e.job))
		}
		e.lock.Unlock()
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// GetSLAStatus classifies the job's SLA health. Completed jobs always return
// the value frozen at completion.
func (s *JobStore) GetSLAStatus(id string) (models.SLAHealth, error) {
	job, lock, ok := s.lookup(id)
	if !ok {
		return "", lifecycle.ErrJobNotFound
	}
	lock.Lock()
	health := s.sla.Status(job, s.clock())
	lock.Unlock()
	return health, nil
}

// withJob runs fn against the live job under its per-job mutex, then
// reindexes and publishes on success. fn must validate fully before writing
// any field. The snapshot is taken before the per-job lock is released so
// readers never observe a half-written aggregate.
func (s *JobStore) withJob(id, operation string, fn func(job *models.Job) error) (*models.Job, error) {
	job, lock, ok := s.lookup(id)
	if !ok {
		return nil, lifecycle.ErrJobNotFound
	}

	lock.Lock()
	prevStatus := job.Status
	if err := fn(job); err != nil {
		lock.Unlock()
		s.logger.Debugf("job %s: %s rejected: %v", id, operation, err)
		return nil, err
	}
	snapshot := cloneJob(job)
	lock.Unlock()

	if snapshot.Status != prevStatus {
		s.mu.Lock()
		s.indexStatusLocked(id, prevStatus, snapshot.Status)
		s.mu.Unlock()
	}
	s.publish(snapshot, operation)
	return snapshot, nil
}

// lookup fetches the live job and its mutex. Callers must lock the mutex
// before touching any job field.
func (s *JobStore) lookup(id string) (*models.Job, *sync.Mutex, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, nil, false
	}
	return job, s.jobLocks[id], true
}

// transitionErr validates current -> target, building the context from the
// job when none is supplied.
func (s *JobStore) transitionErr(job *models.Job, target models.JobStatus, ctx *lifecycle.TransitionContext) error {
	if ctx == nil {
		ctx = lifecycle.NewTransitionContext(job)
	}
	if res := s.validator.Validate(job.Status, target, ctx); !res.Allowed {
		return &lifecycle.TransitionDeniedError{From: job.Status, To: target, Reason: res.Reason}
	}
	return nil
}

// applyTransition writes the new status, derives the coarse lifecycle state
// and appends the history entry. Callers validate first.
func (s *JobStore) applyTransition(job *models.Job, target models.JobStatus, updatedBy, notes string) {
	now := s.clock()
	job.Status = target
	job.LifecycleState = lifecycleStateFor(target, job.LifecycleState)
	job.StatusHistory = append(job.StatusHistory, models.StatusHistoryEntry{
		Status:    target,
		Timestamp: now,
		UpdatedBy: updatedBy,
		Notes:     notes,
	})
	job.UpdatedAt = now
	job.UpdatedBy = updatedBy
}

func (s *JobStore) indexStatusLocked(id string, from, to models.JobStatus) {
	if from != "" {
		if set, ok := s.byStatus[from]; ok {
			delete(set, id)
		}
	}
	set, ok := s.byStatus[to]
	if !ok {
		set = make(map[string]struct{})
		s.byStatus[to] = set
	}
	set[id] = struct{}{}
}

func (s *JobStore) publish(job *models.Job, operation string) {
	s.notifier.Publish(ChangeEvent{
		JobID:       job.JobID,
		ReferenceID: job.ReferenceID,
		Operation:   operation,
		Status:      job.Status,
		OccurredAt:  s.clock(),
	})
}

// lifecycleStateFor maps the fine-grained status to the coarse phase. The
// invoiced state is set only by GenerateInvoice and never regresses.
func lifecycleStateFor(status models.JobStatus, current models.LifecycleState) models.LifecycleState {
	if current == models.LifecycleInvoiced {
		return current
	}
	switch status {
	case models.JobStatusCrewAssigned, models.JobStatusDispatched:
		return models.LifecycleAssigned
	case models.JobStatusInProgress, models.JobStatusWorkCompleted, models.JobStatusAdminRejected:
		return models.LifecycleInProgress
	case models.JobStatusAdminVerified, models.JobStatusFinalPaymentPending,
		models.JobStatusCompleted, models.JobStatusCancelled, models.JobStatusRefunded:
		return models.LifecycleCompleted
	default:
		return models.LifecycleCreated
	}
}

func matchesFilter(job *models.Job, f *models.JobFilter) bool {
	if f.ClientID != "" && job.ClientID != f.ClientID {
		return false
	}
	if f.Status != "" && job.Status != f.Status {
		return false
	}
	if f.Urgency != "" && job.Urgency != f.Urgency {
		return false
	}
	if f.CrewID != "" {
		found := false
		for _, c := range job.CrewIDs {
			if c == f.CrewID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if !f.FromDate.IsZero() && job.CreatedAt.Before(f.FromDate) {
		return false
	}
	if !f.ToDate.IsZero() && job.CreatedAt.After(f.ToDate) {
		return false
	}
	return true
}

// cloneJob returns a snapshot so callers cannot reach the live aggregate.
func cloneJob(j *models.Job) *models.Job {
	c := *j
	c.CrewIDs = append([]string(nil), j.CrewIDs...)
	c.CrewNames = append([]string(nil), j.CrewNames...)
	c.RiskFlags = append([]string(nil), j.RiskFlags...)
	c.StatusHistory = append([]models.StatusHistoryEntry(nil), j.StatusHistory...)
	c.Photos = append([]models.JobPhoto(nil), j.Photos...)
	c.Checklist = append([]models.ChecklistItem(nil), j.Checklist...)
	if j.QuoteDetails != nil {
		q := *j.QuoteDetails
		c.QuoteDetails = &q
	}
	if j.FinalQuote != nil {
		q := *j.FinalQuote
		c.FinalQuote = &q
	}
	if j.InitialPayment != nil {
		p := *j.InitialPayment
		c.InitialPayment = &p
	}
	if j.FinalPayment != nil {
		p := *j.FinalPayment
		c.FinalPayment = &p
	}
	if j.FinalPrice != nil {
		v := *j.FinalPrice
		c.FinalPrice = &v
	}
	if j.VerifiedFinalPrice != nil {
		v := *j.VerifiedFinalPrice
		c.VerifiedFinalPrice = &v
	}
	if j.SLADeadline != nil {
		t := *j.SLADeadline
		c.SLADeadline = &t
	}
	if j.ResponseTimeMinutes != nil {
		v := *j.ResponseTimeMinutes
		c.ResponseTimeMinutes = &v
	}
	if j.CompletionTimeMinutes != nil {
		v := *j.CompletionTimeMinutes
		c.CompletionTimeMinutes = &v
	}
	if j.Cancellation != nil {
		v := *j.Cancellation
		c.Cancellation = &v
	}
	if j.DispatchedAt != nil {
		t := *j.DispatchedAt
		c.DispatchedAt = &t
	}
	if j.StartedAt != nil {
		t := *j.StartedAt
		c.StartedAt = &t
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}
