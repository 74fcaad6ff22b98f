package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"clearway-backend/lifecycle"
	"clearway-backend/models"
	"clearway-backend/repository"
	"clearway-backend/store"
	"clearway-backend/utils"
	"clearway-backend/utils/logger"
)

// JobService fronts the in-memory store. The store is authoritative; the
// archive, when configured, receives write-behind snapshots driven by the
// store's change events.
type JobService struct {
	store    *store.JobStore
	archive  repository.JobArchiveInterface
	crewRepo repository.CrewRepositoryInterface
	reports  *lifecycle.ReportGenerator
	now      func() time.Time
	logger   logger.Logger
}

func NewJobService(jobStore *store.JobStore, archive repository.JobArchiveInterface, crewRepo repository.CrewRepositoryInterface, log logger.Logger) *JobService {
	s := &JobService{
		store:    jobStore,
		archive:  archive,
		crewRepo: crewRepo,
		reports:  lifecycle.NewReportGenerator(utils.GenerateUUID),
		now:      time.Now,
		logger:   log,
	}
	if archive != nil {
		jobStore.Notifier().Subscribe(s.archiveChanges)
	}
	return s
}

// archiveChanges flushes changed jobs to the archive. Events may be coalesced,
// so only the latest snapshot per job is written.
func (s *JobService) archiveChanges(events []store.ChangeEvent) {
	seen := make(map[string]struct{}, len(events))
	for _, ev := range events {
		if _, ok := seen[ev.JobID]; ok {
			continue
		}
		seen[ev.JobID] = struct{}{}

		job, err := s.store.GetJob(ev.JobID)
		if err != nil {
			continue
		}
		if err := s.archive.SaveJob(context.Background(), job); err != nil {
			s.logger.Warnf("archive write-behind failed for job %s: %v", ev.JobID, err)
		}
	}
}

func (s *JobService) CreateJob(ctx context.Context, req *models.CreateJobRequest, createdBy string) (*models.Job, error) {
	if err := validateCreateJob(req); err != nil {
		return nil, err
	}
	return s.store.CreateJob(req, createdBy)
}

func validateCreateJob(req *models.CreateJobRequest) error {
	if req == nil {
		return errors.New("job request is required")
	}
	if strings.TrimSpace(req.ClientID) == "" {
		return errors.New("client ID is required")
	}
	if strings.TrimSpace(req.ServiceType) == "" {
		return errors.New("service type is required")
	}
	if req.Urgency != models.UrgencyEmergency && req.Urgency != models.UrgencyStandard {
		return errors.New("urgency must be emergency or standard")
	}
	if req.EstimatedValue < 0 {
		return errors.New("estimated value cannot be negative")
	}
	if len(req.Notes) > 1000 {
		return errors.New("notes must be less than 1000 characters")
	}
	return nil
}

func (s *JobService) GetJob(ctx context.Context, id string) (*models.Job, error) {
	return s.store.GetJob(id)
}

func (s *JobService) ListJobs(ctx context.Context, filter *models.JobFilter) ([]*models.Job, error) {
	return s.store.ListJobs(filter), nil
}

func (s *JobService) UpdateJob(ctx context.Context, id string, req *models.UpdateJobRequest, updatedBy string) (*models.Job, error) {
	if req == nil {
		return nil, errors.New("update request is required")
	}
	if len(req.Notes) > 1000 {
		return nil, errors.New("notes must be less than 1000 characters")
	}
	return s.store.UpdateJob(id, req, updatedBy)
}

func (s *JobService) ProvideQuote(ctx context.Context, id string, req *models.ProvideQuoteRequest, quotedBy string) (*models.Job, error) {
	if req == nil || req.QuotedAmount <= 0 {
		return nil, errors.New("quoted amount must be positive")
	}
	if req.DepositAmount < 0 || req.DepositAmount > req.QuotedAmount {
		return nil, errors.New("deposit must be between zero and the quoted amount")
	}
	return s.store.ProvideQuote(id, req, quotedBy)
}

func (s *JobService) ApproveQuote(ctx context.Context, id, approvedBy string) (*models.Job, error) {
	return s.store.ApproveQuote(id, approvedBy)
}

func (s *JobService) RejectQuote(ctx context.Context, id, reason, rejectedBy string) (*models.Job, error) {
	if strings.TrimSpace(reason) == "" {
		reason = "quote rejected by client"
	}
	return s.store.RejectQuote(id, reason, rejectedBy)
}

func (s *JobService) ProcessDeposit(ctx context.Context, id string, req *models.PaymentRequest, paidBy string) (*models.Job, error) {
	if req == nil || req.Amount <= 0 {
		return nil, errors.New("payment amount must be positive")
	}
	return s.store.ProcessPayment(id, req, paidBy)
}

func (s *JobService) ProcessFinalPayment(ctx context.Context, id string, req *models.PaymentRequest, paidBy string) (*models.Job, error) {
	if req == nil || req.Amount <= 0 {
		return nil, errors.New("payment amount must be positive")
	}
	return s.store.ProcessFinalPayment(id, req, paidBy)
}

// AssignCrew checks the crew registry before the store takes the assignment.
// Without a registry (archive disabled) the IDs are taken as given.
func (s *JobService) AssignCrew(ctx context.Context, id string, req *models.AssignCrewRequest, assignedBy string) (*models.Job, error) {
	if req == nil || len(req.CrewIDs) == 0 {
		return nil, errors.New("at least one crew member is required")
	}

	names := req.CrewNames
	if s.crewRepo != nil {
		names = make([]string, 0, len(req.CrewIDs))
		for _, crewID := range req.CrewIDs {
			member, err := s.crewRepo.GetCrew(ctx, crewID)
			if err != nil {
				return nil, errors.New("unknown crew member: " + crewID)
			}
			if !member.IsActive {
				return nil, errors.New("crew member is inactive: " + crewID)
			}
			names = append(names, member.Name)
		}
	}
	return s.store.AssignCrew(id, req.CrewIDs, names, assignedBy)
}

func (s *JobService) DispatchJob(ctx context.Context, id, dispatchedBy string) (*models.Job, error) {
	return s.store.DispatchJob(id, dispatchedBy)
}

func (s *JobService) StartJob(ctx context.Context, id, startedBy string) (*models.Job, error) {
	return s.store.StartJob(id, startedBy)
}

func (s *JobService) CompleteJob(ctx context.Context, id, completedBy string) (*models.Job, error) {
	return s.store.CompleteJob(id, completedBy)
}

func (s *JobService) VerifyJob(ctx context.Context, id string, req *models.VerifyJobRequest, verifiedBy string) (*models.Job, error) {
	if req == nil || req.VerifiedFinalPrice < 0 {
		return nil, errors.New("verified price cannot be negative")
	}
	return s.store.VerifyJob(id, req.VerifiedFinalPrice, verifiedBy)
}

func (s *JobService) GenerateInvoice(ctx context.Context, id, generatedBy string) (*models.Job, error) {
	return s.store.GenerateInvoice(id, generatedBy)
}

func (s *JobService) CancelJob(ctx context.Context, id string, req *models.CancelJobRequest, cancelledBy string, role models.ActorRole) (*models.Job, error) {
	reason := "cancelled"
	if req != nil && strings.TrimSpace(req.Reason) != "" {
		reason = req.Reason
	}
	return s.store.CancelJob(id, reason, cancelledBy, role)
}

func (s *JobService) AddPhoto(ctx context.Context, id string, req *models.AddPhotoRequest, uploadedBy string, role models.ActorRole) (*models.Job, error) {
	if req == nil || strings.TrimSpace(req.URL) == "" {
		return nil, errors.New("photo URL is required")
	}
	if req.Tag != models.PhotoTagBefore && req.Tag != models.PhotoTagAfter {
		return nil, errors.New("photo tag must be before or after")
	}
	return s.store.AddPhoto(id, req, uploadedBy, role)
}

func (s *JobService) CompleteChecklistItem(ctx context.Context, id string, index int, completedBy string) (*models.Job, error) {
	return s.store.CompleteChecklistItem(id, index, completedBy)
}

func (s *JobService) GetSLAStatus(ctx context.Context, id string) (models.SLAHealth, error) {
	return s.store.GetSLAStatus(id)
}

// GenerateReport builds the compliance report from the job's current
// snapshot and archives it when persistence is enabled. A cached archived
// report for the same job is returned as-is; reports are immutable.
func (s *JobService) GenerateReport(ctx context.Context, id string) (*models.ComplianceReport, error) {
	job, err := s.store.GetJob(id)
	if err != nil {
		return nil, err
	}

	if s.archive != nil {
		if existing, err := s.archive.GetReport(ctx, job.ReferenceID); err == nil && existing != nil {
			return existing, nil
		}
	}

	report, err := s.reports.Generate(job, s.now())
	if err != nil {
		return nil, err
	}

	if s.archive != nil {
		if err := s.archive.SaveReport(ctx, report); err != nil {
			s.logger.Warnf("failed to archive report for job %s: %v", job.ReferenceID, err)
		}
	}
	return report, nil
}
