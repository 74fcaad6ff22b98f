package services

import (
	"context"

	"clearway-backend/models"
)

// JobServiceInterface orchestrates the job lifecycle on top of the live
// store, with write-behind archiving when persistence is enabled.
type JobServiceInterface interface {
	CreateJob(ctx context.Context, req *models.CreateJobRequest, createdBy string) (*models.Job, error)
	GetJob(ctx context.Context, id string) (*models.Job, error)
	ListJobs(ctx context.Context, filter *models.JobFilter) ([]*models.Job, error)
	UpdateJob(ctx context.Context, id string, req *models.UpdateJobRequest, updatedBy string) (*models.Job, error)

	ProvideQuote(ctx context.Context, id string, req *models.ProvideQuoteRequest, quotedBy string) (*models.Job, error)
	ApproveQuote(ctx context.Context, id, approvedBy string) (*models.Job, error)
	RejectQuote(ctx context.Context, id, reason, rejectedBy string) (*models.Job, error)

	ProcessDeposit(ctx context.Context, id string, req *models.PaymentRequest, paidBy string) (*models.Job, error)
	ProcessFinalPayment(ctx context.Context, id string, req *models.PaymentRequest, paidBy string) (*models.Job, error)

	AssignCrew(ctx context.Context, id string, req *models.AssignCrewRequest, assignedBy string) (*models.Job, error)
	DispatchJob(ctx context.Context, id, dispatchedBy string) (*models.Job, error)
	StartJob(ctx context.Context, id, startedBy string) (*models.Job, error)
	CompleteJob(ctx context.Context, id, completedBy string) (*models.Job, error)
	VerifyJob(ctx context.Context, id string, req *models.VerifyJobRequest, verifiedBy string) (*models.Job, error)
	GenerateInvoice(ctx context.Context, id, generatedBy string) (*models.Job, error)
	CancelJob(ctx context.Context, id string, req *models.CancelJobRequest, cancelledBy string, role models.ActorRole) (*models.Job, error)

	AddPhoto(ctx context.Context, id string, req *models.AddPhotoRequest, uploadedBy string, role models.ActorRole) (*models.Job, error)
	CompleteChecklistItem(ctx context.Context, id string, index int, completedBy string) (*models.Job, error)
	GetSLAStatus(ctx context.Context, id string) (models.SLAHealth, error)
	GenerateReport(ctx context.Context, id string) (*models.ComplianceReport, error)
}

// CrewServiceInterface manages the crew registry.
type CrewServiceInterface interface {
	CreateCrew(ctx context.Context, req *models.CreateCrewRequest, createdBy string) (*models.CrewMember, error)
	GetCrew(ctx context.Context, crewID string) (*models.CrewMember, error)
	ListCrew(ctx context.Context, filter *models.CrewFilter) ([]*models.CrewMember, error)
	UpdateCrew(ctx context.Context, crewID string, req *models.UpdateCrewRequest) (*models.CrewMember, error)
}

// ServiceContainerInterface exposes every service to the controllers.
type ServiceContainerInterface interface {
	GetJobService() JobServiceInterface
	GetCrewService() CrewServiceInterface
}
