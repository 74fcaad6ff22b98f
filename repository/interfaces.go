package repository

import (
	"context"

	"clearway-backend/models"
)

// JobArchiveInterface persists job snapshots and compliance reports. The
// in-memory store stays the source of truth for live jobs; the archive is a
// write-behind copy used for audit and recovery.
type JobArchiveInterface interface {
	SaveJob(ctx context.Context, job *models.Job) error
	GetJob(ctx context.Context, jobID string) (*models.Job, error)
	GetJobsByClient(ctx context.Context, clientID string) ([]*models.Job, error)
	SaveReport(ctx context.Context, report *models.ComplianceReport) error
	GetReport(ctx context.Context, jobReferenceID string) (*models.ComplianceReport, error)
}

// CrewRepositoryInterface defines the contract for the crew registry
type CrewRepositoryInterface interface {
	CreateCrew(ctx context.Context, crew *models.CrewMember) (*models.CrewMember, error)
	GetCrew(ctx context.Context, crewID string) (*models.CrewMember, error)
	ListCrew(ctx context.Context, filter *models.CrewFilter) ([]*models.CrewMember, error)
	UpdateCrew(ctx context.Context, crewID string, crew *models.CrewMember) (*models.CrewMember, error)
}

// RepositoryContainerInterface defines the contract for the repository container
type RepositoryContainerInterface interface {
	GetJobArchive() JobArchiveInterface
	GetCrewRepository() CrewRepositoryInterface
}
