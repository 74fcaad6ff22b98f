package services

import (
	"clearway-backend/models"
	"clearway-backend/repository"
	"clearway-backend/store"
	"clearway-backend/utils/logger"
)

// Service implements ServiceContainerInterface
type Service struct {
	jobService  JobServiceInterface
	crewService CrewServiceInterface
}

// NewService wires the services. repoContainer may be nil when the archive is
// disabled; the job service then runs purely in-memory and the crew service
// is unavailable.
func NewService(
	jobStore *store.JobStore,
	repoContainer repository.RepositoryContainerInterface,
	log logger.Logger,
	config *models.Config,
) ServiceContainerInterface {
	var archive repository.JobArchiveInterface
	var crewRepo repository.CrewRepositoryInterface
	if repoContainer != nil {
		archive = repoContainer.GetJobArchive()
		crewRepo = repoContainer.GetCrewRepository()
	}

	s := &Service{
		jobService: NewJobService(jobStore, archive, crewRepo, log),
	}
	if crewRepo != nil {
		s.crewService = NewCrewService(crewRepo, log)
	}
	return s
}

// GetJobService returns the job service interface
func (s *Service) GetJobService() JobServiceInterface {
	return s.jobService
}

// GetCrewService returns the crew service interface; nil when persistence is
// disabled.
func (s *Service) GetCrewService() CrewServiceInterface {
	return s.crewService
}
