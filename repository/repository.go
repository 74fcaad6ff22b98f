package repository

import (
	"clearway-backend/dal"
	"clearway-backend/models"
	"clearway-backend/utils/logger"
)

// Repository bundles every persistence collaborator.
type Repository struct {
	jobArchive JobArchiveInterface
	crewRepo   CrewRepositoryInterface
}

func NewRepository(db dal.DatabaseClientInterface, cfg *models.Config, log logger.Logger) *Repository {
	return &Repository{
		jobArchive: NewJobArchive(db, cfg, log),
		crewRepo:   NewCrewRepository(db, cfg, log),
	}
}

func (r *Repository) GetJobArchive() JobArchiveInterface {
	return r.jobArchive
}

func (r *Repository) GetCrewRepository() CrewRepositoryInterface {
	return r.crewRepo
}
