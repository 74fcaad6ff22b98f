package services

import (
	"context"
	"errors"
	"strings"

	"clearway-backend/models"
	"clearway-backend/repository"
	"clearway-backend/utils/logger"
)

type CrewService struct {
	crewRepo repository.CrewRepositoryInterface
	logger   logger.Logger
}

func NewCrewService(crewRepo repository.CrewRepositoryInterface, log logger.Logger) *CrewService {
	return &CrewService{
		crewRepo: crewRepo,
		logger:   log,
	}
}

func (s *CrewService) CreateCrew(ctx context.Context, req *models.CreateCrewRequest, createdBy string) (*models.CrewMember, error) {
	if err := validateCreateCrew(req); err != nil {
		return nil, err
	}

	member := &models.CrewMember{
		Name:      strings.TrimSpace(req.Name),
		Phone:     req.Phone,
		Skills:    req.Skills,
		IsActive:  true,
		CreatedBy: createdBy,
	}
	return s.crewRepo.CreateCrew(ctx, member)
}

func validateCreateCrew(req *models.CreateCrewRequest) error {
	if req == nil {
		return errors.New("crew request is required")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return errors.New("crew name is required")
	}
	if len(name) < 2 || len(name) > 100 {
		return errors.New("crew name must be between 2 and 100 characters")
	}
	return nil
}

func (s *CrewService) GetCrew(ctx context.Context, crewID string) (*models.CrewMember, error) {
	if strings.TrimSpace(crewID) == "" {
		return nil, errors.New("crew id is required")
	}
	return s.crewRepo.GetCrew(ctx, crewID)
}

func (s *CrewService) ListCrew(ctx context.Context, filter *models.CrewFilter) ([]*models.CrewMember, error) {
	return s.crewRepo.ListCrew(ctx, filter)
}

func (s *CrewService) UpdateCrew(ctx context.Context, crewID string, req *models.UpdateCrewRequest) (*models.CrewMember, error) {
	if req == nil {
		return nil, errors.New("update request is required")
	}

	existing, err := s.crewRepo.GetCrew(ctx, crewID)
	if err != nil {
		return nil, err
	}

	updated := *existing
	if req.Name != "" {
		if len(req.Name) < 2 || len(req.Name) > 100 {
			return nil, errors.New("crew name must be between 2 and 100 characters")
		}
		updated.Name = req.Name
	}
	if req.Phone != "" {
		updated.Phone = req.Phone
	}
	if req.Skills != nil {
		updated.Skills = req.Skills
	}
	if req.IsActive != nil {
		updated.IsActive = *req.IsActive
	}
	return s.crewRepo.UpdateCrew(ctx, crewID, &updated)
}
