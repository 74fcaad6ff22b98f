package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clearway-backend/dal"
	"clearway-backend/models"
	"clearway-backend/utils"
	"clearway-backend/utils/logger"
)

type CrewRepository struct {
	db     dal.DatabaseClientInterface
	config *models.Config
	logger logger.Logger
}

func NewCrewRepository(db dal.DatabaseClientInterface, cfg *models.Config, log logger.Logger) *CrewRepository {
	return &CrewRepository{
		db:     db,
		config: cfg,
		logger: log,
	}
}

func (r *CrewRepository) table() string {
	return r.config.DynamoDBTablePrefix + "_crew"
}

func (r *CrewRepository) CreateCrew(ctx context.Context, crew *models.CrewMember) (*models.CrewMember, error) {
	now := time.Now()
	crew.CrewID = utils.GenerateUUID()
	crew.CreatedAt = now
	crew.UpdatedAt = now

	if err := r.db.PutItem(ctx, r.table(), crew); err != nil {
		r.logger.Errorf("Failed to create crew member: %v", err)
		return nil, fmt.Errorf("failed to create crew member: %w", err)
	}

	r.logger.Infof("Crew member created: %s", crew.CrewID)
	return crew, nil
}

func (r *CrewRepository) GetCrew(ctx context.Context, crewID string) (*models.CrewMember, error) {
	if crewID == "" {
		return nil, errors.New("crew id is required")
	}

	crew := models.CrewMember{}
	qc := models.QueryConfig{
		TableName: r.table(),
		KeyName:   "crewID",
		KeyValue:  crewID,
		KeyType:   models.StringType,
	}
	if err := r.db.GetItem(ctx, qc, &crew); err != nil {
		return nil, fmt.Errorf("failed to get crew member: %w", err)
	}
	if crew.CrewID == "" {
		return nil, errors.New("crew member not found")
	}
	return &crew, nil
}

func (r *CrewRepository) ListCrew(ctx context.Context, filter *models.CrewFilter) ([]*models.CrewMember, error) {
	var members []*models.CrewMember
	if err := r.db.Scan(ctx, r.table(), &members); err != nil {
		return nil, fmt.Errorf("failed to list crew: %w", err)
	}
	if filter == nil {
		return members, nil
	}

	filtered := members[:0]
	for _, m := range members {
		if filter.IsActive != nil && m.IsActive != *filter.IsActive {
			continue
		}
		if filter.Skill != "" && !hasSkill(m, filter.Skill) {
			continue
		}
		filtered = append(filtered, m)
	}
	return filtered, nil
}

func (r *CrewRepository) UpdateCrew(ctx context.Context, crewID string, crew *models.CrewMember) (*models.CrewMember, error) {
	if crewID == "" {
		return nil, errors.New("crew id is required")
	}

	crew.CrewID = crewID
	crew.UpdatedAt = time.Now()
	if err := r.db.PutItem(ctx, r.table(), crew); err != nil {
		r.logger.Errorf("Failed to update crew member %s: %v", crewID, err)
		return nil, fmt.Errorf("failed to update crew member: %w", err)
	}
	return crew, nil
}

func hasSkill(m *models.CrewMember, skill string) bool {
	for _, s := range m.Skills {
		if s == skill {
			return true
		}
	}
	return false
}
