package repository

import (
	"context"
	"errors"
	"fmt"

	"clearway-backend/dal"
	"clearway-backend/models"
	"clearway-backend/utils/logger"
)

type JobArchive struct {
	db     dal.DatabaseClientInterface
	config *models.Config
	logger logger.Logger
}

func NewJobArchive(db dal.DatabaseClientInterface, cfg *models.Config, log logger.Logger) *JobArchive {
	return &JobArchive{
		db:     db,
		config: cfg,
		logger: log,
	}
}

func (r *JobArchive) jobsTable() string {
	return r.config.DynamoDBTablePrefix + "_jobs"
}

func (r *JobArchive) reportsTable() string {
	return r.config.DynamoDBTablePrefix + "_reports"
}

// SaveJob writes the full job snapshot. Last write wins; the live store is
// authoritative, so stale archive rows only matter for audit queries.
func (r *JobArchive) SaveJob(ctx context.Context, job *models.Job) error {
	if job == nil || job.JobID == "" {
		return errors.New("job snapshot is required")
	}

	if err := r.db.PutItem(ctx, r.jobsTable(), job); err != nil {
		r.logger.Errorf("Failed to archive job %s: %v", job.JobID, err)
		return fmt.Errorf("failed to archive job: %w", err)
	}
	r.logger.Debugf("Archived job %s (%s)", job.JobID, job.Status)
	return nil
}

func (r *JobArchive) GetJob(ctx context.Context, jobID string) (*models.Job, error) {
	if jobID == "" {
		return nil, errors.New("job id is required")
	}

	job := models.Job{}
	qc := models.QueryConfig{
		TableName: r.jobsTable(),
		KeyName:   "jobID",
		KeyValue:  jobID,
		KeyType:   models.StringType,
	}
	if err := r.db.GetItem(ctx, qc, &job); err != nil {
		return nil, fmt.Errorf("failed to get archived job: %w", err)
	}
	if job.JobID == "" {
		return nil, errors.New("job not found")
	}
	return &job, nil
}

func (r *JobArchive) GetJobsByClient(ctx context.Context, clientID string) ([]*models.Job, error) {
	var jobs []*models.Job
	err := r.db.QueryByIndex(ctx, r.jobsTable(), "clientID-index", "clientID", clientID, &jobs)
	if err != nil {
		return nil, fmt.Errorf("failed to query archived jobs by client: %w", err)
	}
	return jobs, nil
}

// SaveReport archives a generated compliance report. Reports are immutable,
// so a PutItem per report id can never clobber newer data.
func (r *JobArchive) SaveReport(ctx context.Context, report *models.ComplianceReport) error {
	if report == nil || report.ReportID == "" {
		return errors.New("report is required")
	}

	if err := r.db.PutItem(ctx, r.reportsTable(), report); err != nil {
		r.logger.Errorf("Failed to archive report %s: %v", report.ReportID, err)
		return fmt.Errorf("failed to archive report: %w", err)
	}
	return nil
}

func (r *JobArchive) GetReport(ctx context.Context, jobReferenceID string) (*models.ComplianceReport, error) {
	report := models.ComplianceReport{}
	qc := models.QueryConfig{
		TableName: r.reportsTable(),
		IndexName: "jobReferenceID-index",
		KeyName:   "jobReferenceID",
		KeyValue:  jobReferenceID,
		KeyType:   models.StringType,
	}
	if err := r.db.GetItem(ctx, qc, &report); err != nil {
		return nil, fmt.Errorf("failed to get archived report: %w", err)
	}
	if report.ReportID == "" {
		return nil, errors.New("report not found")
	}
	return &report, nil
}
