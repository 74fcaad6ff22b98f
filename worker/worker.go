package worker

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"clearway-backend/dal"
	"clearway-backend/infrastructure"
	"clearway-backend/models"
	"clearway-backend/store"
	"clearway-backend/utils/logger"

	"github.com/google/uuid"
	"github.com/robfig/cron"
)

// Service is the background worker: it provisions the archive tables once at
// startup (when the archive is enabled) and sweeps SLA health on a cron
// schedule.
type Service struct {
	config   *models.Config
	logger   logger.Logger
	jobStore *store.JobStore
	db       dal.DatabaseClientInterface

	cronJob *cron.Cron
	lock    *LockManager
	ownerID string

	mu        sync.Mutex
	isRunning bool
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewService builds the worker. db may be nil when the archive is disabled;
// table provisioning is then skipped.
func NewService(ctx context.Context, cfg *models.Config, log logger.Logger, jobStore *store.JobStore, db dal.DatabaseClientInterface) (*Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if log == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if jobStore == nil {
		return nil, fmt.Errorf("job store cannot be nil")
	}

	hostname := os.Getenv("HOSTNAME")
	if hostname == "" {
		hostname = "localhost"
	}
	ownerID := fmt.Sprintf("worker-%s-%s", hostname, uuid.New().String()[:8])

	ctx, cancel := context.WithCancel(ctx)
	return &Service{
		config:   cfg,
		logger:   log,
		jobStore: jobStore,
		db:       db,
		cronJob:  cron.New(),
		lock:     NewLockManager(fmt.Sprintf("/tmp/clearway-worker-%s.lock", cfg.AppEnv), 30*time.Minute, cfg.AppEnv),
		ownerID:  ownerID,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Start provisions tables, registers the SLA sweep and starts the scheduler.
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("worker is already running")
	}

	if s.db != nil && s.config.ArchiveEnabled {
		if err := s.ensureTables(); err != nil {
			return fmt.Errorf("failed to provision archive tables: %w", err)
		}
	}

	schedule := s.config.SLASweepSchedule
	if schedule == "" {
		schedule = "0 */5 * * * *"
	}
	if err := s.cronJob.AddFunc(schedule, s.sweepSLAs); err != nil {
		return fmt.Errorf("failed to add SLA sweep job: %w", err)
	}

	s.cronJob.Start()
	s.isRunning = true
	s.logger.Infof("Worker %s started, SLA sweep schedule: %s", s.ownerID, schedule)
	return nil
}

// StartInBackground starts the worker without blocking the caller.
func (s *Service) StartInBackground() error {
	if err := s.Start(); err != nil {
		return err
	}
	go func() {
		<-s.ctx.Done()
		s.Stop()
	}()
	return nil
}

// Stop halts the scheduler.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return
	}
	s.cronJob.Stop()
	s.cancel()
	s.isRunning = false
	s.logger.Info("Worker stopped")
}

// ensureTables creates each configured table when it does not exist yet. The
// file lock keeps concurrent instances from racing the creation.
func (s *Service) ensureTables() error {
	lockInfo, err := s.lock.AcquireLock(s.ownerID)
	if err != nil {
		s.logger.Warnf("Skipping table provisioning, lock unavailable: %v", err)
		return nil
	}
	defer func() {
		if err := s.lock.ReleaseLock(lockInfo); err != nil {
			s.logger.Warnf("Failed to release worker lock: %v", err)
		}
	}()

	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	for _, base := range s.config.Tables {
		tableName := s.config.DynamoDBTablePrefix + "_" + base
		_, err := s.db.DescribeTable(ctx, tableName)
		if err == nil {
			s.logger.Debugf("Table %s already exists", tableName)
			continue
		}
		if !dal.IsAWSErrorCode(err, "ResourceNotFoundException") {
			return fmt.Errorf("failed to describe table %s: %w", tableName, err)
		}

		input, err := infrastructure.GetTables(tableName)
		if err != nil {
			return fmt.Errorf("no schema for table %s: %w", tableName, err)
		}
		if err := s.db.CreateTable(ctx, input); err != nil {
			// Another instance won the race; that is fine.
			if dal.IsAWSErrorCode(err, "ResourceInUseException") {
				continue
			}
			return fmt.Errorf("failed to create table %s: %w", tableName, err)
		}
		s.logger.Infof("Created table %s", tableName)
	}
	return nil
}
