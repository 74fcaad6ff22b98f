package worker

import (
	"clearway-backend/models"
)

// inFlightStatuses are the statuses a sweep inspects. Completed jobs keep the
// SLA outcome frozen at completion and are never re-evaluated.
var inFlightStatuses = []models.JobStatus{
	models.JobStatusDispatched,
	models.JobStatusInProgress,
	models.JobStatusWorkCompleted,
}

// sweepSLAs walks the in-flight jobs and logs every one at risk. Subscribers
// on the store see mutations as they happen; the sweep is the safety net for
// jobs nobody is touching.
func (s *Service) sweepSLAs() {
	// Push out any change events still sitting in a coalescing window so the
	// archive never lags by more than one sweep.
	s.jobStore.Notifier().Flush()

	var warned, breached int

	for _, status := range inFlightStatuses {
		jobs := s.jobStore.ListJobs(&models.JobFilter{Status: status})
		for _, job := range jobs {
			if job.SLADeadline == nil {
				continue
			}
			health, err := s.jobStore.GetSLAStatus(job.JobID)
			if err != nil {
				continue
			}

			switch health {
			case models.SLAHealthBreached:
				breached++
				s.logger.Warnf("SLA breached: job %s (%s) deadline was %s", job.ReferenceID, job.Status, job.SLADeadline.Format("2006-01-02 15:04:05"))
			case models.SLAHealthCritical:
				warned++
				s.logger.Warnf("SLA critical: job %s (%s) deadline %s", job.ReferenceID, job.Status, job.SLADeadline.Format("2006-01-02 15:04:05"))
			case models.SLAHealthWarning:
				warned++
				s.logger.Infof("SLA warning: job %s (%s) deadline %s", job.ReferenceID, job.Status, job.SLADeadline.Format("2006-01-02 15:04:05"))
			}
		}
	}

	if warned > 0 || breached > 0 {
		s.logger.Infof("SLA sweep finished: %d at risk, %d breached", warned, breached)
	} else {
		s.logger.Debugf("SLA sweep finished: all in-flight jobs healthy")
	}
}
