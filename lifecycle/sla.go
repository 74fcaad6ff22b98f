package lifecycle

import (
	"time"

	"clearway-backend/models"
)

// SLA class durations from dispatch.
var slaDurations = map[models.SLAType]time.Duration{
	models.SLAType24h:  24 * time.Hour,
	models.SLAType48h:  48 * time.Hour,
	models.SLAType168h: 168 * time.Hour,
}

const (
	slaWarningWindow  = 12 * time.Hour
	slaCriticalWindow = 6 * time.Hour
)

// SLACalculator computes deadlines, durations and breach state from
// timestamps and an SLA class. All methods are pure.
type SLACalculator struct{}

func NewSLACalculator() *SLACalculator {
	return &SLACalculator{}
}

// Deadline is dispatch time plus the SLA class duration. Unknown classes
// fall back to 48h.
func (c *SLACalculator) Deadline(dispatchedAt time.Time, slaType models.SLAType) time.Time {
	d, ok := slaDurations[slaType]
	if !ok {
		d = slaDurations[models.SLAType48h]
	}
	return dispatchedAt.Add(d)
}

// ResponseMinutes is the whole-minute delta between creation and dispatch.
func (c *SLACalculator) ResponseMinutes(createdAt, dispatchedAt time.Time) int {
	return int(dispatchedAt.Sub(createdAt).Minutes())
}

// CompletionMinutes is the whole-minute delta between start and completion.
func (c *SLACalculator) CompletionMinutes(startedAt, completedAt time.Time) int {
	return int(completedAt.Sub(startedAt).Minutes())
}

// Breached reports true iff the reference instant is strictly after the
// deadline.
func (c *SLACalculator) Breached(deadline, at time.Time) bool {
	return at.After(deadline)
}

// Status classifies a job's SLA health at the given instant. Completed jobs
// report only the frozen outcome (breached or safe); warning/critical apply
// to in-flight jobs only.
func (c *SLACalculator) Status(job *models.Job, now time.Time) models.SLAHealth {
	if job.CompletedAt != nil {
		if job.SLABreached {
			return models.SLAHealthBreached
		}
		return models.SLAHealthSafe
	}

	if job.SLADeadline == nil {
		return models.SLAHealthSafe
	}

	if job.SLABreached || now.After(*job.SLADeadline) {
		return models.SLAHealthBreached
	}

	remaining := job.SLADeadline.Sub(now)
	switch {
	case remaining < slaCriticalWindow:
		return models.SLAHealthCritical
	case remaining < slaWarningWindow:
		return models.SLAHealthWarning
	default:
		return models.SLAHealthSafe
	}
}
