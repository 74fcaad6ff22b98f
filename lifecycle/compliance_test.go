package lifecycle

import (
	"testing"
	"time"

	"clearway-backend/models"

	"github.com/stretchr/testify/assert"
)

func reportableJob() *models.Job {
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	started := created.Add(2 * time.Hour)
	completed := started.Add(3 * time.Hour)
	return &models.Job{
		ReferenceID:    "CW-TEST1234",
		CrewIDs:        []string{"crew-1", "crew-2"},
		Status:         models.JobStatusCompleted,
		LifecycleState: models.LifecycleCompleted,
		CreatedAt:      created,
		StartedAt:      &started,
		CompletedAt:    &completed,
		Photos: []models.JobPhoto{
			{Tag: models.PhotoTagBefore, UploaderRole: string(models.RoleCrew), Geo: &models.GeoStamp{Latitude: 51.5, Longitude: -0.1}},
			{Tag: models.PhotoTagAfter, UploaderRole: string(models.RoleCrew)},
		},
		Checklist: []models.ChecklistItem{
			{Task: "walkthrough", Completed: true},
			{Task: "clearance", Completed: true},
			{Task: "disposal", Completed: false},
		},
	}
}

func newTestGenerator() *ReportGenerator {
	n := 0
	return NewReportGenerator(func() string {
		n++
		return "report-id"
	})
}

func TestGenerateReport(t *testing.T) {
	g := newTestGenerator()
	now := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)

	report, err := g.Generate(reportableJob(), now)
	assert.NoError(t, err)
	assert.True(t, report.Locked)
	assert.Equal(t, "CW-TEST1234", report.JobReferenceID)
	assert.Equal(t, []string{"crew-1", "crew-2"}, report.CrewIDs)
	assert.Equal(t, now, report.GeneratedAt)
	assert.Equal(t, 1, report.EvidenceSummary.BeforePhotos)
	assert.Equal(t, 1, report.EvidenceSummary.AfterPhotos)
	assert.Equal(t, 1, report.EvidenceSummary.GeoStamped)
	assert.Equal(t, 3, report.EvidenceSummary.ChecklistTotal)
	assert.Equal(t, 2, report.EvidenceSummary.ChecklistDone)
	assert.Equal(t, noRiskDeclaration, report.RiskDeclaration)
}

func TestGenerateReportRequiresFinishedJob(t *testing.T) {
	g := newTestGenerator()

	job := reportableJob()
	job.Status = models.JobStatusInProgress
	job.LifecycleState = models.LifecycleInProgress

	_, err := g.Generate(job, time.Now())
	assert.Error(t, err)
	_, ok := err.(*InvalidStateError)
	assert.True(t, ok)
}

func TestGenerateReportForVerifiedWork(t *testing.T) {
	g := newTestGenerator()

	// Admin-verified but not yet paid out still qualifies for reporting.
	job := reportableJob()
	job.Status = models.JobStatusAdminVerified

	_, err := g.Generate(job, time.Now())
	assert.NoError(t, err)
}

func TestGenerateReportEvidenceRules(t *testing.T) {
	g := newTestGenerator()

	noBefore := reportableJob()
	noBefore.Photos = noBefore.Photos[1:]
	_, err := g.Generate(noBefore, time.Now())
	missing, ok := err.(*MissingEvidenceError)
	assert.True(t, ok)
	assert.Contains(t, missing.Missing, "before photo")

	// A client-submitted before photo is not clearance evidence.
	clientBefore := reportableJob()
	clientBefore.Photos[0].UploaderRole = string(models.RoleClient)
	_, err = g.Generate(clientBefore, time.Now())
	assert.Error(t, err)

	noAfter := reportableJob()
	noAfter.Photos = noAfter.Photos[:1]
	_, err = g.Generate(noAfter, time.Now())
	missing, ok = err.(*MissingEvidenceError)
	assert.True(t, ok)
	assert.Contains(t, missing.Missing, "after photo")
}

func TestRiskDeclaration(t *testing.T) {
	g := newTestGenerator()

	job := reportableJob()
	job.RiskFlags = []string{"hoarding", "biohazard", "unknown-flag"}

	report, err := g.Generate(job, time.Now())
	assert.NoError(t, err)
	// Clauses render sorted, unknown flags are ignored.
	assert.Equal(t,
		"This clearance involved biological hazards requiring certified handling; hoarded materials requiring staged removal.",
		report.RiskDeclaration)
}
