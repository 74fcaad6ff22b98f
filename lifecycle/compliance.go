package lifecycle

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"clearway-backend/models"
)

// riskSentences maps each known risk flag to its declaration clause.
var riskSentences = map[string]string{
	"biohazard":    "biological hazards requiring certified handling",
	"hoarding":     "hoarded materials requiring staged removal",
	"fire-damage":  "fire-damaged structures and residues",
	"flood-damage": "flood-damaged materials and standing moisture",
	"structural":   "compromised structural elements",
	"asbestos":     "suspected asbestos-containing materials",
}

const noRiskDeclaration = "No special risks were declared or encountered during this clearance."

// ReportGenerator derives an immutable audit report from a finished job's
// timeline, photos and checklist.
type ReportGenerator struct {
	newID func() string
}

func NewReportGenerator(newID func() string) *ReportGenerator {
	return &ReportGenerator{newID: newID}
}

// Generate builds the compliance report. It returns InvalidStateError unless
// the job's lifecycle is completed or invoiced (or the work stands
// admin-verified), and MissingEvidenceError unless the job carries at least
// one crew-taken before photo and one after photo. The returned report is
// locked and must never be mutated.
func (g *ReportGenerator) Generate(job *models.Job, now time.Time) (*models.ComplianceReport, error) {
	if !reportableState(job) {
		return nil, &InvalidStateError{State: job.LifecycleState}
	}

	before := 0
	after := 0
	geoStamped := 0
	for _, p := range job.Photos {
		// Client-submitted photos do not count as clearance evidence.
		if p.Tag == models.PhotoTagBefore && p.UploaderRole != string(models.RoleClient) {
			before++
		}
		if p.Tag == models.PhotoTagAfter {
			after++
		}
		if p.Geo != nil {
			geoStamped++
		}
	}
	if before == 0 {
		return nil, &MissingEvidenceError{Missing: "at least one crew-taken before photo"}
	}
	if after == 0 {
		return nil, &MissingEvidenceError{Missing: "at least one after photo"}
	}

	done := 0
	for _, item := range job.Checklist {
		if item.Completed {
			done++
		}
	}

	return &models.ComplianceReport{
		ReportID:       g.newID(),
		JobReferenceID: job.ReferenceID,
		CrewIDs:        append([]string(nil), job.CrewIDs...),
		ExecutionTimeline: models.ExecutionTimeline{
			CreatedAt:    job.CreatedAt,
			DispatchedAt: job.DispatchedAt,
			StartedAt:    job.StartedAt,
			CompletedAt:  job.CompletedAt,
		},
		RiskDeclaration: riskDeclaration(job.RiskFlags),
		EvidenceSummary: models.EvidenceSummary{
			BeforePhotos:   before,
			AfterPhotos:    after,
			GeoStamped:     geoStamped,
			ChecklistTotal: len(job.Checklist),
			ChecklistDone:  done,
		},
		GeneratedAt: now,
		Locked:      true,
	}, nil
}

func reportableState(job *models.Job) bool {
	switch job.LifecycleState {
	case models.LifecycleCompleted, models.LifecycleInvoiced:
		return true
	}
	return job.Status == models.JobStatusAdminVerified
}

// riskDeclaration renders the templated sentence for the job's risk-flag
// set, ignoring unknown flags.
func riskDeclaration(flags []string) string {
	var clauses []string
	for _, f := range flags {
		if clause, ok := riskSentences[strings.ToLower(strings.TrimSpace(f))]; ok {
			clauses = append(clauses, clause)
		}
	}
	if len(clauses) == 0 {
		return noRiskDeclaration
	}
	sort.Strings(clauses)
	return fmt.Sprintf("This clearance involved %s.", strings.Join(clauses, "; "))
}
