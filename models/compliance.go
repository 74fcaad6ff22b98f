package models

import "time"

// ExecutionTimeline is the ordered set of milestones proving when work
// happened.
type ExecutionTimeline struct {
	CreatedAt    time.Time  `json:"createdAt" dynamodbav:"createdAt"`
	DispatchedAt *time.Time `json:"dispatchedAt,omitempty" dynamodbav:"dispatchedAt,omitempty"`
	StartedAt    *time.Time `json:"startedAt,omitempty" dynamodbav:"startedAt,omitempty"`
	CompletedAt  *time.Time `json:"completedAt,omitempty" dynamodbav:"completedAt,omitempty"`
}

// EvidenceSummary counts the photographic and checklist evidence attached to
// a job at report time.
type EvidenceSummary struct {
	BeforePhotos   int `json:"beforePhotos" dynamodbav:"beforePhotos"`
	AfterPhotos    int `json:"afterPhotos" dynamodbav:"afterPhotos"`
	GeoStamped     int `json:"geoStamped" dynamodbav:"geoStamped"`
	ChecklistTotal int `json:"checklistTotal" dynamodbav:"checklistTotal"`
	ChecklistDone  int `json:"checklistDone" dynamodbav:"checklistDone"`
}

// ComplianceReport is the audit artifact for a finished job. Locked is always
// true: a generated report is never mutated.
type ComplianceReport struct {
	ReportID          string            `json:"reportID" dynamodbav:"reportID"`
	JobReferenceID    string            `json:"jobReferenceID" dynamodbav:"jobReferenceID"`
	CrewIDs           []string          `json:"crewIDs" dynamodbav:"crewIDs"`
	ExecutionTimeline ExecutionTimeline `json:"executionTimeline" dynamodbav:"executionTimeline"`
	RiskDeclaration   string            `json:"riskDeclaration" dynamodbav:"riskDeclaration"`
	EvidenceSummary   EvidenceSummary   `json:"evidenceSummary" dynamodbav:"evidenceSummary"`
	GeneratedAt       time.Time         `json:"generatedAt" dynamodbav:"generatedAt"`
	Locked            bool              `json:"locked" dynamodbav:"locked"`
}
