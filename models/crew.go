package models

import "time"

// CrewMember is a registered field operative. Jobs reference crew members by
// ID; the store checks membership here before accepting an assignment.
type CrewMember struct {
	CrewID    string    `json:"crewID" dynamodbav:"crewID"`
	Name      string    `json:"name" dynamodbav:"name" validate:"required,min=2,max=100"`
	Phone     string    `json:"phone,omitempty" dynamodbav:"phone,omitempty"`
	Skills    []string  `json:"skills" dynamodbav:"skills"`
	IsActive  bool      `json:"isActive" dynamodbav:"isActive"`
	CreatedBy string    `json:"createdBy" dynamodbav:"createdBy"`
	CreatedAt time.Time `json:"createdAt" dynamodbav:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" dynamodbav:"updatedAt"`
}

type CreateCrewRequest struct {
	Name   string   `json:"name" validate:"required,min=2,max=100"`
	Phone  string   `json:"phone,omitempty"`
	Skills []string `json:"skills"`
}

type UpdateCrewRequest struct {
	Name     string   `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Phone    string   `json:"phone,omitempty"`
	Skills   []string `json:"skills,omitempty"`
	IsActive *bool    `json:"isActive,omitempty"`
}

type CrewFilter struct {
	IsActive *bool  `json:"isActive,omitempty"`
	Skill    string `json:"skill,omitempty"`
}
