package models

import (
	"time"
)

// Policy represents a natural-language spending rule for corporate cards
type Policy struct {
	ID          int64     `json:"id" db:"id"`
	RuleName    string    `json:"rule_name" db:"rule_name"`
	Description string    `json:"description" db:"description"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Policy model
func (Policy) TableName() string {
	return "policies"
}

// NewPolicy creates a new active Policy instance
func NewPolicy(ruleName, description string) *Policy {
	now := time.Now().UTC()
	return &Policy{
		RuleName:    ruleName,
		Description: description,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Text renders the policy the way it is presented to the classification oracle
func (p *Policy) Text() string {
	if p.Description == "" {
		return p.RuleName
	}
	return p.RuleName + ": " + p.Description
}
