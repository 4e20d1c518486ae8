package models

import (
	"time"
)

// MaxAmount is the largest amount the NUMERIC(12, 2) amount column holds
const MaxAmount = 9999999999.99

// Transaction represents a single corporate card charge
type Transaction struct {
	ID              int64     `json:"id" db:"id"`
	AccountID       int64     `json:"account_id" db:"account_id"`
	Merchant        string    `json:"merchant" db:"merchant"`
	Amount          float64   `json:"amount" db:"amount"`
	Category        string    `json:"category" db:"category"`
	Timestamp       time.Time `json:"timestamp" db:"timestamp"`
	IsViolation     bool      `json:"is_violation" db:"is_violation"`
	ViolationReason *string   `json:"violation_reason,omitempty" db:"violation_reason"`
}

// TableName returns the table name for the Transaction model
func (Transaction) TableName() string {
	return "transactions"
}

// NewTransaction creates a new unassessed Transaction.
// A zero timestamp defaults to now.
func NewTransaction(accountID int64, merchant string, amount float64, category string, ts time.Time) *Transaction {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return &Transaction{
		AccountID: accountID,
		Merchant:  merchant,
		Amount:    amount,
		Category:  category,
		Timestamp: ts,
	}
}

// Reason returns the recorded rationale or an empty string
func (t *Transaction) Reason() string {
	if t.ViolationReason == nil {
		return ""
	}
	return *t.ViolationReason
}

// RecordAssessment stores the outcome of an evaluation on the record
func (t *Transaction) RecordAssessment(violation bool, reason string) {
	t.IsViolation = violation
	t.ViolationReason = &reason
}
