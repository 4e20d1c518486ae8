package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the enforcement step being audited
type AuditAction string

const (
	AuditActionCardFrozen         AuditAction = "card_frozen"
	AuditActionCardUnfrozen       AuditAction = "card_unfrozen"
	AuditActionTransactionFlagged AuditAction = "transaction_flagged"
	AuditActionTransactionCleared AuditAction = "transaction_cleared"
	AuditActionManualReview       AuditAction = "manual_review"
)

// AuditLog is an append-only record of a state change made on behalf of an evaluation
type AuditLog struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	AccountID     int64           `json:"account_id" db:"account_id"`
	TransactionID *int64          `json:"transaction_id,omitempty" db:"transaction_id"`
	Action        AuditAction     `json:"action" db:"action"`
	Decision      Decision        `json:"decision,omitempty" db:"decision"`
	Reason        string          `json:"reason" db:"reason"`
	Details       json.RawMessage `json:"details,omitempty" db:"details"`
	Timestamp     time.Time       `json:"timestamp" db:"timestamp"`
}

// TableName returns the table name for the AuditLog model
func (AuditLog) TableName() string {
	return "audit_logs"
}

// NewAuditLog creates a new AuditLog instance
func NewAuditLog(accountID int64, action AuditAction, reason string) *AuditLog {
	return &AuditLog{
		ID:        uuid.New(),
		AccountID: accountID,
		Action:    action,
		Reason:    reason,
		Timestamp: time.Now().UTC(),
	}
}

// WithTransaction sets the transaction ID
func (a *AuditLog) WithTransaction(transactionID int64) *AuditLog {
	a.TransactionID = &transactionID
	return a
}

// WithDecision sets the decision tag that caused the change
func (a *AuditLog) WithDecision(decision Decision) *AuditLog {
	a.Decision = decision
	return a
}

// WithDetails sets the details
func (a *AuditLog) WithDetails(details interface{}) *AuditLog {
	if data, err := json.Marshal(details); err == nil {
		a.Details = data
	}
	return a
}
