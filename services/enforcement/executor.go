// Package enforcement applies terminal evaluation decisions to persistent
// account and transaction state inside a single database transaction.
package enforcement

import (
	"context"
	"errors"

	"github.com/amulyarudresh/CorpCard-Sentinel/models"
	"github.com/amulyarudresh/CorpCard-Sentinel/repositories"
	"github.com/amulyarudresh/CorpCard-Sentinel/services"
	"go.uber.org/zap"
)

// Request describes a terminal decision to apply
type Request struct {
	AccountID     int64
	TransactionID int64
	Violation     bool
	Decision      models.Decision
	Reason        string
}

// Result reports which writes the enforcement performed
type Result struct {
	CardFrozen         bool
	AccountFound       bool
	TransactionUpdated bool
	AuditEntries       int
}

// Executor applies decisions atomically
type Executor struct {
	txMgr        repositories.TxManager
	accounts     repositories.AccountRepository
	transactions repositories.TransactionRepository
	audits       repositories.AuditRepository
	logger       *zap.Logger
}

// NewExecutor creates a new Executor instance
func NewExecutor(txMgr repositories.TxManager, repos *repositories.Repositories, logger *zap.Logger) *Executor {
	return &Executor{
		txMgr:        txMgr,
		accounts:     repos.Accounts,
		transactions: repos.Transactions,
		audits:       repos.AuditLogs,
		logger:       logger,
	}
}

// Apply persists the decision. A violation freezes the account (a frozen
// account is left as is) and flags the transaction; any other decision only
// records the rationale on the transaction. Every failure rolls the whole
// unit back and is returned wrapped as services.ErrEnforcementFailed.
func (e *Executor) Apply(ctx context.Context, req Request) (*Result, error) {
	result, err := services.WithTransactionResult(ctx, e.txMgr, func(ctx context.Context, _ repositories.Tx) (*Result, error) {
		if req.Violation {
			return e.applyViolation(ctx, req)
		}
		return e.applyClearance(ctx, req)
	})
	if err != nil {
		e.logger.Error("enforcement failed",
			zap.Int64("account_id", req.AccountID),
			zap.Int64("transaction_id", req.TransactionID),
			zap.String("decision", string(req.Decision)),
			zap.Error(err))
		return nil, services.WrapEnforcement(err)
	}

	e.logger.Info("enforcement applied",
		zap.Int64("account_id", req.AccountID),
		zap.Int64("transaction_id", req.TransactionID),
		zap.String("decision", string(req.Decision)),
		zap.Bool("card_frozen", result.CardFrozen),
		zap.Bool("transaction_updated", result.TransactionUpdated))

	return result, nil
}

func (e *Executor) applyViolation(ctx context.Context, req Request) (*Result, error) {
	result := &Result{}

	account, err := e.accounts.GetByIDForUpdate(ctx, req.AccountID)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		e.logger.Warn("account not found, skipping freeze", zap.Int64("account_id", req.AccountID))
	case err != nil:
		return nil, err
	default:
		result.AccountFound = true
		previous := account.CardStatus
		if account.Freeze() {
			if err := e.accounts.UpdateCardStatus(ctx, account); err != nil {
				return nil, err
			}
			result.CardFrozen = true
			if err := e.audit(ctx, req, models.AuditActionCardFrozen, map[string]interface{}{
				"previous_status": previous,
			}); err != nil {
				return nil, err
			}
			result.AuditEntries++
		}
	}

	updated, err := e.recordOnTransaction(ctx, req)
	if err != nil {
		return nil, err
	}
	result.TransactionUpdated = updated

	// audit rows reference the account
	if result.AccountFound {
		if err := e.audit(ctx, req, models.AuditActionTransactionFlagged, nil); err != nil {
			return nil, err
		}
		result.AuditEntries++
	}

	return result, nil
}

func (e *Executor) applyClearance(ctx context.Context, req Request) (*Result, error) {
	result := &Result{}

	updated, err := e.recordOnTransaction(ctx, req)
	if err != nil {
		return nil, err
	}
	result.TransactionUpdated = updated
	if !updated {
		return result, nil
	}

	action := models.AuditActionTransactionCleared
	if req.Decision == models.DecisionManualReview {
		action = models.AuditActionManualReview
	}
	if err := e.audit(ctx, req, action, nil); err != nil {
		return nil, err
	}
	result.AuditEntries++

	return result, nil
}

// recordOnTransaction stores the flag and rationale. A missing transaction is not an error.
func (e *Executor) recordOnTransaction(ctx context.Context, req Request) (bool, error) {
	if req.TransactionID == 0 {
		return false, nil
	}

	txn, err := e.transactions.GetByID(ctx, req.TransactionID)
	if errors.Is(err, repositories.ErrNotFound) {
		e.logger.Warn("transaction not found, skipping assessment", zap.Int64("transaction_id", req.TransactionID))
		return false, nil
	}
	if err != nil {
		return false, err
	}

	txn.RecordAssessment(req.Violation, req.Reason)
	if err := e.transactions.UpdateAssessment(ctx, txn); err != nil {
		return false, err
	}
	return true, nil
}

func (e *Executor) audit(ctx context.Context, req Request, action models.AuditAction, details map[string]interface{}) error {
	entry := models.NewAuditLog(req.AccountID, action, req.Reason).WithDecision(req.Decision)
	if req.TransactionID != 0 {
		entry.WithTransaction(req.TransactionID)
	}
	if details != nil {
		entry.WithDetails(details)
	}
	return e.audits.Insert(ctx, entry)
}
