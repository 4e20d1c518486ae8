// Package submission records incoming card transactions and routes them
// through evaluation.
package submission

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/amulyarudresh/CorpCard-Sentinel/internal/observability"
	"github.com/amulyarudresh/CorpCard-Sentinel/models"
	"github.com/amulyarudresh/CorpCard-Sentinel/repositories"
	"github.com/amulyarudresh/CorpCard-Sentinel/services"
	"github.com/amulyarudresh/CorpCard-Sentinel/services/sentinel"
	"go.uber.org/zap"
)

// FrozenCardReason is recorded on transactions attempted with a frozen card
const FrozenCardReason = "Card is FROZEN"

// Evaluator runs the evaluation state machine for a stored transaction
type Evaluator interface {
	EvaluateAndEnforce(ctx context.Context, txn *models.Transaction) (*sentinel.Outcome, error)
}

// Request describes a submitted card charge
type Request struct {
	AccountID int64
	Merchant  string
	Amount    float64
	Category  string
	Timestamp time.Time
}

// Result is the stored transaction together with its evaluation outcome
type Result struct {
	Transaction *models.Transaction `json:"transaction"`
	Outcome     *sentinel.Outcome   `json:"outcome"`
}

// SubmissionService stores transactions and evaluates them
type SubmissionService struct {
	accounts     repositories.AccountRepository
	transactions repositories.TransactionRepository
	evaluator    Evaluator
	metrics      *observability.Metrics
	logger       *zap.Logger
}

// NewSubmissionService creates a new SubmissionService instance. metrics may be nil.
func NewSubmissionService(
	accounts repositories.AccountRepository,
	transactions repositories.TransactionRepository,
	evaluator Evaluator,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *SubmissionService {
	return &SubmissionService{
		accounts:     accounts,
		transactions: transactions,
		evaluator:    evaluator,
		metrics:      metrics,
		logger:       logger,
	}
}

// Submit persists the transaction and evaluates it. A transaction on a frozen
// card is stored as a violation without being evaluated.
func (s *SubmissionService) Submit(ctx context.Context, req Request) (*Result, error) {
	merchant := strings.TrimSpace(req.Merchant)
	category := strings.TrimSpace(req.Category)
	if merchant == "" || category == "" {
		return nil, services.WrapError(services.ErrorTypeValidation, "merchant and category are required", nil)
	}
	if req.Amount <= 0 {
		return nil, services.ErrInvalidAmount
	}
	if req.Amount > models.MaxAmount {
		return nil, services.ErrAmountTooLarge
	}

	account, err := s.accounts.GetByID(ctx, req.AccountID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.WrapNotFound(services.ErrAccountNotFound.Message, err)
		}
		return nil, services.WrapInternal("failed to load account", err)
	}

	txn := models.NewTransaction(account.ID, merchant, req.Amount, category, req.Timestamp)

	if account.IsFrozen() {
		txn.RecordAssessment(true, FrozenCardReason)
		if err := s.transactions.Create(ctx, txn); err != nil {
			return nil, services.WrapInternal("failed to record transaction", err)
		}

		s.metrics.RecordFrozenRejection()
		s.logger.Warn("transaction attempted on frozen card",
			zap.Int64("transaction_id", txn.ID),
			zap.Int64("account_id", account.ID),
			zap.String("merchant", txn.Merchant))

		return &Result{
			Transaction: txn,
			Outcome: &sentinel.Outcome{
				TransactionID: txn.ID,
				AccountID:     account.ID,
				Violation:     true,
				Reason:        FrozenCardReason,
				Decision:      models.DecisionViolation,
			},
		}, nil
	}

	if err := s.transactions.Create(ctx, txn); err != nil {
		return nil, services.WrapInternal("failed to record transaction", err)
	}

	outcome, err := s.evaluator.EvaluateAndEnforce(ctx, txn)
	if err != nil {
		return nil, err
	}
	txn.RecordAssessment(outcome.Violation, outcome.Reason)

	return &Result{Transaction: txn, Outcome: outcome}, nil
}

// List returns transactions most recent first
func (s *SubmissionService) List(ctx context.Context, limit, offset int) ([]*models.Transaction, error) {
	txns, err := s.transactions.List(ctx, limit, offset)
	if err != nil {
		return nil, services.WrapInternal("failed to list transactions", err)
	}
	return txns, nil
}

// Get returns a transaction by ID
func (s *SubmissionService) Get(ctx context.Context, id int64) (*models.Transaction, error) {
	txn, err := s.transactions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.WrapNotFound(services.ErrTransactionNotFound.Message, err)
		}
		return nil, services.WrapInternal("failed to load transaction", err)
	}
	return txn, nil
}
