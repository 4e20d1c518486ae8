package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/amulyarudresh/CorpCard-Sentinel/models"
	"github.com/amulyarudresh/CorpCard-Sentinel/repositories"
	"go.uber.org/zap"
)

const transactionColumns = `id, account_id, merchant, amount, category, timestamp, is_violation, violation_reason`

// TransactionRepository implements the repositories.TransactionRepository interface
type TransactionRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewTransactionRepository creates a new card transaction repository
func NewTransactionRepository(db *DB, logger *zap.Logger) repositories.TransactionRepository {
	return &TransactionRepository{
		db:     db,
		logger: logger,
	}
}

// Create persists a submitted transaction
func (r *TransactionRepository) Create(ctx context.Context, txn *models.Transaction) error {
	query := `
		INSERT INTO transactions (account_id, merchant, amount, category, timestamp, is_violation, violation_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	executor := GetExecutor(ctx, r.db)
	err := executor.QueryRowContext(ctx, query,
		txn.AccountID,
		txn.Merchant,
		txn.Amount,
		txn.Category,
		txn.Timestamp,
		txn.IsViolation,
		txn.ViolationReason,
	).Scan(&txn.ID)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	r.logger.Debug("transaction created",
		zap.Int64("id", txn.ID),
		zap.Int64("account_id", txn.AccountID),
	)
	return nil
}

// GetByID retrieves a transaction by ID
func (r *TransactionRepository) GetByID(ctx context.Context, id int64) (*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	txn, err := scanTransaction(GetExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("transaction %d: %w", id, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return txn, nil
}

// List retrieves transactions most recent first
func (r *TransactionRepository) List(ctx context.Context, limit, offset int) ([]*models.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		ORDER BY timestamp DESC, id DESC
		LIMIT $1 OFFSET $2
	`
	return r.queryTransactions(ctx, query, limit, offset)
}

// ListNonViolatingByAccount retrieves the account's unflagged history,
// most recent first, skipping excludeID
func (r *TransactionRepository) ListNonViolatingByAccount(ctx context.Context, accountID, excludeID int64) ([]*models.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE account_id = $1
			AND is_violation = false
			AND id <> $2
		ORDER BY timestamp DESC, id DESC
	`
	return r.queryTransactions(ctx, query, accountID, excludeID)
}

// UpdateAssessment persists the violation flag and rationale
func (r *TransactionRepository) UpdateAssessment(ctx context.Context, txn *models.Transaction) error {
	query := `
		UPDATE transactions
		SET is_violation = $2,
		    violation_reason = $3
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, txn.ID, txn.IsViolation, txn.ViolationReason)
	if err != nil {
		return fmt.Errorf("failed to update transaction assessment: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("transaction %d: %w", txn.ID, repositories.ErrNotFound)
	}

	r.logger.Debug("transaction assessment updated",
		zap.Int64("id", txn.ID),
		zap.Bool("is_violation", txn.IsViolation),
	)
	return nil
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	txn := &models.Transaction{}
	var reason sql.NullString
	err := row.Scan(
		&txn.ID,
		&txn.AccountID,
		&txn.Merchant,
		&txn.Amount,
		&txn.Category,
		&txn.Timestamp,
		&txn.IsViolation,
		&reason,
	)
	if err != nil {
		return nil, err
	}
	if reason.Valid {
		txn.ViolationReason = &reason.String
	}
	return txn, nil
}

func (r *TransactionRepository) queryTransactions(ctx context.Context, query string, args ...interface{}) ([]*models.Transaction, error) {
	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txns []*models.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, txn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}

	return txns, nil
}
