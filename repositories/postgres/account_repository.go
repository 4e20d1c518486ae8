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

const accountColumns = `id, name, email, card_status, created_at, updated_at`

// AccountRepository implements the repositories.AccountRepository interface
type AccountRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *DB, logger *zap.Logger) repositories.AccountRepository {
	return &AccountRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new account
func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	query := `
		INSERT INTO accounts (name, email, card_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	executor := GetExecutor(ctx, r.db)
	err := executor.QueryRowContext(ctx, query,
		account.Name,
		account.Email,
		account.CardStatus,
		account.CreatedAt,
		account.UpdatedAt,
	).Scan(&account.ID)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}

	r.logger.Debug("account created", zap.Int64("id", account.ID), zap.String("name", account.Name))
	return nil
}

// GetByID retrieves an account by ID
func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return r.getOne(ctx, query, fmt.Sprintf("account %d", id), id)
}

// GetByIDForUpdate retrieves an account and holds a row lock on it. Only
// meaningful when ctx carries a transaction.
func (r *AccountRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 FOR UPDATE`
	return r.getOne(ctx, query, fmt.Sprintf("account %d", id), id)
}

// GetByName retrieves an account by card holder name
func (r *AccountRepository) GetByName(ctx context.Context, name string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE name = $1`
	return r.getOne(ctx, query, fmt.Sprintf("account %q", name), name)
}

// List retrieves accounts with pagination
func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*models.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		ORDER BY id ASC
		LIMIT $1 OFFSET $2
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating account rows: %w", err)
	}

	return accounts, nil
}

// UpdateCardStatus persists the card status of an account
func (r *AccountRepository) UpdateCardStatus(ctx context.Context, account *models.Account) error {
	query := `
		UPDATE accounts
		SET card_status = $2,
		    updated_at = $3
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, account.ID, account.CardStatus, account.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update card status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("account %d: %w", account.ID, repositories.ErrNotFound)
	}

	r.logger.Debug("card status updated",
		zap.Int64("account_id", account.ID),
		zap.String("card_status", string(account.CardStatus)),
	)
	return nil
}

func (r *AccountRepository) getOne(ctx context.Context, query, label string, arg interface{}) (*models.Account, error) {
	account, err := scanAccount(GetExecutor(ctx, r.db).QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", label, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

func scanAccount(row rowScanner) (*models.Account, error) {
	account := &models.Account{}
	err := row.Scan(
		&account.ID,
		&account.Name,
		&account.Email,
		&account.CardStatus,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return account, nil
}
