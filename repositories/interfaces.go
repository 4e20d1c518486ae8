package repositories

import (
	"context"
	"errors"

	"github.com/amulyarudresh/CorpCard-Sentinel/models"
)

// ErrNotFound is returned by repositories when a row does not exist
var ErrNotFound = errors.New("record not found")

// TxManager manages database transactions
type TxManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Tx, error)

	// InTransaction executes a function within a transaction
	// Automatically commits if function succeeds, rolls back on error
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx represents a database transaction
type Tx interface {
	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Context returns a context carrying the transaction.
	// Repositories called with this context run their queries inside it.
	Context() context.Context
}

// AccountRepository handles card holder data operations
type AccountRepository interface {
	// Create creates a new account and sets its ID
	Create(ctx context.Context, account *models.Account) error

	// GetByID retrieves an account by ID
	GetByID(ctx context.Context, id int64) (*models.Account, error)

	// GetByIDForUpdate retrieves an account and locks its row until the
	// surrounding transaction ends
	GetByIDForUpdate(ctx context.Context, id int64) (*models.Account, error)

	// GetByName retrieves an account by card holder name
	GetByName(ctx context.Context, name string) (*models.Account, error)

	// List retrieves accounts with pagination
	List(ctx context.Context, limit, offset int) ([]*models.Account, error)

	// UpdateCardStatus persists the card status of an account
	UpdateCardStatus(ctx context.Context, account *models.Account) error
}

// PolicyRepository handles policy data operations
type PolicyRepository interface {
	// Create creates a new policy and sets its ID
	Create(ctx context.Context, policy *models.Policy) error

	// GetByID retrieves a policy by ID
	GetByID(ctx context.Context, id int64) (*models.Policy, error)

	// GetByRuleName retrieves a policy by its rule name
	GetByRuleName(ctx context.Context, ruleName string) (*models.Policy, error)

	// ListActive retrieves all active policies
	ListActive(ctx context.Context, limit, offset int) ([]*models.Policy, error)

	// Update updates a policy
	Update(ctx context.Context, policy *models.Policy) error

	// Delete deletes a policy
	Delete(ctx context.Context, id int64) error
}

// TransactionRepository handles card transaction data operations
type TransactionRepository interface {
	// Create persists a submitted transaction and sets its ID
	Create(ctx context.Context, txn *models.Transaction) error

	// GetByID retrieves a transaction by ID
	GetByID(ctx context.Context, id int64) (*models.Transaction, error)

	// List retrieves transactions most recent first with pagination
	List(ctx context.Context, limit, offset int) ([]*models.Transaction, error)

	// ListNonViolatingByAccount retrieves an account's transactions that were
	// not flagged, most recent first. excludeID is skipped when non-zero.
	ListNonViolatingByAccount(ctx context.Context, accountID, excludeID int64) ([]*models.Transaction, error)

	// UpdateAssessment persists the violation flag and rationale
	UpdateAssessment(ctx context.Context, txn *models.Transaction) error
}

// AuditRepository handles enforcement audit entries
type AuditRepository interface {
	// Insert inserts a new audit log entry
	Insert(ctx context.Context, log *models.AuditLog) error

	// ListByAccount retrieves audit entries for an account, newest first
	ListByAccount(ctx context.Context, accountID int64, limit, offset int) ([]*models.AuditLog, error)
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Accounts     AccountRepository
	Policies     PolicyRepository
	Transactions TransactionRepository
	AuditLogs    AuditRepository
}
