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

const policyColumns = `id, rule_name, description, is_active, created_at, updated_at`

// PolicyRepository implements the repositories.PolicyRepository interface
type PolicyRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewPolicyRepository creates a new policy repository
func NewPolicyRepository(db *DB, logger *zap.Logger) repositories.PolicyRepository {
	return &PolicyRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new policy
func (r *PolicyRepository) Create(ctx context.Context, policy *models.Policy) error {
	query := `
		INSERT INTO policies (rule_name, description, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	executor := GetExecutor(ctx, r.db)
	err := executor.QueryRowContext(ctx, query,
		policy.RuleName,
		policy.Description,
		policy.IsActive,
		policy.CreatedAt,
		policy.UpdatedAt,
	).Scan(&policy.ID)
	if err != nil {
		return fmt.Errorf("failed to create policy: %w", err)
	}

	r.logger.Debug("policy created", zap.Int64("id", policy.ID), zap.String("rule_name", policy.RuleName))
	return nil
}

// GetByID retrieves a policy by ID
func (r *PolicyRepository) GetByID(ctx context.Context, id int64) (*models.Policy, error) {
	query := `SELECT ` + policyColumns + ` FROM policies WHERE id = $1`

	policy, err := scanPolicy(GetExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("policy %d: %w", id, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get policy: %w", err)
	}
	return policy, nil
}

// GetByRuleName retrieves a policy by its rule name
func (r *PolicyRepository) GetByRuleName(ctx context.Context, ruleName string) (*models.Policy, error) {
	query := `SELECT ` + policyColumns + ` FROM policies WHERE rule_name = $1`

	policy, err := scanPolicy(GetExecutor(ctx, r.db).QueryRowContext(ctx, query, ruleName))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("policy %q: %w", ruleName, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get policy: %w", err)
	}
	return policy, nil
}

// ListActive retrieves active policies in creation order
func (r *PolicyRepository) ListActive(ctx context.Context, limit, offset int) ([]*models.Policy, error) {
	query := `
		SELECT ` + policyColumns + `
		FROM policies
		WHERE is_active = true
		ORDER BY id ASC
		LIMIT $1 OFFSET $2
	`

	return r.queryPolicies(ctx, query, limit, offset)
}

// Update updates a policy
func (r *PolicyRepository) Update(ctx context.Context, policy *models.Policy) error {
	query := `
		UPDATE policies
		SET rule_name = $2,
		    description = $3,
		    is_active = $4,
		    updated_at = $5
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query,
		policy.ID,
		policy.RuleName,
		policy.Description,
		policy.IsActive,
		policy.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update policy: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("policy %d: %w", policy.ID, repositories.ErrNotFound)
	}

	r.logger.Debug("policy updated", zap.Int64("id", policy.ID))
	return nil
}

// Delete deletes a policy
func (r *PolicyRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM policies WHERE id = $1`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete policy: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("policy %d: %w", id, repositories.ErrNotFound)
	}

	r.logger.Debug("policy deleted", zap.Int64("id", id))
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPolicy(row rowScanner) (*models.Policy, error) {
	policy := &models.Policy{}
	err := row.Scan(
		&policy.ID,
		&policy.RuleName,
		&policy.Description,
		&policy.IsActive,
		&policy.CreatedAt,
		&policy.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return policy, nil
}

func (r *PolicyRepository) queryPolicies(ctx context.Context, query string, args ...interface{}) ([]*models.Policy, error) {
	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query policies: %w", err)
	}
	defer rows.Close()

	var policies []*models.Policy
	for rows.Next() {
		policy, err := scanPolicy(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan policy: %w", err)
		}
		policies = append(policies, policy)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating policy rows: %w", err)
	}

	return policies, nil
}
