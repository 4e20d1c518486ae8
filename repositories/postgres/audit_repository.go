package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/amulyarudresh/CorpCard-Sentinel/models"
	"github.com/amulyarudresh/CorpCard-Sentinel/repositories"
	"go.uber.org/zap"
)

// AuditRepository implements the repositories.AuditRepository interface
type AuditRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *DB, logger *zap.Logger) repositories.AuditRepository {
	return &AuditRepository{
		db:     db,
		logger: logger,
	}
}

// Insert inserts a new audit log entry. Callers inside an enforcement
// transaction get the insert rolled back with it.
func (r *AuditRepository) Insert(ctx context.Context, log *models.AuditLog) error {
	query := `
		INSERT INTO audit_logs (id, account_id, transaction_id, action, decision, reason, details, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	var details interface{}
	if len(log.Details) > 0 {
		details = []byte(log.Details)
	}

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		log.ID,
		log.AccountID,
		log.TransactionID,
		log.Action,
		nullString(string(log.Decision)),
		log.Reason,
		details,
		log.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}

	r.logger.Debug("audit log inserted", zap.String("id", log.ID.String()), zap.String("action", string(log.Action)))
	return nil
}

// ListByAccount retrieves audit entries for an account, newest first
func (r *AuditRepository) ListByAccount(ctx context.Context, accountID int64, limit, offset int) ([]*models.AuditLog, error) {
	query := `
		SELECT id, account_id, transaction_id, action, decision, reason, details, timestamp
		FROM audit_logs
		WHERE account_id = $1
		ORDER BY timestamp DESC
		LIMIT $2 OFFSET $3
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit logs: %w", err)
	}
	defer rows.Close()

	var logs []*models.AuditLog
	for rows.Next() {
		log := &models.AuditLog{}
		var (
			txnID    sql.NullInt64
			decision sql.NullString
			details  []byte
		)
		err := rows.Scan(
			&log.ID,
			&log.AccountID,
			&txnID,
			&log.Action,
			&decision,
			&log.Reason,
			&details,
			&log.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}
		if txnID.Valid {
			id := txnID.Int64
			log.TransactionID = &id
		}
		log.Decision = models.Decision(decision.String)
		log.Details = details
		logs = append(logs, log)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit log rows: %w", err)
	}

	return logs, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
