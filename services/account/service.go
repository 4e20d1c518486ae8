// Package account manages card holders and administrative card status changes.
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/amulyarudresh/CorpCard-Sentinel/models"
	"github.com/amulyarudresh/CorpCard-Sentinel/repositories"
	"github.com/amulyarudresh/CorpCard-Sentinel/services"
	"go.uber.org/zap"
)

// CreateRequest describes a new card holder
type CreateRequest struct {
	Name  string
	Email string
}

// UnfreezeResult reports the outcome of an unfreeze request
type UnfreezeResult struct {
	Account *models.Account
	Changed bool
}

// AccountService manages card holder accounts
type AccountService struct {
	txMgr    repositories.TxManager
	accounts repositories.AccountRepository
	audits   repositories.AuditRepository
	logger   *zap.Logger
}

// NewAccountService creates a new AccountService instance
func NewAccountService(txMgr repositories.TxManager, accounts repositories.AccountRepository, audits repositories.AuditRepository, logger *zap.Logger) *AccountService {
	return &AccountService{
		txMgr:    txMgr,
		accounts: accounts,
		audits:   audits,
		logger:   logger,
	}
}

// List returns accounts ordered by ID
func (s *AccountService) List(ctx context.Context, limit, offset int) ([]*models.Account, error) {
	accounts, err := s.accounts.List(ctx, limit, offset)
	if err != nil {
		return nil, services.WrapInternal("failed to list accounts", err)
	}
	return accounts, nil
}

// Get returns an account by ID
func (s *AccountService) Get(ctx context.Context, id int64) (*models.Account, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return account, nil
}

// Create registers a card holder with an active card. Names are unique.
func (s *AccountService) Create(ctx context.Context, req CreateRequest) (*models.Account, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)
	if name == "" {
		return nil, services.WrapError(services.ErrorTypeValidation, "name is required", nil)
	}

	_, err := s.accounts.GetByName(ctx, name)
	switch {
	case err == nil:
		return nil, services.NewDomainError(services.ErrorTypeConflict, fmt.Sprintf("account %q already exists", name), nil).
			WithDetail("name", name)
	case !errors.Is(err, repositories.ErrNotFound):
		return nil, services.WrapInternal("failed to check account name", err)
	}

	account := models.NewAccount(name, email)
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, services.WrapInternal("failed to create account", err)
	}

	s.logger.Info("account created",
		zap.Int64("account_id", account.ID),
		zap.String("name", account.Name))

	return account, nil
}

// Unfreeze restores a frozen card to ACTIVE and records a card_unfrozen audit
// entry. Unfreezing an active card changes nothing.
func (s *AccountService) Unfreeze(ctx context.Context, id int64, actor, reason string) (*UnfreezeResult, error) {
	if reason = strings.TrimSpace(reason); reason == "" {
		reason = "Card restored by administrator"
	}

	result, err := services.WithTransactionResult(ctx, s.txMgr, func(ctx context.Context, _ repositories.Tx) (*UnfreezeResult, error) {
		account, err := s.accounts.GetByIDForUpdate(ctx, id)
		if err != nil {
			return nil, err
		}
		if !account.IsFrozen() {
			return &UnfreezeResult{Account: account}, nil
		}

		account.Unfreeze()
		if err := s.accounts.UpdateCardStatus(ctx, account); err != nil {
			return nil, err
		}

		entry := models.NewAuditLog(account.ID, models.AuditActionCardUnfrozen, reason)
		if actor != "" {
			entry.WithDetails(map[string]interface{}{"actor": actor})
		}
		if err := s.audits.Insert(ctx, entry); err != nil {
			return nil, err
		}
		return &UnfreezeResult{Account: account, Changed: true}, nil
	})
	if err != nil {
		return nil, mapRepoError(err)
	}

	if result.Changed {
		s.logger.Info("card unfrozen",
			zap.Int64("account_id", id),
			zap.String("actor", actor))
	}
	return result, nil
}

// AuditTrail returns the audit entries of an account, newest first
func (s *AccountService) AuditTrail(ctx context.Context, id int64, limit, offset int) ([]*models.AuditLog, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	entries, err := s.audits.ListByAccount(ctx, id, limit, offset)
	if err != nil {
		return nil, services.WrapInternal("failed to list audit entries", err)
	}
	return entries, nil
}

func mapRepoError(err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return services.WrapNotFound(services.ErrAccountNotFound.Message, err)
	}
	return services.WrapInternal("account repository error", err)
}
