package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/amulyarudresh/CorpCard-Sentinel/middleware"
	"github.com/amulyarudresh/CorpCard-Sentinel/models"
	"github.com/amulyarudresh/CorpCard-Sentinel/services/account"
	"github.com/amulyarudresh/CorpCard-Sentinel/utils"
	"go.uber.org/zap"
)

// CreateAccountRequest represents a request to register a card holder
type CreateAccountRequest struct {
	Name  string `json:"name" validate:"required,notblank,max=200"`
	Email string `json:"email" validate:"omitempty,email"`
}

// UnfreezeRequest carries an optional reason for restoring a card
type UnfreezeRequest struct {
	Reason string `json:"reason" validate:"max=1000"`
}

// UnfreezeResponse reports the account after an unfreeze request
type UnfreezeResponse struct {
	Account *models.Account `json:"account"`
	Changed bool            `json:"changed"`
}

// AccountService defines the account operations used by the handler
type AccountService interface {
	List(ctx context.Context, limit, offset int) ([]*models.Account, error)
	Get(ctx context.Context, id int64) (*models.Account, error)
	Create(ctx context.Context, req account.CreateRequest) (*models.Account, error)
	Unfreeze(ctx context.Context, id int64, actor, reason string) (*account.UnfreezeResult, error)
	AuditTrail(ctx context.Context, id int64, limit, offset int) ([]*models.AuditLog, error)
}

// AccountHandler handles card holder HTTP requests
type AccountHandler struct {
	accountService AccountService
	logger         *zap.Logger
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(accountService AccountService, logger *zap.Logger) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		logger:         logger,
	}
}

// HandleListAccounts handles GET /api/v1/accounts
func (h *AccountHandler) HandleListAccounts(w http.ResponseWriter, r *http.Request) {
	page, ok := pageParams(w, r)
	if !ok {
		return
	}

	accounts, err := h.accountService.List(r.Context(), page.Limit, page.Offset)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	if accounts == nil {
		accounts = []*models.Account{}
	}

	_ = utils.WriteOK(w, ListResponse{Items: accounts, Count: len(accounts), Limit: page.Limit, Offset: page.Offset})
}

// HandleCreateAccount handles POST /api/v1/accounts
func (h *AccountHandler) HandleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	created, err := h.accountService.Create(r.Context(), account.CreateRequest{
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteCreated(w, created)
}

// HandleGetAccount handles GET /api/v1/accounts/{id}
func (h *AccountHandler) HandleGetAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	a, err := h.accountService.Get(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, a)
}

// HandleUnfreeze handles POST /api/v1/accounts/{id}/unfreeze
// The body is optional.
func (h *AccountHandler) HandleUnfreeze(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	var req UnfreezeRequest
	if err := utils.DecodeJSON(r, &req); err != nil && !errors.Is(err, utils.ErrEmptyBody) {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	result, err := h.accountService.Unfreeze(r.Context(), id, actorOf(r), req.Reason)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("unfreeze requested",
		zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
		zap.Int64("account_id", id),
		zap.Bool("changed", result.Changed),
		zap.String("actor", actorOf(r)))

	_ = utils.WriteOK(w, UnfreezeResponse{Account: result.Account, Changed: result.Changed})
}

// HandleListAuditLogs handles GET /api/v1/accounts/{id}/audit-logs
func (h *AccountHandler) HandleListAuditLogs(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	page, ok := pageParams(w, r)
	if !ok {
		return
	}

	entries, err := h.accountService.AuditTrail(r.Context(), id, page.Limit, page.Offset)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	if entries == nil {
		entries = []*models.AuditLog{}
	}

	_ = utils.WriteOK(w, ListResponse{Items: entries, Count: len(entries), Limit: page.Limit, Offset: page.Offset})
}
