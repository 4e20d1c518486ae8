package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/amulyarudresh/CorpCard-Sentinel/middleware"
	"github.com/amulyarudresh/CorpCard-Sentinel/models"
	"github.com/amulyarudresh/CorpCard-Sentinel/services/submission"
	"github.com/amulyarudresh/CorpCard-Sentinel/utils"
	"go.uber.org/zap"
)

// SubmitTransactionRequest represents a card charge to evaluate
type SubmitTransactionRequest struct {
	AccountID int64      `json:"account_id" validate:"required,gt=0"`
	Merchant  string     `json:"merchant" validate:"required,notblank,max=255"`
	Amount    float64    `json:"amount" validate:"required,gt=0,lte=9999999999.99"`
	Category  string     `json:"category" validate:"required,notblank,max=100"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// TransactionService defines the transaction operations used by the handler
type TransactionService interface {
	Submit(ctx context.Context, req submission.Request) (*submission.Result, error)
	List(ctx context.Context, limit, offset int) ([]*models.Transaction, error)
	Get(ctx context.Context, id int64) (*models.Transaction, error)
}

// TransactionHandler handles transaction submission and listing
type TransactionHandler struct {
	transactionService TransactionService
	logger             *zap.Logger
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(transactionService TransactionService, logger *zap.Logger) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
		logger:             logger,
	}
}

// HandleSubmitTransaction handles POST /api/v1/transactions
// The transaction is stored, evaluated and enforced before the response is written.
func (h *TransactionHandler) HandleSubmitTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	var req SubmitTransactionRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	sreq := submission.Request{
		AccountID: req.AccountID,
		Merchant:  req.Merchant,
		Amount:    req.Amount,
		Category:  req.Category,
	}
	if req.Timestamp != nil {
		sreq.Timestamp = req.Timestamp.UTC()
	}

	result, err := h.transactionService.Submit(ctx, sreq)
	if err != nil {
		h.logger.Error("transaction submission failed",
			zap.String("request_id", requestID),
			zap.Int64("account_id", req.AccountID),
			zap.Error(err))
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("transaction evaluated",
		zap.String("request_id", requestID),
		zap.Int64("transaction_id", result.Transaction.ID),
		zap.String("decision", string(result.Outcome.Decision)))

	_ = utils.WriteCreated(w, result)
}

// HandleListTransactions handles GET /api/v1/transactions
// Most recent first.
func (h *TransactionHandler) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	page, ok := pageParams(w, r)
	if !ok {
		return
	}

	txns, err := h.transactionService.List(r.Context(), page.Limit, page.Offset)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	if txns == nil {
		txns = []*models.Transaction{}
	}

	_ = utils.WriteOK(w, ListResponse{Items: txns, Count: len(txns), Limit: page.Limit, Offset: page.Offset})
}

// HandleGetTransaction handles GET /api/v1/transactions/{id}
func (h *TransactionHandler) HandleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	txn, err := h.transactionService.Get(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, txn)
}
