package handlers

import (
	"context"
	"net/http"

	"github.com/amulyarudresh/CorpCard-Sentinel/middleware"
	"github.com/amulyarudresh/CorpCard-Sentinel/models"
	"github.com/amulyarudresh/CorpCard-Sentinel/services/policy"
	"github.com/amulyarudresh/CorpCard-Sentinel/utils"
	"go.uber.org/zap"
)

// CreatePolicyRequest represents a request to create a policy
type CreatePolicyRequest struct {
	RuleName    string `json:"rule_name" validate:"required,notblank,max=200"`
	Description string `json:"description" validate:"required,notblank,max=4000"`
	IsActive    *bool  `json:"is_active,omitempty"`
}

// UpdatePolicyRequest represents a partial policy update
type UpdatePolicyRequest struct {
	RuleName    *string `json:"rule_name,omitempty" validate:"omitempty,notblank,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,notblank,max=4000"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

// PolicyService defines the policy operations used by the handler
type PolicyService interface {
	List(ctx context.Context, limit, offset int) ([]*models.Policy, error)
	Get(ctx context.Context, id int64) (*models.Policy, error)
	Create(ctx context.Context, req policy.CreateRequest) (*models.Policy, error)
	Update(ctx context.Context, id int64, req policy.UpdateRequest) (*models.Policy, error)
	Delete(ctx context.Context, id int64) error
}

// PolicyHandler handles policy-related HTTP requests
type PolicyHandler struct {
	policyService PolicyService
	logger        *zap.Logger
}

// NewPolicyHandler creates a new PolicyHandler
func NewPolicyHandler(policyService PolicyService, logger *zap.Logger) *PolicyHandler {
	return &PolicyHandler{
		policyService: policyService,
		logger:        logger,
	}
}

// HandleListPolicies handles GET /api/v1/policies
// Only active policies are listed.
func (h *PolicyHandler) HandleListPolicies(w http.ResponseWriter, r *http.Request) {
	page, ok := pageParams(w, r)
	if !ok {
		return
	}

	policies, err := h.policyService.List(r.Context(), page.Limit, page.Offset)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	if policies == nil {
		policies = []*models.Policy{}
	}

	h.logger.Debug("listed policies",
		zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
		zap.Int("count", len(policies)))

	_ = utils.WriteOK(w, ListResponse{Items: policies, Count: len(policies), Limit: page.Limit, Offset: page.Offset})
}

// HandleGetPolicy handles GET /api/v1/policies/{id}
func (h *PolicyHandler) HandleGetPolicy(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	p, err := h.policyService.Get(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, p)
}

// HandleCreatePolicy handles POST /api/v1/policies
func (h *PolicyHandler) HandleCreatePolicy(w http.ResponseWriter, r *http.Request) {
	var req CreatePolicyRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	p, err := h.policyService.Create(r.Context(), policy.CreateRequest{
		RuleName:    req.RuleName,
		Description: req.Description,
		IsActive:    req.IsActive,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("policy created via API",
		zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
		zap.Int64("policy_id", p.ID),
		zap.String("actor", actorOf(r)))

	_ = utils.WriteCreated(w, p)
}

// HandleUpdatePolicy handles PUT /api/v1/policies/{id}
func (h *PolicyHandler) HandleUpdatePolicy(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	var req UpdatePolicyRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	p, err := h.policyService.Update(r.Context(), id, policy.UpdateRequest{
		RuleName:    req.RuleName,
		Description: req.Description,
		IsActive:    req.IsActive,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("policy updated via API",
		zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
		zap.Int64("policy_id", p.ID),
		zap.String("actor", actorOf(r)))

	_ = utils.WriteOK(w, p)
}

// HandleDeletePolicy handles DELETE /api/v1/policies/{id}
func (h *PolicyHandler) HandleDeletePolicy(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.policyService.Delete(r.Context(), id); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("policy deleted via API",
		zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
		zap.Int64("policy_id", id),
		zap.String("actor", actorOf(r)))

	utils.WriteNoContent(w)
}

// actorOf names the authenticated caller for logs and audit entries
func actorOf(r *http.Request) string {
	if claims := middleware.GetClaimsFromContext(r.Context()); claims != nil {
		return claims.Sub
	}
	return ""
}
