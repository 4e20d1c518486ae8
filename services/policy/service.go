package policy

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

// snapshotPageSize is the page size used when loading every active policy
const snapshotPageSize = 200

// CreateRequest describes a new policy
type CreateRequest struct {
	RuleName    string
	Description string
	IsActive    *bool
}

// UpdateRequest describes a partial policy update. Nil fields are left unchanged.
type UpdateRequest struct {
	RuleName    *string
	Description *string
	IsActive    *bool
}

// PolicyService manages spending policies and serves the active snapshot
// consumed by evaluation runs
type PolicyService struct {
	policyRepo repositories.PolicyRepository
	cache      *SnapshotCache
	logger     *zap.Logger
}

// NewPolicyService creates a new PolicyService instance
func NewPolicyService(policyRepo repositories.PolicyRepository, cache *SnapshotCache, logger *zap.Logger) *PolicyService {
	if cache == nil {
		cache = NewSnapshotCache(0)
	}
	return &PolicyService{
		policyRepo: policyRepo,
		cache:      cache,
		logger:     logger,
	}
}

// ActivePolicyTexts returns the active policies rendered as "<rule name>: <description>".
// The returned slice is owned by the caller.
func (s *PolicyService) ActivePolicyTexts(ctx context.Context) ([]string, error) {
	cached, generation, ok := s.cache.Get()
	if ok {
		s.logger.Debug("cache hit for policy snapshot", zap.Int("count", len(cached)))
		return cached, nil
	}

	policies, err := s.loadActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load policy snapshot: %w", err)
	}

	texts := make([]string, 0, len(policies))
	for _, p := range policies {
		texts = append(texts, p.Text())
	}

	s.cache.Set(generation, texts)

	s.logger.Debug("cache miss for policy snapshot, fetched from database",
		zap.Int("count", len(texts)))

	return texts, nil
}

func (s *PolicyService) loadActive(ctx context.Context) ([]*models.Policy, error) {
	all := make([]*models.Policy, 0)
	for offset := 0; ; offset += snapshotPageSize {
		page, err := s.policyRepo.ListActive(ctx, snapshotPageSize, offset)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < snapshotPageSize {
			return all, nil
		}
	}
}

// List returns active policies with pagination
func (s *PolicyService) List(ctx context.Context, limit, offset int) ([]*models.Policy, error) {
	policies, err := s.policyRepo.ListActive(ctx, limit, offset)
	if err != nil {
		return nil, services.WrapInternal("failed to list policies", err)
	}
	return policies, nil
}

// Get returns a policy by ID
func (s *PolicyService) Get(ctx context.Context, id int64) (*models.Policy, error) {
	p, err := s.policyRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return p, nil
}

// Create stores a new policy. Rule names are unique.
func (s *PolicyService) Create(ctx context.Context, req CreateRequest) (*models.Policy, error) {
	ruleName := strings.TrimSpace(req.RuleName)
	description := strings.TrimSpace(req.Description)
	if ruleName == "" || description == "" {
		return nil, services.WrapError(services.ErrorTypeValidation, "rule_name and description are required", nil)
	}

	if err := s.ensureRuleNameFree(ctx, ruleName, 0); err != nil {
		return nil, err
	}

	p := models.NewPolicy(ruleName, description)
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}

	if err := s.policyRepo.Create(ctx, p); err != nil {
		return nil, services.WrapInternal("failed to create policy", err)
	}

	s.cache.Invalidate()
	s.logger.Info("policy created",
		zap.Int64("policy_id", p.ID),
		zap.String("rule_name", p.RuleName),
		zap.Bool("is_active", p.IsActive))

	return p, nil
}

// Update applies a partial update to a policy
func (s *PolicyService) Update(ctx context.Context, id int64, req UpdateRequest) (*models.Policy, error) {
	p, err := s.policyRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err)
	}

	if req.RuleName != nil {
		ruleName := strings.TrimSpace(*req.RuleName)
		if ruleName == "" {
			return nil, services.WrapError(services.ErrorTypeValidation, "rule_name cannot be empty", nil)
		}
		if ruleName != p.RuleName {
			if err := s.ensureRuleNameFree(ctx, ruleName, id); err != nil {
				return nil, err
			}
		}
		p.RuleName = ruleName
	}
	if req.Description != nil {
		description := strings.TrimSpace(*req.Description)
		if description == "" {
			return nil, services.WrapError(services.ErrorTypeValidation, "description cannot be empty", nil)
		}
		p.Description = description
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}

	if err := s.policyRepo.Update(ctx, p); err != nil {
		return nil, mapRepoError(err)
	}

	s.cache.Invalidate()
	s.logger.Info("policy updated",
		zap.Int64("policy_id", p.ID),
		zap.String("rule_name", p.RuleName),
		zap.Bool("is_active", p.IsActive))

	return p, nil
}

// Delete removes a policy
func (s *PolicyService) Delete(ctx context.Context, id int64) error {
	if err := s.policyRepo.Delete(ctx, id); err != nil {
		return mapRepoError(err)
	}

	s.cache.Invalidate()
	s.logger.Info("policy deleted", zap.Int64("policy_id", id))
	return nil
}

// GetCacheStats returns snapshot cache statistics
func (s *PolicyService) GetCacheStats() CacheStats {
	return s.cache.Stats()
}

// ensureRuleNameFree fails with a conflict when another policy owns ruleName
func (s *PolicyService) ensureRuleNameFree(ctx context.Context, ruleName string, selfID int64) error {
	existing, err := s.policyRepo.GetByRuleName(ctx, ruleName)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return nil
	case err != nil:
		return services.WrapInternal("failed to check rule name", err)
	case existing.ID != selfID:
		return services.NewDomainError(services.ErrorTypeConflict, duplicateRuleMessage(ruleName), nil).
			WithDetail("rule_name", ruleName)
	}
	return nil
}

// duplicateRuleMessage formats the conflict message for a taken rule name
func duplicateRuleMessage(ruleName string) string {
	return fmt.Sprintf("policy with rule name %q already exists", ruleName)
}

func mapRepoError(err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return services.WrapNotFound(services.ErrPolicyNotFound.Message, err)
	}
	return services.WrapInternal("policy repository error", err)
}
