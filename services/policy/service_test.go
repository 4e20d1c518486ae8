package policy

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/amulyarudresh/CorpCard-Sentinel/models"
	"github.com/amulyarudresh/CorpCard-Sentinel/repositories"
	"github.com/amulyarudresh/CorpCard-Sentinel/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockPolicyRepository is a mock implementation of PolicyRepository
type MockPolicyRepository struct {
	mock.Mock
}

func (m *MockPolicyRepository) Create(ctx context.Context, policy *models.Policy) error {
	args := m.Called(ctx, policy)
	if args.Error(0) == nil {
		policy.ID = 99
	}
	return args.Error(0)
}

func (m *MockPolicyRepository) GetByID(ctx context.Context, id int64) (*models.Policy, error) {
	args := m.Called(ctx, id)
	if policy := args.Get(0); policy != nil {
		return policy.(*models.Policy), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPolicyRepository) GetByRuleName(ctx context.Context, ruleName string) (*models.Policy, error) {
	args := m.Called(ctx, ruleName)
	if policy := args.Get(0); policy != nil {
		return policy.(*models.Policy), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPolicyRepository) ListActive(ctx context.Context, limit, offset int) ([]*models.Policy, error) {
	args := m.Called(ctx, limit, offset)
	if policies := args.Get(0); policies != nil {
		return policies.([]*models.Policy), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPolicyRepository) Update(ctx context.Context, policy *models.Policy) error {
	args := m.Called(ctx, policy)
	return args.Error(0)
}

func (m *MockPolicyRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func newTestService(repo *MockPolicyRepository) *PolicyService {
	logger, _ := zap.NewDevelopment()
	return NewPolicyService(repo, NewSnapshotCache(5*time.Minute), logger)
}

func stockPolicies() []*models.Policy {
	return []*models.Policy{
		{ID: 1, RuleName: "No Gambling", Description: "Gambling transactions are forbidden.", IsActive: true},
		{ID: 2, RuleName: "Weekend Expense Ban", Description: "No expenses on Saturday or Sunday.", IsActive: true},
	}
}

func TestPolicyService_ActivePolicyTexts(t *testing.T) {
	mockRepo := new(MockPolicyRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()

	mockRepo.On("ListActive", ctx, snapshotPageSize, 0).Return(stockPolicies(), nil).Once()

	texts, err := service.ActivePolicyTexts(ctx)

	require.NoError(t, err)
	assert.Equal(t, []string{
		"No Gambling: Gambling transactions are forbidden.",
		"Weekend Expense Ban: No expenses on Saturday or Sunday.",
	}, texts)

	// Second call is served from the cache
	again, err := service.ActivePolicyTexts(ctx)
	require.NoError(t, err)
	assert.Equal(t, texts, again)

	mockRepo.AssertExpectations(t)
	assert.Equal(t, uint64(1), service.GetCacheStats().Hits)
}

func TestPolicyService_ActivePolicyTexts_Empty(t *testing.T) {
	mockRepo := new(MockPolicyRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()

	mockRepo.On("ListActive", ctx, snapshotPageSize, 0).Return([]*models.Policy{}, nil)

	texts, err := service.ActivePolicyTexts(ctx)

	require.NoError(t, err)
	assert.Empty(t, texts)
}

func TestPolicyService_ActivePolicyTexts_Pages(t *testing.T) {
	mockRepo := new(MockPolicyRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()

	fullPage := make([]*models.Policy, snapshotPageSize)
	for i := range fullPage {
		fullPage[i] = &models.Policy{ID: int64(i + 1), RuleName: fmt.Sprintf("Rule %d", i+1), IsActive: true}
	}
	mockRepo.On("ListActive", ctx, snapshotPageSize, 0).Return(fullPage, nil)
	mockRepo.On("ListActive", ctx, snapshotPageSize, snapshotPageSize).Return(stockPolicies()[:1], nil)

	texts, err := service.ActivePolicyTexts(ctx)

	require.NoError(t, err)
	assert.Len(t, texts, snapshotPageSize+1)
	assert.Equal(t, "No Gambling: Gambling transactions are forbidden.", texts[snapshotPageSize])
	mockRepo.AssertExpectations(t)
}

func TestPolicyService_ActivePolicyTexts_Error(t *testing.T) {
	mockRepo := new(MockPolicyRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()
	dbErr := errors.New("connection refused")

	mockRepo.On("ListActive", ctx, snapshotPageSize, 0).Return(nil, dbErr)

	texts, err := service.ActivePolicyTexts(ctx)

	assert.Nil(t, texts)
	assert.ErrorIs(t, err, dbErr)
}

func TestPolicyService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("success invalidates snapshot", func(t *testing.T) {
		mockRepo := new(MockPolicyRepository)
		service := newTestService(mockRepo)

		mockRepo.On("ListActive", ctx, snapshotPageSize, 0).Return(stockPolicies(), nil).Twice()
		mockRepo.On("GetByRuleName", ctx, "Rideshare Policy").Return(nil, repositories.ErrNotFound)
		mockRepo.On("Create", ctx, mock.AnythingOfType("*models.Policy")).Return(nil)

		_, err := service.ActivePolicyTexts(ctx)
		require.NoError(t, err)

		p, err := service.Create(ctx, CreateRequest{
			RuleName:    "  Rideshare Policy ",
			Description: "Uber and Lyft are allowed for business travel.",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(99), p.ID)
		assert.Equal(t, "Rideshare Policy", p.RuleName)
		assert.True(t, p.IsActive)

		// The next snapshot read goes back to the repository
		_, err = service.ActivePolicyTexts(ctx)
		require.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("inactive", func(t *testing.T) {
		mockRepo := new(MockPolicyRepository)
		service := newTestService(mockRepo)
		inactive := false

		mockRepo.On("GetByRuleName", ctx, "Draft").Return(nil, repositories.ErrNotFound)
		mockRepo.On("Create", ctx, mock.AnythingOfType("*models.Policy")).Return(nil)

		p, err := service.Create(ctx, CreateRequest{RuleName: "Draft", Description: "d", IsActive: &inactive})
		require.NoError(t, err)
		assert.False(t, p.IsActive)
	})

	t.Run("duplicate rule name", func(t *testing.T) {
		mockRepo := new(MockPolicyRepository)
		service := newTestService(mockRepo)

		mockRepo.On("GetByRuleName", ctx, "No Gambling").Return(stockPolicies()[0], nil)

		p, err := service.Create(ctx, CreateRequest{RuleName: "No Gambling", Description: "again"})
		assert.Nil(t, p)
		assert.True(t, services.IsConflictError(err))
		assert.ErrorIs(t, err, services.ErrDuplicateRuleName)
		mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("missing description", func(t *testing.T) {
		mockRepo := new(MockPolicyRepository)
		service := newTestService(mockRepo)

		_, err := service.Create(ctx, CreateRequest{RuleName: "No Gambling", Description: "   "})
		assert.True(t, services.IsValidationError(err))
	})

	t.Run("repository failure", func(t *testing.T) {
		mockRepo := new(MockPolicyRepository)
		service := newTestService(mockRepo)

		mockRepo.On("GetByRuleName", ctx, "X").Return(nil, repositories.ErrNotFound)
		mockRepo.On("Create", ctx, mock.AnythingOfType("*models.Policy")).Return(errors.New("boom"))

		_, err := service.Create(ctx, CreateRequest{RuleName: "X", Description: "y"})
		assert.True(t, services.IsInternalError(err))
	})
}

func TestPolicyService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("partial update", func(t *testing.T) {
		mockRepo := new(MockPolicyRepository)
		service := newTestService(mockRepo)
		existing := stockPolicies()[1]
		description := "No expenses on weekends unless approved."
		active := false

		mockRepo.On("GetByID", ctx, int64(2)).Return(existing, nil)
		mockRepo.On("Update", ctx, existing).Return(nil)

		p, err := service.Update(ctx, 2, UpdateRequest{Description: &description, IsActive: &active})
		require.NoError(t, err)
		assert.Equal(t, "Weekend Expense Ban", p.RuleName)
		assert.Equal(t, description, p.Description)
		assert.False(t, p.IsActive)
		mockRepo.AssertExpectations(t)
	})

	t.Run("rename to taken name", func(t *testing.T) {
		mockRepo := new(MockPolicyRepository)
		service := newTestService(mockRepo)
		name := "No Gambling"

		mockRepo.On("GetByID", ctx, int64(2)).Return(stockPolicies()[1], nil)
		mockRepo.On("GetByRuleName", ctx, name).Return(stockPolicies()[0], nil)

		_, err := service.Update(ctx, 2, UpdateRequest{RuleName: &name})
		assert.True(t, services.IsConflictError(err))
	})

	t.Run("not found", func(t *testing.T) {
		mockRepo := new(MockPolicyRepository)
		service := newTestService(mockRepo)

		mockRepo.On("GetByID", ctx, int64(404)).Return(nil, fmt.Errorf("policy 404: %w", repositories.ErrNotFound))

		_, err := service.Update(ctx, 404, UpdateRequest{})
		assert.ErrorIs(t, err, services.ErrPolicyNotFound)
		assert.True(t, services.IsNotFoundError(err))
	})
}

func TestPolicyService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		mockRepo := new(MockPolicyRepository)
		service := newTestService(mockRepo)

		mockRepo.On("Delete", ctx, int64(1)).Return(nil)

		require.NoError(t, service.Delete(ctx, 1))
		assert.Equal(t, uint64(1), service.GetCacheStats().Generation)
	})

	t.Run("not found", func(t *testing.T) {
		mockRepo := new(MockPolicyRepository)
		service := newTestService(mockRepo)

		mockRepo.On("Delete", ctx, int64(7)).Return(repositories.ErrNotFound)

		err := service.Delete(ctx, 7)
		assert.True(t, services.IsNotFoundError(err))
		assert.Equal(t, uint64(0), service.GetCacheStats().Generation)
	})
}

func TestPolicyService_GetAndList(t *testing.T) {
	mockRepo := new(MockPolicyRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()

	mockRepo.On("GetByID", ctx, int64(1)).Return(stockPolicies()[0], nil)
	mockRepo.On("ListActive", ctx, 10, 0).Return(stockPolicies(), nil)

	p, err := service.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "No Gambling", p.RuleName)

	list, err := service.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
