package submission

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/amulyarudresh/CorpCard-Sentinel/internal/observability"
	"github.com/amulyarudresh/CorpCard-Sentinel/models"
	"github.com/amulyarudresh/CorpCard-Sentinel/repositories"
	"github.com/amulyarudresh/CorpCard-Sentinel/services"
	"github.com/amulyarudresh/CorpCard-Sentinel/services/sentinel"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockAccountRepository is a mock implementation of AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) Create(ctx context.Context, account *models.Account) error {
	return m.Called(ctx, account).Error(0)
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	args := m.Called(ctx, id)
	if account := args.Get(0); account != nil {
		return account.(*models.Account), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccountRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Account, error) {
	args := m.Called(ctx, id)
	if account := args.Get(0); account != nil {
		return account.(*models.Account), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccountRepository) GetByName(ctx context.Context, name string) (*models.Account, error) {
	args := m.Called(ctx, name)
	if account := args.Get(0); account != nil {
		return account.(*models.Account), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccountRepository) List(ctx context.Context, limit, offset int) ([]*models.Account, error) {
	args := m.Called(ctx, limit, offset)
	if accounts := args.Get(0); accounts != nil {
		return accounts.([]*models.Account), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccountRepository) UpdateCardStatus(ctx context.Context, account *models.Account) error {
	return m.Called(ctx, account).Error(0)
}

// MockTransactionRepository is a mock implementation of TransactionRepository
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, txn *models.Transaction) error {
	args := m.Called(ctx, txn)
	if args.Error(0) == nil {
		txn.ID = 77
	}
	return args.Error(0)
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id int64) (*models.Transaction, error) {
	args := m.Called(ctx, id)
	if txn := args.Get(0); txn != nil {
		return txn.(*models.Transaction), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTransactionRepository) List(ctx context.Context, limit, offset int) ([]*models.Transaction, error) {
	args := m.Called(ctx, limit, offset)
	if txns := args.Get(0); txns != nil {
		return txns.([]*models.Transaction), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTransactionRepository) ListNonViolatingByAccount(ctx context.Context, accountID, excludeID int64) ([]*models.Transaction, error) {
	args := m.Called(ctx, accountID, excludeID)
	if txns := args.Get(0); txns != nil {
		return txns.([]*models.Transaction), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTransactionRepository) UpdateAssessment(ctx context.Context, txn *models.Transaction) error {
	return m.Called(ctx, txn).Error(0)
}

// MockEvaluator is a mock implementation of Evaluator
type MockEvaluator struct {
	mock.Mock
}

func (m *MockEvaluator) EvaluateAndEnforce(ctx context.Context, txn *models.Transaction) (*sentinel.Outcome, error) {
	args := m.Called(ctx, txn)
	if outcome := args.Get(0); outcome != nil {
		return outcome.(*sentinel.Outcome), args.Error(1)
	}
	return nil, args.Error(1)
}

type fixture struct {
	svc          *SubmissionService
	accounts     *MockAccountRepository
	transactions *MockTransactionRepository
	evaluator    *MockEvaluator
	metrics      *observability.Metrics
}

func newFixture() *fixture {
	f := &fixture{
		accounts:     new(MockAccountRepository),
		transactions: new(MockTransactionRepository),
		evaluator:    new(MockEvaluator),
		metrics:      observability.NewMetrics(),
	}
	f.svc = NewSubmissionService(f.accounts, f.transactions, f.evaluator, f.metrics, zap.NewNop())
	return f
}

func account(status models.CardStatus) *models.Account {
	a := models.NewAccount("Mike Sales VP", "mike.sales@techcorp.com")
	a.ID = 1
	a.CardStatus = status
	return a
}

func casinoRequest() Request {
	return Request{
		AccountID: 1,
		Merchant:  "Casino Royale",
		Amount:    200,
		Category:  "Gambling",
		Timestamp: time.Date(2024, 6, 1, 23, 0, 0, 0, time.UTC),
	}
}

func TestSubmit_EvaluatesActiveCard(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.accounts.On("GetByID", ctx, int64(1)).Return(account(models.CardStatusActive), nil)
	f.transactions.On("Create", ctx, mock.MatchedBy(func(txn *models.Transaction) bool {
		return txn.Merchant == "Casino Royale" && !txn.IsViolation && txn.ViolationReason == nil
	})).Return(nil)
	f.evaluator.On("EvaluateAndEnforce", ctx, mock.MatchedBy(func(txn *models.Transaction) bool {
		return txn.ID == 77
	})).Return(&sentinel.Outcome{
		TransactionID: 77,
		AccountID:     1,
		Violation:     true,
		Reason:        "Gambling is prohibited.",
		Decision:      models.DecisionViolation,
		CardFrozen:    true,
	}, nil)

	result, err := f.svc.Submit(ctx, casinoRequest())

	require.NoError(t, err)
	assert.Equal(t, int64(77), result.Transaction.ID)
	assert.True(t, result.Transaction.IsViolation)
	assert.Equal(t, "Gambling is prohibited.", result.Transaction.Reason())
	assert.True(t, result.Outcome.CardFrozen)
	f.accounts.AssertExpectations(t)
	f.transactions.AssertExpectations(t)
	f.evaluator.AssertExpectations(t)
}

func TestSubmit_FrozenCardSkipsEvaluation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.accounts.On("GetByID", ctx, int64(1)).Return(account(models.CardStatusFrozen), nil)
	f.transactions.On("Create", ctx, mock.MatchedBy(func(txn *models.Transaction) bool {
		return txn.IsViolation && txn.Reason() == FrozenCardReason
	})).Return(nil)

	result, err := f.svc.Submit(ctx, casinoRequest())

	require.NoError(t, err)
	assert.Equal(t, models.DecisionViolation, result.Outcome.Decision)
	assert.Equal(t, FrozenCardReason, result.Outcome.Reason)
	assert.Equal(t, 0, result.Outcome.InvestigationCount)
	assert.NoError(t, testutil.GatherAndCompare(f.metrics.Registry(), strings.NewReader(`
# HELP sentinel_frozen_card_rejections_total Submissions rejected because the card was already frozen
# TYPE sentinel_frozen_card_rejections_total counter
sentinel_frozen_card_rejections_total 1
`), "sentinel_frozen_card_rejections_total"))
	f.evaluator.AssertNotCalled(t, "EvaluateAndEnforce", mock.Anything, mock.Anything)
}

func TestSubmit_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Request)
	}{
		{name: "zero amount", mutate: func(r *Request) { r.Amount = 0 }},
		{name: "negative amount", mutate: func(r *Request) { r.Amount = -5 }},
		{name: "amount over column precision", mutate: func(r *Request) { r.Amount = 1e12 }},
		{name: "blank merchant", mutate: func(r *Request) { r.Merchant = " " }},
		{name: "blank category", mutate: func(r *Request) { r.Category = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			req := casinoRequest()
			tt.mutate(&req)

			_, err := f.svc.Submit(context.Background(), req)

			assert.True(t, services.IsValidationError(err))
			f.accounts.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
		})
	}
}

func TestSubmit_UnknownAccount(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.accounts.On("GetByID", ctx, int64(1)).
		Return(nil, fmt.Errorf("account 1: %w", repositories.ErrNotFound))

	_, err := f.svc.Submit(ctx, casinoRequest())

	assert.True(t, services.IsNotFoundError(err))
	f.transactions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSubmit_EnforcementFailurePropagates(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	enforcementErr := services.WrapEnforcement(errors.New("connection reset"))

	f.accounts.On("GetByID", ctx, int64(1)).Return(account(models.CardStatusActive), nil)
	f.transactions.On("Create", ctx, mock.Anything).Return(nil)
	f.evaluator.On("EvaluateAndEnforce", ctx, mock.Anything).Return(nil, enforcementErr)

	_, err := f.svc.Submit(ctx, casinoRequest())

	assert.ErrorIs(t, err, services.ErrEnforcementFailed)
}

func TestSubmit_CreateFailure(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.accounts.On("GetByID", ctx, int64(1)).Return(account(models.CardStatusActive), nil)
	f.transactions.On("Create", ctx, mock.Anything).Return(errors.New("insert failed"))

	_, err := f.svc.Submit(ctx, casinoRequest())

	assert.True(t, services.IsInternalError(err))
	f.evaluator.AssertNotCalled(t, "EvaluateAndEnforce", mock.Anything, mock.Anything)
}

func TestList(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	txns := []*models.Transaction{{ID: 2}, {ID: 1}}

	f.transactions.On("List", ctx, 50, 0).Return(txns, nil)

	got, err := f.svc.List(ctx, 50, 0)

	require.NoError(t, err)
	assert.Equal(t, txns, got)
}

func TestGet_NotFound(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.transactions.On("GetByID", ctx, int64(5)).Return(nil, repositories.ErrNotFound)

	_, err := f.svc.Get(ctx, 5)

	assert.ErrorIs(t, err, services.ErrTransactionNotFound)
}
