package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/amulyarudresh/CorpCard-Sentinel/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, txn *models.Transaction) error {
	return m.Called(ctx, txn).Error(0)
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
	return args.Get(0).([]*models.Transaction), args.Error(1)
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

func txn(day int, amount float64, merchant, category string) *models.Transaction {
	return models.NewTransaction(1, merchant, amount, category, time.Date(2024, 3, day, 10, 0, 0, 0, time.UTC))
}

func TestRender_Empty(t *testing.T) {
	assert.Equal(t, NoHistoryText, Render(nil))
}

func TestRender_SingleTransaction(t *testing.T) {
	out := Render([]*models.Transaction{txn(5, 12.5, "Starbucks", "Food")})

	assert.Equal(t,
		"User has 1 previous approved transaction totaling $12.50 with an average of $12.50 per transaction. "+
			"Top categories: Food (1). Most recent: 2024-03-05: $12.50 at Starbucks (Food).",
		out)
}

func TestRender_DatesInUTC(t *testing.T) {
	pacific := time.FixedZone("PST", -8*60*60)
	late := models.NewTransaction(1, "Hilton", 80, "Travel", time.Date(2024, 3, 9, 22, 0, 0, 0, pacific))

	out := Render([]*models.Transaction{late})

	assert.Contains(t, out, "Most recent: 2024-03-10: $80.00 at Hilton (Travel).")
}

func TestRender_Aggregates(t *testing.T) {
	// most recent first
	txns := []*models.Transaction{
		txn(9, 30, "Uber", "Travel"),
		txn(8, 10, "Starbucks", "Food"),
		txn(7, 50, "Adobe", "Software"),
		txn(6, 20, "Lyft", "Travel"),
		txn(5, 15, "Chipotle", "Food"),
		txn(4, 25, "Delta", "Airfare"),
	}

	out := Render(txns)

	assert.Contains(t, out, "User has 6 previous approved transactions totaling $150.00 with an average of $25.00 per transaction.")
	// Travel and Food tie at 2; Travel was seen first
	assert.Contains(t, out, "Top categories: Travel (2), Food (2), Software (1).")
	assert.Contains(t, out, "Most recent: 2024-03-09: $30.00 at Uber (Travel); 2024-03-08: $10.00 at Starbucks (Food); 2024-03-07: $50.00 at Adobe (Software).")
	assert.NotContains(t, out, "Lyft")
	assert.NotContains(t, out, "Airfare")
}

func TestSummarizer_Summarize(t *testing.T) {
	ctx := context.Background()

	t.Run("renders repository rows", func(t *testing.T) {
		repo := new(MockTransactionRepository)
		repo.On("ListNonViolatingByAccount", ctx, int64(1), int64(42)).
			Return([]*models.Transaction{txn(2, 9.99, "Spotify", "Software")}, nil)

		out, err := NewSummarizer(repo, zap.NewNop()).Summarize(ctx, 1, 42)

		require.NoError(t, err)
		assert.Contains(t, out, "User has 1 previous approved transaction")
		repo.AssertExpectations(t)
	})

	t.Run("no rows", func(t *testing.T) {
		repo := new(MockTransactionRepository)
		repo.On("ListNonViolatingByAccount", ctx, int64(2), int64(0)).
			Return([]*models.Transaction{}, nil)

		out, err := NewSummarizer(repo, zap.NewNop()).Summarize(ctx, 2, 0)

		require.NoError(t, err)
		assert.Equal(t, NoHistoryText, out)
	})

	t.Run("repository error", func(t *testing.T) {
		repo := new(MockTransactionRepository)
		repo.On("ListNonViolatingByAccount", ctx, int64(3), int64(0)).
			Return(nil, errors.New("connection refused"))

		out, err := NewSummarizer(repo, zap.NewNop()).Summarize(ctx, 3, 0)

		assert.Error(t, err)
		assert.Empty(t, out)
	})
}
