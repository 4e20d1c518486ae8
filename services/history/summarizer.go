// Package history condenses an account's approved spending into a short
// paragraph suitable for an oracle prompt.
package history

import (
	"context"
	"fmt"
	"strings"

	"github.com/amulyarudresh/CorpCard-Sentinel/models"
	"github.com/amulyarudresh/CorpCard-Sentinel/repositories"
	"go.uber.org/zap"
)

// NoHistoryText is returned when the account has no approved transactions
const NoHistoryText = "No previous spending history found for this user."

const (
	topCategories = 3
	recentCount   = 3
)

// Summarizer builds spending profiles from stored transactions
type Summarizer struct {
	transactions repositories.TransactionRepository
	logger       *zap.Logger
}

// NewSummarizer creates a new history summarizer
func NewSummarizer(transactions repositories.TransactionRepository, logger *zap.Logger) *Summarizer {
	return &Summarizer{
		transactions: transactions,
		logger:       logger,
	}
}

// Summarize loads the account's non-violating transactions, skipping
// excludeID, and renders them with Render
func (s *Summarizer) Summarize(ctx context.Context, accountID, excludeID int64) (string, error) {
	txns, err := s.transactions.ListNonViolatingByAccount(ctx, accountID, excludeID)
	if err != nil {
		return "", fmt.Errorf("failed to load spending history: %w", err)
	}

	s.logger.Debug("spending history loaded",
		zap.Int64("account_id", accountID),
		zap.Int("transactions", len(txns)),
	)
	return Render(txns), nil
}

type categoryCount struct {
	name  string
	count int
}

// Render formats transactions, most recent first, into one paragraph
func Render(txns []*models.Transaction) string {
	if len(txns) == 0 {
		return NoHistoryText
	}

	var total float64
	var categories []categoryCount
	index := make(map[string]int)
	for _, t := range txns {
		total += t.Amount
		if i, ok := index[t.Category]; ok {
			categories[i].count++
			continue
		}
		index[t.Category] = len(categories)
		categories = append(categories, categoryCount{name: t.Category, count: 1})
	}

	// stable selection keeps first-encountered order on ties
	top := make([]categoryCount, 0, topCategories)
	used := make([]bool, len(categories))
	for len(top) < topCategories && len(top) < len(categories) {
		best := -1
		for i, c := range categories {
			if used[i] {
				continue
			}
			if best < 0 || c.count > categories[best].count {
				best = i
			}
		}
		used[best] = true
		top = append(top, categories[best])
	}

	topParts := make([]string, len(top))
	for i, c := range top {
		topParts[i] = fmt.Sprintf("%s (%d)", c.name, c.count)
	}

	recent := txns
	if len(recent) > recentCount {
		recent = recent[:recentCount]
	}
	recentParts := make([]string, len(recent))
	for i, t := range recent {
		recentParts[i] = fmt.Sprintf("%s: $%.2f at %s (%s)",
			t.Timestamp.UTC().Format("2006-01-02"), t.Amount, t.Merchant, t.Category)
	}

	noun := "transactions"
	if len(txns) == 1 {
		noun = "transaction"
	}

	return fmt.Sprintf(
		"User has %d previous approved %s totaling $%.2f with an average of $%.2f per transaction. Top categories: %s. Most recent: %s.",
		len(txns), noun, total, total/float64(len(txns)),
		strings.Join(topParts, ", "),
		strings.Join(recentParts, "; "),
	)
}
