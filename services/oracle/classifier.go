// Package oracle turns a transaction and its policy context into a
// classification by querying an external reasoning oracle.
package oracle

import (
	"context"
	"fmt"

	"github.com/amulyarudresh/CorpCard-Sentinel/models"
	"go.uber.org/zap"
)

// EmptyPolicyReason is the rationale given when no policies are active
const EmptyPolicyReason = "No active policies; transaction approved."

// Classifier formats queries, invokes the oracle and parses its verdicts
type Classifier struct {
	invoker Invoker
	logger  *zap.Logger
}

// NewClassifier creates a classifier around an oracle invoker
func NewClassifier(invoker Invoker, logger *zap.Logger) *Classifier {
	return &Classifier{
		invoker: invoker,
		logger:  logger,
	}
}

// Classify returns the oracle's verdict for txn. An empty policy snapshot is
// SAFE without calling the oracle. Errors wrap ErrOracleUnavailable or
// ErrMalformedVerdict and never carry a decision.
func (c *Classifier) Classify(ctx context.Context, txn *models.Transaction, policies []string, history string) (Verdict, error) {
	if len(policies) == 0 {
		return Verdict{Decision: models.DecisionSafe, Reason: EmptyPolicyReason}, nil
	}

	for _, f := range ScreenTransaction(txn) {
		c.logger.Warn("instruction-like content in transaction field",
			zap.Int64("transaction_id", txn.ID),
			zap.String("field", f.Field),
			zap.String("kind", f.Kind),
			zap.String("match", f.Pattern))
	}

	prompt := BuildPrompt(txn, policies, history)
	c.logger.Debug("oracle prompt", zap.Int64("transaction_id", txn.ID), zap.String("prompt", prompt))

	raw, err := c.invoker.Invoke(ctx, prompt)
	if err != nil {
		return Verdict{}, fmt.Errorf("%w: %w", ErrOracleUnavailable, err)
	}
	c.logger.Debug("oracle response", zap.Int64("transaction_id", txn.ID), zap.String("response", raw))

	verdict, err := ParseVerdict(raw)
	if err != nil {
		return Verdict{}, err
	}
	return verdict, nil
}
