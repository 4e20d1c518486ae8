// Package sentinel runs the transaction evaluation state machine:
// classify, optionally investigate spending history and reclassify, then
// hand the terminal decision to the enforcement executor.
package sentinel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/amulyarudresh/CorpCard-Sentinel/config"
	"github.com/amulyarudresh/CorpCard-Sentinel/internal/observability"
	"github.com/amulyarudresh/CorpCard-Sentinel/models"
	"github.com/amulyarudresh/CorpCard-Sentinel/services/enforcement"
	"github.com/amulyarudresh/CorpCard-Sentinel/services/oracle"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/amulyarudresh/CorpCard-Sentinel/services/sentinel"

const (
	// ConfirmedPrefix marks a violation reached by a second suspicious verdict
	ConfirmedPrefix = "Confirmed after investigation: "

	// maxSteps bounds the run loop; a correct run needs at most four steps
	maxSteps = 16

	// enforcementTimeout bounds the enforcement unit of work
	enforcementTimeout = 10 * time.Second
)

var errStepLimit = errors.New("evaluation step limit exceeded")

// PolicySnapshotLoader supplies the active policy texts for a run
type PolicySnapshotLoader interface {
	ActivePolicyTexts(ctx context.Context) ([]string, error)
}

// Classifier queries the oracle for a verdict
type Classifier interface {
	Classify(ctx context.Context, txn *models.Transaction, policies []string, history string) (oracle.Verdict, error)
}

// HistorySummarizer renders an account's prior approved spending
type HistorySummarizer interface {
	Summarize(ctx context.Context, accountID, excludeID int64) (string, error)
}

// Enforcer persists a terminal decision
type Enforcer interface {
	Apply(ctx context.Context, req enforcement.Request) (*enforcement.Result, error)
}

// Engine evaluates transactions against the policy snapshot
type Engine struct {
	policies          PolicySnapshotLoader
	classifier        Classifier
	history           HistorySummarizer
	enforcer          Enforcer
	metrics           *observability.Metrics
	failureMode       string
	maxInvestigations int
	tracer            trace.Tracer
	logger            *zap.Logger
}

// NewEngine creates a new Engine instance. metrics may be nil.
func NewEngine(
	policies PolicySnapshotLoader,
	classifier Classifier,
	history HistorySummarizer,
	enforcer Enforcer,
	metrics *observability.Metrics,
	cfg config.SentinelConfig,
	logger *zap.Logger,
) *Engine {
	mode := cfg.FailureMode
	if mode != config.FailureModeManualReview {
		mode = config.FailureModeFailClosed
	}
	maxInvestigations := cfg.MaxInvestigations
	if maxInvestigations <= 0 {
		maxInvestigations = 1
	}

	return &Engine{
		policies:          policies,
		classifier:        classifier,
		history:           history,
		enforcer:          enforcer,
		metrics:           metrics,
		failureMode:       mode,
		maxInvestigations: maxInvestigations,
		tracer:            observability.Tracer(tracerName),
		logger:            logger,
	}
}

// EvaluateAndEnforce runs the state machine for txn and applies the terminal
// decision. Classification failures are resolved into a decision through the
// failure mode; the only error returned is an enforcement failure.
func (e *Engine) EvaluateAndEnforce(ctx context.Context, txn *models.Transaction) (*Outcome, error) {
	start := time.Now()
	ctx, span := e.tracer.Start(ctx, "sentinel.evaluate",
		trace.WithAttributes(
			attribute.Int64("transaction.id", txn.ID),
			attribute.Int64("account.id", txn.AccountID),
		))
	defer span.End()

	snapshot, snapErr := e.policies.ActivePolicyTexts(ctx)
	state := e.monitor(newRunState(*txn, snapshot))
	e.logStage(ctx, state)
	if snapErr != nil {
		e.metrics.RecordOracleFailure("snapshot")
		state = e.resolveFailure(state, fmt.Errorf("policy snapshot unavailable: %w", snapErr))
	}

	for steps := 0; !state.Stage.IsTerminal(); steps++ {
		if steps >= maxSteps {
			e.metrics.RecordOracleFailure("step_limit")
			state = e.resolveFailure(state, errStepLimit)
			break
		}

		switch state.Stage {
		case StageEvaluate:
			state = e.evaluate(ctx, state)
		case StageInvestigate:
			state = e.investigate(ctx, state)
		default:
			state = e.resolveFailure(state, fmt.Errorf("unexpected stage %q", state.Stage))
		}
		e.logStage(ctx, state)
	}

	result, err := e.enforce(ctx, state)
	if err != nil {
		e.metrics.RecordEnforcementFailure()
		span.RecordError(err)
		span.SetStatus(codes.Error, "enforcement failed")
		return nil, err
	}

	outcome := outcomeOf(state)
	outcome.CardFrozen = result.CardFrozen
	e.metrics.RecordDecision(string(outcome.Decision), time.Since(start))
	span.SetAttributes(
		attribute.String("sentinel.decision", string(outcome.Decision)),
		attribute.Int("sentinel.investigations", outcome.InvestigationCount),
		attribute.Bool("sentinel.card_frozen", outcome.CardFrozen),
	)

	e.logger.Info("evaluation complete",
		zap.Int64("transaction_id", outcome.TransactionID),
		zap.Int64("account_id", outcome.AccountID),
		zap.String("decision", string(outcome.Decision)),
		zap.Bool("violation", outcome.Violation),
		zap.Bool("card_frozen", outcome.CardFrozen),
		zap.Int("investigation_count", outcome.InvestigationCount),
		zap.Duration("duration", time.Since(start)))

	return outcome, nil
}

// monitor logs the submission and moves the run to EVALUATE
func (e *Engine) monitor(s RunState) RunState {
	e.logger.Info("monitoring transaction",
		zap.Int64("transaction_id", s.Transaction.ID),
		zap.Int64("account_id", s.Transaction.AccountID),
		zap.String("merchant", s.Transaction.Merchant),
		zap.Float64("amount", s.Transaction.Amount),
		zap.String("category", s.Transaction.Category),
		zap.Int("policies", len(s.Policies)))

	s.Stage = StageEvaluate
	return s
}

func (e *Engine) evaluate(ctx context.Context, s RunState) RunState {
	verdict, err := e.classifier.Classify(ctx, &s.Transaction, s.Policies, s.HistoryText())
	if err != nil {
		e.metrics.RecordOracleFailure(failureKind(err))
		e.logger.Warn("classification failed",
			zap.Int64("transaction_id", s.Transaction.ID),
			zap.String("failure_mode", e.failureMode),
			zap.Error(err))
		return e.resolveFailure(s, err)
	}
	if !verdict.Recognized() {
		e.metrics.RecordOracleFailure("unrecognized")
		return e.applyFailureMode(s, fmt.Sprintf("Unrecognized decision %q: %s", verdict.Decision, verdict.Reason))
	}

	switch verdict.Decision {
	case models.DecisionSafe:
		s.Decision = models.DecisionSafe
		s.Violation = false
		s.Reason = verdict.Reason
		s.Stage = StageEnd
	case models.DecisionViolation:
		s.Decision = models.DecisionViolation
		s.Violation = true
		s.Reason = verdict.Reason
		s.Stage = StageEnforce
	case models.DecisionSuspicious:
		if s.InvestigationCount < e.maxInvestigations {
			s.Decision = models.DecisionSuspicious
			s.Violation = false
			s.Reason = verdict.Reason
			s.Stage = StageInvestigate
			break
		}
		s.Decision = models.DecisionViolation
		s.Violation = true
		s.Reason = ConfirmedPrefix + verdict.Reason
		s.Stage = StageEnforce
	}
	return s
}

func (e *Engine) investigate(ctx context.Context, s RunState) RunState {
	summary, err := e.history.Summarize(ctx, s.Transaction.AccountID, s.Transaction.ID)
	if err != nil {
		e.logger.Warn("history unavailable, continuing without it",
			zap.Int64("transaction_id", s.Transaction.ID),
			zap.Int64("account_id", s.Transaction.AccountID),
			zap.Error(err))
		summary = oracle.NoHistoryText
	}

	e.metrics.RecordInvestigation()
	s.History = &summary
	s.InvestigationCount++
	s.Stage = StageEvaluate
	return s
}

// resolveFailure turns a classification-level error into a terminal decision
func (e *Engine) resolveFailure(s RunState, err error) RunState {
	return e.applyFailureMode(s, fmt.Sprintf("System Error: Security Check Failed (%v)", err))
}

func (e *Engine) applyFailureMode(s RunState, reason string) RunState {
	s.Reason = reason
	if e.failureMode == config.FailureModeManualReview {
		s.Decision = models.DecisionManualReview
		s.Violation = false
		s.Stage = StageEnd
		return s
	}
	s.Decision = models.DecisionViolation
	s.Violation = true
	s.Stage = StageEnforce
	return s
}

func (e *Engine) enforce(ctx context.Context, s RunState) (*enforcement.Result, error) {
	// the decision is persisted even when the caller's deadline expired during classification
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), enforcementTimeout)
	defer cancel()

	return e.enforcer.Apply(ctx, enforcement.Request{
		AccountID:     s.Transaction.AccountID,
		TransactionID: s.Transaction.ID,
		Violation:     s.Violation,
		Decision:      s.Decision,
		Reason:        s.Reason,
	})
}

func (e *Engine) logStage(ctx context.Context, s RunState) {
	trace.SpanFromContext(ctx).AddEvent("stage",
		trace.WithAttributes(
			attribute.String("sentinel.stage", string(s.Stage)),
			attribute.String("sentinel.decision", string(s.Decision)),
		))
	e.logger.Info("stage transition",
		zap.Int64("transaction_id", s.Transaction.ID),
		zap.Int64("account_id", s.Transaction.AccountID),
		zap.String("stage", string(s.Stage)),
		zap.String("decision", string(s.Decision)),
		zap.Int("investigation_count", s.InvestigationCount))
}

func failureKind(err error) string {
	switch {
	case errors.Is(err, oracle.ErrOracleUnavailable):
		return "unavailable"
	case errors.Is(err, oracle.ErrMalformedVerdict):
		return "malformed"
	default:
		return "other"
	}
}
