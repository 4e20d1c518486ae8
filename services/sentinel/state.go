package sentinel

import (
	"github.com/amulyarudresh/CorpCard-Sentinel/models"
)

// Stage is a node of the evaluation state machine
type Stage string

const (
	StageMonitor     Stage = "MONITOR"
	StageEvaluate    Stage = "EVALUATE"
	StageInvestigate Stage = "INVESTIGATE"
	StageEnforce     Stage = "ENFORCE"
	StageEnd         Stage = "END"
)

// IsTerminal reports whether the run hands over to enforcement at this stage
func (s Stage) IsTerminal() bool {
	return s == StageEnforce || s == StageEnd
}

// RunState is the working data of one evaluation run.
// Handlers receive it by value and return the next state.
type RunState struct {
	Transaction        models.Transaction
	Policies           []string // snapshot taken at run start, never mutated
	Violation          bool
	Reason             string
	InvestigationCount int
	History            *string
	Decision           models.Decision
	Stage              Stage
}

func newRunState(txn models.Transaction, policies []string) RunState {
	snapshot := make([]string, len(policies))
	copy(snapshot, policies)

	return RunState{
		Transaction: txn,
		Policies:    snapshot,
		Stage:       StageMonitor,
	}
}

// HistoryText returns the gathered history or an empty string before any investigation
func (s RunState) HistoryText() string {
	if s.History == nil {
		return ""
	}
	return *s.History
}

// Outcome is the final result of an evaluation run
type Outcome struct {
	TransactionID      int64           `json:"transaction_id"`
	AccountID          int64           `json:"account_id"`
	Violation          bool            `json:"violation"`
	Reason             string          `json:"reason"`
	Decision           models.Decision `json:"decision"`
	InvestigationCount int             `json:"investigation_count"`
	CardFrozen         bool            `json:"card_frozen"`
}

func outcomeOf(s RunState) *Outcome {
	return &Outcome{
		TransactionID:      s.Transaction.ID,
		AccountID:          s.Transaction.AccountID,
		Violation:          s.Violation,
		Reason:             s.Reason,
		Decision:           s.Decision,
		InvestigationCount: s.InvestigationCount,
	}
}
