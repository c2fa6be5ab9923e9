package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// DecisionKind identifies which decision an oracle request asks for.
type DecisionKind string

const (
	KindLoan     DecisionKind = "loan"
	KindTrade    DecisionKind = "trade"
	KindEstimate DecisionKind = "estimate"
	KindForum    DecisionKind = "forum"
)

// Oracle is the external decision-generating collaborator. It is opaque
// beyond its free-text response; an empty response means "no decision".
// Context is kept per agent and reset by the orchestrator each day.
type Oracle interface {
	Decide(ctx context.Context, agentID int, kind DecisionKind, fields map[string]any) (string, error)
	ResetContext(agentID int)
}

// Validator parses and validates oracle responses into structured intents.
// On failure it returns a reason string suitable for a targeted retry prompt.
type Validator interface {
	CheckLoan(resp string, maxLoan decimal.Decimal, numLoanTypes int) (bool, string, LoanDecision)
	CheckTrade(resp string, cash decimal.Decimal, sharesA, sharesB int64, priceA, priceB decimal.Decimal) (bool, string, TradeIntent)
	CheckEstimate(resp string) (bool, string, Estimate)
}
