package domain

import "github.com/shopspring/decimal"

// MarketAgentID is the sentinel id used where no agent object owns a side of
// a trade or a forum post (synthetic orders, market-event broadcasts).
const MarketAgentID = -1

// Side of a trade intent.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Stock symbols traded in the simulation.
const (
	StockA = "A"
	StockB = "B"
)

// TradeIntent is a single validated order from an agent. An unmatched
// remainder rests in the session book and is discarded at session end.
type TradeIntent struct {
	Agent   int
	Stock   string // "A" or "B"
	Side    Side
	Price   decimal.Decimal
	Amount  int64
	Day     int
	Session int
}

// IsAction reports whether the intent is an actual buy or sell, as opposed
// to the zero value meaning "no action this session".
func (t TradeIntent) IsAction() bool {
	return t.Side == SideBuy || t.Side == SideSell
}

// LoanDecision is a validated decision to take (or not take) a loan.
type LoanDecision struct {
	Taken  bool
	Type   int
	Amount decimal.Decimal
}

// Estimate is an agent's next-day outlook. Values are "yes" or "no".
type Estimate struct {
	BuyA  string `json:"buy_A"`
	BuyB  string `json:"buy_B"`
	SellA string `json:"sell_A"`
	SellB string `json:"sell_B"`
	Loan  string `json:"loan"`
}

// NeutralEstimate is the fallback when the oracle produces nothing usable.
func NeutralEstimate() Estimate {
	return Estimate{BuyA: "no", BuyB: "no", SellA: "no", SellB: "no", Loan: "no"}
}

// Trade is an executed fill. Immutable once created.
type Trade struct {
	Day     int
	Session int
	Stock   string
	Buyer   int // MarketAgentID when the buying side had no agent object
	Seller  int
	Amount  int64
	Price   decimal.Decimal
}

// ForumPost is one message on the overnight forum.
type ForumPost struct {
	Agent   int    `json:"agent"` // MarketAgentID for market-event broadcasts
	Message string `json:"message"`
}

// DealsView is a read-only snapshot of one instrument's resting session book,
// handed to agents as decision context.
type DealsView struct {
	Buys  []TradeIntent
	Sells []TradeIntent
}
