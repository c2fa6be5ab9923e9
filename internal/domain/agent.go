package domain

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"
)

// maxDecisionRetries caps how often a malformed oracle response is fed back
// for another attempt before falling back to the neutral decision.
const maxDecisionRetries = 3

var (
	half   = decimal.NewFromFloat(0.5)
	twelve = decimal.NewFromInt(12)
)

// Agent owns one trader's financial state. All mutation goes through its
// settlement and lifecycle methods; once Quit is set, every operation
// short-circuits to its neutral result without touching the oracle.
type Agent struct {
	Order     int
	Character string

	Cash    decimal.Decimal
	SharesA int64
	SharesB int64
	Loans   []Loan

	IsBankrupt bool
	Quit       bool

	// InitialProperty is the mark-to-market value at creation; it caps the
	// day-1 loan ceiling.
	InitialProperty decimal.Decimal

	// LoanRates is the agent's latest-known rate table, replaced in place by
	// scheduled market events via UpdateLoanRates.
	LoanRates []decimal.Decimal

	Rules MarketRules

	oracle    Oracle
	validator Validator
}

// NewAgent creates an agent from an initial portfolio, valued at the given
// initial stock prices.
func NewAgent(order int, p Portfolio, priceA, priceB decimal.Decimal, rules MarketRules, o Oracle, v Validator) *Agent {
	a := &Agent{
		Order:     order,
		Character: p.Character,
		Cash:      p.Cash,
		SharesA:   p.SharesA,
		SharesB:   p.SharesB,
		Loans:     []Loan{p.InitialLoan},
		LoanRates: append([]decimal.Decimal(nil), rules.BaseRates...),
		Rules:     rules,
		oracle:    o,
		validator: v,
	}
	a.InitialProperty = a.TotalProperty(priceA, priceB)
	return a
}

// TotalProperty returns cash plus mark-to-market value of both holdings.
func (a *Agent) TotalProperty(priceA, priceB decimal.Decimal) decimal.Decimal {
	return a.Cash.
		Add(decimal.NewFromInt(a.SharesA).Mul(priceA)).
		Add(decimal.NewFromInt(a.SharesB).Mul(priceB))
}

// TotalLoan returns the sum of outstanding principals.
func (a *Agent) TotalLoan() decimal.Decimal {
	total := decimal.Zero
	for _, l := range a.Loans {
		total = total.Add(l.Amount)
	}
	return total
}

// UpdateLoanRates replaces the agent's rate table after a market event.
func (a *Agent) UpdateLoanRates(rates []decimal.Decimal) {
	a.LoanRates = append([]decimal.Decimal(nil), rates...)
	slog.Info("loan rates updated", slog.Int("agent", a.Order), slog.Any("rates", a.LoanRates))
}

// PlanLoan asks the oracle for a loan decision and applies it. The loan
// ceiling is the initial property minus existing debt on day 1 and half the
// current property minus existing debt afterwards; a non-positive ceiling
// resolves to "no" without an oracle call.
func (a *Agent) PlanLoan(ctx context.Context, day int, priceA, priceB decimal.Decimal, forum []ForumPost) LoanDecision {
	if a.Quit {
		return LoanDecision{}
	}

	fields := map[string]any{
		"date":                day,
		"character":           a.Character,
		"stock_a":             a.SharesA,
		"stock_b":             a.SharesB,
		"cash":                a.Cash,
		"debt":                a.Loans,
		"loan_rates":          a.LoanRates,
		"loan_type_names":     strings.Join(a.Rules.LoanTypes, ", "),
		"loan_type_durations": a.Rules.LoanDurations,
	}

	var maxLoan decimal.Decimal
	if day == 1 {
		maxLoan = a.InitialProperty.Sub(a.TotalLoan())
	} else {
		maxLoan = a.TotalProperty(priceA, priceB).Mul(half).Sub(a.TotalLoan())
		fields["stock_a_price"] = priceA
		fields["stock_b_price"] = priceB
		fields["lastday_forum_message"] = forum
	}

	if maxLoan.Sign() <= 0 {
		slog.Info("loan ceiling exhausted, skipping oracle",
			slog.Int("agent", a.Order), slog.String("max_loan", maxLoan.String()))
		return LoanDecision{}
	}
	fields["max_loan"] = maxLoan

	resp, err := a.oracle.Decide(ctx, a.Order, KindLoan, fields)
	if err != nil || resp == "" {
		return LoanDecision{}
	}

	ok, reason, dec := a.validator.CheckLoan(resp, maxLoan, len(a.Rules.LoanTypes))
	for tries := 0; !ok; {
		tries++
		if tries > maxDecisionRetries {
			slog.Warn("loan decision retries exhausted, skipping", slog.Int("agent", a.Order))
			dec = LoanDecision{}
			break
		}
		resp, err = a.oracle.Decide(ctx, a.Order, KindLoan, map[string]any{"fail_response": reason})
		if err != nil || resp == "" {
			dec = LoanDecision{}
			break
		}
		ok, reason, dec = a.validator.CheckLoan(resp, maxLoan, len(a.Rules.LoanTypes))
	}

	if !dec.Taken {
		slog.Info("agent decided not to loan", slog.Int("agent", a.Order))
		return dec
	}
	if dec.Type < 0 || dec.Type >= len(a.Rules.LoanDurations) {
		slog.Warn("invalid loan type in accepted decision, not taking loan",
			slog.Int("agent", a.Order), slog.Int("loan_type", dec.Type))
		return LoanDecision{}
	}

	a.Loans = append(a.Loans, Loan{
		Amount:       dec.Amount,
		Type:         dec.Type,
		RepaymentDay: day + a.Rules.LoanDurations[dec.Type],
	})
	a.Cash = a.Cash.Add(dec.Amount)
	slog.Info("agent took loan", slog.Int("agent", a.Order),
		slog.String("amount", dec.Amount.String()), slog.Int("loan_type", dec.Type))
	return dec
}

// PlanTrade asks the oracle for at most one trade intent for this session.
// Session 1 carries background context; session 1 of a quarterly report day
// additionally carries both stocks' reports.
func (a *Agent) PlanTrade(ctx context.Context, day, session int, stockA, stockB *Stock, dealsA, dealsB DealsView) TradeIntent {
	if a.Quit {
		return TradeIntent{}
	}

	priceA, priceB := stockA.Price(), stockB.Price()
	fields := map[string]any{
		"date":          day,
		"session":       session,
		"character":     a.Character,
		"stock_a":       a.SharesA,
		"stock_b":       a.SharesB,
		"stock_a_price": priceA,
		"stock_b_price": priceB,
		"stock_a_deals": dealsA,
		"stock_b_deals": dealsB,
		"cash":          a.Cash,
	}
	if session == 1 {
		fields["background"] = true
		if idx := a.Rules.ReportIndex(day); idx >= 0 {
			fields["stock_a_report"] = stockA.Report(idx)
			fields["stock_b_report"] = stockB.Report(idx)
		}
	}

	resp, err := a.oracle.Decide(ctx, a.Order, KindTrade, fields)
	if err != nil || resp == "" {
		return TradeIntent{}
	}

	ok, reason, intent := a.validator.CheckTrade(resp, a.Cash, a.SharesA, a.SharesB, priceA, priceB)
	for tries := 0; !ok; {
		tries++
		if tries > maxDecisionRetries {
			slog.Warn("trade decision retries exhausted, skipping", slog.Int("agent", a.Order))
			intent = TradeIntent{}
			break
		}
		resp, err = a.oracle.Decide(ctx, a.Order, KindTrade, map[string]any{"fail_response": reason})
		if err != nil || resp == "" {
			intent = TradeIntent{}
			break
		}
		ok, reason, intent = a.validator.CheckTrade(resp, a.Cash, a.SharesA, a.SharesB, priceA, priceB)
	}

	if !intent.IsAction() {
		slog.Info("agent decided not to act", slog.Int("agent", a.Order))
		return TradeIntent{}
	}
	return intent
}

// SettleBuy debits cash and credits the holding. Rejects without mutation if
// the cash cannot cover the cost or the symbol is unknown.
func (a *Agent) SettleBuy(stock string, price decimal.Decimal, amount int64) bool {
	if a.Quit {
		return false
	}
	if stock != StockA && stock != StockB {
		slog.Warn("illegal buy", slog.Any("error", ErrUnknownStock),
			slog.Int("agent", a.Order), slog.String("stock", stock))
		return false
	}
	cost := price.Mul(decimal.NewFromInt(amount))
	if a.Cash.LessThan(cost) {
		slog.Warn("illegal buy: insufficient cash", slog.Int("agent", a.Order),
			slog.String("cash", a.Cash.String()), slog.String("cost", cost.String()))
		return false
	}
	a.Cash = a.Cash.Sub(cost)
	if stock == StockA {
		a.SharesA += amount
	} else {
		a.SharesB += amount
	}
	return true
}

// SettleSell debits the holding and credits cash. Rejects without mutation if
// the held quantity is insufficient or the symbol is unknown.
func (a *Agent) SettleSell(stock string, price decimal.Decimal, amount int64) bool {
	if a.Quit {
		return false
	}
	var held *int64
	switch stock {
	case StockA:
		held = &a.SharesA
	case StockB:
		held = &a.SharesB
	default:
		slog.Warn("illegal sell", slog.Any("error", ErrUnknownStock),
			slog.Int("agent", a.Order), slog.String("stock", stock))
		return false
	}
	if *held < amount {
		slog.Warn("illegal sell: insufficient holding", slog.Int("agent", a.Order),
			slog.Int64("held", *held), slog.Int64("amount", amount))
		return false
	}
	*held -= amount
	a.Cash = a.Cash.Add(price.Mul(decimal.NewFromInt(amount)))
	return true
}

// ApplyRepayments settles every loan due on the given day: principal plus the
// full type interest in one lump sum, then the loan is removed. Running it
// again for the same day is a no-op.
func (a *Agent) ApplyRepayments(day int) {
	if a.Quit {
		return
	}
	kept := a.Loans[:0]
	for _, l := range a.Loans {
		if l.RepaymentDay != day {
			kept = append(kept, l)
			continue
		}
		if l.Type < 0 || l.Type >= len(a.LoanRates) {
			slog.Error("invalid loan type during repayment",
				slog.Int("agent", a.Order), slog.Int("loan_type", l.Type))
			kept = append(kept, l)
			continue
		}
		due := l.Amount.Mul(decimal.NewFromInt(1).Add(a.LoanRates[l.Type]))
		a.Cash = a.Cash.Sub(due)
		slog.Info("loan repaid", slog.Int("agent", a.Order),
			slog.String("principal", l.Amount.String()), slog.String("due", due.String()))
	}
	a.Loans = kept

	if a.Cash.IsNegative() && !a.IsBankrupt {
		slog.Warn("cash negative after repayment", slog.Int("agent", a.Order),
			slog.String("cash", a.Cash.String()))
		a.IsBankrupt = true
	}
}

// ApplyPeriodicInterest accrues one twelfth of the annual type rate on every
// open loan (monthly approximation).
func (a *Agent) ApplyPeriodicInterest() {
	if a.Quit {
		return
	}
	for _, l := range a.Loans {
		if l.Type < 0 || l.Type >= len(a.LoanRates) {
			slog.Error("invalid loan type during interest accrual",
				slog.Int("agent", a.Order), slog.Int("loan_type", l.Type))
			continue
		}
		interest := l.Amount.Mul(a.LoanRates[l.Type]).Div(twelve)
		a.Cash = a.Cash.Sub(interest)

		if a.Cash.IsNegative() && !a.IsBankrupt {
			slog.Warn("cash negative after interest", slog.Int("agent", a.Order),
				slog.String("cash", a.Cash.String()))
			a.IsBankrupt = true
		}
	}
}

// ResolveBankruptcy liquidates holdings to cover negative cash. Stock A is
// sold before stock B, in ceiling-rounded share counts, so the agent never
// ends short by a rounding fraction. Returns true when the agent is beyond
// saving and must quit permanently.
func (a *Agent) ResolveBankruptcy(priceA, priceB decimal.Decimal) bool {
	if a.Quit {
		return false
	}
	if !a.IsBankrupt && !a.Cash.IsNegative() {
		return false
	}

	slog.Info("bankruptcy resolution started", slog.Int("agent", a.Order),
		slog.String("cash", a.Cash.String()),
		slog.Int64("shares_a", a.SharesA), slog.Int64("shares_b", a.SharesB))

	valueA := decimal.NewFromInt(a.SharesA).Mul(priceA)
	valueB := decimal.NewFromInt(a.SharesB).Mul(priceB)

	if valueA.Add(valueB).Add(a.Cash).IsNegative() {
		// Under water even fully liquidated.
		a.Cash = a.Cash.Add(valueA).Add(valueB)
		a.SharesA, a.SharesB = 0, 0
		a.Quit = true
		a.IsBankrupt = true
		slog.Warn("agent definitively bankrupt", slog.Int("agent", a.Order),
			slog.String("cash", a.Cash.String()))
		return true
	}

	if a.Cash.IsNegative() {
		needed := a.Cash.Neg()
		if a.SharesA > 0 && priceA.IsPositive() {
			if valueA.GreaterThanOrEqual(needed) {
				units := needed.Div(priceA).Ceil().IntPart()
				a.SharesA -= units
				a.Cash = a.Cash.Add(decimal.NewFromInt(units).Mul(priceA))
				needed = decimal.Zero
			} else {
				a.Cash = a.Cash.Add(valueA)
				needed = needed.Sub(valueA)
				a.SharesA = 0
			}
		}
		if needed.IsPositive() && a.SharesB > 0 && priceB.IsPositive() {
			if decimal.NewFromInt(a.SharesB).Mul(priceB).GreaterThanOrEqual(needed) {
				units := needed.Div(priceB).Ceil().IntPart()
				a.SharesB -= units
				a.Cash = a.Cash.Add(decimal.NewFromInt(units).Mul(priceB))
			} else {
				a.Cash = a.Cash.Add(decimal.NewFromInt(a.SharesB).Mul(priceB))
				a.SharesB = 0
			}
		}
	}

	if a.Cash.IsNegative() {
		a.Quit = true
		a.IsBankrupt = true
		slog.Error("cash still negative after full liquidation", slog.Int("agent", a.Order),
			slog.String("cash", a.Cash.String()))
		return true
	}

	a.IsBankrupt = false
	slog.Info("bankruptcy resolved", slog.Int("agent", a.Order),
		slog.String("cash", a.Cash.String()))
	return false
}

// NextDayEstimate is a best-effort, purely informational outlook query.
func (a *Agent) NextDayEstimate(ctx context.Context) Estimate {
	if a.Quit {
		return NeutralEstimate()
	}
	resp, err := a.oracle.Decide(ctx, a.Order, KindEstimate, map[string]any{})
	if err != nil || resp == "" {
		return NeutralEstimate()
	}

	ok, reason, est := a.validator.CheckEstimate(resp)
	for tries := 0; !ok; {
		tries++
		if tries > maxDecisionRetries {
			slog.Warn("estimate retries exhausted", slog.Int("agent", a.Order))
			return NeutralEstimate()
		}
		resp, err = a.oracle.Decide(ctx, a.Order, KindEstimate, map[string]any{"fail_response": reason})
		if err != nil || resp == "" {
			return NeutralEstimate()
		}
		ok, reason, est = a.validator.CheckEstimate(resp)
	}
	return est
}

// PostForumMessage asks the oracle for a free-text forum post. No validation;
// empty string on failure or quit.
func (a *Agent) PostForumMessage(ctx context.Context) string {
	if a.Quit {
		return ""
	}
	resp, err := a.oracle.Decide(ctx, a.Order, KindForum, map[string]any{})
	if err != nil {
		return ""
	}
	return resp
}
