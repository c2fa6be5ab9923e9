package domain

import "github.com/shopspring/decimal"

// Loan is one outstanding loan. Repayment is a single lump sum of
// principal plus the full type interest, due on RepaymentDay.
type Loan struct {
	Amount       decimal.Decimal `json:"amount"`
	Type         int             `json:"loan_type"`
	RepaymentDay int             `json:"repayment_day"`
}

// MarketRules is the static rule set threaded into every agent at creation.
// The loan rate table is the only part that changes mid-run; scheduled market
// events replace it through Agent.UpdateLoanRates.
type MarketRules struct {
	LoanTypes     []string
	LoanDurations []int             // maturity offset in days, per type
	BaseRates     []decimal.Decimal // annual rate, per type
	RepaymentDays []int             // days on which periodic interest accrues
	ReportDays    []int             // quarterly report days
}

// ReportIndex returns the quarter index for a report day, or -1.
func (r MarketRules) ReportIndex(day int) int {
	for i, d := range r.ReportDays {
		if d == day {
			return i
		}
	}
	return -1
}

// IsRepaymentDay reports whether periodic interest accrues on the given day.
func (r MarketRules) IsRepaymentDay(day int) bool {
	for _, d := range r.RepaymentDays {
		if d == day {
			return true
		}
	}
	return false
}
