package domain

import "github.com/shopspring/decimal"

// Deal is one executed fill as seen by the price ledger.
type Deal struct {
	Price  decimal.Decimal `json:"price"`
	Amount int64           `json:"amount"`
}

// Stock tracks one instrument: the current price, the fills of the running
// session, the per-day fill history and the static quarterly reports.
//
// The price is frozen for the whole session while matching occurs; it moves
// exactly once, at session close, to the last executed fill.
type Stock struct {
	Name    string
	price   decimal.Decimal
	deals   []Deal
	History map[int][]Deal
	reports []string
}

// NewStock creates a stock at its initial price with its report table.
func NewStock(name string, initialPrice decimal.Decimal, reports []string) *Stock {
	return &Stock{
		Name:    name,
		price:   initialPrice,
		History: make(map[int][]Deal),
		reports: reports,
	}
}

// Price returns the current session price.
func (s *Stock) Price() decimal.Decimal {
	return s.price
}

// AddSessionDeal records an executed fill for the running session.
func (s *Stock) AddSessionDeal(d Deal) {
	s.deals = append(s.deals, d)
}

// SessionDeals returns the fills executed so far in the running session.
func (s *Stock) SessionDeals() []Deal {
	return s.deals
}

// UpdatePrice closes the session: the price moves to the last fill (or stays
// put if nothing traded) and the session's fills are archived under the day.
func (s *Stock) UpdatePrice(day int) {
	if len(s.deals) == 0 {
		return
	}
	s.price = s.deals[len(s.deals)-1].Price
	s.History[day] = append(s.History[day], s.deals...)
	s.deals = nil
}

// Report returns the quarterly report text for the given quarter index.
func (s *Stock) Report(index int) string {
	if index >= 0 && index < len(s.reports) {
		return s.reports[index]
	}
	return "Financial report for Stock " + s.Name + " not available for this quarter."
}
