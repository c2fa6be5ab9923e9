package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestStock_UpdatePrice(t *testing.T) {
	t.Run("No Fills Leaves Price Unchanged", func(t *testing.T) {
		s := NewStock(StockA, decimal.NewFromInt(30), nil)
		s.UpdatePrice(1)
		if !s.Price().Equal(decimal.NewFromInt(30)) {
			t.Errorf("expected price 30, got %v", s.Price())
		}
		if len(s.History) != 0 {
			t.Error("no history should be written without fills")
		}
	})

	t.Run("Price Moves To Last Fill At Close", func(t *testing.T) {
		s := NewStock(StockA, decimal.NewFromInt(30), nil)
		s.AddSessionDeal(Deal{Price: decimal.NewFromInt(31), Amount: 5})
		s.AddSessionDeal(Deal{Price: decimal.NewFromInt(29), Amount: 3})

		// Price is frozen until the session closes.
		if !s.Price().Equal(decimal.NewFromInt(30)) {
			t.Errorf("price must not move mid-session, got %v", s.Price())
		}

		s.UpdatePrice(4)

		if !s.Price().Equal(decimal.NewFromInt(29)) {
			t.Errorf("expected price 29 after close, got %v", s.Price())
		}
		if len(s.History[4]) != 2 {
			t.Errorf("expected 2 archived fills for day 4, got %d", len(s.History[4]))
		}
		if len(s.SessionDeals()) != 0 {
			t.Error("session fills must be cleared at close")
		}
	})

	t.Run("History Accumulates Across Sessions Of A Day", func(t *testing.T) {
		s := NewStock(StockB, decimal.NewFromInt(40), nil)
		s.AddSessionDeal(Deal{Price: decimal.NewFromInt(41), Amount: 1})
		s.UpdatePrice(7)
		s.AddSessionDeal(Deal{Price: decimal.NewFromInt(42), Amount: 2})
		s.UpdatePrice(7)

		if len(s.History[7]) != 2 {
			t.Errorf("expected 2 fills archived for day 7, got %d", len(s.History[7]))
		}
		if !s.Price().Equal(decimal.NewFromInt(42)) {
			t.Errorf("expected price 42, got %v", s.Price())
		}
	})
}

func TestStock_Report(t *testing.T) {
	s := NewStock(StockA, decimal.NewFromInt(30), []string{"Q1 strong", "Q2 weak"})

	if got := s.Report(1); got != "Q2 weak" {
		t.Errorf("unexpected report: %q", got)
	}
	if got := s.Report(5); got != "Financial report for Stock A not available for this quarter." {
		t.Errorf("unexpected fallback: %q", got)
	}
}

func TestMarketRules_Calendar(t *testing.T) {
	rules := testRules()

	t.Run("Report Index", func(t *testing.T) {
		if idx := rules.ReportIndex(8); idx != 0 {
			t.Errorf("expected index 0 on day 8, got %d", idx)
		}
		if idx := rules.ReportIndex(23); idx != 1 {
			t.Errorf("expected index 1 on day 23, got %d", idx)
		}
		if idx := rules.ReportIndex(9); idx != -1 {
			t.Errorf("expected -1 on a non-report day, got %d", idx)
		}
	})

	t.Run("Repayment Days", func(t *testing.T) {
		for _, day := range []int{10, 20, 30} {
			if !rules.IsRepaymentDay(day) {
				t.Errorf("day %d should be a repayment day", day)
			}
		}
		if rules.IsRepaymentDay(15) {
			t.Error("day 15 is not a repayment day")
		}
	})
}
