package domain

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
)

func TestRandomPortfolio(t *testing.T) {
	rules := testRules()
	priceA := decimal.NewFromInt(30)
	priceB := decimal.NewFromInt(40)
	minProp := decimal.NewFromInt(1000)
	maxProp := decimal.NewFromInt(50000)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 50; i++ {
		p := RandomPortfolio(rng, priceA, priceB, minProp, maxProp, rules)

		total := p.Cash.
			Add(decimal.NewFromInt(p.SharesA).Mul(priceA)).
			Add(decimal.NewFromInt(p.SharesB).Mul(priceB))
		// Cash is rounded to cents after sampling, so allow a one-unit slack
		// at the boundaries.
		if total.LessThan(minProp.Sub(decimal.NewFromInt(1))) ||
			total.GreaterThan(maxProp.Add(decimal.NewFromInt(1))) {
			t.Fatalf("draw %d: property %v outside [%v, %v]", i, total, minProp, maxProp)
		}
		if p.InitialLoan.Amount.GreaterThan(total.Add(decimal.NewFromInt(1))) {
			t.Fatalf("draw %d: initial debt %v exceeds property %v", i, p.InitialLoan.Amount, total)
		}
		if p.Character == "" {
			t.Fatalf("draw %d: empty character", i)
		}
		if p.InitialLoan.Type < 0 || p.InitialLoan.Type >= len(rules.LoanTypes) {
			t.Fatalf("draw %d: loan type %d out of range", i, p.InitialLoan.Type)
		}
		found := false
		for _, d := range rules.RepaymentDays {
			if d == p.InitialLoan.RepaymentDay {
				found = true
			}
		}
		if !found {
			t.Fatalf("draw %d: repayment day %d not in schedule", i, p.InitialLoan.RepaymentDay)
		}
	}
}

func TestRandomPortfolio_Deterministic(t *testing.T) {
	rules := testRules()
	priceA := decimal.NewFromInt(30)
	priceB := decimal.NewFromInt(40)
	minProp := decimal.NewFromInt(1000)
	maxProp := decimal.NewFromInt(50000)

	a := RandomPortfolio(rand.New(rand.NewSource(7)), priceA, priceB, minProp, maxProp, rules)
	b := RandomPortfolio(rand.New(rand.NewSource(7)), priceA, priceB, minProp, maxProp, rules)

	if !a.Cash.Equal(b.Cash) || a.SharesA != b.SharesA || a.SharesB != b.SharesB || a.Character != b.Character {
		t.Error("same seed must yield the same portfolio")
	}
}
