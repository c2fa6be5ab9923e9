package domain

import (
	"math/rand"

	"github.com/shopspring/decimal"
)

// Portfolio is the randomized starting state of one agent.
type Portfolio struct {
	Character   string
	Cash        decimal.Decimal
	SharesA     int64
	SharesB     int64
	InitialLoan Loan
}

var characters = []string{"Conservative", "Aggressive", "Balanced", "Growth-Oriented"}

// RandomPortfolio draws holdings, cash and an initial loan by rejection
// sampling until the mark-to-market property lands inside the configured
// bounds and the initial debt does not exceed it.
func RandomPortfolio(rng *rand.Rand, priceA, priceB, minProp, maxProp decimal.Decimal, rules MarketRules) Portfolio {
	pA, _ := priceA.Float64()
	pB, _ := priceB.Float64()
	minF, _ := minProp.Float64()
	maxF, _ := maxProp.Float64()

	var sharesA, sharesB int64
	var cash, debt float64
	for {
		total := float64(sharesA)*pA + float64(sharesB)*pB + cash
		if total >= minF && total <= maxF && debt <= total {
			break
		}
		sharesA = int64(rng.Float64() * maxF / pA)
		sharesB = int64(rng.Float64() * maxF / pB)
		cash = rng.Float64() * maxF
		debt = rng.Float64() * maxF
	}

	return Portfolio{
		Character: characters[rng.Intn(len(characters))],
		Cash:      decimal.NewFromFloat(cash).Round(2),
		SharesA:   sharesA,
		SharesB:   sharesB,
		InitialLoan: Loan{
			Amount:       decimal.NewFromFloat(debt).Round(2),
			Type:         rng.Intn(len(rules.LoanTypes)),
			RepaymentDay: rules.RepaymentDays[rng.Intn(len(rules.RepaymentDays))],
		},
	}
}
