// Package secretary validates the decision oracle's free-text responses into
// structured intents. All checks are pure: on failure they return a reason
// string that the caller feeds back to the oracle as a retry prompt.
package secretary

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"stockagent_go/internal/domain"
)

// Secretary implements domain.Validator.
type Secretary struct{}

// New creates a Secretary.
func New() *Secretary {
	return &Secretary{}
}

// parseObject extracts and decodes a JSON object, keeping numbers as
// json.Number so integer and fractional values stay distinguishable.
func parseObject(resp string) (map[string]any, string) {
	if strings.TrimSpace(resp) == "" {
		return nil, "Invalid or empty response from API."
	}
	raw, err := ExtractJSON(resp)
	if err != nil {
		return nil, err.Error()
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Sprintf("Illegal json format: %v. Ensure valid JSON.", err)
	}
	return obj, ""
}

func asNumber(v any) (decimal.Decimal, bool) {
	n, ok := v.(json.Number)
	if !ok {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

func asInt(v any) (int64, bool) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	i, err := n.Int64()
	if err != nil {
		return 0, false
	}
	return i, true
}

// CheckLoan validates a loan decision against the agent's loan ceiling.
func (s *Secretary) CheckLoan(resp string, maxLoan decimal.Decimal, numLoanTypes int) (bool, string, domain.LoanDecision) {
	obj, reason := parseObject(resp)
	if reason != "" {
		return false, reason, domain.LoanDecision{}
	}

	raw, present := obj["loan"]
	if !present {
		return false, "Key 'loan' not in response.", domain.LoanDecision{}
	}
	loan := strings.ToLower(fmt.Sprintf("%v", raw))
	if loan != "yes" && loan != "no" {
		return false, "Value of key 'loan' should be 'yes' or 'no'.", domain.LoanDecision{}
	}

	if loan == "no" {
		if _, ok := obj["loan_type"]; ok {
			return false, "Don't include loan_type or amount if 'loan' is no.", domain.LoanDecision{}
		}
		if _, ok := obj["amount"]; ok {
			return false, "Don't include loan_type or amount if 'loan' is no.", domain.LoanDecision{}
		}
		return true, "", domain.LoanDecision{}
	}

	typeRaw, hasType := obj["loan_type"]
	amountRaw, hasAmount := obj["amount"]
	if !hasType || !hasAmount {
		return false, "Should include loan_type and amount if 'loan' is yes.", domain.LoanDecision{}
	}

	loanType, ok := asInt(typeRaw)
	if !ok || loanType < 0 || loanType >= int64(numLoanTypes) {
		return false, fmt.Sprintf("Value of key 'loan_type' should be an integer from 0 to %d.", numLoanTypes-1), domain.LoanDecision{}
	}

	amount, ok := asNumber(amountRaw)
	if !ok || !amount.IsPositive() || amount.GreaterThan(maxLoan) {
		return false, fmt.Sprintf("Value of 'amount' should be a positive number <= max_loan (%s).", maxLoan), domain.LoanDecision{}
	}

	return true, "", domain.LoanDecision{Taken: true, Type: int(loanType), Amount: amount}
}

// CheckTrade validates a trade intent, including feasibility against the
// caller-supplied live cash, holdings and prices.
func (s *Secretary) CheckTrade(resp string, cash decimal.Decimal, sharesA, sharesB int64, priceA, priceB decimal.Decimal) (bool, string, domain.TradeIntent) {
	obj, reason := parseObject(resp)
	if reason != "" {
		return false, reason, domain.TradeIntent{}
	}

	raw, present := obj["action_type"]
	if !present {
		return false, "Key 'action_type' not in response.", domain.TradeIntent{}
	}
	action := strings.ToLower(fmt.Sprintf("%v", raw))
	if action != "buy" && action != "sell" && action != "no" {
		return false, "Value of 'action_type' must be 'buy', 'sell', or 'no'.", domain.TradeIntent{}
	}

	if action == "no" {
		for _, k := range []string{"stock", "amount", "price"} {
			if _, ok := obj[k]; ok {
				return false, "Don't include stock, amount, or price if 'action_type' is no.", domain.TradeIntent{}
			}
		}
		return true, "", domain.TradeIntent{}
	}

	for _, k := range []string{"stock", "amount", "price"} {
		if _, ok := obj[k]; !ok {
			return false, "Must include stock, amount, price for 'buy'/'sell'.", domain.TradeIntent{}
		}
	}

	stock := fmt.Sprintf("%v", obj["stock"])
	if stock != domain.StockA && stock != domain.StockB {
		return false, "Value of 'stock' must be 'A' or 'B'.", domain.TradeIntent{}
	}

	amount, ok := asInt(obj["amount"])
	if !ok || amount <= 0 {
		return false, "Value of 'amount' must be a positive integer.", domain.TradeIntent{}
	}

	price, ok := asNumber(obj["price"])
	if !ok || !price.IsPositive() {
		return false, "Value of 'price' must be a positive number.", domain.TradeIntent{}
	}

	if action == "buy" {
		cost := price.Mul(decimal.NewFromInt(amount))
		if cost.GreaterThan(cash) {
			return false, fmt.Sprintf("Proposed buy (%s) exceeds cash (%s).",
				cost.StringFixed(2), cash.StringFixed(2)), domain.TradeIntent{}
		}
	} else {
		holding := sharesA
		if stock == domain.StockB {
			holding = sharesB
		}
		if amount > holding {
			return false, fmt.Sprintf("Proposed sell (%d) exceeds holdings (%d of %s).",
				amount, holding, stock), domain.TradeIntent{}
		}
	}

	return true, "", domain.TradeIntent{
		Stock:  stock,
		Side:   domain.Side(action),
		Price:  price,
		Amount: amount,
	}
}

var estimateKeys = []string{"buy_A", "buy_B", "sell_A", "sell_B", "loan"}

// CheckEstimate validates a next-day estimate: exactly the five expected keys,
// each with a yes/no value.
func (s *Secretary) CheckEstimate(resp string) (bool, string, domain.Estimate) {
	obj, reason := parseObject(resp)
	if reason != "" {
		return false, reason, domain.Estimate{}
	}

	for _, k := range estimateKeys {
		if _, ok := obj[k]; !ok {
			return false, fmt.Sprintf("Expected keys missing. Need: %s.", strings.Join(estimateKeys, ", ")), domain.Estimate{}
		}
	}

	values := make(map[string]string, len(estimateKeys))
	for k, v := range obj {
		expected := false
		for _, ek := range estimateKeys {
			if k == ek {
				expected = true
				break
			}
		}
		if !expected {
			return false, fmt.Sprintf("Unexpected key '%s'.", k), domain.Estimate{}
		}
		val := strings.ToLower(fmt.Sprintf("%v", v))
		if val != "yes" && val != "no" {
			return false, fmt.Sprintf("Value for '%s' must be 'yes' or 'no'.", k), domain.Estimate{}
		}
		values[k] = val
	}

	return true, "", domain.Estimate{
		BuyA:  values["buy_A"],
		BuyB:  values["buy_B"],
		SellA: values["sell_A"],
		SellB: values["sell_B"],
		Loan:  values["loan"],
	}
}
