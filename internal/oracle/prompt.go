package oracle

import (
	"fmt"
	"sort"
	"strings"

	"stockagent_go/internal/domain"
)

// renderPrompt turns a decision request's context fields into the text sent
// to the model. Field keys are rendered in sorted order so the same request
// always produces the same prompt.
func renderPrompt(kind domain.DecisionKind, fields map[string]any) string {
	if reason, ok := fields["fail_response"]; ok {
		return fmt.Sprintf(
			"Your last response was rejected: %v\nPlease answer again with a single valid JSON object only.",
			reason)
	}

	var b strings.Builder
	switch kind {
	case domain.KindLoan:
		b.WriteString("You are a trader in a simulated two-stock market. Decide whether to take a loan today.\n")
		b.WriteString("Respond with a JSON object: {\"loan\": \"yes\"|\"no\"} and, only if yes, integer \"loan_type\" and numeric \"amount\" (at most max_loan).\n")
	case domain.KindTrade:
		b.WriteString("Decide your action for this trading session.\n")
		b.WriteString("Respond with a JSON object: {\"action_type\": \"buy\"|\"sell\"|\"no\"} and, only if acting, \"stock\" (\"A\" or \"B\"), positive integer \"amount\" and positive \"price\".\n")
	case domain.KindEstimate:
		b.WriteString("Estimate your behavior tomorrow.\n")
		b.WriteString("Respond with a JSON object containing exactly the keys buy_A, buy_B, sell_A, sell_B, loan, each \"yes\" or \"no\".\n")
	case domain.KindForum:
		b.WriteString("The trading day is over. Post a short message to the trader forum about your view of the market.\n")
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %v\n", k, fields[k])
	}
	return b.String()
}
