// Package event carries the simulation's tagged domain event stream.
// Sinks are best-effort consumers; a missing or slow sink must never block
// simulation correctness.
package event

// Type tags an event on the stream.
type Type string

const (
	TypeDayStart         Type = "day_start"
	TypeProgressUpdate   Type = "progress_update"
	TypeMarketEvent      Type = "market_event"
	TypeLoanDecision     Type = "loan_decision"
	TypeSessionStart     Type = "session_start"
	TypeSessionAction    Type = "session_action_decision"
	TypeTradeExecuted    Type = "trade_executed"
	TypeStockPriceUpdate Type = "stock_price_update"
	TypeDailyPrediction  Type = "daily_prediction"
	TypeForumPost        Type = "forum_post"
	TypeAgentStatus      Type = "agent_status"
)

// Event is one tagged event with its payload.
type Event struct {
	Type    Type           `json:"type"`
	Payload map[string]any `json:"payload"`
}

// Sink consumes events.
type Sink interface {
	Emit(Event)
}

// Sinks fans one event out to several sinks. Nil entries are skipped.
type Sinks []Sink

// Emit implements Sink.
func (s Sinks) Emit(e Event) {
	for _, sink := range s {
		if sink != nil {
			sink.Emit(e)
		}
	}
}

// Emit sends an event to a possibly-nil sink.
func Emit(s Sink, t Type, payload map[string]any) {
	if s == nil {
		return
	}
	s.Emit(Event{Type: t, Payload: payload})
}
