package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"stockagent_go/internal/domain"
	"stockagent_go/internal/event"
	"stockagent_go/internal/infra"
	"stockagent_go/internal/secretary"
)

// Recorder persists run records. All writes are best-effort; a nil Recorder
// disables persistence entirely.
type Recorder interface {
	RecordTrade(t domain.Trade)
	RecordPrices(day, session int, priceA, priceB decimal.Decimal)
	RecordAgentSession(agent, day, session int, property, cash, valueA, valueB decimal.Decimal, action domain.TradeIntent)
	RecordAgentDay(agent, day int, loan domain.LoanDecision, estimate domain.Estimate)
}

// dayRecord ties an agent's loan decision to its later next-day estimate.
type dayRecord struct {
	agent int
	loan  domain.LoanDecision
}

// Simulation drives the day/session state machine over the agent population.
// It runs on a single goroutine; oracle calls are synchronous suspension
// points, so no agent ever observes a half-applied settlement.
type Simulation struct {
	cfg    *infra.Config
	rules  domain.MarketRules
	agents []*domain.Agent

	stockA *domain.Stock
	stockB *domain.Stock
	bookA  Book
	bookB  Book

	forum []domain.ForumPost

	oracle domain.Oracle
	sink   event.Sink
	rec    Recorder
	rng    *rand.Rand
}

// NewSimulation builds the market and the initial agent population.
func NewSimulation(cfg *infra.Config, o domain.Oracle, sink event.Sink, rec Recorder) *Simulation {
	seed := cfg.Simulation.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	rules := marketRules(cfg)
	priceA := cfg.Simulation.StockAInitialPrice
	priceB := cfg.Simulation.StockBInitialPrice

	s := &Simulation{
		cfg:    cfg,
		rules:  rules,
		stockA: domain.NewStock(domain.StockA, priceA, cfg.Reports.StockA),
		stockB: domain.NewStock(domain.StockB, priceB, cfg.Reports.StockB),
		oracle: o,
		sink:   sink,
		rec:    rec,
		rng:    rng,
	}

	validator := secretary.New()
	for i := 0; i < cfg.Simulation.Agents; i++ {
		p := domain.RandomPortfolio(rng, priceA, priceB,
			cfg.Simulation.MinInitialProperty, cfg.Simulation.MaxInitialProperty, rules)
		s.agents = append(s.agents, domain.NewAgent(i, p, priceA, priceB, rules, o, validator))
	}
	return s
}

func marketRules(cfg *infra.Config) domain.MarketRules {
	return domain.MarketRules{
		LoanTypes:     cfg.Loans.Types,
		LoanDurations: cfg.Loans.Durations,
		BaseRates:     cfg.Loans.Rates,
		RepaymentDays: cfg.Loans.RepaymentDays,
		ReportDays:    cfg.Reports.Days,
	}
}

// Run executes the configured number of days.
func (s *Simulation) Run(ctx context.Context) error {
	slog.Info("simulation start",
		slog.Int("agents", len(s.agents)),
		slog.Int("days", s.cfg.Simulation.Days),
		slog.Int("sessions", s.cfg.Simulation.Sessions))

	for day := 1; day <= s.cfg.Simulation.Days; day++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.runDay(ctx, day)
	}

	slog.Info("simulation finished", slog.Int("active_agents", len(s.active())))
	return nil
}

func (s *Simulation) runDay(ctx context.Context, day int) {
	slog.Debug("day start", slog.Int("day", day))
	event.Emit(s.sink, event.TypeDayStart, map[string]any{"date": day})
	event.Emit(s.sink, event.TypeProgressUpdate, map[string]any{
		"status":           "running",
		"progress_message": fmt.Sprintf("Processing Day %d/%d", day, s.cfg.Simulation.Days),
	})

	// Repayments and interest. Chat context resets before the first oracle
	// contact of the day.
	for _, a := range s.agents {
		if a.Quit {
			continue
		}
		s.oracle.ResetContext(a.Order)
		a.ApplyRepayments(day)
	}
	if s.rules.IsRepaymentDay(day) {
		for _, a := range s.agents {
			if a.Quit {
				continue
			}
			a.ApplyPeriodicInterest()
		}
	}

	// Bankruptcy sweep, reverse index order so removals don't skip entries.
	for i := len(s.agents) - 1; i >= 0; i-- {
		a := s.agents[i]
		if a.Quit {
			continue
		}
		if a.IsBankrupt || a.Cash.IsNegative() {
			if a.ResolveBankruptcy(s.stockA.Price(), s.stockB.Price()) {
				slog.Info("agent quit after bankruptcy", slog.Int("agent", a.Order), slog.Int("day", day))
				event.Emit(s.sink, event.TypeAgentStatus, map[string]any{
					"agent": a.Order, "status": "bankrupt", "date": day,
				})
				s.agents = append(s.agents[:i], s.agents[i+1:]...)
			}
		}
	}

	// Scheduled market events replace the rate table for every surviving
	// agent and broadcast to the forum under the market sentinel id.
	for _, ev := range s.cfg.Events {
		if ev.Day != day {
			continue
		}
		for _, a := range s.active() {
			a.UpdateLoanRates(ev.LoanRates)
		}
		s.forum = append(s.forum, domain.ForumPost{Agent: domain.MarketAgentID, Message: ev.Message})
		slog.Info("market event triggered", slog.Int("day", day), slog.String("message", ev.Message))
		event.Emit(s.sink, event.TypeMarketEvent, map[string]any{"date": day, "message": ev.Message})
	}

	// Loan phase over a snapshot of the population at phase start.
	var records []dayRecord
	for _, a := range s.active() {
		dec := a.PlanLoan(ctx, day, s.stockA.Price(), s.stockB.Price(), s.forum)
		event.Emit(s.sink, event.TypeLoanDecision, map[string]any{
			"date": day, "agent": a.Order, "decision": dec,
		})
		records = append(records, dayRecord{agent: a.Order, loan: dec})
	}

	for session := 1; session <= s.cfg.Simulation.Sessions; session++ {
		s.runSession(ctx, day, session)
	}

	// Estimates only for agents that had a loan-phase record and survived.
	for _, r := range records {
		a := s.findActive(r.agent)
		if a == nil {
			continue
		}
		est := a.NextDayEstimate(ctx)
		slog.Info("next day estimate", slog.Int("agent", a.Order), slog.Any("estimate", est))
		event.Emit(s.sink, event.TypeDailyPrediction, map[string]any{
			"date": day, "agent": a.Order, "prediction": est,
		})
		if s.rec != nil {
			s.rec.RecordAgentDay(r.agent, day, r.loan, est)
		}
	}

	// The overnight forum is replaced wholesale, never accumulated.
	s.forum = nil
	for _, a := range s.active() {
		msg := a.PostForumMessage(ctx)
		s.forum = append(s.forum, domain.ForumPost{Agent: a.Order, Message: msg})
		event.Emit(s.sink, event.TypeForumPost, map[string]any{
			"date": day, "agent": a.Order, "message": msg,
		})
	}
}

func (s *Simulation) runSession(ctx context.Context, day, session int) {
	slog.Debug("session start", slog.Int("day", day), slog.Int("session", session))
	event.Emit(s.sink, event.TypeSessionStart, map[string]any{"date": day, "session": session})

	// Unmatched orders do not survive the session that created them.
	s.bookA.Clear()
	s.bookB.Clear()

	active := s.active()
	if len(active) == 0 {
		return
	}

	// Freshly shuffled visitation order is the matching tie-break.
	for _, idx := range s.rng.Perm(len(active)) {
		a := active[idx]
		intent := a.PlanTrade(ctx, day, session, s.stockA, s.stockB, s.bookA.View(), s.bookB.View())

		if s.rec != nil {
			property := a.TotalProperty(s.stockA.Price(), s.stockB.Price())
			valueA := decimal.NewFromInt(a.SharesA).Mul(s.stockA.Price())
			valueB := decimal.NewFromInt(a.SharesB).Mul(s.stockB.Price())
			s.rec.RecordAgentSession(a.Order, day, session, property, a.Cash, valueA, valueB, intent)
		}

		if !intent.IsAction() {
			continue
		}
		intent.Agent = a.Order
		intent.Day = day
		intent.Session = session

		event.Emit(s.sink, event.TypeSessionAction, map[string]any{
			"date": day, "session": session, "agent": a.Order, "action_details": intent,
		})

		switch intent.Stock {
		case domain.StockA:
			s.bookA.Submit(intent, s.execTrade(s.stockA))
		case domain.StockB:
			s.bookB.Submit(intent, s.execTrade(s.stockB))
		}
	}

	s.stockA.UpdatePrice(day)
	s.stockB.UpdatePrice(day)
	if s.rec != nil {
		s.rec.RecordPrices(day, session, s.stockA.Price(), s.stockB.Price())
	}
	event.Emit(s.sink, event.TypeStockPriceUpdate, map[string]any{
		"date": day, "session": session,
		"stock_a": s.stockA.Price(), "stock_b": s.stockB.Price(),
	})
}

// execTrade settles one fill on both counterparties, records it and emits the
// trade event. The sentinel id means a side with no owning agent object.
func (s *Simulation) execTrade(stock *domain.Stock) func(domain.Trade) {
	return func(tr domain.Trade) {
		if buyer := s.find(tr.Buyer); buyer != nil {
			buyer.SettleBuy(tr.Stock, tr.Price, tr.Amount)
		}
		if seller := s.find(tr.Seller); seller != nil {
			seller.SettleSell(tr.Stock, tr.Price, tr.Amount)
		}

		stock.AddSessionDeal(domain.Deal{Price: tr.Price, Amount: tr.Amount})
		if s.rec != nil {
			s.rec.RecordTrade(tr)
		}

		slog.Info("trade executed",
			slog.Int("buyer", tr.Buyer), slog.Int("seller", tr.Seller),
			slog.String("stock", tr.Stock), slog.String("price", tr.Price.String()),
			slog.Int64("amount", tr.Amount))
		event.Emit(s.sink, event.TypeTradeExecuted, map[string]any{
			"date": tr.Day, "session": tr.Session, "stock": tr.Stock,
			"buyer": tr.Buyer, "seller": tr.Seller,
			"amount": tr.Amount, "price": tr.Price,
		})
	}
}

// active returns a snapshot of the non-quit population.
func (s *Simulation) active() []*domain.Agent {
	out := make([]*domain.Agent, 0, len(s.agents))
	for _, a := range s.agents {
		if !a.Quit {
			out = append(out, a)
		}
	}
	return out
}

func (s *Simulation) find(order int) *domain.Agent {
	for _, a := range s.agents {
		if a.Order == order {
			return a
		}
	}
	return nil
}

func (s *Simulation) findActive(order int) *domain.Agent {
	a := s.find(order)
	if a == nil || a.Quit {
		return nil
	}
	return a
}
