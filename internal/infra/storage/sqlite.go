package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"stockagent_go/internal/domain"
)

// TradeRecord is one executed fill.
type TradeRecord struct {
	ID        uint `gorm:"primaryKey"`
	Day       int  `gorm:"index"`
	Session   int
	Stock     string
	Buyer     int
	Seller    int
	Amount    int64
	Price     decimal.Decimal `gorm:"type:TEXT"`
	CreatedAt time.Time
}

// StockPriceRecord is the session-close price pair.
type StockPriceRecord struct {
	ID      uint `gorm:"primaryKey"`
	Day     int  `gorm:"index"`
	Session int
	PriceA  decimal.Decimal `gorm:"type:TEXT"`
	PriceB  decimal.Decimal `gorm:"type:TEXT"`
}

// AgentSessionRecord snapshots one agent's portfolio and action per session.
type AgentSessionRecord struct {
	ID       uint `gorm:"primaryKey"`
	Agent    int  `gorm:"index"`
	Day      int
	Session  int
	Property decimal.Decimal `gorm:"type:TEXT"`
	Cash     decimal.Decimal `gorm:"type:TEXT"`
	ValueA   decimal.Decimal `gorm:"type:TEXT"`
	ValueB   decimal.Decimal `gorm:"type:TEXT"`
	Action   string          // JSON-encoded trade intent, "{}" for no action
}

// AgentDayRecord holds one agent's daily loan decision and estimate.
type AgentDayRecord struct {
	ID       uint `gorm:"primaryKey"`
	Agent    int  `gorm:"index"`
	Day      int
	Loan     string // JSON-encoded loan decision
	Estimate string // JSON-encoded next-day estimate
}

// Recorder persists run records to SQLite. Every write is best-effort: an
// error is logged and the simulation continues.
type Recorder struct {
	db *gorm.DB
}

// NewRecorder opens (or creates) the run database.
func NewRecorder(path string) (*Recorder, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create DB directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(
		&TradeRecord{}, &StockPriceRecord{}, &AgentSessionRecord{}, &AgentDayRecord{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Recorder{db: db}, nil
}

// RecordTrade persists one executed trade.
func (r *Recorder) RecordTrade(t domain.Trade) {
	rec := TradeRecord{
		Day: t.Day, Session: t.Session, Stock: t.Stock,
		Buyer: t.Buyer, Seller: t.Seller, Amount: t.Amount, Price: t.Price,
	}
	if err := r.db.Create(&rec).Error; err != nil {
		slog.Error("failed to record trade", slog.Any("error", err))
	}
}

// RecordPrices persists the session-close prices.
func (r *Recorder) RecordPrices(day, session int, priceA, priceB decimal.Decimal) {
	rec := StockPriceRecord{Day: day, Session: session, PriceA: priceA, PriceB: priceB}
	if err := r.db.Create(&rec).Error; err != nil {
		slog.Error("failed to record prices", slog.Any("error", err))
	}
}

// RecordAgentSession persists an agent's per-session portfolio snapshot.
func (r *Recorder) RecordAgentSession(agent, day, session int, property, cash, valueA, valueB decimal.Decimal, action domain.TradeIntent) {
	rec := AgentSessionRecord{
		Agent: agent, Day: day, Session: session,
		Property: property, Cash: cash, ValueA: valueA, ValueB: valueB,
		Action: mustJSON(action),
	}
	if err := r.db.Create(&rec).Error; err != nil {
		slog.Error("failed to record agent session", slog.Any("error", err))
	}
}

// RecordAgentDay persists an agent's daily loan decision and estimate.
func (r *Recorder) RecordAgentDay(agent, day int, loan domain.LoanDecision, estimate domain.Estimate) {
	rec := AgentDayRecord{
		Agent: agent, Day: day,
		Loan:     mustJSON(loan),
		Estimate: mustJSON(estimate),
	}
	if err := r.db.Create(&rec).Error; err != nil {
		slog.Error("failed to record agent day", slog.Any("error", err))
	}
}

// Trades returns all recorded trades for a day, in execution order.
func (r *Recorder) Trades(day int) ([]TradeRecord, error) {
	var out []TradeRecord
	err := r.db.Where("day = ?", day).Order("id").Find(&out).Error
	return out, err
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}
