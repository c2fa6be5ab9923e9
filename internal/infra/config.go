package infra

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"stockagent_go/internal/domain"
)

// MarketEvent is a scheduled market-wide announcement that replaces the loan
// rate table on a given day.
type MarketEvent struct {
	Day       int               `yaml:"day"`
	Message   string            `yaml:"message"`
	LoanRates []decimal.Decimal `yaml:"loan_rates"`
}

// Config holds the full simulation configuration. Sensitive values are
// overridden through environment variables after loading.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Simulation struct {
		Agents             int             `yaml:"agents"`
		Days               int             `yaml:"days"`
		Sessions           int             `yaml:"sessions"`
		Seed               int64           `yaml:"seed"`
		StockAInitialPrice decimal.Decimal `yaml:"stock_a_initial_price"`
		StockBInitialPrice decimal.Decimal `yaml:"stock_b_initial_price"`
		MinInitialProperty decimal.Decimal `yaml:"min_initial_property"`
		MaxInitialProperty decimal.Decimal `yaml:"max_initial_property"`
	} `yaml:"simulation"`

	Loans struct {
		Types         []string          `yaml:"types"`
		Durations     []int             `yaml:"durations"` // days until repayment, per type
		Rates         []decimal.Decimal `yaml:"rates"`     // base annual rate, per type
		RepaymentDays []int             `yaml:"repayment_days"`
	} `yaml:"loans"`

	Reports struct {
		Days   []int    `yaml:"days"` // quarterly report days
		StockA []string `yaml:"stock_a"`
		StockB []string `yaml:"stock_b"`
	} `yaml:"reports"`

	Events []MarketEvent `yaml:"events"`

	Oracle struct {
		Model  string `yaml:"model"`
		APIKey string `yaml:"api_key"`
	} `yaml:"oracle"`

	Feed struct {
		Addr string `yaml:"addr"`
	} `yaml:"feed"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// LoadConfig reads and parses the configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrConfigNotFound, path)
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks configuration validity. Bookkeeping defects (mismatched
// tables, impossible bounds) must surface here, before a run starts.
func (c *Config) Validate() error {
	s := &c.Simulation
	if s.Agents <= 0 {
		return fmt.Errorf("agents must be positive, got %d", s.Agents)
	}
	if s.Days <= 0 || s.Sessions <= 0 {
		return fmt.Errorf("days (%d) and sessions (%d) must be positive", s.Days, s.Sessions)
	}
	if !s.StockAInitialPrice.IsPositive() || !s.StockBInitialPrice.IsPositive() {
		return fmt.Errorf("initial stock prices must be positive")
	}
	if !s.MinInitialProperty.IsPositive() || s.MaxInitialProperty.LessThanOrEqual(s.MinInitialProperty) {
		return fmt.Errorf("initial property bounds invalid: min=%s max=%s",
			s.MinInitialProperty, s.MaxInitialProperty)
	}

	n := len(c.Loans.Types)
	if n == 0 {
		return fmt.Errorf("at least one loan type is required")
	}
	if len(c.Loans.Durations) != n || len(c.Loans.Rates) != n {
		return fmt.Errorf("loan tables mismatch: %d types, %d durations, %d rates",
			n, len(c.Loans.Durations), len(c.Loans.Rates))
	}
	if len(c.Loans.RepaymentDays) == 0 {
		return fmt.Errorf("at least one repayment day is required")
	}

	if len(c.Reports.StockA) < len(c.Reports.Days) || len(c.Reports.StockB) < len(c.Reports.Days) {
		return fmt.Errorf("each report day needs a report text for both stocks")
	}

	for i, ev := range c.Events {
		if len(ev.LoanRates) != n {
			return fmt.Errorf("event %d: replacement rate table has %d entries, want %d",
				i, len(ev.LoanRates), n)
		}
	}

	return nil
}

// overrideWithEnv overrides sensitive values from environment variables.
func overrideWithEnv(cfg *Config) {
	if key := os.Getenv("STOCKAGENT_GEMINI_KEY"); key != "" {
		cfg.Oracle.APIKey = key
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" && cfg.Oracle.APIKey == "" {
		cfg.Oracle.APIKey = key
	}
	if model := os.Getenv("STOCKAGENT_MODEL"); model != "" {
		cfg.Oracle.Model = model
	}
}
