package infra

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"stockagent_go/internal/domain"
)

func validConfig() *Config {
	cfg := &Config{}
	cfg.Simulation.Agents = 10
	cfg.Simulation.Days = 30
	cfg.Simulation.Sessions = 3
	cfg.Simulation.StockAInitialPrice = decimal.NewFromInt(30)
	cfg.Simulation.StockBInitialPrice = decimal.NewFromInt(40)
	cfg.Simulation.MinInitialProperty = decimal.NewFromInt(100000)
	cfg.Simulation.MaxInitialProperty = decimal.NewFromInt(5000000)
	cfg.Loans.Types = []string{"one month", "two months", "three months"}
	cfg.Loans.Durations = []int{30, 60, 90}
	cfg.Loans.Rates = []decimal.Decimal{
		decimal.NewFromFloat(0.027),
		decimal.NewFromFloat(0.030),
		decimal.NewFromFloat(0.034),
	}
	cfg.Loans.RepaymentDays = []int{10, 20, 30}
	cfg.Reports.Days = []int{8, 23}
	cfg.Reports.StockA = []string{"A Q1", "A Q2"}
	cfg.Reports.StockB = []string{"B Q1", "B Q2"}
	return cfg
}

func TestConfig_Validate(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		if err := validConfig().Validate(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"Zero Agents", func(c *Config) { c.Simulation.Agents = 0 }},
		{"Zero Days", func(c *Config) { c.Simulation.Days = 0 }},
		{"Zero Sessions", func(c *Config) { c.Simulation.Sessions = 0 }},
		{"Negative Price", func(c *Config) { c.Simulation.StockAInitialPrice = decimal.NewFromInt(-1) }},
		{"Inverted Property Bounds", func(c *Config) {
			c.Simulation.MaxInitialProperty = decimal.NewFromInt(1)
		}},
		{"No Loan Types", func(c *Config) { c.Loans.Types = nil }},
		{"Loan Table Mismatch", func(c *Config) { c.Loans.Durations = []int{30} }},
		{"No Repayment Days", func(c *Config) { c.Loans.RepaymentDays = nil }},
		{"Missing Report Text", func(c *Config) { c.Reports.StockB = []string{"only one"} }},
		{"Event Rate Table Mismatch", func(c *Config) {
			c.Events = []MarketEvent{{Day: 5, LoanRates: []decimal.Decimal{decimal.NewFromFloat(0.02)}}}
		}},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	yaml := `
simulation:
  agents: 5
  days: 10
  sessions: 2
  seed: 7
  stock_a_initial_price: 30.0
  stock_b_initial_price: 40.0
  min_initial_property: 1000.0
  max_initial_property: 50000.0
loans:
  types: ["one month"]
  durations: [30]
  rates: [0.027]
  repayment_days: [10]
reports:
  days: []
oracle:
  model: test-model
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	t.Run("Parses And Validates", func(t *testing.T) {
		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Simulation.Agents != 5 || cfg.Simulation.Seed != 7 {
			t.Errorf("unexpected simulation section: %+v", cfg.Simulation)
		}
		if !cfg.Loans.Rates[0].Equal(decimal.NewFromFloat(0.027)) {
			t.Errorf("unexpected rate: %v", cfg.Loans.Rates[0])
		}
	})

	t.Run("Environment Overrides Key And Model", func(t *testing.T) {
		t.Setenv("STOCKAGENT_GEMINI_KEY", "secret-from-env")
		t.Setenv("STOCKAGENT_MODEL", "model-from-env")

		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Oracle.APIKey != "secret-from-env" {
			t.Errorf("API key not overridden: %q", cfg.Oracle.APIKey)
		}
		if cfg.Oracle.Model != "model-from-env" {
			t.Errorf("model not overridden: %q", cfg.Oracle.Model)
		}
	})

	t.Run("Missing File", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
		if !errors.Is(err, domain.ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})
}

func TestCalculateBackoff(t *testing.T) {
	cases := []struct {
		retry int
		want  time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{6, 60 * time.Second},
		{20, 60 * time.Second},
	}
	for _, tt := range cases {
		if got := CalculateBackoff(tt.retry); got != tt.want {
			t.Errorf("retry %d: got %v, want %v", tt.retry, got, tt.want)
		}
	}
}
