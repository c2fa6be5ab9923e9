package app

import (
	"log/slog"

	"stockagent_go/internal/infra"
	"stockagent_go/internal/infra/storage"
	"stockagent_go/internal/oracle"
)

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config   *infra.Config
	Recorder *storage.Recorder
	Oracle   *oracle.GeminiClient
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize performs core system initialization. Configuration problems are
// fatal here, before the simulation starts; nothing later should be.
func (b *Bootstrap) Initialize(configPath string) error {
	cfg, err := infra.LoadConfig(configPath)
	if err != nil {
		return err
	}
	b.Config = cfg

	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)
	slog.Info("bootstrapping", slog.String("app", cfg.App.Name), slog.String("version", cfg.App.Version))

	if cfg.Database.Path != "" {
		rec, err := storage.NewRecorder(cfg.Database.Path)
		if err != nil {
			return err
		}
		b.Recorder = rec
		slog.Info("run recorder initialized", slog.String("path", cfg.Database.Path))
	}

	b.Oracle = oracle.NewGeminiClient(cfg.Oracle.Model, cfg.Oracle.APIKey)
	if cfg.Oracle.APIKey == "" {
		slog.Warn("no oracle API key configured, all decisions will fall back to neutral")
	}

	return nil
}
