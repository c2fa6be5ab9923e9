package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"stockagent_go/internal/app"
	"stockagent_go/internal/engine"
	"stockagent_go/internal/event"
	"stockagent_go/internal/feed"
)

var (
	flagConfig   string
	flagModel    string
	flagDays     int
	flagAgents   int
	flagSeed     int64
	flagFeedAddr string
)

var rootCmd = &cobra.Command{
	Use:   "stockagent",
	Short: "LLM-agent stock market simulation",
	RunE:  run,
}

func init() {
	rootCmd.Flags().StringVar(&flagConfig, "config", "configs/config.yaml", "configuration file")
	rootCmd.Flags().StringVar(&flagModel, "model", "", "override oracle model name")
	rootCmd.Flags().IntVar(&flagDays, "days", 0, "override total simulated days")
	rootCmd.Flags().IntVar(&flagAgents, "agents", 0, "override agent count")
	rootCmd.Flags().Int64Var(&flagSeed, "seed", 0, "override RNG seed")
	rootCmd.Flags().StringVar(&flagFeedAddr, "feed-addr", "", "serve the live event feed on this address")
}

func run(cmd *cobra.Command, args []string) error {
	// .env is optional; environment wins over the config file either way.
	godotenv.Load()

	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(flagConfig); err != nil {
		return err
	}
	cfg := bootstrap.Config

	if flagModel != "" {
		cfg.Oracle.Model = flagModel
	}
	if flagDays > 0 {
		cfg.Simulation.Days = flagDays
	}
	if flagAgents > 0 {
		cfg.Simulation.Agents = flagAgents
	}
	if flagSeed != 0 {
		cfg.Simulation.Seed = flagSeed
	}
	if flagFeedAddr != "" {
		cfg.Feed.Addr = flagFeedAddr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var sinks event.Sinks
	if cfg.Feed.Addr != "" {
		hub := feed.NewHub()
		hub.Start(ctx, cfg.Feed.Addr)
		sinks = append(sinks, hub)
	}

	sim := engine.NewSimulation(cfg, bootstrap.Oracle, sinks, recorderOrNil(bootstrap))
	if err := sim.Run(ctx); err != nil {
		slog.Error("simulation aborted", slog.Any("error", err))
		return err
	}
	return nil
}

// recorderOrNil avoids handing the engine a typed-nil interface value.
func recorderOrNil(b *app.Bootstrap) engine.Recorder {
	if b.Recorder == nil {
		return nil
	}
	return b.Recorder
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("fatal", slog.Any("error", err))
		os.Exit(1)
	}
}
