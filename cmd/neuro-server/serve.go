package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	neuroapi "github.com/CoolCat467/Neuro-API"
	"github.com/CoolCat467/Neuro-API/internal/adapters/console"
	"github.com/CoolCat467/Neuro-API/internal/adapters/memory"
	"github.com/CoolCat467/Neuro-API/internal/adapters/redis"
	"github.com/CoolCat467/Neuro-API/internal/config"
	"github.com/CoolCat467/Neuro-API/internal/logging"
	"github.com/CoolCat467/Neuro-API/pkg/ports"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the controller with an interactive terminal decider",
	Long: `Starts the websocket endpoint games connect to. Forced choices are
presented on the terminal as numbered menus; context streams to stdout.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		level, err := logging.ParseLevel(cfg.LogLevel)
		if err != nil {
			return err
		}
		logger := logging.New(level)
		decider := console.New(console.WithLogger(logger))

		controller, err := buildController(cfg, logger, decider, console.NewSink())
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := controller.Run(ctx); err != nil {
			return fmt.Errorf("controller stopped: %w", err)
		}
		logger.Info("controller stopped gracefully")
		return nil
	},
}

// loadConfig reads the config file named by the persistent --config flag and
// applies command line overrides on top.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if cmd.Flags().Changed("address") {
		cfg.Address, _ = cmd.Flags().GetString("address")
	}
	return cfg, nil
}

// buildController assembles the journal backend and controller from config.
func buildController(cfg config.Config, logger *slog.Logger, decider ports.Decider, extraSinks ...ports.ContextSink) (*neuroapi.Controller, error) {
	var journal ports.Journal
	switch cfg.Journal {
	case config.JournalRedis:
		journal = redis.New(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB,
			redis.WithDepth(cfg.JournalDepth),
		)
	default:
		journal = memory.NewJournal(memory.WithDepth(cfg.JournalDepth))
	}

	opts := []neuroapi.Option{
		neuroapi.WithLogger(logger),
		neuroapi.WithJournal(journal),
	}
	for _, sink := range extraSinks {
		opts = append(opts, neuroapi.WithContextSink(sink))
	}
	if cfg.TLSCert != "" {
		opts = append(opts, neuroapi.WithTLS(cfg.TLSCert, cfg.TLSKey))
	}

	return neuroapi.New(cfg.Address, decider, opts...), nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("address", "a", "", "Listen address, overriding the config file")
}
