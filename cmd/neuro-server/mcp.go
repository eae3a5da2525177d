package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/CoolCat467/Neuro-API/internal/adapters/mcp"
	"github.com/CoolCat467/Neuro-API/internal/logging"
	"github.com/CoolCat467/Neuro-API/pkg/ports"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the controller with a Model Context Protocol inspection server",
	Long: `Starts the websocket endpoint games connect to and exposes the
controller over MCP on Stdin/Stdout, so AI agents can inspect connected
games, their registered actions, and recent context as tools.

Forced choices are answered by a built-in policy that always picks the
first candidate; pair this mode with an agent that drives games through
the inspection tools.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		// Logs must stay off Stdout to not corrupt JSON-RPC framing.
		log.SetOutput(os.Stderr)
		level, err := logging.ParseLevel(cfg.LogLevel)
		if err != nil {
			return err
		}
		logger := logging.New(level)

		controller, err := buildController(cfg, logger, firstCandidateDecider{})
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		controllerErrors := make(chan error, 1)
		go func() {
			controllerErrors <- controller.Run(ctx)
		}()

		logger.Info("starting MCP inspection server on stdio")
		srv := mcp.NewServer(controller)
		if err := srv.ServeStdio(); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		stop()
		return <-controllerErrors
	},
}

// firstCandidateDecider is the fallback policy for headless operation.
type firstCandidateDecider struct{}

func (firstCandidateDecider) Decide(_ context.Context, prompt ports.ForcePrompt) (ports.Decision, error) {
	return ports.Decision{Name: prompt.Actions[0].Name}, nil
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
