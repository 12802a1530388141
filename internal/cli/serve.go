package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	v1 "mentord/api/v1"
	"mentord/internal/assistant"
	"mentord/internal/gateway"
	"mentord/internal/retry"
	"mentord/internal/runner"
	"mentord/internal/toolrunner"
	"mentord/pkg/logger"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the mentord gateway server",
		Long: `Start the HTTP gateway server that serves the mentor chat API.

The server listens on the configured host and port (default: 127.0.0.1:8787).`,
		Example: `  # Start with the default configuration
  mentord serve

  # Start on a custom port with debug logging
  mentord serve --port 8080 --verbose`,
		RunE: runServe,
	}

	cmd.Flags().IntP("port", "p", 0, "port to listen on (overrides config)")
	cmd.Flags().String("host", "", "host to bind to (overrides config)")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cliCtx := GetCLIContext(cmd)
	if cliCtx == nil {
		return fmt.Errorf("CLI context not initialized")
	}

	cfg := cliCtx.Config

	if port, _ := cmd.Flags().GetInt("port"); port > 0 {
		cfg.Gateway.Port = port
	}
	if host, _ := cmd.Flags().GetString("host"); host != "" {
		cfg.Gateway.Host = host
	}

	assistantClient := assistant.NewClient(assistant.Config{
		BaseURL:     cfg.Assistant.BaseURL,
		APIKey:      cfg.Assistant.APIKey,
		AssistantID: cfg.Assistant.AssistantID,
		Timeout:     cfg.Assistant.Timeout,
	})

	toolClient := toolrunner.NewClient(toolrunner.Config{
		BaseURL:    cfg.ToolRunner.BaseURL,
		PathPrefix: cfg.ToolRunner.PathPrefix,
		Timeout:    cfg.ToolRunner.Timeout,
	})

	turnRunner := runner.New(assistantClient, toolClient, runner.Config{
		PollInterval:    cfg.Assistant.PollInterval,
		MaxPollInterval: cfg.Assistant.MaxPollInterval,
		Retry: retry.Policy{
			MaxAttempts:  cfg.Retry.MaxAttempts,
			InitialDelay: cfg.Retry.InitialDelay,
			Multiplier:   2.0,
		},
	})

	apiRouter := v1.NewRouter(&v1.RouterDeps{
		Runner:      turnRunner,
		TurnTimeout: cfg.Assistant.TurnTimeout,
		Version:     Version,
	})

	server := gateway.NewServer(cfg, apiRouter)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return err
	}
	return logger.Close()
}
