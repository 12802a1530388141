// Package cli implements the mentord command-line interface.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"mentord/internal/config"
	"mentord/pkg/logger"
)

// GlobalFlags holds flags shared by every command.
type GlobalFlags struct {
	ConfigPath string
	Verbose    bool
	Quiet      bool
}

var globalFlags GlobalFlags

type contextKey struct{}

// CLIContext carries the loaded configuration into commands.
type CLIContext struct {
	Config     *config.Config
	ConfigPath string
}

// GetCLIContext retrieves the CLI context from the command.
func GetCLIContext(cmd *cobra.Command) *CLIContext {
	ctx, _ := cmd.Context().Value(contextKey{}).(*CLIContext)
	return ctx
}

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mentord",
		Short: "mentord - trading mentor chat gateway",
		Long: `mentord bridges a trading-journal chat UI to a conversational
assistant service and a trade-analytics tool runner. It exposes a small
HTTP API that runs one chat turn per request: post the user message,
poll the assistant run, dispatch any requested analytics tool calls,
and return the reply.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Commands that work without external-service credentials.
			switch cmd.Name() {
			case "version", "help", "init":
				return nil
			}

			configPath := globalFlags.ConfigPath
			if configPath == "" {
				var err error
				configPath, err = config.DefaultConfigPath()
				if err != nil {
					return err
				}
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			logLevel := cfg.Log.Level
			if globalFlags.Verbose {
				logLevel = "debug"
			}
			if globalFlags.Quiet {
				logLevel = "error"
			}

			if err := logger.Init(logger.LogConfig{
				Level:  logLevel,
				Format: cfg.Log.Format,
				File:   cfg.Log.File,
			}); err != nil {
				return err
			}

			cliCtx := &CLIContext{Config: cfg, ConfigPath: configPath}
			cmd.SetContext(context.WithValue(cmd.Context(), contextKey{}, cliCtx))

			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&globalFlags.ConfigPath, "config", "c", "", "config file path (default ~/.mentord/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&globalFlags.Verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&globalFlags.Quiet, "quiet", "q", false, "only log errors")

	rootCmd.AddCommand(NewServeCmd())
	rootCmd.AddCommand(NewInitCmd())
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}
