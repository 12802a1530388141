package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"mentord/internal/config"
)

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a starter configuration file",
		Long: `Write a starter configuration file with default values.

Credentials (assistant API key, assistant id, tool runner URL) can be set
in the file or through the OPENAI_API_KEY, ASSISTANT_ID, and
TOOL_RUNNER_BASE_URL environment variables.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := globalFlags.ConfigPath
			if path == "" {
				var err error
				path, err = config.DefaultConfigPath()
				if err != nil {
					return err
				}
			}

			if err := config.WriteDefault(path); err != nil {
				return err
			}

			fmt.Printf("Wrote %s\n", path)
			return nil
		},
	}
}
