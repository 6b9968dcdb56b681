package commands

import (
	"github.com/spf13/cobra"
)

var logLevelOverride string

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ccapprove",
		Short: "ccapprove - model-backed permission gate for agent tool calls",
		Long: `ccapprove decides allow/deny/ask for tool invocations issued by an AI
coding agent. It runs as a PreToolUse hook, composing the approval policy
from the global, project, and local settings scopes and delegating the
verdict to a configurable decision model.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return configureLogger(logLevelOverride)
		},
	}

	cmd.PersistentFlags().StringVar(&logLevelOverride, "log-level", "", "Override log level (debug|info|warn|error)")

	cmd.AddCommand(
		NewHookCmd(),
		NewInitCmd(),
		NewTrainCmd(),
		NewPolicyCmd(),
		NewVersionCmd(),
	)

	return cmd
}
