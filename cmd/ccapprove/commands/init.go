package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ccapprove/ccapprove/internal/settings"
)

func NewInitCmd() *cobra.Command {
	var (
		scope        string
		policyText   string
		model        string
		historyBytes int
		matcher      string
		timeout      int
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write hook registration and approver settings into a scope",
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := parseScope(scope)
			if err != nil {
				return err
			}

			path, err := settings.Init(settings.ProjectDir(), settings.InitOptions{
				Scope:          target,
				PolicyText:     policyText,
				Model:          model,
				HistoryBytes:   historyBytes,
				Matcher:        matcher,
				TimeoutSeconds: timeout,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Initialized settings at %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&scope, "scope", "project", "Target scope (project|global)")
	cmd.Flags().StringVar(&policyText, "policy-text", "", "Initial policy text (default: a safe starter policy)")
	cmd.Flags().StringVar(&model, "model", "", "Decision model identifier")
	cmd.Flags().IntVar(&historyBytes, "history-bytes", settings.DefaultHistoryBytes, "Transcript history cap in bytes (0 disables history)")
	cmd.Flags().StringVar(&matcher, "matcher", settings.DefaultMatcher, "Tool matcher for the hook registration")
	cmd.Flags().IntVar(&timeout, "timeout", settings.DefaultTimeoutSeconds, "Hook timeout in seconds")

	return cmd
}

func parseScope(raw string) (settings.Scope, error) {
	switch raw {
	case "project", "":
		return settings.ScopeProject, nil
	case "global":
		return settings.ScopeGlobal, nil
	default:
		return "", fmt.Errorf("invalid scope %q: must be project or global", raw)
	}
}
