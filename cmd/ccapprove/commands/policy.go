package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ccapprove/ccapprove/internal/policy"
	"github.com/ccapprove/ccapprove/internal/settings"
)

func NewPolicyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "policy",
		Short: "Show the composed policy and which scopes contributed",
		RunE: func(cmd *cobra.Command, args []string) error {
			projectDir := settings.ProjectDir()
			chain, err := settings.NewResolver(projectDir).Resolve()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, scope := range settings.ScopeOrder() {
				state := "absent"
				if chain.Document(scope) != nil {
					state = "present"
					if policy.FragmentFromDocument(chain.Document(scope)).Empty() {
						state = "present (no policy text)"
					}
				}
				fmt.Fprintf(out, "%-8s %-24s %s\n", scope, state, scope.Path(projectDir))
			}

			composed := policy.Compose(
				policy.FragmentFromDocument(chain.Document(settings.ScopeGlobal)),
				policy.FragmentFromDocument(chain.Document(settings.ScopeProject)),
				policy.FragmentFromDocument(chain.Document(settings.ScopeLocal)),
			)

			fmt.Fprintln(out)
			if composed == "" {
				fmt.Fprintln(out, "No policy configured: every tool call will be denied.")
				return nil
			}
			fmt.Fprintln(out, composed)
			return nil
		},
	}
}
