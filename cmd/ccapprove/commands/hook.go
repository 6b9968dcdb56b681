package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ccapprove/ccapprove/internal/gateway"
	"github.com/ccapprove/ccapprove/internal/settings"
)

const hookEventName = "PreToolUse"

// hookResponse is the protocol-facing response written to stdout, one
// per invocation. It carries only the verdict and reason; provenance
// goes to the audit channel.
type hookResponse struct {
	HookSpecificOutput hookSpecificOutput `json:"hookSpecificOutput"`
}

type hookSpecificOutput struct {
	HookEventName            string `json:"hookEventName"`
	PermissionDecision       string `json:"permissionDecision"`
	PermissionDecisionReason string `json:"permissionDecisionReason"`
}

func NewHookCmd() *cobra.Command {
	var historyBytes int
	var verbose bool

	cmd := &cobra.Command{
		Use:   "hook",
		Short: "Run the PreToolUse permission hook",
		Long: `Reads one tool-invocation event from stdin, decides allow/deny/ask,
and writes the hook response to stdout. Always exits zero: a crashing
hook must never block the agent, and every failure path inside the
pipeline already resolves to a safe verdict.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				_ = configureLogger("debug")
			}
			return runHook(cmd.InOrStdin(), cmd.OutOrStdout(), historyBytes)
		},
	}

	cmd.Flags().IntVar(&historyBytes, "history-bytes", -1, "Override the configured transcript history cap")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Show verbose debug output")
	return cmd
}

func runHook(in io.Reader, out io.Writer, historyBytes int) error {
	var event gateway.Event
	if err := json.NewDecoder(in).Decode(&event); err != nil {
		// A garbled event still gets a verdict: the gateway denies it
		// as an invalid event rather than crashing the hook.
		slog.Debug("failed to decode hook event", "error", err)
		event = gateway.Event{}
	}

	projectDir := settings.ProjectDir()
	if projectDir == "." || projectDir == "" {
		if wd, err := os.Getwd(); err == nil {
			projectDir = wd
		}
	}

	opts := []gateway.Option{}
	if historyBytes >= 0 {
		opts = append(opts, gateway.WithHistoryBytes(historyBytes))
	}

	gw := gateway.New(projectDir, opts...)
	outcome := gw.Decide(context.Background(), event)

	response := hookResponse{
		HookSpecificOutput: hookSpecificOutput{
			HookEventName:            hookEventName,
			PermissionDecision:       string(outcome.Decision),
			PermissionDecisionReason: outcome.Reason,
		},
	}

	encoder := json.NewEncoder(out)
	if err := encoder.Encode(response); err != nil {
		return fmt.Errorf("write hook response: %w", err)
	}
	return nil
}
