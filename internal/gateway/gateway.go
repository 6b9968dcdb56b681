package gateway

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/ccapprove/ccapprove/internal/approver"
	"github.com/ccapprove/ccapprove/internal/audit"
	"github.com/ccapprove/ccapprove/internal/policy"
	"github.com/ccapprove/ccapprove/internal/settings"
)

// Fallback names the safety net that produced a verdict, if any.
// Configuration and event problems fail closed to deny; decision-function
// problems fail open to ask, which still surfaces to a human instead of
// silently blocking or allowing. The two classes are never collapsed.
type Fallback string

const (
	FallbackNone     Fallback = ""
	FallbackSettings Fallback = "settings"
	FallbackEvent    Fallback = "event"
	FallbackDecision Fallback = "decision"
)

// Protocol-facing fallback reasons. They distinguish "configuration
// problem" from "model problem" without leaking internal detail; the
// specifics go to the audit channel.
const (
	reasonSettingsProblem = "settings load error: approval policy configuration could not be read"
	reasonInvalidEvent    = "invalid tool event: missing required fields"
	reasonNoPolicy        = "no approval policy configured; denying by default"
	reasonDecisionProblem = "decision unavailable: the approval model did not return a usable verdict"
)

// Outcome is one verdict wrapped with provenance. The protocol response
// uses only Decision and Reason; everything else feeds the audit channel.
type Outcome struct {
	Decision         approver.Decision
	Reason           string
	Scopes           []settings.Scope
	Fallback         Fallback
	MalformedScope   settings.Scope
	Model            string
	ArtifactSource   string
	HistoryTruncated bool
	Duration         time.Duration
}

// ProgramFactory builds the decision function once the effective
// configuration is known. Swappable so fallback behavior can be tested
// against a deterministic stand-in instead of a live model call.
type ProgramFactory func(ctx context.Context, cfg settings.ApproverConfig, providers settings.ProvidersConfig, artifact *approver.Artifact) (approver.Program, error)

// Gateway orchestrates the decision pipeline: settings resolution,
// policy composition, request construction, the decision-function call,
// and verdict validation with safe fallback. It is the only externally
// invoked entry point of the core.
type Gateway struct {
	projectDir     string
	resolver       *settings.Resolver
	auditWriter    *audit.Writer
	programFactory ProgramFactory
	historyBytes   *int
	now            func() time.Time
}

// Option customizes gateway construction.
type Option func(*Gateway)

// WithProgramFactory replaces the default model-backed factory.
func WithProgramFactory(factory ProgramFactory) Option {
	return func(g *Gateway) { g.programFactory = factory }
}

// WithHistoryBytes overrides the configured transcript history cap.
func WithHistoryBytes(n int) Option {
	return func(g *Gateway) { g.historyBytes = &n }
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) { g.now = now }
}

// New creates a gateway rooted at the project directory.
func New(projectDir string, opts ...Option) *Gateway {
	g := &Gateway{
		projectDir:     projectDir,
		resolver:       settings.NewResolver(projectDir),
		auditWriter:    audit.NewWriter(projectDir),
		programFactory: defaultProgramFactory,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func defaultProgramFactory(ctx context.Context, cfg settings.ApproverConfig, providers settings.ProvidersConfig, artifact *approver.Artifact) (approver.Program, error) {
	chat, err := approver.NewChatModel(ctx, providers, cfg.Model)
	if err != nil {
		return nil, err
	}
	return approver.NewProgram(chat, artifact), nil
}

// Decide runs the full pipeline for one tool event and always returns a
// safe outcome: no internal failure ever escapes as an error, and no
// failure path ever produces an implicit allow.
func (g *Gateway) Decide(ctx context.Context, event Event) Outcome {
	started := g.now()
	outcome := g.decide(ctx, event)
	outcome.Duration = g.now().Sub(started)

	g.appendAudit(event, outcome)
	return outcome
}

func (g *Gateway) decide(ctx context.Context, event Event) Outcome {
	// Settings are re-read on every invocation; they may change between
	// tool calls and nothing is cached across runs.
	chain, err := g.resolver.Resolve()
	if err != nil {
		outcome := Outcome{
			Decision: approver.DecisionDeny,
			Reason:   reasonSettingsProblem,
			Fallback: FallbackSettings,
		}
		var malformed *settings.MalformedError
		if errors.As(err, &malformed) {
			outcome.MalformedScope = malformed.Scope
		}
		slog.Error("settings resolution failed", "error", err)
		return outcome
	}

	cfg, err := settings.DecodeApproverConfig(chain.Effective, g.projectDir)
	if err != nil {
		slog.Error("approver config invalid", "error", err)
		return Outcome{
			Decision: approver.DecisionDeny,
			Reason:   reasonSettingsProblem,
			Fallback: FallbackSettings,
			Scopes:   chain.Present,
		}
	}

	policyText := policy.Compose(
		policy.FragmentFromDocument(chain.Document(settings.ScopeGlobal)),
		policy.FragmentFromDocument(chain.Document(settings.ScopeProject)),
		policy.FragmentFromDocument(chain.Document(settings.ScopeLocal)),
	)

	// An empty composed policy means "nothing is permitted", never
	// "nothing is restricted".
	if strings.TrimSpace(policyText) == "" {
		return Outcome{
			Decision: approver.DecisionDeny,
			Reason:   reasonNoPolicy,
			Scopes:   chain.Present,
			Model:    cfg.Model,
		}
	}

	historyBytes := cfg.HistoryBytes
	if g.historyBytes != nil {
		historyBytes = *g.historyBytes
	}

	request, historyTruncated, err := BuildRequest(event, policyText, historyBytes)
	if err != nil {
		slog.Error("invalid tool event", "error", err)
		return Outcome{
			Decision: approver.DecisionDeny,
			Reason:   reasonInvalidEvent,
			Fallback: FallbackEvent,
			Scopes:   chain.Present,
			Model:    cfg.Model,
		}
	}

	outcome := Outcome{
		Scopes:           chain.Present,
		Model:            cfg.Model,
		HistoryTruncated: historyTruncated,
	}

	artifact := approver.FirstArtifact(approver.CandidatePaths(cfg.ArtifactPath, g.projectDir))
	outcome.ArtifactSource = "default"
	if artifact != nil {
		outcome.ArtifactSource = "trained"
	}

	program, err := g.programFactory(ctx, cfg, mustProviders(chain.Effective), artifact)
	if err != nil {
		slog.Error("decision function unavailable", "error", err)
		outcome.Decision = approver.DecisionAsk
		outcome.Reason = reasonDecisionProblem
		outcome.Fallback = FallbackDecision
		return outcome
	}

	callCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.TimeoutSeconds)*time.Second)
	defer cancel()

	result, err := program.Decide(callCtx, request)
	if err != nil {
		slog.Error("decision function failed", "error", err)
		outcome.Decision = approver.DecisionAsk
		outcome.Reason = reasonDecisionProblem
		outcome.Fallback = FallbackDecision
		return outcome
	}

	decision, ok := approver.NormalizeDecision(result.Decision)
	if !ok || strings.TrimSpace(result.Reason) == "" {
		slog.Warn("decision function returned invalid verdict", "label", result.Decision)
		outcome.Decision = approver.DecisionAsk
		outcome.Reason = reasonDecisionProblem
		outcome.Fallback = FallbackDecision
		return outcome
	}

	outcome.Decision = decision
	outcome.Reason = approver.TruncateReason(result.Reason, cfg.MaxReasonLength)
	return outcome
}

// mustProviders decodes provider credentials; a decode failure here only
// costs the provider selection, not the verdict, so it degrades to the
// zero value and lets the program factory report the real problem.
func mustProviders(effective settings.Document) settings.ProvidersConfig {
	providers, err := settings.DecodeProvidersConfig(effective)
	if err != nil {
		slog.Warn("provider settings invalid", "error", err)
		return settings.ProvidersConfig{}
	}
	return providers
}

func (g *Gateway) appendAudit(event Event, outcome Outcome) {
	scopes := make([]string, 0, len(outcome.Scopes))
	for _, scope := range outcome.Scopes {
		scopes = append(scopes, string(scope))
	}

	record := audit.Event{
		Time:             g.now().UTC(),
		SessionID:        event.SessionID,
		Tool:             strings.TrimSpace(event.ToolName),
		Decision:         string(outcome.Decision),
		Reason:           outcome.Reason,
		Scopes:           scopes,
		Fallback:         string(outcome.Fallback),
		MalformedScope:   string(outcome.MalformedScope),
		Model:            outcome.Model,
		ArtifactSource:   outcome.ArtifactSource,
		HistoryTruncated: outcome.HistoryTruncated,
		DurationMS:       outcome.Duration.Milliseconds(),
	}

	if err := g.auditWriter.Append(record); err != nil {
		slog.Warn("failed to append audit event", "tool", record.Tool, "error", err)
	}
}
