package approver

import (
	"context"
	"fmt"
	"strings"
)

// Decision is the tri-state verdict for a tool-invocation request.
type Decision string

const (
	DecisionAllow Decision = "allow"
	DecisionDeny  Decision = "deny"
	DecisionAsk   Decision = "ask"
)

// NormalizeDecision validates a raw label against the fixed verdict set.
// Anything outside {allow, deny, ask} is invalid and must never be
// propagated to the caller.
func NormalizeDecision(raw string) (Decision, bool) {
	switch Decision(strings.ToLower(strings.TrimSpace(raw))) {
	case DecisionAllow:
		return DecisionAllow, true
	case DecisionDeny:
		return DecisionDeny, true
	case DecisionAsk:
		return DecisionAsk, true
	default:
		return "", false
	}
}

// TruncateReason bounds a reason string to max bytes.
func TruncateReason(reason string, max int) string {
	if max <= 0 || len(reason) <= max {
		return reason
	}
	return reason[:max]
}

// Request is the canonical decision request: composed policy plus the
// normalized tool event. Constructed fresh per invocation, never
// persisted.
type Request struct {
	Policy        string
	Tool          string
	ToolInputJSON string
	HistoryTail   string
}

// Result is the raw outcome of one decision-function call. The label is
// unvalidated; the gateway owns validation and fallback.
type Result struct {
	Decision string
	Reason   string
}

// Program is the decision function: it maps a policy plus a tool event
// to a label and reason. Implementations may be backed by a trained
// artifact or by the untrained default instructions; the gateway treats
// them uniformly and never depends on how a program was produced.
type Program interface {
	Decide(ctx context.Context, req Request) (Result, error)
}

// FailureError covers decision-function failures: provider errors,
// timeouts, and structurally invalid model output. The gateway converts
// it to an ask verdict, never deny or allow.
type FailureError struct {
	Stage string
	Err   error
}

func (e *FailureError) Error() string {
	return fmt.Sprintf("decision function failure (%s): %v", e.Stage, e.Err)
}

func (e *FailureError) Unwrap() error {
	return e.Err
}
