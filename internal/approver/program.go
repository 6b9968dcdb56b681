package approver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

const defaultInstructions = `You are a permission gate for an AI coding agent. ` +
	`Given the approval policy and one tool invocation, decide whether the invocation is permitted. ` +
	`Follow the policy exactly; when the policy is silent or the request is ambiguous, answer "ask". ` +
	`Respond with a single JSON object: {"decision":"allow|deny|ask","reason":"<short reason>"}.`

// ModelProgram is the model-backed decision function. It replays the
// artifact's demos as few-shot context, then presents the live request.
type ModelProgram struct {
	chat     model.ChatModel
	artifact *Artifact
}

// NewProgram wraps a chat model into a decision program. A nil artifact
// yields the untrained default program.
func NewProgram(chat model.ChatModel, artifact *Artifact) *ModelProgram {
	return &ModelProgram{chat: chat, artifact: artifact}
}

// Trained reports whether the program is backed by a trained artifact.
func (p *ModelProgram) Trained() bool {
	return p.artifact != nil
}

// Decide runs one decision. Transport errors and unparseable model
// output surface as *FailureError; label validation is the gateway's
// concern.
func (p *ModelProgram) Decide(ctx context.Context, req Request) (Result, error) {
	messages := p.buildMessages(req)

	resp, err := p.chat.Generate(ctx, messages)
	if err != nil {
		return Result{}, &FailureError{Stage: "generate", Err: err}
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return Result{}, &FailureError{Stage: "generate", Err: fmt.Errorf("empty model response")}
	}

	result, err := parseResult(resp.Content)
	if err != nil {
		return Result{}, &FailureError{Stage: "parse", Err: err}
	}
	return result, nil
}

func (p *ModelProgram) buildMessages(req Request) []*schema.Message {
	instructions := defaultInstructions
	var demos []Demo
	if p.artifact != nil {
		if strings.TrimSpace(p.artifact.Instructions) != "" {
			instructions = p.artifact.Instructions
		}
		demos = p.artifact.Demos
	}

	messages := make([]*schema.Message, 0, 2+2*len(demos))
	messages = append(messages, schema.SystemMessage(instructions))

	for _, demo := range demos {
		messages = append(messages, schema.UserMessage(renderRequest(Request{
			Policy:        req.Policy,
			Tool:          demo.Tool,
			ToolInputJSON: demo.ToolInputJSON,
			HistoryTail:   demo.HistoryTail,
		})))
		messages = append(messages, schema.AssistantMessage(renderResult(demo.Decision, demo.Reason), nil))
	}

	messages = append(messages, schema.UserMessage(renderRequest(req)))
	return messages
}

func renderRequest(req Request) string {
	var b strings.Builder
	b.WriteString("POLICY:\n")
	b.WriteString(req.Policy)
	b.WriteString("\n\nTOOL: ")
	b.WriteString(req.Tool)
	b.WriteString("\nTOOL INPUT:\n")
	b.WriteString(req.ToolInputJSON)
	if req.HistoryTail != "" {
		b.WriteString("\n\nRECENT CONVERSATION:\n")
		b.WriteString(req.HistoryTail)
	}
	return b.String()
}

func renderResult(decision, reason string) string {
	encoded, err := json.Marshal(map[string]string{
		"decision": decision,
		"reason":   reason,
	})
	if err != nil {
		return fmt.Sprintf(`{"decision":%q,"reason":%q}`, decision, reason)
	}
	return string(encoded)
}

// parseResult extracts {decision, reason} from model output. Models wrap
// JSON in prose or code fences often enough that parsing scans for the
// outermost object instead of requiring clean output.
func parseResult(content string) (Result, error) {
	trimmed := strings.TrimSpace(content)

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start >= 0 && end > start {
		var parsed struct {
			Decision string `json:"decision"`
			Reason   string `json:"reason"`
		}
		if err := json.Unmarshal([]byte(trimmed[start:end+1]), &parsed); err == nil && parsed.Decision != "" {
			return Result{Decision: parsed.Decision, Reason: parsed.Reason}, nil
		}
	}

	// Fall back to a bare label on the first line.
	firstLine := trimmed
	if idx := strings.IndexByte(firstLine, '\n'); idx >= 0 {
		firstLine = firstLine[:idx]
	}
	label := strings.ToLower(strings.Trim(firstLine, " \t.:!\"'`"))
	if _, ok := NormalizeDecision(label); ok {
		reason := strings.TrimSpace(strings.TrimPrefix(trimmed, firstLine))
		return Result{Decision: label, Reason: reason}, nil
	}

	return Result{}, fmt.Errorf("no decision found in model output")
}
