package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/ccapprove/ccapprove/internal/approver"
)

// ErrInvalidEvent marks a tool event missing a required field. The
// gateway converts it to a deny verdict.
var ErrInvalidEvent = errors.New("invalid event")

// maxToolInputBytes caps the serialized tool input handed to the
// decision function.
const maxToolInputBytes = 8000

// Event is the raw tool-invocation event delivered by the agent, one per
// hook run. Tool input is an open-ended structured value; the tool
// catalog is agent-defined and never schema-validated here.
type Event struct {
	SessionID      string          `json:"session_id"`
	ToolName       string          `json:"tool_name"`
	ToolInput      json.RawMessage `json:"tool_input"`
	TranscriptPath string          `json:"transcript_path"`
	Cwd            string          `json:"cwd"`
}

// BuildRequest normalizes a raw event into a canonical decision request.
// The returned bool reports whether transcript history was truncated to
// the byte cap; with a cap of zero no history is attached at all.
func BuildRequest(event Event, policyText string, historyCapBytes int) (approver.Request, bool, error) {
	tool := strings.TrimSpace(event.ToolName)
	if tool == "" {
		return approver.Request{}, false, fmt.Errorf("%w: missing tool name", ErrInvalidEvent)
	}

	inputJSON := "{}"
	if len(event.ToolInput) > 0 {
		inputJSON = string(event.ToolInput)
		if len(inputJSON) > maxToolInputBytes {
			inputJSON = inputJSON[:maxToolInputBytes]
		}
	}

	history := ""
	truncated := false
	if historyCapBytes > 0 && event.TranscriptPath != "" {
		history, truncated = TailBytes(event.TranscriptPath, historyCapBytes)
	}

	return approver.Request{
		Policy:        policyText,
		Tool:          tool,
		ToolInputJSON: inputJSON,
		HistoryTail:   history,
	}, truncated, nil
}

// TailBytes reads at most n trailing bytes from the file at path. An
// unreadable transcript yields no history rather than an error: history
// is advisory context, not a decision input the pipeline depends on.
func TailBytes(path string, n int) (string, bool) {
	if path == "" || n <= 0 {
		return "", false
	}

	file, err := os.Open(path)
	if err != nil {
		slog.Debug("transcript unavailable", "path", path, "error", err)
		return "", false
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return "", false
	}

	size := info.Size()
	offset := int64(0)
	truncated := false
	if size > int64(n) {
		offset = size - int64(n)
		truncated = true
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return "", false
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return "", false
	}
	return string(data), truncated
}
