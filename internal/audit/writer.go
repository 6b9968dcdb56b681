package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	auditFileMode = 0644
	auditDirMode  = 0755
)

// Event is one decision-provenance record written as a single JSON line.
// This is the diagnostic channel: scope identity, fallback cause, and
// model detail belong here, never in the protocol-facing verdict.
type Event struct {
	Time             time.Time `json:"time"`
	SessionID        string    `json:"session_id,omitempty"`
	Tool             string    `json:"tool,omitempty"`
	Decision         string    `json:"decision"`
	Reason           string    `json:"reason,omitempty"`
	Scopes           []string  `json:"scopes,omitempty"`
	Fallback         string    `json:"fallback,omitempty"`
	MalformedScope   string    `json:"malformed_scope,omitempty"`
	Model            string    `json:"model,omitempty"`
	ArtifactSource   string    `json:"artifact_source,omitempty"`
	HistoryTruncated bool      `json:"history_truncated,omitempty"`
	DurationMS       int64     `json:"duration_ms,omitempty"`
}

// Writer appends decision events to <projectDir>/.claude/approver/audit.jsonl.
type Writer struct {
	path string
	mu   sync.Mutex
}

// NewWriter creates an append-only audit writer for the project.
func NewWriter(projectDir string) *Writer {
	return &Writer{
		path: filepath.Join(projectDir, ".claude", "approver", "audit.jsonl"),
	}
}

// Append writes one event as one JSONL line.
func (w *Writer) Append(event Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(w.path), auditDirMode); err != nil {
		return fmt.Errorf("create audit dir: %w", err)
	}

	file, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, auditFileMode)
	if err != nil {
		return fmt.Errorf("open audit file: %w", err)
	}
	defer file.Close()

	encoded, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	encoded = append(encoded, '\n')

	if _, err := file.Write(encoded); err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	if err := file.Sync(); err != nil {
		return fmt.Errorf("sync audit file: %w", err)
	}
	return nil
}
