package trainer

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"strings"

	"github.com/ccapprove/ccapprove/internal/approver"
	"github.com/ccapprove/ccapprove/internal/gateway"
)

const (
	// SplitSeed keeps the train/validation split reproducible.
	SplitSeed = 7
	// SplitRatio is the validation share when no explicit validation
	// file is supplied.
	SplitRatio = 0.2
)

// Example is one labeled training record.
type Example struct {
	Tool          string
	ToolInputJSON string
	HistoryTail   string
	Label         approver.Decision
}

// rawExample tolerates the field spellings that appear in exported
// decision logs and hand-written label files.
type rawExample struct {
	ToolName         string          `json:"tool_name"`
	Tool             string          `json:"tool"`
	ToolInputJSON    string          `json:"tool_input_json"`
	ToolInput        json.RawMessage `json:"tool_input"`
	ToolInputPreview string          `json:"tool_input_preview"`
	Label            string          `json:"label"`
	Decision         string          `json:"decision"`
	HistoryTail      string          `json:"history_tail"`
	TranscriptPath   string          `json:"transcript_path"`
}

// ReadJSONL loads labeled examples from a JSONL file. Unparseable lines
// and lines with labels outside {allow, deny, ask} are skipped, not
// fatal: label files accumulate by hand and one bad line must not block
// a training run.
func ReadJSONL(path string, historyBytes int) ([]Example, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open training data: %w", err)
	}
	defer file.Close()

	var examples []Example
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var raw rawExample
		if err := json.Unmarshal([]byte(line), &raw); err != nil {
			slog.Debug("skipping invalid training line", "line", lineNo, "error", err)
			continue
		}

		example, ok := normalizeExample(raw, historyBytes)
		if !ok {
			slog.Debug("skipping unlabeled training line", "line", lineNo)
			continue
		}
		examples = append(examples, example)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read training data: %w", err)
	}
	return examples, nil
}

func normalizeExample(raw rawExample, historyBytes int) (Example, bool) {
	label, ok := approver.NormalizeDecision(firstNonEmpty(raw.Label, raw.Decision))
	if !ok {
		return Example{}, false
	}

	tool := strings.TrimSpace(firstNonEmpty(raw.ToolName, raw.Tool))

	inputJSON := raw.ToolInputJSON
	if inputJSON == "" && len(raw.ToolInput) > 0 {
		inputJSON = string(raw.ToolInput)
	}
	if inputJSON == "" {
		inputJSON = firstNonEmpty(raw.ToolInputPreview, "{}")
	}

	history := raw.HistoryTail
	if history == "" && historyBytes > 0 && raw.TranscriptPath != "" {
		history, _ = gateway.TailBytes(raw.TranscriptPath, historyBytes)
	}

	return Example{
		Tool:          tool,
		ToolInputJSON: inputJSON,
		HistoryTail:   history,
		Label:         label,
	}, true
}

// Split shuffles deterministically and carves off the validation share.
func Split(examples []Example, seed int64, ratio float64) (train, dev []Example) {
	shuffled := append([]Example(nil), examples...)
	rand.New(rand.NewSource(seed)).Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	k := int(ratio * float64(len(shuffled)))
	if k < 1 && len(shuffled) > 1 {
		k = 1
	}
	if k >= len(shuffled) {
		k = len(shuffled) - 1
	}
	if k < 0 {
		k = 0
	}
	return shuffled[k:], shuffled[:k]
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
