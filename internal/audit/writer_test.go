package audit

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestAppend_WritesOneJSONLinePerEvent(t *testing.T) {
	projectDir := t.TempDir()
	writer := NewWriter(projectDir)

	events := []Event{
		{Time: time.Now().UTC(), Tool: "Bash", Decision: "allow", Reason: "read-only"},
		{Time: time.Now().UTC(), Tool: "Edit", Decision: "deny", Fallback: "settings"},
	}
	for _, event := range events {
		if err := writer.Append(event); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	file, err := os.Open(filepath.Join(projectDir, ".claude", "approver", "audit.jsonl"))
	if err != nil {
		t.Fatalf("open audit file: %v", err)
	}
	defer file.Close()

	var lines []Event
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var decoded Event
		if err := json.Unmarshal(scanner.Bytes(), &decoded); err != nil {
			t.Fatalf("line not valid JSON: %v", err)
		}
		lines = append(lines, decoded)
	}

	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].Tool != "Bash" || lines[0].Decision != "allow" {
		t.Errorf("unexpected first record: %+v", lines[0])
	}
	if lines[1].Fallback != "settings" {
		t.Errorf("expected fallback recorded, got %+v", lines[1])
	}
}

func TestAppend_ConcurrentWritersProduceWholeLines(t *testing.T) {
	projectDir := t.TempDir()
	writer := NewWriter(projectDir)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = writer.Append(Event{Time: time.Now().UTC(), Tool: "Bash", Decision: "ask"})
		}()
	}
	wg.Wait()

	data, err := os.ReadFile(filepath.Join(projectDir, ".claude", "approver", "audit.jsonl"))
	if err != nil {
		t.Fatalf("read audit file: %v", err)
	}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	count := 0
	for scanner.Scan() {
		var decoded Event
		if err := json.Unmarshal(scanner.Bytes(), &decoded); err != nil {
			t.Fatalf("interleaved write produced invalid line: %v", err)
		}
		count++
	}
	if count != 10 {
		t.Fatalf("expected 10 records, got %d", count)
	}
}
