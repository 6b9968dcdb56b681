package settings

import (
	"encoding/json"
	"os"
	"strings"
	"testing"
)

func readJSONFile(t *testing.T, path string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	doc := map[string]any{}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("parse %s: %v", path, err)
	}
	return doc
}

func TestInit_CreatesProjectSettingsWithHook(t *testing.T) {
	projectDir := t.TempDir()

	path, err := Init(projectDir, InitOptions{Scope: ScopeProject})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	doc := readJSONFile(t, path)

	policy, _ := doc["policy"].(map[string]any)
	if policy["instructions"] != DefaultPolicyText {
		t.Errorf("expected default policy text, got %v", policy["instructions"])
	}

	approver, _ := doc["approver"].(map[string]any)
	if approver["model"] != DefaultModel {
		t.Errorf("expected default model, got %v", approver["model"])
	}

	hooks, _ := doc["hooks"].(map[string]any)
	entries, _ := hooks["PreToolUse"].([]any)
	if len(entries) != 1 {
		t.Fatalf("expected one hook entry, got %d", len(entries))
	}
	entry := entries[0].(map[string]any)
	if entry["matcher"] != DefaultMatcher {
		t.Errorf("expected default matcher, got %v", entry["matcher"])
	}
}

func TestInit_PreservesUnrelatedKeysAndExistingPolicy(t *testing.T) {
	projectDir := t.TempDir()
	writeScopeFile(t, projectDir, ScopeProject, `{
  "permissions": {"allow": ["Read"]},
  "policy": {"instructions": "existing policy"}
}`)

	path, err := Init(projectDir, InitOptions{Scope: ScopeProject, PolicyText: "new policy"})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	doc := readJSONFile(t, path)

	if _, ok := doc["permissions"].(map[string]any); !ok {
		t.Error("expected unrelated permissions key preserved")
	}
	policy, _ := doc["policy"].(map[string]any)
	if policy["instructions"] != "existing policy" {
		t.Errorf("expected existing policy text kept, got %v", policy["instructions"])
	}
}

func TestInit_RepeatedRunsKeepSingleHookEntry(t *testing.T) {
	projectDir := t.TempDir()

	if _, err := Init(projectDir, InitOptions{Scope: ScopeProject}); err != nil {
		t.Fatalf("first init: %v", err)
	}
	path, err := Init(projectDir, InitOptions{Scope: ScopeProject, Matcher: "Bash"})
	if err != nil {
		t.Fatalf("second init: %v", err)
	}

	doc := readJSONFile(t, path)
	hooks, _ := doc["hooks"].(map[string]any)
	entries, _ := hooks["PreToolUse"].([]any)
	if len(entries) != 1 {
		t.Fatalf("expected single hook entry after reruns, got %d", len(entries))
	}
	entry := entries[0].(map[string]any)
	if entry["matcher"] != "Bash" {
		t.Errorf("expected matcher updated in place, got %v", entry["matcher"])
	}
}

func TestInit_GlobalScopeUsesHomeArtifactPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path, err := Init(t.TempDir(), InitOptions{Scope: ScopeGlobal})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(path, home) {
		t.Fatalf("expected global settings under home, got %q", path)
	}
	doc := readJSONFile(t, path)
	approver, _ := doc["approver"].(map[string]any)
	artifact, _ := approver["artifactPath"].(string)
	if strings.Contains(artifact, "$CLAUDE_PROJECT_DIR") {
		t.Fatalf("expected global artifact path without project token, got %q", artifact)
	}
}
