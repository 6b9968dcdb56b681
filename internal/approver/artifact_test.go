package approver

import (
	"os"
	"path/filepath"
	"testing"
)

func TestArtifact_SaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models", "approver.json")
	artifact := NewArtifact("openrouter/test-model", []Demo{
		{Tool: "Bash", ToolInputJSON: `{"command":"ls"}`, Decision: "allow", Reason: "read-only"},
	})
	artifact.Accuracy = 0.875

	if err := artifact.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := LoadArtifact(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Model != "openrouter/test-model" {
		t.Errorf("expected model preserved, got %q", loaded.Model)
	}
	if len(loaded.Demos) != 1 || loaded.Demos[0].Decision != "allow" {
		t.Errorf("expected demos preserved, got %+v", loaded.Demos)
	}
	if loaded.Accuracy != 0.875 {
		t.Errorf("expected accuracy preserved, got %v", loaded.Accuracy)
	}
}

func TestFirstArtifact_SkipsMissingAndCorruptCandidates(t *testing.T) {
	dir := t.TempDir()
	corrupt := filepath.Join(dir, "corrupt.json")
	if err := os.WriteFile(corrupt, []byte("{not json"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	good := filepath.Join(dir, "good.json")
	if err := NewArtifact("m", nil).Save(good); err != nil {
		t.Fatalf("save: %v", err)
	}

	artifact := FirstArtifact([]string{
		"",
		filepath.Join(dir, "missing.json"),
		corrupt,
		good,
	})

	if artifact == nil {
		t.Fatal("expected the loadable artifact")
	}
	if artifact.Model != "m" {
		t.Fatalf("expected the good candidate, got %+v", artifact)
	}
}

func TestFirstArtifact_NoneLoadableYieldsNil(t *testing.T) {
	if artifact := FirstArtifact([]string{filepath.Join(t.TempDir(), "missing.json")}); artifact != nil {
		t.Fatalf("expected nil, got %+v", artifact)
	}
}

func TestCandidatePaths_ConfiguredPathComesFirst(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	paths := CandidatePaths("/custom/approver.json", "/proj")

	if len(paths) != 3 {
		t.Fatalf("expected 3 candidates, got %v", paths)
	}
	if paths[0] != "/custom/approver.json" {
		t.Errorf("expected configured path first, got %q", paths[0])
	}
	if paths[1] != "/proj/.claude/models/approver.json" {
		t.Errorf("expected project default second, got %q", paths[1])
	}
}

func TestLoadArtifact_MissingVersionDefaulted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "artifact.json")
	if err := os.WriteFile(path, []byte(`{"instructions":"x","demos":[]}`), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	artifact, err := LoadArtifact(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if artifact.Version != 1 {
		t.Fatalf("expected version defaulted to 1, got %d", artifact.Version)
	}
}
