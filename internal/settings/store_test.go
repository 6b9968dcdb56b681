package settings

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeScopeFile(t *testing.T, projectDir string, scope Scope, content string) string {
	t.Helper()
	path := scope.Path(projectDir)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestLoad_AbsentScopeIsNotAnError(t *testing.T) {
	store := NewStore(t.TempDir())

	doc, err := store.Load(ScopeProject)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc != nil {
		t.Fatalf("expected nil document for absent scope, got %v", doc)
	}
}

func TestLoad_ReadsProjectScopeDocument(t *testing.T) {
	projectDir := t.TempDir()
	writeScopeFile(t, projectDir, ScopeProject, `{"approver":{"model":"test-model"}}`)

	doc, err := NewStore(projectDir).Load(ScopeProject)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	approver, ok := doc["approver"].(map[string]any)
	if !ok {
		t.Fatalf("expected nested approver object, got %v", doc)
	}
	if approver["model"] != "test-model" {
		t.Fatalf("expected model preserved, got %v", approver["model"])
	}
}

func TestLoad_MalformedScopePropagatesWithScopeIdentity(t *testing.T) {
	projectDir := t.TempDir()
	writeScopeFile(t, projectDir, ScopeLocal, `{"policy": not-json`)

	_, err := NewStore(projectDir).Load(ScopeLocal)

	if err == nil {
		t.Fatal("expected error for malformed settings")
	}
	var malformed *MalformedError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected *MalformedError, got %T", err)
	}
	if malformed.Scope != ScopeLocal {
		t.Fatalf("expected local scope identity, got %q", malformed.Scope)
	}
}

func TestLoad_GlobalScopeResolvesUnderHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	projectDir := t.TempDir()
	writeScopeFile(t, projectDir, ScopeGlobal, `{"policy":{"instructions":"global text"}}`)

	doc, err := NewStore(projectDir).Load(ScopeGlobal)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc == nil {
		t.Fatal("expected global document")
	}
}
