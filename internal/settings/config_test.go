package settings

import (
	"strings"
	"testing"
)

func TestDecodeApproverConfig_Defaults(t *testing.T) {
	cfg, err := DecodeApproverConfig(Document{}, "/proj")

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Model != DefaultModel {
		t.Errorf("expected default model, got %q", cfg.Model)
	}
	if cfg.HistoryBytes != 0 {
		t.Errorf("expected history disabled by default, got %d", cfg.HistoryBytes)
	}
	if cfg.TimeoutSeconds != DefaultTimeoutSeconds {
		t.Errorf("expected default timeout, got %d", cfg.TimeoutSeconds)
	}
	if cfg.MaxReasonLength != DefaultMaxReasonLength {
		t.Errorf("expected default reason cap, got %d", cfg.MaxReasonLength)
	}
	if !strings.HasPrefix(cfg.ArtifactPath, "/proj/") {
		t.Errorf("expected project token expanded, got %q", cfg.ArtifactPath)
	}
}

func TestDecodeApproverConfig_ReadsLowercasedKeys(t *testing.T) {
	// Documents arrive through viper, which lowercases keys on read.
	effective := Document{
		"approver": map[string]any{
			"model":          "custom-model",
			"historybytes":   400,
			"timeoutseconds": 10,
		},
	}

	cfg, err := DecodeApproverConfig(effective, "/proj")

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Model != "custom-model" {
		t.Errorf("expected configured model, got %q", cfg.Model)
	}
	if cfg.HistoryBytes != 400 {
		t.Errorf("expected historyBytes 400, got %d", cfg.HistoryBytes)
	}
	if cfg.TimeoutSeconds != 10 {
		t.Errorf("expected timeout 10, got %d", cfg.TimeoutSeconds)
	}
}

func TestDecodeApproverConfig_ExpandsProjectDirToken(t *testing.T) {
	effective := Document{
		"approver": map[string]any{
			"artifactpath": "$CLAUDE_PROJECT_DIR/.claude/models/custom.json",
		},
	}

	cfg, err := DecodeApproverConfig(effective, "/work/repo")

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ArtifactPath != "/work/repo/.claude/models/custom.json" {
		t.Fatalf("expected token expanded, got %q", cfg.ArtifactPath)
	}
}

func TestDecodeApproverConfig_NegativeHistoryBytesRejected(t *testing.T) {
	effective := Document{
		"approver": map[string]any{"historybytes": -5},
	}

	_, err := DecodeApproverConfig(effective, "/proj")

	if err == nil {
		t.Fatal("expected error for negative historyBytes")
	}
}

func TestDecodeProvidersConfig_EnvKeyTakesPrecedence(t *testing.T) {
	t.Setenv("CCAPPROVE_OPENROUTER_API_KEY", "env-key")
	effective := Document{
		"providers": map[string]any{
			"openrouter": map[string]any{"api_key": "file-key"},
		},
	}

	cfg, err := DecodeProvidersConfig(effective)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.OpenRouter.APIKey != "env-key" {
		t.Fatalf("expected env key to win, got %q", cfg.OpenRouter.APIKey)
	}
}

func TestDecodeProvidersConfig_ReadsFileCredentials(t *testing.T) {
	effective := Document{
		"providers": map[string]any{
			"ollama": map[string]any{"base_url": "http://localhost:11434"},
		},
	}

	cfg, err := DecodeProvidersConfig(effective)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Ollama.BaseURL != "http://localhost:11434" {
		t.Fatalf("expected ollama base url, got %q", cfg.Ollama.BaseURL)
	}
}
