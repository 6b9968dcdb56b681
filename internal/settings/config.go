package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

const (
	// DefaultModel is used when no scope configures a model.
	DefaultModel = "openrouter/google/gemini-2.5-flash-lite"
	// DefaultHistoryBytes disables transcript history: no conversation
	// context is attached unless a scope opts in.
	DefaultHistoryBytes = 0
	// DefaultTimeoutSeconds bounds one decision-function call.
	DefaultTimeoutSeconds = 60
	// DefaultMaxReasonLength caps the reason string in the verdict.
	DefaultMaxReasonLength = 500
	// DefaultMatcher selects which tools the hook intercepts.
	DefaultMatcher = "Bash|Edit|Write"

	defaultArtifactFile = "approver.json"
	projectDirToken     = "$CLAUDE_PROJECT_DIR"
)

// ApproverConfig is the non-policy configuration consumed by the decision
// pipeline, decoded from the effective settings document.
type ApproverConfig struct {
	Model           string `mapstructure:"model"`
	HistoryBytes    int    `mapstructure:"historyBytes"`
	ArtifactPath    string `mapstructure:"artifactPath"`
	TimeoutSeconds  int    `mapstructure:"timeoutSeconds"`
	MaxReasonLength int    `mapstructure:"maxReasonLength"`
}

// ProviderConfig holds one model provider's credentials.
type ProviderConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// ProvidersConfig holds credentials for all supported model providers.
type ProvidersConfig struct {
	OpenRouter ProviderConfig `mapstructure:"openrouter"`
	Claude     ProviderConfig `mapstructure:"claude"`
	OpenAI     ProviderConfig `mapstructure:"openai"`
	DeepSeek   ProviderConfig `mapstructure:"deepseek"`
	Ollama     ProviderConfig `mapstructure:"ollama"`
}

// DefaultArtifactPath returns the project-scoped artifact location.
func DefaultArtifactPath(projectDir string) string {
	return filepath.Join(projectDir, ".claude", "models", defaultArtifactFile)
}

// DecodeApproverConfig extracts the approver section from the effective
// settings, applying defaults and expanding $CLAUDE_PROJECT_DIR in the
// artifact path.
func DecodeApproverConfig(effective Document, projectDir string) (ApproverConfig, error) {
	cfg := ApproverConfig{
		Model:           DefaultModel,
		HistoryBytes:    DefaultHistoryBytes,
		ArtifactPath:    projectDirToken + "/.claude/models/" + defaultArtifactFile,
		TimeoutSeconds:  DefaultTimeoutSeconds,
		MaxReasonLength: DefaultMaxReasonLength,
	}

	if raw, ok := effective["approver"]; ok {
		if err := decodeSection(raw, &cfg); err != nil {
			return ApproverConfig{}, fmt.Errorf("decode approver settings: %w", err)
		}
	}

	cfg.ArtifactPath = ExpandProjectDir(cfg.ArtifactPath, projectDir)

	if cfg.HistoryBytes < 0 {
		return ApproverConfig{}, fmt.Errorf("approver.historyBytes must not be negative, got %d", cfg.HistoryBytes)
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if cfg.MaxReasonLength <= 0 {
		cfg.MaxReasonLength = DefaultMaxReasonLength
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultModel
	}

	return cfg, nil
}

// DecodeProvidersConfig extracts provider credentials from the effective
// settings. Environment variables of the form CCAPPROVE_<PROVIDER>_API_KEY
// take precedence so credentials can stay out of checked-in settings.
func DecodeProvidersConfig(effective Document) (ProvidersConfig, error) {
	var cfg ProvidersConfig
	if raw, ok := effective["providers"]; ok {
		if err := decodeSection(raw, &cfg); err != nil {
			return ProvidersConfig{}, fmt.Errorf("decode provider settings: %w", err)
		}
	}

	applyEnvKey(&cfg.OpenRouter, "CCAPPROVE_OPENROUTER_API_KEY")
	applyEnvKey(&cfg.Claude, "CCAPPROVE_CLAUDE_API_KEY")
	applyEnvKey(&cfg.OpenAI, "CCAPPROVE_OPENAI_API_KEY")
	applyEnvKey(&cfg.DeepSeek, "CCAPPROVE_DEEPSEEK_API_KEY")

	return cfg, nil
}

// ExpandProjectDir replaces the $CLAUDE_PROJECT_DIR token with the
// resolved project directory.
func ExpandProjectDir(path, projectDir string) string {
	return strings.ReplaceAll(path, projectDirToken, projectDir)
}

func applyEnvKey(p *ProviderConfig, envName string) {
	if value := strings.TrimSpace(os.Getenv(envName)); value != "" {
		p.APIKey = value
	}
}

func decodeSection(raw any, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  target,
		TagName: "mapstructure",
		MatchName: func(mapKey, fieldName string) bool {
			return normalizeKey(mapKey) == normalizeKey(fieldName)
		},
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(raw)
}

func normalizeKey(input string) string {
	input = strings.ReplaceAll(input, "_", "")
	input = strings.ReplaceAll(input, "-", "")
	return strings.ToLower(input)
}
