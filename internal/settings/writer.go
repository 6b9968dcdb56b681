package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	settingsFileMode = 0644
	settingsDirMode  = 0755

	hookEventName = "PreToolUse"
	hookCommand   = "ccapprove hook"
)

// DefaultPolicyText seeds a newly initialized scope.
const DefaultPolicyText = "Deny destructive ops; ask on ambiguous; allow read-only or tests."

// InitOptions configures settings initialization for one scope.
type InitOptions struct {
	Scope          Scope
	PolicyText     string
	Model          string
	HistoryBytes   int
	Matcher        string
	TimeoutSeconds int
}

// Init writes the approver configuration, policy text, and hook
// registration into the chosen scope's settings file, preserving every
// unrelated key. It returns the path that was written.
//
// The decision pipeline itself never writes settings; this is the
// configuration-management entry point behind the init command.
func Init(projectDir string, opts InitOptions) (string, error) {
	scope := opts.Scope
	if scope == "" {
		scope = ScopeProject
	}
	path := scope.Path(projectDir)

	doc, err := readRawDocument(path)
	if err != nil {
		return "", err
	}

	policyText := opts.PolicyText
	if strings.TrimSpace(policyText) == "" {
		policyText = DefaultPolicyText
	}
	model := opts.Model
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	matcher := opts.Matcher
	if strings.TrimSpace(matcher) == "" {
		matcher = DefaultMatcher
	}
	timeout := opts.TimeoutSeconds
	if timeout <= 0 {
		timeout = DefaultTimeoutSeconds
	}

	artifactPath := projectDirToken + "/.claude/models/" + defaultArtifactFile
	if scope == ScopeGlobal {
		// Global scope serves every project, so the artifact cannot live
		// under a project token.
		artifactPath = filepath.Join(filepath.Dir(path), "models", defaultArtifactFile)
	}

	ensurePolicyText(doc, policyText)
	ensureApproverConfig(doc, model, opts.HistoryBytes, artifactPath, timeout)
	mergeHookEntry(doc, hookCommand, matcher, timeout)

	if err := writeRawDocument(path, doc); err != nil {
		return "", err
	}
	return path, nil
}

// readRawDocument reads a settings file with encoding/json rather than
// the store's viper loader: rewriting a user's file must preserve key
// case exactly, which viper normalizes away on read.
func readRawDocument(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("read settings: %w", err)
	}

	doc := map[string]any{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse settings %s: %w", path, err)
	}
	return doc, nil
}

func writeRawDocument(path string, doc map[string]any) error {
	encoded, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	encoded = append(encoded, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, settingsDirMode); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, "settings-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp settings: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)

	if _, err := tmpFile.Write(encoded); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("write temp settings: %w", err)
	}
	if err := tmpFile.Chmod(settingsFileMode); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("chmod temp settings: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp settings: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replace settings: %w", err)
	}
	return nil
}

func ensurePolicyText(doc map[string]any, text string) {
	policy := subObject(doc, "policy")
	if _, ok := policy["instructions"].(string); !ok {
		policy["instructions"] = text
	}
}

func ensureApproverConfig(doc map[string]any, model string, historyBytes int, artifactPath string, timeout int) {
	approver := subObject(doc, "approver")
	setDefault(approver, "model", model)
	setDefault(approver, "historyBytes", historyBytes)
	setDefault(approver, "artifactPath", artifactPath)
	setDefault(approver, "timeoutSeconds", timeout)
}

// mergeHookEntry registers the PreToolUse hook, updating an existing
// ccapprove entry in place so repeated init runs stay idempotent.
func mergeHookEntry(doc map[string]any, command, matcher string, timeout int) {
	hooks := subObject(doc, "hooks")
	entries, _ := hooks[hookEventName].([]any)

	for _, rawEntry := range entries {
		entry, ok := rawEntry.(map[string]any)
		if !ok {
			continue
		}
		specs, _ := entry["hooks"].([]any)
		for _, rawSpec := range specs {
			spec, ok := rawSpec.(map[string]any)
			if !ok {
				continue
			}
			existing, _ := spec["command"].(string)
			if !strings.Contains(existing, "ccapprove") {
				continue
			}
			entry["matcher"] = matcher
			spec["command"] = command
			spec["timeout"] = timeout
			return
		}
	}

	entries = append(entries, map[string]any{
		"matcher": matcher,
		"hooks": []any{
			map[string]any{
				"type":    "command",
				"command": command,
				"timeout": timeout,
			},
		},
	})
	hooks[hookEventName] = entries
}

func subObject(doc map[string]any, key string) map[string]any {
	if existing, ok := doc[key].(map[string]any); ok {
		return existing
	}
	created := map[string]any{}
	doc[key] = created
	return created
}

func setDefault(obj map[string]any, key string, value any) {
	if _, ok := obj[key]; !ok {
		obj[key] = value
	}
}
