package approver

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

const (
	artifactVersion  = 1
	artifactFileMode = 0644
	artifactDirMode  = 0755
)

// Demo is one worked example embedded in a trained artifact. Demos are
// replayed to the model as few-shot context ahead of the live request.
type Demo struct {
	Tool          string `json:"tool"`
	ToolInputJSON string `json:"tool_input_json"`
	HistoryTail   string `json:"history_tail,omitempty"`
	Decision      string `json:"decision"`
	Reason        string `json:"reason,omitempty"`
}

// Artifact is a trained decision artifact produced by the trainer and
// consumed by the decision function. The pipeline only ever reads these;
// training happens out of band.
type Artifact struct {
	Version      int       `json:"version"`
	Instructions string    `json:"instructions"`
	Demos        []Demo    `json:"demos"`
	Model        string    `json:"model,omitempty"`
	TrainedAt    time.Time `json:"trained_at,omitempty"`
	Accuracy     float64   `json:"accuracy,omitempty"`
}

// NewArtifact creates an artifact with the default instructions.
func NewArtifact(model string, demos []Demo) *Artifact {
	return &Artifact{
		Version:      artifactVersion,
		Instructions: defaultInstructions,
		Demos:        demos,
		Model:        model,
	}
}

// LoadArtifact reads one artifact file.
func LoadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}

	var artifact Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("parse artifact %s: %w", path, err)
	}
	if artifact.Version <= 0 {
		artifact.Version = artifactVersion
	}
	return &artifact, nil
}

// FirstArtifact returns the first loadable artifact among the candidate
// paths, or nil when none loads. A missing or corrupt artifact is never
// fatal: the untrained default program takes over.
func FirstArtifact(paths []string) *Artifact {
	for _, path := range paths {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			continue
		}
		artifact, err := LoadArtifact(path)
		if err != nil {
			slog.Debug("skipping unreadable artifact", "path", path, "error", err)
			continue
		}
		return artifact
	}
	return nil
}

// CandidatePaths lists artifact locations in lookup order: the
// configured path, then the project default, then the home default.
func CandidatePaths(configured, projectDir string) []string {
	paths := make([]string, 0, 3)
	if configured != "" {
		paths = append(paths, configured)
	}
	paths = append(paths, filepath.Join(projectDir, ".claude", "models", "approver.json"))
	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(homeDir, ".claude", "models", "approver.json"))
	}
	return paths
}

// Save writes the artifact atomically, creating parent directories.
func (a *Artifact) Save(path string) error {
	encoded, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal artifact: %w", err)
	}
	encoded = append(encoded, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, artifactDirMode); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, "artifact-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)

	if _, err := tmpFile.Write(encoded); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("write temp artifact: %w", err)
	}
	if err := tmpFile.Chmod(artifactFileMode); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("chmod temp artifact: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp artifact: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replace artifact: %w", err)
	}
	return nil
}
