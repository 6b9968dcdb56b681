package settings

import (
	"os"
	"path/filepath"
)

// Scope identifies one settings source. Scopes merge in ScopeOrder;
// later scopes override earlier ones.
type Scope string

const (
	ScopeGlobal  Scope = "global"
	ScopeProject Scope = "project"
	ScopeLocal   Scope = "local"
)

// ScopeOrder returns scopes in merge precedence order, lowest first.
func ScopeOrder() []Scope {
	return []Scope{ScopeGlobal, ScopeProject, ScopeLocal}
}

// Path returns the canonical on-disk location for the scope.
func (s Scope) Path(projectDir string) string {
	switch s {
	case ScopeGlobal:
		homeDir, err := os.UserHomeDir()
		if err != nil {
			homeDir = "."
		}
		return filepath.Join(homeDir, ".claude", "settings.json")
	case ScopeLocal:
		return filepath.Join(projectDir, ".claude", "settings.local.json")
	default:
		return filepath.Join(projectDir, ".claude", "settings.json")
	}
}

// ProjectDir resolves the active project directory from the environment,
// falling back to the working directory.
func ProjectDir() string {
	if dir := os.Getenv("CLAUDE_PROJECT_DIR"); dir != "" {
		return dir
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}
