//go:build tools
// +build tools

// Package tools pins provider components that are selected at runtime
// through configuration rather than imported directly everywhere.
package tools

import (
	_ "github.com/cloudwego/eino-ext/components/model/claude"
	_ "github.com/cloudwego/eino-ext/components/model/ollama"
)
