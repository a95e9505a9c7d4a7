//go:build tools
// +build tools

// Package tools pins the code generators used by go generate.
package tools

import (
	_ "go.uber.org/mock/mockgen"
)
