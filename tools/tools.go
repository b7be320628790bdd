//go:build tools
// +build tools

// Package tools documents the development tools used on the portal.
// They run through `go install` or `go run pkg@version` and are not tracked in go.mod.
package tools

// Development tools:
//
// Air - live reload for cmd/besf with DEV=true (templates are read from web/ on disk)
//   Install: go install github.com/air-verse/air@v1.63.0
//   Docs: https://github.com/air-verse/air
//
// mockgen - regenerates internal/mocks after a port or repository interface changes
//   Run: go generate ./internal/mocks
//   Version: go.uber.org/mock v0.6.0, kept in step with go.mod
