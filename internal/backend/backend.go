// Package backend selects and constructs the persistence layer.
package backend

import (
	"fintrack/internal/services"
)

// Type identifies a storage backend.
type Type string

const (
	SQLite Type = "sqlite"
	Memory Type = "memory"
)

// IsValid reports whether t names a known backend.
func (t Type) IsValid() bool {
	return t == SQLite || t == Memory
}

// CleanupFunc releases backend resources. Always non-nil.
type CleanupFunc func() error

// Result is a constructed store with its teardown.
type Result struct {
	Store   services.Store
	Cleanup CleanupFunc
}

// Config holds what the factory needs to build a store.
type Config struct {
	Type         Type
	SQLiteDBPath string
}
