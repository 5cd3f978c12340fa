package storage

import (
	"fmt"

	"github.com/hyperjump/awase/internal/config"
)

// Backend identifiers for the keyword index store.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// NewStore creates the keyword index store selected by cfg.
func NewStore(cfg *config.StorageConfig) (Store, error) {
	switch cfg.KeywordBackend {
	case BackendFile, "":
		return NewFileStore(cfg.IndexDir)
	case BackendSQLite:
		return NewSQLiteStore(cfg.DatabasePath)
	default:
		return nil, fmt.Errorf("unknown keyword store backend: %q", cfg.KeywordBackend)
	}
}
