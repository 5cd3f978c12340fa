package vector

import (
	"context"
	"fmt"

	"github.com/hyperjump/awase/internal/config"
)

// Backend identifiers for the vector store.
const (
	BackendMemory = "memory"
	BackendChroma = "chroma"
)

// NewStore creates the vector store selected by cfg.
func NewStore(ctx context.Context, cfg *config.VectorConfig) (Store, error) {
	switch cfg.Backend {
	case BackendMemory, "":
		return NewMemoryStore(cfg.Dimensions)
	case BackendChroma:
		return NewChromaStore(ctx, cfg.ChromaURL, cfg.Collection)
	default:
		return nil, fmt.Errorf("unknown vector store backend: %q", cfg.Backend)
	}
}
