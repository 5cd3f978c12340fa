// Package vector defines the narrow contract this engine consumes from a
// vector store, plus the available implementations. The store's own indexing
// and query internals are out of scope; everything flows through Add, Query,
// and Delete with metadata equality filters.
package vector

import "context"

// QueryResult is a single nearest-neighbor hit. Distance follows the store's
// metric (lower is closer); callers convert it to a similarity score.
type QueryResult struct {
	ID       string
	Document string
	Metadata map[string]string
	Distance float64
}

// Store is the vector store contract. The where filter is an AND of equality
// predicates on metadata fields; tenancy isolation (user_id) and document
// scoping (document_id) are always expressed through it so the engine never
// touches unfiltered data.
type Store interface {
	Add(ctx context.Context, documents []string, embeddings [][]float32, metadatas []map[string]string, ids []string) error
	Query(ctx context.Context, queryEmbedding []float32, nResults int, where map[string]string) ([]*QueryResult, error)
	Delete(ctx context.Context, where map[string]string) error
	Close() error
}

// DocumentLister is an optional extension implemented by stores that can
// enumerate the distinct document_id values they hold. Used by the
// reconciliation utility; network-backed stores may not support it.
type DocumentLister interface {
	ListDocumentIDs(ctx context.Context) ([]string, error)
}
