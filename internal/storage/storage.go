// Package storage persists keyword index records, one per document id.
//
// A record holds only the chunk list and the tokenized corpus; the BM25
// ranking structure is never serialized. Load always rebuilds it from the
// corpus so that algorithm changes apply uniformly on the next load and no
// backend is coupled to the ranking structure's in-memory layout.
package storage

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"

	"github.com/hyperjump/awase/internal/bm25"
	"github.com/hyperjump/awase/internal/models"
)

// Store defines keyword index persistence keyed by document id.
//
// Writers to the same document id are not synchronized here; the index
// manager serializes mutations per document id.
type Store interface {
	// Save persists the service's chunks and tokenized corpus under documentID.
	// Returns bm25.ErrNotIndexed if the service has no built index.
	Save(ctx context.Context, documentID string, svc *bm25.Service) error
	// Load restores the keyword index for documentID, rebuilding the ranking
	// structure from the stored corpus. Returns (nil, nil) when no record exists.
	Load(ctx context.Context, documentID string) (*bm25.Service, error)
	// Exists reports whether a record exists for documentID.
	Exists(ctx context.Context, documentID string) (bool, error)
	// Delete removes the record for documentID, reporting whether anything was
	// actually removed. Deleting an absent record is not an error.
	Delete(ctx context.Context, documentID string) (bool, error)
	// ListIndexes enumerates all stored document ids.
	ListIndexes(ctx context.Context) ([]string, error)
	Close() error
}

// indexRecord is the durable form of one document's keyword index.
type indexRecord struct {
	DocumentID      string
	Chunks          []models.Chunk
	TokenizedCorpus [][]string
}

// encodeRecord serializes the service state for documentID.
// Fails with bm25.ErrNotIndexed when the service has no built index.
func encodeRecord(documentID string, svc *bm25.Service) ([]byte, error) {
	if !svc.IsIndexed() {
		return nil, fmt.Errorf("save %q: %w", documentID, bm25.ErrNotIndexed)
	}
	rec := indexRecord{
		DocumentID:      documentID,
		Chunks:          svc.Chunks(),
		TokenizedCorpus: svc.TokenizedCorpus(),
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&rec); err != nil {
		return nil, fmt.Errorf("encode index record: %w", err)
	}
	return buf.Bytes(), nil
}

// decodeRecord deserializes a record and rebuilds the keyword index service
// from its tokenized corpus.
func decodeRecord(data []byte) (*bm25.Service, error) {
	var rec indexRecord
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&rec); err != nil {
		return nil, fmt.Errorf("decode index record: %w", err)
	}
	svc, err := bm25.Restore(rec.Chunks, rec.TokenizedCorpus)
	if err != nil {
		return nil, fmt.Errorf("rebuild index for %q: %w", rec.DocumentID, err)
	}
	return svc, nil
}
