package models

// RetrievalResult is a single hybrid search hit. VectorScore and BM25Score are
// nil when the chunk was not found by the corresponding method; FusedScore is
// the combined RRF score (or the method's own score before fusion).
type RetrievalResult struct {
	ChunkID     string            `json:"chunk_id"`
	Text        string            `json:"text"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	VectorScore *float64          `json:"vector_score,omitempty"`
	BM25Score   *float64          `json:"bm25_score,omitempty"`
	FusedScore  float64           `json:"fused_score"`
}

// IndexDocumentRequest carries everything needed to index one document's
// chunks into both stores. Embeddings are precomputed by the caller and are
// index-aligned with ChunkIDs and Texts.
type IndexDocumentRequest struct {
	DocumentID string              `json:"document_id"`
	UserID     string              `json:"user_id"`
	ChunkIDs   []string            `json:"chunk_ids"`
	Texts      []string            `json:"texts"`
	Embeddings [][]float32         `json:"embeddings"`
	Metadatas  []map[string]string `json:"metadatas,omitempty"`
}

// IndexResult reports the outcome of an indexing operation. Callers must
// inspect VectorIndexed and BM25Indexed individually: after a rollback both
// are false even though the vector write initially succeeded.
type IndexResult struct {
	Success       bool   `json:"success"`
	DocumentID    string `json:"document_id"`
	VectorIndexed bool   `json:"vector_indexed"`
	BM25Indexed   bool   `json:"bm25_indexed"`
	Error         string `json:"error,omitempty"`
}

// DeleteResult reports the outcome of a delete operation per store.
// Success is true when at least one store removed the document, and also when
// the document was absent from both (deletion is idempotent).
type DeleteResult struct {
	Success       bool   `json:"success"`
	DocumentID    string `json:"document_id"`
	VectorDeleted bool   `json:"vector_deleted"`
	BM25Deleted   bool   `json:"bm25_deleted"`
	Error         string `json:"error,omitempty"`
}
