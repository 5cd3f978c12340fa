// Package models defines core data structures for chunks, index requests, and retrieval results.
package models

// Chunk is a unit of retrievable text (a paragraph, table, or page fragment)
// with an id unique within its document and opaque metadata carried through
// from the ingestion pipeline.
type Chunk struct {
	ChunkID  string            `json:"chunk_id"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// CloneMetadata returns a copy of the chunk's metadata. Never returns nil.
func (c *Chunk) CloneMetadata() map[string]string {
	out := make(map[string]string, len(c.Metadata))
	for k, v := range c.Metadata {
		out[k] = v
	}
	return out
}
