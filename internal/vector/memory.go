package vector

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore is an in-memory vector store using brute-force squared-L2
// search. Suitable for tests and small single-node deployments.
type MemoryStore struct {
	dimensions int
	mu         sync.RWMutex
	entries    []memoryEntry
}

type memoryEntry struct {
	id       string
	document string
	metadata map[string]string
	vector   []float32
}

// NewMemoryStore creates an in-memory vector store with the given dimension.
func NewMemoryStore(dimensions int) (*MemoryStore, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	return &MemoryStore{dimensions: dimensions}, nil
}

// Add appends documents with their embeddings and metadata. All slices must
// be index-aligned. An id already present is overwritten.
func (m *MemoryStore) Add(ctx context.Context, documents []string, embeddings [][]float32, metadatas []map[string]string, ids []string) error {
	if len(ids) != len(documents) || len(ids) != len(embeddings) || len(ids) != len(metadatas) {
		return fmt.Errorf("documents, embeddings, metadatas, and ids length mismatch")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, id := range ids {
		if len(embeddings[i]) != m.dimensions {
			return fmt.Errorf("vector dimension mismatch: got %d, expected %d", len(embeddings[i]), m.dimensions)
		}
		vec := make([]float32, m.dimensions)
		copy(vec, embeddings[i])
		meta := make(map[string]string, len(metadatas[i]))
		for k, v := range metadatas[i] {
			meta[k] = v
		}
		entry := memoryEntry{id: id, document: documents[i], metadata: meta, vector: vec}
		if j := m.indexOf(id); j >= 0 {
			m.entries[j] = entry
		} else {
			m.entries = append(m.entries, entry)
		}
	}
	return nil
}

// indexOf must be called with the lock held.
func (m *MemoryStore) indexOf(id string) int {
	for i, e := range m.entries {
		if e.id == id {
			return i
		}
	}
	return -1
}

func matches(metadata, where map[string]string) bool {
	for k, v := range where {
		if metadata[k] != v {
			return false
		}
	}
	return true
}

// Query returns the nResults entries matching the where filter closest to the
// query embedding by squared Euclidean distance, ascending.
func (m *MemoryStore) Query(ctx context.Context, queryEmbedding []float32, nResults int, where map[string]string) ([]*QueryResult, error) {
	if len(queryEmbedding) != m.dimensions {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(queryEmbedding), m.dimensions)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if nResults <= 0 {
		return nil, nil
	}
	results := make([]*QueryResult, 0)
	for _, e := range m.entries {
		if !matches(e.metadata, where) {
			continue
		}
		var dist float64
		for j := 0; j < m.dimensions; j++ {
			d := float64(queryEmbedding[j] - e.vector[j])
			dist += d * d
		}
		meta := make(map[string]string, len(e.metadata))
		for k, v := range e.metadata {
			meta[k] = v
		}
		results = append(results, &QueryResult{
			ID:       e.id,
			Document: e.document,
			Metadata: meta,
			Distance: dist,
		})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Distance < results[j].Distance })
	if nResults < len(results) {
		results = results[:nResults]
	}
	return results, nil
}

// Delete removes every entry whose metadata matches the where filter.
// An empty filter is rejected to avoid wiping the store by accident.
func (m *MemoryStore) Delete(ctx context.Context, where map[string]string) error {
	if len(where) == 0 {
		return fmt.Errorf("delete requires a non-empty filter")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.entries[:0]
	for _, e := range m.entries {
		if !matches(e.metadata, where) {
			kept = append(kept, e)
		}
	}
	m.entries = kept
	return nil
}

// ListDocumentIDs returns the distinct document_id metadata values present.
func (m *MemoryStore) ListDocumentIDs(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := make(map[string]bool)
	var ids []string
	for _, e := range m.entries {
		id := e.metadata["document_id"]
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Size returns the number of stored vectors.
func (m *MemoryStore) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Close is a no-op for MemoryStore.
func (m *MemoryStore) Close() error {
	return nil
}
