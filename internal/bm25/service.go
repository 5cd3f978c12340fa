package bm25

import (
	"errors"
	"fmt"
	"sort"

	"github.com/hyperjump/awase/internal/models"
	"github.com/hyperjump/awase/internal/tokenizer"
)

// Sentinel errors for the two misuse conditions callers can hit.
var (
	// ErrEmptyChunks is returned when BuildIndex is called with no chunks.
	ErrEmptyChunks = errors.New("bm25: cannot build index from empty chunk list")
	// ErrNotIndexed is returned when Search or persistence runs before BuildIndex.
	ErrNotIndexed = errors.New("bm25: no index has been built")
)

// SearchResult is a single keyword search hit.
type SearchResult struct {
	ChunkID  string
	Text     string
	Score    float64
	Metadata map[string]string
}

// Service holds the keyword index for one document: the chunk list, the
// tokenized corpus (index-aligned with the chunks), and the derived BM25
// structure. Only chunks and corpus are ever persisted; the index is rebuilt
// from the corpus on every load.
type Service struct {
	index  *Index
	chunks []models.Chunk
	corpus [][]string
}

// NewService returns an empty keyword index service.
func NewService() *Service {
	return &Service{}
}

// IsIndexed reports whether an index has been built.
func (s *Service) IsIndexed() bool {
	return s.index != nil
}

// ChunkCount returns the number of indexed chunks.
func (s *Service) ChunkCount() int {
	return len(s.chunks)
}

// BuildIndex tokenizes every chunk's text in order and constructs the BM25
// ranking structure. Rebuilding overwrites any prior state.
func (s *Service) BuildIndex(chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return ErrEmptyChunks
	}
	corpus := make([][]string, len(chunks))
	for i, chunk := range chunks {
		corpus[i] = tokenizer.Tokenize(chunk.Text)
	}
	s.chunks = append([]models.Chunk(nil), chunks...)
	s.corpus = corpus
	s.index = NewIndex(corpus)
	return nil
}

// Restore reconstructs a service from a persisted chunk list and tokenized
// corpus without re-tokenizing, rebuilding the ranking structure from the
// corpus. The two slices must be index-aligned.
func Restore(chunks []models.Chunk, corpus [][]string) (*Service, error) {
	if len(chunks) != len(corpus) {
		return nil, fmt.Errorf("bm25: chunk/corpus length mismatch: %d vs %d", len(chunks), len(corpus))
	}
	if len(chunks) == 0 {
		return nil, ErrEmptyChunks
	}
	return &Service{
		index:  NewIndex(corpus),
		chunks: chunks,
		corpus: corpus,
	}, nil
}

// Search tokenizes the query with the same tokenizer used at build time,
// scores every chunk, keeps scores strictly above scoreThreshold, and returns
// the top k sorted by score descending. Ties retain original chunk order.
// An empty or whitespace-only query returns no results.
func (s *Service) Search(query string, k int, scoreThreshold float64) ([]SearchResult, error) {
	if !s.IsIndexed() {
		return nil, ErrNotIndexed
	}
	queryTokens := tokenizer.Tokenize(query)
	if len(queryTokens) == 0 {
		return nil, nil
	}

	scores := s.index.Scores(queryTokens)
	type scored struct {
		idx   int
		score float64
	}
	hits := make([]scored, 0, len(scores))
	for i, score := range scores {
		if score > scoreThreshold {
			hits = append(hits, scored{idx: i, score: score})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	if k >= 0 && k < len(hits) {
		hits = hits[:k]
	}

	results := make([]SearchResult, 0, len(hits))
	for _, h := range hits {
		chunk := s.chunks[h.idx]
		results = append(results, SearchResult{
			ChunkID:  chunk.ChunkID,
			Text:     chunk.Text,
			Score:    h.score,
			Metadata: chunk.Metadata,
		})
	}
	return results, nil
}

// Chunks returns a copy of the indexed chunk list, for persistence. Metadata
// maps are cloned so callers cannot mutate indexed state.
func (s *Service) Chunks() []models.Chunk {
	out := append([]models.Chunk(nil), s.chunks...)
	for i := range out {
		out[i].Metadata = out[i].CloneMetadata()
	}
	return out
}

// TokenizedCorpus returns a copy of the tokenized corpus, for persistence.
func (s *Service) TokenizedCorpus() [][]string {
	out := make([][]string, len(s.corpus))
	for i, doc := range s.corpus {
		out[i] = append([]string(nil), doc...)
	}
	return out
}

// Clear drops the index and all stored data, returning the service to the
// empty state.
func (s *Service) Clear() {
	s.index = nil
	s.chunks = nil
	s.corpus = nil
}
