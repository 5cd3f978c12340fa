package retrieval

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/awase/internal/models"
	"github.com/hyperjump/awase/internal/storage"
	"github.com/hyperjump/awase/internal/vector"
)

// ErrWeightOutOfRange is returned when a fusion weight falls outside [0, 1].
var ErrWeightOutOfRange = errors.New("retrieval: fusion weight must be between 0.0 and 1.0")

// Config holds the fusion parameters for one retriever instance. Retrievers
// with different weights can coexist; there is no process-wide state.
type Config struct {
	// VectorWeight scales the vector list's RRF contribution. Must be in [0, 1].
	VectorWeight float64
	// BM25Weight scales the keyword list's RRF contribution. Must be in [0, 1].
	BM25Weight float64
	// RRFK is the rank-smoothing constant; 0 means the default of 60.
	RRFK int
}

// DefaultConfig returns the standard 0.7/0.3 weighting with rrf_k=60.
func DefaultConfig() Config {
	return Config{VectorWeight: 0.7, BM25Weight: 0.3, RRFK: 60}
}

// Validate checks the weight ranges.
func (c Config) Validate() error {
	if c.VectorWeight < 0 || c.VectorWeight > 1 {
		return fmt.Errorf("vector weight %g: %w", c.VectorWeight, ErrWeightOutOfRange)
	}
	if c.BM25Weight < 0 || c.BM25Weight > 1 {
		return fmt.Errorf("bm25 weight %g: %w", c.BM25Weight, ErrWeightOutOfRange)
	}
	return nil
}

// Retriever answers queries against one document by fusing vector and
// keyword rankings. Failures on either side degrade to zero results from
// that side; the retriever always returns a best-effort ranked list.
type Retriever struct {
	vector vector.Store
	store  storage.Store
	cfg    Config
	logger *zap.Logger
}

// NewRetriever creates a hybrid retriever. The config weights are validated
// on construction.
func NewRetriever(vectorStore vector.Store, keywordStore storage.Store, cfg Config, logger *zap.Logger) (*Retriever, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.RRFK <= 0 {
		cfg.RRFK = 60
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retriever{
		vector: vectorStore,
		store:  keywordStore,
		cfg:    cfg,
		logger: logger,
	}, nil
}

// Search returns the top k chunks for the query within one document. Both
// sides are asked for 2k candidates; when the keyword side yields nothing
// (missing index, empty result, or error) the top k vector results are
// returned directly with no fusion.
func (r *Retriever) Search(ctx context.Context, query, documentID, userID string, queryEmbedding []float32, k int) []*models.RetrievalResult {
	if k <= 0 {
		return nil
	}

	vectorResults := r.vectorSearch(ctx, queryEmbedding, documentID, userID, k*2)
	bm25Results := r.bm25Search(ctx, query, documentID, k*2)

	if len(bm25Results) == 0 {
		r.logger.Info("keyword search returned no results, falling back to vector-only",
			zap.String("document_id", documentID))
		if k > len(vectorResults) {
			k = len(vectorResults)
		}
		return vectorResults[:k]
	}

	fused := fuseRRF(vectorResults, bm25Results, r.cfg.VectorWeight, r.cfg.BM25Weight, r.cfg.RRFK)
	if k > len(fused) {
		k = len(fused)
	}
	return fused[:k]
}

// vectorSearch queries the vector store scoped to the user and document,
// converting each distance d to the similarity score 1/(1+d). Errors are
// logged and downgraded to zero results.
func (r *Retriever) vectorSearch(ctx context.Context, queryEmbedding []float32, documentID, userID string, k int) []*models.RetrievalResult {
	hits, err := r.vector.Query(ctx, queryEmbedding, k, map[string]string{
		"user_id":     userID,
		"document_id": documentID,
	})
	if err != nil {
		r.logger.Error("vector search failed",
			zap.String("document_id", documentID),
			zap.Error(err))
		return nil
	}
	results := make([]*models.RetrievalResult, 0, len(hits))
	for _, hit := range hits {
		score := 1.0 / (1.0 + hit.Distance)
		results = append(results, &models.RetrievalResult{
			ChunkID:     hit.ID,
			Text:        hit.Document,
			Metadata:    hit.Metadata,
			VectorScore: &score,
			FusedScore:  score,
		})
	}
	return results
}

// bm25Search loads the document's keyword index and runs the query against
// it. A missing index or a search failure is logged and downgraded to zero
// results, which triggers the vector-only fallback upstream.
func (r *Retriever) bm25Search(ctx context.Context, query, documentID string, k int) []*models.RetrievalResult {
	svc, err := r.store.Load(ctx, documentID)
	if err != nil {
		r.logger.Error("keyword index load failed",
			zap.String("document_id", documentID),
			zap.Error(err))
		return nil
	}
	if svc == nil {
		r.logger.Warn("no keyword index found for document",
			zap.String("document_id", documentID))
		return nil
	}
	hits, err := svc.Search(query, k, 0)
	if err != nil {
		r.logger.Error("keyword search failed",
			zap.String("document_id", documentID),
			zap.Error(err))
		return nil
	}
	results := make([]*models.RetrievalResult, 0, len(hits))
	for _, hit := range hits {
		score := hit.Score
		results = append(results, &models.RetrievalResult{
			ChunkID:    hit.ChunkID,
			Text:       hit.Text,
			Metadata:   hit.Metadata,
			BM25Score:  &score,
			FusedScore: score,
		})
	}
	return results
}
