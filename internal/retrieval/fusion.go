// Package retrieval provides hybrid (vector + keyword) retrieval with
// weighted Reciprocal Rank Fusion.
package retrieval

import (
	"sort"

	"github.com/hyperjump/awase/internal/models"
)

// fuseRRF merges the two ranked lists with weighted Reciprocal Rank Fusion:
// every chunk gets weight * 1/(rrfK + rank) per list it appears in, ranks
// 1-based by position in that list. Text and metadata come from whichever
// list populated the chunk first. The output is sorted by fused score
// descending with a stable insertion-order tie-break.
func fuseRRF(vectorResults, bm25Results []*models.RetrievalResult, vectorWeight, bm25Weight float64, rrfK int) []*models.RetrievalResult {
	merged := make(map[string]*models.RetrievalResult)
	var order []string

	for rank, r := range vectorResults {
		score := vectorWeight * (1.0 / float64(rrfK+rank+1))
		if entry, ok := merged[r.ChunkID]; ok {
			entry.VectorScore = r.VectorScore
			entry.FusedScore += score
			continue
		}
		merged[r.ChunkID] = &models.RetrievalResult{
			ChunkID:     r.ChunkID,
			Text:        r.Text,
			Metadata:    r.Metadata,
			VectorScore: r.VectorScore,
			FusedScore:  score,
		}
		order = append(order, r.ChunkID)
	}

	for rank, r := range bm25Results {
		score := bm25Weight * (1.0 / float64(rrfK+rank+1))
		if entry, ok := merged[r.ChunkID]; ok {
			entry.BM25Score = r.BM25Score
			entry.FusedScore += score
			continue
		}
		merged[r.ChunkID] = &models.RetrievalResult{
			ChunkID:    r.ChunkID,
			Text:       r.Text,
			Metadata:   r.Metadata,
			BM25Score:  r.BM25Score,
			FusedScore: score,
		}
		order = append(order, r.ChunkID)
	}

	fused := make([]*models.RetrievalResult, 0, len(order))
	for _, id := range order {
		fused = append(fused, merged[id])
	}
	sort.SliceStable(fused, func(i, j int) bool { return fused[i].FusedScore > fused[j].FusedScore })
	return fused
}
