package retrieval

import (
	"math"
	"testing"

	"github.com/hyperjump/awase/internal/models"
)

func ranked(ids ...string) []*models.RetrievalResult {
	results := make([]*models.RetrievalResult, len(ids))
	for i, id := range ids {
		results[i] = &models.RetrievalResult{ChunkID: id, Text: "text " + id}
	}
	return results
}

func TestFuseRRFUnion(t *testing.T) {
	fused := fuseRRF(ranked("a", "b"), ranked("b", "c"), 0.7, 0.3, 60)
	if len(fused) != 3 {
		t.Fatalf("fusion should return the union of both lists, got %d results", len(fused))
	}
	seen := make(map[string]bool)
	for _, r := range fused {
		seen[r.ChunkID] = true
	}
	for _, id := range []string{"a", "b", "c"} {
		if !seen[id] {
			t.Errorf("missing chunk %q", id)
		}
	}
}

func TestFuseRRFFormula(t *testing.T) {
	fused := fuseRRF(ranked("a", "b"), ranked("b", "c"), 0.7, 0.3, 60)
	want := map[string]float64{
		"a": 0.7 / 61,
		"b": 0.7/62 + 0.3/61,
		"c": 0.3 / 62,
	}
	for _, r := range fused {
		if math.Abs(r.FusedScore-want[r.ChunkID]) > 1e-9 {
			t.Errorf("chunk %q: fused score %v, want %v", r.ChunkID, r.FusedScore, want[r.ChunkID])
		}
	}
	if fused[0].ChunkID != "b" {
		t.Errorf("chunk in both lists should rank first, got %q", fused[0].ChunkID)
	}
}

func TestFuseRRFWeightsDecideWinner(t *testing.T) {
	vectorList := ranked("c2", "c1")
	keywordList := ranked("c1", "c2")

	fused := fuseRRF(vectorList, keywordList, 0.9, 0.1, 60)
	if fused[0].ChunkID != "c2" {
		t.Errorf("vector-heavy weights should favor the vector ranking, got %q", fused[0].ChunkID)
	}

	fused = fuseRRF(vectorList, keywordList, 0.1, 0.9, 60)
	if fused[0].ChunkID != "c1" {
		t.Errorf("keyword-heavy weights should favor the keyword ranking, got %q", fused[0].ChunkID)
	}
}

func TestFuseRRFZeroWeightSilencesList(t *testing.T) {
	fused := fuseRRF(ranked("a"), ranked("b"), 1, 0, 60)
	if len(fused) != 2 {
		t.Fatalf("expected 2 results, got %d", len(fused))
	}
	if fused[0].ChunkID != "a" {
		t.Errorf("only the vector list should contribute score, got %q first", fused[0].ChunkID)
	}
	if fused[1].FusedScore != 0 {
		t.Errorf("zero-weighted list should contribute a zero score, got %v", fused[1].FusedScore)
	}
}

func TestFuseRRFKeepsComponentScores(t *testing.T) {
	vscore := 0.8
	kscore := 2.5
	vectorList := []*models.RetrievalResult{{ChunkID: "a", Text: "from vector", VectorScore: &vscore}}
	keywordList := []*models.RetrievalResult{{ChunkID: "a", Text: "from keyword", BM25Score: &kscore}}

	fused := fuseRRF(vectorList, keywordList, 0.7, 0.3, 60)
	if len(fused) != 1 {
		t.Fatalf("expected 1 result, got %d", len(fused))
	}
	r := fused[0]
	if r.VectorScore == nil || *r.VectorScore != vscore {
		t.Errorf("vector score lost: %v", r.VectorScore)
	}
	if r.BM25Score == nil || *r.BM25Score != kscore {
		t.Errorf("bm25 score lost: %v", r.BM25Score)
	}
	if r.Text != "from vector" {
		t.Errorf("text should come from the first list that saw the chunk, got %q", r.Text)
	}
}

func TestFuseRRFStableTies(t *testing.T) {
	// Disjoint lists with equal weights: a and c tie, b and d tie. Ties keep
	// insertion order, vector list first.
	fused := fuseRRF(ranked("a", "b"), ranked("c", "d"), 0.5, 0.5, 60)
	wantOrder := []string{"a", "c", "b", "d"}
	for i, want := range wantOrder {
		if fused[i].ChunkID != want {
			t.Errorf("fused[%d] = %q, want %q", i, fused[i].ChunkID, want)
		}
	}
}

func TestFuseRRFEmptyInputs(t *testing.T) {
	if fused := fuseRRF(nil, nil, 0.7, 0.3, 60); len(fused) != 0 {
		t.Errorf("fusing two empty lists should be empty, got %d", len(fused))
	}
	fused := fuseRRF(ranked("a"), nil, 0.7, 0.3, 60)
	if len(fused) != 1 || fused[0].ChunkID != "a" {
		t.Errorf("one-sided fusion should pass the list through, got %v", fused)
	}
}
