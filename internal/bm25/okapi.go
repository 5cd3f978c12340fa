// Package bm25 implements Okapi BM25 keyword ranking over tokenized chunks.
//
// The ranking structure is a pure function of the tokenized corpus: rebuilding
// from the same token lists always produces scoring-equivalent results, which
// is what allows the persistence layer to store only chunks and token lists
// and reconstruct the index on every load.
package bm25

import "math"

// Standard Okapi constants: K1 controls term-frequency saturation, B controls
// document-length normalization, Epsilon floors negative IDF values.
const (
	DefaultK1      = 1.5
	DefaultB       = 0.75
	DefaultEpsilon = 0.25
)

// Index is an Okapi BM25 ranking structure built from a tokenized corpus.
type Index struct {
	k1         float64
	b          float64
	corpusSize int
	avgDocLen  float64
	docLens    []float64
	termFreqs  []map[string]int
	idf        map[string]float64
}

// NewIndex builds a BM25 index from the tokenized corpus using the standard
// constants. The corpus order defines the internal document ids; callers must
// keep it index-aligned with their chunk list.
func NewIndex(corpus [][]string) *Index {
	return NewIndexWithParams(corpus, DefaultK1, DefaultB, DefaultEpsilon)
}

// NewIndexWithParams builds a BM25 index with explicit k1/b/epsilon.
func NewIndexWithParams(corpus [][]string, k1, b, epsilon float64) *Index {
	idx := &Index{
		k1:         k1,
		b:          b,
		corpusSize: len(corpus),
		docLens:    make([]float64, len(corpus)),
		termFreqs:  make([]map[string]int, len(corpus)),
		idf:        make(map[string]float64),
	}

	docFreq := make(map[string]int)
	var totalLen float64
	for i, doc := range corpus {
		idx.docLens[i] = float64(len(doc))
		totalLen += float64(len(doc))
		freqs := make(map[string]int, len(doc))
		for _, tok := range doc {
			freqs[tok]++
		}
		idx.termFreqs[i] = freqs
		for tok := range freqs {
			docFreq[tok]++
		}
	}
	if idx.corpusSize > 0 {
		idx.avgDocLen = totalLen / float64(idx.corpusSize)
	}
	if idx.avgDocLen == 0 {
		// All-empty corpus; avoid division by zero, every score is 0 anyway.
		idx.avgDocLen = 1
	}

	// Okapi IDF with the rank-BM25 negative-IDF correction: terms appearing
	// in more than half the corpus get epsilon * average IDF instead of a
	// negative value.
	var idfSum float64
	var negative []string
	n := float64(idx.corpusSize)
	for tok, freq := range docFreq {
		v := math.Log((n - float64(freq) + 0.5) / (float64(freq) + 0.5))
		idx.idf[tok] = v
		idfSum += v
		if v < 0 {
			negative = append(negative, tok)
		}
	}
	if len(docFreq) > 0 {
		avgIDF := idfSum / float64(len(docFreq))
		floor := epsilon * avgIDF
		for _, tok := range negative {
			idx.idf[tok] = floor
		}
	}
	return idx
}

// Size returns the number of documents in the index.
func (idx *Index) Size() int {
	return idx.corpusSize
}

// Scores returns the BM25 score of every document for the query tokens, in
// corpus order. Unknown terms contribute nothing.
func (idx *Index) Scores(queryTokens []string) []float64 {
	scores := make([]float64, idx.corpusSize)
	for _, tok := range queryTokens {
		idfVal, ok := idx.idf[tok]
		if !ok {
			continue
		}
		for i := 0; i < idx.corpusSize; i++ {
			tf := float64(idx.termFreqs[i][tok])
			if tf == 0 {
				continue
			}
			norm := 1 - idx.b + idx.b*idx.docLens[i]/idx.avgDocLen
			scores[i] += idfVal * tf * (idx.k1 + 1) / (tf + idx.k1*norm)
		}
	}
	return scores
}
