package index

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/hyperjump/awase/internal/bm25"
	"github.com/hyperjump/awase/internal/models"
	"github.com/hyperjump/awase/internal/vector"
)

// stubVectorStore wraps a MemoryStore with injectable failures and records
// every delete filter it receives.
type stubVectorStore struct {
	*vector.MemoryStore
	failAdd    bool
	failDelete bool

	mu            sync.Mutex
	deleteFilters []map[string]string
}

func newStubVectorStore(t *testing.T) *stubVectorStore {
	t.Helper()
	mem, err := vector.NewMemoryStore(3)
	if err != nil {
		t.Fatalf("create memory store: %v", err)
	}
	return &stubVectorStore{MemoryStore: mem}
}

func (s *stubVectorStore) Add(ctx context.Context, documents []string, embeddings [][]float32, metadatas []map[string]string, ids []string) error {
	if s.failAdd {
		return errors.New("vector store unavailable")
	}
	return s.MemoryStore.Add(ctx, documents, embeddings, metadatas, ids)
}

func (s *stubVectorStore) Delete(ctx context.Context, where map[string]string) error {
	s.mu.Lock()
	s.deleteFilters = append(s.deleteFilters, where)
	s.mu.Unlock()
	if s.failDelete {
		return errors.New("vector store unavailable")
	}
	return s.MemoryStore.Delete(ctx, where)
}

func (s *stubVectorStore) lastDeleteFilter() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.deleteFilters) == 0 {
		return nil
	}
	return s.deleteFilters[len(s.deleteFilters)-1]
}

// stubKeywordStore is an in-memory storage.Store with injectable failures.
type stubKeywordStore struct {
	failSave   bool
	failDelete bool

	mu      sync.Mutex
	records map[string]*bm25.Service
}

func newStubKeywordStore() *stubKeywordStore {
	return &stubKeywordStore{records: make(map[string]*bm25.Service)}
}

func (s *stubKeywordStore) Save(ctx context.Context, documentID string, svc *bm25.Service) error {
	if s.failSave {
		return errors.New("keyword store unavailable")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[documentID] = svc
	return nil
}

func (s *stubKeywordStore) Load(ctx context.Context, documentID string) (*bm25.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[documentID], nil
}

func (s *stubKeywordStore) Exists(ctx context.Context, documentID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.records[documentID]
	return ok, nil
}

func (s *stubKeywordStore) Delete(ctx context.Context, documentID string) (bool, error) {
	if s.failDelete {
		return false, errors.New("keyword store unavailable")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.records[documentID]
	delete(s.records, documentID)
	return ok, nil
}

func (s *stubKeywordStore) ListIndexes(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *stubKeywordStore) Close() error { return nil }

func indexRequest() *models.IndexDocumentRequest {
	return &models.IndexDocumentRequest{
		DocumentID: "doc1",
		UserID:     "u1",
		ChunkIDs:   []string{"c1", "c2"},
		Texts:      []string{"Bitcoin is a peer-to-peer currency", "Ethereum supports smart contracts"},
		Embeddings: [][]float32{{1, 0, 0}, {0, 1, 0}},
		Metadatas:  []map[string]string{{"section": "intro"}, nil},
	}
}

func TestIndexDocumentSuccess(t *testing.T) {
	ctx := context.Background()
	vec := newStubVectorStore(t)
	kw := newStubKeywordStore()
	mgr := NewManager(vec, kw, nil)

	result := mgr.IndexDocument(ctx, indexRequest())
	if !result.Success {
		t.Fatalf("expected success, got error %q", result.Error)
	}
	if !result.VectorIndexed || !result.BM25Indexed {
		t.Errorf("both flags should be set: vector=%v bm25=%v", result.VectorIndexed, result.BM25Indexed)
	}
	if vec.Size() != 2 {
		t.Errorf("vector store should hold 2 chunks, got %d", vec.Size())
	}
	exists, _ := kw.Exists(ctx, "doc1")
	if !exists {
		t.Error("keyword store should hold doc1")
	}

	// Injected metadata fields must be present on the stored vectors.
	results, err := vec.Query(ctx, []float32{1, 0, 0}, 1, nil)
	if err != nil || len(results) != 1 {
		t.Fatalf("query failed: %v", err)
	}
	meta := results[0].Metadata
	if meta["user_id"] != "u1" || meta["document_id"] != "doc1" {
		t.Errorf("missing injected metadata: %v", meta)
	}
	if meta["section"] != "intro" {
		t.Errorf("caller metadata should pass through: %v", meta)
	}
}

func TestIndexDocumentEmptyTexts(t *testing.T) {
	mgr := NewManager(newStubVectorStore(t), newStubKeywordStore(), nil)
	req := indexRequest()
	req.Texts = nil
	req.ChunkIDs = nil
	req.Embeddings = nil

	result := mgr.IndexDocument(context.Background(), req)
	if result.Success {
		t.Fatal("empty request should fail")
	}
	if result.VectorIndexed || result.BM25Indexed {
		t.Error("no store should have been touched")
	}
}

func TestIndexDocumentMisaligned(t *testing.T) {
	mgr := NewManager(newStubVectorStore(t), newStubKeywordStore(), nil)
	req := indexRequest()
	req.Embeddings = req.Embeddings[:1]

	result := mgr.IndexDocument(context.Background(), req)
	if result.Success {
		t.Fatal("misaligned request should fail")
	}
}

func TestIndexDocumentVectorFailure(t *testing.T) {
	ctx := context.Background()
	vec := newStubVectorStore(t)
	vec.failAdd = true
	kw := newStubKeywordStore()
	mgr := NewManager(vec, kw, nil)

	result := mgr.IndexDocument(ctx, indexRequest())
	if result.Success || result.VectorIndexed || result.BM25Indexed {
		t.Fatalf("expected total failure, got %+v", result)
	}
	exists, _ := kw.Exists(ctx, "doc1")
	if exists {
		t.Error("keyword store must not be written when the vector write fails")
	}
}

func TestIndexDocumentKeywordFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	vec := newStubVectorStore(t)
	kw := newStubKeywordStore()
	kw.failSave = true
	mgr := NewManager(vec, kw, nil)

	result := mgr.IndexDocument(ctx, indexRequest())
	if result.Success {
		t.Fatal("expected failure")
	}
	if result.VectorIndexed || result.BM25Indexed {
		t.Errorf("no flag should survive a rollback: %+v", result)
	}
	if vec.Size() != 0 {
		t.Errorf("vector store should be rolled back, holds %d entries", vec.Size())
	}
	filter := vec.lastDeleteFilter()
	if filter["document_id"] != "doc1" || filter["user_id"] != "u1" {
		t.Errorf("rollback delete should be scoped to the document and user, got %v", filter)
	}
	if !strings.Contains(result.Error, "rolled back") {
		t.Errorf("error should mention the rollback: %q", result.Error)
	}
}

func TestDeleteDocumentBothStores(t *testing.T) {
	ctx := context.Background()
	vec := newStubVectorStore(t)
	kw := newStubKeywordStore()
	mgr := NewManager(vec, kw, nil)

	if result := mgr.IndexDocument(ctx, indexRequest()); !result.Success {
		t.Fatalf("index failed: %q", result.Error)
	}
	result := mgr.DeleteDocument(ctx, "doc1", "u1")
	if !result.Success {
		t.Fatalf("delete failed: %q", result.Error)
	}
	if !result.VectorDeleted || !result.BM25Deleted {
		t.Errorf("both stores should report deletion: %+v", result)
	}
	if vec.Size() != 0 {
		t.Errorf("vector store should be empty, holds %d", vec.Size())
	}
}

func TestDeleteDocumentAbsentIsClean(t *testing.T) {
	mgr := NewManager(newStubVectorStore(t), newStubKeywordStore(), nil)
	result := mgr.DeleteDocument(context.Background(), "ghost", "u1")
	if !result.Success {
		t.Errorf("deleting an absent document should succeed: %q", result.Error)
	}
	if result.BM25Deleted {
		t.Error("nothing was present to delete")
	}
}

func TestDeleteDocumentPartialFailure(t *testing.T) {
	ctx := context.Background()
	vec := newStubVectorStore(t)
	vec.failDelete = true
	kw := newStubKeywordStore()
	mgr := NewManager(vec, kw, nil)

	// Seed only the keyword side so the surviving delete has work to do.
	svc := bm25.NewService()
	if err := svc.BuildIndex([]models.Chunk{{ChunkID: "c1", Text: "some indexed text"}}); err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if err := kw.Save(ctx, "doc1", svc); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	result := mgr.DeleteDocument(ctx, "doc1", "u1")
	if !result.Success {
		t.Error("partial deletion still counts as success")
	}
	if result.VectorDeleted {
		t.Error("vector deletion should be reported as failed")
	}
	if !result.BM25Deleted {
		t.Error("keyword deletion should have proceeded despite the vector failure")
	}
	if result.Error == "" {
		t.Error("the vector failure should be surfaced in the error field")
	}
}

func TestDeleteDocumentBothFail(t *testing.T) {
	vec := newStubVectorStore(t)
	vec.failDelete = true
	kw := newStubKeywordStore()
	kw.failDelete = true
	mgr := NewManager(vec, kw, nil)

	result := mgr.DeleteDocument(context.Background(), "doc1", "u1")
	if result.Success {
		t.Error("delete should fail when both stores fail")
	}
	if result.Error == "" {
		t.Error("both failures should be reported")
	}
}

func TestCheckConsistency(t *testing.T) {
	ctx := context.Background()
	kw := newStubKeywordStore()
	mgr := NewManager(newStubVectorStore(t), kw, nil)

	report, err := mgr.CheckConsistency(ctx, "doc1")
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if report.BM25Exists {
		t.Error("doc1 should not exist yet")
	}

	if result := mgr.IndexDocument(ctx, indexRequest()); !result.Success {
		t.Fatalf("index failed: %q", result.Error)
	}
	report, err = mgr.CheckConsistency(ctx, "doc1")
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if !report.BM25Exists {
		t.Error("doc1 should exist after indexing")
	}
}
