// Package index keeps the vector store and the keyword index store consistent
// for each document, providing rollback-on-failure indexing, best-effort
// deletion, and reconciliation utilities.
package index

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hyperjump/awase/internal/bm25"
	"github.com/hyperjump/awase/internal/models"
	"github.com/hyperjump/awase/internal/storage"
	"github.com/hyperjump/awase/internal/vector"
)

// Manager orchestrates writes and deletes across the vector store and the
// keyword index store. Mutations for the same document id are serialized
// internally; different documents proceed in parallel.
type Manager struct {
	vector vector.Store
	store  storage.Store
	logger *zap.Logger
	locks  *docLocks
}

// NewManager creates an index manager over the two stores.
func NewManager(vectorStore vector.Store, keywordStore storage.Store, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		vector: vectorStore,
		store:  keywordStore,
		logger: logger,
		locks:  newDocLocks(),
	}
}

// IndexDocument writes the document's chunks to the vector store first, then
// builds and persists the keyword index. If the keyword write fails the
// vector write is rolled back, so the two stores never diverge: either both
// hold the document or neither does.
func (m *Manager) IndexDocument(ctx context.Context, req *models.IndexDocumentRequest) *models.IndexResult {
	result := &models.IndexResult{DocumentID: req.DocumentID}

	if len(req.Texts) == 0 {
		result.Error = "no texts provided for indexing"
		m.logger.Warn("index request has no texts", zap.String("document_id", req.DocumentID))
		return result
	}
	if len(req.ChunkIDs) != len(req.Texts) || len(req.Embeddings) != len(req.Texts) {
		result.Error = fmt.Sprintf("chunk_ids, texts, and embeddings must be index-aligned: %d/%d/%d",
			len(req.ChunkIDs), len(req.Texts), len(req.Embeddings))
		m.logger.Warn("index request is misaligned", zap.String("document_id", req.DocumentID))
		return result
	}

	release := m.locks.acquire(req.DocumentID)
	defer release()

	metadatas := prepareMetadatas(req)

	if err := m.vector.Add(ctx, req.Texts, req.Embeddings, metadatas, req.ChunkIDs); err != nil {
		result.Error = fmt.Sprintf("vector store indexing failed: %v", err)
		m.logger.Error("failed to index in vector store",
			zap.String("document_id", req.DocumentID),
			zap.Error(err))
		return result
	}
	result.VectorIndexed = true
	m.logger.Info("indexed document in vector store",
		zap.String("document_id", req.DocumentID),
		zap.Int("chunk_count", len(req.Texts)))

	if err := m.indexKeywordStore(ctx, req, metadatas); err != nil {
		m.logger.Error("keyword indexing failed, rolling back vector store",
			zap.String("document_id", req.DocumentID),
			zap.Error(err))
		m.rollbackVectorStore(ctx, req.DocumentID, req.UserID)
		result.VectorIndexed = false
		result.Error = fmt.Sprintf("keyword indexing failed (vector store rolled back): %v", err)
		return result
	}
	result.BM25Indexed = true
	m.logger.Info("indexed document in keyword store",
		zap.String("document_id", req.DocumentID),
		zap.Int("chunk_count", len(req.Texts)))

	result.Success = true
	return result
}

// DeleteDocument removes the document from both stores, continuing past
// failures and reporting each store independently. Idempotent: deleting an
// absent document succeeds with both flags false.
func (m *Manager) DeleteDocument(ctx context.Context, documentID, userID string) *models.DeleteResult {
	release := m.locks.acquire(documentID)
	defer release()

	result := &models.DeleteResult{DocumentID: documentID}
	var errs error

	if err := m.deleteFromVectorStore(ctx, documentID, userID); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("vector store deletion failed: %w", err))
		m.logger.Error("failed to delete from vector store",
			zap.String("document_id", documentID),
			zap.String("user_id", userID),
			zap.Error(err))
	} else {
		result.VectorDeleted = true
		m.logger.Info("deleted document from vector store",
			zap.String("document_id", documentID),
			zap.String("user_id", userID))
	}

	deleted, err := m.store.Delete(ctx, documentID)
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("keyword store deletion failed: %w", err))
		m.logger.Error("failed to delete from keyword store",
			zap.String("document_id", documentID),
			zap.Error(err))
	} else {
		result.BM25Deleted = deleted
		if deleted {
			m.logger.Info("deleted document from keyword store", zap.String("document_id", documentID))
		} else {
			m.logger.Debug("no keyword index found for document", zap.String("document_id", documentID))
		}
	}

	result.Success = result.VectorDeleted || result.BM25Deleted
	if errs != nil {
		result.Error = errs.Error()
	} else {
		// Nothing failed; an absent document still counts as a clean delete.
		result.Success = true
	}
	return result
}

// ConsistencyReport is a cheap read-only diagnostic. The vector store is not
// probed here because a presence check would require a full query; a separate
// reconciliation pass covers that side.
type ConsistencyReport struct {
	DocumentID string `json:"document_id"`
	BM25Exists bool   `json:"bm25_exists"`
}

// CheckConsistency reports the document's presence in the keyword store.
func (m *Manager) CheckConsistency(ctx context.Context, documentID string) (*ConsistencyReport, error) {
	exists, err := m.store.Exists(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("consistency check for %q: %w", documentID, err)
	}
	return &ConsistencyReport{DocumentID: documentID, BM25Exists: exists}, nil
}

// prepareMetadatas merges caller metadata with the injected user_id and
// document_id fields. The injected fields always win; everything else the
// caller supplied passes through untouched.
func prepareMetadatas(req *models.IndexDocumentRequest) []map[string]string {
	metadatas := make([]map[string]string, len(req.Texts))
	for i := range req.Texts {
		meta := make(map[string]string)
		if i < len(req.Metadatas) {
			for k, v := range req.Metadatas[i] {
				meta[k] = v
			}
		}
		meta["user_id"] = req.UserID
		meta["document_id"] = req.DocumentID
		metadatas[i] = meta
	}
	return metadatas
}

// indexKeywordStore builds a keyword index from the request's chunks and
// persists it under the document id.
func (m *Manager) indexKeywordStore(ctx context.Context, req *models.IndexDocumentRequest, metadatas []map[string]string) error {
	chunks := make([]models.Chunk, len(req.Texts))
	for i := range req.Texts {
		chunks[i] = models.Chunk{
			ChunkID:  req.ChunkIDs[i],
			Text:     req.Texts[i],
			Metadata: metadatas[i],
		}
	}
	svc := bm25.NewService()
	if err := svc.BuildIndex(chunks); err != nil {
		return err
	}
	return m.store.Save(ctx, req.DocumentID, svc)
}

// rollbackVectorStore undoes a vector write after a keyword failure. A failed
// rollback leaves an orphan that needs manual remediation, so it is logged at
// error level, but the original failure is what gets reported to the caller.
func (m *Manager) rollbackVectorStore(ctx context.Context, documentID, userID string) {
	if err := m.deleteFromVectorStore(ctx, documentID, userID); err != nil {
		m.logger.Error("failed to roll back vector store, manual cleanup required",
			zap.String("document_id", documentID),
			zap.String("user_id", userID),
			zap.Error(err))
		return
	}
	m.logger.Info("rolled back vector store",
		zap.String("document_id", documentID),
		zap.String("user_id", userID))
}

func (m *Manager) deleteFromVectorStore(ctx context.Context, documentID, userID string) error {
	return m.vector.Delete(ctx, map[string]string{
		"document_id": documentID,
		"user_id":     userID,
	})
}
