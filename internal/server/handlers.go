package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/awase/internal/models"
	"github.com/hyperjump/awase/internal/storage"
)

// indexRequest is the JSON body for the index endpoint. Chunk ids are
// generated when absent.
type indexRequest struct {
	UserID     string              `json:"user_id"`
	ChunkIDs   []string            `json:"chunk_ids,omitempty"`
	Texts      []string            `json:"texts"`
	Embeddings [][]float32         `json:"embeddings"`
	Metadatas  []map[string]string `json:"metadatas,omitempty"`
}

// searchRequest is the JSON body for the search endpoint. The embedding for
// the query is computed by the caller; embedding generation is not part of
// this service.
type searchRequest struct {
	Query      string    `json:"query"`
	DocumentID string    `json:"document_id"`
	UserID     string    `json:"user_id"`
	Embedding  []float32 `json:"embedding"`
	K          int       `json:"k,omitempty"`
}

type searchResponse struct {
	Query   string                    `json:"query"`
	Results []*models.RetrievalResult `json:"results"`
	Total   int                       `json:"total"`
}

func (s *Server) handleIndexDocument(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "id")
	var req indexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" {
		s.respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	chunkIDs := req.ChunkIDs
	if len(chunkIDs) == 0 {
		chunkIDs = make([]string, len(req.Texts))
		for i := range chunkIDs {
			chunkIDs[i] = uuid.NewString()
		}
	}
	s.logger.Debug("index document request",
		zap.String("document_id", documentID),
		zap.Int("chunks", len(req.Texts)))

	result := s.manager.IndexDocument(r.Context(), &models.IndexDocumentRequest{
		DocumentID: documentID,
		UserID:     req.UserID,
		ChunkIDs:   chunkIDs,
		Texts:      req.Texts,
		Embeddings: req.Embeddings,
		Metadatas:  req.Metadatas,
	})
	status := http.StatusCreated
	if !result.Success {
		status = http.StatusUnprocessableEntity
	}
	s.respondJSON(w, status, result)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.DocumentID == "" || req.UserID == "" {
		s.respondError(w, http.StatusBadRequest, "document_id and user_id are required")
		return
	}
	k := req.K
	if k <= 0 {
		k = s.config.Retrieval.DefaultK
	}
	if k > s.config.Retrieval.MaxK {
		k = s.config.Retrieval.MaxK
	}
	s.logger.Debug("search request",
		zap.String("document_id", req.DocumentID),
		zap.String("query", req.Query),
		zap.Int("k", k))

	results := s.retriever.Search(r.Context(), req.Query, req.DocumentID, req.UserID, req.Embedding, k)
	if results == nil {
		results = []*models.RetrievalResult{}
	}
	s.respondJSON(w, http.StatusOK, searchResponse{
		Query:   req.Query,
		Results: results,
		Total:   len(results),
	})
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "id")
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		s.respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	s.logger.Debug("delete document request", zap.String("document_id", documentID))
	result := s.manager.DeleteDocument(r.Context(), documentID, userID)
	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleConsistency(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "id")
	report, err := s.manager.CheckConsistency(r.Context(), documentID)
	if err != nil {
		s.logger.Error("consistency check failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, report)
}

func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	remove := r.URL.Query().Get("remove_orphans") == "true"
	report, err := s.manager.ReconcileFromStore(r.Context(), remove)
	if err != nil {
		s.logger.Error("reconciliation failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, report)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ids, err := s.store.ListIndexes(r.Context())
	if err != nil {
		s.logger.Error("status: list indexes failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := map[string]interface{}{
		"keyword_indexes": len(ids),
		"config": map[string]interface{}{
			"keyword_backend": s.config.Storage.KeywordBackend,
			"vector_backend":  s.config.Vector.Backend,
			"vector_weight":   s.config.Retrieval.VectorWeight,
			"bm25_weight":     s.config.Retrieval.BM25Weight,
			"rrf_k":           s.config.Retrieval.RRFK,
		},
	}
	diskBytes, err := storage.DiskUsageBytes(s.config.Storage.IndexDir, s.config.Storage.DatabasePath)
	if err != nil {
		s.logger.Warn("status: disk usage unavailable", zap.Error(err))
	} else {
		resp["disk_usage_bytes"] = diskBytes
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
