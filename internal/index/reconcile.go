package index

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/hyperjump/awase/internal/vector"
)

// ReconcileReport lists the differences between the two stores' document id
// sets after a reconciliation pass.
type ReconcileReport struct {
	// InBoth holds ids present in both stores.
	InBoth []string `json:"in_both"`
	// VectorOnly holds ids present only in the vector store. These are never
	// auto-removed: the vector store is treated as the source of truth, and
	// retrieval degrades gracefully to vector-only when keyword coverage is
	// missing.
	VectorOnly []string `json:"vector_only"`
	// KeywordOnly holds ids present only in the keyword store.
	KeywordOnly []string `json:"keyword_only"`
	// RemovedKeyword holds keyword-only orphans that were deleted because
	// removal was requested.
	RemovedKeyword []string `json:"removed_keyword,omitempty"`
}

// Reconcile computes the symmetric difference between the given vector-store
// document ids and the keyword store's contents. When removeKeywordOrphans is
// set, keyword-only orphans are deleted; vector-only orphans are only
// reported.
func (m *Manager) Reconcile(ctx context.Context, vectorIDs []string, removeKeywordOrphans bool) (*ReconcileReport, error) {
	keywordIDs, err := m.store.ListIndexes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list keyword indexes: %w", err)
	}

	inVector := make(map[string]bool, len(vectorIDs))
	for _, id := range vectorIDs {
		inVector[id] = true
	}
	inKeyword := make(map[string]bool, len(keywordIDs))
	for _, id := range keywordIDs {
		inKeyword[id] = true
	}

	report := &ReconcileReport{}
	for id := range inVector {
		if inKeyword[id] {
			report.InBoth = append(report.InBoth, id)
		} else {
			report.VectorOnly = append(report.VectorOnly, id)
		}
	}
	for id := range inKeyword {
		if !inVector[id] {
			report.KeywordOnly = append(report.KeywordOnly, id)
		}
	}
	sort.Strings(report.InBoth)
	sort.Strings(report.VectorOnly)
	sort.Strings(report.KeywordOnly)

	if removeKeywordOrphans {
		for _, id := range report.KeywordOnly {
			release := m.locks.acquire(id)
			removed, err := m.store.Delete(ctx, id)
			release()
			if err != nil {
				m.logger.Error("failed to remove keyword orphan",
					zap.String("document_id", id),
					zap.Error(err))
				continue
			}
			if removed {
				report.RemovedKeyword = append(report.RemovedKeyword, id)
			}
		}
		m.logger.Info("reconciliation removed keyword orphans",
			zap.Int("count", len(report.RemovedKeyword)))
	}
	return report, nil
}

// ReconcileFromStore runs Reconcile using document ids enumerated from the
// vector store itself. Fails when the configured vector store cannot list
// documents (network-backed stores); pass explicit ids to Reconcile instead.
func (m *Manager) ReconcileFromStore(ctx context.Context, removeKeywordOrphans bool) (*ReconcileReport, error) {
	lister, ok := m.vector.(vector.DocumentLister)
	if !ok {
		return nil, fmt.Errorf("vector store cannot enumerate document ids")
	}
	ids, err := lister.ListDocumentIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list vector document ids: %w", err)
	}
	return m.Reconcile(ctx, ids, removeKeywordOrphans)
}
