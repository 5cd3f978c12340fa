package vector

import (
	"context"
	"fmt"
	"sort"

	chroma "github.com/amikos-tech/chroma-go"
	"github.com/amikos-tech/chroma-go/types"
)

// ChromaStore adapts a ChromaDB collection to the Store contract.
type ChromaStore struct {
	client     *chroma.Client
	collection *chroma.Collection
}

// NewChromaStore connects to a ChromaDB server and gets or creates the named
// collection with the L2 distance function.
func NewChromaStore(ctx context.Context, baseURL, collectionName string) (*ChromaStore, error) {
	client, err := chroma.NewClient(chroma.WithBasePath(baseURL))
	if err != nil {
		return nil, fmt.Errorf("create chroma client: %w", err)
	}
	collection, err := client.CreateCollection(ctx, collectionName, nil, true, nil, types.L2)
	if err != nil {
		return nil, fmt.Errorf("get or create collection %q: %w", collectionName, err)
	}
	return &ChromaStore{client: client, collection: collection}, nil
}

// Add writes documents, embeddings, metadata, and ids to the collection.
func (c *ChromaStore) Add(ctx context.Context, documents []string, embeddings [][]float32, metadatas []map[string]string, ids []string) error {
	embs := make([]*types.Embedding, len(embeddings))
	for i, e := range embeddings {
		embs[i] = types.NewEmbeddingFromFloat32(e)
	}
	metas := make([]map[string]interface{}, len(metadatas))
	for i, m := range metadatas {
		metas[i] = toInterfaceMap(m)
	}
	if _, err := c.collection.Add(ctx, embs, metas, documents, ids); err != nil {
		return fmt.Errorf("chroma add: %w", err)
	}
	return nil
}

// Query runs a nearest-neighbor query scoped by the where filter.
func (c *ChromaStore) Query(ctx context.Context, queryEmbedding []float32, nResults int, where map[string]string) ([]*QueryResult, error) {
	qr, err := c.collection.QueryWithOptions(ctx,
		types.WithQueryEmbedding(types.NewEmbeddingFromFloat32(queryEmbedding)),
		types.WithNResults(int32(nResults)),
		types.WithWhereMap(whereClause(where)),
		types.WithInclude(types.IDocuments, types.IMetadatas, types.IDistances),
	)
	if err != nil {
		return nil, fmt.Errorf("chroma query: %w", err)
	}
	if len(qr.Ids) == 0 || len(qr.Ids[0]) == 0 {
		return nil, nil
	}
	results := make([]*QueryResult, 0, len(qr.Ids[0]))
	for i := range qr.Ids[0] {
		res := &QueryResult{ID: qr.Ids[0][i]}
		if len(qr.Documents) > 0 && i < len(qr.Documents[0]) {
			res.Document = qr.Documents[0][i]
		}
		if len(qr.Metadatas) > 0 && i < len(qr.Metadatas[0]) {
			res.Metadata = toStringMap(qr.Metadatas[0][i])
		}
		if len(qr.Distances) > 0 && i < len(qr.Distances[0]) {
			res.Distance = float64(qr.Distances[0][i])
		}
		results = append(results, res)
	}
	return results, nil
}

// Delete removes every entry matching the where filter.
func (c *ChromaStore) Delete(ctx context.Context, where map[string]string) error {
	if len(where) == 0 {
		return fmt.Errorf("delete requires a non-empty filter")
	}
	if _, err := c.collection.Delete(ctx, nil, whereClause(where), nil); err != nil {
		return fmt.Errorf("chroma delete: %w", err)
	}
	return nil
}

// Close is a no-op; the chroma client holds no persistent connection.
func (c *ChromaStore) Close() error {
	return nil
}

// whereClause converts an equality-predicate map to Chroma's filter syntax:
// a single {"field": {"$eq": value}} predicate, or an $and of them.
func whereClause(where map[string]string) map[string]interface{} {
	keys := make([]string, 0, len(where))
	for k := range where {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	preds := make([]map[string]interface{}, 0, len(keys))
	for _, k := range keys {
		preds = append(preds, map[string]interface{}{k: map[string]interface{}{"$eq": where[k]}})
	}
	if len(preds) == 1 {
		return preds[0]
	}
	and := make([]interface{}, len(preds))
	for i, p := range preds {
		and[i] = p
	}
	return map[string]interface{}{"$and": and}
}

func toInterfaceMap(m map[string]string) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func toStringMap(m map[string]interface{}) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		if s, ok := v.(string); ok {
			out[k] = s
		} else {
			out[k] = fmt.Sprintf("%v", v)
		}
	}
	return out
}
