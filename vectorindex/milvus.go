package vectorindex

import (
	"context"
	"fmt"
	"strings"

	milvusclient "github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

const (
	fieldID         = "id"
	fieldSource     = "source"
	fieldChunkIndex = "chunk_index"
	fieldContent    = "content"
	fieldEmbedding  = "embedding"

	maxIDLength      = 512
	maxSourceLength  = 512
	maxContentLength = 65535
)

// Milvus stores chunks in one Milvus collection with an HNSW cosine index.
type Milvus struct {
	client     milvusclient.Client
	collection string
}

// NewMilvus connects to address. name is sanitised into a valid collection
// name ("tax-law-index" becomes "tax_law_index").
func NewMilvus(ctx context.Context, address, name string) (*Milvus, error) {
	c, err := milvusclient.NewClient(ctx, milvusclient.Config{Address: address})
	if err != nil {
		return nil, fmt.Errorf("milvus connect %s: %w", address, err)
	}
	return &Milvus{client: c, collection: CollectionName(name)}, nil
}

// CollectionName maps an index name onto Milvus' [A-Za-z0-9_] alphabet.
func CollectionName(name string) string {
	var sb strings.Builder
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
			sb.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				sb.WriteRune('_')
			}
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}
	if sb.Len() == 0 {
		return "tax_law_index"
	}
	return sb.String()
}

// EnsureIndex creates and loads the collection if it does not exist yet.
func (m *Milvus) EnsureIndex(ctx context.Context, dimensions int) error {
	exists, err := m.client.HasCollection(ctx, m.collection)
	if err != nil {
		return fmt.Errorf("check collection %s: %w", m.collection, err)
	}
	if exists {
		return m.client.LoadCollection(ctx, m.collection, false)
	}

	schema := entity.NewSchema().
		WithName(m.collection).
		WithField(entity.NewField().
			WithName(fieldID).
			WithDataType(entity.FieldTypeVarChar).
			WithMaxLength(maxIDLength).
			WithIsPrimaryKey(true)).
		WithField(entity.NewField().
			WithName(fieldSource).
			WithDataType(entity.FieldTypeVarChar).
			WithMaxLength(maxSourceLength)).
		WithField(entity.NewField().
			WithName(fieldChunkIndex).
			WithDataType(entity.FieldTypeInt64)).
		WithField(entity.NewField().
			WithName(fieldContent).
			WithDataType(entity.FieldTypeVarChar).
			WithMaxLength(maxContentLength)).
		WithField(entity.NewField().
			WithName(fieldEmbedding).
			WithDataType(entity.FieldTypeFloatVector).
			WithDim(int64(dimensions)))

	if err := m.client.CreateCollection(ctx, schema, 1); err != nil {
		return fmt.Errorf("create collection %s: %w", m.collection, err)
	}

	idx, err := entity.NewIndexHNSW(entity.COSINE, 16, 200)
	if err != nil {
		return fmt.Errorf("create HNSW index params: %w", err)
	}
	if err := m.client.CreateIndex(ctx, m.collection, fieldEmbedding, idx, false); err != nil {
		return fmt.Errorf("create index on %s: %w", m.collection, err)
	}
	if err := m.client.LoadCollection(ctx, m.collection, false); err != nil {
		return fmt.Errorf("load collection %s: %w", m.collection, err)
	}
	return nil
}

// Upsert implements Index.
func (m *Milvus) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	ids := make([]string, len(records))
	sources := make([]string, len(records))
	chunkIdx := make([]int64, len(records))
	contents := make([]string, len(records))
	vectors := make([][]float32, len(records))
	dim := len(records[0].Vector)
	for i, r := range records {
		if len(r.Vector) != dim {
			return fmt.Errorf("%w: record %s", ErrDimensionMismatch, r.ID)
		}
		ids[i] = truncateRunes(r.ID, maxIDLength)
		sources[i] = truncateRunes(r.Source, maxSourceLength)
		chunkIdx[i] = int64(r.ChunkIndex)
		contents[i] = truncateRunes(r.Content, maxContentLength)
		vectors[i] = r.Vector
	}

	_, err := m.client.Upsert(ctx, m.collection, "",
		entity.NewColumnVarChar(fieldID, ids),
		entity.NewColumnVarChar(fieldSource, sources),
		entity.NewColumnInt64(fieldChunkIndex, chunkIdx),
		entity.NewColumnVarChar(fieldContent, contents),
		entity.NewColumnFloatVector(fieldEmbedding, dim, vectors),
	)
	if err != nil {
		return fmt.Errorf("upsert into %s: %w", m.collection, err)
	}
	if err := m.client.Flush(ctx, m.collection, false); err != nil {
		return fmt.Errorf("flush %s: %w", m.collection, err)
	}
	return nil
}

// Query implements Index.
func (m *Milvus) Query(ctx context.Context, vector []float32, topK int) ([]Match, error) {
	if topK <= 0 {
		return nil, nil
	}
	sp, err := entity.NewIndexHNSWSearchParam(64)
	if err != nil {
		return nil, fmt.Errorf("create search params: %w", err)
	}

	results, err := m.client.Search(
		ctx,
		m.collection,
		nil,
		"",
		[]string{fieldID, fieldSource, fieldChunkIndex, fieldContent},
		[]entity.Vector{entity.FloatVector(vector)},
		fieldEmbedding,
		entity.COSINE,
		topK,
		sp,
	)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", m.collection, err)
	}
	if len(results) == 0 {
		return nil, nil
	}

	sr := results[0]
	if sr.Err != nil {
		return nil, fmt.Errorf("search result error: %w", sr.Err)
	}

	idCol := sr.Fields.GetColumn(fieldID)
	sourceCol := sr.Fields.GetColumn(fieldSource)
	chunkCol := sr.Fields.GetColumn(fieldChunkIndex)
	contentCol := sr.Fields.GetColumn(fieldContent)

	out := make([]Match, 0, sr.ResultCount)
	for i := 0; i < sr.ResultCount; i++ {
		id, _ := idCol.GetAsString(i)
		source, _ := sourceCol.GetAsString(i)
		chunkIndex, _ := chunkCol.GetAsInt64(i)
		content, _ := contentCol.GetAsString(i)
		out = append(out, Match{
			ID:         id,
			Source:     source,
			ChunkIndex: int(chunkIndex),
			Content:    content,
			Score:      float64(sr.Scores[i]),
		})
	}
	return out, nil
}

// Close implements Index.
func (m *Milvus) Close(context.Context) error {
	return m.client.Close()
}
