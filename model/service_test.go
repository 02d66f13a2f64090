package model

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"openjuris/types"
)

type fakeEmbedder struct {
	dims       int
	batchCalls int
}

func (e *fakeEmbedder) Dimensions() int { return e.dims }

func (e *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (e *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	e.batchCalls++
	out := make([][]float32, len(texts))
	for i := range texts {
		vec := make([]float32, e.dims)
		vec[0] = 1
		out[i] = vec
	}
	return out, nil
}

type fakeVectorStore struct {
	chunks  map[uuid.UUID][]types.TextChunk
	results []types.RankedChunk

	lastLimit     int
	lastThreshold float64
	lastDocFilter *uuid.UUID
}

func newFakeVectorStore() *fakeVectorStore {
	return &fakeVectorStore{chunks: make(map[uuid.UUID][]types.TextChunk)}
}

func (s *fakeVectorStore) SaveVectors(_ context.Context, documentID uuid.UUID, chunks []types.TextChunk, vectors [][]float32) error {
	s.chunks[documentID] = chunks
	return nil
}

func (s *fakeVectorStore) DeleteVectorsByDocument(_ context.Context, documentID uuid.UUID) (int64, error) {
	n := int64(len(s.chunks[documentID]))
	delete(s.chunks, documentID)
	return n, nil
}

func (s *fakeVectorStore) CountVectorsByDocument(_ context.Context, documentID uuid.UUID) (int, error) {
	return len(s.chunks[documentID]), nil
}

func (s *fakeVectorStore) SearchSimilar(_ context.Context, _ []float32, limit int, threshold float64, documentID *uuid.UUID) ([]types.RankedChunk, error) {
	s.lastLimit = limit
	s.lastThreshold = threshold
	s.lastDocFilter = documentID
	return s.results, nil
}

func testService(batchSize int) (*EmbedService, *fakeVectorStore, *fakeEmbedder) {
	cfg := types.Config{
		ChunkSize:           50,
		ChunkOverlap:        10,
		EmbeddingDimension:  4,
		EmbedBatchSize:      batchSize,
		SimilarityThreshold: 0.7,
	}
	store := newFakeVectorStore()
	embedder := &fakeEmbedder{dims: 4}
	return NewEmbedService(cfg, store, embedder, discardLogger()), store, embedder
}

const serviceText = "First sentence of the statute. Second sentence with detail. Third sentence closes it. Fourth one for measure."

func TestEmbedDocumentStoresChunks(t *testing.T) {
	service, store, _ := testService(30)
	docID := uuid.New()

	count, err := service.EmbedDocument(context.Background(), docID, serviceText, false)
	require.NoError(t, err)
	assert.Greater(t, count, 1)
	assert.Len(t, store.chunks[docID], count)
}

func TestEmbedDocumentIdempotentWithoutForce(t *testing.T) {
	service, _, embedder := testService(30)
	docID := uuid.New()

	first, err := service.EmbedDocument(context.Background(), docID, serviceText, false)
	require.NoError(t, err)
	callsAfterFirst := embedder.batchCalls

	count, err := service.EmbedDocument(context.Background(), docID, serviceText, false)
	assert.ErrorIs(t, err, ErrAlreadyEmbedded)
	assert.Equal(t, first, count)
	assert.Equal(t, callsAfterFirst, embedder.batchCalls)
}

func TestEmbedDocumentForceReplaces(t *testing.T) {
	service, store, _ := testService(30)
	docID := uuid.New()

	_, err := service.EmbedDocument(context.Background(), docID, serviceText, false)
	require.NoError(t, err)

	count, err := service.EmbedDocument(context.Background(), docID, "Replacement text only.", true)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Len(t, store.chunks[docID], 1)
}

func TestEmbedDocumentBatches(t *testing.T) {
	service, _, embedder := testService(1)
	docID := uuid.New()

	count, err := service.EmbedDocument(context.Background(), docID, serviceText, false)
	require.NoError(t, err)
	// Batch size one means one provider call per chunk.
	assert.Equal(t, count, embedder.batchCalls)
}

func TestEmbedDocumentEmptyContent(t *testing.T) {
	service, _, _ := testService(30)

	_, err := service.EmbedDocument(context.Background(), uuid.New(), "   ", false)
	require.Error(t, err)
}

func TestSearchAppliesDefaults(t *testing.T) {
	service, store, _ := testService(30)

	_, err := service.Search(context.Background(), types.SearchParams{Query: "tax on banks"})
	require.NoError(t, err)
	assert.Equal(t, 10, store.lastLimit)
	assert.InDelta(t, 0.7, store.lastThreshold, 1e-9)
	assert.Nil(t, store.lastDocFilter)
}

func TestSearchDocumentFilter(t *testing.T) {
	service, store, _ := testService(30)
	docID := uuid.New()

	_, err := service.Search(context.Background(), types.SearchParams{
		Query:      "effectivity",
		Limit:      3,
		Threshold:  0.5,
		DocumentID: docID.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, store.lastLimit)
	assert.InDelta(t, 0.5, store.lastThreshold, 1e-9)
	require.NotNil(t, store.lastDocFilter)
	assert.Equal(t, docID, *store.lastDocFilter)

	_, err = service.Search(context.Background(), types.SearchParams{
		Query:      "effectivity",
		DocumentID: "not-a-uuid",
	})
	require.Error(t, err)
}
