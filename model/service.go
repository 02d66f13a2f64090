package model

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"openjuris/types"
)

// ErrAlreadyEmbedded reports that a document's vectors exist and force was
// not set.
var ErrAlreadyEmbedded = errors.New("document already embedded")

// VectorStore is the persistence surface the embed service needs. Satisfied
// by store.Storage.
type VectorStore interface {
	SaveVectors(ctx context.Context, documentID uuid.UUID, chunks []types.TextChunk, vectors [][]float32) error
	DeleteVectorsByDocument(ctx context.Context, documentID uuid.UUID) (int64, error)
	CountVectorsByDocument(ctx context.Context, documentID uuid.UUID) (int, error)
	SearchSimilar(ctx context.Context, vector []float32, limit int, threshold float64, documentID *uuid.UUID) ([]types.RankedChunk, error)
}

// EmbedService runs the chunk-embed-store pipeline and answers similarity
// queries over the stored vectors.
type EmbedService struct {
	cfg      types.Config
	store    VectorStore
	embedder Embedder
	chunker  *Chunker
	logger   *slog.Logger
}

func NewEmbedService(cfg types.Config, store VectorStore, embedder Embedder, logger *slog.Logger) *EmbedService {
	return &EmbedService{
		cfg:      cfg,
		store:    store,
		embedder: embedder,
		chunker:  NewChunker(cfg.ChunkSize, cfg.ChunkOverlap),
		logger:   logger,
	}
}

// EmbedText embeds a single free-standing text.
func (s *EmbedService) EmbedText(ctx context.Context, text string) ([]float32, error) {
	return s.embedder.Embed(ctx, text)
}

// EmbedTexts embeds a batch of texts in one provider call.
func (s *EmbedService) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	return s.embedder.EmbedBatch(ctx, texts)
}

// EmbedDocument chunks content, embeds every chunk and stores the vectors
// under documentID, replacing whatever was there. Without force, a document
// that already has vectors is left alone and ErrAlreadyEmbedded is returned.
// The chunk count is returned on success.
func (s *EmbedService) EmbedDocument(ctx context.Context, documentID uuid.UUID, content string, force bool) (int, error) {
	if !force {
		count, err := s.store.CountVectorsByDocument(ctx, documentID)
		if err != nil {
			return 0, fmt.Errorf("count vectors for %s: %w", documentID, err)
		}
		if count > 0 {
			return count, ErrAlreadyEmbedded
		}
	}

	chunks := s.chunker.Chunk(content)
	if len(chunks) == 0 {
		return 0, fmt.Errorf("document %s: no text to embed", documentID)
	}

	vectors := make([][]float32, 0, len(chunks))
	batchSize := s.cfg.EmbedBatchSize
	if batchSize <= 0 {
		batchSize = len(chunks)
	}
	for start := 0; start < len(chunks); start += batchSize {
		end := start + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		texts := make([]string, 0, end-start)
		for _, chunk := range chunks[start:end] {
			texts = append(texts, chunk.Content)
		}

		batch, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return 0, fmt.Errorf("embed document %s: %w", documentID, err)
		}
		vectors = append(vectors, batch...)
	}

	if err := s.store.SaveVectors(ctx, documentID, chunks, vectors); err != nil {
		return 0, fmt.Errorf("save vectors for %s: %w", documentID, err)
	}

	s.logger.Info("document embedded", "document_id", documentID, "chunks", len(chunks), "force", force)
	return len(chunks), nil
}

// Search embeds the query and returns stored chunks above the similarity
// threshold, most similar first. Zero limit and threshold fall back to the
// configured defaults.
func (s *EmbedService) Search(ctx context.Context, params types.SearchParams) ([]types.RankedChunk, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 10
	}
	threshold := params.Threshold
	if threshold <= 0 {
		threshold = s.cfg.SimilarityThreshold
	}

	var documentID *uuid.UUID
	if params.DocumentID != "" {
		id, err := uuid.Parse(params.DocumentID)
		if err != nil {
			return nil, fmt.Errorf("invalid document id %q: %w", params.DocumentID, err)
		}
		documentID = &id
	}

	vector, err := s.embedder.Embed(ctx, params.Query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	return s.store.SearchSimilar(ctx, vector, limit, threshold, documentID)
}

// DeleteDocumentVectors removes all stored vectors for a document and
// reports how many were deleted.
func (s *EmbedService) DeleteDocumentVectors(ctx context.Context, documentID uuid.UUID) (int64, error) {
	return s.store.DeleteVectorsByDocument(ctx, documentID)
}
