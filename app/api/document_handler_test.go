package api

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"openjuris/model"
	"openjuris/store"
	"openjuris/types"
)

type stubStorer struct {
	doc      *store.Document
	subjects []string
}

func (s *stubStorer) SaveDocument(_ context.Context, _ *types.ScrapedDocument) (uuid.UUID, error) {
	return uuid.Nil, nil
}

func (s *stubStorer) GetDocumentByID(_ context.Context, _ uuid.UUID) (*store.Document, error) {
	if s.doc == nil {
		return nil, store.ErrNotFound
	}
	return s.doc, nil
}

func (s *stubStorer) ListDocuments(_ context.Context, _, _ int) ([]store.Document, error) {
	return nil, nil
}

func (s *stubStorer) GetDocumentParts(_ context.Context, _ uuid.UUID) ([]store.Part, error) {
	return nil, nil
}

func (s *stubStorer) FindDocumentIDByURL(_ context.Context, _ string) (uuid.UUID, bool, error) {
	return uuid.Nil, false, nil
}

func (s *stubStorer) UpdateDocumentSubjects(_ context.Context, _ uuid.UUID, subjects []string) error {
	s.subjects = subjects
	return nil
}

func (s *stubStorer) SaveVectors(_ context.Context, _ uuid.UUID, _ []types.TextChunk, _ [][]float32) error {
	return nil
}

func (s *stubStorer) DeleteVectorsByDocument(_ context.Context, _ uuid.UUID) (int64, error) {
	return 0, nil
}

func (s *stubStorer) CountVectorsByDocument(_ context.Context, _ uuid.UUID) (int, error) {
	return 0, nil
}

func (s *stubStorer) SearchSimilar(_ context.Context, _ []float32, _ int, _ float64, _ *uuid.UUID) ([]types.RankedChunk, error) {
	return nil, nil
}

type ctxRecordingGenerator struct {
	ctx context.Context
}

func (g *ctxRecordingGenerator) Generate(ctx context.Context, _, _ string) (string, error) {
	g.ctx = ctx
	return `["Taxation"]`, nil
}

func TestExtractSubjectsUsesRequestContext(t *testing.T) {
	st := &stubStorer{doc: &store.Document{
		ID:              uuid.New(),
		Title:           "AN ACT IMPOSING TAXES",
		ContentMarkdown: "levies upon every bank a tax on income",
	}}
	gen := &ctxRecordingGenerator{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewDocumentHandler(st, model.NewSubjectExtractor(gen, logger))

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Post("/documents/:id/subjects", handler.HandleExtractSubjects)

	req := httptest.NewRequest("POST", "/documents/"+st.doc.ID.String()+"/subjects", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"Taxation"}, st.subjects)

	// The generator sees the request's context, not a detached background one.
	require.NotNil(t, gen.ctx)
	assert.NotEqual(t, context.Background(), gen.ctx)
}
