// Package store persists documents, their structural parts and chunk vectors
// in Postgres with the pgvector extension.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"openjuris/markdown"
	"openjuris/model"
	"openjuris/types"
)

// ErrNotFound is returned when a document id is unknown.
var ErrNotFound = fmt.Errorf("document not found")

// Document is a stored document row.
type Document struct {
	ID                uuid.UUID              `json:"id"`
	CanonicalCitation string                 `json:"canonical_citation"`
	Title             string                 `json:"title"`
	ShortTitle        string                 `json:"short_title,omitempty"`
	Category          types.DocumentCategory `json:"category"`
	DocType           types.DocumentType     `json:"doc_type"`
	SourceURL         string                 `json:"source_url"`
	DatePromulgated   *time.Time             `json:"date_promulgated,omitempty"`
	DatePublished     *time.Time             `json:"date_published,omitempty"`
	DateEffectivity   *time.Time             `json:"date_effectivity,omitempty"`
	Metadata          map[string]string      `json:"metadata,omitempty"`
	Subjects          []string               `json:"subjects,omitempty"`
	ContentMarkdown   string                 `json:"content_markdown,omitempty"`
	CreatedAt         time.Time              `json:"created_at"`
	UpdatedAt         time.Time              `json:"updated_at"`
}

// Part is a stored structural part row.
type Part struct {
	ID              uuid.UUID         `json:"id"`
	DocumentID      uuid.UUID         `json:"document_id"`
	ParentID        *uuid.UUID        `json:"parent_id,omitempty"`
	SectionType     types.SectionType `json:"section_type"`
	Label           string            `json:"label,omitempty"`
	ContentText     string            `json:"content_text,omitempty"`
	ContentMarkdown string            `json:"content_markdown,omitempty"`
	ContentHTML     string            `json:"content_html,omitempty"`
	SortOrder       int               `json:"sort_order"`
}

// Storer is the full persistence surface of the service.
type Storer interface {
	SaveDocument(ctx context.Context, doc *types.ScrapedDocument) (uuid.UUID, error)
	GetDocumentByID(ctx context.Context, id uuid.UUID) (*Document, error)
	ListDocuments(ctx context.Context, limit, offset int) ([]Document, error)
	GetDocumentParts(ctx context.Context, documentID uuid.UUID) ([]Part, error)
	FindDocumentIDByURL(ctx context.Context, url string) (uuid.UUID, bool, error)
	UpdateDocumentSubjects(ctx context.Context, documentID uuid.UUID, subjects []string) error

	SaveVectors(ctx context.Context, documentID uuid.UUID, chunks []types.TextChunk, vectors [][]float32) error
	DeleteVectorsByDocument(ctx context.Context, documentID uuid.UUID) (int64, error)
	CountVectorsByDocument(ctx context.Context, documentID uuid.UUID) (int, error)
	SearchSimilar(ctx context.Context, vector []float32, limit int, threshold float64, documentID *uuid.UUID) ([]types.RankedChunk, error)
}

// PostgresStore implements Storer on a pgx connection pool.
type PostgresStore struct {
	pool       *pgxpool.Pool
	dimensions int
	logger     *slog.Logger
}

func NewPostgresStore(ctx context.Context, connStr string, dimensions int, logger *slog.Logger) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresStore{pool: pool, dimensions: dimensions, logger: logger}, nil
}

// Init creates the schema. Idempotent.
func (p *PostgresStore) Init(ctx context.Context) error {
	query := fmt.Sprintf(`
	CREATE EXTENSION IF NOT EXISTS vector;

	CREATE TABLE IF NOT EXISTS documents (
		id UUID PRIMARY KEY,
		canonical_citation TEXT NOT NULL,
		title TEXT,
		short_title TEXT,
		category TEXT NOT NULL,
		doc_type TEXT NOT NULL,
		source_url TEXT NOT NULL UNIQUE,
		date_promulgated DATE,
		date_published DATE,
		date_effectivity DATE,
		metadata JSONB,
		subjects TEXT[],
		content_markdown TEXT,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL,
		updated_at TIMESTAMP WITH TIME ZONE NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_documents_citation ON documents(canonical_citation);
	CREATE INDEX IF NOT EXISTS idx_documents_doc_type ON documents(doc_type);

	CREATE TABLE IF NOT EXISTS document_parts (
		id UUID PRIMARY KEY,
		document_id UUID NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
		parent_id UUID REFERENCES document_parts(id) ON DELETE CASCADE,
		section_type TEXT NOT NULL,
		label TEXT,
		content_text TEXT,
		content_markdown TEXT,
		content_html TEXT,
		sort_order INT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_parts_document_id ON document_parts(document_id);

	CREATE TABLE IF NOT EXISTS document_vectors (
		id UUID PRIMARY KEY,
		document_id UUID NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
		chunk_index INT NOT NULL,
		content TEXT NOT NULL,
		section_title TEXT,
		start_char INT NOT NULL,
		end_char INT NOT NULL,
		embedding vector(%d)
	);

	CREATE INDEX IF NOT EXISTS idx_vectors_document_id ON document_vectors(document_id);
	CREATE INDEX IF NOT EXISTS idx_vectors_embedding ON document_vectors
		USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100);
	`, p.dimensions)

	_, err := p.pool.Exec(ctx, query)
	return err
}

func (p *PostgresStore) Close() {
	if p.pool != nil {
		p.pool.Close()
		p.logger.Info("postgres connection pool closed")
	}
}

// SaveDocument upserts a parsed document keyed by source URL and replaces
// its structural parts in the same transaction.
func (p *PostgresStore) SaveDocument(ctx context.Context, doc *types.ScrapedDocument) (uuid.UUID, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	defer tx.Rollback(ctx)

	now := time.Now()
	var docID uuid.UUID
	err = tx.QueryRow(ctx, `
		INSERT INTO documents (id, canonical_citation, title, short_title, category, doc_type,
			source_url, date_promulgated, date_published, date_effectivity, metadata,
			content_markdown, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
		ON CONFLICT (source_url) DO UPDATE SET
			canonical_citation = EXCLUDED.canonical_citation,
			title = EXCLUDED.title,
			short_title = EXCLUDED.short_title,
			category = EXCLUDED.category,
			doc_type = EXCLUDED.doc_type,
			date_promulgated = EXCLUDED.date_promulgated,
			date_published = EXCLUDED.date_published,
			date_effectivity = EXCLUDED.date_effectivity,
			metadata = EXCLUDED.metadata,
			content_markdown = EXCLUDED.content_markdown,
			updated_at = EXCLUDED.updated_at
		RETURNING id`,
		uuid.New(), doc.CanonicalCitation, doc.Title, doc.ShortTitle, doc.Category, doc.DocType,
		doc.SourceURL, doc.DatePromulgated, doc.DatePublished, doc.DateEffectivity, doc.Metadata,
		doc.ContentMarkdown, now,
	).Scan(&docID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("upsert document: %w", err)
	}

	if _, err := tx.Exec(ctx, "DELETE FROM document_parts WHERE document_id = $1", docID); err != nil {
		return uuid.Nil, fmt.Errorf("clear old parts: %w", err)
	}

	flat := markdown.Flatten(doc.Parts)
	ids := make([]uuid.UUID, len(flat))
	for i := range flat {
		ids[i] = uuid.New()
	}
	for i, part := range flat {
		var parentID *uuid.UUID
		if part.ParentIndex >= 0 {
			parentID = &ids[part.ParentIndex]
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO document_parts (id, document_id, parent_id, section_type, label,
				content_text, content_markdown, content_html, sort_order)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			ids[i], docID, parentID, part.SectionType, part.Label,
			part.ContentText, part.ContentMarkdown, part.ContentHTML, part.SortOrder,
		)
		if err != nil {
			return uuid.Nil, fmt.Errorf("insert part %d: %w", i, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, err
	}
	return docID, nil
}

const documentColumns = `id, canonical_citation, title, short_title, category, doc_type,
	source_url, date_promulgated, date_published, date_effectivity, metadata, subjects,
	content_markdown, created_at, updated_at`

func scanDocument(row pgx.Row) (*Document, error) {
	doc := &Document{}
	err := row.Scan(
		&doc.ID, &doc.CanonicalCitation, &doc.Title, &doc.ShortTitle, &doc.Category,
		&doc.DocType, &doc.SourceURL, &doc.DatePromulgated, &doc.DatePublished,
		&doc.DateEffectivity, &doc.Metadata, &doc.Subjects, &doc.ContentMarkdown,
		&doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (p *PostgresStore) GetDocumentByID(ctx context.Context, id uuid.UUID) (*Document, error) {
	row := p.pool.QueryRow(ctx, "SELECT "+documentColumns+" FROM documents WHERE id = $1", id)
	doc, err := scanDocument(row)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	return doc, err
}

func (p *PostgresStore) ListDocuments(ctx context.Context, limit, offset int) ([]Document, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := p.pool.Query(ctx,
		"SELECT "+documentColumns+" FROM documents ORDER BY created_at DESC LIMIT $1 OFFSET $2",
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

func (p *PostgresStore) GetDocumentParts(ctx context.Context, documentID uuid.UUID) ([]Part, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, document_id, parent_id, section_type, label,
			content_text, content_markdown, content_html, sort_order
		FROM document_parts WHERE document_id = $1 ORDER BY sort_order`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var parts []Part
	for rows.Next() {
		var part Part
		err := rows.Scan(&part.ID, &part.DocumentID, &part.ParentID, &part.SectionType,
			&part.Label, &part.ContentText, &part.ContentMarkdown, &part.ContentHTML,
			&part.SortOrder)
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}
	return parts, rows.Err()
}

func (p *PostgresStore) FindDocumentIDByURL(ctx context.Context, url string) (uuid.UUID, bool, error) {
	var id uuid.UUID
	err := p.pool.QueryRow(ctx, "SELECT id FROM documents WHERE source_url = $1", url).Scan(&id)
	if err == pgx.ErrNoRows {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, err
	}
	return id, true, nil
}

func (p *PostgresStore) UpdateDocumentSubjects(ctx context.Context, documentID uuid.UUID, subjects []string) error {
	tag, err := p.pool.Exec(ctx,
		"UPDATE documents SET subjects = $2, updated_at = $3 WHERE id = $1",
		documentID, subjects, time.Now())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveVectors replaces all stored vectors for a document. Delete and insert
// run in one transaction so a failure cannot leave the document half
// embedded.
func (p *PostgresStore) SaveVectors(ctx context.Context, documentID uuid.UUID, chunks []types.TextChunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("got %d chunks but %d vectors", len(chunks), len(vectors))
	}
	for i, vec := range vectors {
		if len(vec) != p.dimensions {
			// Never truncate or pad; a width mismatch means the provider and
			// the schema disagree and the write must not happen.
			return &model.EmbeddingError{
				Provider: "pgvector",
				Err:      fmt.Errorf("vector %d has dimension %d, expected %d", i, len(vec), p.dimensions),
			}
		}
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM document_vectors WHERE document_id = $1", documentID); err != nil {
		return fmt.Errorf("clear old vectors: %w", err)
	}

	for i, chunk := range chunks {
		_, err := tx.Exec(ctx, `
			INSERT INTO document_vectors (id, document_id, chunk_index, content,
				section_title, start_char, end_char, embedding)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			uuid.New(), documentID, chunk.Index, chunk.Content,
			chunk.SectionTitle, chunk.StartChar, chunk.EndChar, pgvector.NewVector(vectors[i]),
		)
		if err != nil {
			return fmt.Errorf("insert vector %d: %w", i, err)
		}
	}

	return tx.Commit(ctx)
}

func (p *PostgresStore) DeleteVectorsByDocument(ctx context.Context, documentID uuid.UUID) (int64, error) {
	tag, err := p.pool.Exec(ctx, "DELETE FROM document_vectors WHERE document_id = $1", documentID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (p *PostgresStore) CountVectorsByDocument(ctx context.Context, documentID uuid.UUID) (int, error) {
	var count int
	err := p.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM document_vectors WHERE document_id = $1", documentID).Scan(&count)
	return count, err
}

// SearchSimilar returns chunks whose cosine similarity to vector meets the
// threshold, most similar first.
func (p *PostgresStore) SearchSimilar(ctx context.Context, vector []float32, limit int, threshold float64, documentID *uuid.UUID) ([]types.RankedChunk, error) {
	if len(vector) != p.dimensions {
		return nil, fmt.Errorf("query vector has dimension %d, expected %d", len(vector), p.dimensions)
	}

	query := `
		SELECT id, document_id, chunk_index, content, section_title,
			1 - (embedding <=> $1) AS similarity
		FROM document_vectors
		WHERE 1 - (embedding <=> $1) >= $2`
	args := []any{pgvector.NewVector(vector), threshold}
	if documentID != nil {
		query += " AND document_id = $4"
		args = append(args, limit, *documentID)
	} else {
		args = append(args, limit)
	}
	query += " ORDER BY similarity DESC LIMIT $3"

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.RankedChunk
	for rows.Next() {
		var chunk types.RankedChunk
		var sectionTitle *string
		err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.ChunkIndex,
			&chunk.Content, &sectionTitle, &chunk.Similarity)
		if err != nil {
			return nil, err
		}
		if sectionTitle != nil {
			chunk.SectionTitle = *sectionTitle
		}
		out = append(out, chunk)
	}
	return out, rows.Err()
}
