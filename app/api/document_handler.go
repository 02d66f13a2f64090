package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"openjuris/markdown"
	"openjuris/model"
	"openjuris/store"
)

// DocumentHandler serves stored documents, their structural parts and the
// subject tagging operation.
type DocumentHandler struct {
	store    store.Storer
	subjects *model.SubjectExtractor
}

func NewDocumentHandler(store store.Storer, subjects *model.SubjectExtractor) *DocumentHandler {
	return &DocumentHandler{store: store, subjects: subjects}
}

func (h *DocumentHandler) HandleListDocuments(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)

	docs, err := h.store.ListDocuments(c.Context(), limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(docs)
}

// HandleGetDocument returns one document. With ?view=table_preserving the
// Markdown is rebuilt with original table markup in place of the pipe
// tables.
func (h *DocumentHandler) HandleGetDocument(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return ErrInvalidID()
	}

	doc, err := h.store.GetDocumentByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound(id, "document")
		}
		return err
	}

	if c.Query("view") == "table_preserving" {
		parts, err := h.store.GetDocumentParts(c.Context(), id)
		if err != nil {
			return err
		}
		doc.ContentMarkdown = markdown.TablePreservingView(doc.ContentMarkdown, toFlatParts(parts))
	}
	return c.JSON(doc)
}

func (h *DocumentHandler) HandleGetDocumentParts(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return ErrInvalidID()
	}

	parts, err := h.store.GetDocumentParts(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(parts)
}

// HandleExtractSubjects tags a document with subject areas and stores them.
func (h *DocumentHandler) HandleExtractSubjects(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return ErrInvalidID()
	}

	doc, err := h.store.GetDocumentByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound(id, "document")
		}
		return err
	}

	subjects := h.subjects.Extract(c.Context(), doc.Title, doc.ContentMarkdown)
	if err := h.store.UpdateDocumentSubjects(c.Context(), id, subjects); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"document_id": id, "subjects": subjects})
}

func toFlatParts(parts []store.Part) []markdown.FlatPart {
	out := make([]markdown.FlatPart, len(parts))
	for i, part := range parts {
		out[i] = markdown.FlatPart{
			SectionType:     part.SectionType,
			Label:           part.Label,
			ContentText:     part.ContentText,
			ContentMarkdown: part.ContentMarkdown,
			ContentHTML:     part.ContentHTML,
			SortOrder:       part.SortOrder,
			ParentIndex:     -1,
		}
	}
	return out
}
