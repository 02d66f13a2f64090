package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"openjuris/model"
	"openjuris/types"
)

// EmbedHandler exposes embedding, vector management and similarity search.
type EmbedHandler struct {
	service *model.EmbedService
}

func NewEmbedHandler(service *model.EmbedService) *EmbedHandler {
	return &EmbedHandler{service: service}
}

func (h *EmbedHandler) HandleEmbedText(c *fiber.Ctx) error {
	var params types.EmbedTextParams
	if c.BodyParser(&params) != nil {
		return ErrBadRequest()
	}
	if errors := types.Validate(&params); len(errors) > 0 {
		return NewValidationError(errors)
	}

	vector, err := h.service.EmbedText(c.Context(), params.Text)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"embedding": vector, "dimensions": len(vector)})
}

func (h *EmbedHandler) HandleEmbedBatch(c *fiber.Ctx) error {
	var params types.EmbedBatchParams
	if c.BodyParser(&params) != nil {
		return ErrBadRequest()
	}
	if errors := types.Validate(&params); len(errors) > 0 {
		return NewValidationError(errors)
	}

	vectors, err := h.service.EmbedTexts(c.Context(), params.Texts)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"embeddings": vectors, "count": len(vectors)})
}

// HandleEmbedDocument chunks and embeds content under a stored document.
// Re-embedding without force is a conflict.
func (h *EmbedHandler) HandleEmbedDocument(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return ErrInvalidID()
	}

	var params types.EmbedDocumentParams
	if c.BodyParser(&params) != nil {
		return ErrBadRequest()
	}
	if errs := types.Validate(&params); len(errs) > 0 {
		return NewValidationError(errs)
	}

	count, err := h.service.EmbedDocument(c.Context(), id, params.Content, params.Force)
	if err != nil {
		if errors.Is(err, model.ErrAlreadyEmbedded) {
			return ErrConflict("document already embedded; set force to replace")
		}
		return err
	}
	return c.JSON(fiber.Map{"document_id": id, "chunks": count})
}

func (h *EmbedHandler) HandleSearch(c *fiber.Ctx) error {
	var params types.SearchParams
	if c.BodyParser(&params) != nil {
		return ErrBadRequest()
	}
	if errors := types.Validate(&params); len(errors) > 0 {
		return NewValidationError(errors)
	}

	results, err := h.service.Search(c.Context(), params)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"results": results, "count": len(results)})
}

func (h *EmbedHandler) HandleDeleteVectors(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return ErrInvalidID()
	}

	deleted, err := h.service.DeleteDocumentVectors(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"document_id": id, "deleted": deleted})
}
