package types

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

type Validater interface {
	Validate() map[string]string
}

func Validate(v Validater) map[string]string {
	return v.Validate()
}

// ScrapeParams queues a single-URL scrape.
type ScrapeParams struct {
	URL          string `json:"url" validate:"required,url"`
	Source       string `json:"source" validate:"required"`
	DocumentType string `json:"document_type" validate:"required"`
}

// CrawlParams starts a full crawl of a source. An empty DocumentTypes slice
// means every type the source supports.
type CrawlParams struct {
	Source        string   `json:"source" validate:"required"`
	DocumentTypes []string `json:"document_types,omitempty"`
}

// EmbedTextParams embeds a single text.
type EmbedTextParams struct {
	Text string `json:"text" validate:"required"`
}

// EmbedBatchParams embeds several texts in one call.
type EmbedBatchParams struct {
	Texts []string `json:"texts" validate:"required,min=1"`
}

// EmbedDocumentParams chunks and embeds content for a stored document.
type EmbedDocumentParams struct {
	Content string `json:"content" validate:"required"`
	Force   bool   `json:"force"`
}

// SearchParams runs a similarity search over stored chunk vectors.
type SearchParams struct {
	Query      string  `json:"query" validate:"required"`
	Limit      int     `json:"limit" validate:"omitempty,min=1,max=100"`
	Threshold  float64 `json:"threshold" validate:"omitempty,min=0,max=1"`
	DocumentID string  `json:"document_id,omitempty" validate:"omitempty,uuid"`
}

func (params *ScrapeParams) Validate() map[string]string        { return validateStruct(params) }
func (params *CrawlParams) Validate() map[string]string         { return validateStruct(params) }
func (params *EmbedTextParams) Validate() map[string]string     { return validateStruct(params) }
func (params *EmbedBatchParams) Validate() map[string]string    { return validateStruct(params) }
func (params *EmbedDocumentParams) Validate() map[string]string { return validateStruct(params) }
func (params *SearchParams) Validate() map[string]string        { return validateStruct(params) }

func validateStruct(v any) map[string]string {
	validate := validator.New()
	if err := validate.Struct(v); err != nil {
		errs := err.(validator.ValidationErrors)
		errors := make(map[string]string)
		for _, e := range errs {
			errors[e.Field()] = fmt.Sprintf("failed on '%s' tag", e.Tag())
		}
		return errors
	}
	return nil
}
