package api

import (
	"context"
	"fmt"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"openjuris/jobs"
	"openjuris/scrape"
	"openjuris/types"
)

// ScrapeHandler exposes the scrape and crawl pipeline over HTTP. Scrapes run
// in the background; the response is the job snapshot to poll.
type ScrapeHandler struct {
	orch    *scrape.Orchestrator
	tracker *jobs.Tracker

	mu   sync.Mutex
	runs map[uuid.UUID]*scrape.CrawlRun
}

func NewScrapeHandler(orch *scrape.Orchestrator, tracker *jobs.Tracker) *ScrapeHandler {
	return &ScrapeHandler{
		orch:    orch,
		tracker: tracker,
		runs:    make(map[uuid.UUID]*scrape.CrawlRun),
	}
}

func (h *ScrapeHandler) HandleScrape(c *fiber.Ctx) error {
	var params types.ScrapeParams
	if c.BodyParser(&params) != nil {
		return ErrBadRequest()
	}
	if errors := types.Validate(&params); len(errors) > 0 {
		return NewValidationError(errors)
	}

	src, err := scrape.SourceByName(types.SourceName(params.Source))
	if err != nil {
		return NewError(fiber.StatusBadRequest, err.Error())
	}
	docType, ok := types.ParseDocumentType(params.DocumentType)
	if !ok {
		return NewError(fiber.StatusBadRequest, fmt.Sprintf("unknown document type %q", params.DocumentType))
	}

	job, _ := h.tracker.CreateIfAbsent(params.URL)
	if job.Status == types.JobPending || job.Status == types.JobFailed {
		go h.orch.ScrapeSingle(context.Background(), params.URL, src, docType)
	}

	return c.Status(fiber.StatusAccepted).JSON(job)
}

func (h *ScrapeHandler) HandleCrawl(c *fiber.Ctx) error {
	var params types.CrawlParams
	if c.BodyParser(&params) != nil {
		return ErrBadRequest()
	}
	if errors := types.Validate(&params); len(errors) > 0 {
		return NewValidationError(errors)
	}

	src, err := scrape.SourceByName(types.SourceName(params.Source))
	if err != nil {
		return NewError(fiber.StatusBadRequest, err.Error())
	}

	docTypes := make([]types.DocumentType, 0, len(params.DocumentTypes))
	for _, name := range params.DocumentTypes {
		docType, ok := types.ParseDocumentType(name)
		if !ok {
			return NewError(fiber.StatusBadRequest, fmt.Sprintf("unknown document type %q", name))
		}
		docTypes = append(docTypes, docType)
	}

	run, err := h.orch.Crawl(context.Background(), src, docTypes)
	if err != nil {
		return NewError(fiber.StatusBadRequest, err.Error())
	}

	h.mu.Lock()
	h.runs[run.ID] = run
	h.mu.Unlock()

	// Drain results so the crawl never blocks on an unread channel.
	go func() {
		for range run.Results() {
		}
	}()

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"crawl_id": run.ID})
}

func (h *ScrapeHandler) HandleCrawlStatus(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return ErrInvalidID()
	}

	h.mu.Lock()
	run, ok := h.runs[id]
	h.mu.Unlock()
	if !ok {
		return ErrNotFound(id, "crawl")
	}

	succeeded, failed, done := run.Counts()
	return c.JSON(fiber.Map{
		"crawl_id":  run.ID,
		"succeeded": succeeded,
		"failed":    failed,
		"done":      done,
	})
}

func (h *ScrapeHandler) HandleCancelCrawl(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return ErrInvalidID()
	}

	h.mu.Lock()
	run, ok := h.runs[id]
	h.mu.Unlock()
	if !ok {
		return ErrNotFound(id, "crawl")
	}

	run.Cancel()
	return c.JSON(fiber.Map{"result": "cancelling"})
}

func (h *ScrapeHandler) HandleGetJob(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return ErrInvalidID()
	}

	job, err := h.tracker.Get(id)
	if err != nil {
		return ErrNotFound(id, "job")
	}
	return c.JSON(job)
}

func (h *ScrapeHandler) HandleListJobs(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	status := c.Query("status")

	switch types.JobStatus(status) {
	case types.JobPending:
		return c.JSON(h.tracker.Pending(limit))
	case types.JobFailed:
		return c.JSON(h.tracker.Failed(limit))
	default:
		return NewError(fiber.StatusBadRequest, "status must be PENDING or FAILED")
	}
}

func (h *ScrapeHandler) HandleRetryJob(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return ErrInvalidID()
	}

	if err := h.tracker.Retry(id); err != nil {
		if err == jobs.ErrNotFound {
			return ErrNotFound(id, "job")
		}
		return ErrConflict(err.Error())
	}

	job, err := h.tracker.Get(id)
	if err != nil {
		return ErrNotFound(id, "job")
	}
	return c.JSON(job)
}
