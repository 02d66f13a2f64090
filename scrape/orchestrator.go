package scrape

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"openjuris/jobs"
	"openjuris/types"
)

// Fetcher retrieves one URL's body. Satisfied by fetch.Client.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// DocumentSink persists parsed documents and answers URL-identity lookups.
// Satisfied by store.PostgresStore.
type DocumentSink interface {
	SaveDocument(ctx context.Context, doc *types.ScrapedDocument) (uuid.UUID, error)
	FindDocumentIDByURL(ctx context.Context, url string) (uuid.UUID, bool, error)
}

// Orchestrator drives the scrape pipeline: fetch, parse, persist, with the
// job tracker guarding per-URL idempotence.
type Orchestrator struct {
	cfg     types.Config
	fetcher Fetcher
	tracker *jobs.Tracker
	sink    DocumentSink
	logger  *slog.Logger
}

func NewOrchestrator(cfg types.Config, fetcher Fetcher, tracker *jobs.Tracker, sink DocumentSink, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		cfg:     cfg,
		fetcher: fetcher,
		tracker: tracker,
		sink:    sink,
		logger:  logger,
	}
}

// ScrapeSingle runs the full pipeline for one URL and returns the job's final
// snapshot. Failures never escape as errors; they are recorded on the job.
// A URL whose job is already COMPLETED or held IN_PROGRESS by another worker
// is returned as-is.
func (o *Orchestrator) ScrapeSingle(ctx context.Context, rawURL string, src Source, docType types.DocumentType) types.ScrapeJob {
	job, created := o.tracker.CreateIfAbsent(rawURL)

	switch job.Status {
	case types.JobCompleted, types.JobInProgress:
		return job
	case types.JobFailed:
		if err := o.tracker.Retry(job.ID); err != nil {
			return o.snapshot(job.ID)
		}
	}

	if err := o.tracker.MarkInProgress(job.ID); err != nil {
		// Lost the claim race to another worker.
		return o.snapshot(job.ID)
	}
	if created {
		o.logger.Info("scrape started", "url", rawURL, "doc_type", docType, "job_id", job.ID)
	} else {
		o.logger.Info("scrape retrying", "url", rawURL, "job_id", job.ID, "retries", job.RetryCount)
	}

	// A document already stored for this URL completes the job without I/O
	// against the publisher.
	if docID, found, err := o.sink.FindDocumentIDByURL(ctx, rawURL); err == nil && found {
		o.tracker.MarkCompleted(job.ID, docID)
		return o.snapshot(job.ID)
	}

	raw, err := o.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return o.fail(job.ID, rawURL, fmt.Errorf("fetch: %w", err))
	}

	parser := NewParser(src)
	doc, err := parser.Parse(raw, rawURL, docType)
	if err != nil {
		return o.fail(job.ID, rawURL, fmt.Errorf("parse: %w", err))
	}
	if doc == nil {
		return o.fail(job.ID, rawURL, fmt.Errorf("parse: no %s citation found on page", docType))
	}

	docID, err := o.sink.SaveDocument(ctx, doc)
	if err != nil {
		return o.fail(job.ID, rawURL, fmt.Errorf("save: %w", err))
	}

	if err := o.tracker.MarkCompleted(job.ID, docID); err != nil {
		o.logger.Error("job state out of sync", "job_id", job.ID, "error", err)
	}
	o.logger.Info("scrape completed", "url", rawURL, "document_id", docID, "citation", doc.CanonicalCitation)
	return o.snapshot(job.ID)
}

func (o *Orchestrator) fail(jobID uuid.UUID, rawURL string, err error) types.ScrapeJob {
	o.logger.Warn("scrape failed", "url", rawURL, "job_id", jobID, "error", err)
	if terr := o.tracker.MarkFailed(jobID, err.Error()); terr != nil {
		o.logger.Error("job state out of sync", "job_id", jobID, "error", terr)
	}
	return o.snapshot(jobID)
}

func (o *Orchestrator) snapshot(jobID uuid.UUID) types.ScrapeJob {
	job, err := o.tracker.Get(jobID)
	if err != nil {
		return types.ScrapeJob{ID: jobID, Status: types.JobFailed, ErrorMessage: err.Error()}
	}
	return job
}

// CrawlResult is one per-document outcome emitted during a crawl.
type CrawlResult struct {
	URL string
	Job types.ScrapeJob
}

// CrawlRun is a handle on an in-flight crawl. Results stream on a channel as
// documents finish; counts are readable at any time.
type CrawlRun struct {
	ID uuid.UUID

	results chan CrawlResult
	cancel  context.CancelFunc

	mu        sync.Mutex
	succeeded int
	failed    int
	done      bool
}

// Results streams per-document outcomes. The channel closes when the crawl
// finishes or is cancelled.
func (r *CrawlRun) Results() <-chan CrawlResult { return r.results }

// Cancel stops the crawl after the documents currently in flight complete.
func (r *CrawlRun) Cancel() { r.cancel() }

// Counts reports progress so far and whether the crawl has finished.
func (r *CrawlRun) Counts() (succeeded, failed int, done bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.succeeded, r.failed, r.done
}

func (r *CrawlRun) record(job types.ScrapeJob) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch job.Status {
	case types.JobCompleted:
		r.succeeded++
	case types.JobFailed:
		r.failed++
	}
}

func (r *CrawlRun) finish() {
	r.mu.Lock()
	r.done = true
	r.mu.Unlock()
	close(r.results)
}

// Crawl discovers document URLs from the source's index pages for the given
// types and scrapes each through the single-URL path, bounded by the
// configured concurrency. Unsupported document types fail before any network
// traffic. One document's failure never stops the others.
func (o *Orchestrator) Crawl(ctx context.Context, src Source, docTypes []types.DocumentType) (*CrawlRun, error) {
	if len(docTypes) == 0 {
		// The default expansion only takes types the parser can handle.
		// Indexed types without a citation pattern table (jurisprudence on
		// the e-library) must be requested explicitly to fail loudly.
		for _, dt := range src.SupportedTypes() {
			if _, ok := PatternFor(dt); ok {
				docTypes = append(docTypes, dt)
			}
		}
		if len(docTypes) == 0 {
			return nil, fmt.Errorf("source %s indexes no parseable document types", src.Name)
		}
	}

	type indexTarget struct {
		docType types.DocumentType
		url     string
	}
	targets := make([]indexTarget, 0, len(docTypes))
	for _, dt := range docTypes {
		indexURL, err := src.IndexURL(dt)
		if err != nil {
			return nil, err
		}
		if _, ok := PatternFor(dt); !ok {
			return nil, fmt.Errorf("no citation patterns registered for document type %s", dt)
		}
		targets = append(targets, indexTarget{docType: dt, url: indexURL})
	}

	crawlCtx, cancel := context.WithCancel(ctx)
	run := &CrawlRun{
		ID:      uuid.New(),
		results: make(chan CrawlResult),
		cancel:  cancel,
	}

	go func() {
		defer run.finish()
		defer cancel()

		limit := o.cfg.FetchConcurrency
		if limit <= 0 {
			limit = 1
		}

		seen := make(map[string]bool)
		eg, egCtx := errgroup.WithContext(crawlCtx)
		eg.SetLimit(limit)
		// Runs before cancel and finish, so the results channel never closes
		// while a worker still holds it.
		defer eg.Wait()

		for _, target := range targets {
			links, err := o.discoverLinks(crawlCtx, src, target.url)
			if err != nil {
				o.logger.Warn("index fetch failed", "source", src.Name, "doc_type", target.docType, "url", target.url, "error", err)
				continue
			}
			o.logger.Info("index discovered", "source", src.Name, "doc_type", target.docType, "links", len(links))

			for _, link := range links {
				if seen[link] {
					continue
				}
				seen[link] = true

				select {
				case <-crawlCtx.Done():
					return
				default:
				}

				docURL := link
				docType := target.docType
				eg.Go(func() error {
					job := o.ScrapeSingle(egCtx, docURL, src, docType)
					run.record(job)
					select {
					case run.results <- CrawlResult{URL: docURL, Job: job}:
					case <-crawlCtx.Done():
					}
					return nil
				})
			}
		}
	}()

	return run, nil
}

// discoverLinks fetches an index page and extracts document URLs, following
// one level of intermediate index when the source uses month pages.
func (o *Orchestrator) discoverLinks(ctx context.Context, src Source, indexURL string) ([]string, error) {
	links, err := o.pageLinks(ctx, src, indexURL, src.IndexSelector)
	if err != nil {
		return nil, err
	}
	if src.SubIndexSelector == "" {
		return links, nil
	}

	var docs []string
	seen := make(map[string]bool)
	for _, sub := range links {
		subLinks, err := o.pageLinks(ctx, src, sub, src.SubIndexSelector)
		if err != nil {
			o.logger.Warn("sub-index fetch failed", "url", sub, "error", err)
			continue
		}
		for _, link := range subLinks {
			if !seen[link] {
				seen[link] = true
				docs = append(docs, link)
			}
		}
	}
	return docs, nil
}

func (o *Orchestrator) pageLinks(ctx context.Context, src Source, pageURL, selector string) ([]string, error) {
	raw, err := o.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return extractLinks(raw, pageURL, src, selector)
}

// extractLinks pulls anchor targets from an index page, resolves them against
// the page URL, and keeps only http(s) links inside the source's domain.
func extractLinks(raw []byte, pageURL string, src Source, selector string) ([]string, error) {
	gq, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse index %s: %w", pageURL, err)
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse index url %s: %w", pageURL, err)
	}

	scope := gq.Selection
	if selector != "" {
		if scoped := gq.Find(selector); scoped.Length() > 0 {
			scope = scoped
		}
	}

	var out []string
	seen := make(map[string]bool)
	scope.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		resolved := base.ResolveReference(ref)
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return
		}
		resolved.Fragment = ""
		link := resolved.String()
		if link == pageURL || seen[link] || !src.InDomain(link) {
			return
		}
		seen[link] = true
		out = append(out, link)
	})
	return out, nil
}
