package server

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"openjuris/app/api"
	"openjuris/fetch"
	"openjuris/jobs"
	"openjuris/model"
	"openjuris/scrape"
	"openjuris/store"
	"openjuris/types"
)

var config = fiber.Config{
	ErrorHandler: api.ErrorHandler,
}

// Server wires the storage, scrape and embedding layers behind the HTTP API.
type Server struct {
	cfg    types.Config
	logger *slog.Logger
	app    *fiber.App
	db     *store.PostgresStore
}

func NewServer(cfg types.Config, logger *slog.Logger) *Server {
	return &Server{
		cfg:    cfg,
		logger: logger,
	}
}

func (s *Server) Run() error {
	ctx := context.Background()

	db, err := store.NewPostgresStore(ctx, s.cfg.PostgresDSN, s.cfg.EmbeddingDimension, s.logger)
	if err != nil {
		return err
	}
	s.db = db
	if err := db.Init(ctx); err != nil {
		return err
	}

	embedder, err := model.NewEmbedder(s.cfg)
	if err != nil {
		return err
	}
	ollama := model.NewOllamaClient(s.cfg)

	var (
		tracker      = jobs.NewTracker()
		client       = fetch.NewClient(s.cfg)
		orch         = scrape.NewOrchestrator(s.cfg, client, tracker, db, s.logger)
		embedService = model.NewEmbedService(s.cfg, db, embedder, s.logger)
		subjects     = model.NewSubjectExtractor(ollama, s.logger)

		app           = fiber.New(config)
		checkHandler  = api.NewCheckHandler()
		scrapeHandler = api.NewScrapeHandler(orch, tracker)
		docHandler    = api.NewDocumentHandler(db, subjects)
		embedHandler  = api.NewEmbedHandler(embedService)

		check = app.Group("/check")
		apiv1 = app.Group("/api/v1")
	)
	s.app = app

	check.Get("/healthy", checkHandler.HandleHealthy)

	apiv1.Post("/scrape", scrapeHandler.HandleScrape)
	apiv1.Post("/crawl", scrapeHandler.HandleCrawl)
	apiv1.Get("/crawl/:id", scrapeHandler.HandleCrawlStatus)
	apiv1.Delete("/crawl/:id", scrapeHandler.HandleCancelCrawl)
	apiv1.Get("/jobs", scrapeHandler.HandleListJobs)
	apiv1.Get("/jobs/:id", scrapeHandler.HandleGetJob)
	apiv1.Post("/jobs/:id/retry", scrapeHandler.HandleRetryJob)

	apiv1.Get("/documents", docHandler.HandleListDocuments)
	apiv1.Get("/documents/:id", docHandler.HandleGetDocument)
	apiv1.Get("/documents/:id/parts", docHandler.HandleGetDocumentParts)
	apiv1.Post("/documents/:id/subjects", docHandler.HandleExtractSubjects)

	apiv1.Post("/embeddings/text", embedHandler.HandleEmbedText)
	apiv1.Post("/embeddings/batch", embedHandler.HandleEmbedBatch)
	apiv1.Post("/documents/:id/embed", embedHandler.HandleEmbedDocument)
	apiv1.Delete("/documents/:id/vectors", embedHandler.HandleDeleteVectors)
	apiv1.Post("/search", embedHandler.HandleSearch)

	s.logger.Info("server listening", "addr", s.cfg.ServerAddr)
	return app.Listen(s.cfg.ServerAddr)
}

func (s *Server) Stop() {
	if s.app != nil {
		if err := s.app.Shutdown(); err != nil {
			s.logger.Error("server shutdown failed", "error", err)
		}
	}
	if s.db != nil {
		s.db.Close()
	}
	s.logger.Info("server stopped")
}
