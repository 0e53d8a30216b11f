package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/askdocs/askdocs/internal/api/handlers"
	"github.com/askdocs/askdocs/internal/api/middleware"
	"github.com/askdocs/askdocs/internal/config"
	"github.com/askdocs/askdocs/internal/document"
	"github.com/askdocs/askdocs/internal/rag"
	"github.com/askdocs/askdocs/internal/stt"
	"github.com/askdocs/askdocs/internal/vectorstore"
)

// Services bundles the core collaborators, constructed once at startup and
// shared read-only by all requests.
type Services struct {
	Pipeline    rag.Pipeline
	Summarizer  *rag.Summarizer
	Extractor   *document.Extractor
	Transcriber *stt.Service
	Store       vectorstore.VectorStore
}

type Router struct {
	mux   *chi.Mux
	db    *pgxpool.Pool
	redis *redis.Client
	cfg   *config.Config
	svcs  Services
}

func NewRouter(db *pgxpool.Pool, rdb *redis.Client, cfg *config.Config, svcs Services) *Router {
	return &Router{
		mux:   chi.NewRouter(),
		db:    db,
		redis: rdb,
		cfg:   cfg,
		svcs:  svcs,
	}
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))

	rl := middleware.NewRateLimiter(100, 200)
	r.Use(rl.Limit)

	// Health endpoints
	health := handlers.NewHealthHandler(rt.db, rt.redis)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	ingestH := handlers.NewIngestHandler(rt.svcs.Pipeline, rt.svcs.Extractor, rt.svcs.Transcriber, rt.svcs.Summarizer)
	queryH := handlers.NewQueryHandler(rt.svcs.Pipeline, rt.svcs.Store, rt.cfg.RAG.Collection)
	transcriptH := handlers.NewTranscriptHandler(rt.svcs.Summarizer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/documents", func(r chi.Router) {
			r.Post("/pdf", ingestH.UploadDocument)
			r.Post("/media", ingestH.UploadMedia)
		})

		r.Route("/rag", func(r chi.Router) {
			r.Post("/query", queryH.Query)
			r.Get("/answer", queryH.Answer)
			r.Get("/stats", queryH.Stats)
		})

		r.Route("/transcripts", func(r chi.Router) {
			r.Post("/summarize", transcriptH.Summarize)
		})
	})

	return r
}
