package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nam-htran/DomainAIAgent/internal/handlers"
	"github.com/nam-htran/DomainAIAgent/internal/rag"
	"github.com/nam-htran/DomainAIAgent/internal/session"
	"github.com/nam-htran/DomainAIAgent/internal/vectorstore"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Engine      rag.Engine
	Pipeline    handlers.Ingestor
	Sessions    *session.Store
	VectorStore vectorstore.VectorStore
	Collection  string
}

// NewRouter creates the HTTP router with all API routes registered.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware)
	r.Use(CORS)

	answerHandler := handlers.NewAnswerHandler(deps.Engine, deps.Sessions)
	ingestHandler := handlers.NewIngestHandler(deps.Pipeline)
	healthHandler := handlers.NewHealthHandler(deps.VectorStore, deps.Collection)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodPost, "/answer", answerHandler)
		r.Method(http.MethodPost, "/ingest", ingestHandler)
		r.Method(http.MethodGet, "/health", healthHandler)
	})

	return r
}
