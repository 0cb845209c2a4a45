package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/askmynotes/askmynotes/internal/api/handlers"
	appMiddleware "github.com/askmynotes/askmynotes/internal/api/middlewares"
	"github.com/askmynotes/askmynotes/internal/config"
	db "github.com/askmynotes/askmynotes/internal/core/database"
	"github.com/askmynotes/askmynotes/internal/core/ingestion_engine"
	"github.com/askmynotes/askmynotes/internal/core/llm"
	objectclient "github.com/askmynotes/askmynotes/internal/core/object-client"
	"github.com/askmynotes/askmynotes/internal/core/retrieval"
)

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
}

// NewServer builds and wires all routes.
func NewServer(cfg *config.Config, dbClient db.DbClient, obj objectclient.ObjectClient, ing ingestion_engine.Ingestor, retriever *retrieval.Retriever, provider llm.Provider) *Server {
	authHandler := handlers.NewAuthHandler(dbClient, cfg)
	subjectHandler := handlers.NewSubjectHandler(dbClient, obj, cfg)
	noteHandler := handlers.NewNoteHandler(dbClient, obj, ing, cfg)
	chatHandler := handlers.NewChatHandler(dbClient, retriever, provider)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// public endpoints
	r.Post("/user/signup", authHandler.Signup)
	r.Post("/user/login", authHandler.Login)

	// protected endpoints
	r.Route("/api", func(api chi.Router) {
		api.Group(func(protected chi.Router) {
			protected.Use(appMiddleware.JWTMiddleware(cfg.JWTSecret))

			protected.Post("/subjects", subjectHandler.Create)
			protected.Get("/subjects", subjectHandler.List)
			protected.Delete("/subjects/{subjectID}", subjectHandler.Delete)

			protected.Post("/notes/{subjectID}/upload", noteHandler.Upload)
			protected.Get("/notes/{subjectID}", noteHandler.List)
			protected.Delete("/notes/{subjectID}/{noteID}", noteHandler.Delete)
			protected.Post("/notes/{subjectID}/reconcile", noteHandler.Reconcile)

			protected.Post("/chat/{subjectID}/query", chatHandler.Query)
		})
	})

	httpSrv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	return &Server{httpServer: httpSrv}
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	log.Info().Str("addr", s.httpServer.Addr).Msg("HTTP server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
