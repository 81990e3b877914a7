package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"gitlab.com/gharnivas/api/estate-crm-leads/internal/board"
	"gitlab.com/gharnivas/api/estate-crm-leads/internal/config"
	"gitlab.com/gharnivas/api/estate-crm-leads/internal/storage"
)

// Server is the HTTP surface of the board: view reads, drag-drop mutations,
// manual lead entry and notes.
type Server struct {
	httpServer *http.Server
	router     chi.Router
	board      *board.Board
	noteRepo   storage.NoteRepo
	adminRepo  storage.AdminRepo
	logger     *zap.Logger
}

// NewServer creates the API server and mounts all routes.
func NewServer(cfg config.HTTPConfig, b *board.Board, noteRepo storage.NoteRepo, adminRepo storage.AdminRepo, logger *zap.Logger) *Server {
	s := &Server{
		board:     b,
		noteRepo:  noteRepo,
		adminRepo: adminRepo,
		logger:    logger.Named("httpapi"),
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Admin-ID", "X-Request-ID"},
	}))
	r.Use(s.requestContext)
	r.Use(metricsMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/board", s.handleGetBoard)
		r.Get("/board/pipeline", s.handleGetPipelineBoard)
		r.Post("/board/drop", s.handleDrop)
		r.Post("/board/refresh", s.handleRefresh)

		r.Post("/leads", s.handleCreateLead)
		r.Post("/leads/assign", s.handleAssignLeads)
		r.Post("/leads/{id}/status", s.handleSetStatus)
		r.Post("/leads/{id}/notes", s.handleAddNote)
		r.Get("/leads/{id}/notes", s.handleListNotes)

		r.Get("/admins", s.handleListAdmins)
		r.Get("/admins/accounts", s.handleListAdminAccounts)
	})

	s.router = r
	s.httpServer = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins serving in a background goroutine.
func (s *Server) Start() {
	go func() {
		s.logger.Info("Starting API server", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("API server error", zap.Error(err))
		}
	}()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping API server")
	return s.httpServer.Shutdown(ctx)
}
