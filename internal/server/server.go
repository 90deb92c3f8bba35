// Package server provides the HTTP API: the SSE chat stream, feedback intake,
// and status endpoints.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/asadmkhan/portfolio-chat-bot-backend-sub000/internal/chat"
	"github.com/asadmkhan/portfolio-chat-bot-backend-sub000/internal/config"
	"github.com/asadmkhan/portfolio-chat-bot-backend-sub000/internal/models"
)

// FeedbackRecorder persists user feedback.
type FeedbackRecorder interface {
	RecordFeedback(fb models.Feedback) error
}

// Server is the HTTP front of the chat service.
type Server struct {
	chat     *chat.Service
	feedback FeedbackRecorder // nil when analytics is disabled
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server
}

// NewServer creates a server with the given dependencies. feedback may be nil.
func NewServer(chatSvc *chat.Service, feedback FeedbackRecorder, cfg *config.Config, logger *zap.Logger) *Server {
	return &Server{
		chat:     chatSvc,
		feedback: feedback,
		config:   cfg,
		logger:   logger,
	}
}

// Router builds the HTTP handler. The chat stream route carries no timeout
// middleware: an SSE response is expected to outlive any fixed deadline.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Post("/v1/chat/stream", s.handleChatStream)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))
		r.Post("/v1/analytics/feedback", s.handleFeedback)
		r.Get("/v1/status", s.handleStatus)
		r.Get("/health", s.handleHealth)
	})

	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("write response failed", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
