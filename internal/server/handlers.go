package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/asadmkhan/portfolio-chat-bot-backend-sub000/internal/ingest"
	"github.com/asadmkhan/portfolio-chat-bot-backend-sub000/internal/models"
)

func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := s.validateChatRequest(&req); msg != "" {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	if _, ok := w.(http.Flusher); !ok {
		s.respondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	writeSSEHeaders(w)

	for evt := range s.chat.Stream(r.Context(), req) {
		if err := writeSSEEvent(w, evt); err != nil {
			// Client is gone; the context cancellation stops the producer.
			s.logger.Debug("stream write failed", zap.Error(err))
			return
		}
	}
}

// validateChatRequest checks request parameters before any retrieval or
// generation work starts. Returns an error message, or "" when valid.
func (s *Server) validateChatRequest(req *models.ChatRequest) string {
	maxK := s.config.Retrieval.MaxK
	if req.K != nil && (*req.K < 1 || *req.K > maxK) {
		return fmt.Sprintf("k must be between 1 and %d", maxK)
	}
	if req.FetchK != nil && *req.FetchK < 1 {
		return "fetch_k must be at least 1"
	}
	if req.MMRLambda != nil && (*req.MMRLambda < 0 || *req.MMRLambda > 1) {
		return "mmr_lambda must be between 0 and 1"
	}
	if req.MaxCharsPerChunk != nil && *req.MaxCharsPerChunk < 1 {
		return "max_chars_per_chunk must be at least 1"
	}
	return ""
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var fb models.Feedback
	if err := json.NewDecoder(r.Body).Decode(&fb); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if fb.Rating != "up" && fb.Rating != "down" {
		s.respondError(w, http.StatusBadRequest, "rating must be \"up\" or \"down\"")
		return
	}

	if s.feedback != nil {
		if err := s.feedback.RecordFeedback(fb); err != nil {
			s.logger.Error("record feedback failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, "could not store feedback")
			return
		}
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	indices := make(map[string]interface{}, len(s.config.Chat.Languages))
	for _, lng := range s.config.Chat.Languages {
		manifest, err := ingest.ReadManifest(s.config.Documents.IndexRoot, lng)
		if err != nil {
			indices[lng] = map[string]interface{}{"available": false}
			continue
		}
		indices[lng] = map[string]interface{}{
			"available": true,
			"chunks":    manifest.Count,
			"model":     manifest.ModelName,
		}
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"indices": indices,
		"config": map[string]interface{}{
			"default_language": s.config.Chat.DefaultLanguage,
			"languages":        s.config.Chat.Languages,
			"default_k":        s.config.Retrieval.DefaultK,
			"max_k":            s.config.Retrieval.MaxK,
			"use_mmr":          s.config.Retrieval.UseMMROrDefault(),
			"chunk_size":       s.config.Documents.ChunkSize,
			"chunk_overlap":    s.config.Documents.ChunkOverlap,
			"embedding_model":  s.config.Embedding.Model,
			"ai_model":         s.config.AI.Model,
		},
	})
}
