package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/leofalp/webagent/internal/stats"
	"github.com/leofalp/webagent/patterns/react"
)

// chatRequest is the chat endpoint's wire request.
type chatRequest struct {
	UserMessage string `json:"user_message"`
}

// chatResponse is the chat endpoint's wire response.
type chatResponse struct {
	Reply string `json:"reply"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "request body must be JSON with a user_message field"})
		return
	}
	if strings.TrimSpace(req.UserMessage) == "" {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "user_message cannot be empty"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	result, err := s.runner.Run(ctx, req.UserMessage)
	if err != nil {
		s.recordUsage(stats.Sample{Failed: true})
		status := statusForRunError(err)
		s.log.Error("chat request failed", zap.Error(err), zap.Int("status", status))
		respondJSON(w, status, errorResponse{Error: err.Error()})
		return
	}

	s.recordUsage(stats.Sample{
		Rounds:    result.Rounds,
		ToolCalls: result.ToolCalls,
		Usage:     result.Usage,
	})
	respondJSON(w, http.StatusOK, chatResponse{Reply: result.Reply})
}

// statusForRunError maps loop failures to response codes: the loop's own
// terminal conditions are server errors, a dead upstream is a bad gateway
// and an expired request deadline is a gateway timeout.
func statusForRunError(err error) int {
	switch {
	case errors.Is(err, react.ErrToolLoopExceeded), errors.Is(err, react.ErrEmptyResponse):
		return http.StatusInternalServerError
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

// handleChatHint answers GET /chat with a usage description so a browser
// visit explains how to call the endpoint instead of failing.
func (s *Server) handleChatHint(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"message": "this endpoint only accepts POST requests",
		"usage": map[string]any{
			"method":  http.MethodPost,
			"url":     "/chat",
			"headers": map[string]string{"Content-Type": "application/json"},
			"body":    map[string]string{"user_message": "your message"},
			"example": map[string]string{
				"curl": `curl -X POST http://localhost:8000/chat -H "Content-Type: application/json" -d '{"user_message": "Hello"}'`,
			},
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":           "ok",
		"model_configured": s.modelConfigured,
		"uptime":           time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, _ *http.Request) {
	summary, err := s.usage.Summary()
	if err != nil {
		s.log.Error("reading usage summary failed", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "usage summary unavailable"})
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

func (s *Server) recordUsage(sample stats.Sample) {
	if err := s.usage.Record(sample); err != nil {
		// Usage accounting must never fail a request.
		s.log.Warn("recording usage failed", zap.Error(err))
	}
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
