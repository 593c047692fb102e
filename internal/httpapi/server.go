// Package httpapi exposes the agent over HTTP/JSON: session lifecycle,
// history and chat.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/petasbytes/overview-agent/internal/apperr"
	"github.com/petasbytes/overview-agent/internal/runner"
	"github.com/petasbytes/overview-agent/internal/shaper"
	"github.com/petasbytes/overview-agent/memory"
)

const maxRequestBytes int64 = 1 << 20

// Agent runs chat turns.
type Agent interface {
	Chat(ctx context.Context, req runner.Request) (*shaper.Envelope, error)
	ModelName() string
}

type server struct {
	logger *zap.Logger
	agent  Agent
	store  memory.Store
}

// NewHandler returns the API routes.
func NewHandler(logger *zap.Logger, agent Agent, store memory.Store) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &server{logger: logger.Named("http"), agent: agent, store: store}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /sessions", s.handleCreateSession)
	mux.HandleFunc("GET /sessions", s.handleListSessions)
	mux.HandleFunc("GET /sessions/{id}", s.handleGetSession)
	mux.HandleFunc("DELETE /sessions/{id}", s.handleDeleteSession)
	mux.HandleFunc("GET /sessions/{id}/history", s.handleHistory)
	mux.HandleFunc("POST /chat", s.handleChat)
	return mux
}

func NewServer(logger *zap.Logger, addr string, agent Agent, store memory.Store) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           NewHandler(logger, agent, store),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

type healthResponse struct {
	Status         string `json:"status"`
	AgentModel     string `json:"agent_model"`
	ActiveSessions int    `json:"active_sessions"`
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	threads, err := s.store.ListThreads(r.Context(), "")
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:         "healthy",
		AgentModel:     s.agent.ModelName(),
		ActiveSessions: len(threads),
	})
}

type createSessionRequest struct {
	UserID string `json:"user_id"`
}

type createSessionResponse struct {
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
	CreatedAt      string `json:"created_at"`
	Message        string `json:"message"`
}

func (s *server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	th, err := s.store.CreateThread(r.Context(), req.UserID)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, createSessionResponse{
		ConversationID: th.ID,
		UserID:         th.Owner,
		CreatedAt:      th.CreatedAt.UTC().Format(time.RFC3339Nano),
		Message:        "Conversation created successfully",
	})
}

type sessionInfo struct {
	SessionID    string `json:"session_id"`
	UserID       string `json:"user_id"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
	MessageCount int    `json:"message_count"`
}

func toSessionInfo(info memory.ThreadInfo) sessionInfo {
	return sessionInfo{
		SessionID:    info.ID,
		UserID:       info.Owner,
		CreatedAt:    info.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:    info.UpdatedAt.UTC().Format(time.RFC3339Nano),
		MessageCount: info.MessageCount,
	}
}

func (s *server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	threads, err := s.store.ListThreads(r.Context(), r.URL.Query().Get("user_id"))
	if err != nil {
		s.fail(w, err)
		return
	}
	out := make([]sessionInfo, 0, len(threads))
	for _, th := range threads {
		out = append(out, toSessionInfo(th))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	info, err := s.store.GetThread(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionInfo(info))
}

func (s *server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.DeleteThread(r.Context(), id); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Session '%s' deleted successfully", id),
	})
}

type historyMessage struct {
	Role      string            `json:"role"`
	Content   string            `json:"content"`
	Timestamp string            `json:"timestamp,omitempty"`
	ToolCalls []memory.ToolCall `json:"tool_calls,omitempty"`
}

type historyResponse struct {
	ConversationID string           `json:"conversation_id"`
	Messages       []historyMessage `json:"messages"`
}

func (s *server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	withMeta := false
	if v := r.URL.Query().Get("include_metadata"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "include_metadata must be a boolean")
			return
		}
		withMeta = b
	}

	turns, err := s.store.GetHistory(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return
	}
	out := historyResponse{ConversationID: id, Messages: make([]historyMessage, 0, len(turns))}
	for _, t := range turns {
		m := historyMessage{Role: string(t.Role), Content: t.Text}
		if withMeta {
			m.Timestamp = t.Timestamp.UTC().Format(time.RFC3339Nano)
			m.ToolCalls = t.ToolCalls
		}
		out.Messages = append(out.Messages, m)
	}
	writeJSON(w, http.StatusOK, out)
}

// chatRequest accepts both the conversation_id/text names used by existing
// clients and thread_id/message.
type chatRequest struct {
	Text           string `json:"text"`
	Message        string `json:"message"`
	UserID         string `json:"user_id"`
	AccountID      string `json:"account_id"`
	FacilityID     string `json:"facility_id"`
	ConversationID string `json:"conversation_id"`
	ThreadID       string `json:"thread_id"`
}

func (c chatRequest) toRunner() runner.Request {
	req := runner.Request{
		Message:    c.Text,
		UserID:     c.UserID,
		AccountID:  c.AccountID,
		FacilityID: c.FacilityID,
		ThreadID:   c.ConversationID,
	}
	if req.Message == "" {
		req.Message = c.Message
	}
	if req.ThreadID == "" {
		req.ThreadID = c.ThreadID
	}
	return req
}

// chatResponse is the envelope plus the conversation_id and final_response
// aliases.
type chatResponse struct {
	ConversationID string `json:"conversation_id"`
	FinalResponse  string `json:"final_response"`
	shaper.Envelope
}

func (s *server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	env, err := s.agent.Chat(r.Context(), req.toRunner())
	if err != nil && env == nil {
		s.fail(w, err)
		return
	}
	if err != nil {
		// Degraded turn: the envelope already explains the failure.
		s.logger.Warn("chat degraded",
			zap.String("thread_id", env.ThreadID),
			zap.String("kind", string(apperr.KindOf(err))),
			zap.Error(err))
	}
	writeJSON(w, http.StatusOK, chatResponse{
		ConversationID: env.ThreadID,
		FinalResponse:  env.FinalText,
		Envelope:       *env,
	})
}

func (s *server) fail(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperr.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, apperr.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusServiceUnavailable
	}
	if status >= 500 {
		s.logger.Error("request failed", zap.Error(err))
	}
	writeError(w, status, err.Error())
}

func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	if dec.More() {
		return errors.New("invalid json: trailing content")
	}
	return nil
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
