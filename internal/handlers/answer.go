package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/nam-htran/DomainAIAgent/internal/contextutil"
	"github.com/nam-htran/DomainAIAgent/internal/rag"
	"github.com/nam-htran/DomainAIAgent/internal/session"
)

// AnswerHandler handles HTTP requests for question answering.
type AnswerHandler struct {
	engine   rag.Engine
	sessions *session.Store
}

// NewAnswerHandler creates a new AnswerHandler.
func NewAnswerHandler(engine rag.Engine, sessions *session.Store) *AnswerHandler {
	return &AnswerHandler{
		engine:   engine,
		sessions: sessions,
	}
}

// AnswerRequest represents the HTTP request payload for question answering.
// SessionID is optional: omit it to start a new conversation.
type AnswerRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Question  string `json:"question"`
}

// AnswerResponse represents the HTTP response payload for question answering.
type AnswerResponse struct {
	SessionID       string         `json:"session_id"`
	StandaloneQuery string         `json:"standalone_query"`
	Answer          string         `json:"answer"`
	Grounded        bool           `json:"grounded"`
	Citations       []rag.Citation `json:"citations"`
	FollowUps       []string       `json:"followups"`
}

// ServeHTTP answers one question within a conversation. The question and the
// generated answer are appended to the session only after the pipeline
// succeeds, so a failed request leaves the conversation unchanged.
func (h *AnswerHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		logger.WarnContext(ctx, "empty question in request")
		writeError(ctx, w, http.StatusBadRequest, "Question is required")
		return
	}

	var sess *session.Session
	if req.SessionID == "" {
		sess = h.sessions.Create()
		logger.InfoContext(ctx, "created session", "session_id", sess.ID)
	} else {
		var ok bool
		sess, ok = h.sessions.Get(req.SessionID)
		if !ok {
			logger.WarnContext(ctx, "unknown session", "session_id", req.SessionID)
			writeError(ctx, w, http.StatusNotFound, "Session not found")
			return
		}
	}

	answer, err := h.engine.Answer(ctx, sess.Turns(), req.Question)
	if err != nil {
		logger.ErrorContext(ctx, "answer pipeline failed", "session_id", sess.ID, "error", err)
		if errors.Is(err, rag.ErrExternalCall) {
			writeError(ctx, w, http.StatusBadGateway, "Could not generate an answer")
			return
		}
		writeError(ctx, w, http.StatusInternalServerError, "Failed to process the question")
		return
	}

	sess.Append(session.RoleUser, req.Question)
	sess.Append(session.RoleAssistant, answer.Answer)

	citations := answer.Citations
	if citations == nil {
		citations = []rag.Citation{}
	}
	followUps := answer.FollowUps
	if followUps == nil {
		followUps = []string{}
	}

	writeJSON(ctx, w, http.StatusOK, AnswerResponse{
		SessionID:       sess.ID,
		StandaloneQuery: answer.StandaloneQuery,
		Answer:          answer.Answer,
		Grounded:        answer.Grounded,
		Citations:       citations,
		FollowUps:       followUps,
	})
}
