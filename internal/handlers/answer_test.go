package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nam-htran/DomainAIAgent/internal/rag"
	"github.com/nam-htran/DomainAIAgent/internal/session"
)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// stubEngine implements rag.Engine with a canned function.
type stubEngine struct {
	answer func(ctx context.Context, turns []session.Turn, query string) (rag.AnswerResponse, error)
}

func (s *stubEngine) Answer(ctx context.Context, turns []session.Turn, query string) (rag.AnswerResponse, error) {
	return s.answer(ctx, turns, query)
}

func postAnswer(t *testing.T, handler http.Handler, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/answer", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestAnswerHandlerNewSession(t *testing.T) {
	sessions := session.NewStore()
	engine := &stubEngine{
		answer: func(_ context.Context, turns []session.Turn, query string) (rag.AnswerResponse, error) {
			if len(turns) != 0 {
				t.Errorf("new session must start with no history, got %d turns", len(turns))
			}
			if query != "What is Go?" {
				t.Errorf("query = %q", query)
			}
			return rag.AnswerResponse{
				StandaloneQuery: query,
				Answer:          "A programming language.",
				Grounded:        true,
				Citations:       []rag.Citation{{Source: "go.txt", Text: "Go is a language.", Score: 0.9, Rank: 1}},
				FollowUps:       []string{"Who made it?"},
			}, nil
		},
	}
	handler := NewAnswerHandler(engine, sessions)

	w := postAnswer(t, handler, AnswerRequest{Question: "What is Go?"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp AnswerResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.SessionID == "" {
		t.Error("response missing session_id")
	}
	if resp.Answer != "A programming language." || !resp.Grounded {
		t.Errorf("unexpected response: %+v", resp)
	}

	// Both turns must now be recorded on the new session.
	sess, ok := sessions.Get(resp.SessionID)
	if !ok {
		t.Fatalf("session %q not registered", resp.SessionID)
	}
	turns := sess.Turns()
	if len(turns) != 2 {
		t.Fatalf("session has %d turns, want 2", len(turns))
	}
	if turns[0].Role != session.RoleUser || turns[0].Content != "What is Go?" {
		t.Errorf("first turn: %+v", turns[0])
	}
	if turns[1].Role != session.RoleAssistant || turns[1].Content != "A programming language." {
		t.Errorf("second turn: %+v", turns[1])
	}
}

func TestAnswerHandlerExistingSessionPassesHistory(t *testing.T) {
	sessions := session.NewStore()
	sess := sessions.Create()
	sess.Append(session.RoleUser, "What is Go?")
	sess.Append(session.RoleAssistant, "A programming language.")

	engine := &stubEngine{
		answer: func(_ context.Context, turns []session.Turn, _ string) (rag.AnswerResponse, error) {
			if len(turns) != 2 {
				t.Errorf("expected 2 history turns, got %d", len(turns))
			}
			return rag.AnswerResponse{StandaloneQuery: "Who made Go?", Answer: "Google."}, nil
		},
	}
	handler := NewAnswerHandler(engine, sessions)

	w := postAnswer(t, handler, AnswerRequest{SessionID: sess.ID, Question: "Who made it?"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp AnswerResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.SessionID != sess.ID {
		t.Errorf("session_id = %q, want %q", resp.SessionID, sess.ID)
	}
	if sess.Len() != 4 {
		t.Errorf("session has %d turns, want 4", sess.Len())
	}
	// Empty slices serialize as [], never null.
	if resp.Citations == nil || resp.FollowUps == nil {
		t.Errorf("citations/followups must be non-nil: %+v", resp)
	}
}

func TestAnswerHandlerErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       any
		engine     *stubEngine
		wantStatus int
	}{
		{
			name:       "invalid JSON",
			body:       "not json",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "empty question",
			body:       AnswerRequest{Question: "   "},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown session",
			body:       AnswerRequest{SessionID: "missing", Question: "hello"},
			wantStatus: http.StatusNotFound,
		},
		{
			name: "external service failure",
			body: AnswerRequest{Question: "hello"},
			engine: &stubEngine{
				answer: func(context.Context, []session.Turn, string) (rag.AnswerResponse, error) {
					return rag.AnswerResponse{}, externalCallErr()
				},
			},
			wantStatus: http.StatusBadGateway,
		},
		{
			name: "internal failure",
			body: AnswerRequest{Question: "hello"},
			engine: &stubEngine{
				answer: func(context.Context, []session.Turn, string) (rag.AnswerResponse, error) {
					return rag.AnswerResponse{}, errors.New("boom")
				},
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := tt.engine
			if engine == nil {
				engine = &stubEngine{
					answer: func(context.Context, []session.Turn, string) (rag.AnswerResponse, error) {
						t.Error("engine must not be called")
						return rag.AnswerResponse{}, nil
					},
				}
			}
			handler := NewAnswerHandler(engine, session.NewStore())

			w := postAnswer(t, handler, tt.body)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d, body = %s", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

func TestAnswerHandlerFailureLeavesSessionUnchanged(t *testing.T) {
	sessions := session.NewStore()
	sess := sessions.Create()

	engine := &stubEngine{
		answer: func(context.Context, []session.Turn, string) (rag.AnswerResponse, error) {
			return rag.AnswerResponse{}, externalCallErr()
		},
	}
	handler := NewAnswerHandler(engine, sessions)

	w := postAnswer(t, handler, AnswerRequest{SessionID: sess.ID, Question: "hello"})
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", w.Code)
	}
	if sess.Len() != 0 {
		t.Errorf("failed request recorded %d turns", sess.Len())
	}
}

// externalCallErr builds an error wrapping the pipeline sentinel the way the
// engine reports stage failures.
func externalCallErr() error {
	return fmt.Errorf("embed: %w: upstream down", rag.ErrExternalCall)
}
