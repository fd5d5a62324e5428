package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"genie-backend/internal/config"
	"genie-backend/internal/llm"
	"genie-backend/internal/store"
	"genie-backend/internal/types"
)

// streamInterrupted ends a streamed body whose upstream failed mid-reply.
const streamInterrupted = "\n\n[reply interrupted, please try again]\n"

// ChatServer serves the trip-planning assistant.
type ChatServer struct {
	router    *chi.Mux
	store     *store.MemoryStore
	completer llm.Completer
	cfg       config.Config
}

func NewChatServer(cfg config.Config, ms *store.MemoryStore, completer llm.Completer) *ChatServer {
	s := &ChatServer{
		router:    newRouter(cfg.AllowedOrigin),
		store:     ms,
		completer: completer,
		cfg:       cfg,
	}
	s.routes()
	return s
}

func (s *ChatServer) routes() {
	s.router.Get("/api/health", s.handleHealth)
	s.router.Post("/api/chat", s.handleChat)
	s.router.Post("/api/chat/stream", s.handleChatStream)
	s.router.Get("/api/chat/history", s.handleHistory)
	s.router.Delete("/api/chat/history", s.handleEndSession)
}

func (s *ChatServer) Router() http.Handler { return s.router }

func (s *ChatServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, types.HealthResponse{Status: "ok"})
}

func (s *ChatServer) handleChat(w http.ResponseWriter, r *http.Request) {
	var req types.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	sid := s.getOrCreateSessionID(r, w, req.SessionID)
	w.Header().Set("X-Session-Id", sid)

	s.store.Append(sid, store.Message{Role: store.RoleUser, Content: req.Message})

	ctx, cancel := s.completionContext(r.Context())
	defer cancel()
	reply, err := s.completer.Complete(ctx, s.store.History(sid))
	if err != nil {
		// the user turn stays; no assistant turn is recorded
		log.Printf("[chat] completion failed for session %s: %v", sid, err)
		writeError(w, http.StatusBadGateway, "the assistant could not answer right now, please try again")
		return
	}
	s.store.Append(sid, store.Message{Role: store.RoleAssistant, Content: reply})
	writeJSON(w, http.StatusOK, types.ChatResponse{SessionID: sid, Reply: reply})
}

func (s *ChatServer) handleChatStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	var req types.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	sid := s.getOrCreateSessionID(r, w, req.SessionID)
	w.Header().Set("X-Session-Id", sid)

	s.store.Append(sid, store.Message{Role: store.RoleUser, Content: req.Message})

	ctx, cancel := s.completionContext(r.Context())
	defer cancel()

	started := false
	reply, err := s.completer.Stream(ctx, s.store.History(sid), func(chunk string) error {
		if !started {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.Header().Set("Cache-Control", "no-cache")
			w.WriteHeader(http.StatusOK)
			started = true
		}
		if _, err := w.Write([]byte(chunk)); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})
	if err != nil {
		log.Printf("[chat] stream failed for session %s: %v", sid, err)
		if !started {
			writeError(w, http.StatusBadGateway, "the assistant could not answer right now, please try again")
			return
		}
		// the status is already sent; the trailer marks the reply as cut short
		_, _ = w.Write([]byte(streamInterrupted))
		flusher.Flush()
		return
	}
	if reply == "" {
		if !started {
			writeError(w, http.StatusBadGateway, "the assistant could not answer right now, please try again")
		}
		return
	}
	s.store.Append(sid, store.Message{Role: store.RoleAssistant, Content: reply})
}

func (s *ChatServer) handleHistory(w http.ResponseWriter, r *http.Request) {
	sid := s.getOrCreateSessionID(r, w, "")
	w.Header().Set("X-Session-Id", sid)
	writeJSON(w, http.StatusOK, types.HistoryResponse{
		SessionID: sid,
		Messages:  store.Visible(s.store.History(sid)),
	})
}

func (s *ChatServer) handleEndSession(w http.ResponseWriter, r *http.Request) {
	if sid := getSessionID(r, ""); sid != "" {
		s.store.Reset(sid)
		log.Printf("[session] ended %s", sid)
	}
	ClearSessionCookie(w, s.cfg.CookieSecure)
	w.WriteHeader(http.StatusNoContent)
}

// completionContext applies CHAT_TIMEOUT when one is configured.
func (s *ChatServer) completionContext(parent context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.ChatTimeout > 0 {
		return context.WithTimeout(parent, s.cfg.ChatTimeout)
	}
	return context.WithCancel(parent)
}

// getSessionID looks at the cookie, then the X-Session-Id header, then the
// sessionId query parameter, then the request body.
func getSessionID(r *http.Request, fromBody string) string {
	if sid, err := GetSessionCookie(r); err == nil && sid != "" {
		return sid
	}
	if sid := r.Header.Get("X-Session-Id"); sid != "" {
		return sid
	}
	if sid := r.URL.Query().Get("sessionId"); sid != "" {
		return sid
	}
	return strings.TrimSpace(fromBody)
}

// getOrCreateSessionID only ever writes the cookie for an id that came from
// the cookie itself or was minted here. Ids from the header, query or body
// are used for the request but never promoted into the cookie.
func (s *ChatServer) getOrCreateSessionID(r *http.Request, w http.ResponseWriter, fromBody string) string {
	if sid, err := GetSessionCookie(r); err == nil && sid != "" {
		SetSessionCookie(w, sid, s.cfg.CookieSecure)
		return sid
	}
	if sid := getSessionID(r, fromBody); sid != "" {
		return sid
	}
	sid := uuid.NewString()
	log.Printf("[session] creating new session: %s for endpoint: %s", sid, r.URL.Path)
	SetSessionCookie(w, sid, s.cfg.CookieSecure)
	return sid
}
