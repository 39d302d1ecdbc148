// Package api exposes the loan assistant over HTTP.
//
// It provides a single /chat endpoint driving the conversation flow plus a
// read-only history endpoint. Turns within one session are serialized; turns
// across sessions run concurrently.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/credvita/loanassist/internal/flow"
	"github.com/credvita/loanassist/internal/models"
	"github.com/credvita/loanassist/internal/store"
	"github.com/credvita/loanassist/internal/util"
)

// Opts holds configuration options for the API server.
type Opts struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string
}

// Option defines a functional option for server configuration.
type Option func(*Opts)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// DefaultAddr is used when no listen address is configured.
const DefaultAddr = ":8080"

// Server wires the conversation controller and the store to HTTP handlers.
type Server struct {
	controller *flow.Controller
	st         store.Store
	addr       string

	mu    sync.Mutex
	locks map[string]*sync.Mutex // per-session turn serialization
}

// NewServer creates an API server around a flow controller and a store.
func NewServer(controller *flow.Controller, st store.Store, opts ...Option) *Server {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	slog.Debug("api.NewServer: creating server", "addr", cfg.Addr)
	return &Server{
		controller: controller,
		st:         st,
		addr:       cfg.Addr,
		locks:      make(map[string]*sync.Mutex),
	}
}

// Handler returns the HTTP handler with all routes registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/chat", s.chatHandler)
	mux.HandleFunc("/sessions/", s.historyHandler)
	return mux
}

// Run starts the HTTP server and blocks until ctx is canceled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server.Run: API listening", "addr", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		slog.Info("Server.Run: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// sessionLock returns the mutex serializing turns for one session.
func (s *Server) sessionLock(sessionID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[sessionID] = lock
	}
	return lock
}

// chatHandler handles POST /chat: one conversation turn.
func (s *Server) chatHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONResponse(w, http.StatusMethodNotAllowed, models.Error("Method not allowed"))
		return
	}

	var req models.ChatRequest
	if err := decodeJSONBody(r, &req); err != nil {
		slog.Warn("Server.chatHandler: invalid JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if err := req.Validate(); err != nil {
		slog.Warn("Server.chatHandler: validation failed", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = util.GenerateSessionID()
		slog.Debug("Server.chatHandler: assigned new session", "sessionID", sessionID)
	}

	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	state, err := s.st.GetSession(sessionID)
	if errors.Is(err, models.ErrSessionNotFound) {
		state = models.NewSessionState(sessionID)
	} else if err != nil {
		slog.Error("Server.chatHandler: session load failed", "error", err, "sessionID", sessionID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load session"))
		return
	}

	reply, next := s.controller.Step(r.Context(), req.Message, state)
	next.AppendTurn("user", req.Message)
	next.AppendTurn("assistant", reply)

	resp := models.ChatReply{
		SessionID:            sessionID,
		Reply:                reply,
		Flow:                 next.Flow,
		WaitingFor:           next.WaitingFor,
		ConversationComplete: next.ConversationComplete,
	}
	// Attach the full schedule only on the turn that produced it.
	if next.ShowEMIOnce && next.EMIResult != nil {
		resp.EMISchedule = next.EMIResult.Clone()
		next.ShowEMIOnce = false
	}

	if err := s.st.SaveSession(next); err != nil {
		slog.Error("Server.chatHandler: session save failed", "error", err, "sessionID", sessionID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to save session"))
		return
	}
	if err := s.st.SaveTranscript(next); err != nil {
		// The reply is still valid; transcript persistence is best-effort.
		slog.Error("Server.chatHandler: transcript save failed", "error", err, "sessionID", sessionID)
	}

	writeJSONResponse(w, http.StatusOK, models.Success(resp))
}

// historyHandler handles GET /sessions/{id}/history.
func (s *Server) historyHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONResponse(w, http.StatusMethodNotAllowed, models.Error("Method not allowed"))
		return
	}

	sessionID, ok := parseHistoryPath(r.URL.Path)
	if !ok {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Not found"))
		return
	}

	state, err := s.st.GetSession(sessionID)
	if errors.Is(err, models.ErrSessionNotFound) {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Session not found"))
		return
	}
	if err != nil {
		slog.Error("Server.historyHandler: session load failed", "error", err, "sessionID", sessionID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load session"))
		return
	}

	writeJSONResponse(w, http.StatusOK, models.Success(map[string]interface{}{
		"session_id": state.SessionID,
		"flow":       state.Flow,
		"history":    state.History,
	}))
}
