package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/mentormind/mentormind/internal/chatsession"
	"github.com/mentormind/mentormind/internal/config"
	"github.com/mentormind/mentormind/internal/figures"
	"github.com/mentormind/mentormind/internal/observability"
)

type Server struct {
	cfg      config.Config
	sessions *chatsession.Manager
	catalog  figures.Store
	metrics  *observability.Metrics
	upgrader websocket.Upgrader
}

func New(cfg config.Config, sessions *chatsession.Manager, catalog figures.Store, metrics *observability.Metrics) *Server {
	return &Server{
		cfg:      cfg,
		sessions: sessions,
		catalog:  catalog,
		metrics:  metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Only same-origin browser clients unless explicitly opened up.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Get("/v1/figures", s.handleListFigures)
	r.Post("/v1/chat/sessions", s.handleCreateSession)
	r.Get("/v1/chat/sessions/{id}", s.handleGetSession)
	r.Post("/v1/chat/sessions/{id}/messages", s.handleSendMessage)
	r.Post("/v1/chat/sessions/{id}/retry", s.handleRetry)
	r.Post("/v1/chat/sessions/{id}/end", s.handleEndSession)
	r.Get("/v1/chat/sessions/{id}/ws", s.handleSessionWS)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":             "ok",
		"enrichment_enabled": s.cfg.EnrichmentEnabled,
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

func (s *Server) handleListFigures(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"items": s.catalog.List()})
}

type createSessionRequest struct {
	UserID     string `json:"user_id"`
	FigureName string `json:"figure_name"`
}

type sessionResponse struct {
	SessionID  string                `json:"session_id"`
	UserID     string                `json:"user_id"`
	FigureName string                `json:"figure_name"`
	State      chatsession.State     `json:"state"`
	Messages   []chatsession.Message `json:"messages"`
	Error      string                `json:"error,omitempty"`
}

// handleCreateSession opens a chat session and runs the provisioning
// sequence. A provisioning failure still creates the session: it comes back
// in the connection_failed state with a retry affordance.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		respondError(w, http.StatusBadRequest, "missing_user_id", "user_id is required")
		return
	}
	if strings.TrimSpace(req.FigureName) == "" {
		respondError(w, http.StatusBadRequest, "missing_figure_name", "figure_name is required")
		return
	}

	figure := figures.Describe(s.catalog, strings.TrimSpace(req.FigureName))
	sess := s.sessions.Create(strings.TrimSpace(req.UserID), figure)
	s.metrics.ActiveSessions.Set(float64(s.sessions.ActiveCount()))
	s.metrics.SessionEvents.WithLabelValues("created").Inc()

	startErr := sess.Start(r.Context())
	if startErr != nil {
		s.metrics.SessionEvents.WithLabelValues("start_failed").Inc()
	}

	respondJSON(w, http.StatusCreated, sessionPayload(sess, startErr))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, sessionPayload(sess, nil))
}

type sendMessageRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}

	var req sendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	err := sess.Send(r.Context(), strings.TrimSpace(req.Text))
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, sessionPayload(sess, nil))
	case errors.Is(err, chatsession.ErrEmptyMessage):
		respondError(w, http.StatusBadRequest, "empty_message", "message text is required")
	case errors.Is(err, chatsession.ErrBusy):
		respondError(w, http.StatusConflict, "message_in_flight", "a message is already in flight for this session")
	case errors.Is(err, chatsession.ErrNotConnected):
		respondError(w, http.StatusConflict, "not_connected", "session is not connected; retry the connection first")
	case errors.Is(err, chatsession.ErrEnded):
		respondError(w, http.StatusGone, "session_ended", "session has ended")
	default:
		respondError(w, http.StatusBadGateway, "send_failed", err.Error())
	}
}

func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}

	err := sess.Retry(r.Context())
	switch {
	case err == nil:
		s.metrics.SessionEvents.WithLabelValues("retried").Inc()
		respondJSON(w, http.StatusOK, sessionPayload(sess, nil))
	case errors.Is(err, chatsession.ErrNotFailed):
		respondError(w, http.StatusConflict, "not_failed", "session is not in a failed state")
	case errors.Is(err, chatsession.ErrEnded):
		respondError(w, http.StatusGone, "session_ended", "session has ended")
	default:
		// The retry itself failed; the session stays in connection_failed.
		s.metrics.SessionEvents.WithLabelValues("retry_failed").Inc()
		respondJSON(w, http.StatusOK, sessionPayload(sess, err))
	}
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, err := s.sessions.End(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
		return
	}
	s.metrics.ActiveSessions.Set(float64(s.sessions.ActiveCount()))
	s.metrics.SessionEvents.WithLabelValues("ended").Inc()
	respondJSON(w, http.StatusOK, sessionPayload(sess, nil))
}

// handleSessionWS streams the transcript over a websocket: the current
// snapshot first, then every appended message.
func (s *Server) handleSessionWS(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}

	updates, cancelWatch := sess.Subscribe()
	defer cancelWatch()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	s.metrics.SessionEvents.WithLabelValues("ws_connected").Inc()

	ctx := r.Context()
	go func() {
		// Drain the read side to notice client disconnects.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				_ = conn.Close()
				return
			}
		}
	}()

	seen := make(map[string]bool)
	for _, msg := range sess.Messages() {
		seen[msg.ID] = true
		if !writeWS(conn, msg) {
			return
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case msg, open := <-updates:
			if !open {
				return
			}
			if seen[msg.ID] {
				continue
			}
			if !writeWS(conn, msg) {
				return
			}
		}
	}
}

func writeWS(conn *websocket.Conn, msg chatsession.Message) bool {
	_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return conn.WriteJSON(msg) == nil
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*chatsession.Controller, bool) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		respondError(w, http.StatusBadRequest, "invalid_session_id", "missing session id")
		return nil, false
	}
	sess, err := s.sessions.Get(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
		return nil, false
	}
	return sess, true
}

func sessionPayload(sess *chatsession.Controller, opErr error) sessionResponse {
	resp := sessionResponse{
		SessionID:  sess.ID,
		UserID:     sess.UserID,
		FigureName: sess.Figure.Name,
		State:      sess.State(),
		Messages:   sess.Messages(),
	}
	if opErr != nil {
		resp.Error = opErr.Error()
	}
	return resp
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(out)
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, msg string) {
	respondJSON(w, status, errorResponse{Error: msg, Code: code})
}
