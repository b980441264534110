// Package chat runs the browser chat over a websocket: prompts become
// generated circuits mounted in the page, with optional voice input and
// output.
package chat

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ziadkadry99/circuitchat/internal/api"
	"github.com/ziadkadry99/circuitchat/internal/logging"
	"github.com/ziadkadry99/circuitchat/internal/markdown"
	"github.com/ziadkadry99/circuitchat/internal/metrics"
)

// maxMessageBytes bounds one client message; pasted circuits are the
// largest.
const maxMessageBytes = 4 << 20

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Options configures a Handler. Every field is optional.
type Options struct {
	Store    *Store
	Logger   *zap.Logger
	Metrics  *metrics.Registry
	Markdown *markdown.Renderer
}

// Handler serves chat websocket connections.
type Handler struct {
	svc      api.Service
	store    *Store
	logger   *zap.Logger
	metrics  *metrics.Registry
	markdown *markdown.Renderer
}

// NewHandler creates a chat handler backed by svc.
func NewHandler(svc api.Service, opts Options) *Handler {
	md := opts.Markdown
	if md == nil {
		md = markdown.NewChat()
	}
	return &Handler{
		svc:      svc,
		store:    opts.Store,
		logger:   logging.OrNop(opts.Logger),
		metrics:  opts.Metrics,
		markdown: md,
	}
}

// RegisterRoutes mounts the websocket endpoint and the message history API.
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Get("/ws/chat", h.ServeHTTP)
	r.Get("/api/chat/sessions/{id}/messages", h.handleMessages)
}

// ServeHTTP upgrades the request and runs the session until the client
// goes away.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("chat: websocket upgrade", zap.Error(err))
		return
	}
	defer ws.Close()
	ws.SetReadLimit(maxMessageBytes)

	conn := newConn(ws)
	sess := newSession(r.Context(), h, conn)
	if h.metrics != nil {
		h.metrics.ChatSessionsActive.Inc()
		defer h.metrics.ChatSessionsActive.Dec()
	}
	defer sess.close()
	defer conn.markClosed()

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("chat: websocket read", zap.Error(err))
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			sess.send(serverMessage{Type: outError, Error: "invalid message format"})
			continue
		}
		sess.handle(msg)
	}
}

func (h *Handler) handleMessages(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "chat history is not enabled"})
		return
	}
	id := chi.URLParam(r, "id")
	if _, err := h.store.GetSession(r.Context(), id); err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	messages, err := h.store.GetMessages(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
