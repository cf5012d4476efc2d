// Package http exposes an engine over a JSON HTTP API with chi, plus server-sent
// events carrying the diagram diff of every successful operation.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	papyrus "github.com/PapyGame/PapyrusWebBackend-sub011"
	"github.com/PapyGame/PapyrusWebBackend-sub011/internal/logging"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/domain"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/model"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/ports"
)

// maxBodyBytes bounds request bodies; model snapshots are the largest.
const maxBodyBytes = 8 << 20

// Server serves one editor.
type Server struct {
	Editor  ports.Editor
	Streams *StreamManager

	mm       *model.Metamodel
	logger   *slog.Logger
	gatherer prometheus.Gatherer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithMetrics serves the gatherer on GET /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// NewHandler creates the HTTP handler of an editor. Models posted to open sessions are
// restored against mm.
func NewHandler(editor ports.Editor, mm *model.Metamodel, opts ...Option) http.Handler {
	s := &Server{
		Editor:  editor,
		Streams: NewStreamManager(),
		mm:      mm,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams.logger = s.logger

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/sessions/{sessionID}", func(r chi.Router) {
		r.Put("/", s.OpenSession)
		r.Delete("/", s.CloseSession)
		r.Get("/diagram", s.GetDiagram)
		r.Get("/events", s.SubscribeEvents)

		r.Post("/nodes", operation(s, func(ctx context.Context, id string, req domain.CreateNodeRequest) domain.Status {
			return s.Editor.CreateNode(ctx, id, req)
		}))
		r.Post("/edges", operation(s, func(ctx context.Context, id string, req domain.CreateEdgeRequest) domain.Status {
			return s.Editor.CreateEdge(ctx, id, req)
		}))
		r.Post("/delete", operation(s, func(ctx context.Context, id string, req domain.DeleteRequest) domain.Status {
			return s.Editor.Delete(ctx, id, req)
		}))
		r.Post("/reconnect", operation(s, func(ctx context.Context, id string, req domain.ReconnectRequest) domain.Status {
			return s.Editor.Reconnect(ctx, id, req)
		}))
		r.Post("/direct-edit", operation(s, func(ctx context.Context, id string, req domain.DirectEditRequest) domain.Status {
			return s.Editor.DirectEdit(ctx, id, req)
		}))
		r.Post("/drop", operation(s, func(ctx context.Context, id string, req domain.DropRequest) domain.Status {
			return s.Editor.HandleDrop(ctx, id, req)
		}))
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":       "papyrus-http",
		"version":   strings.TrimSpace(papyrus.Version),
		"metamodel": s.mm.Name(),
	})
}

// OpenSession handles PUT /sessions/{id}: the body is a model snapshot.
func (s *Server) OpenSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	var raw json.RawMessage
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&raw); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("OpenSession: invalid request body", "err", err)
		return
	}
	m, err := model.Restore(s.mm, raw)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid model: %v", err), http.StatusBadRequest)
		return
	}
	d, err := s.Editor.Open(r.Context(), id, m)
	if err != nil {
		writeError(w, s.logger, "Open", err)
		return
	}
	st := domain.Success(domain.ChangeSemantic, nil)
	st.Diff = domain.Diff(nil, d)
	s.broadcast(id, st)
	writeJSON(w, http.StatusOK, d)
}

// CloseSession handles DELETE /sessions/{id}.
func (s *Server) CloseSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Editor.Close(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		writeError(w, s.logger, "Close", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetDiagram handles GET /sessions/{id}/diagram.
func (s *Server) GetDiagram(w http.ResponseWriter, r *http.Request) {
	d, err := s.Editor.Diagram(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, s.logger, "Diagram", err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// operation adapts an editor call to a handler. The status is the response body;
// successful changes are broadcast to the session subscribers with their diff.
func operation[Req any](s *Server, call func(context.Context, string, Req) domain.Status) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "sessionID")
		var req Req
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			s.logger.Warn("invalid request body", "path", r.URL.Path, "err", err)
			return
		}

		st := call(r.Context(), id, req)
		if st.Success && st.Change != domain.ChangeNone && s.Streams.HasSubscribers(id) {
			s.broadcast(id, st)
		}
		writeJSON(w, statusCode(st), st)
	}
}

// event is one SSE payload.
type event struct {
	Status domain.Status       `json:"status"`
	Diff   *domain.DiagramDiff `json:"diff,omitempty"`
}

// broadcast sends a change with the diff its editor took under the session lock.
func (s *Server) broadcast(sessionID string, st domain.Status) {
	ev := event{Status: st, Diff: st.Diff}
	ev.Status.Diff = nil
	bytes, err := json.Marshal(ev)
	if err != nil {
		return
	}
	s.Streams.Broadcast(sessionID, string(bytes))
}

// statusCode maps a failed status to the HTTP status of its reason.
func statusCode(st domain.Status) int {
	if st.Success {
		return http.StatusOK
	}
	switch {
	case st.Is(domain.ErrSessionNotFound), st.Is(domain.ErrViewNotFound),
		st.Is(domain.ErrElementNotFound), st.Is(domain.ErrToolNotFound):
		return http.StatusNotFound
	case st.Is(domain.ErrPermissionDenied):
		return http.StatusForbidden
	case st.Is(domain.ErrDanglingReference):
		return http.StatusConflict
	case st.Is(domain.ErrInvalidParameters), st.Is(domain.ErrInvalidFeature),
		st.Is(domain.ErrInconsistentEdgeEndpoints):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, op string, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrElementNotFound):
		code = http.StatusNotFound
	default:
		logger.Error(op+" failed", "err", err)
	}
	http.Error(w, fmt.Sprintf("%s error: %v", op, err), code)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// StreamManager handles active SSE connections.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{}
	logger      *slog.Logger
}

// NewStreamManager creates an empty stream manager.
func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      logging.NewNop(),
	}
}

// Subscribe registers a buffered channel for the session. The returned func unsubscribes.
func (sm *StreamManager) Subscribe(sessionID string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[sessionID]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, sessionID)
			}
		}
	}
}

// HasSubscribers reports whether anyone listens to the session.
func (sm *StreamManager) HasSubscribers(sessionID string) bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[sessionID]) > 0
}

// Broadcast sends msg to every subscriber of the session, dropping it for slow clients.
func (sm *StreamManager) Broadcast(sessionID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[sessionID] {
		select {
		case ch <- msg:
		default:
			sm.logger.Warn("SSE: client buffer full, dropping message", "session_id", sessionID)
		}
	}
}

// SubscribeEvents handles GET /sessions/{id}/events. The optional watch parameter
// (comma separated: added, updated, removed) keeps only diffs touching those views.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}
	sessionID := chi.URLParam(r, "sessionID")

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe(sessionID)
	defer cancel()
	s.logger.Info("SSE: subscribed", "session_id", sessionID)

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	var watchList []string
	if watch := r.URL.Query().Get("watch"); watch != "" {
		watchList = strings.Split(watch, ",")
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if len(watchList) > 0 && !watched(msg, watchList) {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func watched(msg string, watchList []string) bool {
	var ev event
	if err := json.Unmarshal([]byte(msg), &ev); err != nil || ev.Diff == nil {
		return true
	}
	for _, field := range watchList {
		switch strings.TrimSpace(field) {
		case "added":
			if len(ev.Diff.Added) > 0 {
				return true
			}
		case "updated":
			if len(ev.Diff.Updated) > 0 {
				return true
			}
		case "removed":
			if len(ev.Diff.Removed) > 0 {
				return true
			}
		}
	}
	return false
}
