// Package api serves the local HTTP backend: status, offline commands, agent
// logs, text chat and metrics.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/cyberwithvishal/riyu/runtime/agentlog"
	"github.com/cyberwithvishal/riyu/runtime/agents"
	"github.com/cyberwithvishal/riyu/runtime/logger"
	"github.com/cyberwithvishal/riyu/runtime/metrics/prometheus"
	"github.com/cyberwithvishal/riyu/runtime/offline"
	"github.com/cyberwithvishal/riyu/runtime/telemetry"
	"github.com/cyberwithvishal/riyu/runtime/types"
	"github.com/cyberwithvishal/riyu/runtime/version"
)

const (
	// StatusOnline is reported by GET /.
	StatusOnline = "CWV_OS_ONLINE"

	// defaultReadHeaderTimeout prevents Slowloris attacks.
	defaultReadHeaderTimeout = 10 * time.Second

	defaultReadTimeout  = 30 * time.Second
	defaultWriteTimeout = 90 * time.Second
	defaultIdleTimeout  = 120 * time.Second

	// defaultMaxBodySize is the maximum allowed size of a request body (1 MB).
	defaultMaxBodySize int64 = 1 << 20

	defaultOfflineRate  = 2
	defaultOfflineBurst = 5
)

// Chatter answers one text turn.
type Chatter interface {
	SendMessage(ctx context.Context, text string) (types.Message, error)
}

// Option configures a [Server].
type Option func(*Server)

// WithOfflineEngine serves POST /offline/execute.
func WithOfflineEngine(e *offline.Engine) Option {
	return func(s *Server) { s.offline = e }
}

// WithAgentLog serves GET /logs/agent/{agent_id} and records offline commands.
func WithAgentLog(l agentlog.Store) Option {
	return func(s *Server) { s.agentLog = l }
}

// WithChat serves POST /chat.
func WithChat(c Chatter) Option {
	return func(s *Server) { s.chat = c }
}

// WithMetrics mounts /metrics and /health from the exporter.
func WithMetrics(e *prometheus.Exporter) Option {
	return func(s *Server) { s.metrics = e }
}

// WithOfflineRateLimit bounds offline command executions per second.
// Default: 2/s with a burst of 5.
func WithOfflineRateLimit(perSecond float64, burst int) Option {
	return func(s *Server) { s.limiter = rate.NewLimiter(rate.Limit(perSecond), burst) }
}

// WithMaxBodySize sets the maximum allowed request body size in bytes.
// Default: 1 MB.
func WithMaxBodySize(n int64) Option {
	return func(s *Server) { s.maxBodySize = n }
}

// Server is the HTTP backend.
type Server struct {
	offline     *offline.Engine
	agentLog    agentlog.Store
	chat        Chatter
	metrics     *prometheus.Exporter
	limiter     *rate.Limiter
	maxBodySize int64

	httpSrv   *http.Server
	httpSrvMu sync.Mutex
}

// NewServer creates a server; unconfigured features answer 503.
func NewServer(opts ...Option) *Server {
	s := &Server{
		limiter:     rate.NewLimiter(defaultOfflineRate, defaultOfflineBurst),
		maxBodySize: defaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the instrumented router.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleStatus)
	mux.HandleFunc("POST /offline/execute", s.handleOffline)
	mux.HandleFunc("GET /logs/agent/{agent_id}", s.handleAgentLogs)
	mux.HandleFunc("POST /chat", s.handleChat)
	if s.metrics != nil {
		s.metrics.Mount(mux)
	}
	return otelhttp.NewHandler(allowAllOrigins(telemetry.TraceMiddleware(mux)), "riyu-api")
}

// ListenAndServe serves on addr until Shutdown. A graceful shutdown returns nil.
func (s *Server) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve serves on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: defaultReadHeaderTimeout,
		ReadTimeout:       defaultReadTimeout,
		WriteTimeout:      defaultWriteTimeout,
		IdleTimeout:       defaultIdleTimeout,
	}
	s.httpSrvMu.Lock()
	s.httpSrv = srv
	s.httpSrvMu.Unlock()

	logger.Info("🚀 Riyu backend online", "addr", ln.Addr().String())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.httpSrvMu.Lock()
	srv := s.httpSrv
	s.httpSrvMu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

type statusResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	OfflineEngine string `json:"offline_engine"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	engine := "unavailable"
	if s.offline != nil {
		engine = "keyword engine ready"
	}
	writeJSON(w, http.StatusOK, statusResponse{
		Status:        StatusOnline,
		Version:       version.GetVersion(),
		OfflineEngine: engine,
	})
}

type textRequest struct {
	Text string `json:"text"`
}

type offlineResponse struct {
	Status  string `json:"status"`
	Command string `json:"command"`
	Reply   string `json:"reply"`
	Error   string `json:"error,omitempty"`
}

func (s *Server) handleOffline(w http.ResponseWriter, r *http.Request) {
	if s.offline == nil {
		writeError(w, http.StatusServiceUnavailable, "offline engine not configured")
		return
	}
	if !s.limiter.Allow() {
		writeError(w, http.StatusTooManyRequests, "too many offline commands")
		return
	}
	var req textRequest
	if !s.decode(w, r, &req) {
		return
	}

	ctx := logger.WithAgent(r.Context(), string(agents.Riyu))
	res, err := s.offline.Handle(ctx, req.Text)
	resp := offlineResponse{Status: "executed", Command: res.Command, Reply: res.Reply}
	if err != nil {
		resp.Error = err.Error()
	}
	if s.agentLog != nil {
		entry := agentlog.Entry{AgentID: string(agents.Riyu), Kind: agentlog.KindOffline, Text: req.Text + " -> " + res.Reply}
		if err := s.agentLog.Append(ctx, entry); err != nil {
			logger.WarnContext(ctx, "agent log append failed", "error", err)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAgentLogs(w http.ResponseWriter, r *http.Request) {
	if s.agentLog == nil {
		writeError(w, http.StatusServiceUnavailable, "agent log not configured")
		return
	}
	entries, err := s.agentLog.Recent(r.Context(), r.PathValue("agent_id"), agentlog.DefaultLimit)
	if err != nil {
		logger.ErrorContext(r.Context(), "agent log query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "agent log unavailable")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

type chatResponse struct {
	Reply *types.Message `json:"reply"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if s.chat == nil {
		writeError(w, http.StatusServiceUnavailable, "chat not configured")
		return
	}
	var req textRequest
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	msg, err := s.chat.SendMessage(r.Context(), req.Text)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	resp := chatResponse{}
	if msg.ID != "" {
		resp.Reply = &msg
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// allowAllOrigins answers CORS preflights and allows any origin, method and header.
func allowAllOrigins(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "*")
		h.Set("Access-Control-Allow-Headers", "*")
		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
