package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/aretw0/steprelay/internal/logging"
	"github.com/aretw0/steprelay/pkg/domain"
	"github.com/aretw0/steprelay/pkg/observer"
	"github.com/aretw0/steprelay/pkg/ports"
	"github.com/aretw0/steprelay/pkg/relay"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultStepTimeout bounds POST /step?wait=true when no timeout is given.
const DefaultStepTimeout = 30 * time.Second

// Frame is the JSON shape of a step and of stream events.
type Frame struct {
	Type          string           `json:"type"`
	Snapshot      *domain.Snapshot `json:"snapshot,omitempty"`
	Outputs       []string         `json:"outputs,omitempty"`
	Errors        []string         `json:"errors,omitempty"`
	AwaitingInput bool             `json:"awaiting_input"`
	Finished      bool             `json:"finished"`
}

// Frame types.
const (
	FrameStep          = "step"
	FrameAwaitingInput = "awaiting_input"
	FrameFinished      = "finished"
)

// Server exposes a relay's observer side over HTTP. It is the single
// consumer of the relay: steps are taken by POST /step or by one websocket
// stream at a time.
type Server struct {
	source   ports.StepSource
	streams  *StreamManager
	logger   *slog.Logger
	version  string
	gatherer prometheus.Gatherer
	timeout  time.Duration
	upgrader websocket.Upgrader

	// consumer serializes every take from the relay.
	consumer sync.Mutex
}

// Option configures a Server.
type Option func(*Server)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithVersion sets the version reported by GET /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// WithGatherer sets the registry served on GET /metrics.
// The default is the global Prometheus registry.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithStepTimeout sets the default wait of POST /step?wait=true.
func WithStepTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewServer creates a server observing source.
func NewServer(source ports.StepSource, opts ...Option) *Server {
	s := &Server{
		source:   source,
		streams:  NewStreamManager(),
		logger:   logging.NewNop(),
		version:  "dev",
		gatherer: prometheus.DefaultGatherer,
		timeout:  DefaultStepTimeout,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.streams.logger = s.logger
	return s
}

// NewHandler creates the HTTP handler for source.
func NewHandler(source ports.StepSource, opts ...Option) http.Handler {
	return NewServer(source, opts...).Routes()
}

// Routes builds the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/status", s.GetStatus)
	r.Post("/step", s.PostStep)
	r.Get("/output", s.GetOutput)
	r.Get("/errors", s.GetErrors)
	r.Post("/input", s.PostInput)
	r.Post("/finish", s.PostFinish)
	r.Get("/events", s.SubscribeEvents)
	r.Get("/ws", s.Stream)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "steprelay-http",
		"version": s.version,
	})
}

// Status is the body of GET /status.
type Status struct {
	Finished      bool         `json:"finished"`
	AwaitingInput bool         `json:"awaiting_input"`
	Stats         *relay.Stats `json:"stats,omitempty"`
}

// GetStatus handles GET /status.
func (s *Server) GetStatus(w http.ResponseWriter, r *http.Request) {
	st := Status{
		Finished:      s.source.IsFinished(),
		AwaitingInput: s.source.AwaitingInput(),
	}
	if rs, ok := s.source.(interface{ Stats() relay.Stats }); ok {
		stats := rs.Stats()
		st.Stats = &stats
	}
	s.writeJSON(w, http.StatusOK, st)
}

// PostStep handles POST /step. With wait=true it blocks until a step arrives,
// the relay finishes, the producer asks for input or the timeout expires. It
// answers 204 when no step was taken and 409 while a stream holds the relay.
func (s *Server) PostStep(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	wait, _ := strconv.ParseBool(q.Get("wait"))
	timeout := s.timeout
	if v := q.Get("timeout"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			http.Error(w, "invalid timeout", http.StatusBadRequest)
			return
		}
		timeout = d
	}

	if !s.consumer.TryLock() {
		http.Error(w, "another consumer is attached", http.StatusConflict)
		return
	}
	defer s.consumer.Unlock()

	var (
		snap domain.Snapshot
		ok   bool
	)
	if wait {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		var err error
		snap, err = s.source.AwaitStep(ctx)
		ok = err == nil
	} else {
		snap, ok = s.source.TakeStep(false)
	}

	if !ok {
		w.Header().Set("X-Relay-Finished", strconv.FormatBool(s.source.IsFinished()))
		w.Header().Set("X-Relay-Awaiting-Input", strconv.FormatBool(s.source.AwaitingInput()))
		w.WriteHeader(http.StatusNoContent)
		return
	}

	frame := Frame{
		Type:          FrameStep,
		Snapshot:      &snap,
		AwaitingInput: s.source.AwaitingInput(),
		Finished:      s.source.IsFinished(),
	}
	s.streams.BroadcastFrame(frame)
	s.writeJSON(w, http.StatusOK, frame)
}

// GetOutput handles GET /output, draining every pending chunk.
func (s *Server) GetOutput(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string][]string{"outputs": drain(s.source.DrainOutput)})
}

// GetErrors handles GET /errors, draining every pending notification.
func (s *Server) GetErrors(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string][]string{"errors": drain(s.source.DrainError)})
}

func drain(next func() (string, bool)) []string {
	out := []string{}
	for {
		v, ok := next()
		if !ok {
			return out
		}
		out = append(out, v)
	}
}

// InputRequest is the body of POST /input.
type InputRequest struct {
	Text string `json:"text"`
}

// PostInput handles POST /input.
func (s *Server) PostInput(w http.ResponseWriter, r *http.Request) {
	var body InputRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("PostInput: invalid request body", "error", err)
		return
	}
	if err := s.supply(body.Text); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, observer.ErrNotAwaitingInput) {
			status = http.StatusConflict
		}
		http.Error(w, err.Error(), status)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) supply(text string) error {
	if !s.source.AwaitingInput() {
		return observer.ErrNotAwaitingInput
	}
	clean, err := observer.SanitizeInput(text)
	if err != nil {
		s.logger.Warn("input rejected", "error", err, "size", len(text))
		return err
	}
	s.source.SupplyInput(clean)
	return nil
}

// PostFinish handles POST /finish.
func (s *Server) PostFinish(w http.ResponseWriter, r *http.Request) {
	s.source.SignalFinished()
	s.logger.Info("relay finished by remote observer")
	s.writeJSON(w, http.StatusAccepted, map[string]bool{"finished": true})
}
