// Package collector implements an in-memory ingestion service for local
// development. It speaks the hosted collector's wire protocol, keeps the
// latest records for inspection and exposes Prometheus metrics about what
// it ingested.
package collector

import (
	"encoding/json"
	"io"
	"net/http"
	"sync"

	httptrace "github.com/DataDog/dd-trace-go/contrib/net/http/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/codecomet-io/codecomet-go/capture"
	"github.com/codecomet-io/codecomet-go/common/headers"
	"github.com/codecomet-io/codecomet-go/common/logger"
	"github.com/codecomet-io/codecomet-go/forward"
)

const (
	// IngestPath matches the hosted collector's ingestion route.
	IngestPath = "/rpc/collector.v1.CollectorService/IngestLog"

	defaultKeepRecords = 256

	// maxPayloadBytes bounds a single ingested record.
	maxPayloadBytes = 10 << 20
)

// Config configures the development collector.
type Config struct {
	// APIKey, when set, is required on every ingest request.
	APIKey string
	// KeepRecords bounds the in-memory record buffer.
	KeepRecords int
	// ServiceName, when set, enables tracing of the collector endpoints.
	ServiceName string
	// Registry receives the collector metrics. A private registry is used
	// when nil.
	Registry *prometheus.Registry
	// CORS overrides the default browser policy.
	CORS *CORSConfig
}

// StoredRecord is a received record plus ingestion metadata.
type StoredRecord struct {
	ReceivedAt capture.Timestamp `json:"received_at"`
	Record     capture.Record    `json:"record"`
}

// Server ingests capture records the way the hosted service does and keeps
// the most recent ones in memory.
type Server struct {
	cfg     Config
	log     *logger.Logger
	metrics *ingestMetrics

	mu      sync.Mutex
	records []StoredRecord
}

// New builds a Server from cfg.
func New(cfg Config, log *logger.Logger) *Server {
	if cfg.KeepRecords <= 0 {
		cfg.KeepRecords = defaultKeepRecords
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
	}
	if log == nil {
		log = logger.Instance()
	}
	return &Server{
		cfg:     cfg,
		log:     log.Named("collector"),
		metrics: newIngestMetrics(cfg.Registry),
	}
}

// Handler returns the collector's HTTP surface.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(IngestPath, s.handleIngest)
	mux.HandleFunc("/records", s.handleRecords)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.Handle("/metrics", promhttp.HandlerFor(s.cfg.Registry, promhttp.HandlerOpts{}))

	cors := DefaultCORSConfig()
	if s.cfg.CORS != nil {
		cors = *s.cfg.CORS
	}
	handler := cors.Apply(mux)

	if s.cfg.ServiceName != "" {
		handler = httptrace.WrapHandler(handler, s.cfg.ServiceName, "collector.http")
	}
	return handler
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.metrics.received.WithLabelValues("method").Inc()
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	if s.cfg.APIKey != "" && r.Header.Get(headers.HeaderXAPIKey) != s.cfg.APIKey {
		s.metrics.received.WithLabelValues("unauthorized").Inc()
		writeError(w, http.StatusUnauthorized, "missing or invalid api key")
		return
	}

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		s.metrics.received.WithLabelValues("malformed").Inc()
		writeError(w, http.StatusBadRequest, "unreadable payload")
		return
	}
	s.metrics.payload.Observe(float64(len(payload)))

	var env forward.Envelope
	if err := json.Unmarshal(payload, &env); err != nil || env.Log == nil {
		s.metrics.received.WithLabelValues("malformed").Inc()
		writeError(w, http.StatusBadRequest, "payload is not a capture envelope")
		return
	}

	s.store(*env.Log)
	s.metrics.received.WithLabelValues("accepted").Inc()

	s.log.Info("capture record ingested",
		logger.String("project_id", env.Log.ProjectID),
		logger.String("method", env.Log.Method),
		logger.String("path", env.Log.Path),
		logger.Int("status_code", env.Log.StatusCode),
	)

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (s *Server) store(rec capture.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, StoredRecord{ReceivedAt: capture.Now(), Record: rec})
	if len(s.records) > s.cfg.KeepRecords {
		overflow := len(s.records) - s.cfg.KeepRecords
		s.records = append(s.records[:0], s.records[overflow:]...)
	}
}

// handleRecords returns the buffered records, oldest first.
func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET required")
		return
	}

	snapshot := s.Records()
	writeJSON(w, http.StatusOK, map[string]any{
		"count":   len(snapshot),
		"records": snapshot,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Records returns a copy of the buffered records, oldest first.
func (s *Server) Records() []StoredRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]StoredRecord(nil), s.records...)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
