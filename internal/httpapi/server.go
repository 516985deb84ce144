package httpapi

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ankouyang/apiprobe/internal/config"
	"github.com/ankouyang/apiprobe/internal/diag"
	apimw "github.com/ankouyang/apiprobe/internal/httpapi/middleware"
	"github.com/ankouyang/apiprobe/internal/jsonutil"
	"github.com/ankouyang/apiprobe/internal/notify"
	"github.com/ankouyang/apiprobe/internal/probe"
	"github.com/ankouyang/apiprobe/internal/report"
)

// Server triggers probes on demand. At most one probe runs at a time.
type Server struct {
	Logger   *zap.Logger
	Runner   *probe.Runner
	Config   config.Config
	Notifier notify.Notifier

	busy    sync.Mutex
	metrics *metrics
}

func NewServer(l *zap.Logger, r *probe.Runner, cfg config.Config, n notify.Notifier) *Server {
	return &Server{Logger: l, Runner: r, Config: cfg, Notifier: n, metrics: newMetrics()}
}

// Router wires the routes. allowedOrigins empty means any origin; rpm <= 0
// disables rate limiting of probe triggers.
func (s *Server) Router(keys apimw.Keys, allowedOrigins []string, rpm, burst int) http.Handler {
	r := chi.NewRouter()
	if len(allowedOrigins) == 0 {
		r.Use(cors.AllowAll().Handler)
	} else {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: allowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type", "X-API-Key"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.With(apimw.RequireAny(keys)).
		Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))

	r.With(apimw.RateLimit(rpm, burst), apimw.RequireAdmin(keys)).
		Post("/api/probes", s.handleProbe)

	return r
}

const maxRequestBody = 64 << 10

type probeRequest struct {
	Check  string `json:"check"`
	Prompt string `json:"prompt,omitempty"`
}

func (s *Server) handleProbe(w http.ResponseWriter, r *http.Request) {
	var p probeRequest
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "bad payload")
		return
	}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := jsonutil.Unmarshal(raw, &p); err != nil {
			writeJSONError(w, http.StatusBadRequest, "bad payload")
			return
		}
	}
	if p.Check == "" {
		p.Check = diag.CheckCredential
	}

	cfg := s.Config
	if p.Prompt != "" {
		cfg.Prompt = p.Prompt
	}
	step, err := diag.ForCheck(p.Check, cfg)
	if err != nil {
		if errors.Is(err, diag.ErrUnknownCheck) {
			writeJSONError(w, http.StatusBadRequest, "unknown check")
			return
		}
		s.Logger.Error("probe_build_failed", zap.String("check", p.Check), zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "could not build probe")
		return
	}

	if !s.busy.TryLock() {
		writeJSONError(w, http.StatusConflict, "probe already running")
		return
	}
	var res probe.Result
	if step.Mode == probe.StepTunnel {
		res = s.Runner.Tunnel(r.Context(), step.Config)
	} else {
		res = s.Runner.Run(r.Context(), step.Config)
	}
	s.busy.Unlock()

	s.metrics.observe(res)
	if err := notify.Failure(r.Context(), s.Notifier, res); err != nil {
		s.Logger.Warn("notify_failed", zap.String("probe_id", res.ID), zap.Error(err))
	}

	w.Header().Set("Content-Type", "application/json")
	report.New(w, true).Result(res, "")
}

func writeJSONError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = jsonutil.Encode(w, map[string]string{"error": msg})
}
