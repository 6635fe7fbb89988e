package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/jschueller/otwrapy/internal/model"
	"github.com/jschueller/otwrapy/internal/vector"
)

// Evaluator is the consumer interface the worker serves.
type Evaluator interface {
	Evaluate(ctx context.Context, x vector.Point) (vector.Point, error)
}

// Server exposes a single-point evaluator to remote dispatchers.
type Server struct {
	eval   Evaluator
	logger *zap.Logger

	registry    *prometheus.Registry
	evaluations *prometheus.CounterVec
	durations   prometheus.Histogram
}

func NewServer(eval Evaluator, logger *zap.Logger) *Server {
	s := &Server{
		eval:     eval,
		logger:   logger,
		registry: prometheus.NewRegistry(),
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "otwrapy_worker_evaluations_total",
			Help: "Evaluations served by this worker, by result.",
		}, []string{"result"}),
		durations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "otwrapy_worker_evaluation_seconds",
			Help:    "Wall time of evaluations served by this worker.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
		}),
	}
	s.registry.MustRegister(s.evaluations, s.durations)
	return s
}

// Router wires the worker's HTTP surface.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Post("/v1/evaluate", s.handleEvaluate)
	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	return r
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	start := time.Now()
	y, err := s.eval.Evaluate(r.Context(), vector.Point(req.X))
	elapsed := time.Since(start)
	s.durations.Observe(elapsed.Seconds())

	if err != nil {
		s.evaluations.WithLabelValues("error").Inc()
		s.logger.Warn("evaluation failed",
			zap.Float64s("x", req.X), zap.Error(err))

		resp := ErrorResponse{Error: err.Error()}
		var evalErr *model.EvalError
		if errors.As(err, &evalErr) {
			resp.Stage = string(evalErr.Stage)
		}
		writeJSON(w, http.StatusUnprocessableEntity, resp)
		return
	}

	s.evaluations.WithLabelValues("ok").Inc()
	s.logger.Debug("evaluation served",
		zap.Int("dim", len(req.X)), zap.Duration("elapsed", elapsed))
	writeJSON(w, http.StatusOK, EvaluateResponse{
		Y:         y,
		RuntimeMS: float64(elapsed.Milliseconds()),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
