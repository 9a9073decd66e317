// Package api provides the HTTP REST API server for jyotish.
//
// It exposes chart computation (positions, houses, divisional charts,
// strengths, Ashtakavarga, dasha, panchang, yogas), activity prediction,
// iCalendar export and the chart archive as JSON endpoints.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/seenimoa/jyotish/internal/chart"
	"github.com/seenimoa/jyotish/internal/config"
	"github.com/seenimoa/jyotish/internal/dasha"
	"github.com/seenimoa/jyotish/internal/ephemeris"
	"github.com/seenimoa/jyotish/internal/predictor"
	"github.com/seenimoa/jyotish/internal/storage"
	"github.com/seenimoa/jyotish/internal/varga"
	"github.com/seenimoa/jyotish/internal/yoga"
	"github.com/seenimoa/jyotish/pkg/utils"
)

// Server is the HTTP API server.
type Server struct {
	router  chi.Router
	cfg     *config.Config
	eph     ephemeris.Provider
	yogas   *yoga.Detector
	archive *storage.Archive // nil disables /charts
	logger  *slog.Logger
	version string
}

// NewServer creates a configured API server with all routes and middleware.
// Yoga rules are loaded from cfg.Yoga.RulesFile.
func NewServer(cfg *config.Config, eph ephemeris.Provider, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	det, err := yoga.LoadFile(cfg.Yoga.RulesFile, logger)
	if err != nil {
		return nil, fmt.Errorf("yoga rules: %w", err)
	}
	srv := &Server{
		cfg:     cfg,
		eph:     eph,
		yogas:   det,
		logger:  logger,
		version: "dev",
	}
	srv.router = srv.buildRouter()
	return srv, nil
}

// SetArchive enables the /charts endpoints backed by a.
func (s *Server) SetArchive(a *storage.Archive) {
	s.archive = a
}

// SetVersion sets the version reported by /health.
func (s *Server) SetVersion(v string) {
	s.version = v
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api server listening", "addr", addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	s.logger.Info("shutting down api server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	// CORS
	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	// Health check
	r.Get("/health", s.handleHealth)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// Chart computation
		r.Get("/positions", s.handlePositions)
		r.Get("/houses", s.handleHouses)
		r.Get("/varga", s.handleVarga)
		r.Get("/strength", s.handleStrength)
		r.Get("/ashtakavarga", s.handleAshtakavarga)
		r.Get("/panchang", s.handlePanchang)
		r.Get("/yogas", s.handleYogas)

		// Dasha
		r.Get("/dasha", s.handleDasha)
		r.Get("/dasha.ics", s.handleDashaICS)

		// Prediction
		r.Get("/activities", s.handleActivities)
		r.Post("/predict", s.handlePredict)
		r.Post("/predict.ics", s.handlePredictICS)

		// Chart archive
		r.Get("/charts", s.handleListCharts)
		r.Post("/charts", s.handleSaveChart)
		r.Get("/charts/{id}", s.handleGetChart)
		r.Delete("/charts/{id}", s.handleDeleteChart)

		// Configuration
		r.Get("/config", s.handleGetConfig)
	})

	return r
}

// requestLogger logs one line per request through slog.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

// ============================================================
// Request / Response types
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// PredictRequest is the body for POST /api/v1/predict. Omitted coordinates
// fall back to the configured location; To defaults to From + 24h.
type PredictRequest struct {
	Activity        string   `json:"activity"`
	From            string   `json:"from"`
	To              string   `json:"to,omitempty"`
	Latitude        *float64 `json:"latitude,omitempty"`
	Longitude       *float64 `json:"longitude,omitempty"`
	TZOffsetHours   *float64 `json:"tz_offset_hours,omitempty"`
	IntervalMinutes int      `json:"interval_minutes,omitempty"`
	Top             int      `json:"top,omitempty"`
	Birth           string   `json:"birth,omitempty"`
	BirthLatitude   *float64 `json:"birth_latitude,omitempty"`
	BirthLongitude  *float64 `json:"birth_longitude,omitempty"`
}

// PredictResponse is the data of a prediction.
type PredictResponse struct {
	Activity  string             `json:"activity"`
	Intervals int                `json:"intervals"`
	Windows   []predictor.Window `json:"windows"`
}

// SaveChartRequest is the body for POST /api/v1/charts.
type SaveChartRequest struct {
	Name          string   `json:"name"`
	At            string   `json:"at"`
	Latitude      *float64 `json:"latitude,omitempty"`
	Longitude     *float64 `json:"longitude,omitempty"`
	TZOffsetHours *float64 `json:"tz_offset_hours,omitempty"`
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"status":    "ok",
			"version":   s.version,
			"ephemeris": s.eph.Name(),
			"ayanamsa":  s.eph.Config().Ayanamsa,
			"archive":   s.archive != nil,
			"time_ist":  utils.FormatDateTimeIST(utils.NowIST()),
		},
	})
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	n, ok := s.natal(w, r, []varga.Division{varga.Rasi})
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"observer":  n.Observer,
			"ayanamsa":  s.eph.Config().Ayanamsa,
			"positions": n.Rows(),
		},
	})
}

func (s *Server) handleHouses(w http.ResponseWriter, r *http.Request) {
	n, ok := s.natal(w, r, []varga.Division{varga.Rasi})
	if !ok {
		return
	}
	code := s.eph.Config().HouseSystem
	name, _ := ephemeris.HouseSystemName(code)
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"observer":     n.Observer,
			"house_system": name,
			"houses":       n.Cusps,
		},
	})
}

func (s *Server) handleVarga(w http.ResponseWriter, r *http.Request) {
	var divs []varga.Division
	if q := r.URL.Query().Get("div"); q != "" && q != "all" {
		var err error
		if divs, err = varga.ParseDivisions(strings.Split(q, ",")); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	n, ok := s.natal(w, r, divs)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: n.Vargas.Table()})
}

func (s *Server) handleStrength(w http.ResponseWriter, r *http.Request) {
	n, ok := s.natal(w, r, nil)
	if !ok {
		return
	}
	calc := n.Strength()
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"shadbala":     calc.Shadbala(),
			"bhavabala":    calc.Bhavabala(),
			"ishta_kashta": calc.IshtaKashta(),
		},
	})
}

func (s *Server) handleAshtakavarga(w http.ResponseWriter, r *http.Request) {
	n, ok := s.natal(w, r, []varga.Division{varga.Rasi})
	if !ok {
		return
	}
	bav, sav := n.Ashtakavarga()
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"bhinnashtakavarga": bav,
			"sarvashtakavarga":  sav,
		},
	})
}

func (s *Server) handlePanchang(w http.ResponseWriter, r *http.Request) {
	o, err := s.observer(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	d, err := s.panchangFor(o)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: d})
}

func (s *Server) handleYogas(w http.ResponseWriter, r *http.Request) {
	n, ok := s.natal(w, r, []varga.Division{varga.Rasi})
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: n.Yogas(s.yogas)})
}

func (s *Server) handleDasha(w http.ResponseWriter, r *http.Request) {
	tl, o, ok := s.timeline(w, r)
	if !ok {
		return
	}
	if on := r.URL.Query().Get("on"); on != "" {
		t, err := chart.ParseInstant(on, o.TZOffsetHours)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		var chain []dasha.Period
		for level := 1; level <= tl.MaxLevel(); level++ {
			if p, found := tl.Active(t, level); found {
				chain = append(chain, p)
			}
		}
		writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: chain})
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: tl.Sorted()})
}

func (s *Server) handleActivities(w http.ResponseWriter, r *http.Request) {
	out := make([]predictor.Activity, 0, len(predictor.Activities))
	for _, name := range predictor.ActivityNames() {
		out = append(out, predictor.Activities[name])
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: out})
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	req, top, ok := s.predictRequest(w, r)
	if !ok {
		return
	}
	windows, err := s.predict(r.Context(), req)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	total := len(windows)
	if top > 0 && top < len(windows) {
		windows = windows[:top]
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    PredictResponse{Activity: req.Activity, Intervals: total, Windows: windows},
	})
}

// ============================================================
// Helpers
// ============================================================

// observer reads at/lat/lon/tz query parameters over the configured location.
func (s *Server) observer(r *http.Request) (chart.Observer, error) {
	q := r.URL.Query()
	o := chart.Observer{
		Latitude:      s.cfg.Location.Latitude,
		Longitude:     s.cfg.Location.Longitude,
		TZOffsetHours: s.cfg.Location.TZOffsetHours,
	}
	for key, dst := range map[string]*float64{
		"lat": &o.Latitude,
		"lon": &o.Longitude,
		"tz":  &o.TZOffsetHours,
	} {
		if v := q.Get(key); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return o, fmt.Errorf("invalid %s %q", key, v)
			}
			*dst = f
		}
	}
	if err := o.Validate(); err != nil {
		return o, err
	}
	t, err := chart.ParseInstant(q.Get("at"), o.TZOffsetHours)
	if err != nil {
		return o, err
	}
	o.At = t
	return o, nil
}

// natal parses the observer and computes the chart, writing the error
// response itself when it fails.
func (s *Server) natal(w http.ResponseWriter, r *http.Request, divs []varga.Division) (*chart.Natal, bool) {
	o, err := s.observer(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	n, err := chart.Compute(s.eph, o, divs)
	if err != nil {
		s.writeEngineError(w, err)
		return nil, false
	}
	return n, true
}

// timeline computes the dasha timeline with the observer instant as birth.
func (s *Server) timeline(w http.ResponseWriter, r *http.Request) (dasha.Timeline, chart.Observer, bool) {
	levels := s.cfg.Dasha.Levels
	if v := r.URL.Query().Get("levels"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid levels %q", v))
			return nil, chart.Observer{}, false
		}
		levels = n
	}
	n, ok := s.natal(w, r, []varga.Division{varga.Rasi})
	if !ok {
		return nil, chart.Observer{}, false
	}
	tl, err := n.Dasha(levels)
	if err != nil {
		s.writeEngineError(w, err)
		return nil, chart.Observer{}, false
	}
	return tl, n.Observer, true
}

// writeEngineError maps engine sentinels to client errors.
func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chart.ErrInvalidObserver),
		errors.Is(err, varga.ErrUnknownDivision),
		errors.Is(err, dasha.ErrInvalidLevels),
		errors.Is(err, predictor.ErrInvalidRange):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		s.logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Warn("failed to write JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}
