package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/seenimoa/jyotish/internal/calendar"
	"github.com/seenimoa/jyotish/internal/chart"
	"github.com/seenimoa/jyotish/internal/panchang"
	"github.com/seenimoa/jyotish/internal/predictor"
	"github.com/seenimoa/jyotish/internal/storage"
)

// maxBody caps JSON request bodies.
const maxBody = 1 << 20

func (s *Server) panchangFor(o chart.Observer) (*panchang.Details, error) {
	return panchang.New(s.eph).Compute(o.At, o.Latitude, o.Longitude, o.TZ())
}

// ============================================================
// Prediction
// ============================================================

// predictRequest decodes and resolves a PredictRequest. It writes the error
// response itself when it fails.
func (s *Server) predictRequest(w http.ResponseWriter, r *http.Request) (predictor.Request, int, bool) {
	var body PredictRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return predictor.Request{}, 0, false
	}
	if body.Activity == "" {
		writeError(w, http.StatusBadRequest, "activity is required")
		return predictor.Request{}, 0, false
	}

	o := chart.Observer{
		Latitude:      pick(body.Latitude, s.cfg.Location.Latitude),
		Longitude:     pick(body.Longitude, s.cfg.Location.Longitude),
		TZOffsetHours: pick(body.TZOffsetHours, s.cfg.Location.TZOffsetHours),
	}
	if err := o.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return predictor.Request{}, 0, false
	}
	if body.From == "" {
		writeError(w, http.StatusBadRequest, "from is required")
		return predictor.Request{}, 0, false
	}
	start, err := chart.ParseInstant(body.From, o.TZOffsetHours)
	if err != nil {
		writeError(w, http.StatusBadRequest, "from: "+err.Error())
		return predictor.Request{}, 0, false
	}
	end := start.Add(24 * time.Hour)
	if body.To != "" {
		if end, err = chart.ParseInstant(body.To, o.TZOffsetHours); err != nil {
			writeError(w, http.StatusBadRequest, "to: "+err.Error())
			return predictor.Request{}, 0, false
		}
	}

	req := predictor.Request{
		Activity:        body.Activity,
		Start:           start,
		End:             end,
		Latitude:        o.Latitude,
		Longitude:       o.Longitude,
		TZOffsetHours:   o.TZ(),
		IntervalMinutes: body.IntervalMinutes,
	}
	if body.Birth != "" {
		bt, err := chart.ParseInstant(body.Birth, o.TZOffsetHours)
		if err != nil {
			writeError(w, http.StatusBadRequest, "birth: "+err.Error())
			return req, 0, false
		}
		lat := pick(body.BirthLatitude, o.Latitude)
		lon := pick(body.BirthLongitude, o.Longitude)
		if req.Birth, err = predictor.NewBirth(s.eph, bt, lat, lon); err != nil {
			s.writeEngineError(w, fmt.Errorf("birth chart: %w", err))
			return req, 0, false
		}
	}

	top := s.cfg.Predictor.Top
	if body.Top > 0 {
		top = body.Top
	}
	return req, top, true
}

func (s *Server) predict(ctx context.Context, req predictor.Request) ([]predictor.Window, error) {
	p := predictor.New(s.eph, predictor.Config{
		Workers:         s.cfg.Predictor.Workers,
		IntervalMinutes: s.cfg.Predictor.IntervalMinutes,
		DashaLevels:     s.cfg.Predictor.DashaLevels,
		NatalThreshold:  s.cfg.Predictor.NatalThreshold,
		MaxIntervals:    s.cfg.Predictor.MaxIntervals,
	}, s.logger)
	return p.Predict(ctx, req)
}

func (s *Server) handlePredictICS(w http.ResponseWriter, r *http.Request) {
	req, top, ok := s.predictRequest(w, r)
	if !ok {
		return
	}
	windows, err := s.predict(r.Context(), req)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	b := calendar.New(req.Activity + " windows")
	b.AddWindows(req.Activity, windows, top)
	writeCalendar(w, b, "windows.ics")
}

// ============================================================
// Dasha calendar
// ============================================================

func (s *Server) handleDashaICS(w http.ResponseWriter, r *http.Request) {
	tl, o, ok := s.timeline(w, r)
	if !ok {
		return
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		name = "Vimshottari dasha " + o.At.Format("2006-01-02")
	}
	b := calendar.New(name)
	b.AddDasha(tl, tl.MaxLevel())
	writeCalendar(w, b, "dasha.ics")
}

func writeCalendar(w http.ResponseWriter, b *calendar.Builder, filename string) {
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("X-Event-Count", strconv.Itoa(b.Len()))
	if err := b.Encode(w); err != nil {
		slog.Default().Warn("failed to write calendar", "error", err)
	}
}

// ============================================================
// Chart archive
// ============================================================

// requireArchive writes 503 when the archive is disabled.
func (s *Server) requireArchive(w http.ResponseWriter) bool {
	if s.archive == nil {
		writeError(w, http.StatusServiceUnavailable, "chart archive is not enabled")
		return false
	}
	return true
}

func (s *Server) handleListCharts(w http.ResponseWriter, r *http.Request) {
	if !s.requireArchive(w) {
		return
	}
	entries, err := s.archive.List(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	if entries == nil {
		entries = []storage.Entry{}
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: entries})
}

func (s *Server) handleSaveChart(w http.ResponseWriter, r *http.Request) {
	if !s.requireArchive(w) {
		return
	}
	var body SaveChartRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if body.Name == "" || body.At == "" {
		writeError(w, http.StatusBadRequest, "name and at are required")
		return
	}
	o := chart.Observer{
		Latitude:      pick(body.Latitude, s.cfg.Location.Latitude),
		Longitude:     pick(body.Longitude, s.cfg.Location.Longitude),
		TZOffsetHours: pick(body.TZOffsetHours, s.cfg.Location.TZOffsetHours),
	}
	t, err := chart.ParseInstant(body.At, o.TZOffsetHours)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	o.At = t

	n, err := chart.Compute(s.eph, o, nil)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	id, err := s.archive.Put(r.Context(), n.Record(body.Name))
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.logger.Info("chart archived", "id", id, "name", body.Name)
	writeJSON(w, http.StatusCreated, APIResponse{
		Success: true,
		Data:    map[string]string{"id": id, "name": body.Name},
	})
}

func (s *Server) handleGetChart(w http.ResponseWriter, r *http.Request) {
	if !s.requireArchive(w) {
		return
	}
	rec, err := s.archive.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: rec})
}

func (s *Server) handleDeleteChart(w http.ResponseWriter, r *http.Request) {
	if !s.requireArchive(w) {
		return
	}
	id := chi.URLParam(r, "id")
	if err := s.archive.Delete(r.Context(), id); err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: map[string]string{"deleted": id}})
}

func pick(v *float64, def float64) float64 {
	if v != nil {
		return *v
	}
	return def
}
