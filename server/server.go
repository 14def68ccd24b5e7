// Package server exposes the persisted properties and the combined feed over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"listing_combiner/models"
	"listing_combiner/storage"
)

type Server struct {
	store    storage.Store
	feedPath string
	http     *http.Server
}

func New(addr string, store storage.Store, feedPath string) *Server {
	s := &Server{store: store, feedPath: feedPath}
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routed handler wrapped in CORS and request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/properties", s.handleListProperties)
	mux.HandleFunc("GET /api/properties/{id}", s.handleGetProperty)
	mux.HandleFunc("GET /feed", s.handleFeed)
	return requestLogger(cors(mux))
}

func (s *Server) ListenAndServe() error {
	log.Info().Str("addr", s.http.Addr).Msg("http server listening")
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleListProperties(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var filter models.ResidentialFilter
	if v := q.Get("status"); v != "" {
		filter.Status = &v
	}
	if v := q.Get("suburb"); v != "" {
		filter.Suburb = &v
	}
	if v := q.Get("bedrooms"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bedrooms must be an integer")
			return
		}
		filter.Bedrooms = &n
	}

	rows, err := s.store.ListResidentials(r.Context(), filter)
	if err != nil {
		log.Error().Err(err).Msg("list properties")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleGetProperty(w http.ResponseWriter, r *http.Request) {
	row, err := s.store.GetResidential(r.Context(), r.PathValue("id"))
	if err != nil {
		log.Error().Err(err).Msg("get property")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if row == nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	if _, err := os.Stat(s.feedPath); err != nil {
		http.Error(w, "feed has not been generated yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	http.ServeFile(w, r, s.feedPath)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("took", time.Since(start)).
			Msg("request")
	})
}
