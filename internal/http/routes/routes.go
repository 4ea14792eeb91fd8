package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	appmw "github.com/briangreenhill/ytrater/internal/http/middleware"
	"github.com/briangreenhill/ytrater/internal/rater"
)

// Rater is the rating pipeline the server exposes
type Rater interface {
	Rate(ctx context.Context, req rater.ScoreRequest) (rater.ScoreResult, error)
}

type Server struct {
	Router *chi.Mux
	Rater  Rater
}

type ServerOptions struct {
	Rater       Rater
	Logger      zerolog.Logger
	CORSOrigins []string
}

// maxBodyBytes bounds the /rate request body
const maxBodyBytes = 1 << 16

type rateResponse struct {
	Score       float64 `json:"score"`
	LastUpdated string  `json:"last_updated"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func New(opts ServerOptions) *Server {
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(appmw.Logging(opts.Logger))
	r.Use(appmw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	s := &Server{Router: r, Rater: opts.Rater}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("ok")); err != nil {
			hlog.FromRequest(r).Error().Err(err).Msg("writing health check response")
		}
	})

	r.Post("/rate", s.handleRate)

	return s
}

func (s *Server) handleRate(w http.ResponseWriter, r *http.Request) {
	var req rater.ScoreRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, r, http.StatusUnprocessableEntity, errorResponse{Detail: "invalid JSON body"})
		return
	}
	req.URL = strings.TrimSpace(req.URL)
	if err := validation.ValidateStruct(&req,
		validation.Field(&req.URL, validation.Required.Error("url is required")),
	); err != nil {
		writeJSON(w, r, http.StatusUnprocessableEntity, errorResponse{Detail: err.Error()})
		return
	}

	res, err := s.Rater.Rate(r.Context(), req)
	if err != nil {
		status := statusFor(rater.KindOf(err))
		hlog.FromRequest(r).Warn().Err(err).Int("status", status).Str("url", req.URL).Msg("rating failed")
		writeJSON(w, r, status, errorResponse{Detail: rater.Message(err)})
		return
	}

	writeJSON(w, r, http.StatusOK, rateResponse{
		Score:       res.Score,
		LastUpdated: res.LastUpdated.Format(time.RFC3339),
	})
}

func statusFor(k rater.Kind) int {
	switch k {
	case rater.KindInvalidURL:
		return http.StatusForbidden
	case rater.KindNoComments:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("encoding response")
	}
}
