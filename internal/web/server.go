package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/sitesum/internal/crawl"
	"github.com/hyperifyio/sitesum/internal/store"
)

//go:embed templates/index.html
var templatesFS embed.FS

var indexTmpl = template.Must(template.ParseFS(templatesFS, "templates/index.html"))

// Runner executes one crawl. app.App satisfies it.
type Runner interface {
	RunCrawl(ctx context.Context, startURL string, maxPages int) (crawl.Outcome, error)
}

// HistoryReader lists past crawls. store.History satisfies it.
type HistoryReader interface {
	Recent(ctx context.Context, limit int) ([]store.CrawlRecord, error)
	Pages(ctx context.Context, crawlID int64) (*crawl.Results, error)
}

// Server is the form front end plus a small JSON API.
type Server struct {
	Runner          Runner
	DefaultMaxPages int
	// History enables /api/crawls when set.
	History HistoryReader
	// Gatherer backs /metrics; nil disables the endpoint.
	Gatherer prometheus.Gatherer
	// CrawlTimeout bounds one request's crawl. Zero leaves it unbounded.
	CrawlTimeout time.Duration
}

type pageData struct {
	StartURL string
	MaxPages int
	Error    string
	Pages    []crawl.Entry
}

type apiRequest struct {
	URL      string `json:"url"`
	MaxPages int    `json:"max_pages"`
}

type apiResponse struct {
	Results *crawl.Results `json:"results"`
	Error   string         `json:"error,omitempty"`
	Visited int            `json:"visited"`
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Post("/", s.handleCrawlForm)
	r.Post("/api/crawl", s.handleCrawlAPI)
	if s.History != nil {
		r.Get("/api/crawls", s.handleListCrawls)
		r.Get("/api/crawls/{id}", s.handleGetCrawl)
	}
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	if s.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

func (s *Server) defaultMaxPages() int {
	if s.DefaultMaxPages > 0 {
		return s.DefaultMaxPages
	}
	return 10
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, pageData{MaxPages: s.defaultMaxPages()})
}

func (s *Server) handleCrawlForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.render(w, http.StatusBadRequest, pageData{MaxPages: s.defaultMaxPages(), Error: "invalid form"})
		return
	}
	data := pageData{StartURL: strings.TrimSpace(r.PostFormValue("url"))}
	maxPages, err := parseMaxPages(r.PostFormValue("max_pages"), s.defaultMaxPages())
	data.MaxPages = maxPages
	if err != nil {
		data.MaxPages = s.defaultMaxPages()
		data.Error = err.Error()
		s.render(w, http.StatusBadRequest, data)
		return
	}
	if data.StartURL == "" {
		data.Error = "url is required"
		s.render(w, http.StatusBadRequest, data)
		return
	}

	out, err := s.run(r.Context(), data.StartURL, maxPages)
	if err != nil {
		log.Error().Err(err).Str("url", data.StartURL).Msg("crawl request failed")
		data.Error = err.Error()
		s.render(w, http.StatusInternalServerError, data)
		return
	}
	if out.Err != nil {
		data.Error = out.Err.Error()
	}
	data.Pages = out.Results.Entries()
	s.render(w, http.StatusOK, data)
}

func (s *Server) handleCrawlAPI(w http.ResponseWriter, r *http.Request) {
	var req apiRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		respondWithError(w, http.StatusBadRequest, "url is required")
		return
	}
	if req.MaxPages < 0 {
		respondWithError(w, http.StatusBadRequest, "max_pages must be positive")
		return
	}
	if req.MaxPages == 0 {
		req.MaxPages = s.defaultMaxPages()
	}
	out, err := s.run(r.Context(), req.URL, req.MaxPages)
	if err != nil {
		log.Error().Err(err).Str("url", req.URL).Msg("crawl request failed")
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := apiResponse{Results: out.Results, Visited: out.Visited}
	if out.Err != nil {
		resp.Error = out.Err.Error()
	}
	respondWithJSON(w, http.StatusOK, resp)
}

type crawlSummary struct {
	ID         int64   `json:"id"`
	StartURL   string  `json:"start_url"`
	MaxPages   int     `json:"max_pages"`
	StartedAt  string  `json:"started_at"`
	DurationMS int64   `json:"duration_ms"`
	Visited    int     `json:"visited"`
	Pages      int     `json:"pages"`
	Error      *string `json:"error"`
}

func (s *Server) handleListCrawls(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondWithError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	recs, err := s.History.Recent(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("list crawls")
		respondWithError(w, http.StatusInternalServerError, "could not list crawls")
		return
	}
	out := make([]crawlSummary, 0, len(recs))
	for _, rec := range recs {
		cs := crawlSummary{
			ID:         rec.ID,
			StartURL:   rec.StartURL,
			MaxPages:   rec.MaxPages,
			StartedAt:  rec.StartedAt.UTC().Format(time.RFC3339),
			DurationMS: rec.Duration.Milliseconds(),
			Visited:    rec.Visited,
			Pages:      rec.Pages,
		}
		if rec.Error != "" {
			msg := rec.Error
			cs.Error = &msg
		}
		out = append(out, cs)
	}
	respondWithJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetCrawl(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid crawl id")
		return
	}
	results, err := s.History.Pages(r.Context(), id)
	if errors.Is(err, store.ErrCrawlNotFound) {
		respondWithError(w, http.StatusNotFound, "crawl not found")
		return
	}
	if err != nil {
		log.Error().Err(err).Int64("crawl_id", id).Msg("load crawl")
		respondWithError(w, http.StatusInternalServerError, "could not load crawl")
		return
	}
	respondWithJSON(w, http.StatusOK, results)
}

func (s *Server) run(ctx context.Context, startURL string, maxPages int) (crawl.Outcome, error) {
	if s.Runner == nil {
		return crawl.Outcome{}, errors.New("no crawl runner configured")
	}
	if s.CrawlTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.CrawlTimeout)
		defer cancel()
	}
	return s.Runner.RunCrawl(ctx, startURL, maxPages)
}

func (s *Server) render(w http.ResponseWriter, status int, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := indexTmpl.Execute(w, data); err != nil {
		log.Error().Err(err).Msg("render index")
	}
}

// parseMaxPages reads the form field; blank means the default.
func parseMaxPages(raw string, def int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, errors.New("max_pages must be a positive integer")
	}
	return n, nil
}

func respondWithJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}

func respondWithError(w http.ResponseWriter, status int, msg string) {
	respondWithJSON(w, status, map[string]string{"error": msg})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("took", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("http request")
	})
}
