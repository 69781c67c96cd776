// Package server is the HTTP + WebSocket API surface for ALERTA-LINK,
// spec.md §6.1. Grounded structurally on moku's internal/server/server.go:
// one Server struct owning a chi.Router and a logger, a routes() method
// wiring every endpoint, writeJSON/writeError helpers, and a request-logging
// ServeHTTP wrapper. CORS here is go-chi/cors instead of the teacher's
// hand-rolled Access-Control-* middleware, since SPEC_FULL.md's ambient
// stack calls for the real middleware over a bespoke one, and spec.md §6.4
// requires an explicit origin allow-list rather than "*".
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"

	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/logging"
	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/model"
	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/orchestrator"
	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/ratelimit"
	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/reputation"
	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/store"
	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/urlsafety"
)

// Config wires a Server's collaborators. Every field is required except
// WHOIS: when it is nil, GET /whois/{domain} answers 503. This field is used
// only by that handler; the engine's own WHOIS client is set separately in
// orchestrator.Config and must not be nil.
type Config struct {
	AppName     string
	AppVersion  string
	ListenAddr  string
	CORSOrigins []string

	Engine    *orchestrator.Engine
	Store     store.Store
	Limiter   *ratelimit.Limiter
	WHOIS     *reputation.WHOISClient
	Tranco    *reputation.TrancoClient
	VT        *reputation.VirusTotalClient
	MLLoaded  func() bool
	Logger    logging.Logger

	DefaultEnableCrawler bool
}

// Server is ALERTA-LINK's public HTTP surface: /analyze, /report, /ingest,
// /health, /settings, /whois/{domain}, and the supplemental async job
// endpoints (SPEC_FULL.md item 6).
type Server struct {
	cfg    Config
	router chi.Router
	logger logging.Logger

	upgrader websocket.Upgrader
	jobs     *jobManager

	modeMu sync.RWMutex
	mode   string // "auto" | "online" | "offline"
}

// NewServer builds the router and returns a ready-to-serve Server.
func NewServer(cfg Config) *Server {
	s := &Server{
		cfg:    cfg,
		logger: cfg.Logger.With(logging.Field{Key: "component", Value: "server"}),
		jobs:   newJobManager(cfg.Engine),
		mode:   "auto",
	}
	s.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return s.originAllowed(r.Header.Get("Origin")) },
	}
	s.router = s.routes()
	return s
}

func (s *Server) originAllowed(origin string) bool {
	if origin == "" {
		return true
	}
	for _, o := range s.cfg.CORSOrigins {
		if o == origin {
			return true
		}
	}
	return false
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(s.requestLogger)

	r.With(s.rateLimited).Post("/analyze", s.handleAnalyze)
	r.Post("/analyze/async", s.handleAnalyzeAsync)
	r.Get("/jobs/{jobID}", s.handleGetJob)
	r.Get("/ws/jobs/{jobID}", s.handleJobWS)

	r.Post("/report", s.handleReport)
	r.Post("/ingest", s.handleIngest)

	r.Get("/health", s.handleHealth)
	r.Get("/settings", s.handleGetSettings)
	r.Post("/settings/mode", s.handleSetMode)

	r.Get("/whois/{domain}", s.handleWHOIS)

	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.Info("http_request", logging.Field{Key: "method", Value: r.Method}, logging.Field{Key: "path", Value: r.URL.Path})
		next.ServeHTTP(w, r)
	})
}

// rateLimited enforces spec.md §4.9: token-bucket per client identity,
// 429 without touching C1-C10 when exhausted.
func (s *Server) rateLimited(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.Limiter != nil && !s.cfg.Limiter.Allow(clientIdentity(r)) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIdentity(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	return r.RemoteAddr
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.router.ServeHTTP(w, r) }

// HTTPServer returns an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // analyze/async and the job websocket may stream
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// --- /analyze ---

type analyzeRequest struct {
	URL     string `json:"url"`
	Model   string `json:"model"`
	Mode    string `json:"mode"`
	Options struct {
		EnableCrawler  bool `json:"enable_crawler"`
		TimeoutSeconds int  `json:"timeout_seconds"`
		MaxRedirects   int  `json:"max_redirects"`
	} `json:"options"`
}

func (s *Server) parseAnalyzeRequest(r *http.Request) (analyzeRequest, orchestrator.Options, error) {
	var body analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return body, orchestrator.Options{}, err
	}

	opts := orchestrator.Options{
		Model:         body.Model,
		Mode:          body.Mode,
		EnableCrawler: body.Options.EnableCrawler || s.cfg.DefaultEnableCrawler,
		MaxRedirects:  body.Options.MaxRedirects,
	}
	if body.Options.TimeoutSeconds > 0 {
		opts.Timeout = time.Duration(body.Options.TimeoutSeconds) * time.Second
	}
	return body, opts, nil
}

// @Summary Analyze a URL synchronously
// @Param   request body analyzeRequest true "URL to analyze"
// @Success 200 {object} model.Verdict
// @Failure 400 {object} map[string]string
// @Router /analyze [post]
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	body, opts, err := s.parseAnalyzeRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	verdict, err := s.cfg.Engine.Analyze(r.Context(), body.URL, opts)
	if err != nil {
		s.respondAnalyzeError(w, err)
		return
	}

	s.recordAnalysis(r.Context(), verdict)
	writeJSON(w, http.StatusOK, verdict)
}

func (s *Server) respondAnalyzeError(w http.ResponseWriter, err error) {
	var invalid *urlsafety.ErrInvalidURL
	var blocked *urlsafety.ErrBlockedTarget
	switch {
	case errors.As(err, &invalid), errors.As(err, &blocked):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Warn("analyze failed", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) recordAnalysis(ctx context.Context, v *model.Verdict) {
	if s.cfg.Store == nil || v == nil {
		return
	}
	rec := store.AnalysisResult{
		URL:               v.URL,
		URLHash:           store.HashURL(v.NormalizedURL),
		Score:             v.Score,
		RiskLevel:         string(v.RiskLevel),
		Signals:           store.MarshalSignals(v.Signals),
		TrancoVerified:    v.ApisConsulted.Tranco,
		VirusTotalChecked: v.ApisConsulted.VirusTotal,
		DurationMS:        v.Timestamps.DurationMS,
	}
	if err := s.cfg.Store.InsertAnalysisResult(ctx, rec); err != nil {
		s.logger.Warn("persisting analysis result", logging.Field{Key: "error", Value: err.Error()})
	}
}

// --- /analyze/async, /jobs/{id}, /ws/jobs/{id} (SPEC_FULL.md item 6) ---

// @Summary Submit a URL for asynchronous analysis
// @Param   request body analyzeRequest true "URL to analyze"
// @Success 202 {object} Job
// @Router /analyze/async [post]
func (s *Server) handleAnalyzeAsync(w http.ResponseWriter, r *http.Request) {
	body, opts, err := s.parseAnalyzeRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	job := s.jobs.start(body.URL, opts)
	writeJSON(w, http.StatusAccepted, job)
}

// @Summary Poll a previously submitted job
// @Param   jobID path string true "job id"
// @Success 200 {object} Job
// @Failure 404 {object} map[string]string
// @Router /jobs/{jobID} [get]
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job, ok := s.jobs.get(jobID)
	if !ok {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// @Summary Stream job progress over a WebSocket
// @Param   jobID path string true "job id"
// @Router /ws/jobs/{jobID} [get]
func (s *Server) handleJobWS(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job, ok := s.jobs.get(jobID)
	if !ok {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrading job websocket", logging.Field{Key: "error", Value: err.Error()})
		return
	}
	defer conn.Close()

	_ = conn.WriteJSON(job)
	for ev := range job.Events {
		if err := conn.WriteJSON(ev); err != nil {
			return
		}
		if ev.Type == JobEventResult {
			return
		}
	}
}

// --- /report, /ingest ---

// @Summary Submit a human label for a previously analyzed URL
// @Success 200 {object} map[string]string
// @Router /report [post]
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	var body struct {
		URL     string `json:"url"`
		Label   string `json:"label"`
		Comment string `json:"comment"`
		Contact string `json:"contact"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if !validReportLabel(body.Label) {
		writeError(w, http.StatusBadRequest, "label must be one of phishing, malware, scam, spam, unknown")
		return
	}

	id, err := s.cfg.Store.InsertReport(r.Context(), store.Report{
		URL:     body.URL,
		URLHash: store.HashURL(body.URL),
		Label:   body.Label,
		Comment: body.Comment,
		Contact: body.Contact,
		Source:  "api",
	})
	if err != nil {
		s.logger.Warn("inserting report", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "received", "report_id": id})
}

func validReportLabel(label string) bool {
	switch label {
	case "phishing", "malware", "scam", "spam", "unknown":
		return true
	default:
		return false
	}
}

// @Summary Ingest a labeled URL for future model training
// @Success 200 {object} map[string]string
// @Router /ingest [post]
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var body struct {
		URL      string         `json:"url"`
		Label    int            `json:"label"`
		Source   string         `json:"source"`
		Metadata map[string]any `json:"metadata"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if body.Label != 0 && body.Label != 1 {
		writeError(w, http.StatusBadRequest, "label must be 0 or 1")
		return
	}

	raw := ""
	if body.Metadata != nil {
		if b, err := json.Marshal(body.Metadata); err == nil {
			raw = string(b)
		}
	}

	err := s.cfg.Store.InsertIngestedURL(r.Context(), store.IngestedURL{
		URL:        body.URL,
		URLHash:    store.HashURL(body.URL),
		Label:      body.Label,
		Source:     body.Source,
		RawPayload: raw,
	})
	if err != nil {
		s.logger.Warn("inserting ingested url", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ingested"})
}

// --- /health, /settings ---

// @Summary Liveness and collaborator availability
// @Success 200 {object} map[string]any
// @Router /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	modelLoaded := s.cfg.MLLoaded != nil && s.cfg.MLLoaded()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"version":      s.cfg.AppVersion,
		"model_loaded": modelLoaded,
		"apis": map[string]bool{
			"tranco":     s.cfg.Tranco != nil,
			"virustotal": s.cfg.VT != nil,
		},
	})
}

// @Summary Read the current online/offline mode
// @Success 200 {object} map[string]string
// @Router /settings [get]
func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	s.modeMu.RLock()
	mode := s.mode
	s.modeMu.RUnlock()
	writeJSON(w, http.StatusOK, map[string]string{"mode": mode})
}

// @Summary Set the online/offline mode
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Router /settings/mode [post]
func (s *Server) handleSetMode(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Mode string `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	switch body.Mode {
	case "auto", "online", "offline":
	default:
		writeError(w, http.StatusBadRequest, "mode must be one of auto, online, offline")
		return
	}
	s.modeMu.Lock()
	s.mode = body.Mode
	s.modeMu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"mode": body.Mode})
}

// --- /whois/{domain} ---

// @Summary Look up registration-age risk for a domain
// @Param   domain path string true "domain"
// @Success 200 {object} map[string]any
// @Router /whois/{domain} [get]
func (s *Server) handleWHOIS(w http.ResponseWriter, r *http.Request) {
	domain := chi.URLParam(r, "domain")
	if s.cfg.WHOIS == nil {
		writeError(w, http.StatusServiceUnavailable, "whois lookups are not configured")
		return
	}

	res := s.cfg.WHOIS.Lookup(r.Context(), domain)
	if !res.OK {
		writeError(w, http.StatusServiceUnavailable, "whois lookup unavailable")
		return
	}

	ageDays := -1
	if res.Value.AgeDays != nil {
		ageDays = *res.Value.AgeDays
	}
	isNew := ageDays >= 0 && ageDays < 30

	writeJSON(w, http.StatusOK, map[string]any{
		"domain":         domain,
		"age_days":       res.Value.AgeDays,
		"is_new_domain":  isNew,
		"risk_indicator": whoisRiskIndicator(isNew, res.Value.Available),
	})
}

func whoisRiskIndicator(isNew, available bool) string {
	switch {
	case available:
		return "unregistered"
	case isNew:
		return "newly_registered"
	default:
		return "established"
	}
}
