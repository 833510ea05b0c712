package frontend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phishnet/phish-detector/internal/core"
	"github.com/phishnet/phish-detector/internal/dom"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// Detector is the part of the detection service the frontends drive
type Detector interface {
	AnalyzeURL(ctx context.Context, url string) (*core.ClassificationResult, error)
	AnalyzeContent(ctx context.Context, url, content string, dom *core.DomFeatures) (*core.ClassificationResult, error)
	RecordFeedback(ctx context.Context, url string, systemDetermination, userFeedback bool) error
	Stats(ctx context.Context) core.StatsSnapshot
	History(ctx context.Context, url string) ([]core.AnalysisRecord, error)
}

// HTTPFrontend serves the detection API over HTTP
type HTTPFrontend struct {
	detector  Detector
	extractor *dom.Extractor
	logger    *zap.Logger

	listenAddr   string
	readTimeout  time.Duration
	writeTimeout time.Duration
	maxBodyBytes int64

	server *http.Server
}

// NewHTTPFrontend creates a new HTTP frontend
func NewHTTPFrontend(
	detector Detector,
	extractor *dom.Extractor,
	logger *zap.Logger,
	listenAddr string,
	readTimeout time.Duration,
	writeTimeout time.Duration,
	maxBodyBytes int64,
) *HTTPFrontend {
	if maxBodyBytes <= 0 {
		maxBodyBytes = 2 << 20
	}
	return &HTTPFrontend{
		detector:     detector,
		extractor:    extractor,
		logger:       logger,
		listenAddr:   listenAddr,
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
		maxBodyBytes: maxBodyBytes,
	}
}

// Handler builds the router
func (f *HTTPFrontend) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(f.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("pong"))
	})

	r.Route("/api/v1/phishing", func(api chi.Router) {
		api.Post("/analyze", f.analyzeURL)
		api.Post("/analyze/content", f.analyzeContent)
		api.Post("/feedback", f.feedback)
		api.Get("/stats", f.stats)
		api.Get("/history", f.history)
	})

	return r
}

// Start binds the listen address and serves in the background
func (f *HTTPFrontend) Start() error {
	ln, err := net.Listen("tcp", f.listenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", f.listenAddr, err)
	}

	f.server = &http.Server{
		Handler:      f.Handler(),
		ReadTimeout:  f.readTimeout,
		WriteTimeout: f.writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	f.logger.Info("HTTP frontend starting", zap.String("address", ln.Addr().String()))

	go func() {
		if err := f.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			f.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop drains in-flight requests
func (f *HTTPFrontend) Stop() error {
	if f.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return f.server.Shutdown(ctx)
}

type analyzeURLRequest struct {
	URL string `json:"url"`
}

type analyzeContentRequest struct {
	URL         string            `json:"url"`
	Content     string            `json:"content"`
	DomFeatures *core.DomFeatures `json:"domFeatures"`
}

type feedbackRequest struct {
	URL          string `json:"url"`
	IsPhishing   *bool  `json:"isPhishing"`
	UserFeedback *bool  `json:"userFeedback"`
}

func (f *HTTPFrontend) analyzeURL(w http.ResponseWriter, r *http.Request) {
	var req analyzeURLRequest
	if !f.decode(w, r, &req) {
		return
	}
	if req.URL == "" {
		jsonError(w, "URL is required", http.StatusBadRequest)
		return
	}

	result, err := f.detector.AnalyzeURL(r.Context(), req.URL)
	if err != nil {
		f.fail(w, r, err)
		return
	}
	jsonData(w, result)
}

func (f *HTTPFrontend) analyzeContent(w http.ResponseWriter, r *http.Request) {
	var req analyzeContentRequest
	if !f.decode(w, r, &req) {
		return
	}
	if req.Content == "" {
		jsonError(w, "Page content is required", http.StatusBadRequest)
		return
	}
	if req.URL == "" {
		jsonError(w, "URL is required", http.StatusBadRequest)
		return
	}

	features := req.DomFeatures
	if features == nil {
		extracted, err := f.extractor.Extract(req.URL, req.Content)
		if err != nil {
			f.logger.Warn("Failed to derive page features", zap.String("url", req.URL), zap.Error(err))
		} else {
			features = extracted
		}
	}

	result, err := f.detector.AnalyzeContent(r.Context(), req.URL, req.Content, features)
	if err != nil {
		f.fail(w, r, err)
		return
	}
	jsonData(w, result)
}

func (f *HTTPFrontend) feedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if !f.decode(w, r, &req) {
		return
	}
	if req.URL == "" || req.UserFeedback == nil || req.IsPhishing == nil {
		jsonError(w, "URL, isPhishing and userFeedback are required", http.StatusBadRequest)
		return
	}

	if err := f.detector.RecordFeedback(r.Context(), req.URL, *req.IsPhishing, *req.UserFeedback); err != nil {
		f.fail(w, r, err)
		return
	}
	jsonMessage(w, "Feedback recorded successfully")
}

func (f *HTTPFrontend) stats(w http.ResponseWriter, r *http.Request) {
	jsonData(w, f.detector.Stats(r.Context()))
}

func (f *HTTPFrontend) history(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if url == "" {
		jsonError(w, "URL is required", http.StatusBadRequest)
		return
	}

	records, err := f.detector.History(r.Context(), url)
	if err != nil {
		f.fail(w, r, err)
		return
	}
	if records == nil {
		records = []core.AnalysisRecord{}
	}
	jsonData(w, records)
}

func (f *HTTPFrontend) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	body := http.MaxBytesReader(w, r.Body, f.maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, "request body too large", http.StatusRequestEntityTooLarge)
			return false
		}
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func (f *HTTPFrontend) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		f.logger.Error("Request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err))
	}
	jsonError(w, err.Error(), code)
}

// statusFor maps service errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrClassificationService), errors.Is(err, core.ErrClassificationParse):
		return http.StatusBadGateway
	case errors.Is(err, core.ErrPersistence):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (f *HTTPFrontend) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		f.logger.Debug("Request served",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

type envelope struct {
	Status  string      `json:"status"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}

func jsonData(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusOK, envelope{Status: "success", Data: data})
}

func jsonMessage(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusOK, envelope{Status: "success", Message: msg})
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, envelope{Status: "error", Message: msg})
}
