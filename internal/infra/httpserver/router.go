package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	apppredictions "github.com/plantvision/leafscan/internal/application/predictions"
	domain "github.com/plantvision/leafscan/internal/domain/predictions"
	"github.com/plantvision/leafscan/internal/middleware"
)

const defaultMaxUploadSize = 32 << 20 // 32 MiB across the whole batch

// Options tunes the HTTP surface; zero values get sane defaults.
type Options struct {
	MaxUploadSize int64
	// ImagesDir, when set, serves the local archive under /api/images/.
	ImagesDir string
	// HealthCheckers back the /health endpoint.
	HealthCheckers map[string]middleware.HealthChecker
	// RateLimitCapacity/RateLimitRefill configure per-IP limiting;
	// zero capacity disables it.
	RateLimitCapacity int
	RateLimitRefill   int
}

type Router struct {
	svc           *apppredictions.Service
	maxUploadSize int64
}

func NewRouter(svc *apppredictions.Service, opts Options) http.Handler {
	maxUpload := opts.MaxUploadSize
	if maxUpload <= 0 {
		maxUpload = defaultMaxUploadSize
	}
	rt := &Router{svc: svc, maxUploadSize: maxUpload}

	mux := chi.NewRouter()
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))
	if opts.RateLimitCapacity > 0 {
		mux.Use(middleware.RateLimitMiddleware(opts.RateLimitCapacity, opts.RateLimitRefill))
	}

	mux.Get("/health", middleware.HealthHandler(opts.HealthCheckers))
	mux.Get("/ready", middleware.ReadinessHandler)
	mux.Get("/live", middleware.LivenessHandler)
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/api", func(r chi.Router) {
		r.Post("/predict", rt.wrap(rt.handlePredict))
		r.Get("/results", rt.wrap(rt.handleResults))
		r.Get("/results/{id}", rt.wrap(rt.handleResultByID))
	})

	if opts.ImagesDir != "" {
		fileServer := http.FileServer(http.Dir(opts.ImagesDir))
		mux.Handle("/api/images/*", http.StripPrefix("/api/images", fileServer))
	}

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// validationError marks request-level malformation (HTTP 400), as
// opposed to per-item failures which ride inside a 200 response.
type validationError struct{ msg string }

func (e *validationError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &validationError{msg: fmt.Sprintf(format, args...)}
}

func (rt *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			var vErr *validationError
			if errors.As(err, &vErr) {
				writeJSONError(w, http.StatusBadRequest, vErr.Error())
				return
			}
			if errors.Is(err, domain.ErrNotFound) {
				writeJSONError(w, http.StatusNotFound, "result not found")
				return
			}
			writeJSONError(w, http.StatusInternalServerError, "lookup failed")
		}
	}
}

// POST /api/predict
// Multipart form with one or more "files" parts. Always answers 200
// with a mixed-outcome body; only request-level malformation is a 400.
func (rt *Router) handlePredict(w http.ResponseWriter, req *http.Request) error {
	req.Body = http.MaxBytesReader(w, req.Body, rt.maxUploadSize)
	if err := req.ParseMultipartForm(rt.maxUploadSize); err != nil {
		return badRequest("invalid multipart request: %v", err)
	}
	defer req.MultipartForm.RemoveAll()

	headers := req.MultipartForm.File["files"]
	if len(headers) == 0 {
		return badRequest("no files uploaded")
	}

	results := make([]domain.BatchItemResult, len(headers))
	var items []domain.BatchItem
	var itemIdx []int

	// Pre-validate per item; rejected items become failure variants
	// without ever entering the pipeline.
	for i, hdr := range headers {
		name := middleware.SanitizeString(hdr.Filename)
		if err := middleware.ValidateUploadContentType(hdr.Header.Get("Content-Type")); err != nil {
			results[i] = domain.BatchItemResult{Filename: name, Success: false, Error: err.Error()}
			continue
		}
		data, err := readPart(hdr)
		if err != nil {
			results[i] = domain.BatchItemResult{Filename: name, Success: false, Error: err.Error()}
			continue
		}
		items = append(items, domain.BatchItem{Filename: name, Data: data})
		itemIdx = append(itemIdx, i)
	}

	processed := rt.svc.ProcessBatch(req.Context(), items)
	for j, res := range processed {
		results[itemIdx[j]] = res
	}

	for _, res := range results {
		middleware.IncrementPredictions()
		if !res.Success {
			middleware.IncrementPredictionsFailed()
		}
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(map[string]any{"results": results})
}

// GET /api/results?limit=100
func (rt *Router) handleResults(w http.ResponseWriter, req *http.Request) error {
	limit, err := middleware.ParseResultLimit(req.URL.Query().Get("limit"))
	if err != nil {
		return badRequest("%v", err)
	}

	page, err := rt.svc.Results(req.Context(), limit)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(page)
}

// GET /api/results/{id}
func (rt *Router) handleResultByID(w http.ResponseWriter, req *http.Request) error {
	id, err := middleware.ParseResultID(chi.URLParam(req, "id"))
	if err != nil {
		return badRequest("%v", err)
	}

	record, err := rt.svc.ResultByID(req.Context(), domain.RecordID(id))
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(record)
}

func readPart(hdr *multipart.FileHeader) ([]byte, error) {
	f, err := hdr.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	return data, nil
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
