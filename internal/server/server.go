package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"ContentBriefs/internal/domain"
	"ContentBriefs/internal/ports"
	"ContentBriefs/internal/provider"
	"ContentBriefs/internal/usecase"
)

// BatchRunner executes a batch to completion.
type BatchRunner interface {
	Execute(ctx context.Context, items []domain.BatchItem, provider domain.ProviderID, observe func(usecase.Event)) (usecase.Summary, error)
}

// Config for the HTTP API handler.
type Config struct {
	Runner          BatchRunner
	Researcher      ports.Researcher
	Parser          ports.ItemParser
	History         ports.RunRepository
	Providers       []domain.ProviderID
	DefaultProvider domain.ProviderID
	BasePath        string
	Logger          *slog.Logger
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"bad_request"`
	Message string         `json:"message" example:"items[0]: url is required"`
	Details map[string]any `json:"details,omitempty"`
}

// apiError is the error envelope shared by huma and raw routes.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

var overrideErrors sync.Once

// New returns an HTTP handler exposing the content brief API.
func New(cfg Config) (http.Handler, error) {
	if cfg.Runner == nil {
		return nil, errors.New("server: batch runner is required")
	}
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v1"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	basePath = strings.TrimRight(basePath, "/")

	overrideErrors.Do(func() {
		huma.DefaultArrayNullable = false
		huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
			var details map[string]any
			if len(errs) > 0 {
				msgs := make([]string, 0, len(errs))
				for _, e := range errs {
					msgs = append(msgs, e.Error())
				}
				details = map[string]any{"errors": msgs}
			}
			return newAPIError(status, "", msg, details)
		}
	})

	logger := cfg.Logger
	if logger != nil {
		logger = logger.With("component", "http")
	}

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(requestLogger(logger))

	api := humachi.New(router, huma.DefaultConfig("Content Briefs API", "1.0.0"))
	group := huma.NewGroup(api, basePath)

	h := &handlers{cfg: cfg, logger: logger}
	registerHealth(group)
	registerProviders(group, h)
	registerResearch(group, h)
	registerBatches(group, h)

	router.Post(basePath+"/items/parse", h.parseItems)
	router.Post(basePath+"/batches/stream", h.streamBatch)

	return router, nil
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{status: status, Body: apiErrorBody{Code: code, Message: message, Details: details}}
}

// handleError maps use case and adapter errors onto HTTP statuses.
func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	var adapterErr *ports.AdapterError
	switch {
	case errors.Is(err, usecase.ErrInvalidInput), errors.Is(err, ports.ErrParse):
		return newAPIError(http.StatusBadRequest, "bad_request", err.Error(), nil)
	case errors.Is(err, provider.ErrUnknownProvider):
		return newAPIError(http.StatusBadRequest, "unknown_provider", err.Error(), nil)
	case errors.Is(err, ports.ErrNotFound):
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return newAPIError(http.StatusRequestTimeout, "cancelled", err.Error(), nil)
	case errors.As(err, &adapterErr):
		return newAPIError(http.StatusBadGateway, string(adapterErr.Kind), err.Error(), nil)
	}
	return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": err.Error()})
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusUnprocessableEntity:
		return "validation_failed"
	case http.StatusServiceUnavailable:
		return "unavailable"
	case http.StatusInternalServerError:
		return "internal_error"
	}
	return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
}

func respondStatusError(w http.ResponseWriter, err huma.StatusError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.GetStatus())
	_ = json.NewEncoder(w).Encode(err)
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if logger == nil {
				next.ServeHTTP(w, r)
				return
			}
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
			)
		})
	}
}
