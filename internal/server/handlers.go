package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"ContentBriefs/internal/domain"
	"ContentBriefs/internal/usecase"
)

const maxUploadBytes = 32 << 20

type handlers struct {
	cfg    Config
	logger *slog.Logger
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func registerProviders(api huma.API, h *handlers) {
	huma.Register(api, huma.Operation{
		OperationID: "list-providers",
		Method:      http.MethodGet,
		Path:        "/providers",
		Summary:     "List configured AI providers",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body ProvidersResponse `json:"body"`
	}, error) {
		providers := h.cfg.Providers
		if providers == nil {
			providers = []domain.ProviderID{}
		}
		return &struct {
			Body ProvidersResponse `json:"body"`
		}{Body: ProvidersResponse{Providers: providers, Default: h.cfg.DefaultProvider}}, nil
	})
}

func registerResearch(api huma.API, h *handlers) {
	huma.Register(api, huma.Operation{
		OperationID: "research-site",
		Method:      http.MethodPost,
		Path:        "/research",
		Summary:     "Research a client website",
		Errors:      []int{http.StatusBadRequest, http.StatusBadGateway, http.StatusServiceUnavailable},
	}, func(ctx context.Context, input *struct {
		Body ResearchRequest `json:"body"`
	}) (*struct {
		Body domain.Research `json:"body"`
	}, error) {
		if h.cfg.Researcher == nil {
			return nil, newAPIError(http.StatusServiceUnavailable, "", "research is not configured", nil)
		}
		if strings.TrimSpace(input.Body.URL) == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "url is required", nil)
		}
		research, err := h.cfg.Researcher.Research(ctx, input.Body.URL, input.Body.Topic, input.Body.Keywords)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Research `json:"body"`
		}{Body: *research}, nil
	})
}

func registerBatches(api huma.API, h *handlers) {
	huma.Register(api, huma.Operation{
		OperationID: "run-batch",
		Method:      http.MethodPost,
		Path:        "/batches",
		Summary:     "Generate briefs for a batch of items",
		Description: "Runs every item to completion and returns the results together with the base64 encoded archive.",
		Errors:      []int{http.StatusBadRequest, http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		Body BatchRequest `json:"body"`
	}) (*struct {
		Body BatchResponse `json:"body"`
	}, error) {
		summary, err := h.cfg.Runner.Execute(ctx, toItems(input.Body.Items), h.provider(input.Body.Provider), nil)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body BatchResponse `json:"body"`
		}{Body: batchResponse(summary)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-batches",
		Method:      http.MethodGet,
		Path:        "/batches",
		Summary:     "List recent batch runs",
		Errors:      []int{http.StatusServiceUnavailable},
	}, func(ctx context.Context, input *struct {
		Limit int `query:"limit" default:"20" minimum:"1" maximum:"200"`
	}) (*struct {
		Body []RunResponse `json:"body"`
	}, error) {
		if h.cfg.History == nil {
			return nil, newAPIError(http.StatusServiceUnavailable, "", "run history is not configured", nil)
		}
		runs, err := h.cfg.History.ListRuns(ctx, input.Limit)
		if err != nil {
			return nil, handleError(err)
		}
		out := make([]RunResponse, 0, len(runs))
		for _, run := range runs {
			out = append(out, runResponse(run))
		}
		return &struct {
			Body []RunResponse `json:"body"`
		}{Body: out}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-batch",
		Method:      http.MethodGet,
		Path:        "/batches/{id}",
		Summary:     "Get a batch run with its item results",
		Errors:      []int{http.StatusNotFound, http.StatusServiceUnavailable},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct {
		Body RunResponse `json:"body"`
	}, error) {
		if h.cfg.History == nil {
			return nil, newAPIError(http.StatusServiceUnavailable, "", "run history is not configured", nil)
		}
		run, err := h.cfg.History.GetRun(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body RunResponse `json:"body"`
		}{Body: runResponse(run)}, nil
	})
}

func (h *handlers) provider(requested string) domain.ProviderID {
	if p := strings.ToLower(strings.TrimSpace(requested)); p != "" {
		return domain.ProviderID(p)
	}
	return h.cfg.DefaultProvider
}

// parseItems accepts a multipart upload in the "file" field.
func (h *handlers) parseItems(w http.ResponseWriter, r *http.Request) {
	if h.cfg.Parser == nil {
		respondStatusError(w, newAPIError(http.StatusServiceUnavailable, "", "item parsing is not configured", nil))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondStatusError(w, newAPIError(http.StatusBadRequest, "bad_request", "expected multipart/form-data upload", nil))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		respondStatusError(w, newAPIError(http.StatusBadRequest, "bad_request", "no file found in request", nil))
		return
	}
	defer file.Close()

	items, err := h.cfg.Parser.Parse(r.Context(), header.Filename, file)
	if err != nil {
		respondStatusError(w, handleError(err))
		return
	}
	if items == nil {
		items = []domain.BatchItem{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"items": items})
}

// streamBatch runs a batch and writes one NDJSON line per event. The last line
// has kind "complete" and carries the full batch response.
func (h *handlers) streamBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUploadBytes)).Decode(&req); err != nil {
		respondStatusError(w, newAPIError(http.StatusBadRequest, "bad_request", "invalid JSON body", nil))
		return
	}

	enc := json.NewEncoder(w)
	flusher, _ := w.(http.Flusher)
	started := false
	write := func(ev StreamEvent) {
		if !started {
			w.Header().Set("Content-Type", "application/x-ndjson")
			w.WriteHeader(http.StatusOK)
			started = true
		}
		if err := enc.Encode(ev); err != nil {
			h.debug("stream write", "error", err)
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}

	summary, err := h.cfg.Runner.Execute(r.Context(), toItems(req.Items), h.provider(req.Provider), func(ev usecase.Event) {
		switch ev.Kind {
		case usecase.EventProgress:
			write(StreamEvent{Kind: string(ev.Kind), Row: ev.Row, Label: ev.Label, State: string(ev.State)})
		case usecase.EventResult:
			res := resultResponse(*ev.Result)
			res.Brief, res.Preview = nil, ""
			write(StreamEvent{Kind: string(ev.Kind), Row: ev.Row, Result: &res})
		}
	})
	if err != nil {
		if !started {
			respondStatusError(w, handleError(err))
			return
		}
		h.debug("stream batch", "error", err)
		return
	}

	batch := batchResponse(summary)
	write(StreamEvent{Kind: string(usecase.EventComplete), Batch: &batch})
}

func (h *handlers) debug(msg string, args ...any) {
	if h.logger != nil {
		h.logger.Debug(msg, args...)
	}
}
