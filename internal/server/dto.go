package server

import (
	"time"

	"ContentBriefs/internal/domain"
	"ContentBriefs/internal/infrastructure/document"
	"ContentBriefs/internal/usecase"
)

// Request payloads

type ItemRequest struct {
	Row               int      `json:"row"`
	URL               string   `json:"url"`
	Topic             string   `json:"topic"`
	PrimaryKeyword    string   `json:"primaryKeyword,omitempty"`
	SecondaryKeywords []string `json:"secondaryKeywords,omitempty"`
}

type BatchRequest struct {
	Provider string        `json:"provider,omitempty" example:"claude"`
	Items    []ItemRequest `json:"items"`
}

type ResearchRequest struct {
	URL      string   `json:"url"`
	Topic    string   `json:"topic,omitempty"`
	Keywords []string `json:"keywords,omitempty"`
}

// Response payloads

type ProvidersResponse struct {
	Providers []domain.ProviderID `json:"providers"`
	Default   domain.ProviderID   `json:"default,omitempty"`
}

type ResultResponse struct {
	Row        int                `json:"row"`
	Topic      string             `json:"topic"`
	Status     string             `json:"status"`
	Error      string             `json:"error,omitempty"`
	Filename   string             `json:"filename,omitempty"`
	Brief      *domain.Brief      `json:"brief,omitempty"`
	Violations []domain.Violation `json:"violations,omitempty"`
	Preview    string             `json:"preview,omitempty"`
}

type ArchiveResponse struct {
	Filename string   `json:"filename"`
	Entries  []string `json:"entries"`
	Data     []byte   `json:"data" contentEncoding:"base64"`
}

type BatchResponse struct {
	RunID     string           `json:"run_id"`
	Provider  string           `json:"provider"`
	Total     int              `json:"total"`
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
	Cancelled bool             `json:"cancelled"`
	Results   []ResultResponse `json:"results"`
	Archive   *ArchiveResponse `json:"archive,omitempty"`
}

type RunResultResponse struct {
	Row      int    `json:"row"`
	Topic    string `json:"topic"`
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
	Filename string `json:"filename,omitempty"`
	Errors   int    `json:"errors"`
	Warnings int    `json:"warnings"`
}

type RunResponse struct {
	ID          string              `json:"id"`
	Provider    string              `json:"provider"`
	StartedAt   time.Time           `json:"started_at"`
	FinishedAt  time.Time           `json:"finished_at"`
	Total       int                 `json:"total"`
	Succeeded   int                 `json:"succeeded"`
	Failed      int                 `json:"failed"`
	Cancelled   bool                `json:"cancelled"`
	ArchiveName string              `json:"archive_name,omitempty"`
	Results     []RunResultResponse `json:"results,omitempty"`
}

// StreamEvent is one NDJSON line of a streamed batch.
type StreamEvent struct {
	Kind   string          `json:"kind"`
	Row    int             `json:"row,omitempty"`
	Label  string          `json:"label,omitempty"`
	State  string          `json:"state,omitempty"`
	Result *ResultResponse `json:"result,omitempty"`
	Batch  *BatchResponse  `json:"batch,omitempty"`
}

func toItems(in []ItemRequest) []domain.BatchItem {
	out := make([]domain.BatchItem, 0, len(in))
	for _, it := range in {
		out = append(out, domain.BatchItem{
			Row:               it.Row,
			URL:               it.URL,
			Topic:             it.Topic,
			PrimaryKeyword:    it.PrimaryKeyword,
			SecondaryKeywords: it.SecondaryKeywords,
		})
	}
	return out
}

func resultResponse(r domain.BatchResult) ResultResponse {
	out := ResultResponse{Row: r.Row, Topic: r.Topic, Status: string(r.Status), Error: r.Error}
	if doc := r.Document; doc != nil {
		brief := doc.Brief
		out.Filename = doc.Filename
		out.Brief = &brief
		out.Violations = doc.Violations
		out.Preview = document.Markdown(brief)
	}
	return out
}

func batchResponse(s usecase.Summary) BatchResponse {
	out := BatchResponse{
		RunID:     s.RunID,
		Provider:  string(s.Provider),
		Total:     s.Total,
		Succeeded: s.Succeeded,
		Failed:    s.Failed,
		Cancelled: s.Cancelled,
		Results:   make([]ResultResponse, 0, len(s.Results)),
	}
	for _, r := range s.Results {
		out.Results = append(out.Results, resultResponse(r))
	}
	if s.Archive != nil {
		out.Archive = &ArchiveResponse{Filename: s.Archive.Filename, Entries: s.Archive.Entries, Data: s.Archive.Bytes}
	}
	return out
}

func runResponse(run domain.RunRecord) RunResponse {
	out := RunResponse{
		ID:          run.ID,
		Provider:    string(run.Provider),
		StartedAt:   run.StartedAt,
		FinishedAt:  run.FinishedAt,
		Total:       run.Total,
		Succeeded:   run.Succeeded,
		Failed:      run.Failed,
		Cancelled:   run.Cancelled,
		ArchiveName: run.ArchiveName,
	}
	for _, r := range run.Results {
		out.Results = append(out.Results, RunResultResponse{
			Row:      r.Row,
			Topic:    r.Topic,
			Status:   string(r.Status),
			Error:    r.Error,
			Filename: r.Filename,
			Errors:   r.Errors,
			Warnings: r.Warnings,
		})
	}
	return out
}
