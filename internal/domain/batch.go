package domain

import "time"

// ProviderID names an AI generation backend.
type ProviderID string

const (
	ProviderOpenAI     ProviderID = "openai"
	ProviderClaude     ProviderID = "claude"
	ProviderGrok       ProviderID = "grok"
	ProviderPerplexity ProviderID = "perplexity"
	ProviderMistral    ProviderID = "mistral"
)

// KnownProviders lists every provider identifier the system understands.
var KnownProviders = []ProviderID{
	ProviderOpenAI,
	ProviderClaude,
	ProviderGrok,
	ProviderPerplexity,
	ProviderMistral,
}

// BatchItem is one row of batch input describing a single brief.
type BatchItem struct {
	Row               int      `json:"row" validate:"gt=0"`
	URL               string   `json:"url" validate:"required"`
	Topic             string   `json:"topic" validate:"required"`
	PrimaryKeyword    string   `json:"primaryKeyword"`
	SecondaryKeywords []string `json:"secondaryKeywords"`
}

// Keywords returns the primary keyword followed by the secondary ones.
func (i BatchItem) Keywords() []string {
	out := make([]string, 0, len(i.SecondaryKeywords)+1)
	if i.PrimaryKeyword != "" {
		out = append(out, i.PrimaryKeyword)
	}
	return append(out, i.SecondaryKeywords...)
}

// GenerationRequest is everything the generator needs to produce a brief.
type GenerationRequest struct {
	Provider ProviderID
	Item     BatchItem
	Research *Research
}

// ItemState tracks an item through the per-item workflow.
type ItemState string

const (
	StatePending     ItemState = "pending"
	StateResearching ItemState = "researching"
	StateGenerating  ItemState = "generating"
	StateValidating  ItemState = "validating"
	StateSucceeded   ItemState = "succeeded"
	StateFailed      ItemState = "failed"
)

// Terminal reports whether no further transitions can happen.
func (s ItemState) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// ResultStatus is the externally visible outcome of an item.
type ResultStatus string

const (
	ResultSuccess ResultStatus = "success"
	ResultError   ResultStatus = "error"
)

// BriefDocument is a generated brief together with its encoded file.
type BriefDocument struct {
	Brief      Brief       `json:"brief"`
	Filename   string      `json:"filename"`
	Bytes      []byte      `json:"-"`
	Violations []Violation `json:"violations,omitempty"`
}

// BatchResult is the terminal outcome of one batch item.
type BatchResult struct {
	Row      int            `json:"row"`
	Topic    string         `json:"topic"`
	Status   ResultStatus   `json:"status"`
	Document *BriefDocument `json:"document,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// RunRecord is the persisted summary of a finished batch run.
type RunRecord struct {
	ID          string
	Provider    ProviderID
	StartedAt   time.Time
	FinishedAt  time.Time
	Total       int
	Succeeded   int
	Failed      int
	Cancelled   bool
	ArchiveName string
	Results     []ResultRecord
}

// ResultRecord is the persisted form of a BatchResult.
type ResultRecord struct {
	Row      int
	Topic    string
	Status   ResultStatus
	Error    string
	Filename string
	Errors   int
	Warnings int
}
