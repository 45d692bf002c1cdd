package ports

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"ContentBriefs/internal/domain"
)

// ErrParse marks an input file that could not be turned into batch items.
var ErrParse = errors.New("parse items")

// ErrNotFound is returned by repositories for unknown identifiers.
var ErrNotFound = errors.New("not found")

// FailureKind classifies adapter failures.
type FailureKind string

const (
	KindInvalidProvider   FailureKind = "invalid_provider"
	KindUpstream          FailureKind = "upstream"
	KindMalformedResponse FailureKind = "malformed_response"
	KindEncoding          FailureKind = "encoding"
	KindResearch          FailureKind = "research"
)

// AdapterError is the tagged failure every adapter returns.
type AdapterError struct {
	Kind    FailureKind
	Message string
	Err     error
}

func (e *AdapterError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AdapterError) Unwrap() error { return e.Err }

// Fail builds an AdapterError.
func Fail(kind FailureKind, err error, format string, args ...any) *AdapterError {
	return &AdapterError{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// ItemParser turns an uploaded spreadsheet into batch items.
type ItemParser interface {
	Parse(ctx context.Context, filename string, r io.Reader) ([]domain.BatchItem, error)
}

// Researcher analyses a client website; failures are best effort for callers.
type Researcher interface {
	Research(ctx context.Context, url, topic string, keywords []string) (*domain.Research, error)
}

// Generator produces a brief through an AI provider.
type Generator interface {
	Generate(ctx context.Context, req domain.GenerationRequest) (*domain.Brief, error)
}

// Validator checks a brief against the rule set; it never fails.
type Validator interface {
	Validate(brief domain.Brief) []domain.Violation
}

// Encoder renders a brief into a downloadable document.
type Encoder interface {
	Encode(brief domain.Brief) (domain.Document, error)
}

// ChatClient sends a single system+user exchange to an LLM API.
type ChatClient interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// RunRepository persists finished batch runs.
type RunRepository interface {
	SaveRun(ctx context.Context, run domain.RunRecord) error
	GetRun(ctx context.Context, id string) (domain.RunRecord, error)
	ListRuns(ctx context.Context, limit int) ([]domain.RunRecord, error)
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Notifier announces finished runs on an outbound channel.
type Notifier interface {
	PublishSummary(ctx context.Context, summary string) error
}

// Scheduler controls when recurring maintenance executes.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
