package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"ContentBriefs/internal/domain"
	"ContentBriefs/internal/ports"
)

// ServiceDeps wires the orchestrator with the driven adapters that observe
// finished runs.
type ServiceDeps struct {
	Orchestrator *Orchestrator
	Repository   ports.RunRepository
	Notifier     ports.Notifier
	Logger       *slog.Logger
	Now          func() time.Time
}

// Service executes batches end to end and records their outcome.
type Service struct {
	orchestrator *Orchestrator
	repository   ports.RunRepository
	notifier     ports.Notifier
	logger       *slog.Logger
	now          func() time.Time
}

// Summary is the caller-facing outcome of a batch.
type Summary struct {
	RunID     string
	Provider  domain.ProviderID
	Results   []domain.BatchResult
	Archive   *Archive
	Total     int
	Succeeded int
	Failed    int
	Cancelled bool
}

// NewService constructs the batch service.
func NewService(deps ServiceDeps) *Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		orchestrator: deps.Orchestrator,
		repository:   deps.Repository,
		notifier:     deps.Notifier,
		logger:       deps.Logger,
		now:          now,
	}
}

// Execute runs the batch, forwarding every event to observe (which may be
// nil), then persists and announces the result. History and notification
// failures are logged and never change the summary.
func (s *Service) Execute(ctx context.Context, items []domain.BatchItem, provider domain.ProviderID, observe func(Event)) (Summary, error) {
	if s.orchestrator == nil {
		return Summary{}, fmt.Errorf("orchestrator is not configured")
	}

	events, err := s.orchestrator.Run(ctx, items, provider)
	if err != nil {
		return Summary{}, err
	}

	started := s.now().UTC()
	summary := Summary{RunID: uuid.NewString(), Provider: provider, Total: len(items)}

	for ev := range events {
		if observe != nil {
			observe(ev)
		}
		if ev.Kind != EventComplete {
			continue
		}
		summary.Results = ev.Complete.Results
		summary.Archive = ev.Complete.Archive
		summary.Cancelled = ev.Complete.Cancelled
		summary.Succeeded, summary.Failed = ev.Complete.Counts()
	}

	// history and notifications must not be lost when the caller goes away
	detached := context.WithoutCancel(ctx)
	s.persist(detached, summary, started)
	s.notify(detached, summary)

	return summary, nil
}

func (s *Service) persist(ctx context.Context, summary Summary, started time.Time) {
	if s.repository == nil {
		return
	}
	if err := s.repository.SaveRun(ctx, toRunRecord(summary, started, s.now().UTC())); err != nil {
		s.warn("persist run", "run", summary.RunID, "error", err)
	}
}

func (s *Service) notify(ctx context.Context, summary Summary) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.PublishSummary(ctx, BuildSummaryMessage(summary)); err != nil {
		s.warn("publish summary", "run", summary.RunID, "error", err)
	}
}

func (s *Service) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}

func toRunRecord(summary Summary, started, finished time.Time) domain.RunRecord {
	record := domain.RunRecord{
		ID:         summary.RunID,
		Provider:   summary.Provider,
		StartedAt:  started,
		FinishedAt: finished,
		Total:      summary.Total,
		Succeeded:  summary.Succeeded,
		Failed:     summary.Failed,
		Cancelled:  summary.Cancelled,
	}
	if summary.Archive != nil {
		record.ArchiveName = summary.Archive.Filename
	}

	for _, r := range summary.Results {
		rec := domain.ResultRecord{Row: r.Row, Topic: r.Topic, Status: r.Status, Error: r.Error}
		if r.Document != nil {
			rec.Filename = r.Document.Filename
			for _, v := range r.Document.Violations {
				if v.Kind == domain.ViolationError {
					rec.Errors++
				} else {
					rec.Warnings++
				}
			}
		}
		record.Results = append(record.Results, rec)
	}
	return record
}

// BuildSummaryMessage renders a short Markdown digest of a finished run.
func BuildSummaryMessage(summary Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Content briefs batch* `%s`\n", summary.RunID)
	fmt.Fprintf(&b, "Provider: %s\n", summary.Provider)
	fmt.Fprintf(&b, "Succeeded: %d, failed: %d of %d\n", summary.Succeeded, summary.Failed, summary.Total)
	if summary.Cancelled {
		b.WriteString("Run was cancelled before all items finished.\n")
	}
	for _, r := range summary.Results {
		if r.Status == domain.ResultError {
			fmt.Fprintf(&b, "- row %d (%s): %s\n", r.Row, r.Topic, r.Error)
		}
	}
	return b.String()
}
