package usecase

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"

	"ContentBriefs/internal/domain"
	"ContentBriefs/internal/ports"
)

// ErrInvalidInput is returned before any work starts when a batch is malformed.
var ErrInvalidInput = errors.New("invalid batch input")

// OrchestratorDeps wires the per-item adapters into the batch orchestrator.
type OrchestratorDeps struct {
	Researcher ports.Researcher
	Generator  ports.Generator
	Validator  ports.Validator
	Encoder    ports.Encoder
	Assembler  *Assembler
	Logger     *slog.Logger
}

// Orchestrator drives batch items one at a time through research,
// generation, validation and encoding.
type Orchestrator struct {
	researcher ports.Researcher
	generator  ports.Generator
	validator  ports.Validator
	encoder    ports.Encoder
	assembler  *Assembler
	logger     *slog.Logger
	check      *validator.Validate
}

// NewOrchestrator constructs the orchestrator. It keeps no per-run state, so
// a single instance may serve concurrent runs.
func NewOrchestrator(deps OrchestratorDeps) *Orchestrator {
	assembler := deps.Assembler
	if assembler == nil {
		assembler = NewAssembler(DefaultArchiveName)
	}
	return &Orchestrator{
		researcher: deps.Researcher,
		generator:  deps.Generator,
		validator:  deps.Validator,
		encoder:    deps.Encoder,
		assembler:  assembler,
		logger:     deps.Logger,
		check:      validator.New(),
	}
}

// Run validates the batch and returns its event sequence. The sequence is
// lazy: nothing happens until it is ranged over, and it can only be ranged
// over once. Cancelling ctx stops the run between items; the final complete
// event is still emitted with the results gathered so far.
func (o *Orchestrator) Run(ctx context.Context, items []domain.BatchItem, provider domain.ProviderID) (iter.Seq[Event], error) {
	if o.generator == nil || o.encoder == nil {
		return nil, fmt.Errorf("orchestrator is missing generator or encoder")
	}
	if err := o.checkInput(items, provider); err != nil {
		return nil, err
	}

	run := newBatchRun(items)
	var consumed atomic.Bool

	return func(yield func(Event) bool) {
		if !consumed.CompareAndSwap(false, true) {
			return
		}
		o.drive(ctx, run, provider, yield)
	}, nil
}

func (o *Orchestrator) checkInput(items []domain.BatchItem, provider domain.ProviderID) error {
	if strings.TrimSpace(string(provider)) == "" {
		return fmt.Errorf("%w: provider is required", ErrInvalidInput)
	}

	seen := make(map[int]struct{}, len(items))
	for i, item := range items {
		if err := o.check.Struct(item); err != nil {
			return fmt.Errorf("%w: item %d: %v", ErrInvalidInput, i, err)
		}
		if strings.TrimSpace(item.URL) == "" || strings.TrimSpace(item.Topic) == "" {
			return fmt.Errorf("%w: item %d: url and topic must not be blank", ErrInvalidInput, i)
		}
		if _, dup := seen[item.Row]; dup {
			return fmt.Errorf("%w: duplicate row %d", ErrInvalidInput, item.Row)
		}
		seen[item.Row] = struct{}{}
	}
	return nil
}

func (o *Orchestrator) drive(ctx context.Context, run *batchRun, provider domain.ProviderID, yield func(Event) bool) {
	started := time.Now()
	cancelled := false

	for run.cursor < len(run.items) {
		if ctx.Err() != nil {
			cancelled = true
			break
		}

		item := run.items[run.cursor]
		result, ok := o.processItem(ctx, run, item, provider, yield)
		if !ok {
			return
		}
		if !yield(Event{Kind: EventResult, Row: item.Row, State: run.states[item.Row], Result: &result}) {
			return
		}
		run.cursor++
	}

	completion := Completion{Results: run.snapshot(), Cancelled: cancelled}
	archive, err := o.assembler.Assemble(completion.Results)
	switch {
	case err == nil:
		completion.Archive = &archive
	case errors.Is(err, ErrEmptyInput):
	default:
		o.warn("archive assembly failed", "error", err)
	}

	succeeded, failed := completion.Counts()
	o.info("batch finished",
		"items", len(run.items),
		"succeeded", succeeded,
		"failed", failed,
		"cancelled", cancelled,
		"elapsed", time.Since(started).Round(time.Millisecond))

	yield(Event{Kind: EventComplete, Complete: &completion})
}

// processItem runs the per-item workflow and records exactly one result.
// It returns false when the consumer stopped listening.
func (o *Orchestrator) processItem(ctx context.Context, run *batchRun, item domain.BatchItem, provider domain.ProviderID, yield func(Event) bool) (domain.BatchResult, bool) {
	position := fmt.Sprintf("[%d/%d]", run.cursor+1, len(run.items))
	step := func(state domain.ItemState, label string) bool {
		run.transition(item.Row, state)
		return yield(Event{
			Kind:  EventProgress,
			Row:   item.Row,
			State: state,
			Label: fmt.Sprintf("%s %s: %s", position, label, item.Topic),
		})
	}

	o.debug("item started", "row", item.Row, "topic", item.Topic)

	// cancellation is honoured between items; adapter calls finish or hit their own timeout
	callCtx := context.WithoutCancel(ctx)

	if !step(domain.StateResearching, "Researching website") {
		return domain.BatchResult{}, false
	}
	research := o.research(callCtx, item)

	if !step(domain.StateGenerating, "Generating brief") {
		return domain.BatchResult{}, false
	}
	brief, err := o.generator.Generate(callCtx, domain.GenerationRequest{
		Provider: provider,
		Item:     item,
		Research: research,
	})
	if err == nil && brief == nil {
		err = ports.Fail(ports.KindMalformedResponse, nil, "generator returned no brief")
	}
	if err != nil {
		o.warn("generation failed", "row", item.Row, "error", err)
		return run.fail(item, err), true
	}

	if !step(domain.StateValidating, "Validating brief") {
		return domain.BatchResult{}, false
	}
	var violations []domain.Violation
	if o.validator != nil {
		violations = o.validator.Validate(*brief)
	}

	doc, err := o.encoder.Encode(*brief)
	if err == nil && strings.TrimSpace(doc.Filename) == "" {
		err = ports.Fail(ports.KindEncoding, nil, "encoder returned an empty filename")
	}
	if err != nil {
		o.warn("encoding failed", "row", item.Row, "error", err)
		return run.fail(item, err), true
	}

	result := run.succeed(item, domain.BriefDocument{
		Brief:      *brief,
		Filename:   run.claimFilename(doc.Filename, item.Row),
		Bytes:      doc.Bytes,
		Violations: violations,
	})
	o.debug("item succeeded", "row", item.Row, "file", result.Document.Filename, "violations", len(violations))
	return result, true
}

func (o *Orchestrator) research(ctx context.Context, item domain.BatchItem) *domain.Research {
	if o.researcher == nil {
		return nil
	}
	research, err := o.researcher.Research(ctx, item.URL, item.Topic, item.Keywords())
	if err != nil {
		o.debug("research unavailable", "row", item.Row, "error", err)
		return nil
	}
	return research
}

func (o *Orchestrator) debug(msg string, args ...any) {
	if o.logger != nil {
		o.logger.Debug(msg, args...)
	}
}

func (o *Orchestrator) info(msg string, args ...any) {
	if o.logger != nil {
		o.logger.Info(msg, args...)
	}
}

func (o *Orchestrator) warn(msg string, args ...any) {
	if o.logger != nil {
		o.logger.Warn(msg, args...)
	}
}
