package usecase

import (
	"context"
	"errors"
	"iter"
	"strings"
	"testing"
	"time"

	"ContentBriefs/internal/domain"
	"ContentBriefs/internal/ports"
)

type fakeResearcher struct {
	err   error
	calls int
}

func (f *fakeResearcher) Research(ctx context.Context, url, topic string, keywords []string) (*domain.Research, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Research{URL: url, BrandVoice: "friendly"}, nil
}

type fakeGenerator struct {
	fail  map[int]error
	calls []domain.GenerationRequest
}

func (f *fakeGenerator) Generate(ctx context.Context, req domain.GenerationRequest) (*domain.Brief, error) {
	f.calls = append(f.calls, req)
	if err := f.fail[req.Item.Row]; err != nil {
		return nil, err
	}
	return &domain.Brief{Topic: req.Item.Topic, Site: req.Item.URL, PrimaryKeyword: req.Item.PrimaryKeyword}, nil
}

type fakeEncoder struct {
	fail     map[string]error
	filename string
}

func (f *fakeEncoder) Encode(brief domain.Brief) (domain.Document, error) {
	if err := f.fail[brief.Topic]; err != nil {
		return domain.Document{}, err
	}
	name := f.filename
	if name == "" {
		name = strings.ReplaceAll(brief.Topic, " ", "_") + ".docx"
	}
	return domain.Document{Filename: name, Bytes: []byte("doc:" + brief.Topic)}, nil
}

type fakeValidator struct {
	out []domain.Violation
}

func (f fakeValidator) Validate(domain.Brief) []domain.Violation { return f.out }

func items(topics ...string) []domain.BatchItem {
	out := make([]domain.BatchItem, 0, len(topics))
	for i, topic := range topics {
		out = append(out, domain.BatchItem{
			Row:            i + 1,
			URL:            "https://example.com",
			Topic:          topic,
			PrimaryKeyword: topic,
		})
	}
	return out
}

func newTestOrchestrator(gen *fakeGenerator, enc *fakeEncoder) *Orchestrator {
	return NewOrchestrator(OrchestratorDeps{
		Researcher: &fakeResearcher{},
		Generator:  gen,
		Validator:  fakeValidator{},
		Encoder:    enc,
	})
}

func collect(t *testing.T, seq iter.Seq[Event]) []Event {
	t.Helper()
	var events []Event
	for ev := range seq {
		events = append(events, ev)
	}
	return events
}

func byKind(events []Event, kind EventKind) []Event {
	var out []Event
	for _, ev := range events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

func TestRunIsolatesGenerationFailure(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{fail: map[int]error{2: ports.Fail(ports.KindUpstream, nil, "provider returned 500")}}
	orch := newTestOrchestrator(gen, &fakeEncoder{})

	seq, err := orch.Run(context.Background(), items("alpha", "beta", "gamma"), domain.ProviderClaude)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	events := collect(t, seq)

	results := byKind(events, EventResult)
	if len(results) != 3 {
		t.Fatalf("expected 3 result events, got %d", len(results))
	}
	wantStatus := []domain.ResultStatus{domain.ResultSuccess, domain.ResultError, domain.ResultSuccess}
	for i, ev := range results {
		if ev.Row != i+1 || ev.Result.Row != i+1 {
			t.Fatalf("result %d has row %d", i, ev.Row)
		}
		if ev.Result.Status != wantStatus[i] {
			t.Fatalf("row %d: expected %s, got %s", i+1, wantStatus[i], ev.Result.Status)
		}
	}
	if !strings.Contains(results[1].Result.Error, "provider returned 500") {
		t.Fatalf("unexpected error message: %q", results[1].Result.Error)
	}
	if results[1].State != domain.StateFailed || results[0].State != domain.StateSucceeded {
		t.Fatalf("unexpected terminal states: %s, %s", results[0].State, results[1].State)
	}

	last := events[len(events)-1]
	if last.Kind != EventComplete {
		t.Fatalf("last event is %s, want complete", last.Kind)
	}
	if len(byKind(events, EventComplete)) != 1 {
		t.Fatalf("expected exactly one complete event")
	}
	if last.Complete.Archive == nil {
		t.Fatalf("expected an archive")
	}
	entries := last.Complete.Archive.Entries
	if len(entries) != 2 || entries[0] != "alpha.docx" || entries[1] != "gamma.docx" {
		t.Fatalf("unexpected archive entries: %v", entries)
	}
	if len(gen.calls) != 3 {
		t.Fatalf("generator called %d times, want 3", len(gen.calls))
	}
}

func TestRunEmitsEventsInRowOrder(t *testing.T) {
	t.Parallel()

	orch := newTestOrchestrator(&fakeGenerator{}, &fakeEncoder{})
	in := []domain.BatchItem{
		{Row: 7, URL: "https://a.example", Topic: "seven"},
		{Row: 2, URL: "https://a.example", Topic: "two"},
		{Row: 4, URL: "https://a.example", Topic: "four"},
	}

	seq, err := orch.Run(context.Background(), in, domain.ProviderOpenAI)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	lastRow := 0
	var states []domain.ItemState
	for _, ev := range collect(t, seq) {
		if ev.Kind == EventComplete {
			continue
		}
		if ev.Row < lastRow {
			t.Fatalf("row %d emitted after row %d", ev.Row, lastRow)
		}
		lastRow = ev.Row
		if ev.Row == 2 {
			states = append(states, ev.State)
		}
	}

	want := []domain.ItemState{domain.StateResearching, domain.StateGenerating, domain.StateValidating, domain.StateSucceeded}
	if len(states) != len(want) {
		t.Fatalf("unexpected states for row 2: %v", states)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Fatalf("state %d: got %s, want %s", i, states[i], want[i])
		}
	}
	if in[0].Row != 7 {
		t.Fatalf("caller items were reordered")
	}
}

func TestRunEmptyItems(t *testing.T) {
	t.Parallel()

	orch := newTestOrchestrator(&fakeGenerator{}, &fakeEncoder{})
	seq, err := orch.Run(context.Background(), nil, domain.ProviderClaude)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	events := collect(t, seq)
	if len(events) != 1 || events[0].Kind != EventComplete {
		t.Fatalf("expected a single complete event, got %+v", events)
	}
	if len(events[0].Complete.Results) != 0 || events[0].Complete.Archive != nil {
		t.Fatalf("expected empty results and no archive")
	}
}

func TestRunAllItemsFail(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	gen := &fakeGenerator{fail: map[int]error{1: boom, 2: boom}}
	orch := newTestOrchestrator(gen, &fakeEncoder{})

	seq, err := orch.Run(context.Background(), items("a", "b"), domain.ProviderClaude)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	events := collect(t, seq)
	complete := events[len(events)-1].Complete

	for _, r := range complete.Results {
		if r.Status != domain.ResultError {
			t.Fatalf("row %d: expected error status", r.Row)
		}
	}
	if complete.Archive != nil {
		t.Fatalf("expected no archive when every item failed")
	}
	if _, err := NewAssembler("").Assemble(complete.Results); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
}

func TestRunResearchFailureIsBestEffort(t *testing.T) {
	t.Parallel()

	researcher := &fakeResearcher{err: errors.New("dns failure")}
	gen := &fakeGenerator{}
	orch := NewOrchestrator(OrchestratorDeps{Researcher: researcher, Generator: gen, Encoder: &fakeEncoder{}})

	seq, err := orch.Run(context.Background(), items("a"), domain.ProviderClaude)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	events := collect(t, seq)

	result := byKind(events, EventResult)[0].Result
	if result.Status != domain.ResultSuccess {
		t.Fatalf("research failure must not fail the item: %+v", result)
	}
	if researcher.calls != 1 {
		t.Fatalf("researcher called %d times", researcher.calls)
	}
	if gen.calls[0].Research != nil {
		t.Fatalf("expected nil research data after failure")
	}
}

func TestRunEncodingFailureFailsItem(t *testing.T) {
	t.Parallel()

	enc := &fakeEncoder{fail: map[string]error{"b": ports.Fail(ports.KindEncoding, nil, "disk full")}}
	orch := newTestOrchestrator(&fakeGenerator{}, enc)

	seq, err := orch.Run(context.Background(), items("a", "b"), domain.ProviderClaude)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	results := byKind(collect(t, seq), EventResult)
	if results[1].Result.Status != domain.ResultError || !strings.Contains(results[1].Result.Error, "disk full") {
		t.Fatalf("unexpected result: %+v", results[1].Result)
	}
	if results[1].Result.Document != nil {
		t.Fatalf("failed item must not carry a document")
	}
}

func TestRunValidationIsAdvisory(t *testing.T) {
	t.Parallel()

	violations := []domain.Violation{{Kind: domain.ViolationError, Message: "Page Title: Page title is empty"}}
	orch := NewOrchestrator(OrchestratorDeps{
		Generator: &fakeGenerator{},
		Validator: fakeValidator{out: violations},
		Encoder:   &fakeEncoder{},
	})

	seq, err := orch.Run(context.Background(), items("a"), domain.ProviderClaude)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	result := byKind(collect(t, seq), EventResult)[0].Result
	if result.Status != domain.ResultSuccess {
		t.Fatalf("validation errors must not fail the item")
	}
	if len(result.Document.Violations) != 1 {
		t.Fatalf("violations not attached: %+v", result.Document)
	}
}

func TestRunDisambiguatesFilenames(t *testing.T) {
	t.Parallel()

	orch := newTestOrchestrator(&fakeGenerator{}, &fakeEncoder{filename: "Client_Topic.docx"})
	seq, err := orch.Run(context.Background(), items("a", "b", "c"), domain.ProviderClaude)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	events := collect(t, seq)
	complete := events[len(events)-1].Complete

	want := []string{"Client_Topic.docx", "Client_Topic_row2.docx", "Client_Topic_row3.docx"}
	for i, r := range complete.Results {
		if r.Document.Filename != want[i] {
			t.Fatalf("row %d: filename %s, want %s", r.Row, r.Document.Filename, want[i])
		}
	}
	if len(complete.Archive.Entries) != 3 {
		t.Fatalf("expected 3 archive entries, got %v", complete.Archive.Entries)
	}
}

func TestRunCancellationBetweenItems(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gen := &fakeGenerator{}
	orch := newTestOrchestrator(gen, &fakeEncoder{})
	seq, err := orch.Run(ctx, items("a", "b", "c"), domain.ProviderClaude)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	var events []Event
	for ev := range seq {
		events = append(events, ev)
		if ev.Kind == EventResult && ev.Row == 1 {
			cancel()
		}
	}

	if got := len(byKind(events, EventResult)); got != 1 {
		t.Fatalf("expected 1 result before cancellation, got %d", got)
	}
	complete := events[len(events)-1]
	if complete.Kind != EventComplete || !complete.Complete.Cancelled {
		t.Fatalf("expected a cancelled complete event, got %+v", complete)
	}
	if len(complete.Complete.Results) != 1 || complete.Complete.Results[0].Row != 1 {
		t.Fatalf("unexpected results after cancellation: %+v", complete.Complete.Results)
	}
	if len(gen.calls) != 1 {
		t.Fatalf("generator kept running after cancellation: %d calls", len(gen.calls))
	}
}

// slowGenerator fails with the context error if its context is cancelled
// before the reply arrives.
type slowGenerator struct {
	delay time.Duration
}

func (g slowGenerator) Generate(ctx context.Context, req domain.GenerationRequest) (*domain.Brief, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(g.delay):
		return &domain.Brief{Topic: req.Item.Topic}, nil
	}
}

func TestRunCancellationLetsInFlightItemFinish(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	orch := NewOrchestrator(OrchestratorDeps{
		Researcher: &fakeResearcher{},
		Generator:  slowGenerator{delay: 50 * time.Millisecond},
		Encoder:    &fakeEncoder{},
	})
	seq, err := orch.Run(ctx, items("a", "b"), domain.ProviderClaude)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	var events []Event
	for ev := range seq {
		events = append(events, ev)
		if ev.Kind == EventProgress && ev.Row == 1 && ev.State == domain.StateGenerating {
			cancel()
		}
	}

	complete := events[len(events)-1]
	if complete.Kind != EventComplete || !complete.Complete.Cancelled {
		t.Fatalf("expected a cancelled complete event, got %+v", complete)
	}
	results := complete.Complete.Results
	if len(results) != 1 || results[0].Row != 1 || results[0].Status != domain.ResultSuccess {
		t.Fatalf("in-flight item should finish successfully, got %+v", results)
	}
	if complete.Complete.Archive == nil || len(complete.Complete.Archive.Entries) != 1 {
		t.Fatalf("expected the finished item in the archive")
	}
}

func TestRunIsNotRestartable(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{}
	orch := newTestOrchestrator(gen, &fakeEncoder{})
	seq, err := orch.Run(context.Background(), items("a"), domain.ProviderClaude)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if first := collect(t, seq); len(first) == 0 {
		t.Fatalf("first iteration produced no events")
	}
	if second := collect(t, seq); len(second) != 0 {
		t.Fatalf("second iteration produced %d events", len(second))
	}
	if len(gen.calls) != 1 {
		t.Fatalf("generator called %d times", len(gen.calls))
	}
}

func TestRunStopsWhenConsumerBreaks(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{}
	orch := newTestOrchestrator(gen, &fakeEncoder{})
	seq, err := orch.Run(context.Background(), items("a", "b"), domain.ProviderClaude)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	for ev := range seq {
		if ev.Kind == EventResult {
			break
		}
	}
	if len(gen.calls) != 1 {
		t.Fatalf("expected processing to stop after the first item, got %d calls", len(gen.calls))
	}
}

func TestRunRejectsMalformedInput(t *testing.T) {
	t.Parallel()

	orch := newTestOrchestrator(&fakeGenerator{}, &fakeEncoder{})
	cases := []struct {
		name     string
		items    []domain.BatchItem
		provider domain.ProviderID
	}{
		{name: "empty provider", items: items("a"), provider: ""},
		{name: "zero row", items: []domain.BatchItem{{Row: 0, URL: "https://x.example", Topic: "t"}}, provider: "claude"},
		{name: "blank url", items: []domain.BatchItem{{Row: 1, URL: "  ", Topic: "t"}}, provider: "claude"},
		{name: "missing topic", items: []domain.BatchItem{{Row: 1, URL: "https://x.example"}}, provider: "claude"},
		{name: "duplicate rows", items: []domain.BatchItem{
			{Row: 3, URL: "https://x.example", Topic: "a"},
			{Row: 3, URL: "https://x.example", Topic: "b"},
		}, provider: "claude"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			seq, err := orch.Run(context.Background(), tc.items, tc.provider)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
			if seq != nil {
				t.Fatalf("expected no sequence on invalid input")
			}
		})
	}
}

func TestBatchRunInvariants(t *testing.T) {
	t.Parallel()

	run := newBatchRun(items("a", "b", "c"))
	if run.terminalCount() != 0 {
		t.Fatalf("fresh run has terminal items")
	}

	run.transition(1, domain.StateResearching)
	run.transition(1, domain.StateGenerating)
	if run.transition(1, domain.StateResearching) {
		t.Fatalf("backward transition was accepted")
	}
	run.fail(run.items[0], errors.New("x"))
	run.succeed(run.items[1], domain.BriefDocument{Filename: "b.docx"})

	if run.terminalCount() != len(run.results) {
		t.Fatalf("terminal count %d != results %d", run.terminalCount(), len(run.results))
	}
	if run.transition(1, domain.StateValidating) {
		t.Fatalf("terminal state was left")
	}
	if run.states[3] != domain.StatePending {
		t.Fatalf("untouched item is %s", run.states[3])
	}
}
