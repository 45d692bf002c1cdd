package usecase

import (
	"slices"

	"ContentBriefs/internal/domain"
)

var stateRank = map[domain.ItemState]int{
	domain.StatePending:     0,
	domain.StateResearching: 1,
	domain.StateGenerating:  2,
	domain.StateValidating:  3,
	domain.StateSucceeded:   4,
	domain.StateFailed:      4,
}

// batchRun is the state of one run. Only the goroutine ranging over the
// run's event sequence touches it.
type batchRun struct {
	items     []domain.BatchItem
	states    map[int]domain.ItemState
	results   []domain.BatchResult
	cursor    int
	filenames map[string]bool
}

func newBatchRun(items []domain.BatchItem) *batchRun {
	ordered := slices.Clone(items)
	slices.SortStableFunc(ordered, func(a, b domain.BatchItem) int { return a.Row - b.Row })

	states := make(map[int]domain.ItemState, len(ordered))
	for _, item := range ordered {
		states[item.Row] = domain.StatePending
	}
	return &batchRun{
		items:     ordered,
		states:    states,
		results:   make([]domain.BatchResult, 0, len(ordered)),
		filenames: map[string]bool{},
	}
}

// transition moves row forward; backward or repeated moves are ignored.
func (r *batchRun) transition(row int, to domain.ItemState) bool {
	from, ok := r.states[row]
	if !ok || from.Terminal() || stateRank[to] <= stateRank[from] {
		return false
	}
	r.states[row] = to
	return true
}

func (r *batchRun) fail(item domain.BatchItem, err error) domain.BatchResult {
	return r.record(item, domain.StateFailed, domain.BatchResult{
		Row:    item.Row,
		Topic:  item.Topic,
		Status: domain.ResultError,
		Error:  err.Error(),
	})
}

func (r *batchRun) succeed(item domain.BatchItem, doc domain.BriefDocument) domain.BatchResult {
	return r.record(item, domain.StateSucceeded, domain.BatchResult{
		Row:      item.Row,
		Topic:    item.Topic,
		Status:   domain.ResultSuccess,
		Document: &doc,
	})
}

func (r *batchRun) record(item domain.BatchItem, terminal domain.ItemState, result domain.BatchResult) domain.BatchResult {
	r.transition(item.Row, terminal)
	r.results = append(r.results, result)
	return result
}

// claimFilename reserves a filename that is unique within the run.
func (r *batchRun) claimFilename(name string, row int) string {
	name = uniqueName(name, row, r.filenames)
	r.filenames[name] = true
	return name
}

func (r *batchRun) terminalCount() int {
	n := 0
	for _, s := range r.states {
		if s.Terminal() {
			n++
		}
	}
	return n
}

func (r *batchRun) snapshot() []domain.BatchResult {
	return slices.Clone(r.results)
}
