package usecase

import "ContentBriefs/internal/domain"

// EventKind distinguishes the three event shapes of a batch run.
type EventKind string

const (
	EventProgress EventKind = "progress"
	EventResult   EventKind = "result"
	EventComplete EventKind = "complete"
)

// Event is a single observation emitted by a running batch.
//
// Progress events carry Row, Label and State. Result events carry Row and
// Result. The final Complete event carries Complete.
type Event struct {
	Kind     EventKind
	Row      int
	Label    string
	State    domain.ItemState
	Result   *domain.BatchResult
	Complete *Completion
}

// Completion is the payload of the last event of a run.
type Completion struct {
	Results   []domain.BatchResult
	Archive   *Archive
	Cancelled bool
}

// Counts returns how many results succeeded and failed.
func (c Completion) Counts() (succeeded, failed int) {
	for _, r := range c.Results {
		if r.Status == domain.ResultSuccess {
			succeeded++
		} else {
			failed++
		}
	}
	return succeeded, failed
}
