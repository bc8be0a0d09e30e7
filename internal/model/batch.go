package model

// Outcome is the result of processing one item of a batch.
type Outcome int

const (
	OutcomeSucceeded Outcome = iota
	OutcomeSkipped
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ItemError records why a single batch item failed.
type ItemError struct {
	Item  string `json:"item"`
	Error string `json:"error"`
}

// BatchStats aggregates per-item outcomes. It is always returned, even when
// some items fail.
type BatchStats struct {
	Processed int         `json:"processed"`
	Succeeded int         `json:"succeeded"`
	Skipped   int         `json:"skipped"`
	Failed    int         `json:"failed"`
	Errors    []ItemError `json:"errors,omitempty"`
}

// Record counts one processed item.
func (b *BatchStats) Record(o Outcome) {
	b.Processed++
	switch o {
	case OutcomeSucceeded:
		b.Succeeded++
	case OutcomeSkipped:
		b.Skipped++
	case OutcomeFailed:
		b.Failed++
	}
}

// Fail counts a failed item and keeps its error.
func (b *BatchStats) Fail(item string, err error) {
	b.Record(OutcomeFailed)
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	b.Errors = append(b.Errors, ItemError{Item: item, Error: msg})
}
