package savefig

import (
	"context"

	"trepro/internal/chart"
)

// Outcome says what happened to the metadata on a save.
type Outcome string

const (
	OutcomeEmbedded Outcome = "embedded"
	OutcomeSkipped  Outcome = "skipped"
	OutcomeFailed   Outcome = "failed"
)

// SaveEvent is delivered to observers after the plain save succeeded.
type SaveEvent struct {
	Path       string
	Extension  string
	Outcome    Outcome
	Result     chart.SaveResult
	Figure     *chart.Figure
	Metadata   map[string]string
	FrameBytes int
	Err        error
}

// Observer is notified synchronously after each successful plain save.
// Panics are recovered and logged.
type Observer interface {
	FigureSaved(ctx context.Context, event SaveEvent)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, event SaveEvent)

func (f ObserverFunc) FigureSaved(ctx context.Context, event SaveEvent) {
	f(ctx, event)
}
