package catalog

import (
	"context"
	"log/slog"

	"trepro/internal/logging"
	"trepro/internal/savefig"
)

// Observer returns a savefig observer that records embedded saves.
func (s *Store) Observer(logger *slog.Logger) savefig.Observer {
	logger = logging.NewComponentLogger(logger, "catalog")
	return savefig.ObserverFunc(func(ctx context.Context, event savefig.SaveEvent) {
		if event.Outcome != savefig.OutcomeEmbedded {
			return
		}
		title := ""
		if event.Figure != nil {
			title = event.Figure.Title
		}
		entry := NewEntry(event.Path, title, event.Metadata)
		entry.PayloadBytes = event.Result.Bytes
		entry.FileBytes = event.Result.Bytes + int64(event.FrameBytes)
		if _, err := s.Record(ctx, entry); err != nil {
			logging.WarnWithContext(logger, "failed to catalog saved figure", "catalog_record_failed",
				logging.String(logging.FieldPath, event.Path),
				logging.Error(err),
				logging.String(logging.FieldImpact, "file is framed but missing from the catalog"),
				logging.String(logging.FieldErrorHint, "run trepro catalog rebuild"),
			)
			return
		}
		logger.Debug("cataloged figure", logging.String(logging.FieldPath, entry.Path))
	})
}
