package sink

import (
	"context"
	"log/slog"

	"trekconnect/domain/event"
	"trekconnect/repositories"
)

// SearchSink feeds sanitized messages into the full-text index.
type SearchSink struct {
	index *repositories.SearchIndex
	log   *slog.Logger
}

func NewSearchSink(index *repositories.SearchIndex, log *slog.Logger) SearchSink {
	return SearchSink{index: index, log: log}
}

func (s SearchSink) Consume(_ context.Context, e event.DomainEvent) error {
	evt, ok := e.(event.SanitizedMessage)
	if !ok {
		return nil
	}
	return s.index.Index(evt.Message)
}
