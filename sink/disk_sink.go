// Package sink holds the permanent event consumers of the gateway
// pipeline: persistence and full-text indexing.
package sink

import (
	"context"
	"fmt"
	"log/slog"

	"trekconnect/domain/event"
	"trekconnect/repositories"
)

// DiskSink persists every sanitized message. Raw bodies never reach it;
// what lands on disk is what moderation let through.
type DiskSink struct {
	repository repositories.IMessageRepository
	log        *slog.Logger
}

func NewDiskSink(repository repositories.IMessageRepository, log *slog.Logger) DiskSink {
	return DiskSink{repository: repository, log: log}
}

func (d DiskSink) Consume(_ context.Context, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.SanitizedMessage:
		return d.repository.StoreMessage(evt.Message)
	default:
		d.log.Debug(fmt.Sprintf("Not implemented event : %v", evt))
		return nil
	}
}
