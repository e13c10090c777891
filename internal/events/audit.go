package events

import (
	"context"
	"log/slog"
)

// RunAudit logs every booking event until ctx is cancelled or the bus is
// closed. It is the event-stream counterpart of a request logger: one
// structured line per completed operation.
func RunAudit(ctx context.Context, bus *Bus, logger *slog.Logger) error {
	stream, err := bus.Subscribe(ctx)
	if err != nil {
		return err
	}
	LogStream(stream, logger)
	return nil
}

// LogStream logs events from an existing subscription until it closes.
// Use it instead of RunAudit when the subscription has to exist before the
// first Publish.
func LogStream(stream <-chan Event, logger *slog.Logger) {
	for e := range stream {
		logger.Info("booking event",
			slog.String("kind", string(e.Kind)),
			slog.String("userID", e.UserID),
			slog.String("ticketID", e.TicketID),
			slog.String("trainID", e.TrainID),
			slog.Int("row", e.Row),
			slog.Int("col", e.Col),
			slog.Int("freed", e.Freed),
			slog.Int("rebooked", e.Rebooked),
			slog.Time("occurredAt", e.OccurredAt),
		)
	}
}
