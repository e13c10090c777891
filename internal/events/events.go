// Package events carries booking lifecycle events from the engine to
// in-process subscribers over a watermill gochannel pub/sub.
//
// Events are published only after the durable writes of an operation have
// succeeded, so a subscriber never hears about a booking that is not on disk.
// Delivery is best effort: the engine logs a failed publish and carries on.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Topic is the single watermill topic all booking events go to.
const Topic = "booking.events"

// Kind names what happened.
type Kind string

const (
	UserSignedUp    Kind = "user.signed_up"
	TicketBooked    Kind = "ticket.booked"
	TicketCancelled Kind = "ticket.cancelled"
	SeatsReconciled Kind = "seats.reconciled"
)

// Event is the JSON payload of a message.
type Event struct {
	Kind       Kind      `json:"kind"`
	UserID     string    `json:"user_id,omitempty"`
	TicketID   string    `json:"ticket_id,omitempty"`
	TrainID    string    `json:"train_id,omitempty"`
	Row        int       `json:"row"`
	Col        int       `json:"col"`
	Freed      int       `json:"freed,omitempty"`
	Rebooked   int       `json:"rebooked,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Bus publishes and subscribes to booking events.
type Bus struct {
	pubsub *gochannel.GoChannel
	logger *slog.Logger
}

// NewBus creates an in-memory bus. Messages published while nobody is
// subscribed are dropped.
func NewBus(logger *slog.Logger) *Bus {
	pubsub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		NewLoggerAdapter(logger),
	)
	return &Bus{pubsub: pubsub, logger: logger}
}

// Publish encodes e and sends it on Topic.
func (b *Bus) Publish(ctx context.Context, e Event) error {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}

	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("events: encoding %s: %w", e.Kind, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("kind", string(e.Kind))
	msg.SetContext(ctx)

	if err := b.pubsub.Publish(Topic, msg); err != nil {
		return fmt.Errorf("events: publishing %s: %w", e.Kind, err)
	}
	return nil
}

// Subscribe returns decoded events until ctx is cancelled or the bus is
// closed. Messages that fail to decode are logged and acknowledged so they
// are not redelivered forever.
func (b *Bus) Subscribe(ctx context.Context) (<-chan Event, error) {
	messages, err := b.pubsub.Subscribe(ctx, Topic)
	if err != nil {
		return nil, fmt.Errorf("events: subscribing to %s: %w", Topic, err)
	}

	out := make(chan Event)
	go func() {
		defer close(out)
		for msg := range messages {
			var e Event
			if err := json.Unmarshal(msg.Payload, &e); err != nil {
				b.logger.Error("dropping undecodable event",
					slog.String("uuid", msg.UUID),
					slog.String("error", err.Error()),
				)
				msg.Ack()
				continue
			}
			select {
			case out <- e:
				msg.Ack()
			case <-ctx.Done():
				msg.Nack()
				return
			}
		}
	}()
	return out, nil
}

// Close stops the pub/sub and closes every subscription channel.
func (b *Bus) Close() error {
	return b.pubsub.Close()
}
