// Package middleware contains decorators for the booking engine.
//
// WHAT IS MIDDLEWARE HERE?
// A type that implements the same interface as the engine, wraps a real
// engine, and adds cross-cutting behaviour (timing, logging) around each
// call without the engine or the shell knowing:
//
//	shell ─▶ Logger(engine) ─▶ engine
//
// It is the "decorator pattern". The shell only sees a shell.Engine.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sakif/train-booking/internal/apperror"
	"github.com/sakif/train-booking/internal/model"
	"github.com/sakif/train-booking/internal/shell"
)

// compile-time check
var _ shell.Engine = (*loggingEngine)(nil)

type loggingEngine struct {
	next   shell.Engine
	logger *slog.Logger
}

// Logger returns an engine that logs every call to next with its duration
// and outcome. Secrets are never logged.
func Logger(next shell.Engine, logger *slog.Logger) shell.Engine {
	return &loggingEngine{next: next, logger: logger}
}

// done logs one completed call. Expected business failures (bad seat,
// wrong password) are logged at Info; storage trouble at Error.
func (l *loggingEngine) done(ctx context.Context, op string, start time.Time, err error, attrs ...slog.Attr) {
	attrs = append(attrs,
		slog.String("op", op),
		slog.Duration("duration", time.Since(start)),
	)

	level := slog.LevelDebug
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		level = slog.LevelInfo
		if errors.Is(err, apperror.ErrPersistence) || errors.Is(err, apperror.ErrStoreCorrupt) {
			level = slog.LevelError
		}
	}
	l.logger.LogAttrs(ctx, level, "command completed", attrs...)
}

func (l *loggingEngine) SignUp(ctx context.Context, name, secret string) (model.Identity, error) {
	start := time.Now()
	who, err := l.next.SignUp(ctx, name, secret)
	l.done(ctx, "signup", start, err, slog.String("name", name))
	return who, err
}

func (l *loggingEngine) Login(ctx context.Context, name, secret string) (model.Identity, error) {
	start := time.Now()
	who, err := l.next.Login(ctx, name, secret)
	l.done(ctx, "login", start, err, slog.String("name", name))
	return who, err
}

func (l *loggingEngine) FetchBookings(ctx context.Context, who model.Identity) ([]model.Ticket, error) {
	start := time.Now()
	tickets, err := l.next.FetchBookings(ctx, who)
	l.done(ctx, "fetch_bookings", start, err,
		slog.String("userID", who.UserID),
		slog.Int("tickets", len(tickets)),
	)
	return tickets, err
}

func (l *loggingEngine) SearchTrains(ctx context.Context, source, destination string) ([]model.Train, error) {
	start := time.Now()
	trains, err := l.next.SearchTrains(ctx, source, destination)
	l.done(ctx, "search", start, err,
		slog.String("source", source),
		slog.String("destination", destination),
		slog.Int("results", len(trains)),
	)
	return trains, err
}

func (l *loggingEngine) FetchSeats(ctx context.Context, trainID string) ([][]model.Seat, error) {
	start := time.Now()
	seats, err := l.next.FetchSeats(ctx, trainID)
	l.done(ctx, "fetch_seats", start, err, slog.String("trainID", trainID))
	return seats, err
}

func (l *loggingEngine) BookSeat(ctx context.Context, who model.Identity, trainID string, row, col int) (*model.Ticket, error) {
	start := time.Now()
	ticket, err := l.next.BookSeat(ctx, who, trainID, row, col)
	l.done(ctx, "book", start, err,
		slog.String("userID", who.UserID),
		slog.String("trainID", trainID),
		slog.Int("row", row),
		slog.Int("col", col),
	)
	return ticket, err
}

func (l *loggingEngine) CancelBooking(ctx context.Context, who model.Identity, ticketID string) error {
	start := time.Now()
	err := l.next.CancelBooking(ctx, who, ticketID)
	l.done(ctx, "cancel", start, err,
		slog.String("userID", who.UserID),
		slog.String("ticketID", ticketID),
	)
	return err
}
