// Package service contains the booking engine: the business logic layer
// between the shell and the two repositories.
//
//	Shell (I/O) → BookingEngine (rules) → UserRepository  → users document
//	                                    ↘ TrainRepository → trains document
//
// THE CENTRAL INVARIANT:
// a ticket that exists implies its (row, col) cell on the referenced train is
// booked, and a booked cell is referenced by exactly one ticket. The engine
// keeps it by
//
//  1. re-reading both repositories at the start of every operation, so it
//     never acts on a stale seat map or roster (re-read-before-mutate);
//  2. checking every precondition before the first write;
//  3. serializing all operations behind one mutex, so two sessions cannot
//     interleave their writes;
//  4. writing the train before the roster. The two stores have no shared
//     transaction; if the process dies between the writes, Reconcile repairs
//     the seat map on the next start.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/xid"

	"github.com/sakif/train-booking/internal/apperror"
	"github.com/sakif/train-booking/internal/auth"
	"github.com/sakif/train-booking/internal/events"
	"github.com/sakif/train-booking/internal/model"
	"github.com/sakif/train-booking/internal/repository"
)

// CredentialVerifier hashes secrets at signup and checks them at login.
type CredentialVerifier interface {
	Hash(plaintext string) (string, error)
	Verify(hash, plaintext string) error
}

// EventPublisher receives lifecycle events after the durable writes of an
// operation succeeded.
type EventPublisher interface {
	Publish(ctx context.Context, e events.Event) error
}

// BookingEngine orchestrates signup, login, search, booking and cancellation.
//
// It holds no "current user": callers pass the model.Identity returned by
// Login into every call, so several sessions can share one engine.
type BookingEngine struct {
	users     repository.UserRepository
	trains    repository.TrainRepository
	passwords CredentialVerifier
	events    EventPublisher // may be nil
	logger    *slog.Logger

	mu sync.Mutex

	// overridable in tests
	now         func() time.Time
	newUserID   func() string
	newTicketID func() string
}

// NewBookingEngine wires the engine. publisher may be nil.
func NewBookingEngine(
	users repository.UserRepository,
	trains repository.TrainRepository,
	passwords CredentialVerifier,
	publisher EventPublisher,
	logger *slog.Logger,
) *BookingEngine {
	return &BookingEngine{
		users:       users,
		trains:      trains,
		passwords:   passwords,
		events:      publisher,
		logger:      logger,
		now:         time.Now,
		newUserID:   func() string { return xid.New().String() },
		newTicketID: func() string { return uuid.NewString() },
	}
}

// SignUp registers a new user. Names are unique and case-sensitive.
func (e *BookingEngine) SignUp(ctx context.Context, name, secret string) (model.Identity, error) {
	if strings.TrimSpace(name) == "" {
		return model.Identity{}, apperror.ValidationFailed("name", "name is required")
	}
	if secret == "" {
		return model.Identity{}, apperror.ValidationFailed("password", "password is required")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.users.Load(ctx); err != nil {
		return model.Identity{}, err
	}
	if e.users.FindByName(name) != nil {
		return model.Identity{}, apperror.DuplicateUser(name)
	}

	hashed, err := e.passwords.Hash(secret)
	if err != nil {
		return model.Identity{}, apperror.ValidationFailed("password", err.Error())
	}

	user := model.User{
		UserID:         e.newUserID(),
		Name:           name,
		HashedPassword: hashed,
		TicketsBooked:  []model.Ticket{},
	}

	roster := append(e.users.All(), user)
	if err := e.users.Save(ctx, roster); err != nil {
		return model.Identity{}, err
	}

	e.logger.Info("user signed up",
		slog.String("userID", user.UserID),
		slog.String("name", user.Name),
	)
	e.publish(ctx, events.Event{Kind: events.UserSignedUp, UserID: user.UserID})

	return user.Identity(), nil
}

// Login checks name and secret. Unknown names and wrong secrets fail the
// same way, with apperror.ErrAuthentication.
func (e *BookingEngine) Login(ctx context.Context, name, secret string) (model.Identity, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.users.Load(ctx); err != nil {
		return model.Identity{}, err
	}

	user := e.users.FindByName(name)
	if user == nil {
		e.logger.Debug("login failed", slog.String("name", name))
		return model.Identity{}, apperror.AuthenticationFailed()
	}

	if err := e.passwords.Verify(user.HashedPassword, secret); err != nil {
		if !errors.Is(err, auth.ErrMismatch) {
			// a stored hash we cannot parse; still reported as a plain login failure
			e.logger.Warn("unreadable credential in roster",
				slog.String("userID", user.UserID),
				slog.String("error", err.Error()),
			)
		}
		return model.Identity{}, apperror.AuthenticationFailed()
	}

	e.logger.Info("user logged in", slog.String("userID", user.UserID))
	return user.Identity(), nil
}

// SearchTrains lists trains stopping at source before destination, in
// catalog order. Empty inputs give an empty list, not an error.
func (e *BookingEngine) SearchTrains(ctx context.Context, source, destination string) ([]model.Train, error) {
	source = strings.TrimSpace(source)
	destination = strings.TrimSpace(destination)

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.trains.Load(ctx); err != nil {
		return nil, err
	}
	return e.trains.SearchByRoute(source, destination), nil
}

// FetchSeats returns a copy of the current seat matrix of a train, read
// from the catalog rather than from any caller-held Train.
func (e *BookingEngine) FetchSeats(ctx context.Context, trainID string) ([][]model.Seat, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.trains.Load(ctx); err != nil {
		return nil, err
	}
	train := e.trains.FindByID(trainID)
	if train == nil {
		return nil, apperror.TrainNotFound(trainID)
	}
	return train.CopySeats(), nil
}

// BookSeat reserves (row, col) on a train for the given user.
//
// The train write is the commit point for the seat. If the roster write
// after it fails, the seat stays booked without a ticket until Reconcile
// frees it, and the caller gets an apperror.ErrPersistence.
func (e *BookingEngine) BookSeat(ctx context.Context, who model.Identity, trainID string, row, col int) (*model.Ticket, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.reload(ctx); err != nil {
		return nil, err
	}

	train := e.trains.FindByID(trainID)
	if train == nil {
		return nil, apperror.TrainNotFound(trainID)
	}
	if !train.InBounds(row, col) {
		return nil, apperror.InvalidSeat(row, col)
	}
	if train.Seats[row][col].Booked() {
		return nil, apperror.SeatUnavailable(train.TrainID, row, col)
	}

	// Resolve the user against the freshly loaded roster before touching
	// the seat map, so a vanished user cannot leak a seat.
	user := e.users.FindByID(who.UserID)
	if user == nil {
		return nil, apperror.UserNotFound(who.UserID)
	}

	train.Seats[row][col] = model.SeatBooked
	if err := e.trains.Upsert(ctx, *train); err != nil {
		return nil, err
	}

	source, destination := train.Endpoints()
	ticket := model.Ticket{
		TicketID:     e.newTicketID(),
		UserID:       user.UserID,
		Source:       source,
		Destination:  destination,
		DateOfTravel: e.now().UTC().Format(time.RFC3339),
		TrainID:      train.TrainID,
		Row:          row,
		Col:          col,
	}
	user.TicketsBooked = append(user.TicketsBooked, ticket)

	if err := e.saveUser(ctx, *user); err != nil {
		e.logger.Error("seat committed but ticket not recorded",
			slog.String("trainID", train.TrainID),
			slog.Int("row", row),
			slog.Int("col", col),
			slog.String("userID", user.UserID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	e.logger.Info("seat booked",
		slog.String("ticketID", ticket.TicketID),
		slog.String("userID", user.UserID),
		slog.String("trainID", train.TrainID),
		slog.Int("row", row),
		slog.Int("col", col),
	)
	e.publish(ctx, events.Event{
		Kind:     events.TicketBooked,
		UserID:   user.UserID,
		TicketID: ticket.TicketID,
		TrainID:  train.TrainID,
		Row:      row,
		Col:      col,
	})

	return &ticket, nil
}

// CancelBooking releases the seat held by one of the user's own tickets and
// removes the ticket. Cancelling a ticket that no longer exists fails with
// apperror.ErrTicketNotFound and changes nothing.
func (e *BookingEngine) CancelBooking(ctx context.Context, who model.Identity, ticketID string) error {
	ticketID = strings.TrimSpace(ticketID)
	if ticketID == "" {
		return apperror.TicketNotFound(ticketID)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.reload(ctx); err != nil {
		return err
	}

	user := e.users.FindByID(who.UserID)
	if user == nil {
		return apperror.UserNotFound(who.UserID)
	}
	idx := user.FindTicket(ticketID)
	if idx == -1 {
		return apperror.TicketNotFound(ticketID)
	}
	ticket := user.TicketsBooked[idx]

	train := e.trains.FindByID(ticket.TrainID)
	if train == nil {
		return apperror.TrainNotFound(ticket.TrainID)
	}

	if train.InBounds(ticket.Row, ticket.Col) {
		if train.Seats[ticket.Row][ticket.Col].Booked() {
			train.Seats[ticket.Row][ticket.Col] = model.SeatFree
			if err := e.trains.Upsert(ctx, *train); err != nil {
				return err
			}
		}
	} else {
		e.logger.Warn("cancelled ticket points outside the seat map",
			slog.String("ticketID", ticket.TicketID),
			slog.String("trainID", train.TrainID),
			slog.Int("row", ticket.Row),
			slog.Int("col", ticket.Col),
		)
	}

	user.TicketsBooked = append(user.TicketsBooked[:idx], user.TicketsBooked[idx+1:]...)
	if err := e.saveUser(ctx, *user); err != nil {
		e.logger.Error("seat released but ticket still recorded",
			slog.String("ticketID", ticket.TicketID),
			slog.String("error", err.Error()),
		)
		return err
	}

	e.logger.Info("booking cancelled",
		slog.String("ticketID", ticket.TicketID),
		slog.String("userID", user.UserID),
		slog.String("trainID", train.TrainID),
	)
	e.publish(ctx, events.Event{
		Kind:     events.TicketCancelled,
		UserID:   user.UserID,
		TicketID: ticket.TicketID,
		TrainID:  train.TrainID,
		Row:      ticket.Row,
		Col:      ticket.Col,
	})

	return nil
}

// FetchBookings returns the user's tickets in booking order. An identity
// that does not resolve yields an empty list.
func (e *BookingEngine) FetchBookings(ctx context.Context, who model.Identity) ([]model.Ticket, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.users.Load(ctx); err != nil {
		return nil, err
	}
	user := e.users.FindByID(who.UserID)
	if user == nil {
		return []model.Ticket{}, nil
	}
	return user.TicketsBooked, nil
}

// ImportTrains seeds the catalog at startup, in order. New trains are added
// as given. A train already in the catalog takes the seed's route, times and
// number but keeps its current seat map: the stored seats are the record of
// live bookings and a seed file must never free a ticketed seat.
func (e *BookingEngine) ImportTrains(ctx context.Context, trains []model.Train) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.trains.Load(ctx); err != nil {
		return err
	}

	added, updated := 0, 0
	for _, t := range trains {
		if current := e.trains.FindByID(t.TrainID); current != nil {
			t.Seats = current.Seats
			updated++
		} else {
			added++
		}
		if err := e.trains.Upsert(ctx, t); err != nil {
			return fmt.Errorf("service/booking: importing train %q: %w", t.TrainID, err)
		}
	}
	e.logger.Info("catalog seeded",
		slog.Int("added", added),
		slog.Int("updated", updated),
	)
	return nil
}

func (e *BookingEngine) reload(ctx context.Context) error {
	if _, err := e.trains.Load(ctx); err != nil {
		return err
	}
	if _, err := e.users.Load(ctx); err != nil {
		return err
	}
	return nil
}

// saveUser replaces the user with the same id in the roster and persists it.
func (e *BookingEngine) saveUser(ctx context.Context, user model.User) error {
	roster := e.users.All()
	for i := range roster {
		if roster[i].UserID == user.UserID {
			roster[i] = user
			return e.users.Save(ctx, roster)
		}
	}
	return apperror.UserNotFound(user.UserID)
}

func (e *BookingEngine) publish(ctx context.Context, ev events.Event) {
	if e.events == nil {
		return
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = e.now().UTC()
	}
	if err := e.events.Publish(ctx, ev); err != nil {
		e.logger.Warn("publishing booking event failed",
			slog.String("kind", string(ev.Kind)),
			slog.String("error", err.Error()),
		)
	}
}
