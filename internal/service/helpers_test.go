package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sakif/train-booking/internal/auth"
	"github.com/sakif/train-booking/internal/events"
	"github.com/sakif/train-booking/internal/model"
	"github.com/sakif/train-booking/internal/repository"
	"github.com/sakif/train-booking/internal/storage"
	"github.com/sakif/train-booking/internal/storage/file"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

var errDiskFull = errors.New("disk full")

// flakyDocument wraps a real document and fails writes on demand.
type flakyDocument struct {
	storage.Document
	mu        sync.Mutex
	failWrite bool
	writes    int
}

func (d *flakyDocument) Write(ctx context.Context, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failWrite {
		return errDiskFull
	}
	d.writes++
	return d.Document.Write(ctx, data)
}

func (d *flakyDocument) setFailWrite(fail bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failWrite = fail
}

func (d *flakyDocument) writeCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writes
}

// recordingPublisher keeps every event it is given.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) kinds() []events.Kind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Kind, len(p.events))
	for i, e := range p.events {
		out[i] = e.Kind
	}
	return out
}

// fixture bundles an engine with direct access to its stores.
type fixture struct {
	engine    *BookingEngine
	users     *repository.Users
	trains    *repository.Trains
	usersDoc  *flakyDocument
	trainsDoc *flakyDocument
	publisher *recordingPublisher
	dir       string
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// newFixture builds an engine over file stores in a temporary directory,
// with the given trains already in the catalog.
func newFixture(t *testing.T, catalog ...model.Train) *fixture {
	t.Helper()

	dir := t.TempDir()
	store, err := file.New(dir)
	require.NoError(t, err)

	f := &fixture{
		usersDoc:  &flakyDocument{Document: store.Document("users")},
		trainsDoc: &flakyDocument{Document: store.Document("trains")},
		publisher: &recordingPublisher{},
		dir:       dir,
	}
	logger := newTestLogger()
	f.users = repository.NewUsers(f.usersDoc, logger)
	f.trains = repository.NewTrains(f.trainsDoc, logger)

	ctx := context.Background()
	_, err = f.trains.Load(ctx)
	require.NoError(t, err)
	for _, tr := range catalog {
		require.NoError(t, f.trains.Upsert(ctx, tr))
	}

	// Cost 4 is bcrypt minimum, which keeps tests fast
	f.engine = NewBookingEngine(f.users, f.trains, auth.NewPasswordServiceForTest(), f.publisher, logger)

	clock := time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)
	f.engine.now = func() time.Time { return clock }
	n := 0
	f.engine.newTicketID = func() string {
		n++
		return fmt.Sprintf("ticket-%d", n)
	}
	return f
}

// signUp registers and logs in a user, failing the test on error.
func (f *fixture) signUp(t *testing.T, name string) model.Identity {
	t.Helper()
	id, err := f.engine.SignUp(context.Background(), name, "pw-"+name)
	require.NoError(t, err)
	return id
}

// seats re-reads a train's seat map straight from its durable store.
func (f *fixture) seats(t *testing.T, trainID string) [][]model.Seat {
	t.Helper()
	fresh := repository.NewTrains(f.trainsDoc.Document, newTestLogger())
	_, err := fresh.Load(context.Background())
	require.NoError(t, err)
	tr := fresh.FindByID(trainID)
	require.NotNil(t, tr, "train %s not in store", trainID)
	return tr.Seats
}

// tickets re-reads a user's tickets straight from the durable store.
func (f *fixture) tickets(t *testing.T, userID string) []model.Ticket {
	t.Helper()
	fresh := repository.NewUsers(f.usersDoc.Document, newTestLogger())
	_, err := fresh.Load(context.Background())
	require.NoError(t, err)
	u := fresh.FindByID(userID)
	require.NotNil(t, u, "user %s not in store", userID)
	return u.TicketsBooked
}

func trainXY() model.Train {
	return model.Train{
		TrainID:      "T1",
		Stations:     []string{"X", "Y"},
		StationTimes: map[string]string{"X": "10:00", "Y": "12:00"},
		Seats:        model.NewSeatMap(2, 2),
	}
}
