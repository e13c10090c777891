package repository

import (
	"context"
	"log/slog"
	"sync"

	"github.com/sakif/train-booking/internal/model"
	"github.com/sakif/train-booking/internal/storage"
)

// compile-time check that *Users implements UserRepository
var _ UserRepository = (*Users)(nil)

// Users is the roster backed by a storage.Document.
type Users struct {
	doc    storage.Document
	logger *slog.Logger

	mu     sync.RWMutex
	roster []model.User
	byID   map[string]int
	byName map[string]int
}

// NewUsers returns an empty roster bound to doc. Call Load before use.
func NewUsers(doc storage.Document, logger *slog.Logger) *Users {
	return &Users{
		doc:    doc,
		logger: logger,
		byID:   map[string]int{},
		byName: map[string]int{},
	}
}

func (r *Users) Load(ctx context.Context) ([]model.User, error) {
	roster, err := readCollection[model.User](ctx, r.doc)
	if err != nil {
		return nil, err
	}
	normalizeUsers(roster)

	r.mu.Lock()
	r.setLocked(roster)
	r.mu.Unlock()

	r.logger.Debug("roster loaded", slog.Int("users", len(roster)))
	return cloneUsers(roster), nil
}

func (r *Users) FindByName(name string) *model.User {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.byName[name]
	if !ok {
		return nil
	}
	u := r.roster[i].Clone()
	return &u
}

func (r *Users) FindByID(userID string) *model.User {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.byID[userID]
	if !ok {
		return nil
	}
	u := r.roster[i].Clone()
	return &u
}

func (r *Users) All() []model.User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneUsers(r.roster)
}

// Save writes roster and, only once the write succeeded, makes it the
// cached roster. A failed write leaves the cache as it was.
func (r *Users) Save(ctx context.Context, roster []model.User) error {
	next := cloneUsers(roster)
	normalizeUsers(next)

	if err := writeCollection(ctx, r.doc, next); err != nil {
		return err
	}

	r.mu.Lock()
	r.setLocked(next)
	r.mu.Unlock()
	return nil
}

func (r *Users) setLocked(roster []model.User) {
	r.roster = roster
	r.byID = make(map[string]int, len(roster))
	r.byName = make(map[string]int, len(roster))
	for i, u := range roster {
		// first occurrence wins, as a linear scan would
		if _, dup := r.byID[u.UserID]; !dup {
			r.byID[u.UserID] = i
		}
		if _, dup := r.byName[u.Name]; !dup {
			r.byName[u.Name] = i
		}
	}
}

// normalizeUsers makes sure tickets_booked is written as [] rather than null.
func normalizeUsers(roster []model.User) {
	for i := range roster {
		if roster[i].TicketsBooked == nil {
			roster[i].TicketsBooked = []model.Ticket{}
		}
	}
}

func cloneUsers(roster []model.User) []model.User {
	out := make([]model.User, len(roster))
	for i, u := range roster {
		out[i] = u.Clone()
	}
	return out
}
