// Package repository holds the two entity collections the booking engine
// works on: the roster of users and the catalog of trains.
//
// Each repository keeps the whole collection in memory, indexed by id, and
// persists it by rewriting the full document on every mutation. There is no
// incremental update: whatever a caller passes to Save/Upsert becomes the new
// durable state in one atomic write.
//
// Lookups return deep copies. A caller that wants to change an entity edits
// its copy and hands it back through Save/Upsert, so nothing outside the
// repository can mutate the cached collection.
package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"

	"github.com/sakif/train-booking/internal/apperror"
	"github.com/sakif/train-booking/internal/model"
	"github.com/sakif/train-booking/internal/storage"
)

// UserRepository is the roster.
type UserRepository interface {
	// Load re-reads the roster from the durable store.
	Load(ctx context.Context) ([]model.User, error)
	// FindByName is an exact, case-sensitive match. Returns nil if absent.
	FindByName(name string) *model.User
	// FindByID resolves an identity. Returns nil if absent.
	FindByID(userID string) *model.User
	// All returns the roster in storage order.
	All() []model.User
	// Save atomically replaces the whole roster.
	Save(ctx context.Context, roster []model.User) error
}

// TrainRepository is the catalog.
type TrainRepository interface {
	// Load re-reads the catalog from the durable store.
	Load(ctx context.Context) ([]model.Train, error)
	// FindByID is a case-insensitive match. Returns nil if absent.
	FindByID(trainID string) *model.Train
	// SearchByRoute returns trains that stop at source before destination.
	SearchByRoute(source, destination string) []model.Train
	// All returns the catalog in storage order.
	All() []model.Train
	// Upsert replaces the train with the same id in place, or appends it.
	Upsert(ctx context.Context, train model.Train) error
}

// readCollection implements the load rules shared by both repositories:
//
//   - document absent        → initialise it to [] and return empty
//   - document present, blank → empty
//   - not well-formed JSON   → apperror.ErrStoreCorrupt
//   - read failure           → apperror.ErrPersistence
func readCollection[T any](ctx context.Context, doc storage.Document) ([]T, error) {
	data, err := doc.Read(ctx)
	if errors.Is(err, storage.ErrNotExist) {
		empty := []T{}
		if err := writeCollection(ctx, doc, empty); err != nil {
			return nil, err
		}
		return empty, nil
	}
	if err != nil {
		return nil, apperror.Persistence(doc.Name(), "read", err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return []T{}, nil
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, apperror.StoreCorrupt(doc.Name(), err)
	}
	if items == nil {
		// a literal `null`
		items = []T{}
	}
	return items, nil
}

func writeCollection[T any](ctx context.Context, doc storage.Document, items []T) error {
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return apperror.Persistence(doc.Name(), "encode", err)
	}
	if err := doc.Write(ctx, data); err != nil {
		return apperror.Persistence(doc.Name(), "write", err)
	}
	return nil
}
