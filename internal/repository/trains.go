package repository

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/sakif/train-booking/internal/apperror"
	"github.com/sakif/train-booking/internal/model"
	"github.com/sakif/train-booking/internal/storage"
)

// compile-time check that *Trains implements TrainRepository
var _ TrainRepository = (*Trains)(nil)

// Trains is the catalog backed by a storage.Document.
type Trains struct {
	doc    storage.Document
	logger *slog.Logger

	mu      sync.RWMutex
	catalog []model.Train
	byID    map[string]int // keyed by lower-cased train id
}

// NewTrains returns an empty catalog bound to doc. Call Load before use.
func NewTrains(doc storage.Document, logger *slog.Logger) *Trains {
	return &Trains{
		doc:    doc,
		logger: logger,
		byID:   map[string]int{},
	}
}

func (r *Trains) Load(ctx context.Context) ([]model.Train, error) {
	catalog, err := readCollection[model.Train](ctx, r.doc)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.setLocked(catalog)
	r.mu.Unlock()

	r.logger.Debug("catalog loaded", slog.Int("trains", len(catalog)))
	return cloneTrains(catalog), nil
}

func (r *Trains) FindByID(trainID string) *model.Train {
	if trainID == "" {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.byID[trainKey(trainID)]
	if !ok {
		return nil
	}
	t := r.catalog[i].Clone()
	return &t
}

// SearchByRoute keeps a train iff both stations are on its route and source
// comes first. Station names compare case-insensitively. Trains without a
// route never match, and neither do empty inputs. Catalog order is kept.
func (r *Trains) SearchByRoute(source, destination string) []model.Train {
	matches := []model.Train{}
	if source == "" || destination == "" {
		return matches
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, t := range r.catalog {
		if len(t.Stations) == 0 {
			continue
		}
		src := t.StationIndex(source)
		dst := t.StationIndex(destination)
		if src != -1 && dst != -1 && src < dst {
			matches = append(matches, t.Clone())
		}
	}
	return matches
}

func (r *Trains) All() []model.Train {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneTrains(r.catalog)
}

// Upsert replaces the train with the same id (case-insensitive) at its
// current catalog position, or appends it. The whole catalog is rewritten;
// the cache only changes once the write succeeded.
func (r *Trains) Upsert(ctx context.Context, train model.Train) error {
	if strings.TrimSpace(train.TrainID) == "" {
		return apperror.ValidationFailed("train_id", "train id is required")
	}

	r.mu.RLock()
	next := cloneTrains(r.catalog)
	i, exists := r.byID[trainKey(train.TrainID)]
	r.mu.RUnlock()

	if exists {
		next[i] = train.Clone()
	} else {
		next = append(next, train.Clone())
	}

	if err := writeCollection(ctx, r.doc, next); err != nil {
		return err
	}

	r.mu.Lock()
	r.setLocked(next)
	r.mu.Unlock()

	r.logger.Debug("train persisted",
		slog.String("trainID", train.TrainID),
		slog.Bool("replaced", exists),
	)
	return nil
}

func (r *Trains) setLocked(catalog []model.Train) {
	r.catalog = catalog
	r.byID = make(map[string]int, len(catalog))
	for i, t := range catalog {
		key := trainKey(t.TrainID)
		if _, dup := r.byID[key]; !dup {
			r.byID[key] = i
		}
	}
}

func trainKey(trainID string) string {
	return strings.ToLower(trainID)
}

func cloneTrains(catalog []model.Train) []model.Train {
	out := make([]model.Train, len(catalog))
	for i, t := range catalog {
		out[i] = t.Clone()
	}
	return out
}
