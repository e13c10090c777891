package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sakif/train-booking/internal/events"
	"github.com/sakif/train-booking/internal/model"
)

// SeatRef addresses one cell of one train's seat map.
type SeatRef struct {
	TrainID string
	Row     int
	Col     int
}

// ReconcileReport describes what a Reconcile pass changed.
type ReconcileReport struct {
	// Freed are booked cells no ticket referenced; they are now free.
	Freed []SeatRef
	// Rebooked are free cells a ticket referenced; they are now booked.
	Rebooked []SeatRef
	// Orphans are ticket ids whose train is gone or whose cell is outside
	// the seat map. They are left untouched.
	Orphans []string
	// Conflicts are ticket ids that share a cell with an earlier ticket: a
	// double booking. The cell stays booked and the tickets are left for an
	// operator to resolve.
	Conflicts []string
	// TrainsUpdated counts trains rewritten to the catalog.
	TrainsUpdated int
}

// Changed reports whether any seat was flipped.
func (r ReconcileReport) Changed() bool {
	return len(r.Freed) > 0 || len(r.Rebooked) > 0
}

// Reconcile makes the seat maps agree with the ticket ledger after a crash
// between a train write and a roster write.
//
// Tickets are authoritative: a free cell that a ticket references is marked
// booked again, and a booked cell nobody references is treated as leaked and
// freed. Users are never modified. Trains are only rewritten when a cell
// actually changed.
func (e *BookingEngine) Reconcile(ctx context.Context) (ReconcileReport, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var report ReconcileReport
	if err := e.reload(ctx); err != nil {
		return report, err
	}

	// owned[train key][{row, col}]: number of tickets referencing the cell
	owned := map[string]map[[2]int]int{}
	for _, u := range e.users.All() {
		for _, t := range u.TicketsBooked {
			train := e.trains.FindByID(t.TrainID)
			if train == nil || !train.InBounds(t.Row, t.Col) {
				report.Orphans = append(report.Orphans, t.TicketID)
				continue
			}
			key := strings.ToLower(train.TrainID)
			if owned[key] == nil {
				owned[key] = map[[2]int]int{}
			}
			cell := [2]int{t.Row, t.Col}
			owned[key][cell]++
			if owned[key][cell] > 1 {
				report.Conflicts = append(report.Conflicts, t.TicketID)
			}
		}
	}

	seen := map[string]bool{}
	for _, train := range e.trains.All() {
		key := strings.ToLower(train.TrainID)
		if seen[key] {
			// shadowed by an earlier train with the same id; unreachable by lookup
			continue
		}
		seen[key] = true
		cells := owned[key]
		changed := false

		for r, row := range train.Seats {
			for c, seat := range row {
				ref := SeatRef{TrainID: train.TrainID, Row: r, Col: c}
				held := cells[[2]int{r, c}] > 0
				switch {
				case seat.Booked() && !held:
					train.Seats[r][c] = model.SeatFree
					report.Freed = append(report.Freed, ref)
					changed = true
				case !seat.Booked() && held:
					train.Seats[r][c] = model.SeatBooked
					report.Rebooked = append(report.Rebooked, ref)
					changed = true
				}
			}
		}

		if !changed {
			continue
		}
		if err := e.trains.Upsert(ctx, train); err != nil {
			return report, err
		}
		report.TrainsUpdated++
	}

	for _, id := range report.Orphans {
		e.logger.Warn("ticket references a missing seat", slog.String("ticketID", id))
	}
	for _, id := range report.Conflicts {
		e.logger.Error("ticket shares its seat with another ticket", slog.String("ticketID", id))
	}
	e.logger.Info("seat maps reconciled",
		slog.Int("freed", len(report.Freed)),
		slog.Int("rebooked", len(report.Rebooked)),
		slog.Int("orphans", len(report.Orphans)),
		slog.Int("conflicts", len(report.Conflicts)),
		slog.Int("trainsUpdated", report.TrainsUpdated),
	)

	if report.Changed() {
		e.publish(ctx, events.Event{
			Kind:     events.SeatsReconciled,
			Freed:    len(report.Freed),
			Rebooked: len(report.Rebooked),
		})
	}
	return report, nil
}
