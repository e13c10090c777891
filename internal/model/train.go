package model

import "strings"

// Seat is an occupancy flag in a train's seat matrix.
// It encodes as a bare integer: 0 = free, 1 = booked.
type Seat int

const (
	SeatFree   Seat = 0
	SeatBooked Seat = 1
)

// Booked reports whether the seat is taken. Any value other than SeatFree
// counts as booked, so a hand-edited store cannot open a seat by accident.
func (s Seat) Booked() bool {
	return s != SeatFree
}

// Train is one scheduled service.
//
// Stations is ordered: position encodes traversal order, which is what route
// search relies on. StationTimes is display-only.
//
// Seats is a rectangular matrix whose dimensions are fixed when the train is
// created; booking and cancellation flip cells but never resize it.
type Train struct {
	TrainID      string            `json:"train_id"`
	TrainNo      string            `json:"train_no,omitempty"`
	Stations     []string          `json:"stations"`
	StationTimes map[string]string `json:"station_times"`
	Seats        [][]Seat          `json:"seats"`
}

// InBounds reports whether (row, col) addresses a cell of the seat matrix.
func (t *Train) InBounds(row, col int) bool {
	return row >= 0 && row < len(t.Seats) && col >= 0 && col < len(t.Seats[row])
}

// Endpoints returns the first and last station of the route. Missing ends
// are reported as UnknownStation; a single-station route has no destination.
func (t *Train) Endpoints() (source, destination string) {
	source, destination = UnknownStation, UnknownStation
	if len(t.Stations) > 0 {
		source = t.Stations[0]
	}
	if len(t.Stations) > 1 {
		destination = t.Stations[len(t.Stations)-1]
	}
	return source, destination
}

// StationIndex returns the position of station in the route, comparing
// names case-insensitively, or -1 when the train does not stop there.
func (t *Train) StationIndex(station string) int {
	for i, s := range t.Stations {
		if strings.EqualFold(s, station) {
			return i
		}
	}
	return -1
}

// CopySeats returns a deep copy of the seat matrix.
func (t *Train) CopySeats() [][]Seat {
	if t.Seats == nil {
		return nil
	}
	out := make([][]Seat, len(t.Seats))
	for i, row := range t.Seats {
		out[i] = make([]Seat, len(row))
		copy(out[i], row)
	}
	return out
}

// Clone returns a deep copy of t.
func (t Train) Clone() Train {
	c := t
	if t.Stations != nil {
		c.Stations = make([]string, len(t.Stations))
		copy(c.Stations, t.Stations)
	}
	if t.StationTimes != nil {
		c.StationTimes = make(map[string]string, len(t.StationTimes))
		for k, v := range t.StationTimes {
			c.StationTimes[k] = v
		}
	}
	c.Seats = t.CopySeats()
	return c
}

// NewSeatMap builds an all-free rows x cols seat matrix.
func NewSeatMap(rows, cols int) [][]Seat {
	seats := make([][]Seat, rows)
	for i := range seats {
		seats[i] = make([]Seat, cols)
	}
	return seats
}
