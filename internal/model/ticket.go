package model

import "fmt"

// UnknownStation is recorded as a ticket endpoint when the train's route
// does not provide one.
const UnknownStation = "Unknown"

// Ticket is a reservation of one seat cell on one train.
//
// Source, Destination and DateOfTravel are snapshots taken at booking time
// and do not follow later changes to the train's route. TrainID is a
// reference only; the authoritative Train is always re-read from the catalog.
type Ticket struct {
	TicketID     string `json:"ticket_id"`
	UserID       string `json:"user_id"`
	Source       string `json:"source"`
	Destination  string `json:"destination"`
	DateOfTravel string `json:"date_of_travel"`
	TrainID      string `json:"train_id"`
	Row          int    `json:"row"`
	Col          int    `json:"col"`
}

// Info renders a one-line description for listings.
func (t Ticket) Info() string {
	return fmt.Sprintf("Ticket ID: %s belongs to user %s from %s to %s on %s (train %s, seat %d-%d)",
		t.TicketID, t.UserID, t.Source, t.Destination, t.DateOfTravel, t.TrainID, t.Row, t.Col)
}
