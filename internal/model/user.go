// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data, similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
//
// The `json:"..."` tags fix the on-disk encoding. Keys are snake_case so the
// users.json and trains.json files stay readable by anything that already
// consumes them.
package model

// User represents a registered account.
//
// A User exclusively owns its tickets: a Ticket is embedded in exactly one
// user's TicketsBooked and is never shared.
//
// HashedPassword is whatever the CredentialVerifier produced (a bcrypt hash);
// the plaintext secret is never stored.
type User struct {
	UserID         string   `json:"user_id"`
	Name           string   `json:"name"`
	HashedPassword string   `json:"hashed_password"`
	TicketsBooked  []Ticket `json:"tickets_booked"`
}

// Identity is the authenticated-identity value returned by login and passed
// into every engine call. It carries identity only; the engine re-resolves
// the full User from the roster on each operation.
type Identity struct {
	UserID string
	Name   string
}

// Identity returns the identity of u.
func (u *User) Identity() Identity {
	return Identity{UserID: u.UserID, Name: u.Name}
}

// FindTicket returns the index of the ticket with the given id, or -1.
func (u *User) FindTicket(ticketID string) int {
	for i := range u.TicketsBooked {
		if u.TicketsBooked[i].TicketID == ticketID {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of u.
func (u User) Clone() User {
	c := u
	c.TicketsBooked = make([]Ticket, len(u.TicketsBooked))
	copy(c.TicketsBooked, u.TicketsBooked)
	return c
}
