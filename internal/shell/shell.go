// Package shell is the interactive front end of the booking system: a
// numbered menu read from a line editor, mapped onto BookingEngine calls.
//
// The shell owns the session state the engine deliberately does not: who is
// logged in and which train was picked from the last search. Everything else
// is re-read from the engine on every command.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/sakif/train-booking/internal/apperror"
	"github.com/sakif/train-booking/internal/model"
)

// LineReader is the subset of *readline.Instance the shell needs.
type LineReader interface {
	Readline() (string, error)
	SetPrompt(prompt string)
	ReadPassword(prompt string) ([]byte, error)
}

// Engine is the booking API the shell drives.
type Engine interface {
	SignUp(ctx context.Context, name, secret string) (model.Identity, error)
	Login(ctx context.Context, name, secret string) (model.Identity, error)
	FetchBookings(ctx context.Context, who model.Identity) ([]model.Ticket, error)
	SearchTrains(ctx context.Context, source, destination string) ([]model.Train, error)
	FetchSeats(ctx context.Context, trainID string) ([][]model.Seat, error)
	BookSeat(ctx context.Context, who model.Identity, trainID string, row, col int) (*model.Ticket, error)
	CancelBooking(ctx context.Context, who model.Identity, ticketID string) error
}

const (
	menuPrompt = "> "
	menu       = `Choose option
1. Sign up
2. Login
3. Fetch Bookings
4. Search Trains
5. Book a Seat
6. Cancel my Booking
7. Exit the App`
)

// errAborted ends the current command without leaving the menu loop.
var errAborted = errors.New("command aborted")

// Shell runs one interactive session.
type Shell struct {
	engine Engine
	in     LineReader
	out    io.Writer
	logger *slog.Logger

	who      *model.Identity
	selected string // train id picked by the last search
}

func New(engine Engine, in LineReader, out io.Writer, logger *slog.Logger) *Shell {
	return &Shell{
		engine: engine,
		in:     in,
		out:    out,
		logger: logger,
	}
}

// Run shows the menu until the user picks 7 or input ends. End of input is
// a normal exit and returns nil.
func (s *Shell) Run(ctx context.Context) error {
	s.println("Running Train Booking System")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		s.println(menu)
		s.in.SetPrompt(menuPrompt)
		line, err := s.in.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			s.println("Type 7 to exit.")
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("shell: reading input: %w", err)
		}

		option, err := strconv.Atoi(strings.TrimSpace(line))
		if err != nil {
			s.println("Please enter a number 1-7.")
			continue
		}
		if option == 7 {
			s.println("Exiting app...")
			return nil
		}

		err = s.dispatch(ctx, option)
		switch {
		case errors.Is(err, io.EOF):
			return nil
		case errors.Is(err, errAborted):
			s.println("Cancelled.")
		case err != nil:
			return err
		}
	}
}

func (s *Shell) dispatch(ctx context.Context, option int) error {
	switch option {
	case 1:
		return s.signUp(ctx)
	case 2:
		return s.login(ctx)
	case 3:
		return s.fetchBookings(ctx)
	case 4:
		return s.searchTrains(ctx)
	case 5:
		return s.bookSeat(ctx)
	case 6:
		return s.cancelBooking(ctx)
	default:
		s.println("Invalid option, try again.")
		return nil
	}
}

func (s *Shell) signUp(ctx context.Context) error {
	name, secret, err := s.askCredentials("signup")
	if err != nil {
		return err
	}
	if _, err := s.engine.SignUp(ctx, name, secret); err != nil {
		s.report(err)
		return nil
	}
	s.println("Sign up successful.")
	return nil
}

func (s *Shell) login(ctx context.Context) error {
	name, secret, err := s.askCredentials("Login")
	if err != nil {
		return err
	}
	who, err := s.engine.Login(ctx, name, secret)
	if err != nil {
		s.report(err)
		return nil
	}
	s.who = &who
	s.printf("Logged in as %s.\n", who.Name)
	return nil
}

func (s *Shell) fetchBookings(ctx context.Context) error {
	if !s.requireLogin() {
		return nil
	}
	s.println("Fetching your bookings")
	tickets, err := s.engine.FetchBookings(ctx, *s.who)
	if err != nil {
		s.report(err)
		return nil
	}
	if len(tickets) == 0 {
		s.println("You have no bookings.")
		return nil
	}
	for _, t := range tickets {
		s.println(t.Info())
	}
	return nil
}

func (s *Shell) searchTrains(ctx context.Context) error {
	source, err := s.ask("Type your source station")
	if err != nil {
		return err
	}
	destination, err := s.ask("Type your destination station")
	if err != nil {
		return err
	}

	trains, err := s.engine.SearchTrains(ctx, source, destination)
	if err != nil {
		s.report(err)
		return nil
	}
	if len(trains) == 0 {
		s.println("No trains found for that route.")
		return nil
	}

	for i, t := range trains {
		s.printf("%d Train id : %s\n", i+1, t.TrainID)
		for _, station := range t.Stations {
			if at, ok := t.StationTimes[station]; ok {
				s.printf("station %s time: %s\n", station, at)
			}
		}
	}

	choice, err := s.askInt(fmt.Sprintf("Select a train by typing 1..%d", len(trains)))
	if err != nil {
		if errors.Is(err, strconv.ErrSyntax) {
			s.println("Invalid choice.")
			return nil
		}
		return err
	}
	if choice < 1 || choice > len(trains) {
		s.println("Invalid train number.")
		return nil
	}
	s.selected = trains[choice-1].TrainID
	s.printf("Train selected: %s\n", s.selected)
	return nil
}

func (s *Shell) bookSeat(ctx context.Context) error {
	if !s.requireLogin() {
		return nil
	}
	if s.selected == "" {
		s.println("Please search and select a train first (Option 4).")
		return nil
	}

	seats, err := s.engine.FetchSeats(ctx, s.selected)
	if err != nil {
		s.report(err)
		return nil
	}
	s.println("Select a seat out of these seats")
	for _, row := range seats {
		var b strings.Builder
		for _, seat := range row {
			fmt.Fprintf(&b, "%d ", seat)
		}
		s.println(b.String())
	}

	s.println("Select the seat by typing the row and column")
	row, err := s.askInt("Enter the row")
	if err != nil {
		if errors.Is(err, strconv.ErrSyntax) {
			s.println("Invalid row.")
			return nil
		}
		return err
	}
	col, err := s.askInt("Enter the column")
	if err != nil {
		if errors.Is(err, strconv.ErrSyntax) {
			s.println("Invalid column.")
			return nil
		}
		return err
	}

	s.println("Booking your seat....")
	ticket, err := s.engine.BookSeat(ctx, *s.who, s.selected, row, col)
	if err != nil {
		s.report(err)
		return nil
	}
	s.println("Booked! Enjoy your journey")
	s.println(ticket.Info())
	return nil
}

func (s *Shell) cancelBooking(ctx context.Context) error {
	if !s.requireLogin() {
		return nil
	}
	ticketID, err := s.ask("Enter the Ticket ID you want to cancel")
	if err != nil {
		return err
	}
	if err := s.engine.CancelBooking(ctx, *s.who, ticketID); err != nil {
		s.report(err)
		return nil
	}
	s.println("Ticket canceled successfully.")
	return nil
}

// =========================================================================
// INPUT HELPERS
// =========================================================================

func (s *Shell) askCredentials(action string) (name, secret string, err error) {
	name, err = s.ask(fmt.Sprintf("Enter the username to %s", action))
	if err != nil {
		return "", "", err
	}
	pw, err := s.in.ReadPassword(fmt.Sprintf("Enter the password to %s: ", action))
	if err != nil {
		return "", "", inputError(err)
	}
	// secrets are kept exactly as typed; only the name is trimmed
	return name, string(pw), nil
}

// ask shows label as the prompt and returns the trimmed answer.
func (s *Shell) ask(label string) (string, error) {
	s.in.SetPrompt(label + ": ")
	line, err := s.in.Readline()
	if err != nil {
		return "", inputError(err)
	}
	return strings.TrimSpace(line), nil
}

// askInt returns an error matching strconv.ErrSyntax for non-numeric input.
func (s *Shell) askInt(label string) (int, error) {
	line, err := s.ask(label)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(line)
	if err != nil {
		return 0, strconv.ErrSyntax
	}
	return n, nil
}

// inputError maps Ctrl-C inside a command to errAborted. EOF and real
// read failures pass through.
func inputError(err error) error {
	if errors.Is(err, readline.ErrInterrupt) {
		return errAborted
	}
	return err
}

// =========================================================================
// OUTPUT HELPERS
// =========================================================================

func (s *Shell) requireLogin() bool {
	if s.who == nil {
		s.println("Please log in first (Option 2).")
		return false
	}
	return true
}

// report turns an engine error into a message for the user.
func (s *Shell) report(err error) {
	switch {
	case errors.Is(err, apperror.ErrAuthentication):
		s.println("Login failed. Check your name and password.")
	case errors.Is(err, apperror.ErrDuplicateUser):
		s.println("Sign up failed: that name is already taken.")
	case errors.Is(err, apperror.ErrSeatUnavailable):
		s.println("Can't book this seat: it is already booked.")
	case errors.Is(err, apperror.ErrInvalidSeat):
		s.println("Can't book this seat: it is outside the seat map.")
	case errors.Is(err, apperror.ErrTicketNotFound):
		s.println("Could not cancel the ticket. Check Ticket ID.")
	case errors.Is(err, apperror.ErrTrainNotFound):
		s.selected = ""
		s.println("That train is no longer available. Search again (Option 4).")
	case errors.Is(err, apperror.ErrUserNotFound):
		s.who = nil
		s.println("Your account no longer exists. Please sign up or log in again.")
	case errors.Is(err, apperror.ErrValidation):
		s.println(err.Error())
	case errors.Is(err, apperror.ErrStoreCorrupt), errors.Is(err, apperror.ErrPersistence):
		s.logger.Error("storage failure", slog.String("error", err.Error()))
		s.println("Storage error; the data on disk may be out of date. Please restart the app.")
	default:
		s.logger.Error("unexpected engine error", slog.String("error", err.Error()))
		s.printf("Something went wrong: %v\n", err)
	}
}

func (s *Shell) println(a ...any) {
	fmt.Fprintln(s.out, a...)
}

func (s *Shell) printf(format string, a ...any) {
	fmt.Fprintf(s.out, format, a...)
}
