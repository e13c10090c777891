// Package main is the entry point for the train booking shell.
//
// The main package only wires things together:
// 1. Read configuration from the environment
// 2. Create dependencies (logger, stores, repositories, event bus)
// 3. Repair and seed the catalog, then hand the terminal to the shell
//
// All actual logic lives in imported packages (internal/service, internal/shell, etc.).
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/chzyer/readline"

	"github.com/sakif/train-booking/internal/auth"
	"github.com/sakif/train-booking/internal/config"
	"github.com/sakif/train-booking/internal/events"
	"github.com/sakif/train-booking/internal/middleware"
	"github.com/sakif/train-booking/internal/repository"
	"github.com/sakif/train-booking/internal/service"
	"github.com/sakif/train-booking/internal/shell"
	"github.com/sakif/train-booking/internal/storage"
	"github.com/sakif/train-booking/internal/storage/file"
	"github.com/sakif/train-booking/internal/storage/sqlite"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "booking:", err)
		os.Exit(1)
	}
}

func run() error {
	// === 1. READ CONFIGURATION ===
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// === 2. SET UP LOGGING ===
	// Logs go to stderr so they never interleave with the menu on stdout.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// SIGTERM ends the session; Ctrl-C is handled by readline itself.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	// === 3. OPEN THE DURABLE STORES ===
	backend, err := openBackend(cfg)
	if err != nil {
		return err
	}
	defer backend.Close()
	logger.Debug("stores opened",
		slog.String("store", string(cfg.Store)),
		slog.String("dir", cfg.DataDir),
	)

	users := repository.NewUsers(backend.Document("users"), logger)
	trains := repository.NewTrains(backend.Document("trains"), logger)

	// === 4. EVENTS ===
	// The audit subscriber must be attached before the first publish;
	// gochannel drops messages nobody is subscribed to.
	bus := events.NewBus(logger)
	defer bus.Close()

	stream, err := bus.Subscribe(ctx)
	if err != nil {
		return err
	}
	go events.LogStream(stream, logger)

	// === 5. BOOKING ENGINE ===
	passwords, err := auth.NewPasswordService(cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("BOOKING_BCRYPT_COST: %w", err)
	}
	engine := service.NewBookingEngine(users, trains, passwords, bus, logger)

	// === 6. SEED AND RECONCILE ===
	if cfg.SeedTrains != "" {
		seed, err := repository.ReadSeedFile(cfg.SeedTrains)
		if err != nil {
			return err
		}
		if err := engine.ImportTrains(ctx, seed); err != nil {
			return err
		}
	}
	if cfg.Reconcile {
		// Closes the gap left by a crash between a train write and a roster write.
		if _, err := engine.Reconcile(ctx); err != nil {
			return err
		}
	}

	// === 7. RUN THE SHELL ===
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		HistoryFile:     cfg.HistoryFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("initializing readline: %w", err)
	}
	defer rl.Close()

	// Every shell command passes through the logging decorator.
	err = shell.New(middleware.Logger(engine, logger), rl, rl.Stdout(), logger).Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func openBackend(cfg config.Config) (storage.Backend, error) {
	switch cfg.Store {
	case config.StoreSQLite:
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		db, err := sqlite.New(filepath.Join(cfg.DataDir, "booking.db"))
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		store, err := file.New(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
}
