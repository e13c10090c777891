// Package config reads the booking application's settings from environment
// variables.
//
// WHY ENV VARS?
// The app is a single local binary. Environment variables need no file
// format, are easy to override per run (BOOKING_STORE=sqlite ./booking),
// and keep the defaults in one place: the table in Load below.
//
// Unlike a silent fallback, a variable that is set but malformed is an
// error. A typo in BOOKING_BCRYPT_COST should stop the program, not quietly
// hash with a different work factor.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/sakif/train-booking/internal/auth"
)

// StoreKind selects the durable backend.
type StoreKind string

const (
	StoreFile   StoreKind = "file"
	StoreSQLite StoreKind = "sqlite"
)

// Config holds every setting the entry point needs.
type Config struct {
	DataDir     string     // directory holding the durable stores
	Store       StoreKind  // file or sqlite
	SeedTrains  string     // optional path of a JSON catalog upserted at startup
	LogLevel    slog.Level // minimum level written to stderr
	BcryptCost  int        // work factor for new password hashes
	HistoryFile string     // optional readline history file
	Reconcile   bool       // run seat-map reconciliation at startup
}

// LookupFunc has the signature of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// Load reads the configuration from the process environment.
func Load() (Config, error) {
	return LoadFrom(os.LookupEnv)
}

// LoadFrom reads the configuration through lookup, so tests can supply a map.
func LoadFrom(lookup LookupFunc) (Config, error) {
	env := reader{lookup: lookup}

	cfg := Config{
		DataDir:     env.str("BOOKING_DATA_DIR", "data"),
		Store:       StoreKind(strings.ToLower(env.str("BOOKING_STORE", string(StoreFile)))),
		SeedTrains:  env.str("BOOKING_SEED_TRAINS", ""),
		LogLevel:    env.level("BOOKING_LOG_LEVEL", slog.LevelInfo),
		BcryptCost:  env.integer("BOOKING_BCRYPT_COST", auth.DefaultCost),
		HistoryFile: env.str("BOOKING_HISTORY_FILE", ""),
		Reconcile:   env.boolean("BOOKING_RECONCILE", true),
	}
	if env.err != nil {
		return Config{}, env.err
	}

	if cfg.DataDir == "" {
		return Config{}, fmt.Errorf("config: BOOKING_DATA_DIR must not be empty")
	}
	switch cfg.Store {
	case StoreFile, StoreSQLite:
	default:
		return Config{}, fmt.Errorf("config: BOOKING_STORE=%q, want %q or %q", cfg.Store, StoreFile, StoreSQLite)
	}
	return cfg, nil
}

// reader remembers the first malformed variable so Load can report it
// after building the whole struct.
type reader struct {
	lookup LookupFunc
	err    error
}

func (r *reader) str(key, def string) string {
	if v, ok := r.lookup(key); ok {
		return strings.TrimSpace(v)
	}
	return def
}

func (r *reader) integer(key string, def int) int {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.fail(fmt.Errorf("config: %s=%q is not an integer: %w", key, v, err))
		return def
	}
	return n
}

func (r *reader) boolean(key string, def bool) bool {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.fail(fmt.Errorf("config: %s=%q is not a boolean: %w", key, v, err))
		return def
	}
	return b
}

func (r *reader) level(key string, def slog.Level) slog.Level {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	var lvl slog.Level
	// accepts debug, info, warn, error and offsets like "debug-4"
	if err := lvl.UnmarshalText([]byte(v)); err != nil {
		r.fail(fmt.Errorf("config: %s: %w", key, err))
		return def
	}
	return lvl
}

func (r *reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}
