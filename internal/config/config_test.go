package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(env(nil))

	require.NoError(t, err)
	assert.Equal(t, Config{
		DataDir:    "data",
		Store:      StoreFile,
		LogLevel:   slog.LevelInfo,
		BcryptCost: 12,
		Reconcile:  true,
	}, cfg)
}

func TestLoadFrom_Overrides(t *testing.T) {
	cfg, err := LoadFrom(env(map[string]string{
		"BOOKING_DATA_DIR":     "/var/lib/booking",
		"BOOKING_STORE":        "SQLite",
		"BOOKING_SEED_TRAINS":  "trains.seed.json",
		"BOOKING_LOG_LEVEL":    "debug",
		"BOOKING_BCRYPT_COST":  " 10 ",
		"BOOKING_HISTORY_FILE": "/tmp/booking.history",
		"BOOKING_RECONCILE":    "false",
	}))

	require.NoError(t, err)
	assert.Equal(t, Config{
		DataDir:     "/var/lib/booking",
		Store:       StoreSQLite,
		SeedTrains:  "trains.seed.json",
		LogLevel:    slog.LevelDebug,
		BcryptCost:  10,
		HistoryFile: "/tmp/booking.history",
		Reconcile:   false,
	}, cfg)
}

func TestLoadFrom_EmptyValuesFallBack(t *testing.T) {
	cfg, err := LoadFrom(env(map[string]string{
		"BOOKING_BCRYPT_COST": "",
		"BOOKING_LOG_LEVEL":   "",
		"BOOKING_RECONCILE":   "",
	}))

	require.NoError(t, err)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.True(t, cfg.Reconcile)
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		vars    map[string]string
		wantErr string
	}{
		{
			name:    "unknown store",
			vars:    map[string]string{"BOOKING_STORE": "postgres"},
			wantErr: "BOOKING_STORE",
		},
		{
			name:    "cost not a number",
			vars:    map[string]string{"BOOKING_BCRYPT_COST": "twelve"},
			wantErr: "BOOKING_BCRYPT_COST",
		},
		{
			name:    "bad log level",
			vars:    map[string]string{"BOOKING_LOG_LEVEL": "loud"},
			wantErr: "BOOKING_LOG_LEVEL",
		},
		{
			name:    "bad boolean",
			vars:    map[string]string{"BOOKING_RECONCILE": "sometimes"},
			wantErr: "BOOKING_RECONCILE",
		},
		{
			name:    "blank data dir",
			vars:    map[string]string{"BOOKING_DATA_DIR": "  "},
			wantErr: "BOOKING_DATA_DIR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(env(tt.vars))

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFrom_ReportsFirstBadVariable(t *testing.T) {
	_, err := LoadFrom(env(map[string]string{
		"BOOKING_BCRYPT_COST": "x",
		"BOOKING_RECONCILE":   "y",
	}))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "BOOKING_BCRYPT_COST")
	assert.NotContains(t, err.Error(), "BOOKING_RECONCILE")
}
