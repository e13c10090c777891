// Package storage defines the durable store behind each repository.
//
// A Document is one named, encoded collection ("users", "trains") that is
// always read and written whole. Repositories own the encoding and the
// in-memory index; backends only move bytes:
//
//	repository.Users  ──▶ Document("users")  ──▶ file: data/users.json
//	repository.Trains ──▶ Document("trains") ──▶ sqlite: documents row "trains"
//
// Backends must make Write atomic: after a crash the document holds either
// the previous content or the new content, never a mix.
package storage

import (
	"context"
	"errors"
)

// ErrNotExist is returned by Read when the document has never been written.
var ErrNotExist = errors.New("storage: document does not exist")

// Document is a single durable record collection.
type Document interface {
	// Name identifies the document in logs and errors.
	Name() string
	// Read returns the full encoded content, or ErrNotExist.
	Read(ctx context.Context) ([]byte, error)
	// Write atomically replaces the full encoded content.
	Write(ctx context.Context, data []byte) error
}

// Backend hands out documents by name.
type Backend interface {
	Document(name string) Document
	Close() error
}
