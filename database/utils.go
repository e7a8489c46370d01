package database

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

// Common timeout durations for database operations
const (
	// ShortTimeout for single-document reads and writes
	ShortTimeout = 5 * time.Second

	// MediumTimeout for multi-document queries and index builds
	MediumTimeout = 10 * time.Second

	// LongTimeout for aggregations and bulk writes
	LongTimeout = 30 * time.Second
)

var (
	// ErrNotFound is returned when a lookup matches no document
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when a write violates a unique index
	ErrDuplicate = errors.New("duplicate key")
)

// WithShortTimeout derives a ShortTimeout context from parent
func WithShortTimeout(parents ...context.Context) (context.Context, context.CancelFunc) {
	return withTimeout(ShortTimeout, parents...)
}

// WithMediumTimeout derives a MediumTimeout context from parent
func WithMediumTimeout(parents ...context.Context) (context.Context, context.CancelFunc) {
	return withTimeout(MediumTimeout, parents...)
}

// WithLongTimeout derives a LongTimeout context from parent
func WithLongTimeout(parents ...context.Context) (context.Context, context.CancelFunc) {
	return withTimeout(LongTimeout, parents...)
}

func withTimeout(d time.Duration, parents ...context.Context) (context.Context, context.CancelFunc) {
	parent := context.Background()
	if len(parents) > 0 && parents[0] != nil {
		parent = parents[0]
	}
	return context.WithTimeout(parent, d)
}

// translateError maps driver errors onto the package sentinels
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrDuplicate
	default:
		return err
	}
}
