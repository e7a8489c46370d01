package services

import (
	"errors"
	"fmt"
)

// DataSourceError reports that the game results source was unreachable or
// returned a payload that could not be decoded
type DataSourceError struct {
	Op  string
	Err error
}

func (e *DataSourceError) Error() string {
	return fmt.Sprintf("data source: %s: %v", e.Op, e.Err)
}

func (e *DataSourceError) Unwrap() error { return e.Err }

// PersistenceError reports a failed read or write against one of the stores,
// or a store pass cut short by context cancellation
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Errors surfaced to HTTP handlers
var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserExists         = errors.New("username or email already registered")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrGameNotFound       = errors.New("game not found")
	ErrGameLocked         = errors.New("game has already started")
)
