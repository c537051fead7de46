// Package backend selects and assembles the persistence stack for a
// session: the guest-mode document store or the registered-mode synced
// store with its publishing pipeline.
package backend

import (
	"context"

	"gastos/internal/store"
)

// CleanupFunc releases the backend's resources.
type CleanupFunc func() error

// Result contains the assembled store and its cleanup function.
type Result struct {
	Store   store.Store
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, cfg Config) (*Result, error)
}

// Config holds configuration for backend creation.
type Config struct {
	Type Type

	// Local document store
	DataDir string

	// Remote session
	UserID       string
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// Type represents the kind of backend.
type Type string

const (
	LocalBackend  Type = "local"
	RemoteBackend Type = "remote"
)

// String implements fmt.Stringer
func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the backend type is valid
func (t Type) IsValid() bool {
	switch t {
	case LocalBackend, RemoteBackend:
		return true
	default:
		return false
	}
}
