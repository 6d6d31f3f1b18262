package storage

import (
	"context"
	"errors"

	"detkit/internal/dataset"
)

var (
	ErrDatasetNotFound = errors.New("dataset not found")
	ErrUnknownDriver   = errors.New("unknown container driver")
	ErrReadOnly        = errors.New("container is open read-only")
)

// Meta keys recorded by the create step.
const (
	MetaSeed      = "seed"
	MetaSpecs     = "specs"
	MetaRunID     = "run_id"
	MetaCreatedAt = "created_at"
)

// Container is a file holding named multi-dimensional arrays.
type Container interface {
	ArrayStore
	MetaStore
	Close() error
}

// ArrayStore persists arrays by name.
type ArrayStore interface {
	// Put stores a new array; names are unique within a container.
	Put(ctx context.Context, arr *dataset.Array) error

	// Get loads the array stored under name.
	Get(ctx context.Context, name string) (*dataset.Array, error)

	// Names lists stored arrays in name order.
	Names(ctx context.Context) ([]string, error)
}

// MetaStore keeps free-form provenance about how a container was made.
type MetaStore interface {
	SetMeta(ctx context.Context, key, value string) error
	Meta(ctx context.Context, key string) (string, bool, error)
}
