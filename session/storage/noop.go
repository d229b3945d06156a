package storage

import (
	"context"

	"github.com/jrsteele09/farma-console/internal/errors"
)

// Noop is selected when no durable storage is available (headless runs).
// Reads find nothing and writes are discarded.
type Noop struct{}

var _ Store = Noop{}

func (Noop) Get(context.Context, string) (string, error) {
	return "", errors.ErrNotFound
}

func (Noop) Set(context.Context, string, string) error {
	return nil
}

func (Noop) Remove(context.Context, string) error {
	return nil
}
