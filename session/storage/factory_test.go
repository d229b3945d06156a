package storage_test

import (
	"context"
	"testing"

	"github.com/jrsteele09/farma-console/internal/config"
	"github.com/jrsteele09/farma-console/session/storage"
	"github.com/stretchr/testify/require"
)

func TestNew_SelectsBackend(t *testing.T) {
	tests := []struct {
		backend string
		check   func(t *testing.T, s storage.Store)
	}{
		{"none", func(t *testing.T, s storage.Store) { require.IsType(t, storage.Noop{}, s) }},
		{"memory", func(t *testing.T, s storage.Store) { require.IsType(t, &storage.InMemory{}, s) }},
		{"file", func(t *testing.T, s storage.Store) { require.IsType(t, &storage.File{}, s) }},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			t.Setenv("STORAGE", tt.backend)
			t.Setenv("FOLDER", t.TempDir())

			s, closer, err := storage.New(context.Background(), config.New())
			require.NoError(t, err)
			require.NotNil(t, closer)
			require.NoError(t, closer())
			tt.check(t, s)
		})
	}
}

func TestNew_UnreachableRedisDegradesToNoop(t *testing.T) {
	t.Setenv("STORAGE", "redis")
	t.Setenv("REDIS_ADDR", "127.0.0.1:1")

	s, closer, err := storage.New(context.Background(), config.New())
	require.NoError(t, err)
	require.NoError(t, closer())
	require.False(t, storage.Available(s))
}
