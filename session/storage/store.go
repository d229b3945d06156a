package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jrsteele09/farma-console/users"
)

// Fixed key names of the persisted session record
const (
	TokenKey = "farma_token"
	UserKey  = "farma_user"
)

// Store is the durable key-value capability used to remember a session.
// Get returns errors.ErrNotFound when the key is absent; Remove of an absent key is not an error.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Available reports whether the store actually persists anything
func Available(s Store) bool {
	if s == nil {
		return false
	}
	_, noop := s.(Noop)
	return !noop
}

// Record is the persisted form of a remembered session
type Record struct {
	Token string
	User  string // JSON serialised users.User
}

// NewRecord serialises the user alongside its token
func NewRecord(token string, user users.User) (Record, error) {
	b, err := json.Marshal(user)
	if err != nil {
		return Record{}, fmt.Errorf("[storage.NewRecord] marshal user: %w", err)
	}
	return Record{Token: token, User: string(b)}, nil
}

// ParseUser decodes the persisted user payload
func (r Record) ParseUser() (*users.User, error) {
	var u *users.User
	if err := json.Unmarshal([]byte(r.User), &u); err != nil {
		return nil, fmt.Errorf("[storage.Record.ParseUser] %w", err)
	}
	if u == nil {
		return nil, fmt.Errorf("[storage.Record.ParseUser] user payload is null")
	}
	return u, nil
}

// Save writes both slots of the record
func Save(ctx context.Context, s Store, r Record) error {
	if err := s.Set(ctx, TokenKey, r.Token); err != nil {
		return fmt.Errorf("[storage.Save] token: %w", err)
	}
	if err := s.Set(ctx, UserKey, r.User); err != nil {
		return fmt.Errorf("[storage.Save] user: %w", err)
	}
	return nil
}

// Clear removes both slots of the record. Both removals are attempted.
func Clear(ctx context.Context, s Store) error {
	tokenErr := s.Remove(ctx, TokenKey)
	userErr := s.Remove(ctx, UserKey)
	if tokenErr != nil {
		return fmt.Errorf("[storage.Clear] token: %w", tokenErr)
	}
	if userErr != nil {
		return fmt.Errorf("[storage.Clear] user: %w", userErr)
	}
	return nil
}
