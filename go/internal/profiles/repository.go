package profiles

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mcdev12/kiradelay/go/internal/kvstore"
	"github.com/mcdev12/kiradelay/go/internal/models"
)

// Persisted keys
const (
	UsersKey         = "users"
	CurrentUserIDKey = "currentUserId"
)

// UsersMutation edits the full profile collection; an error aborts the write
type UsersMutation func(users []models.UserProfile) ([]models.UserProfile, error)

// Repository maps the profile collection and session pointer onto a key-value store
type Repository struct {
	store kvstore.Store
}

// NewRepository creates a new profiles repository
func NewRepository(store kvstore.Store) *Repository {
	return &Repository{
		store: store,
	}
}

// ListUsers returns the stored profile collection in stored order
func (r *Repository) ListUsers(ctx context.Context) ([]models.UserProfile, error) {
	raw, err := r.store.Get(ctx, UsersKey)
	if errors.Is(err, kvstore.ErrNotFound) {
		return []models.UserProfile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	return decodeUsers(raw)
}

// UpdateUsers applies fn to the collection and persists the result atomically
func (r *Repository) UpdateUsers(ctx context.Context, fn UsersMutation) error {
	return r.store.Update(ctx, UsersKey, func(current []byte) ([]byte, error) {
		users := []models.UserProfile{}
		if len(current) > 0 {
			decoded, err := decodeUsers(current)
			if err != nil {
				return nil, err
			}
			users = decoded
		}

		next, err := fn(users)
		if err != nil {
			return nil, err
		}

		raw, err := json.Marshal(next)
		if err != nil {
			return nil, fmt.Errorf("failed to encode users: %w", err)
		}
		return raw, nil
	})
}

// GetCurrentUserID returns the session pointer or ErrNoSession
func (r *Repository) GetCurrentUserID(ctx context.Context) (uuid.UUID, error) {
	raw, err := r.store.Get(ctx, CurrentUserIDKey)
	if errors.Is(err, kvstore.ErrNotFound) {
		return uuid.Nil, ErrNoSession
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to load current user id: %w", err)
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return uuid.Nil, fmt.Errorf("failed to decode current user id: %w", err)
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to parse current user id: %w", err)
	}
	return id, nil
}

// SetCurrentUserID stores the session pointer
func (r *Repository) SetCurrentUserID(ctx context.Context, id uuid.UUID) error {
	raw, err := json.Marshal(id.String())
	if err != nil {
		return fmt.Errorf("failed to encode current user id: %w", err)
	}
	if err := r.store.Put(ctx, CurrentUserIDKey, raw); err != nil {
		return fmt.Errorf("failed to save current user id: %w", err)
	}
	return nil
}

// ClearCurrentUserID removes the session pointer
func (r *Repository) ClearCurrentUserID(ctx context.Context) error {
	if err := r.store.Delete(ctx, CurrentUserIDKey); err != nil {
		return fmt.Errorf("failed to clear current user id: %w", err)
	}
	return nil
}

func decodeUsers(raw []byte) ([]models.UserProfile, error) {
	var users []models.UserProfile
	if err := json.Unmarshal(raw, &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	if users == nil {
		users = []models.UserProfile{}
	}
	return users, nil
}
