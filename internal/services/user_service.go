package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"pocketbook/internal/cache"
	"pocketbook/internal/core"
	applog "pocketbook/internal/log"
	"pocketbook/internal/ports"
)

// ErrNoChanges is returned by UpdateProfile when nothing would change.
var ErrNoChanges = errors.New("no profile changes")

// UserService manages profile records. Reads go through an LRU cache that is
// refreshed on every write.
type UserService struct {
	store ports.UserStore
	cache cache.Cache[core.User]
}

// NewUserService creates the service. profiles may be nil to disable caching.
func NewUserService(store ports.UserStore, profiles cache.Cache[core.User]) *UserService {
	return &UserService{store: store, cache: profiles}
}

// Register writes the profile record for a user the identity provider has
// just created.
func (s *UserService) Register(ctx context.Context, u core.User) (core.User, error) {
	if err := u.Validate(); err != nil {
		return core.User{}, err
	}

	created, err := s.store.CreateUser(ctx, u)
	if err != nil {
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	s.remember(created)

	slog.InfoContext(ctx, "User registered", applog.FieldUserID, created.ID, "monthly_budget", created.MonthlyBudget.String())
	return created, nil
}

func (s *UserService) Profile(ctx context.Context, id string) (core.User, error) {
	if s.cache != nil {
		if u, ok := s.cache.Get(id); ok {
			return u, nil
		}
	}

	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	s.remember(u)
	return u, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, id string, changes core.ProfileChanges) (core.User, error) {
	if changes.Empty() {
		return core.User{}, ErrNoChanges
	}
	if err := changes.Validate(); err != nil {
		return core.User{}, err
	}

	u, err := s.store.UpdateUser(ctx, id, changes)
	if err != nil {
		if s.cache != nil {
			s.cache.Delete(id)
		}
		return core.User{}, fmt.Errorf("update user: %w", err)
	}
	s.remember(u)

	slog.InfoContext(ctx, "User profile updated", applog.FieldUserID, id, "monthly_budget", u.MonthlyBudget.String())
	return u, nil
}

// UserIDs lists every registered user.
func (s *UserService) UserIDs(ctx context.Context) ([]string, error) {
	ids, err := s.store.ListUserIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return ids, nil
}

func (s *UserService) remember(u core.User) {
	if s.cache != nil {
		s.cache.Set(u.ID, u)
	}
}
