package service

import (
	"context"
	"errors"
	"strings"

	"github.com/AdamBeresnev/pitch-league/internal/notify"
	"github.com/AdamBeresnev/pitch-league/internal/store"
	users "github.com/AdamBeresnev/pitch-league/internal/user"
	"github.com/google/uuid"
)

type UserService struct {
	base
	stores *Stores
}

func NewUserService(stores *Stores, opts ...Option) *UserService {
	return &UserService{base: newBase(opts), stores: stores}
}

// EnsureUser returns the user with this username, creating it on first sight.
func (s *UserService) EnsureUser(ctx context.Context, username string) (*users.User, error) {
	if err := users.ValidateUsername(username); err != nil {
		return nil, err
	}
	username = strings.TrimSpace(username)

	user, err := s.stores.Users.GetUserByUsername(ctx, username)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	user = &users.User{
		ID:        uuid.New(),
		Username:  username,
		CreatedAt: s.now().UTC(),
	}
	if err := s.stores.Users.CreateUser(ctx, user); err != nil {
		// Lost a race with a concurrent login for the same name.
		if existing, getErr := s.stores.Users.GetUserByUsername(ctx, username); getErr == nil {
			return existing, nil
		}
		return nil, err
	}
	s.logger.Info("user created", "user_id", user.ID, "username", username)
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*users.User, error) {
	return s.stores.Users.GetUser(ctx, id)
}

func (s *UserService) ListNotifications(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]notify.Notification, error) {
	return s.stores.Notifications.ListByUser(ctx, userID, unreadOnly)
}

func (s *UserService) MarkNotificationRead(ctx context.Context, userID, id uuid.UUID) error {
	return s.stores.Notifications.MarkRead(ctx, userID, id)
}
