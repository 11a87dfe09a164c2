package auth

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/storykeep/storykeep/internal/shared"
	"github.com/storykeep/storykeep/internal/users"
)

// UserStore is the slice of the users repository the auth flow needs.
type UserStore interface {
	Get(ctx context.Context, id int64) (users.User, error)
	GetByEmail(ctx context.Context, email string) (users.User, error)
}

// SessionStore persists login session metadata for auditing.
type SessionStore interface {
	CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error
	DeleteSession(ctx context.Context, id string) error
}

// Service wraps authentication business rules.
type Service struct {
	userStore    UserStore
	sessionStore SessionStore
}

// NewService constructs a new Service.
func NewService(userStore UserStore, sessionStore SessionStore) *Service {
	return &Service{userStore: userStore, sessionStore: sessionStore}
}

// Authenticate validates email/password credentials. All failure modes
// collapse into ErrInvalidCredentials so a caller cannot probe for accounts.
func (s *Service) Authenticate(ctx context.Context, email, password string) (users.User, error) {
	user, err := s.userStore.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return users.User{}, shared.ErrInvalidCredentials
		}
		return users.User{}, err
	}
	if !user.IsActive {
		return users.User{}, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return users.User{}, shared.ErrInvalidCredentials
	}
	return user, nil
}

// LoadUser resolves a session's user ID back to an account. Deactivated
// accounts resolve to ErrInvalidCredentials so stale sessions go dead.
func (s *Service) LoadUser(ctx context.Context, id int64) (users.User, error) {
	user, err := s.userStore.Get(ctx, id)
	if err != nil {
		return users.User{}, err
	}
	if !user.IsActive {
		return users.User{}, shared.ErrInvalidCredentials
	}
	return user, nil
}

// RegisterSession persists the session metadata in postgres.
func (s *Service) RegisterSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	return s.sessionStore.CreateSession(ctx, id, userID, expiresAt, ip, ua)
}

// RemoveSession deletes a session record from postgres.
func (s *Service) RemoveSession(ctx context.Context, id string) error {
	return s.sessionStore.DeleteSession(ctx, id)
}
