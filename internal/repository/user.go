package repository

import (
	"context"
	"errors"

	"skinvault/internal/domain"
)

// ErrUserExists is returned by Create when the email or steam id is already taken.
var ErrUserExists = errors.New("user already exists")

// UserRepository defines persistence operations for User entities.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) error
	UpdateProfile(ctx context.Context, id, username, avatarURL string) error
	SetAdmin(ctx context.Context, id string, isAdmin bool) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	List(ctx context.Context, limit, offset int) ([]domain.User, error)
}

// SessionRepository stores refresh credentials.
type SessionRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, session *domain.Session) error
	Get(ctx context.Context, id string) (*domain.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context) (int64, error)
}
