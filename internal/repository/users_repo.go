package repository

import (
	"context"
	"time"

	"github.com/Emzykings/PallyOps-Tracker/internal/domain"
)

type UsersRepository interface {
	// CreateUser returns ErrEmailTaken on a duplicate email.
	CreateUser(ctx context.Context, u *domain.User) error
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
}

type SessionsRepository interface {
	CreateSession(ctx context.Context, s *domain.Session) error
	// GetSession returns ErrNotFound for an unknown token hash.
	GetSession(ctx context.Context, tokenHash string) (*domain.Session, error)
	DeleteSession(ctx context.Context, userID, tokenHash string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}
