package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Emzykings/PallyOps-Tracker/internal/domain"
)

// MemoryUsersRepo keeps users and sessions in process when the DB is disabled.
type MemoryUsersRepo struct {
	mu       sync.RWMutex
	users    map[string]domain.User    // id -> user
	byEmail  map[string]string         // lower(email) -> id
	sessions map[string]domain.Session // token hash -> session
}

func NewMemoryUsersRepo() *MemoryUsersRepo {
	return &MemoryUsersRepo{
		users:    map[string]domain.User{},
		byEmail:  map[string]string{},
		sessions: map[string]domain.Session{},
	}
}

var (
	_ UsersRepository    = (*MemoryUsersRepo)(nil)
	_ SessionsRepository = (*MemoryUsersRepo)(nil)
)

func (r *MemoryUsersRepo) CreateUser(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := strings.ToLower(u.Email)
	if _, ok := r.byEmail[email]; ok {
		return ErrEmailTaken
	}
	u.UpdatedAt = u.CreatedAt
	r.users[u.ID] = *u
	r.byEmail[email] = u.ID
	return nil
}

func (r *MemoryUsersRepo) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, ErrNotFound
	}
	u := r.users[id]
	return &u, nil
}

func (r *MemoryUsersRepo) GetUserByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (r *MemoryUsersRepo) CreateSession(_ context.Context, s *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.TokenHash] = *s
	return nil
}

func (r *MemoryUsersRepo) GetSession(_ context.Context, tokenHash string) (*domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[tokenHash]
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (r *MemoryUsersRepo) DeleteSession(_ context.Context, userID, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[tokenHash]; ok && s.UserID == userID {
		delete(r.sessions, tokenHash)
	}
	return nil
}

func (r *MemoryUsersRepo) DeleteExpiredSessions(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for h, s := range r.sessions {
		if s.Expired(now) {
			delete(r.sessions, h)
			n++
		}
	}
	return n, nil
}
