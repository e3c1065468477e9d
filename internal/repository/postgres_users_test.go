package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/Emzykings/PallyOps-Tracker/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupUsersMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *PostgresUsersRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock, NewPostgresUsersRepository(db)
}

func TestPostgresCreateUser_DuplicateEmail(t *testing.T) {
	db, mock, repo := setupUsersMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectExec(`INSERT INTO users`).
		WithArgs("u-1", "Ada", "ada@example.com", "hash", now).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

	err := repo.CreateUser(context.Background(), &domain.User{
		ID: "u-1", Name: "Ada", Email: "ada@example.com", PasswordHash: "hash", CreatedAt: now,
	})

	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCreateUser_Success(t *testing.T) {
	db, mock, repo := setupUsersMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectExec(`INSERT INTO users`).
		WithArgs("u-1", "Ada", "ada@example.com", "hash", now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	u := &domain.User{ID: "u-1", Name: "Ada", Email: "ada@example.com", PasswordHash: "hash", CreatedAt: now}
	require.NoError(t, repo.CreateUser(context.Background(), u))
	assert.Equal(t, now, u.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetUserByEmail(t *testing.T) {
	db, mock, repo := setupUsersMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`FROM users\s+WHERE email = \$1`).
		WithArgs("ada@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "created_at", "updated_at"}).
			AddRow("u-1", "Ada", "ada@example.com", "hash", now, now))

	u, err := repo.GetUserByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u-1", u.ID)

	mock.ExpectQuery(`FROM users\s+WHERE id = \$1`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "created_at", "updated_at"}))

	_, err = repo.GetUserByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSessions(t *testing.T) {
	db, mock, repo := setupUsersMock(t)
	defer db.Close()

	now := time.Now()
	s := &domain.Session{ID: "s-1", UserID: "u-1", TokenHash: "abc", ExpiresAt: now.Add(time.Hour), CreatedAt: now}

	mock.ExpectExec(`INSERT INTO user_sessions`).
		WithArgs("s-1", "u-1", "abc", s.ExpiresAt, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.CreateSession(context.Background(), s))

	mock.ExpectQuery(`FROM user_sessions`).
		WithArgs("abc").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "token_hash", "expires_at", "created_at"}).
			AddRow("s-1", "u-1", "abc", s.ExpiresAt, now))
	got, err := repo.GetSession(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.UserID)

	mock.ExpectExec(`DELETE FROM user_sessions WHERE user_id`).
		WithArgs("u-1", "abc").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.DeleteSession(context.Background(), "u-1", "abc"))

	mock.ExpectExec(`DELETE FROM user_sessions WHERE expires_at`).
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 3))
	n, err := repo.DeleteExpiredSessions(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	assert.NoError(t, mock.ExpectationsWereMet())
}
