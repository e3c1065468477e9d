package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/Emzykings/PallyOps-Tracker/internal/domain"
	"github.com/Emzykings/PallyOps-Tracker/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AuthService registers users and issues session-backed bearer tokens.
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	Logout(ctx context.Context, token, userID string) error
	// Authenticate resolves a bearer token to its user; the session must still exist.
	Authenticate(ctx context.Context, token string) (*domain.User, error)
	CleanupExpiredSessions(ctx context.Context) (int64, error)
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"` // seconds
}

type AuthResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	User    domain.UserView `json:"user"`
	Token   TokenResponse   `json:"token"`
}

type AuthOptions struct {
	Secret     []byte
	TokenTTL   time.Duration
	BcryptCost int
}

const (
	MsgRegistered = "User registered successfully"
	MsgLoggedIn   = "Login successful"

	tokenTypeAccess   = "access"
	maxPasswordLength = 72 // bcrypt input limit
	minPasswordLength = 8
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

type accessClaims struct {
	Type string `json:"type"`
	jwt.RegisteredClaims
}

type authService struct {
	users    repository.UsersRepository
	sessions repository.SessionsRepository
	opts     AuthOptions
	now      func() time.Time
	logger   *zap.Logger
}

// NewAuthService uses time.Now when now is nil.
func NewAuthService(
	users repository.UsersRepository,
	sessions repository.SessionsRepository,
	opts AuthOptions,
	now func() time.Time,
	logger *zap.Logger,
) AuthService {
	if now == nil {
		now = time.Now
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	return &authService{users: users, sessions: sessions, opts: opts, now: now, logger: logger}
}

func (s *authService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(req.Password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.opts.BcryptCost)
	if err != nil {
		return nil, transient(fmt.Errorf("failed to hash password: %w", err))
	}

	u := &domain.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.now(),
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			s.logger.Warn("User registration failed",
				zap.String("email", email),
				zap.String("reason", "email_exists"),
			)
			return nil, newError(KindConflict, MsgEmailExists)
		}
		s.logger.Error("Failed to create user", zap.String("email", email), zap.Error(err))
		return nil, transient(err)
	}

	token, err := s.issue(ctx, u)
	if err != nil {
		return nil, err
	}
	s.logger.Info("User registered", zap.String("user_id", u.ID))
	return &AuthResponse{Success: true, Message: MsgRegistered, User: u.View(), Token: *token}, nil
}

func (s *authService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, newError(KindValidation, "Email and password are required")
	}

	u, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("User login failed", zap.String("email", email), zap.String("reason", "unknown_email"))
			return nil, newError(KindUnauthorized, MsgInvalidCredentials)
		}
		return nil, transient(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Warn("User login failed", zap.String("user_id", u.ID), zap.String("reason", "wrong_password"))
		return nil, newError(KindUnauthorized, MsgInvalidCredentials)
	}

	token, err := s.issue(ctx, u)
	if err != nil {
		return nil, err
	}
	s.logger.Info("User logged in", zap.String("user_id", u.ID))
	return &AuthResponse{Success: true, Message: MsgLoggedIn, User: u.View(), Token: *token}, nil
}

// issue signs a token and records its session.
func (s *authService) issue(ctx context.Context, u *domain.User) (*TokenResponse, error) {
	now := s.now()
	exp := now.Add(s.opts.TokenTTL)
	claims := accessClaims{
		Type: tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.opts.Secret)
	if err != nil {
		return nil, transient(fmt.Errorf("failed to sign token: %w", err))
	}

	sess := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		TokenHash: HashToken(signed),
		ExpiresAt: exp,
		CreatedAt: now,
	}
	if err := s.sessions.CreateSession(ctx, sess); err != nil {
		s.logger.Error("Failed to create session", zap.String("user_id", u.ID), zap.Error(err))
		return nil, transient(err)
	}
	return &TokenResponse{
		AccessToken: signed,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.opts.TokenTTL / time.Second),
	}, nil
}

func (s *authService) Logout(ctx context.Context, token, userID string) error {
	if err := s.sessions.DeleteSession(ctx, userID, HashToken(token)); err != nil {
		s.logger.Error("Failed to delete session", zap.String("user_id", userID), zap.Error(err))
		return transient(err)
	}
	s.logger.Info("User logged out", zap.String("user_id", userID))
	return nil
}

func (s *authService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	unauthorized := newError(KindUnauthorized, MsgInvalidToken)

	claims := &accessClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return s.opts.Secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || claims.Type != tokenTypeAccess || claims.Subject == "" {
		return nil, unauthorized
	}

	hash := HashToken(token)
	sess, err := s.sessions.GetSession(ctx, hash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, unauthorized
		}
		return nil, transient(err)
	}
	if sess.UserID != claims.Subject {
		return nil, unauthorized
	}
	if sess.Expired(s.now()) {
		if err := s.sessions.DeleteSession(ctx, sess.UserID, hash); err != nil {
			s.logger.Warn("Failed to delete expired session", zap.String("user_id", sess.UserID), zap.Error(err))
		}
		return nil, unauthorized
	}

	u, err := s.users.GetUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, unauthorized
		}
		return nil, transient(err)
	}
	return u, nil
}

func (s *authService) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	n, err := s.sessions.DeleteExpiredSessions(ctx, s.now())
	if err != nil {
		return 0, transient(err)
	}
	if n > 0 {
		s.logger.Info("Expired sessions removed", zap.Int64("count", n))
	}
	return n, nil
}

// HashToken is the hex sha256 under which a token's session is stored.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func validateName(name string) error {
	switch n := len([]rune(name)); {
	case n < 2:
		return newError(KindValidation, "Name must be at least 2 characters long")
	case n > 100:
		return newError(KindValidation, "Name is too long (max 100 characters)")
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return newError(KindValidation, "Email is required")
	}
	if len(email) > 255 {
		return newError(KindValidation, "Email is too long (max 255 characters)")
	}
	if !emailPattern.MatchString(email) {
		return newError(KindValidation, "Invalid email format")
	}
	return nil
}

func validatePassword(pw string) error {
	if len(pw) < minPasswordLength {
		return newError(KindValidation, fmt.Sprintf("Password must be at least %d characters long", minPasswordLength))
	}
	if len(pw) > maxPasswordLength {
		return newError(KindValidation, fmt.Sprintf("Password is too long (max %d bytes)", maxPasswordLength))
	}
	var upper, lower, digit bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	switch {
	case !upper:
		return newError(KindValidation, "Password must contain at least one uppercase letter")
	case !lower:
		return newError(KindValidation, "Password must contain at least one lowercase letter")
	case !digit:
		return newError(KindValidation, "Password must contain at least one number")
	}
	return nil
}
