// Package auth issues and validates the signed session tokens behind every
// staff endpoint. Credentials live in the usuarios table as bcrypt hashes.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/mpensambles/entradasqr/internal/domain"
	"github.com/mpensambles/entradasqr/internal/repository"
	postgresrepo "github.com/mpensambles/entradasqr/internal/repository/postgres"
)

// authTimeout bounds the credential lookup so a slow database cannot hold a
// login request open indefinitely.
const authTimeout = 10 * time.Second

type Config struct {
	JWTSecret []byte
	TokenTTL  time.Duration
}

type Service struct {
	store *postgresrepo.Store
	cfg   Config
}

func New(store *postgresrepo.Store, cfg Config) *Service {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 12 * time.Hour
	}

	return &Service{store: store, cfg: cfg}
}

type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Session is the authenticated identity attached to a request.
type Session struct {
	Email string `json:"email"`
}

// Login verifies the credentials and returns a signed session token. Both
// unknown email and wrong password map to ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (string, *domain.Usuario, error) {
	const op = "service.auth.Login"

	ctx, cancel := context.WithTimeout(ctx, authTimeout)
	defer cancel()

	u, err := s.store.Usuarios().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, fmt.Errorf("%s:%w", op, ErrInvalidCredentials)
		}

		return "", nil, fmt.Errorf("%s:%w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", nil, fmt.Errorf("%s:%w", op, ErrInvalidCredentials)
	}

	now := time.Now()
	claims := Claims{
		Email: u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.JWTSecret)
	if err != nil {
		return "", nil, fmt.Errorf("%s:%w", op, err)
	}

	return token, u, nil
}

// ValidateToken parses a session token and returns the session it encodes.
func (s *Service) ValidateToken(tokenString string) (*Session, error) {
	const op = "service.auth.ValidateToken"

	var claims Claims
	token, err := jwt.ParseWithClaims(
		tokenString,
		&claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
			}
			return s.cfg.JWTSecret, nil
		},
	)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%s:%w", op, ErrInvalidToken)
	}

	if claims.Email == "" {
		return nil, fmt.Errorf("%s:%w", op, ErrInvalidToken)
	}

	return &Session{Email: claims.Email}, nil
}

// Register creates a staff account with a bcrypt-hashed password. Exposed
// for the provisioning CLI path, not the public API.
func (s *Service) Register(ctx context.Context, email, password string) (int64, error) {
	const op = "service.auth.Register"

	ctx, cancel := context.WithTimeout(ctx, authTimeout)
	defer cancel()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, err)
	}

	id, err := s.store.Usuarios().Insert(ctx, email, string(hash))
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, err)
	}

	return id, nil
}
