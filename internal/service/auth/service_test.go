package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestValidateTokenRoundTrip(t *testing.T) {
	t.Parallel()

	s := New(nil, Config{JWTSecret: []byte("test-secret"), TokenTTL: time.Hour})

	claims := Claims{
		Email: "staff@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "staff@example.com",
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	sess, err := s.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if sess.Email != "staff@example.com" {
		t.Errorf("email = %q, want staff@example.com", sess.Email)
	}
}

func TestValidateTokenRejectsBadInput(t *testing.T) {
	t.Parallel()

	s := New(nil, Config{JWTSecret: []byte("test-secret")})

	expired := Claims{
		Email: "staff@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	expiredToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, expired).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	wrongKey, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Email: "staff@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("other-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not.a.token"},
		{"empty", ""},
		{"expired", expiredToken},
		{"wrong key", wrongKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := s.ValidateToken(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("ValidateToken(%q) error = %v, want ErrInvalidToken", tt.name, err)
			}
		})
	}
}
