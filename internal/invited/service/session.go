package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/openoak/invited/internal/invited/domain"
	"github.com/openoak/invited/internal/invited/store"
	"github.com/openoak/invited/pkg/cryptox"
	"github.com/openoak/invited/pkg/slogx"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidSession     = errors.New("invalid session token")
)

// SessionClaims are the JWT claims carried by a session token.
type SessionClaims struct {
	Staff bool `json:"staff"`
	jwt.RegisteredClaims
}

// SessionService issues and verifies HS256 session tokens. Sessions are
// created on login and on successful invitation redemption.
type SessionService struct {
	Store  store.Store
	Secret []byte
	Issuer string
	TTL    time.Duration
}

// Login verifies credentials and returns the user with a fresh session
// token. Unknown usernames and wrong passwords are indistinguishable.
func (s *SessionService) Login(ctx context.Context, username, password string) (domain.User, string, error) {
	log := slogx.FromContext(ctx)

	if username == "" || password == "" {
		return domain.User{}, "", ErrInvalidCredentials
	}

	user, err := s.Store.Users().GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("login attempted with unknown username")
			return domain.User{}, "", ErrInvalidCredentials
		}
		log.Error("failed to fetch user", slog.Any("error", err))
		return domain.User{}, "", err
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		log.Warn("login attempted with wrong password",
			slog.String("user_id", user.ID),
		)
		return domain.User{}, "", ErrInvalidCredentials
	}

	token, err := s.Issue(user)
	if err != nil {
		log.Error("failed to issue session token", slog.Any("error", err))
		return domain.User{}, "", err
	}

	return user, token, nil
}

// Issue creates a signed session token for the given user.
func (s *SessionService) Issue(user domain.User) (string, error) {
	now := time.Now().UTC()
	claims := SessionClaims{
		Staff: user.Staff,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.Issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.TTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.Secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a session token.
func (s *SessionService) Verify(tokenString string) (SessionClaims, error) {
	var claims SessionClaims
	_, err := jwt.ParseWithClaims(
		tokenString,
		&claims,
		func(t *jwt.Token) (any, error) { return s.Secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return SessionClaims{}, ErrInvalidSession
	}
	return claims, nil
}
