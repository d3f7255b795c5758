package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/taskhub/task-api/internal/core/domain"
	"github.com/taskhub/task-api/internal/core/ports"
)

// SessionTTL is the lifetime of every issued session token.
const SessionTTL = time.Hour

// sessionClaims binds a token to a user id (sub) with a unique id (jti).
type sessionClaims struct {
	jwt.RegisteredClaims
}

// TokenService signs session tokens and keeps them in the owner's token list.
type TokenService struct {
	users  ports.UserRepository
	secret []byte
	now    func() time.Time
}

func NewTokenService(users ports.UserRepository, secret string) *TokenService {
	return &TokenService{users: users, secret: []byte(secret), now: time.Now}
}

// Issue signs a token for userID and appends it to the user's token list.
func (s *TokenService) Issue(ctx context.Context, userID string) (string, error) {
	now := s.now()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(SessionTTL)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	if err := s.users.AddToken(ctx, userID, token); err != nil {
		if errors.Is(err, domain.ErrPersistence) {
			return "", err
		}
		return "", fmt.Errorf("store token: %w: %w", domain.ErrPersistence, err)
	}
	return token, nil
}

// Verify checks signature and expiry and returns the user id the token was
// issued to.
func (s *TokenService) Verify(token string) (string, error) {
	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return s.secret, nil
	}, jwt.WithExpirationRequired(), jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return "", domain.ErrUnauthenticated
	}
	return claims.Subject, nil
}

// Authenticate resolves token to its user. The token must verify and still
// be present in the user's token list.
func (s *TokenService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	userID, err := s.Verify(token)
	if err != nil {
		return nil, err
	}
	user, err := s.users.FindByIDAndToken(ctx, userID, token)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUnauthenticated
		}
		return nil, err
	}
	return user, nil
}

// Revoke removes one token from the user's token list.
func (s *TokenService) Revoke(ctx context.Context, userID, token string) error {
	return s.users.RemoveToken(ctx, userID, token)
}

// RevokeAll empties the user's token list.
func (s *TokenService) RevokeAll(ctx context.Context, userID string) error {
	return s.users.ClearTokens(ctx, userID)
}
