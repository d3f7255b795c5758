package ports

import (
	"context"

	"github.com/taskhub/task-api/internal/core/domain"
)

// TokenService issues and revokes session tokens. Issued tokens are stored
// on the user so they can be revoked before they expire.
type TokenService interface {
	Issue(ctx context.Context, userID string) (string, error)
	Verify(token string) (string, error)
	Revoke(ctx context.Context, userID, token string) error
	RevokeAll(ctx context.Context, userID string) error
}

// Authenticator resolves a bearer token to the user that holds it.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}
