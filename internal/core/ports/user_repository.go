package ports

import (
	"context"

	"github.com/taskhub/task-api/internal/core/domain"
)

// UserRepository defines persistence operations for users and their session
// token lists. Token list mutations are single-document atomic operations.
type UserRepository interface {
	// Create inserts the user and sets user.ID. Returns domain.ErrEmailTaken
	// when the email is already registered.
	Create(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// FindByIDAndToken returns the user only when token is in its token list.
	FindByIDAndToken(ctx context.Context, id, token string) (*domain.User, error)
	Update(ctx context.Context, id string, update domain.UserUpdate) (*domain.User, error)
	SetPhoto(ctx context.Context, id string, photo []byte) (*domain.User, error)
	Delete(ctx context.Context, id string) error

	AddToken(ctx context.Context, id, token string) error
	RemoveToken(ctx context.Context, id, token string) error
	ClearTokens(ctx context.Context, id string) error
}
