package ports

import (
	"context"

	"github.com/taskhub/task-api/internal/core/domain"
)

// RegisterInput carries the fields accepted on registration.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Age      *int
}

// PhotoUpload is a raw avatar file as received from the client.
type PhotoUpload struct {
	Filename string
	Data     []byte
}

// AccountService defines the user account use cases. Methods taking a
// *domain.User expect the user resolved by the authentication middleware.
type AccountService interface {
	Register(ctx context.Context, input RegisterInput) (*domain.User, string, error)
	Login(ctx context.Context, email, password string) (*domain.User, string, error)
	Logout(ctx context.Context, user *domain.User, token string) error
	LogoutAll(ctx context.Context, user *domain.User) error
	UpdateProfile(ctx context.Context, user *domain.User, fields Fields) (*domain.User, error)
	DeleteAccount(ctx context.Context, user *domain.User) error

	SetPhoto(ctx context.Context, user *domain.User, upload PhotoUpload) (*domain.User, error)
	Photo(ctx context.Context, userID string) ([]byte, error)
	DeletePhoto(ctx context.Context, user *domain.User) (*domain.User, error)
}
