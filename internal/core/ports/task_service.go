package ports

import (
	"context"

	"github.com/taskhub/task-api/internal/core/domain"
)

// CreateTaskInput carries the fields accepted on task creation. There is no
// owner field: the owner is always the caller.
type CreateTaskInput struct {
	Description string
	Completed   bool
}

// ListTasksInput carries the raw query parameters of a task listing.
type ListTasksInput struct {
	Completed string // "" = no filter, "true" = completed, anything else = not completed
	Limit     string
	Skip      string
	SortBy    string // field:direction
}

// TaskService defines the owner-scoped task use cases.
type TaskService interface {
	Create(ctx context.Context, owner string, input CreateTaskInput) (*domain.Task, error)
	List(ctx context.Context, owner string, input ListTasksInput) ([]*domain.Task, error)
	Get(ctx context.Context, owner, id string) (*domain.Task, error)
	Update(ctx context.Context, owner, id string, fields Fields) (*domain.Task, error)
	Delete(ctx context.Context, owner, id string) (*domain.Task, error)
}
