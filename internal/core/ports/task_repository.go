package ports

import (
	"context"

	"github.com/taskhub/task-api/internal/core/domain"
)

// TaskRepository defines persistence operations for tasks. Every lookup is
// filtered by owner in the store query itself; a task owned by someone else
// is reported as domain.ErrTaskNotFound.
type TaskRepository interface {
	// Create inserts the task and sets task.ID.
	Create(ctx context.Context, task *domain.Task) error
	List(ctx context.Context, filter domain.TaskFilter) ([]*domain.Task, error)
	FindByIDAndOwner(ctx context.Context, id, owner string) (*domain.Task, error)
	Update(ctx context.Context, id, owner string, update domain.TaskUpdate) (*domain.Task, error)
	Delete(ctx context.Context, id, owner string) (*domain.Task, error)
	// DeleteByOwner removes every task of owner and returns how many were removed.
	DeleteByOwner(ctx context.Context, owner string) (int64, error)
}
