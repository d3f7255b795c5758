package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/taskhub/task-api/internal/api/metrics"
	"github.com/taskhub/task-api/internal/core/domain"
	"github.com/taskhub/task-api/internal/core/ports"
)

// Fields accepted by Update.
var taskFields = []string{"description", "completed"}

// sortableFields maps the accepted sortBy names to task fields.
var sortableFields = map[string]string{
	"description": "description",
	"completed":   "completed",
	"created_at":  "created_at",
	"createdAt":   "created_at",
	"updated_at":  "updated_at",
	"updatedAt":   "updated_at",
}

// TaskService implements the task use cases. Every operation is scoped to
// the owner passed in, which callers take from the authenticated user.
type TaskService struct {
	repo   ports.TaskRepository
	logger zerolog.Logger
	now    func() time.Time
}

func NewTaskService(repo ports.TaskRepository, logger zerolog.Logger) *TaskService {
	return &TaskService{repo: repo, logger: logger, now: time.Now}
}

// Create stores a new task owned by owner.
func (s *TaskService) Create(ctx context.Context, owner string, in ports.CreateTaskInput) (*domain.Task, error) {
	description, err := domain.NormalizeDescription(in.Description)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	task := &domain.Task{
		Description: description,
		Completed:   in.Completed,
		Owner:       owner,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, task); err != nil {
		s.logger.Error().Err(err).Str("owner", owner).Msg("failed to create task")
		return nil, err
	}

	metrics.TasksCreatedTotal.Inc()
	s.logger.Debug().Str("task_id", task.ID).Str("owner", owner).Msg("task created")
	return task, nil
}

// List returns the owner's tasks, optionally filtered, paginated and sorted.
func (s *TaskService) List(ctx context.Context, owner string, in ports.ListTasksInput) ([]*domain.Task, error) {
	filter := domain.TaskFilter{
		Owner: owner,
		Limit: parseCount(in.Limit),
		Skip:  parseCount(in.Skip),
	}

	if in.Completed != "" {
		completed := in.Completed == "true"
		filter.Completed = &completed
	}

	if in.SortBy != "" {
		sort, err := parseSort(in.SortBy)
		if err != nil {
			return nil, err
		}
		filter.Sort = sort
	}

	return s.repo.List(ctx, filter)
}

// Get returns one of the owner's tasks.
func (s *TaskService) Get(ctx context.Context, owner, id string) (*domain.Task, error) {
	if err := domain.ValidateID(id); err != nil {
		return nil, err
	}
	return s.repo.FindByIDAndOwner(ctx, id, owner)
}

// Update applies an allow-listed partial update to one of the owner's tasks.
// Nothing is written unless every key is allowed and every value is valid.
func (s *TaskService) Update(ctx context.Context, owner, id string, fields ports.Fields) (*domain.Task, error) {
	if err := domain.ValidateID(id); err != nil {
		return nil, err
	}
	if bad := fields.Disallowed(taskFields...); len(bad) > 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidField, strings.Join(bad, ", "))
	}

	update, err := decodeTaskUpdate(fields)
	if err != nil {
		return nil, err
	}
	if update.IsEmpty() {
		return s.repo.FindByIDAndOwner(ctx, id, owner)
	}
	return s.repo.Update(ctx, id, owner, update)
}

// Delete removes one of the owner's tasks and returns it.
func (s *TaskService) Delete(ctx context.Context, owner, id string) (*domain.Task, error) {
	if err := domain.ValidateID(id); err != nil {
		return nil, err
	}
	task, err := s.repo.Delete(ctx, id, owner)
	if err != nil {
		return nil, err
	}
	metrics.TasksDeletedTotal.WithLabelValues("explicit").Inc()
	return task, nil
}

func decodeTaskUpdate(fields ports.Fields) (domain.TaskUpdate, error) {
	var update domain.TaskUpdate

	if raw, ok := fields["description"]; ok {
		var description string
		if err := json.Unmarshal(raw, &description); err != nil {
			return update, &domain.ValidationError{Field: "description", Reason: "must be a string"}
		}
		description, err := domain.NormalizeDescription(description)
		if err != nil {
			return update, err
		}
		update.Description = &description
	}

	if raw, ok := fields["completed"]; ok {
		var completed *bool
		if err := json.Unmarshal(raw, &completed); err != nil || completed == nil {
			return update, &domain.ValidationError{Field: "completed", Reason: "must be a boolean"}
		}
		update.Completed = completed
	}

	return update, nil
}

// parseCount reads a limit/skip value. Anything that is not a positive
// integer means "not set".
func parseCount(raw string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

// parseSort reads "field:direction"; only "desc" sorts descending.
func parseSort(raw string) (*domain.TaskSort, error) {
	name, direction, _ := strings.Cut(raw, ":")
	field, ok := sortableFields[name]
	if !ok {
		return nil, &domain.ValidationError{Field: "sortBy", Reason: fmt.Sprintf("cannot sort by %q", name)}
	}
	sort := &domain.TaskSort{Field: field, Direction: domain.SortAsc}
	if direction == "desc" {
		sort.Direction = domain.SortDesc
	}
	return sort, nil
}
