package domain

import "time"

// Task is a work item owned by exactly one user. Owner is set at creation
// from the authenticated caller and never changes.
type Task struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	Owner       string    `json:"owner"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TaskUpdate carries the allow-listed task fields to change.
type TaskUpdate struct {
	Description *string
	Completed   *bool
}

// IsEmpty reports whether the update changes nothing.
func (u TaskUpdate) IsEmpty() bool {
	return u.Description == nil && u.Completed == nil
}

// SortDirection is the order applied to a task listing.
type SortDirection int

const (
	SortAsc  SortDirection = 1
	SortDesc SortDirection = -1
)

// TaskSort names one field and its direction.
type TaskSort struct {
	Field     string
	Direction SortDirection
}

// TaskFilter scopes a task listing. Owner is mandatory and always applied by
// the store query.
type TaskFilter struct {
	Owner     string
	Completed *bool
	Limit     int64 // 0 = unbounded
	Skip      int64
	Sort      *TaskSort
}
