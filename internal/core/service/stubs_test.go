package service

import (
	"context"
	"slices"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/taskhub/task-api/internal/core/domain"
)

// ---------------------------------------------------------------------------
// In-memory stub repositories
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	byID        map[string]*domain.User
	addTokenErr error // if set, AddToken returns this error
	deleteErr   error // if set, Delete returns this error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byID: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	c := *u
	c.Tokens = slices.Clone(u.Tokens)
	c.Photo = slices.Clone(u.Photo)
	return &c
}

func (r *stubUserRepo) emailTaken(email, exceptID string) bool {
	for id, u := range r.byID {
		if id != exceptID && u.Email == email {
			return true
		}
	}
	return false
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) error {
	if r.emailTaken(user.Email, "") {
		return domain.ErrEmailTaken
	}
	user.ID = primitive.NewObjectID().Hex()
	r.byID[user.ID] = cloneUser(user)
	return nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.byID {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

// FindByIDAndToken mirrors the store query: both id and token must match.
func (r *stubUserRepo) FindByIDAndToken(_ context.Context, id, token string) (*domain.User, error) {
	u, ok := r.byID[id]
	if !ok || !u.HasToken(token) {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) Update(_ context.Context, id string, update domain.UserUpdate) (*domain.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if update.Email != nil && r.emailTaken(*update.Email, id) {
		return nil, domain.ErrEmailTaken
	}
	if update.Name != nil {
		u.Name = *update.Name
	}
	if update.Email != nil {
		u.Email = *update.Email
	}
	if update.PasswordHash != nil {
		u.PasswordHash = *update.PasswordHash
	}
	if update.Age != nil {
		age := *update.Age
		u.Age = &age
	}
	if update.ClearAge {
		u.Age = nil
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) SetPhoto(_ context.Context, id string, photo []byte) (*domain.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u.Photo = slices.Clone(photo)
	return cloneUser(u), nil
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	if _, ok := r.byID[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *stubUserRepo) AddToken(_ context.Context, id, token string) error {
	if r.addTokenErr != nil {
		return r.addTokenErr
	}
	u, ok := r.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Tokens = append(u.Tokens, token)
	return nil
}

func (r *stubUserRepo) RemoveToken(_ context.Context, id, token string) error {
	u, ok := r.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Tokens = slices.DeleteFunc(u.Tokens, func(t string) bool { return t == token })
	return nil
}

func (r *stubUserRepo) ClearTokens(_ context.Context, id string) error {
	u, ok := r.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Tokens = nil
	return nil
}

type stubTaskRepo struct {
	tasks            []*domain.Task // insertion order
	lastFilter       domain.TaskFilter
	deleteByOwnerErr error // if set, DeleteByOwner returns this error
	updateCalls      int
}

func newStubTaskRepo() *stubTaskRepo {
	return &stubTaskRepo{}
}

func (r *stubTaskRepo) Create(_ context.Context, task *domain.Task) error {
	task.ID = primitive.NewObjectID().Hex()
	clone := *task
	r.tasks = append(r.tasks, &clone)
	return nil
}

// List applies the owner, completed and pagination filters the real Mongo
// repo would use. Sort order is left to the store.
func (r *stubTaskRepo) List(_ context.Context, f domain.TaskFilter) ([]*domain.Task, error) {
	r.lastFilter = f

	var matched []*domain.Task
	for _, t := range r.tasks {
		if t.Owner != f.Owner {
			continue
		}
		if f.Completed != nil && t.Completed != *f.Completed {
			continue
		}
		clone := *t
		matched = append(matched, &clone)
	}

	if f.Skip > 0 {
		if f.Skip >= int64(len(matched)) {
			return []*domain.Task{}, nil
		}
		matched = matched[f.Skip:]
	}
	if f.Limit > 0 && f.Limit < int64(len(matched)) {
		matched = matched[:f.Limit]
	}
	return matched, nil
}

func (r *stubTaskRepo) find(id, owner string) (int, bool) {
	for i, t := range r.tasks {
		if t.ID == id && t.Owner == owner {
			return i, true
		}
	}
	return 0, false
}

func (r *stubTaskRepo) FindByIDAndOwner(_ context.Context, id, owner string) (*domain.Task, error) {
	i, ok := r.find(id, owner)
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	clone := *r.tasks[i]
	return &clone, nil
}

func (r *stubTaskRepo) Update(_ context.Context, id, owner string, update domain.TaskUpdate) (*domain.Task, error) {
	r.updateCalls++
	i, ok := r.find(id, owner)
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	t := r.tasks[i]
	if update.Description != nil {
		t.Description = *update.Description
	}
	if update.Completed != nil {
		t.Completed = *update.Completed
	}
	clone := *t
	return &clone, nil
}

func (r *stubTaskRepo) Delete(_ context.Context, id, owner string) (*domain.Task, error) {
	i, ok := r.find(id, owner)
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	t := r.tasks[i]
	r.tasks = slices.Delete(r.tasks, i, i+1)
	return t, nil
}

func (r *stubTaskRepo) DeleteByOwner(_ context.Context, owner string) (int64, error) {
	if r.deleteByOwnerErr != nil {
		return 0, r.deleteByOwnerErr
	}
	before := len(r.tasks)
	r.tasks = slices.DeleteFunc(r.tasks, func(t *domain.Task) bool { return t.Owner == owner })
	return int64(before - len(r.tasks)), nil
}

func (r *stubTaskRepo) countOwned(owner string) int {
	n := 0
	for _, t := range r.tasks {
		if t.Owner == owner {
			n++
		}
	}
	return n
}

// ---------------------------------------------------------------------------
// Collaborator stubs
// ---------------------------------------------------------------------------

type stubAvatar struct {
	err   error
	calls int
}

func (a *stubAvatar) Process(data []byte) ([]byte, error) {
	a.calls++
	if a.err != nil {
		return nil, a.err
	}
	return []byte("png:" + string(data)), nil
}

type stubLimiter struct {
	failures map[string]int
	max      int
	allowErr error
	resets   int
}

func newStubLimiter(max int) *stubLimiter {
	return &stubLimiter{failures: make(map[string]int), max: max}
}

func (l *stubLimiter) Allow(_ context.Context, email string) (bool, error) {
	if l.allowErr != nil {
		return false, l.allowErr
	}
	return l.failures[email] < l.max, nil
}

func (l *stubLimiter) RecordFailure(_ context.Context, email string) error {
	l.failures[email]++
	return nil
}

func (l *stubLimiter) Reset(_ context.Context, email string) error {
	l.resets++
	delete(l.failures, email)
	return nil
}

type stubSweeper struct {
	owners []string
}

func (s *stubSweeper) Enqueue(ownerID string) {
	s.owners = append(s.owners, ownerID)
}
