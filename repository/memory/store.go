// Package memory keeps tasks and accounts in process memory. It backs the
// test suites and the STORE_DRIVER=memory mode; data is lost on restart.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/repository"
)

// Store holds both collections behind one lock. Records are kept in insertion
// order so owner scans are repeatable.
type Store struct {
	mu    sync.RWMutex
	tasks []domain.Task
	users []domain.User
	now   func() time.Time
}

// Option customizes a Store.
type Option func(*Store)

// WithClock sets the source of CreatedAt and UpdatedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New returns an empty store.
func New(opts ...Option) *Store {
	s := &Store{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tasks exposes the store as a TaskRepository.
func (s *Store) Tasks() repository.TaskRepository { return taskStore{s} }

// Users exposes the store as a UserRepository.
func (s *Store) Users() repository.UserRepository { return userStore{s} }

type taskStore struct{ s *Store }

func (r taskStore) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	if err := ctx.Err(); err != nil {
		return nil, domain.Upstream("create task", err)
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	created := cloneTask(*task)
	if created.ID == "" {
		created.ID = uuid.NewString()
	}
	now := r.s.now()
	created.CreatedAt = now
	created.UpdatedAt = now
	r.s.tasks = append(r.s.tasks, created)

	out := cloneTask(created)
	return &out, nil
}

func (r taskStore) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.Upstream("get task", err)
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	idx := r.s.taskIndex(id)
	if idx < 0 {
		return nil, domain.ErrTaskNotFound
	}
	out := cloneTask(r.s.tasks[idx])
	return &out, nil
}

func (r taskStore) Update(ctx context.Context, id string, patch domain.TaskPatch) (*domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.Upstream("update task", err)
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	idx := r.s.taskIndex(id)
	if idx < 0 {
		return nil, domain.ErrTaskNotFound
	}
	task := &r.s.tasks[idx]
	patch.Apply(task)
	task.UpdatedAt = r.s.now()

	out := cloneTask(*task)
	return &out, nil
}

func (r taskStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return domain.Upstream("delete task", err)
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	idx := r.s.taskIndex(id)
	if idx < 0 {
		return domain.ErrTaskNotFound
	}
	r.s.tasks = append(r.s.tasks[:idx], r.s.tasks[idx+1:]...)
	return nil
}

func (r taskStore) ListByOwner(ctx context.Context, userID string) ([]domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.Upstream("list tasks", err)
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var tasks []domain.Task
	for _, t := range r.s.tasks {
		if t.UserID == userID {
			tasks = append(tasks, cloneTask(t))
		}
	}
	return tasks, nil
}

type userStore struct{ s *Store }

func (r userStore) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	if user == nil {
		return nil, domain.ErrInvalidPayload
	}
	if err := ctx.Err(); err != nil {
		return nil, domain.Upstream("create user", err)
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	created := *user
	if created.ID == "" {
		created.ID = uuid.NewString()
	}
	created.Email = domain.NormalizeEmail(created.Email)
	for _, u := range r.s.users {
		if u.Email == created.Email {
			return nil, domain.ErrEmailTaken
		}
	}
	now := r.s.now()
	created.CreatedAt = now
	created.UpdatedAt = now
	r.s.users = append(r.s.users, created)

	out := created
	return &out, nil
}

func (r userStore) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.Upstream("get user", err)
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.ID == id {
			out := u
			return &out, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r userStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.Upstream("get user by email", err)
	}

	email = domain.NormalizeEmail(email)

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Email == email {
			out := u
			return &out, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r userStore) Update(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.Upstream("update user", err)
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for i := range r.s.users {
		if r.s.users[i].ID == id {
			patch.Apply(&r.s.users[i])
			r.s.users[i].UpdatedAt = r.s.now()
			out := r.s.users[i]
			return &out, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (s *Store) taskIndex(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneTask(t domain.Task) domain.Task {
	if t.DueDate != nil {
		due := *t.DueDate
		t.DueDate = &due
	}
	return t
}
