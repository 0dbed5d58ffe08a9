package repository

import (
	"context"

	"github.com/fastygo/taskflow/domain"
)

// TaskRepository is the task store contract. The only filtered read it offers is
// equality on the owner; every richer query is computed by the caller.
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	Update(ctx context.Context, id string, patch domain.TaskPatch) (*domain.Task, error)
	Delete(ctx context.Context, id string) error
	ListByOwner(ctx context.Context, userID string) ([]domain.Task, error)
}
