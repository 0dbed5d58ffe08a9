// Package bolt is an embedded document store on BoltDB. Documents are JSON
// values keyed by id; owner reads scan the bucket with an equality match.
package bolt

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	bbolt "go.etcd.io/bbolt"

	"github.com/fastygo/taskflow/domain"
	boltInfra "github.com/fastygo/taskflow/internal/infrastructure/bolt"
	"github.com/fastygo/taskflow/repository"
)

type taskRepository struct {
	db  *bbolt.DB
	now func() time.Time
}

// NewTaskRepository returns a BoltDB-backed TaskRepository.
func NewTaskRepository(db *bbolt.DB) repository.TaskRepository {
	return &taskRepository{db: db, now: time.Now}
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.Upstream("get task", err)
	}
	var task *domain.Task
	err := r.db.View(func(tx *bbolt.Tx) error {
		var err error
		task, err = getTask(tx, id)
		return err
	})
	if err != nil {
		return nil, wrap("get task", err)
	}
	return task, nil
}

func (r *taskRepository) ListByOwner(ctx context.Context, userID string) ([]domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.Upstream("list tasks", err)
	}
	var tasks []domain.Task
	err := r.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(boltInfra.BucketTasks).ForEach(func(_, v []byte) error {
			var task domain.Task
			if err := json.Unmarshal(v, &task); err != nil {
				return err
			}
			if task.UserID == userID {
				tasks = append(tasks, task)
			}
			return nil
		})
	})
	if err != nil {
		return nil, wrap("list tasks", err)
	}
	return tasks, nil
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	if err := ctx.Err(); err != nil {
		return nil, domain.Upstream("create task", err)
	}
	created := *task
	if created.ID == "" {
		created.ID = uuid.NewString()
	}
	now := r.now().UTC()
	created.CreatedAt = now
	created.UpdatedAt = now

	err := r.db.Update(func(tx *bbolt.Tx) error {
		return putJSON(tx.Bucket(boltInfra.BucketTasks), created.ID, created)
	})
	if err != nil {
		return nil, wrap("create task", err)
	}
	return &created, nil
}

func (r *taskRepository) Update(ctx context.Context, id string, patch domain.TaskPatch) (*domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.Upstream("update task", err)
	}
	var task *domain.Task
	err := r.db.Update(func(tx *bbolt.Tx) error {
		var err error
		task, err = getTask(tx, id)
		if err != nil {
			return err
		}
		patch.Apply(task)
		task.UpdatedAt = r.now().UTC()
		return putJSON(tx.Bucket(boltInfra.BucketTasks), id, task)
	})
	if err != nil {
		return nil, wrap("update task", err)
	}
	return task, nil
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return domain.Upstream("delete task", err)
	}
	err := r.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(boltInfra.BucketTasks)
		if b.Get([]byte(id)) == nil {
			return domain.ErrTaskNotFound
		}
		return b.Delete([]byte(id))
	})
	return wrap("delete task", err)
}

func getTask(tx *bbolt.Tx, id string) (*domain.Task, error) {
	v := tx.Bucket(boltInfra.BucketTasks).Get([]byte(id))
	if v == nil {
		return nil, domain.ErrTaskNotFound
	}
	var task domain.Task
	if err := json.Unmarshal(v, &task); err != nil {
		return nil, err
	}
	return &task, nil
}
