// Package redis stores tasks and accounts as JSON documents. Secondary access
// is limited to equality indexes: one set of task ids per owner and one key
// per email.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"

	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/repository"
)

const defaultPrefix = "taskflow:"

type taskRepository struct {
	client *redislib.Client
	prefix string
	now    func() time.Time
}

// NewTaskRepository creates a Redis-backed task repository.
func NewTaskRepository(client *redislib.Client) repository.TaskRepository {
	return &taskRepository{
		client: client,
		prefix: defaultPrefix,
		now:    time.Now,
	}
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	return r.load(ctx, id)
}

func (r *taskRepository) ListByOwner(ctx context.Context, userID string) ([]domain.Task, error) {
	ids, err := r.client.SMembers(ctx, r.ownerKey(userID)).Result()
	if err != nil {
		return nil, domain.Upstream("list task ids", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.taskKey(id)
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, domain.Upstream("load tasks", err)
	}

	tasks := make([]domain.Task, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			// index entry outlived its document
			continue
		}
		var task domain.Task
		if err := json.Unmarshal([]byte(raw), &task); err != nil {
			return nil, domain.Upstream("decode task", err)
		}
		if task.UserID == userID {
			tasks = append(tasks, task)
		}
	}
	return tasks, nil
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	created := *task
	if created.ID == "" {
		created.ID = uuid.NewString()
	}
	now := r.now().UTC()
	created.CreatedAt = now
	created.UpdatedAt = now

	payload, err := json.Marshal(created)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "encode task", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redislib.Pipeliner) error {
		pipe.Set(ctx, r.taskKey(created.ID), payload, 0)
		pipe.SAdd(ctx, r.ownerKey(created.UserID), created.ID)
		return nil
	})
	if err != nil {
		return nil, domain.Upstream("create task", err)
	}
	return &created, nil
}

func (r *taskRepository) Update(ctx context.Context, id string, patch domain.TaskPatch) (*domain.Task, error) {
	task, err := r.load(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(task)
	task.UpdatedAt = r.now().UTC()

	payload, err := json.Marshal(task)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "encode task", err)
	}

	// XX keeps a concurrent delete from being undone by this write.
	ok, err := r.client.SetXX(ctx, r.taskKey(id), payload, redislib.KeepTTL).Result()
	if err != nil && !errors.Is(err, redislib.Nil) {
		return nil, domain.Upstream("update task", err)
	}
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return task, nil
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
	task, err := r.load(ctx, id)
	if err != nil {
		return err
	}

	var removed *redislib.IntCmd
	_, err = r.client.TxPipelined(ctx, func(pipe redislib.Pipeliner) error {
		removed = pipe.Del(ctx, r.taskKey(id))
		pipe.SRem(ctx, r.ownerKey(task.UserID), id)
		return nil
	})
	if err != nil {
		return domain.Upstream("delete task", err)
	}
	if removed.Val() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (r *taskRepository) load(ctx context.Context, id string) (*domain.Task, error) {
	raw, err := r.client.Get(ctx, r.taskKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, domain.Upstream("get task", err)
	}

	var task domain.Task
	if err := json.Unmarshal(raw, &task); err != nil {
		return nil, domain.Upstream("decode task", err)
	}
	return &task, nil
}

func (r *taskRepository) taskKey(id string) string {
	return fmt.Sprintf("%stask:%s", r.prefix, id)
}

func (r *taskRepository) ownerKey(userID string) string {
	return fmt.Sprintf("%suser:%s:tasks", r.prefix, userID)
}
