package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/repository"
	"github.com/fastygo/taskflow/repository/repotest"
)

func newServer(t *testing.T) (*miniredis.Miniredis, *redislib.Client) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redislib.NewClient(&redislib.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return srv, client
}

func TestTaskRepository(t *testing.T) {
	repotest.TaskRepository(t, func(t *testing.T) repository.TaskRepository {
		_, client := newServer(t)
		return NewTaskRepository(client)
	})
}

func TestUserRepository(t *testing.T) {
	repotest.UserRepository(t, func(t *testing.T) repository.UserRepository {
		_, client := newServer(t)
		return NewUserRepository(client)
	})
}

// dropAfterRead deletes key on the server right after the client reads it,
// standing in for a concurrent delete between load and write.
type dropAfterRead struct {
	srv *miniredis.Miniredis
	key string
}

func (h dropAfterRead) DialHook(next redislib.DialHook) redislib.DialHook { return next }

func (h dropAfterRead) ProcessPipelineHook(next redislib.ProcessPipelineHook) redislib.ProcessPipelineHook {
	return next
}

func (h dropAfterRead) ProcessHook(next redislib.ProcessHook) redislib.ProcessHook {
	return func(ctx context.Context, cmd redislib.Cmder) error {
		err := next(ctx, cmd)
		if args := cmd.Args(); cmd.Name() == "get" && len(args) > 1 && args[1] == h.key {
			h.srv.Del(h.key)
		}
		return err
	}
}

func TestTaskRepository_SkipsStaleIndexEntries(t *testing.T) {
	_, client := newServer(t)
	repo := NewTaskRepository(client).(*taskRepository)
	ctx := context.Background()

	kept, err := repo.Create(ctx, &domain.Task{UserID: "alice", Title: "kept"})
	require.NoError(t, err)
	gone, err := repo.Create(ctx, &domain.Task{UserID: "alice", Title: "gone"})
	require.NoError(t, err)

	require.NoError(t, client.Del(ctx, repo.taskKey(gone.ID)).Err())
	indexed, err := client.SIsMember(ctx, repo.ownerKey("alice"), gone.ID).Result()
	require.NoError(t, err)
	require.True(t, indexed)

	tasks, err := repo.ListByOwner(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, kept.ID, tasks[0].ID)

	assert.ErrorIs(t, repo.Delete(ctx, gone.ID), domain.ErrTaskNotFound)
}

func TestTaskRepository_ListIgnoresForeignIndexEntries(t *testing.T) {
	_, client := newServer(t)
	repo := NewTaskRepository(client).(*taskRepository)
	ctx := context.Background()

	bobs, err := repo.Create(ctx, &domain.Task{UserID: "bob", Title: "bob's"})
	require.NoError(t, err)
	require.NoError(t, client.SAdd(ctx, repo.ownerKey("alice"), bobs.ID).Err())

	tasks, err := repo.ListByOwner(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestTaskRepository_DeleteRemovesIndexEntry(t *testing.T) {
	srv, client := newServer(t)
	repo := NewTaskRepository(client).(*taskRepository)
	ctx := context.Background()

	task, err := repo.Create(ctx, &domain.Task{UserID: "alice", Title: "t"})
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx, task.ID))

	assert.False(t, srv.Exists(repo.taskKey(task.ID)))
	members, err := client.SMembers(ctx, repo.ownerKey("alice")).Result()
	require.NoError(t, err)
	assert.NotContains(t, members, task.ID)
}

func TestTaskRepository_UpdateDoesNotResurrectDeletedTask(t *testing.T) {
	srv, client := newServer(t)
	repo := NewTaskRepository(client).(*taskRepository)
	ctx := context.Background()

	task, err := repo.Create(ctx, &domain.Task{UserID: "alice", Title: "t"})
	require.NoError(t, err)
	client.AddHook(dropAfterRead{srv: srv, key: repo.taskKey(task.ID)})

	title := "renamed"
	_, err = repo.Update(ctx, task.ID, domain.TaskPatch{Title: &title})
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
	assert.False(t, srv.Exists(repo.taskKey(task.ID)))
}

func TestTaskRepository_DeleteRacingDeleteIsNotFound(t *testing.T) {
	srv, client := newServer(t)
	repo := NewTaskRepository(client).(*taskRepository)
	ctx := context.Background()

	task, err := repo.Create(ctx, &domain.Task{UserID: "alice", Title: "t"})
	require.NoError(t, err)
	client.AddHook(dropAfterRead{srv: srv, key: repo.taskKey(task.ID)})

	assert.ErrorIs(t, repo.Delete(ctx, task.ID), domain.ErrTaskNotFound)
}

func TestTaskRepository_ServerDownIsUpstream(t *testing.T) {
	srv, client := newServer(t)
	repo := NewTaskRepository(client)
	srv.Close()

	_, err := repo.ListByOwner(context.Background(), "alice")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeUpstream))
}

func TestUserRepository_EmailReservation(t *testing.T) {
	srv, client := newServer(t)
	repo := NewUserRepository(client).(*userRepository)
	ctx := context.Background()

	created, err := repo.Create(ctx, &domain.User{Email: "Ada@Example.com", Name: "Ada"})
	require.NoError(t, err)

	owner, err := srv.Get(repo.emailKey("ada@example.com"))
	require.NoError(t, err)
	assert.Equal(t, created.ID, owner)

	_, err = repo.Create(ctx, &domain.User{Email: "ADA@example.com", Name: "Impostor"})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)

	keys := srv.Keys()
	assert.Len(t, keys, 2, "only the first account and its email key exist: %v", keys)
}

func TestUserRepository_DanglingEmailKeyIsNotFound(t *testing.T) {
	srv, client := newServer(t)
	repo := NewUserRepository(client).(*userRepository)

	require.NoError(t, srv.Set(repo.emailKey("ghost@example.com"), "missing-id"))

	_, err := repo.GetByEmail(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
