// Package repotest holds behaviour checks shared by every store driver.
package repotest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/repository"
)

// TaskRepository exercises repo against the TaskRepository contract. newRepo
// must return an empty store on every call.
func TaskRepository(t *testing.T, newRepo func(t *testing.T) repository.TaskRepository) {
	t.Run("create assigns id and timestamps", func(t *testing.T) {
		repo := newRepo(t)
		due := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

		created, err := repo.Create(context.Background(), &domain.Task{
			UserID:   "alice",
			Title:    "Write tests",
			Status:   domain.StatusPending,
			Priority: domain.PriorityHigh,
			DueDate:  &due,
		})
		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)
		assert.False(t, created.CreatedAt.IsZero())
		assert.Equal(t, created.CreatedAt, created.UpdatedAt)

		got, err := repo.GetByID(context.Background(), created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Write tests", got.Title)
		assert.Equal(t, "alice", got.UserID)
		assert.Equal(t, domain.PriorityHigh, got.Priority)
		require.NotNil(t, got.DueDate)
		assert.True(t, due.Equal(*got.DueDate))
	})

	t.Run("missing task", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.GetByID(ctx, "00000000-0000-0000-0000-000000000000")
		assert.ErrorIs(t, err, domain.ErrTaskNotFound)

		_, err = repo.Update(ctx, "00000000-0000-0000-0000-000000000000", domain.TaskPatch{ClearDueDate: true})
		assert.ErrorIs(t, err, domain.ErrTaskNotFound)

		assert.ErrorIs(t, repo.Delete(ctx, "00000000-0000-0000-0000-000000000000"), domain.ErrTaskNotFound)
	})

	t.Run("update applies patch", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		due := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

		created, err := repo.Create(ctx, &domain.Task{UserID: "alice", Title: "Old", Description: "keep", Status: domain.StatusPending, Priority: domain.PriorityLow, DueDate: &due})
		require.NoError(t, err)

		title := "New"
		status := domain.StatusInProgress
		updated, err := repo.Update(ctx, created.ID, domain.TaskPatch{Title: &title, Status: &status, ClearDueDate: true})
		require.NoError(t, err)
		assert.Equal(t, "New", updated.Title)
		assert.Equal(t, "keep", updated.Description)
		assert.Equal(t, domain.StatusInProgress, updated.Status)
		assert.Equal(t, domain.PriorityLow, updated.Priority)
		assert.Nil(t, updated.DueDate)
		assert.Equal(t, created.UserID, updated.UserID)
		assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))
	})

	t.Run("list by owner and delete", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		var aliceIDs []string
		for _, title := range []string{"a1", "a2"} {
			task, err := repo.Create(ctx, &domain.Task{UserID: "alice", Title: title, Status: domain.StatusPending, Priority: domain.PriorityMedium})
			require.NoError(t, err)
			aliceIDs = append(aliceIDs, task.ID)
		}
		_, err := repo.Create(ctx, &domain.Task{UserID: "bob", Title: "b1", Status: domain.StatusPending, Priority: domain.PriorityMedium})
		require.NoError(t, err)

		tasks, err := repo.ListByOwner(ctx, "alice")
		require.NoError(t, err)
		assert.Len(t, tasks, 2)
		for _, task := range tasks {
			assert.Equal(t, "alice", task.UserID)
		}

		require.NoError(t, repo.Delete(ctx, aliceIDs[0]))
		tasks, err = repo.ListByOwner(ctx, "alice")
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.Equal(t, aliceIDs[1], tasks[0].ID)

		none, err := repo.ListByOwner(ctx, "carol")
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("cancelled context", func(t *testing.T) {
		repo := newRepo(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := repo.ListByOwner(ctx, "alice")
		assert.True(t, domain.IsDomainError(err, domain.ErrCodeUpstream))
	})
}

// UserRepository exercises repo against the UserRepository contract.
func UserRepository(t *testing.T, newRepo func(t *testing.T) repository.UserRepository) {
	t.Run("create and look up", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Create(ctx, &domain.User{Email: " Ada@Example.com", Name: "Ada", PasswordHash: "hash"})
		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)
		assert.Equal(t, "ada@example.com", created.Email)

		byID, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "hash", byID.PasswordHash)

		byEmail, err := repo.GetByEmail(ctx, "ADA@example.com")
		require.NoError(t, err)
		assert.Equal(t, created.ID, byEmail.ID)
	})

	t.Run("email is unique", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.Create(ctx, &domain.User{Email: "ada@example.com", Name: "Ada"})
		require.NoError(t, err)
		_, err = repo.Create(ctx, &domain.User{Email: "ada@example.com", Name: "Impostor"})
		assert.ErrorIs(t, err, domain.ErrEmailTaken)
	})

	t.Run("missing user", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.GetByID(ctx, "00000000-0000-0000-0000-000000000000")
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
		_, err = repo.GetByEmail(ctx, "ghost@example.com")
		assert.ErrorIs(t, err, domain.ErrUserNotFound)

		name := "x"
		_, err = repo.Update(ctx, "00000000-0000-0000-0000-000000000000", domain.UserPatch{Name: &name})
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})

	t.Run("update keeps credentials", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Create(ctx, &domain.User{Email: "g@example.com", Name: "G", GoogleID: "g-1", PasswordHash: "h1"})
		require.NoError(t, err)

		bio := "hello"
		updated, err := repo.Update(ctx, created.ID, domain.UserPatch{Bio: &bio})
		require.NoError(t, err)
		assert.Equal(t, "hello", updated.Bio)
		assert.Equal(t, "G", updated.Name)
		assert.Equal(t, "h1", updated.PasswordHash)
		assert.Equal(t, "g-1", updated.GoogleID)

		hash := "h2"
		_, err = repo.Update(ctx, created.ID, domain.UserPatch{PasswordHash: &hash})
		require.NoError(t, err)
		got, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "h2", got.PasswordHash)
	})
}
