package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPriorityRank(t *testing.T) {
	t.Parallel()

	assert.Greater(t, PriorityHigh.Rank(), PriorityMedium.Rank())
	assert.Greater(t, PriorityMedium.Rank(), PriorityLow.Rank())
	assert.Equal(t, 0, TaskPriority("urgent").Rank())
}

func TestTaskPatch(t *testing.T) {
	t.Parallel()

	due := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	task := Task{Title: "old", DueDate: &due}

	assert.True(t, TaskPatch{}.Empty())

	title := "new"
	TaskPatch{Title: &title}.Apply(&task)
	assert.Equal(t, "new", task.Title)
	assert.NotNil(t, task.DueDate)

	patch := TaskPatch{ClearDueDate: true}
	assert.False(t, patch.Empty())
	patch.Apply(&task)
	assert.Nil(t, task.DueDate)
}

func TestOwnedBy(t *testing.T) {
	t.Parallel()

	task := &Task{UserID: "alice"}
	assert.True(t, task.OwnedBy("alice"))
	assert.False(t, task.OwnedBy("bob"))
	assert.False(t, task.OwnedBy(""))

	var missing *Task
	assert.False(t, missing.OwnedBy("alice"))
}

func TestErrorMatching(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("handler: %w", ErrTaskNotFound)
	assert.ErrorIs(t, wrapped, ErrTaskNotFound)
	assert.NotErrorIs(t, wrapped, ErrUserNotFound)
	assert.True(t, IsDomainError(wrapped, ErrCodeNotFound))

	cause := errors.New("connection reset")
	up := Upstream("list tasks", cause)
	assert.ErrorIs(t, up, cause)
	assert.True(t, IsDomainError(up, ErrCodeUpstream))
	assert.Equal(t, "list tasks: connection reset", up.Error())
}

func TestNormalizeEmail(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ada@example.com", NormalizeEmail("  Ada@Example.COM "))
}
