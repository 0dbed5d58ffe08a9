package task

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fastygo/taskflow/domain"
)

func TestAggregate(t *testing.T) {
	t.Parallel()

	tasks := []domain.Task{
		{Status: domain.StatusPending, Priority: domain.PriorityHigh},
		{Status: domain.StatusPending, Priority: domain.PriorityLow},
		{Status: domain.StatusInProgress, Priority: domain.PriorityMedium},
		{Status: domain.StatusCompleted, Priority: domain.PriorityHigh},
	}

	s := Aggregate(tasks)

	assert.Equal(t, 4, s.Total)
	assert.Equal(t, StatusCounts{Pending: 2, InProgress: 1, Completed: 1}, s.ByStatus)
	assert.Equal(t, PriorityCounts{Low: 1, Medium: 1, High: 2}, s.ByPriority)
}

func TestAggregate_UnknownValuesCountOnlyTowardTotal(t *testing.T) {
	t.Parallel()

	s := Aggregate([]domain.Task{{Status: "archived", Priority: "urgent"}})

	assert.Equal(t, 1, s.Total)
	assert.Equal(t, StatusCounts{}, s.ByStatus)
	assert.Equal(t, PriorityCounts{}, s.ByPriority)
}

func TestAggregate_Empty(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Stats{}, Aggregate(nil))
}
