package task

import "github.com/fastygo/taskflow/domain"

type StatusCounts struct {
	Pending    int `json:"pending"`
	InProgress int `json:"in-progress"`
	Completed  int `json:"completed"`
}

type PriorityCounts struct {
	Low    int `json:"low"`
	Medium int `json:"medium"`
	High   int `json:"high"`
}

// Stats summarizes all of an owner's tasks.
type Stats struct {
	Total      int            `json:"total"`
	ByStatus   StatusCounts   `json:"byStatus"`
	ByPriority PriorityCounts `json:"byPriority"`
}

// Aggregate folds once over tasks. Values outside the known enumerations count
// toward Total only.
func Aggregate(tasks []domain.Task) Stats {
	var s Stats
	for _, t := range tasks {
		s.Total++

		switch t.Status {
		case domain.StatusPending:
			s.ByStatus.Pending++
		case domain.StatusInProgress:
			s.ByStatus.InProgress++
		case domain.StatusCompleted:
			s.ByStatus.Completed++
		}

		switch t.Priority {
		case domain.PriorityLow:
			s.ByPriority.Low++
		case domain.PriorityMedium:
			s.ByPriority.Medium++
		case domain.PriorityHigh:
			s.ByPriority.High++
		}
	}
	return s
}
