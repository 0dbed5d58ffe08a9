package task

import (
	"sort"
	"strings"
	"time"

	"github.com/fastygo/taskflow/domain"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100

	SortCreatedAt   = "createdAt"
	SortUpdatedAt   = "updatedAt"
	SortDueDate     = "dueDate"
	SortTitle       = "title"
	SortDescription = "description"
	SortStatus      = "status"
	SortPriority    = "priority"

	OrderAsc  = "asc"
	OrderDesc = "desc"

	filterAll = "all"
)

// ListQuery is the caller's filter, sort and page selection. Zero values mean
// "no filter" or the documented default.
type ListQuery struct {
	Status   string
	Priority string
	Search   string
	SortBy   string
	Order    string
	Page     int
	Limit    int
}

// Page is one slice of an owner's filtered and sorted tasks.
type Page struct {
	Tasks       []domain.Task `json:"tasks"`
	Count       int           `json:"count"`
	Total       int           `json:"total"`
	TotalPages  int           `json:"totalPages"`
	CurrentPage int           `json:"currentPage"`
}

// Normalize resolves defaults and clamps paging bounds.
func (q ListQuery) Normalize() ListQuery {
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.Limit < 1 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	if !knownSortKey(q.SortBy) {
		q.SortBy = SortCreatedAt
	}
	if q.Order != OrderAsc {
		q.Order = OrderDesc
	}
	q.Search = strings.TrimSpace(q.Search)
	return q
}

// Run filters, sorts and paginates tasks in memory. The input slice is not modified.
//
// Filters are independent predicates and all must hold. Sorting uses a single
// key; tasks with equal keys come out in no particular order.
func Run(tasks []domain.Task, q ListQuery) Page {
	q = q.Normalize()

	matched := make([]domain.Task, 0, len(tasks))
	for _, t := range tasks {
		if matches(t, q) {
			matched = append(matched, t)
		}
	}

	cmp := comparator(q.SortBy)
	if q.Order == OrderAsc {
		sort.Slice(matched, func(i, j int) bool { return cmp(matched[i], matched[j]) < 0 })
	} else {
		sort.Slice(matched, func(i, j int) bool { return cmp(matched[i], matched[j]) > 0 })
	}

	total := len(matched)
	totalPages := (total + q.Limit - 1) / q.Limit
	start, end := total, total
	// page is unbounded input; multiply only once it is known to be in range
	if q.Page <= totalPages {
		start = (q.Page - 1) * q.Limit
		end = min(start+q.Limit, total)
	}

	items := make([]domain.Task, end-start)
	copy(items, matched[start:end])

	return Page{
		Tasks:       items,
		Count:       len(items),
		Total:       total,
		TotalPages:  totalPages,
		CurrentPage: q.Page,
	}
}

func matches(t domain.Task, q ListQuery) bool {
	if q.Status != "" && q.Status != filterAll && string(t.Status) != q.Status {
		return false
	}
	if q.Priority != "" && q.Priority != filterAll && string(t.Priority) != q.Priority {
		return false
	}
	if q.Search != "" {
		needle := strings.ToLower(q.Search)
		if !strings.Contains(strings.ToLower(t.Title), needle) &&
			!strings.Contains(strings.ToLower(t.Description), needle) {
			return false
		}
	}
	return true
}

func knownSortKey(key string) bool {
	switch key {
	case SortCreatedAt, SortUpdatedAt, SortDueDate, SortTitle, SortDescription, SortStatus, SortPriority:
		return true
	}
	return false
}

// comparator returns a three-way comparison on the chosen key.
func comparator(key string) func(a, b domain.Task) int {
	switch key {
	case SortPriority:
		return func(a, b domain.Task) int { return compareInt(a.Priority.Rank(), b.Priority.Rank()) }
	case SortTitle:
		return func(a, b domain.Task) int { return strings.Compare(a.Title, b.Title) }
	case SortDescription:
		return func(a, b domain.Task) int { return strings.Compare(a.Description, b.Description) }
	case SortStatus:
		return func(a, b domain.Task) int { return strings.Compare(string(a.Status), string(b.Status)) }
	case SortUpdatedAt:
		return func(a, b domain.Task) int { return a.UpdatedAt.Compare(b.UpdatedAt) }
	case SortDueDate:
		return func(a, b domain.Task) int { return compareDue(a.DueDate, b.DueDate) }
	default:
		return func(a, b domain.Task) int { return a.CreatedAt.Compare(b.CreatedAt) }
	}
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// compareDue orders undated tasks before dated ones.
func compareDue(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return a.Compare(*b)
}
