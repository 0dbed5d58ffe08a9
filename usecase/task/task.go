package task

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/pkg/logger"
	"github.com/fastygo/taskflow/repository"
)

type UseCase struct {
	tasks  repository.TaskRepository
	logger *zap.Logger
}

func New(tasks repository.TaskRepository, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		tasks:  tasks,
		logger: logger,
	}
}

// ListTasks returns one page of the owner's tasks matching q.
func (uc *UseCase) ListTasks(ctx context.Context, userID string, q ListQuery) (*Page, error) {
	tasks, err := uc.tasks.ListByOwner(ctx, userID)
	if err != nil {
		return nil, uc.upstream(ctx, "list tasks", err)
	}
	page := Run(tasks, q)
	return &page, nil
}

// Stats counts the owner's tasks by status and by priority.
func (uc *UseCase) Stats(ctx context.Context, userID string) (*Stats, error) {
	tasks, err := uc.tasks.ListByOwner(ctx, userID)
	if err != nil {
		return nil, uc.upstream(ctx, "task stats", err)
	}
	stats := Aggregate(tasks)
	return &stats, nil
}

// GetTask returns the task only when userID owns it. A foreign task is reported
// exactly like a missing one.
func (uc *UseCase) GetTask(ctx context.Context, userID, id string) (*domain.Task, error) {
	if id == "" {
		return nil, domain.ErrTaskNotFound
	}
	task, err := uc.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, uc.upstream(ctx, "get task", err)
	}
	if !task.OwnedBy(userID) {
		return nil, domain.ErrTaskNotFound
	}
	return task, nil
}

func (uc *UseCase) CreateTask(ctx context.Context, userID string, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	candidate := *task
	candidate.ID = ""
	candidate.UserID = userID
	candidate.Title = strings.TrimSpace(candidate.Title)
	candidate.ApplyDefaults()

	if err := validateTask(&candidate); err != nil {
		return nil, err
	}

	created, err := uc.tasks.Create(ctx, &candidate)
	if err != nil {
		return nil, uc.upstream(ctx, "create task", err)
	}
	return created, nil
}

// UpdateTask applies patch after confirming ownership. The check and the write
// are separate store calls; a delete landing between them surfaces as not found.
func (uc *UseCase) UpdateTask(ctx context.Context, userID, id string, patch domain.TaskPatch) (*domain.Task, error) {
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		patch.Title = &title
	}
	if err := validatePatch(patch); err != nil {
		return nil, err
	}

	current, err := uc.GetTask(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		return current, nil
	}

	updated, err := uc.tasks.Update(ctx, id, patch)
	if err != nil {
		return nil, uc.upstream(ctx, "update task", err)
	}
	return updated, nil
}

func (uc *UseCase) DeleteTask(ctx context.Context, userID, id string) error {
	if _, err := uc.GetTask(ctx, userID, id); err != nil {
		return err
	}
	if err := uc.tasks.Delete(ctx, id); err != nil {
		return uc.upstream(ctx, "delete task", err)
	}
	return nil
}

// upstream logs store failures; classified domain errors pass through untouched.
func (uc *UseCase) upstream(ctx context.Context, op string, err error) error {
	var dErr *domain.Error
	if errors.As(err, &dErr) && dErr.Code != domain.ErrCodeUpstream {
		return err
	}
	logger.WithRequestID(ctx, uc.logger).Error("task store failure", zap.String("operation", op), zap.Error(err))
	if dErr != nil {
		return err
	}
	return domain.Upstream(op, err)
}

func validateTask(t *domain.Task) error {
	var fields []domain.FieldError
	fields = appendTitleErrors(fields, t.Title)
	fields = appendDescriptionErrors(fields, t.Description)
	if !t.Status.Valid() {
		fields = append(fields, domain.FieldError{Field: "status", Message: "status must be pending, in-progress or completed"})
	}
	if !t.Priority.Valid() {
		fields = append(fields, domain.FieldError{Field: "priority", Message: "priority must be low, medium or high"})
	}
	if len(fields) > 0 {
		return domain.Invalid("invalid task", fields...)
	}
	return nil
}

func validatePatch(p domain.TaskPatch) error {
	var fields []domain.FieldError
	if p.Title != nil {
		fields = appendTitleErrors(fields, *p.Title)
	}
	if p.Description != nil {
		fields = appendDescriptionErrors(fields, *p.Description)
	}
	if p.Status != nil && !p.Status.Valid() {
		fields = append(fields, domain.FieldError{Field: "status", Message: "status must be pending, in-progress or completed"})
	}
	if p.Priority != nil && !p.Priority.Valid() {
		fields = append(fields, domain.FieldError{Field: "priority", Message: "priority must be low, medium or high"})
	}
	if len(fields) > 0 {
		return domain.Invalid("invalid task", fields...)
	}
	return nil
}

func appendTitleErrors(fields []domain.FieldError, title string) []domain.FieldError {
	switch {
	case title == "":
		return append(fields, domain.FieldError{Field: "title", Message: "title is required"})
	case utf8.RuneCountInString(title) > domain.MaxTitleLength:
		return append(fields, domain.FieldError{Field: "title", Message: "title cannot be more than 100 characters"})
	}
	return fields
}

func appendDescriptionErrors(fields []domain.FieldError, description string) []domain.FieldError {
	if utf8.RuneCountInString(description) > domain.MaxDescriptionLength {
		return append(fields, domain.FieldError{Field: "description", Message: "description cannot be more than 500 characters"})
	}
	return fields
}
