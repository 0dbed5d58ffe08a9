package transport

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/fastygo/taskflow/domain"
)

const dateLayout = "2006-01-02"

var validate = validator.New(validator.WithRequiredStructEnabled())

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type GoogleAuthRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

type ProfileUpdateRequest struct {
	Name   *string `json:"name" validate:"omitempty,max=50"`
	Bio    *string `json:"bio" validate:"omitempty,max=200"`
	Avatar *string `json:"avatar" validate:"omitempty,max=2048"`
}

type PasswordUpdateRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

type TaskCreateRequest struct {
	Title       string       `json:"title" validate:"required,max=100"`
	Description string       `json:"description" validate:"max=500"`
	Status      string       `json:"status" validate:"omitempty,oneof=pending in-progress completed"`
	Priority    string       `json:"priority" validate:"omitempty,oneof=low medium high"`
	DueDate     OptionalDate `json:"dueDate"`
}

// TaskUpdateRequest is a partial update; absent fields are left unchanged.
type TaskUpdateRequest struct {
	Title       *string      `json:"title" validate:"omitempty,max=100"`
	Description *string      `json:"description" validate:"omitempty,max=500"`
	Status      *string      `json:"status" validate:"omitempty,oneof=pending in-progress completed"`
	Priority    *string      `json:"priority" validate:"omitempty,oneof=low medium high"`
	DueDate     OptionalDate `json:"dueDate"`
}

// OptionalDate distinguishes an absent field, an explicit null and a date.
// Accepted forms are YYYY-MM-DD and RFC 3339.
type OptionalDate struct {
	Set   bool
	Value *time.Time
}

func (d *OptionalDate) UnmarshalJSON(data []byte) error {
	d.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		d.Value = nil
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		d.Value = nil
		return nil
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		return err
	}
	d.Value = &parsed
	return nil
}

// ParseDate accepts a calendar date or a full RFC 3339 timestamp.
func ParseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}

// Decode unmarshals body into dst and runs its validation tags.
func Decode(body []byte, dst interface{}) error {
	if len(bytes.TrimSpace(body)) == 0 {
		body = []byte("{}")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return domain.WrapError(domain.ErrCodeInvalid, "invalid payload", err)
	}
	if err := validate.Struct(dst); err != nil {
		return fieldErrors(err)
	}
	return nil
}

func (r TaskCreateRequest) Task() *domain.Task {
	return &domain.Task{
		Title:       r.Title,
		Description: r.Description,
		Status:      domain.TaskStatus(r.Status),
		Priority:    domain.TaskPriority(r.Priority),
		DueDate:     r.DueDate.Value,
	}
}

func (r TaskUpdateRequest) Patch() domain.TaskPatch {
	patch := domain.TaskPatch{
		Title:       r.Title,
		Description: r.Description,
	}
	if r.Status != nil {
		s := domain.TaskStatus(*r.Status)
		patch.Status = &s
	}
	if r.Priority != nil {
		p := domain.TaskPriority(*r.Priority)
		patch.Priority = &p
	}
	if r.DueDate.Set {
		if r.DueDate.Value == nil {
			patch.ClearDueDate = true
		} else {
			patch.DueDate = r.DueDate.Value
		}
	}
	return patch
}

func (r ProfileUpdateRequest) Patch() domain.UserPatch {
	return domain.UserPatch{
		Name:   r.Name,
		Bio:    r.Bio,
		Avatar: r.Avatar,
	}
}

func fieldErrors(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.WrapError(domain.ErrCodeInvalid, "invalid payload", err)
	}
	fields := make([]domain.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, domain.FieldError{
			Field:   jsonName(fe.Field()),
			Message: message(fe),
		})
	}
	return domain.Invalid("validation failed", fields...)
}

func jsonName(field string) string {
	if field == "" {
		return field
	}
	switch field {
	case "IDToken":
		return "idToken"
	}
	return strings.ToLower(field[:1]) + field[1:]
}

func message(fe validator.FieldError) string {
	name := jsonName(fe.Field())
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "email":
		return "please provide a valid email"
	case "min":
		return name + " must be at least " + fe.Param() + " characters"
	case "max":
		return name + " cannot be more than " + fe.Param() + " characters"
	case "oneof":
		return name + " must be one of: " + fe.Param()
	}
	return name + " is invalid"
}
