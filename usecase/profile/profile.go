package profile

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/internal/security/password"
	"github.com/fastygo/taskflow/repository"
)

// SessionIssuer signs a new session after a credential change.
type SessionIssuer interface {
	Issue(user *domain.User) (*domain.Session, error)
}

var ErrWrongPassword = domain.NewError(domain.ErrCodeUnauthorized, "current password is incorrect")

type UseCase struct {
	users    repository.UserRepository
	sessions SessionIssuer
	logger   *zap.Logger
}

func New(users repository.UserRepository, sessions SessionIssuer, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:    users,
		sessions: sessions,
		logger:   logger,
	}
}

func (uc *UseCase) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	return uc.users.GetByID(ctx, userID)
}

// UpdateProfile changes name, bio and avatar. Credentials are not touched here.
func (uc *UseCase) UpdateProfile(ctx context.Context, userID string, patch domain.UserPatch) (*domain.User, error) {
	patch.PasswordHash = nil

	var fields []domain.FieldError
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		patch.Name = &name
		if utf8.RuneCountInString(name) > domain.MaxNameLength {
			fields = append(fields, domain.FieldError{Field: "name", Message: "name cannot be more than 50 characters"})
		}
	}
	if patch.Bio != nil {
		bio := strings.TrimSpace(*patch.Bio)
		patch.Bio = &bio
		if utf8.RuneCountInString(bio) > domain.MaxBioLength {
			fields = append(fields, domain.FieldError{Field: "bio", Message: "bio cannot be more than 200 characters"})
		}
	}
	if len(fields) > 0 {
		return nil, domain.Invalid("invalid profile", fields...)
	}

	user, err := uc.users.Update(ctx, userID, patch)
	if err != nil {
		uc.logFailure("update profile", err)
		return nil, err
	}
	return user, nil
}

// ChangePassword replaces the password hash and returns a fresh session.
// Earlier assertions stay valid until they expire.
func (uc *UseCase) ChangePassword(ctx context.Context, userID, current, next string) (*domain.Session, error) {
	if current == "" || len(next) < domain.MinPasswordLength {
		return nil, domain.Invalid("invalid password change",
			domain.FieldError{Field: "newPassword", Message: "new password must be at least 6 characters"})
	}

	user, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		uc.logFailure("load account", err)
		return nil, err
	}
	if !user.HasPassword() || !password.Matches(user.PasswordHash, current) {
		return nil, ErrWrongPassword
	}

	hash, err := password.Hash(next)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "hash password", err)
	}
	updated, err := uc.users.Update(ctx, userID, domain.UserPatch{PasswordHash: &hash})
	if err != nil {
		uc.logFailure("update password", err)
		return nil, err
	}
	return uc.sessions.Issue(updated)
}

func (uc *UseCase) logFailure(op string, err error) {
	if errors.Is(err, domain.ErrUserNotFound) {
		return
	}
	uc.logger.Error("profile operation failed", zap.String("operation", op), zap.Error(err))
}
