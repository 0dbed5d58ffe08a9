package profile

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/internal/security/password"
	"github.com/fastygo/taskflow/repository"
	"github.com/fastygo/taskflow/repository/memory"
)

type stubIssuer struct{}

func (stubIssuer) Issue(user *domain.User) (*domain.Session, error) {
	return &domain.Session{Token: "fresh-" + user.ID, ExpiresAt: time.Now().Add(time.Hour), User: user}, nil
}

func seedUser(t *testing.T, users repository.UserRepository) *domain.User {
	t.Helper()
	hash, err := password.Hash("hunter22")
	require.NoError(t, err)
	user, err := users.Create(context.Background(), &domain.User{Email: "ada@example.com", Name: "Ada", PasswordHash: hash})
	require.NoError(t, err)
	return user
}

func strPtr(s string) *string { return &s }

func TestUpdateProfile(t *testing.T) {
	users := memory.New().Users()
	user := seedUser(t, users)
	uc := New(users, stubIssuer{}, nil)

	updated, err := uc.UpdateProfile(context.Background(), user.ID, domain.UserPatch{
		Name:         strPtr("  Ada L. "),
		Bio:          strPtr("mathematician"),
		PasswordHash: strPtr("sneaky"),
	})
	require.NoError(t, err)

	assert.Equal(t, "Ada L.", updated.Name)
	assert.Equal(t, "mathematician", updated.Bio)
	assert.Equal(t, user.PasswordHash, updated.PasswordHash)
	assert.Equal(t, user.Email, updated.Email)
}

func TestUpdateProfile_Validation(t *testing.T) {
	users := memory.New().Users()
	user := seedUser(t, users)
	uc := New(users, stubIssuer{}, nil)

	_, err := uc.UpdateProfile(context.Background(), user.ID, domain.UserPatch{Name: strPtr(strings.Repeat("n", 51))})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	_, err = uc.UpdateProfile(context.Background(), user.ID, domain.UserPatch{Bio: strPtr(strings.Repeat("b", 201))})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
}

func TestUpdateProfile_UnknownAccount(t *testing.T) {
	uc := New(memory.New().Users(), stubIssuer{}, nil)

	_, err := uc.UpdateProfile(context.Background(), "ghost", domain.UserPatch{Name: strPtr("x")})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestChangePassword(t *testing.T) {
	users := memory.New().Users()
	user := seedUser(t, users)
	uc := New(users, stubIssuer{}, nil)
	ctx := context.Background()

	_, err := uc.ChangePassword(ctx, user.ID, "wrong", "newpass1")
	assert.ErrorIs(t, err, ErrWrongPassword)

	_, err = uc.ChangePassword(ctx, user.ID, "hunter22", "short")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	session, err := uc.ChangePassword(ctx, user.ID, "hunter22", "newpass1")
	require.NoError(t, err)
	assert.Equal(t, "fresh-"+user.ID, session.Token)

	stored, err := users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, password.Matches(stored.PasswordHash, "newpass1"))
	assert.False(t, password.Matches(stored.PasswordHash, "hunter22"))
}

func TestChangePassword_ExternalAccount(t *testing.T) {
	users := memory.New().Users()
	user, err := users.Create(context.Background(), &domain.User{Email: "g@example.com", Name: "G", GoogleID: "g-1"})
	require.NoError(t, err)
	uc := New(users, stubIssuer{}, nil)

	_, err = uc.ChangePassword(context.Background(), user.ID, "anything", "newpass1")
	assert.ErrorIs(t, err, ErrWrongPassword)
}
