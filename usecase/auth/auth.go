package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/internal/security/password"
	"github.com/fastygo/taskflow/pkg/logger"
	"github.com/fastygo/taskflow/repository"
)

// Tokens issues and verifies identity assertions.
type Tokens interface {
	Issue(accountID string) (string, time.Time, error)
	Verify(raw string) (string, error)
}

// ExternalIdentity is what an external identity provider vouches for.
type ExternalIdentity struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

// IdentityVerifier validates a provider-issued ID token.
type IdentityVerifier interface {
	Verify(ctx context.Context, idToken string) (*ExternalIdentity, error)
}

var (
	ErrExternalDisabled = domain.NewError(domain.ErrCodeNotFound, "external sign-in is not enabled")
	ErrExternalToken    = domain.NewError(domain.ErrCodeUnauthorized, "invalid google token")
)

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

type UseCase struct {
	users    repository.UserRepository
	tokens   Tokens
	external IdentityVerifier
	logger   *zap.Logger
}

// New wires the auth use case. external may be nil when no provider is configured.
func New(users repository.UserRepository, tokens Tokens, external IdentityVerifier, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:    users,
		tokens:   tokens,
		external: external,
		logger:   logger,
	}
}

// Register creates a password account. Uniqueness is a lookup followed by a
// create, so two concurrent registrations for one email can both pass the lookup.
func (uc *UseCase) Register(ctx context.Context, in RegisterInput) (*domain.Session, error) {
	email := domain.NormalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)
	if email == "" || name == "" || len(in.Password) < domain.MinPasswordLength {
		return nil, domain.ErrInvalidPayload
	}

	if _, err := uc.users.GetByEmail(ctx, email); err == nil {
		return nil, domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, uc.upstream(ctx, "lookup email", err)
	}

	hash, err := password.Hash(in.Password)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "hash password", err)
	}

	user, err := uc.users.Create(ctx, &domain.User{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, uc.upstream(ctx, "create user", err)
	}

	uc.logger.Info("account registered", zap.String("user_id", user.ID))
	return uc.issue(user)
}

// Login checks a password credential. Unknown email and wrong password are
// indistinguishable to the caller.
func (uc *UseCase) Login(ctx context.Context, email, plain string) (*domain.Session, error) {
	user, err := uc.users.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, uc.upstream(ctx, "lookup email", err)
	}
	if !password.Matches(user.PasswordHash, plain) {
		return nil, domain.ErrInvalidCredentials
	}
	return uc.issue(user)
}

// ExternalSignIn exchanges a provider ID token for a session, creating the
// account on first use. Such accounts carry no password hash.
func (uc *UseCase) ExternalSignIn(ctx context.Context, idToken string) (*domain.Session, error) {
	if uc.external == nil {
		return nil, ErrExternalDisabled
	}
	if strings.TrimSpace(idToken) == "" {
		return nil, domain.Invalid("ID token is required", domain.FieldError{Field: "idToken", Message: "ID token is required"})
	}

	identity, err := uc.external.Verify(ctx, idToken)
	if err != nil {
		logger.WithRequestID(ctx, uc.logger).Warn("external token rejected", zap.Error(err))
		return nil, ErrExternalToken
	}
	email := domain.NormalizeEmail(identity.Email)
	if email == "" {
		return nil, ErrExternalToken
	}

	user, err := uc.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrUserNotFound):
		name := strings.TrimSpace(identity.Name)
		if name == "" {
			name = strings.SplitN(email, "@", 2)[0]
		}
		user, err = uc.users.Create(ctx, &domain.User{
			Email:    email,
			Name:     name,
			Avatar:   identity.Picture,
			GoogleID: identity.Subject,
		})
		if err != nil {
			return nil, uc.upstream(ctx, "create user", err)
		}
		uc.logger.Info("account created from external identity", zap.String("user_id", user.ID))
	default:
		return nil, uc.upstream(ctx, "lookup email", err)
	}

	return uc.issue(user)
}

// Authenticate resolves a raw assertion to its account. Every failure other
// than a store outage is reported as the same unauthorized error, including a
// valid assertion whose account no longer exists.
func (uc *UseCase) Authenticate(ctx context.Context, raw string) (*domain.User, error) {
	accountID, err := uc.tokens.Verify(raw)
	if err != nil {
		logger.WithRequestID(ctx, uc.logger).Debug("assertion rejected", zap.Error(err))
		return nil, domain.ErrUnauthorized
	}

	user, err := uc.users.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, uc.upstream(ctx, "resolve account", err)
	}
	return user, nil
}

// Issue signs a fresh session for an already-resolved account.
func (uc *UseCase) Issue(user *domain.User) (*domain.Session, error) {
	return uc.issue(user)
}

func (uc *UseCase) issue(user *domain.User) (*domain.Session, error) {
	token, expiresAt, err := uc.tokens.Issue(user.ID)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "issue token", err)
	}
	return &domain.Session{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user,
	}, nil
}

func (uc *UseCase) upstream(ctx context.Context, op string, err error) error {
	var dErr *domain.Error
	if errors.As(err, &dErr) && dErr.Code != domain.ErrCodeUpstream {
		return err
	}
	logger.WithRequestID(ctx, uc.logger).Error("identity store failure", zap.String("operation", op), zap.Error(err))
	if dErr != nil {
		return err
	}
	return domain.Upstream(op, err)
}
