package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"

	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/repository"
)

// storedUser mirrors domain.User including the fields hidden from API responses.
type storedUser struct {
	domain.User
	PasswordHash string `json:"passwordHash"`
	GoogleID     string `json:"googleId"`
}

type userRepository struct {
	client *redislib.Client
	prefix string
	now    func() time.Time
}

// NewUserRepository creates a Redis-backed account repository.
func NewUserRepository(client *redislib.Client) repository.UserRepository {
	return &userRepository{
		client: client,
		prefix: defaultPrefix,
		now:    time.Now,
	}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.load(ctx, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	id, err := r.client.Get(ctx, r.emailKey(domain.NormalizeEmail(email))).Result()
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, domain.ErrUserNotFound
		}
		return nil, domain.Upstream("get user by email", err)
	}
	return r.load(ctx, id)
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	if user == nil {
		return nil, domain.ErrInvalidPayload
	}
	created := *user
	if created.ID == "" {
		created.ID = uuid.NewString()
	}
	created.Email = domain.NormalizeEmail(created.Email)
	now := r.now().UTC()
	created.CreatedAt = now
	created.UpdatedAt = now

	claimed, err := r.client.SetNX(ctx, r.emailKey(created.Email), created.ID, 0).Result()
	if err != nil {
		return nil, domain.Upstream("reserve email", err)
	}
	if !claimed {
		return nil, domain.ErrEmailTaken
	}

	if err := r.save(ctx, &created); err != nil {
		_ = r.client.Del(ctx, r.emailKey(created.Email)).Err()
		return nil, err
	}
	return &created, nil
}

func (r *userRepository) Update(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error) {
	user, err := r.load(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(user)
	user.UpdatedAt = r.now().UTC()
	if err := r.save(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepository) load(ctx context.Context, id string) (*domain.User, error) {
	raw, err := r.client.Get(ctx, r.userKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, domain.ErrUserNotFound
		}
		return nil, domain.Upstream("get user", err)
	}

	var stored storedUser
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, domain.Upstream("decode user", err)
	}
	user := stored.User
	user.PasswordHash = stored.PasswordHash
	user.GoogleID = stored.GoogleID
	return &user, nil
}

func (r *userRepository) save(ctx context.Context, user *domain.User) error {
	payload, err := json.Marshal(storedUser{
		User:         *user,
		PasswordHash: user.PasswordHash,
		GoogleID:     user.GoogleID,
	})
	if err != nil {
		return domain.WrapError(domain.ErrCodeInternal, "encode user", err)
	}
	if err := r.client.Set(ctx, r.userKey(user.ID), payload, 0).Err(); err != nil {
		return domain.Upstream("save user", err)
	}
	return nil
}

func (r *userRepository) userKey(id string) string {
	return fmt.Sprintf("%saccount:%s", r.prefix, id)
}

func (r *userRepository) emailKey(email string) string {
	return fmt.Sprintf("%saccount:email:%s", r.prefix, email)
}
