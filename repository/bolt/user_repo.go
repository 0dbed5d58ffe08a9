package bolt

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	bbolt "go.etcd.io/bbolt"

	"github.com/fastygo/taskflow/domain"
	boltInfra "github.com/fastygo/taskflow/internal/infrastructure/bolt"
	"github.com/fastygo/taskflow/repository"
)

// storedUser keeps the credential fields that domain.User hides from JSON.
type storedUser struct {
	domain.User
	PasswordHash string `json:"passwordHash"`
	GoogleID     string `json:"googleId"`
}

type userRepository struct {
	db  *bbolt.DB
	now func() time.Time
}

// NewUserRepository returns a BoltDB-backed UserRepository.
func NewUserRepository(db *bbolt.DB) repository.UserRepository {
	return &userRepository{db: db, now: time.Now}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.Upstream("get user", err)
	}
	var user *domain.User
	err := r.db.View(func(tx *bbolt.Tx) error {
		var err error
		user, err = getUser(tx, id)
		return err
	})
	if err != nil {
		return nil, wrap("get user", err)
	}
	return user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.Upstream("get user by email", err)
	}
	var user *domain.User
	err := r.db.View(func(tx *bbolt.Tx) error {
		id := tx.Bucket(boltInfra.BucketUsersByEmail).Get([]byte(domain.NormalizeEmail(email)))
		if id == nil {
			return domain.ErrUserNotFound
		}
		var err error
		user, err = getUser(tx, string(id))
		return err
	})
	if err != nil {
		return nil, wrap("get user by email", err)
	}
	return user, nil
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	if user == nil {
		return nil, domain.ErrInvalidPayload
	}
	if err := ctx.Err(); err != nil {
		return nil, domain.Upstream("create user", err)
	}
	created := *user
	if created.ID == "" {
		created.ID = uuid.NewString()
	}
	created.Email = domain.NormalizeEmail(created.Email)
	now := r.now().UTC()
	created.CreatedAt = now
	created.UpdatedAt = now

	err := r.db.Update(func(tx *bbolt.Tx) error {
		byEmail := tx.Bucket(boltInfra.BucketUsersByEmail)
		if byEmail.Get([]byte(created.Email)) != nil {
			return domain.ErrEmailTaken
		}
		if err := byEmail.Put([]byte(created.Email), []byte(created.ID)); err != nil {
			return err
		}
		return putUser(tx, &created)
	})
	if err != nil {
		return nil, wrap("create user", err)
	}
	return &created, nil
}

func (r *userRepository) Update(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.Upstream("update user", err)
	}
	var user *domain.User
	err := r.db.Update(func(tx *bbolt.Tx) error {
		var err error
		user, err = getUser(tx, id)
		if err != nil {
			return err
		}
		patch.Apply(user)
		user.UpdatedAt = r.now().UTC()
		return putUser(tx, user)
	})
	if err != nil {
		return nil, wrap("update user", err)
	}
	return user, nil
}

func getUser(tx *bbolt.Tx, id string) (*domain.User, error) {
	v := tx.Bucket(boltInfra.BucketUsers).Get([]byte(id))
	if v == nil {
		return nil, domain.ErrUserNotFound
	}
	var stored storedUser
	if err := json.Unmarshal(v, &stored); err != nil {
		return nil, err
	}
	user := stored.User
	user.PasswordHash = stored.PasswordHash
	user.GoogleID = stored.GoogleID
	return &user, nil
}

func putUser(tx *bbolt.Tx, user *domain.User) error {
	return putJSON(tx.Bucket(boltInfra.BucketUsers), user.ID, storedUser{
		User:         *user,
		PasswordHash: user.PasswordHash,
		GoogleID:     user.GoogleID,
	})
}

func putJSON(b *bbolt.Bucket, key string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return b.Put([]byte(key), payload)
}

// wrap passes domain errors through and marks everything else as upstream.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var dErr *domain.Error
	if errors.As(err, &dErr) {
		return err
	}
	return domain.Upstream(op, err)
}
