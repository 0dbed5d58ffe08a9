package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/repository"
)

const userColumns = `id, email, name, bio, avatar, password_hash, google_id, created_at, updated_at`

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository instantiates a Postgres-backed user repository.
func NewUserRepository(pool *pgxpool.Pool) repository.UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrUserNotFound
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, classify("get user", err, domain.ErrUserNotFound)
	}
	return user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 LIMIT 1`
	user, err := scanUser(r.pool.QueryRow(ctx, query, domain.NormalizeEmail(email)))
	if err != nil {
		return nil, classify("get user by email", err, domain.ErrUserNotFound)
	}
	return user, nil
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

	const query = `
	INSERT INTO users (id, email, name, bio, avatar, password_hash, google_id)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING created_at, updated_at
	`

	if err := r.pool.QueryRow(ctx, query,
		created.ID,
		created.Email,
		created.Name,
		created.Bio,
		created.Avatar,
		created.PasswordHash,
		created.GoogleID,
	).Scan(&created.CreatedAt, &created.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrEmailTaken
		}
		return nil, domain.Upstream("create user", err)
	}

	return &created, nil
}

func (r *userRepository) Update(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrUserNotFound
	}

	query := `
	UPDATE users
	SET name = COALESCE($2, name),
		bio = COALESCE($3, bio),
		avatar = COALESCE($4, avatar),
		password_hash = COALESCE($5, password_hash),
		updated_at = NOW()
	WHERE id = $1
	RETURNING ` + userColumns

	user, err := scanUser(r.pool.QueryRow(ctx, query,
		id,
		patch.Name,
		patch.Bio,
		patch.Avatar,
		patch.PasswordHash,
	))
	if err != nil {
		return nil, classify("update user", err, domain.ErrUserNotFound)
	}
	return user, nil
}

func scanUser(row rowScanner) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.Bio,
		&user.Avatar,
		&user.PasswordHash,
		&user.GoogleID,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}
