package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/classroom-scheduler/internal/persistence"
)

// UserRepository implements persistence.UserRepository using SQLite.
type UserRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewUserRepository creates a new SQLite user repository.
func NewUserRepository(pool *ConnectionPool) *UserRepository {
	return &UserRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateUser inserts a new user. Timestamps default to now when unset.
func (r *UserRepository) CreateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" {
		return persistence.ErrConstraintViolation
	}

	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = user.CreatedAt
	}

	const query = `
		INSERT INTO users (id, name, email, role, token_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := r.helper.Exec(ctx, query,
		user.ID,
		user.Name,
		normalizeEmail(user.Email),
		user.Role,
		user.TokenHash,
		formatTimestamp(user.CreatedAt),
		formatTimestamp(user.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", r.mapper.MapError(err))
	}
	return nil
}

// GetUser retrieves a user by ID.
func (r *UserRepository) GetUser(ctx context.Context, id string) (persistence.User, error) {
	const query = `
		SELECT id, name, email, role, token_hash, created_at, updated_at
		FROM users
		WHERE id = ?`

	var (
		user                 persistence.User
		createdAt, updatedAt string
	)
	err := r.helper.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Role,
		&user.TokenHash,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.User{}, persistence.ErrNotFound
		}
		return persistence.User{}, fmt.Errorf("failed to get user: %w", r.mapper.MapError(err))
	}

	if user.CreatedAt, err = parseTimestamp("created_at", createdAt); err != nil {
		return persistence.User{}, err
	}
	if user.UpdatedAt, err = parseTimestamp("updated_at", updatedAt); err != nil {
		return persistence.User{}, err
	}
	return user, nil
}

// UserExists reports whether a user with the given ID exists.
func (r *UserRepository) UserExists(ctx context.Context, id string) (bool, error) {
	return exists(ctx, r.helper, r.mapper, "users", id)
}

// exists runs a primary key probe against one of the schema tables. table is
// never user input.
func exists(ctx context.Context, helper *QueryHelper, mapper *ErrorMapper, table, id string) (bool, error) {
	var found int
	err := helper.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM "+table+" WHERE id = ?)", id).Scan(&found)
	if err != nil {
		return false, fmt.Errorf("failed to check %s: %w", table, mapper.MapError(err))
	}
	return found == 1, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
