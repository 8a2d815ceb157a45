package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/ridenrent/vehicle_rental_service/internal/core/domain"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const userColumns = `user_id, first_name, last_name, email, password_hash, COALESCE(phone, ''), role, created_at, updated_at`

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{
		db,
	}
}

func scanUser(row *sql.Row) (*domain.User, error) {
	user := &domain.User{}
	err := row.Scan(
		&user.UserID,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.PasswordHash,
		&user.Phone,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	query := `INSERT INTO users (user_id, first_name, last_name, email, password_hash, phone, role)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7)
		RETURNING user_id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		user.UserID,
		user.FirstName,
		user.LastName,
		user.Email,
		user.PasswordHash,
		user.Phone,
		user.Role,
	).Scan(
		&user.UserID,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch {
			case pqErr.Code == "23505" && strings.Contains(pqErr.Constraint, "phone"):
				return nil, domain.ErrPhoneTaken
			case pqErr.Code == "23505":
				return nil, domain.ErrEmailTaken
			case pqErr.Code == "23502":
				return nil, fmt.Errorf("required field is missing")
			}
		}
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) GetUserByID(ctx context.Context, user_id uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, user_id))
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *UserRepository) GetUserByPhone(ctx context.Context, phone string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE phone = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, phone))
}

func (r *UserRepository) UpdatePhone(ctx context.Context, user_id uuid.UUID, phone string) (*domain.User, error) {
	query := `UPDATE users SET phone = $1, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = $2
		RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRowContext(ctx, query, phone, user_id))
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return nil, domain.ErrPhoneTaken
		}
		return nil, err
	}
	return user, nil
}
