package postgres

import (
	"context"
	"fmt"

	"github.com/mrintern/server/internal/domain/users"
)

var _ users.Repository = (*UserRepository)(nil)

type UserRepository struct {
	conn
}

const userColumns = `id, name, email, password_hash, role, created_at`

func scanUser(row interface{ Scan(...any) error }) (*users.User, error) {
	var u users.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) Create(ctx context.Context, params users.CreateParams) (*users.User, error) {
	row := r.queryer().QueryRow(ctx, `
INSERT INTO users (name, email, password_hash, role)
VALUES ($1, $2, $3, $4)
RETURNING `+userColumns,
		params.Name, params.Email, params.PasswordHash, params.Role,
	)
	u, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, users.ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*users.User, error) {
	u, err := scanUser(r.queryer().QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, users.ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	u, err := scanUser(r.queryer().QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email))
	if err != nil {
		if isNoRows(err) {
			return nil, users.ErrNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func (r *UserRepository) UpdateRole(ctx context.Context, id, role string) error {
	tag, err := r.queryer().Exec(ctx, `UPDATE users SET role = $2 WHERE id = $1`, id, role)
	if err != nil {
		return fmt.Errorf("update user role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return users.ErrNotFound
	}
	return nil
}
