package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/irfanhabeeb-002/foodshare/internal/model"
	"github.com/irfanhabeeb-002/foodshare/internal/utils"
)

// UserRepo persists application users.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var ErrEmailExists = errors.New("email already exists")

// Create inserts a user and returns its ID.
func (r *UserRepo) Create(ctx context.Context, email, password, displayName string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	now := time.Now().UTC().Format(dtLayout)
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (email, password_hash, display_name, role, is_active, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?)`,
		email, hash, displayName, "USER", true, now, now)
	if err != nil {
		if isDuplicateErr(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		`SELECT id,email,password_hash,display_name,role,is_active,created_at,updated_at
		   FROM users WHERE email=? LIMIT 1`,
		email).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.Role,
		&u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		`SELECT id,email,password_hash,display_name,role,is_active,created_at,updated_at
		   FROM users WHERE id=? LIMIT 1`,
		id).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.Role,
		&u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}
