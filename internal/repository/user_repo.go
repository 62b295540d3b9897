package repository

import (
	"context"
	"fmt"

	"app/internal/model"
	"app/internal/store"
)

// UserUpdate carries the mutable profile fields for a partial update. Nil
// means "leave unchanged". ClerkID, balance and plan are never updated
// through this path.
type UserUpdate struct {
	Username  *string
	FirstName *string
	LastName  *string
	PhotoURL  *string
}

type UserRepository interface {
	CreateUser(ctx context.Context, u *model.User) error
	GetUserByClerkID(ctx context.Context, clerkID string) (*model.User, error)
	UpdateUser(ctx context.Context, clerkID string, fields UserUpdate) (*model.User, error)
	// DeleteUser removes the user and returns the removed row so callers can
	// react; cascading cleanup is the caller's responsibility.
	DeleteUser(ctx context.Context, clerkID string) (*model.User, error)
}

type userRepo struct {
	store *store.Manager
}

// NewUserRepo creates a UserRepository on the shared connection manager.
func NewUserRepo(st *store.Manager) UserRepository {
	return &userRepo{store: st}
}

const userColumns = `id, clerk_id, email, username, first_name, last_name, photo_url, plan_id, credit_balance, created_at, updated_at`

func scanUser(row interface{ Scan(dest ...any) error }, u *model.User) error {
	return row.Scan(
		&u.ID,
		&u.ClerkID,
		&u.Email,
		&u.Username,
		&u.FirstName,
		&u.LastName,
		&u.PhotoURL,
		&u.PlanID,
		&u.CreditBalance,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
}

func (r *userRepo) CreateUser(ctx context.Context, u *model.User) error {
	pool, err := r.store.Get(ctx)
	if err != nil {
		return err
	}
	const q = `
        INSERT INTO users (clerk_id, email, username, first_name, last_name, photo_url)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING ` + userColumns
	row := pool.QueryRow(ctx, q, u.ClerkID, u.Email, u.Username, u.FirstName, u.LastName, u.PhotoURL)
	if err := scanUser(row, u); err != nil {
		return fmt.Errorf("create user %s: %w", u.ClerkID, mapError(err))
	}
	return nil
}

func (r *userRepo) GetUserByClerkID(ctx context.Context, clerkID string) (*model.User, error) {
	pool, err := r.store.Get(ctx)
	if err != nil {
		return nil, err
	}
	const q = `SELECT ` + userColumns + ` FROM users WHERE clerk_id = $1`
	var u model.User
	if err := scanUser(pool.QueryRow(ctx, q, clerkID), &u); err != nil {
		return nil, fmt.Errorf("fetch user %s: %w", clerkID, mapError(err))
	}
	return &u, nil
}

func (r *userRepo) UpdateUser(ctx context.Context, clerkID string, fields UserUpdate) (*model.User, error) {
	pool, err := r.store.Get(ctx)
	if err != nil {
		return nil, err
	}
	const q = `
        UPDATE users
        SET username   = COALESCE($2, username),
            first_name = COALESCE($3, first_name),
            last_name  = COALESCE($4, last_name),
            photo_url  = COALESCE($5, photo_url),
            updated_at = NOW()
        WHERE clerk_id = $1
        RETURNING ` + userColumns
	var u model.User
	row := pool.QueryRow(ctx, q, clerkID, fields.Username, fields.FirstName, fields.LastName, fields.PhotoURL)
	if err := scanUser(row, &u); err != nil {
		return nil, fmt.Errorf("update user %s: %w", clerkID, mapError(err))
	}
	return &u, nil
}

func (r *userRepo) DeleteUser(ctx context.Context, clerkID string) (*model.User, error) {
	pool, err := r.store.Get(ctx)
	if err != nil {
		return nil, err
	}
	const q = `DELETE FROM users WHERE clerk_id = $1 RETURNING ` + userColumns
	var u model.User
	if err := scanUser(pool.QueryRow(ctx, q, clerkID), &u); err != nil {
		return nil, fmt.Errorf("delete user %s: %w", clerkID, mapError(err))
	}
	return &u, nil
}
