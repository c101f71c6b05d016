package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/culinary-compass/internal/apperror"
	"github.com/sakif/culinary-compass/internal/model"
	"github.com/sakif/culinary-compass/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, username, email, password_hash, vegetarianism,
	gluten_free, healthy, no_alcohol, created_at, updated_at`

// Create inserts a new user. The ID and timestamps are generated here.
// A duplicate username or email returns apperror.ErrConflict.
func (db *DB) Create(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Vegetarianism == "" {
		user.Vegetarianism = model.Neither
	}

	_, err := db.conn.NamedExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (:id, :username, :email, :password_hash, :vegetarianism,
		         :gluten_free, :healthy, :no_alcohol, :created_at, :updated_at)`,
		user,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.Email)
		}
		return fmt.Errorf("sqlite: inserting user %s: %w", user.Username, err)
	}

	return nil
}

// GetUserByID retrieves a user by their internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	err := db.conn.GetContext(ctx, &u,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return &u, nil
}

// GetUserByEmail looks a user up by email, case-insensitively.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := db.conn.GetContext(ctx, &u,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = ?`, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("sqlite: getting user by email: %w", err)
	}
	return &u, nil
}

// UpdateSurvey overwrites the dietary survey answers of a user.
func (db *DB) UpdateSurvey(ctx context.Context, id string, survey model.Survey) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE users
		 SET vegetarianism = ?, gluten_free = ?, healthy = ?, no_alcohol = ?, updated_at = ?
		 WHERE id = ?`,
		survey.Vegetarianism, survey.GlutenFree, survey.Healthy, survey.NoAlcohol,
		time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating survey of user %s: %w", id, err)
	}
	return requireRow(res, id)
}

// UpdateAccount changes a user's username and email. A name or email held
// by another account returns apperror.ErrConflict.
func (db *DB) UpdateAccount(ctx context.Context, id, username, email string) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET username = ?, email = ?, updated_at = ? WHERE id = ?`,
		username, email, time.Now().UTC(), id,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &apperror.AppError{Err: apperror.ErrConflict, Message: "username or email already taken"}
		}
		return fmt.Errorf("sqlite: updating account of user %s: %w", id, err)
	}
	return requireRow(res, id)
}

// UpdatePassword replaces the password hash only while it still equals
// oldHash. A hash changed in the meantime returns apperror.ErrConflict.
func (db *DB) UpdatePassword(ctx context.Context, id, oldHash, newHash string) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ? AND password_hash = ?`,
		newHash, time.Now().UTC(), id, oldHash,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating password of user %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return &apperror.AppError{Err: apperror.ErrConflict, Message: "password was changed concurrently"}
	}
	return nil
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("user", id)
	}
	return nil
}
