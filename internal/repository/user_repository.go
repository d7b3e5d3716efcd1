package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/contact-book-api/internal/auth"
	"github.com/iliyamo/contact-book-api/internal/model"
)

// UserRepo encapsulates all queries against the `users` table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id, username, email, password_hash, role, confirmed, refresh_token, avatar_url, created_at, updated_at"

func scanUser(row *sql.Row) (*model.User, error) {
	var (
		u       model.User
		role    string
		refresh sql.NullString
		avatar  sql.NullString
	)
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &role,
		&u.Confirmed, &refresh, &avatar, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	r, err := model.ParseRole(role)
	if err != nil {
		return nil, err
	}
	u.Role = r
	if refresh.Valid {
		u.RefreshToken = &refresh.String
	}
	if avatar.Valid {
		u.AvatarURL = &avatar.String
	}
	return &u, nil
}

// Create inserts a new account and returns its ID. A duplicate email maps
// to auth.ErrAccountExists (MySQL error 1062 on the unique index).
func (r *UserRepo) Create(ctx context.Context, username, email, passwordHash string, role model.Role) (uint64, error) {
	email = model.NormalizeEmail(email)
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, email, password_hash, role, confirmed) VALUES (?,?,?,?,false)",
		username, email, passwordHash, role.String())
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, auth.ErrAccountExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches an account by normalized email, auth.ErrUserNotFound
// when absent.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	email = model.NormalizeEmail(email)
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auth.ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// UpdateRefreshToken stores the currently valid refresh token for a user.
// Passing nil clears it, which is how a mismatched refresh attempt forces a
// new login.
func (r *UserRepo) UpdateRefreshToken(ctx context.Context, userID uint64, token *string) error {
	var val sql.NullString
	if token != nil {
		val = sql.NullString{String: *token, Valid: true}
	}
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET refresh_token=?, updated_at=CURRENT_TIMESTAMP WHERE id=?",
		val, userID)
	return err
}

// ConfirmEmail flips confirmed to true. The WHERE clause makes the second
// call a no-op at the SQL level as well.
func (r *UserRepo) ConfirmEmail(ctx context.Context, email string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET confirmed=true, updated_at=CURRENT_TIMESTAMP WHERE email=? AND confirmed=false",
		model.NormalizeEmail(email))
	return err
}

// UpdateAvatar sets the avatar URL and returns the updated record so the
// caller can refresh the identity cache in one step.
func (r *UserRepo) UpdateAvatar(ctx context.Context, email, url string) (*model.User, error) {
	email = model.NormalizeEmail(email)
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET avatar_url=?, updated_at=CURRENT_TIMESTAMP WHERE email=?",
		url, email)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Distinguish "no such user" from "URL unchanged".
		if _, err := r.GetByEmail(ctx, email); err != nil {
			return nil, err
		}
	}
	return r.GetByEmail(ctx, email)
}
