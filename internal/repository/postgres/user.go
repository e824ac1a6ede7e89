package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nkiryanov/mediashare/internal/apperrors"
	"github.com/nkiryanov/mediashare/internal/models"
)

type UserRepo struct {
	DB DBTX
}

const userColumns = `id, created_at, updated_at, username, email, first_name, last_name, avatar, cover_image, password_hash, refresh_token`

const createUser = `-- name: CreateUser
INSERT INTO users (id, username, email, first_name, last_name, avatar, cover_image, password_hash)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + userColumns

func (r *UserRepo) CreateUser(ctx context.Context, u models.User) (models.User, error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}

	rows, _ := r.DB.Query(ctx, createUser, u.ID, u.Username, u.Email, u.FirstName, u.LastName, u.Avatar, u.CoverImage, u.HashedPassword)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return user, apperrors.ErrUserAlreadyExists
		}

		return user, dbError(err)
	}

	return user, nil
}

const getUserByID = `-- name: GetUserByID
SELECT ` + userColumns + ` FROM users
WHERE id = $1
`

func (r *UserRepo) GetUserByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	return r.getOne(ctx, getUserByID, id)
}

const getUserByUsername = `-- name: GetUserByUsername
SELECT ` + userColumns + ` FROM users
WHERE username = $1
`

func (r *UserRepo) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	return r.getOne(ctx, getUserByUsername, username)
}

const getUserByEmail = `-- name: GetUserByEmail
SELECT ` + userColumns + ` FROM users
WHERE email = $1
`

func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	return r.getOne(ctx, getUserByEmail, email)
}

const updateProfile = `-- name: UpdateProfile
UPDATE users
SET first_name = $2, last_name = $3, avatar = $4, cover_image = $5, updated_at = now()
WHERE id = $1
RETURNING ` + userColumns

func (r *UserRepo) UpdateProfile(ctx context.Context, u models.User) (models.User, error) {
	return r.getOne(ctx, updateProfile, u.ID, u.FirstName, u.LastName, u.Avatar, u.CoverImage)
}

const updatePassword = `-- name: UpdatePassword
UPDATE users
SET password_hash = $2, refresh_token = '', updated_at = now()
WHERE id = $1
`

func (r *UserRepo) UpdatePassword(ctx context.Context, userID uuid.UUID, hashedPassword string) error {
	return r.execOne(ctx, updatePassword, userID, hashedPassword)
}

const setRefreshToken = `-- name: SetRefreshToken
UPDATE users
SET refresh_token = $2
WHERE id = $1
`

func (r *UserRepo) SetRefreshToken(ctx context.Context, userID uuid.UUID, token string) error {
	return r.execOne(ctx, setRefreshToken, userID, token)
}

const swapRefreshToken = `-- name: SwapRefreshToken if it is still the stored one
UPDATE users
SET refresh_token = $3
WHERE id = $1 AND refresh_token = $2 AND refresh_token <> ''
`

// Compare-and-set: only one of concurrent callers with the same 'old' token can win
func (r *UserRepo) SwapRefreshToken(ctx context.Context, userID uuid.UUID, old string, new string) (bool, error) {
	tag, err := r.DB.Exec(ctx, swapRefreshToken, userID, old, new)
	if err != nil {
		return false, dbError(err)
	}

	return tag.RowsAffected() == 1, nil
}

func (r *UserRepo) getOne(ctx context.Context, query string, args ...any) (models.User, error) {
	rows, _ := r.DB.Query(ctx, query, args...)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, apperrors.ErrUserNotFound
	default:
		return user, dbError(err)
	}
}

func (r *UserRepo) execOne(ctx context.Context, query string, args ...any) error {
	tag, err := r.DB.Exec(ctx, query, args...)

	switch {
	case err != nil:
		return dbError(err)
	case tag.RowsAffected() == 0:
		return apperrors.ErrUserNotFound
	default:
		return nil
	}
}

func rowToUser(row pgx.CollectableRow) (models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID,
		&u.CreatedAt,
		&u.UpdatedAt,
		&u.Username,
		&u.Email,
		&u.FirstName,
		&u.LastName,
		&u.Avatar,
		&u.CoverImage,
		&u.HashedPassword,
		&u.RefreshToken,
	)
	return u, err
}
