package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/nkiryanov/mediashare/internal/models"
)

// User repository interface
type UserRepo interface {
	// Create user
	// If user with same username or email exists has to return apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, user models.User) (models.User, error)

	// Get user by id, username or email
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)

	// Update display fields (names, avatar, cover image)
	UpdateProfile(ctx context.Context, user models.User) (models.User, error)

	// Replace password hash and drop current session
	UpdatePassword(ctx context.Context, userID uuid.UUID, hashedPassword string) error

	// Overwrite stored refresh token unconditionally (login, logout)
	// If user not found must return apperrors.ErrUserNotFound
	SetRefreshToken(ctx context.Context, userID uuid.UUID, token string) error

	// Compare-and-set stored refresh token
	// Returns false when user not found or stored token differs from 'old'
	SwapRefreshToken(ctx context.Context, userID uuid.UUID, old string, new string) (bool, error)
}

// Relation repository interface
type RelationRepo interface {
	// Insert relation if it not exists
	// Has to return apperrors.ErrRelationExists if it exists already
	Insert(ctx context.Context, subjectID uuid.UUID, key models.RelationKey) (models.Relation, error)

	// Delete relation and report whether this call removed it
	Delete(ctx context.Context, subjectID uuid.UUID, key models.RelationKey) (bool, error)

	// Get relation; apperrors.ErrRelationNotFound if it is not active
	Get(ctx context.Context, subjectID uuid.UUID, key models.RelationKey) (models.Relation, error)

	// Number of subjects related to the target
	CountByTarget(ctx context.Context, key models.RelationKey) (int64, error)

	// Relations of one subject of the kind, newest first
	ListBySubject(ctx context.Context, subjectID uuid.UUID, kind models.TargetKind) ([]models.Relation, error)

	// Relations pointing at the target, newest first
	ListByTarget(ctx context.Context, key models.RelationKey) ([]models.Relation, error)
}

type Storage interface {
	User() UserRepo
	Relation() RelationRepo

	// Check storage is reachable
	Ping(ctx context.Context) error

	// Run fn in transaction. Commit if fn returns nil
	InTx(ctx context.Context, fn func(Storage) error) error
}
