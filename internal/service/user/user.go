package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/text/cases"

	"github.com/nkiryanov/mediashare/internal/apperrors"
	"github.com/nkiryanov/mediashare/internal/models"
	"github.com/nkiryanov/mediashare/internal/repository"
)

const MinPasswordLength = 8

type CreateUserParams struct {
	Username   string
	Email      string
	FirstName  string
	LastName   string
	Password   string
	Avatar     string
	CoverImage string
}

// Empty field means 'keep current value'
type UpdateAccountParams struct {
	FirstName  string
	LastName   string
	Avatar     string
	CoverImage string
}

// Credential store: owns user records and password hashes
type UserService struct {
	hasher  PasswordHasher
	storage repository.Storage

	// Hash compared against when user is not found, so both paths cost the same
	dummyHash func() string
}

func NewService(hasher PasswordHasher, storage repository.Storage) *UserService {
	if hasher == nil {
		hasher = DefaultHasher
	}

	return &UserService{
		hasher:  hasher,
		storage: storage,
		dummyHash: sync.OnceValue(func() string {
			hash, _ := hasher.Hash(uuid.NewString())
			return hash
		}),
	}
}

// Lowercase (Unicode case folding) and trim usernames and emails
func Normalize(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// Replace user password hash with fresh salted one
// Does not persist the user
func (s *UserService) SetPassword(user *models.User, password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return apperrors.NewValidationError("password", fmt.Sprintf("must be at least %d characters", MinPasswordLength))
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("can't use this as password. Err: %w", err)
	}

	user.HashedPassword = hash
	return nil
}

// Check password against user hash. Mismatch is not an error
func (s *UserService) VerifyPassword(user models.User, password string) bool {
	if user.HashedPassword == "" {
		return false
	}
	return s.hasher.Compare(user.HashedPassword, password) == nil
}

func (s *UserService) CreateUser(ctx context.Context, params CreateUserParams) (models.User, error) {
	user := models.User{
		Username:   Normalize(params.Username),
		Email:      Normalize(params.Email),
		FirstName:  strings.TrimSpace(params.FirstName),
		LastName:   strings.TrimSpace(params.LastName),
		Avatar:     strings.TrimSpace(params.Avatar),
		CoverImage: strings.TrimSpace(params.CoverImage),
	}

	required := []struct {
		field string
		value string
	}{
		{"username", user.Username},
		{"email", user.Email},
		{"firstname", user.FirstName},
		{"lastname", user.LastName},
	}
	for _, r := range required {
		if r.value == "" {
			return models.User{}, apperrors.NewValidationError(r.field, "is required")
		}
	}
	if strings.Contains(user.Username, "@") {
		return models.User{}, apperrors.NewValidationError("username", "must not contain '@'")
	}
	if !strings.Contains(user.Email, "@") {
		return models.User{}, apperrors.NewValidationError("email", "is not valid")
	}

	if err := s.SetPassword(&user, params.Password); err != nil {
		return models.User{}, err
	}

	created, err := s.storage.User().CreateUser(ctx, user)
	if err != nil {
		return models.User{}, fmt.Errorf("can't create user. Err: %w", err)
	}

	return created, nil
}

func (s *UserService) GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error) {
	user, err := s.storage.User().GetUserByID(ctx, userID)
	if err != nil {
		return user, fmt.Errorf("can't get user. Err: %w", err)
	}
	return user, nil
}

// Lookup by email if login looks like email, by username otherwise
func (s *UserService) GetUserByLogin(ctx context.Context, login string) (models.User, error) {
	var (
		user models.User
		err  error
	)

	login = Normalize(login)
	if strings.Contains(login, "@") {
		user, err = s.storage.User().GetUserByEmail(ctx, login)
	} else {
		user, err = s.storage.User().GetUserByUsername(ctx, login)
	}
	if err != nil {
		return user, fmt.Errorf("can't get user. Err: %w", err)
	}

	return user, nil
}

// Find user and check password
// Unknown user and wrong password both return apperrors.ErrAuth
func (s *UserService) CheckCredentials(ctx context.Context, login string, password string) (models.User, error) {
	user, err := s.GetUserByLogin(ctx, login)

	switch {
	case err == nil:
	case errors.Is(err, apperrors.ErrUserNotFound):
		_ = s.hasher.Compare(s.dummyHash(), password)
		return models.User{}, apperrors.ErrAuth
	default:
		return models.User{}, err
	}

	if !s.VerifyPassword(user, password) {
		return models.User{}, apperrors.ErrAuth
	}

	return user, nil
}

// Change password knowing the current one
// Active session is dropped, so refresh token issued before can't be used anymore
func (s *UserService) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword string, newPassword string) error {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if !s.VerifyPassword(user, oldPassword) {
		return apperrors.ErrAuth
	}

	if err := s.SetPassword(&user, newPassword); err != nil {
		return err
	}

	err = s.storage.User().UpdatePassword(ctx, user.ID, user.HashedPassword)
	if err != nil {
		return fmt.Errorf("can't update password. Err: %w", err)
	}

	return nil
}

func (s *UserService) UpdateAccount(ctx context.Context, userID uuid.UUID, params UpdateAccountParams) (models.User, error) {
	var updated models.User

	err := s.storage.InTx(ctx, func(storage repository.Storage) error {
		user, err := storage.User().GetUserByID(ctx, userID)
		if err != nil {
			return err
		}

		setIfNotEmpty := func(field *string, value string) {
			if value = strings.TrimSpace(value); value != "" {
				*field = value
			}
		}
		setIfNotEmpty(&user.FirstName, params.FirstName)
		setIfNotEmpty(&user.LastName, params.LastName)
		setIfNotEmpty(&user.Avatar, params.Avatar)
		setIfNotEmpty(&user.CoverImage, params.CoverImage)

		updated, err = storage.User().UpdateProfile(ctx, user)
		return err
	})
	if err != nil {
		return updated, fmt.Errorf("can't update account. Err: %w", err)
	}

	return updated, nil
}
