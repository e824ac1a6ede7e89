package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID         uuid.UUID `json:"id"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	FirstName  string    `json:"firstname"`
	LastName   string    `json:"lastname"`
	Avatar     string    `json:"avatar"`
	CoverImage string    `json:"coverImage"`

	// Never leave the server
	HashedPassword string `json:"-"`

	// Digest of the only refresh token that may be rotated; empty when there is no session
	RefreshToken string `json:"-"`
}

// Name shown to other users and put into access token claims
func (u User) DisplayName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Copy of the user without password hash and session state
func (u User) Sanitized() User {
	u.HashedPassword = ""
	u.RefreshToken = ""
	return u
}
