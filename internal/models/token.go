package models

import (
	"time"
)

type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// Token pair issued on login or rotation
type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}

// Authenticated session returned by login and rotation
type Session struct {
	User User
	Pair TokenPair
}
