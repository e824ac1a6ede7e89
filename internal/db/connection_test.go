package db

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_migrateDSN(t *testing.T) {
	tests := []struct {
		name string
		dsn  string
		want string
	}{
		{"postgres scheme", "postgres://u:p@localhost:5432/db", "pgx5://u:p@localhost:5432/db"},
		{"postgresql scheme", "postgresql://u:p@localhost:5432/db", "pgx5://u:p@localhost:5432/db"},
		{"already pgx5", "pgx5://u:p@localhost:5432/db", "pgx5://u:p@localhost:5432/db"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, migrateDSN(tt.dsn))
		})
	}
}

func Test_Connect_InvalidDSN(t *testing.T) {
	_, err := Connect(t.Context(), "not a dsn ://")

	require.Error(t, err, "invalid dsn must fail before connecting")
}
