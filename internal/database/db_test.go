package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/legalease/legalease-admin/internal/models"
)

func TestMapPostgresError(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"nil passes through", nil, nil},
		{"no rows", pgx.ErrNoRows, models.ErrNotFound},
		{"wrapped no rows", fmt.Errorf("query user: %w", pgx.ErrNoRows), models.ErrNotFound},
		{"unique violation", &pgconn.PgError{Code: codeUniqueViolation}, models.ErrConflict},
		{"foreign key violation", &pgconn.PgError{Code: codeForeignKeyViolation}, models.ErrBadRequest},
		{"not null violation", &pgconn.PgError{Code: codeNotNullViolation}, models.ErrBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MapPostgresError(tt.in))
		})
	}
}

func TestMapPostgresError_UnknownPassesThrough(t *testing.T) {
	err := errors.New("connection reset")
	assert.Same(t, err, MapPostgresError(err))

	pgErr := &pgconn.PgError{Code: "57014"}
	assert.Equal(t, error(pgErr), MapPostgresError(pgErr))
}
