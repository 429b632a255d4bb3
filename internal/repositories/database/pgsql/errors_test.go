package pgsql

import (
	"errors"
	"fmt"
	"testing"

	"github.com/SscSPs/cashledger/internal/apperrors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestMapDBError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"no rows", pgx.ErrNoRows, apperrors.ErrNotFound},
		{"unique violation", &pgconn.PgError{Code: "23505", ConstraintName: "uq_open_primary_per_location"}, apperrors.ErrConflict},
		{"serialization failure", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "40001"}), apperrors.ErrTransient},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, apperrors.ErrTransient},
		{"lock not available", &pgconn.PgError{Code: "55P03"}, apperrors.ErrTransient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, mapDBError(tt.err), tt.want)
		})
	}

	other := errors.New("connection reset")
	assert.Same(t, other, mapDBError(other))
	assert.Nil(t, mapDBError(nil))
}
