package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestConstraintErrors(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		wantDuplicate  bool
		wantForeignKey bool
	}{
		{"nil", nil, false, false},
		{"unique violation", &pgconn.PgError{Code: "23505"}, true, false},
		{"wrapped unique violation", fmt.Errorf("create document: %w", &pgconn.PgError{Code: "23505"}), true, false},
		{"foreign key violation", &pgconn.PgError{Code: "23503"}, false, true},
		{"other sqlstate", &pgconn.PgError{Code: "23502"}, false, false},
		{"no rows", pgx.ErrNoRows, false, false},
		{"plain error", errors.New("boom"), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDuplicateError(tt.err); got != tt.wantDuplicate {
				t.Errorf("IsDuplicateError() = %v, want %v", got, tt.wantDuplicate)
			}
			if got := IsForeignKeyError(tt.err); got != tt.wantForeignKey {
				t.Errorf("IsForeignKeyError() = %v, want %v", got, tt.wantForeignKey)
			}
		})
	}
}
