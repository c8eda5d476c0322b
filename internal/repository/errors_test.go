package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func TestTranslate(t *testing.T) {
	passthrough := errors.New("connection reset")

	tests := []struct {
		name string
		in   error
		want error
	}{
		{"nil", nil, nil},
		{"record not found", gorm.ErrRecordNotFound, ErrNotFound},
		{"duplicated key", gorm.ErrDuplicatedKey, ErrDuplicate},
		{"wrapped not found", fmt.Errorf("query: %w", gorm.ErrRecordNotFound), ErrNotFound},
		{"unique violation", &pgconn.PgError{Code: "23505"}, ErrDuplicate},
		{"wrapped unique violation", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), ErrDuplicate},
		{"other pg error", &pgconn.PgError{Code: "23503"}, &pgconn.PgError{Code: "23503"}},
		{"unrelated error", passthrough, passthrough},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translate(tt.in)
			if tt.want == nil {
				if got != nil {
					t.Errorf("translate() = %v, want nil", got)
				}
				return
			}
			var wantPg *pgconn.PgError
			if errors.As(tt.want, &wantPg) {
				var gotPg *pgconn.PgError
				if !errors.As(got, &gotPg) || gotPg.Code != wantPg.Code {
					t.Errorf("translate() = %v, want passthrough pg error %s", got, wantPg.Code)
				}
				return
			}
			if !errors.Is(got, tt.want) {
				t.Errorf("translate() = %v, want %v", got, tt.want)
			}
		})
	}
}
