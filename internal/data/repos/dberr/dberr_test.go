package dberr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	domainerrs "github.com/yungbote/luminar-backend/internal/pkg/errors"
)

func TestClassify(t *testing.T) {
	plain := errors.New("boom")
	cases := []struct {
		name string
		in   error
		want error
	}{
		{"nil", nil, nil},
		{"not found", gorm.ErrRecordNotFound, domainerrs.ErrNotFound},
		{"pg unique", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "idx"}), domainerrs.ErrInvalidArgument},
		{"pg fk", &pgconn.PgError{Code: "23503"}, domainerrs.ErrInvalidArgument},
		{"sqlite unique", errors.New("UNIQUE constraint failed: material_chunk.material_id"), domainerrs.ErrInvalidArgument},
		{"other", plain, plain},
	}
	for _, tc := range cases {
		got := Classify(tc.in)
		if tc.want == nil {
			if got != nil {
				t.Fatalf("%s: want nil got=%v", tc.name, got)
			}
			continue
		}
		if !errors.Is(got, tc.want) {
			t.Fatalf("%s: want %v got=%v", tc.name, tc.want, got)
		}
	}
}
