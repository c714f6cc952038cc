package dberr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	domainerrs "github.com/yungbote/luminar-backend/internal/pkg/errors"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// Classify maps driver errors onto the domain sentinels so handlers can
// pick a status without knowing which database is behind the repo.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %v", domainerrs.ErrNotFound, err)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: duplicate record", domainerrs.ErrInvalidArgument)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%w: duplicate record (%s)", domainerrs.ErrInvalidArgument, pgErr.ConstraintName)
		case pgForeignKeyViolation:
			return fmt.Errorf("%w: referenced record missing (%s)", domainerrs.ErrInvalidArgument, pgErr.ConstraintName)
		}
		return err
	}
	// sqlite reports constraint failures only through the message.
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return fmt.Errorf("%w: duplicate record", domainerrs.ErrInvalidArgument)
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return fmt.Errorf("%w: referenced record missing", domainerrs.ErrInvalidArgument)
	}
	return err
}
