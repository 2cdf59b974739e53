package repo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormRepo struct {
	DB *gorm.DB
}

var ErrDuplicateKey = errors.New("duplicate key")

const uniqueViolation = "23505"

// DuplicateKeyError carries the violated constraint, or the offending
// columns when the driver only reports those.
type DuplicateKeyError struct {
	Constraint string
	Err        error
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate key (%s): %v", e.Constraint, e.Err)
}

func (e *DuplicateKeyError) Unwrap() error { return e.Err }

func (e *DuplicateKeyError) Is(target error) bool { return target == ErrDuplicateKey }

// Touches reports whether the violated constraint involves name, which can
// be an index name or a column name.
func (e *DuplicateKeyError) Touches(name string) bool {
	return strings.Contains(e.Constraint, name)
}

// translateError is the single place where driver-level unique violations
// become ErrDuplicateKey.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	var dup *DuplicateKeyError
	if errors.As(err, &dup) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return &DuplicateKeyError{Constraint: pgErr.ConstraintName, Err: err}
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		return &DuplicateKeyError{Constraint: pqErr.Constraint, Err: err}
	}
	if msg := err.Error(); strings.Contains(msg, "UNIQUE constraint failed") {
		cols := msg[strings.Index(msg, "UNIQUE constraint failed")+len("UNIQUE constraint failed"):]
		return &DuplicateKeyError{Constraint: strings.TrimSpace(strings.TrimPrefix(cols, ":")), Err: err}
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &DuplicateKeyError{Err: err}
	}
	return err
}

func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}
