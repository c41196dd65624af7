package db

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound indicates no rows matched the query.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a uniqueness or integrity conflict.
	ErrConflict = errors.New("conflict")
)

// mapPgErr translates driver errors into the package sentinels.
func mapPgErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return ErrConflict
		}
	}
	return err
}
