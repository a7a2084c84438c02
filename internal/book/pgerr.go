package book

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// isInvalidUUID reports whether err is Postgres complaining about a
// malformed uuid literal (22P02). Treated as "no such row" so that
// arbitrary path input cannot produce a 500.
func isInvalidUUID(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22P02"
}
