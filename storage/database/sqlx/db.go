// Package sqlxrepos implements the domain repositories on PostgreSQL
// through sqlx. Uniqueness rules live in the schema; unique violations are
// mapped back to the domain sentinels here.
package sqlxrepos

import (
	"database/sql"

	"github.com/lib/pq"
)

const pgUniqueViolation = "23505"

// nullID maps an empty id to SQL NULL for optional uuid columns.
func nullID(id string) sql.NullString {
	return sql.NullString{String: id, Valid: id != ""}
}

// isUniqueViolation reports whether err is a unique violation on the named
// constraint.
func isUniqueViolation(err error, constraint string) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == pgUniqueViolation && pqErr.Constraint == constraint
	}
	return false
}
