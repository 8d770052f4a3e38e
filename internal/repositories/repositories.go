// Package repositories holds the SQL data access layer for complaint records,
// evidence files, the audit log, official notes, and user accounts.
package repositories

import (
	"strings"

	"github.com/kishanss4/corrupt-watch/internal/errors"
	"github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a record does not exist. Callers decide how
// much of that to reveal.
var ErrNotFound = errors.NewSentinel("record not found")

// isUniqueViolation reports whether err is a unique-constraint violation on
// the named column, e.g. "complaints.tracking_code".
func isUniqueViolation(err error, column string) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	if sqliteErr.ExtendedCode != sqlite3.ErrConstraintUnique {
		return false
	}
	return column == "" || strings.Contains(sqliteErr.Error(), column)
}
