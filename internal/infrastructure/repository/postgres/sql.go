package postgres

import (
	"database/sql"
	"errors"
)

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// nullableString maps "" to NULL so optional provider fields stay NULL in
// the warehouse instead of empty strings.
func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// nullableInt64 maps 0 to NULL. The provider reports absent counts as zero
// values, and the original feeds kept those columns nullable.
func nullableInt64(v int64) *int64 {
	if v == 0 {
		return nil
	}
	return &v
}
