package stores

import (
	"database/sql"
	"errors"
)

// IsNotFoundError returns true if the error is a "not found" error.
// Busy handling is left to the busy_timeout pragma set at open time.
func IsNotFoundError(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
