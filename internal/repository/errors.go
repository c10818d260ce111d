package repository

import (
	"errors"

	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// ErrCodeTaken signals that a freshly generated session code collided with a stored one.
var ErrCodeTaken = errors.New("session code already in use")

func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return string(pqErr.Code) == uniqueViolation && (constraint == "" || pqErr.Constraint == constraint)
}
