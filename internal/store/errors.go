package store

import (
	"errors"
	"strings"

	"github.com/lib/pq"
)

// NotFoundError is returned by single-row lookups that found nothing. It
// carries a human-readable description of what was looked up so callers
// can log it without reconstructing the query.
type NotFoundError struct {
	Message string
}

func (e NotFoundError) Error() string {
	return e.Message
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf NotFoundError
	return errors.As(err, &nf)
}

// UniqueViolationError wraps a Postgres unique_violation, carrying the
// constraint metadata needed to decide whether to re-fetch the existing
// row (get-or-create) or report a genuine conflict (importer dedup).
type UniqueViolationError struct {
	Message    string
	Detail     string
	Schema     string
	Table      string
	Constraint string
}

func (e UniqueViolationError) Error() string {
	return e.Message
}

// ForeignKeyError wraps a Postgres foreign_key_violation.
type ForeignKeyError struct {
	Message    string
	Detail     string
	Schema     string
	Table      string
	Constraint string
}

func (e ForeignKeyError) Error() string {
	return e.Message
}

// classifyPQError turns a *pq.Error into one of the typed errors above, or
// returns nil if it isn't a constraint violation this package handles.
func classifyPQError(err error) error {
	pqErr, ok := err.(*pq.Error)
	if !ok {
		return nil
	}
	switch pqErr.Code.Name() {
	case "unique_violation":
		return UniqueViolationError{
			Message:    strings.TrimSpace(pqErr.Message),
			Detail:     pqErr.Detail,
			Schema:     pqErr.Schema,
			Table:      pqErr.Table,
			Constraint: pqErr.Constraint,
		}
	case "foreign_key_violation":
		return ForeignKeyError{
			Message:    strings.TrimSpace(pqErr.Message),
			Detail:     pqErr.Detail,
			Schema:     pqErr.Schema,
			Table:      pqErr.Table,
			Constraint: pqErr.Constraint,
		}
	}
	return nil
}

// IsUniqueViolation reports whether err is (or wraps, via classification)
// a unique constraint violation.
func IsUniqueViolation(err error) bool {
	if _, ok := err.(UniqueViolationError); ok {
		return true
	}
	_, ok := classifyPQError(err).(UniqueViolationError)
	return ok
}

// IsForeignKeyViolation reports whether err is (or wraps) a foreign key
// violation.
func IsForeignKeyViolation(err error) bool {
	if _, ok := err.(ForeignKeyError); ok {
		return true
	}
	_, ok := classifyPQError(err).(ForeignKeyError)
	return ok
}

// translatePQError classifies a raw driver error into one of this
// package's typed errors, passing it through unchanged if it isn't a
// constraint violation (the caller should check for sql.ErrNoRows itself).
func translatePQError(err error) error {
	if err == nil {
		return nil
	}
	if classified := classifyPQError(err); classified != nil {
		return classified
	}
	return err
}
