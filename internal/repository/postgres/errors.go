package postgres

import (
	"database/sql"
	stderrors "errors"

	"github.com/lib/pq"

	"github.com/jwalitptl/booking-api/pkg/errors"
)

const (
	foreignKeyViolation = pq.ErrorCode("23503")
	uniqueViolation     = pq.ErrorCode("23505")
)

func pqCode(err error) (pq.ErrorCode, bool) {
	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) {
		return pqErr.Code, true
	}
	return "", false
}

func isForeignKeyViolation(err error) bool {
	code, ok := pqCode(err)
	return ok && code == foreignKeyViolation
}

func isUniqueViolation(err error) bool {
	code, ok := pqCode(err)
	return ok && code == uniqueViolation
}

// notFoundOr maps sql.ErrNoRows to a NotFound for resource and leaves other
// errors to wrap.
func notFoundOr(err error, resource string, wrap func(error) error) error {
	if stderrors.Is(err, sql.ErrNoRows) {
		return errors.NotFound(resource, err)
	}
	return wrap(err)
}

func requireAffected(res sql.Result, resource string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.NotFound(resource, sql.ErrNoRows)
	}
	return nil
}
