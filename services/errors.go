package services

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/Congregate/apperr"
	"github.com/lib/pq"
)

// ClassifyDBError maps driver errors onto the apperr taxonomy so handlers
// can answer 404/403/503 without knowing about lib/pq. Errors that are
// already classified pass through.
func ClassifyDBError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, apperr.ErrNotFound) || errors.Is(err, apperr.ErrAuthorizationDenied) ||
		errors.Is(err, apperr.ErrTransient) || errors.Is(err, apperr.ErrConflict) || apperr.IsValidationError(err) {
		return err
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", apperr.ErrNotFound, err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		// 42501 insufficient_privilege is what row-level security raises
		case pqErr.Code == "42501":
			return fmt.Errorf("%w: %s", apperr.ErrAuthorizationDenied, pqErr.Message)
		case pqErr.Code == "23505":
			return fmt.Errorf("%w: %s", apperr.ErrConflict, pqErr.Message)
		case pqErr.Code == "23503":
			return fmt.Errorf("%w: %s", apperr.ErrNotFound, pqErr.Message)
		case pqErr.Code.Class() == "08" || pqErr.Code.Class() == "53" || pqErr.Code.Class() == "57":
			return fmt.Errorf("%w: %s", apperr.ErrTransient, pqErr.Message)
		}
		return err
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("%w: %v", apperr.ErrTransient, err)
	}
	if strings.Contains(err.Error(), "connection refused") {
		return fmt.Errorf("%w: %v", apperr.ErrTransient, err)
	}

	return err
}
