package dbexec

import (
	"context"
	"strings"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/pkg/errors"
)

// Raised by the order-entry stored procedures when a referenced item does not exist.
const missingItemMessage = "Item record is null"

// ErrMissingRow is returned when a transaction references a row that does not exist. The workload
// produces these on purpose, so they are counted rather than treated as faults.
type ErrMissingRow struct {
	Cause error
}

func (err *ErrMissingRow) Error() string {
	return "referenced row missing: " + err.Cause.Error()
}

func (err *ErrMissingRow) Unwrap() error {
	return err.Cause
}

// ClassifyTxError wraps referenced-row errors in ErrMissingRow and everything else with a stack trace.
func ClassifyTxError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgerrcode.ForeignKeyViolation,
			pgErr.Code == pgerrcode.NoDataFound,
			pgErr.Code == pgerrcode.RaiseException && strings.Contains(pgErr.Message, missingItemMessage):
			return &ErrMissingRow{Cause: err}
		}
	}
	return errors.WithStack(err)
}

func IsMissingRow(err error) bool {
	var missing *ErrMissingRow
	return errors.As(err, &missing)
}

// IsTimeout reports whether err was caused by a statement timeout or an expired deadline.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.QueryCanceled
}

func isUndefinedRelation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) &&
		(pgErr.Code == pgerrcode.UndefinedTable || pgErr.Code == pgerrcode.InvalidSchemaName)
}

func classify(err error) Status {
	switch {
	case err == nil:
		return StatusOK
	case IsTimeout(err):
		return StatusTimeout
	default:
		return StatusError
	}
}
