package database

import (
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"

	apperrors "github.com/allisson/trustlog/internal/errors"
)

// MySQL error numbers mapped by TranslateError.
const (
	mysqlDuplicateEntry = 1062
	mysqlTableFull      = 1114
	mysqlDiskFull       = 1021
	mysqlOutOfResources = 1041
)

// TranslateError maps driver errors onto domain errors: unique violations become
// ErrConflict, disk-full conditions become ErrStorageFull, sql.ErrNoRows becomes
// ErrNotFound. Other errors are returned unchanged.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.Wrap(apperrors.ErrNotFound, err.Error())
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code == "23505":
			return apperrors.Wrap(apperrors.ErrConflict, pqErr.Message)
		case pqErr.Code == "53100" || pqErr.Code == "53200":
			return apperrors.Wrap(apperrors.ErrStorageFull, pqErr.Message)
		}
		return err
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case mysqlDuplicateEntry:
			return apperrors.Wrap(apperrors.ErrConflict, myErr.Message)
		case mysqlTableFull, mysqlDiskFull, mysqlOutOfResources:
			return apperrors.Wrap(apperrors.ErrStorageFull, myErr.Message)
		}
	}

	return err
}
