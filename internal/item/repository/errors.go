package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"

	"lifeos-backend/internal/item/domain"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// translateError maps GORM and driver errors onto the domain failure reasons
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	if isUnreachable(err) {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnreachable, err)
	}
	return fmt.Errorf("%w: %v", domain.ErrStoreRejected, err)
}

func isUnreachable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// class 08 is connection exception, 57P0x are server shutdown states
		return strings.HasPrefix(pgErr.Code, "08") || strings.HasPrefix(pgErr.Code, "57P0")
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	switch {
	case errors.Is(err, driver.ErrBadConn),
		errors.Is(err, sql.ErrConnDone),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return true
	}
	return pgconn.Timeout(err)
}

func isValidation(err error) bool {
	return errors.Is(err, domain.ErrValidation)
}
