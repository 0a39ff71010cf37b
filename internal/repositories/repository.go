package repositories

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"

	"github.com/Gobusters/ectologger"
	"github.com/lib/pq"

	"github.com/tom2tomtomtom/traffic-manager/pkg/database"
	apperrors "github.com/tom2tomtomtom/traffic-manager/pkg/errors"
)

// Postgres SQLSTATE classes that mean the server could not take the statement right now.
const (
	pqClassConnectionException   = "08"
	pqClassInsufficientResources = "53"
	pqClassOperatorIntervention  = "57"
	pqUniqueViolation            = "23505"
)

// Repository provides the database handle and logger shared by every repository.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

func (r *Repository) DB() database.DB {
	return r.db
}

// fail logs a driver error with fields and classifies it. Connection failures become
// UpstreamUnavailable, duplicate keys Conflict, and everything else a 500.
func (r *Repository) fail(ctx context.Context, err error, fields map[string]any, message string) error {
	r.logger.WithContext(ctx).WithError(err).WithFields(fields).Error(message)

	switch {
	case isUnavailable(err):
		return apperrors.UpstreamUnavailable("%s: record store unavailable", message)
	case isUniqueViolation(err):
		return apperrors.Conflict("%s: record already exists", message)
	default:
		return apperrors.Internal(message)
	}
}

func isUnavailable(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case pqClassConnectionException, pqClassInsufficientResources, pqClassOperatorIntervention:
			return true
		}
	}
	return false
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}
