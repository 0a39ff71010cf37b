package repositories

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tom2tomtomtom/traffic-manager/pkg/database"
	apperrors "github.com/tom2tomtomtom/traffic-manager/pkg/errors"
)

func discardLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(ectologger.EctoLogMessage) {})
}

// downDB fails every query the way the driver does when postgres is unreachable.
type downDB struct {
	database.DB
	err error
}

func (d downDB) GetContext(context.Context, any, string, ...any) error {
	return d.err
}

func (d downDB) SelectContext(context.Context, any, string, ...any) error {
	return d.err
}

func (d downDB) ExecContext(context.Context, string, ...any) (sql.Result, error) {
	return nil, d.err
}

func TestFail_ClassifiesDriverErrors(t *testing.T) {
	repo := NewRepository(nil, discardLogger())
	dialErr := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}

	tests := []struct {
		name string
		err  error
		want apperrors.Kind
	}{
		{"bad connection", driver.ErrBadConn, apperrors.KindUpstreamUnavailable},
		{"dial refused", dialErr, apperrors.KindUpstreamUnavailable},
		{"deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), apperrors.KindUpstreamUnavailable},
		{"connection failure", &pq.Error{Code: "08006"}, apperrors.KindUpstreamUnavailable},
		{"too many connections", &pq.Error{Code: "53300"}, apperrors.KindUpstreamUnavailable},
		{"admin shutdown", &pq.Error{Code: "57P01"}, apperrors.KindUpstreamUnavailable},
		{"duplicate key", &pq.Error{Code: "23505"}, apperrors.KindConflict},
		{"undefined table", &pq.Error{Code: "42P01"}, apperrors.KindInternal},
		{"anything else", errors.New("scan failed"), apperrors.KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.fail(context.Background(), tt.err, nil, "failed")
			assert.Equal(t, tt.want, apperrors.KindOf(err))
		})
	}
}

func TestPersonRepository_GetByID_StoreDown(t *testing.T) {
	repo := NewPersonRepository(downDB{err: driver.ErrBadConn}, discardLogger())

	_, err := repo.GetByID(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, apperrors.KindUpstreamUnavailable, apperrors.KindOf(err))
}

func TestPersonRepository_ListActive_StoreDown(t *testing.T) {
	dialErr := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
	repo := NewPersonRepository(downDB{err: dialErr}, discardLogger())

	_, err := repo.ListActive(context.Background())
	assert.Equal(t, apperrors.KindUpstreamUnavailable, apperrors.KindOf(err))
}

func TestProjectRepository_Delete_StoreDown(t *testing.T) {
	repo := NewProjectRepository(downDB{err: &pq.Error{Code: "57P01"}}, discardLogger())

	err := repo.Delete(context.Background(), uuid.New())
	assert.Equal(t, apperrors.KindUpstreamUnavailable, apperrors.KindOf(err))
}

func TestPersonRepository_Deactivate_StoreDown(t *testing.T) {
	repo := NewPersonRepository(downDB{err: sql.ErrConnDone}, discardLogger())

	err := repo.Deactivate(context.Background(), uuid.New())
	assert.Equal(t, apperrors.KindUpstreamUnavailable, apperrors.KindOf(err))
}
