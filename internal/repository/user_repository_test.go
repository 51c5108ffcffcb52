package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func TestFindIDByUsername(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(NewGateway(db, nil))

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id", "username" FROM "users" WHERE "username" = ? ORDER BY "id" ASC LIMIT ? OFFSET ?`)).
		WithArgs("operator", 1, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username"}).AddRow(int64(5), "operator"))

	id, err := repo.FindIDByUsername(context.Background(), "operator")
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, int64(5), *id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindIDByUsernameMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(NewGateway(db, nil))

	mock.ExpectQuery(`SELECT "id", "username" FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username"}))

	id, err := repo.FindIDByUsername(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, id)
	assert.NoError(t, mock.ExpectationsWereMet())
}
