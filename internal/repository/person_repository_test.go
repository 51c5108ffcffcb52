package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/personnel-api/internal/models"
)

const identityQuery = `SELECT "id", "destination" FROM "persons" WHERE "surname" = ? AND "firstname" = ? AND "patronymic" = ? AND "birthday" = ? ORDER BY "id" ASC LIMIT ? OFFSET ?`

func smithRecord(t *testing.T) models.PersonRecord {
	t.Helper()
	birthday, err := models.ParseDate("1990-01-02")
	require.NoError(t, err)
	return models.PersonRecord{Surname: "SMITH", Firstname: "JOHN", Birthday: birthday}
}

func staticDestination(path string) models.DestinationFunc {
	return func(int64, models.PersonRecord) (string, error) { return path, nil }
}

func TestSearchAppliesTokensInOrderAndPeeksNextPage(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPersonRepository(NewGateway(db, nil))

	now := time.Now()
	cols := []string{"id", "surname", "firstname", "patronymic", "birthday", "created"}
	rows := sqlmock.NewRows(cols).
		AddRow(int64(9), "SMITH", "JOHN", "A", "1990-01-02", now).
		AddRow(int64(8), "SMITH", "JOHN", "A", "1991-01-02", now).
		AddRow(int64(7), "SMITH", "JOHN", "A", "1992-01-02", now)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id", "surname", "firstname", "patronymic", "birthday", "created" FROM "persons" WHERE "surname" = ? AND "firstname" = ? AND "patronymic" = ? ORDER BY "id" DESC LIMIT ? OFFSET ?`)).
		WithArgs("SMITH", "JOHN", "A", 3, 2).
		WillReturnRows(rows)

	page, err := repo.Search(context.Background(), "smith john a ignored", 1, 2)
	require.NoError(t, err)
	assert.True(t, page.HasNext)
	require.Len(t, page.Candidates, 2)
	assert.Equal(t, int64(9), page.Candidates[0].ID)
	assert.Equal(t, "1991-01-02", page.Candidates[1].Birthday.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchEmptyReturnsEmptySlice(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPersonRepository(NewGateway(db, nil))

	mock.ExpectQuery(regexp.QuoteMeta(`FROM "persons" ORDER BY "id" DESC LIMIT ? OFFSET ?`)).
		WithArgs(11, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "surname", "firstname", "patronymic", "birthday", "created"}))

	page, err := repo.Search(context.Background(), "", 0, 10)
	require.NoError(t, err)
	assert.False(t, page.HasNext)
	assert.NotNil(t, page.Candidates)
	assert.Empty(t, page.Candidates)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertInsertsAndRecordsDestination(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPersonRepository(NewGateway(db, nil))

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(identityQuery)).
		WithArgs("SMITH", "JOHN", "", "1990-01-02", 1, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "destination"}))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "persons" ("birthday", "created", "firstname", "patronymic", "surname", "user_id") VALUES (?, ?, ?, ?, ?, ?) RETURNING id`)).
		WithArgs("1990-01-02", sqlmock.AnyArg(), "JOHN", "", "SMITH", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(12)))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "persons" SET "destination" = ? WHERE "id" = ?`)).
		WithArgs("/base/S/12-SMITH JOHN", int64(12)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := repo.Upsert(context.Background(), smithRecord(t), staticDestination("/base/S/12-SMITH JOHN"))
	require.NoError(t, err)
	assert.Equal(t, int64(12), result.PersonID)
	assert.False(t, result.Exists)
	assert.Equal(t, "/base/S/12-SMITH JOHN", result.Destination)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertByIDSkipsIdentityLookup(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPersonRepository(NewGateway(db, nil))

	id := int64(4)
	rec := smithRecord(t)
	rec.ID = &id

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "persons" SET "birthday" = ?, "firstname" = ?, "patronymic" = ?, "surname" = ? WHERE "id" = ?`)).
		WithArgs("1990-01-02", "JOHN", "", "SMITH", int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := repo.Upsert(context.Background(), rec, staticDestination("unused"))
	require.NoError(t, err)
	assert.Equal(t, int64(4), result.PersonID)
	assert.True(t, result.Exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertRetriesAfterConcurrentInsert(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPersonRepository(NewGateway(db, nil))

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(identityQuery)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "destination"}))
	mock.ExpectQuery(`INSERT INTO "persons"`).
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(identityQuery)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "destination"}).AddRow(int64(3), "/base/S/3-SMITH JOHN"))
	mock.ExpectExec(`UPDATE "persons" SET`).
		WithArgs("1990-01-02", "JOHN", "", "SMITH", int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := repo.Upsert(context.Background(), smithRecord(t), staticDestination("unused"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), result.PersonID)
	assert.True(t, result.Exists)
	assert.Equal(t, "/base/S/3-SMITH JOHN", result.Destination)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteCascadeClearsItemsBeforePerson(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPersonRepository(NewGateway(db, nil))

	mock.ExpectBegin()
	for _, kind := range models.ItemKinds() {
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "` + string(kind) + `" WHERE "person_id" = ?`)).
			WithArgs(int64(5)).
			WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "persons" WHERE "id" = ?`)).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	require.NoError(t, repo.DeleteCascade(context.Background(), 5))
	assert.NoError(t, mock.ExpectationsWereMet())
}
