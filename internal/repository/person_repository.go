package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/noah-isme/personnel-api/internal/models"
)

// PersonRepository handles persistence for candidate records.
type PersonRepository struct {
	gw  *Gateway
	now func() time.Time
}

// NewPersonRepository constructs a PersonRepository.
func NewPersonRepository(gw *Gateway) *PersonRepository {
	return &PersonRepository{gw: gw, now: time.Now}
}

// Search lists candidates newest first. Up to three query words are matched
// exactly against surname, firstname and patronymic in that order.
func (r *PersonRepository) Search(ctx context.Context, query string, page, pageSize int) (*models.CandidatePage, error) {
	if page < 0 {
		page = 0
	}
	tokens := models.SearchTokens(query)
	filters := make([]Filter, len(tokens))
	for i, token := range tokens {
		filters[i] = Filter{Column: models.SearchColumns[i], Value: token}
	}

	st, err := BuildFilteredSelect(models.PersonSummaryColumns, models.PersonsTable, filters, Page{
		Desc:   true,
		Limit:  pageSize + 1,
		Offset: page * pageSize,
	})
	if err != nil {
		return nil, err
	}

	var rows []models.PersonSummary
	if err := r.gw.Reader().Select(ctx, "persons.search", &rows, st); err != nil {
		return nil, err
	}

	result := &models.CandidatePage{Candidates: rows}
	if len(rows) > pageSize {
		result.HasNext = true
		result.Candidates = rows[:pageSize]
	}
	if result.Candidates == nil {
		result.Candidates = []models.PersonSummary{}
	}
	return result, nil
}

// FindByID returns the person or sql.ErrNoRows.
func (r *PersonRepository) FindByID(ctx context.Context, id int64) (*models.Person, error) {
	st, err := BuildFilteredSelect(models.PersonsTable.Readable(), models.PersonsTable,
		[]Filter{{Column: models.ColumnID, Value: id}}, Page{Limit: 1})
	if err != nil {
		return nil, err
	}
	var person models.Person
	if err := r.gw.Reader().Get(ctx, "persons.find_by_id", &person, st); err != nil {
		return nil, err
	}
	return &person, nil
}

// Upsert updates the person addressed by rec.ID, or the one matching its
// identity, and otherwise inserts it and records its destination. A concurrent
// insert of the same identity surfaces as a unique violation; the lookup is
// then retried once so the caller sees the winning row.
func (r *PersonRepository) Upsert(ctx context.Context, rec models.PersonRecord, derive models.DestinationFunc) (*models.UpsertResult, error) {
	result, err := r.upsertOnce(ctx, rec, derive)
	if err != nil && rec.ID == nil && IsUniqueViolation(err) {
		return r.upsertOnce(ctx, rec, derive)
	}
	return result, err
}

func (r *PersonRepository) upsertOnce(ctx context.Context, rec models.PersonRecord, derive models.DestinationFunc) (*models.UpsertResult, error) {
	var result models.UpsertResult
	err := r.gw.WithinTx(ctx, func(s *Session) error {
		if rec.ID != nil {
			result = models.UpsertResult{PersonID: *rec.ID, Exists: true}
			return r.update(ctx, s, *rec.ID, rec)
		}

		existing, err := r.findIdentity(ctx, s, rec)
		if err != nil {
			return err
		}
		if existing != nil {
			result = models.UpsertResult{PersonID: existing.ID, Exists: true}
			if existing.Destination != nil {
				result.Destination = *existing.Destination
			}
			return r.update(ctx, s, existing.ID, rec)
		}

		fields := rec.Fields()
		fields[models.ColumnCreated] = r.now().UTC()
		fields["user_id"] = rec.UserID
		st, err := BuildInsert(models.PersonsTable, fields)
		if err != nil {
			return err
		}
		id, err := s.InsertID(ctx, "persons.insert", st)
		if err != nil {
			return err
		}

		destination, err := derive(id, rec)
		if err != nil {
			return fmt.Errorf("derive destination: %w", err)
		}
		st, err = BuildUpdate(models.PersonsTable, map[string]interface{}{"destination": destination}, models.ColumnID, id)
		if err != nil {
			return err
		}
		if _, err := s.Exec(ctx, "persons.set_destination", st); err != nil {
			return err
		}

		result = models.UpsertResult{PersonID: id, Exists: false, Destination: destination}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

type identityRow struct {
	ID          int64   `db:"id"`
	Destination *string `db:"destination"`
}

func (r *PersonRepository) findIdentity(ctx context.Context, s *Session, rec models.PersonRecord) (*identityRow, error) {
	st, err := BuildFilteredSelect([]string{models.ColumnID, "destination"}, models.PersonsTable, []Filter{
		{Column: "surname", Value: rec.Surname},
		{Column: "firstname", Value: rec.Firstname},
		{Column: "patronymic", Value: rec.Patronymic},
		{Column: "birthday", Value: rec.Birthday.String()},
	}, Page{Limit: 1})
	if err != nil {
		return nil, err
	}
	var row identityRow
	if err := s.Get(ctx, "persons.find_identity", &row, st); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *PersonRepository) update(ctx context.Context, s *Session, id int64, rec models.PersonRecord) error {
	fields := rec.UpdateFields()
	if len(fields) == 0 {
		return nil
	}
	st, err := BuildUpdate(models.PersonsTable, fields, models.ColumnID, id)
	if err != nil {
		return err
	}
	_, err = s.Exec(ctx, "persons.update", st)
	return err
}

// DeleteCascade removes every item row of the person and then the person itself.
// Deleting an unknown id is a no-op.
func (r *PersonRepository) DeleteCascade(ctx context.Context, id int64) error {
	return r.gw.WithinTx(ctx, func(s *Session) error {
		for _, kind := range models.ItemKinds() {
			table, _ := kind.Table()
			st, err := BuildDelete(table, models.ColumnPersonID, id)
			if err != nil {
				return err
			}
			if _, err := s.Exec(ctx, "items.delete_by_person", st); err != nil {
				return err
			}
		}
		st, err := BuildDelete(models.PersonsTable, models.ColumnID, id)
		if err != nil {
			return err
		}
		_, err = s.Exec(ctx, "persons.delete", st)
		return err
	})
}
