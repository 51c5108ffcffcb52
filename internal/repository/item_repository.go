package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/noah-isme/personnel-api/internal/models"
)

// ErrUnknownKind is returned for item kinds outside the registry.
var ErrUnknownKind = errors.New("unknown item kind")

// ItemRepository persists rows of the person-linked item tables.
type ItemRepository struct {
	gw  *Gateway
	now func() time.Time
}

// NewItemRepository constructs an ItemRepository.
func NewItemRepository(gw *Gateway) *ItemRepository {
	return &ItemRepository{gw: gw, now: time.Now}
}

func tableFor(kind models.ItemKind) (models.Table, error) {
	table, ok := kind.Table()
	if !ok {
		return models.Table{}, fmt.Errorf("%w: %q", ErrUnknownKind, string(kind))
	}
	return table, nil
}

// ListByPerson returns every row of kind owned by personID in insertion order.
func (r *ItemRepository) ListByPerson(ctx context.Context, kind models.ItemKind, personID int64) ([]models.ItemRecord, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	st, err := BuildFilteredSelect(table.Readable(), table,
		[]Filter{{Column: models.ColumnPersonID, Value: personID}}, Page{})
	if err != nil {
		return nil, err
	}
	rows, err := r.gw.Reader().SelectMaps(ctx, "items.list", st)
	if err != nil {
		return nil, err
	}
	items := make([]models.ItemRecord, len(rows))
	for i, row := range rows {
		items[i] = models.ItemRecord(row)
	}
	return items, nil
}

// Upsert stamps created and person_id onto fields and writes the row. When
// fields carries an id the row is updated in place, otherwise inserted.
func (r *ItemRepository) Upsert(ctx context.Context, kind models.ItemKind, personID int64, fields models.ItemRecord) error {
	table, err := tableFor(kind)
	if err != nil {
		return err
	}

	values := make(map[string]interface{}, len(fields)+2)
	var id interface{}
	for k, v := range fields {
		if k == models.ColumnID {
			id = v
			continue
		}
		values[k] = v
	}
	values[models.ColumnCreated] = r.now().UTC()
	values[models.ColumnPersonID] = personID

	if id != nil {
		st, err := BuildUpdate(table, values, models.ColumnID, id)
		if err != nil {
			return err
		}
		return r.gw.WithinTx(ctx, func(s *Session) error {
			_, err := s.Exec(ctx, "items.update", st)
			return err
		})
	}

	st, err := BuildInsert(table, values)
	if err != nil {
		return err
	}
	return r.gw.WithinTx(ctx, func(s *Session) error {
		_, err := s.InsertID(ctx, "items.insert", st)
		return err
	})
}

// DeleteByID removes one row of kind. Unknown ids are a no-op.
func (r *ItemRepository) DeleteByID(ctx context.Context, kind models.ItemKind, itemID int64) error {
	table, err := tableFor(kind)
	if err != nil {
		return err
	}
	st, err := BuildDelete(table, models.ColumnID, itemID)
	if err != nil {
		return err
	}
	return r.gw.WithinTx(ctx, func(s *Session) error {
		_, err := s.Exec(ctx, "items.delete", st)
		return err
	})
}
