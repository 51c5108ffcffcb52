package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/personnel-api/internal/models"
	appErrors "github.com/noah-isme/personnel-api/pkg/errors"
)

const maxItemValueLength = 10000

type itemRepository interface {
	ListByPerson(ctx context.Context, kind models.ItemKind, personID int64) ([]models.ItemRecord, error)
	Upsert(ctx context.Context, kind models.ItemKind, personID int64, fields models.ItemRecord) error
	DeleteByID(ctx context.Context, kind models.ItemKind, itemID int64) error
}

// ItemService handles the person-linked item tables addressed by name.
type ItemService struct {
	repo      itemRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewItemService constructs the item service.
func NewItemService(repo itemRepository, validate *validator.Validate, logger *zap.Logger) *ItemService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ItemService{repo: repo, validator: validate, logger: logger}
}

// resolveKind rejects every name outside the registry identically.
func resolveKind(raw string) (models.ItemKind, models.Table, error) {
	kind, ok := models.ParseItemKind(raw)
	if !ok {
		return "", models.Table{}, appErrors.ErrUnknownItem
	}
	table, _ := kind.Table()
	return kind, table, nil
}

// List returns the rows of item owned by personID.
func (s *ItemService) List(ctx context.Context, item string, personID int64) ([]models.ItemRecord, error) {
	kind, _, err := resolveKind(item)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListByPerson(ctx, kind, personID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list items")
	}
	return rows, nil
}

// Upsert validates payload against the columns of item and writes it. An id
// in the payload selects the row to update.
func (s *ItemService) Upsert(ctx context.Context, item string, personID int64, payload map[string]interface{}) error {
	kind, table, err := resolveKind(item)
	if err != nil {
		return err
	}
	fields, err := s.sanitize(table, payload)
	if err != nil {
		return err
	}
	if err := s.repo.Upsert(ctx, kind, personID, fields); err != nil {
		return appErrors.Internal(err, "failed to save item")
	}
	s.logger.Debug("item saved", zap.String("item", item), zap.Int64("person_id", personID))
	return nil
}

// Delete removes one row of item.
func (s *ItemService) Delete(ctx context.Context, item string, itemID int64) error {
	kind, _, err := resolveKind(item)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteByID(ctx, kind, itemID); err != nil {
		return appErrors.Internal(err, "failed to delete item")
	}
	return nil
}

// sanitize keeps allow-listed scalar fields. person_id and created are
// server-assigned and dropped from the payload. An empty payload is valid and
// inserts a row carrying only the stamped columns.
func (s *ItemService) sanitize(table models.Table, payload map[string]interface{}) (models.ItemRecord, error) {
	fields := make(models.ItemRecord, len(payload))
	for key, raw := range payload {
		switch key {
		case models.ColumnPersonID, models.ColumnCreated:
			continue
		case models.ColumnID:
			if raw == nil {
				continue
			}
			id, err := parseItemID(raw)
			if err != nil {
				return nil, appErrors.Validation(err, "invalid item id")
			}
			fields[key] = id
			continue
		}
		if !table.Allows(key) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown field %q for %s", key, table.Name))
		}
		value, err := scalarText(raw)
		if err != nil {
			return nil, appErrors.Validation(err, fmt.Sprintf("invalid value for %q", key))
		}
		if value != nil {
			if err := s.validator.Var(*value, fmt.Sprintf("max=%d", maxItemValueLength)); err != nil {
				return nil, appErrors.Validation(err, fmt.Sprintf("value of %q is too long", key))
			}
			fields[key] = *value
		} else {
			fields[key] = nil
		}
	}
	return fields, nil
}

func parseItemID(raw interface{}) (int64, error) {
	var id int64
	var err error
	switch v := raw.(type) {
	case json.Number:
		id, err = v.Int64()
	case float64:
		id = int64(v)
		if float64(id) != v {
			err = fmt.Errorf("id %v is not an integer", v)
		}
	case int64:
		id = v
	case int:
		id = int64(v)
	case string:
		id, err = strconv.ParseInt(v, 10, 64)
	default:
		err = fmt.Errorf("unsupported id type %T", raw)
	}
	if err == nil && id <= 0 {
		err = fmt.Errorf("id must be positive")
	}
	return id, err
}

// scalarText renders JSON scalars as text. Objects and arrays are rejected.
func scalarText(raw interface{}) (*string, error) {
	var s string
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case string:
		s = v
	case json.Number:
		s = v.String()
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		s = strconv.FormatBool(v)
	default:
		return nil, fmt.Errorf("unsupported value type %T", raw)
	}
	return &s, nil
}
