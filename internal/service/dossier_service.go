package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/personnel-api/internal/models"
	appErrors "github.com/noah-isme/personnel-api/pkg/errors"
	"github.com/noah-isme/personnel-api/pkg/export"
)

// Renderer turns a dataset into a downloadable document.
type Renderer interface {
	Render(data export.Dataset) ([]byte, error)
	ContentType() string
	Extension() string
}

type dossierPersons interface {
	FindByID(ctx context.Context, id int64) (*models.Person, error)
}

type dossierItems interface {
	ListByPerson(ctx context.Context, kind models.ItemKind, personID int64) ([]models.ItemRecord, error)
}

type fileSaver interface {
	Save(dir, name string, data []byte) (string, error)
}

// Document is a rendered dossier.
type Document struct {
	Name        string
	ContentType string
	Data        []byte
	SavedTo     string
}

// DossierService exports everything known about a person as one document.
type DossierService struct {
	persons   dossierPersons
	items     dossierItems
	files     fileSaver
	renderers map[string]Renderer
	logger    *zap.Logger
}

// NewDossierService constructs the dossier service. renderers is keyed by format name.
func NewDossierService(persons dossierPersons, items dossierItems, files fileSaver, renderers map[string]Renderer, logger *zap.Logger) *DossierService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DossierService{persons: persons, items: items, files: files, renderers: renderers, logger: logger}
}

// Export renders the dossier of personID in format. With save set the file is
// also written into the person's folder.
func (s *DossierService) Export(ctx context.Context, personID int64, format string, save bool) (*Document, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "pdf"
	}
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	person, err := s.persons.FindByID(ctx, personID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "person not found")
		}
		return nil, appErrors.Internal(err, "failed to load person")
	}

	dataset, err := s.collect(ctx, person)
	if err != nil {
		return nil, err
	}
	data, err := renderer.Render(dataset)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render dossier")
	}

	doc := &Document{
		Name:        fmt.Sprintf("dossier-%d-%s.%s", person.ID, time.Now().Format("20060102"), renderer.Extension()),
		ContentType: renderer.ContentType(),
		Data:        data,
	}
	if save {
		if person.Destination == nil || *person.Destination == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "person has no destination folder")
		}
		path, err := s.files.Save(*person.Destination, doc.Name, data)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to save dossier")
		}
		doc.SavedTo = path
		s.logger.Info("dossier saved", zap.Int64("person_id", person.ID), zap.String("path", path))
	}
	return doc, nil
}

func (s *DossierService) collect(ctx context.Context, person *models.Person) (export.Dataset, error) {
	dataset := export.Dataset{
		Title:   strings.TrimSpace(strings.Join([]string{person.Surname, person.Firstname, person.Patronymic}, " ")),
		Headers: []string{"section", "field", "value"},
	}
	dataset.Append("persons", "id", fmt.Sprint(person.ID))
	dataset.Append("persons", "surname", person.Surname)
	dataset.Append("persons", "firstname", person.Firstname)
	dataset.Append("persons", "patronymic", person.Patronymic)
	dataset.Append("persons", "birthday", person.Birthday.String())
	dataset.Append("persons", "created", person.Created.Format(time.RFC3339))
	if person.Destination != nil {
		dataset.Append("persons", "destination", *person.Destination)
	}

	for _, kind := range models.ItemKinds() {
		rows, err := s.items.ListByPerson(ctx, kind, person.ID)
		if err != nil {
			return export.Dataset{}, appErrors.Internal(err, "failed to load "+string(kind))
		}
		table, _ := kind.Table()
		for i, row := range rows {
			section := fmt.Sprintf("%s #%d", kind, i+1)
			for _, col := range table.Columns {
				if col == models.ColumnPersonID {
					continue
				}
				value, ok := row[col]
				if !ok || value == nil {
					continue
				}
				dataset.Append(section, col, formatValue(value))
			}
		}
	}
	return dataset, nil
}

func formatValue(v interface{}) string {
	switch t := v.(type) {
	case time.Time:
		return t.Format(time.RFC3339)
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}
