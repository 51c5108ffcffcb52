package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/personnel-api/internal/models"
	appErrors "github.com/noah-isme/personnel-api/pkg/errors"
)

type personRepository interface {
	Search(ctx context.Context, query string, page, pageSize int) (*models.CandidatePage, error)
	FindByID(ctx context.Context, id int64) (*models.Person, error)
	Upsert(ctx context.Context, rec models.PersonRecord, derive models.DestinationFunc) (*models.UpsertResult, error)
	DeleteCascade(ctx context.Context, id int64) error
}

type folderDeriver interface {
	Derive(id int64, surname, firstname, patronymic string) (string, error)
	Discard(path string) error
}

type userResolver interface {
	UserID(ctx context.Context) (*int64, error)
}

// PersonRequest is the payload of a person upsert. Omitted fields stay nil;
// an update by id writes only the fields that were sent.
type PersonRequest struct {
	ID         *int64       `json:"id" validate:"omitempty,gt=0"`
	Surname    *string      `json:"surname" validate:"omitempty,max=255"`
	Firstname  *string      `json:"firstname" validate:"omitempty,max=255"`
	Patronymic *string      `json:"patronymic" validate:"omitempty,max=255"`
	Birthday   *models.Date `json:"birthday"`
}

// PaginationOptions bounds the candidate listing.
type PaginationOptions struct {
	PageSize    int
	MaxPageSize int
}

// PersonService handles candidate use-cases.
type PersonService struct {
	repo       personRepository
	folders    folderDeriver
	users      userResolver
	cache      *CacheService
	metrics    *MetricsService
	pagination PaginationOptions
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewPersonService constructs the person service.
func NewPersonService(repo personRepository, folders folderDeriver, users userResolver, cache *CacheService, metrics *MetricsService, pagination PaginationOptions, validate *validator.Validate, logger *zap.Logger) *PersonService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if pagination.PageSize <= 0 {
		pagination.PageSize = 10
	}
	if pagination.MaxPageSize < pagination.PageSize {
		pagination.MaxPageSize = pagination.PageSize
	}
	return &PersonService{
		repo:       repo,
		folders:    folders,
		users:      users,
		cache:      cache,
		metrics:    metrics,
		pagination: pagination,
		validator:  validate,
		logger:     logger,
	}
}

// Candidates returns one page of the candidate listing. perPage <= 0 selects
// the configured default.
func (s *PersonService) Candidates(ctx context.Context, query string, page, perPage int) (*models.CandidatePage, error) {
	if page < 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "page must not be negative")
	}
	if perPage <= 0 {
		perPage = s.pagination.PageSize
	}
	if perPage > s.pagination.MaxPageSize {
		perPage = s.pagination.MaxPageSize
	}

	key := candidatesKey(query, page, perPage)
	var cached models.CandidatePage
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	result, err := s.repo.Search(ctx, query, page, perPage)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list candidates")
	}
	s.cache.Set(ctx, key, result)
	return result, nil
}

// Get returns the full person row.
func (s *PersonService) Get(ctx context.Context, id int64) (*models.Person, error) {
	var cached models.Person
	if s.cache.Get(ctx, personKey(id), &cached) {
		return &cached, nil
	}

	person, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "person not found")
		}
		return nil, appErrors.Internal(err, "failed to load person")
	}
	s.cache.Set(ctx, personKey(id), person)
	return person, nil
}

// Upsert creates the person or updates the one addressed by id or identity.
// Names are stored upper-cased so identity matching and search agree.
func (s *PersonService) Upsert(ctx context.Context, req PersonRequest) (*models.UpsertResult, error) {
	if req.ID != nil && *req.ID == 0 {
		req.ID = nil
	}
	rec, err := s.record(req)
	if err != nil {
		return nil, err
	}

	userID, err := s.users.UserID(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to resolve current user")
	}

	rec.UserID = userID
	var derived []string
	derive := func(id int64, rec models.PersonRecord) (string, error) {
		path, err := s.folders.Derive(id, rec.Surname, rec.Firstname, rec.Patronymic)
		if err == nil {
			derived = append(derived, path)
		}
		return path, err
	}
	result, err := s.repo.Upsert(ctx, rec, derive)
	if err != nil {
		for _, path := range derived {
			if derr := s.folders.Discard(path); derr != nil {
				s.logger.Warn("person folder left behind", zap.String("path", path), zap.Error(derr))
			}
		}
		return nil, appErrors.Internal(err, "failed to save person")
	}

	s.metrics.RecordPersonUpsert(!result.Exists)
	s.cache.InvalidatePerson(ctx, result.PersonID)
	if !result.Exists {
		s.logger.Info("person created",
			zap.Int64("person_id", result.PersonID),
			zap.String("destination", result.Destination))
	}
	return result, nil
}

// record normalises req into a repository record. Creating or matching by
// identity needs surname, firstname and birthday; an update by id takes any
// subset, but a supplied name must not be blank.
func (s *PersonService) record(req PersonRequest) (models.PersonRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.PersonRecord{}, appErrors.Validation(err, "invalid person payload")
	}

	rec := models.PersonRecord{ID: req.ID, Supplied: []string{}}
	if req.Surname != nil {
		rec.Surname = models.NormalizeName(*req.Surname)
		if rec.Surname == "" {
			return rec, appErrors.Clone(appErrors.ErrValidation, "surname must not be blank")
		}
		rec.Supplied = append(rec.Supplied, "surname")
	}
	if req.Firstname != nil {
		rec.Firstname = models.NormalizeName(*req.Firstname)
		if rec.Firstname == "" {
			return rec, appErrors.Clone(appErrors.ErrValidation, "firstname must not be blank")
		}
		rec.Supplied = append(rec.Supplied, "firstname")
	}
	if req.Patronymic != nil {
		rec.Patronymic = models.NormalizeName(*req.Patronymic)
		rec.Supplied = append(rec.Supplied, "patronymic")
	}
	if req.Birthday != nil {
		if req.Birthday.IsZero() {
			return rec, appErrors.Clone(appErrors.ErrValidation, "birthday must not be empty")
		}
		rec.Birthday = *req.Birthday
		rec.Supplied = append(rec.Supplied, "birthday")
	}

	if rec.ID == nil {
		switch {
		case req.Surname == nil:
			return rec, appErrors.Clone(appErrors.ErrValidation, "surname is required")
		case req.Firstname == nil:
			return rec, appErrors.Clone(appErrors.ErrValidation, "firstname is required")
		case req.Birthday == nil:
			return rec, appErrors.Clone(appErrors.ErrValidation, "birthday is required")
		}
	}
	return rec, nil
}

// Delete removes the person and every item row that references it.
func (s *PersonService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.DeleteCascade(ctx, id); err != nil {
		return appErrors.Internal(err, "failed to delete person")
	}
	s.cache.InvalidatePerson(ctx, id)
	s.logger.Info("person deleted", zap.Int64("person_id", id))
	return nil
}
