package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/personnel-api/internal/models"
	"github.com/noah-isme/personnel-api/internal/service"
	appErrors "github.com/noah-isme/personnel-api/pkg/errors"
	"github.com/noah-isme/personnel-api/pkg/response"
)

type personService interface {
	Candidates(ctx context.Context, query string, page, perPage int) (*models.CandidatePage, error)
	Get(ctx context.Context, id int64) (*models.Person, error)
	Upsert(ctx context.Context, req service.PersonRequest) (*models.UpsertResult, error)
	Delete(ctx context.Context, id int64) error
}

type dossierService interface {
	Export(ctx context.Context, personID int64, format string, save bool) (*service.Document, error)
}

// PersonHandler exposes candidate endpoints.
type PersonHandler struct {
	persons  personService
	dossiers dossierService
}

// NewPersonHandler constructs PersonHandler.
func NewPersonHandler(persons personService, dossiers dossierService) *PersonHandler {
	return &PersonHandler{persons: persons, dossiers: dossiers}
}

// Candidates godoc
// @Summary List candidates
// @Tags Persons
// @Produce json
// @Param page path int true "Zero-based page"
// @Param search query string false "Surname, firstname and patronymic separated by spaces"
// @Param per_page query int false "Page size"
// @Success 200 {object} models.CandidatePage
// @Failure 400 {object} response.Envelope
// @Router /candidates/{page} [get]
func (h *PersonHandler) Candidates(c *gin.Context) {
	page, err := strconv.Atoi(c.Param("page"))
	if err != nil || page < 0 {
		response.Error(c, appErrors.Validation(err, "invalid page"))
		return
	}
	perPage, err := intQuery(c, "per_page")
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.persons.Candidates(c.Request.Context(), c.Query("search"), page, perPage)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Get godoc
// @Summary Get person
// @Tags Persons
// @Produce json
// @Param personId path int true "Person ID"
// @Success 200 {object} models.Person
// @Failure 404 {object} response.Envelope
// @Router /persons/{personId} [get]
func (h *PersonHandler) Get(c *gin.Context) {
	id, err := int64Param(c, "personId")
	if err != nil {
		response.Error(c, err)
		return
	}
	person, err := h.persons.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, person)
}

// Upsert godoc
// @Summary Create or update person
// @Description Updates by id when given, otherwise by identity match; creates the person when no match exists.
// @Tags Persons
// @Accept json
// @Produce json
// @Param payload body service.PersonRequest true "Person payload"
// @Success 200 {object} models.UpsertResult
// @Failure 400 {object} response.Envelope
// @Router /persons [post]
func (h *PersonHandler) Upsert(c *gin.Context) {
	var req service.PersonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Validation(err, "invalid person payload"))
		return
	}
	result, err := h.persons.Upsert(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Delete godoc
// @Summary Delete person with every linked item
// @Tags Persons
// @Param personId path int true "Person ID"
// @Success 204
// @Router /persons/{personId} [delete]
func (h *PersonHandler) Delete(c *gin.Context) {
	id, err := int64Param(c, "personId")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.persons.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Export godoc
// @Summary Export person dossier
// @Tags Persons
// @Produce application/pdf
// @Produce text/csv
// @Param personId path int true "Person ID"
// @Param format query string false "pdf or csv" default(pdf)
// @Param save query bool false "Also store the file in the person folder"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /persons/{personId}/export [get]
func (h *PersonHandler) Export(c *gin.Context) {
	id, err := int64Param(c, "personId")
	if err != nil {
		response.Error(c, err)
		return
	}
	save := false
	if raw := strings.TrimSpace(c.Query("save")); raw != "" {
		save, err = strconv.ParseBool(raw)
		if err != nil {
			response.Error(c, appErrors.Validation(err, "invalid save flag"))
			return
		}
	}

	doc, err := h.dossiers.Export(c.Request.Context(), id, c.Query("format"), save)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, doc.Name))
	c.Data(http.StatusOK, doc.ContentType, doc.Data)
}
