package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/personnel-api/internal/models"
	appErrors "github.com/noah-isme/personnel-api/pkg/errors"
	"github.com/noah-isme/personnel-api/pkg/response"
)

type itemService interface {
	List(ctx context.Context, item string, personID int64) ([]models.ItemRecord, error)
	Upsert(ctx context.Context, item string, personID int64, payload map[string]interface{}) error
	Delete(ctx context.Context, item string, itemID int64) error
}

// ItemHandler exposes the person-linked item tables under a single route pair.
type ItemHandler struct {
	items itemService
}

// NewItemHandler constructs ItemHandler.
func NewItemHandler(items itemService) *ItemHandler {
	return &ItemHandler{items: items}
}

// List godoc
// @Summary List items of a person
// @Tags Items
// @Produce json
// @Param item path string true "Item kind" Enums(addresses, affiliations, checks, contacts, documents, educations, inquiries, investigations, previous, poligraphs, staffs, workplaces)
// @Param personId path int true "Person ID"
// @Success 200 {array} object
// @Failure 400 {object} response.Envelope
// @Router /{item}/{personId} [get]
func (h *ItemHandler) List(c *gin.Context) {
	personID, err := int64Param(c, "personId")
	if err != nil {
		response.Error(c, err)
		return
	}
	rows, err := h.items.List(c.Request.Context(), c.Param("item"), personID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows)
}

// Upsert godoc
// @Summary Create or update an item of a person
// @Description An id in the body updates that row; otherwise a row is inserted.
// @Tags Items
// @Accept json
// @Param item path string true "Item kind"
// @Param personId path int true "Person ID"
// @Param payload body object true "Item fields"
// @Success 201
// @Failure 400 {object} response.Envelope
// @Router /{item}/{personId} [post]
func (h *ItemHandler) Upsert(c *gin.Context) {
	personID, err := int64Param(c, "personId")
	if err != nil {
		response.Error(c, err)
		return
	}
	var payload map[string]interface{}
	dec := json.NewDecoder(c.Request.Body)
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		response.Error(c, appErrors.Validation(err, "invalid item payload"))
		return
	}
	if err := h.items.Upsert(c.Request.Context(), c.Param("item"), personID, payload); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c)
}

// Delete godoc
// @Summary Delete an item
// @Tags Items
// @Param item path string true "Item kind"
// @Param itemId path int true "Item ID"
// @Success 204
// @Failure 400 {object} response.Envelope
// @Router /{item}/{itemId} [delete]
func (h *ItemHandler) Delete(c *gin.Context) {
	itemID, err := int64Param(c, "itemId")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.items.Delete(c.Request.Context(), c.Param("item"), itemID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
