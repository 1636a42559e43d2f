package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/go-reviser/reviser-api/internal/service"
	appErrors "github.com/go-reviser/reviser-api/pkg/errors"
	"github.com/go-reviser/reviser-api/pkg/response"
)

// CategoryHandler handles question category endpoints.
type CategoryHandler struct {
	service *service.CategoryService
}

// NewCategoryHandler constructs a category handler.
func NewCategoryHandler(svc *service.CategoryService) *CategoryHandler {
	return &CategoryHandler{service: svc}
}

// List godoc
// @Summary List question categories
// @Tags Categories
// @Produce json
// @Param subjectId query string false "Filter by subject"
// @Success 200 {object} response.Envelope
// @Router /question-categories [get]
func (h *CategoryHandler) List(c *gin.Context) {
	if subjectID := c.Query("subjectId"); subjectID != "" {
		categories, err := h.service.ListBySubject(c.Request.Context(), subjectID)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, categories, nil)
		return
	}
	categories, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, categories, nil)
}

// Get godoc
// @Summary Get question category by id
// @Tags Categories
// @Produce json
// @Param id path string true "Category ID"
// @Success 200 {object} response.Envelope
// @Router /question-categories/{id} [get]
func (h *CategoryHandler) Get(c *gin.Context) {
	category, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, category, nil)
}

// Create godoc
// @Summary Create question category
// @Tags Categories
// @Accept json
// @Produce json
// @Param payload body service.CreateCategoryRequest true "Category payload"
// @Success 201 {object} response.Envelope
// @Router /question-categories [post]
func (h *CategoryHandler) Create(c *gin.Context) {
	var req service.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	category, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, category)
}

// BulkCreate godoc
// @Summary Create multiple question categories
// @Tags Categories
// @Accept json
// @Produce json
// @Param payload body service.BulkCreateCategoriesRequest true "Bulk payload"
// @Success 201 {object} response.Envelope
// @Router /question-categories/bulk [post]
func (h *CategoryHandler) BulkCreate(c *gin.Context) {
	var req service.BulkCreateCategoriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	results, err := h.service.BulkCreate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, results)
}

// BulkDelete godoc
// @Summary Delete multiple question categories
// @Tags Categories
// @Accept json
// @Produce json
// @Param payload body object true "Category ids"
// @Success 200 {object} response.Envelope
// @Router /question-categories/bulk-delete [post]
func (h *CategoryHandler) BulkDelete(c *gin.Context) {
	var req struct {
		IDs []string `json:"ids" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	results, err := h.service.BulkDelete(c.Request.Context(), req.IDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, results, nil)
}

// Update godoc
// @Summary Update question category
// @Tags Categories
// @Accept json
// @Produce json
// @Param id path string true "Category ID"
// @Param payload body service.CreateCategoryRequest true "Category payload"
// @Success 200 {object} response.Envelope
// @Router /question-categories/{id} [put]
func (h *CategoryHandler) Update(c *gin.Context) {
	var req service.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	category, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, category, nil)
}

// Delete godoc
// @Summary Delete question category
// @Tags Categories
// @Param id path string true "Category ID"
// @Success 204 {object} response.Envelope
// @Router /question-categories/{id} [delete]
func (h *CategoryHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
